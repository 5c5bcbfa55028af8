package document

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ParseColor parses a CSS hex colour: #RGB, #RRGGBB or #RRGGBBAA.
func ParseColor(s string) (color.RGBA, error) {
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, fmt.Errorf("color must start with #")
	}
	hex := strings.TrimPrefix(s, "#")
	switch len(hex) {
	case 3:
		// #RGB
		val, err := strconv.ParseUint(hex, 16, 16)
		if err != nil {
			return color.RGBA{}, err
		}
		r, g, b := uint8(val>>8&0xF), uint8(val>>4&0xF), uint8(val&0xF)
		return color.RGBA{R: r<<4 | r, G: g<<4 | g, B: b<<4 | b, A: 255}, nil
	case 6:
		// #RRGGBB
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		return color.RGBA{
			R: uint8(val >> 16),
			G: uint8((val >> 8) & 0xFF),
			B: uint8(val & 0xFF),
			A: 255,
		}, nil
	case 8:
		// #RRGGBBAA
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		return color.RGBA{
			R: uint8(val >> 24),
			G: uint8((val >> 16) & 0xFF),
			B: uint8((val >> 8) & 0xFF),
			A: uint8(val & 0xFF),
		}, nil
	}
	return color.RGBA{}, fmt.Errorf("invalid hex length")
}
