package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Encode writes d as a JSON array.
func Encode(w io.Writer, d Drawing) error {
	if d == nil {
		d = Drawing{}
	}
	if err := json.NewEncoder(w).Encode(d); err != nil {
		return fmt.Errorf("encode drawing: %w", err)
	}
	return nil
}

// Marshal returns d as JSON bytes.
func Marshal(d Drawing) ([]byte, error) {
	if d == nil {
		d = Drawing{}
	}
	return json.Marshal(d)
}

// rawEntry uses pointers so missing fields can be told apart from zero values.
type rawEntry struct {
	Type   *string    `json:"type"`
	Coords *[]float64 `json:"coords"`
	Color  *string    `json:"color"`
	Fill   *string    `json:"fill"`
}

// Decode reads and fully validates a drawing. Nothing is returned unless
// every entry is valid.
func Decode(r io.Reader) (Drawing, error) {
	var raw []rawEntry
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &FormatError{Index: -1, Reason: "empty document"}
		}
		return nil, &FormatError{Index: -1, Reason: err.Error()}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, &FormatError{Index: -1, Reason: "trailing data after document"}
	}

	d := make(Drawing, 0, len(raw))
	for i, re := range raw {
		e, err := validate(i, re)
		if err != nil {
			return nil, err
		}
		d = append(d, e)
	}
	return d, nil
}

// Unmarshal is Decode over a byte slice.
func Unmarshal(data []byte) (Drawing, error) {
	return Decode(bytes.NewReader(data))
}

func validate(i int, re rawEntry) (Entry, error) {
	switch {
	case re.Type == nil:
		return Entry{}, &FormatError{Index: i, Field: "type", Reason: "missing"}
	case re.Coords == nil:
		return Entry{}, &FormatError{Index: i, Field: "coords", Reason: "missing"}
	case re.Color == nil:
		return Entry{}, &FormatError{Index: i, Field: "color", Reason: "missing"}
	case re.Fill == nil:
		return Entry{}, &FormatError{Index: i, Field: "fill", Reason: "missing"}
	}

	e := Entry{Type: ShapeType(*re.Type), Coords: *re.Coords, Color: *re.Color, Fill: *re.Fill}

	kind, err := e.Type.Kind()
	if err != nil {
		return Entry{}, fmt.Errorf("entry %d: %w", i, err)
	}

	pts, err := e.Points()
	if err != nil {
		return Entry{}, &FormatError{Index: i, Field: "coords", Reason: err.Error()}
	}
	if len(pts) == 0 {
		return Entry{}, &FormatError{Index: i, Field: "coords", Reason: "empty"}
	}
	for _, v := range e.Coords {
		if !ValidCoordinate(v) {
			return Entry{}, &FormatError{
				Index:  i,
				Field:  "coords",
				Reason: fmt.Sprintf("coordinate %g out of range", v),
			}
		}
	}
	if !AcceptsVertexCount(kind, len(pts)) {
		return Entry{}, &FormatError{
			Index:  i,
			Field:  "coords",
			Reason: fmt.Sprintf("%d vertices is not a valid %s", len(pts), kind),
		}
	}

	colors := []struct{ field, value string }{{"color", e.Color}, {"fill", e.Fill}}
	for _, c := range colors {
		if c.value == "" {
			continue
		}
		if _, err := ParseColor(c.value); err != nil {
			return Entry{}, &FormatError{Index: i, Field: c.field, Reason: err.Error()}
		}
	}
	return e, nil
}
