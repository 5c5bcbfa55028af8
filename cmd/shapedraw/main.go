// Command shapedraw works with saved drawings offline.
//
//	shapedraw render -in drawing.json -out drawing.png [-width 800 -height 600 -bg white]
//	shapedraw sample [-out sample.json]
//	shapedraw check -in drawing.json
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/inamate/shapedraw/backend-go/internal/document"
	"github.com/inamate/shapedraw/backend-go/internal/export"
)

var errUsage = errors.New("usage: shapedraw <render|sample|check> [flags]")

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("shapedraw", "error", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		return errUsage
	}
	switch args[0] {
	case "render":
		return runRender(args[1:])
	case "sample":
		return runSample(args[1:], stdout)
	case "check":
		return runCheck(args[1:], stdout)
	}
	return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
}

func runRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	in := fs.String("in", "", "drawing JSON to read")
	out := fs.String("out", "", "PNG file to write")
	width := fs.Int("width", export.DefaultWidth, "image width in pixels")
	height := fs.Int("height", export.DefaultHeight, "image height in pixels")
	bg := fs.String("bg", "white", "background colour name or hex")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return fmt.Errorf("render needs -in and -out: %w", errUsage)
	}

	background, err := export.ParseBackground(*bg)
	if err != nil {
		return fmt.Errorf("parse -bg: %w", err)
	}
	d, err := readDrawing(*in)
	if err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	opts := export.Options{Width: *width, Height: *height, Background: background}
	if err := export.WritePNG(f, d, opts); err != nil {
		f.Close()
		os.Remove(*out)
		return fmt.Errorf("render %s: %w", *in, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	slog.Info("rendered drawing", "in", *in, "out", *out, "shapes", len(d))
	return nil
}

func runSample(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("sample", flag.ContinueOnError)
	out := fs.String("out", "", "file to write (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	w := stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	return document.Encode(w, document.NewSampleDrawing())
}

func runCheck(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	in := fs.String("in", "", "drawing JSON to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("check needs -in: %w", errUsage)
	}
	d, err := readDrawing(*in)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s: %d shapes\n", *in, len(d))
	return nil
}

func readDrawing(path string) (document.Drawing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open drawing: %w", err)
	}
	defer f.Close()
	d, err := document.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return d, nil
}
