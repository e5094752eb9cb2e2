// Package postprocess turns a rendered frame buffer into image files for
// the presentation side: downsampling and encoding.
package postprocess

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/webp"
)

// Format is an output image encoding.
type Format string

const (
	WebP Format = "webp"
	PNG  Format = "png"
	TGA  Format = "tga"
)

// ParseFormat validates a config string.
func ParseFormat(v string) (Format, error) {
	switch f := Format(v); f {
	case WebP, PNG, TGA:
		return f, nil
	case "":
		return WebP, nil
	}
	return "", fmt.Errorf("postprocess: unknown format %q", v)
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// Encode writes img in format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case WebP:
		if err := nativewebp.Encode(w, img, nil); err != nil {
			return fmt.Errorf("postprocess: webp encode: %w", err)
		}
	case PNG:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("postprocess: png encode: %w", err)
		}
	case TGA:
		if err := tga.Encode(w, img); err != nil {
			return fmt.Errorf("postprocess: tga encode: %w", err)
		}
	default:
		return fmt.Errorf("postprocess: unknown format %q", f)
	}
	return nil
}

// WriteFile encodes img to path, creating parent directories.
func WriteFile(path string, img image.Image, f Format) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("postprocess: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("postprocess: %w", err)
	}
	if err := Encode(out, img, f); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Sniff reports the format of an encoded image from its header. TGA has no
// magic number, so anything that is not PNG or WebP is taken as TGA.
func Sniff(header []byte) Format {
	switch {
	case bytes.HasPrefix(header, []byte("\x89PNG\r\n\x1a\n")):
		return PNG
	case len(header) >= 12 && string(header[:4]) == "RIFF" && string(header[8:12]) == "WEBP":
		return WebP
	}
	return TGA
}

// Decode reads an image in any of the output formats.
func Decode(r io.Reader) (image.Image, error) {
	br := bufio.NewReader(r)
	header, _ := br.Peek(12)

	var (
		img image.Image
		err error
	)
	f := Sniff(header)
	switch f {
	case PNG:
		img, err = png.Decode(br)
	case WebP:
		img, err = webp.Decode(br)
	default:
		img, err = tga.Decode(br)
	}
	if err != nil {
		return nil, fmt.Errorf("postprocess: %s decode: %w", f, err)
	}
	return img, nil
}
