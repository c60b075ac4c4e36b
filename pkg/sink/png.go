package sink

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"github.com/disintegration/gift"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/atlaspack/pkg/atlas"
	"github.com/matzehuels/atlaspack/pkg/errors"
)

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	background string
	level      png.CompressionLevel
}

// WithBackground fills the canvas with a "#rrggbb" colour before the frames
// are drawn. The default, and the value "transparent", leave it clear.
func WithBackground(hex string) PNGOption {
	return func(r *pngRenderer) { r.background = hex }
}

// WithCompression sets the PNG compression level (default png.DefaultCompression).
func WithCompression(level png.CompressionLevel) PNGOption {
	return func(r *pngRenderer) { r.level = level }
}

// ParseBackground parses a background colour. It returns nil for "" and
// "transparent".
func ParseBackground(s string) (color.Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "transparent", "none":
		return nil, nil
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid background colour %q", s)
	}
	return c.Clamped(), nil
}

// RenderPNG draws images onto a canvas of l.Canvas() at their frame
// positions. images[i] belongs to l.Frames[i] and must match its size.
func RenderPNG(l atlas.Layout, images []image.Image, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{level: png.DefaultCompression}
	for _, opt := range opts {
		opt(&r)
	}

	if len(images) != len(l.Frames) {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"got %d images for %d frames", len(images), len(l.Frames))
	}
	bg, err := ParseBackground(r.background)
	if err != nil {
		return nil, err
	}

	size := l.Canvas()
	canvas := image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))
	if bg != nil {
		draw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	}

	g := gift.New()
	for i, f := range l.Frames {
		img := images[i]
		if got := img.Bounds().Size(); got != image.Pt(f.W, f.H) {
			return nil, errors.New(errors.ErrCodeInvalidDimension,
				"image for %s is %dx%d, frame is %dx%d", f.Name, got.X, got.Y, f.W, f.H)
		}
		g.DrawAt(canvas, img, image.Pt(f.X, f.Y), gift.CopyOperator)
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: r.level}
	if err := enc.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
