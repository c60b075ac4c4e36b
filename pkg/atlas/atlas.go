// Package atlas defines the serializable description of a packed sprite
// sheet.
//
// A [Layout] is what the packing stage produces and every sink consumes:
// the canvas size, the options it was packed with, and one [Frame] per
// source image giving its rectangle on the canvas. Layouts round-trip
// through JSON (and BSON via the struct tags) so a sheet can be re-rendered
// later without packing again.
package atlas

import (
	"encoding/json"
	"fmt"
	"image"
	"os"

	"github.com/matzehuels/atlaspack/pkg/packer"
)

// =============================================================================
// Layout
// =============================================================================

// Layout is a packed sprite sheet.
//
// Frames keep the order of the inputs they were built from, not the order
// in which the packer placed them.
type Layout struct {
	Width  int `json:"width" bson:"width"`
	Height int `json:"height" bson:"height"`

	// Packing options, recorded so a layout can be reproduced.
	Padding int    `json:"padding,omitempty" bson:"padding,omitempty"`
	Pow2    bool   `json:"pow2,omitempty" bson:"pow2,omitempty"`
	Growth  string `json:"growth,omitempty" bson:"growth,omitempty"`
	Order   string `json:"order,omitempty" bson:"order,omitempty"`

	Frames []Frame `json:"frames" bson:"frames"`
}

// Frame is one image's rectangle on the canvas.
type Frame struct {
	Name string `json:"name" bson:"name"`
	Path string `json:"path,omitempty" bson:"path,omitempty"`
	Hash string `json:"hash,omitempty" bson:"hash,omitempty"`
	X    int    `json:"x" bson:"x"`
	Y    int    `json:"y" bson:"y"`
	W    int    `json:"w" bson:"w"`
	H    int    `json:"h" bson:"h"`
}

// Rect returns the frame's rectangle in canvas coordinates.
func (f Frame) Rect() image.Rectangle {
	return image.Rect(f.X, f.Y, f.X+f.W, f.Y+f.H)
}

// Canvas returns the size of the output image. This is the packed size,
// rounded up to powers of two when Pow2 is set.
func (l Layout) Canvas() image.Point {
	if l.Pow2 {
		return image.Pt(packer.Pow2(l.Width), packer.Pow2(l.Height))
	}
	return image.Pt(l.Width, l.Height)
}

// Validate checks that the layout describes a drawable sheet: a positive
// canvas, at least one frame, and every frame inside the canvas.
func (l Layout) Validate() error {
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("layout canvas must be positive, got %dx%d", l.Width, l.Height)
	}
	if len(l.Frames) == 0 {
		return fmt.Errorf("layout must contain frames")
	}
	bounds := image.Rect(0, 0, l.Width, l.Height)
	for i, f := range l.Frames {
		if f.W <= 0 || f.H <= 0 {
			return fmt.Errorf("frame %d (%s) has size %dx%d", i, f.Name, f.W, f.H)
		}
		if !f.Rect().In(bounds) {
			return fmt.Errorf("frame %d (%s) at %v lies outside the %dx%d canvas", i, f.Name, f.Rect(), l.Width, l.Height)
		}
	}
	return nil
}

// =============================================================================
// Stats
// =============================================================================

// Stats summarizes how well a layout uses its canvas.
type Stats struct {
	Frames     int     `json:"frames" bson:"frames"`
	UsedArea   int     `json:"used_area" bson:"used_area"`
	Width      int     `json:"width" bson:"width"`
	Height     int     `json:"height" bson:"height"`
	Area       int     `json:"area" bson:"area"`
	Usage      float64 `json:"usage" bson:"usage"`
	Pow2Width  int     `json:"pow2_width" bson:"pow2_width"`
	Pow2Height int     `json:"pow2_height" bson:"pow2_height"`
	Pow2Area   int     `json:"pow2_area" bson:"pow2_area"`
	Pow2Usage  float64 `json:"pow2_usage" bson:"pow2_usage"`
}

// Stats computes area usage for the packed canvas and for the canvas
// rounded up to powers of two. Usage values are fractions in [0, 1].
func (l Layout) Stats() Stats {
	s := Stats{
		Frames:     len(l.Frames),
		Width:      l.Width,
		Height:     l.Height,
		Area:       l.Width * l.Height,
		Pow2Width:  packer.Pow2(l.Width),
		Pow2Height: packer.Pow2(l.Height),
	}
	for _, f := range l.Frames {
		s.UsedArea += f.W * f.H
	}
	s.Pow2Area = s.Pow2Width * s.Pow2Height
	if s.Area > 0 {
		s.Usage = float64(s.UsedArea) / float64(s.Area)
	}
	if s.Pow2Area > 0 {
		s.Pow2Usage = float64(s.UsedArea) / float64(s.Pow2Area)
	}
	return s
}

// =============================================================================
// Serialization
// =============================================================================

// Marshal serializes a Layout to pretty-printed JSON bytes.
func Marshal(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// Unmarshal deserializes JSON bytes into a Layout and validates it.
func Unmarshal(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// WriteFile writes a Layout to a JSON file.
func WriteFile(l Layout, path string) error {
	data, err := Marshal(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadFile reads and validates a Layout from a JSON file.
func ReadFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, err
	}
	return Unmarshal(data)
}
