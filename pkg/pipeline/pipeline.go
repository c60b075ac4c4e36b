// Package pipeline runs the scan → layout → render pipeline of atlaspack.
//
// The CLI and the HTTP API both go through this package so that packing
// options, defaults and caching behave the same everywhere.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Scan: find the input images, hash them and read their sizes
//  2. Layout: pack the sizes into a canvas ([Pack])
//  3. Render: produce artifacts (PNG sheet, JSON, C header, ...)
//
// Layouts are cached by the hashes of their input files and the packing
// options; artifacts by the layout hash and the format options.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Inputs:  []string{"sprites/"},
//	    Formats: []string{pipeline.FormatPNG, pipeline.FormatJSON},
//	})
//	if err != nil {
//	    return err
//	}
//	sheet := result.Artifacts[pipeline.FormatPNG]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/atlaspack/pkg/atlas"
	"github.com/matzehuels/atlaspack/pkg/cache"
	"github.com/matzehuels/atlaspack/pkg/errors"
	"github.com/matzehuels/atlaspack/pkg/packer"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultGrowth is the default canvas growth strategy.
	DefaultGrowth = string(packer.GrowSquare)

	// DefaultOrder is the default block order.
	DefaultOrder = string(packer.OrderMaxSide)

	// MaxPadding bounds the gap between frames.
	MaxPadding = 256
)

// Format constants for output formats.
const (
	FormatPNG    = "png"
	FormatJSON   = "json"
	FormatBSON   = "bson"
	FormatHeader = "header"
	FormatText   = "text"
	FormatDOT    = "dot"
	FormatTree   = "tree"
)

// DefaultFormats are rendered when none are requested.
var DefaultFormats = []string{FormatPNG, FormatJSON}

// ValidFormats maps each supported format to its output file extension.
var ValidFormats = map[string]string{
	FormatPNG:    "png",
	FormatJSON:   "json",
	FormatBSON:   "bson",
	FormatHeader: "h",
	FormatText:   "txt",
	FormatDOT:    "dot",
	FormatTree:   "tree.svg",
}

// Extension returns the file extension for format, without the dot.
func Extension(format string) string {
	return ValidFormats[format]
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Scan options
	Inputs []string `json:"inputs,omitempty"`

	// Layout options
	Padding int    `json:"padding,omitempty"`
	Pow2    bool   `json:"pow2,omitempty"`
	Growth  string `json:"growth,omitempty"`
	Order   string `json:"order,omitempty"`
	Refresh bool   `json:"refresh,omitempty"`

	// Render options
	Formats    []string `json:"formats,omitempty"`
	Background string   `json:"background,omitempty"`
	HeaderName string   `json:"header_name,omitempty"` // enum name in the C header

	// Runtime options (not serialized)
	Concurrency int         `json:"-"`
	Logger      *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Layout is the packed sheet.
	Layout atlas.Layout

	// LayoutHash is the content hash of the serialized layout.
	LayoutHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	SpriteCount int
	ScanTime    time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if _, ok := ValidFormats[format]; !ok {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: png, json, bson, header, text, dot, tree)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateGrowth checks that a growth strategy is supported.
func ValidateGrowth(growth string) error {
	_, err := packer.ParseGrowth(growth)
	return err
}

// ValidateOrder checks that a block order is supported.
func ValidateOrder(order string) error {
	_, err := packer.ParseOrder(order)
	return err
}

// ValidatePadding checks that padding is within [0, MaxPadding].
func ValidatePadding(padding int) error {
	if padding < 0 || padding > MaxPadding {
		return errors.New(errors.ErrCodeInvalidInput, "padding must be between 0 and %d, got %d", MaxPadding, padding)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Inputs) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "at least one input is required")
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults sets default values for packing.
func (o *Options) SetLayoutDefaults() {
	if o.Growth == "" {
		o.Growth = DefaultGrowth
	}
	if o.Order == "" {
		o.Order = DefaultOrder
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for packing.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := ValidatePadding(o.Padding); err != nil {
		return err
	}
	if err := ValidateGrowth(o.Growth); err != nil {
		return err
	}
	return ValidateOrder(o.Order)
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = append([]string(nil), DefaultFormats...)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// LayoutKeyOpts returns cache key options for packing.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Padding: o.Padding,
		Pow2:    o.Pow2,
		Growth:  o.Growth,
		Order:   o.Order,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered format. Only
// the options that affect that format are included.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case FormatPNG:
		k.Background = o.Background
	case FormatHeader:
		k.HeaderName = o.HeaderName
	}
	return k
}

func (o *Options) String() string {
	return fmt.Sprintf("padding=%d pow2=%t growth=%s order=%s formats=%v",
		o.Padding, o.Pow2, o.Growth, o.Order, o.Formats)
}
