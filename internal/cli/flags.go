package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/atlaspack/pkg/config"
	"github.com/matzehuels/atlaspack/pkg/pipeline"
)

// packFlags are the packing flags shared by pack and layout. They start at
// zero values; only flags the user set override the config file.
type packFlags struct {
	padding int
	pow2    bool
	growth  string
	order   string
}

func (f *packFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.padding, "padding", 0, "gap in pixels between frames")
	cmd.Flags().BoolVarP(&f.pow2, "pow2", "p", false, "round the sheet size up to powers of two")
	cmd.Flags().StringVar(&f.growth, "growth", "", "canvas growth: square (default), pow2")
	cmd.Flags().StringVar(&f.order, "order", "", "block order: max-side (default), area, none")
}

func (f *packFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	flags := cmd.Flags()
	if flags.Changed("padding") {
		opts.Padding = f.padding
	}
	if flags.Changed("pow2") {
		opts.Pow2 = f.pow2
	}
	if flags.Changed("growth") {
		opts.Growth = f.growth
	}
	if flags.Changed("order") {
		opts.Order = f.order
	}
}

// outputFlags select and configure the written artifacts.
type outputFlags struct {
	output     string
	formats    string
	background string
	headerName string
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output base path, extensions are added per format")
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", "output format(s): png, json, bson, header, text, dot, tree (comma-separated)")
	cmd.Flags().StringVar(&f.background, "background", "", "sheet background colour as #rrggbb (default transparent)")
	cmd.Flags().StringVar(&f.headerName, "header-name", "", "enum name in the C header (default ImageID)")
}

func (f *outputFlags) apply(cmd *cobra.Command, opts *pipeline.Options) error {
	flags := cmd.Flags()
	if flags.Changed("format") {
		opts.Formats = parseFormats(f.formats)
	}
	if flags.Changed("background") {
		opts.Background = f.background
	}
	if flags.Changed("header-name") {
		opts.HeaderName = f.headerName
	}
	return pipeline.ValidateFormats(opts.Formats)
}

// base returns the output base path: the flag, then the fallback, then
// the config file's output.path.
func (f *outputFlags) base(cfg config.Config, fallback string) string {
	if f.output != "" {
		return stripFormatExt(f.output)
	}
	if fallback != "" {
		return fallback
	}
	return cfg.Output.Path
}

// cacheFlags control the cache for one run.
type cacheFlags struct {
	noCache bool
	refresh bool
}

func (f *cacheFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached results but store new ones")
}
