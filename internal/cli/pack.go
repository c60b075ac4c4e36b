package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/atlaspack/pkg/pipeline"
	"github.com/matzehuels/atlaspack/pkg/sink"
)

// packCommand creates the pack command, which runs the whole pipeline.
func (c *CLI) packCommand() *cobra.Command {
	var (
		pf    packFlags
		of    outputFlags
		cf    cacheFlags
		stats bool
		list  bool
	)

	cmd := &cobra.Command{
		Use:   "pack [images or directories...]",
		Short: "Pack images into a sprite sheet",
		Long: `Pack images into a sprite sheet.

Directories contribute the images directly inside them (png, jpeg, gif, bmp,
tiff, webp). Frames are named after their files, so "coin-gold.png" becomes
the frame "coin_gold".

Outputs are written to <base>.<ext> for every format:
  png     the sheet
  json    the layout, readable by 'atlaspack render'
  bson    the layout as a BSON document
  header  a C header with an enum and a rectangle table (.h)
  text    "path x y w h" per frame (.txt)
  dot     the packing tree as Graphviz source
  tree    the packing tree rendered to SVG (.tree.svg)

Results are cached locally for faster subsequent runs.`,
		Example: `  atlaspack pack sprites/
  atlaspack pack sprites/ ui/*.png -o build/atlas -f png,header --padding 1 --pow2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.Config.Options()
			opts.Inputs = args
			opts.Refresh = cf.refresh
			pf.apply(cmd, &opts)
			if err := of.apply(cmd, &opts); err != nil {
				return err
			}
			return c.runPack(cmd.Context(), opts, of.base(c.Config, ""), cf.noCache, stats, list)
		},
	}

	pf.register(cmd)
	of.register(cmd)
	cf.register(cmd)
	cmd.Flags().BoolVar(&stats, "stats", false, "print area usage of the sheet")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "print \"path x y w h\" for every frame to stdout")

	return cmd
}

// runPack executes the pipeline and writes its artifacts.
func (c *CLI) runPack(ctx context.Context, opts pipeline.Options, base string, noCache, stats, list bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	prog := newProgress(c.Logger)

	spinner := newSpinnerWithContext(ctx, "Packing sprites...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Packing failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths, err := writeArtifacts(base, opts.Formats, result.Artifacts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Packed %d sprites", result.Stats.SpriteCount))

	l := result.Layout
	canvas := l.Canvas()
	printSuccess("Packed %d sprites into %dx%d", len(l.Frames), canvas.X, canvas.Y)
	for _, p := range paths {
		printFile(p)
	}
	printStats(l.Stats(), result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit)

	if stats {
		printNewline()
		printUsage(l.Stats())
	}
	if list {
		printNewline()
		if _, err := os.Stdout.Write(sink.RenderText(l)); err != nil {
			return err
		}
	}
	return nil
}
