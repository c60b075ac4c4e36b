package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/atlaspack/pkg/atlas"
	"github.com/matzehuels/atlaspack/pkg/pipeline"
)

// renderCommand creates the render command for saved layouts.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		of outputFlags
		cf cacheFlags
	)

	cmd := &cobra.Command{
		Use:   "render [layout.json]",
		Short: "Render artifacts from a saved layout",
		Long: `Render artifacts from a saved layout.

The layout is produced by 'atlaspack layout' or 'atlaspack pack -f json'.
Images are read again from the frame paths stored in the layout, so they
must not have moved. Outputs default to the layout's name without
".layout.json".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.Config.Options()
			opts.Refresh = cf.refresh
			if err := of.apply(cmd, &opts); err != nil {
				return err
			}
			base := of.base(c.Config, layoutBase(args[0]))
			return c.runRender(cmd.Context(), args[0], opts, base, cf.noCache)
		},
	}

	of.register(cmd)
	cf.register(cmd)

	return cmd
}

// runRender loads the layout and renders the requested formats.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, base string, noCache bool) error {
	l, err := atlas.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load layout %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()

	artifacts, cacheHit, err := runner.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	paths, err := writeArtifacts(base, opts.Formats, artifacts)
	if err != nil {
		return err
	}

	printSuccess("Rendered %d artifacts", len(paths))
	for _, p := range paths {
		printFile(p)
	}
	printStats(l.Stats(), cacheHit)
	return nil
}
