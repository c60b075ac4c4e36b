package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/atlaspack/pkg/atlas"
	"github.com/matzehuels/atlaspack/pkg/pipeline"
)

// layoutCommand creates the layout command, which packs without rendering.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		pf     packFlags
		cf     cacheFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "layout [images or directories...]",
		Short: "Compute a sheet layout without rendering it",
		Long: `Compute a sheet layout without rendering it.

The layout records where every image goes and the options it was packed
with. Render it later with 'atlaspack render', which reads the images again
from the paths stored in the layout.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.Config.Options()
			opts.Inputs = args
			opts.Refresh = cf.refresh
			pf.apply(cmd, &opts)
			if output == "" {
				output = c.Config.Output.Path + ".layout.json"
			}
			return c.runLayout(cmd.Context(), opts, output, cf.noCache)
		},
	}

	pf.register(cmd)
	cf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <output.path>.layout.json)")

	return cmd
}

// runLayout scans the inputs, packs them and writes the layout.
func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	sprites, err := runner.Scan(ctx, opts)
	if err != nil {
		spinner.StopWithError("Scan failed")
		return err
	}
	l, cacheHit, err := runner.GenerateLayoutWithCacheInfo(ctx, sprites, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err := atlas.WriteFile(l, output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(l.Stats(), cacheHit)
	printNewline()
	printNextStep("Render", "atlaspack render "+output)

	return nil
}
