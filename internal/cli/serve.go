package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/atlaspack/pkg/server"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		maxBlocks int
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the packing API over HTTP",
		Long: `Serve the packing API over HTTP.

  GET  /healthz    liveness check
  GET  /version    build information
  POST /v1/pack    {"blocks": [{"name": "coin", "width": 16, "height": 16}]}

Layouts are cached like on the command line; point [cache] redis_url (or
ATLASPACK_REDIS_URL) at a shared Redis to share them between instances.
The server stops gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.Server.Addr
			}
			if !cmd.Flags().Changed("max-blocks") {
				maxBlocks = c.Config.Server.MaxBlocks
			}
			return c.runServe(cmd.Context(), addr, maxBlocks, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().IntVar(&maxBlocks, "max-blocks", server.DefaultMaxBlocks, "largest block count accepted per request")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, maxBlocks int, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	srv := server.New(
		server.WithRunner(runner),
		server.WithLogger(c.Logger),
		server.WithMaxBlocks(maxBlocks),
	)

	printInfo("Serving on %s", StyleHighlight.Render(addr))
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return err
	}
	printSuccess("Server stopped")
	return nil
}
