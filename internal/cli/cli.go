// Package cli implements the atlaspack command-line interface.
//
// # Commands
//
//   - pack: scan images, pack them and write the sheet and its tables
//   - layout: pack images and write only the layout JSON
//   - render: render artifacts from a saved layout
//   - serve: run the HTTP packing API
//   - cache: inspect or clear the local cache
//
// Every command reads atlaspack.toml (or the file given with --config) for
// its defaults. Flags given on the command line override the file.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/atlaspack/pkg/buildinfo"
	"github.com/matzehuels/atlaspack/pkg/cache"
	"github.com/matzehuels/atlaspack/pkg/config"
	"github.com/matzehuels/atlaspack/pkg/observability"
	"github.com/matzehuels/atlaspack/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "atlaspack"

	// redisKeyPrefix scopes cache keys in a shared Redis.
	redisKeyPrefix = appName + ":"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "atlaspack packs images into sprite sheets",
		Long: `atlaspack packs many small images into one sprite sheet and writes the
tables needed to find them again: JSON, BSON, a C header or plain text.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ./"+config.DefaultFile+" if present)")

	root.AddCommand(c.packCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file and routes observability events to the
// debug log.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	if cfg.Source != "" {
		c.Logger.Debug("loaded config", "path", cfg.Source)
	}

	hooks := observability.NewLogHooks(c.Logger)
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	store, keyer, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(store, keyer, c.Logger)
	runner.TTL = c.Config.Cache.TTL
	return runner, nil
}

// newCache picks the cache backend: none when disabled, Redis when a URL is
// configured, otherwise the file cache.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, cache.Keyer, error) {
	cfg := c.Config.Cache
	if noCache || cfg.Disabled {
		return cache.NewNullCache(), nil, nil
	}
	if cfg.RedisURL != "" {
		store, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		c.Logger.Debug("using redis cache")
		return store, cache.NewScopedKeyer(nil, redisKeyPrefix), nil
	}

	dir, err := c.cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil, nil
	}
	store, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, nil, err
	}
	return store, nil, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, falling back to the XDG
// cache directory (~/.cache/atlaspack/).
func (c *CLI) cacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return cacheDir()
}

func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}
