// Package config loads atlaspack.toml.
//
// A config file sets defaults for every command; flags given on the command
// line win over file values. All sections are optional:
//
//	[pack]
//	padding = 1
//	pow2 = true
//	growth = "square"   # square, pow2
//	order = "max-side"  # max-side, area, none
//
//	[output]
//	path = "build/atlas"
//	formats = ["png", "json", "header"]
//	background = "#202020"
//	header_name = "ImageID"
//
//	[cache]
//	disabled = false
//	dir = "/tmp/atlaspack"
//	redis_url = "redis://localhost:6379/0"
//	ttl = "48h"
//
//	[server]
//	addr = ":8080"
//	max_blocks = 4096
//
// ATLASPACK_REDIS_URL, when set, replaces cache.redis_url.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/atlaspack/pkg/errors"
	"github.com/matzehuels/atlaspack/pkg/pipeline"
	"github.com/matzehuels/atlaspack/pkg/sink"
)

const (
	// DefaultFile is looked up in the working directory when no path is given.
	DefaultFile = "atlaspack.toml"

	// EnvRedisURL overrides cache.redis_url.
	EnvRedisURL = "ATLASPACK_REDIS_URL"

	DefaultOutput    = "atlas"
	DefaultAddr      = ":8080"
	DefaultMaxBlocks = 4096
)

// Config is the parsed contents of atlaspack.toml.
type Config struct {
	Pack   Pack   `toml:"pack"`
	Output Output `toml:"output"`
	Cache  Cache  `toml:"cache"`
	Server Server `toml:"server"`

	// Source is the file the config was read from, empty for defaults.
	Source string `toml:"-"`
}

type Pack struct {
	Padding int    `toml:"padding"`
	Pow2    bool   `toml:"pow2"`
	Growth  string `toml:"growth"`
	Order   string `toml:"order"`
}

type Output struct {
	Path       string   `toml:"path"`
	Formats    []string `toml:"formats"`
	Background string   `toml:"background"`
	HeaderName string   `toml:"header_name"`
}

type Cache struct {
	Disabled bool          `toml:"disabled"`
	Dir      string        `toml:"dir"`
	RedisURL string        `toml:"redis_url"`
	TTL      time.Duration `toml:"ttl"`
}

type Server struct {
	Addr      string `toml:"addr"`
	MaxBlocks int    `toml:"max_blocks"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Pack: Pack{
			Growth: pipeline.DefaultGrowth,
			Order:  pipeline.DefaultOrder,
		},
		Output: Output{
			Path:    DefaultOutput,
			Formats: append([]string(nil), pipeline.DefaultFormats...),
		},
		Server: Server{
			Addr:      DefaultAddr,
			MaxBlocks: DefaultMaxBlocks,
		},
	}
}

// Load reads the config at path. With an empty path it reads DefaultFile
// from the working directory if one exists and otherwise returns Default.
// Values missing from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat(DefaultFile); err != nil {
			cfg.applyEnv()
			return cfg, nil
		}
		path = DefaultFile
	}

	if err := errors.ValidatePath(path); err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{}, errors.New(errors.ErrCodeFileNotFound, "config file not found: %s", path)
	}
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if err := cfg.decode(string(data)); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", path)
	}
	cfg.Source = path
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes a config from TOML text on top of Default.
func Parse(data string) (Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) decode(data string) error {
	md, err := toml.Decode(data, c)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func (c *Config) applyEnv() {
	if url := os.Getenv(EnvRedisURL); url != "" {
		c.Cache.RedisURL = url
	}
}

// Validate checks every value the pipeline and server would otherwise
// reject later.
func (c Config) Validate() error {
	invalid := func(err error, key string) error {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", key)
	}
	if err := pipeline.ValidatePadding(c.Pack.Padding); err != nil {
		return invalid(err, "pack.padding")
	}
	if err := pipeline.ValidateGrowth(c.Pack.Growth); err != nil {
		return invalid(err, "pack.growth")
	}
	if err := pipeline.ValidateOrder(c.Pack.Order); err != nil {
		return invalid(err, "pack.order")
	}
	if err := pipeline.ValidateFormats(c.Output.Formats); err != nil {
		return invalid(err, "output.formats")
	}
	if _, err := sink.ParseBackground(c.Output.Background); err != nil {
		return invalid(err, "output.background")
	}
	if c.Output.HeaderName != "" {
		if err := errors.ValidateName(c.Output.HeaderName); err != nil {
			return invalid(err, "output.header_name")
		}
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must not be negative, got %s", c.Cache.TTL)
	}
	if c.Server.MaxBlocks < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.max_blocks must not be negative, got %d", c.Server.MaxBlocks)
	}
	return nil
}

// Options returns pipeline options carrying the [pack] and [output]
// settings.
func (c Config) Options() pipeline.Options {
	return pipeline.Options{
		Padding:    c.Pack.Padding,
		Pow2:       c.Pack.Pow2,
		Growth:     c.Pack.Growth,
		Order:      c.Pack.Order,
		Formats:    append([]string(nil), c.Output.Formats...),
		Background: c.Output.Background,
		HeaderName: c.Output.HeaderName,
	}
}
