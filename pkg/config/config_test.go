package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/matzehuels/atlaspack/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error: %v", err)
	}
	if cfg.Pack.Growth != "square" || cfg.Pack.Order != "max-side" {
		t.Errorf("pack = %+v, want square/max-side", cfg.Pack)
	}
	if !slices.Equal(cfg.Output.Formats, []string{"png", "json"}) {
		t.Errorf("formats = %v, want [png json]", cfg.Output.Formats)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q, want :8080", cfg.Server.Addr)
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse(`
[pack]
padding = 2
pow2 = true
growth = "pow2"

[output]
path = "build/sheet"
formats = ["png", "header"]
header_name = "SpriteID"

[cache]
ttl = "48h"

[server]
max_blocks = 10
`)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if cfg.Pack.Padding != 2 || !cfg.Pack.Pow2 || cfg.Pack.Growth != "pow2" {
		t.Errorf("pack = %+v", cfg.Pack)
	}
	if cfg.Pack.Order != "max-side" {
		t.Errorf("order = %q, missing keys should keep defaults", cfg.Pack.Order)
	}
	if cfg.Output.Path != "build/sheet" || cfg.Output.HeaderName != "SpriteID" {
		t.Errorf("output = %+v", cfg.Output)
	}
	if cfg.Cache.TTL != 48*time.Hour {
		t.Errorf("ttl = %v, want 48h", cfg.Cache.TTL)
	}
	if cfg.Server.MaxBlocks != 10 || cfg.Server.Addr != ":8080" {
		t.Errorf("server = %+v", cfg.Server)
	}

	opts := cfg.Options()
	if opts.Padding != 2 || !opts.Pow2 || opts.Growth != "pow2" || opts.HeaderName != "SpriteID" {
		t.Errorf("Options() = %+v", opts)
	}
	opts.Formats[0] = "text"
	if cfg.Output.Formats[0] != "png" {
		t.Error("Options() should copy formats")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"syntax", `[pack`},
		{"unknown key", "[pack]\nspacing = 2"},
		{"unknown section", "[render]\nwidth = 2"},
		{"padding", "[pack]\npadding = -1"},
		{"growth", `[pack]` + "\n" + `growth = "sideways"`},
		{"order", `[pack]` + "\n" + `order = "random"`},
		{"format", `[output]` + "\n" + `formats = ["gif"]`},
		{"background", `[output]` + "\n" + `background = "purple"`},
		{"ttl", `[cache]` + "\n" + `ttl = "-1h"`},
		{"max blocks", "[server]\nmax_blocks = -5"},
		{"wrong type", `[pack]` + "\n" + `padding = "two"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.toml)
			if err == nil {
				t.Fatal("Parse() should fail")
			}
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("error code = %q, want INVALID_CONFIG (%v)", errors.GetCode(err), err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(path, []byte("[pack]\npadding = 4\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Pack.Padding != 4 {
		t.Errorf("padding = %d, want 4", cfg.Pack.Padding)
	}
	if cfg.Source != path {
		t.Errorf("Source = %q, want %q", cfg.Source, path)
	}

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load() of missing file error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") without a file error: %v", err)
	}
	if cfg.Source != "" {
		t.Errorf("Source = %q, want empty", cfg.Source)
	}

	if err := os.WriteFile(DefaultFile, []byte("[server]\naddr = \":9000\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Server.Addr != ":9000" || cfg.Source != DefaultFile {
		t.Errorf("Load(\"\") = addr %q source %q", cfg.Server.Addr, cfg.Source)
	}
}

func TestLoadRedisEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvRedisURL, "redis://cache:6379/1")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cache.RedisURL != "redis://cache:6379/1" {
		t.Errorf("RedisURL = %q, want value from %s", cfg.Cache.RedisURL, EnvRedisURL)
	}
}
