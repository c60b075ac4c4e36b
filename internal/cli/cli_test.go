package cli

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/atlaspack/pkg/atlas"
	"github.com/matzehuels/atlaspack/pkg/observability"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"png", []string{"png"}},
		{"png,json,header", []string{"png", "json", "header"}},
		{" png , text ,", []string{"png", "text"}},
	}
	for _, tt := range tests {
		if got := parseFormats(tt.input); !slices.Equal(got, tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{"strip png", stripFormatExt, "build/atlas.png", "build/atlas"},
		{"strip tree", stripFormatExt, "atlas.tree.svg", "atlas"},
		{"strip header", stripFormatExt, "atlas.h", "atlas"},
		{"keep unknown", stripFormatExt, "atlas.v2", "atlas.v2"},
		{"layout json", layoutBase, "out/atlas.layout.json", "out/atlas"},
		{"plain json", layoutBase, "atlas.json", "atlas"},
		{"other", layoutBase, "atlas.data", "atlas"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Errorf("%q -> %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWriteArtifacts(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "atlas")
	artifacts := map[string][]byte{"json": []byte("{}"), "header": []byte("enum")}

	paths, err := writeArtifacts(base, []string{"json", "header", "json"}, artifacts)
	if err != nil {
		t.Fatalf("writeArtifacts() error: %v", err)
	}
	want := []string{base + ".json", base + ".h"}
	if !slices.Equal(paths, want) {
		t.Errorf("paths = %v, want %v", paths, want)
	}
	if data, _ := os.ReadFile(base + ".h"); string(data) != "enum" {
		t.Errorf("header file = %q", data)
	}

	if _, err := writeArtifacts(base, []string{"png"}, artifacts); err == nil {
		t.Error("writeArtifacts() should fail for a missing artifact")
	}
}

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.NRGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestPackCommand(t *testing.T) {
	defer observability.Reset()
	work := t.TempDir()
	t.Chdir(work)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(work, "cache"))

	if err := os.Mkdir("sprites", 0755); err != nil {
		t.Fatal(err)
	}
	writeTestPNG(t, filepath.Join("sprites", "hero.png"), 32, 32)
	writeTestPNG(t, filepath.Join("sprites", "coin.png"), 16, 16)

	if err := execute(t, "pack", "sprites", "-o", "out/sheet.png", "-f", "png,json,header,text", "--padding", "1"); err != nil {
		t.Fatalf("pack error: %v", err)
	}
	for _, name := range []string{"sheet.png", "sheet.json", "sheet.h", "sheet.txt"} {
		if _, err := os.Stat(filepath.Join("out", name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}

	l, err := atlas.ReadFile(filepath.Join("out", "sheet.json"))
	if err != nil {
		t.Fatal(err)
	}
	if l.Padding != 1 || len(l.Frames) != 2 {
		t.Errorf("layout = %+v, want padding 1 and 2 frames", l)
	}
	if header, _ := os.ReadFile(filepath.Join("out", "sheet.h")); !bytes.Contains(header, []byte("hero")) {
		t.Errorf("header missing hero:\n%s", header)
	}
}

func TestPackUsesConfigFile(t *testing.T) {
	defer observability.Reset()
	work := t.TempDir()
	t.Chdir(work)

	writeTestPNG(t, "a.png", 8, 8)
	config := "[pack]\npadding = 3\n\n[output]\npath = \"cfg/atlas\"\nformats = [\"json\"]\n\n[cache]\ndisabled = true\n"
	if err := os.WriteFile("atlaspack.toml", []byte(config), 0644); err != nil {
		t.Fatal(err)
	}

	if err := execute(t, "pack", "a.png"); err != nil {
		t.Fatalf("pack error: %v", err)
	}
	l, err := atlas.ReadFile(filepath.Join("cfg", "atlas.json"))
	if err != nil {
		t.Fatalf("config output path not used: %v", err)
	}
	if l.Padding != 3 {
		t.Errorf("padding = %d, want 3 from config", l.Padding)
	}

	// Flags win over the file.
	if err := execute(t, "pack", "a.png", "--padding", "0", "-o", "flag"); err != nil {
		t.Fatal(err)
	}
	if l, err := atlas.ReadFile("flag.json"); err != nil || l.Padding != 0 {
		t.Errorf("flag override: layout %+v, err %v", l, err)
	}
}

func TestLayoutAndRenderCommands(t *testing.T) {
	defer observability.Reset()
	work := t.TempDir()
	t.Chdir(work)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(work, "cache"))

	writeTestPNG(t, "a.png", 10, 20)
	writeTestPNG(t, "b.png", 20, 10)

	if err := execute(t, "layout", "a.png", "b.png", "-o", "my.layout.json"); err != nil {
		t.Fatalf("layout error: %v", err)
	}
	if err := execute(t, "render", "my.layout.json", "-f", "png,dot"); err != nil {
		t.Fatalf("render error: %v", err)
	}

	f, err := os.Open("my.png")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	l, _ := atlas.ReadFile("my.layout.json")
	if cfg.Width != l.Width || cfg.Height != l.Height {
		t.Errorf("png %dx%d, layout %dx%d", cfg.Width, cfg.Height, l.Width, l.Height)
	}
	if dot, _ := os.ReadFile("my.dot"); !strings.HasPrefix(string(dot), "digraph") {
		t.Errorf("dot output = %q", dot)
	}
}

func TestCommandErrors(t *testing.T) {
	defer observability.Reset()
	t.Chdir(t.TempDir())

	tests := []struct {
		name string
		args []string
	}{
		{"no inputs", []string{"pack"}},
		{"missing input", []string{"pack", "missing.png", "--no-cache"}},
		{"bad format", []string{"pack", ".", "-f", "gif"}},
		{"bad growth", []string{"layout", ".", "--growth", "up", "--no-cache"}},
		{"missing layout", []string{"render", "missing.layout.json"}},
		{"missing config", []string{"--config", "nope.toml", "cache", "path"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := execute(t, tt.args...); err == nil {
				t.Errorf("%v should fail", tt.args)
			}
		})
	}
}

func TestStatsLine(t *testing.T) {
	s := atlas.Stats{Frames: 3, Width: 64, Height: 32, Usage: 0.875}
	line := statsLine(s, true)
	for _, want := range []string{"3 frames", "64x32", "87.5% used", "cached"} {
		if !strings.Contains(line, want) {
			t.Errorf("statsLine() = %q, missing %q", line, want)
		}
	}
	if !strings.Contains(statsLine(s, false), "fresh") {
		t.Error("uncached stats should say fresh")
	}
}
