package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/atlaspack/pkg/pipeline"
)

// stripFormatExt drops a known output extension from path, so both
// "-o sheet" and "-o sheet.png" name the base "sheet".
func stripFormatExt(path string) string {
	for _, ext := range pipeline.ValidFormats {
		if strings.HasSuffix(path, "."+ext) {
			return strings.TrimSuffix(path, "."+ext)
		}
	}
	return path
}

// layoutBase derives an output base from a layout file name:
// "atlas.layout.json" and "atlas.json" both give "atlas".
func layoutBase(path string) string {
	for _, suffix := range []string{".layout.json", ".json"} {
		if strings.HasSuffix(path, suffix) {
			return strings.TrimSuffix(path, suffix)
		}
	}
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// artifactPath returns the file an artifact of format is written to.
func artifactPath(base, format string) string {
	return base + "." + pipeline.Extension(format)
}

// writeArtifacts writes each requested format next to base, creating the
// directory if needed, and returns the written paths in format order.
func writeArtifacts(base string, formats []string, artifacts map[string][]byte) ([]string, error) {
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	var paths []string
	seen := make(map[string]bool)
	for _, format := range formats {
		if seen[format] {
			continue
		}
		seen[format] = true
		data, ok := artifacts[format]
		if !ok {
			return paths, fmt.Errorf("missing %s artifact", format)
		}
		path := artifactPath(base, format)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
