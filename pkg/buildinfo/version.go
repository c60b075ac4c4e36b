// Package buildinfo holds the version stamped into atlaspack binaries.
//
// The variables are set with ldflags at release time:
//
//	go build -ldflags "-X github.com/matzehuels/atlaspack/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/atlaspack/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/matzehuels/atlaspack/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/atlaspack
package buildinfo

import (
	"fmt"
	"runtime"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the build information reported by `atlaspack --version` and the
// server's /version endpoint.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go"`
}

// Get returns the current build information.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
	}
}

// String formats the build information on three lines.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template is the cobra version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s (%s, built %s)\n", Version, Commit, Date)
}
