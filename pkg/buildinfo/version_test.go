package buildinfo

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	defer func(v, c string) { Version, Commit = v, c }(Version, Commit)
	Version, Commit = "v1.2.3", "abc123"

	info := Get()
	if info.Version != "v1.2.3" || info.Commit != "abc123" {
		t.Errorf("Get() = %+v", info)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
	if !strings.Contains(String(), "version: v1.2.3") {
		t.Errorf("String() = %q", String())
	}
	if !strings.HasPrefix(Template(), "{{.Name}} v1.2.3") {
		t.Errorf("Template() = %q", Template())
	}
}
