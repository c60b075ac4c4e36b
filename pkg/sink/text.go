package sink

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/atlaspack/pkg/atlas"
)

// RenderText lists each frame as "source x y w h", one per line, where
// source is the frame's path or, failing that, its name.
func RenderText(l atlas.Layout) []byte {
	var buf bytes.Buffer
	for _, f := range l.Frames {
		source := f.Path
		if source == "" {
			source = f.Name
		}
		fmt.Fprintf(&buf, "%s %d %d %d %d\n", source, f.X, f.Y, f.W, f.H)
	}
	return buf.Bytes()
}
