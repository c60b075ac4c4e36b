package sink

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/atlaspack/pkg/atlas"
	"github.com/matzehuels/atlaspack/pkg/errors"
)

// HeaderOption configures C header rendering.
type HeaderOption func(*headerRenderer)

type headerRenderer struct {
	enum   string
	table  string
	record string
}

// WithEnumName sets the name of the image id enum (default "ImageID").
func WithEnumName(name string) HeaderOption {
	return func(r *headerRenderer) { r.enum = name }
}

// WithTableName sets the name of the rectangle table (default "gImages").
func WithTableName(name string) HeaderOption {
	return func(r *headerRenderer) { r.table = name }
}

// RenderHeader renders a C header listing one enum constant per frame,
// followed by a table of rectangles in the same order:
//
//	enum ImageID
//	{
//		hero                    , /* sprites/hero.png */
//	};
//	...
//	Image gImages[] =
//	{
//		{     0,     0,    64,    64 },
//	};
//
// Frame names are used as the enum constants, so they must be valid and
// unique C identifiers.
func RenderHeader(l atlas.Layout, opts ...HeaderOption) ([]byte, error) {
	r := headerRenderer{enum: "ImageID", table: "gImages", record: "Image"}
	for _, opt := range opts {
		opt(&r)
	}
	for _, id := range []string{r.enum, r.table} {
		if !isIdent(id) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "%q is not a C identifier", id)
		}
	}

	seen := make(map[string]bool, len(l.Frames))
	for _, f := range l.Frames {
		if !isIdent(f.Name) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "frame name %q is not a C identifier", f.Name)
		}
		if seen[f.Name] {
			return nil, errors.New(errors.ErrCodeInvalidInput, "duplicate frame name %q", f.Name)
		}
		seen[f.Name] = true
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "enum %s\n{\n", r.enum)
	for _, f := range l.Frames {
		source := f.Path
		if source == "" {
			source = f.Name
		}
		fmt.Fprintf(&buf, "\t%-24s, /* %s */\n", f.Name, source)
	}
	buf.WriteString("};\n\n")

	fmt.Fprintf(&buf, "typedef struct %[1]s %[1]s;\nstruct %[1]s\n{\n\tuint32_t x, y, w, h;\n};\n", r.record)
	fmt.Fprintf(&buf, "%s %s[] =\n{\n", r.record, r.table)
	for _, f := range l.Frames {
		fmt.Fprintf(&buf, "\t{ %5d, %5d, %5d, %5d },\n", f.X, f.Y, f.W, f.H)
	}
	buf.WriteString("};\n")
	return buf.Bytes(), nil
}

func isIdent(s string) bool {
	if s == "" || s[0] >= '0' && s[0] <= '9' {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '_' && (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
