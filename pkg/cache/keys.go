package cache

import "strings"

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey identifies a packed layout by the hashes of its input
	// sprites and the packing options.
	LayoutKey(spriteHashes []string, opts LayoutKeyOpts) string

	// ArtifactKey identifies one rendered output of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the packing options that change a layout.
type LayoutKeyOpts struct {
	Padding int    `json:"padding"`
	Pow2    bool   `json:"pow2"`
	Growth  string `json:"growth"`
	Order   string `json:"order"`
}

// ArtifactKeyOpts are the rendering options that change an artifact.
type ArtifactKeyOpts struct {
	Format     string `json:"format"`
	Background string `json:"background,omitempty"`
	HeaderName string `json:"header_name,omitempty"`
}

// DefaultKeyer produces keys of the form "<kind>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey hashes the sprite hashes in input order together with opts.
// Input order matters because frames are reported in that order.
func (DefaultKeyer) LayoutKey(spriteHashes []string, opts LayoutKeyOpts) string {
	return hashKey("layout", strings.Join(spriteHashes, ","), opts)
}

// ArtifactKey hashes the layout hash together with opts.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

var _ Keyer = DefaultKeyer{}
