package cache

// ScopedKeyer prefixes every key of an inner Keyer, so several projects or
// tenants can share one Redis database without seeing each other's entries.
//
//	keyer := cache.NewScopedKeyer(nil, "game-ui:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner (DefaultKeyer when nil) with prefix.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// LayoutKey returns the prefixed layout key.
func (k *ScopedKeyer) LayoutKey(spriteHashes []string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(spriteHashes, opts)
}

// ArtifactKey returns the prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
