package cache

// ScopedKeyer wraps a Keyer with a prefix. The CLI scopes keys by cache
// format version so entries written by an older release are never read.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "v1:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// LowerBoundKey generates a prefixed lower-bound key.
func (k *ScopedKeyer) LowerBoundKey(instanceHash string, opts BoundKeyOpts) string {
	return k.prefix + k.inner.LowerBoundKey(instanceHash, opts)
}
