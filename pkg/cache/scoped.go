package cache

// ScopedKeyer wraps a Keyer with a prefix, so that several stores or
// projects can share one backend without their records colliding.
//
// Example usage:
//
//	// records of the "inventory" project
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "inventory:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// A nil inner keyer means the DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// RecordKey returns the prefixed record key.
func (k *ScopedKeyer) RecordKey(nodeID string) string {
	return k.prefix + k.inner.RecordKey(nodeID)
}

// DumpKey returns the prefixed dump key.
func (k *ScopedKeyer) DumpKey(name string, entries []string) string {
	return k.prefix + k.inner.DumpKey(name, entries)
}
