package cache

import "slices"

// Keyer builds cache keys.
type Keyer interface {
	// RecordKey is the key of a single node record.
	RecordKey(nodeID string) string

	// DumpKey is the key of a named dump taken from the given entry ids.
	// The entry order does not matter.
	DumpKey(name string, entries []string) string
}

// DefaultKeyer produces "record:<id>" and "dump:<name>:<hash>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// RecordKey keeps the id readable so that backends can be inspected by hand.
func (DefaultKeyer) RecordKey(nodeID string) string {
	return "record:" + nodeID
}

func (DefaultKeyer) DumpKey(name string, entries []string) string {
	sorted := slices.Clone(entries)
	slices.Sort(sorted)
	return hashKey("dump:"+name, sorted)
}

var _ Keyer = DefaultKeyer{}
