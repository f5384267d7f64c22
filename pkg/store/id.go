package store

import (
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/matzehuels/scatter/pkg/schema"
)

// idPrefix is a per-process random prefix so that ids from different
// processes rarely collide when their dumps are merged.
var (
	idPrefix  = "#" + strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	idCounter atomic.Uint64
)

// AllocateID returns an unused id for a node of schema sc.
//
// The configured generator is asked first. The default form is
// "<schemaId>#<prefix><counter>", with "(unknown)" standing in for a nil
// schema. Taken ids get a numeric suffix starting at 2.
func (s *Store) AllocateID(sc *schema.Schema) string {
	var name string
	if s.idGenerator != nil {
		name = s.idGenerator(s, sc)
	}
	if name == "" {
		base := sc.ID()
		if base == "" {
			base = "(unknown)"
		}
		name = base + idPrefix + strconv.FormatUint(idCounter.Add(1)-1, 16)
	}

	for i, prefix := 2, name; s.nodes[name] != nil; i++ {
		name = prefix + strconv.Itoa(i)
	}
	return name
}

// UUIDGenerator assigns random UUIDv4 ids.
func UUIDGenerator(*Store, *schema.Schema) string {
	return uuid.NewString()
}

// ULIDGenerator assigns lexicographically sortable ULIDs, so that ids sort
// by creation time.
func ULIDGenerator(*Store, *schema.Schema) string {
	return ulid.Make().String()
}
