package dump

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/matzehuels/scatter/pkg/cache"
	"github.com/matzehuels/scatter/pkg/errors"
	"github.com/matzehuels/scatter/pkg/store"
)

// Resolution is what a Loader found for an id. Exactly one field should be
// set; the zero value means the node does not exist.
type Resolution struct {
	// Record is loaded along with the other records.
	Record *Record
	// Node is an existing node of the target store.
	Node *store.Node
	// ID names another record or store node to use instead.
	ID string
}

// FromRecord resolves to a record.
func FromRecord(r Record) Resolution { return Resolution{Record: &r} }

// FromNode resolves to an existing node.
func FromNode(n *store.Node) Resolution { return Resolution{Node: n} }

// FromID resolves to the node with another id.
func FromID(id string) Resolution { return Resolution{ID: id} }

// IsZero reports whether nothing was found.
func (r Resolution) IsZero() bool {
	return r.Record == nil && r.Node == nil && r.ID == ""
}

// Loader resolves a node id referenced by a record but missing from the
// load. It may be called concurrently and must not touch the target store.
type Loader func(ctx context.Context, id string) (Resolution, error)

// RecordsLoader serves ids from a fixed set of records, such as a second dump
// file.
func RecordsLoader(records []Record) Loader {
	byID := make(map[string]Record, len(records))
	for _, r := range records {
		byID[r.NodeID] = r
	}
	return func(_ context.Context, id string) (Resolution, error) {
		if r, ok := byID[id]; ok {
			return FromRecord(r), nil
		}
		return Resolution{}, nil
	}
}

// Chain tries each loader in turn and returns the first non-zero
// resolution. Errors stop the chain.
func Chain(loaders ...Loader) Loader {
	return func(ctx context.Context, id string) (Resolution, error) {
		for _, l := range loaders {
			if l == nil {
				continue
			}
			r, err := l(ctx, id)
			if err != nil || !r.IsZero() {
				return r, err
			}
		}
		return Resolution{}, nil
	}
}

// CacheLoader reads records saved by SaveRecords. A nil keyer means the
// default keyer.
func CacheLoader(c cache.Cache, k cache.Keyer) Loader {
	if k == nil {
		k = cache.NewDefaultKeyer()
	}
	return func(ctx context.Context, id string) (Resolution, error) {
		data, ok, err := c.Get(ctx, k.RecordKey(id))
		if err != nil {
			return Resolution{}, err
		}
		if !ok {
			return Resolution{}, nil
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return Resolution{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode cached record %s", id)
		}
		return FromRecord(rec), nil
	}
}

// Retrying retries l with backoff while it returns cache.Retryable errors.
// A load that runs past the context deadline fails with ErrCodeTimeout and
// a cache backend failure with ErrCodeNetwork.
func Retrying(l Loader) Loader {
	return func(ctx context.Context, id string) (Resolution, error) {
		var res Resolution
		err := cache.RetryWithBackoff(ctx, func() error {
			var err error
			res, err = l(ctx, id)
			return err
		})
		switch {
		case err == nil:
			return res, nil
		case stderrors.Is(err, context.DeadlineExceeded):
			return res, errors.Wrap(errors.ErrCodeTimeout, err, "fetch %s", id)
		case stderrors.Is(err, cache.ErrNetwork):
			return res, errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", id)
		}
		return res, err
	}
}

// SaveRecords stores each record under its record key, for CacheLoader.
func SaveRecords(ctx context.Context, c cache.Cache, k cache.Keyer, records []Record, ttl time.Duration) error {
	if k == nil {
		k = cache.NewDefaultKeyer()
	}
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "encode record %s", rec.NodeID)
		}
		if err := c.Set(ctx, k.RecordKey(rec.NodeID), data, ttl); err != nil {
			return err
		}
	}
	return nil
}

// SaveDump stores a whole dump under name, keyed by its entry ids.
func SaveDump(ctx context.Context, c cache.Cache, k cache.Keyer, name string, entries []string, records []Record, ttl time.Duration) error {
	if k == nil {
		k = cache.NewDefaultKeyer()
	}
	data, err := json.Marshal(records)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "encode dump %s", name)
	}
	return c.Set(ctx, k.DumpKey(name, entries), data, ttl)
}

// FetchDump reads a dump stored by SaveDump. A missing dump is NOT_FOUND.
func FetchDump(ctx context.Context, c cache.Cache, k cache.Keyer, name string, entries []string) ([]Record, error) {
	if k == nil {
		k = cache.NewDefaultKeyer()
	}
	data, ok, err := c.Get(ctx, k.DumpKey(name, entries))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no cached dump %q", name)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode dump %s", name)
	}
	return records, nil
}
