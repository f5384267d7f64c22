package observe

import (
	"cmp"
	"reflect"
	"slices"
	"strconv"

	"github.com/matzehuels/scatter/pkg/store"
)

// Diff holds the net changes gathered between StartGatherMutation and
// StopGatherMutation, per node and key.
//
// Each action carries the state before the first write (Existed, OldValue,
// OldRef) and after the last one (IsDeleted, NewValue, NewRef). Keys whose
// state ended where it started are not included.
type Diff map[*store.Node]map[string]store.WriteAction

// Nodes returns the changed nodes ordered by id. Nodes disposed since the
// change sort first.
func (d Diff) Nodes() []*store.Node {
	out := make([]*store.Node, 0, len(d))
	for n := range d {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b *store.Node) int { return cmp.Compare(a.ID(), b.ID()) })
	return out
}

// Keys returns the changed keys of n. Array indices sort numerically.
func (d Diff) Keys(n *store.Node) []string {
	keys := make([]string, 0, len(d[n]))
	for k := range d[n] {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)
	return keys
}

// Len returns the number of changed keys across all nodes.
func (d Diff) Len() int {
	total := 0
	for _, keys := range d {
		total += len(keys)
	}
	return total
}

func compareKeys(a, b string) int {
	ia, errA := strconv.Atoi(a)
	ib, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return cmp.Compare(ia, ib)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return cmp.Compare(a, b)
}

// merge folds next into prev, keeping the first old state and the latest new
// state.
func merge(prev, next store.WriteAction) store.WriteAction {
	prev.IsDeleted = next.IsDeleted
	prev.NewValue = next.NewValue
	prev.NewRef = next.NewRef
	return prev
}

// unchanged reports whether a merged action ends where it started.
func unchanged(a store.WriteAction) bool {
	if a.Existed == a.IsDeleted {
		return false
	}
	if !a.Existed {
		return true
	}
	return a.OldRef == a.NewRef && sameValue(a.OldValue, a.NewValue)
}

// sameValue is == for comparable dynamic types and false otherwise.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}
