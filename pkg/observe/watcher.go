package observe

import (
	"maps"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scatter/pkg/store"
)

// Watcher holds a set of read dependencies and can fire a callback when a
// write touches one of them.
//
//	w := obs.StartCollectDep()
//	render(task)                // reads are recorded
//	obs.StopCollectDep()
//
//	w.StartWatch(func() {
//	    w.StopWatch()
//	    scheduleRender()
//	}, nil)
type Watcher struct {
	store  *store.Store
	logger *log.Logger
	deps   map[*store.Node]map[string]struct{}

	stop    func()
	running bool
}

func newWatcher(s *store.Store, logger *log.Logger) *Watcher {
	return &Watcher{
		store:  s,
		logger: logger,
		deps:   make(map[*store.Node]map[string]struct{}),
	}
}

// AddDep records a dependency on key of n. store.AllKeys depends on every
// key of n.
func (w *Watcher) AddDep(n *store.Node, key string) {
	keys := w.deps[n]
	if keys == nil {
		keys = make(map[string]struct{})
		w.deps[n] = keys
	}
	keys[key] = struct{}{}
}

// Deps returns the recorded keys per node, sorted.
func (w *Watcher) Deps() map[*store.Node][]string {
	out := make(map[*store.Node][]string, len(w.deps))
	for n, keys := range w.deps {
		out[n] = slices.Sorted(maps.Keys(keys))
	}
	return out
}

// DependsOn reports whether a write to key of n would fire the watcher.
func (w *Watcher) DependsOn(n *store.Node, key string) bool {
	keys := w.deps[n]
	if keys == nil {
		return false
	}
	if _, all := keys[store.AllKeys]; all {
		return true
	}
	_, ok := keys[key]
	return ok
}

// StartWatch calls callback after each write to a dependency. It returns
// false if the watcher is already watching.
//
// Writing a dependency from inside callback would loop, so such writes call
// onReentrancy instead; with a nil onReentrancy they are logged and ignored.
func (w *Watcher) StartWatch(callback, onReentrancy func()) bool {
	if w.stop != nil {
		return false
	}
	w.stop = w.store.OnNodeWrite(func(n *store.Node, key string, _ store.WriteAction) {
		if !w.DependsOn(n, key) {
			return
		}
		if w.running {
			if onReentrancy != nil {
				onReentrancy()
			} else {
				w.logger.Warn("watched value written from its own callback", "node", n.ID(), "key", key)
			}
			return
		}

		w.running = true
		defer func() { w.running = false }()
		callback()
	})
	return true
}

// StopWatch ends watching. It is safe to call from the callback and when not
// watching.
func (w *Watcher) StopWatch() {
	if w.stop != nil {
		w.stop()
		w.stop = nil
	}
}

// Watching reports whether StartWatch is active.
func (w *Watcher) Watching() bool { return w.stop != nil }
