package observe

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scatter/pkg/store"
)

// Options configures an Observer.
type Options struct {
	// Scheduler delivers mutation-collected notifications. Defaults to a
	// zero-delay TimerScheduler.
	Scheduler Scheduler

	// Logger defaults to the store's logger.
	Logger *log.Logger
}

// Observer records read dependencies and gathers mutations of one store.
//
// Collection and gathering follow the store's single-writer discipline: call
// them from the goroutine that uses the store. The mutation-collected
// notification may arrive on the scheduler's goroutine.
type Observer struct {
	store     *store.Store
	scheduler Scheduler
	logger    *log.Logger

	// dependency collection; caller goroutine only
	stack     []*Watcher
	stopReads func()

	mu          sync.Mutex
	gather      *gathering
	onCollected []collectedListener
	nextID      int
}

type gathering struct {
	diff      Diff
	scheduled bool
	stop      func()
}

type collectedListener struct {
	id int
	fn func(*Observer)
}

// New creates an observer for s.
func New(s *store.Store, opts Options) *Observer {
	scheduler := opts.Scheduler
	if scheduler == nil {
		scheduler = TimerScheduler{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = s.Logger()
	}
	return &Observer{store: s, scheduler: scheduler, logger: logger}
}

// Store returns the observed store.
func (o *Observer) Store() *store.Store { return o.store }

// =============================================================================
// Dependency collection
// =============================================================================

// StartCollectDep pushes a new Watcher and records every subsequent read
// into it until the matching StopCollectDep. Collections nest: only the most
// recent one receives reads while it is open.
func (o *Observer) StartCollectDep() *Watcher {
	w := newWatcher(o.store, o.logger)
	o.stack = append(o.stack, w)
	if len(o.stack) == 1 {
		o.stopReads = o.store.OnNodeRead(func(n *store.Node, key string) {
			if top := o.current(); top != nil {
				top.AddDep(n, key)
			}
		})
	}
	return w
}

// StopCollectDep pops and returns the current Watcher, or nil when nothing
// is being collected. The read subscription ends with the last collection.
func (o *Observer) StopCollectDep() *Watcher {
	if len(o.stack) == 0 {
		return nil
	}
	w := o.stack[len(o.stack)-1]
	o.stack[len(o.stack)-1] = nil
	o.stack = o.stack[:len(o.stack)-1]
	if len(o.stack) == 0 && o.stopReads != nil {
		o.stopReads()
		o.stopReads = nil
	}
	return w
}

// Collecting reports whether a dependency collection is open.
func (o *Observer) Collecting() bool { return len(o.stack) > 0 }

func (o *Observer) current() *Watcher {
	if len(o.stack) == 0 {
		return nil
	}
	return o.stack[len(o.stack)-1]
}

// =============================================================================
// Mutation gathering
// =============================================================================

// StartGatherMutation begins folding every write of the store into a Diff.
// It does nothing while a gathering is already running.
//
// The first write of each burst schedules one mutation-collected
// notification; writes before it runs join the same notification.
func (o *Observer) StartGatherMutation() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.gather != nil {
		return
	}
	g := &gathering{diff: make(Diff)}
	g.stop = o.store.OnNodeWrite(func(n *store.Node, key string, action store.WriteAction) {
		o.record(g, n, key, action)
	})
	o.gather = g
}

func (o *Observer) record(g *gathering, n *store.Node, key string, action store.WriteAction) {
	o.mu.Lock()
	if o.gather != g {
		o.mu.Unlock()
		return
	}

	keys := g.diff[n]
	if keys == nil {
		keys = make(map[string]store.WriteAction)
		g.diff[n] = keys
	}
	if prev, ok := keys[key]; ok {
		action = merge(prev, action)
	}
	keys[key] = action
	if unchanged(action) {
		delete(keys, key)
		if len(keys) == 0 {
			delete(g.diff, n)
		}
	}

	schedule := !g.scheduled
	g.scheduled = true
	o.mu.Unlock()

	if schedule {
		o.scheduler.Schedule(func() { o.deliver(g) })
	}
}

func (o *Observer) deliver(g *gathering) {
	o.mu.Lock()
	if o.gather != g {
		o.mu.Unlock()
		return
	}
	g.scheduled = false
	listeners := o.onCollected
	o.mu.Unlock()

	for _, l := range listeners {
		l.fn(o)
	}
}

// HasMutationGathered reports whether the running gathering holds any net
// change.
func (o *Observer) HasMutationGathered() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.gather != nil && len(o.gather.diff) > 0
}

// StopGatherMutation ends the gathering and returns its diff, or nil when
// nothing changed. A pending mutation-collected notification is dropped.
func (o *Observer) StopGatherMutation() Diff {
	o.mu.Lock()
	g := o.gather
	o.gather = nil
	o.mu.Unlock()

	if g == nil {
		return nil
	}
	g.stop()
	o.logger.Debug("mutation gathering stopped", "nodes", len(g.diff), "keys", g.diff.Len())
	if len(g.diff) == 0 {
		return nil
	}
	return g.diff
}

// OnMutationCollected subscribes fn to mutation-collected notifications.
func (o *Observer) OnMutationCollected(fn func(o *Observer)) (unsubscribe func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nextID++
	id := o.nextID
	o.onCollected = append(o.onCollected[:len(o.onCollected):len(o.onCollected)], collectedListener{id: id, fn: fn})

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		var next []collectedListener
		for _, l := range o.onCollected {
			if l.id != id {
				next = append(next, l)
			}
		}
		o.onCollected = next
	}
}
