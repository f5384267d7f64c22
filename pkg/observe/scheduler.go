package observe

import (
	"sync"
	"time"
)

// Scheduler runs deferred work, typically on a later turn than the caller.
type Scheduler interface {
	Schedule(fn func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(fn func())

// Schedule calls f(fn).
func (f SchedulerFunc) Schedule(fn func()) { f(fn) }

// TimerScheduler runs each function on its own goroutine after Delay.
// A zero Delay runs it as soon as the runtime gets to it.
type TimerScheduler struct {
	Delay time.Duration
}

// Schedule implements Scheduler.
func (t TimerScheduler) Schedule(fn func()) {
	time.AfterFunc(t.Delay, fn)
}

// ManualScheduler queues functions until Flush is called. It makes
// deferred notifications deterministic in tests and single-threaded loops.
type ManualScheduler struct {
	mu    sync.Mutex
	queue []func()
}

// Schedule implements Scheduler.
func (m *ManualScheduler) Schedule(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, fn)
}

// Pending returns the number of queued functions.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Flush runs the queued functions in order, including those scheduled while
// flushing, and returns how many ran.
func (m *ManualScheduler) Flush() int {
	ran := 0
	for {
		m.mu.Lock()
		queue := m.queue
		m.queue = nil
		m.mu.Unlock()

		if len(queue) == 0 {
			return ran
		}
		for _, fn := range queue {
			fn()
			ran++
		}
	}
}
