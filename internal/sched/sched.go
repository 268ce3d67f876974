// Package sched is a single-threaded cooperative scheduler. Callbacks are
// registered with an absolute deadline and run one at a time, in deadline
// order, on the goroutine that calls Run (or Advance). Other goroutines
// hand work to that goroutine with Post.
package sched

import (
	"container/heap"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sweeney/panel-stopwatch/internal/logger"
)

// ErrDisable, when wrapped in a callback's returned error, cancels that
// callback for good. It marks unrecoverable subsystem faults.
var ErrDisable = errors.New("subsystem disabled")

// Handle identifies a registration. The zero Handle is never issued.
type Handle uint64

// Func is a scheduled callback. now is the logical time of the dispatch pass.
type Func func(now time.Time) error

type posted struct {
	name string
	fn   Func
}

// Stats counts dispatcher activity.
type Stats struct {
	Fired    uint64
	Failed   uint64
	Panicked uint64
	Disabled uint64
}

// Scheduler dispatches timer callbacks and posted work.
// All methods except Post must be called from the dispatching goroutine
// (or before Run starts).
type Scheduler struct {
	ctx   context.Context
	clock Clock

	queue   timerQueue
	entries map[Handle]*entry
	next    Handle
	seq     uint64
	now     time.Time
	stats   Stats

	mu     sync.Mutex
	inbox  []posted
	wakeup chan struct{}
}

// New creates a scheduler whose logical time starts at clock.Now().
// ctx only supplies the logger.
func New(ctx context.Context, clock Clock) *Scheduler {
	if clock == nil {
		clock = RealClock{}
	}

	return &Scheduler{
		ctx:     logger.WithName(ctx, "sched"),
		clock:   clock,
		entries: make(map[Handle]*entry),
		now:     clock.Now(),
		wakeup:  make(chan struct{}, 1),
	}
}

// Now returns the logical time of the current (or last) dispatch pass.
func (s *Scheduler) Now() time.Time {
	return s.now
}

// At registers fn to run once at deadline.
func (s *Scheduler) At(deadline time.Time, name string, fn Func) Handle {
	return s.add(deadline, 0, false, name, fn)
}

// After registers fn to run once d after the current logical time.
func (s *Scheduler) After(d time.Duration, name string, fn Func) Handle {
	return s.add(s.now.Add(d), 0, false, name, fn)
}

// Every registers fn to run at first and then every period after the
// previous deadline, so lateness of one run does not shift the next.
// Missed periods are run back to back on the next pass.
func (s *Scheduler) Every(first time.Time, period time.Duration, name string, fn Func) Handle {
	if period <= 0 {
		panic("sched: non-positive period for " + name)
	}

	return s.add(first, period, false, name, fn)
}

// EverySkipping is Every for callbacks that only care about the present:
// after a late pass it runs once and re-arms at the first multiple of period
// after the pass time, dropping the periods it missed.
func (s *Scheduler) EverySkipping(first time.Time, period time.Duration, name string, fn Func) Handle {
	if period <= 0 {
		panic("sched: non-positive period for " + name)
	}

	return s.add(first, period, true, name, fn)
}

func (s *Scheduler) add(deadline time.Time, period time.Duration, skip bool, name string, fn Func) Handle {
	s.next++
	s.seq++

	e := &entry{
		handle:   s.next,
		name:     name,
		deadline: deadline,
		period:   period,
		skip:     skip,
		seq:      s.seq,
		fn:       fn,
	}

	heap.Push(&s.queue, e)
	s.entries[e.handle] = e

	return e.handle
}

// Cancel removes a pending registration. It reports false, without error,
// when h already fired, was cancelled, or was never issued.
func (s *Scheduler) Cancel(h Handle) bool {
	e, ok := s.entries[h]
	if !ok {
		return false
	}

	delete(s.entries, h)
	s.queue.remove(e)

	return true
}

// Pending reports whether h is still registered.
func (s *Scheduler) Pending(h Handle) bool {
	_, ok := s.entries[h]
	return ok
}

// Deadline returns the next deadline of h.
func (s *Scheduler) Deadline(h Handle) (time.Time, bool) {
	e, ok := s.entries[h]
	if !ok {
		return time.Time{}, false
	}

	return e.deadline, true
}

// Len returns the number of pending registrations.
func (s *Scheduler) Len() int {
	return len(s.entries)
}

// Stats returns dispatch counters.
func (s *Scheduler) Stats() Stats {
	return s.stats
}

// Post queues fn to run on the dispatching goroutine at the next pass,
// ahead of any timer due at that pass. Safe for concurrent use.
func (s *Scheduler) Post(name string, fn Func) {
	s.mu.Lock()
	s.inbox = append(s.inbox, posted{name: name, fn: fn})
	s.mu.Unlock()

	select {
	case s.wakeup <- struct{}{}:
	default:
	}
}

// Advance moves logical time to now and runs everything due, returning the
// number of callbacks invoked. Logical time never moves backwards.
func (s *Scheduler) Advance(now time.Time) int {
	if now.Before(s.now) {
		now = s.now
	}

	s.now = now
	n := s.drain(now)

	for {
		e := s.queue.peek()
		if e == nil || e.deadline.After(now) {
			break
		}

		heap.Pop(&s.queue)

		if e.period > 0 {
			// Re-arm before running so a failing callback keeps its schedule.
			e.deadline = e.next(now)
			heap.Push(&s.queue, e)
		} else {
			delete(s.entries, e.handle)
		}

		s.invoke(e.handle, e.name, e.fn, now)
		n++

		n += s.drain(now)
	}

	return n
}

func (s *Scheduler) drain(now time.Time) int {
	n := 0

	for {
		s.mu.Lock()
		batch := s.inbox
		s.inbox = nil
		s.mu.Unlock()

		if len(batch) == 0 {
			return n
		}

		for _, p := range batch {
			s.invoke(0, p.name, p.fn, now)
			n++
		}
	}
}

func (s *Scheduler) invoke(h Handle, name string, fn Func, now time.Time) {
	s.stats.Fired++

	defer func() {
		if r := recover(); r != nil {
			s.stats.Panicked++
			logger.ErrorKV(s.ctx, "callback panicked", "callback", name, "panic", r)
		}
	}()

	err := fn(now)
	if err == nil {
		return
	}

	if errors.Is(err, ErrDisable) {
		s.stats.Disabled++

		if h != 0 {
			s.Cancel(h)
		}

		logger.WarnKV(s.ctx, "callback disabled", "callback", name, "error", err)

		return
	}

	s.stats.Failed++
	logger.WarnKV(s.ctx, "callback failed", "callback", name, "error", err)
}

// Run dispatches until ctx is cancelled, sleeping until the nearest
// deadline or posted work. It returns nil on cancellation.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		s.Advance(s.clock.Now())

		var (
			timer Timer
			fire  <-chan time.Time
		)

		if e := s.queue.peek(); e != nil {
			timer = s.clock.NewTimer(e.deadline.Sub(s.clock.Now()))
			fire = timer.C()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}

			return nil
		case <-s.wakeup:
		case <-fire:
		}

		if timer != nil {
			timer.Stop()
		}
	}
}
