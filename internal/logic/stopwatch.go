package logic

import (
	"time"

	"github.com/sweeney/panel-stopwatch/internal/sched"
)

// Stopwatch owns the elapsed-seconds counter and the run state.
// It must only be used from the scheduler goroutine.
type Stopwatch struct {
	sched    Scheduler
	rollover bool
	onChange func(Reading)

	elapsed   int64
	state     RunState
	tick      sched.Handle
	startedAt time.Time
}

// NewStopwatch creates a stopped stopwatch. onChange, if set, receives a
// Reading after every state or counter change.
func NewStopwatch(s Scheduler, rollover bool, onChange func(Reading)) *Stopwatch {
	return &Stopwatch{sched: s, rollover: rollover, onChange: onChange}
}

// Toggle starts a stopped stopwatch or stops a running one and returns the
// new state. Starting arms a tick one interval after now.
func (w *Stopwatch) Toggle(now time.Time) RunState {
	if w.state == Running {
		w.cancelTick()
		w.state = Stopped
	} else {
		w.state = Running
		w.startedAt = now
		w.tick = w.sched.Every(now.Add(TickInterval), TickInterval, "stopwatch.tick", w.onTick)
	}

	w.notify()

	return w.state
}

// Reset zeroes the counter and stops, whatever the current state.
func (w *Stopwatch) Reset(_ time.Time) {
	w.cancelTick()
	w.elapsed = 0
	w.state = Stopped
	w.notify()
}

// Tick adds one second while running. A tick that arrives after a stop is
// discarded and Tick reports false.
func (w *Stopwatch) Tick(_ time.Time) bool {
	if w.state != Running {
		return false
	}

	w.elapsed++
	w.notify()

	return true
}

// Elapsed returns whole seconds since the last reset.
func (w *Stopwatch) Elapsed() int64 { return w.elapsed }

// State returns the run state.
func (w *Stopwatch) State() RunState { return w.state }

// StartedAt returns when the current run began; zero when stopped.
func (w *Stopwatch) StartedAt() time.Time {
	if w.state != Running {
		return time.Time{}
	}

	return w.startedAt
}

// Reading returns the current formatted snapshot.
func (w *Stopwatch) Reading() Reading {
	return Reading{
		Display: Format(w.elapsed, w.rollover),
		Elapsed: w.elapsed,
		State:   w.state,
	}
}

func (w *Stopwatch) onTick(now time.Time) error {
	w.Tick(now)
	return nil
}

func (w *Stopwatch) cancelTick() {
	if w.tick != 0 {
		w.sched.Cancel(w.tick)
		w.tick = 0
	}
}

func (w *Stopwatch) notify() {
	if w.onChange != nil {
		w.onChange(w.Reading())
	}
}
