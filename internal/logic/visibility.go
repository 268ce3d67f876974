package logic

import (
	"time"

	"github.com/sweeney/panel-stopwatch/internal/sched"
)

// Visibility hides the on-screen controls after a period without activity.
// At most one hide is pending at any time.
type Visibility struct {
	sched    Scheduler
	delay    time.Duration
	onChange func(visible bool)

	visible  bool
	pending  sched.Handle
	deadline time.Time
	hides    uint64
}

// NewVisibility creates a scheduler with controls visible and no hide armed.
func NewVisibility(s Scheduler, delay time.Duration, onChange func(bool)) *Visibility {
	return &Visibility{sched: s, delay: delay, onChange: onChange, visible: true}
}

// OnActivity shows the controls and replaces any pending hide with one due
// delay after now.
func (v *Visibility) OnActivity(now time.Time) {
	if v.pending != 0 {
		v.sched.Cancel(v.pending)
	}

	v.deadline = now.Add(v.delay)
	v.pending = v.sched.At(v.deadline, "visibility.hide", v.fire)

	if !v.visible {
		v.visible = true
		v.notify()
	}
}

// Fire hides the controls. It does not re-arm.
func (v *Visibility) Fire(_ time.Time) {
	v.pending = 0
	v.deadline = time.Time{}
	v.hides++

	if v.visible {
		v.visible = false
		v.notify()
	}
}

// Visible reports whether the controls are shown.
func (v *Visibility) Visible() bool { return v.visible }

// Deadline returns the pending hide time, if any.
func (v *Visibility) Deadline() (time.Time, bool) {
	return v.deadline, v.pending != 0
}

// Hides returns how many times the hide fired.
func (v *Visibility) Hides() uint64 { return v.hides }

func (v *Visibility) fire(now time.Time) error {
	v.Fire(now)
	return nil
}

func (v *Visibility) notify() {
	if v.onChange != nil {
		v.onChange(v.visible)
	}
}
