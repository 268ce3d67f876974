package logic

import (
	"testing"
	"time"
)

func TestStopwatchCountsWhileRunning(t *testing.T) {
	s := newScheduler()

	var readings []Reading
	w := NewStopwatch(s, false, func(r Reading) { readings = append(readings, r) })

	if w.State() != Stopped {
		t.Fatal("new stopwatch should be stopped")
	}

	if got := w.Toggle(epoch); got != Running {
		t.Fatalf("toggle: got %s", got)
	}

	s.Advance(at(3*time.Second + 500*time.Millisecond))
	if w.Elapsed() != 3 {
		t.Errorf("expected 3s, got %d", w.Elapsed())
	}

	last := readings[len(readings)-1]
	if last.Time != "00:00:03" || last.State != Running {
		t.Errorf("last reading: %+v", last)
	}
}

func TestStopwatchStopCancelsTicks(t *testing.T) {
	s := newScheduler()
	w := NewStopwatch(s, false, nil)

	w.Toggle(epoch)
	s.Advance(at(2 * time.Second))
	w.Toggle(s.Now())

	s.Advance(at(time.Minute))
	if w.Elapsed() != 2 {
		t.Errorf("expected counter frozen at 2, got %d", w.Elapsed())
	}
	if s.Len() != 0 {
		t.Errorf("expected no pending ticks, got %d", s.Len())
	}
}

func TestTickAfterStopIsDiscarded(t *testing.T) {
	s := newScheduler()
	w := NewStopwatch(s, false, nil)

	w.Toggle(epoch)
	s.Advance(at(time.Second))
	w.Toggle(at(time.Second + time.Millisecond))

	if w.Tick(at(2 * time.Second)) {
		t.Error("late tick should report not applied")
	}
	if w.Elapsed() != 1 {
		t.Errorf("late tick changed counter: %d", w.Elapsed())
	}
}

func TestToggleRoundTrip(t *testing.T) {
	for _, start := range []RunState{Stopped, Running} {
		s := newScheduler()
		w := NewStopwatch(s, false, nil)
		if start == Running {
			w.Toggle(epoch)
		}

		w.Toggle(epoch)
		w.Toggle(epoch)

		if w.State() != start {
			t.Errorf("from %s: got %s after two toggles", start, w.State())
		}
	}
}

func TestResetIsTotal(t *testing.T) {
	cases := []struct {
		name  string
		setup func(*Stopwatch, interface{ Advance(time.Time) int })
	}{
		{"fresh", func(*Stopwatch, interface{ Advance(time.Time) int }) {}},
		{"running", func(w *Stopwatch, s interface{ Advance(time.Time) int }) {
			w.Toggle(epoch)
			s.Advance(at(5 * time.Second))
		}},
		{"stopped with time", func(w *Stopwatch, s interface{ Advance(time.Time) int }) {
			w.Toggle(epoch)
			s.Advance(at(5 * time.Second))
			w.Toggle(at(5 * time.Second))
		}},
	}

	for _, tc := range cases {
		s := newScheduler()
		w := NewStopwatch(s, false, nil)
		tc.setup(w, s)

		w.Reset(s.Now())
		w.Reset(s.Now())

		if w.Elapsed() != 0 || w.State() != Stopped {
			t.Errorf("%s: got elapsed=%d state=%s", tc.name, w.Elapsed(), w.State())
		}

		s.Advance(at(time.Hour))
		if w.Elapsed() != 0 {
			t.Errorf("%s: ticks continued after reset", tc.name)
		}
	}
}

func TestStopwatchTicksDoNotDrift(t *testing.T) {
	s := newScheduler()
	w := NewStopwatch(s, false, nil)

	w.Toggle(epoch)
	// Wake up late every time; a drifting tick would fall behind.
	for i := 1; i <= 3600; i++ {
		s.Advance(at(time.Duration(i)*time.Second + 40*time.Millisecond))
	}
	if w.Elapsed() != 3600 {
		t.Errorf("expected 3600 ticks, got %d", w.Elapsed())
	}
}

func TestRolloverReading(t *testing.T) {
	s := newScheduler()
	w := NewStopwatch(s, true, nil)
	w.elapsed = 90061

	r := w.Reading()
	if r.Time != "01:01:01" || r.DaysLabel != "1 day" || !r.ShowDays {
		t.Errorf("unexpected reading: %+v", r)
	}

	w.Reset(epoch)
	r = w.Reading()
	if r.ShowDays || r.DaysLabel != "" || r.Time != "00:00:00" {
		t.Errorf("day label should hide after reset: %+v", r)
	}
}

func TestStartedAt(t *testing.T) {
	s := newScheduler()
	w := NewStopwatch(s, false, nil)

	if !w.StartedAt().IsZero() {
		t.Error("stopped stopwatch has no start")
	}
	w.Toggle(at(time.Minute))
	if !w.StartedAt().Equal(at(time.Minute)) {
		t.Errorf("started at: %v", w.StartedAt())
	}
}
