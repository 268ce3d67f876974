package app

import (
	"context"
	"testing"
	"time"

	"github.com/sweeney/panel-stopwatch/internal/display"
	"github.com/sweeney/panel-stopwatch/internal/gpio"
	"github.com/sweeney/panel-stopwatch/internal/logic"
	"github.com/sweeney/panel-stopwatch/internal/mqtt"
	"github.com/sweeney/panel-stopwatch/internal/sched"
	"github.com/sweeney/panel-stopwatch/internal/status"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) time.Time {
	return epoch.Add(d)
}

// stoppedClock pins the scheduler's start at epoch; tests move time with Advance.
type stoppedClock struct{}

func (stoppedClock) Now() time.Time { return epoch }

func (stoppedClock) NewTimer(d time.Duration) sched.Timer {
	return sched.RealClock{}.NewTimer(d)
}

// Pulled-up buttons: high is released, low is pressed.
const (
	released = true
	pressed  = false
)

type harness struct {
	engine    *Engine
	source    *gpio.FakeSource
	screen    *display.Recorder
	publisher *mqtt.FakePublisher
	tracker   *status.Tracker
	step      time.Duration
}

func newHarness(t *testing.T, samples map[logic.ChannelID][]bool, tweak func(*Options)) *harness {
	t.Helper()

	h := &harness{
		screen:    display.NewRecorder(),
		publisher: mqtt.NewFakePublisher(),
		tracker:   status.NewTracker(epoch, status.Config{}),
	}

	opts := Options{
		Clock:        stoppedClock{},
		HideDelay:    3 * time.Second,
		RotatePeriod: 30 * time.Second,
		PollInterval: 20 * time.Millisecond,
		StartStop:    ChannelOptions{Edge: logic.EdgeFalling, Debounce: 300 * time.Millisecond},
		Reset:        ChannelOptions{Edge: logic.EdgeFalling, Debounce: 300 * time.Millisecond},
		Images:       []string{"img/a.png", "img/b.png", "img/c.png"},
		Surfaces:     []display.Surface{h.screen},
		Tracker:      h.tracker,
		Publisher:    h.publisher,
		MQTTStatus:   h.publisher,
		Session:      "01TESTSESSION",
		Version:      "test",
	}

	if samples != nil {
		h.source = gpio.NewFakeSource(samples)
		opts.Source = h.source
	}

	if tweak != nil {
		tweak(&opts)
	}

	h.step = opts.PollInterval
	h.engine = New(context.Background(), opts)

	return h
}

// advance moves logical time to epoch+d. With a source attached it steps
// one poll period at a time, as the running loop would, since polls skip
// the periods a single long pass jumps over.
func (h *harness) advance(d time.Duration) {
	s := h.engine.Scheduler()
	target := at(d)

	if h.source != nil && h.step > 0 {
		for now := s.Now().Add(h.step); now.Before(target); now = now.Add(h.step) {
			s.Advance(now)
		}
	}

	s.Advance(target)
}

func idle() map[logic.ChannelID][]bool {
	return map[logic.ChannelID][]bool{
		logic.ChannelStartStop: {released},
		logic.ChannelReset:     {released},
	}
}
