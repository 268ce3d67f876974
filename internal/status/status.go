// Package status provides a thread-safe status tracker for the stopwatch panel.
// It is a display surface in its own right, and is read by the HTTP handlers.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/panel-stopwatch/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	DebounceMs  int64
	HideDelayMs int64
	RotateMs    int64
	Rollover    bool
	InputMode   string
	ImageDir    string
	Broker      string
	HTTPAddr    string
}

// Counts tracks accepted and suppressed presses per channel.
type Counts struct {
	StartStop  int
	Reset      int
	Suppressed int
}

// Snapshot is a point-in-time view of panel state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Session         string
	Version         string
	State           logic.RunState
	Elapsed         time.Duration
	Time            string
	DaysLabel       string
	DaysVisible     bool
	ControlsVisible bool
	Image           string
	ImageError      string
	InputsEnabled   bool
	Counts          Counts
	StartTime       time.Time
	Now             time.Time
	MQTTConnected   bool
	Config          Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable panel state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime:       startTime,
			Config:          cfg,
			Time:            "00:00:00",
			ControlsVisible: true,
		},
		now: time.Now,
	}
}

// SetSession records the session id and build version.
func (t *Tracker) SetSession(session, version string) {
	t.mu.Lock()
	t.snap.Session = session
	t.snap.Version = version
	t.mu.Unlock()
}

// Update records the stopwatch run state and elapsed time.
func (t *Tracker) Update(r logic.Reading) {
	t.mu.Lock()
	t.snap.State = r.State
	t.snap.Elapsed = time.Duration(r.Elapsed) * time.Second
	t.mu.Unlock()
}

// SetCounts records press counters.
func (t *Tracker) SetCounts(c Counts) {
	t.mu.Lock()
	t.snap.Counts = c
	t.mu.Unlock()
}

// SetInputsEnabled records whether the physical buttons are active.
func (t *Tracker) SetInputsEnabled(enabled bool) {
	t.mu.Lock()
	t.snap.InputsEnabled = enabled
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// RenderTime records the displayed time string.
func (t *Tracker) RenderTime(s string) {
	t.mu.Lock()
	t.snap.Time = s
	t.mu.Unlock()
}

// RenderDaysLabel records the days label and whether it is shown.
func (t *Tracker) RenderDaysLabel(label string, visible bool) {
	t.mu.Lock()
	t.snap.DaysLabel = label
	t.snap.DaysVisible = visible
	t.mu.Unlock()
}

// RenderVisibility records whether the controls are shown.
func (t *Tracker) RenderVisibility(visible bool) {
	t.mu.Lock()
	t.snap.ControlsVisible = visible
	t.mu.Unlock()
}

// RenderImage records the current image. It never fails.
func (t *Tracker) RenderImage(id string) error {
	t.mu.Lock()
	t.snap.Image = id
	t.mu.Unlock()
	return nil
}

// SetImageError records the last image display failure; empty clears it.
func (t *Tracker) SetImageError(msg string) {
	t.mu.Lock()
	t.snap.ImageError = msg
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the panel state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
