// Package logic contains the pure timer/event engine of the panel: button
// debouncing, the stopwatch state machine, controls visibility and
// background rotation. It has NO GPIO, MQTT, display or OS dependencies;
// time is always passed in and every timer goes through a Scheduler.
package logic

import (
	"fmt"
	"time"

	"github.com/sweeney/panel-stopwatch/internal/sched"
)

// TickInterval is the stopwatch resolution. It is not configurable.
const TickInterval = time.Second

// ChannelID names a physical button.
type ChannelID string

const (
	ChannelStartStop ChannelID = "start_stop"
	ChannelReset     ChannelID = "reset"
)

// Edge is the raw level transition that counts as a press.
type Edge int

const (
	// EdgeFalling suits a pulled-up button that shorts to ground.
	EdgeFalling Edge = iota
	// EdgeRising suits a pulled-down button that connects to 3V3.
	EdgeRising
)

func (e Edge) String() string {
	if e == EdgeRising {
		return "rising"
	}

	return "falling"
}

// ParseEdge converts "rising" or "falling".
func ParseEdge(s string) (Edge, error) {
	switch s {
	case "rising":
		return EdgeRising, nil
	case "falling":
		return EdgeFalling, nil
	default:
		return EdgeFalling, fmt.Errorf("unknown edge %q", s)
	}
}

// Press is one debounced button press.
type Press struct {
	Channel ChannelID
	Time    time.Time
}

// RunState is the stopwatch state.
type RunState int

const (
	Stopped RunState = iota
	Running
)

func (s RunState) String() string {
	if s == Running {
		return "RUNNING"
	}

	return "STOPPED"
}

// Display is the formatted form of an elapsed time.
type Display struct {
	// Time is always HH:MM:SS with two-digit fields.
	Time string
	// Days is the whole-day count; only meaningful with rollover.
	Days int64
	// DaysLabel is "1 day" / "N days", empty when hidden.
	DaysLabel string
	// ShowDays reports whether the day label should be visible.
	ShowDays bool
}

// Reading is a stopwatch snapshot handed to the display.
type Reading struct {
	Display

	Elapsed int64
	State   RunState
}

// Scheduler is the part of *sched.Scheduler the engine needs.
type Scheduler interface {
	Now() time.Time
	At(deadline time.Time, name string, fn sched.Func) sched.Handle
	Every(first time.Time, period time.Duration, name string, fn sched.Func) sched.Handle
	EverySkipping(first time.Time, period time.Duration, name string, fn sched.Func) sched.Handle
	Cancel(h sched.Handle) bool
}
