// Package app wires the stopwatch engine to its inputs and surfaces.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/panel-stopwatch/internal/display"
	"github.com/sweeney/panel-stopwatch/internal/gpio"
	"github.com/sweeney/panel-stopwatch/internal/logger"
	"github.com/sweeney/panel-stopwatch/internal/logic"
	"github.com/sweeney/panel-stopwatch/internal/mqtt"
	"github.com/sweeney/panel-stopwatch/internal/sched"
	"github.com/sweeney/panel-stopwatch/internal/status"
)

// Commands accepted by Engine.Command. The first three match the MQTT
// command payloads.
const (
	CommandToggle   = mqtt.CommandToggle
	CommandReset    = mqtt.CommandReset
	CommandActivity = mqtt.CommandActivity
	CommandQuit     = "quit"
)

// Causes reported with each state publication.
const (
	CauseStartup    = "STARTUP"
	CauseTick       = "TICK"
	CauseToggle     = "TOGGLE"
	CauseReset      = "RESET"
	CauseVisibility = "VISIBILITY"
	CauseImage      = "IMAGE"
)

// Shutdown reasons.
const (
	ReasonQuit   = "quit"
	ReasonSignal = "signal"
)

var (
	// ErrUnknownCommand is returned by Command for anything it does not recognise.
	ErrUnknownCommand = errors.New("unknown command")

	errQuit = errors.New("quit requested")
)

// InputMode selects how button levels reach the debouncer.
type InputMode int

const (
	// InputPoll samples every channel on a fixed period.
	InputPoll InputMode = iota
	// InputEdge receives level changes pushed by the source.
	InputEdge
)

// ChannelOptions configures one button.
type ChannelOptions struct {
	Edge     logic.Edge
	Debounce time.Duration
}

// Options configures an Engine. Only Surfaces is required to see anything;
// every other collaborator is optional.
type Options struct {
	Clock sched.Clock

	Rollover     bool
	HideDelay    time.Duration
	RotatePeriod time.Duration
	PollInterval time.Duration
	InputMode    InputMode
	StartStop    ChannelOptions
	Reset        ChannelOptions

	Images     []string
	Source     gpio.Source
	Surfaces   []display.Surface
	Tracker    *status.Tracker
	Publisher  mqtt.Publisher
	MQTTStatus mqtt.ConnectionStatus
	Session    string
	Version    string
}

// Engine owns the scheduler and every engine component. Apart from the
// goroutine-safe control methods (Toggle, Reset, Activity, Quit, Command)
// it must only be touched from the scheduler goroutine.
type Engine struct {
	ctx  context.Context
	opts Options

	sched      *sched.Scheduler
	surface    display.Surface
	stopwatch  *logic.Stopwatch
	visibility *logic.Visibility
	rotator    *logic.Rotator
	channels   []*logic.Channel
	inputs     *inputs

	cause    string
	image    string
	daysShow bool
	daysText string
	stop     context.CancelCauseFunc
}

// New builds an engine. Nothing is scheduled until Start.
func New(ctx context.Context, opts Options) *Engine {
	ctx = logger.WithName(ctx, "engine")

	e := &Engine{
		ctx:  ctx,
		opts: opts,
	}

	surfaces := append([]display.Surface(nil), opts.Surfaces...)
	if opts.Tracker != nil {
		surfaces = append(surfaces, opts.Tracker)
	}

	e.surface = display.Multi(surfaces)
	e.sched = sched.New(ctx, opts.Clock)
	e.stopwatch = logic.NewStopwatch(e.sched, opts.Rollover, e.onReading)
	e.visibility = logic.NewVisibility(e.sched, opts.HideDelay, e.onVisibility)
	e.rotator = logic.NewRotator(e.sched, logic.NewImageSequence(opts.Images), opts.RotatePeriod, e.showImage)
	e.channels = []*logic.Channel{
		logic.NewChannel(logic.ChannelStartStop, opts.StartStop.Edge, opts.StartStop.Debounce),
		logic.NewChannel(logic.ChannelReset, opts.Reset.Edge, opts.Reset.Debounce),
	}

	if opts.Source != nil {
		e.inputs = newInputs(e, opts.Source)
	}

	return e
}

// Scheduler exposes the engine's scheduler.
func (e *Engine) Scheduler() *sched.Scheduler { return e.sched }

// Stopwatch exposes the clock engine.
func (e *Engine) Stopwatch() *logic.Stopwatch { return e.stopwatch }

// Visibility exposes the visibility scheduler.
func (e *Engine) Visibility() *logic.Visibility { return e.visibility }

// Rotator exposes the image rotator.
func (e *Engine) Rotator() *logic.Rotator { return e.rotator }

// Channel returns the debouncer for id.
func (e *Engine) Channel(id logic.ChannelID) *logic.Channel {
	for _, c := range e.channels {
		if c.ID == id {
			return c
		}
	}

	return nil
}

// Start renders the initial frame, baselines the inputs and arms the
// periodic work. It must be called before Run, or from the scheduler
// goroutine when driving the engine with Advance.
func (e *Engine) Start() {
	now := e.sched.Now()

	if e.opts.Tracker != nil {
		e.opts.Tracker.SetSession(e.opts.Session, e.opts.Version)
		e.opts.Tracker.SetInputsEnabled(e.inputs != nil)
	}

	if e.inputs != nil {
		e.inputs.start(now)
	}

	e.cause = CauseStartup

	if err := e.rotator.Start(now); err != nil {
		if errors.Is(err, logic.ErrNoImages) {
			logger.InfoKV(e.ctx, "no background images, rotation disabled")
		} else {
			logger.WarnKV(e.ctx, "initial image failed", "error", err)
		}
	}

	e.surface.RenderVisibility(e.visibility.Visible())
	e.visibility.OnActivity(now)
	e.onReading(e.stopwatch.Reading())

	e.cause = ""

	e.publishSystem(mqtt.SystemEvent{Timestamp: now, Event: "STARTUP", Retained: true})
	logger.InfoKV(e.ctx, "started",
		"session", e.opts.Session,
		"images", len(e.opts.Images),
		"inputs", e.inputs != nil,
	)
}

// Run dispatches until ctx is cancelled or Quit is called, then publishes
// a shutdown event. It returns nil on either kind of shutdown.
func (e *Engine) Run(ctx context.Context) error {
	ctx, stop := context.WithCancelCause(ctx)
	defer stop(nil)

	e.stop = stop

	if err := e.sched.Run(ctx); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	reason := ReasonSignal
	if errors.Is(context.Cause(ctx), errQuit) {
		reason = ReasonQuit
	}

	e.Shutdown(reason)

	return nil
}

// Shutdown releases the input source and publishes the shutdown event.
func (e *Engine) Shutdown(reason string) {
	logger.InfoKV(e.ctx, "shutting down", "reason", reason, "elapsed", e.stopwatch.Elapsed())

	if e.inputs != nil {
		e.inputs.close()
	}

	e.publishSystem(mqtt.SystemEvent{
		Timestamp: e.sched.Now(),
		Event:     "SHUTDOWN",
		Reason:    reason,
		Retained:  true,
	})
}

// HandlePress routes a debounced press to the clock engine. Every press is
// also an activity signal.
func (e *Engine) HandlePress(p logic.Press) {
	logger.DebugKV(e.ctx, "press", "channel", p.Channel)

	e.visibility.OnActivity(p.Time)

	switch p.Channel {
	case logic.ChannelStartStop:
		e.toggle(p.Time)
	case logic.ChannelReset:
		e.reset(p.Time)
	}

	e.updateCounts()
}

// Command runs a named command on the scheduler goroutine. Safe for
// concurrent use.
func (e *Engine) Command(cmd string) error {
	switch cmd {
	case CommandToggle:
		e.Toggle()
	case CommandReset:
		e.Reset()
	case CommandActivity:
		e.Activity()
	case CommandQuit:
		e.Quit()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}

	return nil
}

// Toggle starts or stops the stopwatch. Safe for concurrent use.
func (e *Engine) Toggle() {
	e.sched.Post("command.toggle", func(now time.Time) error {
		e.visibility.OnActivity(now)
		e.toggle(now)
		return nil
	})
}

// Reset zeroes and stops the stopwatch. Safe for concurrent use.
func (e *Engine) Reset() {
	e.sched.Post("command.reset", func(now time.Time) error {
		e.visibility.OnActivity(now)
		e.reset(now)
		return nil
	})
}

// Activity shows the controls and restarts the hide delay. Safe for
// concurrent use.
func (e *Engine) Activity() {
	e.sched.Post("command.activity", func(now time.Time) error {
		e.visibility.OnActivity(now)
		return nil
	})
}

// Quit ends Run. Safe for concurrent use.
func (e *Engine) Quit() {
	e.sched.Post("command.quit", func(time.Time) error {
		if e.stop != nil {
			e.stop(errQuit)
		}
		return nil
	})
}

func (e *Engine) toggle(now time.Time) {
	e.cause = CauseToggle
	state := e.stopwatch.Toggle(now)
	e.cause = ""

	logger.InfoKV(e.ctx, "stopwatch", "state", state, "elapsed", e.stopwatch.Elapsed())
}

func (e *Engine) reset(now time.Time) {
	e.cause = CauseReset
	e.stopwatch.Reset(now)
	e.cause = ""

	logger.InfoKV(e.ctx, "stopwatch reset")
}

func (e *Engine) onReading(r logic.Reading) {
	e.surface.RenderTime(r.Time)

	if r.ShowDays != e.daysShow || r.DaysLabel != e.daysText || e.cause == CauseStartup {
		e.daysShow = r.ShowDays
		e.daysText = r.DaysLabel
		e.surface.RenderDaysLabel(r.DaysLabel, r.ShowDays)
	}

	if e.opts.Tracker != nil {
		e.opts.Tracker.Update(r)
	}

	cause := e.cause
	if cause == "" {
		cause = CauseTick
	}

	e.publishState(cause)
}

func (e *Engine) onVisibility(visible bool) {
	e.surface.RenderVisibility(visible)

	if e.cause != CauseStartup {
		e.publishState(CauseVisibility)
	}
}

func (e *Engine) showImage(id string) error {
	e.image = id
	err := e.surface.RenderImage(id)

	if e.opts.Tracker != nil {
		if err != nil {
			e.opts.Tracker.SetImageError(err.Error())
		} else {
			e.opts.Tracker.SetImageError("")
		}
	}

	if e.cause != CauseStartup {
		e.publishState(CauseImage)
	}

	return err
}

func (e *Engine) updateCounts() {
	if e.opts.Tracker == nil {
		return
	}

	var suppressed uint64
	for _, c := range e.channels {
		suppressed += c.Suppressed()
	}

	e.opts.Tracker.SetCounts(status.Counts{
		StartStop:  int(e.Channel(logic.ChannelStartStop).Presses()),
		Reset:      int(e.Channel(logic.ChannelReset).Presses()),
		Suppressed: int(suppressed),
	})
}

func (e *Engine) publishState(cause string) {
	if e.opts.Publisher == nil {
		return
	}

	r := e.stopwatch.Reading()
	event := mqtt.StateEvent{
		Timestamp:       e.sched.Now(),
		Cause:           cause,
		Session:         e.opts.Session,
		State:           r.State.String(),
		Elapsed:         r.Elapsed,
		Time:            r.Time,
		ControlsVisible: e.visibility.Visible(),
		Image:           e.image,
	}
	if r.ShowDays {
		event.DaysLabel = r.DaysLabel
	}

	if err := e.opts.Publisher.PublishState(event); err != nil {
		logger.WarnKV(e.ctx, "publish state failed", "cause", cause, "error", err)
	}

	e.refreshMQTTStatus()
}

func (e *Engine) publishSystem(event mqtt.SystemEvent) {
	if e.opts.Publisher == nil {
		return
	}

	event.Session = e.opts.Session
	event.Version = e.opts.Version

	if err := e.opts.Publisher.PublishSystem(event); err != nil {
		logger.WarnKV(e.ctx, "publish system event failed", "event", event.Event, "error", err)
	}

	e.refreshMQTTStatus()
}

func (e *Engine) refreshMQTTStatus() {
	if e.opts.Tracker != nil && e.opts.MQTTStatus != nil {
		e.opts.Tracker.SetMQTTConnected(e.opts.MQTTStatus.IsConnected())
	}
}
