package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/panel-stopwatch/internal/gpio"
	"github.com/sweeney/panel-stopwatch/internal/logger"
	"github.com/sweeney/panel-stopwatch/internal/logic"
	"github.com/sweeney/panel-stopwatch/internal/sched"
)

const defaultPollInterval = 20 * time.Millisecond

// inputs feeds raw levels from a gpio.Source through the debouncers.
type inputs struct {
	e      *Engine
	ctx    context.Context
	source gpio.Source

	handle  sched.Handle
	faulted map[logic.ChannelID]bool
}

func newInputs(e *Engine, source gpio.Source) *inputs {
	return &inputs{
		e:       e,
		ctx:     logger.WithName(e.ctx, "inputs"),
		source:  source,
		faulted: make(map[logic.ChannelID]bool),
	}
}

// start baselines every channel and begins polling or watching.
func (in *inputs) start(now time.Time) {
	for _, ch := range in.e.channels {
		raw, err := in.source.Read(ch.ID)
		if err != nil {
			in.fault(ch.ID, err)
			continue
		}

		ch.Baseline(raw)
	}

	if in.e.opts.InputMode == InputEdge {
		err := in.source.Watch(in.onEdge)
		if err == nil {
			logger.InfoKV(in.ctx, "watching button edges")
			return
		}

		logger.WarnKV(in.ctx, "edge detection unavailable, polling instead", "error", err)
	}

	period := in.e.opts.PollInterval
	if period <= 0 {
		period = defaultPollInterval
	}

	in.handle = in.e.sched.EverySkipping(now.Add(period), period, "inputs.poll", in.poll)
	logger.InfoKV(in.ctx, "polling buttons", "interval", period)
}

func (in *inputs) poll(now time.Time) error {
	for _, ch := range in.e.channels {
		raw, err := in.source.Read(ch.ID)
		if errors.Is(err, gpio.ErrUnsupported) {
			return fmt.Errorf("%w: %w", sched.ErrDisable, err)
		}

		if err != nil {
			in.fault(ch.ID, err)
			in.observe(ch, func() (logic.Press, bool) {
				ch.ObserveFault(now)
				return logic.Press{}, false
			})

			continue
		}

		in.recovered(ch.ID)
		in.observe(ch, func() (logic.Press, bool) { return ch.Observe(raw, now) })
	}

	return nil
}

func (in *inputs) onEdge(id logic.ChannelID, raw bool, at time.Time) {
	in.e.sched.Post("inputs.edge", func(time.Time) error {
		ch := in.e.Channel(id)
		if ch == nil {
			return fmt.Errorf("%w: %s", gpio.ErrUnknownChannel, id)
		}

		in.observe(ch, func() (logic.Press, bool) { return ch.Observe(raw, at) })

		return nil
	})
}

func (in *inputs) observe(ch *logic.Channel, sample func() (logic.Press, bool)) {
	suppressed := ch.Suppressed()

	if p, ok := sample(); ok {
		in.e.HandlePress(p)
		return
	}

	if ch.Suppressed() != suppressed {
		logger.DebugKV(in.ctx, "press suppressed", "channel", ch.ID)
		in.e.updateCounts()
	}
}

// fault logs only the first failure of a run of failures.
func (in *inputs) fault(id logic.ChannelID, err error) {
	if in.faulted[id] {
		return
	}

	in.faulted[id] = true
	logger.WarnKV(in.ctx, "button read failed", "channel", id, "error", err)
}

func (in *inputs) recovered(id logic.ChannelID) {
	if !in.faulted[id] {
		return
	}

	delete(in.faulted, id)
	logger.InfoKV(in.ctx, "button read recovered", "channel", id)
}

func (in *inputs) close() {
	if in.handle != 0 {
		in.e.sched.Cancel(in.handle)
		in.handle = 0
	}

	if err := in.source.Close(); err != nil {
		logger.WarnKV(in.ctx, "close input source", "error", err)
	}
}
