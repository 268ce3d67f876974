package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/sweeney/panel-stopwatch/internal/config"
	"github.com/sweeney/panel-stopwatch/internal/display"
	"github.com/sweeney/panel-stopwatch/internal/display/term"
	"github.com/sweeney/panel-stopwatch/internal/gpio"
	"github.com/sweeney/panel-stopwatch/internal/images"
	"github.com/sweeney/panel-stopwatch/internal/logger"
	"github.com/sweeney/panel-stopwatch/internal/logic"
	"github.com/sweeney/panel-stopwatch/internal/mqtt"
	"github.com/sweeney/panel-stopwatch/internal/status"
	"github.com/sweeney/panel-stopwatch/internal/version"
	"github.com/sweeney/panel-stopwatch/internal/web"
)

const shutdownTimeout = 2 * time.Second

// Run resolves every optional capability once, wires the engine and blocks
// until ctx is cancelled or a quit command arrives.
func Run(ctx context.Context, cfg *config.Config) error {
	session := ulid.Make().String()
	ctx = logger.WithKV(ctx, "session", session)

	opts, err := engineOptions(cfg)
	if err != nil {
		return err
	}

	opts.Session = session
	opts.Version = version.Short()
	opts.Images = loadImages(ctx, cfg.ImageDir)
	opts.Source = openSource(ctx, cfg)

	opts.Tracker = status.NewTracker(time.Now(), status.Config{
		PollMs:      int64(cfg.Inputs.PollIntervalMs),
		DebounceMs:  int64(cfg.DebounceIntervalMs),
		HideDelayMs: int64(cfg.HideDelayMs),
		RotateMs:    int64(cfg.ImageRotateIntervalMs),
		Rollover:    cfg.Rollover,
		InputMode:   cfg.Inputs.Mode,
		ImageDir:    cfg.ImageDir,
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
	})

	var (
		eng   *Engine
		ready = make(chan struct{})
	)

	if cfg.MQTT.Broker != "" {
		pub := mqtt.NewRealPublisher(ctx, mqtt.Options{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			Session:     session,
			OnCommand: func(cmd string) {
				<-ready
				if err := eng.Command(cmd); err != nil {
					logger.WarnKV(ctx, "mqtt command rejected", "error", err)
				}
			},
		})
		defer pub.Close()

		opts.Publisher = pub
		opts.MQTTStatus = pub
	}

	opts.Surfaces = []display.Surface{display.NewLog(ctx, true)}

	var terminal *term.Surface
	if cfg.Terminal.Enabled {
		terminal = term.New(term.Actions{
			Toggle:   func() { eng.Toggle() },
			Reset:    func() { eng.Reset() },
			Activity: func() { eng.Activity() },
			Quit:     func() { eng.Quit() },
		})
		opts.Surfaces = append(opts.Surfaces, terminal)
	}

	eng = New(ctx, opts)
	close(ready)

	if cfg.HTTP.Addr != "" {
		if stop := serveHTTP(ctx, cfg.HTTP.Addr, web.New(cfg.HTTP.Addr, opts.Tracker, eng)); stop != nil {
			defer stop()
		}
	}

	eng.Start()

	if terminal != nil {
		termCtx, stopTerm := context.WithCancel(ctx)
		done := make(chan struct{})

		go func() {
			defer close(done)

			if err := terminal.Run(termCtx); err != nil {
				logger.ErrorKV(ctx, "terminal display stopped", "error", err)
			}
		}()

		defer func() {
			stopTerm()
			<-done
		}()
	}

	return eng.Run(ctx)
}

// engineOptions translates the validated config into engine options.
func engineOptions(cfg *config.Config) (Options, error) {
	startStop, err := channelOptions(cfg, cfg.Inputs.StartStop)
	if err != nil {
		return Options{}, fmt.Errorf("inputs.start_stop: %w", err)
	}

	reset, err := channelOptions(cfg, cfg.Inputs.Reset)
	if err != nil {
		return Options{}, fmt.Errorf("inputs.reset: %w", err)
	}

	mode := InputPoll
	if cfg.Inputs.Mode == config.ModeEdge {
		mode = InputEdge
	}

	return Options{
		Rollover:     cfg.Rollover,
		HideDelay:    cfg.HideDelay(),
		RotatePeriod: cfg.ImageRotateInterval(),
		PollInterval: cfg.PollInterval(),
		InputMode:    mode,
		StartStop:    startStop,
		Reset:        reset,
	}, nil
}

func channelOptions(cfg *config.Config, ch config.ChannelConfig) (ChannelOptions, error) {
	edge, err := logic.ParseEdge(ch.Edge)
	if err != nil {
		return ChannelOptions{}, err
	}

	return ChannelOptions{Edge: edge, Debounce: cfg.DebounceFor(ch)}, nil
}

func gpioLines(cfg *config.Config) ([]gpio.Line, error) {
	lines := make([]gpio.Line, 0, 2)

	for _, c := range []struct {
		id logic.ChannelID
		ch config.ChannelConfig
	}{
		{logic.ChannelStartStop, cfg.Inputs.StartStop},
		{logic.ChannelReset, cfg.Inputs.Reset},
	} {
		pull, err := gpio.ParsePull(c.ch.Pull)
		if err != nil {
			return nil, err
		}

		lines = append(lines, gpio.Line{ID: c.id, Pin: c.ch.Pin, Pull: pull})
	}

	return lines, nil
}

// openSource returns nil, after a single warning, when the buttons cannot
// be used.
func openSource(ctx context.Context, cfg *config.Config) gpio.Source {
	if !cfg.InputsEnabled() {
		logger.InfoKV(ctx, "buttons disabled by configuration")
		return nil
	}

	lines, err := gpioLines(cfg)
	if err != nil {
		logger.WarnKV(ctx, "buttons disabled", "error", err)
		return nil
	}

	src, err := gpio.NewRealSource(cfg.Inputs.Chip, lines)
	if err != nil {
		logger.WarnKV(ctx, "buttons disabled", "chip", cfg.Inputs.Chip, "error", err)
		return nil
	}

	return src
}

func loadImages(ctx context.Context, dir string) []string {
	list, err := images.List(dir)
	if err != nil {
		logger.WarnKV(ctx, "background images disabled", "dir", dir, "error", err)
		return nil
	}

	logger.InfoKV(ctx, "background images", "dir", dir, "count", len(list))

	return list
}

// serveHTTP binds addr and serves in the background. A bind failure only
// disables the web surface. The returned func shuts the server down.
func serveHTTP(ctx context.Context, addr string, srv *web.Server) func() {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logger.WarnKV(ctx, "http status server disabled", "addr", addr, "error", err)
		return nil
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorKV(ctx, "http server error", "error", err)
		}
	}()

	logger.InfoKV(ctx, "http status server listening", "addr", ln.Addr().String())

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WarnKV(ctx, "http shutdown", "error", err)
		}
	}
}

// PrintInputs reads every button once and writes the raw and pressed
// levels to w.
func PrintInputs(w io.Writer, cfg *config.Config) error {
	lines, err := gpioLines(cfg)
	if err != nil {
		return err
	}

	src, err := gpio.NewRealSource(cfg.Inputs.Chip, lines)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer src.Close()

	opts, err := engineOptions(cfg)
	if err != nil {
		return err
	}

	for _, c := range []struct {
		id   logic.ChannelID
		pin  int
		edge logic.Edge
	}{
		{logic.ChannelStartStop, cfg.Inputs.StartStop.Pin, opts.StartStop.Edge},
		{logic.ChannelReset, cfg.Inputs.Reset.Pin, opts.Reset.Edge},
	} {
		raw, err := src.Read(c.id)
		if err != nil {
			return fmt.Errorf("read %s: %w", c.id, err)
		}

		ch := logic.NewChannel(c.id, c.edge, 0)
		ch.Baseline(raw)

		fmt.Fprintf(w, "%s (pin %d): raw=%s pressed=%t\n", c.id, c.pin, level(raw), ch.Active())
	}

	return nil
}

func level(raw bool) string {
	if raw {
		return "HIGH"
	}

	return "LOW"
}
