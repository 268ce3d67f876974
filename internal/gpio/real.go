//go:build linux

package gpio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/panel-stopwatch/internal/logic"
)

// line is the part of *gpiocdev.Line the source uses.
type line interface {
	Value() (int, error)
	Reconfigure(options ...gpiocdev.LineConfigOption) error
	Close() error
}

type requestFunc func(chip string, offset int, options ...gpiocdev.LineReqOption) (line, error)

func requestLine(chip string, offset int, options ...gpiocdev.LineReqOption) (line, error) {
	l, err := gpiocdev.RequestLine(chip, offset, options...)
	if err != nil {
		return nil, err
	}

	return l, nil
}

// RealSource reads buttons from actual hardware using the Linux GPIO character device.
type RealSource struct {
	chipName string
	request  requestFunc

	mu    sync.Mutex
	lines map[logic.ChannelID]line
	specs map[logic.ChannelID]Line
}

// NewRealSource requests every line as an input with its bias.
func NewRealSource(chipName string, lines []Line) (*RealSource, error) {
	return newRealSource(chipName, lines, requestLine)
}

func newRealSource(chipName string, lines []Line, request requestFunc) (*RealSource, error) {
	s := &RealSource{
		chipName: chipName,
		request:  request,
		lines:    make(map[logic.ChannelID]line, len(lines)),
		specs:    make(map[logic.ChannelID]Line, len(lines)),
	}

	for _, l := range lines {
		ln, err := request(chipName, l.Pin, gpiocdev.AsInput, biasOption(l.Pull))
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", l.ID, l.Pin, err)
		}

		s.lines[l.ID] = ln
		s.specs[l.ID] = l
	}

	return s, nil
}

// Read returns the raw level of a channel.
func (s *RealSource) Read(id logic.ChannelID) (bool, error) {
	s.mu.Lock()
	ln, ok := s.lines[id]
	s.mu.Unlock()

	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownChannel, id)
	}

	v, err := ln.Value()
	if err != nil {
		return false, fmt.Errorf("read %s pin: %w", id, err)
	}

	return v == 1, nil
}

// Watch re-requests every line with edge detection on both edges.
// fn runs on the gpiocdev event goroutine. If any line fails, every channel
// is returned to a plain input line so the source can still be polled.
func (s *RealSource) Watch(fn EdgeFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, spec := range s.specs {
		s.release(id)

		handler := func(evt gpiocdev.LineEvent) {
			fn(id, evt.Type == gpiocdev.LineEventRisingEdge, time.Now())
		}

		ln, err := s.request(s.chipName, spec.Pin,
			gpiocdev.AsInput,
			biasOption(spec.Pull),
			gpiocdev.WithBothEdges,
			gpiocdev.WithEventHandler(handler),
		)
		if err != nil {
			err = fmt.Errorf("watch %s pin %d: %w", id, spec.Pin, err)
			if rerr := s.restore(); rerr != nil {
				return errors.Join(err, rerr)
			}

			return err
		}

		s.lines[id] = ln
	}

	return nil
}

// restore re-requests every channel as a plain input. Caller holds s.mu.
func (s *RealSource) restore() error {
	var errs []error

	for id, spec := range s.specs {
		s.release(id)

		ln, err := s.request(s.chipName, spec.Pin, gpiocdev.AsInput, biasOption(spec.Pull))
		if err != nil {
			errs = append(errs, fmt.Errorf("restore %s pin %d: %w", id, spec.Pin, err))
			continue
		}

		s.lines[id] = ln
	}

	return errors.Join(errs...)
}

func (s *RealSource) release(id logic.ChannelID) {
	if old, ok := s.lines[id]; ok {
		old.Close() //nolint:errcheck // being replaced
		delete(s.lines, id)
	}
}

// Close releases GPIO resources.
// Reconfigures pins to input with pull-down (matching Pi boot defaults) before
// closing to ensure clean state for system shutdown/reboot.
func (s *RealSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error

	for id, ln := range s.lines {
		if err := ln.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", id, err))
		}

		if err := ln.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", id, err))
		}

		delete(s.lines, id)
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %w", errors.Join(errs...))
	}

	return nil
}

func biasOption(p Pull) gpiocdev.LineBias {
	switch p {
	case PullDown:
		return gpiocdev.WithPullDown
	case PullNone:
		return gpiocdev.WithBiasDisabled
	default:
		return gpiocdev.WithPullUp
	}
}
