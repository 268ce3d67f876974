//go:build linux

package gpio

import (
	"errors"
	"testing"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/panel-stopwatch/internal/logic"
)

type fakeLine struct {
	pin     int
	watched bool
	closed  bool
}

func (l *fakeLine) Value() (int, error) {
	if l.closed {
		return 0, errors.New("line closed")
	}
	return 1, nil
}

func (l *fakeLine) Reconfigure(...gpiocdev.LineConfigOption) error { return nil }

func (l *fakeLine) Close() error {
	l.closed = true
	return nil
}

// fakeChip hands out fakeLines. Plain requests carry direction and bias
// only; watched requests add edge detection and a handler.
type fakeChip struct {
	failWatch map[int]bool
	lines     []*fakeLine
}

func (c *fakeChip) request(_ string, pin int, options ...gpiocdev.LineReqOption) (line, error) {
	watched := len(options) > 2
	if watched && c.failWatch[pin] {
		return nil, errors.New("edge detection busy")
	}

	l := &fakeLine{pin: pin, watched: watched}
	c.lines = append(c.lines, l)

	return l, nil
}

var testLines = []Line{
	{ID: logic.ChannelStartStop, Pin: 17, Pull: PullUp},
	{ID: logic.ChannelReset, Pin: 27, Pull: PullUp},
}

func TestRealSourceWatch(t *testing.T) {
	chip := &fakeChip{}
	s, err := newRealSource("gpiochip0", testLines, chip.request)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.Watch(func(logic.ChannelID, bool, time.Time) {}); err != nil {
		t.Fatalf("watch: %v", err)
	}

	for _, l := range testLines {
		ln, ok := s.lines[l.ID].(*fakeLine)
		if !ok || !ln.watched || ln.closed {
			t.Errorf("%s: expected an open watched line, got %+v", l.ID, ln)
		}
	}
}

func TestRealSourceWatchFailureRestoresPlainInputs(t *testing.T) {
	chip := &fakeChip{failWatch: map[int]bool{27: true}}
	s, err := newRealSource("gpiochip0", testLines, chip.request)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.Watch(func(logic.ChannelID, bool, time.Time) {}); err == nil {
		t.Fatal("expected watch to fail")
	}

	for _, l := range testLines {
		ln, ok := s.lines[l.ID].(*fakeLine)
		if !ok {
			t.Fatalf("%s: no line held after failed watch", l.ID)
		}
		if ln.watched || ln.closed {
			t.Errorf("%s: expected an open plain line, got %+v", l.ID, ln)
		}

		raw, err := s.Read(l.ID)
		if err != nil || !raw {
			t.Errorf("%s: read after failed watch: %v %v", l.ID, raw, err)
		}
	}

	for _, ln := range chip.lines {
		if ln.watched && !ln.closed {
			t.Errorf("pin %d: edge handler left installed", ln.pin)
		}
	}
}

func TestRealSourceClose(t *testing.T) {
	chip := &fakeChip{}
	s, err := newRealSource("gpiochip0", testLines, chip.request)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	for _, ln := range chip.lines {
		if !ln.closed {
			t.Errorf("pin %d left open", ln.pin)
		}
	}
	if _, err := s.Read(logic.ChannelReset); !errors.Is(err, ErrUnknownChannel) {
		t.Errorf("read after close: expected ErrUnknownChannel, got %v", err)
	}
}
