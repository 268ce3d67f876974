// Package gpio provides button input reading with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/panel-stopwatch/internal/logic"
)

var (
	// ErrUnsupported is returned where no GPIO character device exists.
	ErrUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")
	// ErrUnknownChannel is returned for a channel that was not requested.
	ErrUnknownChannel = errors.New("gpio: unknown channel")
)

// EdgeFunc receives raw level changes pushed by an interrupt-style source.
// It is called on a goroutine owned by the source.
type EdgeFunc func(id logic.ChannelID, raw bool, at time.Time)

// Source reads raw button levels. Raw means electrical: true = high.
type Source interface {
	// Read samples the raw level of one channel.
	Read(id logic.ChannelID) (bool, error)

	// Watch switches the source to edge events delivered to fn.
	Watch(fn EdgeFunc) error

	// Close releases GPIO resources.
	Close() error
}

// Pull is the line bias.
type Pull int

const (
	PullUp Pull = iota
	PullDown
	PullNone
)

func (p Pull) String() string {
	switch p {
	case PullDown:
		return "down"
	case PullNone:
		return "none"
	default:
		return "up"
	}
}

// ParsePull converts "up", "down" or "none".
func ParsePull(s string) (Pull, error) {
	switch s {
	case "up":
		return PullUp, nil
	case "down":
		return PullDown, nil
	case "none":
		return PullNone, nil
	default:
		return PullUp, fmt.Errorf("gpio: unknown pull %q", s)
	}
}

// Line maps a channel to a BCM pin.
type Line struct {
	ID   logic.ChannelID
	Pin  int
	Pull Pull
}
