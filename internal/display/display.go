// Package display defines the surface the engine renders to and a few
// adapters for it. The engine never draws; it pushes values here.
package display

import (
	"context"
	"errors"
	"os"

	"github.com/sweeney/panel-stopwatch/internal/logger"
)

// Surface receives everything the panel shows.
type Surface interface {
	RenderTime(s string)
	// RenderDaysLabel shows label above the time, or hides it.
	RenderDaysLabel(label string, visible bool)
	// RenderVisibility shows or hides the on-screen controls.
	RenderVisibility(visible bool)
	// RenderImage switches the background. An error means the frame is
	// degraded; callers keep going.
	RenderImage(id string) error
}

// Multi fans every call out to all surfaces.
type Multi []Surface

// RenderTime implements Surface.
func (m Multi) RenderTime(s string) {
	for _, d := range m {
		d.RenderTime(s)
	}
}

// RenderDaysLabel implements Surface.
func (m Multi) RenderDaysLabel(label string, visible bool) {
	for _, d := range m {
		d.RenderDaysLabel(label, visible)
	}
}

// RenderVisibility implements Surface.
func (m Multi) RenderVisibility(visible bool) {
	for _, d := range m {
		d.RenderVisibility(visible)
	}
}

// RenderImage calls every surface and joins their errors.
func (m Multi) RenderImage(id string) error {
	var errs []error

	for _, d := range m {
		if err := d.RenderImage(id); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Log is a surface that writes changes to the logger. The time string is
// logged at debug level since it changes every second.
type Log struct {
	ctx context.Context
	// CheckImages makes RenderImage fail for files that cannot be opened.
	CheckImages bool
}

// NewLog creates a logging surface.
func NewLog(ctx context.Context, checkImages bool) *Log {
	return &Log{ctx: logger.WithName(ctx, "display"), CheckImages: checkImages}
}

// RenderTime implements Surface.
func (l *Log) RenderTime(s string) {
	logger.DebugKV(l.ctx, "time", "value", s)
}

// RenderDaysLabel implements Surface.
func (l *Log) RenderDaysLabel(label string, visible bool) {
	logger.DebugKV(l.ctx, "days label", "label", label, "visible", visible)
}

// RenderVisibility implements Surface.
func (l *Log) RenderVisibility(visible bool) {
	logger.InfoKV(l.ctx, "controls", "visible", visible)
}

// RenderImage implements Surface.
func (l *Log) RenderImage(id string) error {
	if l.CheckImages {
		f, err := os.Open(id) //nolint:gosec // id comes from the configured image directory
		if err != nil {
			return err
		}

		_ = f.Close()
	}

	logger.InfoKV(l.ctx, "background", "image", id)

	return nil
}
