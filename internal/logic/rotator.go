package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/panel-stopwatch/internal/sched"
)

// ErrNoImages is returned by Rotator.Start for an empty sequence.
var ErrNoImages = errors.New("no images to rotate")

// ImageSequence is an ordered list of resource ids with a cursor.
// The cursor stays in [0, Len()) when the list is non-empty.
type ImageSequence struct {
	ids   []string
	index int
}

// NewImageSequence copies ids into a new sequence positioned at the first id.
func NewImageSequence(ids []string) *ImageSequence {
	return &ImageSequence{ids: append([]string(nil), ids...)}
}

// Len returns the number of ids.
func (q *ImageSequence) Len() int { return len(q.ids) }

// Index returns the cursor position.
func (q *ImageSequence) Index() int { return q.index }

// Current returns the id under the cursor.
func (q *ImageSequence) Current() (string, bool) {
	if len(q.ids) == 0 {
		return "", false
	}

	return q.ids[q.index], true
}

// Advance moves the cursor forward, wrapping, and returns the new id.
func (q *ImageSequence) Advance() (string, bool) {
	if len(q.ids) == 0 {
		return "", false
	}

	q.index = (q.index + 1) % len(q.ids)

	return q.ids[q.index], true
}

// Rotator advances an ImageSequence on a fixed period and hands each id to
// show. A show error never stalls the rotation. After a stall it shows the
// next image once rather than flicking through the missed ones.
type Rotator struct {
	sched  Scheduler
	seq    *ImageSequence
	period time.Duration
	show   func(id string) error

	handle sched.Handle
}

// NewRotator creates a stopped rotator.
func NewRotator(s Scheduler, seq *ImageSequence, period time.Duration, show func(string) error) *Rotator {
	return &Rotator{sched: s, seq: seq, period: period, show: show}
}

// Start shows the current image and arms the rotation. The returned error
// is ErrNoImages for an empty sequence, otherwise the first show error;
// the rotation is armed either way when there are images.
func (r *Rotator) Start(now time.Time) error {
	id, ok := r.seq.Current()
	if !ok {
		return ErrNoImages
	}

	if r.handle == 0 {
		r.handle = r.sched.EverySkipping(now.Add(r.period), r.period, "rotator.advance", r.step)
	}

	if err := r.show(id); err != nil {
		return fmt.Errorf("show image %s: %w", id, err)
	}

	return nil
}

// Stop cancels the rotation.
func (r *Rotator) Stop() {
	if r.handle != 0 {
		r.sched.Cancel(r.handle)
		r.handle = 0
	}
}

// Running reports whether the rotation is armed.
func (r *Rotator) Running() bool { return r.handle != 0 }

// Advance moves to the next image, wrapping, and returns its id without
// showing it. The periodic rotation shows what Advance returns.
func (r *Rotator) Advance() (string, bool) {
	return r.seq.Advance()
}

// Current returns the image being shown.
func (r *Rotator) Current() (string, bool) {
	return r.seq.Current()
}

func (r *Rotator) step(_ time.Time) error {
	id, ok := r.Advance()
	if !ok {
		return nil
	}

	if err := r.show(id); err != nil {
		return fmt.Errorf("show image %s: %w", id, err)
	}

	return nil
}
