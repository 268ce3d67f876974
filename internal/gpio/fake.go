package gpio

import (
	"errors"
	"sync"
	"time"

	"github.com/sweeney/panel-stopwatch/internal/logic"
)

// FakeSource is a test double that returns scripted raw levels.
type FakeSource struct {
	mu sync.Mutex

	// Samples holds scripted levels per channel. Each Read consumes the next
	// sample; once exhausted the last one repeats.
	Samples map[logic.ChannelID][]bool

	// ReadError, if set, is returned by every Read.
	ReadError error

	// WatchError, if set, is returned by Watch.
	WatchError error

	// Closed tracks if Close was called.
	Closed bool

	// Reads counts Read calls, failed ones included.
	Reads int

	index map[logic.ChannelID]int
	watch EdgeFunc
}

// NewFakeSource creates a FakeSource with the given samples.
func NewFakeSource(samples map[logic.ChannelID][]bool) *FakeSource {
	return &FakeSource{
		Samples: samples,
		index:   make(map[logic.ChannelID]int),
	}
}

// Read returns the next scripted sample for id.
func (f *FakeSource) Read(id logic.ChannelID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Reads++

	if f.ReadError != nil {
		return false, f.ReadError
	}

	samples, ok := f.Samples[id]
	if !ok {
		return false, ErrUnknownChannel
	}

	if len(samples) == 0 {
		return false, errors.New("no samples configured")
	}

	i := f.index[id]
	if i < len(samples)-1 {
		f.index[id] = i + 1
	}

	return samples[i], nil
}

// SetError sets or clears the read error.
func (f *FakeSource) SetError(err error) {
	f.mu.Lock()
	f.ReadError = err
	f.mu.Unlock()
}

// Watch records fn for Push.
func (f *FakeSource) Watch(fn EdgeFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.WatchError != nil {
		return f.WatchError
	}

	f.watch = fn

	return nil
}

// Push delivers an edge to the watcher, as an interrupt would.
// It reports false when nothing is watching.
func (f *FakeSource) Push(id logic.ChannelID, raw bool, at time.Time) bool {
	f.mu.Lock()
	fn := f.watch
	f.mu.Unlock()

	if fn == nil {
		return false
	}

	fn(id, raw, at)

	return true
}

// Close marks the source as closed.
func (f *FakeSource) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()

	return nil
}

// Reset rewinds every channel to its first sample.
func (f *FakeSource) Reset() {
	f.mu.Lock()
	f.index = make(map[logic.ChannelID]int)
	f.Closed = false
	f.mu.Unlock()
}
