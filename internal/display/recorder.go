package display

import "sync"

// Recorder is a test double that remembers every call.
type Recorder struct {
	mu sync.Mutex

	Times      []string
	DaysLabels []string
	DaysShown  []bool
	Visibility []bool
	Images     []string

	// ImageError, if set, is returned by RenderImage for that id.
	ImageError map[string]error
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RenderTime implements Surface.
func (r *Recorder) RenderTime(s string) {
	r.mu.Lock()
	r.Times = append(r.Times, s)
	r.mu.Unlock()
}

// RenderDaysLabel implements Surface.
func (r *Recorder) RenderDaysLabel(label string, visible bool) {
	r.mu.Lock()
	r.DaysLabels = append(r.DaysLabels, label)
	r.DaysShown = append(r.DaysShown, visible)
	r.mu.Unlock()
}

// RenderVisibility implements Surface.
func (r *Recorder) RenderVisibility(visible bool) {
	r.mu.Lock()
	r.Visibility = append(r.Visibility, visible)
	r.mu.Unlock()
}

// RenderImage implements Surface.
func (r *Recorder) RenderImage(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Images = append(r.Images, id)

	return r.ImageError[id]
}

// LastTime returns the most recent time string.
func (r *Recorder) LastTime() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.Times) == 0 {
		return ""
	}

	return r.Times[len(r.Times)-1]
}

// LastVisibility returns the most recent visibility and whether one was set.
func (r *Recorder) LastVisibility() (bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.Visibility) == 0 {
		return false, false
	}

	return r.Visibility[len(r.Visibility)-1], true
}
