package logic

import (
	"testing"
	"time"
)

func TestVisibilityHidesAfterDelay(t *testing.T) {
	s := newScheduler()

	var changes []bool
	v := NewVisibility(s, 3*time.Second, func(b bool) { changes = append(changes, b) })

	v.OnActivity(epoch)
	if !v.Visible() {
		t.Fatal("controls should be visible")
	}

	s.Advance(at(2999 * time.Millisecond))
	if !v.Visible() {
		t.Fatal("hidden too early")
	}

	s.Advance(at(3 * time.Second))
	if v.Visible() {
		t.Fatal("expected hidden after delay")
	}
	if len(changes) != 1 || changes[0] {
		t.Errorf("expected a single hide notification, got %v", changes)
	}
	if _, ok := v.Deadline(); ok {
		t.Error("deadline should clear after firing")
	}
}

func TestVisibilitySecondActivityReplacesHide(t *testing.T) {
	s := newScheduler()
	v := NewVisibility(s, 3*time.Second, nil)

	v.OnActivity(epoch)
	s.Advance(at(2 * time.Second))
	v.OnActivity(s.Now())

	// The first deadline passes without a hide.
	s.Advance(at(4 * time.Second))
	if !v.Visible() {
		t.Fatal("stale hide fired")
	}
	if s.Len() != 1 {
		t.Errorf("expected exactly one pending hide, got %d", s.Len())
	}

	deadline, ok := v.Deadline()
	if !ok || !deadline.Equal(at(5*time.Second)) {
		t.Errorf("deadline should be timed from second activity, got %v", deadline)
	}

	s.Advance(at(10 * time.Second))
	if v.Visible() {
		t.Fatal("expected hidden")
	}
	if v.Hides() != 1 {
		t.Errorf("expected exactly one hide, got %d", v.Hides())
	}
}

func TestVisibilityShowsImmediately(t *testing.T) {
	s := newScheduler()

	var changes []bool
	v := NewVisibility(s, time.Second, func(b bool) { changes = append(changes, b) })

	v.OnActivity(epoch)
	s.Advance(at(time.Second))
	v.OnActivity(at(5 * time.Second))

	if !v.Visible() {
		t.Fatal("activity should show controls")
	}
	if len(changes) != 2 || changes[0] || !changes[1] {
		t.Errorf("expected hide then show, got %v", changes)
	}
}

func TestVisibilityDoesNotRearm(t *testing.T) {
	s := newScheduler()
	v := NewVisibility(s, time.Second, nil)

	v.OnActivity(epoch)
	s.Advance(at(time.Hour))

	if v.Hides() != 1 {
		t.Errorf("expected one hide, got %d", v.Hides())
	}
	if s.Len() != 0 {
		t.Errorf("nothing should stay scheduled, got %d", s.Len())
	}
}
