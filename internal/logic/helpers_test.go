package logic

import (
	"context"
	"time"

	"github.com/sweeney/panel-stopwatch/internal/sched"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type stoppedClock struct{}

func (stoppedClock) Now() time.Time { return epoch }

func (stoppedClock) NewTimer(d time.Duration) sched.Timer {
	return sched.RealClock{}.NewTimer(d)
}

func newScheduler() *sched.Scheduler {
	return sched.New(context.Background(), stoppedClock{})
}

func at(d time.Duration) time.Time {
	return epoch.Add(d)
}
