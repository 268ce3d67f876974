package sched

import (
	"container/heap"
	"time"
)

// entry is one registered callback.
type entry struct {
	handle   Handle
	name     string
	deadline time.Time
	period   time.Duration // zero for one-shot
	skip     bool          // drop missed periods instead of catching up
	seq      uint64        // registration order, breaks deadline ties
	fn       Func
	index    int // position in the heap, -1 when not queued
}

// next returns the deadline after a run that was due at e.deadline and
// dispatched at now.
func (e *entry) next(now time.Time) time.Time {
	next := e.deadline.Add(e.period)
	if !e.skip || next.After(now) {
		return next
	}

	missed := now.Sub(e.deadline) / e.period

	return e.deadline.Add((missed + 1) * e.period)
}

// timerQueue is a min-heap ordered by (deadline, seq).
type timerQueue []*entry

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].deadline.Equal(q[j].deadline) {
		return q[i].seq < q[j].seq
	}

	return q[i].deadline.Before(q[j].deadline)
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	e := x.(*entry) //nolint:forcetypeassert // only entries are pushed
	e.index = len(*q)
	*q = append(*q, e)
}

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*q = old[:n-1]

	return e
}

func (q timerQueue) peek() *entry {
	if len(q) == 0 {
		return nil
	}

	return q[0]
}

func (q *timerQueue) remove(e *entry) {
	if e.index >= 0 {
		heap.Remove(q, e.index)
	}
}
