package realtime

import (
	"container/heap"
	"time"
)

// Scheduler is a cooperative timer queue. It never starts goroutines: the
// owner calls Advance with the current time and due callbacks run inline,
// in due order, on the caller's goroutine. Tests drive it with synthetic
// times instead of sleeping.
//
// A Scheduler is not safe for concurrent use.
type Scheduler struct {
	now   time.Time
	seq   uint64
	tasks taskQueue
}

// NewScheduler creates a scheduler whose clock starts at start.
func NewScheduler(start time.Time) *Scheduler {
	return &Scheduler{now: start}
}

// Timer is a handle to a scheduled callback.
type Timer struct {
	fn        func()
	at        time.Time
	every     time.Duration
	seq       uint64
	cancelled bool
	fired     bool
}

// Stop cancels the timer. It is safe to call on a nil or already fired
// timer. Stop reports whether the call prevented a future run.
func (t *Timer) Stop() bool {
	if t == nil || t.cancelled {
		return false
	}
	t.cancelled = true
	return !t.fired || t.every > 0
}

// Active reports whether the timer can still fire.
func (t *Timer) Active() bool {
	return t != nil && !t.cancelled && (!t.fired || t.every > 0)
}

// Now returns the scheduler's clock.
func (s *Scheduler) Now() time.Time {
	return s.now
}

// After runs fn once, d after the current clock.
func (s *Scheduler) After(d time.Duration, fn func()) *Timer {
	return s.push(&Timer{fn: fn, at: s.now.Add(d)})
}

// Every runs fn every d, first at now+d. Non-positive intervals are bumped
// to one millisecond so a misconfigured timer cannot spin.
func (s *Scheduler) Every(d time.Duration, fn func()) *Timer {
	if d <= 0 {
		d = time.Millisecond
	}
	return s.push(&Timer{fn: fn, at: s.now.Add(d), every: d})
}

func (s *Scheduler) push(t *Timer) *Timer {
	s.seq++
	t.seq = s.seq
	heap.Push(&s.tasks, t)
	return t
}

// Advance moves the clock to now and runs every callback due at or before
// it. Callbacks may schedule or stop other timers; anything newly due
// within the window also runs. It returns the number of callbacks run.
// The clock never moves backwards.
func (s *Scheduler) Advance(now time.Time) int {
	if now.Before(s.now) {
		now = s.now
	}
	ran := 0
	for s.tasks.Len() > 0 {
		next := s.tasks[0]
		if next.cancelled {
			heap.Pop(&s.tasks)
			continue
		}
		if next.at.After(now) {
			break
		}
		heap.Pop(&s.tasks)
		s.now = next.at
		next.fired = true
		if next.every > 0 {
			next.at = next.at.Add(next.every)
			s.push(next)
		}
		next.fn()
		ran++
	}
	s.now = now
	return ran
}

// NextWake returns when the earliest live timer is due.
func (s *Scheduler) NextWake() (time.Time, bool) {
	for s.tasks.Len() > 0 {
		if s.tasks[0].cancelled {
			heap.Pop(&s.tasks)
			continue
		}
		return s.tasks[0].at, true
	}
	return time.Time{}, false
}

// Pending returns the number of live timers.
func (s *Scheduler) Pending() int {
	n := 0
	for _, t := range s.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}

type taskQueue []*Timer

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].at.Equal(q[j].at) {
		return q[i].seq < q[j].seq
	}
	return q[i].at.Before(q[j].at)
}

func (q taskQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *taskQueue) Push(x any) { *q = append(*q, x.(*Timer)) }

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return t
}
