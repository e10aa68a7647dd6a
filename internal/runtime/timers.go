package runtime

import (
	"time"

	"go.starlark.net/starlark"
)

type timer struct {
	id  int
	seq uint64
	due time.Time
	fn  starlark.Callable
}

// timerQueue holds callbacks scheduled by set_timeout. It is only touched from the thread
// running the realm.
type timerQueue struct {
	nextID  int
	nextSeq uint64
	pending []*timer
}

func (q *timerQueue) add(fn starlark.Callable, delay time.Duration) int {
	q.nextID++
	q.nextSeq++
	q.pending = append(q.pending, &timer{
		id:  q.nextID,
		seq: q.nextSeq,
		due: time.Now().Add(delay),
		fn:  fn,
	})
	return q.nextID
}

func (q *timerQueue) clear(id int) bool {
	for i, t := range q.pending {
		if t.id == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return true
		}
	}
	return false
}

// peek returns the timer that fires next: earliest due time, then scheduling order.
func (q *timerQueue) peek() (*timer, bool) {
	if len(q.pending) == 0 {
		return nil, false
	}
	next := q.pending[0]
	for _, t := range q.pending[1:] {
		if t.due.Before(next.due) || (t.due.Equal(next.due) && t.seq < next.seq) {
			next = t
		}
	}
	return next, true
}

func (q *timerQueue) len() int {
	return len(q.pending)
}
