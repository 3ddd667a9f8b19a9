package playback

import (
	"sync"
	"time"

	"github.com/voxprep/voxprep-backend/internal/core/audio"
)

// Timer is the cancelable handle produced by the queue's timer source.
// Injected so tests can fire completions deterministically.
type Timer interface {
	Stop() bool
}

// Queue schedules decoded agent audio back-to-back on a monotonic
// output-stream clock. Buffers never overlap and never start in the
// past: each start is max(cursor, now), and the cursor advances by the
// buffer's duration. An interruption empties the queue and snaps the
// cursor back to now.
type Queue struct {
	mu      sync.Mutex
	now     func() float64
	after   func(time.Duration, func()) Timer
	onIdle  func()
	cursor  float64
	pending map[int]Timer
	nextID  int
	stopped bool
}

// NewQueue returns a queue on a real clock. onIdle fires each time the
// last scheduled buffer finishes playing, which is what drops the
// agent-speaking flag.
func NewQueue(onIdle func()) *Queue {
	epoch := time.Now()
	return NewQueueWithClock(
		func() float64 { return time.Since(epoch).Seconds() },
		func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) },
		onIdle,
	)
}

// NewQueueWithClock builds a queue on an explicit clock and timer
// source, for tests and simulation.
func NewQueueWithClock(now func() float64, after func(time.Duration, func()) Timer, onIdle func()) *Queue {
	return &Queue{
		now:     now,
		after:   after,
		onIdle:  onIdle,
		pending: map[int]Timer{},
	}
}

// Schedule books buf for gapless playback and returns its start offset
// on the output clock. The second return is false once the queue has
// been stopped.
func (q *Queue) Schedule(buf *audio.Buffer) (float64, bool) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return 0, false
	}
	now := q.now()
	start := q.cursor
	if now > start {
		start = now
	}
	end := start + buf.Duration().Seconds()
	q.cursor = end
	id := q.nextID
	q.nextID++
	q.pending[id] = q.after(time.Duration((end-now)*float64(time.Second)), func() {
		q.complete(id)
	})
	q.mu.Unlock()
	return start, true
}

func (q *Queue) complete(id int) {
	q.mu.Lock()
	if _, ok := q.pending[id]; !ok {
		q.mu.Unlock()
		return
	}
	delete(q.pending, id)
	idle := len(q.pending) == 0 && !q.stopped
	q.mu.Unlock()
	if idle && q.onIdle != nil {
		q.onIdle()
	}
}

// Interrupt discards every scheduled buffer and resets the cursor to
// now, so the next chunk starts immediately. Models barge-in.
func (q *Queue) Interrupt() {
	q.mu.Lock()
	q.drainLocked()
	q.cursor = q.now()
	q.mu.Unlock()
}

// Stop is Interrupt plus refusing any further scheduling. Idempotent.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.stopped = true
	q.drainLocked()
	q.cursor = 0
	q.mu.Unlock()
}

func (q *Queue) drainLocked() {
	for id, t := range q.pending {
		t.Stop()
		delete(q.pending, id)
	}
}

// Active reports how many buffers are still scheduled.
func (q *Queue) Active() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
