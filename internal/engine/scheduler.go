package engine

// Scheduler defers pointer-move processing. At most one update is pending;
// scheduling a new one replaces it, so only the latest move in a tick runs.
type Scheduler interface {
	Schedule(fn func())
	// Flush runs the pending update now, if any.
	Flush()
	// Cancel drops the pending update.
	Cancel()
}

// Immediate runs every update synchronously.
type Immediate struct{}

func (Immediate) Schedule(fn func()) { fn() }
func (Immediate) Flush() {}
func (Immediate) Cancel() {}

// FrameQueue holds the latest update until the host calls Frame, typically
// from a display refresh callback or a ticker.
type FrameQueue struct {
	pending func()
}

func NewFrameQueue() *FrameQueue {
	return &FrameQueue{}
}

func (q *FrameQueue) Schedule(fn func()) {
	q.pending = fn
}

func (q *FrameQueue) Flush() {
	fn := q.pending
	q.pending = nil
	if fn != nil {
		fn()
	}
}

func (q *FrameQueue) Cancel() {
	q.pending = nil
}

// Frame processes the update queued since the last frame.
func (q *FrameQueue) Frame() {
	q.Flush()
}

// Pending reports whether an update is waiting for the next frame.
func (q *FrameQueue) Pending() bool {
	return q.pending != nil
}
