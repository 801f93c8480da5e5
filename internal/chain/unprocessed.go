package chain

import (
	"sync"

	"github.com/catapult-go/chainsync/libs/log"
)

// UnprocessedElements tracks block ranges that have been handed to the
// downstream pipeline but not yet completed. It gates whether a new sync
// round may start and reacts to out-of-band completion callbacks fired by
// the pipeline, possibly long after the sync round that produced them has
// finished.
//
// All exported methods are safe for concurrent use: the synchronizer's own
// goroutine and the pipeline's completion callbacks - which may run on
// unrelated goroutines - both operate on this state.
type UnprocessedElements struct {
	maxUnprocessedBytes uint64
	consumer            CompletionAwareBlockRangeConsumer
	logger              log.Logger
	metrics             *Metrics

	mtx            sync.Mutex
	queue          []elementInfo
	numBytes       uint64
	hasPendingSync bool
	dirty          bool
}

// NewUnprocessedElements constructs an UnprocessedElements backed by
// consumer. ShouldStartSync refuses new sync rounds once num_bytes has
// reached maxUnprocessedBytes; Add itself does not check the byte budget.
func NewUnprocessedElements(
	maxUnprocessedBytes uint64,
	consumer CompletionAwareBlockRangeConsumer,
	logger log.Logger,
	metrics *Metrics,
) *UnprocessedElements {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &UnprocessedElements{
		maxUnprocessedBytes: maxUnprocessedBytes,
		consumer:            consumer,
		logger:              logger,
		metrics:             metrics,
	}
}

// Empty reports whether there are zero unprocessed bytes in flight.
func (u *UnprocessedElements) Empty() bool {
	u.mtx.Lock()
	defer u.mtx.Unlock()
	return u.numBytes == 0
}

// MaxHeight returns the end height of the most recently handed-off range,
// or NoHeight if the queue is empty. The synchronizer uses this as the
// synthesized common height on the fast comparison path.
func (u *UnprocessedElements) MaxHeight() Height {
	u.mtx.Lock()
	defer u.mtx.Unlock()
	if len(u.queue) == 0 {
		return NoHeight
	}
	return u.queue[len(u.queue)-1].endHeight
}

// ShouldStartSync is an atomic test-and-set: it returns true and marks a
// sync round pending only if the pipeline has spare byte budget, no other
// round is already pending, and the subsystem is not dirty. Otherwise it
// returns false and leaves state unchanged.
func (u *UnprocessedElements) ShouldStartSync() bool {
	u.mtx.Lock()
	defer u.mtx.Unlock()
	if u.numBytes >= u.maxUnprocessedBytes || u.hasPendingSync || u.dirty {
		return false
	}
	u.hasPendingSync = true
	u.metrics.PendingSync.Set(1)
	return true
}

// Add hands range_ to the downstream consumer and records an ElementInfo
// for it, keyed by the id the consumer itself assigns and returns. It
// returns false, admitting nothing, when the subsystem is dirty - callers
// should treat this as a refusal, not a failure.
//
// The consumer is invoked while the lock is held, and its returned id is
// what gets queued: call consumer, record id, all under the lock, so that a
// completion callback fired from another goroutine racing this call blocks
// until the element is queued and can never observe a queue missing it.
// The lock is not reentrant: a consumer that invokes the callback before
// returning, on the calling goroutine, deadlocks.
func (u *UnprocessedElements) Add(range_ BlockRange) (bool, error) {
	u.mtx.Lock()
	defer u.mtx.Unlock()

	if u.dirty {
		return false, nil
	}

	numBytes := uint64(range_.TotalSize())
	endHeight := range_.Last().Height

	id := u.consumer(range_, u.remove)

	u.queue = append(u.queue, elementInfo{
		id:        id,
		endHeight: endHeight,
		numBytes:  numBytes,
	})
	u.numBytes += numBytes
	u.metrics.UnprocessedBytes.Set(float64(u.numBytes))

	u.logger.Debug("added unprocessed range",
		"id", id, "end_height", endHeight, "num_bytes", numBytes)
	return true, nil
}

// remove is the CompletionCallback bound to every range handed to the
// consumer by Add. It is the only way elements leave the queue.
func (u *UnprocessedElements) remove(id ElementID, status CompletionStatus) {
	u.mtx.Lock()
	defer u.mtx.Unlock()
	u.removeLocked(id, status)
}

func (u *UnprocessedElements) removeLocked(id ElementID, status CompletionStatus) {
	if len(u.queue) == 0 || u.queue[0].id != id {
		var expected ElementID
		if len(u.queue) > 0 {
			expected = u.queue[0].id
		}
		panic(&FIFOViolationError{Expected: expected, Got: id})
	}

	head := u.queue[0]
	u.queue = u.queue[1:]
	u.numBytes -= head.numBytes
	u.metrics.UnprocessedBytes.Set(float64(u.numBytes))

	u.dirty = u.hasPendingOperationLocked() && status != StatusNormal
	u.metrics.Dirty.Set(boolToFloat(u.dirty))

	if u.dirty {
		u.logger.Error("unprocessed range completed abnormally, subsystem is dirty",
			"id", id, "status", status)
	}
}

// ClearPendingSync marks the current sync round as finished. If the
// subsystem is dirty, it recomputes dirty against the current queue/pending
// state so that dirty clears automatically once everything has drained.
func (u *UnprocessedElements) ClearPendingSync() {
	u.mtx.Lock()
	defer u.mtx.Unlock()
	u.hasPendingSync = false
	u.metrics.PendingSync.Set(0)
	if u.dirty {
		u.dirty = u.hasPendingOperationLocked()
		u.metrics.Dirty.Set(boolToFloat(u.dirty))
	}
}

func (u *UnprocessedElements) hasPendingOperationLocked() bool {
	return u.numBytes > 0 || u.hasPendingSync
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
