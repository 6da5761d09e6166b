package scheduler

import (
	"container/heap"
	"sync"
	"time"

	"github.com/oshokin/alarm-scheduler/internal/domain/alarm"
)

// entry is one scheduling generation of a Handle.
type entry struct {
	// handle owns the generation.
	handle *Handle
	// delay is the delay requested for this generation.
	delay time.Duration
	// expiry is the absolute firing time.
	expiry time.Time
	// sequence breaks expiry ties and identifies the generation.
	// Assigned by the registry on insert.
	sequence uint64
	// state is guarded by the registry mutex.
	state alarm.State
	// index is the position in the heap, -1 when not queued.
	index int
}

// newEntry builds an unqueued generation.
func newEntry(h *Handle, delay time.Duration, expiry time.Time) *entry {
	return &entry{
		handle: h,
		delay:  delay,
		expiry: expiry,
		index:  -1,
	}
}

// entryHeap is a min-heap ordered by (expiry, sequence).
type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if !h[i].expiry.Equal(h[j].expiry) {
		return h[i].expiry.Before(h[j].expiry)
	}

	return h[i].sequence < h[j].sequence
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x any) {
	e := x.(*entry) //nolint:forcetypeassert // Only *entry values are pushed.
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]

	return e
}

// registry is the ordered store of pending generations.
// Every method takes the single registry mutex; none of them runs callbacks.
type registry struct {
	// mu guards every field below and the state of queued entries.
	mu sync.Mutex
	// entries holds exactly the Pending generations.
	entries entryHeap
	// sequence is the last assigned generation number.
	sequence uint64
	// sleeping is true while the loop waits between prepareSleep and drainExpired.
	sleeping bool
}

// newRegistry creates an empty registry.
func newRegistry() *registry {
	return &registry{
		entries: make(entryHeap, 0),
	}
}

// insert queues e as Pending and reports whether the sleeping loop must be woken.
func (r *registry) insert(e *entry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.insertLocked(e)
}

// replace drops the previous generation, if still pending, and queues e.
// It reports whether the sleeping loop must be woken.
func (r *registry) replace(previous, e *entry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeLocked(previous)

	return r.insertLocked(e)
}

// remove cancels e if it is still pending. Removing an absent entry is a no-op.
func (r *registry) remove(e *entry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.removeLocked(e)
}

// peekEarliest returns the pending entry that expires first.
func (r *registry) peekEarliest() (*entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) == 0 {
		return nil, false
	}

	return r.entries[0], true
}

// drainExpired pops every entry expiring at or before now, in firing order,
// and hands them to the caller as Firing. It also marks the loop awake.
func (r *registry) drainExpired(now time.Time) []*entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sleeping = false

	var batch []*entry

	for len(r.entries) > 0 && !r.entries[0].expiry.After(now) {
		e := heap.Pop(&r.entries).(*entry) //nolint:forcetypeassert // Heap holds *entry only.
		e.state = alarm.Firing
		batch = append(batch, e)
	}

	return batch
}

// prepareSleep marks the loop asleep and returns the earliest expiry, if any.
// Inserts that become the new minimum after this call request a wake-up.
func (r *registry) prepareSleep() (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sleeping = true

	if len(r.entries) == 0 {
		return time.Time{}, false
	}

	return r.entries[0].expiry, true
}

// len returns the number of pending entries.
func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

// stateOf returns the lifecycle state of e.
func (r *registry) stateOf(e *entry) alarm.State {
	r.mu.Lock()
	defer r.mu.Unlock()

	return e.state
}

func (r *registry) insertLocked(e *entry) bool {
	r.sequence++
	e.sequence = r.sequence
	e.state = alarm.Pending
	heap.Push(&r.entries, e)

	return r.sleeping && r.entries[0] == e
}

func (r *registry) removeLocked(e *entry) bool {
	if e == nil || e.state != alarm.Pending || e.index < 0 {
		return false
	}

	heap.Remove(&r.entries, e.index)
	e.state = alarm.Cancelled

	return true
}
