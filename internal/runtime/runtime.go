// Package runtime implements the bounded-concurrency cooperative scheduler
// (§4.G): a prequeue ordered by wake time feeding a priority queue, drained
// by a fixed number of concurrently-running step workers.
package runtime

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/forge-industries/fleet-miner/internal/domain/shared"
)

// StepFunc performs one logical step for an item. A nil return means the
// item is finished and should not be re-enqueued; a non-nil duration is the
// delay before the item should run again.
type StepFunc func(ctx context.Context) (*time.Duration, error)

// Item is one steppable unit: a ship, in this repo's case, though the
// scheduler itself is domain-agnostic.
type Item struct {
	ID       string
	Priority int
	Step     StepFunc
}

type preEntry struct {
	id     string
	wakeAt time.Time
	index  int
}

type preHeap []*preEntry

func (h preHeap) Len() int           { return len(h) }
func (h preHeap) Less(i, j int) bool { return h[i].wakeAt.Before(h[j].wakeAt) }
func (h preHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *preHeap) Push(x interface{}) {
	e := x.(*preEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *preHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

type queueEntry struct {
	id       string
	priority int
	seq      int64
	index    int
}

// queueHeap is a max-heap by priority; equal priorities break ties by
// insertion order (oldest-waiting first), giving round-robin fairness among
// items of equal priority even though the scheduling guarantees don't
// require it.
type queueHeap []*queueEntry

func (h queueHeap) Len() int { return len(h) }
func (h queueHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h queueHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *queueHeap) Push(x interface{}) {
	e := x.(*queueEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *queueHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

type workerResult struct {
	id     string
	result *time.Duration
	err    error
}

// Runtime is the bounded-concurrency scheduler. Build with New, register
// every item, then call Run, which blocks until ctx is cancelled or an item
// step returns an error.
type Runtime struct {
	mu          sync.Mutex
	pre         preHeap
	queue       queueHeap
	items       map[string]*Item
	seq         int64
	ready       chan string
	done        chan workerResult
	concurrency int
	numRunning  int
	sem         *semaphore.Weighted
	clock       shared.Clock

	// ErrFunc, if set, is called with any step error instead of aborting Run.
	// A nil ErrFunc treats every step error as fatal, matching §7's
	// "planner vs reality mismatch: fatal" policy.
	ErrFunc func(id string, err error)
}

// New builds a Runtime over items with the given concurrency bound.
func New(items []Item, concurrency int, clock shared.Clock) *Runtime {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	r := &Runtime{
		items:       make(map[string]*Item, len(items)),
		ready:       make(chan string, concurrency),
		done:        make(chan workerResult, concurrency),
		concurrency: concurrency,
		sem:         semaphore.NewWeighted(int64(concurrency)),
		clock:       clock,
	}
	heap.Init(&r.pre)
	heap.Init(&r.queue)
	for i := range items {
		it := items[i]
		r.items[it.ID] = &it
		r.pushQueue(it.ID, it.Priority)
	}
	return r
}

func (r *Runtime) pushQueue(id string, priority int) {
	r.seq++
	heap.Push(&r.queue, &queueEntry{id: id, priority: priority, seq: r.seq})
}

// Run executes the scheduling loop until ctx is cancelled or every item has
// finished (returned a nil delay with nothing left pending).
func (r *Runtime) Run(ctx context.Context) error {
	r.tryDequeue()

	for {
		r.mu.Lock()
		allIdle := r.numRunning == 0 && len(r.queue) == 0 && len(r.pre) == 0
		r.mu.Unlock()
		if allIdle {
			return nil
		}

		nextWake := r.clock.Now().Add(time.Hour)
		r.mu.Lock()
		if len(r.pre) > 0 {
			nextWake = r.pre[0].wakeAt
		}
		r.mu.Unlock()

		timer := time.NewTimer(time.Until(nextWake))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()

		case id := <-r.ready:
			timer.Stop()
			go r.runWorker(ctx, id)

		case res := <-r.done:
			timer.Stop()
			r.mu.Lock()
			r.numRunning--
			r.mu.Unlock()
			r.sem.Release(1)
			if res.err != nil {
				if r.ErrFunc != nil {
					r.ErrFunc(res.id, res.err)
				} else {
					return res.err
				}
			}
			if res.result != nil {
				r.mu.Lock()
				heap.Push(&r.pre, &preEntry{id: res.id, wakeAt: r.clock.Now().Add(*res.result)})
				r.mu.Unlock()
			}
			r.tryDequeue()

		case <-timer.C:
			r.tryDequeue()
		}
	}
}

func (r *Runtime) runWorker(ctx context.Context, id string) {
	r.mu.Lock()
	item := r.items[id]
	r.mu.Unlock()

	result, err := item.Step(ctx)
	r.done <- workerResult{id: id, result: result, err: err}
}

// tryDequeue drains due prequeue entries into the priority queue, then
// admits as many items as the semaphore has capacity for.
func (r *Runtime) tryDequeue() {
	r.mu.Lock()
	now := r.clock.Now()
	for len(r.pre) > 0 && !r.pre[0].wakeAt.After(now) {
		e := heap.Pop(&r.pre).(*preEntry)
		item := r.items[e.id]
		r.seq++
		heap.Push(&r.queue, &queueEntry{id: e.id, priority: item.Priority, seq: r.seq})
	}

	var toSend []string
	for len(r.queue) > 0 && r.sem.TryAcquire(1) {
		e := heap.Pop(&r.queue).(*queueEntry)
		r.numRunning++
		toSend = append(toSend, e.id)
	}
	r.mu.Unlock()

	for _, id := range toSend {
		r.ready <- id
	}
}
