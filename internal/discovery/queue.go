// Package discovery implements the single-flight, non-blocking queue that
// decouples memory writes from connection discovery: a write enqueues a
// task and returns immediately, while a small worker pool drains the queue
// in the background.
package discovery

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/synapsehq/synapse/internal/logging"
)

// Task identifies one discovery unit of work.
type Task struct {
	UserID   string
	AgentID  string
	MemoryID string
}

func (t Task) key() string {
	return t.UserID + ":" + t.AgentID + ":" + t.MemoryID
}

// Result is delivered on the channel returned by Enqueue.
type Result struct {
	Connections int
	Err         error
}

// Handler performs the actual discovery work for a Task. It is supplied by
// the connection package so this package stays free of domain knowledge.
type Handler func(ctx context.Context, t Task) (int, error)

// interPause separates successive task pickups so discovery work never
// dominates CPU ahead of foreground request handling.
const interPause = 10 * time.Millisecond

// Queue is a keyed, single-flight, buffered work queue. At most one task is
// in flight per (userId, agentId, memoryId) key at a time: an Enqueue call
// for a key already in flight or already queued resolves immediately to an
// empty Result rather than blocking or duplicating work.
type Queue struct {
	tasks    chan Task
	inFlight sync.Map // key(string) -> chan Result, the waiter(s) for that key
	handler  Handler
	workers  int
	log      *zap.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	dropped int64
}

// NewQueue builds a Queue with the given buffer capacity and worker count.
func NewQueue(handler Handler, bufferSize, workers int, log *zap.Logger) *Queue {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	if workers <= 0 {
		workers = 2
	}
	return &Queue{
		tasks:   make(chan Task, bufferSize),
		handler: handler,
		workers: workers,
		log:     log,
		stopCh:  make(chan struct{}),
	}
}

// Enqueue schedules discovery for t and returns a channel that receives
// exactly one Result. A duplicate enqueue for a key already in flight
// returns a channel that resolves to an empty Result immediately — the
// caller already triggered the work that will cover it.
func (q *Queue) Enqueue(t Task) <-chan Result {
	key := t.key()
	waiter := make(chan Result, 1)

	if _, loaded := q.inFlight.LoadOrStore(key, waiter); loaded {
		out := make(chan Result, 1)
		out <- Result{}
		close(out)
		return out
	}

	select {
	case q.tasks <- t:
		return waiter
	default:
		q.inFlight.Delete(key)
		q.mu.Lock()
		q.dropped++
		q.mu.Unlock()
		if q.log != nil {
			q.log.Warn("discovery queue full, dropping task",
				logging.UserField(t.UserID), logging.AgentField(t.AgentID))
		}
		waiter <- Result{}
		close(waiter)
		return waiter
	}
}

// Start launches the worker pool. Safe to call once per Queue.
func (q *Queue) Start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.runWorker()
	}
}

// Stop closes the queue and waits for in-flight workers to drain.
func (q *Queue) Stop() {
	close(q.stopCh)
	q.wg.Wait()
}

// DroppedCount returns how many enqueues were dropped due to a full buffer.
func (q *Queue) DroppedCount() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

func (q *Queue) runWorker() {
	defer q.wg.Done()
	for {
		select {
		case t := <-q.tasks:
			q.process(t)
			time.Sleep(interPause)
		case <-q.stopCh:
			return
		}
	}
}

func (q *Queue) process(t Task) {
	key := t.key()
	defer q.inFlight.Delete(key)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := q.handler(ctx, t)
	res := Result{Connections: n, Err: err}
	if err != nil && q.log != nil {
		q.log.Warn("connection discovery failed",
			logging.UserField(t.UserID), logging.AgentField(t.AgentID), zap.Error(err))
	}

	if v, ok := q.inFlight.Load(key); ok {
		if ch, ok := v.(chan Result); ok {
			ch <- res
			close(ch)
		}
	}
}
