package discovery

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestQueue_Enqueue_ProcessesTask(t *testing.T) {
	var calls int32
	handler := func(ctx context.Context, task Task) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 3, nil
	}

	q := NewQueue(handler, 8, 1, zap.NewNop())
	q.Start()
	defer q.Stop()

	res := <-q.Enqueue(Task{UserID: "u1", AgentID: "a1", MemoryID: "m1"})
	assert.NoError(t, res.Err)
	assert.Equal(t, 3, res.Connections)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestQueue_Enqueue_DedupesInFlightKey(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32

	handler := func(ctx context.Context, task Task) (int, error) {
		atomic.AddInt32(&calls, 1)
		close(started)
		<-release
		return 0, nil
	}

	q := NewQueue(handler, 8, 1, zap.NewNop())
	q.Start()
	defer q.Stop()

	task := Task{UserID: "u1", AgentID: "a1", MemoryID: "m1"}
	first := q.Enqueue(task)

	<-started
	// A second enqueue for the same key while the first is in flight must
	// not invoke the handler again; it resolves immediately to an empty Result.
	second := q.Enqueue(task)
	select {
	case res := <-second:
		assert.Equal(t, Result{}, res)
	case <-time.After(time.Second):
		t.Fatal("duplicate enqueue did not resolve immediately")
	}

	close(release)
	<-first
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestQueue_Enqueue_DropsWhenBufferFull(t *testing.T) {
	block := make(chan struct{})
	handler := func(ctx context.Context, task Task) (int, error) {
		<-block
		return 0, nil
	}

	// Buffer of 1, 1 worker: the first task occupies the worker, the second
	// fills the buffer, and a third distinct key must be dropped.
	q := NewQueue(handler, 1, 1, zap.NewNop())
	q.Start()
	defer func() {
		close(block)
		q.Stop()
	}()

	q.Enqueue(Task{UserID: "u1", AgentID: "a1", MemoryID: "m1"})
	time.Sleep(20 * time.Millisecond) // let the worker pick up task 1

	q.Enqueue(Task{UserID: "u1", AgentID: "a1", MemoryID: "m2"})

	res := <-q.Enqueue(Task{UserID: "u1", AgentID: "a1", MemoryID: "m3"})
	assert.Equal(t, Result{}, res)

	require.Eventually(t, func() bool { return q.DroppedCount() >= 1 }, time.Second, 10*time.Millisecond)
}
