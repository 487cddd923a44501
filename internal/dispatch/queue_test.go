package dispatch

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestQueueRunsTasksInOrder(t *testing.T) {
	q := NewQueue("main", 4)

	var got []int
	for i := range 100 {
		require.True(t, q.Async(func() { got = append(got, i) }))
	}
	require.NoError(t, q.Sync(func() {}))
	require.NoError(t, q.Close(time.Second))

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestQueueSyncWaitsForCompletion(t *testing.T) {
	q := NewQueue("main", 1)
	defer func() { require.NoError(t, q.Close(time.Second)) }()

	ran := false
	require.NoError(t, q.Sync(func() {
		time.Sleep(10 * time.Millisecond)
		ran = true
	}))
	assert.True(t, ran)
}

func TestQueueSurvivesPanic(t *testing.T) {
	q := NewQueue("main", 1)
	defer func() { require.NoError(t, q.Close(time.Second)) }()

	require.NoError(t, q.Sync(func() { panic("handler failure") }))

	ran := false
	require.NoError(t, q.Sync(func() { ran = true }))
	assert.True(t, ran)

	stats := q.Stats()
	assert.Equal(t, uint64(1), stats.Panics)
	assert.Equal(t, uint64(2), stats.Executed)
}

func TestQueueRejectsAfterClose(t *testing.T) {
	q := NewQueue("main", 0)
	require.NoError(t, q.Close(time.Second))
	require.NoError(t, q.Close(time.Second))

	assert.False(t, q.Async(func() {}))
	assert.ErrorIs(t, q.Sync(func() {}), ErrQueueClosed)
}

func TestQueueCloseDrainsPendingTasks(t *testing.T) {
	q := NewQueue("main", 16)

	var mu sync.Mutex
	count := 0
	for range 10 {
		q.Async(func() {
			mu.Lock()
			count++
			mu.Unlock()
		})
	}
	require.NoError(t, q.Close(time.Second))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 10, count)
}

func TestQueueConcurrentSubmitters(t *testing.T) {
	q := NewQueue("main", 8)

	var wg sync.WaitGroup
	total := 0
	for range 8 {
		wg.Go(func() {
			for range 50 {
				q.Async(func() { total++ })
			}
		})
	}
	wg.Wait()
	require.NoError(t, q.Close(time.Second))

	// tasks run serially, so the unsynchronized counter is exact
	assert.Equal(t, 400, total)
}
