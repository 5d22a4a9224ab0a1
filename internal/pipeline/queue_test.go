package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/annel0/aether/internal/job"
	"github.com/annel0/aether/internal/vec"
	"github.com/annel0/aether/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationQueue_BoundedConcurrency(t *testing.T) {
	q := NewGenerationQueue(context.Background(), 2, nil)
	release := make(chan struct{})

	var current, peak atomic.Int32
	var finished atomic.Int32
	for i := 0; i < 5; i++ {
		q.Enqueue(job.New("blocking", func(ctx context.Context) error {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-release
			current.Add(-1)
			return nil
		}, func(error) { finished.Add(1) }))
	}

	q.Tick()
	assert.Equal(t, 2, q.Running())
	assert.Equal(t, 3, q.Waiting())

	q.Tick()
	assert.Equal(t, 2, q.Running(), "без завершения заданий новые не запускаются")

	close(release)
	require.Eventually(t, func() bool {
		q.Tick()
		return finished.Load() == 5
	}, 5*time.Second, time.Millisecond)

	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, 0, q.Running())
	assert.Equal(t, 0, q.Waiting())
}

func TestGenerationQueue_StartsInFIFOOrder(t *testing.T) {
	q := NewGenerationQueue(context.Background(), 1, nil)

	var mu sync.Mutex
	var order []int
	var done atomic.Int32
	for i := 0; i < 4; i++ {
		i := i
		q.Enqueue(job.New("ordered", func(ctx context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		}, func(error) { done.Add(1) }))
	}

	require.Eventually(t, func() bool {
		q.Tick()
		return done.Load() == 4
	}, 5*time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3}, order)
}

func TestGenerationQueue_SkipsStartedJobs(t *testing.T) {
	q := NewGenerationQueue(context.Background(), 4, nil)
	j := job.New("started", nil, nil)
	require.NoError(t, j.Start())

	q.Enqueue(j)
	q.Tick()
	assert.Equal(t, 0, q.Running())
	assert.Equal(t, 0, q.Waiting())
}

func TestGenerationQueue_Abort(t *testing.T) {
	q := NewGenerationQueue(context.Background(), 1, nil)
	j := job.New("abortable", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, nil)
	q.Enqueue(j)
	q.Enqueue(job.New("never", nil, nil))
	q.Tick()

	q.Abort()
	<-j.Done()
	assert.ErrorIs(t, j.Err(), context.Canceled)
	assert.Equal(t, 0, q.Waiting())
}

func TestQueueColumnForGeneration(t *testing.T) {
	island := world.NewIsland(0, vec.New(0, 0, 0), world.Dimensions{Width: 2, Height: 1, Depth: 2}, world.DefaultSeed, nil)
	q := NewGenerationQueue(context.Background(), 4, nil)
	terrain := TerrainFunc(func(ctx context.Context, island *world.Island, column vec.Coordinate) error {
		return nil
	})

	col := vec.NewColumn(1, 1)
	j, ok := QueueColumnForGeneration(q, terrain, island, col, nil)
	require.True(t, ok)
	require.NotNil(t, j)
	assert.Equal(t, world.ColumnQueued, island.ColumnState(col))

	_, ok = QueueColumnForGeneration(q, terrain, island, col, nil)
	assert.False(t, ok, "колонка уже в очереди")

	_, ok = QueueColumnForGeneration(q, terrain, island, vec.NewColumn(2, 0), nil)
	assert.False(t, ok, "колонка вне острова")

	require.Eventually(t, func() bool {
		q.Tick()
		return island.ColumnHasBeenGenerated(col)
	}, 5*time.Second, time.Millisecond)
}

func TestQueueColumnForGeneration_FailureResetsColumn(t *testing.T) {
	island := world.NewIsland(0, vec.New(0, 0, 0), world.Dimensions{Width: 1, Height: 1, Depth: 1}, world.DefaultSeed, nil)
	q := NewGenerationQueue(context.Background(), 1, nil)
	boom := errors.New("boom")

	var got error
	var reported atomic.Bool
	col := vec.NewColumn(0, 0)
	_, ok := QueueColumnForGeneration(q, TerrainFunc(func(context.Context, *world.Island, vec.Coordinate) error {
		return boom
	}), island, col, func(err error) {
		got = err
		reported.Store(true)
	})
	require.True(t, ok)

	require.Eventually(t, func() bool {
		q.Tick()
		return reported.Load()
	}, 5*time.Second, time.Millisecond)

	assert.ErrorIs(t, got, boom)
	assert.Equal(t, world.ColumnNone, island.ColumnState(col), "после ошибки колонку можно поставить снова")
}
