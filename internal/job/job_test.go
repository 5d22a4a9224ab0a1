package job

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitDone(t *testing.T, j *Job) {
	t.Helper()
	select {
	case <-j.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("задание %s не завершилось", j.Name())
	}
}

func TestJob_UpdateReportsOnce(t *testing.T) {
	var finished atomic.Int32
	j := New("test", func(ctx context.Context) error { return nil }, func(err error) {
		assert.NoError(t, err)
		finished.Add(1)
	})

	assert.False(t, j.Update(), "до запуска задание не завершено")
	require.NoError(t, j.Start())
	waitDone(t, j)

	assert.True(t, j.IsDone())
	assert.True(t, j.Update())
	assert.False(t, j.Update(), "повторный опрос не должен сообщать о завершении")
	assert.Equal(t, int32(1), finished.Load())
}

func TestJob_OnFinishedRunsOnPollingGoroutine(t *testing.T) {
	var called atomic.Bool
	release := make(chan struct{})
	j := New("blocked", func(ctx context.Context) error {
		<-release
		return nil
	}, func(error) { called.Store(true) })

	require.NoError(t, j.Start())
	close(release)
	waitDone(t, j)

	assert.False(t, called.Load(), "onFinished вызывается только из Update")
	require.True(t, j.Update())
	assert.True(t, called.Load())
}

func TestJob_StartTwice(t *testing.T) {
	j := New("twice", nil, nil)
	require.NoError(t, j.Start())
	assert.ErrorIs(t, j.Start(), ErrAlreadyStarted)
	waitDone(t, j)
}

func TestJob_ErrorIsPassedToOnFinished(t *testing.T) {
	boom := errors.New("boom")
	var got error
	j := New("failing", func(ctx context.Context) error { return boom }, func(err error) { got = err })

	require.NoError(t, j.Start())
	waitDone(t, j)
	require.True(t, j.Update())

	assert.ErrorIs(t, got, boom)
	assert.ErrorIs(t, j.Err(), boom)
}

func TestJob_PanicBecomesError(t *testing.T) {
	j := New("panic", func(ctx context.Context) error { panic("сломалось") }, nil)

	require.NoError(t, j.Start())
	waitDone(t, j)
	assert.Error(t, j.Err())
	assert.True(t, j.Update())
}

func TestJob_Abort(t *testing.T) {
	j := New("abortable", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, nil)

	j.Abort() // до запуска ничего не происходит
	require.NoError(t, j.Start())
	j.Abort()
	waitDone(t, j)

	assert.ErrorIs(t, j.Err(), context.Canceled)
}

func TestJob_UniqueIDs(t *testing.T) {
	a := New("a", nil, nil)
	b := New("b", nil, nil)
	assert.NotEqual(t, a.ID(), b.ID())
}
