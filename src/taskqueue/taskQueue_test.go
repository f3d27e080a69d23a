package taskqueue

import (
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"sync"
	"testing"
	"time"
)

func TestTaskQueue_NestedPush(t *testing.T) {
	tq := NewTaskQueue(4, false)

	var done atomic.Int64
	var spawn func(depth int) Task
	spawn = func(depth int) Task {
		return func() error {
			done.Inc()
			if depth < 3 {
				tq.Push(spawn(depth + 1))
				tq.Push(spawn(depth + 1))
			}
			return nil
		}
	}
	tq.Push(spawn(0))

	require.NoError(t, tq.Run(context.Background()))
	assert.EqualValues(t, 15, done.Load())
}

func TestTaskQueue_MaxWorkers(t *testing.T) {
	tq := NewTaskQueue(3, false)

	var mu sync.Mutex
	cur, peak := 0, 0
	for i := 0; i < 20; i++ {
		tq.Push(func() error {
			mu.Lock()
			cur++
			if cur > peak {
				peak = cur
			}
			mu.Unlock()

			time.Sleep(2 * time.Millisecond)

			mu.Lock()
			cur--
			mu.Unlock()
			return nil
		})
	}

	require.NoError(t, tq.Run(context.Background()))
	assert.LessOrEqual(t, peak, 3)
	assert.Equal(t, 0, cur)
}

func TestTaskQueue_ZeroWorkers(t *testing.T) {
	tq := NewTaskQueue(0, false)
	ran := false
	tq.Push(func() error {
		ran = true
		return nil
	})
	require.NoError(t, tq.Run(context.Background()))
	assert.True(t, ran)
}

func TestTaskQueue_Errors(t *testing.T) {
	boom := errors.New("boom")

	tq := NewTaskQueue(1, false)
	var ran atomic.Int64
	tq.Push(func() error { ran.Inc(); return boom })
	tq.Push(func() error { ran.Inc(); return nil })
	assert.ErrorIs(t, tq.Run(context.Background()), boom)
	assert.EqualValues(t, 2, ran.Load())

	tq = NewTaskQueue(1, true)
	ran.Store(0)
	tq.Push(func() error { ran.Inc(); return boom })
	tq.Push(func() error { ran.Inc(); return nil })
	assert.ErrorIs(t, tq.Run(context.Background()), boom)
	assert.EqualValues(t, 1, ran.Load())
}

func TestTaskQueue_Panic(t *testing.T) {
	tq := NewTaskQueue(2, false)
	tq.Push(func() error { panic("bad asset") })
	err := tq.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad asset")
}

func TestTaskQueue_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tq := NewTaskQueue(1, false)

	var ran atomic.Int64
	tq.Push(func() error {
		ran.Inc()
		cancel()
		return nil
	})
	for i := 0; i < 10; i++ {
		tq.Push(func() error {
			ran.Inc()
			return nil
		})
	}

	assert.ErrorIs(t, tq.Run(ctx), context.Canceled)
	assert.EqualValues(t, 1, ran.Load())
}
