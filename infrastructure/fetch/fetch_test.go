package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"seedflow/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errNetwork = errors.New("connection refused")

func TestResourceLoadingOnlyOnFirstFetch(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	r := NewResource("batches", func(ctx context.Context) ([]string, error) {
		n := calls.Add(1)
		if n == 2 {
			<-release
		}
		return []string{fmt.Sprint(n)}, nil
	})

	initial := r.Snapshot()
	assert.True(t, initial.Loading)
	assert.False(t, initial.HasLoadedOnce)

	require.NoError(t, r.Refetch(context.Background()))
	s := r.Snapshot()
	assert.False(t, s.Loading)
	assert.True(t, s.HasLoadedOnce)
	assert.Equal(t, []string{"1"}, s.Data)

	done := make(chan error, 1)
	go func() { done <- r.Refetch(context.Background()) }()
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	assert.False(t, r.Snapshot().Loading, "refresh must not flip loading")
	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"2"}, r.Snapshot().Data)
}

func TestResourceMalformedKeepsDataAndSwallowsError(t *testing.T) {
	fail := false
	r := NewResource("batches", func(ctx context.Context) ([]string, error) {
		if fail {
			return nil, fmt.Errorf("decode: %w", models.ErrInvalidDataFormat)
		}
		return []string{"a"}, nil
	})
	require.NoError(t, r.Refetch(context.Background()))

	fail = true
	require.NoError(t, r.Refetch(context.Background()))
	s := r.Snapshot()
	assert.Equal(t, InvalidDataFormat, s.Error)
	assert.Equal(t, []string{"a"}, s.Data)
}

func TestResourceTransportFailureRecordsAndReturns(t *testing.T) {
	r := NewResource("device", func(ctx context.Context) (bool, error) {
		return false, errNetwork
	}, WithFailureMessage("failed to load CLP status"))

	err := r.Refetch(context.Background())
	require.ErrorIs(t, err, errNetwork)
	s := r.Snapshot()
	assert.Equal(t, "failed to load CLP status", s.Error)
	assert.False(t, s.Loading)
	assert.True(t, s.HasLoadedOnce)
	assert.True(t, s.UpdatedAt.IsZero())
}

func TestResourceSuccessClearsPreviousError(t *testing.T) {
	fail := true
	r := NewResource("batches", func(ctx context.Context) (int, error) {
		if fail {
			return 0, errNetwork
		}
		return 7, nil
	})
	require.Error(t, r.Refetch(context.Background()))
	fail = false
	require.NoError(t, r.Refetch(context.Background()))
	s := r.Snapshot()
	assert.Empty(t, s.Error)
	assert.Equal(t, 7, s.Data)
	assert.False(t, s.UpdatedAt.IsZero())
}

func TestCommandOutcomes(t *testing.T) {
	cmd := NewCommand("status", WithFailureMessage("failed to send command"))

	res, err := cmd.Run(context.Background(), func(context.Context) (models.CommandResult, error) {
		return models.CommandResult{StatusErro: true}, nil
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.StatusErro)

	res, err = cmd.Run(context.Background(), func(context.Context) (models.CommandResult, error) {
		return models.CommandResult{}, models.ErrInvalidDataFormat
	})
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, InvalidDataFormat, cmd.Snapshot().Error)

	res, err = cmd.Run(context.Background(), func(context.Context) (models.CommandResult, error) {
		return models.CommandResult{}, errNetwork
	})
	require.ErrorIs(t, err, errNetwork)
	assert.Nil(t, res)
	s := cmd.Snapshot()
	assert.Equal(t, "failed to send command", s.Error)
	assert.False(t, s.Loading)
	require.NotNil(t, s.Result)
	assert.True(t, s.Result.StatusErro, "last good result is kept")
}

func TestSubscribeTicksImmediatelyAndStops(t *testing.T) {
	var ticks atomic.Int32
	sub := Subscribe(context.Background(), 10*time.Millisecond, func(context.Context) {
		ticks.Add(1)
	})

	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, 5*time.Millisecond)
	sub.Stop()
	sub.Stop()

	after := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, ticks.Load(), "no ticks after Stop")
}

func TestSubscribeEndsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sub := Subscribe(ctx, time.Hour, func(context.Context) {})
	cancel()

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription did not exit after context cancel")
	}
}

func TestSchedulerRunsAfterDelay(t *testing.T) {
	s := NewScheduler(context.Background())
	defer s.Close()

	fired := make(chan time.Duration, 1)
	start := time.Now()
	require.True(t, s.After(20*time.Millisecond, func(context.Context) {
		fired <- time.Since(start)
	}))

	select {
	case elapsed := <-fired:
		assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("callback did not run")
	}
}

func TestSchedulerCloseCancelsPending(t *testing.T) {
	s := NewScheduler(context.Background())

	var ran atomic.Bool
	require.True(t, s.After(time.Hour, func(context.Context) { ran.Store(true) }))
	assert.Equal(t, 1, s.Pending())

	s.Close()
	assert.Equal(t, 0, s.Pending())
	assert.False(t, ran.Load())
	assert.False(t, s.After(time.Millisecond, func(context.Context) { ran.Store(true) }))
	s.Close()
}
