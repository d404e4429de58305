package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDebounceEmitsOnlyFinalItem(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan int)
	out := Debounce(ctx, in, 20*time.Millisecond)

	go func() {
		in <- 1
		in <- 2
		in <- 3
		close(in)
	}()

	select {
	case v, ok := <-out:
		require.True(t, ok)
		require.Equal(t, 3, v)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for debounced value")
	}

	_, ok := <-out
	require.False(t, ok)
}

func TestChunkFlushesOnMaxSize(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan int)
	out := Chunk(ctx, in, 2, time.Second)

	go func() {
		in <- 1
		in <- 2
		in <- 3
		close(in)
	}()

	batch := <-out
	require.Equal(t, []int{1, 2}, batch)

	final := <-out
	require.Equal(t, []int{3}, final)

	_, ok := <-out
	require.False(t, ok)
}

func TestChunkFlushesOnTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan int)
	out := Chunk(ctx, in, 100, 20*time.Millisecond)

	go func() { in <- 1 }()

	select {
	case batch := <-out:
		require.Equal(t, []int{1}, batch)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for timeout flush")
	}
	close(in)
}

func TestSwitchMapOnlyEmitsLatest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan int)
	f := func(callCtx context.Context, v int) <-chan int {
		resultCh := make(chan int, 1)
		go func() {
			select {
			case <-time.After(50 * time.Millisecond):
				resultCh <- v
				close(resultCh)
			case <-callCtx.Done():
				close(resultCh)
			}
		}()
		return resultCh
	}

	out := SwitchMap(ctx, in, f)
	in <- 1
	time.Sleep(10 * time.Millisecond)
	in <- 2 // supersedes 1's in-flight call
	close(in)

	select {
	case v := <-out:
		require.Equal(t, 2, v)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for switch_map result")
	}
}

func TestTimeoutClosesAfterSilence(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan int)
	out := Timeout(ctx, in, 20*time.Millisecond)

	select {
	case _, ok := <-out:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for timeout close")
	}
}

func TestRetrySucceedsBeforeExhaustingAttempts(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), 5, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestRetryExhaustsAndReturnsLastError(t *testing.T) {
	attempts := 0
	sentinel := errors.New("permanent")
	err := Retry(context.Background(), 2, func(ctx context.Context) error {
		attempts++
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	require.Equal(t, 3, attempts) // initial + 2 retries
}

func TestRetryCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 3, func(ctx context.Context) error {
		return errors.New("should not matter on first try")
	})
	require.Error(t, err)
}
