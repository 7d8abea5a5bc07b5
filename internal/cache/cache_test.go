package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"backoffice/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestClient(clock *fakeClock) *Client {
	return New(Options{
		StaleTime: config.CacheConfig{
			DefaultStaleTime: 30 * time.Second,
			StaleTimes:       map[string]time.Duration{"chat_rooms": 10 * time.Second},
		}.StaleTimeFor,
		ReadRetries: 1,
		Now:         clock.Now,
	}, zerolog.Nop())
}

func TestNewKey(t *testing.T) {
	k := NewKey("redeem_requests", []string{"1", "2"}, "", 0)
	assert.Equal(t, "redeem_requests", k.Entity)
	assert.Equal(t, "[1 2]||0", k.Params)
	assert.Equal(t, k, NewKey("redeem_requests", []string{"1", "2"}, "", 0))
	assert.NotEqual(t, k, NewKey("redeem_requests", []string{"1", "2"}, "", 1))
}

func TestFetch_CachesUntilStale(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := newTestClient(clock)
	var calls int32
	fn := func(context.Context) (int, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	}
	key := NewKey("chat_rooms")

	v, err := Fetch(context.Background(), c, key, fn)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	clock.Advance(9 * time.Second)
	v, err = Fetch(context.Background(), c, key, fn)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	clock.Advance(time.Second)
	v, err = Fetch(context.Background(), c, key, fn)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestFetch_DefaultStaleTime(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := newTestClient(clock)
	var calls int32
	fn := func(context.Context) (int32, error) { return atomic.AddInt32(&calls, 1), nil }
	key := NewKey("players")

	_, _ = Fetch(context.Background(), c, key, fn)
	clock.Advance(29 * time.Second)
	_, _ = Fetch(context.Background(), c, key, fn)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	clock.Advance(time.Second)
	_, _ = Fetch(context.Background(), c, key, fn)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestFetch_ConcurrentCallersShareOneCall(t *testing.T) {
	c := newTestClient(&fakeClock{now: time.Unix(0, 0)})
	var calls int32
	release := make(chan struct{})
	fn := func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "rows", nil
	}
	key := NewKey("recharge_requests", "pending")

	const n = 8
	var wg sync.WaitGroup
	results := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Fetch(context.Background(), c, key, fn)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	// Let the goroutines join the flight before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, "rows", r)
	}
}

func TestFetch_RetriesOnce(t *testing.T) {
	c := newTestClient(&fakeClock{now: time.Unix(0, 0)})
	var calls int32
	fn := func(context.Context) (int, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return 0, errors.New("connection reset")
		}
		return 7, nil
	}

	v, err := Fetch(context.Background(), c, NewKey("players"), fn)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestFetch_GivesUpAfterRetry(t *testing.T) {
	c := newTestClient(&fakeClock{now: time.Unix(0, 0)})
	var calls int32
	boom := errors.New("boom")
	fn := func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, boom
	}

	_, err := Fetch(context.Background(), c, NewKey("players"), fn)
	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	assert.Zero(t, c.Len(), "errors are not cached")
}

func TestInvalidate_ForcesRefetch(t *testing.T) {
	c := newTestClient(&fakeClock{now: time.Unix(0, 0)})
	status := "0"
	fn := func(context.Context) (string, error) { return status, nil }
	list := NewKey("recharge_requests", "pending")
	detail := NewKey("recharge_requests", "id", 1)
	other := NewKey("players")

	_, _ = Fetch(context.Background(), c, list, fn)
	_, _ = Fetch(context.Background(), c, detail, fn)
	_, _ = Fetch(context.Background(), c, other, fn)
	require.Equal(t, 3, c.Len())

	status = "1"
	c.Invalidate("recharge_requests")
	assert.Equal(t, 1, c.Len())

	v, err := Fetch(context.Background(), c, detail, fn)
	require.NoError(t, err)
	assert.Equal(t, "1", v)
	v, _ = Fetch(context.Background(), c, other, fn)
	assert.Equal(t, "0", v, "other entities keep their entries")
}

func TestInvalidate_DuringFlightIsNotCachedAsFresh(t *testing.T) {
	c := newTestClient(&fakeClock{now: time.Unix(0, 0)})
	key := NewKey("redeem_requests")
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	fn := func(context.Context) (int32, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			close(started)
			<-release
		}
		return n, nil
	}

	done := make(chan int32)
	go func() {
		v, _ := Fetch(context.Background(), c, key, fn)
		done <- v
	}()
	<-started
	c.Invalidate("redeem_requests")
	close(release)
	assert.EqualValues(t, 1, <-done)

	v, err := Fetch(context.Background(), c, key, fn)
	require.NoError(t, err)
	assert.EqualValues(t, 2, v)
}

func TestFetch_CallerCancel(t *testing.T) {
	c := newTestClient(&fakeClock{now: time.Unix(0, 0)})
	release := make(chan struct{})
	defer close(release)
	fn := func(context.Context) (int, error) {
		<-release
		return 1, nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Fetch(ctx, c, NewKey("players"), fn)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPoll_RefreshesKey(t *testing.T) {
	c := New(Options{StaleTime: func(string) time.Duration { return time.Hour }}, zerolog.Nop())
	key := NewKey("chat_rooms")
	var calls int32
	fn := func(context.Context) (any, error) { return atomic.AddInt32(&calls, 1), nil }

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		c.Poll(ctx, key, 5*time.Millisecond, fn)
		close(stopped)
	}()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-stopped

	v, err := c.Get(context.Background(), key, func(context.Context) (any, error) {
		t.Fatal("poll should have kept the key warm")
		return nil, nil
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v.(int32), int32(3))
}

func TestRefresh_ReplacesFreshValue(t *testing.T) {
	c := newTestClient(&fakeClock{now: time.Unix(0, 0)})
	key := NewKey("chat_messages", uint(3))
	ctx := context.Background()

	v, err := Fetch(ctx, c, key, func(context.Context) (string, error) { return "old", nil })
	require.NoError(t, err)
	assert.Equal(t, "old", v)

	require.NoError(t, c.Refresh(ctx, key, func(context.Context) (any, error) { return "new", nil }))
	v, err = Fetch(ctx, c, key, func(context.Context) (string, error) {
		t.Fatal("refresh should have stored a fresh value")
		return "", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new", v)

	boom := errors.New("db down")
	err = c.Refresh(ctx, key, func(context.Context) (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	v, err = Fetch(ctx, c, key, func(context.Context) (string, error) { return "unused", nil })
	require.NoError(t, err)
	assert.Equal(t, "new", v, "a failed refresh keeps the cached value")
}
