package oracle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/networth/internal/domain"
)

func TestQueueRunsJobsInOrderWithDelay(t *testing.T) {
	const delay = 30 * time.Millisecond
	q := NewQueue(delay)
	defer q.Close()

	var (
		mu      sync.Mutex
		order   []int
		started []time.Time
	)

	// Hold the consumer busy so the following jobs line up behind it.
	release := make(chan struct{})
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_ = q.Do(context.Background(), func(context.Context) error {
			<-release
			return nil
		})
	}()
	time.Sleep(10 * time.Millisecond)

	var wg sync.WaitGroup
	for i := range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Do(context.Background(), func(context.Context) error {
				mu.Lock()
				defer mu.Unlock()
				order = append(order, i)
				started = append(started, time.Now())
				return nil
			})
		}()
		time.Sleep(10 * time.Millisecond) // enqueue in a known order
	}

	close(release)
	<-firstDone
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2}, order)
	require.Len(t, started, 3)
	for i := 1; i < len(started); i++ {
		assert.GreaterOrEqual(t, started[i].Sub(started[i-1]), delay-5*time.Millisecond,
			"jobs %d and %d dispatched too close together", i-1, i)
	}
}

func TestQueueFailureIsolation(t *testing.T) {
	q := NewQueue(0)
	defer q.Close()
	ctx := context.Background()

	boom := errors.New("boom")
	assert.ErrorIs(t, q.Do(ctx, func(context.Context) error { return boom }), boom)
	assert.NoError(t, q.Do(ctx, func(context.Context) error { return nil }))

	err := q.Do(ctx, func(context.Context) error { panic("bad symbol") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
	assert.NoError(t, q.Do(ctx, func(context.Context) error { return nil }), "queue must survive a panicking job")
}

func TestQueueSkipsCancelledJobs(t *testing.T) {
	q := NewQueue(0)
	defer q.Close()

	release := make(chan struct{})
	go func() {
		_ = q.Do(context.Background(), func(context.Context) error {
			<-release
			return nil
		})
	}()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	ran := make(chan struct{}, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- q.Do(ctx, func(context.Context) error {
			ran <- struct{}{}
			return nil
		})
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	close(release)
	assert.NoError(t, q.Do(context.Background(), func(context.Context) error { return nil }))
	select {
	case <-ran:
		t.Error("cancelled job should not have run")
	default:
	}
}

func TestQueueClosed(t *testing.T) {
	q := NewQueue(0)
	q.Close()
	q.Close()

	err := q.Do(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrQueueClosed)
}

type fakeClient struct {
	mu     sync.Mutex
	calls  int
	prices map[string]decimal.Decimal
	err    error
}

func (f *fakeClient) GetPrice(_ context.Context, symbol, _ string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return decimal.Zero, f.err
	}
	p, ok := f.prices[symbol]
	if !ok {
		return decimal.Zero, ErrNotFound
	}
	return p, nil
}

func (f *fakeClient) GetPrices(_ context.Context, symbols []string, _ string) (map[string]decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]decimal.Decimal)
	for _, s := range symbols {
		if p, ok := f.prices[s]; ok {
			out[s] = p
		}
	}
	return out, nil
}

func TestThrottledWrapsErrorsAsUpstream(t *testing.T) {
	client := &fakeClient{prices: map[string]decimal.Decimal{"BTC": decimal.NewFromInt(100)}}
	q := NewQueue(0)
	defer q.Close()
	th := NewThrottled(client, q)
	ctx := context.Background()

	price, err := th.GetPrice(ctx, "BTC", "EUR")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(100)))

	_, err = th.GetPrice(ctx, "ETH", "EUR")
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
	assert.ErrorIs(t, err, ErrNotFound)

	prices, err := th.GetPrices(ctx, []string{"BTC", "ETH"}, "EUR")
	require.NoError(t, err)
	assert.Len(t, prices, 1)

	client.err = errors.New("network down")
	_, err = th.GetPrices(ctx, []string{"BTC"}, "EUR")
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
	assert.Equal(t, 4, client.calls)
}
