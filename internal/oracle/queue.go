package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultDelay is the minimum pause between two upstream requests.
const DefaultDelay = time.Second

// ErrQueueClosed is returned for jobs submitted to, or pending in, a closed queue.
var ErrQueueClosed = errors.New("oracle queue closed")

type job struct {
	ctx    context.Context
	fn     func(ctx context.Context) error
	result chan error
}

// Queue runs jobs one at a time in submission order. After a job completes, the next one is not
// dispatched until delay has elapsed. A job's failure is returned to its own caller only.
type Queue struct {
	delay time.Duration
	jobs  chan job
	done  chan struct{}

	startOnce sync.Once
	closeOnce sync.Once
}

// NewQueue creates a queue. The consumer goroutine starts with the first submitted job.
func NewQueue(delay time.Duration) *Queue {
	if delay < 0 {
		delay = 0
	}
	return &Queue{
		delay: delay,
		jobs:  make(chan job),
		done:  make(chan struct{}),
	}
}

// Do enqueues fn and waits for it to run. It returns fn's error, ctx.Err() if ctx ends first,
// or ErrQueueClosed.
func (q *Queue) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}
	q.startOnce.Do(func() { go q.run() })

	j := job{ctx: ctx, fn: fn, result: make(chan error, 1)}
	select {
	case q.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return ErrQueueClosed
	}

	select {
	case err := <-j.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the consumer. Jobs waiting for dispatch get ErrQueueClosed.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}

func (q *Queue) run() {
	var lastDone time.Time
	for {
		select {
		case <-q.done:
			return
		case j := <-q.jobs:
			if !lastDone.IsZero() {
				if wait := q.delay - time.Since(lastDone); wait > 0 {
					timer := time.NewTimer(wait)
					select {
					case <-timer.C:
					case <-q.done:
						timer.Stop()
						j.result <- ErrQueueClosed
						return
					}
				}
			}

			// The caller gave up while waiting; nothing was sent upstream.
			if err := j.ctx.Err(); err != nil {
				j.result <- err
				continue
			}

			j.result <- execute(j)
			lastDone = time.Now()
		}
	}
}

func execute(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("oracle job panicked", "panic", r)
			err = fmt.Errorf("oracle job panicked: %v", r)
		}
	}()
	return j.fn(j.ctx)
}
