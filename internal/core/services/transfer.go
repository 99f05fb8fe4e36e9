package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
	"github.com/lessonkit/refpipe/internal/logger"
)

// Default transfer retry settings.
const (
	DefaultTransferRetries   = 3
	DefaultTransferBaseDelay = time.Second
	transferQueueCapacity    = 64
)

// Transferer submits uploads and waits for their outcome.
type Transferer interface {
	Submit(ctx context.Context, req domain.UploadRequest) (*domain.UploadReceipt, error)
}

// Ensure TransferQueue implements the interface.
var _ Transferer = (*TransferQueue)(nil)

// TransferQueue forwards uploads through a transport one at a time, in
// submission order. Transient failures are retried with linear backoff
// (base delay × attempt number) until the retry budget is spent.
type TransferQueue struct {
	transport  driven.UploadTransport
	maxRetries int
	baseDelay  time.Duration
	sleep      func(ctx context.Context, d time.Duration) error

	jobs      chan *transferJob
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

type transferJob struct {
	ctx    context.Context
	req    domain.UploadRequest
	result chan transferOutcome
}

type transferOutcome struct {
	receipt *domain.UploadReceipt
	err     error
}

// TransferOption configures a TransferQueue.
type TransferOption func(*TransferQueue)

// WithMaxRetries sets how many times a transient failure is retried.
func WithMaxRetries(n int) TransferOption {
	return func(q *TransferQueue) {
		if n >= 0 {
			q.maxRetries = n
		}
	}
}

// WithBaseDelay sets the backoff unit.
func WithBaseDelay(d time.Duration) TransferOption {
	return func(q *TransferQueue) {
		if d >= 0 {
			q.baseDelay = d
		}
	}
}

// withSleep replaces the backoff wait. Used by tests.
func withSleep(fn func(ctx context.Context, d time.Duration) error) TransferOption {
	return func(q *TransferQueue) {
		q.sleep = fn
	}
}

// NewTransferQueue creates a queue and starts its single worker.
// Call Close to stop the worker.
func NewTransferQueue(transport driven.UploadTransport, opts ...TransferOption) *TransferQueue {
	q := &TransferQueue{
		transport:  transport,
		maxRetries: DefaultTransferRetries,
		baseDelay:  DefaultTransferBaseDelay,
		sleep:      sleepContext,
		jobs:       make(chan *transferJob, transferQueueCapacity),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}

	go q.work()
	return q
}

// Submit enqueues an upload and blocks until it finishes or ctx ends.
func (q *TransferQueue) Submit(ctx context.Context, req domain.UploadRequest) (*domain.UploadReceipt, error) {
	job := &transferJob{
		ctx:    ctx,
		req:    req,
		result: make(chan transferOutcome, 1),
	}

	select {
	case <-q.done:
		return nil, domain.ErrQueueClosed
	default:
	}

	select {
	case q.jobs <- job:
	case <-q.done:
		return nil, domain.ErrQueueClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case out := <-job.result:
		return out.receipt, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-q.stopped:
		select {
		case out := <-job.result:
			return out.receipt, out.err
		default:
			return nil, domain.ErrQueueClosed
		}
	}
}

// Pending returns the number of uploads waiting behind the in-flight one.
func (q *TransferQueue) Pending() int {
	return len(q.jobs)
}

// Close stops accepting work, fails queued uploads and waits for the
// in-flight upload to finish.
func (q *TransferQueue) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
	})
	<-q.stopped
}

func (q *TransferQueue) work() {
	defer close(q.stopped)

	for {
		select {
		case job := <-q.jobs:
			job.result <- q.run(job)
		case <-q.done:
			for {
				select {
				case job := <-q.jobs:
					job.result <- transferOutcome{err: domain.ErrQueueClosed}
				default:
					return
				}
			}
		}
	}
}

func (q *TransferQueue) run(job *transferJob) transferOutcome {
	var lastErr error

	for attempt := 1; ; attempt++ {
		if err := job.ctx.Err(); err != nil {
			return transferOutcome{err: err}
		}

		receipt, err := q.transport.Upload(job.ctx, job.req)
		if err == nil {
			if attempt > 1 {
				logger.Info("upload %s succeeded on attempt %d", job.req.OriginalName, attempt)
			}
			return transferOutcome{receipt: receipt}
		}
		lastErr = err

		if !domain.IsTransient(err) || attempt > q.maxRetries {
			break
		}

		delay := q.baseDelay * time.Duration(attempt)
		logger.Warn("upload %s failed (attempt %d/%d), retrying in %s: %v",
			job.req.OriginalName, attempt, q.maxRetries+1, delay, err)

		if err := q.sleep(job.ctx, delay); err != nil {
			lastErr = err
			break
		}
	}

	return transferOutcome{err: fmt.Errorf("upload %s: %w", job.req.OriginalName, lastErr)}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
