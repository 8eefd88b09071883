package lookup

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Queue defaults.
const (
	// DefaultSpacing is the minimum delay between consecutive requests.
	DefaultSpacing = time.Second

	// DefaultRequestTimeout bounds each individual search.
	DefaultRequestTimeout = 15 * time.Second

	// DefaultMaxPending is the queue capacity.
	DefaultMaxPending = 32
)

// ErrQueueFull is returned when the pending queue is at capacity.
var ErrQueueFull = errors.New("lookup: queue full")

// Queue serializes user searches: one request in flight at a time, with
// a fixed minimum spacing between dispatches. Requests are served in
// FIFO order and errors are returned to the caller that enqueued the
// request, never swallowed.
type Queue struct {
	searcher Searcher
	spacing  time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	requests chan *request
	doneCh   chan struct{}
}

type request struct {
	ctx      context.Context
	query    string
	limit    int
	resultCh chan result
}

type result struct {
	users []User
	err   error
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithSpacing overrides the inter-request spacing (for testing).
func WithSpacing(d time.Duration) QueueOption {
	return func(q *Queue) {
		if d > 0 {
			q.spacing = d
		}
	}
}

// WithRequestTimeout overrides the per-request timeout.
func WithRequestTimeout(d time.Duration) QueueOption {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithMaxPending overrides the queue capacity.
func WithMaxPending(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.requests = make(chan *request, n)
		}
	}
}

// WithQueueLogger sets the logger.
func WithQueueLogger(logger *slog.Logger) QueueOption {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// NewQueue creates a Queue in front of searcher.
// Call Run to start dispatching.
func NewQueue(searcher Searcher, opts ...QueueOption) *Queue {
	q := &Queue{
		searcher: searcher,
		spacing:  DefaultSpacing,
		timeout:  DefaultRequestTimeout,
		logger:   slog.Default(),
		requests: make(chan *request, DefaultMaxPending),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Run dispatches queued requests until ctx is cancelled. Pending
// requests at cancellation receive ctx's error.
func (q *Queue) Run(ctx context.Context) {
	defer close(q.doneCh)

	var lastDispatch time.Time
	for {
		select {
		case <-ctx.Done():
			q.drainPending(ctx.Err())
			return

		case req := <-q.requests:
			if wait := q.spacing - time.Since(lastDispatch); wait > 0 {
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					req.resultCh <- result{err: ctx.Err()}
					q.drainPending(ctx.Err())
					return
				}
			}

			lastDispatch = time.Now()
			q.dispatch(req)
		}
	}
}

// Search enqueues a request and blocks until it is served or either
// context ends.
func (q *Queue) Search(ctx context.Context, query string, limit int) ([]User, error) {
	req := &request{
		ctx:      ctx,
		query:    query,
		limit:    limit,
		resultCh: make(chan result, 1),
	}

	select {
	case q.requests <- req:
	default:
		q.logger.Warn("lookup queue full, request rejected", "query", query)
		return nil, ErrQueueFull
	}

	select {
	case res := <-req.resultCh:
		return res.users, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-q.doneCh:
		return nil, context.Canceled
	}
}

// dispatch runs one search under the per-request timeout.
func (q *Queue) dispatch(req *request) {
	// The caller may have given up while the request sat in the queue.
	if err := req.ctx.Err(); err != nil {
		req.resultCh <- result{err: err}
		return
	}

	reqCtx, cancel := context.WithTimeout(req.ctx, q.timeout)
	defer cancel()

	users, err := q.searcher.SearchUsers(reqCtx, req.query, req.limit)
	if err != nil {
		q.logger.Warn("user search failed", "query", req.query, "error", err)
	}
	req.resultCh <- result{users: users, err: err}
}

// drainPending fails all queued requests with err.
func (q *Queue) drainPending(err error) {
	for {
		select {
		case req := <-q.requests:
			req.resultCh <- result{err: err}
		default:
			return
		}
	}
}
