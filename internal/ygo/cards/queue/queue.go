// Package queue batches card lookups. Requests are appended to a pending
// list and drained in FIFO batches by a single goroutine; lookups inside a
// batch run concurrently, batches run one after another.
package queue

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ramonehamilton/ygo-embed/internal/metrics"
	"github.com/ramonehamilton/ygo-embed/internal/ygo/cards"
)

const (
	DefaultBatchSize     = 20
	DefaultMaxConcurrent = 8
	DefaultLookupTimeout = 15 * time.Second
	DefaultBatchDelay    = 50 * time.Millisecond
)

// ErrClosed is returned for requests still pending when the queue is closed.
var ErrClosed = errors.New("lookup queue closed")

// Transport performs a single remote card lookup.
type Transport interface {
	LookupCard(ctx context.Context, name string) (*cards.Card, error)
}

// CardCache is where fetched cards are stored and resolved from.
type CardCache interface {
	Get(name string) (*cards.Card, bool)
	Put(card *cards.Card, aliases ...string)
}

// State is the queue state.
type State int

const (
	// Idle means nothing is pending and no batch is in flight.
	Idle State = iota
	// Draining means a batch is in flight; more requests may be pending.
	Draining
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Draining:
		return "draining"
	default:
		return "unknown"
	}
}

// Result is the outcome of one request.
type Result struct {
	Card *cards.Card
	Err  error
}

// Options configures a Queue.
type Options struct {
	// BatchSize is the maximum number of requests taken per batch. Default: 20
	BatchSize int

	// MaxConcurrent bounds the concurrent lookups within a batch. Default: 8
	MaxConcurrent int

	// LookupTimeout bounds each single-name lookup. Default: 15s
	LookupTimeout time.Duration

	// BatchDelay is the pause between consecutive batches. Default: 50ms.
	// Negative disables the pause.
	BatchDelay time.Duration

	// Metrics, when set, receives lookup and batch latencies.
	Metrics *metrics.LookupMetrics

	Clock  Clock
	Logger *slog.Logger
}

// DefaultOptions returns the default queue options.
func DefaultOptions() Options {
	return Options{
		BatchSize:     DefaultBatchSize,
		MaxConcurrent: DefaultMaxConcurrent,
		LookupTimeout: DefaultLookupTimeout,
		BatchDelay:    DefaultBatchDelay,
	}
}

// Stats reports queue activity.
type Stats struct {
	Batches  int64
	Lookups  int64
	Timeouts int64
	Failures int64
	Pending  int
}

type request struct {
	name   string
	result chan Result
}

// Queue coalesces card lookups into batches.
type Queue struct {
	transport Transport
	cache     CardCache
	opts      Options
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	pending []*request
	state   State
	closed  bool
	stats   Stats
}

// New creates an idle queue resolving names through transport and storing
// fetched cards in cache.
func New(transport Transport, cache CardCache, opts Options) *Queue {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = DefaultLookupTimeout
	}
	if opts.BatchDelay == 0 {
		opts.BatchDelay = DefaultBatchDelay
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		transport: transport,
		cache:     cache,
		opts:      opts,
		logger:    opts.Logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Enqueue appends a lookup for name and returns the channel its result is
// delivered on. The channel receives exactly one value.
func (q *Queue) Enqueue(name string) <-chan Result {
	return q.EnqueueMany([]string{name})[0]
}

// EnqueueMany appends lookups for all names in one step, so that they are
// batched together as far as BatchSize allows.
func (q *Queue) EnqueueMany(names []string) []<-chan Result {
	out := make([]<-chan Result, len(names))
	reqs := make([]*request, 0, len(names))

	for i, name := range names {
		ch := make(chan Result, 1)
		out[i] = ch

		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			ch <- Result{Err: &cards.ParseError{Input: name, Reason: "empty card name"}}
			continue
		}
		reqs = append(reqs, &request{name: trimmed, result: ch})
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		for _, req := range reqs {
			req.result <- Result{Err: ErrClosed}
		}
		return out
	}
	if len(reqs) == 0 {
		return out
	}

	q.pending = append(q.pending, reqs...)
	if q.state == Idle {
		q.state = Draining
		q.wg.Add(1)
		go q.drain()
	}
	return out
}

// Lookup enqueues name and waits for its result or for ctx to end.
func (q *Queue) Lookup(ctx context.Context, name string) (*cards.Card, error) {
	select {
	case res := <-q.Enqueue(name):
		return res.Card, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// State returns the current queue state.
func (q *Queue) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Stats returns a snapshot of queue activity.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := q.stats
	stats.Pending = len(q.pending)
	return stats
}

// Close cancels in-flight lookups, rejects pending requests with ErrClosed
// and waits for the drain goroutine to exit.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
}

func (q *Queue) drain() {
	defer q.wg.Done()

	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.state = Idle
			q.mu.Unlock()
			return
		}
		if q.ctx.Err() != nil {
			rest := q.pending
			q.pending = nil
			q.state = Idle
			q.stats.Failures += int64(len(rest))
			q.mu.Unlock()
			for _, req := range rest {
				req.result <- Result{Err: ErrClosed}
			}
			return
		}

		n := min(len(q.pending), q.opts.BatchSize)
		batch := q.pending[:n:n]
		q.pending = q.pending[n:]
		q.stats.Batches++
		q.mu.Unlock()

		q.processBatch(batch)

		q.mu.Lock()
		more := len(q.pending) > 0
		q.mu.Unlock()

		if more && q.opts.BatchDelay > 0 {
			select {
			case <-q.opts.Clock.After(q.opts.BatchDelay):
			case <-q.ctx.Done():
			}
		}
	}
}

func (q *Queue) processBatch(batch []*request) {
	names := uniqueNames(batch)
	q.logger.Debug("Dispatching card batch", "requests", len(batch), "names", len(names))
	if q.opts.Metrics != nil {
		start := q.opts.Clock.Now()
		defer func() { q.opts.Metrics.RecordBatch(q.opts.Clock.Now().Sub(start)) }()
	}

	var mu sync.Mutex
	outcomes := make(map[string]error, len(names))

	// A plain group: one failed lookup must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(q.opts.MaxConcurrent)
	for _, name := range names {
		g.Go(func() error {
			err := q.lookup(name)
			mu.Lock()
			outcomes[name] = err
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// The batch fails as a whole only when the queue closed or no lookup got
	// through; otherwise each request carries its own name's outcome.
	var batchErr error
	if q.ctx.Err() != nil {
		batchErr = ErrClosed
	} else if err := outcomes[names[0]]; cards.IsTransport(err) && allTransport(names, outcomes) {
		batchErr = err
	}

	var failures, timeouts int64
	for _, name := range names {
		if cards.IsTimeout(outcomes[name]) {
			timeouts++
		}
	}

	results := make([]Result, len(batch))
	for i, req := range batch {
		switch err := outcomes[req.name]; {
		case batchErr != nil:
			results[i].Err = batchErr
		case cards.IsTimeout(err), cards.IsTransport(err):
			results[i].Err = err
		default:
			if card, ok := q.cache.Get(req.name); ok {
				results[i].Card = card
			} else {
				results[i].Err = &cards.NotFoundError{Name: req.name}
			}
		}
		if results[i].Err != nil {
			failures++
		}
	}

	if batchErr != nil {
		q.logger.Warn("Card batch failed", "requests", len(batch), "error", batchErr)
	}

	q.mu.Lock()
	q.stats.Lookups += int64(len(names))
	q.stats.Timeouts += timeouts
	q.stats.Failures += failures
	q.mu.Unlock()

	for i, req := range batch {
		req.result <- results[i]
	}
}

// lookup fetches one name and stores the card in the cache. The returned
// error is nil, a NotFoundError, a TimeoutError or a TransportError.
func (q *Queue) lookup(name string) (err error) {
	if q.opts.Metrics != nil {
		start := q.opts.Clock.Now()
		defer func() { q.opts.Metrics.RecordLookup(q.opts.Clock.Now().Sub(start), outcomeOf(err)) }()
	}

	ctx, cancel := context.WithCancel(q.ctx)
	defer cancel()

	type outcome struct {
		card *cards.Card
		err  error
	}

	timeout := q.opts.Clock.After(q.opts.LookupTimeout)
	done := make(chan outcome, 1)
	go func() {
		card, err := q.transport.LookupCard(ctx, name)
		done <- outcome{card: card, err: err}
	}()

	select {
	case out := <-done:
		switch {
		case out.err == nil && out.card != nil:
			q.cache.Put(out.card, name)
			return nil
		case out.err == nil, cards.IsNotFound(out.err):
			return &cards.NotFoundError{Name: name}
		case cards.IsTimeout(out.err), cards.IsTransport(out.err):
			return out.err
		case q.ctx.Err() != nil:
			return &cards.TransportError{Op: "lookup " + name, Err: ErrClosed}
		default:
			return &cards.TransportError{Op: "lookup " + name, Err: out.err}
		}
	case <-timeout:
		cancel()
		q.logger.Debug("Card lookup timed out", "name", name, "timeout", q.opts.LookupTimeout)
		return &cards.TimeoutError{Name: name, Timeout: q.opts.LookupTimeout}
	case <-q.ctx.Done():
		return &cards.TransportError{Op: "lookup " + name, Err: ErrClosed}
	}
}

func allTransport(names []string, outcomes map[string]error) bool {
	for _, name := range names {
		if !cards.IsTransport(outcomes[name]) {
			return false
		}
	}
	return true
}

func outcomeOf(err error) metrics.Outcome {
	switch {
	case err == nil:
		return metrics.Found
	case cards.IsNotFound(err):
		return metrics.NotFound
	case cards.IsTimeout(err):
		return metrics.TimedOut
	default:
		return metrics.Failed
	}
}

func uniqueNames(batch []*request) []string {
	seen := make(map[string]struct{}, len(batch))
	names := make([]string, 0, len(batch))
	for _, req := range batch {
		if _, ok := seen[req.name]; ok {
			continue
		}
		seen[req.name] = struct{}{}
		names = append(names, req.name)
	}
	return names
}
