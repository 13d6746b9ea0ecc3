package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Kind identifies one class of outbound enrichment call. Requests of the
// same kind are issued FIFO with at least the configured interval between
// issuances; kinds do not pace each other.
type Kind string

const (
	KindTransaction Kind = "transaction"
	KindAssetBatch  Kind = "asset_batch"
)

// CallFunc performs the actual upstream request.
type CallFunc func(ctx context.Context) (interface{}, error)

// Outcome is the single resolution of a queued request. A failed call
// resolves with OK=false instead of an error so one bad enrichment never
// stalls the queue or its callers.
type Outcome struct {
	Value interface{}
	OK    bool
}

// Queue serializes outbound enrichment calls per kind.
type Queue struct {
	interval time.Duration
	clock    Clock
	logger   *logrus.Logger

	mu    sync.Mutex
	kinds map[Kind]*kindQueue

	ctx    context.Context
	cancel context.CancelFunc
}

type kindQueue struct {
	requests chan *request
	limiter  *rate.Limiter
	depth    atomic.Int64
}

type request struct {
	ctx    context.Context
	call   CallFunc
	result chan Outcome
}

type Config struct {
	Interval time.Duration
	Clock    Clock
	Logger   *logrus.Logger
}

func New(cfg Config) *Queue {
	if cfg.Clock == nil {
		cfg.Clock = RealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		interval: cfg.Interval,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		kinds:    make(map[Kind]*kindQueue),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Enqueue submits a call of the given kind and returns its single-resolution
// outcome channel. FIFO order is preserved within a kind.
func (q *Queue) Enqueue(ctx context.Context, kind Kind, call CallFunc) <-chan Outcome {
	kq := q.kindQueue(kind)

	req := &request{ctx: ctx, call: call, result: make(chan Outcome, 1)}
	kq.depth.Add(1)

	select {
	case kq.requests <- req:
	default:
		// Backlog full: resolve absent rather than blocking the caller.
		kq.depth.Add(-1)
		q.logger.WithField("kind", string(kind)).Warn("request queue full, dropping call")
		req.result <- Outcome{}
	}
	return req.result
}

// Depth reports the number of requests waiting or in flight for a kind.
func (q *Queue) Depth(kind Kind) int {
	q.mu.Lock()
	kq, ok := q.kinds[kind]
	q.mu.Unlock()
	if !ok {
		return 0
	}
	return int(kq.depth.Load())
}

// Close stops all workers. In-flight calls finish; queued calls resolve
// absent when their worker exits.
func (q *Queue) Close() {
	q.cancel()
}

func (q *Queue) kindQueue(kind Kind) *kindQueue {
	q.mu.Lock()
	defer q.mu.Unlock()

	kq, ok := q.kinds[kind]
	if !ok {
		kq = &kindQueue{
			requests: make(chan *request, 1024),
			limiter:  rate.NewLimiter(rate.Every(q.interval), 1),
		}
		q.kinds[kind] = kq
		go q.run(kind, kq)
	}
	return kq
}

func (q *Queue) run(kind Kind, kq *kindQueue) {
	for {
		select {
		case <-q.ctx.Done():
			q.drain(kq)
			return
		case req := <-kq.requests:
			q.issue(kind, kq, req)
			kq.depth.Add(-1)
		}
	}
}

func (q *Queue) issue(kind Kind, kq *kindQueue, req *request) {
	// Reserve against the per-kind limiter using the injected clock so the
	// interval spacing is deterministic under test.
	now := q.clock.Now()
	res := kq.limiter.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		q.clock.Sleep(req.ctx, delay)
	}

	if err := req.ctx.Err(); err != nil {
		req.result <- Outcome{}
		return
	}

	value, err := req.call(req.ctx)
	if err != nil {
		q.logger.WithError(err).WithField("kind", string(kind)).Warn("enrichment call failed")
		req.result <- Outcome{}
		return
	}
	req.result <- Outcome{Value: value, OK: true}
}

func (q *Queue) drain(kq *kindQueue) {
	for {
		select {
		case req := <-kq.requests:
			kq.depth.Add(-1)
			req.result <- Outcome{}
		default:
			return
		}
	}
}
