package keys

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Rotator cycles through a pool of upstream API keys. Rotation happens on a
// wall-clock ticker and whenever the per-key call count crosses the
// configured threshold. Every rotation emits a signal so the stream manager
// can re-handshake with the new key; the websocket binds the key at dial
// time, so an in-place swap is not possible.
type Rotator struct {
	mu        sync.Mutex
	pool      []string
	index     int
	callCount int

	threshold int
	interval  time.Duration

	rotated chan struct{}
	logger  *logrus.Logger
}

type RotatorConfig struct {
	Keys          []string
	CallThreshold int
	Interval      time.Duration
	Logger        *logrus.Logger
}

func NewRotator(cfg RotatorConfig) (*Rotator, error) {
	if len(cfg.Keys) == 0 {
		return nil, fmt.Errorf("key pool is empty")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Rotator{
		pool:      cfg.Keys,
		threshold: cfg.CallThreshold,
		interval:  cfg.Interval,
		rotated:   make(chan struct{}, 1),
		logger:    cfg.Logger,
	}, nil
}

// CurrentKey returns the active credential.
func (r *Rotator) CurrentKey() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pool[r.index]
}

// NoteCall records one outbound call against the active key and rotates
// once the threshold is reached.
func (r *Rotator) NoteCall() {
	r.mu.Lock()
	r.callCount++
	rotate := r.threshold > 0 && r.callCount >= r.threshold
	if rotate {
		r.advanceLocked("call threshold")
	}
	r.mu.Unlock()

	if rotate {
		r.signal()
	}
}

// Rotated delivers one signal per rotation. The channel is buffered with
// depth 1; coalesced signals are fine since the consumer reconnects either
// way.
func (r *Rotator) Rotated() <-chan struct{} {
	return r.rotated
}

// Start runs the timer-based rotation until ctx is cancelled.
func (r *Rotator) Start(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.mu.Lock()
			r.advanceLocked("interval")
			r.mu.Unlock()
			r.signal()
		}
	}
}

// PoolSize returns the number of keys in the pool.
func (r *Rotator) PoolSize() int {
	return len(r.pool)
}

func (r *Rotator) advanceLocked(reason string) {
	r.index = (r.index + 1) % len(r.pool)
	r.callCount = 0
	r.logger.WithFields(logrus.Fields{
		"index":  r.index,
		"reason": reason,
	}).Info("rotated API key")
}

func (r *Rotator) signal() {
	select {
	case r.rotated <- struct{}{}:
	default:
	}
}
