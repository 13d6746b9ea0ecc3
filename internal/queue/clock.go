package queue

import (
	"context"
	"time"
)

// Clock abstracts wall time so the queue's pacing can be tested without
// real delays.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// RealClock returns the wall-clock implementation used in production.
func RealClock() Clock { return realClock{} }
