// Package effects runs best-effort follow-up work after a transition has
// committed: audit entries, real-time notifications, outbound email. The
// transition is the source of truth; everything here is advisory and must
// never block or fail the triggering request.
package effects

import (
	"context"
	"sync"
	"time"

	"proposal-management-api/internal/logging"
)

type Effect struct {
	Kind string
	Run  func(ctx context.Context) error
}

type Dispatcher struct {
	log     logging.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(log logging.Logger) *Dispatcher {
	return &Dispatcher{
		log:     log,
		timeout: 30 * time.Second,
	}
}

// Dispatch starts every effect on its own goroutine and returns immediately.
// Each effect gets its own error boundary: a failure or panic in one is
// logged and cannot touch its siblings or roll back the committed transition.
// Effects run on a background context so a cancelled request context cannot
// abort them mid-flight.
func (d *Dispatcher) Dispatch(effects ...Effect) {
	for _, e := range effects {
		d.wg.Add(1)
		go func(e Effect) {
			defer d.wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			defer cancel()

			defer func() {
				if r := recover(); r != nil {
					d.log.Error(ctx, "side effect panicked", "kind", e.Kind, "panic", r)
				}
			}()

			if err := e.Run(ctx); err != nil {
				d.log.Error(ctx, "side effect failed", "kind", e.Kind, "error", err)
			}
		}(e)
	}
}

// Wait blocks until in-flight effects finish or ctx expires. Used only
// during shutdown.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
