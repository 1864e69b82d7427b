package notify

import (
	"context"
	"sync"
	"time"

	"github.com/josh-kwaku/heritage-ledger/internal/logging"
)

// Async sends through next on a background goroutine. Failures are logged
// and never reported to the caller.
type Async struct {
	next    Dispatcher
	timeout time.Duration
	wg      sync.WaitGroup
}

var _ Dispatcher = (*Async)(nil)

func NewAsync(next Dispatcher, timeout time.Duration) *Async {
	return &Async{next: next, timeout: timeout}
}

func (a *Async) SendDebitAlert(ctx context.Context, alert Alert) error {
	a.goSend(ctx, KindDebitAlert, func(ctx context.Context) error {
		return a.next.SendDebitAlert(ctx, alert)
	})
	return nil
}

func (a *Async) SendCreditAlert(ctx context.Context, alert Alert) error {
	a.goSend(ctx, KindCreditAlert, func(ctx context.Context) error {
		return a.next.SendCreditAlert(ctx, alert)
	})
	return nil
}

func (a *Async) SendAuthCode(ctx context.Context, code AuthCode) error {
	a.goSend(ctx, KindAuthCode, func(ctx context.Context) error {
		return a.next.SendAuthCode(ctx, code)
	})
	return nil
}

// Wait blocks until in-flight sends finish or ctx is done.
func (a *Async) Wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (a *Async) goSend(parent context.Context, kind Kind, send func(context.Context) error) {
	// detach from the request so a finished response does not cancel the send
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), a.timeout)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer cancel()
		if err := send(ctx); err != nil {
			logging.FromContext(ctx).Warn("notification dispatch failed", "kind", kind, "error", err)
		}
	}()
}
