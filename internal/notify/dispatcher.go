package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sender delivers one message
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Dispatcher sends messages on background goroutines and logs failures instead of returning them
type Dispatcher struct {
	mu      sync.RWMutex
	sender  Sender
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewDispatcher wraps sender. A nil sender drops every message.
func NewDispatcher(sender Sender, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		sender:  sender,
		timeout: defaultSendTimeout,
		logger:  logger.Named("notify"),
	}
}

// SetSender swaps the sender for messages queued from now on
func (d *Dispatcher) SetSender(sender Sender) {
	d.mu.Lock()
	d.sender = sender
	d.mu.Unlock()
}

// Notify queues message and returns immediately
func (d *Dispatcher) Notify(message string) {
	d.mu.RLock()
	sender := d.sender
	d.mu.RUnlock()
	if sender == nil {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		err := sender.Send(ctx, message)
		switch {
		case err == nil:
			d.logger.Info("notification sent")
		case errors.Is(err, ErrNotConfigured):
			d.logger.Debug("notification skipped, telegram not configured")
		default:
			d.logger.Warn("notification failed", zap.Error(err))
		}
	}()
}

// Wait blocks until every queued message has been handled or ctx is done
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
