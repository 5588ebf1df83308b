// Package notify sends best-effort text notifications about orders.
package notify

import (
	"context"
	"io"
	"log"
	"sync"
	"time"
)

// Notifier delivers one message to one destination, typically a phone number.
type Notifier interface {
	Notify(ctx context.Context, destination, message string) error
}

// Log writes messages to a logger instead of sending them.
type Log struct {
	Logger *log.Logger
}

func (l Log) Notify(_ context.Context, destination, message string) error {
	if l.Logger != nil {
		l.Logger.Printf("notify: to=%s message=%q", destination, message)
	}
	return nil
}

// Noop drops every message.
type Noop struct{}

func (Noop) Notify(context.Context, string, string) error { return nil }

// Dispatcher sends notifications in the background. Failures are logged and
// never reach the caller.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	logger   *log.Logger
	wg       sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewDispatcher(notifier Notifier, timeout time.Duration, logger *log.Logger) *Dispatcher {
	if notifier == nil {
		notifier = Noop{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Dispatcher{notifier: notifier, timeout: timeout, logger: logger}
}

// Dispatch schedules a send and returns immediately. Empty destinations are
// skipped, as is everything dispatched once Wait has been called.
func (d *Dispatcher) Dispatch(destination, message string) {
	if destination == "" {
		d.logger.Printf("notify: skipped, no destination")
		return
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Printf("notify: dropped after shutdown to=%s", destination)
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.notifier.Notify(ctx, destination, message); err != nil {
			d.logger.Printf("notify: send to=%s error=%v", destination, err)
		}
	}()
}

// Wait stops accepting new sends and blocks until every dispatched send has
// finished.
func (d *Dispatcher) Wait() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}
