package engine

import (
	"context"
	"sync"
	"sync/atomic"
)

// Mailbox is an executor that runs work on its own goroutine and queues the
// completion for the owner goroutine. The owner runs completions with Next,
// Drain, or by receiving from C and calling the function it gets.
type Mailbox struct {
	ch        chan func()
	done      chan struct{}
	closeOnce sync.Once
	pending   atomic.Int64
}

// NewMailbox creates a mailbox whose queue holds size completions before
// workers block.
func NewMailbox(size int) *Mailbox {
	if size < 1 {
		size = 1
	}
	return &Mailbox{ch: make(chan func(), size), done: make(chan struct{})}
}

// Submit starts work on a new goroutine. After Close, finished work is
// dropped instead of waiting for a reader that is gone.
func (m *Mailbox) Submit(work func() (complete func())) {
	m.pending.Add(1)
	go func() {
		complete := work()
		select {
		case m.ch <- func() {
			m.pending.Add(-1)
			if complete != nil {
				complete()
			}
		}:
		case <-m.done:
			m.pending.Add(-1)
		}
	}()
}

// Close tells workers the owner has stopped draining. Safe to call twice.
func (m *Mailbox) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

// C exposes the completion queue for select loops. Each received function
// must be called on the owner goroutine.
func (m *Mailbox) C() <-chan func() { return m.ch }

// Next blocks until a completion is available and runs it
func (m *Mailbox) Next(ctx context.Context) error {
	select {
	case complete := <-m.ch:
		complete()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain runs every completion already queued, without blocking, and returns
// how many ran.
func (m *Mailbox) Drain() int {
	n := 0
	for {
		select {
		case complete := <-m.ch:
			complete()
			n++
		default:
			return n
		}
	}
}

// Pending reports submitted work whose completion has not run yet
func (m *Mailbox) Pending() int { return int(m.pending.Load()) }
