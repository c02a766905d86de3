package workbench

import (
	"context"
	"errors"
	"sync"

	"github.com/leapstack-labs/harmonize/internal/status"
)

var (
	// ErrBusy is returned when a request is already outstanding on a channel.
	ErrBusy = errors.New("a request is already in progress")

	// ErrClosed is returned once the workbench has been closed.
	ErrClosed = errors.New("workbench is closed")
)

// Phase is the request state of a channel.
type Phase int

// Channel phases.
const (
	Idle Phase = iota
	Submitting
)

func (p Phase) String() string {
	if p == Submitting {
		return "submitting"
	}
	return "idle"
}

// Channel is a single-flight request lane with its own status rotation.
//
// Begin moves Idle to Submitting and starts the status scheduler; End moves
// back to Idle and stops it. A second Begin while Submitting fails with
// ErrBusy rather than queueing.
type Channel struct {
	name   string
	status *status.Scheduler

	mu     sync.Mutex
	phase  Phase
	cancel context.CancelFunc
	closed bool
}

func newChannel(name string, sched *status.Scheduler) *Channel {
	return &Channel{name: name, status: sched}
}

// Name returns the channel name used in logs.
func (c *Channel) Name() string {
	return c.name
}

// Begin claims the channel. The returned context is cancelled by End or Close.
func (c *Channel) Begin(parent context.Context) (context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if c.phase == Submitting {
		return nil, ErrBusy
	}

	ctx, cancel := context.WithCancel(parent)
	c.phase = Submitting
	c.cancel = cancel
	c.status.Start(ctx)
	return ctx, nil
}

// End releases the channel. It is safe to call when the channel is idle.
func (c *Channel) End() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.phase = Idle
	c.status.Stop()
}

// Close cancels any request in flight and refuses further Begin calls.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	c.status.Stop()
}

// Phase returns the current phase.
func (c *Channel) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Busy reports whether a request is outstanding.
func (c *Channel) Busy() bool {
	return c.Phase() == Submitting
}

// StatusMessage returns the rotating message while busy, or "".
func (c *Channel) StatusMessage() string {
	if !c.Busy() {
		return ""
	}
	return c.status.Current()
}
