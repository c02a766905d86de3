// Package status rotates progress messages while a request is outstanding.
package status

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is how long each message is shown.
const DefaultInterval = 6 * time.Second

// ticker is the part of *time.Ticker the scheduler uses.
type ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func newRealTicker(d time.Duration) ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Scheduler cycles through a fixed list of messages on a timer.
//
// It is inert until Start and after Stop. Each tick advances the index by one,
// modulo the number of messages, and reports the new message to OnChange.
// A Scheduler may be started again after it was stopped.
type Scheduler struct {
	messages []string
	interval time.Duration

	// newTicker is swapped in tests.
	newTicker func(time.Duration) ticker

	mu       sync.Mutex
	index    int
	running  bool
	cancel   context.CancelFunc
	done     chan struct{}
	onChange func(index int, message string)
}

// New creates a scheduler. A non-positive interval selects DefaultInterval.
func New(messages []string, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	msgs := make([]string, len(messages))
	copy(msgs, messages)
	return &Scheduler{
		messages:  msgs,
		interval:  interval,
		newTicker: newRealTicker,
	}
}

// OnChange registers fn to be called after every advance.
// fn runs on the scheduler goroutine and must not call Stop.
func (s *Scheduler) OnChange(fn func(index int, message string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Interval returns the rotation period.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Messages returns a copy of the message list.
func (s *Scheduler) Messages() []string {
	out := make([]string, len(s.messages))
	copy(out, s.messages)
	return out
}

// Start resets the index to 0 and begins rotating. A running scheduler is
// restarted. Cancelling ctx stops the rotation as Stop would.
func (s *Scheduler) Start(ctx context.Context) {
	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.index = 0
	if len(s.messages) == 0 {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.running = true
	s.cancel = cancel
	s.done = done

	go s.run(runCtx, s.newTicker(s.interval), done)
}

// Stop halts the rotation and waits for the ticker goroutine to exit.
// Calling Stop on a scheduler that is not running does nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		done := s.done
		s.mu.Unlock()
		// The parent context may have ended the run already; make sure its
		// goroutine is gone before returning.
		if done != nil {
			<-done
		}
		return
	}
	s.running = false
	s.cancel()
	done := s.done
	s.mu.Unlock()

	<-done
}

// Running reports whether the scheduler is rotating.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Index returns the current message index.
func (s *Scheduler) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Current returns the current message, or "" when there are none.
func (s *Scheduler) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return ""
	}
	return s.messages[s.index]
}

func (s *Scheduler) run(ctx context.Context, t ticker, done chan struct{}) {
	defer close(done)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			if s.done == done {
				s.running = false
			}
			s.mu.Unlock()
			return
		case <-t.C():
			s.mu.Lock()
			if ctx.Err() != nil {
				s.mu.Unlock()
				continue
			}
			s.index = (s.index + 1) % len(s.messages)
			idx, msg, fn := s.index, s.messages[s.index], s.onChange
			s.mu.Unlock()

			if fn != nil {
				fn(idx, msg)
			}
		}
	}
}
