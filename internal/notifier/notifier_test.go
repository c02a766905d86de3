package notifier

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_SubscribeRelease(t *testing.T) {
	n := New()

	ch, release := n.Subscribe()
	require.NotNil(t, ch)
	assert.Equal(t, 1, n.Listeners())

	release()
	assert.Equal(t, 0, n.Listeners())

	_, ok := <-ch
	assert.False(t, ok, "released channel is closed")

	// Releasing twice is harmless
	release()
}

func TestNotifier_Broadcast(t *testing.T) {
	n := New()

	ch1, release1 := n.Subscribe()
	ch2, release2 := n.Subscribe()
	defer release1()
	defer release2()

	n.Broadcast()

	select {
	case <-ch1:
	case <-time.After(100 * time.Millisecond):
		t.Error("ch1 did not receive broadcast")
	}

	select {
	case <-ch2:
	case <-time.After(100 * time.Millisecond):
		t.Error("ch2 did not receive broadcast")
	}
}

func TestNotifier_Broadcast_NonBlocking(t *testing.T) {
	n := New()

	_, release := n.Subscribe()
	defer release()

	// The first broadcast fills the buffer, the second must not block
	done := make(chan struct{})
	go func() {
		n.Broadcast()
		n.Broadcast()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Error("Broadcast blocked on full channel")
	}
}

func TestNotifier_Close(t *testing.T) {
	n := New()
	ch, release := n.Subscribe()

	n.Close()
	n.Close()

	_, ok := <-ch
	assert.False(t, ok, "listener channel closed")
	assert.Equal(t, 0, n.Listeners())
	release()

	late, lateRelease := n.Subscribe()
	_, ok = <-late
	assert.False(t, ok, "subscription after close is already closed")
	lateRelease()

	// Broadcast after close is a no-op
	n.Broadcast()
}

func TestNotifier_Concurrent(t *testing.T) {
	n := New()

	var wg sync.WaitGroup
	const numGoroutines = 10

	for range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, release := n.Subscribe()
			n.Broadcast()
			release()
		}()
	}

	wg.Wait()
	assert.Equal(t, 0, n.Listeners())
}
