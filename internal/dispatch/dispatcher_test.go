package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hud203/leadengine/internal/models"
)

// stubSink records deliveries and optionally fails every one of them.
// Safe for concurrent use so multi-worker tests stay race-free.
type stubSink struct {
	name string
	fail bool

	mu        sync.Mutex
	delivered []models.Event
}

func (s *stubSink) Name() string { return s.name }

func (s *stubSink) Deliver(ctx context.Context, event models.Event) error {
	if s.fail {
		return errors.New("sink exploded")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = append(s.delivered, event)
	return nil
}

func (s *stubSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delivered)
}

func testEvent(name string) models.Event {
	return models.Event{
		Name:      name,
		Category:  "conversion",
		Action:    "test_action",
		Timestamp: time.Now(),
	}
}

func TestDispatchFansOutToAllSinks(t *testing.T) {
	first := &stubSink{name: "first"}
	second := &stubSink{name: "second"}

	d := New(10, 1, false, zerolog.Nop())
	d.Register(first)
	d.Register(second)

	d.Dispatch(context.Background(), testEvent("newsletter_signup"))

	assert.Len(t, first.delivered, 1)
	assert.Len(t, second.delivered, 1)
}

func TestDispatchIsolatesSinkFailures(t *testing.T) {
	// A failing sink must not block delivery to the sinks after it
	failing := &stubSink{name: "failing", fail: true}
	healthy := &stubSink{name: "healthy"}

	d := New(10, 1, false, zerolog.Nop())
	d.Register(failing)
	d.Register(healthy)

	d.Dispatch(context.Background(), testEvent("contact_request"))

	require.Len(t, healthy.delivered, 1)
	assert.Equal(t, "contact_request", healthy.delivered[0].Name)
}

func TestUnconfiguredSinkConstructorsReturnNil(t *testing.T) {
	// Missing settings disable an integration entirely; the server only
	// registers non-nil constructors
	assert.Nil(t, NewGASink("", "", ""))
	assert.Nil(t, NewGASink("G-123", "", ""))
	assert.Nil(t, NewPixelSink("", "", ""))
	assert.Nil(t, NewWebhookSink(""))
}

func TestTrackDropsWhenBufferFull(t *testing.T) {
	// One-slot buffer, no workers draining it: the second Track must drop
	// instead of blocking
	d := New(1, 0, false, zerolog.Nop())
	done := make(chan struct{})
	go func() {
		d.Track(testEvent("a"))
		d.Track(testEvent("b"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Track blocked on a full buffer")
	}
}

func TestWorkersDrainChannel(t *testing.T) {
	sink := &stubSink{name: "collector"}
	d := New(10, 2, false, zerolog.Nop())
	d.Register(sink)
	d.Start()

	for i := 0; i < 5; i++ {
		d.Track(testEvent("page_view"))
	}
	d.Close()

	assert.Equal(t, 5, sink.count())
}
