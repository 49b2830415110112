package notifiers

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/adradar-hq/ad-radar/internal/domain"
)

// recordingNotifier captures delivered events and can fail on demand.
type recordingNotifier struct {
	id  string
	err error

	mu     sync.Mutex
	events []Event
}

func (r *recordingNotifier) ID() string   { return r.id }
func (r *recordingNotifier) Type() string { return "recording" }

func (r *recordingNotifier) Notify(_ context.Context, evt Event) error {
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
	return r.err
}

func (r *recordingNotifier) delivered() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events
}

func testListing(platform, id string) domain.Listing {
	return domain.Listing{
		Platform: platform,
		ID:       id,
		URL:      "https://www." + platform + ".example/items/" + id,
		Title:    "item " + id,
		Price:    "10",
	}
}

func TestFanoutNotifyAll(t *testing.T) {
	a := &recordingNotifier{id: "a"}
	b := &recordingNotifier{id: "b"}
	fanout := NewFanout([]Notifier{a, nil, b})

	if fanout.Size() != 2 {
		t.Fatalf("Size() = %d, want 2 (nil dropped)", fanout.Size())
	}

	evt := NewEvent(testListing("olx", "1"))
	n, err := fanout.Notify(context.Background(), evt)
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if n != 2 {
		t.Fatalf("successful = %d, want 2", n)
	}
	if len(a.delivered()) != 1 || len(b.delivered()) != 1 {
		t.Fatal("both notifiers must receive the event")
	}
}

func TestFanoutAggregatesFailures(t *testing.T) {
	ok := &recordingNotifier{id: "ok"}
	bad := &recordingNotifier{id: "bad", err: errors.New("boom")}
	fanout := NewFanout([]Notifier{ok, bad})

	n, err := fanout.Notify(context.Background(), NewEvent(testListing("olx", "1")))
	if n != 1 {
		t.Fatalf("successful = %d, want 1", n)
	}
	if err == nil || !strings.Contains(err.Error(), "bad") {
		t.Fatalf("error should name the failing notifier: %v", err)
	}
	// A failing sink never blocks the healthy one.
	if len(ok.delivered()) != 1 {
		t.Fatal("healthy notifier must still be invoked")
	}
}

func TestFanoutDispatchPerListing(t *testing.T) {
	sink := &recordingNotifier{id: "sink"}
	fanout := NewFanout([]Notifier{sink})

	batch := []domain.Listing{
		testListing("olx", "1"),
		testListing("vinted", "2"),
	}
	if err := fanout.Dispatch(context.Background(), batch); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	events := sink.delivered()
	if len(events) != 2 {
		t.Fatalf("delivered %d events, want 2", len(events))
	}
	if events[0].Platform != "olx" || events[1].Platform != "vinted" {
		t.Fatalf("platform tags lost: %+v", events)
	}
	if events[0].CollectedAt.IsZero() {
		t.Fatal("events must carry a collection timestamp")
	}
}

func TestFanoutDispatchContinuesPastFailures(t *testing.T) {
	flaky := &recordingNotifier{id: "flaky", err: errors.New("downstream unavailable")}
	fanout := NewFanout([]Notifier{flaky})

	batch := []domain.Listing{testListing("olx", "1"), testListing("olx", "2")}
	err := fanout.Dispatch(context.Background(), batch)
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if len(flaky.delivered()) != 2 {
		t.Fatalf("delivered %d events, want 2 (no short-circuit)", len(flaky.delivered()))
	}
}

// closableNotifier is a recordingNotifier that owns a releasable resource.
type closableNotifier struct {
	recordingNotifier
	closeErr error
	closed   bool
}

func (c *closableNotifier) Close() error {
	c.closed = true
	return c.closeErr
}

// Connection-owning sinks must expose a release path for Fanout.Close.
var (
	_ io.Closer = (*amqpNotifier)(nil)
	_ io.Closer = (*pubsubNotifier)(nil)
)

func TestFanoutCloseReleasesOwnedResources(t *testing.T) {
	plain := &recordingNotifier{id: "plain"}
	owned := &closableNotifier{recordingNotifier: recordingNotifier{id: "owned"}}
	fanout := NewFanout([]Notifier{plain, owned})

	if err := fanout.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !owned.closed {
		t.Fatal("closable notifier was not closed")
	}
}

func TestFanoutCloseAggregatesFailures(t *testing.T) {
	bad := &closableNotifier{
		recordingNotifier: recordingNotifier{id: "bad"},
		closeErr:          errors.New("connection reset"),
	}
	ok := &closableNotifier{recordingNotifier: recordingNotifier{id: "ok"}}
	fanout := NewFanout([]Notifier{bad, ok})

	err := fanout.Close()
	if err == nil || !strings.Contains(err.Error(), "bad") {
		t.Fatalf("error should name the failing notifier: %v", err)
	}
	// One failure never leaks the other connection.
	if !ok.closed {
		t.Fatal("healthy notifier must still be closed")
	}
}

func TestFanoutEmpty(t *testing.T) {
	fanout := NewFanout(nil)
	n, err := fanout.Notify(context.Background(), NewEvent(testListing("olx", "1")))
	if n != 0 || err != nil {
		t.Fatalf("empty fanout: %d, %v", n, err)
	}
	if err := fanout.Dispatch(context.Background(), []domain.Listing{testListing("olx", "1")}); err != nil {
		t.Fatalf("empty Dispatch: %v", err)
	}
}
