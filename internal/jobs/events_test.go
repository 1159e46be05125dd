package jobs

import (
	"fmt"
	"testing"

	"media-normalizer/internal/domain"
)

// TestEventBusPublishAssignsSequence checks monotonic sequencing.
func TestEventBusPublishAssignsSequence(t *testing.T) {
	bus := NewEventBus(10)

	first := bus.Publish(Event{JobID: "a", Type: EventTypeStatus, Status: domain.JobStatusReceived})
	second := bus.Publish(Event{JobID: "a", Type: EventTypeStatus, Status: domain.JobStatusClassified})

	if first.Seq != 1 || second.Seq != 2 {
		t.Fatalf("seqs = %d, %d", first.Seq, second.Seq)
	}
	if first.Timestamp.IsZero() {
		t.Fatal("expected assigned timestamp")
	}
}

// TestEventBusSince checks incremental reads.
func TestEventBusSince(t *testing.T) {
	bus := NewEventBus(10)
	for i := 0; i < 5; i++ {
		bus.Publish(Event{JobID: "a", Type: EventTypeLog, Message: fmt.Sprintf("m%d", i)})
	}

	got := bus.Since(3)
	if len(got) != 2 {
		t.Fatalf("events = %d, want 2", len(got))
	}
	if got[0].Seq != 4 {
		t.Fatalf("first seq = %d, want 4", got[0].Seq)
	}
}

// TestEventBusForJob checks per-job filtering.
func TestEventBusForJob(t *testing.T) {
	bus := NewEventBus(10)
	bus.Publish(Event{JobID: "a", Type: EventTypeStatus})
	bus.Publish(Event{JobID: "b", Type: EventTypeStatus})
	bus.Publish(Event{JobID: "a", Type: EventTypeResult})

	got := bus.ForJob("a", 0)
	if len(got) != 2 {
		t.Fatalf("events = %d, want 2", len(got))
	}
	for _, event := range got {
		if event.JobID != "a" {
			t.Fatalf("job id = %q, want a", event.JobID)
		}
	}
}

// TestEventBusBoundedBuffer checks oldest events are trimmed.
func TestEventBusBoundedBuffer(t *testing.T) {
	bus := NewEventBus(3)
	for i := 0; i < 5; i++ {
		bus.Publish(Event{JobID: "a", Type: EventTypeLog})
	}

	got := bus.Since(0)
	if len(got) != 3 {
		t.Fatalf("events = %d, want 3", len(got))
	}
	if got[0].Seq != 3 {
		t.Fatalf("oldest seq = %d, want 3", got[0].Seq)
	}
}
