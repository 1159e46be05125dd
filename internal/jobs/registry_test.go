package jobs

import (
	"errors"
	"testing"
	"time"

	"media-normalizer/internal/domain"
)

// TestRegistryAudioLifecycle verifies the conversion progression.
func TestRegistryAudioLifecycle(t *testing.T) {
	r := NewRegistry(time.Hour)
	job := r.Create()

	if job.Status != domain.JobStatusReceived {
		t.Fatalf("status = %s, want received", job.Status)
	}

	for _, status := range []domain.JobStatus{
		domain.JobStatusClassified,
		domain.JobStatusConverting,
		domain.JobStatusCompleted,
	} {
		if err := r.Transition(job.ID, status); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}

	got, ok := r.Get(job.ID)
	if !ok {
		t.Fatal("job missing after lifecycle")
	}
	if got.Status != domain.JobStatusCompleted {
		t.Fatalf("status = %s, want completed", got.Status)
	}
	if got.FinishedAt.IsZero() {
		t.Fatal("expected finished timestamp")
	}
}

// TestRegistryRenderLifecycle verifies the rendering progression.
func TestRegistryRenderLifecycle(t *testing.T) {
	r := NewRegistry(time.Hour)
	job := r.Create()

	for _, status := range []domain.JobStatus{
		domain.JobStatusClassified,
		domain.JobStatusRendering,
		domain.JobStatusCompleted,
	} {
		if err := r.Transition(job.ID, status); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}
}

// TestRegistryRejectsInvalidTransition checks state machine constraints.
func TestRegistryRejectsInvalidTransition(t *testing.T) {
	r := NewRegistry(time.Hour)
	job := r.Create()

	if err := r.Transition(job.ID, domain.JobStatusCompleted); err == nil {
		t.Fatal("expected invalid transition error")
	}
	if err := r.Transition(job.ID, domain.JobStatusConverting); err == nil {
		t.Fatal("expected invalid transition error for skipped classification")
	}
}

// TestRegistryFailPreservesError checks error kind and cause capture.
func TestRegistryFailPreservesError(t *testing.T) {
	r := NewRegistry(time.Hour)
	job := r.Create()

	cause := &domain.ClassificationError{Cause: "input is empty"}
	if err := r.Fail(job.ID, cause); err != nil {
		t.Fatalf("fail: %v", err)
	}

	got, _ := r.Get(job.ID)
	if got.Status != domain.JobStatusFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
	if got.ErrorKind != domain.ErrorKindClassification {
		t.Fatalf("kind = %s", got.ErrorKind)
	}
	if got.ErrorCause != "input is empty" {
		t.Fatalf("cause = %q", got.ErrorCause)
	}

	if err := r.Fail(job.ID, cause); err == nil {
		t.Fatal("expected error failing a terminal job")
	}
}

// TestRegistryUnknownJob checks not-found handling.
func TestRegistryUnknownJob(t *testing.T) {
	r := NewRegistry(time.Hour)

	if err := r.Transition("missing", domain.JobStatusClassified); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("error = %v, want ErrJobNotFound", err)
	}
	if _, ok := r.Get("missing"); ok {
		t.Fatal("expected missing job")
	}
}

// TestRegistrySweep checks retention-based eviction of finished jobs.
func TestRegistrySweep(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	r := NewRegistryForTests(10*time.Minute, clock)

	finished := r.Create()
	if err := r.Fail(finished.ID, errors.New("boom")); err != nil {
		t.Fatalf("fail: %v", err)
	}
	running := r.Create()

	now = now.Add(11 * time.Minute)
	if removed := r.Sweep(); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	if _, ok := r.Get(finished.ID); ok {
		t.Fatal("finished job should be evicted")
	}
	if _, ok := r.Get(running.ID); !ok {
		t.Fatal("running job must survive sweeps")
	}
}

// TestRegistryActive counts only non-terminal jobs.
func TestRegistryActive(t *testing.T) {
	r := NewRegistry(time.Hour)
	first := r.Create()
	r.Create()

	if err := r.Fail(first.ID, errors.New("boom")); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if got := r.Active(); got != 1 {
		t.Fatalf("active = %d, want 1", got)
	}
}
