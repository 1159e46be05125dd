// Package jobs tracks concurrent normalization jobs through their lifecycle
// state machine and retains finished jobs for a bounded period.
package jobs

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"media-normalizer/internal/domain"
)

// ErrJobNotFound is returned for operations on unknown job ids.
var ErrJobNotFound = errors.New("job not found")

// Registry tracks all live jobs keyed by id. Jobs are independent; the
// registry provides no cross-job ordering.
type Registry struct {
	mu        sync.RWMutex
	jobs      map[string]*domain.Job
	retention time.Duration
	now       func() time.Time
}

// NewRegistry creates an empty registry with the given finished-job retention.
func NewRegistry(retention time.Duration) *Registry {
	return &Registry{
		jobs:      make(map[string]*domain.Job),
		retention: retention,
		now:       time.Now,
	}
}

// Create registers a new job in received state and returns a snapshot.
func (r *Registry) Create() domain.Job {
	job := &domain.Job{
		ID:        uuid.NewString(),
		Status:    domain.JobStatusReceived,
		CreatedAt: r.now().UTC(),
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()

	return *job
}

// Transition validates and applies one state machine edge.
func (r *Registry) Transition(id string, status domain.JobStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if job.Status == status {
		return nil
	}
	if !isValidTransition(job.Status, status) {
		return fmt.Errorf("invalid transition: %s -> %s", job.Status, status)
	}

	job.Status = status
	if status.Terminal() {
		job.FinishedAt = r.now().UTC()
	}
	return nil
}

// SetClassification records the classifier outcome on a job.
func (r *Registry) SetClassification(id string, c domain.Classification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.Classification = c
	return nil
}

// Fail moves a job to failed and preserves the originating error.
func (r *Registry) Fail(id string, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if job.Status.Terminal() {
		return fmt.Errorf("invalid transition: %s -> %s", job.Status, domain.JobStatusFailed)
	}

	job.Status = domain.JobStatusFailed
	job.ErrorKind = domain.KindOf(cause)
	job.ErrorCause = domain.CauseOf(cause)
	job.FinishedAt = r.now().UTC()
	return nil
}

// Get returns a snapshot of one job.
func (r *Registry) Get(id string) (domain.Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return domain.Job{}, false
	}
	return *job, true
}

// Active counts jobs that have not reached a terminal state.
func (r *Registry) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, job := range r.jobs {
		if !job.Status.Terminal() {
			count++
		}
	}
	return count
}

// Sweep removes finished jobs older than the retention period and reports
// how many were evicted.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().UTC().Add(-r.retention)
	removed := 0
	for id, job := range r.jobs {
		if job.Status.Terminal() && job.FinishedAt.Before(cutoff) {
			delete(r.jobs, id)
			removed++
		}
	}
	return removed
}

// isValidTransition enforces the allowed job state machine edges.
func isValidTransition(from, to domain.JobStatus) bool {
	switch from {
	case domain.JobStatusReceived:
		return to == domain.JobStatusClassified || to == domain.JobStatusFailed
	case domain.JobStatusClassified:
		return to == domain.JobStatusConverting || to == domain.JobStatusRendering || to == domain.JobStatusFailed
	case domain.JobStatusConverting, domain.JobStatusRendering:
		return to == domain.JobStatusCompleted || to == domain.JobStatusFailed
	default:
		return false
	}
}

// NewRegistryForTests creates a registry with an injectable clock.
func NewRegistryForTests(retention time.Duration, now func() time.Time) *Registry {
	return &Registry{
		jobs:      make(map[string]*domain.Job),
		retention: retention,
		now:       now,
	}
}
