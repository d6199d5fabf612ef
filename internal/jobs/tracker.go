// Package jobs enforces the job lifecycle contract: queued -> running ->
// {completed | failed}, with monotonically non-decreasing progress and
// exactly-once terminal transitions.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/blog-agent/internal/db"
)

// Transition errors returned by the Tracker.
var (
	// ErrTerminal is returned by any transition attempted after the job has
	// reached completed or failed.
	ErrTerminal = errors.New("job is in a terminal state")
	// ErrNotRunning is returned when a transition requires the running state.
	ErrNotRunning = errors.New("job is not running")
	// ErrNotQueued is returned when Start is called on a job already started.
	ErrNotQueued = errors.New("job is not queued")
	// ErrProgressRegression is returned when a progress report is lower than
	// the last reported value.
	ErrProgressRegression = errors.New("progress must be non-decreasing")
)

// Store is the persistence surface the Tracker mutates. Each call must apply
// its update atomically so concurrent readers see consistent snapshots.
type Store interface {
	UpdateJobStatus(ctx context.Context, id uuid.UUID, status db.JobStatus, progress *int, phase *string, errMsg *string) error
	SetJobVideoID(ctx context.Context, id uuid.UUID, videoID string) error
}

// Tracker is the single writer for one job record. All status mutation during
// execution goes through it, so the lifecycle invariants are enforced in one
// place regardless of the storage engine behind Store.
type Tracker struct {
	store Store
	jobID uuid.UUID

	mu       sync.Mutex
	status   db.JobStatus
	progress int
}

// NewTracker creates a tracker for a job, seeded from its current record.
func NewTracker(store Store, job *db.Job) *Tracker {
	return &Tracker{
		store:    store,
		jobID:    job.ID,
		status:   job.Status,
		progress: job.Progress,
	}
}

// Start transitions the job from queued to running with progress reset to 0.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status.Terminal() {
		return ErrTerminal
	}
	if t.status != db.JobStatusQueued {
		return fmt.Errorf("%w: status is %s", ErrNotQueued, t.status)
	}

	progress := 0
	if err := t.store.UpdateJobStatus(ctx, t.jobID, db.JobStatusRunning, &progress, nil, nil); err != nil {
		return err
	}
	t.status = db.JobStatusRunning
	t.progress = 0
	return nil
}

// Progress reports a new progress value with an optional phase label. Values
// below the last reported progress are rejected; equal values are allowed so
// a phase label can change without advancing.
func (t *Tracker) Progress(ctx context.Context, progress int, phase string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status.Terminal() {
		return ErrTerminal
	}
	if t.status != db.JobStatusRunning {
		return fmt.Errorf("%w: status is %s", ErrNotRunning, t.status)
	}
	if progress < t.progress {
		return fmt.Errorf("%w: %d < %d", ErrProgressRegression, progress, t.progress)
	}
	if progress > 100 {
		progress = 100
	}

	var phasePtr *string
	if phase != "" {
		phasePtr = &phase
	}
	if err := t.store.UpdateJobStatus(ctx, t.jobID, db.JobStatusRunning, &progress, phasePtr, nil); err != nil {
		return err
	}
	t.progress = progress
	return nil
}

// SetVideoID records the resolved video id on the job record.
func (t *Tracker) SetVideoID(ctx context.Context, videoID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status.Terminal() {
		return ErrTerminal
	}
	return t.store.SetJobVideoID(ctx, t.jobID, videoID)
}

// Complete transitions the job from running to completed with progress forced
// to 100. The caller must have persisted the document first.
func (t *Tracker) Complete(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status.Terminal() {
		return ErrTerminal
	}
	if t.status != db.JobStatusRunning {
		return fmt.Errorf("%w: status is %s", ErrNotRunning, t.status)
	}

	progress := 100
	if err := t.store.UpdateJobStatus(ctx, t.jobID, db.JobStatusCompleted, &progress, nil, nil); err != nil {
		return err
	}
	t.status = db.JobStatusCompleted
	t.progress = 100
	return nil
}

// Fail transitions the job from running to failed with a human-readable cause.
// Progress is left at its last reported value.
func (t *Tracker) Fail(ctx context.Context, cause string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status.Terminal() {
		return ErrTerminal
	}
	if t.status != db.JobStatusRunning {
		return fmt.Errorf("%w: status is %s", ErrNotRunning, t.status)
	}
	if cause == "" {
		cause = "unknown error"
	}

	if err := t.store.UpdateJobStatus(ctx, t.jobID, db.JobStatusFailed, nil, nil, &cause); err != nil {
		return err
	}
	t.status = db.JobStatusFailed
	return nil
}

// Snapshot returns the tracker's view of the job's status and progress.
func (t *Tracker) Snapshot() (db.JobStatus, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status, t.progress
}
