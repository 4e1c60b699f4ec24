// Package jobs manages the in-memory lifecycle of extraction jobs: record
// keeping, retention, and the create/cancel orchestration around the
// extraction engine.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/daniel/group-extractor/internal/events"
	"github.com/daniel/group-extractor/internal/scraper"
)

// Status is the lifecycle state of a job. Transitions only move forward:
// running is the sole initial state and done/failed/canceled are terminal.
type Status string

const (
	StatusRunning  Status = "running"
	StatusDone     Status = "done"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s != StatusRunning
}

// Job is one extraction run held in memory. The bus is owned by the job but
// deliberately outlives its store entry, so a late publish from the engine
// after cancellation lands on a closed bus instead of a dangling pointer.
type Job struct {
	ID        string
	CreatedAt time.Time
	Bus       *events.Bus

	cancel context.CancelFunc

	mu       sync.Mutex
	status   Status
	artifact *scraper.Artifact
}

func newJob(id string, cancel context.CancelFunc) *Job {
	return &Job{
		ID:        id,
		CreatedAt: time.Now(),
		Bus:       events.NewBus(string(StatusRunning)),
		cancel:    cancel,
		status:    StatusRunning,
	}
}

// Status returns the current lifecycle state.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Artifact returns the produced result, or nil unless the job is done.
func (j *Job) Artifact() *scraper.Artifact {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.artifact
}

// finish moves the job into a terminal state exactly once. It returns false
// if the job already reached a terminal state, in which case art is
// discarded. The status invariant (never leaves a terminal state) lives here.
func (j *Job) finish(status Status, art *scraper.Artifact) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Terminal() {
		return false
	}
	j.status = status
	if status == StatusDone {
		j.artifact = art
	}
	j.Bus.SetStatus(string(status))
	return true
}

// cancelRun signals the engine's context. Cancellation is cooperative: an
// in-flight browser call is not interrupted, but the engine exits at its next
// checkpoint.
func (j *Job) cancelRun() {
	if j.cancel != nil {
		j.cancel()
	}
}
