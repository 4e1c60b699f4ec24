package jobs

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/daniel/group-extractor/internal/events"
	"github.com/daniel/group-extractor/internal/scraper"
)

// ErrNotFound is returned when a job ID does not resolve to a live,
// still-cancellable job.
var ErrNotFound = errors.New("job not found")

// RunFunc runs one extraction to completion, publishing progress on bus. The
// scraper's Engine.Run satisfies it; tests substitute stubs.
type RunFunc func(ctx context.Context, p scraper.Params, bus *events.Bus) (*scraper.Artifact, error)

// Manager creates jobs, launches the extraction engine in the background, and
// orchestrates cancellation and retention.
type Manager struct {
	store     *Store
	run       RunFunc
	retention time.Duration
}

// NewManager wires a manager over the given store and run function.
// retention is how long a finished job's artifact stays retrievable.
func NewManager(store *Store, run RunFunc, retention time.Duration) *Manager {
	return &Manager{store: store, run: run, retention: retention}
}

// Start registers a new job and launches the extraction engine
// asynchronously. The job ID is returned before extraction begins so callers
// can attach a streaming transport immediately.
func (m *Manager) Start(p scraper.Params) string {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	job := newJob(id, cancel)
	m.store.Put(job)

	log.Printf("[jobs] starting job %s: %s", id, p.TargetURL)
	go m.execute(ctx, job, p)

	return id
}

// Get exposes store lookup for the HTTP layer.
func (m *Manager) Get(id string) (*Job, bool) {
	return m.store.Get(id)
}

// Cancel marks the job canceled, publishes a terminal error on its bus, and
// evicts the record immediately. Jobs that are finished, already canceled, or
// unknown report ErrNotFound; nothing is freed twice.
func (m *Manager) Cancel(id string) error {
	job, ok := m.store.Get(id)
	if !ok {
		return ErrNotFound
	}
	if !job.finish(StatusCanceled, nil) {
		return ErrNotFound
	}

	job.Bus.Publish(events.Error("Canceled by user", ""))
	job.Bus.SetStatus(string(StatusCanceled))
	job.cancelRun()
	m.store.Delete(id)
	log.Printf("[jobs] job %s canceled", id)
	return nil
}

// execute drives one run and records its outcome exactly once. Engine errors
// never propagate further than this method; they are normalized into a
// terminal event and a status transition.
func (m *Manager) execute(ctx context.Context, job *Job, p scraper.Params) {
	art, err := m.run(ctx, p, job.Bus)
	if err != nil {
		if !job.finish(StatusFailed, nil) {
			// Lost the race with Cancel; the bus is closed and the
			// record is gone, so there is nothing left to report.
			return
		}
		kind := ""
		var expired *scraper.SessionExpiredError
		if errors.As(err, &expired) {
			kind = events.ErrKindSessionExpired
		}
		job.Bus.Publish(events.Error(err.Error(), kind))
		log.Printf("[jobs] job %s failed: %v", job.ID, err)
		return
	}

	if !job.finish(StatusDone, art) {
		return
	}
	job.Bus.Publish(events.Done("/download/"+job.ID, art.FileName))
	m.store.ExpireAfter(job.ID, m.retention)
	log.Printf("[jobs] job %s completed: %s (%d bytes)", job.ID, art.FileName, len(art.Data))
}
