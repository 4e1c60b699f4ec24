package jobs

import (
	"log"
	"sync"
	"time"
)

// defaultSweepInterval is how often the janitor scans for expired entries.
const defaultSweepInterval = 5 * time.Second

// Store is a keyed in-memory map of jobs with deadline-based eviction. A
// background janitor removes entries whose retention deadline has passed,
// which bounds memory growth from abandoned jobs.
type Store struct {
	mu       sync.Mutex
	jobs     map[string]*Job
	deadline map[string]time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewStore creates a store and starts its janitor. sweepInterval <= 0 uses
// the default. Call Stop when the store is no longer needed.
func NewStore(sweepInterval time.Duration) *Store {
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}
	s := &Store{
		jobs:     make(map[string]*Job),
		deadline: make(map[string]time.Time),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.janitor(sweepInterval)
	return s
}

// Put registers a job under its ID.
func (s *Store) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

// Get returns the job for id, or false if absent or past its retention
// deadline. Expired entries are treated as gone even before the janitor's
// next sweep, so the retention window is exact rather than sweep-granular.
func (s *Store) Get(id string) (*Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	if dl, has := s.deadline[id]; has && time.Now().After(dl) {
		delete(s.jobs, id)
		delete(s.deadline, id)
		return nil, false
	}
	return job, ok
}

// Delete removes the job for id immediately.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	delete(s.deadline, id)
}

// ExpireAfter stamps a retention deadline on id. The janitor evicts the entry
// once the deadline passes, whether or not the artifact was ever fetched.
func (s *Store) ExpireAfter(id string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return
	}
	s.deadline[id] = time.Now().Add(d)
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Stop halts the janitor. Safe to call more than once.
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

func (s *Store) janitor(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

func (s *Store) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, dl := range s.deadline {
		if now.After(dl) {
			delete(s.jobs, id)
			delete(s.deadline, id)
			log.Printf("[store] evicted expired job %s", id)
		}
	}
}
