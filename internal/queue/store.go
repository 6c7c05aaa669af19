// Package queue implements the client-side generation job queue: an ordered
// job collection, a cancellation registry, and the single-consumer scheduler
// that feeds jobs to the executor one at a time.
package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"flyerstudio/internal/domain"
	"flyerstudio/internal/infra"
	"flyerstudio/internal/storage"
)

const jobsKey = "queue/jobs"

// ChangeKind discriminates store change notifications.
type ChangeKind int

const (
	ChangeUpdated ChangeKind = iota
	ChangeRemoved
)

// ChangeFn receives a copy of the affected job after every store mutation.
type ChangeFn func(job domain.Job, kind ChangeKind)

// Store is the ordered job collection and the single source of truth for the
// queue. Mutations replace whole entries under the store mutex and hand out
// clones only, so the executor and the scheduler never share mutable job
// state. Every mutation is written through to the local store best-effort.
type Store struct {
	mu   sync.Mutex
	jobs []domain.Job

	kv       storage.KV
	logger   infra.Logger
	onChange ChangeFn
}

// NewStore creates an empty queue store. kv may be nil to disable
// persistence.
func NewStore(kv storage.KV, logger infra.Logger) *Store {
	return &Store{kv: kv, logger: logger}
}

// SetOnChange registers a change callback. Must be called before the store is
// shared across goroutines.
func (s *Store) SetOnChange(fn ChangeFn) {
	s.onChange = fn
}

// Enqueue appends the job to the end of the queue. Insertion order is the
// authoritative FIFO order for dispatch.
func (s *Store) Enqueue(job domain.Job) {
	s.mu.Lock()
	s.jobs = append(s.jobs, job.Clone())
	snapshot := s.cloneLocked()
	s.mu.Unlock()

	s.persist(snapshot)
	s.notify(job, ChangeUpdated)
}

// Patch applies mutate to a clone of the job with the given id, refreshes
// UpdatedAt and swaps the entry in. A missing id is a no-op, not an error:
// the job may have been removed concurrently. The returned job is the
// post-patch state.
func (s *Store) Patch(id string, mutate func(*domain.Job)) (domain.Job, bool) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return domain.Job{}, false
	}
	job := s.jobs[idx].Clone()
	mutate(&job)
	job.UpdatedAt = time.Now().UTC()
	s.jobs[idx] = job
	snapshot := s.cloneLocked()
	s.mu.Unlock()

	s.persist(snapshot)
	s.notify(job, ChangeUpdated)
	return job.Clone(), true
}

// MarkRunning transitions the job to running only if it is still pending.
// The scheduler uses it so a cancel that lands between selection and dispatch
// wins and the job is skipped.
func (s *Store) MarkRunning(id, message string) (domain.Job, bool) {
	var promoted bool
	job, ok := s.Patch(id, func(j *domain.Job) {
		if j.Status != domain.JobStatusPending {
			return
		}
		j.Status = domain.JobStatusRunning
		j.Message = message
		promoted = true
	})
	return job, ok && promoted
}

// Remove deletes the job with the given id. Removing the job while it is
// running is disallowed; it must leave the running state first.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return domain.ErrNotFound
	}
	if s.jobs[idx].Status == domain.JobStatusRunning {
		s.mu.Unlock()
		return domain.ErrJobRunning
	}
	removed := s.jobs[idx]
	s.jobs = append(s.jobs[:idx:idx], s.jobs[idx+1:]...)
	snapshot := s.cloneLocked()
	s.mu.Unlock()

	s.persist(snapshot)
	s.notify(removed, ChangeRemoved)
	return nil
}

// ClearFinished removes every job in a terminal state and reports how many
// were dropped. Pending and running jobs are untouched.
func (s *Store) ClearFinished() int {
	s.mu.Lock()
	var kept []domain.Job
	var dropped []domain.Job
	for _, j := range s.jobs {
		if j.Status.Terminal() {
			dropped = append(dropped, j)
			continue
		}
		kept = append(kept, j)
	}
	s.jobs = kept
	snapshot := s.cloneLocked()
	s.mu.Unlock()

	if len(dropped) == 0 {
		return 0
	}
	s.persist(snapshot)
	for _, j := range dropped {
		s.notify(j, ChangeRemoved)
	}
	return len(dropped)
}

// Jobs returns a copy of the queue in insertion order.
func (s *Store) Jobs() []domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cloneLocked()
}

// Get returns a copy of the job with the given id.
func (s *Store) Get(id string) (domain.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return domain.Job{}, false
	}
	return s.jobs[idx].Clone(), true
}

// NextPending returns the oldest pending job by insertion order.
func (s *Store) NextPending() (domain.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.Status == domain.JobStatusPending {
			return j.Clone(), true
		}
	}
	return domain.Job{}, false
}

// Load restores the queue from the local store. Call once at startup before
// the scheduler starts.
func (s *Store) Load(ctx context.Context) error {
	if s.kv == nil {
		return nil
	}
	data, err := s.kv.Get(ctx, jobsKey)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil
		}
		return err
	}
	var jobs []domain.Job
	if err := json.Unmarshal(data, &jobs); err != nil {
		return err
	}
	s.mu.Lock()
	s.jobs = jobs
	s.mu.Unlock()
	return nil
}

// RequeueStale re-queues jobs left in the running state by a previous
// session. Their executor is gone; they go back to pending with progress 0.
func (s *Store) RequeueStale() {
	s.mu.Lock()
	var stale []domain.Job
	for i, j := range s.jobs {
		if j.Status != domain.JobStatusRunning {
			continue
		}
		job := j.Clone()
		job.Status = domain.JobStatusPending
		job.Progress = 0
		job.Message = "restored from previous session"
		job.UpdatedAt = time.Now().UTC()
		s.jobs[i] = job
		stale = append(stale, job)
	}
	snapshot := s.cloneLocked()
	s.mu.Unlock()

	if len(stale) == 0 {
		return
	}
	s.persist(snapshot)
	for _, j := range stale {
		s.notify(j, ChangeUpdated)
	}
}

func (s *Store) indexLocked(id string) int {
	for i, j := range s.jobs {
		if j.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) cloneLocked() []domain.Job {
	out := make([]domain.Job, len(s.jobs))
	for i, j := range s.jobs {
		out[i] = j.Clone()
	}
	return out
}

func (s *Store) persist(jobs []domain.Job) {
	if s.kv == nil {
		return
	}
	data, err := json.Marshal(jobs)
	if err != nil {
		s.logger.Error().Err(err).Msg("queue: marshal jobs for persistence")
		return
	}
	if err := s.kv.Set(context.Background(), jobsKey, data); err != nil {
		s.logger.Warn().Err(err).Msg("queue: persist jobs failed, in-memory state remains authoritative")
	}
}

func (s *Store) notify(job domain.Job, kind ChangeKind) {
	if s.onChange == nil {
		return
	}
	s.onChange(job.Clone(), kind)
}
