package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"flyerstudio/internal/domain"
	"flyerstudio/internal/infra"
)

// RunFunc executes one job to a terminal state. It must not panic past its
// own boundary; the job record is its only externally observable outcome.
type RunFunc func(ctx context.Context, job domain.Job)

// Scheduler is the queue's front door and its single consumer. It guarantees
// at most one job is dispatched at a time, picks pending jobs in insertion
// order, and re-evaluates whenever the active slot frees or the queue
// changes. The design is level-triggered: a job enqueued while the queue is
// idle is picked up by the same wake path as one enqueued mid-run.
type Scheduler struct {
	store   *Store
	cancels *CancelRegistry
	run     RunFunc
	logger  infra.Logger

	mu     sync.Mutex
	active string

	wake chan struct{}
	wg   sync.WaitGroup
}

// NewScheduler wires the scheduler to its store, registry and executor.
func NewScheduler(store *Store, cancels *CancelRegistry, run RunFunc, logger infra.Logger) *Scheduler {
	return &Scheduler{
		store:   store,
		cancels: cancels,
		run:     run,
		logger:  logger,
		wake:    make(chan struct{}, 1),
	}
}

// Start launches the dispatch loop. It returns immediately; the loop stops
// when ctx is canceled. An initial wake covers jobs restored from a previous
// session.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx)
	}()
	s.poke()
}

// Wait blocks until the dispatch loop has exited after ctx cancellation.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Enqueue creates a pending job from the frozen snapshot, appends it to the
// queue and wakes the dispatcher.
func (s *Scheduler) Enqueue(snap domain.Snapshot) domain.Job {
	now := time.Now().UTC()
	job := domain.Job{
		ID:        uuid.NewString(),
		Status:    domain.JobStatusPending,
		Side:      snap.Form.Side,
		Message:   "queued",
		Snapshot:  snap,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.store.Enqueue(job)
	s.logger.Info().Str("job_id", job.ID).Str("mode", snap.Mode().String()).Msg("queue: job enqueued")
	s.poke()
	return job
}

// Cancel requests cancellation of the job. A still-pending job is finalized
// immediately without ever reaching the executor; a running job keeps its
// status until the executor observes the flag at its next checkpoint.
// Canceling a terminal or unknown job is a no-op, which makes the operation
// idempotent.
func (s *Scheduler) Cancel(id string) {
	job, ok := s.store.Get(id)
	if !ok || job.Status.Terminal() {
		return
	}
	// Flag first: if the scheduler promotes the job concurrently, the
	// executor still observes the request at its first checkpoint.
	s.cancels.Request(id)
	s.store.Patch(id, func(j *domain.Job) {
		switch j.Status {
		case domain.JobStatusPending:
			j.Status = domain.JobStatusCanceled
			j.Progress = 0
			j.Message = "canceled"
		case domain.JobStatusRunning:
			j.Message = "cancellation requested"
		}
	})
	if after, ok := s.store.Get(id); ok && after.Status == domain.JobStatusCanceled {
		s.cancels.Clear(id)
	}
	s.logger.Info().Str("job_id", id).Msg("queue: cancellation requested")
}

// Retry re-queues a failed or canceled job: pending status, progress 0, error
// cleared, cancellation slate wiped. The job re-enters FIFO consideration at
// its original queue position.
func (s *Scheduler) Retry(id string) error {
	var retried bool
	_, found := s.store.Patch(id, func(j *domain.Job) {
		if j.Status != domain.JobStatusFailed && j.Status != domain.JobStatusCanceled {
			return
		}
		j.Status = domain.JobStatusPending
		j.Progress = 0
		j.Message = "queued for retry"
		j.Error = ""
		retried = true
	})
	if !found {
		return domain.ErrNotFound
	}
	if !retried {
		return domain.ErrJobNotRetryable
	}
	s.cancels.Clear(id)
	s.logger.Info().Str("job_id", id).Msg("queue: job retried")
	s.poke()
	return nil
}

// Active returns the id of the job currently occupying the dispatch slot.
func (s *Scheduler) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Scheduler) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}
		s.dispatch(ctx)
	}
}

// dispatch fills the active slot if it is free. It loops so that canceled
// pending jobs are skipped without waiting for another wake.
func (s *Scheduler) dispatch(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		s.mu.Lock()
		if s.active != "" {
			s.mu.Unlock()
			return
		}
		next, ok := s.store.NextPending()
		if !ok {
			s.mu.Unlock()
			return
		}
		s.active = next.ID
		s.mu.Unlock()

		job, promoted := s.store.MarkRunning(next.ID, "starting")
		if !promoted {
			// Lost to a concurrent cancel or removal; free the slot and
			// look again.
			s.mu.Lock()
			s.active = ""
			s.mu.Unlock()
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() {
				s.cancels.Clear(job.ID)
				s.mu.Lock()
				s.active = ""
				s.mu.Unlock()
				s.poke()
			}()
			s.run(ctx, job)
		}()
		return
	}
}
