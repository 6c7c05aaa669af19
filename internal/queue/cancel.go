package queue

import "sync"

// CancelRegistry is the set of job ids whose cancellation has been requested.
// The executor consults it at its checkpoints; cancellation is cooperative,
// never preemptive. Requests are idempotent.
type CancelRegistry struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

// NewCancelRegistry creates an empty registry.
func NewCancelRegistry() *CancelRegistry {
	return &CancelRegistry{ids: make(map[string]struct{})}
}

// Request records a cancellation request for the given job id.
func (r *CancelRegistry) Request(id string) {
	r.mu.Lock()
	r.ids[id] = struct{}{}
	r.mu.Unlock()
}

// Requested reports whether cancellation has been requested for id.
func (r *CancelRegistry) Requested(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ids[id]
	return ok
}

// Clear removes the id from the registry. Called when a job reaches a
// terminal state or is retried, so retried jobs start with a clean slate.
func (r *CancelRegistry) Clear(id string) {
	r.mu.Lock()
	delete(r.ids, id)
	r.mu.Unlock()
}
