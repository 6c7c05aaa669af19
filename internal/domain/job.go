package domain

import "time"

// JobStatus enumerates generation job lifecycle states.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCanceled  JobStatus = "canceled"
)

// Terminal reports whether the status is a final state. Terminal jobs are the
// ones swept by clear-finished; failed and canceled jobs may still re-enter
// the queue via retry.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCanceled:
		return true
	}
	return false
}

// FlyerSide selects which side of the flyer a job generates.
type FlyerSide string

const (
	FlyerSideFront FlyerSide = "front"
	FlyerSideBack  FlyerSide = "back"
)

// FrontFlyerType selects the front-side content variant.
type FrontFlyerType string

const (
	FrontFlyerCampaign       FrontFlyerType = "campaign"
	FrontFlyerProductService FrontFlyerType = "product_service"
)

// Job encapsulates one user-initiated flyer generation request. The embedded
// Snapshot is frozen at enqueue time and never mutated afterwards; every other
// field is managed by the queue store through id-keyed patches.
type Job struct {
	ID        string    `json:"id"`
	Status    JobStatus `json:"status"`
	Side      FlyerSide `json:"side"`
	Progress  int       `json:"progress"`
	Message   string    `json:"message"`
	Error     string    `json:"error,omitempty"`
	Snapshot  Snapshot  `json:"snapshot"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns an independent copy of the job, including its snapshot.
func (j Job) Clone() Job {
	out := j
	out.Snapshot = j.Snapshot.Clone()
	return out
}
