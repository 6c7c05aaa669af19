// Package snapshot freezes the live flyer form into the immutable input set a
// queued job executes against. The copy is taken synchronously at enqueue
// time, before any suspension point, so a job always reflects exactly the
// state the user submitted regardless of later edits to the form.
package snapshot

import (
	"time"

	"flyerstudio/internal/domain"
)

// Build captures a full structural copy of the given form state. The result
// shares no mutable structure with the input; it is safe to keep editing the
// live form while the job waits in the queue or runs.
func Build(apiKey string, form domain.FormState) domain.Snapshot {
	return domain.Snapshot{
		APIKey:  apiKey,
		TakenAt: time.Now().UTC(),
		Form:    form.Clone(),
	}
}
