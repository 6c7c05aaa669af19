package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"flyerstudio/internal/domain"
	"flyerstudio/internal/storage"
)

func testJob(id string, status domain.JobStatus) domain.Job {
	now := time.Now().UTC()
	return domain.Job{
		ID:        id,
		Status:    status,
		Side:      domain.FlyerSideFront,
		Message:   "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestStorePatchRefreshesUpdatedAt(t *testing.T) {
	s := NewStore(nil, zerolog.Nop())
	job := testJob("j1", domain.JobStatusPending)
	s.Enqueue(job)

	before, _ := s.Get("j1")
	time.Sleep(2 * time.Millisecond)
	patched, ok := s.Patch("j1", func(j *domain.Job) {
		j.Progress = 40
		j.Message = "generating"
	})
	if !ok {
		t.Fatalf("patch reported missing job")
	}
	if patched.Progress != 40 || patched.Message != "generating" {
		t.Fatalf("patch not applied: %+v", patched)
	}
	if !patched.UpdatedAt.After(before.UpdatedAt) {
		t.Fatalf("UpdatedAt not refreshed: %s vs %s", patched.UpdatedAt, before.UpdatedAt)
	}
}

func TestStorePatchMissingIDIsNoop(t *testing.T) {
	s := NewStore(nil, zerolog.Nop())
	if _, ok := s.Patch("ghost", func(j *domain.Job) { j.Progress = 10 }); ok {
		t.Fatalf("patch of missing id should report not found")
	}
}

func TestStoreRemoveRunningForbidden(t *testing.T) {
	s := NewStore(nil, zerolog.Nop())
	s.Enqueue(testJob("j1", domain.JobStatusRunning))

	if err := s.Remove("j1"); err != domain.ErrJobRunning {
		t.Fatalf("expected ErrJobRunning, got %v", err)
	}
	s.Patch("j1", func(j *domain.Job) { j.Status = domain.JobStatusCompleted })
	if err := s.Remove("j1"); err != nil {
		t.Fatalf("remove after completion: %v", err)
	}
	if _, ok := s.Get("j1"); ok {
		t.Fatalf("job still present after removal")
	}
}

func TestStoreClearFinished(t *testing.T) {
	s := NewStore(nil, zerolog.Nop())
	s.Enqueue(testJob("a", domain.JobStatusCompleted))
	s.Enqueue(testJob("b", domain.JobStatusPending))
	s.Enqueue(testJob("c", domain.JobStatusFailed))
	s.Enqueue(testJob("d", domain.JobStatusRunning))
	s.Enqueue(testJob("e", domain.JobStatusCanceled))

	if n := s.ClearFinished(); n != 3 {
		t.Fatalf("expected 3 cleared, got %d", n)
	}
	jobs := s.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 remaining, got %d", len(jobs))
	}
	if jobs[0].ID != "b" || jobs[1].ID != "d" {
		t.Fatalf("wrong survivors: %s, %s", jobs[0].ID, jobs[1].ID)
	}
}

func TestStoreHandsOutClones(t *testing.T) {
	s := NewStore(nil, zerolog.Nop())
	job := testJob("j1", domain.JobStatusPending)
	job.Snapshot.Form.Products = []domain.Product{{Name: "original"}}
	s.Enqueue(job)

	got, _ := s.Get("j1")
	got.Snapshot.Form.Products[0].Name = "mutated"

	again, _ := s.Get("j1")
	if again.Snapshot.Form.Products[0].Name != "original" {
		t.Fatalf("store state mutated through returned copy")
	}
}

func TestStorePersistRoundTrip(t *testing.T) {
	kv, err := storage.OpenSQLiteKV(":memory:")
	if err != nil {
		t.Fatalf("open kv: %v", err)
	}
	defer kv.Close()

	s := NewStore(kv, zerolog.Nop())
	j1 := testJob("j1", domain.JobStatusCompleted)
	j1.Progress = 100
	j2 := testJob("j2", domain.JobStatusPending)
	s.Enqueue(j1)
	s.Enqueue(j2)

	restored := NewStore(kv, zerolog.Nop())
	if err := restored.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	jobs := restored.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 restored jobs, got %d", len(jobs))
	}
	if jobs[0].ID != "j1" || jobs[0].Progress != 100 || jobs[0].Status != domain.JobStatusCompleted {
		t.Fatalf("restored job mismatch: %+v", jobs[0])
	}
	if jobs[1].ID != "j2" || jobs[1].Status != domain.JobStatusPending {
		t.Fatalf("restored job mismatch: %+v", jobs[1])
	}
}

func TestStoreRequeueStale(t *testing.T) {
	s := NewStore(nil, zerolog.Nop())
	running := testJob("j1", domain.JobStatusRunning)
	running.Progress = 60
	s.Enqueue(running)
	s.Enqueue(testJob("j2", domain.JobStatusCompleted))

	s.RequeueStale()

	j1, _ := s.Get("j1")
	if j1.Status != domain.JobStatusPending || j1.Progress != 0 {
		t.Fatalf("stale running job not re-queued: %+v", j1)
	}
	j2, _ := s.Get("j2")
	if j2.Status != domain.JobStatusCompleted {
		t.Fatalf("terminal job should be untouched: %+v", j2)
	}
}

func TestStoreNotifiesOnChange(t *testing.T) {
	s := NewStore(nil, zerolog.Nop())
	var events []ChangeKind
	s.SetOnChange(func(job domain.Job, kind ChangeKind) {
		events = append(events, kind)
	})
	s.Enqueue(testJob("j1", domain.JobStatusCompleted))
	s.Patch("j1", func(j *domain.Job) { j.Progress = 1 })
	s.Remove("j1")

	want := []ChangeKind{ChangeUpdated, ChangeUpdated, ChangeRemoved}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(events))
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("event %d: got %v want %v", i, events[i], want[i])
		}
	}
}

func TestJobJSONStableAcrossRoundTrip(t *testing.T) {
	job := testJob("j1", domain.JobStatusFailed)
	job.Error = "backend exploded"
	job.Snapshot.APIKey = "k"
	data, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back domain.Job
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.ID != job.ID || back.Error != job.Error || back.Snapshot.APIKey != "k" {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}
