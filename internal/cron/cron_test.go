package cron

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestAddListRemoveJob(t *testing.T) {
	store := filepath.Join(t.TempDir(), "jobs.json")
	s := NewService(store)

	job, err := s.AddJob("digest", Schedule{Kind: "cron", Expr: "0 0 9 * * *"}, Payload{Message: "summarize my boards"})
	if err != nil {
		t.Fatalf("AddJob error: %v", err)
	}
	if job.ID == "" {
		t.Error("job should have an id")
	}
	if !job.Enabled {
		t.Error("new job should be enabled")
	}

	jobs := s.ListJobs()
	if len(jobs) != 1 {
		t.Fatalf("jobs = %d, want 1", len(jobs))
	}
	if jobs[0].Payload.Message != "summarize my boards" {
		t.Errorf("message = %q", jobs[0].Payload.Message)
	}

	if !s.RemoveJob(job.ID) {
		t.Error("RemoveJob should report true")
	}
	if len(s.ListJobs()) != 0 {
		t.Error("job list should be empty after removal")
	}
}

func TestRemoveJob_Unknown(t *testing.T) {
	s := NewService(filepath.Join(t.TempDir(), "jobs.json"))
	if s.RemoveJob("nope") {
		t.Error("RemoveJob should report false for unknown id")
	}
}

func TestJobsPersistAcrossRestart(t *testing.T) {
	store := filepath.Join(t.TempDir(), "jobs.json")

	s1 := NewService(store)
	if _, err := s1.AddJob("digest", Schedule{Kind: "cron", Expr: "0 0 9 * * *"}, Payload{Message: "x"}); err != nil {
		t.Fatalf("AddJob error: %v", err)
	}

	if _, err := os.Stat(store); err != nil {
		t.Fatalf("store file missing: %v", err)
	}

	s2 := NewService(store)
	if err := s2.Load(); err != nil {
		t.Fatalf("load error: %v", err)
	}
	jobs := s2.ListJobs()
	if len(jobs) != 1 || jobs[0].Name != "digest" {
		t.Errorf("jobs = %+v, want the persisted digest job", jobs)
	}
}

func TestEveryJobFires(t *testing.T) {
	store := filepath.Join(t.TempDir(), "jobs.json")
	s := NewService(store)

	var fired atomic.Int32
	s.OnJob = func(job CronJob) (string, error) {
		fired.Add(1)
		return "ok", nil
	}

	if _, err := s.AddJob("fast", Schedule{Kind: "every", EveryMs: 500}, Payload{Message: "ping"}); err != nil {
		t.Fatalf("AddJob error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer s.Stop()

	deadline := time.After(5 * time.Second)
	for fired.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("every-job did not fire within 5s")
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func TestExecuteJob_RecordsError(t *testing.T) {
	store := filepath.Join(t.TempDir(), "jobs.json")
	s := NewService(store)
	s.OnJob = func(job CronJob) (string, error) {
		return "", os.ErrDeadlineExceeded
	}

	job, err := s.AddJob("failing", Schedule{Kind: "cron", Expr: "0 0 9 * * *"}, Payload{Message: "x"})
	if err != nil {
		t.Fatalf("AddJob error: %v", err)
	}

	s.executeJob(*job)

	jobs := s.ListJobs()
	if jobs[0].State.LastStatus != "error" {
		t.Errorf("lastStatus = %q, want error", jobs[0].State.LastStatus)
	}
	if jobs[0].State.LastError == "" {
		t.Error("lastError should be recorded")
	}
}

func TestAddJob_RejectsBadSchedule(t *testing.T) {
	s := NewService(filepath.Join(t.TempDir(), "jobs.json"))

	cases := []Schedule{
		{Kind: "cron", Expr: "not an expr"},
		{Kind: "cron", Expr: "* * * * *"}, // five fields; seconds are required
		{Kind: "every", EveryMs: 0},
		{Kind: "hourly"},
	}
	for _, schedule := range cases {
		if _, err := s.AddJob("bad", schedule, Payload{Message: "x"}); err == nil {
			t.Errorf("AddJob(%+v) should fail", schedule)
		}
	}
	if len(s.ListJobs()) != 0 {
		t.Errorf("rejected jobs must not be stored, got %d", len(s.ListJobs()))
	}
}
