package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestSchedulerRuns(t *testing.T) {
	calls := make(chan struct{}, 1)
	s := New(
		Job{Name: "refresh", Interval: time.Second, Run: func(context.Context) {
			select {
			case calls <- struct{}{}:
			default:
			}
		}},
		Job{Name: "disabled", Interval: 0, Run: func(context.Context) {
			t.Error("Expected a disabled job never to run")
		}},
	)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() returned an unexpected error: %v", err)
	}
	defer s.Stop()

	if s.Jobs() != 1 {
		t.Fatalf("Expected 1 scheduled job, but got %d", s.Jobs())
	}
	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("Expected the job to run within 5s")
	}
}

func TestSchedulerNoJobs(t *testing.T) {
	s := New()
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() returned an unexpected error: %v", err)
	}
	defer s.Stop()

	if s.Jobs() != 0 {
		t.Errorf("Expected no jobs, but got %d", s.Jobs())
	}
}
