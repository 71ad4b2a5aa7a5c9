package scheduler_test

import (
	"context"
	"testing"

	"github.com/sankethshetty99/discord-archiver/internal/config"
	"github.com/sankethshetty99/discord-archiver/internal/scheduler"
)

func TestSchedulerLifecycle(t *testing.T) {
	t.Parallel()

	cfg := config.ScheduleConfig{
		Tasks: map[string]config.TaskConfig{
			"archive":            {Enabled: true, Schedule: "0 3 * * *"},
			"ledger_maintenance": {Enabled: false, Schedule: "0 4 * * 0"},
			"unknown_task":       {Enabled: true, Schedule: "0 5 * * *"},
			"missing_schedule":   {Enabled: true},
		},
	}
	registry := map[string]scheduler.TaskFunc{
		"archive":          func(context.Context) error { return nil },
		"missing_schedule": func(context.Context) error { return nil },
	}

	s, err := scheduler.NewScheduler(nil, cfg, registry)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(); err == nil {
		t.Error("second Start did not report the scheduler as running")
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Stop on a stopped scheduler: %v", err)
	}
}
