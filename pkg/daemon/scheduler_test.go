package daemon

import (
	"testing"
	"time"

	"github.com/robfig/cron/v3"
)

func TestCronParse(t *testing.T) {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse("@every 10m")
	if err != nil {
		t.Fatalf("failed to parse cron expression: %v", err)
	}

	now := time.Now()
	next1 := schedule.Next(now)
	t.Logf("next1: %v", next1)
	next2 := schedule.Next(next1)
	t.Logf("next2: %v", next2)

	if !next2.After(next1) {
		t.Fatalf("expected next2 to be after next1, got next1=%v next2=%v", next1, next2)
	}
}

func TestSchedulerScheduleStatus(t *testing.T) {
	s := NewScheduler(func() error { return nil }, nil)

	if err := s.Schedule("@every 1m"); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	next, running := s.Status()
	if running {
		t.Fatalf("scheduler should not be running")
	}
	if next.IsZero() {
		t.Fatalf("next run should be set after scheduling")
	}
}

func TestSchedulerClear(t *testing.T) {
	s := NewScheduler(func() error { return nil }, nil)
	if err := s.Schedule("@every 1m"); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	s.Clear()
	next, _ := s.Status()
	if !next.IsZero() {
		t.Fatalf("expected no next run after clearing, got %v", next)
	}
}

func TestSchedulerRunCycle(t *testing.T) {
	taskCh := make(chan struct{}, 1)
	preCheckCh := make(chan struct{}, 1)

	task := func() error {
		taskCh <- struct{}{}
		return nil
	}

	preCheck := func() error {
		select {
		case preCheckCh <- struct{}{}:
		default:
		}
		return nil
	}

	s := NewScheduler(task, preCheck)
	if err := s.Schedule("@every 1s"); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	s.mu.Lock()
	s.nextRun = time.Now().Add(50 * time.Millisecond)
	s.mu.Unlock()

	s.Start()
	defer s.Stop()

	select {
	case <-taskCh:
	case <-time.After(2 * time.Second):
		t.Fatalf("task did not execute in time")
	}

	select {
	case <-preCheckCh:
	default:
		t.Fatalf("precheck should have been executed")
	}
}

func TestSchedulerPreCheckFailureDelaysTask(t *testing.T) {
	taskCh := make(chan struct{}, 1)

	task := func() error {
		taskCh <- struct{}{}
		return nil
	}

	preCheck := func() error {
		return ErrRobotBusy
	}

	s := NewScheduler(task, preCheck)
	if err := s.Schedule("@every 1s"); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	s.mu.Lock()
	s.nextRun = time.Now().Add(50 * time.Millisecond)
	s.mu.Unlock()

	s.Start()
	defer s.Stop()

	select {
	case <-taskCh:
		t.Fatalf("task should not execute while precheck keeps failing")
	case <-time.After(500 * time.Millisecond):
	}
}
