package daemon

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	// When the precheck fails (a motion is running) the scheduled run is
	// retried instead of dropped, up to a bounded number of attempts.
	preCheckMaxTimes = 30
	preCheckInterval = time.Second * 10
)

// TaskFunc represents a runnable task.
type TaskFunc func() error

// Scheduler runs a task on a cron schedule. It exists for the periodic gyro
// drift check but knows nothing about robots: just a task and a precheck.
type Scheduler struct {
	Task     TaskFunc // task callback
	PreCheck TaskFunc // condition check before each run

	parser cron.Parser

	schedule cron.Schedule
	nextRun  time.Time

	mu      sync.Mutex
	running bool

	recalcCh chan cron.Schedule
	stopCh   chan struct{}
}

func NewScheduler(task, preCheck TaskFunc) *Scheduler {
	if task == nil {
		panic("task function cannot be nil")
	}

	return &Scheduler{
		Task:     task,
		PreCheck: preCheck,
		parser:   cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		recalcCh: make(chan cron.Schedule, 1),
		stopCh:   make(chan struct{}),
	}
}

func (s *Scheduler) Stop() {
	select {
	case <-s.stopCh: // already closed
	default:
		close(s.stopCh)
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	go s.runScheduled()
}

// Schedule replaces the cron schedule. If the scheduler is already running,
// the pending timer is recalculated.
func (s *Scheduler) Schedule(cronExpr string) error {
	sh, err := s.parser.Parse(cronExpr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	running := s.running
	if !running {
		s.schedule = sh
		s.nextRun = sh.Next(time.Now())
	}
	s.mu.Unlock()

	if running {
		s.trySendRecalc(sh)
	}
	return nil
}

// Clear removes the schedule; the scheduler keeps running but fires nothing.
func (s *Scheduler) Clear() {
	s.mu.Lock()
	running := s.running
	if !running {
		s.schedule = nil
		s.nextRun = time.Time{}
	}
	s.mu.Unlock()

	if running {
		s.trySendRecalc(nil)
	}
}

func (s *Scheduler) Status() (nextRun time.Time, running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nextRun = s.nextRun
	running = s.running
	return
}

func (s *Scheduler) runScheduled() {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		logrus.Debug("scheduler stopped")
	}()

	logrus.Debug("scheduler started")

	for {
		attempts := 0

		schedule, nextRun := s.snapshot()
		var timer *time.Timer
		if schedule == nil || nextRun.IsZero() {
			timer = time.NewTimer(time.Hour * 10000)
		} else {
			wait := time.Until(nextRun)
			if wait < 0 {
				wait = 0
			}
			timer = time.NewTimer(wait)
		}

		for {
			select {
			case <-timer.C:
				if schedule == nil || nextRun.IsZero() {
					break
				}

				logrus.Debugf("running scheduled task at %s", nextRun.Format(time.DateTime))

				if s.PreCheck != nil {
					if err := s.PreCheck(); err != nil {
						attempts++
						if attempts <= preCheckMaxTimes {
							logrus.Debugf("precheck failed (%d/%d): %v; retrying in %s", attempts, preCheckMaxTimes, err, preCheckInterval)
							timer.Reset(preCheckInterval)
							continue
						}

						logrus.Warnf("precheck kept failing, skipping this run: %v", err)
						timer.Stop()
						s.advanceNextRun()
						break
					}
				}

				timer.Stop()

				if err := s.Task(); err != nil {
					logrus.Errorf("scheduled task failed: %v", err)
				}
				s.advanceNextRun()
			case <-s.stopCh:
				timer.Stop()
				s.mu.Lock()
				s.running = false
				s.mu.Unlock()
				return
			case sh := <-s.recalcCh:
				timer.Stop()
				s.mu.Lock()
				s.schedule = sh
				if sh == nil {
					s.nextRun = time.Time{}
				} else {
					s.nextRun = sh.Next(time.Now())
				}
				s.mu.Unlock()
			}

			break
		}
	}
}

func (s *Scheduler) snapshot() (cron.Schedule, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule, s.nextRun
}

func (s *Scheduler) advanceNextRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schedule == nil {
		return
	}
	s.nextRun = s.schedule.Next(s.nextRun)
}

func (s *Scheduler) trySendRecalc(sh cron.Schedule) {
	select {
	case s.recalcCh <- sh:
	default:
	}
}
