package daemon

import (
	"errors"
	"sync"
	"testing"

	"github.com/smallbots/rover/pkg/events"
)

func TestRunMotionRejectsConcurrentMotions(t *testing.T) {
	sseHub = events.NewHub()

	started := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = runMotion("drive", func() error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	if err := runMotion("turn", func() error { return nil }); !errors.Is(err, ErrRobotBusy) {
		t.Errorf("expected ErrRobotBusy while a motion is running, got %v", err)
	}
	if !motionBusy() {
		t.Error("motionBusy() = false while a motion is running")
	}

	close(release)
	wg.Wait()

	if motionBusy() {
		t.Error("motionBusy() = true after the motion finished")
	}
	if err := runMotion("turn", func() error { return nil }); err != nil {
		t.Errorf("motion after release failed: %v", err)
	}
}

func TestRunMotionPublishesLifecycleEvents(t *testing.T) {
	sseHub = events.NewHub()
	ch := sseHub.Subscribe()
	defer sseHub.Unsubscribe(ch)

	wantErr := errors.New("wheel fell off")
	if err := runMotion("drive", func() error { return wantErr }); !errors.Is(err, wantErr) {
		t.Fatalf("runMotion did not return the motion error, got %v", err)
	}

	startedEv := <-ch
	if startedEv.Name != events.MotionStarted {
		t.Errorf("first event = %q, want %q", startedEv.Name, events.MotionStarted)
	}

	finishedEv := <-ch
	if finishedEv.Name != events.MotionFinished {
		t.Fatalf("second event = %q, want %q", finishedEv.Name, events.MotionFinished)
	}
	payload, err := events.DecodeAs[events.MotionEvent](finishedEv)
	if err != nil {
		t.Fatalf("DecodeAs failed: %v", err)
	}
	if payload.Op != "drive" || payload.Error != wantErr.Error() {
		t.Errorf("finished payload = %+v, want op drive with the motion error", payload)
	}
}

func TestScheduledDriftCheckPublishesDriftEvent(t *testing.T) {
	sseHub = events.NewHub()
	ch := sseHub.Subscribe()
	defer sseHub.Unsubscribe(ch)

	origDriftCheck := robotDriftCheck
	robotDriftCheck = func() (bool, error) { return true, nil }
	defer func() { robotDriftCheck = origDriftCheck }()

	if err := scheduledDriftCheck(); err != nil {
		t.Fatalf("scheduledDriftCheck failed: %v", err)
	}

	var driftEv events.Event
	for ev := range ch {
		if ev.Name == events.GyroDrift {
			driftEv = ev
			break
		}
	}
	payload, err := events.DecodeAs[events.DriftEvent](driftEv)
	if err != nil {
		t.Fatalf("DecodeAs failed: %v", err)
	}
	if !payload.Drifting {
		t.Error("drift event did not report drifting")
	}
}
