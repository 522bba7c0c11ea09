package robot

import (
	"errors"
	"testing"
	"time"

	"github.com/smallbots/rover/pkg/hw"
)

func TestFollowStepDerivativeCorrection(t *testing.T) {
	rig := newTestRig(t)
	follow := rig.robot.RightSensor() // line threshold 50

	// Reading 70 at t0: error = 50-70 = -20. With no previous error the
	// derivative term is 1.2*(0-(-20)) = 24, so steering = -5-24 = -29.
	rig.rightColor.SetRGB(70, 0, 0)
	lastError, err := rig.robot.followStep(follow, 1, 200, 0)
	if err != nil {
		t.Fatalf("followStep failed: %v", err)
	}
	if !almostEqual(lastError, -20) {
		t.Fatalf("error term = %v, want -20", lastError)
	}
	// MoveSteering(-29, 200): left = 200*(1-0.58) = 84, right clamps at 200.
	if got := rig.left.LastSpeed(); !almostEqual(got, 84) {
		t.Errorf("left speed = %v, want 84", got)
	}
	if got := rig.right.LastSpeed(); !almostEqual(got, 200) {
		t.Errorf("right speed = %v, want 200", got)
	}

	// Reading 60 at t1: error = -10, decreasing in magnitude. dCorrection =
	// 1.2*(-20-(-10)) = -12 is negative, pushing the net correction
	// (p - d) = -2.5 + 12 = 9.5 past the pure-P term.
	rig.rightColor.SetRGB(60, 0, 0)
	lastError, err = rig.robot.followStep(follow, 1, 200, lastError)
	if err != nil {
		t.Fatalf("followStep failed: %v", err)
	}
	if !almostEqual(lastError, -10) {
		t.Fatalf("error term = %v, want -10", lastError)
	}
	// MoveSteering(9.5, 200): left clamps at 200, right = 200*(1-0.19) = 162.
	if got := rig.left.LastSpeed(); !almostEqual(got, 200) {
		t.Errorf("left speed = %v, want 200", got)
	}
	if got := rig.right.LastSpeed(); !almostEqual(got, 162) {
		t.Errorf("right speed = %v, want 162", got)
	}
}

func TestFollowStepSideSignFlipsSteering(t *testing.T) {
	rig := newTestRig(t)
	follow := rig.robot.RightSensor()
	rig.rightColor.SetRGB(70, 0, 0)

	if _, err := rig.robot.followStep(follow, -1, 200, 0); err != nil {
		t.Fatalf("followStep failed: %v", err)
	}
	// Steering +29 instead of -29: right wheel attenuated.
	if got := rig.right.LastSpeed(); !almostEqual(got, 84) {
		t.Errorf("right speed = %v, want 84", got)
	}
	if got := rig.left.LastSpeed(); !almostEqual(got, 200) {
		t.Errorf("left speed = %v, want 200", got)
	}
}

func TestFollowLineToLineStopsOnCrossLine(t *testing.T) {
	rig := newTestRig(t)
	// Following with the right sensor; the left sensor watches for the stop
	// condition and turns white on the third poll.
	polls := 0
	rig.leftColor.RGBFunc = func() (int, int, int) {
		polls++
		if polls >= 3 {
			return 90, 0, 0
		}
		return 50, 0, 0
	}
	rig.rightColor.SetRGB(55, 0, 0)

	if err := rig.robot.FollowLineToLine(200, true, true); err != nil {
		t.Fatalf("FollowLineToLine failed: %v", err)
	}
	if len(rig.left.Speeds()) == 0 {
		t.Error("no correction commands before the cross line")
	}
	if got := rig.left.Stops(); len(got) == 0 || got[len(got)-1] != hw.Hold {
		t.Errorf("left stops = %v, want final Hold", got)
	}
}

func TestFollowLineForTimeTerminatesOnDuration(t *testing.T) {
	rig := newTestRig(t)
	rig.rightColor.SetRGB(55, 0, 0)

	start := time.Now()
	if err := rig.robot.FollowLineForTime(200, 20*time.Millisecond, true, true); err != nil {
		t.Fatalf("FollowLineForTime failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("follow took %v, duration did not bound the loop", elapsed)
	}
	if len(rig.left.Speeds()) == 0 {
		t.Error("no correction commands issued")
	}
	if got := rig.right.Stops(); len(got) == 0 || got[len(got)-1] != hw.Hold {
		t.Errorf("right stops = %v, want final Hold", got)
	}
}

func TestTurnToLineStopsOnLineMarker(t *testing.T) {
	rig := newTestRig(t)
	readings := []int{50, 90, 90, 10}
	i := 0
	rig.rightColor.RGBFunc = func() (int, int, int) {
		v := readings[i]
		if i < len(readings)-1 {
			i++
		}
		return v, 0, 0
	}

	if err := rig.robot.TurnToLine(150, true, 0); err != nil {
		t.Fatalf("TurnToLine failed: %v", err)
	}
	// The spin command is steering 100: the right wheel counter-rotates.
	if got := rig.left.LastSpeed(); !almostEqual(got, 150) {
		t.Errorf("left speed = %v, want 150", got)
	}
	if got := rig.right.LastSpeed(); !almostEqual(got, -150) {
		t.Errorf("right speed = %v, want -150", got)
	}
	if got := rig.right.Stops(); len(got) == 0 || got[len(got)-1] != hw.Hold {
		t.Errorf("right stops = %v, want final Hold", got)
	}
}

func TestTurnToLineTimeoutStillStopsMotors(t *testing.T) {
	rig := newTestRig(t)
	rig.rightColor.SetRGB(50, 0, 0) // never white

	err := rig.robot.TurnToLine(150, true, 10*time.Millisecond)
	if !errors.Is(err, ErrWaitTimeout) {
		t.Fatalf("expected ErrWaitTimeout, got %v", err)
	}
	if got := rig.right.Stops(); len(got) == 0 {
		t.Error("motors were not stopped after the timeout")
	}
}

func TestDriveToLineSequence(t *testing.T) {
	rig := newTestRig(t)
	turned := 0.0
	rig.right.AngleFunc = func() float64 {
		v := turned
		turned += 200
		return v
	}
	readings := []int{50, 90, 10}
	i := 0
	rig.rightColor.RGBFunc = func() (int, int, int) {
		v := readings[i]
		if i < len(readings)-1 {
			i++
		}
		return v, 0, 0
	}

	if err := rig.robot.DriveToLine(300, 5, 2, true); err != nil {
		t.Fatalf("DriveToLine failed: %v", err)
	}

	// The creep phase runs at half speed with no steering.
	var sawCreep bool
	for _, s := range rig.left.Speeds() {
		if almostEqual(s, 150) {
			sawCreep = true
		}
	}
	if !sawCreep {
		t.Error("no half-speed creep command issued")
	}
	if got := rig.left.Stops(); len(got) < 3 {
		t.Errorf("stops = %v, want stops after both drives and the line", got)
	}
}
