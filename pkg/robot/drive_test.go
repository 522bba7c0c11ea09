package robot

import (
	"errors"
	"testing"
	"time"

	"github.com/smallbots/rover/pkg/hw"
)

func TestDriveZeroDistanceIsNoOp(t *testing.T) {
	rig := newTestRig(t)
	if err := rig.robot.Drive(0, 300, DriveOptions{}); err != nil {
		t.Fatalf("Drive failed: %v", err)
	}
	if n := len(rig.left.Speeds()) + len(rig.right.Speeds()); n != 0 {
		t.Errorf("drive of zero distance commanded %d motor runs, want 0", n)
	}
	if n := len(rig.left.Stops()) + len(rig.right.Stops()); n != 0 {
		t.Errorf("drive of zero distance commanded %d stops, want 0", n)
	}
}

func TestDriveZeroSpeedRejected(t *testing.T) {
	rig := newTestRig(t)
	if err := rig.robot.Drive(10, 0, DriveOptions{}); !errors.Is(err, ErrZeroSpeed) {
		t.Errorf("expected ErrZeroSpeed, got %v", err)
	}
}

func TestDriveTimesOutWhenRotationNeverReached(t *testing.T) {
	rig := newTestRig(t)
	rig.right.AngleFunc = func() float64 { return 0 } // wheel never moves

	start := time.Now()
	if err := rig.robot.Drive(10, 300, DriveOptions{Timeout: 20 * time.Millisecond}); err != nil {
		t.Fatalf("Drive failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("drive took %v, timeout did not bound the loop", elapsed)
	}
	if got := rig.right.Stops(); len(got) == 0 || got[len(got)-1] != hw.Hold {
		t.Errorf("right stops = %v, want final Hold", got)
	}
}

func TestDriveCompletesOnRotationTarget(t *testing.T) {
	rig := newTestRig(t)
	turned := 0.0
	rig.right.AngleFunc = func() float64 {
		v := turned
		turned += 100
		return v
	}
	if err := rig.robot.Drive(10, 300, DriveOptions{}); err != nil {
		t.Fatalf("Drive failed: %v", err)
	}
	// distance 10 -> 519 rotation units, encoder grows 100/tick: 6 reads.
	if len(rig.left.Speeds()) == 0 {
		t.Fatal("no motor commands issued")
	}
	if got := rig.left.Stops(); len(got) == 0 || got[len(got)-1] != hw.Hold {
		t.Errorf("left stops = %v, want final Hold", got)
	}
}

func TestDriveCorrectsHeadingDrift(t *testing.T) {
	rig := newTestRig(t)
	turned := 0.0
	rig.right.AngleFunc = func() float64 {
		v := turned
		turned += 100
		return v
	}
	// Heading reads 0 at start, then drifts to +5 during travel. Positive
	// error must steer right: left wheel at or above right wheel.
	first := true
	rig.gyro.AngleFunc = func() float64 {
		if first {
			first = false
			return 0
		}
		return 5
	}

	if err := rig.robot.Drive(10, 300, DriveOptions{}); err != nil {
		t.Fatalf("Drive failed: %v", err)
	}
	lefts, rights := rig.left.Speeds(), rig.right.Speeds()
	if len(lefts) == 0 || len(lefts) != len(rights) {
		t.Fatalf("unbalanced motor commands: %d left, %d right", len(lefts), len(rights))
	}
	last := len(lefts) - 1
	if lefts[last] < rights[last] {
		t.Errorf("positive heading error did not attenuate right wheel: left=%v right=%v", lefts[last], rights[last])
	}
}

func TestDriveNegativeDistanceReversesDirection(t *testing.T) {
	rig := newTestRig(t)
	turned := 0.0
	rig.right.AngleFunc = func() float64 {
		v := turned
		turned -= 100 // encoder counts down when reversing
		return v
	}

	if err := rig.robot.Drive(-10, 300, DriveOptions{}); err != nil {
		t.Fatalf("Drive failed: %v", err)
	}
	if got := rig.left.LastSpeed(); got >= 0 {
		t.Errorf("left speed = %v, want negative while reversing", got)
	}
	if got := rig.right.LastSpeed(); got >= 0 {
		t.Errorf("right speed = %v, want negative while reversing", got)
	}
}

func TestTurnReachesTargetOnSimulatedGyro(t *testing.T) {
	rig := newTestRig(t)
	// The gyro sweeps 10 degrees per reading and holds at 90.
	angle := 0.0
	rig.gyro.AngleFunc = func() float64 {
		v := angle
		if angle < 90 {
			angle += 10
		}
		return v
	}

	start := time.Now()
	if err := rig.robot.Turn(90, 300, TurnOptions{}); err != nil {
		t.Fatalf("Turn failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("turn took %v, want well under the 5s timeout", elapsed)
	}

	// First tick: error = 0-90 = -90, so the command speed is
	// 300*(-90)*0.01 + copysign(20, -90) = -290 at steering 100, which
	// counter-rotates the wheels.
	lefts, rights := rig.left.Speeds(), rig.right.Speeds()
	if len(lefts) == 0 {
		t.Fatal("no motor commands issued")
	}
	if !almostEqual(lefts[0], -290) || !almostEqual(rights[0], 290) {
		t.Errorf("first tick speeds = (%v, %v), want (-290, 290)", lefts[0], rights[0])
	}
	if got := rig.left.Stops(); len(got) == 0 || got[len(got)-1] != hw.Hold {
		t.Errorf("left stops = %v, want final Hold", got)
	}
}

func TestTurnTimesOutWhenGyroStuck(t *testing.T) {
	rig := newTestRig(t)
	rig.gyro.SetAngle(0)

	start := time.Now()
	if err := rig.robot.Turn(90, 300, TurnOptions{Timeout: 20 * time.Millisecond}); err != nil {
		t.Fatalf("Turn failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("turn took %v, timeout did not bound the loop", elapsed)
	}
}

func TestTurnToleranceBandStopsEarly(t *testing.T) {
	rig := newTestRig(t)
	// Heading approaches in 7 degree steps and never hits 90 exactly.
	angle := 0.0
	rig.gyro.AngleFunc = func() float64 {
		v := angle
		if angle < 89 {
			angle += 7
		}
		return v
	}
	if err := rig.robot.Turn(90, 300, TurnOptions{Timeout: 50 * time.Millisecond, Tolerance: 5}); err != nil {
		t.Fatalf("Turn failed: %v", err)
	}
	// 91 is within the 5 degree band; the loop must exit before the timeout.
	if got := rig.left.Stops(); len(got) == 0 || got[len(got)-1] != hw.Hold {
		t.Errorf("left stops = %v, want final Hold", got)
	}
}
