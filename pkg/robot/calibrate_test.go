package robot

import (
	"errors"
	"testing"
	"time"

	"github.com/smallbots/rover/pkg/hw"
)

func TestCalibrateTracksObservedExtremes(t *testing.T) {
	rig := newTestRig(t)
	// Both sensors oscillate between light sums 30 and 90. The inverted
	// seeds (low 70, high 40) must be overwritten by the first readings.
	flip := false
	oscillate := func() (int, int, int) {
		flip = !flip
		if flip {
			return 10, 10, 10
		}
		return 30, 30, 30
	}
	rig.leftColor.RGBFunc = oscillate
	rig.rightColor.RGBFunc = oscillate

	bounds, err := rig.robot.Calibrate(20 * time.Millisecond)
	if err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}

	if !almostEqual(bounds.LeftLow, 30) || !almostEqual(bounds.LeftHigh, 90) {
		t.Errorf("left bounds = (%v, %v), want (30, 90)", bounds.LeftLow, bounds.LeftHigh)
	}
	if !almostEqual(bounds.RightLow, 30) || !almostEqual(bounds.RightHigh, 90) {
		t.Errorf("right bounds = (%v, %v), want (30, 90)", bounds.RightLow, bounds.RightHigh)
	}
	if !bounds.Valid() {
		t.Error("calibration produced invalid bounds")
	}

	// The sweep drives straight at the fixed calibration speed and holds at
	// the end.
	if got := rig.left.LastSpeed(); !almostEqual(got, 125) {
		t.Errorf("left sweep speed = %v, want 125", got)
	}
	if got := rig.right.LastSpeed(); !almostEqual(got, 125) {
		t.Errorf("right sweep speed = %v, want 125", got)
	}
	if got := rig.left.Stops(); len(got) != 1 || got[0] != hw.Hold {
		t.Errorf("left stops = %v, want [hold]", got)
	}
}

func TestCalibrateStopsMotorsOnSensorFault(t *testing.T) {
	rig := newTestRig(t)
	rig.rightColor.Err = errors.New("bus fault")

	if _, err := rig.robot.Calibrate(20 * time.Millisecond); err == nil {
		t.Fatal("expected sensor fault to propagate")
	}
	if got := rig.right.Stops(); len(got) == 0 {
		t.Error("motors were not stopped after the fault")
	}
}
