package robot

import (
	"time"

	"github.com/smallbots/rover/pkg/hw"
)

const (
	// PD gains for the shared line-following control law.
	followProportionalGain = 0.25
	followDerivativeGain   = 1.2

	// lineCreepFactor slows the approach while hunting for a line marker.
	lineCreepFactor = 0.5
)

// followSensors picks the sensor that drives the control law and the one
// that watches for the stop condition. The two are always opposite sides.
func (r *Robot) followSensors(useRightSensor bool) (follow, stop *LightSensor) {
	if useRightSensor {
		return r.rightSensor, r.leftSensor
	}
	return r.leftSensor, r.rightSensor
}

// sideSign flips the steering convention for following on the left edge of
// the line instead of the right.
func sideSign(rightSide bool) float64 {
	if rightSide {
		return 1
	}
	return -1
}

// followStep runs one PD correction tick and returns the new error term.
// error is the deviation of the measured light from the calibrated line
// midpoint: positive when the sensor drifted onto the line (darker).
func (r *Robot) followStep(follow *LightSensor, side, speed, lastError float64) (float64, error) {
	light, err := follow.Light()
	if err != nil {
		return 0, err
	}
	deviation := follow.Line() - light
	pCorrection := followProportionalGain * deviation
	dCorrection := followDerivativeGain * (lastError - deviation)
	if err := r.MoveSteering((pCorrection-dCorrection)*side, speed); err != nil {
		return 0, err
	}
	return deviation, nil
}

// FollowLineToLine follows a line edge with one sensor while the opposite
// sensor watches for the white gap of a cross line; it stops with Hold when
// the cross line is reached. rightSide selects the edge convention and
// useRightSensor the tracking sensor; the two are independent.
func (r *Robot) FollowLineToLine(speed float64, rightSide, useRightSensor bool) error {
	follow, stop := r.followSensors(useRightSensor)
	side := sideSign(rightSide)

	lastError := 0.0
	for {
		white, err := stop.IsWhite()
		if err != nil {
			return err
		}
		if white {
			break
		}
		lastError, err = r.followStep(follow, side, speed, lastError)
		if err != nil {
			return err
		}
		r.sleep(r.tick)
	}
	return r.Stop(hw.Hold)
}

// FollowLineForTime runs the same control law as FollowLineToLine but
// terminates purely on elapsed time.
func (r *Robot) FollowLineForTime(speed float64, duration time.Duration, rightSide, useRightSensor bool) error {
	follow, _ := r.followSensors(useRightSensor)
	side := sideSign(rightSide)

	deadline := r.now().Add(duration)
	lastError := 0.0
	var err error
	for r.now().Before(deadline) {
		lastError, err = r.followStep(follow, side, speed, lastError)
		if err != nil {
			return err
		}
		r.sleep(r.tick)
	}
	return r.Stop(hw.Hold)
}

// TurnToLine spins (a curve-in-place, not a true pivot) until the selected
// sensor sees a line marker, then stops with Hold. timeout <= 0 waits
// indefinitely; otherwise the wait is bounded and the motors are stopped
// even when the line never appears.
func (r *Robot) TurnToLine(speed float64, useRightSensor bool, timeout time.Duration) error {
	sensor := r.sensor(useRightSensor)
	if err := r.MoveSteering(maxSteering, speed); err != nil {
		return err
	}

	var waitErr error
	if timeout > 0 {
		waitErr = sensor.WaitForLineTimeout(timeout)
	} else {
		waitErr = sensor.WaitForLine()
	}

	if stopErr := r.Stop(hw.Hold); waitErr == nil {
		waitErr = stopErr
	}
	return waitErr
}

// DriveToLine drives a fixed pre-distance, creeps forward at half speed
// until the selected sensor sees a line marker, holds, then drives a fixed
// post-distance.
func (r *Robot) DriveToLine(speed, distanceBefore, distanceAfter float64, useRightSensor bool) error {
	sensor := r.sensor(useRightSensor)

	if err := r.Drive(distanceBefore, speed, DriveOptions{}); err != nil {
		return err
	}
	if err := r.MoveSteering(0, lineCreepFactor*speed); err != nil {
		return err
	}
	if err := sensor.WaitForLine(); err != nil {
		return err
	}
	if err := r.Stop(hw.Hold); err != nil {
		return err
	}
	return r.Drive(distanceAfter, speed, DriveOptions{})
}
