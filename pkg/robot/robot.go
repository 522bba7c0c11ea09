// Package robot implements the motion core: gyro-corrected driving, spot
// turns, PD line following, line detection and light sensor calibration.
// All operations are blocking poll loops on the calling goroutine; the robot
// is a single physical resource and expects exactly one control goroutine.
package robot

import (
	"math"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/smallbots/rover/pkg/calibration"
	"github.com/smallbots/rover/pkg/hw"
)

const (
	// steeringAttenuation converts a steering unit into the fraction shaved
	// off the inner wheel. 0.02 * 100 units = full stop of the inner wheel.
	steeringAttenuation = 0.02
	// maxSteering commands a curve-in-place.
	maxSteering = 100

	// controlTick paces the closed-loop control loops.
	controlTick = time.Millisecond

	gyroSettleDelay  = 500 * time.Millisecond
	gyroResetDelay   = 500 * time.Millisecond
	driftCheckWindow = time.Second
)

// Parts is the hardware a Robot owns. Left, Right and Gyro are required.
// Front and Rear are attachment motors: owned, settled and stopped with the
// rest of the robot but never driven by the motion primitives.
type Parts struct {
	Front hw.Motor
	Rear  hw.Motor
	Left  hw.Motor
	Right hw.Motor

	LeftColor  hw.ColorSensor
	RightColor hw.ColorSensor

	Gyro hw.Gyro
}

// Robot composes four motors, two light sensors and a gyro into driving,
// turning and line-following behaviors.
type Robot struct {
	parts Parts

	leftSensor  *LightSensor
	rightSensor *LightSensor

	tick  time.Duration
	now   func() time.Time
	sleep func(time.Duration)
}

// New builds a Robot and derives both light sensors' thresholds from the
// calibration bounds.
func New(parts Parts, bounds calibration.Bounds) (*Robot, error) {
	if parts.Left == nil || parts.Right == nil {
		return nil, pkgerrors.New("left and right drive motors are required")
	}
	if parts.Gyro == nil {
		return nil, pkgerrors.New("gyro is required")
	}

	leftSensor, err := NewLightSensor(parts.LeftColor, bounds.LeftLow, bounds.LeftHigh)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "left light sensor")
	}
	rightSensor, err := NewLightSensor(parts.RightColor, bounds.RightLow, bounds.RightHigh)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "right light sensor")
	}

	return &Robot{
		parts:       parts,
		leftSensor:  leftSensor,
		rightSensor: rightSensor,
		tick:        controlTick,
		now:         time.Now,
		sleep:       time.Sleep,
	}, nil
}

// LeftSensor returns the left light sensor.
func (r *Robot) LeftSensor() *LightSensor { return r.leftSensor }

// RightSensor returns the right light sensor.
func (r *Robot) RightSensor() *LightSensor { return r.rightSensor }

// ApplyCalibration rebuilds both light sensors from freshly discovered
// bounds. All thresholds change together; the old sensors are discarded.
func (r *Robot) ApplyCalibration(bounds calibration.Bounds) error {
	leftSensor, err := NewLightSensor(r.parts.LeftColor, bounds.LeftLow, bounds.LeftHigh)
	if err != nil {
		return pkgerrors.Wrap(err, "left light sensor")
	}
	rightSensor, err := NewLightSensor(r.parts.RightColor, bounds.RightLow, bounds.RightHigh)
	if err != nil {
		return pkgerrors.Wrap(err, "right light sensor")
	}
	r.leftSensor = leftSensor
	r.rightSensor = rightSensor
	return nil
}

// Settle reads the gyro once to let it stabilize, waits, then zeroes it.
// Call once after the hardware is opened, before the first motion.
func (r *Robot) Settle() error {
	if _, err := r.parts.Gyro.Rate(); err != nil {
		return pkgerrors.Wrap(err, "failed to read gyro rate")
	}
	if _, err := r.parts.Gyro.Angle(); err != nil {
		return pkgerrors.Wrap(err, "failed to read gyro angle")
	}
	r.sleep(gyroSettleDelay)
	return pkgerrors.Wrap(r.parts.Gyro.ResetAngle(0), "failed to zero gyro")
}

// MoveSteering commands both drive motors from a steering coefficient and a
// base speed. Positive steering attenuates the right wheel (a right turn);
// the clamp keeps either wheel from exceeding the commanded base speed, so
// steering only slows the inner wheel, never boosts the outer one.
// Non-blocking: the motors keep running until the next command or Stop.
func (r *Robot) MoveSteering(steering, speed float64) error {
	leftSpeed := speed * math.Min(1, 1+steeringAttenuation*steering)
	rightSpeed := speed * math.Min(1, 1-steeringAttenuation*steering)
	if err := r.parts.Left.Run(leftSpeed); err != nil {
		return pkgerrors.Wrap(err, "failed to run left motor")
	}
	return pkgerrors.Wrap(r.parts.Right.Run(rightSpeed), "failed to run right motor")
}

// Stop stops both drive motors with the given brake mode.
func (r *Robot) Stop(mode hw.BrakeMode) error {
	if err := r.parts.Right.Stop(mode); err != nil {
		return pkgerrors.Wrap(err, "failed to stop right motor")
	}
	return pkgerrors.Wrap(r.parts.Left.Stop(mode), "failed to stop left motor")
}

// GyroAngle returns the current heading.
func (r *Robot) GyroAngle() (float64, error) {
	angle, err := r.parts.Gyro.Angle()
	return angle, pkgerrors.Wrap(err, "failed to read gyro")
}

// ResetGyro rebases the heading to angle and logs the before/after readings
// so drift across resets is visible in the daemon log.
func (r *Robot) ResetGyro(angle float64) error {
	start, err := r.parts.Gyro.Angle()
	if err != nil {
		return pkgerrors.Wrap(err, "failed to read gyro")
	}
	r.sleep(gyroResetDelay)
	if err := r.parts.Gyro.ResetAngle(angle); err != nil {
		return pkgerrors.Wrap(err, "failed to reset gyro")
	}
	r.sleep(gyroResetDelay)
	actual, err := r.parts.Gyro.Angle()
	if err != nil {
		return pkgerrors.Wrap(err, "failed to read gyro after reset")
	}
	logrus.WithFields(logrus.Fields{
		"start":  start,
		"goal":   angle,
		"actual": actual,
	}).Debug("gyro reset")
	return nil
}

// CheckGyroDrift samples the heading twice a second apart while the robot is
// stationary and reports whether it moved. Call only when no motion is in
// progress.
func (r *Robot) CheckGyroDrift() (bool, error) {
	before, err := r.parts.Gyro.Angle()
	if err != nil {
		return false, pkgerrors.Wrap(err, "failed to read gyro")
	}
	r.sleep(driftCheckWindow)
	after, err := r.parts.Gyro.Angle()
	if err != nil {
		return false, pkgerrors.Wrap(err, "failed to read gyro")
	}
	if before != after {
		logrus.WithFields(logrus.Fields{
			"before": before,
			"after":  after,
		}).Warn("gyro drift detected")
		return true, nil
	}
	logrus.Debug("no gyro drift")
	return false, nil
}

// sensor selects a light sensor by side.
func (r *Robot) sensor(useRight bool) *LightSensor {
	if useRight {
		return r.rightSensor
	}
	return r.leftSensor
}

func sign(v float64) float64 {
	return math.Copysign(1, v)
}
