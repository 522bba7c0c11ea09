package robot

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smallbots/rover/pkg/calibration"
	"github.com/smallbots/rover/pkg/hw"
)

const (
	// DefaultCalibrationWindow is how long the sweep drives while sampling.
	DefaultCalibrationWindow = 5 * time.Second
	// calibrationSpeed is the fixed straight-line speed during the sweep.
	calibrationSpeed = 125

	// Seeds are intentionally inverted (the high seed sits below the low
	// seed) so the first real reading always replaces both.
	calibrationLowSeed  = 70
	calibrationHighSeed = 40
)

// Calibrate drives straight for the given window while tracking the running
// min/max of both sensors' light readings, then stops and returns the
// discovered bounds. Persisting the record and rebuilding the sensors is the
// caller's job (see ApplyCalibration). window <= 0 selects the default.
func (r *Robot) Calibrate(window time.Duration) (calibration.Bounds, error) {
	if window <= 0 {
		window = DefaultCalibrationWindow
	}

	bounds := calibration.Bounds{
		LeftLow:   calibrationLowSeed,
		LeftHigh:  calibrationHighSeed,
		RightLow:  calibrationLowSeed,
		RightHigh: calibrationHighSeed,
	}

	if err := r.MoveSteering(0, calibrationSpeed); err != nil {
		return bounds, err
	}

	deadline := r.now().Add(window)
	for r.now().Before(deadline) {
		right, err := r.rightSensor.Light()
		if err != nil {
			_ = r.Stop(hw.Hold)
			return bounds, err
		}
		left, err := r.leftSensor.Light()
		if err != nil {
			_ = r.Stop(hw.Hold)
			return bounds, err
		}

		if right > bounds.RightHigh {
			bounds.RightHigh = right
		}
		if right < bounds.RightLow {
			bounds.RightLow = right
		}
		if left > bounds.LeftHigh {
			bounds.LeftHigh = left
		}
		if left < bounds.LeftLow {
			bounds.LeftLow = left
		}
		r.sleep(r.tick)
	}

	if err := r.Stop(hw.Hold); err != nil {
		return bounds, err
	}

	logrus.WithFields(logrus.Fields{
		"leftLow":   bounds.LeftLow,
		"leftHigh":  bounds.LeftHigh,
		"rightLow":  bounds.RightLow,
		"rightHigh": bounds.RightHigh,
	}).Info("light sensor calibration complete")

	return bounds, nil
}
