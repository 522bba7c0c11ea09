package daemon

import (
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/smallbots/rover/pkg/calibration"
	"github.com/smallbots/rover/pkg/events"
	"github.com/smallbots/rover/pkg/robot"
)

// ErrRobotBusy is returned when a motion is requested while another one is
// still running. There is exactly one physical robot; motions never queue.
var ErrRobotBusy = pkgerrors.New("another motion is in progress")

var motionMu = &sync.Mutex{}

// robot accessors (function vars) for test seam; default to brick methods.
var (
	robotDrive = func(distance, speed float64, timeout time.Duration) error {
		return brick.Drive(distance, speed, robot.DriveOptions{Timeout: timeout})
	}
	robotTurn = func(angle, speed float64) error {
		return brick.Turn(angle, speed, robot.TurnOptions{})
	}
	robotFollowToLine = func(speed float64, rightSide, useRightSensor bool) error {
		return brick.FollowLineToLine(speed, rightSide, useRightSensor)
	}
	robotFollowForTime = func(speed float64, d time.Duration, rightSide, useRightSensor bool) error {
		return brick.FollowLineForTime(speed, d, rightSide, useRightSensor)
	}
	robotTurnToLine = func(speed float64, useRightSensor bool, timeout time.Duration) error {
		return brick.TurnToLine(speed, useRightSensor, timeout)
	}
	robotDriveToLine = func(speed, before, after float64, useRightSensor bool) error {
		return brick.DriveToLine(speed, before, after, useRightSensor)
	}
	robotCalibrate = func(window time.Duration) (calibration.Bounds, error) {
		return brick.Calibrate(window)
	}
	robotApplyCalibration = func(bounds calibration.Bounds) error {
		return brick.ApplyCalibration(bounds)
	}
	robotResetGyro  = func(angle float64) error { return brick.ResetGyro(angle) }
	robotDriftCheck = func() (bool, error) { return brick.CheckGyroDrift() }
	robotGyroAngle  = func() (float64, error) { return brick.GyroAngle() }
)

// runMotion serializes access to the robot. The caller's fn runs with the
// motion lock held; concurrent requests get ErrRobotBusy instead of queueing
// behind a motion that may take tens of seconds.
func runMotion(op string, fn func() error) error {
	if !motionMu.TryLock() {
		return ErrRobotBusy
	}
	defer motionMu.Unlock()

	sseHub.Publish(events.MotionStarted, events.MotionEvent{Op: op, Ts: time.Now().Unix()})

	err := fn()

	finished := events.MotionEvent{Op: op, Ts: time.Now().Unix()}
	if err != nil {
		finished.Error = err.Error()
	}
	sseHub.Publish(events.MotionFinished, finished)

	return err
}

func motionBusy() bool {
	if motionMu.TryLock() {
		motionMu.Unlock()
		return false
	}
	return true
}

// motionIdleCheck is the scheduler precheck: scheduled drift checks must not
// preempt a motion.
func motionIdleCheck() error {
	if motionBusy() {
		return ErrRobotBusy
	}
	return nil
}

// scheduledDriftCheck is the scheduler task behind the drift check cron.
func scheduledDriftCheck() error {
	return runMotion("gyro.check", func() error {
		drifting, err := robotDriftCheck()
		if err != nil {
			return err
		}
		sseHub.Publish(events.GyroDrift, events.DriftEvent{Drifting: drifting, Ts: time.Now().Unix()})
		if drifting {
			logrus.Warn("scheduled drift check found the gyro drifting; consider a gyro reset")
		}
		return nil
	})
}
