package robot

import (
	"math"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/smallbots/rover/pkg/hw"
)

const (
	// rotationPerDistanceUnit converts a travel distance into wheel rotation
	// degrees. Wheel constant for this chassis.
	rotationPerDistanceUnit = 51.9
	// driveBaseSpeed is the constant floor added atop the ramped speed
	// component, signed to match travel direction.
	driveBaseSpeed = 100

	// turnGain scales heading error into steering speed.
	turnGain = 0.01
	// turnStictionOffset is added in the direction of the error to overcome
	// static friction near the target.
	turnStictionOffset = 20

	// DefaultDriveTimeout bounds Drive when DriveOptions.Timeout is zero.
	DefaultDriveTimeout = 20 * time.Second
	// DefaultTurnTimeout bounds Turn when TurnOptions.Timeout is zero.
	DefaultTurnTimeout = 5 * time.Second
)

// ErrZeroSpeed is returned when a motion is requested with speed 0, which
// has no defined travel direction.
var ErrZeroSpeed = pkgerrors.New("speed must be nonzero")

// DriveOptions tunes Drive. The zero value selects the defaults.
type DriveOptions struct {
	// Timeout bounds the whole drive; zero means DefaultDriveTimeout.
	Timeout time.Duration
	// SteeringGain scales the gyro heading correction; zero means 1.
	SteeringGain float64
}

// TurnOptions tunes Turn. The zero value selects the defaults.
type TurnOptions struct {
	// Timeout bounds the turn; zero means DefaultTurnTimeout.
	Timeout time.Duration
	// Tolerance is the heading error band, in degrees, that counts as
	// arrived. Zero keeps the exact-zero termination of the original
	// controller, which can oscillate past the target and only exit via the
	// timeout; set a small band to trade accuracy for determinism.
	Tolerance float64
}

// Drive travels a signed distance in a straight line, correcting heading
// drift against the gyro and ramping speed over a half-sine profile. The
// loop exits when the accumulated wheel rotation reaches the target or the
// timeout elapses, whichever comes first, then stops with Hold.
//
// distance 0 is a no-op; speed must be nonzero.
func (r *Robot) Drive(distance, speed float64, opts DriveOptions) error {
	if distance == 0 {
		// A zero rotation target would divide by zero in the ramp.
		return nil
	}
	if speed == 0 {
		return ErrZeroSpeed
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultDriveTimeout
	}
	if opts.SteeringGain == 0 {
		opts.SteeringGain = 1
	}

	startAngle, err := r.parts.Gyro.Angle()
	if err != nil {
		return pkgerrors.Wrap(err, "failed to read gyro")
	}

	if distance < 0 {
		distance = -distance
		speed = -speed
	}
	rotation := distance * rotationPerDistanceUnit

	if err := r.parts.Right.ResetAngle(0); err != nil {
		return pkgerrors.Wrap(err, "failed to reset drive encoder")
	}

	deadline := r.now().Add(opts.Timeout)
	for {
		turned, err := r.parts.Right.Angle()
		if err != nil {
			return pkgerrors.Wrap(err, "failed to read drive encoder")
		}
		if math.Abs(turned) >= rotation || r.now().After(deadline) {
			break
		}

		current, err := r.parts.Gyro.Angle()
		if err != nil {
			return pkgerrors.Wrap(err, "failed to read gyro")
		}
		headingError := current - startAngle

		ramp := math.Min(math.Sin(math.Abs(turned)/rotation*math.Pi), math.Abs(speed)-driveBaseSpeed)
		steering := headingError * opts.SteeringGain * sign(speed)
		if err := r.MoveSteering(steering, ramp*speed+math.Copysign(driveBaseSpeed, speed)); err != nil {
			return err
		}
		r.sleep(r.tick)
	}

	return r.Stop(hw.Hold)
}

// Turn rotates in place toward an absolute gyro heading using a proportional
// controller with a stiction offset. The loop exits when the heading error
// falls inside the tolerance band or the timeout elapses, then stops with
// Hold and logs the target versus achieved angle.
func (r *Robot) Turn(target, speed float64, opts TurnOptions) error {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTurnTimeout
	}

	deadline := r.now().Add(opts.Timeout)
	for {
		current, err := r.parts.Gyro.Angle()
		if err != nil {
			return pkgerrors.Wrap(err, "failed to read gyro")
		}
		headingError := current - target
		if math.Abs(headingError) <= opts.Tolerance || r.now().After(deadline) {
			break
		}

		if err := r.MoveSteering(maxSteering, speed*headingError*turnGain+math.Copysign(turnStictionOffset, headingError)); err != nil {
			return err
		}
		r.sleep(r.tick)
	}

	if err := r.Stop(hw.Hold); err != nil {
		return err
	}

	achieved, err := r.parts.Gyro.Angle()
	if err != nil {
		return pkgerrors.Wrap(err, "failed to read gyro after turn")
	}
	logrus.WithFields(logrus.Fields{
		"target":   target,
		"achieved": achieved,
	}).Debug("turn finished")
	return nil
}
