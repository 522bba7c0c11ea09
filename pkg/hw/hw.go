// Package hw defines the hardware collaborators the motion core drives:
// motors, the gyroscope and the raw color sensors. The interfaces are the
// seam between the control logic in pkg/robot and the physical robot; real
// implementations live in this package next to their mock counterparts so
// tests and the daemon wire up the same way.
package hw

// BrakeMode selects how a motor stops.
type BrakeMode int

const (
	// Coast removes power and lets the wheel spin freely.
	Coast BrakeMode = iota
	// Brake shorts the motor windings for passive braking.
	Brake
	// Hold actively holds the current position.
	Hold
)

func (m BrakeMode) String() string {
	switch m {
	case Coast:
		return "coast"
	case Brake:
		return "brake"
	case Hold:
		return "hold"
	}
	return "unknown"
}

// Motor is a single motor channel. Angle reports the accumulated rotation
// in degrees since the last ResetAngle.
type Motor interface {
	Run(speed float64) error
	Stop(mode BrakeMode) error
	ResetAngle(value float64) error
	Angle() (float64, error)
}

// Gyro reports an absolute heading in degrees. ResetAngle rebases the
// heading to an arbitrary reference value.
type Gyro interface {
	Angle() (float64, error)
	ResetAngle(value float64) error
	// Rate returns the angular velocity in degrees per second. The motion
	// core reads it once at startup to settle the sensor.
	Rate() (float64, error)
}

// ColorSensor reports raw color channel intensities.
type ColorSensor interface {
	RGB() (r, g, b int, err error)
}
