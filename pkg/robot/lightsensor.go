package robot

import (
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/smallbots/rover/pkg/hw"
)

// Threshold fractions of the calibrated low..high range.
const (
	blackFraction = 0.25
	lineFraction  = 0.5
	whiteFraction = 0.8
)

// sensorPollInterval paces the blocking wait loops.
const sensorPollInterval = 2 * time.Millisecond

// ErrWaitTimeout is returned by the bounded wait variants when the expected
// surface never appears before the deadline.
var ErrWaitTimeout = pkgerrors.New("timed out waiting for sensor condition")

// LightSensor wraps a raw color sensor and classifies its summed intensity
// against calibrated thresholds. Thresholds are fixed at construction;
// re-calibration builds a new instance.
type LightSensor struct {
	raw hw.ColorSensor

	black float64
	line  float64
	white float64

	poll  time.Duration
	sleep func(time.Duration)
}

// NewLightSensor derives the black/line/white thresholds from the calibrated
// low and high intensity bounds. high must be strictly greater than low.
func NewLightSensor(raw hw.ColorSensor, low, high float64) (*LightSensor, error) {
	if raw == nil {
		return nil, pkgerrors.New("raw color sensor is nil")
	}
	if high <= low {
		return nil, pkgerrors.Errorf("high bound %v must be greater than low bound %v", high, low)
	}
	span := high - low
	return &LightSensor{
		raw:   raw,
		black: low + span*blackFraction,
		line:  low + span*lineFraction,
		white: low + span*whiteFraction,
		poll:  sensorPollInterval,
		sleep: time.Sleep,
	}, nil
}

// Black returns the at-most-this-is-black threshold.
func (s *LightSensor) Black() float64 { return s.black }

// Line returns the midpoint threshold the PD line follower tracks.
func (s *LightSensor) Line() float64 { return s.line }

// White returns the at-least-this-is-white threshold.
func (s *LightSensor) White() float64 { return s.white }

// Light returns the sum of the raw color channels, a proxy for brightness.
func (s *LightSensor) Light() (float64, error) {
	r, g, b, err := s.raw.RGB()
	if err != nil {
		return 0, pkgerrors.Wrap(err, "failed to read color sensor")
	}
	return float64(r + g + b), nil
}

// IsWhite reports whether the sensor currently sees white.
func (s *LightSensor) IsWhite() (bool, error) {
	light, err := s.Light()
	if err != nil {
		return false, err
	}
	return light >= s.white, nil
}

// IsBlack reports whether the sensor currently sees black.
func (s *LightSensor) IsBlack() (bool, error) {
	light, err := s.Light()
	if err != nil {
		return false, err
	}
	return light <= s.black, nil
}

// WaitForWhite polls until the sensor sees white. It never times out: if the
// robot physically never reaches a white surface this blocks forever. Use
// WaitForWhiteTimeout when a hang is not acceptable.
func (s *LightSensor) WaitForWhite() error {
	return s.waitFor(s.IsWhite, 0)
}

// WaitForWhiteTimeout is WaitForWhite bounded by a deadline.
func (s *LightSensor) WaitForWhiteTimeout(timeout time.Duration) error {
	return s.waitFor(s.IsWhite, timeout)
}

// WaitForBlack polls until the sensor sees black. Like WaitForWhite, it can
// block forever.
func (s *LightSensor) WaitForBlack() error {
	return s.waitFor(s.IsBlack, 0)
}

// WaitForBlackTimeout is WaitForBlack bounded by a deadline.
func (s *LightSensor) WaitForBlackTimeout(timeout time.Duration) error {
	return s.waitFor(s.IsBlack, timeout)
}

// WaitForLine waits for a line marker: a white gap followed by a black bar.
func (s *LightSensor) WaitForLine() error {
	if err := s.WaitForWhite(); err != nil {
		return err
	}
	return s.WaitForBlack()
}

// WaitForLineTimeout is WaitForLine with a single deadline covering both the
// white and the black phase.
func (s *LightSensor) WaitForLineTimeout(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	if err := s.waitFor(s.IsWhite, timeout); err != nil {
		return err
	}
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return ErrWaitTimeout
	}
	return s.waitFor(s.IsBlack, remaining)
}

// waitFor polls cond until it holds. timeout <= 0 means no deadline.
func (s *LightSensor) waitFor(cond func() (bool, error), timeout time.Duration) error {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		ok, err := cond()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return ErrWaitTimeout
		}
		s.sleep(s.poll)
	}
}
