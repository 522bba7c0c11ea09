package calibration

import "time"

// Bounds holds the lowest and highest summed light intensities seen by each
// sensor. Light sensor thresholds (black/line/white) are derived from these.
type Bounds struct {
	LeftLow   float64 `json:"leftLow"`
	LeftHigh  float64 `json:"leftHigh"`
	RightLow  float64 `json:"rightLow"`
	RightHigh float64 `json:"rightHigh"`
}

// Valid reports whether both sensors saw a usable intensity range. A sweep
// that never updated its inverted seeds produces an invalid record.
func (b Bounds) Valid() bool {
	return b.LeftHigh > b.LeftLow && b.RightHigh > b.RightLow
}

// Result is returned by the daemon after a calibration sweep.
type Result struct {
	Bounds          Bounds    `json:"bounds"`
	StartedAt       time.Time `json:"startedAt"`
	DurationSeconds float64   `json:"durationSeconds"`
}
