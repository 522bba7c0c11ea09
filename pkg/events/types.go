package events

import "encoding/json"

// Event name constants
const (
	MotionStarted       = "motion.started"
	MotionFinished      = "motion.finished"
	CalibrationFinished = "calibration.finished"
	GyroDrift           = "gyro.drift"
)

// Event is a generic SSE event from daemon.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// MotionEvent is the typed payload for motion.started and motion.finished.
type MotionEvent struct {
	Op    string `json:"op"`
	Error string `json:"error,omitempty"`
	Ts    int64  `json:"ts"`
}

// DriftEvent is the typed payload for gyro.drift.
type DriftEvent struct {
	Drifting bool  `json:"drifting"`
	Ts       int64 `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
//
// Example:
//
//	payload, err := events.DecodeAs[events.MotionEvent](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(payload.Op, payload.Error)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
