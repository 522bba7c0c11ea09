// Package calibration defines the types shared by the light sensor
// calibration sweep. It contains:
//
//   - Bounds: the per-sensor low/high intensities a sweep discovers
//   - Result: the view model returned by the daemon's calibrate API
//
// These types are shared across robot, daemon, client and CLI code to keep
// the JSON contract in one place.
package calibration
