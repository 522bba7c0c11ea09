package client

import (
	"encoding/json"
	"strconv"

	pkgerrors "github.com/pkg/errors"

	"github.com/smallbots/rover/pkg/calibration"
	"github.com/smallbots/rover/pkg/config"
)

// Status mirrors the daemon's status response.
type Status struct {
	Version        string             `json:"version"`
	Busy           bool               `json:"busy"`
	GyroAngle      float64            `json:"gyroAngle"`
	SensorBounds   calibration.Bounds `json:"sensorBounds"`
	DriftCheckCron string             `json:"driftCheckCron,omitempty"`
	NextDriftCheck string             `json:"nextDriftCheck,omitempty"`
}

// BatteryInfo mirrors the fields of the daemon's battery response that the
// CLI cares about.
type BatteryInfo struct {
	Current    float64 `json:"Current"`
	Full       float64 `json:"Full"`
	ChargeRate float64 `json:"ChargeRate"`
	Voltage    float64 `json:"Voltage"`
}

// ChargePercent computes the charge level from current and full capacity.
func (b BatteryInfo) ChargePercent() float64 {
	if b.Full == 0 {
		return 0
	}
	return b.Current / b.Full * 100
}

type driveRequest struct {
	Distance       float64 `json:"distance"`
	Speed          float64 `json:"speed"`
	TimeoutSeconds float64 `json:"timeoutSeconds,omitempty"`
}

type turnRequest struct {
	Angle float64 `json:"angle"`
	Speed float64 `json:"speed"`
}

type followLineRequest struct {
	Speed          float64 `json:"speed"`
	RightSide      bool    `json:"rightSide"`
	UseRightSensor bool    `json:"useRightSensor"`
}

type followTimeRequest struct {
	Speed          float64 `json:"speed"`
	Seconds        float64 `json:"seconds"`
	RightSide      bool    `json:"rightSide"`
	UseRightSensor bool    `json:"useRightSensor"`
}

type turnToLineRequest struct {
	Speed          float64 `json:"speed"`
	UseRightSensor bool    `json:"useRightSensor"`
	TimeoutSeconds float64 `json:"timeoutSeconds,omitempty"`
}

type driveToLineRequest struct {
	Speed          float64 `json:"speed"`
	DistanceBefore float64 `json:"distanceBefore"`
	DistanceAfter  float64 `json:"distanceAfter"`
	UseRightSensor bool    `json:"useRightSensor"`
}

type calibrateRequest struct {
	Seconds float64 `json:"seconds,omitempty"`
}

type resetGyroRequest struct {
	Angle float64 `json:"angle"`
}

func (c *Client) postJSON(path string, req any) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", pkgerrors.Wrap(err, "failed to marshal request")
	}
	return c.Post(path, string(payload))
}

func (c *Client) Drive(distance, speed, timeoutSeconds float64) (string, error) {
	return c.postJSON("/drive", driveRequest{Distance: distance, Speed: speed, TimeoutSeconds: timeoutSeconds})
}

func (c *Client) Turn(angle, speed float64) (string, error) {
	return c.postJSON("/turn", turnRequest{Angle: angle, Speed: speed})
}

func (c *Client) FollowLineToLine(speed float64, rightSide, useRightSensor bool) (string, error) {
	return c.postJSON("/follow-line", followLineRequest{Speed: speed, RightSide: rightSide, UseRightSensor: useRightSensor})
}

func (c *Client) FollowLineForTime(speed, seconds float64, rightSide, useRightSensor bool) (string, error) {
	return c.postJSON("/follow-time", followTimeRequest{Speed: speed, Seconds: seconds, RightSide: rightSide, UseRightSensor: useRightSensor})
}

func (c *Client) TurnToLine(speed float64, useRightSensor bool, timeoutSeconds float64) (string, error) {
	return c.postJSON("/turn-to-line", turnToLineRequest{Speed: speed, UseRightSensor: useRightSensor, TimeoutSeconds: timeoutSeconds})
}

func (c *Client) DriveToLine(speed, distanceBefore, distanceAfter float64, useRightSensor bool) (string, error) {
	return c.postJSON("/drive-to-line", driveToLineRequest{Speed: speed, DistanceBefore: distanceBefore, DistanceAfter: distanceAfter, UseRightSensor: useRightSensor})
}

func (c *Client) Calibrate(seconds float64) (*calibration.Result, error) {
	ret, err := c.postJSON("/calibrate", calibrateRequest{Seconds: seconds})
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to calibrate")
	}

	var result calibration.Result
	if err := json.Unmarshal([]byte(ret), &result); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal calibration result")
	}

	return &result, nil
}

func (c *Client) ResetGyro(angle float64) (string, error) {
	return c.postJSON("/gyro/reset", resetGyroRequest{Angle: angle})
}

func (c *Client) CheckGyroDrift() (bool, error) {
	ret, err := c.Post("/gyro/check", "")
	if err != nil {
		return false, pkgerrors.Wrapf(err, "failed to check gyro drift")
	}

	drifting, err := strconv.ParseBool(ret)
	if err != nil {
		return false, pkgerrors.Wrapf(err, "failed to parse drift check response")
	}

	return drifting, nil
}

func (c *Client) GetGyroAngle() (float64, error) {
	ret, err := c.Get("/gyro")
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to get gyro angle")
	}

	angle, err := strconv.ParseFloat(ret, 64)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to parse gyro angle")
	}

	return angle, nil
}

func (c *Client) SetDriftCheckCron(expr string) (string, error) {
	payload, err := json.Marshal(expr)
	if err != nil {
		return "", err
	}
	return c.Put("/drift-check-cron", string(payload))
}

func (c *Client) GetStatus() (*Status, error) {
	ret, err := c.Get("/status")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get status")
	}

	var st Status
	if err := json.Unmarshal([]byte(ret), &st); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal status")
	}

	return &st, nil
}

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}

	var conf config.RawFileConfig
	if err := json.Unmarshal([]byte(ret), &conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}

	return &conf, nil
}

func (c *Client) GetBatteryInfo() (*BatteryInfo, error) {
	ret, err := c.Get("/battery-info")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get battery info")
	}

	var bat BatteryInfo
	if err := json.Unmarshal([]byte(ret), &bat); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal battery info")
	}

	return &bat, nil
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}
	// Remove "" around JSON string. I don't want to use a JSON decoder just for this.
	ret = ret[1 : len(ret)-1] // remove the surrounding quotes
	return ret, nil
}
