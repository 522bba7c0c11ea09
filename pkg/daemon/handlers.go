package daemon

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/distatus/battery"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/smallbots/rover/pkg/calibration"
	"github.com/smallbots/rover/pkg/config"
	"github.com/smallbots/rover/pkg/events"
	"github.com/smallbots/rover/pkg/version"
)

// Status is the daemon's snapshot of the robot for the status endpoint.
type Status struct {
	Version        string             `json:"version"`
	Busy           bool               `json:"busy"`
	GyroAngle      float64            `json:"gyroAngle"`
	SensorBounds   calibration.Bounds `json:"sensorBounds"`
	DriftCheckCron string             `json:"driftCheckCron,omitempty"`
	NextDriftCheck *time.Time         `json:"nextDriftCheck,omitempty"`
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

func abortBadRequest(c *gin.Context, err error) {
	c.IndentedJSON(http.StatusBadRequest, err.Error())
	_ = c.AbortWithError(http.StatusBadRequest, err)
}

// abortMotionError maps a motion failure to a status code: busy robots are a
// conflict, everything else is internal.
func abortMotionError(c *gin.Context, err error) {
	if errors.Is(err, ErrRobotBusy) {
		c.IndentedJSON(http.StatusConflict, err.Error())
		_ = c.AbortWithError(http.StatusConflict, err)
		return
	}
	c.IndentedJSON(http.StatusInternalServerError, err.Error())
	_ = c.AbortWithError(http.StatusInternalServerError, err)
}

func getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func getStatus(c *gin.Context) {
	st := Status{
		Version:        version.Version,
		Busy:           motionBusy(),
		SensorBounds:   conf.SensorBounds(),
		DriftCheckCron: conf.DriftCheckCron(),
	}
	if angle, err := robotGyroAngle(); err == nil {
		st.GyroAngle = angle
	}
	if driftChecker != nil {
		if next, running := driftChecker.Status(); running && !next.IsZero() {
			st.NextDriftCheck = &next
		}
	}
	c.IndentedJSON(http.StatusOK, st)
}

func getBatteryInfo(c *gin.Context) {
	batteries, err := battery.GetAll()
	if err != nil {
		logrus.Errorf("getBatteryInfo failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if len(batteries) == 0 {
		logrus.Errorf("no batteries found")
		c.IndentedJSON(http.StatusInternalServerError, "no batteries found")
		_ = c.AbortWithError(http.StatusInternalServerError, errors.New("no batteries found"))
		return
	}

	// The robot carries a single battery pack.
	bat := batteries[0]
	if bat.State == battery.Discharging {
		bat.ChargeRate = -bat.ChargeRate
	}

	c.IndentedJSON(http.StatusOK, bat)
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}

func getGyroAngle(c *gin.Context) {
	angle, err := robotGyroAngle()
	if err != nil {
		logrus.Errorf("getGyroAngle failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	c.IndentedJSON(http.StatusOK, angle)
}

func streamEvents(c *gin.Context) {
	ch := sseHub.Subscribe()
	defer sseHub.Unsubscribe(ch)

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, ev.Data)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func postDrive(c *gin.Context) {
	var req driveRequest
	if err := c.BindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	if req.Speed == 0 {
		abortBadRequest(c, fmt.Errorf("speed must be nonzero"))
		return
	}

	err := runMotion("drive", func() error {
		return robotDrive(req.Distance, req.Speed, time.Duration(req.TimeoutSeconds*float64(time.Second)))
	})
	if err != nil {
		abortMotionError(c, err)
		return
	}

	c.IndentedJSON(http.StatusCreated, "ok")
}

func postTurn(c *gin.Context) {
	var req turnRequest
	if err := c.BindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	if req.Speed <= 0 {
		abortBadRequest(c, fmt.Errorf("turn speed must be positive, got %v", req.Speed))
		return
	}

	err := runMotion("turn", func() error {
		return robotTurn(req.Angle, req.Speed)
	})
	if err != nil {
		abortMotionError(c, err)
		return
	}

	c.IndentedJSON(http.StatusCreated, "ok")
}

func postFollowLine(c *gin.Context) {
	var req followLineRequest
	if err := c.BindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	if req.Speed <= 0 {
		abortBadRequest(c, fmt.Errorf("follow speed must be positive, got %v", req.Speed))
		return
	}

	err := runMotion("follow.line", func() error {
		return robotFollowToLine(req.Speed, req.RightSide, req.UseRightSensor)
	})
	if err != nil {
		abortMotionError(c, err)
		return
	}

	c.IndentedJSON(http.StatusCreated, "ok")
}

func postFollowTime(c *gin.Context) {
	var req followTimeRequest
	if err := c.BindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	if req.Speed <= 0 {
		abortBadRequest(c, fmt.Errorf("follow speed must be positive, got %v", req.Speed))
		return
	}
	if req.Seconds <= 0 {
		abortBadRequest(c, fmt.Errorf("follow duration must be positive, got %v", req.Seconds))
		return
	}

	err := runMotion("follow.time", func() error {
		return robotFollowForTime(req.Speed, time.Duration(req.Seconds*float64(time.Second)), req.RightSide, req.UseRightSensor)
	})
	if err != nil {
		abortMotionError(c, err)
		return
	}

	c.IndentedJSON(http.StatusCreated, "ok")
}

func postTurnToLine(c *gin.Context) {
	var req turnToLineRequest
	if err := c.BindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	if req.Speed <= 0 {
		abortBadRequest(c, fmt.Errorf("turn speed must be positive, got %v", req.Speed))
		return
	}

	err := runMotion("turn.to-line", func() error {
		return robotTurnToLine(req.Speed, req.UseRightSensor, time.Duration(req.TimeoutSeconds*float64(time.Second)))
	})
	if err != nil {
		abortMotionError(c, err)
		return
	}

	c.IndentedJSON(http.StatusCreated, "ok")
}

func postDriveToLine(c *gin.Context) {
	var req driveToLineRequest
	if err := c.BindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	if req.Speed <= 0 {
		abortBadRequest(c, fmt.Errorf("drive speed must be positive, got %v", req.Speed))
		return
	}

	err := runMotion("drive.to-line", func() error {
		return robotDriveToLine(req.Speed, req.DistanceBefore, req.DistanceAfter, req.UseRightSensor)
	})
	if err != nil {
		abortMotionError(c, err)
		return
	}

	c.IndentedJSON(http.StatusCreated, "ok")
}

func postCalibrate(c *gin.Context) {
	var req calibrateRequest
	if err := c.BindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	if req.Seconds < 0 {
		abortBadRequest(c, fmt.Errorf("calibration window must not be negative, got %v", req.Seconds))
		return
	}

	var result calibration.Result
	err := runMotion("calibrate", func() error {
		started := time.Now()
		bounds, err := robotCalibrate(time.Duration(req.Seconds * float64(time.Second)))
		if err != nil {
			return err
		}
		if err := robotApplyCalibration(bounds); err != nil {
			return err
		}
		conf.SetSensorBounds(bounds)
		if err := conf.Save(); err != nil {
			logrus.Errorf("saveConfig failed: %v", err)
			return err
		}
		result = calibration.Result{
			Bounds:          bounds,
			StartedAt:       started,
			DurationSeconds: time.Since(started).Seconds(),
		}
		sseHub.Publish(events.CalibrationFinished, result)
		return nil
	})
	if err != nil {
		abortMotionError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"leftLow":   result.Bounds.LeftLow,
		"leftHigh":  result.Bounds.LeftHigh,
		"rightLow":  result.Bounds.RightLow,
		"rightHigh": result.Bounds.RightHigh,
	}).Info("calibration saved")

	c.IndentedJSON(http.StatusCreated, result)
}

func postResetGyro(c *gin.Context) {
	var req resetGyroRequest
	if err := c.BindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	err := runMotion("gyro.reset", func() error {
		return robotResetGyro(req.Angle)
	})
	if err != nil {
		abortMotionError(c, err)
		return
	}

	logrus.Infof("gyro reset to %v", req.Angle)

	c.IndentedJSON(http.StatusCreated, "ok")
}

func postCheckGyroDrift(c *gin.Context) {
	var drifting bool
	err := runMotion("gyro.check", func() error {
		var err error
		drifting, err = robotDriftCheck()
		if err != nil {
			return err
		}
		sseHub.Publish(events.GyroDrift, events.DriftEvent{Drifting: drifting, Ts: time.Now().Unix()})
		return nil
	})
	if err != nil {
		abortMotionError(c, err)
		return
	}

	c.IndentedJSON(http.StatusOK, drifting)
}

func setDriftCheckCron(c *gin.Context) {
	var expr string
	if err := c.BindJSON(&expr); err != nil {
		abortBadRequest(c, err)
		return
	}

	if expr == "" {
		driftChecker.Clear()
	} else if err := driftChecker.Schedule(expr); err != nil {
		abortBadRequest(c, fmt.Errorf("invalid cron expression %q: %v", expr, err))
		return
	}

	conf.SetDriftCheckCron(expr)
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set drift check cron to %q", expr)

	c.IndentedJSON(http.StatusCreated, "ok")
}
