package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/smallbots/rover/pkg/config"
	"github.com/smallbots/rover/pkg/events"
	"github.com/smallbots/rover/pkg/hw"
	"github.com/smallbots/rover/pkg/robot"
)

var (
	board        *hw.GoPiGo
	brick        *robot.Robot
	conf         config.Config
	sseHub       *events.Hub
	driftChecker *Scheduler
)

func setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/config", getConfig)
	router.GET("/status", getStatus)
	router.GET("/battery-info", getBatteryInfo)
	router.GET("/version", getVersion)
	router.GET("/gyro", getGyroAngle)
	router.GET("/events", streamEvents)
	router.POST("/drive", postDrive)
	router.POST("/turn", postTurn)
	router.POST("/follow-line", postFollowLine)
	router.POST("/follow-time", postFollowTime)
	router.POST("/turn-to-line", postTurnToLine)
	router.POST("/drive-to-line", postDriveToLine)
	router.POST("/calibrate", postCalibrate)
	router.POST("/gyro/reset", postResetGyro)
	router.POST("/gyro/check", postCheckGyroDrift)
	router.PUT("/drift-check-cron", setDriftCheckCron)

	return router
}

func Run(configPath string, unixSocketPath string, allowNonRoot bool) error {
	router := setupRoutes()

	var err error
	conf, err = config.NewFile(configPath)
	if err != nil {
		logrus.Fatalf("failed to parse config during startup: %v", err)
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	sseHub = events.NewHub()

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			err := conf.Load()
			if err != nil {
				logrus.Errorf("failed to reload config: %v", err)
				continue
			}
			if brick != nil {
				if err := brick.ApplyCalibration(conf.SensorBounds()); err != nil {
					logrus.Errorf("failed to apply reloaded sensor bounds: %v", err)
					continue
				}
			}
			logrus.Infof("config reloaded")
		}
	}()

	srv := &http.Server{
		Handler: router,
	}

	// Create the socket to listen on:
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		logrus.Fatal(err)
	}

	if conf.AllowNonRootAccess() || allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		err = os.Chmod(unixSocketPath, 0777)
		if err != nil {
			logrus.Fatal(err)
		}
	}

	// Serve HTTP on unix socket
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	// Open the GoPiGo3 board for motor/sensor access
	board = hw.NewGoPiGo()
	if err := board.Open(); err != nil {
		logrus.Fatal(err)
	}

	brick, err = robot.New(robot.Parts{
		Left:       board.LeftMotor(),
		Right:      board.RightMotor(),
		LeftColor:  board.LeftLight(),
		RightColor: board.RightLight(),
		Gyro:       board.Gyro(),
	}, conf.SensorBounds())
	if err != nil {
		logrus.Fatal(err)
	}

	if err := brick.Settle(); err != nil {
		logrus.Fatal(err)
	}
	logrus.Info("gyro settled, robot ready")

	driftChecker = NewScheduler(scheduledDriftCheck, motionIdleCheck)
	if expr := conf.DriftCheckCron(); expr != "" {
		if err := driftChecker.Schedule(expr); err != nil {
			logrus.Errorf("invalid drift check cron %q in config: %v", expr, err)
		}
	}
	driftChecker.Start()

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	// Wait for a SIGINT or SIGTERM:
	sig := <-sigc
	logrus.Infof("caught signal \"%s\": shutting down.", sig)

	logrus.Info("shutting down http server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(ctx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	cancel()

	logrus.Info("stopping drift check scheduler")
	driftChecker.Stop()

	if err := brick.Stop(hw.Coast); err != nil {
		logrus.Errorf("failed to stop motors before exiting: %v", err)
	}

	logrus.Info("closing gopigo3 board")
	err = board.Close()
	if err != nil {
		logrus.Errorf("failed to close gopigo3 board: %v", err)
	}

	logrus.Info("exiting")
	return nil
}
