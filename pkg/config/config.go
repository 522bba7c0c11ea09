package config

import (
	"github.com/sirupsen/logrus"

	"github.com/smallbots/rover/pkg/calibration"
)

type Config interface {
	SensorBounds() calibration.Bounds
	DriftCheckCron() string
	AllowNonRootAccess() bool

	SetSensorBounds(calibration.Bounds)
	SetDriftCheckCron(string)
	SetAllowNonRootAccess(bool)

	LogrusFields() logrus.Fields

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}
