package config

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/smallbots/rover/pkg/calibration"
	"github.com/smallbots/rover/pkg/utils/ptr"
)

var (
	defaultFileConfig = &RawFileConfig{
		// Factory sensor bounds. They are a usable starting point on most
		// mats but a calibration sweep should replace them before any
		// serious line work.
		LeftLow:   ptr.To(10.0),
		LeftHigh:  ptr.To(105.0),
		RightLow:  ptr.To(20.0),
		RightHigh: ptr.To(160.0),
		// Empty means no scheduled drift checks.
		DriftCheckCron:     ptr.To(""),
		AllowNonRootAccess: ptr.To(false),
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = defaultFileConfig
	}

	f := &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}

	return f
}

type RawFileConfig struct {
	LeftLow            *float64 `json:"leftLow,omitempty"`
	LeftHigh           *float64 `json:"leftHigh,omitempty"`
	RightLow           *float64 `json:"rightLow,omitempty"`
	RightHigh          *float64 `json:"rightHigh,omitempty"`
	DriftCheckCron     *string  `json:"driftCheckCron,omitempty"`
	AllowNonRootAccess *bool    `json:"allowNonRootAccess,omitempty"`
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	bounds := c.SensorBounds()
	rawConfig := &RawFileConfig{
		LeftLow:            ptr.To(bounds.LeftLow),
		LeftHigh:           ptr.To(bounds.LeftHigh),
		RightLow:           ptr.To(bounds.RightLow),
		RightHigh:          ptr.To(bounds.RightHigh),
		DriftCheckCron:     ptr.To(c.DriftCheckCron()),
		AllowNonRootAccess: ptr.To(c.AllowNonRootAccess()),
	}

	return rawConfig, nil
}

func (f *File) SensorBounds() calibration.Bounds {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	bounds := calibration.Bounds{
		LeftLow:   *defaultFileConfig.LeftLow,
		LeftHigh:  *defaultFileConfig.LeftHigh,
		RightLow:  *defaultFileConfig.RightLow,
		RightHigh: *defaultFileConfig.RightHigh,
	}

	if f.c.LeftLow != nil {
		bounds.LeftLow = *f.c.LeftLow
	}
	if f.c.LeftHigh != nil {
		bounds.LeftHigh = *f.c.LeftHigh
	}
	if f.c.RightLow != nil {
		bounds.RightLow = *f.c.RightLow
	}
	if f.c.RightHigh != nil {
		bounds.RightHigh = *f.c.RightHigh
	}

	return bounds
}

func (f *File) DriftCheckCron() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	var cron string

	if f.c.DriftCheckCron != nil {
		cron = *f.c.DriftCheckCron
	} else {
		cron = *defaultFileConfig.DriftCheckCron
	}

	return cron
}

func (f *File) AllowNonRootAccess() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	var allowNonRootAccess bool

	if f.c.AllowNonRootAccess != nil {
		allowNonRootAccess = *f.c.AllowNonRootAccess
	} else {
		allowNonRootAccess = *defaultFileConfig.AllowNonRootAccess
	}

	return allowNonRootAccess
}

func (f *File) SetSensorBounds(b calibration.Bounds) {
	if f.c == nil {
		panic("config is nil")
	}

	if !b.Valid() {
		panic("sensor bounds must have low below high on both sides")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.LeftLow = &b.LeftLow
	f.c.LeftHigh = &b.LeftHigh
	f.c.RightLow = &b.RightLow
	f.c.RightHigh = &b.RightHigh
}

func (f *File) SetDriftCheckCron(s string) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.DriftCheckCron = &s
}

func (f *File) SetAllowNonRootAccess(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.c.AllowNonRootAccess = &b
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// Since we want to tell if the file is empty, using json.Decoder will
	// not work.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}
	configString := string(b)

	if strings.TrimSpace(configString) == "" {
		// If the file is empty, return the empty config.
		// Do not make f.c a nil.
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	bounds := f.SensorBounds()
	return logrus.Fields{
		"leftLow":            bounds.LeftLow,
		"leftHigh":           bounds.LeftHigh,
		"rightLow":           bounds.RightLow,
		"rightHigh":          bounds.RightHigh,
		"driftCheckCron":     f.DriftCheckCron(),
		"allowNonRootAccess": f.AllowNonRootAccess(),
	}
}
