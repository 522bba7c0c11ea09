package hw

import (
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gobot.io/x/gobot/drivers/aio"
	"gobot.io/x/gobot/drivers/i2c"
	g "gobot.io/x/gobot/platforms/dexter/gopigo3"
	"gobot.io/x/gobot/platforms/raspi"
)

// Analog ports for the grove light sensors. Port 1 maps to AD_1_1, port 2
// to AD_2_1 (see the Dexter GoPiGo3 pinout).
const (
	leftLightPin  = "AD_1_1"
	rightLightPin = "AD_2_1"
)

// gyroSampleInterval is how often the heading integrator samples the IMU.
const gyroSampleInterval = 10 * time.Millisecond

// gyroLSBPerDps converts raw MPU6050 gyro readings to degrees per second
// at the default +-250 dps full-scale range.
const gyroLSBPerDps = 131.0

// GoPiGo is the real hardware: a GoPiGo3 board on a Raspberry Pi with two
// grove light sensors on the analog ports and an MPU6050 IMU on I2C. It
// exposes the board's channels as the hw interfaces.
type GoPiGo struct {
	adaptor *raspi.Adaptor
	driver  *g.Driver
	left    *aio.GroveLightSensorDriver
	right   *aio.GroveLightSensorDriver
	imu     *i2c.MPU6050Driver

	gyro *imuGyro
}

func NewGoPiGo() *GoPiGo {
	adaptor := raspi.NewAdaptor()
	driver := g.NewDriver(adaptor)
	return &GoPiGo{
		adaptor: adaptor,
		driver:  driver,
		left:    aio.NewGroveLightSensorDriver(driver, leftLightPin),
		right:   aio.NewGroveLightSensorDriver(driver, rightLightPin),
		imu:     i2c.NewMPU6050Driver(adaptor),
	}
}

// Open connects the adaptor, starts every driver and begins heading
// integration.
func (b *GoPiGo) Open() error {
	if err := b.adaptor.Connect(); err != nil {
		return pkgerrors.Wrap(err, "failed to connect raspi adaptor")
	}
	if err := b.driver.Start(); err != nil {
		return pkgerrors.Wrap(err, "failed to start gopigo3 driver")
	}
	if err := b.left.Start(); err != nil {
		return pkgerrors.Wrap(err, "failed to start left light sensor")
	}
	if err := b.right.Start(); err != nil {
		return pkgerrors.Wrap(err, "failed to start right light sensor")
	}
	if err := b.imu.Start(); err != nil {
		return pkgerrors.Wrap(err, "failed to start imu")
	}

	b.gyro = newIMUGyro(b.imu)
	b.gyro.start()

	logrus.Info("gopigo3 hardware opened")
	return nil
}

// Close stops heading integration and halts the board.
func (b *GoPiGo) Close() error {
	if b.gyro != nil {
		b.gyro.stop()
	}
	if err := b.driver.Halt(); err != nil {
		return pkgerrors.Wrap(err, "failed to halt gopigo3 driver")
	}
	return pkgerrors.Wrap(b.adaptor.Finalize(), "failed to finalize raspi adaptor")
}

// LeftMotor returns the left drive motor channel.
func (b *GoPiGo) LeftMotor() Motor { return &gopigoMotor{d: b.driver, ch: g.MOTOR_LEFT} }

// RightMotor returns the right drive motor channel.
func (b *GoPiGo) RightMotor() Motor { return &gopigoMotor{d: b.driver, ch: g.MOTOR_RIGHT} }

// LeftLight returns the left color sensor. The grove sensor is a single
// analog intensity channel, mirrored across r/g/b so that summed light
// readings scale consistently.
func (b *GoPiGo) LeftLight() ColorSensor { return &groveColor{d: b.left} }

// RightLight returns the right color sensor.
func (b *GoPiGo) RightLight() ColorSensor { return &groveColor{d: b.right} }

// Gyro returns the heading gyro.
func (b *GoPiGo) Gyro() Gyro { return b.gyro }

type gopigoMotor struct {
	d  *g.Driver
	ch g.Motor
}

func (m *gopigoMotor) Run(speed float64) error {
	return m.d.SetMotorDps(m.ch, int(speed))
}

func (m *gopigoMotor) Stop(mode BrakeMode) error {
	if mode == Coast {
		// Zero power lets the wheel spin down freely.
		return m.d.SetMotorPower(m.ch, 0)
	}
	// Zero dps makes the firmware servo the wheel in place, which covers
	// both Brake and Hold on this board.
	return m.d.SetMotorDps(m.ch, 0)
}

func (m *gopigoMotor) ResetAngle(value float64) error {
	encoder, err := m.d.GetMotorEncoder(m.ch)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to read motor encoder")
	}
	return m.d.OffsetMotorEncoder(m.ch, float64(encoder)-value)
}

func (m *gopigoMotor) Angle() (float64, error) {
	encoder, err := m.d.GetMotorEncoder(m.ch)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "failed to read motor encoder")
	}
	return float64(encoder), nil
}

type groveColor struct {
	d *aio.GroveLightSensorDriver
}

func (s *groveColor) RGB() (int, int, int, error) {
	v, err := s.d.Read()
	if err != nil {
		return 0, 0, 0, pkgerrors.Wrap(err, "failed to read light sensor")
	}
	return v, v, v, nil
}

// imuGyro integrates the MPU6050 z-axis rate into an absolute heading.
type imuGyro struct {
	d *i2c.MPU6050Driver

	mu      sync.Mutex
	heading float64
	rate    float64
	offset  float64

	done chan struct{}
}

func newIMUGyro(d *i2c.MPU6050Driver) *imuGyro {
	return &imuGyro{d: d, done: make(chan struct{})}
}

func (gy *imuGyro) start() {
	go func() {
		ticker := time.NewTicker(gyroSampleInterval)
		defer ticker.Stop()
		last := time.Now()
		for {
			select {
			case <-gy.done:
				return
			case now := <-ticker.C:
				if err := gy.d.GetData(); err != nil {
					logrus.WithError(err).Warn("failed to sample imu")
					continue
				}
				dt := now.Sub(last).Seconds()
				last = now
				rate := float64(gy.d.Gyroscope.Z) / gyroLSBPerDps
				gy.mu.Lock()
				gy.rate = rate
				gy.heading += rate * dt
				gy.mu.Unlock()
			}
		}
	}()
}

func (gy *imuGyro) stop() {
	select {
	case <-gy.done:
	default:
		close(gy.done)
	}
}

func (gy *imuGyro) Angle() (float64, error) {
	gy.mu.Lock()
	defer gy.mu.Unlock()
	return gy.heading - gy.offset, nil
}

func (gy *imuGyro) ResetAngle(value float64) error {
	gy.mu.Lock()
	defer gy.mu.Unlock()
	gy.offset = gy.heading - value
	return nil
}

func (gy *imuGyro) Rate() (float64, error) {
	gy.mu.Lock()
	defer gy.mu.Unlock()
	return gy.rate, nil
}
