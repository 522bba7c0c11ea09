package hw

import "sync"

// MockMotor is an in-memory Motor that records every command it receives.
// Tests override AngleFunc to script encoder progress.
type MockMotor struct {
	mu sync.Mutex

	// AngleFunc, when set, provides the encoder reading.
	AngleFunc func() float64

	angle  float64
	speeds []float64
	stops  []BrakeMode
}

func NewMockMotor() *MockMotor {
	return &MockMotor{}
}

func (m *MockMotor) Run(speed float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.speeds = append(m.speeds, speed)
	return nil
}

func (m *MockMotor) Stop(mode BrakeMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops = append(m.stops, mode)
	return nil
}

func (m *MockMotor) ResetAngle(value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.angle = value
	return nil
}

func (m *MockMotor) Angle() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AngleFunc != nil {
		return m.AngleFunc(), nil
	}
	return m.angle, nil
}

// Speeds returns every speed passed to Run, in order.
func (m *MockMotor) Speeds() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]float64, len(m.speeds))
	copy(out, m.speeds)
	return out
}

// LastSpeed returns the most recent Run speed, or 0 if Run was never called.
func (m *MockMotor) LastSpeed() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.speeds) == 0 {
		return 0
	}
	return m.speeds[len(m.speeds)-1]
}

// Stops returns every brake mode passed to Stop, in order.
func (m *MockMotor) Stops() []BrakeMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]BrakeMode, len(m.stops))
	copy(out, m.stops)
	return out
}

// MockGyro is an in-memory Gyro. Tests override AngleFunc to script heading
// progress; ResetAngle rebases the static angle otherwise.
type MockGyro struct {
	mu sync.Mutex

	AngleFunc func() float64
	RateFunc  func() float64

	angle float64
}

func NewMockGyro() *MockGyro {
	return &MockGyro{}
}

func (g *MockGyro) Angle() (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.AngleFunc != nil {
		return g.AngleFunc(), nil
	}
	return g.angle, nil
}

func (g *MockGyro) ResetAngle(value float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.angle = value
	return nil
}

func (g *MockGyro) Rate() (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.RateFunc != nil {
		return g.RateFunc(), nil
	}
	return 0, nil
}

// SetAngle sets the static heading returned when AngleFunc is unset.
func (g *MockGyro) SetAngle(v float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.angle = v
}

// MockColorSensor is an in-memory ColorSensor backed by RGBFunc.
type MockColorSensor struct {
	mu sync.Mutex

	RGBFunc func() (int, int, int)
	Err     error

	r, g, b int
}

func NewMockColorSensor(r, g, b int) *MockColorSensor {
	return &MockColorSensor{r: r, g: g, b: b}
}

func (s *MockColorSensor) RGB() (int, int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, 0, 0, s.Err
	}
	if s.RGBFunc != nil {
		r, g, b := s.RGBFunc()
		return r, g, b, nil
	}
	return s.r, s.g, s.b, nil
}

// SetRGB sets the static reading returned when RGBFunc is unset.
func (s *MockColorSensor) SetRGB(r, g, b int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r, s.g, s.b = r, g, b
}
