package robot

import (
	"errors"
	"testing"
	"time"

	"github.com/smallbots/rover/pkg/hw"
)

func newTestSensor(t *testing.T, raw hw.ColorSensor, low, high float64) *LightSensor {
	t.Helper()
	s, err := NewLightSensor(raw, low, high)
	if err != nil {
		t.Fatalf("NewLightSensor failed: %v", err)
	}
	s.sleep = func(time.Duration) {}
	return s
}

func TestNewLightSensorThresholdOrdering(t *testing.T) {
	tests := []struct {
		name string
		low  float64
		high float64
	}{
		{name: "factory left bounds", low: 10, high: 105},
		{name: "factory right bounds", low: 20, high: 160},
		{name: "unit range", low: 0, high: 1},
		{name: "negative low", low: -50, high: 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSensor(t, hw.NewMockColorSensor(0, 0, 0), tt.low, tt.high)
			if s.Black() < tt.low || s.Black() > s.Line() || s.Line() > s.White() || s.White() > tt.high {
				t.Errorf("threshold ordering violated: low=%v black=%v line=%v white=%v high=%v",
					tt.low, s.Black(), s.Line(), s.White(), tt.high)
			}
		})
	}
}

func TestNewLightSensorInvalidBounds(t *testing.T) {
	if _, err := NewLightSensor(hw.NewMockColorSensor(0, 0, 0), 100, 100); err == nil {
		t.Error("expected error for high == low")
	}
	if _, err := NewLightSensor(hw.NewMockColorSensor(0, 0, 0), 100, 50); err == nil {
		t.Error("expected error for high < low")
	}
	if _, err := NewLightSensor(nil, 0, 100); err == nil {
		t.Error("expected error for nil raw sensor")
	}
}

func TestLightSumsChannels(t *testing.T) {
	s := newTestSensor(t, hw.NewMockColorSensor(10, 20, 30), 0, 100)
	light, err := s.Light()
	if err != nil {
		t.Fatalf("Light failed: %v", err)
	}
	if light != 60 {
		t.Errorf("Light() = %v, want 60", light)
	}
}

func TestClassificationIsMutuallyExclusive(t *testing.T) {
	// Bounds 0..100 give black=25, line=50, white=80.
	tests := []struct {
		light     int
		wantWhite bool
		wantBlack bool
	}{
		{light: 0, wantWhite: false, wantBlack: true},
		{light: 25, wantWhite: false, wantBlack: true},
		{light: 50, wantWhite: false, wantBlack: false},
		{light: 80, wantWhite: true, wantBlack: false},
		{light: 100, wantWhite: true, wantBlack: false},
	}
	for _, tt := range tests {
		s := newTestSensor(t, hw.NewMockColorSensor(tt.light, 0, 0), 0, 100)
		white, err := s.IsWhite()
		if err != nil {
			t.Fatalf("IsWhite failed: %v", err)
		}
		black, err := s.IsBlack()
		if err != nil {
			t.Fatalf("IsBlack failed: %v", err)
		}
		if white != tt.wantWhite || black != tt.wantBlack {
			t.Errorf("light=%d: white=%v black=%v, want white=%v black=%v",
				tt.light, white, black, tt.wantWhite, tt.wantBlack)
		}
		if white && black {
			t.Errorf("light=%d: white and black cannot both hold", tt.light)
		}
	}
}

func TestWaitForLineSeesWhiteThenBlack(t *testing.T) {
	// Neutral, then the white gap, then the black bar.
	readings := []int{50, 50, 90, 90, 10}
	i := 0
	raw := hw.NewMockColorSensor(0, 0, 0)
	raw.RGBFunc = func() (int, int, int) {
		v := readings[i]
		if i < len(readings)-1 {
			i++
		}
		return v, 0, 0
	}
	s := newTestSensor(t, raw, 0, 100)
	if err := s.WaitForLine(); err != nil {
		t.Fatalf("WaitForLine failed: %v", err)
	}
	if i != len(readings)-1 {
		t.Errorf("consumed %d readings, want %d", i, len(readings)-1)
	}
}

func TestWaitForWhiteTimeout(t *testing.T) {
	s := newTestSensor(t, hw.NewMockColorSensor(0, 0, 0), 0, 100)
	if err := s.WaitForWhiteTimeout(5 * time.Millisecond); !errors.Is(err, ErrWaitTimeout) {
		t.Errorf("expected ErrWaitTimeout, got %v", err)
	}
}

func TestWaitForLineTimeoutWhenBlackNeverComes(t *testing.T) {
	// Permanently white: the white phase succeeds, the black phase times out.
	s := newTestSensor(t, hw.NewMockColorSensor(90, 0, 0), 0, 100)
	if err := s.WaitForLineTimeout(5 * time.Millisecond); !errors.Is(err, ErrWaitTimeout) {
		t.Errorf("expected ErrWaitTimeout, got %v", err)
	}
}

func TestWaitPropagatesSensorFault(t *testing.T) {
	raw := hw.NewMockColorSensor(0, 0, 0)
	raw.Err = errors.New("bus fault")
	s := newTestSensor(t, raw, 0, 100)
	if err := s.WaitForWhite(); err == nil {
		t.Error("expected sensor fault to propagate")
	}
}
