package stepper

import (
	"math"
	"testing"
	"time"

	"github.com/cjeanneret/StageGo/internal/config"
	"github.com/cjeanneret/StageGo/internal/hw/gpio"
	"github.com/cjeanneret/StageGo/internal/logic/geometry"
)

// newTestFollower builds a follower at 2 steps per degree.
func newTestFollower(origin float64) (*Follower, *gpio.MockDriver) {
	drv := gpio.NewMockDriver()
	sc := config.StepperConfig{StepPin: stepPin, DirPin: dirPin, StepsPerRev: 360, Microstepping: 2}
	motor := NewStepper(drv, Config{
		StepPin:       sc.StepPin,
		DirPin:        sc.DirPin,
		StepsPerRev:   sc.StepsPerRev,
		Microstepping: sc.Microstepping,
		StepDelay:     time.Microsecond,
	})
	return NewFollower(motor, geometry.NewStepsCalculator(sc), origin), drv
}

func TestFollower_FollowsAngle(t *testing.T) {
	f, drv := newTestFollower(90)

	steps := []struct {
		angle     float64
		wantPos   int
		wantAngle float64
	}{
		{100, 20, 100},
		{100.2, 20, 100},
		{100.3, 21, 100.5},
		{80, -20, 80},
		{90, 0, 90},
	}
	for _, s := range steps {
		if err := f.Follow(s.angle); err != nil {
			t.Fatalf("Follow(%v): %v", s.angle, err)
		}
		if got := f.motor.Position(); got != s.wantPos {
			t.Errorf("Follow(%v): position = %d, want %d", s.angle, got, s.wantPos)
		}
		if got := f.Angle(); math.Abs(got-s.wantAngle) > 1e-9 {
			t.Errorf("Follow(%v): Angle() = %v, want %v", s.angle, got, s.wantAngle)
		}
	}
	// 20, 1, 41 and 20 pulses
	if got := drv.Rises(stepPin); got != 20+1+41+20 {
		t.Errorf("total pulses = %d, want %d", got, 82)
	}
}

func TestFollower_SameAngleDoesNotPulse(t *testing.T) {
	f, drv := newTestFollower(0)
	_ = f.Follow(10)
	before := drv.Rises(stepPin)
	for i := 0; i < 5; i++ {
		_ = f.Follow(10)
	}
	if drv.Rises(stepPin) != before {
		t.Error("repeated Follow at the same angle pulsed the motor")
	}
}

func TestFollower_NegativeRange(t *testing.T) {
	f, _ := newTestFollower(-270)
	if err := f.Follow(-540); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if got := f.motor.Position(); got != -540 {
		t.Errorf("position = %d, want -540", got)
	}
}
