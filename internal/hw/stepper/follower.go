package stepper

import (
	"github.com/cjeanneret/StageGo/internal/logic/geometry"
)

// Follower drives a stepper so that it mirrors an axis angle. Step position
// 0 corresponds to the origin angle the follower was created with.
type Follower struct {
	motor  *Stepper
	calc   *geometry.StepsCalculator
	origin float64
}

// NewFollower creates a follower for motor; origin is the axis angle (deg)
// the motor sits at when powered up.
func NewFollower(motor *Stepper, calc *geometry.StepsCalculator, origin float64) *Follower {
	return &Follower{
		motor:  motor,
		calc:   calc,
		origin: origin,
	}
}

// Follow moves the motor to the whole step nearest angle.
func (f *Follower) Follow(angle float64) error {
	want := f.calc.NearestSteps(angle - f.origin)
	return f.motor.MoveSteps(want - f.motor.Position())
}

// Angle returns the angle the motor currently represents.
func (f *Follower) Angle() float64 {
	return f.origin + f.calc.AngleFromSteps(f.motor.Position())
}

// Disable releases the motor driver; the motor keeps its step count.
func (f *Follower) Disable() error { return f.motor.Disable() }
