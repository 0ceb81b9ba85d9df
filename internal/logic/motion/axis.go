package motion

import (
	"github.com/cjeanneret/StageGo/internal/debug"
)

// Axis is one rotational degree of freedom (pan or tilt) of a fixture.
// It is not safe for concurrent use; each axis is owned by a single caller.
type Axis struct {
	name   string
	params Params
	state  State
}

// NewAxis creates an axis at rest at angle home.
func NewAxis(name string, p Params, home float64) *Axis {
	return &Axis{
		name:   name,
		params: p,
		state:  State{Angle: home, Target: home},
	}
}

// Name returns the axis label used in logs and telemetry.
func (a *Axis) Name() string { return a.name }

// Params returns the tuning the axis was built with.
func (a *Axis) Params() Params { return a.params }

// State returns a copy of the runtime state.
func (a *Axis) State() State { return a.state }

// Angle returns the current angle in degrees.
func (a *Axis) Angle() float64 { return a.state.Angle }

// Arrived reports whether the axis is at rest exactly on its target.
func (a *Axis) Arrived() bool { return a.state.AtRest() }

// SetTarget commands a new target angle in degrees. The regime is picked on
// the next Step. Repeating the current target changes nothing.
//
// deg must be finite.
func (a *Axis) SetTarget(deg float64) {
	if deg == a.state.Target {
		return
	}
	debug.Move(a.name, a.state.Angle, deg)
	a.state.Target = deg
}

// Step advances the axis by dt seconds and returns the new angle in degrees.
// dt == 0 leaves the state untouched. dt must be finite and non-negative.
func (a *Axis) Step(dt float64) float64 {
	if dt <= 0 || a.state.AtRest() {
		return a.state.Angle
	}

	selectMode(&a.state, a.params)

	var arrived bool
	switch a.state.Mode {
	case ModeLinear:
		arrived = stepLinear(&a.state, a.params, dt)
	case ModeTrapezoid:
		arrived = stepTrapezoid(&a.state, a.params, dt)
	}
	if arrived {
		a.state.settle()
		debug.Arrive(a.name, a.state.Angle)
	}
	return a.state.Angle
}
