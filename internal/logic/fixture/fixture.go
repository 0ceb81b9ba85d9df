package fixture

import (
	"fmt"

	"github.com/cjeanneret/StageGo/internal/config"
	"github.com/cjeanneret/StageGo/internal/debug"
	"github.com/cjeanneret/StageGo/internal/dmx"
	"github.com/cjeanneret/StageGo/internal/logic/motion"
)

// Follower mirrors an axis angle onto physical hardware.
type Follower interface {
	Follow(angle float64) error
}

// Fixture is one moving head: two motion-controlled axes, their mechanical
// ranges, and the channel layout used to encode them into a DMX universe.
type Fixture struct {
	name    string
	model   string
	address int
	profile dmx.Profile

	ctrl      *motion.Controller
	panRange  Range
	tiltRange Range

	panFollower  Follower
	tiltFollower Follower
}

// New builds a fixture from its (already validated) configuration.
func New(cfg config.FixtureConfig) *Fixture {
	panRange := Range{Min: cfg.Pan.MinDeg, Max: cfg.Pan.MaxDeg}
	tiltRange := Range{Min: cfg.Tilt.MinDeg, Max: cfg.Tilt.MaxDeg}

	pan := motion.NewAxis(cfg.Name+".pan", cfg.Pan.Params(), panRange.Angle(cfg.Pan.Home))
	tilt := motion.NewAxis(cfg.Name+".tilt", cfg.Tilt.Params(), tiltRange.Angle(cfg.Tilt.Home))

	f := &Fixture{
		name:      cfg.Name,
		model:     cfg.Model,
		address:   cfg.Address,
		ctrl:      motion.NewController(pan, tilt),
		panRange:  panRange,
		tiltRange: tiltRange,
	}
	if cfg.Profile != nil {
		f.profile = *cfg.Profile
	}
	debug.Fixture(f.name, f.model, f.address)
	return f
}

func (f *Fixture) Name() string                   { return f.name }
func (f *Fixture) Model() string                  { return f.model }
func (f *Fixture) Address() int                   { return f.address }
func (f *Fixture) Profile() dmx.Profile           { return f.profile }
func (f *Fixture) Controller() *motion.Controller { return f.ctrl }
func (f *Fixture) PanRange() Range                { return f.panRange }
func (f *Fixture) TiltRange() Range               { return f.tiltRange }

// AttachFollowers mirrors pan and tilt onto hardware. Either may be nil.
func (f *Fixture) AttachFollowers(pan, tilt Follower) {
	f.panFollower = pan
	f.tiltFollower = tilt
}

// SetTarget commands pan and tilt as fractions of their travel (0-1).
// Fractions must be finite; out-of-range values are clamped.
func (f *Fixture) SetTarget(pan, tilt float64) {
	f.ctrl.MovePanTilt(f.panRange.Angle(pan), f.tiltRange.Angle(tilt))
}

// SetPan commands the pan axis only.
func (f *Fixture) SetPan(fr float64) {
	f.ctrl.MovePan(f.panRange.Angle(fr))
}

// SetTilt commands the tilt axis only.
func (f *Fixture) SetTilt(fr float64) {
	f.ctrl.MoveTilt(f.tiltRange.Angle(fr))
}

// Step advances both axes by dt seconds and drives any attached followers.
func (f *Fixture) Step(dt float64) (motion.Pose, error) {
	pose := f.ctrl.Step(dt)
	if f.panFollower != nil {
		if err := f.panFollower.Follow(pose.Pan); err != nil {
			return pose, fmt.Errorf("%s pan follower: %w", f.name, err)
		}
	}
	if f.tiltFollower != nil {
		if err := f.tiltFollower.Follow(pose.Tilt); err != nil {
			return pose, fmt.Errorf("%s tilt follower: %w", f.name, err)
		}
	}
	return pose, nil
}

// Arrived reports whether both axes are at rest on their targets.
func (f *Fixture) Arrived() bool {
	return f.ctrl.Arrived()
}

// Fractions returns the current pan and tilt renormalized to 0-1.
func (f *Fixture) Fractions() (pan, tilt float64) {
	pose := f.ctrl.Pose()
	return f.panRange.Fraction(pose.Pan), f.tiltRange.Fraction(pose.Tilt)
}

// Encode writes the current pan/tilt position into u.
func (f *Fixture) Encode(u *dmx.Universe) error {
	pan, tilt := f.Fractions()
	if err := f.profile.Encode(u, f.address, pan, tilt); err != nil {
		return fmt.Errorf("encode %s: %w", f.name, err)
	}
	return nil
}

// AxisStatus is the telemetry view of one axis.
type AxisStatus struct {
	motion.State
	Fraction float64 `json:"fraction"`
	Arrived  bool    `json:"arrived"`
	Locked   bool    `json:"locked"` // Trapezoid held until arrival
}

// Status is the telemetry view of a fixture.
type Status struct {
	Name    string     `json:"name"`
	Model   string     `json:"model"`
	Address int        `json:"address"`
	Pan     AxisStatus `json:"pan"`
	Tilt    AxisStatus `json:"tilt"`
}

// Status returns a snapshot of both axes.
func (f *Fixture) Status() Status {
	pan, tilt := f.ctrl.Pan(), f.ctrl.Tilt()
	return Status{
		Name:    f.name,
		Model:   f.model,
		Address: f.address,
		Pan: AxisStatus{
			State:    pan.State(),
			Fraction: f.panRange.Fraction(pan.Angle()),
			Arrived:  pan.Arrived(),
			Locked:   pan.State().Locked(),
		},
		Tilt: AxisStatus{
			State:    tilt.State(),
			Fraction: f.tiltRange.Fraction(tilt.Angle()),
			Arrived:  tilt.Arrived(),
			Locked:   tilt.State().Locked(),
		},
	}
}
