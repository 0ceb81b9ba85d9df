package motion

// Mode is the control regime an axis is in.
type Mode uint8

const (
	// ModeIdle: at rest, no move in progress.
	ModeIdle Mode = iota
	// ModeLinear: constant-velocity small move.
	ModeLinear
	// ModeTrapezoid: jerk-limited accel/cruise/decel. Sticky until arrival.
	ModeTrapezoid
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeLinear:
		return "linear"
	case ModeTrapezoid:
		return "trapezoid"
	default:
		return "unknown"
	}
}

// MarshalText lets Mode appear as a string in JSON telemetry.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// State is the mutable runtime state of one axis.
//
// LinearVelocity and LinearTarget belong to the Linear variant and are only
// meaningful while Mode == ModeLinear. Mode == ModeTrapezoid is the hysteresis
// lock: it is only left on arrival.
type State struct {
	Angle    float64 `json:"angle"`    // deg
	Velocity float64 `json:"velocity"` // deg/s
	Accel    float64 `json:"accel"`    // deg/s², Trapezoid only
	Target   float64 `json:"target"`   // deg
	Mode     Mode    `json:"mode"`

	LinearVelocity float64 `json:"linear_velocity,omitempty"`
	LinearTarget   float64 `json:"linear_target,omitempty"`
}

// Locked reports whether the Trapezoid lock is held.
func (s State) Locked() bool {
	return s.Mode == ModeTrapezoid
}

// AtRest reports whether the axis sits exactly on its target with no move pending.
func (s State) AtRest() bool {
	return s.Mode == ModeIdle && s.Angle == s.Target
}

// settle performs the exact arrival shared by both integrators.
func (s *State) settle() {
	s.Angle = s.Target
	s.Velocity = 0
	s.Accel = 0
	s.Mode = ModeIdle
	s.LinearVelocity = 0
	s.LinearTarget = 0
}
