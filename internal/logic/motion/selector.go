package motion

import "math"

// selectMode picks this tick's regime.
//
// Trapezoid is sticky: once a large move engaged full kinematic limiting it
// stays there, even when the remaining distance drops under SmallThreshold,
// until arrival. Linear fixes its velocity on entry and only recomputes it
// when the target moves.
func selectMode(s *State, p Params) {
	if s.Mode == ModeTrapezoid {
		return
	}

	d := s.Target - s.Angle
	dist := math.Abs(d)
	if dist > p.SmallThreshold {
		s.Mode = ModeTrapezoid
		s.LinearVelocity = 0
		s.LinearTarget = 0
		return
	}

	if s.Mode == ModeLinear && math.Abs(s.Target-s.LinearTarget) <= retargetEpsilon {
		return
	}

	s.Mode = ModeLinear
	s.LinearVelocity = sign(d) * math.Min(p.SmallGain*dist, p.MaxVelocity)
	s.LinearTarget = s.Target
	s.Accel = 0
}
