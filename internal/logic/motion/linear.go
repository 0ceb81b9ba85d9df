package motion

import "math"

// stepLinear advances a Linear move by dt at its fixed velocity and reports
// arrival. There is no deceleration ramp; overshoot snaps onto the target.
func stepLinear(s *State, p Params, dt float64) bool {
	d := s.Target - s.Angle
	if math.Abs(d) <= p.SnapAngle {
		return true
	}

	next := s.Angle + s.LinearVelocity*dt
	if d*(s.Target-next) <= 0 {
		return true
	}

	s.Angle = next
	s.Velocity = s.LinearVelocity
	s.Accel = 0
	return false
}
