package motion

import "math"

// stepTrapezoid advances a Trapezoid move by dt and reports arrival.
// On arrival s is left untouched; the caller settles it.
func stepTrapezoid(s *State, p Params, dt float64) bool {
	d := s.Target - s.Angle
	dist := math.Abs(d)
	v := s.Velocity
	if d == 0 || (dist <= p.SnapAngle && math.Abs(v) <= p.SnapVelocity) {
		return true
	}

	aMax := p.accel()
	dir := sign(d)

	// Brake when moving toward the target and the stop distance covers what
	// is left. Moving away, accelerating toward the target is the brake.
	aTarget := dir * aMax
	if v*dir > 0 && v*v/(2*aMax) >= dist {
		aTarget = -dir * aMax
	}

	if v*dir < 0 {
		lim := p.reverseScale() * aMax
		aTarget = clamp(aTarget, -lim, lim)
	}

	// Stateless jerk limit: |dv| per tick <= j_max·dt².
	jerkCap := p.MaxJerk * dt
	a := clamp(aTarget, -jerkCap, jerkCap)
	v += a * dt

	v = clamp(v, -p.MaxVelocity, p.MaxVelocity)

	// Fastest speed from which a_max still stops exactly on target.
	if allow := math.Sqrt(2 * aMax * dist); math.Abs(v) > allow {
		v = math.Copysign(allow, v)
	}

	next := s.Angle + v*dt
	if d*(s.Target-next) <= 0 {
		return true
	}

	s.Angle = next
	s.Velocity = v
	s.Accel = a

	return math.Abs(s.Target-next) <= p.SnapAngle && math.Abs(v) <= p.SnapVelocity
}
