package motion

import (
	"fmt"
	"math"
)

// minAccel floors MaxAccel in the stop-distance and allowed-speed math.
const minAccel = 1e-3

// retargetEpsilon is how far (deg) a target must move before a Linear move
// recomputes its constant velocity.
const retargetEpsilon = 1e-6

// Params holds the immutable motion tuning of one axis.
// Angles are in degrees, times in seconds.
type Params struct {
	MaxVelocity       float64 // v_max (deg/s)
	MaxAccel          float64 // a_max (deg/s²), used for both accel and decel
	MaxJerk           float64 // j_max (deg/s³)
	SmallGain         float64 // (deg/s) per deg of initial delta for small moves
	SmallThreshold    float64 // deg; moves at or below may run at constant speed
	SnapAngle         float64 // deg; position window for arrival
	SnapVelocity      float64 // deg/s; velocity window for arrival
	ReverseBrakeScale float64 // fraction of MaxAccel while velocity opposes the target (clamped to 1)
}

// Validate checks that every limit is usable by the integrators.
func (p Params) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"v_max", p.MaxVelocity},
		{"a_max", p.MaxAccel},
		{"j_max", p.MaxJerk},
		{"k_small", p.SmallGain},
		{"reverse_brake_scale", p.ReverseBrakeScale},
	}
	for _, f := range positive {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v <= 0 {
			return fmt.Errorf("%s must be a finite value > 0, got %g", f.name, f.v)
		}
	}

	nonNegative := []struct {
		name string
		v    float64
	}{
		{"small_thresh_deg", p.SmallThreshold},
		{"snap_pos_deg", p.SnapAngle},
		{"snap_vel", p.SnapVelocity},
	}
	for _, f := range nonNegative {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < 0 {
			return fmt.Errorf("%s must be a finite value >= 0, got %g", f.name, f.v)
		}
	}
	return nil
}

func (p Params) accel() float64 {
	return math.Max(p.MaxAccel, minAccel)
}

func (p Params) reverseScale() float64 {
	return clamp(p.ReverseBrakeScale, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// sign returns -1, 0 or 1.
func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
