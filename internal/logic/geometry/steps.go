package geometry

import (
	"math"

	"github.com/cjeanneret/StageGo/internal/config"
)

// StepsCalculator converts axis angles to motor step counts.
type StepsCalculator struct {
	stepsPerDegree float64
}

// NewStepsCalculator creates a step calculator from a stepper configuration.
func NewStepsCalculator(cfg config.StepperConfig) *StepsCalculator {
	// Microsteps per degree of output rotation
	microstepsPerRev := float64(cfg.StepsPerRev * cfg.Microstepping)

	return &StepsCalculator{
		stepsPerDegree: microstepsPerRev / 360.0,
	}
}

// StepsPerDegree returns the resolution of the axis.
func (s *StepsCalculator) StepsPerDegree() float64 {
	return s.stepsPerDegree
}

// NearestSteps converts an angle (in degrees) to the closest whole step count.
func (s *StepsCalculator) NearestSteps(angleDegrees float64) int {
	return int(math.Round(angleDegrees * s.stepsPerDegree))
}

// AngleFromSteps converts a step count back to degrees.
func (s *StepsCalculator) AngleFromSteps(steps int) float64 {
	if s.stepsPerDegree == 0 {
		return 0
	}
	return float64(steps) / s.stepsPerDegree
}
