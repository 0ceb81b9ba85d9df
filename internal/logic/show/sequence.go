package show

import (
	"time"

	"github.com/cjeanneret/StageGo/internal/config"
	"github.com/cjeanneret/StageGo/internal/debug"
	"github.com/cjeanneret/StageGo/internal/logic/fixture"
)

// Cue sets pan and/or tilt targets on one fixture (or all of them when
// Fixture is empty), waits for arrival, then holds.
type Cue struct {
	Name    string
	Fixture string
	Pan     *float64 // fraction 0-1, nil leaves the axis alone
	Tilt    *float64
	Hold    time.Duration
}

// CuesFromConfig converts the configured cue list.
func CuesFromConfig(cfgs []config.CueConfig) []Cue {
	cues := make([]Cue, 0, len(cfgs))
	for _, c := range cfgs {
		cues = append(cues, Cue{
			Name:    c.Name,
			Fixture: c.Fixture,
			Pan:     c.Pan,
			Tilt:    c.Tilt,
			Hold:    c.Hold(),
		})
	}
	return cues
}

// Sequence plays a cue list one cue at a time. A cue is complete once every
// fixture it addresses has arrived and its hold time has elapsed.
type Sequence struct {
	cues    []Cue
	index   int
	started bool
	held    time.Duration
}

func NewSequence(cues []Cue) *Sequence {
	return &Sequence{cues: cues}
}

// Done reports whether every cue has played.
func (s *Sequence) Done() bool {
	return s.index >= len(s.cues)
}

// Current returns the cue being played, if any.
func (s *Sequence) Current() (Cue, bool) {
	if s.Done() {
		return Cue{}, false
	}
	return s.cues[s.index], true
}

// Advance is called once per tick before the fixtures are stepped. It applies
// the next cue's targets when the current one is complete.
func (s *Sequence) Advance(dt time.Duration, fixtures []*fixture.Fixture) {
	if s.Done() {
		return
	}
	if !s.started {
		s.apply(fixtures)
		return
	}

	cue := s.cues[s.index]
	for _, f := range targets(cue, fixtures) {
		if !f.Arrived() {
			return
		}
	}
	s.held += dt
	if s.held < cue.Hold {
		return
	}

	s.index++
	if !s.Done() {
		s.apply(fixtures)
	}
}

func (s *Sequence) apply(fixtures []*fixture.Fixture) {
	cue := s.cues[s.index]
	debug.Cue(s.index+1, len(s.cues), cue.Name)
	for _, f := range targets(cue, fixtures) {
		if cue.Pan != nil {
			f.SetPan(*cue.Pan)
		}
		if cue.Tilt != nil {
			f.SetTilt(*cue.Tilt)
		}
	}
	s.started = true
	s.held = 0
}

func targets(cue Cue, fixtures []*fixture.Fixture) []*fixture.Fixture {
	if cue.Fixture == "" {
		return fixtures
	}
	for _, f := range fixtures {
		if f.Name() == cue.Fixture {
			return []*fixture.Fixture{f}
		}
	}
	return nil
}
