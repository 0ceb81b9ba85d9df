package show

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cjeanneret/StageGo/internal/debug"
	"github.com/cjeanneret/StageGo/internal/dmx"
	"github.com/cjeanneret/StageGo/internal/logic/fixture"
)

// ErrBusy is returned when a cue list is started while another is playing.
var ErrBusy = errors.New("a cue list is already running")

// ErrUnknownFixture is returned for commands naming a fixture that is not patched.
var ErrUnknownFixture = errors.New("unknown fixture")

// Frame is a telemetry snapshot taken after a tick.
type Frame struct {
	Tick     uint64           `json:"tick"`
	Running  bool             `json:"running"`
	Cue      string           `json:"cue,omitempty"`
	Fixtures []fixture.Status `json:"fixtures"`
}

// Runner owns the fixtures and advances them at a fixed rate. All access to
// the fixtures goes through the runner, which serializes ticks and commands.
type Runner struct {
	mu       sync.Mutex
	fixtures []*fixture.Fixture
	universe dmx.Universe
	interval time.Duration
	maxDt    time.Duration
	tick     uint64

	seq     *Sequence
	seqDone chan struct{}
}

// NewRunner creates a runner ticking every interval; a single tick never
// integrates more than maxDt.
func NewRunner(fixtures []*fixture.Fixture, interval, maxDt time.Duration) *Runner {
	return &Runner{
		fixtures: fixtures,
		interval: interval,
		maxDt:    maxDt,
	}
}

// SetTarget commands a fixture's pan and tilt as fractions (0-1).
func (r *Runner) SetTarget(name string, pan, tilt float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f := r.lookup(name)
	if f == nil {
		return fmt.Errorf("%w: %q", ErrUnknownFixture, name)
	}
	debug.Live("Fixture %s: target pan=%.3f tilt=%.3f", name, pan, tilt)
	f.SetTarget(pan, tilt)
	return nil
}

// Start installs seq; it plays on the following ticks. The returned channel
// is closed when the last cue completes.
func (r *Runner) Start(seq *Sequence) (<-chan struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seq != nil {
		return nil, ErrBusy
	}
	r.seq = seq
	r.seqDone = make(chan struct{})
	return r.seqDone, nil
}

// Tick advances the cue list and every fixture by dt, then encodes the
// universe. dt is clamped to [0, maxDt].
func (r *Runner) Tick(dt time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if dt < 0 {
		dt = 0
	}
	if r.maxDt > 0 && dt > r.maxDt {
		debug.Verbose("tick dt %v clamped to %v", dt, r.maxDt)
		dt = r.maxDt
	}
	r.tick++
	r.universe.Reset()

	if r.seq != nil {
		r.seq.Advance(dt, r.fixtures)
		if r.seq.Done() {
			r.seq = nil
			close(r.seqDone)
		}
	}

	secs := dt.Seconds()
	for _, f := range r.fixtures {
		if _, err := f.Step(secs); err != nil {
			return err
		}
		if err := f.Encode(&r.universe); err != nil {
			return err
		}
	}
	return nil
}

// Run ticks at the configured interval until ctx is cancelled, measuring the
// real elapsed time between ticks.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			if err := r.Tick(dt); err != nil {
				return err
			}
		}
	}
}

// RunSequence plays seq to completion, ticking in the foreground.
func (r *Runner) RunSequence(ctx context.Context, seq *Sequence) error {
	done, err := r.Start(seq)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(ctx) }()

	select {
	case <-done:
		cancel()
		return <-errCh
	case err := <-errCh:
		if err != nil {
			return err
		}
		return ctx.Err()
	}
}

// Snapshot returns the state of every fixture.
func (r *Runner) Snapshot() Frame {
	r.mu.Lock()
	defer r.mu.Unlock()

	frame := Frame{
		Tick:     r.tick,
		Fixtures: make([]fixture.Status, 0, len(r.fixtures)),
	}
	if r.seq != nil {
		frame.Running = true
		if cue, ok := r.seq.Current(); ok {
			frame.Cue = cue.Name
		}
	}
	for _, f := range r.fixtures {
		frame.Fixtures = append(frame.Fixtures, f.Status())
	}
	return frame
}

// Universe returns a copy of the last encoded DMX frame.
func (r *Runner) Universe() dmx.Universe {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.universe
}

func (r *Runner) lookup(name string) *fixture.Fixture {
	for _, f := range r.fixtures {
		if f.Name() == name {
			return f
		}
	}
	return nil
}
