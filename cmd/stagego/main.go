package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/cjeanneret/StageGo/internal/config"
	"github.com/cjeanneret/StageGo/internal/debug"
	"github.com/cjeanneret/StageGo/internal/hw/gpio"
	"github.com/cjeanneret/StageGo/internal/hw/stepper"
	"github.com/cjeanneret/StageGo/internal/logic/fixture"
	"github.com/cjeanneret/StageGo/internal/logic/geometry"
	"github.com/cjeanneret/StageGo/internal/logic/show"
	"github.com/cjeanneret/StageGo/internal/web"
)

// overrides holds CLI values that replace config defaults when non-zero.
type overrides struct {
	TickHz  int
	MaxDtMs int
}

func main() {
	// CLI flags
	webPort := &webPortFlag{defaultPort: 8080}
	flag.Var(webPort, "web", "start web server on port; -web= for default 8080, -web 8980 for custom port")
	cfgPath := flag.String("config", filepath.Join("configs", "default.yaml"), "path to config file")
	tickHz := flag.Int("tick_hz", 0, "override controller update rate (1-1000 Hz)")
	maxDtMs := flag.Int("max_dt_ms", 0, "override the per-tick dt clamp in ms (1-1000)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := config.ValidateConfigPath(*cfgPath); err != nil {
		log.Fatalf("invalid config path: %v", err)
	}

	// Load configuration
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	// Validate CLI overrides (only non-zero values are applied; zero means "use config default")
	if err := validateCLIOverrides(*tickHz, *maxDtMs); err != nil {
		log.Fatalf("invalid CLI override: %v", err)
	}
	applyOverrides(cfg, overrides{TickHz: *tickHz, MaxDtMs: *maxDtMs})

	// Initialize debug system
	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", *cfgPath)
	debug.Value("Debug level", cfg.Defaults.DebugLevel)
	debug.Value("Tick rate (Hz)", cfg.Defaults.TickHz)
	debug.Value("Max dt", cfg.MaxDt())

	if err := run(ctx, cancel, cfg, webPort.port()); err != nil {
		log.Fatalf("%v", err)
	}
}

// run assembles the rig and plays it until the cue list ends (foreground) or
// ctx is cancelled (web). Hardware is released before it returns.
func run(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, port int) error {
	// GPIO is only needed when an axis mirrors onto a stepper
	var gpioDriver gpio.Driver
	if needsGPIO(cfg) {
		debug.Value("Mock GPIO", cfg.Defaults.MockGPIO)
		debug.Step(1, "Initializing GPIO driver")
		var err error
		gpioDriver, err = gpio.NewDriver(cfg.Defaults.MockGPIO)
		if err != nil {
			return fmt.Errorf("init GPIO failed: %w", err)
		}
		defer func() {
			if err := gpioDriver.Close(); err != nil {
				debug.Error(fmt.Errorf("closing GPIO driver failed: %w", err))
			}
		}()
	}

	debug.Step(2, "Patching fixtures")
	fixtures, followers := buildFixtures(cfg, gpioDriver)
	defer releaseFollowers(followers)
	runner := show.NewRunner(fixtures, cfg.TickInterval(), cfg.MaxDt())
	cues := show.CuesFromConfig(cfg.Cues)
	debug.Summary(fmt.Sprintf("%d fixtures, %d cues", len(fixtures), len(cues)))

	if port > 0 {
		webAddr := fmt.Sprintf(":%d", port)
		broadcaster := web.NewStatusBroadcaster()
		debug.SetOutput(io.MultiWriter(os.Stdout, web.BroadcastWriter(broadcaster)))

		go func() {
			if err := runner.Run(ctx); err != nil {
				debug.Error(fmt.Errorf("controller loop stopped: %w", err))
				cancel()
			}
		}()

		srv := web.NewServer(webAddr, broadcaster, runner, cues, formConfig(cfg, fixtures), cfg.TelemetryInterval())
		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	}

	if len(cues) == 0 {
		return errors.New("no cues configured; use -web for interactive control")
	}
	debug.Section("Starting Cue List")
	if err := runner.RunSequence(ctx, show.NewSequence(cues)); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("cue list failed: %w", err)
	}
	debug.Section("Cue List Complete")
	return nil
}

// buildFixtures creates every configured fixture and attaches stepper
// followers where an axis has a stepper section. The followers are returned
// so the caller can release them on shutdown.
func buildFixtures(cfg *config.Config, g gpio.Driver) ([]*fixture.Fixture, []*stepper.Follower) {
	fixtures := make([]*fixture.Fixture, 0, len(cfg.Fixtures))
	var followers []*stepper.Follower
	for _, fc := range cfg.Fixtures {
		f := fixture.New(fc)
		debug.PrintStruct(fc.Name+" pan", fc.Pan)
		debug.PrintStruct(fc.Name+" tilt", fc.Tilt)

		var pan, tilt fixture.Follower
		if fc.Pan.Stepper != nil && g != nil {
			m := newFollower(g, *fc.Pan.Stepper, f.Controller().Pan().Angle())
			followers = append(followers, m)
			pan = m
		}
		if fc.Tilt.Stepper != nil && g != nil {
			m := newFollower(g, *fc.Tilt.Stepper, f.Controller().Tilt().Angle())
			followers = append(followers, m)
			tilt = m
		}
		if pan != nil || tilt != nil {
			f.AttachFollowers(pan, tilt)
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, followers
}

// releaseFollowers cuts holding current on every mirror stepper.
func releaseFollowers(followers []*stepper.Follower) {
	for _, m := range followers {
		if err := m.Disable(); err != nil {
			debug.Error(fmt.Errorf("disabling stepper failed: %w", err))
			continue
		}
		debug.Info("Stepper released at %.2f°", m.Angle())
	}
}

func newFollower(g gpio.Driver, sc config.StepperConfig, home float64) *stepper.Follower {
	motor := stepper.NewStepper(g, stepper.Config{
		StepPin:       sc.StepPin,
		DirPin:        sc.DirPin,
		EnablePin:     sc.EnablePin,
		StepsPerRev:   sc.StepsPerRev,
		Microstepping: sc.Microstepping,
		StepDelay:     sc.StepDelay(),
	})
	calc := geometry.NewStepsCalculator(sc)
	debug.Verbose("Stepper STEP=%d DIR=%d: %.3f steps/deg, home %.2f°", sc.StepPin, sc.DirPin, calc.StepsPerDegree(), home)
	return stepper.NewFollower(motor, calc, home)
}

func needsGPIO(cfg *config.Config) bool {
	for _, fc := range cfg.Fixtures {
		if fc.Pan.Stepper != nil || fc.Tilt.Stepper != nil {
			return true
		}
	}
	return false
}

// formConfig describes the rig for the web UI.
func formConfig(cfg *config.Config, fixtures []*fixture.Fixture) web.FormConfig {
	form := web.FormConfig{TickHz: cfg.Defaults.TickHz}
	for _, f := range fixtures {
		form.Fixtures = append(form.Fixtures, web.FixtureInfo{
			Name:    f.Name(),
			Model:   f.Model(),
			Address: f.Address(),
			Profile: f.Profile(),
			Pan:     f.PanRange(),
			Tilt:    f.TiltRange(),
		})
	}
	for _, c := range cfg.Cues {
		form.Cues = append(form.Cues, c.Name)
	}
	return form
}

// validateCLIOverrides checks that non-zero CLI overrides are within valid ranges.
// Zero values are ignored (they mean "use config default").
func validateCLIOverrides(tickHz, maxDtMs int) error {
	if tickHz != 0 && (tickHz < 0 || tickHz > 1000) {
		return fmt.Errorf("tick_hz must be between 1 and 1000, got %d", tickHz)
	}
	if maxDtMs != 0 && (maxDtMs < 0 || maxDtMs > 1000) {
		return fmt.Errorf("max_dt_ms must be between 1 and 1000, got %d", maxDtMs)
	}
	return nil
}

// applyOverrides mutates cfg with overrides. Only non-zero override values are applied.
func applyOverrides(cfg *config.Config, o overrides) {
	if o.TickHz > 0 {
		cfg.Defaults.TickHz = o.TickHz
	}
	if o.MaxDtMs > 0 {
		cfg.Defaults.MaxDtMs = o.MaxDtMs
	}
}

// webPortFlag implements flag.Value for -web: 0 = disabled, -web= or -web 8080 → 8080, -web 8980 → 8980.
type webPortFlag struct {
	val         int
	defaultPort int
}

func (w *webPortFlag) String() string {
	if w.val == 0 {
		return "0"
	}
	return strconv.Itoa(w.val)
}

func (w *webPortFlag) Set(s string) error {
	if s == "" {
		w.val = w.defaultPort
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v <= 0 || v > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", v)
	}
	w.val = v
	return nil
}

func (w *webPortFlag) port() int { return w.val }
