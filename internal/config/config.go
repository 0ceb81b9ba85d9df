package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cjeanneret/StageGo/internal/dmx"
	"github.com/cjeanneret/StageGo/internal/logic/motion"
)

// StepperConfig holds the configuration for an optional stepper motor that
// mirrors an axis on a bench rig.
type StepperConfig struct {
	StepPin       int `yaml:"step_pin"`
	DirPin        int `yaml:"dir_pin"`
	EnablePin     int `yaml:"enable_pin"` // A4988 ENABLE pin (BCM). 0 = not used. Active LOW.
	StepsPerRev   int `yaml:"steps_per_rev"`
	Microstepping int `yaml:"microstepping"`
	StepDelayUs   int `yaml:"step_delay_us"` // half-cycle of the STEP pulse (µs)
}

// AxisConfig describes one axis: its mechanical range and motion tuning.
// Zero values are filled from the fixture model preset.
type AxisConfig struct {
	MinDeg            float64        `yaml:"min_deg"`
	MaxDeg            float64        `yaml:"max_deg"` // may be below min_deg for reversed axes
	Home              float64        `yaml:"home"`    // start position as a fraction (0-1)
	VMax              float64        `yaml:"v_max"`   // deg/s
	AMax              float64        `yaml:"a_max"`   // deg/s²
	JMax              float64        `yaml:"j_max"`   // deg/s³
	KSmall            float64        `yaml:"k_small"` // (deg/s) per deg for small moves
	SmallThreshDeg    float64        `yaml:"small_thresh_deg"`
	SnapPosDeg        float64        `yaml:"snap_pos_deg"`
	SnapVel           float64        `yaml:"snap_vel"` // deg/s
	ReverseBrakeScale float64        `yaml:"reverse_brake_scale"`
	Stepper           *StepperConfig `yaml:"stepper,omitempty"` // optional
}

// FixtureConfig describes one moving head patched into the universe.
type FixtureConfig struct {
	Name    string       `yaml:"name"`
	Model   string       `yaml:"model"`             // e.g. "adj_stealth_beam"
	Address int          `yaml:"address"`           // DMX start channel (1-512)
	Profile *dmx.Profile `yaml:"profile,omitempty"` // overrides the model's channel layout
	Pan     AxisConfig   `yaml:"pan"`
	Tilt    AxisConfig   `yaml:"tilt"`
}

// CueConfig is one step of a cue list. A nil pan or tilt leaves that axis alone.
type CueConfig struct {
	Name    string   `yaml:"name"`
	Fixture string   `yaml:"fixture"` // empty = every fixture
	Pan     *float64 `yaml:"pan,omitempty"`
	Tilt    *float64 `yaml:"tilt,omitempty"`
	HoldMs  int      `yaml:"hold_ms"` // wait after arrival before the next cue
}

// DefaultsConfig contains generic runtime parameters.
type DefaultsConfig struct {
	TickHz      int  `yaml:"tick_hz"`      // controller update rate
	MaxDtMs     int  `yaml:"max_dt_ms"`    // upper clamp of a single tick's dt
	TelemetryHz int  `yaml:"telemetry_hz"` // websocket frame rate
	DebugLevel  int  `yaml:"debug_level"`  // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	MockGPIO    bool `yaml:"mock_gpio"`    // use mock GPIO (true=dev/test, false=real Raspberry Pi)
}

// Config aggregates all application configuration.
type Config struct {
	Fixtures []FixtureConfig `yaml:"fixtures"`
	Cues     []CueConfig     `yaml:"cues,omitempty"`
	Defaults DefaultsConfig  `yaml:"defaults"`
}

// ValidateConfigPath checks that path names a .yaml file inside a configs/
// directory and does not traverse upwards.
func ValidateConfigPath(path string) error {
	if path == "" {
		return fmt.Errorf("config path is empty")
	}
	if strings.Contains(path, "..") {
		return fmt.Errorf("config path %q must not contain '..'", path)
	}
	if filepath.Ext(path) != ".yaml" {
		return fmt.Errorf("config path %q must have a .yaml extension", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if filepath.Base(filepath.Dir(abs)) != "configs" {
		return fmt.Errorf("config path %q must be inside a configs/ directory", path)
	}
	return nil
}

// MaxConfigFileBytes caps the size of a config file Load will read.
const MaxConfigFileBytes = 1 << 20

// Load reads a YAML file and returns the configuration.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if info.Size() > MaxConfigFileBytes {
		return nil, fmt.Errorf("config file %s is %d bytes, limit is %d", path, info.Size(), MaxConfigFileBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML data, fills defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	if cfg.Defaults.TickHz <= 0 {
		cfg.Defaults.TickHz = 100 // reasonable default
	}
	if cfg.Defaults.TickHz > 1000 {
		return nil, fmt.Errorf("tick_hz must be <= 1000, got %d", cfg.Defaults.TickHz)
	}
	if cfg.Defaults.MaxDtMs <= 0 {
		cfg.Defaults.MaxDtMs = 50 // a stalled tick never integrates more than 50ms
	}
	if cfg.Defaults.TelemetryHz <= 0 {
		cfg.Defaults.TelemetryHz = 20
	}

	if len(cfg.Fixtures) == 0 {
		return nil, fmt.Errorf("at least one fixture is required")
	}
	seen := make(map[string]bool, len(cfg.Fixtures))
	for i := range cfg.Fixtures {
		f := &cfg.Fixtures[i]
		if err := f.applyDefaults(); err != nil {
			return nil, fmt.Errorf("fixtures[%d]: %w", i, err)
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("fixtures[%d]: duplicate name %q", i, f.Name)
		}
		seen[f.Name] = true
		if err := f.validate(); err != nil {
			return nil, fmt.Errorf("fixture %q: %w", f.Name, err)
		}
	}

	for i, c := range cfg.Cues {
		if err := c.validate(seen); err != nil {
			return nil, fmt.Errorf("cues[%d]: %w", i, err)
		}
	}

	return &cfg, nil
}

func (f *FixtureConfig) applyDefaults() error {
	if f.Name == "" {
		return fmt.Errorf("name is required")
	}
	if f.Model == "" {
		f.Model = "generic_beam"
	}
	preset, ok := presets[f.Model]
	if !ok && f.Profile == nil {
		return fmt.Errorf("unknown model %q and no profile given (known: %s)", f.Model, strings.Join(dmx.Models(), ", "))
	}
	if !ok {
		preset = presets["generic_beam"]
	}
	if f.Profile == nil {
		p, _ := dmx.LookupProfile(f.Model)
		f.Profile = &p
	}
	if f.Address == 0 {
		f.Address = 1
	}
	f.Pan.fill(preset.pan)
	f.Tilt.fill(preset.tilt)
	return nil
}

func (f *FixtureConfig) validate() error {
	if err := f.Profile.Validate(); err != nil {
		return err
	}
	if f.Address < 1 || f.Address+f.Profile.Channels-1 > dmx.UniverseSize {
		return fmt.Errorf("address %d with %d channels does not fit in 1-%d",
			f.Address, f.Profile.Channels, dmx.UniverseSize)
	}
	if err := f.Pan.validate(); err != nil {
		return fmt.Errorf("pan: %w", err)
	}
	if err := f.Tilt.validate(); err != nil {
		return fmt.Errorf("tilt: %w", err)
	}
	return nil
}

// fill copies every zero field from preset.
func (a *AxisConfig) fill(preset AxisConfig) {
	if a.MinDeg == 0 && a.MaxDeg == 0 {
		a.MinDeg, a.MaxDeg = preset.MinDeg, preset.MaxDeg
	}
	def := func(v *float64, d float64) {
		if *v == 0 {
			*v = d
		}
	}
	def(&a.VMax, preset.VMax)
	def(&a.AMax, preset.AMax)
	def(&a.JMax, preset.JMax)
	def(&a.KSmall, preset.KSmall)
	def(&a.SmallThreshDeg, preset.SmallThreshDeg)
	def(&a.SnapPosDeg, preset.SnapPosDeg)
	def(&a.SnapVel, preset.SnapVel)
	def(&a.ReverseBrakeScale, preset.ReverseBrakeScale)

	if s := a.Stepper; s != nil {
		if s.StepsPerRev == 0 {
			s.StepsPerRev = 200
		}
		if s.Microstepping == 0 {
			s.Microstepping = 1
		}
	}
}

func (a *AxisConfig) validate() error {
	if !finite(a.MinDeg) || !finite(a.MaxDeg) {
		return fmt.Errorf("min_deg and max_deg must be finite")
	}
	if a.MinDeg == a.MaxDeg {
		return fmt.Errorf("min_deg and max_deg must differ, both are %.2f", a.MinDeg)
	}
	if !finite(a.Home) || a.Home < 0 || a.Home > 1 {
		return fmt.Errorf("home must be between 0 and 1, got %.2f", a.Home)
	}
	if err := a.Params().Validate(); err != nil {
		return err
	}
	if s := a.Stepper; s != nil {
		if s.StepPin <= 0 || s.DirPin <= 0 {
			return fmt.Errorf("stepper: step_pin and dir_pin are required")
		}
		if s.StepsPerRev < 0 || s.Microstepping < 0 {
			return fmt.Errorf("stepper: steps_per_rev and microstepping must be > 0")
		}
	}
	return nil
}

func (c CueConfig) validate(fixtures map[string]bool) error {
	if c.Fixture != "" && !fixtures[c.Fixture] {
		return fmt.Errorf("unknown fixture %q", c.Fixture)
	}
	if c.Pan == nil && c.Tilt == nil {
		return fmt.Errorf("cue %q sets neither pan nor tilt", c.Name)
	}
	for _, v := range []*float64{c.Pan, c.Tilt} {
		if v != nil && (!finite(*v) || *v < 0 || *v > 1) {
			return fmt.Errorf("cue %q: target must be between 0 and 1, got %g", c.Name, *v)
		}
	}
	if c.HoldMs < 0 {
		return fmt.Errorf("cue %q: hold_ms must be >= 0", c.Name)
	}
	return nil
}

// Params returns the motion tuning of the axis.
func (a AxisConfig) Params() motion.Params {
	return motion.Params{
		MaxVelocity:       a.VMax,
		MaxAccel:          a.AMax,
		MaxJerk:           a.JMax,
		SmallGain:         a.KSmall,
		SmallThreshold:    a.SmallThreshDeg,
		SnapAngle:         a.SnapPosDeg,
		SnapVelocity:      a.SnapVel,
		ReverseBrakeScale: a.ReverseBrakeScale,
	}
}

// StepDelay returns the half-cycle duration of a STEP pulse.
func (s StepperConfig) StepDelay() time.Duration {
	return time.Duration(s.StepDelayUs) * time.Microsecond
}

// Hold returns how long a cue holds after arrival.
func (c CueConfig) Hold() time.Duration {
	return time.Duration(c.HoldMs) * time.Millisecond
}

// TickInterval returns the period of the controller loop.
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.Defaults.TickHz)
}

// MaxDt returns the clamp applied to a single tick's dt.
func (c *Config) MaxDt() time.Duration {
	return time.Duration(c.Defaults.MaxDtMs) * time.Millisecond
}

// TelemetryInterval returns the period between websocket frames.
func (c *Config) TelemetryInterval() time.Duration {
	return time.Second / time.Duration(c.Defaults.TelemetryHz)
}

// Fixture returns the fixture named name.
func (c *Config) Fixture(name string) (*FixtureConfig, bool) {
	for i := range c.Fixtures {
		if c.Fixtures[i].Name == name {
			return &c.Fixtures[i], true
		}
	}
	return nil, false
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
