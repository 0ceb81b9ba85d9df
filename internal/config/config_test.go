package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// ---------- ValidateConfigPath ----------

func TestValidateConfigPath_Valid(t *testing.T) {
	// Create a real configs/ directory so filepath.Abs resolves correctly.
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "configs")
	if err := os.Mkdir(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfgDir, "default.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := ValidateConfigPath(path); err != nil {
		t.Errorf("expected valid path, got error: %v", err)
	}
}

func TestValidateConfigPath_PathTraversal(t *testing.T) {
	cases := []string{
		"../../etc/passwd",
		"configs/../../../etc/shadow",
	}
	for _, path := range cases {
		if err := ValidateConfigPath(path); err == nil {
			t.Errorf("expected error for traversal path %q, got nil", path)
		}
	}
}

func TestValidateConfigPath_WrongExtension(t *testing.T) {
	cases := []string{
		"configs/default.json",
		"configs/default.yml",
		"configs/default.txt",
		"configs/default",
	}
	for _, path := range cases {
		if err := ValidateConfigPath(path); err == nil {
			t.Errorf("expected error for extension in %q, got nil", path)
		}
	}
}

func TestValidateConfigPath_NotInConfigsDir(t *testing.T) {
	cases := []string{
		"other/default.yaml",
		"default.yaml",
		"/tmp/default.yaml",
	}
	for _, path := range cases {
		if err := ValidateConfigPath(path); err == nil {
			t.Errorf("expected error for path outside configs/ %q, got nil", path)
		}
	}
}

func TestValidateConfigPath_EmptyPath(t *testing.T) {
	if err := ValidateConfigPath(""); err == nil {
		t.Error("expected error for empty path, got nil")
	}
}

func TestValidateConfigPath_VeryLongPath(t *testing.T) {
	long := "configs/" + strings.Repeat("a", 1000) + ".yaml"
	// Should not panic; error or success is OS-dependent, but must not crash.
	_ = ValidateConfigPath(long)
}

func TestValidateConfigPath_SpecialChars(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "configs")
	if err := os.Mkdir(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name    string
		wantErr bool
	}{
		{"con fig.yaml", false},
		{"café.yaml", false},
	}
	for _, tc := range cases {
		path := filepath.Join(cfgDir, tc.name)
		err := ValidateConfigPath(path)
		if tc.wantErr && err == nil {
			t.Errorf("expected error for %q, got nil", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("unexpected error for %q: %v", tc.name, err)
		}
	}
}

func TestValidateConfigPath_DoubleTraversal(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "configs")
	if err := os.Mkdir(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	// Try to escape via ../../configs/ok.yaml — filepath.Clean resolves this
	// and the parent must still be "configs".
	path := filepath.Join(cfgDir, "../../configs/ok.yaml")
	err := ValidateConfigPath(path)
	// After Clean the parent may or may not be "configs" depending on resolution.
	// The important thing is it either succeeds with a valid parent or fails.
	_ = err
}

// ---------- Load ----------

// writeConfig creates a temporary configs/ dir with the given YAML content and returns the path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "configs")
	if err := os.Mkdir(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfgDir, "test.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validYAML = `
fixtures:
  - name: stage_left
    model: adj_stealth_beam
    address: 1
    pan:
      home: 0.5
    tilt:
      home: 0.5
      stepper:
        step_pin: 22
        dir_pin: 23
        enable_pin: 6
        microstepping: 16
  - name: stage_right
    model: beam_rgbw_60w
    address: 17
    pan:
      v_max: 250
      snap_pos_deg: 0.25
cues:
  - name: center
    pan: 0.5
    tilt: 0.5
  - name: sweep
    fixture: stage_right
    pan: 1
    hold_ms: 500
defaults:
  tick_hz: 200
  debug_level: 0
  mock_gpio: true
`

func TestLoad_ValidFullConfig(t *testing.T) {
	path := writeConfig(t, validYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Fixtures) != 2 {
		t.Fatalf("got %d fixtures, want 2", len(cfg.Fixtures))
	}

	left, ok := cfg.Fixture("stage_left")
	if !ok {
		t.Fatal("stage_left not found")
	}
	if left.Profile == nil || left.Profile.Channels != 16 {
		t.Errorf("stage_left profile = %+v, want 16-channel stealth layout", left.Profile)
	}
	if left.Pan.MaxDeg != -540 || left.Pan.VMax != 480 {
		t.Errorf("stage_left pan = %v..%v @ %v, want stealth preset", left.Pan.MinDeg, left.Pan.MaxDeg, left.Pan.VMax)
	}
	if left.Tilt.Stepper == nil {
		t.Fatal("stage_left tilt stepper missing")
	}
	if left.Tilt.Stepper.StepsPerRev != 200 || left.Tilt.Stepper.Microstepping != 16 {
		t.Errorf("stepper = %+v, want 200 steps x16", left.Tilt.Stepper)
	}

	right, _ := cfg.Fixture("stage_right")
	if right.Pan.VMax != 250 {
		t.Errorf("explicit v_max = %v, want 250", right.Pan.VMax)
	}
	if right.Pan.SnapPosDeg != 0.25 {
		t.Errorf("explicit snap_pos_deg = %v, want 0.25", right.Pan.SnapPosDeg)
	}
	if right.Pan.AMax != 800 {
		t.Errorf("preset a_max = %v, want 800", right.Pan.AMax)
	}
	if right.Tilt.SmallThreshDeg != 15 {
		t.Errorf("preset tilt small_thresh_deg = %v, want 15", right.Tilt.SmallThreshDeg)
	}

	if len(cfg.Cues) != 2 || cfg.Cues[1].Hold() != 500*time.Millisecond {
		t.Errorf("cues = %+v", cfg.Cues)
	}
	if cfg.Cues[1].Tilt != nil {
		t.Error("sweep cue should leave tilt unset")
	}
	if cfg.TickInterval() != 5*time.Millisecond {
		t.Errorf("TickInterval() = %v, want 5ms", cfg.TickInterval())
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	path := writeConfig(t, `
fixtures:
  - name: solo
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Defaults.TickHz != 100 {
		t.Errorf("tick_hz default = %d, want 100", cfg.Defaults.TickHz)
	}
	if cfg.Defaults.MaxDtMs != 50 {
		t.Errorf("max_dt_ms default = %d, want 50", cfg.Defaults.MaxDtMs)
	}
	if cfg.Defaults.TelemetryHz != 20 {
		t.Errorf("telemetry_hz default = %d, want 20", cfg.Defaults.TelemetryHz)
	}

	f := cfg.Fixtures[0]
	if f.Model != "generic_beam" || f.Address != 1 {
		t.Errorf("fixture defaults = %s@%d, want generic_beam@1", f.Model, f.Address)
	}
	want := genericBeam.pan.Params()
	if got := f.Pan.Params(); got != want {
		t.Errorf("pan params = %+v, want %+v", got, want)
	}
	if f.Pan.MinDeg != 0 || f.Pan.MaxDeg != 540 {
		t.Errorf("pan range = %v..%v, want 0..540", f.Pan.MinDeg, f.Pan.MaxDeg)
	}
	if f.Tilt.Params().MaxAccel != 1600 {
		t.Errorf("tilt a_max = %v, want 1600", f.Tilt.Params().MaxAccel)
	}
}

func TestLoad_CustomProfile(t *testing.T) {
	path := writeConfig(t, `
fixtures:
  - name: custom
    model: house_spot
    address: 500
    profile:
      name: House Spot
      channels: 6
      pan: 2
      tilt: 4
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := cfg.Fixtures[0]
	if f.Profile.Pan != 2 || f.Profile.Channels != 6 {
		t.Errorf("profile = %+v", f.Profile)
	}
	if f.Pan.VMax != 300 {
		t.Errorf("unknown model should fall back to generic tuning, v_max = %v", f.Pan.VMax)
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"no_fixtures", `defaults: {tick_hz: 50}`, "at least one fixture"},
		{"missing_name", `
fixtures:
  - model: generic_beam
`, "name is required"},
		{"duplicate_name", `
fixtures:
  - name: a
  - name: a
    address: 20
`, "duplicate name"},
		{"unknown_model", `
fixtures:
  - name: a
    model: disco_ball
`, "known: adj_stealth_beam, beam_rgbw_60w"},
		{"negative_v_max", `
fixtures:
  - name: a
    pan:
      v_max: -300
`, "v_max must be"},
		{"negative_snap_pos", `
fixtures:
  - name: a
    tilt:
      snap_pos_deg: -0.5
`, "snap_pos_deg must be"},
		{"negative_reverse_brake_scale", `
fixtures:
  - name: a
    pan:
      reverse_brake_scale: -1
`, "reverse_brake_scale must be"},
		{"address_overflow", `
fixtures:
  - name: a
    address: 510
`, "does not fit"},
		{"tick_hz_too_high", `
fixtures:
  - name: a
defaults:
  tick_hz: 5000
`, "tick_hz"},
		{"home_out_of_range", `
fixtures:
  - name: a
    pan:
      home: 1.5
`, "home"},
		{"equal_range", `
fixtures:
  - name: a
    tilt:
      min_deg: 90
      max_deg: 90
`, "must differ"},
		{"stepper_without_pins", `
fixtures:
  - name: a
    pan:
      stepper:
        steps_per_rev: 200
`, "step_pin"},
		{"negative_steps_per_rev", `
fixtures:
  - name: a
    pan:
      stepper:
        step_pin: 17
        dir_pin: 27
        steps_per_rev: -200
`, "steps_per_rev"},
		{"cue_unknown_fixture", `
fixtures:
  - name: a
cues:
  - name: c
    fixture: b
    pan: 0.5
`, "unknown fixture"},
		{"cue_empty", `
fixtures:
  - name: a
cues:
  - name: c
`, "neither pan nor tilt"},
		{"cue_out_of_range", `
fixtures:
  - name: a
cues:
  - name: c
    tilt: 2
`, "between 0 and 1"},
		{"cue_negative_hold", `
fixtures:
  - name: a
cues:
  - name: c
    pan: 0
    hold_ms: -5
`, "hold_ms"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoad_FileTooLarge(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "configs")
	if err := os.Mkdir(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfgDir, "big.yaml")
	data := make([]byte, MaxConfigFileBytes+1)
	for i := range data {
		data[i] = '#'
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil {
		t.Error("expected error for oversized config file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "{{{{invalid yaml!!!!")
	_, err := Load(path)
	if err == nil {
		t.Error("expected error for invalid YAML, got nil")
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeConfig(t, "")
	_, err := Load(path)
	if err == nil {
		t.Error("expected error for empty config (no fixtures), got nil")
	}
}

func TestLoad_UnknownFields(t *testing.T) {
	yaml := `
fixtures:
  - name: a
unknown_section:
  foo: bar
`
	path := writeConfig(t, yaml)
	_, err := Load(path)
	if err != nil {
		t.Errorf("unknown fields should be ignored, got error: %v", err)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "configs")
	if err := os.Mkdir(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfgDir, "nonexistent.yaml")
	_, err := Load(path)
	if err == nil {
		t.Error("expected error for nonexistent file, got nil")
	}
}

func TestLoad_ShippedConfig(t *testing.T) {
	path := filepath.Join("..", "..", "configs", "default.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("configs/default.yaml: %v", err)
	}
	if len(cfg.Fixtures) == 0 || len(cfg.Cues) == 0 {
		t.Errorf("shipped config should define fixtures and cues, got %d/%d", len(cfg.Fixtures), len(cfg.Cues))
	}
}

// ---------- Presets ----------

func TestPresets_ValidParams(t *testing.T) {
	for model, p := range presets {
		for axis, a := range map[string]AxisConfig{"pan": p.pan, "tilt": p.tilt} {
			if err := a.Params().Validate(); err != nil {
				t.Errorf("%s %s: %v", model, axis, err)
			}
		}
	}
}

// ---------- Helper methods ----------

func TestConfig_Durations(t *testing.T) {
	cfg := &Config{Defaults: DefaultsConfig{TickHz: 100, MaxDtMs: 40, TelemetryHz: 25}}
	if got := cfg.TickInterval(); got != 10*time.Millisecond {
		t.Errorf("TickInterval() = %v, want 10ms", got)
	}
	if got := cfg.MaxDt(); got != 40*time.Millisecond {
		t.Errorf("MaxDt() = %v, want 40ms", got)
	}
	if got := cfg.TelemetryInterval(); got != 40*time.Millisecond {
		t.Errorf("TelemetryInterval() = %v, want 40ms", got)
	}
}

func TestStepperConfig_StepDelay(t *testing.T) {
	s := StepperConfig{StepDelayUs: 250}
	if got := s.StepDelay(); got != 250*time.Microsecond {
		t.Errorf("StepDelay() = %v, want 250µs", got)
	}
}

func TestConfig_FixtureLookup(t *testing.T) {
	cfg := &Config{Fixtures: []FixtureConfig{{Name: "a"}, {Name: "b", Address: 9}}}
	f, ok := cfg.Fixture("b")
	if !ok || f.Address != 9 {
		t.Errorf("Fixture(b) = %+v, %v", f, ok)
	}
	if _, ok := cfg.Fixture("c"); ok {
		t.Error("Fixture(c) should not be found")
	}
}
