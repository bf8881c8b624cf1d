package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultWheel(t *testing.T) {
	wf, err := DefaultWheel()
	if err != nil {
		t.Fatalf("DefaultWheel: %v", err)
	}
	w, err := wf.Wheel()
	if err != nil {
		t.Fatalf("Wheel: %v", err)
	}
	if w.Len() != 7 {
		t.Errorf("sectors %d, want 7", w.Len())
	}
	if w.TotalWeight() != 75 {
		t.Errorf("total weight %v, want 75", w.TotalWeight())
	}
	if w.Sector(6).Label != "You Lost" {
		t.Errorf("last label %q, want You Lost", w.Sector(6).Label)
	}

	ec := wf.EngineConfig()
	if ec.Turns != 5 || ec.Duration != 4*time.Second {
		t.Errorf("engine config %+v, want 5 turns over 4s", ec)
	}
	if math.Abs(ec.Pointer-math.Pi/2) > 1e-12 {
		t.Errorf("pointer %v, want π/2", ec.Pointer)
	}
	if wf.Player.StartingBalance != 100 || wf.Player.StartingSpins != 3 {
		t.Errorf("player %+v, want 100 balance and 3 spins", wf.Player)
	}
	if len(wf.Packages) != 3 {
		t.Fatalf("%d packages, want 3", len(wf.Packages))
	}
	if p := wf.Packages[1]; p.Key != "5_spins" || p.Spins != 5 || p.Price != 500 {
		t.Errorf("second package %+v, want 5_spins for 500", p)
	}
}

func TestParseWheel_Rejects(t *testing.T) {
	cases := map[string]string{
		"no sectors": `
spin: {turns: 5, duration: 4s}
sectors: []`,
		"zero weight": `
spin: {turns: 5, duration: 4s}
sectors:
  - {label: a, payout: 0, color: "#ffffff", weight: 0}`,
		"bad color": `
spin: {turns: 5, duration: 4s}
sectors:
  - {label: a, payout: 0, color: "red-ish", weight: 1}`,
		"missing spin": `
sectors:
  - {label: a, payout: 0, color: "#fff", weight: 1}`,
		"zero duration": `
spin: {turns: 5, duration: 0s}
sectors:
  - {label: a, payout: 0, color: "#fff", weight: 1}`,
		"duplicate package": `
spin: {turns: 5, duration: 1s}
sectors:
  - {label: a, payout: 0, color: "#fff", weight: 1}
packages:
  - {key: p, spins: 1, price: 1, label: one}
  - {key: p, spins: 2, price: 2, label: two}`,
	}
	for name, doc := range cases {
		if _, err := ParseWheel([]byte(doc)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestLoadWheel_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wheel.yaml")
	doc := `
spin: {turns: 2, duration: 1500ms, pointer_degrees: 0}
sectors:
  - {label: Jackpot, payout: 100, color: "#00ff00", weight: 1}
  - {label: Nothing, payout: 0, color: "#ff0000", weight: 3}
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	wf, err := LoadWheel(path)
	if err != nil {
		t.Fatalf("LoadWheel: %v", err)
	}
	if wf.Spin.Duration != 1500*time.Millisecond {
		t.Errorf("duration %v, want 1.5s", wf.Spin.Duration)
	}
	if len(wf.Sectors) != 2 {
		t.Errorf("sectors %d, want 2", len(wf.Sectors))
	}
	if p := wf.EngineConfig().Pointer; p != 0 {
		t.Errorf("pointer %v, want 0", p)
	}

	if _, err := LoadWheel(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should error")
	}
}

func TestLoad_EnvAndDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := strings.Join([]string{
		"PORT=9090",
		"FRAME_INTERVAL=50ms",
		"CORS_ORIGINS=https://a.example,https://b.example",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("APP_ENV", "dev")
	// Clear values a .env must not override, and ones it should fill.
	t.Setenv("PORT", "")
	os.Unsetenv("PORT")
	t.Setenv("FRAME_INTERVAL", "")
	os.Unsetenv("FRAME_INTERVAL")
	t.Setenv("CORS_ORIGINS", "")
	os.Unsetenv("CORS_ORIGINS")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != EnvDev {
		t.Errorf("Env %q, want dev", cfg.Env)
	}
	if cfg.Address() != ":9090" {
		t.Errorf("Address %q, want :9090", cfg.Address())
	}
	if cfg.FrameInterval != 50*time.Millisecond {
		t.Errorf("FrameInterval %v, want 50ms", cfg.FrameInterval)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins %v", cfg.CORSOrigins)
	}
	if cfg.DatabasePath != "spinwheel.db" {
		t.Errorf("DatabasePath %q, want default", cfg.DatabasePath)
	}
}

func TestLoad_MissingDotenvIsFine(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("missing .env should be ignored: %v", err)
	}
}
