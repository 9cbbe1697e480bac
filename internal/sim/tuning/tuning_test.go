package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	body := `
protocol_version: "1.0"
tick_rate_hz: 10
boundary_r: 128
max_height: 7
region_size: 16
roughness_permille: 50
rate_limits:
  gesture_window_ticks: 10
  gesture_max: 5
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.TickRateHz != 10 || got.BoundaryR != 128 || got.MaxHeight != 7 {
		t.Fatalf("unexpected tuning: %+v", got)
	}
	if got.RateLimits.GestureMax != 5 {
		t.Fatalf("rate limits not parsed: %+v", got.RateLimits)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist, got %v", err)
	}
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d.TickRateHz <= 0 || d.BoundaryR <= 0 || d.RateLimits.GestureMax <= 0 {
		t.Fatalf("defaults incomplete: %+v", d)
	}
}
