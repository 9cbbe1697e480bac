package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz int `yaml:"tick_rate_hz"`

	// Grid shape and starting terrain.
	BoundaryR         int `yaml:"boundary_r"`
	MaxHeight         int `yaml:"max_height"`
	RegionSize        int `yaml:"region_size"`
	RoughnessPermille int `yaml:"roughness_permille"`

	RateLimits RateLimits `yaml:"rate_limits"`
}

type RateLimits struct {
	GestureWindowTicks int `yaml:"gesture_window_ticks"`
	GestureMax         int `yaml:"gesture_max"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:   "1.0",
		TickRateHz:        20,
		BoundaryR:         512,
		MaxHeight:         15,
		RegionSize:        32,
		RoughnessPermille: 25,
		RateLimits: RateLimits{
			GestureWindowTicks: 20,
			GestureMax:         40,
		},
	}
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
