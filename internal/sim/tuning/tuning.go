package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz int `yaml:"tick_rate_hz"`

	Ball BallTuning `yaml:"ball"`
}

type BallTuning struct {
	SpawnDistance float64 `yaml:"spawn_distance"`
	SpawnHeight   float64 `yaml:"spawn_height"`

	ThrowStrengthBase  float64 `yaml:"throw_strength_base"`
	ThrowStrengthScale float64 `yaml:"throw_strength_scale"`
	ArcBoostBase       float64 `yaml:"arc_boost_base"`
	ArcBoostScale      float64 `yaml:"arc_boost_scale"`

	AutoMissSeconds      int `yaml:"auto_miss_seconds"`
	ScoreDespawnDelayMs  int `yaml:"score_despawn_delay_ms"`
	ScoreDedupeCleanupMs int `yaml:"score_dedupe_cleanup_ms"`
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion: "1.0",
		TickRateHz:      20,
		Ball: BallTuning{
			SpawnDistance:        1.0,
			SpawnHeight:          1.2,
			ThrowStrengthBase:    15,
			ThrowStrengthScale:   10,
			ArcBoostBase:         3,
			ArcBoostScale:        5,
			AutoMissSeconds:      15,
			ScoreDespawnDelayMs:  2000,
			ScoreDedupeCleanupMs: 5000,
		},
	}
}
