package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aristath/vitals/internal/modules/scoring"
)

// Scoring builds the scoring configuration: the standard tables, the recovery
// thresholds from the environment, then the optional YAML file on top.
// Tables present in the file replace the defaults entirely.
func (c *Config) Scoring() (scoring.Config, error) {
	sc := scoring.DefaultConfig()
	sc.Recovery.Green = c.Recovery.Green
	sc.Recovery.Yellow = c.Recovery.Yellow
	sc.Recovery.Orange = c.Recovery.Orange

	if c.ScoringFile != "" {
		raw, err := os.ReadFile(c.ScoringFile)
		if err != nil {
			return scoring.Config{}, fmt.Errorf("failed to read scoring config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &sc); err != nil {
			return scoring.Config{}, fmt.Errorf("failed to parse scoring config %s: %w", c.ScoringFile, err)
		}
	}

	if err := sc.Validate(); err != nil {
		return scoring.Config{}, fmt.Errorf("invalid scoring config: %w", err)
	}

	return sc, nil
}
