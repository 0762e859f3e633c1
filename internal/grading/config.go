package grading

import (
	"fmt"
	"math"
)

const (
	DefaultPAWeightPercent = 10
	DefaultPenaltyPercent  = 0
)

// Config is the per-session grading configuration supplied by the instructor.
type Config struct {
	PAWeightPercent float64 `json:"paWeight"`
	NumCriteria     int     `json:"numCriteria"`
	PenaltyPercent  float64 `json:"penaltyPercent"`
}

// DefaultConfig is used when an upload does not specify a configuration.
func DefaultConfig(numCriteria int) Config {
	return Config{
		PAWeightPercent: DefaultPAWeightPercent,
		NumCriteria:     numCriteria,
		PenaltyPercent:  DefaultPenaltyPercent,
	}
}

func (c Config) Validate() error {
	if c.PAWeightPercent < 0 || c.PAWeightPercent > 100 || math.IsNaN(c.PAWeightPercent) {
		return fmt.Errorf("paWeight must be between 0 and 100, got %v", c.PAWeightPercent)
	}
	if c.PenaltyPercent < 0 || c.PenaltyPercent > 100 || math.IsNaN(c.PenaltyPercent) {
		return fmt.Errorf("penaltyPercent must be between 0 and 100, got %v", c.PenaltyPercent)
	}
	if c.NumCriteria < 0 {
		return fmt.Errorf("numCriteria must not be negative, got %d", c.NumCriteria)
	}
	return nil
}

// ClampGroupMark rounds a group mark and clamps it to [0, 100] before it is stored.
func ClampGroupMark(v float64) float64 {
	return clampPercent(math.Round(v))
}

func clampPercent(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
