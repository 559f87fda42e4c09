package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	DefaultConfigID      = "default"
	DefaultConfigModel   = "default"
	DefaultConfigVersion = "1.0"
)

// Weights is the fixed-shape weight set of a scoring config.
type Weights struct {
	Labels    float64 `json:"labels" yaml:"labels"`
	Objects   float64 `json:"objects" yaml:"objects"`
	Landmarks float64 `json:"landmarks" yaml:"landmarks"`
	Colors    float64 `json:"colors" yaml:"colors"`
	BaseScore float64 `json:"baseScore" yaml:"base_score"`
	MaxScore  float64 `json:"maxScore" yaml:"max_score"`
}

func DefaultWeights() Weights {
	return Weights{
		Labels:    1,
		Objects:   1,
		Landmarks: 1,
		Colors:    1,
		BaseScore: 10,
		MaxScore:  100,
	}
}

func (w Weights) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"labels", w.Labels},
		{"objects", w.Objects},
		{"landmarks", w.Landmarks},
		{"colors", w.Colors},
		{"baseScore", w.BaseScore},
		{"maxScore", w.MaxScore},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("weight %s must be a finite number", f.name)
		}
		if f.value < 0 {
			return fmt.Errorf("weight %s must be >= 0, got %v", f.name, f.value)
		}
	}
	if w.MaxScore < w.BaseScore {
		return fmt.Errorf("maxScore %v must be >= baseScore %v", w.MaxScore, w.BaseScore)
	}
	return nil
}

type ScoringConfig struct {
	ID             string    `json:"id" yaml:"id"`
	Model          string    `json:"model" yaml:"model"`
	Version        string    `json:"version" yaml:"version"`
	Weights        Weights   `json:"weights" yaml:"weights"`
	PromptTemplate string    `json:"promptTemplate" yaml:"prompt_template"`
	IsActive       bool      `json:"isActive" yaml:"is_active"`
	CreatedAt      time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt      time.Time `json:"updatedAt" yaml:"-"`
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		ID:      DefaultConfigID,
		Model:   DefaultConfigModel,
		Version: DefaultConfigVersion,
		Weights: DefaultWeights(),
	}
}

// Validate rejects configs that cannot be scored with. The error wraps ErrInvalidInput.
func (c ScoringConfig) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return WrapError(ErrInvalidInput, "validate scoring config", errors.New("id is required"))
	}
	if strings.TrimSpace(c.Model) == "" {
		return WrapError(ErrInvalidInput, "validate scoring config "+c.ID, errors.New("model is required"))
	}
	if err := c.Weights.Validate(); err != nil {
		return WrapError(ErrInvalidInput, "validate scoring config "+c.ID, err)
	}
	return nil
}

// DisplayVersion returns the version or the default when unset.
func (c ScoringConfig) DisplayVersion() string {
	if strings.TrimSpace(c.Version) == "" {
		return DefaultConfigVersion
	}
	return c.Version
}
