package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
)

type seedFile struct {
	Configs []domain.ScoringConfig `yaml:"configs"`
}

// LoadSeeds reads scoring configs from a YAML file. An empty path yields no seeds.
func LoadSeeds(path string) ([]domain.ScoringConfig, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seeds: %w", err)
	}
	return ParseSeeds(bytes.NewReader(raw))
}

// ParseSeeds decodes a seed document. Weights omitted in the document fall back to the defaults.
func ParseSeeds(r io.Reader) ([]domain.ScoringConfig, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc seedFile
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode seeds: %w", err)
	}

	out := make([]domain.ScoringConfig, 0, len(doc.Configs))
	seen := make(map[string]struct{}, len(doc.Configs))
	for _, c := range doc.Configs {
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("seed %q is defined twice", c.ID)
		}
		seen[c.ID] = struct{}{}
		if c.Weights == (domain.Weights{}) {
			c.Weights = domain.DefaultWeights()
		}
		if c.Version == "" {
			c.Version = domain.DefaultConfigVersion
		}
		out = append(out, c)
	}
	return out, nil
}
