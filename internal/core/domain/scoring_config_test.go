package domain

import (
	"math"
	"testing"
	"time"
)

func TestScoringConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ScoringConfig)
		wantErr bool
	}{
		{name: "default is valid", mutate: func(*ScoringConfig) {}},
		{name: "missing id", mutate: func(c *ScoringConfig) { c.ID = " " }, wantErr: true},
		{name: "missing model", mutate: func(c *ScoringConfig) { c.Model = "" }, wantErr: true},
		{name: "negative multiplier", mutate: func(c *ScoringConfig) { c.Weights.Colors = -0.1 }, wantErr: true},
		{name: "negative base", mutate: func(c *ScoringConfig) { c.Weights.BaseScore = -1 }, wantErr: true},
		{name: "max below base", mutate: func(c *ScoringConfig) { c.Weights.MaxScore = 5 }, wantErr: true},
		{name: "nan weight", mutate: func(c *ScoringConfig) { c.Weights.Labels = math.NaN() }, wantErr: true},
		{name: "max equals base", mutate: func(c *ScoringConfig) { c.Weights.MaxScore = c.Weights.BaseScore }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultScoringConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected validation error")
				}
				if !IsKind(err, ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
		})
	}
}

func TestVisionDataNormalize(t *testing.T) {
	v := VisionData{
		Labels:     []string{"dog"},
		SafeSearch: SafeSearch{Adult: "likely", Violence: "bogus"},
	}.Normalize()

	if v.Objects == nil || v.Landmarks == nil || v.Colors == nil {
		t.Fatalf("expected empty sequences, got %+v", v)
	}
	if v.SafeSearch.Adult != LikelihoodLikely {
		t.Fatalf("adult = %q, want LIKELY", v.SafeSearch.Adult)
	}
	if v.SafeSearch.Violence != LikelihoodUnknown || v.SafeSearch.Racy != LikelihoodUnknown {
		t.Fatalf("expected UNKNOWN ratings, got %+v", v.SafeSearch)
	}
}

func TestNewCacheProvenance(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := NewCacheProvenance("gpt-vision", now)
	if !p.FromCache || p.CacheKey != "cache_gpt-vision" {
		t.Fatalf("unexpected provenance: %+v", p)
	}
	if got := p.ExpiresAt.Sub(p.CacheDate); got != CacheProvenanceTTL {
		t.Fatalf("expiry offset = %v, want %v", got, CacheProvenanceTTL)
	}
}

func TestVisionDataMissingFields(t *testing.T) {
	raw := VisionData{Labels: []string{"a"}, Colors: []string{}, SafeSearch: SafeSearch{Adult: LikelihoodUnlikely}}
	got := raw.MissingFields()
	want := []string{"objects", "landmarks", "safeSearch.violence", "safeSearch.racy"}
	if len(got) != len(want) {
		t.Fatalf("MissingFields() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("MissingFields() = %v, want %v", got, want)
		}
	}
	if missing := raw.Normalize().MissingFields(); len(missing) != 0 {
		t.Fatalf("normalized data still missing %v", missing)
	}
}
