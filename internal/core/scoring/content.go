package scoring

import (
	"math"
	"strings"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
)

type ContentType string

const (
	ContentDescriptive   ContentType = "descriptive"
	ContentTechnical     ContentType = "technical"
	ContentEmotional     ContentType = "emotional"
	ContentLocationBased ContentType = "locationBased"
)

// ContentWeights estimates how strongly an image fits each content style, each in [0, 1].
type ContentWeights struct {
	Descriptive   float64 `json:"descriptive"`
	Technical     float64 `json:"technical"`
	Emotional     float64 `json:"emotional"`
	LocationBased float64 `json:"locationBased"`
}

func CalculateContentWeights(v *domain.VisionData) ContentWeights {
	if v == nil {
		return ContentWeights{Descriptive: 0.5, Technical: 0.5, Emotional: 0.5, LocationBased: 0.5}
	}

	emotional := 0.3 + 0.04*float64(len(v.Colors))
	if hasPeople(v) {
		emotional += 0.3
	}

	return ContentWeights{
		Descriptive:   math.Min(0.9, 0.3+0.05*float64(len(v.Labels))),
		Technical:     math.Min(0.8, 0.2+0.06*float64(len(v.Objects))),
		Emotional:     math.Min(0.85, emotional),
		LocationBased: math.Min(0.8, 0.1+0.15*float64(len(v.Landmarks))),
	}
}

// PrimaryContentType returns the strongest style. Ties resolve in declaration order.
func PrimaryContentType(w ContentWeights) ContentType {
	best := ContentDescriptive
	bestValue := w.Descriptive
	for _, candidate := range []struct {
		kind  ContentType
		value float64
	}{
		{ContentTechnical, w.Technical},
		{ContentEmotional, w.Emotional},
		{ContentLocationBased, w.LocationBased},
	} {
		if candidate.value > bestValue {
			best = candidate.kind
			bestValue = candidate.value
		}
	}
	return best
}

func hasPeople(v *domain.VisionData) bool {
	for _, group := range [][]string{v.Objects, v.Labels} {
		for _, item := range group {
			switch strings.ToLower(strings.TrimSpace(item)) {
			case "person", "face", "people":
				return true
			}
		}
	}
	return false
}
