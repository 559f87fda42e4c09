// Package scoring maps vision analysis output onto the bounded opportunity score.
package scoring

import (
	"math"
	"math/rand/v2"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
)

const (
	labelCap  = 25.0
	objectCap = 20.0
	colorCap  = 15.0

	// fallbackSpread is the width of the random score range used when no vision data exists.
	fallbackSpread = 45
)

// Calculate returns the opportunity score for v under w, in [0, w.MaxScore].
// A nil v yields a pseudo-random score in [BaseScore, BaseScore+45], clamped to MaxScore.
func Calculate(v *domain.VisionData, w domain.Weights) int {
	return calculate(v, w, rand.IntN)
}

func calculate(v *domain.VisionData, w domain.Weights, intn func(int) int) int {
	if v == nil {
		total := w.BaseScore + float64(intn(fallbackSpread+1))
		return clampRound(total, w.MaxScore)
	}

	labelScore := math.Min(float64(len(v.Labels))*w.Labels, labelCap)
	objectScore := math.Min(float64(len(v.Objects))*w.Objects, objectCap)
	landmarkScore := float64(len(v.Landmarks)) * w.Landmarks
	colorScore := math.Min(float64(len(v.Colors))*w.Colors, colorCap)

	total := w.BaseScore + labelScore + objectScore + landmarkScore + colorScore
	return clampRound(total, w.MaxScore)
}

func clampRound(total, maxScore float64) int {
	total = math.Max(0, math.Min(total, maxScore))
	rounded := math.Round(total)
	if rounded > maxScore {
		rounded = math.Floor(maxScore)
	}
	return int(rounded)
}
