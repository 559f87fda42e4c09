package scoring

import "github.com/fintechsquad01/imagescout/internal/core/domain"

// Insights describes vision data beyond the score. Safety is nil when there is no data to check.
type Insights struct {
	ContentWeights     ContentWeights `json:"contentWeights"`
	PrimaryContentType ContentType    `json:"primaryContentType"`
	Safety             *SafetyReport  `json:"safety,omitempty"`
	MissingFields      []string       `json:"missingFields,omitempty"`
}

// Describe reports content style and safety for v. Missing fields are taken from the raw data;
// the other figures use the normalized form so loosely cased ratings still count.
func Describe(v *domain.VisionData) Insights {
	if v == nil {
		weights := CalculateContentWeights(nil)
		return Insights{ContentWeights: weights, PrimaryContentType: PrimaryContentType(weights)}
	}

	normalized := v.Normalize()
	weights := CalculateContentWeights(&normalized)
	safety := CheckSafety(normalized)
	return Insights{
		ContentWeights:     weights,
		PrimaryContentType: PrimaryContentType(weights),
		Safety:             &safety,
		MissingFields:      v.MissingFields(),
	}
}
