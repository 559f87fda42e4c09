package domain

import "strings"

type Likelihood string

const (
	LikelihoodVeryUnlikely Likelihood = "VERY_UNLIKELY"
	LikelihoodUnlikely     Likelihood = "UNLIKELY"
	LikelihoodPossible     Likelihood = "POSSIBLE"
	LikelihoodLikely       Likelihood = "LIKELY"
	LikelihoodVeryLikely   Likelihood = "VERY_LIKELY"
	LikelihoodUnknown      Likelihood = "UNKNOWN"
)

// ParseLikelihood maps provider strings onto the enum. Anything unrecognized is UNKNOWN.
func ParseLikelihood(raw string) Likelihood {
	switch l := Likelihood(strings.ToUpper(strings.TrimSpace(raw))); l {
	case LikelihoodVeryUnlikely, LikelihoodUnlikely, LikelihoodPossible, LikelihoodLikely, LikelihoodVeryLikely:
		return l
	default:
		return LikelihoodUnknown
	}
}

// Flagged reports whether the rating counts as unsafe content.
func (l Likelihood) Flagged() bool {
	return l == LikelihoodLikely || l == LikelihoodVeryLikely
}

type SafeSearch struct {
	Adult    Likelihood `json:"adult"`
	Violence Likelihood `json:"violence"`
	Racy     Likelihood `json:"racy"`
}

// VisionData is the analysis result for one image. Error is only set on degraded results.
type VisionData struct {
	Labels     []string   `json:"labels"`
	Objects    []string   `json:"objects"`
	Landmarks  []string   `json:"landmarks"`
	Colors     []string   `json:"colors"`
	SafeSearch SafeSearch `json:"safeSearch"`
	Error      string     `json:"error,omitempty"`
}

// UnknownVisionData is the fully shaped placeholder used when a provider fails.
func UnknownVisionData() VisionData {
	return VisionData{
		Labels:    []string{},
		Objects:   []string{},
		Landmarks: []string{},
		Colors:    []string{},
		SafeSearch: SafeSearch{
			Adult:    LikelihoodUnknown,
			Violence: LikelihoodUnknown,
			Racy:     LikelihoodUnknown,
		},
	}
}

// MissingFields lists the fields a raw provider reply left out. Normalize fills them in, so this is
// only meaningful before normalization.
func (v VisionData) MissingFields() []string {
	var missing []string
	for _, f := range []struct {
		name    string
		present bool
	}{
		{"labels", v.Labels != nil},
		{"objects", v.Objects != nil},
		{"landmarks", v.Landmarks != nil},
		{"colors", v.Colors != nil},
		{"safeSearch.adult", v.SafeSearch.Adult != ""},
		{"safeSearch.violence", v.SafeSearch.Violence != ""},
		{"safeSearch.racy", v.SafeSearch.Racy != ""},
	} {
		if !f.present {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Normalize fills nil sequences and empty ratings so every field is present.
func (v VisionData) Normalize() VisionData {
	out := v
	if out.Labels == nil {
		out.Labels = []string{}
	}
	if out.Objects == nil {
		out.Objects = []string{}
	}
	if out.Landmarks == nil {
		out.Landmarks = []string{}
	}
	if out.Colors == nil {
		out.Colors = []string{}
	}
	out.SafeSearch.Adult = ParseLikelihood(string(out.SafeSearch.Adult))
	out.SafeSearch.Violence = ParseLikelihood(string(out.SafeSearch.Violence))
	out.SafeSearch.Racy = ParseLikelihood(string(out.SafeSearch.Racy))
	return out
}

// Image is the unit being scored. Data holds the raw bytes; Name and Size come from the upload.
type Image struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Data        []byte `json:"-"`
}
