// Package mock produces deterministic vision data without calling a provider.
package mock

import (
	"context"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
)

var labelSets = [][]string{
	{"person", "outdoor", "nature", "landscape", "mountain"},
	{"dog", "animal", "pet", "mammal", "canine"},
	{"food", "meal", "restaurant", "cuisine", "dish"},
	{"building", "architecture", "urban", "city", "skyline"},
	{"beach", "ocean", "water", "sand", "coast"},
}

var colorSets = [][]string{
	{"rgb(42, 75, 153)", "rgb(89, 156, 231)", "rgb(235, 245, 251)"},
	{"rgb(67, 122, 50)", "rgb(120, 173, 59)", "rgb(238, 240, 214)"},
	{"rgb(153, 42, 42)", "rgb(231, 89, 89)", "rgb(251, 235, 235)"},
	{"rgb(42, 42, 42)", "rgb(120, 120, 120)", "rgb(200, 200, 200)"},
	{"rgb(201, 148, 21)", "rgb(247, 202, 24)", "rgb(253, 235, 180)"},
}

type Analyzer struct{}

func New() *Analyzer {
	return &Analyzer{}
}

func (a *Analyzer) Analyze(_ context.Context, image domain.Image, _ domain.AnalyzeOptions) (domain.VisionData, error) {
	return Generate(image.Name), nil
}

// Generate returns the fixed data set selected by the byte sum of filename.
func Generate(filename string) domain.VisionData {
	set := SetIndex(filename)
	labels := labelSets[set]
	return domain.VisionData{
		Labels:    append([]string(nil), labels...),
		Objects:   append([]string(nil), labels[:2]...),
		Landmarks: []string{},
		Colors:    append([]string(nil), colorSets[set]...),
		SafeSearch: domain.SafeSearch{
			Adult:    domain.LikelihoodVeryUnlikely,
			Violence: domain.LikelihoodUnlikely,
			Racy:     domain.LikelihoodUnlikely,
		},
	}
}

func SetIndex(filename string) int {
	sum := 0
	for i := 0; i < len(filename); i++ {
		sum += int(filename[i])
	}
	return sum % len(labelSets)
}
