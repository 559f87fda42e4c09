package scoring

import "github.com/fintechsquad01/imagescout/internal/core/domain"

type SafetyReport struct {
	Safe    bool     `json:"safe"`
	Flagged []string `json:"flagged"`
}

// CheckSafety marks an image unsafe when any rating is LIKELY or VERY_LIKELY.
func CheckSafety(v domain.VisionData) SafetyReport {
	flagged := make([]string, 0, 3)
	if v.SafeSearch.Adult.Flagged() {
		flagged = append(flagged, "adult")
	}
	if v.SafeSearch.Violence.Flagged() {
		flagged = append(flagged, "violence")
	}
	if v.SafeSearch.Racy.Flagged() {
		flagged = append(flagged, "racy")
	}
	return SafetyReport{Safe: len(flagged) == 0, Flagged: flagged}
}
