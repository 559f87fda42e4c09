// Package vision routes analysis requests to the mock generator or a real provider.
package vision

import (
	"context"
	"log/slog"
	"time"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
	"github.com/fintechsquad01/imagescout/internal/core/ports"
)

type Analyzer struct {
	provider ports.VisionAnalyzer
	mock     ports.VisionAnalyzer
	name     string
}

// New returns an analyzer that uses mock when asked to, or when provider is nil.
func New(name string, provider, mock ports.VisionAnalyzer) *Analyzer {
	return &Analyzer{provider: provider, mock: mock, name: name}
}

func (a *Analyzer) Analyze(ctx context.Context, image domain.Image, opts domain.AnalyzeOptions) (domain.VisionData, error) {
	target, source := a.provider, a.name
	if opts.Mock || a.provider == nil {
		target, source = a.mock, "mock"
	}

	start := time.Now()
	data, err := target.Analyze(ctx, image, opts)
	if err != nil {
		slog.Warn("vision_analyze_failed",
			"provider", source,
			"image", image.Name,
			"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
			"error", err,
		)
		return domain.UnknownVisionData(), err
	}
	return data.Normalize(), nil
}
