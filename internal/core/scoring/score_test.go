package scoring

import (
	"math/rand/v2"
	"testing"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
)

func items(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "item"
	}
	return out
}

func randomVision(r *rand.Rand) domain.VisionData {
	return domain.VisionData{
		Labels:    items(r.IntN(15)),
		Objects:   items(r.IntN(15)),
		Landmarks: items(r.IntN(5)),
		Colors:    items(r.IntN(10)),
	}
}

func randomWeights(r *rand.Rand) domain.Weights {
	base := r.Float64() * 40
	return domain.Weights{
		Labels:    r.Float64() * 5,
		Objects:   r.Float64() * 5,
		Landmarks: r.Float64() * 10,
		Colors:    r.Float64() * 5,
		BaseScore: base,
		MaxScore:  base + r.Float64()*100,
	}
}

func TestCalculateWorkedExample(t *testing.T) {
	v := &domain.VisionData{
		Labels:    items(5),
		Objects:   items(3),
		Landmarks: []string{},
		Colors:    items(4),
	}
	w := domain.Weights{Labels: 1, Objects: 1.2, Landmarks: 1.5, Colors: 0.8, BaseScore: 10, MaxScore: 100}

	if got := Calculate(v, w); got != 22 {
		t.Fatalf("Calculate() = %d, want 22", got)
	}
}

func TestCalculateAppliesTermCaps(t *testing.T) {
	v := &domain.VisionData{
		Labels:    items(100),
		Objects:   items(100),
		Landmarks: items(2),
		Colors:    items(100),
	}
	w := domain.Weights{Labels: 1, Objects: 1, Landmarks: 10, Colors: 1, BaseScore: 0, MaxScore: 1000}

	// 25 + 20 + 20 (landmarks uncapped) + 15
	if got := Calculate(v, w); got != 80 {
		t.Fatalf("Calculate() = %d, want 80", got)
	}
}

func TestCalculateClampsToMaxScore(t *testing.T) {
	v := &domain.VisionData{Landmarks: items(50)}
	w := domain.Weights{Landmarks: 5, BaseScore: 10, MaxScore: 60}

	if got := Calculate(v, w); got != 60 {
		t.Fatalf("Calculate() = %d, want 60", got)
	}
}

func TestCalculateIsDeterministicAndBounded(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 1000; i++ {
		v := randomVision(r)
		w := randomWeights(r)

		first := Calculate(&v, w)
		second := Calculate(&v, w)
		if first != second {
			t.Fatalf("iteration %d: Calculate() not deterministic: %d != %d", i, first, second)
		}
		if first < 0 || float64(first) > w.MaxScore {
			t.Fatalf("iteration %d: score %d outside [0, %v]", i, first, w.MaxScore)
		}
	}
}

func TestCalculateIsMonotonicInEachWeight(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	bumps := []func(*domain.Weights, float64){
		func(w *domain.Weights, d float64) { w.Labels += d },
		func(w *domain.Weights, d float64) { w.Objects += d },
		func(w *domain.Weights, d float64) { w.Landmarks += d },
		func(w *domain.Weights, d float64) { w.Colors += d },
	}

	for i := 0; i < 500; i++ {
		v := randomVision(r)
		w := randomWeights(r)
		before := Calculate(&v, w)
		for j, bump := range bumps {
			raised := w
			bump(&raised, r.Float64()*3)
			if after := Calculate(&v, raised); after < before {
				t.Fatalf("iteration %d weight %d: score decreased from %d to %d", i, j, before, after)
			}
		}
	}
}

func TestCalculateWithoutVisionDataStaysInFallbackRange(t *testing.T) {
	w := domain.DefaultWeights()
	for i := 0; i < 2000; i++ {
		got := Calculate(nil, w)
		if got < 10 || got > 55 {
			t.Fatalf("Calculate(nil) = %d, want value in [10, 55]", got)
		}
	}
}

func TestCalculateFallbackCoversBothEnds(t *testing.T) {
	w := domain.DefaultWeights()
	if got := calculate(nil, w, func(int) int { return 0 }); got != 10 {
		t.Fatalf("low fallback = %d, want 10", got)
	}
	if got := calculate(nil, w, func(n int) int { return n - 1 }); got != 55 {
		t.Fatalf("high fallback = %d, want 55", got)
	}
}
