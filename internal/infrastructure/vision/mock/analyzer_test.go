package mock

import (
	"context"
	"reflect"
	"testing"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
)

func TestGenerateIsDeterministic(t *testing.T) {
	first := Generate("beach.jpg")
	second := Generate("beach.jpg")
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same filename produced different data: %+v vs %+v", first, second)
	}
}

func TestGenerateSelectsSetByByteSum(t *testing.T) {
	// "a" = 97, 97 % 5 = 2 -> food set
	v := Generate("a")
	if v.Labels[0] != "food" || v.Colors[0] != "rgb(153, 42, 42)" {
		t.Fatalf("unexpected set for %q: %+v", "a", v)
	}
	// "b" = 98, 98 % 5 = 3 -> building set
	if got := Generate("b").Labels[0]; got != "building" {
		t.Fatalf("Generate(b).Labels[0] = %q, want building", got)
	}
	// empty name sums to 0 -> first set
	if got := Generate("").Labels[0]; got != "person" {
		t.Fatalf("Generate(\"\").Labels[0] = %q, want person", got)
	}
}

func TestGenerateShape(t *testing.T) {
	v := Generate("dog.png")
	if len(v.Labels) != 5 || len(v.Colors) != 3 {
		t.Fatalf("unexpected lengths: %+v", v)
	}
	if !reflect.DeepEqual(v.Objects, v.Labels[:2]) {
		t.Fatalf("objects must be the first two labels: %+v", v)
	}
	if v.Landmarks == nil || len(v.Landmarks) != 0 {
		t.Fatalf("landmarks must be an empty list: %#v", v.Landmarks)
	}
	want := domain.SafeSearch{Adult: domain.LikelihoodVeryUnlikely, Violence: domain.LikelihoodUnlikely, Racy: domain.LikelihoodUnlikely}
	if v.SafeSearch != want {
		t.Fatalf("SafeSearch = %+v, want %+v", v.SafeSearch, want)
	}
}

func TestGenerateReturnsCopies(t *testing.T) {
	v := Generate("a")
	v.Labels[0] = "mutated"
	if Generate("a").Labels[0] != "food" {
		t.Fatalf("callers must not be able to mutate the fixed sets")
	}
}

func TestAnalyzerUsesImageName(t *testing.T) {
	v, err := New().Analyze(context.Background(), domain.Image{Name: "a", Data: []byte{1}}, domain.AnalyzeOptions{Mock: true})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if v.Labels[0] != "food" {
		t.Fatalf("unexpected labels: %v", v.Labels)
	}
}
