package title

import (
	"math"
	"testing"
)

func TestScoreExactMatchIsMaximal(t *testing.T) {
	// "!!!" and "+-+" normalize to nothing but still equal themselves.
	for _, input := range []string{"Matrix", "A Lista de Schindler", "Amélie", "x", "!!!", "+-+"} {
		if got := Score(input, input); got != 1.0 {
			t.Fatalf("Score(%q, %q) = %v, want 1.0", input, input, got)
		}
	}
	if score, contained := ScoreWithContainment("!!!", "!!!"); score != 1.0 || !contained {
		t.Fatalf("ScoreWithContainment(%q, %q) = %v, %v, want 1.0, true", "!!!", "!!!", score, contained)
	}
}

func TestScoreCaseAndAccentInsensitiveEquality(t *testing.T) {
	if got := Score("A Lista de Schindler", "A Lista De Schindler"); got != 1.0 {
		t.Fatalf("expected 1.0 for normalized-equal titles, got %v", got)
	}
	if got := Score("Amelie", "Amélie"); got != 1.0 {
		t.Fatalf("expected 1.0 for accent-only difference, got %v", got)
	}
}

func TestScoreSymmetry(t *testing.T) {
	pairs := [][2]string{
		{"Interestelar", "Interestelar 4K"},
		{"O Poderoso Chefão", "Chefão"},
		{"Matrix", "Barbie"},
		{"Davi: Nasce Um Rei", "Davi"},
	}
	for _, pair := range pairs {
		ab := Score(pair[0], pair[1])
		ba := Score(pair[1], pair[0])
		if math.Abs(ab-ba) > 1e-12 {
			t.Fatalf("Score not symmetric for %q/%q: %v vs %v", pair[0], pair[1], ab, ba)
		}
	}
}

func TestScoreContainmentScalesWithLength(t *testing.T) {
	// "interestelar" (12 runes) inside "interestelar 4k" (15 runes).
	got := Score("Interestelar", "Interestelar 4K")
	want := 0.9 * 12.0 / 15.0
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("containment score = %v, want %v", got, want)
	}

	// A short generic word inside a long title must not look confident.
	short := Score("Up", "Upside Down: The Complete Story")
	if short >= 0.4 {
		t.Fatalf("short containment scored too high: %v", short)
	}
}

func TestScoreRangeAndFallback(t *testing.T) {
	pairs := [][2]string{
		{"Matrix", "Metrix"},
		{"Barbie", "Oppenheimer"},
		{"A Viagem de Chihiro", "A Viagem"},
		{"", "Matrix"},
		{"", ""},
	}
	for _, pair := range pairs {
		got := Score(pair[0], pair[1])
		if got < 0 || got > 1 {
			t.Fatalf("Score(%q, %q) = %v out of range", pair[0], pair[1], got)
		}
	}
	if got := Score("Matrix", "Metrix"); got <= 0.5 {
		t.Fatalf("single-substitution fallback too low: %v", got)
	}
	if got := Score("", "Matrix"); got != 0 {
		t.Fatalf("empty versus non-empty should score 0, got %v", got)
	}
}

func TestScoreWithContainmentFlag(t *testing.T) {
	if _, contained := ScoreWithContainment("Chefão", "O Poderoso Chefão"); !contained {
		t.Fatal("expected containment for substring title")
	}
	if _, contained := ScoreWithContainment("Barbie", "Oppenheimer"); contained {
		t.Fatal("unexpected containment for unrelated titles")
	}
}
