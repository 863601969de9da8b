package title

import (
	"reflect"
	"testing"
)

func TestVariantsIncludesOriginalFirst(t *testing.T) {
	for _, input := range []string{"Matrix", "A Lista de Schindler", "Davi: Nasce Um Rei", ""} {
		variants := Variants(input)
		if len(variants) == 0 {
			t.Fatalf("Variants(%q) returned empty list", input)
		}
		if variants[0] != input {
			t.Fatalf("Variants(%q)[0] = %q, want original", input, variants[0])
		}
	}
}

func TestVariantsOrderAndContent(t *testing.T) {
	got := Variants("Davi: Nasce Um Rei")
	want := []string{
		"Davi: Nasce Um Rei",
		"davi nasce um rei",
		"Davi: Nasce",
		"Davi: Nasce Um",
		"Davi",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected variants: %v", got)
	}
}

func TestVariantsNoDuplicates(t *testing.T) {
	inputs := []string{"Up", "O Poderoso Chefão", "Toy Story 3", "A: B: C", "matrix reloaded revolutions"}
	for _, input := range inputs {
		variants := Variants(input)
		seen := make(map[string]struct{}, len(variants))
		for _, v := range variants {
			if _, ok := seen[v]; ok {
				t.Fatalf("Variants(%q) contains duplicate %q", input, v)
			}
			seen[v] = struct{}{}
		}
	}
}

func TestVariantsSkipsNormalizedWhenAlreadyPlain(t *testing.T) {
	got := Variants("plain title")
	want := []string{"plain title"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected variants: %v", got)
	}
}

func TestVariantsTruncationsOnlyForLongTitles(t *testing.T) {
	got := Variants("Two Words")
	for _, v := range got {
		if v == "Two" {
			t.Fatalf("two-word title should not produce leading-word truncation: %v", got)
		}
	}
}
