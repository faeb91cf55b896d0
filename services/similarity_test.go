package services

import (
	"testing"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"gilgamesh", "gilgamesh", 0},
		{"assur", "ashur", 1},
	}

	for _, tt := range tests {
		if got := LevenshteinDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSimilarityIdentities(t *testing.T) {
	if got := Similarity("", ""); got != 1.0 {
		t.Errorf("Similarity of two empty strings = %f, want 1.0", got)
	}
	if got := Similarity("", "abc"); got != 0.0 {
		t.Errorf("Similarity with one empty string = %f, want 0.0", got)
	}
	if got := Similarity("gilgamesh epic", "gilgamesh epic"); got != 1.0 {
		t.Errorf("Similarity(x, x) = %f, want 1.0", got)
	}
	// Symmetrie
	a, b := "gilgamesh epic", "gilgamesh epos"
	if Similarity(a, b) != Similarity(b, a) {
		t.Error("Similarity is not symmetric")
	}
}

func TestSimilarityLengthShortCircuit(t *testing.T) {
	// Längendifferenz 6 > 0.4 * 10: Abkürzung greift, obwohl die echte
	// Distanz nur 6 wäre (Similarity 0.4).
	a, b := "abcdefghij", "abcd"
	if got := Similarity(a, b); got != 0.0 {
		t.Errorf("Similarity(%q, %q) = %f, want short-circuit 0.0", a, b, got)
	}
	// Ohne Schranke rechnet das DP den echten Wert.
	if got := SimilarityWithCutoff(a, b, 0); got != 0.4 {
		t.Errorf("SimilarityWithCutoff(%q, %q, 0) = %f, want 0.4", a, b, got)
	}
}

func TestSimilarityLengthBoundary(t *testing.T) {
	// Differenz exakt 40%% der längeren Länge: Abkürzung greift nicht.
	a, b := "abcdefghij", "abcdef"
	if got := Similarity(a, b); got != 0.6 {
		t.Errorf("Similarity(%q, %q) = %f, want 0.6", a, b, got)
	}
}

func TestSimilarityThresholdValues(t *testing.T) {
	// 3 Ersetzungen auf Länge 20 -> exakt 0.85
	a := "abcdefghijklmnopqrst"
	b := "xxxdefghijklmnopqrst"
	if got := Similarity(a, b); got != 0.85 {
		t.Errorf("Similarity = %f, want exactly 0.85", got)
	}
	// 4 Ersetzungen auf Länge 25 -> exakt 0.84
	c := "abcdefghijklmnopqrstuvwxy"
	d := "xxxxefghijklmnopqrstuvwxy"
	if got := Similarity(c, d); got != 0.84 {
		t.Errorf("Similarity = %f, want exactly 0.84", got)
	}
}
