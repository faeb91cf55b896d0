package services

import (
	"testing"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"lowercase and trim", "  A Study of Signs  ", "study of signs"},
		{"diacritics stripped", "The Ḫimmu Letters", "himmu letters"},
		{"german article", "Die Inschriften von Tell Halaf", "inschriften von tell halaf"},
		{"french article", "Les Textes de Mari", "textes de mari"},
		{"article not stripped inside word", "Theater der Zeit", "theater zeit"},
		{"punctuation", "A Study of Signs: Vol. II", "study of signs vol ii"},
		{"whitespace collapsed", "Keilschrift \t und   Kultur", "keilschrift und kultur"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTitle(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeTitleIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"The Ḫimmu Letters",
		"Die Inschriften von Tell Halaf",
		"L'écriture cunéiforme",
		"A Study of Signs: Vol. II",
		"šumma ālu ina mēlê šakin",
	}
	for _, input := range inputs {
		once := NormalizeTitle(input)
		twice := NormalizeTitle(once)
		if once != twice {
			t.Errorf("NormalizeTitle not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestNormalizeTitleCaseAndDiacriticInsensitive(t *testing.T) {
	a := NormalizeTitle("The Ḫimmu Letters")
	b := NormalizeTitle("himmu letters")
	if a != b {
		t.Errorf("expected identical keys, got %q and %q", a, b)
	}
}

func TestNormalizeNameKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"comma form", "Borger, Rykle", "borger_r"},
		{"initial form", "R. Borger", "borger_r"},
		{"diacritics", "Édouard Dhorme", "dhorme_e"},
		{"surname only", "Falkenstein", "falkenstein"},
		{"multiple given names", "Soden, Wolfram von", "soden_wv"},
		{"dotted initials without spaces", "A.T. Clay", "clay_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeNameKey(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeNameKey(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeNameKeyVariantsCollide(t *testing.T) {
	// Unterschiedliche Schreibweisen desselben Autors ergeben denselben Schlüssel.
	if NormalizeNameKey("Borger, Rykle") != NormalizeNameKey("R. Borger") {
		t.Error("expected 'Borger, Rykle' and 'R. Borger' to share a name key")
	}
}
