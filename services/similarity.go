package services

// DefaultLengthRatioCutoff ist die Standard-Schranke für den Längenvergleich:
// unterscheiden sich zwei Strings um mehr als diesen Anteil der längeren
// Länge, gilt das Paar ohne DP-Berechnung als unähnlich.
const DefaultLengthRatioCutoff = 0.4

// LevenshteinDistance berechnet die minimale Anzahl von Einfügungen,
// Löschungen und Ersetzungen (je Kosten 1), um a in b zu überführen.
// Zwei-Zeilen-DP, rechnet auf Runen.
func LevenshteinDistance(a, b string) int {
	return levenshtein([]rune(a), []rune(b))
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, minInt(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

// Similarity liefert 1 - dist/maxLen in [0,1] mit der Standard-Längenschranke.
// Symmetrisch; Similarity(x, x) == 1.0; beide leer -> 1.0, genau einer leer -> 0.0.
func Similarity(a, b string) float64 {
	return SimilarityWithCutoff(a, b, DefaultLengthRatioCutoff)
}

// SimilarityWithCutoff entspricht Similarity, aber mit konfigurierbarer
// Längenschranke. cutoff <= 0 deaktiviert die Abkürzung.
func SimilarityWithCutoff(a, b string, cutoff float64) float64 {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)

	if la == 0 && lb == 0 {
		return 1.0
	}
	if la == 0 || lb == 0 {
		return 0.0
	}

	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	diff := la - lb
	if diff < 0 {
		diff = -diff
	}
	// Längenschranke: bewusster Präzision/Tempo-Kompromiss, kein exaktes Maß.
	if cutoff > 0 && float64(diff) > cutoff*float64(maxLen) {
		return 0.0
	}

	dist := levenshtein(ra, rb)
	return 1.0 - float64(dist)/float64(maxLen)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
