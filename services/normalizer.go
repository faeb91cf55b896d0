package services

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks zerlegt nach NFD und entfernt kombinierende diakritische Zeichen
// (Ḫ -> h, š -> s), danach NFC-Rekomposition.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var (
	// Bestimmte und unbestimmte Artikel (EN/DE/FR) als ganze Wörter.
	articleRE = regexp.MustCompile(`(?i)\b(the|an|a|der|die|das|ein|eine|le|la|les|un|une|des)\b`)
	punctRE   = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	spaceRE   = regexp.MustCompile(`\s+`)
)

// NormalizeTitle erzeugt den kanonischen Vergleichsschlüssel eines Titels:
// Kleinschreibung, Diakritika entfernen, Artikel (EN/DE/FR) streichen,
// Interpunktion durch Leerzeichen ersetzen, Whitespace kollabieren.
// Die Funktion ist idempotent: NormalizeTitle(NormalizeTitle(x)) == NormalizeTitle(x).
func NormalizeTitle(title string) string {
	if title == "" {
		return ""
	}
	s := strings.ToLower(title)
	s, _, _ = transform.String(stripMarks, s)
	s = articleRE.ReplaceAllString(s, " ")
	s = punctRE.ReplaceAllString(s, " ")
	s = spaceRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeNameKey bildet einen Nachname+Initialen-Schlüssel für die
// Duplikaterkennung von Autorennamen: "Borger, Rykle" und "R. Borger" ergeben
// beide "borger_r". Ohne Vornamen bleibt der nackte Nachname.
func NormalizeNameKey(name string) string {
	s := strings.TrimSpace(name)
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	s, _, _ = transform.String(stripMarks, s)

	var surname, given string
	if idx := strings.Index(s, ","); idx >= 0 {
		surname = strings.TrimSpace(s[:idx])
		given = strings.TrimSpace(s[idx+1:])
	} else {
		fields := strings.Fields(s)
		if len(fields) == 0 {
			return ""
		}
		surname = fields[len(fields)-1]
		given = strings.Join(fields[:len(fields)-1], " ")
	}

	var initials strings.Builder
	for _, tok := range strings.FieldsFunc(given, func(r rune) bool {
		return r == ' ' || r == '.'
	}) {
		r := []rune(tok)
		if len(r) > 0 {
			initials.WriteRune(r[0])
		}
	}

	if initials.Len() == 0 {
		return surname
	}
	return surname + "_" + initials.String()
}
