package providers

import "context"

// Record ist der vereinheitlichte bibliographische Datensatz, den jede Quelle
// liefert. Leere Felder gelten als "nicht vorhanden".
type Record struct {
	DOI        string   `json:"doi,omitempty"`
	BibtexKey  string   `json:"bibtex_key,omitempty"`
	Title      string   `json:"title,omitempty"`
	Year       *int     `json:"year,omitempty"`
	ShortTitle string   `json:"short_title,omitempty"`
	Volume     string   `json:"volume,omitempty"`
	Authors    []string `json:"authors,omitempty"`

	// Optionale Artefakt-Zuordnung: die Quelle behauptet, dass die Publikation
	// das Artefakt mit dieser Katalognummer ediert bzw. behandelt.
	ArtifactNumber    string  `json:"artifact_number,omitempty"`
	EditionType       string  `json:"edition_type,omitempty"`
	EditionConfidence float64 `json:"edition_confidence,omitempty"`
}

// Provider ist das Interface, das jede bibliographische Quelle (z.B. CDLI,
// ORACC) implementieren muss.
type Provider interface {
	// Fetch liefert die bibliographischen Datensätze der Quelle.
	Fetch(ctx context.Context) ([]*Record, error)

	// Name gibt den eindeutigen Namen des Providers zurück (z.B. "cdli").
	Name() string
}
