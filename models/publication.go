package models

import (
	"time"
)

// Publication repräsentiert eine bibliographische Arbeit (Buch, Artikel,
// Edition), die Keilschrift-Artefakte behandelt oder zitiert.
type Publication struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title string `json:"title" gorm:"type:text"`
	// TitleNorm ist der abgeleitete Vergleichsschlüssel (services.NormalizeTitle).
	TitleNorm string `json:"title_norm" gorm:"index"`
	Year      *int   `json:"year,omitempty" gorm:"index"`

	// Global eindeutig, sofern vorhanden. Pointer, damit fehlende Werte als
	// NULL gespeichert werden und den Unique-Index nicht kollidieren lassen.
	DOI       *string `json:"doi,omitempty" gorm:"uniqueIndex;size:512"`
	BibtexKey *string `json:"bibtex_key,omitempty" gorm:"uniqueIndex;size:255"`

	// Zusammengesetzter Natural Key, z.B. Kurztitel einer Serie plus Band.
	ShortTitle string `json:"short_title,omitempty" gorm:"index:idx_publications_short_title_vol"`
	Volume     string `json:"volume,omitempty" gorm:"index:idx_publications_short_title_vol;size:64"`

	// Supersession auf Publikationsebene: diese Publikation ersetzt die
	// referenzierte für den angegebenen Geltungsbereich.
	SupersedesID    *uint  `json:"supersedes_id,omitempty"`
	SupersededScope string `json:"superseded_scope,omitempty" gorm:"type:text"`

	// Provenienz: welcher Importlauf diesen Datensatz erzeugt hat.
	SourceRun string `json:"source_run,omitempty" gorm:"index"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Publication) TableName() string {
	return "publications"
}
