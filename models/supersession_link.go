package models

import (
	"time"
)

// SupersessionLink modelliert eine gerichtete Kante auf Publikationsebene:
// die Publikation SupersedesID ersetzt SupersededID im angegebenen
// Geltungsbereich (z.B. eine revidierte kritische Edition für ein Teilkorpus).
type SupersessionLink struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	SupersedesID uint `json:"supersedes_id" gorm:"index:idx_supersession_links_edge,unique;not null"`
	SupersededID uint `json:"superseded_id" gorm:"index:idx_supersession_links_edge,unique;not null"`

	Scope string `json:"scope,omitempty" gorm:"type:text"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (SupersessionLink) TableName() string {
	return "supersession_links"
}
