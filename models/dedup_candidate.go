package models

import (
	"time"
)

// Status-Werte eines DedupCandidate.
const (
	DedupStatusPending  = "pending"
	DedupStatusResolved = "resolved"
)

// Resolutions eines abgeschlossenen DedupCandidate.
const (
	DedupResolutionMerged   = "merged"
	DedupResolutionDistinct = "distinct"
)

// DedupCandidate ist die Hypothese, dass zwei Publikationszeilen dieselbe
// Arbeit beschreiben. Das Paar wird ungeordnet gespeichert (PubAID < PubBID),
// damit jede Kombination höchstens einmal vorkommt.
type DedupCandidate struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PubAID uint `json:"pub_a_id" gorm:"index:idx_dedup_candidates_pair,unique;not null"`
	PubBID uint `json:"pub_b_id" gorm:"index:idx_dedup_candidates_pair,unique;not null"`

	// Match-Methode und Konfidenz, die das Paar erzeugt haben.
	Method     string  `json:"method" gorm:"size:32"`
	Confidence float64 `json:"confidence"`

	Status     string `json:"status" gorm:"index;size:16;default:'pending'"`
	Resolution string `json:"resolution,omitempty" gorm:"size:16"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (DedupCandidate) TableName() string {
	return "dedup_candidates"
}
