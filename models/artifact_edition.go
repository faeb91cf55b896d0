package models

import (
	"time"
)

// Editionstypen einer ArtifactEdition.
const (
	EditionTypeFullEdition = "full_edition"
	EditionTypeCommentary  = "commentary"
	EditionTypePhotograph  = "photograph"
	EditionTypeTranslation = "translation"
)

// ArtifactEdition verknüpft ein physisches Artefakt (externe Katalognummer,
// z.B. "P123456") mit einer Publikation, die es ediert oder behandelt.
type ArtifactEdition struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ArtifactNumber string `json:"artifact_number" gorm:"index;index:idx_artifact_editions_claim,unique;not null;size:64"`
	PublicationID  uint   `json:"publication_id" gorm:"index;index:idx_artifact_editions_claim,unique;not null"`
	EditionType    string `json:"edition_type" gorm:"index;index:idx_artifact_editions_claim,unique;not null;size:32"`

	Publication *Publication `json:"publication,omitempty" gorm:"foreignKey:PublicationID"`

	Confidence float64 `json:"confidence"`

	// Verweist auf die Edition, die von dieser abgelöst wird.
	SupersedesID *uint `json:"supersedes_id,omitempty"`

	// Höchstens eine Edition pro Artefakt darf dieses Flag tragen; gesetzt
	// wird es ausschließlich vom SupersessionService.
	IsCurrentEdition bool `json:"is_current_edition" gorm:"index;default:false"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (ArtifactEdition) TableName() string {
	return "artifact_editions"
}
