package models

import (
	"time"

	"gorm.io/datatypes"
)

// ImportRun protokolliert die Provenienz eines Importlaufs: welcher Provider,
// wie viele Datensätze, wie die Matcher-Entscheidungen ausgefallen sind.
type ImportRun struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	Provider string `json:"provider" gorm:"index;not null;size:64"`
	RunName  string `json:"run_name" gorm:"index;size:128"`

	Records  int `json:"records"`
	Merged   int `json:"merged"`
	Inserted int `json:"inserted"`
	Review   int `json:"review"`

	// Freie Zusatzinformationen (z.B. Snapshot-Link, Fehlermeldungen)
	Details datatypes.JSON `json:"details,omitempty" gorm:"type:jsonb"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (ImportRun) TableName() string {
	return "import_runs"
}
