package models

import (
	"time"
)

// Scholar ist ein Autor bzw. eine Autorin aus den importierten Bibliographien.
// NameKey (services.NormalizeNameKey) dient der Duplikaterkennung über
// unterschiedliche Schreibweisen hinweg.
type Scholar struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name    string `json:"name" gorm:"not null"`
	NameKey string `json:"name_key" gorm:"uniqueIndex;not null;size:255"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Scholar) TableName() string {
	return "scholars"
}
