package services

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tablet-hand/config"
	"tablet-hand/models"
)

// DuplicateCurrentEdition benennt ein Artefakt mit mehr als einer als
// "current" markierten Edition.
type DuplicateCurrentEdition struct {
	ArtifactNumber string `json:"artifact_number"`
	Count          int64  `json:"count"`
}

// CycleViolation benennt den Startpunkt einer supersedes-Kette, die innerhalb
// der Hop-Schranke nicht terminiert.
type CycleViolation struct {
	StartID uint `json:"start_id"`
	Hops    int  `json:"hops"`
}

// VerifyReport sammelt alle Invarianten-Verletzungen eines Prüflaufs.
// Die Prüfung meldet nur; korrigiert wird nie automatisch.
type VerifyReport struct {
	DuplicateCurrentEditions []DuplicateCurrentEdition `json:"duplicate_current_editions,omitempty"`
	EditionCycles            []CycleViolation          `json:"edition_cycles,omitempty"`
	PublicationCycles        []CycleViolation          `json:"publication_cycles,omitempty"`
	OrphanedEditions         []uint                    `json:"orphaned_editions,omitempty"`
	OrphanedSupersedes       []uint                    `json:"orphaned_supersedes,omitempty"`
}

// Violations zählt alle gefundenen Verletzungen.
func (r VerifyReport) Violations() int {
	return len(r.DuplicateCurrentEditions) +
		len(r.EditionCycles) +
		len(r.PublicationCycles) +
		len(r.OrphanedEditions) +
		len(r.OrphanedSupersedes)
}

// OK meldet, ob der Datenbestand das Release-Gate passiert.
func (r VerifyReport) OK() bool {
	return r.Violations() == 0
}

// VerifyService prüft die Dateninvarianten nachgelagert: Eindeutigkeit der
// aktuellen Edition pro Artefakt, Terminierung der supersedes-Ketten und
// verwaiste Fremdschlüssel.
type VerifyService struct {
	Config *config.Config
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewVerifyService erstellt eine neue Instanz des VerifyService.
func NewVerifyService(cfg *config.Config, db *gorm.DB, logger *zap.Logger) *VerifyService {
	return &VerifyService{Config: cfg, DB: db, Logger: logger}
}

// Run führt alle Invariantenprüfungen aus und liefert den Report. Fehler sind
// ausschließlich Storage-Fehler; Verletzungen stehen im Report.
func (v *VerifyService) Run(ctx context.Context) (VerifyReport, error) {
	report := VerifyReport{}

	// Höchstens eine aktuelle Edition pro Artefakt
	if err := v.DB.WithContext(ctx).
		Model(&models.ArtifactEdition{}).
		Select("artifact_number, count(*) as count").
		Where("is_current_edition = ?", true).
		Group("artifact_number").
		Having("count(*) > 1").
		Scan(&report.DuplicateCurrentEditions).Error; err != nil {
		return report, err
	}

	// supersedes-Ketten der Editionen
	editionNext, err := v.loadEditionChains(ctx)
	if err != nil {
		return report, err
	}
	report.EditionCycles = walkChains(editionNext, v.Config.MaxSupersessionHops)

	// supersedes-Ketten der Publikationen
	pubNext, err := v.loadPublicationChains(ctx)
	if err != nil {
		return report, err
	}
	report.PublicationCycles = walkChains(pubNext, v.Config.MaxSupersessionHops)

	// Verwaiste Fremdschlüssel
	if err := v.DB.WithContext(ctx).
		Model(&models.ArtifactEdition{}).
		Joins("LEFT JOIN publications ON publications.id = artifact_editions.publication_id").
		Where("publications.id IS NULL").
		Pluck("artifact_editions.id", &report.OrphanedEditions).Error; err != nil {
		return report, err
	}
	if err := v.DB.WithContext(ctx).
		Model(&models.ArtifactEdition{}).
		Joins("LEFT JOIN artifact_editions AS target ON target.id = artifact_editions.supersedes_id").
		Where("artifact_editions.supersedes_id IS NOT NULL AND target.id IS NULL").
		Pluck("artifact_editions.id", &report.OrphanedSupersedes).Error; err != nil {
		return report, err
	}

	if report.OK() {
		v.Logger.Info("Invariantenprüfung bestanden")
	} else {
		v.Logger.Warn("Invariantenprüfung fehlgeschlagen",
			zap.Int("violations", report.Violations()),
			zap.Int("duplicate_current_editions", len(report.DuplicateCurrentEditions)),
			zap.Int("edition_cycles", len(report.EditionCycles)),
			zap.Int("publication_cycles", len(report.PublicationCycles)),
			zap.Int("orphaned_editions", len(report.OrphanedEditions)),
			zap.Int("orphaned_supersedes", len(report.OrphanedSupersedes)))
	}
	return report, nil
}

func (v *VerifyService) loadEditionChains(ctx context.Context) (map[uint]*uint, error) {
	var rows []models.ArtifactEdition
	if err := v.DB.WithContext(ctx).
		Select("id", "supersedes_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	next := make(map[uint]*uint, len(rows))
	for _, r := range rows {
		next[r.ID] = r.SupersedesID
	}
	return next, nil
}

func (v *VerifyService) loadPublicationChains(ctx context.Context) (map[uint]*uint, error) {
	var rows []models.Publication
	if err := v.DB.WithContext(ctx).
		Select("id", "supersedes_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	next := make(map[uint]*uint, len(rows))
	for _, r := range rows {
		next[r.ID] = r.SupersedesID
	}
	return next, nil
}

// walkChains verfolgt von jedem Knoten aus die supersedes-Kette. Gemeldet
// wird, wer einen Knoten erneut besucht oder die Hop-Schranke überschreitet.
// Echte bibliographische Ketten sind nie so tief; eine Kette jenseits der
// Schranke gilt deshalb auch ohne nachgewiesenen Zyklus als verdächtig.
func walkChains(next map[uint]*uint, maxHops int) []CycleViolation {
	ids := make([]uint, 0, len(next))
	for id := range next {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var violations []CycleViolation
	for _, id := range ids {
		visited := map[uint]bool{id: true}
		hops := 0
		cur := next[id]
		for cur != nil {
			hops++
			if visited[*cur] || hops > maxHops {
				violations = append(violations, CycleViolation{StartID: id, Hops: hops})
				break
			}
			visited[*cur] = true
			cur = next[*cur]
		}
	}
	return violations
}
