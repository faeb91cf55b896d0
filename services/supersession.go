package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tablet-hand/config"
	"tablet-hand/models"
)

// SupersessionTriple ist eine kuratierte Vorgabe: die Publikation mit
// CurrentShortTitle ersetzt die mit SupersededShortTitle im angegebenen
// Geltungsbereich. Die Tripel kommen aus externer Kuration, nicht aus Inferenz.
type SupersessionTriple struct {
	CurrentShortTitle    string `json:"current_short_title"`
	SupersededShortTitle string `json:"superseded_short_title"`
	Scope                string `json:"scope,omitempty"`
}

// SeedReport fasst das Ergebnis eines Seeding-Laufs zusammen. Skipped nennt
// pro übersprungenem Tripel, welche Referenz gefehlt hat.
type SeedReport struct {
	Seeded  int      `json:"seeded"`
	Skipped []string `json:"skipped,omitempty"`
}

// SupersessionService pflegt Supersession-Ketten auf Publikationsebene und
// berechnet pro Artefakt die maßgebliche ("current") Edition.
type SupersessionService struct {
	Config *config.Config
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewSupersessionService erstellt eine neue Instanz des SupersessionService.
func NewSupersessionService(cfg *config.Config, db *gorm.DB, logger *zap.Logger) *SupersessionService {
	return &SupersessionService{Config: cfg, DB: db, Logger: logger}
}

// SeedSupersessions wendet kuratierte Tripel an: beide Publikationen per
// Kurztitel nachschlagen, SupersedesID/SupersededScope setzen und die Kante
// als SupersessionLink festhalten (Upsert, Konflikt ignorieren). Fehlende
// Referenzen werden gemeldet und übersprungen, der Batch läuft weiter; echte
// Storage-Fehler brechen ab.
func (s *SupersessionService) SeedSupersessions(ctx context.Context, triples []SupersessionTriple) (SeedReport, error) {
	report := SeedReport{}

	for _, t := range triples {
		current, err := s.findByShortTitle(ctx, t.CurrentShortTitle)
		if err != nil {
			return report, err
		}
		superseded, err := s.findByShortTitle(ctx, t.SupersededShortTitle)
		if err != nil {
			return report, err
		}

		if current == nil {
			msg := fmt.Sprintf("current publication %q not found", t.CurrentShortTitle)
			s.Logger.Warn("Supersession-Tripel übersprungen", zap.String("reason", msg))
			report.Skipped = append(report.Skipped, msg)
			continue
		}
		if superseded == nil {
			msg := fmt.Sprintf("superseded publication %q not found", t.SupersededShortTitle)
			s.Logger.Warn("Supersession-Tripel übersprungen", zap.String("reason", msg))
			report.Skipped = append(report.Skipped, msg)
			continue
		}

		updates := map[string]interface{}{
			"supersedes_id":    superseded.ID,
			"superseded_scope": t.Scope,
		}
		if err := s.DB.WithContext(ctx).
			Model(&models.Publication{}).
			Where("id = ?", current.ID).
			Updates(updates).Error; err != nil {
			return report, err
		}

		link := models.SupersessionLink{
			SupersedesID: current.ID,
			SupersededID: superseded.ID,
			Scope:        t.Scope,
		}
		if err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "supersedes_id"}, {Name: "superseded_id"}},
			DoNothing: true,
		}).Create(&link).Error; err != nil {
			return report, err
		}

		report.Seeded++
	}

	s.Logger.Info("Supersession-Seeding abgeschlossen",
		zap.Int("seeded", report.Seeded),
		zap.Int("skipped", len(report.Skipped)))
	return report, nil
}

// findByShortTitle liefert die Publikation mit dem Kurztitel oder (nil, nil),
// wenn keine existiert. Bei mehreren Treffern gewinnt die niedrigste ID.
func (s *SupersessionService) findByShortTitle(ctx context.Context, shortTitle string) (*models.Publication, error) {
	var pub models.Publication
	err := s.DB.WithContext(ctx).
		Where("short_title = ?", shortTitle).
		Order("id asc").
		First(&pub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pub, nil
}

// ResolveCurrentEditions berechnet für jedes Artefakt mit mindestens einer
// Volledition die maßgebliche Edition neu. Pro Artefakt unabhängig und
// idempotent: ein erneuter Lauf liefert identische Flags.
func (s *SupersessionService) ResolveCurrentEditions(ctx context.Context) (int, error) {
	var artifacts []string
	if err := s.DB.WithContext(ctx).
		Model(&models.ArtifactEdition{}).
		Where("edition_type = ?", models.EditionTypeFullEdition).
		Distinct("artifact_number").
		Order("artifact_number").
		Pluck("artifact_number", &artifacts).Error; err != nil {
		return 0, err
	}

	updated := 0
	for _, artifact := range artifacts {
		if err := s.resolveArtifact(ctx, artifact); err != nil {
			s.Logger.Error("Auflösung der aktuellen Edition fehlgeschlagen",
				zap.String("artifact", artifact), zap.Error(err))
			continue
		}
		updated++
	}

	s.Logger.Info("Current-Edition-Auflösung abgeschlossen",
		zap.Int("artifacts_total", len(artifacts)),
		zap.Int("artifacts_updated", updated))
	return updated, nil
}

// resolveArtifact wählt unter den Volleditionen eines Artefakts deterministisch
// den Gewinner: jüngstes Publikationsjahr (NULL sortiert zuletzt), bei
// Gleichstand höchste Konfidenz, danach niedrigste Editions-ID. Das Setzen
// läuft als eine logische Einheit pro Artefakt.
func (s *SupersessionService) resolveArtifact(ctx context.Context, artifact string) error {
	var editions []models.ArtifactEdition
	if err := s.DB.WithContext(ctx).
		Preload("Publication").
		Where("artifact_number = ? AND edition_type = ?", artifact, models.EditionTypeFullEdition).
		Find(&editions).Error; err != nil {
		return err
	}
	if len(editions) == 0 {
		return nil
	}

	sort.SliceStable(editions, func(i, j int) bool {
		yi, yj := editionYear(&editions[i]), editionYear(&editions[j])
		switch {
		case yi == nil && yj != nil:
			return false
		case yi != nil && yj == nil:
			return true
		case yi != nil && yj != nil && *yi != *yj:
			return *yi > *yj
		}
		if editions[i].Confidence != editions[j].Confidence {
			return editions[i].Confidence > editions[j].Confidence
		}
		return editions[i].ID < editions[j].ID
	})
	winner := editions[0]

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Erst alle Flags des Artefakts löschen (über alle Editionstypen),
		// dann genau den Gewinner markieren.
		if err := tx.Model(&models.ArtifactEdition{}).
			Where("artifact_number = ?", artifact).
			Update("is_current_edition", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.ArtifactEdition{}).
			Where("id = ?", winner.ID).
			Update("is_current_edition", true).Error
	})
}

func editionYear(e *models.ArtifactEdition) *int {
	if e.Publication == nil {
		return nil
	}
	return e.Publication.Year
}
