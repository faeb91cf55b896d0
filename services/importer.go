package services

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tablet-hand/config"
	"tablet-hand/models"
	"tablet-hand/providers"
	"tablet-hand/storage"
)

// ImportStats zählt die Matcher-Entscheidungen eines Provider-Laufs.
type ImportStats struct {
	Records  int `json:"records"`
	Merged   int `json:"merged"`
	Inserted int `json:"inserted"`
	Review   int `json:"review"`
}

// ImportService orchestriert Importläufe: Provider abfragen, jeden Datensatz
// durch den Matcher auflösen und die Banding-Policy anwenden. Ein erneuter
// Lauf über dieselben Quelldaten ist idempotent.
type ImportService struct {
	Config    *config.Config
	DB        *gorm.DB
	Logger    *zap.Logger
	Matcher   *MatchService
	Providers []providers.Provider
	S3Client  *s3.Client // optional, für Rohdaten-Snapshots
}

// NewImportService erstellt eine neue Instanz des ImportService.
func NewImportService(cfg *config.Config, db *gorm.DB, logger *zap.Logger, matcher *MatchService, provs []providers.Provider, s3Client *s3.Client) *ImportService {
	return &ImportService{
		Config:    cfg,
		DB:        db,
		Logger:    logger,
		Matcher:   matcher,
		Providers: provs,
		S3Client:  s3Client,
	}
}

// RunAll führt einen Importlauf über alle konfigurierten Provider aus.
// Provider-Fehler werden geloggt und der nächste Provider bearbeitet.
func (s *ImportService) RunAll(ctx context.Context) (ImportStats, error) {
	total := ImportStats{}

	for _, provider := range s.Providers {
		log := s.Logger.With(zap.String("provider", provider.Name()))

		records, err := provider.Fetch(ctx)
		if err != nil {
			log.Error("Provider-Abruf fehlgeschlagen", zap.Error(err))
			continue
		}

		runName := fmt.Sprintf("%s-%s", provider.Name(), time.Now().UTC().Format("2006-01-02T15-04-05Z"))
		snapshotLink := s.uploadSnapshot(ctx, runName, records)

		stats, err := s.ProcessRecords(ctx, runName, records)
		if err != nil {
			log.Error("Importlauf abgebrochen", zap.Error(err))
			return total, err
		}

		details, _ := json.Marshal(map[string]string{"snapshot": snapshotLink})
		run := models.ImportRun{
			Provider: provider.Name(),
			RunName:  runName,
			Records:  stats.Records,
			Merged:   stats.Merged,
			Inserted: stats.Inserted,
			Review:   stats.Review,
			Details:  datatypes.JSON(details),
		}
		if err := s.DB.WithContext(ctx).Create(&run).Error; err != nil {
			return total, err
		}

		log.Info("Importlauf abgeschlossen",
			zap.Int("records", stats.Records),
			zap.Int("merged", stats.Merged),
			zap.Int("inserted", stats.Inserted),
			zap.Int("review", stats.Review))

		total.Records += stats.Records
		total.Merged += stats.Merged
		total.Inserted += stats.Inserted
		total.Review += stats.Review
	}

	return total, nil
}

// ProcessRecords löst jeden Datensatz vollständig auf, bevor der nächste
// bearbeitet wird. Banding-Policy: Konfidenz >= AutoMergeThreshold wird in
// die bestehende Publikation gemerged; [ReviewThreshold, AutoMergeThreshold)
// legt eine neue Zeile an und vermerkt das Paar zur Review; darunter gilt der
// Datensatz als eigenständig.
func (s *ImportService) ProcessRecords(ctx context.Context, runName string, records []*providers.Record) (ImportStats, error) {
	stats := ImportStats{}

	for _, rec := range records {
		stats.Records++

		cand := Candidate{
			DOI:        rec.DOI,
			BibtexKey:  rec.BibtexKey,
			Title:      rec.Title,
			Year:       rec.Year,
			ShortTitle: rec.ShortTitle,
			Volume:     rec.Volume,
		}

		result, err := s.Matcher.FindMatch(ctx, cand)
		if err != nil {
			return stats, err
		}

		var pubID uint
		switch {
		case result.PublicationID != nil && result.Confidence >= s.Config.AutoMergeThreshold:
			pubID = *result.PublicationID
			if err := s.mergePublication(ctx, pubID, cand); err != nil {
				return stats, err
			}
			stats.Merged++

		case result.PublicationID != nil && result.Confidence >= s.Config.ReviewThreshold:
			pubID, err = s.insertPublication(ctx, cand, runName)
			if err != nil {
				return stats, err
			}
			if err := s.Matcher.RecordDedupCandidate(ctx, pubID, *result.PublicationID, result.Method, result.Confidence); err != nil {
				return stats, err
			}
			stats.Review++

		default:
			pubID, err = s.insertPublication(ctx, cand, runName)
			if err != nil {
				return stats, err
			}
			stats.Inserted++
		}

		if rec.ArtifactNumber != "" && rec.EditionType != "" {
			if err := s.upsertEdition(ctx, pubID, rec); err != nil {
				return stats, err
			}
		}

		if err := s.recordScholars(ctx, rec.Authors); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

// mergePublication ergänzt fehlende Identifikationsfelder der bestehenden
// Publikation aus dem Kandidaten. Vorhandene Werte werden nie überschrieben.
func (s *ImportService) mergePublication(ctx context.Context, pubID uint, cand Candidate) error {
	var pub models.Publication
	if err := s.DB.WithContext(ctx).First(&pub, pubID).Error; err != nil {
		return err
	}

	updates := map[string]interface{}{}
	if pub.DOI == nil && cand.DOI != "" {
		updates["doi"] = cand.DOI
	}
	if pub.BibtexKey == nil && cand.BibtexKey != "" {
		updates["bibtex_key"] = cand.BibtexKey
	}
	if pub.Year == nil && cand.Year != nil {
		updates["year"] = *cand.Year
	}
	if pub.ShortTitle == "" && cand.ShortTitle != "" {
		updates["short_title"] = cand.ShortTitle
		if cand.Volume != "" {
			updates["volume"] = cand.Volume
		}
	}
	if pub.Title == "" && cand.Title != "" {
		updates["title"] = cand.Title
		updates["title_norm"] = NormalizeTitle(cand.Title)
	}

	if len(updates) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Model(&pub).Updates(updates).Error
}

func (s *ImportService) insertPublication(ctx context.Context, cand Candidate, runName string) (uint, error) {
	pub := models.Publication{
		Title:      cand.Title,
		TitleNorm:  NormalizeTitle(cand.Title),
		Year:       cand.Year,
		ShortTitle: cand.ShortTitle,
		Volume:     cand.Volume,
		SourceRun:  runName,
	}
	if cand.DOI != "" {
		doi := cand.DOI
		pub.DOI = &doi
	}
	if cand.BibtexKey != "" {
		key := cand.BibtexKey
		pub.BibtexKey = &key
	}
	if err := s.DB.WithContext(ctx).Create(&pub).Error; err != nil {
		return 0, err
	}
	return pub.ID, nil
}

// upsertEdition legt die Editions-Behauptung an; das Tripel
// (Artefakt, Publikation, Typ) existiert höchstens einmal.
func (s *ImportService) upsertEdition(ctx context.Context, pubID uint, rec *providers.Record) error {
	edition := models.ArtifactEdition{
		ArtifactNumber: rec.ArtifactNumber,
		PublicationID:  pubID,
		EditionType:    rec.EditionType,
		Confidence:     rec.EditionConfidence,
	}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "artifact_number"}, {Name: "publication_id"}, {Name: "edition_type"}},
		DoNothing: true,
	}).Create(&edition).Error
}

// recordScholars dedupliziert Autorennamen über den normalisierten
// Namensschlüssel.
func (s *ImportService) recordScholars(ctx context.Context, authors []string) error {
	for _, name := range authors {
		key := NormalizeNameKey(name)
		if key == "" {
			continue
		}
		scholar := models.Scholar{Name: name, NameKey: key}
		if err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name_key"}},
			DoNothing: true,
		}).Create(&scholar).Error; err != nil {
			return err
		}
	}
	return nil
}

// uploadSnapshot archiviert die Rohdaten eines Laufs als gzip-JSON in S3.
// Ohne konfigurierten S3-Client ist das ein No-Op.
func (s *ImportService) uploadSnapshot(ctx context.Context, runName string, records []*providers.Record) string {
	if s.S3Client == nil || !s.Config.SnapshotsEnabled() {
		return ""
	}

	payload, err := json.Marshal(records)
	if err != nil {
		s.Logger.Warn("Snapshot-Serialisierung fehlgeschlagen", zap.Error(err))
		return ""
	}
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(payload); err != nil {
		s.Logger.Warn("Snapshot-Kompression fehlgeschlagen", zap.Error(err))
		return ""
	}
	if err := gz.Close(); err != nil {
		s.Logger.Warn("Snapshot-Kompression fehlgeschlagen", zap.Error(err))
		return ""
	}

	key := fmt.Sprintf("snapshots/%s.json.gz", runName)
	link, err := storage.UploadFile(ctx, s.S3Client, s.Config.SnapshotS3Bucket, key, buf.Bytes(), s.Config)
	if err != nil {
		s.Logger.Warn("Snapshot-Upload fehlgeschlagen", zap.Error(err))
		return ""
	}
	s.Logger.Info("Rohdaten-Snapshot hochgeladen", zap.String("s3_link", link))
	return link
}
