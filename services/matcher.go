package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tablet-hand/config"
	"tablet-hand/models"
)

// Match-Methoden in Prioritätsreihenfolge der Kaskade.
const (
	MatchMethodDOI           = "doi"
	MatchMethodBibtexKey     = "bibtex_key"
	MatchMethodTitleYear     = "title_year"
	MatchMethodShortTitleVol = "short_title_vol"
	MatchMethodNone          = "none"
)

// Feste Konfidenzen je Methode. title_year liefert bewusst eine fixe 0.8
// statt des rohen Ähnlichkeitswerts, da die Methode unsicher bleibt.
const (
	confidenceDOI           = 1.0
	confidenceBibtexKey     = 0.95
	confidenceTitleYear     = 0.8
	confidenceShortTitleVol = 0.9
)

// Candidate ist ein Bewerber-Datensatz aus einem Import. Alle Felder sind
// optional; leere Strings bzw. nil gelten als "nicht vorhanden".
type Candidate struct {
	DOI        string `json:"doi,omitempty"`
	BibtexKey  string `json:"bibtex_key,omitempty"`
	Title      string `json:"title,omitempty"`
	Year       *int   `json:"year,omitempty"`
	ShortTitle string `json:"short_title,omitempty"`
	Volume     string `json:"volume,omitempty"`
}

// HasIdentifyingField meldet, ob der Kandidat mindestens ein für das Matching
// nutzbares Identifikationsmerkmal trägt.
func (c Candidate) HasIdentifyingField() bool {
	return c.DOI != "" ||
		c.BibtexKey != "" ||
		(c.Title != "" && c.Year != nil) ||
		(c.ShortTitle != "" && c.Volume != "")
}

// MatchResult ist das Ergebnis einer Matcher-Auswertung. PublicationID ist
// nil, wenn keine Methode getroffen hat (Method == "none").
type MatchResult struct {
	PublicationID *uint   `json:"publication_id"`
	Method        string  `json:"method"`
	Confidence    float64 `json:"confidence"`
	MatchedKey    string  `json:"matched_key,omitempty"`
}

// MatchService löst Bewerber-Datensätze gegen den Publikationsbestand auf.
// Der Service mutiert den Bestand nicht; Merge/Insert entscheidet der Aufrufer.
type MatchService struct {
	Config *config.Config
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewMatchService erstellt eine neue Instanz des MatchService.
func NewMatchService(cfg *config.Config, db *gorm.DB, logger *zap.Logger) *MatchService {
	return &MatchService{Config: cfg, DB: db, Logger: logger}
}

// FindMatch wertet die Match-Kaskade in fester Reihenfolge aus und liefert
// beim ersten Treffer: DOI exakt, bibtex_key exakt, Titel+Jahr fuzzy,
// Kurztitel+Band exakt. Ein Kandidat ohne Identifikationsmerkmal ergibt ein
// wohlgeformtes "none"-Ergebnis, keinen Fehler. Storage-Fehler werden
// unverändert propagiert.
func (m *MatchService) FindMatch(ctx context.Context, cand Candidate) (MatchResult, error) {
	none := MatchResult{Method: MatchMethodNone, Confidence: 0.0}

	if !cand.HasIdentifyingField() {
		m.Logger.Warn("Kandidat ohne Identifikationsmerkmal, kein Matching möglich")
		return none, nil
	}

	// 1. DOI exakt
	if cand.DOI != "" {
		var pub models.Publication
		err := m.DB.WithContext(ctx).Where("doi = ?", cand.DOI).First(&pub).Error
		if err == nil {
			return MatchResult{PublicationID: &pub.ID, Method: MatchMethodDOI, Confidence: confidenceDOI, MatchedKey: cand.DOI}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return none, err
		}
	}

	// 2. bibtex_key exakt
	if cand.BibtexKey != "" {
		var pub models.Publication
		err := m.DB.WithContext(ctx).Where("bibtex_key = ?", cand.BibtexKey).First(&pub).Error
		if err == nil {
			return MatchResult{PublicationID: &pub.ID, Method: MatchMethodBibtexKey, Confidence: confidenceBibtexKey, MatchedKey: cand.BibtexKey}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return none, err
		}
	}

	// 3. Titel+Jahr fuzzy über normalisierte Titel
	if cand.Title != "" && cand.Year != nil {
		titleNorm := NormalizeTitle(cand.Title)

		var pubs []models.Publication
		if err := m.DB.WithContext(ctx).
			Where("year = ?", *cand.Year).
			Order("id asc").
			Find(&pubs).Error; err != nil {
			return none, err
		}

		var best *models.Publication
		var bestScore float64
		for i := range pubs {
			existingNorm := pubs[i].TitleNorm
			if existingNorm == "" {
				existingNorm = NormalizeTitle(pubs[i].Title)
			}
			score := SimilarityWithCutoff(titleNorm, existingNorm, m.Config.LengthRatioCutoff)
			// Gleichstand: niedrigste ID gewinnt; die Iteration läuft id asc,
			// daher strikt-größer vergleichen.
			if score > bestScore {
				bestScore = score
				best = &pubs[i]
			}
		}

		if best != nil && bestScore >= m.Config.FuzzyMatchThreshold {
			m.Logger.Debug("Fuzzy-Titelmatch über Schwellwert",
				zap.Uint("publication_id", best.ID),
				zap.Float64("similarity", bestScore))
			return MatchResult{PublicationID: &best.ID, Method: MatchMethodTitleYear, Confidence: confidenceTitleYear, MatchedKey: titleNorm}, nil
		}
	}

	// 4. Kurztitel+Band exakt
	if cand.ShortTitle != "" && cand.Volume != "" {
		var pub models.Publication
		err := m.DB.WithContext(ctx).
			Where("short_title = ? AND volume = ?", cand.ShortTitle, cand.Volume).
			Order("id asc").
			First(&pub).Error
		if err == nil {
			return MatchResult{PublicationID: &pub.ID, Method: MatchMethodShortTitleVol, Confidence: confidenceShortTitleVol, MatchedKey: cand.ShortTitle + " " + cand.Volume}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return none, err
		}
	}

	return none, nil
}

// RecordDedupCandidate vermerkt ein ungeordnetes Publikationspaar zur
// manuellen Review. Idempotent: ein bereits vorhandenes Paar ist ein No-Op.
func (m *MatchService) RecordDedupCandidate(ctx context.Context, aID, bID uint, method string, confidence float64) error {
	if aID == bID {
		return nil
	}
	if aID > bID {
		aID, bID = bID, aID
	}

	cand := models.DedupCandidate{
		PubAID:     aID,
		PubBID:     bID,
		Method:     method,
		Confidence: confidence,
		Status:     models.DedupStatusPending,
	}
	return m.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pub_a_id"}, {Name: "pub_b_id"}},
		DoNothing: true,
	}).Create(&cand).Error
}
