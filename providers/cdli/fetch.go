package cdli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"tablet-hand/config"
	"tablet-hand/models"
	"tablet-hand/providers"
)

var httpClient = &http.Client{Timeout: 60 * time.Second}

// Fetcher implementiert das Provider-Interface für den CDLI-Katalog.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewFetcher erstellt einen neuen CDLI-Fetcher.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Logger: logger}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return "cdli"
}

// Fetch lädt den Publikationskatalog seitenweise von der CDLI-API.
func (f *Fetcher) Fetch(ctx context.Context) ([]*providers.Record, error) {
	log := f.Logger.With(zap.String("provider", f.Name()))
	log.Info("Starte Abruf des CDLI-Publikationskatalogs.")

	var records []*providers.Record
	for page := 1; page <= f.Config.CDLIMaxPages; page++ {
		pageURL := fmt.Sprintf("%s/publications?format=json&page=%d", f.Config.CDLIBaseURL, page)
		log.Debug("Rufe CDLI-API auf", zap.String("url", pageURL))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("cdli: unexpected status %s for page %d", resp.Status, page)
		}

		var searchResponse SearchResponse
		err = json.NewDecoder(resp.Body).Decode(&searchResponse)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		for i := range searchResponse.Results {
			records = append(records, mapEntryToRecords(&searchResponse.Results[i])...)
		}

		if searchResponse.Pages > 0 && page >= searchResponse.Pages {
			break
		}
		if len(searchResponse.Results) == 0 {
			break
		}
	}

	log.Info("CDLI-Abruf abgeschlossen", zap.Int("records", len(records)))
	return records, nil
}

// mapEntryToRecords konvertiert einen Katalogeintrag in unsere Records. Ein
// Eintrag mit mehreren Artefakt-Verknüpfungen ergibt mehrere Records mit
// identischen bibliographischen Feldern.
func mapEntryToRecords(entry *PublicationEntry) []*providers.Record {
	base := providers.Record{
		DOI:        strings.TrimSpace(entry.DOI),
		BibtexKey:  strings.TrimSpace(entry.BibtexKey),
		Title:      strings.TrimSpace(entry.Title),
		ShortTitle: strings.TrimSpace(entry.Series),
		Volume:     strings.TrimSpace(entry.Volume),
	}
	if base.ShortTitle == "" {
		base.ShortTitle = strings.TrimSpace(entry.Designation)
	}
	if y, err := strconv.Atoi(strings.TrimSpace(entry.Year)); err == nil && y > 0 {
		base.Year = &y
	}
	for _, a := range entry.Authors {
		if name := strings.TrimSpace(a.Author); name != "" {
			base.Authors = append(base.Authors, name)
		}
	}

	if len(entry.ArtifactLinks) == 0 {
		return []*providers.Record{&base}
	}

	records := make([]*providers.Record, 0, len(entry.ArtifactLinks))
	for _, link := range entry.ArtifactLinks {
		rec := base
		rec.ArtifactNumber = fmt.Sprintf("P%06d", link.ArtifactID)
		rec.EditionType, rec.EditionConfidence = mapPublicationType(link.PublicationType)
		records = append(records, &rec)
	}
	return records
}

// mapPublicationType übersetzt den CDLI-Publikationstyp in unseren
// Editionstyp samt Konfidenz der Zuordnung.
func mapPublicationType(pubType string) (string, float64) {
	switch strings.ToLower(strings.TrimSpace(pubType)) {
	case "primary", "edition":
		return models.EditionTypeFullEdition, 0.9
	case "photo", "photograph":
		return models.EditionTypePhotograph, 0.8
	case "translation":
		return models.EditionTypeTranslation, 0.8
	default:
		return models.EditionTypeCommentary, 0.5
	}
}
