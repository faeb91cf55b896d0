package oracc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"tablet-hand/config"
	"tablet-hand/providers"
)

var httpClient = &http.Client{Timeout: 60 * time.Second}

// Fetcher implementiert das Provider-Interface für den ORACC-Projektindex.
// ORACC liefert keine DOIs; die Einträge identifizieren sich über Kurztitel
// und Band der jeweiligen Serie.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewFetcher erstellt einen neuen ORACC-Fetcher.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Logger: logger}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return "oracc"
}

// indexResponse ist der projektübergreifende Bibliographie-Index von ORACC.
type indexResponse struct {
	Projects []struct {
		Abbrev  string `json:"abbrev"`
		Name    string `json:"name"`
		Entries []struct {
			Title   string   `json:"title"`
			Series  string   `json:"series"`
			Volume  string   `json:"volume"`
			Year    int      `json:"year"`
			Authors []string `json:"authors"`
		} `json:"bibliography"`
	} `json:"projects"`
}

// Fetch lädt den Bibliographie-Index und flacht ihn zu Records ab.
func (f *Fetcher) Fetch(ctx context.Context) ([]*providers.Record, error) {
	log := f.Logger.With(zap.String("provider", f.Name()))
	log.Info("Starte Abruf des ORACC-Bibliographie-Index.")

	indexURL := fmt.Sprintf("%s/projectlist.json", f.Config.ORACCBaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, indexURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oracc: unexpected status %s", resp.Status)
	}

	var index indexResponse
	if err := json.NewDecoder(resp.Body).Decode(&index); err != nil {
		return nil, err
	}

	var records []*providers.Record
	for _, project := range index.Projects {
		for _, entry := range project.Entries {
			rec := &providers.Record{
				Title:      strings.TrimSpace(entry.Title),
				ShortTitle: strings.TrimSpace(entry.Series),
				Volume:     strings.TrimSpace(entry.Volume),
			}
			if rec.ShortTitle == "" {
				rec.ShortTitle = strings.TrimSpace(project.Abbrev)
			}
			if entry.Year > 0 {
				y := entry.Year
				rec.Year = &y
			}
			for _, name := range entry.Authors {
				if name = strings.TrimSpace(name); name != "" {
					rec.Authors = append(rec.Authors, name)
				}
			}
			records = append(records, rec)
		}
	}

	log.Info("ORACC-Abruf abgeschlossen", zap.Int("records", len(records)))
	return records, nil
}
