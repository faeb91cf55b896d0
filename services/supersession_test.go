package services

import (
	"context"
	"strings"
	"testing"

	"tablet-hand/models"
)

func newTestSupersession(t *testing.T) *SupersessionService {
	t.Helper()
	return NewSupersessionService(newTestConfig(), newTestDB(t), testLogger())
}

func TestSeedSupersessions(t *testing.T) {
	s := newTestSupersession(t)
	ctx := context.Background()

	current := models.Publication{Title: "Mesopotamisches Zeichenlexikon", ShortTitle: "MZL"}
	superseded := models.Publication{Title: "Assyrisch-babylonische Zeichenliste", ShortTitle: "ABZ"}
	mustCreate(t, s.DB, &current)
	mustCreate(t, s.DB, &superseded)

	report, err := s.SeedSupersessions(ctx, []SupersessionTriple{
		{CurrentShortTitle: "MZL", SupersededShortTitle: "ABZ", Scope: "sign list readings"},
	})
	if err != nil {
		t.Fatalf("SeedSupersessions: %v", err)
	}
	if report.Seeded != 1 || len(report.Skipped) != 0 {
		t.Fatalf("report = %+v, want 1 seeded, 0 skipped", report)
	}

	var reloaded models.Publication
	if err := s.DB.First(&reloaded, current.ID).Error; err != nil {
		t.Fatalf("First: %v", err)
	}
	if reloaded.SupersedesID == nil || *reloaded.SupersedesID != superseded.ID {
		t.Errorf("SupersedesID = %v, want %d", reloaded.SupersedesID, superseded.ID)
	}
	if reloaded.SupersededScope != "sign list readings" {
		t.Errorf("SupersededScope = %q, want %q", reloaded.SupersededScope, "sign list readings")
	}

	var links int64
	if err := s.DB.Model(&models.SupersessionLink{}).Count(&links).Error; err != nil {
		t.Fatalf("Count: %v", err)
	}
	if links != 1 {
		t.Errorf("got %d supersession links, want 1", links)
	}
}

func TestSeedSupersessionsIdempotent(t *testing.T) {
	s := newTestSupersession(t)
	ctx := context.Background()

	mustCreate(t, s.DB, &models.Publication{Title: "MZL", ShortTitle: "MZL"})
	mustCreate(t, s.DB, &models.Publication{Title: "ABZ", ShortTitle: "ABZ"})

	triples := []SupersessionTriple{
		{CurrentShortTitle: "MZL", SupersededShortTitle: "ABZ"},
	}
	for i := 0; i < 2; i++ {
		if _, err := s.SeedSupersessions(ctx, triples); err != nil {
			t.Fatalf("SeedSupersessions run %d: %v", i+1, err)
		}
	}

	var links int64
	if err := s.DB.Model(&models.SupersessionLink{}).Count(&links).Error; err != nil {
		t.Fatalf("Count: %v", err)
	}
	if links != 1 {
		t.Errorf("got %d supersession links after rerun, want 1", links)
	}
}

func TestSeedSupersessionsMissingReference(t *testing.T) {
	s := newTestSupersession(t)
	ctx := context.Background()

	mustCreate(t, s.DB, &models.Publication{Title: "MZL", ShortTitle: "MZL"})

	// Fehlende Referenzen überspringen den Eintrag, der Batch läuft weiter.
	report, err := s.SeedSupersessions(ctx, []SupersessionTriple{
		{CurrentShortTitle: "MZL", SupersededShortTitle: "LAK"},
		{CurrentShortTitle: "GAG", SupersededShortTitle: "MZL"},
	})
	if err != nil {
		t.Fatalf("SeedSupersessions: %v", err)
	}
	if report.Seeded != 0 {
		t.Errorf("Seeded = %d, want 0", report.Seeded)
	}
	if len(report.Skipped) != 2 {
		t.Fatalf("got %d skipped entries, want 2: %v", len(report.Skipped), report.Skipped)
	}
	if !strings.Contains(report.Skipped[0], "LAK") {
		t.Errorf("first skip reason %q should name the missing short title", report.Skipped[0])
	}
	if !strings.Contains(report.Skipped[1], "GAG") {
		t.Errorf("second skip reason %q should name the missing short title", report.Skipped[1])
	}
}

func TestResolveCurrentEditionsNewestYearWins(t *testing.T) {
	s := newTestSupersession(t)
	ctx := context.Background()

	old := models.Publication{Title: "Edition 1995", Year: intPtr(1995)}
	new_ := models.Publication{Title: "Edition 2010", Year: intPtr(2010)}
	mustCreate(t, s.DB, &old)
	mustCreate(t, s.DB, &new_)

	oldEd := models.ArtifactEdition{ArtifactNumber: "P000001", PublicationID: old.ID, EditionType: models.EditionTypeFullEdition, Confidence: 0.9}
	newEd := models.ArtifactEdition{ArtifactNumber: "P000001", PublicationID: new_.ID, EditionType: models.EditionTypeFullEdition, Confidence: 0.9}
	mustCreate(t, s.DB, &oldEd)
	mustCreate(t, s.DB, &newEd)

	updated, err := s.ResolveCurrentEditions(ctx)
	if err != nil {
		t.Fatalf("ResolveCurrentEditions: %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1 artifact", updated)
	}

	assertCurrentEdition(t, s, "P000001", newEd.ID)
}

func TestResolveCurrentEditionsConfidenceTieBreak(t *testing.T) {
	s := newTestSupersession(t)
	ctx := context.Background()

	a := models.Publication{Title: "Edition A", Year: intPtr(2000)}
	b := models.Publication{Title: "Edition B", Year: intPtr(2000)}
	mustCreate(t, s.DB, &a)
	mustCreate(t, s.DB, &b)

	weak := models.ArtifactEdition{ArtifactNumber: "P000002", PublicationID: a.ID, EditionType: models.EditionTypeFullEdition, Confidence: 0.6}
	strong := models.ArtifactEdition{ArtifactNumber: "P000002", PublicationID: b.ID, EditionType: models.EditionTypeFullEdition, Confidence: 0.9}
	mustCreate(t, s.DB, &weak)
	mustCreate(t, s.DB, &strong)

	if _, err := s.ResolveCurrentEditions(ctx); err != nil {
		t.Fatalf("ResolveCurrentEditions: %v", err)
	}

	assertCurrentEdition(t, s, "P000002", strong.ID)
}

func TestResolveCurrentEditionsNullYearSortsLast(t *testing.T) {
	s := newTestSupersession(t)
	ctx := context.Background()

	dated := models.Publication{Title: "Edition 1950", Year: intPtr(1950)}
	undated := models.Publication{Title: "Edition o.J."}
	mustCreate(t, s.DB, &dated)
	mustCreate(t, s.DB, &undated)

	datedEd := models.ArtifactEdition{ArtifactNumber: "P000003", PublicationID: dated.ID, EditionType: models.EditionTypeFullEdition, Confidence: 0.5}
	undatedEd := models.ArtifactEdition{ArtifactNumber: "P000003", PublicationID: undated.ID, EditionType: models.EditionTypeFullEdition, Confidence: 0.9}
	mustCreate(t, s.DB, &datedEd)
	mustCreate(t, s.DB, &undatedEd)

	if _, err := s.ResolveCurrentEditions(ctx); err != nil {
		t.Fatalf("ResolveCurrentEditions: %v", err)
	}

	// Ein bekanntes Jahr schlägt NULL, auch bei geringerer Konfidenz.
	assertCurrentEdition(t, s, "P000003", datedEd.ID)
}

func TestResolveCurrentEditionsClearsStaleFlags(t *testing.T) {
	s := newTestSupersession(t)
	ctx := context.Background()

	pub := models.Publication{Title: "Edition", Year: intPtr(2005)}
	mustCreate(t, s.DB, &pub)

	full := models.ArtifactEdition{ArtifactNumber: "P000004", PublicationID: pub.ID, EditionType: models.EditionTypeFullEdition, Confidence: 0.9}
	// Altlast: ein Foto trägt fälschlich das Flag.
	photo := models.ArtifactEdition{ArtifactNumber: "P000004", PublicationID: pub.ID, EditionType: models.EditionTypePhotograph, Confidence: 0.9, IsCurrentEdition: true}
	mustCreate(t, s.DB, &full)
	mustCreate(t, s.DB, &photo)

	if _, err := s.ResolveCurrentEditions(ctx); err != nil {
		t.Fatalf("ResolveCurrentEditions: %v", err)
	}

	assertCurrentEdition(t, s, "P000004", full.ID)
}

func TestResolveCurrentEditionsIdempotent(t *testing.T) {
	s := newTestSupersession(t)
	ctx := context.Background()

	old := models.Publication{Title: "Edition 1995", Year: intPtr(1995)}
	new_ := models.Publication{Title: "Edition 2010", Year: intPtr(2010)}
	mustCreate(t, s.DB, &old)
	mustCreate(t, s.DB, &new_)

	mustCreate(t, s.DB, &models.ArtifactEdition{ArtifactNumber: "P000005", PublicationID: old.ID, EditionType: models.EditionTypeFullEdition})
	winner := models.ArtifactEdition{ArtifactNumber: "P000005", PublicationID: new_.ID, EditionType: models.EditionTypeFullEdition}
	mustCreate(t, s.DB, &winner)

	for i := 0; i < 2; i++ {
		if _, err := s.ResolveCurrentEditions(ctx); err != nil {
			t.Fatalf("ResolveCurrentEditions run %d: %v", i+1, err)
		}
		assertCurrentEdition(t, s, "P000005", winner.ID)
	}
}

// assertCurrentEdition prüft, dass genau die erwartete Edition des Artefakts
// das Current-Flag trägt.
func assertCurrentEdition(t *testing.T, s *SupersessionService, artifact string, wantID uint) {
	t.Helper()

	var current []models.ArtifactEdition
	if err := s.DB.
		Where("artifact_number = ? AND is_current_edition = ?", artifact, true).
		Find(&current).Error; err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(current) != 1 {
		t.Fatalf("artifact %s has %d current editions, want exactly 1", artifact, len(current))
	}
	if current[0].ID != wantID {
		t.Errorf("artifact %s: current edition is %d, want %d", artifact, current[0].ID, wantID)
	}
}
