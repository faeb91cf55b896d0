package services

import (
	"fmt"
	"testing"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tablet-hand/config"
	"tablet-hand/models"
)

// newTestDB öffnet eine testlokale In-Memory-SQLite-Datenbank mit allen
// Tabellen. Der Name isoliert parallele Tests voneinander.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Fehler beim Öffnen der Test-Datenbank: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Publication{},
		&models.ArtifactEdition{},
		&models.DedupCandidate{},
		&models.SupersessionLink{},
		&models.Scholar{},
		&models.ImportRun{},
	); err != nil {
		t.Fatalf("Fehler bei der Migration der Test-Datenbank: %v", err)
	}
	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		FuzzyMatchThreshold: 0.85,
		LengthRatioCutoff:   0.4,
		AutoMergeThreshold:  0.9,
		ReviewThreshold:     0.5,
		MaxSupersessionHops: 20,
	}
}

func mustCreate(t *testing.T, db *gorm.DB, value interface{}) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("Fehler beim Anlegen eines Testdatensatzes: %v", err)
	}
}

func intPtr(i int) *int {
	return &i
}

func strPtr(s string) *string {
	return &s
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
