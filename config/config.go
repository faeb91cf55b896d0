package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4243"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	CDLIBaseURL  string `envconfig:"CDLI_BASE_URL" default:"https://cdli.mpiwg-berlin.mpg.de"`
	CDLIMaxPages int    `envconfig:"CDLI_MAX_PAGES" default:"50"`
	ORACCBaseURL string `envconfig:"ORACC_BASE_URL" default:"http://oracc.museum.upenn.edu"`

	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"0 2 * * *"`

	// Matching-Parameter. Die Defaults entsprechen dem eingespielten Verhalten
	// des Matchers und sollten nur mit Bedacht geändert werden.
	FuzzyMatchThreshold float64 `envconfig:"FUZZY_MATCH_THRESHOLD" default:"0.85"`
	LengthRatioCutoff   float64 `envconfig:"LENGTH_RATIO_CUTOFF" default:"0.4"`
	AutoMergeThreshold  float64 `envconfig:"AUTO_MERGE_THRESHOLD" default:"0.9"`
	ReviewThreshold     float64 `envconfig:"REVIEW_THRESHOLD" default:"0.5"`
	MaxSupersessionHops int     `envconfig:"MAX_SUPERSESSION_HOPS" default:"20"`

	// S3 für Rohdaten-Snapshots der Importläufe (optional)
	SnapshotS3Key    string `envconfig:"SNAPSHOT_S3_KEY"`
	SnapshotS3Secret string `envconfig:"SNAPSHOT_S3_SECRET"`
	SnapshotS3URL    string `envconfig:"SNAPSHOT_S3_URL"`
	SnapshotS3Region string `envconfig:"SNAPSHOT_S3_REGION"`
	SnapshotS3Bucket string `envconfig:"SNAPSHOT_S3_BUCKET"`

	// Provider-Konfiguration
	EnabledProviders string `envconfig:"ENABLED_PROVIDERS" default:"cdli,oracc"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// SnapshotsEnabled meldet, ob S3-Snapshots für Importläufe konfiguriert sind.
func (c *Config) SnapshotsEnabled() bool {
	return c.SnapshotS3URL != "" && c.SnapshotS3Bucket != ""
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
