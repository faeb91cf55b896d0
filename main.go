package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"tablet-hand/config"
	"tablet-hand/models"
	"tablet-hand/providers"
	"tablet-hand/providers/cdli"
	"tablet-hand/providers/oracc"
	"tablet-hand/services"
	"tablet-hand/storage"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	matchedCounter          *prometheus.CounterVec
	importedRecordsCounter  prometheus.Counter
	verifyViolationsGauge   prometheus.Gauge
	dedupCandidatesRecorded prometheus.Counter
)

func init() {
	matchedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "publications_matched_total",
			Help: "Total number of candidate records resolved, by match method.",
		},
		[]string{"method"},
	)
	importedRecordsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "import_records_total",
			Help: "Total number of records processed by import runs.",
		},
	)
	verifyViolationsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "invariant_violations",
			Help: "Number of invariant violations found by the last verification run.",
		},
	)
	dedupCandidatesRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dedup_candidates_recorded_total",
			Help: "Total number of publication pairs recorded for manual review.",
		},
	)
	prometheus.MustRegister(matchedCounter, importedRecordsCounter, verifyViolationsGauge, dedupCandidatesRecorded)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	// Setup Database Connection
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to bibliography database.")

	// Auto-Migration
	logging.Info("Running database auto-migration...")
	if err := db.AutoMigrate(
		&models.Publication{},
		&models.ArtifactEdition{},
		&models.DedupCandidate{},
		&models.SupersessionLink{},
		&models.Scholar{},
		&models.ImportRun{},
	); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}

	// Setup Providers
	enabledProviderNames := strings.Split(cfg.EnabledProviders, ",")
	var enabledProviders []providers.Provider
	for _, name := range enabledProviderNames {
		switch strings.TrimSpace(name) {
		case "cdli":
			enabledProviders = append(enabledProviders, cdli.NewFetcher(cfg, logging))
		case "oracc":
			enabledProviders = append(enabledProviders, oracc.NewFetcher(cfg, logging))
		default:
			logging.Warn("Unknown provider in config", zap.String("provider_name", name))
		}
	}
	if len(enabledProviders) == 0 {
		logging.Fatal("No valid providers enabled. Check ENABLED_PROVIDERS in .env")
	}
	logging.Info("Active providers loaded", zap.Strings("providers", enabledProviderNames))

	// Setup Services
	var s3Client *s3.Client
	if cfg.SnapshotsEnabled() {
		s3Client, err = storage.NewS3Client(cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
	} else {
		logging.Info("S3 snapshots disabled (no SNAPSHOT_S3_URL configured).")
	}
	matchService := services.NewMatchService(cfg, db, logging)
	supersessionService := services.NewSupersessionService(cfg, db, logging)
	verifyService := services.NewVerifyService(cfg, db, logging)
	importService := services.NewImportService(cfg, db, logging, matchService, enabledProviders, s3Client)

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Setup Routes
	setupPublicationRoutes(router, db, logging)
	setupMatchRoutes(router, matchService)
	setupDedupRoutes(router, db, logging)
	setupSupersessionRoutes(router, supersessionService)
	setupVerifyRoutes(router, verifyService)
	setupImportRoutes(router, importService, supersessionService, verifyService)

	// Setup Cron: nächtlicher Gesamtlauf Import -> Auflösung -> Prüfung
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.CronSchedule, func() {
		logging.Info("Running scheduled import pipeline...")
		runPipeline(context.Background(), logging, importService, supersessionService, verifyService)
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

// runPipeline führt einen vollständigen Batch aus: Import, Current-Edition-
// Auflösung, Invariantenprüfung. Verletzungen blockieren das Release-Gate.
func runPipeline(ctx context.Context, logging *zap.Logger, importService *services.ImportService, supersessionService *services.SupersessionService, verifyService *services.VerifyService) {
	stats, err := importService.RunAll(ctx)
	if err != nil {
		logging.Error("Import pipeline failed", zap.Error(err))
		return
	}
	importedRecordsCounter.Add(float64(stats.Records))
	dedupCandidatesRecorded.Add(float64(stats.Review))

	updated, err := supersessionService.ResolveCurrentEditions(ctx)
	if err != nil {
		logging.Error("Current edition resolution failed", zap.Error(err))
		return
	}

	report, err := verifyService.Run(ctx)
	if err != nil {
		logging.Error("Invariant verification failed", zap.Error(err))
		return
	}
	verifyViolationsGauge.Set(float64(report.Violations()))

	if !report.OK() {
		logging.Error("Pipeline completed with invariant violations, dataset must not be released",
			zap.Int("violations", report.Violations()))
		return
	}
	logging.Info("Pipeline completed",
		zap.Int("records", stats.Records),
		zap.Int("merged", stats.Merged),
		zap.Int("inserted", stats.Inserted),
		zap.Int("review", stats.Review),
		zap.Int("artifacts_updated", updated))
}

func setupPublicationRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/publications")

	rg.GET("/", func(c *gin.Context) {
		var pubs []models.Publication
		if err := db.Find(&pubs).Error; err != nil {
			log.Error("Database query for all publications failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, pubs)
	})

	// Body-gesteuerter Endpunkt für Abfragen nach Jahr, Kurztitel oder Lauf
	rg.POST("/query", func(c *gin.Context) {
		type PublicationQuery struct {
			Year       *int   `json:"year"`
			ShortTitle string `json:"short_title"`
			SourceRun  string `json:"source_run"`
			Limit      int    `json:"limit"`
		}

		var req PublicationQuery
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		query := db.Model(&models.Publication{})
		if req.Year != nil {
			query = query.Where("year = ?", *req.Year)
		}
		if req.ShortTitle != "" {
			query = query.Where("short_title = ?", req.ShortTitle)
		}
		if req.SourceRun != "" {
			query = query.Where("source_run = ?", req.SourceRun)
		}
		if req.Limit > 0 {
			query = query.Limit(req.Limit)
		}

		var pubs []models.Publication
		if err := query.Order("created_at desc").Find(&pubs).Error; err != nil {
			log.Error("Database query for publications failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, pubs)
	})
}

func setupMatchRoutes(router *gin.Engine, matchService *services.MatchService) {
	rg := router.Group("/match")

	// Dry-Run: Kandidat auflösen, ohne Zustand zu verändern
	rg.POST("/", func(c *gin.Context) {
		var cand services.Candidate
		if err := c.ShouldBindJSON(&cand); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		result, err := matchService.FindMatch(c.Request.Context(), cand)
		if err != nil {
			matchService.Logger.Error("Match lookup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		matchedCounter.WithLabelValues(result.Method).Inc()
		c.JSON(http.StatusOK, result)
	})
}

func setupDedupRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/dedup-candidates")

	rg.GET("/", func(c *gin.Context) {
		query := db.Model(&models.DedupCandidate{})
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}
		var candidates []models.DedupCandidate
		if err := query.Order("created_at asc").Find(&candidates).Error; err != nil {
			log.Error("Database query for dedup candidates failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, candidates)
	})

	// Manuelle Auflösung eines Review-Paars
	rg.POST("/:id/resolve", func(c *gin.Context) {
		type ResolveRequest struct {
			Resolution string `json:"resolution" binding:"required"`
		}
		var req ResolveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if req.Resolution != models.DedupResolutionMerged && req.Resolution != models.DedupResolutionDistinct {
			c.JSON(http.StatusBadRequest, gin.H{"error": "resolution must be 'merged' or 'distinct'"})
			return
		}

		var candidate models.DedupCandidate
		if err := db.First(&candidate, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "dedup candidate not found"})
				return
			}
			log.Error("DB error loading dedup candidate", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		updates := map[string]interface{}{
			"status":     models.DedupStatusResolved,
			"resolution": req.Resolution,
		}
		if err := db.Model(&candidate).Updates(updates).Error; err != nil {
			log.Error("DB error resolving dedup candidate", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve candidate"})
			return
		}
		c.JSON(http.StatusOK, candidate)
	})
}

func setupSupersessionRoutes(router *gin.Engine, supersessionService *services.SupersessionService) {
	rg := router.Group("/supersessions")

	rg.POST("/seed", func(c *gin.Context) {
		var triples []services.SupersessionTriple
		if err := c.ShouldBindJSON(&triples); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		report, err := supersessionService.SeedSupersessions(c.Request.Context(), triples)
		if err != nil {
			supersessionService.Logger.Error("Supersession seeding failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, report)
	})

	router.POST("/editions/resolve", func(c *gin.Context) {
		updated, err := supersessionService.ResolveCurrentEditions(c.Request.Context())
		if err != nil {
			supersessionService.Logger.Error("Current edition resolution failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"artifacts_updated": updated})
	})
}

func setupVerifyRoutes(router *gin.Engine, verifyService *services.VerifyService) {
	// CI-artiges Release-Gate: Verletzungen ergeben 409
	router.GET("/verify", func(c *gin.Context) {
		report, err := verifyService.Run(c.Request.Context())
		if err != nil {
			verifyService.Logger.Error("Invariant verification failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		verifyViolationsGauge.Set(float64(report.Violations()))

		if report.OK() {
			c.JSON(http.StatusOK, report)
			return
		}
		c.JSON(http.StatusConflict, report)
	})
}

func setupImportRoutes(router *gin.Engine, importService *services.ImportService, supersessionService *services.SupersessionService, verifyService *services.VerifyService) {
	rg := router.Group("/import")

	rg.POST("/run", func(c *gin.Context) {
		go runPipeline(context.Background(), importService.Logger, importService, supersessionService, verifyService)
		c.JSON(http.StatusAccepted, gin.H{"message": "Import pipeline triggered."})
	})
}
