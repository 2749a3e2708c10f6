package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"bizradar/config"
	"bizradar/models"
	"bizradar/providers/googlemaps"
	"bizradar/providers/llm"
	"bizradar/providers/webfetch"
	"bizradar/services"
	"bizradar/storage"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
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
	analysesStartedCounter   prometheus.Counter
	analysesCompletedCounter prometheus.Counter
	analysesFailedCounter    prometheus.Counter
)

func init() {
	analysesStartedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analyses_started_total",
		Help: "Total number of analysis pipelines started.",
	})
	analysesCompletedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analyses_completed_total",
		Help: "Total number of analysis pipelines completed successfully.",
	})
	analysesFailedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analyses_failed_total",
		Help: "Total number of analysis pipelines that ended in the failed state.",
	})
	prometheus.MustRegister(analysesStartedCounter, analysesCompletedCounter, analysesFailedCounter)
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
	logging.Info("Successfully connected to database.")

	logging.Info("Running database auto-migration...")
	if err := db.AutoMigrate(&models.Analysis{}, &models.Competitor{}); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}

	// Setup Collaborator Clients
	mapsClient := googlemaps.NewClient(cfg, logging)
	fetcher := webfetch.NewFetcher(cfg, logging)
	llmClient := llm.NewClient(cfg, logging)

	// Setup Services
	analysisService := services.NewAnalysisService(cfg, db, logging, mapsClient, fetcher, llmClient)

	var s3Client *awss3.Client
	if !cfg.ReportS3Disabled && cfg.ReportS3Bucket != "" {
		s3Client, err = storage.NewS3Client(cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
	} else {
		logging.Info("Report export to S3 is disabled.")
	}

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Setup Routes
	setupAnalysisRoutes(router, db, analysisService, logging)
	setupContentRoutes(router, analysisService, logging)
	setupExportRoutes(router, db, s3Client, cfg, logging)

	// Setup Cron: Watchdog für hängengebliebene Analysen
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.WatchdogSchedule, func() {
		maxAge := time.Duration(cfg.WatchdogMaxMinutes) * time.Minute
		count, err := analysisService.FailStale(maxAge)
		if err != nil {
			logging.Error("Watchdog job failed", zap.Error(err))
		} else if count > 0 {
			logging.Warn("Watchdog marked stale analyses as failed", zap.Int64("count", count))
			analysesFailedCounter.Add(float64(count))
		}
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

// startAnalysisRequest ist der Body von POST /analyses.
type startAnalysisRequest struct {
	OwnerID      uint   `json:"owner_id"`
	BusinessName string `json:"business_name" binding:"required"`
	WebsiteURL   string `json:"website_url"`
	Location     string `json:"location" binding:"required"`
	Industry     string `json:"industry"`
}

func setupAnalysisRoutes(router *gin.Engine, db *gorm.DB, svc *services.AnalysisService, log *zap.Logger) {
	rg := router.Group("/analyses")

	// Legt den Datensatz synchron an und startet die Pipeline als
	// Hintergrund-Task. Fortschritt wird per Polling des Status beobachtet.
	rg.POST("/", func(c *gin.Context) {
		var req startAnalysisRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		analysis := models.Analysis{
			OwnerID:      req.OwnerID,
			BusinessName: req.BusinessName,
			WebsiteURL:   req.WebsiteURL,
			Location:     req.Location,
			Industry:     req.Industry,
			Status:       models.StatusPending,
		}
		if err := db.Create(&analysis).Error; err != nil {
			log.Error("DB error creating analysis", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create analysis"})
			return
		}

		analysesStartedCounter.Inc()
		go func(id uint) {
			if err := svc.Run(context.Background(), id); err != nil {
				analysesFailedCounter.Inc()
				log.Error("Async analysis pipeline failed", zap.Uint("analysis_id", id), zap.Error(err))
			} else {
				analysesCompletedCounter.Inc()
			}
		}(analysis.ID)

		c.JSON(http.StatusCreated, gin.H{"id": analysis.ID, "status": analysis.Status})
	})

	rg.GET("/", func(c *gin.Context) {
		query := db.Model(&models.Analysis{})
		if ownerID := c.Query("owner_id"); ownerID != "" {
			query = query.Where("owner_id = ?", ownerID)
		}
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		var analyses []models.Analysis
		if err := query.Order("created_at desc").Find(&analyses).Error; err != nil {
			log.Error("Database query for analyses failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, analyses)
	})

	rg.GET("/:id", func(c *gin.Context) {
		var analysis models.Analysis
		if err := db.First(&analysis, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "analysis not found"})
				return
			}
			log.Error("DB error fetching analysis", zap.String("id", c.Param("id")), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, analysis)
	})

	rg.GET("/:id/competitors", func(c *gin.Context) {
		var competitors []models.Competitor
		if err := db.Where("analysis_id = ?", c.Param("id")).Find(&competitors).Error; err != nil {
			log.Error("DB error fetching competitors", zap.String("id", c.Param("id")), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, competitors)
	})

	// Die Analyse besitzt ihre Konkurrenten exklusiv: erst die Kinder
	// löschen, dann den Datensatz selbst.
	rg.DELETE("/:id", func(c *gin.Context) {
		var analysis models.Analysis
		if err := db.First(&analysis, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "analysis not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		if err := db.Where("analysis_id = ?", analysis.ID).Delete(&models.Competitor{}).Error; err != nil {
			log.Error("DB error deleting competitors", zap.Uint("id", analysis.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete competitors"})
			return
		}
		if err := db.Delete(&analysis).Error; err != nil {
			log.Error("DB error deleting analysis", zap.Uint("id", analysis.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete analysis"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "analysis deleted"})
	})
}

// regenerateRequest ist der Body von POST /analyses/:id/content.
type regenerateRequest struct {
	Type string `json:"type" binding:"required,oneof=blog ads"`
}

func setupContentRoutes(router *gin.Engine, svc *services.AnalysisService, log *zap.Logger) {
	rg := router.Group("/analyses")

	rg.POST("/:id/content", func(c *gin.Context) {
		var req regenerateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "type must be 'blog' or 'ads'"})
			return
		}

		var id uint
		if _, err := fmt.Sscanf(c.Param("id"), "%d", &id); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		analysis, err := svc.RegenerateContent(c.Request.Context(), id, req.Type)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "analysis not found"})
				return
			}
			log.Warn("Content regeneration rejected", zap.Uint("id", id), zap.Error(err))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, analysis)
	})
}

// analysisReport ist das Export-Format für S3.
type analysisReport struct {
	Analysis    models.Analysis     `json:"analysis"`
	Competitors []models.Competitor `json:"competitors"`
	ExportedAt  time.Time           `json:"exported_at"`
}

func setupExportRoutes(router *gin.Engine, db *gorm.DB, s3Client *awss3.Client, cfg *config.Config, log *zap.Logger) {
	rg := router.Group("/analyses")

	rg.POST("/:id/export", func(c *gin.Context) {
		if s3Client == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report export is not configured"})
			return
		}

		var analysis models.Analysis
		if err := db.First(&analysis, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "analysis not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if analysis.Status != models.StatusCompleted {
			c.JSON(http.StatusConflict, gin.H{"error": "analysis is not completed"})
			return
		}

		var competitors []models.Competitor
		if err := db.Where("analysis_id = ?", analysis.ID).Find(&competitors).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		report := analysisReport{Analysis: analysis, Competitors: competitors, ExportedAt: time.Now().UTC()}
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to serialize report"})
			return
		}

		key := fmt.Sprintf("reports/analysis-%d-%s.json", analysis.ID, time.Now().UTC().Format("2006-01-02T15-04-05Z"))
		link, err := storage.UploadReport(c.Request.Context(), s3Client, cfg, key, data)
		if err != nil {
			log.Error("Report-Upload nach S3 fehlgeschlagen", zap.Uint("id", analysis.ID), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to upload report"})
			return
		}

		log.Info("Report erfolgreich nach S3 exportiert", zap.Uint("id", analysis.ID), zap.String("link", link))
		c.JSON(http.StatusOK, gin.H{"link": link})
	})
}
