package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/mfg-academy/training-scheduler-api/internal/handler"
	internalmiddleware "github.com/mfg-academy/training-scheduler-api/internal/middleware"
	"github.com/mfg-academy/training-scheduler-api/internal/models"
	"github.com/mfg-academy/training-scheduler-api/internal/repository"
	"github.com/mfg-academy/training-scheduler-api/internal/service"
	"github.com/mfg-academy/training-scheduler-api/pkg/config"
	"github.com/mfg-academy/training-scheduler-api/pkg/database"
	"github.com/mfg-academy/training-scheduler-api/pkg/export"
	"github.com/mfg-academy/training-scheduler-api/pkg/logger"
	corsmiddleware "github.com/mfg-academy/training-scheduler-api/pkg/middleware/cors"
	reqidmiddleware "github.com/mfg-academy/training-scheduler-api/pkg/middleware/requestid"
	"github.com/mfg-academy/training-scheduler-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	scheduleRepo := repository.NewMonthlyScheduleRepository(db)
	sessionRepo := repository.NewMonthlyScheduleSessionRepository(db)

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	generatorSvc := service.NewScheduleGeneratorService(
		models.DefaultCatalog(),
		scheduleRepo,
		sessionRepo,
		db,
		validate,
		logr,
		metricsSvc,
		service.ScheduleGeneratorConfig{
			ProposalTTL:   cfg.Scheduler.ProposalTTL,
			GapFillPasses: cfg.Scheduler.GapFillPasses,
		},
	)
	archive, err := storage.NewExportArchive(cfg.Exports.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export archive", "error", err)
	}
	if removed, err := archive.CleanupOlderThan(cfg.Exports.Retention); err != nil {
		logr.Sugar().Warnw("export archive cleanup failed", "error", err)
	} else if len(removed) > 0 {
		logr.Sugar().Infow("export archive cleaned", "removed", len(removed))
	}

	exportSvc := service.NewTimetableExportService(generatorSvc, export.NewCSVExporter(), export.NewPDFExporter(), cfg.Exports.PDFTitle, archive, logr)
	scheduleHandler := handler.NewScheduleGeneratorHandler(generatorSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/catalog", scheduleHandler.Catalog)

		schedules := api.Group("/schedules")
		{
			schedules.POST("/generate", scheduleHandler.Generate)
			schedules.GET("/proposals/:id", scheduleHandler.Proposal)
			schedules.PUT("/proposals/:id/sessions/:sessionId", scheduleHandler.UpdateSession)
			schedules.POST("/proposals/:id/sessions", scheduleHandler.AddSession)
			schedules.DELETE("/proposals/:id/sessions/:sessionId", scheduleHandler.RemoveSession)
			schedules.GET("/proposals/:id/export", scheduleHandler.Export)
			schedules.POST("/save", scheduleHandler.Save)
			schedules.GET("", scheduleHandler.List)
			schedules.GET("/:id/sessions", scheduleHandler.Sessions)
			schedules.DELETE("/:id", scheduleHandler.Delete)
		}
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
