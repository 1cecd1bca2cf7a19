package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"
	"github.com/subosito/gotenv"
	"github.com/twcfin/invoice-pipeline/internal/assign"
	"github.com/twcfin/invoice-pipeline/internal/config"
	"github.com/twcfin/invoice-pipeline/internal/extract"
	"github.com/twcfin/invoice-pipeline/internal/ledger"
	"github.com/twcfin/invoice-pipeline/internal/locking"
	"github.com/twcfin/invoice-pipeline/internal/mailbox"
	"github.com/twcfin/invoice-pipeline/internal/models"
	"github.com/twcfin/invoice-pipeline/internal/pipeline"
	"github.com/twcfin/invoice-pipeline/internal/report"
	"github.com/twcfin/invoice-pipeline/internal/rules"
	"github.com/twcfin/invoice-pipeline/internal/storage"
	"github.com/twcfin/invoice-pipeline/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	// Load .env if present, then configuration
	_ = gotenv.Load()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting invoice pipeline service",
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.Int("port", cfg.Server.Port))

	loc, err := time.LoadLocation(cfg.Pipeline.Timezone)
	if err != nil {
		logger.Fatal("Failed to load timezone", zap.Error(err))
	}

	// Initialize object stores
	mailStore, artifactStore, resultStore, err := buildStores(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}

	// Initialize ledger lock backend
	var locker locking.Locker = locking.NewKeyedMutex()
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		locker = locking.NewRedisLocker(rdb, "ledger", 30*time.Second)
		logger.Info("Using Redis-backed ledger locks", zap.String("addr", cfg.Redis.Addr))
	}

	// Wire the pipeline
	mail := mailbox.NewReader(mailStore, loc, logger)
	ledgers := ledger.NewStore(resultStore, locker, logger)
	resolver := assign.NewResolver(
		rules.NewLoader(artifactStore, logger),
		assign.NewClassifier(openai.NewClient(cfg.OpenAI.APIKey), cfg.OpenAI.Model, logger),
		logger,
	)
	driver := pipeline.NewDriver(mail, artifactStore, extract.NewExtractor(logger), resolver, ledgers, loc, logger)
	runner := pipeline.NewRunner(driver, logger)
	updater := rules.NewUpdater(mail, artifactStore, logger)

	var reporter *report.Reporter
	if cfg.Report.Sender != "" {
		mailer := report.NewSMTPMailer(
			cfg.Report.SMTPHost,
			cfg.Report.SMTPPort,
			cfg.Report.SMTPUsername,
			cfg.Report.SMTPPassword,
			logger,
		)
		reporter = report.NewReporter(resultStore, mailer, cfg.Report.Sender, cfg.Report.Recipients, loc, logger)
	}

	// Set Gin mode based on logger level
	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "invoice-pipeline",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/jobs/process", processJobsHandler(runner, logger))
		api.POST("/rules/update", updateRulesHandler(updater, logger))
		api.POST("/reports/daily", dailyReportHandler(reporter, logger))
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

// buildStores creates the mail, artifact and result object stores from the
// configured backend.
func buildStores(cfg *config.Config, logger *zap.Logger) (mail, artifacts, results storage.ObjectStore, err error) {
	switch cfg.Storage.Backend {
	case "local":
		return storage.NewLocalStore(cfg.Storage.Local.MailDir, logger),
			storage.NewLocalStore(cfg.Storage.Local.ArtifactDir, logger),
			storage.NewLocalStore(cfg.Storage.Local.ResultDir, logger),
			nil

	case "oss":
		oss := cfg.Storage.OSS
		mail, err = storage.NewOSSStore(storage.OSSConfig{
			Endpoint:        oss.Endpoint,
			Region:          oss.Region,
			Bucket:          oss.MailBucket,
			AccessKeyID:     oss.AccessKeyID,
			AccessKeySecret: oss.AccessKeySecret,
			Prefix:          oss.MailPrefix,
		}, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		artifacts, err = storage.NewOSSStore(storage.OSSConfig{
			Endpoint:        oss.Endpoint,
			Region:          oss.Region,
			Bucket:          oss.ArtifactBucket,
			AccessKeyID:     oss.AccessKeyID,
			AccessKeySecret: oss.AccessKeySecret,
			Prefix:          oss.ArtifactPrefix,
		}, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		results, err = storage.NewOSSStore(storage.OSSConfig{
			Endpoint:        oss.Endpoint,
			Region:          oss.Region,
			Bucket:          oss.ResultBucket,
			AccessKeyID:     oss.AccessKeyID,
			AccessKeySecret: oss.AccessKeySecret,
			Prefix:          oss.ResultPrefix,
		}, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		return mail, artifacts, results, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// processJobsHandler runs a batch of jobs through the pipeline.
func processJobsHandler(runner *pipeline.Runner, logger *zap.Logger) gin.HandlerFunc {
	type request struct {
		Jobs []models.ProcessingJob `json:"jobs" binding:"required"`
	}
	type jobStatus struct {
		JobID       string `json:"jobId"`
		MessageID   string `json:"messageId"`
		BusinessDay string `json:"businessDay"`
		Status      string `json:"status"`
		ErrorReason string `json:"errorReason,omitempty"`
		Error       string `json:"error,omitempty"`
	}

	return func(c *gin.Context) {
		var req request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		summary := runner.Run(c.Request.Context(), req.Jobs)

		statuses := make([]jobStatus, 0, len(summary.Results))
		for _, result := range summary.Results {
			status := jobStatus{
				JobID:       result.Job.JobID,
				MessageID:   result.Job.MessageID,
				BusinessDay: result.BusinessDay.Format("2006-01-02"),
				Status:      string(result.Status),
				ErrorReason: result.ErrorReason,
			}
			if result.Err != nil {
				status.Error = result.Err.Error()
			}
			statuses = append(statuses, status)
		}

		c.JSON(http.StatusOK, gin.H{
			"processed": summary.Processed,
			"succeeded": summary.Succeeded,
			"ignored":   summary.Ignored,
			"failed":    summary.Failed,
			"aborted":   summary.Aborted,
			"jobs":      statuses,
		})
	}
}

// updateRulesHandler replaces the assignment rule set from a rule email.
func updateRulesHandler(updater *rules.Updater, logger *zap.Logger) gin.HandlerFunc {
	type request struct {
		MessageID string `json:"messageId" binding:"required"`
	}

	return func(c *gin.Context) {
		var req request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		count, err := updater.UpdateFromMessage(c.Request.Context(), req.MessageID)
		if err != nil {
			logger.Error("Rule update failed", zap.String("message_id", req.MessageID), zap.Error(err))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"rules": count})
	}
}

// dailyReportHandler sends the daily processing report.
func dailyReportHandler(reporter *report.Reporter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if reporter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report delivery is not configured"})
			return
		}

		if err := reporter.SendDaily(c.Request.Context()); err != nil {
			if errors.Is(err, report.ErrNotWeekday) {
				c.JSON(http.StatusOK, gin.H{"status": "skipped", "reason": "not a weekday"})
				return
			}
			logger.Error("Daily report failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "sent"})
	}
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}
