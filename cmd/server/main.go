package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/arnavshah/staff-scheduler-go/internal/metrics"
	"github.com/arnavshah/staff-scheduler-go/internal/oracle"
	"github.com/arnavshah/staff-scheduler-go/pkg/auth"
	"github.com/arnavshah/staff-scheduler-go/pkg/database"
	"github.com/arnavshah/staff-scheduler-go/pkg/handlers"
	"github.com/arnavshah/staff-scheduler-go/pkg/orchestrator"
	"github.com/arnavshah/staff-scheduler-go/pkg/rules"
	"github.com/arnavshah/staff-scheduler-go/pkg/scheduler"
)

func main() {
	// Load .env if it exists
	// Try root and parent directories for flexibility
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}

	logger, err := buildLogger()
	if err != nil {
		log.Fatalf("could not build logger: %v", err)
	}
	defer logger.Sync()

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics.RegisterDefault()

	db := database.InitDB()
	_ = auth.EnsureAdminExists(db)

	table := rules.Default()
	if path := os.Getenv("RULES_PATH"); path != "" {
		if err := table.LoadFile(path); err != nil {
			logger.Warn("could not load rules overrides", zap.String("path", path), zap.Error(err))
		}
	}

	orc := orchestrator.New(orchestrator.Config{
		Rules:  table,
		Oracle: buildOracleSource(logger),
		Sink:   &handlers.RunSink{DB: db, Logger: logger},
	})

	h := &handlers.Handler{DB: db, Orchestrator: orc, Logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), h.MetricsMiddleware())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "AI Staff Scheduler API",
			"version": "1.0.0",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	r.POST("/admin/login", h.Login)

	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)
		admin.GET("/runs", h.ListRuns)
	}

	api := r.Group("/api")
	api.Use(h.APIKeyMiddleware())
	{
		api.POST("/schedule", h.ScheduleJSON)
		api.POST("/schedule/csv", h.ScheduleCSV)
		api.POST("/validate", h.ValidateInput)
		api.GET("/usage", h.GetMyUsage)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	logger.Info("server starting", zap.String("port", port))
	if err := r.Run(":" + port); err != nil {
		logger.Fatal("could not run server", zap.Error(err))
	}
}

// buildLogger configures production logging, debug level when
// LOG_DEBUG is set
func buildLogger() (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if os.Getenv("LOG_DEBUG") != "" {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}

// buildOracleSource wires the oracle-backed proposal source, or nil to
// force the deterministic fallback when no API key is configured
func buildOracleSource(logger *zap.Logger) scheduler.ProposalSource {
	apiKey := os.Getenv("XAI_API_KEY")
	if apiKey == "" {
		logger.Warn("XAI_API_KEY not set; every run will use the deterministic fallback")
		return nil
	}

	cfg := oracle.DefaultConfig(apiKey)
	if url := os.Getenv("ORACLE_BASE_URL"); url != "" {
		cfg.BaseURL = url
	}
	if model := os.Getenv("ORACLE_MODEL"); model != "" {
		cfg.Model = model
	}
	if t := os.Getenv("ORACLE_TIMEOUT_SECONDS"); t != "" {
		if secs, err := strconv.Atoi(t); err == nil && secs > 0 {
			cfg.Timeout = time.Duration(secs) * time.Second
		}
	}
	if n := os.Getenv("ORACLE_MAX_INFLIGHT"); n != "" {
		if limit, err := strconv.ParseInt(n, 10, 64); err == nil && limit > 0 {
			cfg.MaxInFlight = limit
		}
	}

	return scheduler.NewOracleSource(oracle.NewHTTPClient(cfg))
}
