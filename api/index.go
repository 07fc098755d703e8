package handler

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/arnavshah/staff-scheduler-go/internal/metrics"
	"github.com/arnavshah/staff-scheduler-go/internal/oracle"
	"github.com/arnavshah/staff-scheduler-go/pkg/auth"
	"github.com/arnavshah/staff-scheduler-go/pkg/database"
	"github.com/arnavshah/staff-scheduler-go/pkg/handlers"
	"github.com/arnavshah/staff-scheduler-go/pkg/orchestrator"
	"github.com/arnavshah/staff-scheduler-go/pkg/rules"
	"github.com/arnavshah/staff-scheduler-go/pkg/scheduler"
)

var r *gin.Engine

func init() {
	// Load .env if it exists (for local testing with vercel dev)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	logger, _ := zap.NewProduction()

	metrics.RegisterDefault()

	db := database.InitDB()
	_ = auth.EnsureAdminExists(db)

	var oracleSrc scheduler.ProposalSource
	if apiKey := os.Getenv("XAI_API_KEY"); apiKey != "" {
		oracleSrc = scheduler.NewOracleSource(oracle.NewHTTPClient(oracle.DefaultConfig(apiKey)))
	}

	orc := orchestrator.New(orchestrator.Config{
		Rules:  rules.Default(),
		Oracle: oracleSrc,
		Sink:   &handlers.RunSink{DB: db, Logger: logger},
	})

	h := &handlers.Handler{DB: db, Orchestrator: orc, Logger: logger}

	gin.SetMode(gin.ReleaseMode)
	r = gin.New()
	r.Use(gin.Logger(), gin.Recovery(), h.MetricsMiddleware())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "AI Staff Scheduler API (Vercel)",
			"version": "1.0.0",
		})
	})

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
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
