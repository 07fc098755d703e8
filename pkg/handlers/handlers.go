package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arnavshah/staff-scheduler-go/internal/metrics"
	"github.com/arnavshah/staff-scheduler-go/pkg/auth"
	"github.com/arnavshah/staff-scheduler-go/pkg/database"
	"github.com/arnavshah/staff-scheduler-go/pkg/models"
	"github.com/arnavshah/staff-scheduler-go/pkg/orchestrator"
)

// Handler contains dependencies for the route handlers
type Handler struct {
	DB           *gorm.DB
	Orchestrator *orchestrator.Orchestrator
	Logger       *zap.Logger
}

// AuthMiddleware verifies the JWT token for admin routes
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		if len(token) > 7 && token[:7] == "Bearer " {
			token = token[7:]
		}

		claims, err := auth.VerifyToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}

// APIKeyMiddleware verifies the API key for scheduler routes using HMAC
func (h *Handler) APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("Authorization")
		if key == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "API Key required"})
			c.Abort()
			return
		}

		if len(key) > 7 && key[:7] == "Bearer " {
			key = key[7:]
		}

		userID, err := auth.VerifyHMACKey(key)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API Key signature"})
			c.Abort()
			return
		}

		// Fetch or create API key record to track usage
		var apiKey database.APIKey
		h.DB.Where(database.APIKey{Key: key}).FirstOrCreate(&apiKey, database.APIKey{
			Key:       key,
			Name:      userID,
			RateLimit: 10000,
		})

		c.Set("apiKey", &apiKey)
		c.Set("userID", userID)
		c.Next()
	}
}

// MetricsMiddleware records request counts and latency per route
func (h *Handler) MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, path, status).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// ScheduleJSON handles the JSON-based scheduling request
func (h *Handler) ScheduleJSON(c *gin.Context) {
	var req models.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Country == "" {
		req.Country = "US"
	}

	h.runSchedule(c, req)
}

// runSchedule executes one orchestration run and writes the response
func (h *Handler) runSchedule(c *gin.Context, req models.ScheduleRequest) {
	schedule, err := h.Orchestrator.Run(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidInput):
			metrics.ScheduleRuns.WithLabelValues("invalid").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case c.Request.Context().Err() != nil:
			c.Status(http.StatusRequestTimeout)
		default:
			h.Logger.Error("schedule run failed", zap.Error(err))
			metrics.ScheduleRuns.WithLabelValues("failed").Inc()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "scheduling failed"})
		}
		return
	}

	outcome := "accepted"
	if schedule.Metadata.Rejected {
		outcome = "rejected"
	}
	metrics.ScheduleRuns.WithLabelValues(outcome).Inc()
	if schedule.Metadata.Degraded {
		metrics.DegradedRuns.Inc()
	}
	metrics.RunQuality.Observe(schedule.Metadata.QualityScore)

	h.RecordUsage(c, len(req.Tasks), len(req.Employees))

	c.JSON(http.StatusOK, models.ScheduleResponse{
		Schedule: schedule,
		Success:  !schedule.Metadata.Rejected,
	})
}

// RecordUsage records API usage in the database using an efficient upsert
func (h *Handler) RecordUsage(c *gin.Context, taskCount, employeeCount int) {
	apiKeyRaw, exists := c.Get("apiKey")
	if !exists {
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	today := time.Now().Format("2006-01-02")

	h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count":   gorm.Expr("request_count + ?", 1),
			"total_tasks":     gorm.Expr("total_tasks + ?", taskCount),
			"total_employees": gorm.Expr("total_employees + ?", employeeCount),
		}),
	}).Create(&database.APIUsage{
		KeyID:          apiKey.ID,
		Date:           today,
		RequestCount:   1,
		TotalTasks:     taskCount,
		TotalEmployees: employeeCount,
	})
}

// Login authenticates an admin and returns a JWT
func (h *Handler) Login(c *gin.Context) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}

	var user database.MasterUser
	if err := h.DB.Where("username = ?", creds.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if !auth.CheckPasswordHash(creds.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := auth.CreateToken(user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// GenerateKey creates a new HMAC-signed API key for a user
func (h *Handler) GenerateKey(c *gin.Context) {
	var body struct {
		UserID    string `json:"user_id" binding:"required"`
		RateLimit int    `json:"rate_limit"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := auth.GenerateHMACKey(body.UserID)
	rateLimit := body.RateLimit
	if rateLimit <= 0 {
		rateLimit = 10000
	}

	record := database.APIKey{Key: key, Name: body.UserID, RateLimit: rateLimit}
	if err := h.DB.Create(&record).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Key already exists for this user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "user_id": body.UserID, "rate_limit": rateLimit})
}

// ListKeys returns all API keys
func (h *Handler) ListKeys(c *gin.Context) {
	var keys []database.APIKey
	if err := h.DB.Order("created_at desc").Find(&keys).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not list keys"})
		return
	}
	c.JSON(http.StatusOK, keys)
}

// UpdateKeyLimit updates the rate limit of a key
func (h *Handler) UpdateKeyLimit(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid key id"})
		return
	}

	var body struct {
		RateLimit int `json:"rate_limit" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.DB.Model(&database.APIKey{}).Where("id = ?", id).Update("rate_limit", body.RateLimit)
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "key not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "rate_limit": body.RateLimit})
}

// RevokeKey deletes an API key
func (h *Handler) RevokeKey(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid key id"})
		return
	}

	result := h.DB.Delete(&database.APIKey{}, id)
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "key not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetUsage returns usage history for one key (admin view)
func (h *Handler) GetUsage(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid key id"})
		return
	}

	var usage []database.APIUsage
	if err := h.DB.Where("key_id = ?", id).Order("date desc").Limit(90).Find(&usage).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch usage"})
		return
	}
	c.JSON(http.StatusOK, usage)
}

// ListRuns returns recent persisted schedule runs (admin view)
func (h *Handler) ListRuns(c *gin.Context) {
	var runs []database.ScheduleRun
	if err := h.DB.Order("created_at desc").Limit(50).Find(&runs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch runs"})
		return
	}
	c.JSON(http.StatusOK, runs)
}
