package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/staff-scheduler-go/pkg/models"
	"github.com/arnavshah/staff-scheduler-go/pkg/rules"
)

// ValidateInput checks a scheduling request without running it: the
// same pre-flight checks the orchestrator applies before any oracle call
func (h *Handler) ValidateInput(c *gin.Context) {
	var req models.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	if err := models.ValidateRequest(req); err != nil {
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	if req.Country != "" {
		if _, ok := rules.Default().Lookup(req.Country); !ok {
			c.JSON(http.StatusOK, gin.H{
				"valid": false,
				"error": "unknown jurisdiction: " + req.Country,
			})
			return
		}
	}

	vacationTasks := 0
	for _, t := range req.Tasks {
		if t.IsVacation() {
			vacationTasks++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"task_count":     len(req.Tasks),
			"employee_count": len(req.Employees),
			"vacation_tasks": vacationTasks,
		},
	})
}
