package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dorm-allocation-backend/internal/model"
)

type submitFeedbackRequest struct {
	StudentID               string `json:"student_id" binding:"required"`
	AllocationID            int64  `json:"allocation_id"`
	RoommateSatisfaction    int    `json:"roommate_satisfaction" binding:"required"`
	EnvironmentSatisfaction int    `json:"environment_satisfaction" binding:"required"`
	OverallSatisfaction     int    `json:"overall_satisfaction" binding:"required"`
	Content                 string `json:"content"`
}

// PostFeedback handles POST /api/feedback. A stored record triggers the
// weight adaptation policy.
func (h *Handler) PostFeedback(c *gin.Context) {
	var req submitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fb := model.AllocationFeedback{
		StudentID:               req.StudentID,
		AllocationID:            req.AllocationID,
		RoommateSatisfaction:    req.RoommateSatisfaction,
		EnvironmentSatisfaction: req.EnvironmentSatisfaction,
		OverallSatisfaction:     req.OverallSatisfaction,
		Content:                 req.Content,
	}

	if err := h.feedback.SubmitFeedback(c.Request.Context(), &fb); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"accepted":   true,
		"feedbackId": fb.ID,
	})
}

// GetFeedbackStatistics handles GET /api/feedback/statistics.
func (h *Handler) GetFeedbackStatistics(c *gin.Context) {
	stats, err := h.feedback.Statistics(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
