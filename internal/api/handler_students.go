package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetSuggestions handles GET /api/students/{student_id}/suggestions.
func (h *Handler) GetSuggestions(c *gin.Context) {
	studentID := c.Param("student_id")

	limit := h.suggestionLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	suggestions, err := h.engine.SuggestRoommates(c.Request.Context(), studentID, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// GetStudentAllocation handles GET /api/students/{student_id}/allocation:
// the student's current ACTIVE allocation, if any.
func (h *Handler) GetStudentAllocation(c *gin.Context) {
	studentID := c.Param("student_id")

	alloc, err := h.store.ActiveAllocationForStudent(c.Request.Context(), studentID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if alloc == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no active allocation"})
		return
	}

	c.JSON(http.StatusOK, alloc)
}

// GetStudentFeedback handles GET /api/students/{student_id}/feedback.
func (h *Handler) GetStudentFeedback(c *gin.Context) {
	studentID := c.Param("student_id")

	feedbacks, err := h.store.ListFeedbackByStudent(c.Request.Context(), studentID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"feedbacks": feedbacks})
}
