package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"dorm-allocation-backend/internal/store"
)

type allocateBatchRequest struct {
	StudentIDs []string `json:"student_ids" binding:"required"`
}

// PostAllocations handles the POST /api/allocations request: one batch
// allocation run over the given student IDs.
func (h *Handler) PostAllocations(c *gin.Context) {
	var req allocateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.engine.AllocateBatch(c.Request.Context(), req.StudentIDs)
	if err != nil {
		abortWithError(c, err)
		return
	}

	// Committed assignments trigger a push to the student, best effort.
	for _, alloc := range result.Allocations {
		h.pool.Dispatch(alloc.StudentID)
	}

	c.JSON(http.StatusOK, gin.H{
		"allocations":      result.Allocations,
		"unallocated":      result.Unallocated,
		"totalAllocated":   len(result.Allocations),
		"totalUnallocated": len(result.Unallocated),
	})
}

// PostCheckout handles POST /api/allocations/{id}/checkout: it ends an
// ACTIVE allocation and releases its bed.
func (h *Handler) PostCheckout(c *gin.Context) {
	allocationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid allocation ID"})
		return
	}

	alloc, err := h.store.GetAllocation(c.Request.Context(), allocationID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if alloc == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "allocation not found"})
		return
	}

	if err := h.store.EndAllocation(c.Request.Context(), allocationID, time.Now().UTC()); err != nil {
		if errors.Is(err, store.ErrAllocationNotActive) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}
