package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"dorm-allocation-backend/internal/matching"
	"dorm-allocation-backend/internal/notification"
	"dorm-allocation-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store           store.Store
	engine          *matching.Engine
	feedback        *matching.FeedbackLoop
	pool            *notification.WorkerPool
	webpush         *webpush.Options
	suggestionLimit int
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, engine *matching.Engine, feedback *matching.FeedbackLoop, pool *notification.WorkerPool, webpushOptions *webpush.Options, suggestionLimit int) *Handler {
	return &Handler{
		store:           s,
		engine:          engine,
		feedback:        feedback,
		pool:            pool,
		webpush:         webpushOptions,
		suggestionLimit: suggestionLimit,
	}
}

// abortWithError renders the core's typed errors as HTTP statuses.
func abortWithError(c *gin.Context, err error) {
	var (
		validationErr *matching.ValidationError
		notFoundErr   *matching.NotFoundError
		conflictErr   *matching.ConflictError
	)
	switch {
	case errors.As(err, &validationErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.As(err, &notFoundErr):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	case errors.As(err, &conflictErr):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": conflictErr.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
