package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"dorm-allocation-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, rateLimitPerSec float64, cacheTTL time.Duration, ipHeader string) *gin.Engine {
	r := gin.Default()

	if rateLimitPerSec <= 0 {
		rateLimitPerSec = 10
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}

	rateLimiter := mw.RateLimiter(rate.Limit(rateLimitPerSec), 5, ipHeader)

	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	db := h.store.DB()

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Allocation engine surface
		api.POST("/allocations", h.PostAllocations)
		api.POST("/allocations/:id/checkout", h.PostCheckout)
		api.GET("/students/:student_id/suggestions", h.GetSuggestions)
		api.GET("/students/:student_id/allocation", h.GetStudentAllocation)
		api.GET("/students/:student_id/feedback", h.GetStudentFeedback)

		// Feedback loop surface
		api.POST("/feedback", h.PostFeedback)
		api.GET("/feedback/statistics", caching, h.GetFeedbackStatistics)
		api.GET("/weights", caching, h.GetWeights)

		// Read-only facility views
		api.GET("/dorms", caching, GetDorms(db))

		// Push subscriptions
		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
