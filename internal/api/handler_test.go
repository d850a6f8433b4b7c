package api

import (
	"bytes"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"dorm-allocation-backend/internal/matching"
	"dorm-allocation-backend/internal/model"
	"dorm-allocation-backend/internal/notification"
	"dorm-allocation-backend/internal/store"
)

func setupHandlerTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := filepath.Join(t.TempDir(), "api_test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Student{},
		&model.Dormitory{},
		&model.Bed{},
		&model.Allocation{},
		&model.RoommateTag{},
		&model.AlgorithmWeight{},
		&model.AllocationFeedback{},
		&model.PushSubscription{},
	))

	s := store.NewGormStore(db)
	scorer := matching.NewScorer(s, rand.New(rand.NewSource(1)))
	engine := matching.NewEngine(s, scorer, false)
	feedbackLoop := matching.NewFeedbackLoop(s)
	pool := notification.NewWorkerPool(4, db, &webpush.Options{})

	handler := NewHandler(s, engine, feedbackLoop, pool, &webpush.Options{VAPIDPublicKey: "test_public_key"}, 5)

	r := gin.New()
	r.POST("/api/allocations", handler.PostAllocations)
	r.POST("/api/allocations/:id/checkout", handler.PostCheckout)
	r.GET("/api/students/:student_id/suggestions", handler.GetSuggestions)
	r.GET("/api/students/:student_id/allocation", handler.GetStudentAllocation)
	r.GET("/api/students/:student_id/feedback", handler.GetStudentFeedback)
	r.POST("/api/feedback", handler.PostFeedback)
	r.GET("/api/dorms", GetDorms(db))
	r.GET("/api/subscriptions", handler.GetSubscription)
	r.PUT("/api/subscriptions", handler.PutSubscription)
	r.DELETE("/api/subscriptions", handler.DeleteSubscription)
	r.GET("/api/vapid_public_key", handler.GetVAPIDPublicKey)
	return r, db
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPostAllocationsBadRequest(t *testing.T) {
	router, _ := setupHandlerTest(t)

	w := doJSON(router, http.MethodPost, "/api/allocations", `{"student_ids": "not-a-list"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// An empty batch is rejected by the engine, same status.
	w = doJSON(router, http.MethodPost, "/api/allocations", `{"student_ids": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostFeedbackValidationMapsTo400(t *testing.T) {
	router, db := setupHandlerTest(t)

	w := doJSON(router, http.MethodPost, "/api/feedback",
		`{"student_id": "s1", "roommate_satisfaction": 9, "environment_satisfaction": 3, "overall_satisfaction": 3}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	require.NoError(t, db.Model(&model.AllocationFeedback{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPostFeedbackCreated(t *testing.T) {
	router, db := setupHandlerTest(t)

	w := doJSON(router, http.MethodPost, "/api/feedback",
		`{"student_id": "s1", "roommate_satisfaction": 4, "environment_satisfaction": 4, "overall_satisfaction": 3, "content": "还不错"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"accepted":true`)

	var count int64
	require.NoError(t, db.Model(&model.AllocationFeedback{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	w = doJSON(router, http.MethodGet, "/api/students/s1/feedback", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"roommateSatisfaction":4`)
}

func TestGetSuggestionsUnknownStudent(t *testing.T) {
	router, _ := setupHandlerTest(t)

	w := doJSON(router, http.MethodGet, "/api/students/ghost/suggestions", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSuggestionsInvalidLimit(t *testing.T) {
	router, _ := setupHandlerTest(t)

	w := doJSON(router, http.MethodGet, "/api/students/s1/suggestions?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetStudentAllocation(t *testing.T) {
	router, db := setupHandlerTest(t)

	w := doJSON(router, http.MethodGet, "/api/students/s1/allocation", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	alloc := model.Allocation{StudentID: "s1", DormitoryID: "R1", BedID: "b1", Status: model.AllocationActive}
	require.NoError(t, db.Create(&alloc).Error)

	w = doJSON(router, http.MethodGet, "/api/students/s1/allocation", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"bedId":"b1"`)
}

func TestPostCheckoutErrors(t *testing.T) {
	router, _ := setupHandlerTest(t)

	w := doJSON(router, http.MethodPost, "/api/allocations/not-a-number/checkout", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/api/allocations/9999/checkout", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetDorms(t *testing.T) {
	router, db := setupHandlerTest(t)

	require.NoError(t, db.Create(&model.Dormitory{ID: "R1", Name: "R1", Building: "紫荆6栋", RoomNumber: 302, BedCount: 2, Status: "NORMAL"}).Error)
	require.NoError(t, db.Create(&model.Bed{ID: "b1", DormitoryID: "R1", BedNumber: 1, BedType: model.BedTypeLower, Status: model.BedStatusOccupied}).Error)
	require.NoError(t, db.Create(&model.Bed{ID: "b2", DormitoryID: "R1", BedNumber: 2, BedType: model.BedTypeUpper, Status: model.BedStatusAvailable}).Error)

	w := doJSON(router, http.MethodGet, "/api/dorms", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"bedCount":2`)
	assert.Contains(t, w.Body.String(), `"occupiedBeds":1`)
}

func TestSubscriptionLifecycle(t *testing.T) {
	router, _ := setupHandlerTest(t)

	// Missing body
	w := doJSON(router, http.MethodPut, "/api/subscriptions", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Create
	w = doJSON(router, http.MethodPut, "/api/subscriptions",
		`{"endpoint": "https://example.com/push", "p256dh": "key", "auth": "auth", "student_id": "s1"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Replace with a new owner
	w = doJSON(router, http.MethodPut, "/api/subscriptions",
		`{"endpoint": "https://example.com/push", "p256dh": "key2", "auth": "auth2", "student_id": "s2"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(router, http.MethodGet, "/api/subscriptions?endpoint=https://example.com/push", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"student_id":"s2"}`, w.Body.String())

	// Delete
	w = doJSON(router, http.MethodDelete, "/api/subscriptions", `{"endpoint": "https://example.com/push"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(router, http.MethodGet, "/api/subscriptions?endpoint=https://example.com/push", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetVAPIDPublicKey(t *testing.T) {
	router, _ := setupHandlerTest(t)

	w := doJSON(router, http.MethodGet, "/api/vapid_public_key", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"public_key":"test_public_key"}`, w.Body.String())
}
