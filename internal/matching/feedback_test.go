package matching

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"dorm-allocation-backend/internal/model"
)

func weightRow(t *testing.T, db *gorm.DB, weightType string) *model.AlgorithmWeight {
	t.Helper()
	var row model.AlgorithmWeight
	err := db.First(&row, "weight_type = ?", weightType).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	require.NoError(t, err)
	return &row
}

func TestSubmitFeedbackLowSatisfaction(t *testing.T) {
	s, db := newTestStore(t)
	fl := NewFeedbackLoop(s)

	err := fl.SubmitFeedback(context.Background(), &model.AllocationFeedback{
		StudentID:               "s1",
		RoommateSatisfaction:    2,
		EnvironmentSatisfaction: 2,
		OverallSatisfaction:     2,
		Content:                 "室友作息完全不合",
	})
	require.NoError(t, err)

	questionnaire := weightRow(t, db, model.WeightQuestionnaire)
	require.NotNil(t, questionnaire)
	assert.InDelta(t, 0.3, questionnaire.WeightValue, 1e-9)
	assert.True(t, questionnaire.Enabled)

	major := weightRow(t, db, model.WeightMajor)
	require.NotNil(t, major)
	assert.InDelta(t, 0.5, major.WeightValue, 1e-9)

	var count int64
	require.NoError(t, db.Model(&model.AllocationFeedback{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

// Repeated submissions must overwrite, not duplicate, the weight rows.
func TestSubmitFeedbackUpsertsExistingWeights(t *testing.T) {
	s, db := newTestStore(t)
	fl := NewFeedbackLoop(s)

	low := &model.AllocationFeedback{StudentID: "s1", RoommateSatisfaction: 1, EnvironmentSatisfaction: 1, OverallSatisfaction: 1}
	require.NoError(t, fl.SubmitFeedback(context.Background(), low))

	high := &model.AllocationFeedback{StudentID: "s2", RoommateSatisfaction: 5, EnvironmentSatisfaction: 5, OverallSatisfaction: 5}
	require.NoError(t, fl.SubmitFeedback(context.Background(), high))

	var count int64
	require.NoError(t, db.Model(&model.AlgorithmWeight{}).
		Where("weight_type = ?", model.WeightQuestionnaire).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)

	questionnaire := weightRow(t, db, model.WeightQuestionnaire)
	require.NotNil(t, questionnaire)
	assert.InDelta(t, 0.6, questionnaire.WeightValue, 1e-9)
}

func TestSubmitFeedbackHighSatisfaction(t *testing.T) {
	s, db := newTestStore(t)
	fl := NewFeedbackLoop(s)

	err := fl.SubmitFeedback(context.Background(), &model.AllocationFeedback{
		StudentID:               "s1",
		RoommateSatisfaction:    5,
		EnvironmentSatisfaction: 4,
		OverallSatisfaction:     5,
	})
	require.NoError(t, err)

	questionnaire := weightRow(t, db, model.WeightQuestionnaire)
	require.NotNil(t, questionnaire)
	assert.InDelta(t, 0.6, questionnaire.WeightValue, 1e-9)

	// The high band leaves the major weight alone.
	assert.Nil(t, weightRow(t, db, model.WeightMajor))
}

func TestSubmitFeedbackMiddleBandIsNoOp(t *testing.T) {
	s, db := newTestStore(t)
	fl := NewFeedbackLoop(s)

	err := fl.SubmitFeedback(context.Background(), &model.AllocationFeedback{
		StudentID:               "s1",
		RoommateSatisfaction:    3,
		EnvironmentSatisfaction: 3,
		OverallSatisfaction:     4,
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&model.AlgorithmWeight{}).Count(&count).Error)
	assert.Zero(t, count)

	require.NoError(t, db.Model(&model.AllocationFeedback{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSubmitFeedbackValidation(t *testing.T) {
	s, db := newTestStore(t)
	fl := NewFeedbackLoop(s)

	tests := []struct {
		name  string
		fb    model.AllocationFeedback
		field string
	}{
		{"roommate too low", model.AllocationFeedback{RoommateSatisfaction: 0, EnvironmentSatisfaction: 3, OverallSatisfaction: 3}, "roommateSatisfaction"},
		{"environment too high", model.AllocationFeedback{RoommateSatisfaction: 3, EnvironmentSatisfaction: 6, OverallSatisfaction: 3}, "environmentSatisfaction"},
		{"overall negative", model.AllocationFeedback{RoommateSatisfaction: 3, EnvironmentSatisfaction: 3, OverallSatisfaction: -1}, "overallSatisfaction"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fl.SubmitFeedback(context.Background(), &tt.fb)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}

	// Nothing persisted on rejection.
	var count int64
	require.NoError(t, db.Model(&model.AllocationFeedback{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestFeedbackStatistics(t *testing.T) {
	s, _ := newTestStore(t)
	fl := NewFeedbackLoop(s)

	submissions := []model.AllocationFeedback{
		{StudentID: "s1", RoommateSatisfaction: 5, EnvironmentSatisfaction: 5, OverallSatisfaction: 5},
		{StudentID: "s2", RoommateSatisfaction: 3, EnvironmentSatisfaction: 3, OverallSatisfaction: 3},
		{StudentID: "s3", RoommateSatisfaction: 1, EnvironmentSatisfaction: 2, OverallSatisfaction: 2},
	}
	for i := range submissions {
		require.NoError(t, fl.SubmitFeedback(context.Background(), &submissions[i]))
	}

	stats, err := fl.Statistics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalFeedbacks)
	assert.InDelta(t, 3.0, stats.AverageRoommateSatisfaction, 1e-9)
	assert.InDelta(t, 10.0/3.0, stats.AverageEnvironmentSatisfaction, 1e-9)
	assert.InDelta(t, 10.0/3.0, stats.AverageOverallSatisfaction, 1e-9)

	assert.Equal(t, 1, stats.SatisfactionDistribution["5分"])
	assert.Equal(t, 1, stats.SatisfactionDistribution["3分"])
	assert.Equal(t, 1, stats.SatisfactionDistribution["1分"])

	// The low submission moved weights, visible in the snapshot.
	assert.InDelta(t, 0.3, stats.CurrentWeights[model.WeightQuestionnaire], 1e-9)
	assert.InDelta(t, 0.5, stats.CurrentWeights[model.WeightMajor], 1e-9)
}

func TestFeedbackStatisticsEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	fl := NewFeedbackLoop(s)

	stats, err := fl.Statistics(context.Background())
	require.NoError(t, err)

	assert.Zero(t, stats.TotalFeedbacks)
	assert.Empty(t, stats.SatisfactionDistribution)
	assert.InDelta(t, 0.15, stats.CurrentWeights[model.WeightTag], 1e-9)
	assert.InDelta(t, 0.35, stats.CurrentWeights[model.WeightMajor], 1e-9)
	assert.InDelta(t, 0.20, stats.CurrentWeights[model.WeightBedType], 1e-9)
}
