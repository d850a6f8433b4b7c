package matching

import (
	"context"
	"fmt"
	"time"

	"dorm-allocation-backend/internal/model"
	"dorm-allocation-backend/internal/store"
)

// FeedbackLoop consumes submitted satisfaction surveys and steps the
// weight table between fixed bands. The policy is a deliberate
// three-bucket step function, not a gradient update.
type FeedbackLoop struct {
	store store.Store
}

// NewFeedbackLoop creates a feedback loop backed by the given store.
func NewFeedbackLoop(s store.Store) *FeedbackLoop {
	return &FeedbackLoop{store: s}
}

// SubmitFeedback validates and persists a feedback record, then adjusts
// the scoring weights from its average satisfaction.
func (fl *FeedbackLoop) SubmitFeedback(ctx context.Context, fb *model.AllocationFeedback) error {
	if err := validateSatisfaction("roommateSatisfaction", fb.RoommateSatisfaction); err != nil {
		return err
	}
	if err := validateSatisfaction("environmentSatisfaction", fb.EnvironmentSatisfaction); err != nil {
		return err
	}
	if err := validateSatisfaction("overallSatisfaction", fb.OverallSatisfaction); err != nil {
		return err
	}

	fb.FeedbackTime = time.Now().UTC()
	if err := fl.store.InsertFeedback(ctx, fb); err != nil {
		return &PersistenceError{Op: "insert feedback", Err: err}
	}

	return fl.adjustWeights(ctx, fb)
}

func validateSatisfaction(field string, value int) error {
	if value < 1 || value > 5 {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("must be between 1 and 5, got %d", value)}
	}
	return nil
}

// adjustWeights applies the satisfaction-threshold policy:
// avg < 3 lowers the questionnaire weight and raises the major weight,
// avg > 4 raises the questionnaire weight, the middle band is a no-op.
func (fl *FeedbackLoop) adjustWeights(ctx context.Context, fb *model.AllocationFeedback) error {
	avg := float64(fb.RoommateSatisfaction+fb.EnvironmentSatisfaction+fb.OverallSatisfaction) / 3.0

	switch {
	case avg < 3.0:
		if err := fl.store.UpsertWeight(ctx, model.WeightQuestionnaire, 0.3); err != nil {
			return &PersistenceError{Op: "upsert weight", Err: err}
		}
		if err := fl.store.UpsertWeight(ctx, model.WeightMajor, 0.5); err != nil {
			return &PersistenceError{Op: "upsert weight", Err: err}
		}
	case avg > 4.0:
		if err := fl.store.UpsertWeight(ctx, model.WeightQuestionnaire, 0.6); err != nil {
			return &PersistenceError{Op: "upsert weight", Err: err}
		}
	}
	return nil
}

// FeedbackStatistics aggregates all submitted feedback.
type FeedbackStatistics struct {
	TotalFeedbacks                 int                `json:"totalFeedbacks"`
	AverageRoommateSatisfaction    float64            `json:"averageRoommateSatisfaction"`
	AverageEnvironmentSatisfaction float64            `json:"averageEnvironmentSatisfaction"`
	AverageOverallSatisfaction     float64            `json:"averageOverallSatisfaction"`
	SatisfactionDistribution       map[string]int     `json:"satisfactionDistribution"`
	CurrentWeights                 map[string]float64 `json:"currentWeights"`
}

// Statistics summarizes submitted feedback and the current weight table.
func (fl *FeedbackLoop) Statistics(ctx context.Context) (*FeedbackStatistics, error) {
	feedbacks, err := fl.store.ListFeedback(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list feedback", Err: err}
	}

	weights, err := CurrentWeights(ctx, fl.store)
	if err != nil {
		return nil, err
	}

	stats := &FeedbackStatistics{
		TotalFeedbacks:           len(feedbacks),
		SatisfactionDistribution: make(map[string]int),
		CurrentWeights:           weights,
	}
	if len(feedbacks) == 0 {
		return stats, nil
	}

	var roommateSum, environmentSum, overallSum int
	for _, fb := range feedbacks {
		roommateSum += fb.RoommateSatisfaction
		environmentSum += fb.EnvironmentSatisfaction
		overallSum += fb.OverallSatisfaction

		bucket := (fb.RoommateSatisfaction + fb.EnvironmentSatisfaction + fb.OverallSatisfaction) / 3
		stats.SatisfactionDistribution[fmt.Sprintf("%d分", bucket)]++
	}

	total := float64(len(feedbacks))
	stats.AverageRoommateSatisfaction = float64(roommateSum) / total
	stats.AverageEnvironmentSatisfaction = float64(environmentSum) / total
	stats.AverageOverallSatisfaction = float64(overallSum) / total
	return stats, nil
}
