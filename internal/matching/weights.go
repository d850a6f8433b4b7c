package matching

import (
	"context"

	"dorm-allocation-backend/internal/model"
	"dorm-allocation-backend/internal/store"
)

// Defaults used when a weight type is absent from the store or disabled.
// QUESTIONNAIRE deliberately has no default: the feedback loop writes it,
// but the scorer never reads it, so an untouched store leaves it out of
// the map entirely.
var defaultWeights = map[string]float64{
	model.WeightTag:     0.15,
	model.WeightMajor:   0.35,
	model.WeightBedType: 0.20,
}

// CurrentWeights returns the defaults merged with every enabled weight
// row. Enabled rows override defaults; disabled rows are ignored.
func CurrentWeights(ctx context.Context, s store.Store) (map[string]float64, error) {
	weights := make(map[string]float64, len(defaultWeights))
	for k, v := range defaultWeights {
		weights[k] = v
	}

	rows, err := s.ListEnabledWeights(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list weights", Err: err}
	}
	for _, row := range rows {
		weights[row.WeightType] = row.WeightValue
	}
	return weights, nil
}
