package model

import "time"

// Weight type keys recognized by the scorer and the feedback loop.
const (
	WeightTag           = "TAG"
	WeightMajor         = "MAJOR"
	WeightBedType       = "BED_TYPE"
	WeightQuestionnaire = "QUESTIONNAIRE"
)

// AlgorithmWeight is one named coefficient of the compatibility scorer.
// At most one row per WeightType is authoritative; absent or disabled
// types fall back to hard-coded defaults.
type AlgorithmWeight struct {
	ID          int64     `gorm:"autoIncrement;primaryKey" json:"id"`
	WeightType  string    `gorm:"uniqueIndex;size:32;not null" json:"weightType"`
	WeightValue float64   `gorm:"not null" json:"weightValue"`
	Enabled     bool      `gorm:"not null" json:"enabled"`
	Description string    `gorm:"size:256" json:"description"`
	CreatedAt   time.Time `gorm:"not null" json:"-"`
	LastUpdated time.Time `gorm:"not null" json:"lastUpdated"`
}
