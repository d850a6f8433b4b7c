package model

import "time"

// RoommateTag is a lifestyle descriptor attached to a student, either
// generated from questionnaire answers or picked manually. Read-only
// input to compatibility scoring.
type RoommateTag struct {
	ID        int64     `gorm:"autoIncrement;primaryKey" json:"id"`
	StudentID string    `gorm:"index;size:32;not null" json:"studentId"`
	TagName   string    `gorm:"size:64;not null" json:"tagName"`
	CreatedAt time.Time `json:"-"`
}
