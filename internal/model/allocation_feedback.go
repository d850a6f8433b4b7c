package model

import "time"

// AllocationFeedback is a post-allocation satisfaction survey record.
// Satisfaction values are 1-5. Submission triggers weight adaptation.
type AllocationFeedback struct {
	ID                      int64     `gorm:"autoIncrement;primaryKey" json:"id"`
	StudentID               string    `gorm:"index;size:32;not null" json:"studentId"`
	AllocationID            int64     `gorm:"index" json:"allocationId"`
	RoommateSatisfaction    int       `gorm:"not null" json:"roommateSatisfaction"`
	EnvironmentSatisfaction int       `gorm:"not null" json:"environmentSatisfaction"`
	OverallSatisfaction     int       `gorm:"not null" json:"overallSatisfaction"`
	Content                 string    `gorm:"size:1024" json:"content"`
	FeedbackTime            time.Time `gorm:"not null" json:"feedbackTime"`
	CreatedAt               time.Time `json:"-"`
}
