package model

import "time"

// Allocation statuses. A student holds at most one ACTIVE allocation.
const (
	AllocationActive = "ACTIVE"
	AllocationEnded  = "ENDED"
)

// Allocation binds a student to a bed with a lifecycle status.
type Allocation struct {
	ID           int64      `gorm:"autoIncrement;primaryKey" json:"id"`
	StudentID    string     `gorm:"index;size:32;not null" json:"studentId"`
	DormitoryID  string     `gorm:"index;size:32;not null" json:"dormitoryId"`
	BedID        string     `gorm:"index;size:32;not null" json:"bedId"`
	CheckInDate  time.Time  `gorm:"not null" json:"checkInDate"`
	CheckOutDate *time.Time `json:"checkOutDate,omitempty"`
	Status       string     `gorm:"size:16;not null;index" json:"status"`
	CreatedAt    time.Time  `json:"-"`
	UpdatedAt    time.Time  `json:"-"`
}
