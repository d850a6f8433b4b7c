package model

import "time"

// Bed types. Lower bunks are filled before upper bunks during allocation.
const (
	BedTypeLower = "LOWER"
	BedTypeUpper = "UPPER"
)

// Bed statuses.
const (
	BedStatusAvailable = "AVAILABLE"
	BedStatusOccupied  = "OCCUPIED"
)

// Bed represents a single bed inside a dormitory.
type Bed struct {
	ID          string    `gorm:"primaryKey;size:32" json:"id"`
	DormitoryID string    `gorm:"index;size:32;not null" json:"dormitoryId"`
	BedNumber   int       `json:"bedNumber"`
	BedType     string    `gorm:"size:8;not null" json:"bedType"`
	Status      string    `gorm:"size:16;not null" json:"status"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`

	// Associations
	Dormitory Dormitory `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
