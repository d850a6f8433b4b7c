package model

import "time"

// Dormitory represents a single dorm room owning a set of beds.
type Dormitory struct {
	ID               string    `gorm:"primaryKey;size:32" json:"id"`
	Name             string    `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Building         string    `gorm:"size:128" json:"building"`
	RoomNumber       int       `json:"roomNumber"`
	BedCount         int       `gorm:"not null" json:"bedCount"`
	CurrentOccupancy int       `gorm:"not null" json:"currentOccupancy"`
	Status           string    `gorm:"size:16" json:"status"`
	CreatedAt        time.Time `gorm:"not null" json:"-"`
	UpdatedAt        time.Time `gorm:"not null" json:"-"`

	// Associations
	Beds []Bed `gorm:"foreignKey:DormitoryID" json:"-"`
}
