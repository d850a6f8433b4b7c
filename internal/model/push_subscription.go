package model

import "time"

// PushSubscription holds the information for a browser push subscription.
// Each subscription belongs to one student and receives that student's
// allocation results.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	StudentID string    `gorm:"index;size:32;not null"`
	CreatedAt time.Time `gorm:"not null"`
}
