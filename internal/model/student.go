package model

// Gender values used across students and allocation constraints.
const (
	GenderMale   = "M"
	GenderFemale = "F"
)

// Student represents a resident supplied by the student directory.
// The allocation core treats students as read-only.
type Student struct {
	ID      string `gorm:"primaryKey;size:32" json:"id"`
	Name    string `gorm:"size:64;not null" json:"name"`
	Gender  string `gorm:"size:1;not null" json:"gender"`
	College string `gorm:"size:128" json:"college"`
	Major   string `gorm:"size:128;not null" json:"major"`
	Grade   string `gorm:"size:16" json:"grade"`
	Status  string `gorm:"size:16" json:"status"`
}
