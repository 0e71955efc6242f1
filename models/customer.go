package models

import (
	"time"
)

// Customer aggregates repeat-visit statistics for one canonical phone number.
// Rows are created by the first committed reservation and are never deleted.
type Customer struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Phone       string    `gorm:"type:varchar(16);uniqueIndex;not null" json:"phone"`
	Name        string    `gorm:"not null" json:"name"`
	TotalVisits int       `gorm:"default:0" json:"totalVisits"`
	TotalSpent  int       `gorm:"default:0" json:"totalSpent"`
	LastVisit   string    `gorm:"type:varchar(10)" json:"lastVisit"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
