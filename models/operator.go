package models

import (
	"time"
)

// Operator records a chat that proved knowledge of the master's secret phone.
// It replaces a process-wide "master chat" variable: notifications go to every
// registered chat and operator commands are only accepted from them.
type Operator struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ChatID       int64     `gorm:"uniqueIndex;not null" json:"chatId"`
	SecretHash   string    `gorm:"not null" json:"-"`
	RegisteredAt time.Time `json:"registeredAt"`
}
