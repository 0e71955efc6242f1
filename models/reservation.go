package models

import (
	"time"
)

type ReservationStatus string

const (
	StatusActive    ReservationStatus = "active"
	StatusCancelled ReservationStatus = "cancelled"
)

// Reservation is a committed appointment. The service fields are a snapshot
// taken at booking time, not a reference into the catalog.
//
// Date is an ISO calendar day (2006-01-02) and Time a slot start (15:04), both
// in the salon's local zone. The partial unique index keeps at most one active
// reservation per slot.
type Reservation struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	ServiceKey  string            `gorm:"type:varchar(32);not null" json:"serviceKey"`
	ServiceName string            `gorm:"not null" json:"serviceName"`
	Price       int               `gorm:"not null" json:"price"`
	Duration    int               `gorm:"not null" json:"duration"`
	Date        string            `gorm:"type:varchar(10);not null;index;uniqueIndex:idx_active_slot,where:status = 'active'" json:"date"`
	Time        string            `gorm:"type:varchar(5);not null;uniqueIndex:idx_active_slot" json:"time"`
	ClientName  string            `gorm:"not null" json:"clientName"`
	Phone       string            `gorm:"type:varchar(16);not null;index" json:"phone"`
	Status      ReservationStatus `gorm:"type:varchar(16);not null;default:'active';index" json:"status"`
	Note        string            `gorm:"type:text" json:"note,omitempty"`
	SessionID   string            `gorm:"type:varchar(64)" json:"-"`
	CreatedAt   time.Time         `json:"createdAt"`
	CancelledAt *time.Time        `json:"cancelledAt,omitempty"`
}

func (r Reservation) IsActive() bool {
	return r.Status == StatusActive
}

// ReservationCandidate is the fully collected booking handed to the store on
// confirmation.
type ReservationCandidate struct {
	Service   ServiceSnapshot
	Date      string
	Time      string
	Name      string
	Phone     string
	Note      string
	SessionID string
}
