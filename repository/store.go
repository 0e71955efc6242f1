package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"salonbot-backend/models"
	"salonbot-backend/utils"
)

// AvailabilityReader is the read-only view the availability engine needs.
type AvailabilityReader interface {
	// CountActiveByDates returns the number of active reservations per date.
	// Dates without reservations are absent from the map.
	CountActiveByDates(ctx context.Context, dates []string) (map[string]int, error)
	// BusyTimes returns the slot times held by active reservations on date.
	BusyTimes(ctx context.Context, date string) ([]string, error)
}

// ReservationStore is the durable record of appointments. Commit is the only
// operation that creates reservations and it also updates the client
// directory in the same transaction.
type ReservationStore interface {
	AvailabilityReader

	Commit(ctx context.Context, candidate models.ReservationCandidate) (*models.Reservation, error)
	// Cancel moves an active reservation to cancelled. changed is false when
	// it was already cancelled.
	Cancel(ctx context.Context, id uint) (res *models.Reservation, changed bool, err error)
	Get(ctx context.Context, id uint) (*models.Reservation, error)
	// ListByPhone returns reservations in any status, newest first.
	ListByPhone(ctx context.Context, phone string) ([]models.Reservation, error)
	// ListByDate returns the day's reservations in any status ordered by time.
	ListByDate(ctx context.Context, date string) ([]models.Reservation, error)
	// ListActive returns every active reservation ordered by date then time.
	ListActive(ctx context.Context) ([]models.Reservation, error)
	// ListActiveFrom is ListActive restricted to dates on or after date.
	ListActiveFrom(ctx context.Context, date string) ([]models.Reservation, error)
}

// ClientDirectory exposes the repeat-client aggregates. Writes happen only
// inside ReservationStore.Commit.
type ClientDirectory interface {
	GetCustomer(ctx context.Context, phone string) (*models.Customer, error)
	ListCustomers(ctx context.Context) ([]models.Customer, error)
}

type OperatorStore interface {
	// SaveOperator registers a chat, replacing an earlier registration of the same chat.
	SaveOperator(ctx context.Context, op *models.Operator) error
	FindOperator(ctx context.Context, chatID int64) (*models.Operator, error)
	ListOperators(ctx context.Context) ([]models.Operator, error)
}

type ReminderLogStore interface {
	CreateReminderLog(ctx context.Context, entry *models.ReminderLog) error
	// WasReminded reports whether a reminder was successfully sent for the reservation.
	WasReminded(ctx context.Context, reservationID uint) (bool, error)
}

// Store bundles everything the application persists.
type Store interface {
	ReservationStore
	ClientDirectory
	OperatorStore
	ReminderLogStore
}

var canonicalPhone = regexp.MustCompile(`^\+7\d{10}$`)

// ValidateCandidate checks that a candidate is complete before it reaches storage.
func ValidateCandidate(c models.ReservationCandidate) error {
	switch {
	case strings.TrimSpace(c.Service.Name) == "":
		return fmt.Errorf("%w: service is empty", ErrInvalidCandidate)
	case c.Service.Price <= 0:
		return fmt.Errorf("%w: price must be positive", ErrInvalidCandidate)
	case c.Service.Duration <= 0:
		return fmt.Errorf("%w: duration must be positive", ErrInvalidCandidate)
	case strings.TrimSpace(c.Name) == "":
		return fmt.Errorf("%w: client name is empty", ErrInvalidCandidate)
	case !canonicalPhone.MatchString(c.Phone):
		return fmt.Errorf("%w: phone %q is not normalized", ErrInvalidCandidate, c.Phone)
	}
	if _, err := time.Parse(utils.DateLayout, c.Date); err != nil {
		return fmt.Errorf("%w: date %q", ErrInvalidCandidate, c.Date)
	}
	if clock, err := utils.ParseClock(c.Time); err != nil || clock != c.Time {
		return fmt.Errorf("%w: time %q", ErrInvalidCandidate, c.Time)
	}
	return nil
}

func newReservation(c models.ReservationCandidate, now time.Time) models.Reservation {
	return models.Reservation{
		ServiceKey:  c.Service.Key,
		ServiceName: c.Service.Name,
		Price:       c.Service.Price,
		Duration:    c.Service.Duration,
		Date:        c.Date,
		Time:        c.Time,
		ClientName:  strings.TrimSpace(c.Name),
		Phone:       c.Phone,
		Status:      models.StatusActive,
		Note:        c.Note,
		SessionID:   c.SessionID,
		CreatedAt:   now,
	}
}
