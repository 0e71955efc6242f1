package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salonbot-backend/config"
	"salonbot-backend/repository"
	"salonbot-backend/utils"
)

var (
	ErrDateNotOffered   = errors.New("date is not offered")
	ErrNoSlotsAvailable = errors.New("no slots available")

	ErrInvalidDate = utils.ErrInvalidDate
	ErrInvalidTime = utils.ErrInvalidTime
)

// Availability decides which dates and slot times can be offered. It only
// reads from the store; the final word on a slot belongs to the commit.
type Availability struct {
	rules  config.BookingRules
	reader repository.AvailabilityReader
	now    func() time.Time
}

func NewAvailability(rules config.BookingRules, reader repository.AvailabilityReader) *Availability {
	return &Availability{rules: rules, reader: reader, now: time.Now}
}

// SetClock replaces the wall clock, for tests and replays.
func (a *Availability) SetClock(now func() time.Time) {
	a.now = now
}

func (a *Availability) Rules() config.BookingRules {
	return a.rules
}

// Today returns the current calendar day in the salon's zone.
func (a *Availability) Today() string {
	return utils.FormatDate(a.now().In(a.rules.Location))
}

func (a *Availability) Location() *time.Location {
	return a.rules.Location
}

// candidateDays lists business days from today through the end of the
// booking window.
func (a *Availability) candidateDays() []string {
	today := utils.BeginningOfDay(a.now().In(a.rules.Location))
	days := make([]string, 0, a.rules.WindowDays)
	for i := 0; i < a.rules.WindowDays; i++ {
		day := today.AddDate(0, 0, i)
		if a.rules.IsBusinessDay(day) {
			days = append(days, utils.FormatDate(day))
		}
	}
	return days
}

// OfferedDates returns the candidate days whose count of active reservations
// is below the daily capacity, in ascending order.
func (a *Availability) OfferedDates(ctx context.Context) ([]string, error) {
	days := a.candidateDays()
	if len(days) == 0 {
		return nil, nil
	}
	counts, err := a.reader.CountActiveByDates(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("count reservations: %w", err)
	}

	offered := make([]string, 0, len(days))
	for _, d := range days {
		if counts[d] < a.rules.DailyCapacity {
			offered = append(offered, d)
		}
	}
	return offered, nil
}

// CheckDate parses a date in either accepted format and reports
// ErrDateNotOffered unless it is currently offered. The ISO form is returned.
func (a *Availability) CheckDate(ctx context.Context, input string) (string, error) {
	t, err := utils.ParseDate(input, a.rules.Location)
	if err != nil {
		return "", err
	}
	date := utils.FormatDate(t)

	offered, err := a.OfferedDates(ctx)
	if err != nil {
		return "", err
	}
	for _, d := range offered {
		if d == date {
			return date, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrDateNotOffered, date)
}

// OfferedTimes returns the schedule times on date that no active reservation
// holds. For today, slots that have already started are left out; past days
// have none. An empty result is reported as ErrNoSlotsAvailable.
func (a *Availability) OfferedTimes(ctx context.Context, date string) ([]string, error) {
	now := a.now().In(a.rules.Location)
	if date < utils.FormatDate(now) {
		return nil, fmt.Errorf("%w on %s", ErrNoSlotsAvailable, date)
	}

	busy, err := a.reader.BusyTimes(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("busy times for %s: %w", date, err)
	}
	taken := make(map[string]bool, len(busy))
	for _, t := range busy {
		taken[t] = true
	}

	cutoff := ""
	if date == utils.FormatDate(now) {
		cutoff = now.Format(utils.ClockLayout)
	}

	free := make([]string, 0, len(a.rules.SlotTimes))
	for _, t := range a.rules.SlotTimes {
		if taken[t] || (cutoff != "" && t <= cutoff) {
			continue
		}
		free = append(free, t)
	}
	if len(free) == 0 {
		return nil, fmt.Errorf("%w on %s", ErrNoSlotsAvailable, date)
	}
	return free, nil
}

// HasStarted reports whether the slot at date and clock is no longer in the
// future.
func (a *Availability) HasStarted(date, clock string) bool {
	now := a.now().In(a.rules.Location)
	return date+" "+clock <= now.Format(utils.DateLayout+" "+utils.ClockLayout)
}

// IsSlotFree is the fresh exact check made right before a time is accepted.
func (a *Availability) IsSlotFree(ctx context.Context, date, clock string) (bool, error) {
	free, err := a.OfferedTimes(ctx, date)
	if errors.Is(err, ErrNoSlotsAvailable) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	for _, t := range free {
		if t == clock {
			return true, nil
		}
	}
	return false, nil
}
