package repository

import "errors"

var (
	// ErrSlotConflict is returned when another active reservation already holds the date and time.
	ErrSlotConflict = errors.New("slot already booked")
	// ErrNotFound is returned when a reservation, customer or operator does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidCandidate is returned when a reservation candidate is incomplete or malformed.
	ErrInvalidCandidate = errors.New("invalid reservation candidate")
)
