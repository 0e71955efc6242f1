package conversation

import (
	"errors"

	"salonbot-backend/models"
)

// State is a step of the booking dialogue.
type State string

const (
	StateStart     State = "START"
	StateService   State = "SERVICE"
	StateDate      State = "DATE"
	StateTime      State = "TIME"
	StateName      State = "NAME"
	StatePhone     State = "PHONE"
	StateConfirm   State = "CONFIRM"
	StateDone      State = "DONE"
	StateCancelled State = "CANCELLED"
)

// Terminal states end the session.
func (s State) Terminal() bool {
	return s == StateDone || s == StateCancelled
}

// ErrSlotNoLongerAvailable means the chosen time was taken after it was offered.
var ErrSlotNoLongerAvailable = errors.New("slot no longer available")

const maxNameRunes = 64

// Session is the in-progress booking of one chat. It lives only in memory and
// is dropped once the dialogue reaches a terminal state.
type Session struct {
	ID      string
	State   State
	Service models.ServiceSnapshot
	Date    string
	Time    string
	Name    string
	Phone   string
}

func (s *Session) reset() {
	s.Service = models.ServiceSnapshot{}
	s.Date = ""
	s.Time = ""
	s.Name = ""
	s.Phone = ""
}

func (s *Session) candidate() models.ReservationCandidate {
	return models.ReservationCandidate{
		Service:   s.Service,
		Date:      s.Date,
		Time:      s.Time,
		Name:      s.Name,
		Phone:     s.Phone,
		SessionID: s.ID,
	}
}
