package conversation

import "strings"

type EventKind string

const (
	KindCommand EventKind = "command"
	KindText    EventKind = "text"
	KindChoice  EventKind = "choice"
)

// Event is one input from the chat transport. Name is set for commands;
// Payload carries command arguments, typed text or a choice payload.
type Event struct {
	Kind    EventKind
	Name    string
	Payload string
}

const (
	CommandStart      = "start"
	CommandBook       = "book"
	CommandCancel     = "cancel"
	CommandMyBookings = "my_bookings"
)

// Choice payloads that are not data values.
const (
	ActionBook    = "book"
	ActionBack    = "back"
	ActionConfirm = "confirm"
	ActionEdit    = "edit"
	ActionCancel  = "cancel"
)

var actionWords = map[string]string{
	"назад":       ActionBack,
	"отмена":      ActionCancel,
	"отменить":    ActionCancel,
	"да":          ActionConfirm,
	"подтвердить": ActionConfirm,
	"изменить":    ActionEdit,
	"записаться":  ActionBook,
}

func Command(name, args string) Event {
	return Event{Kind: KindCommand, Name: strings.ToLower(name), Payload: strings.TrimSpace(args)}
}

func Text(text string) Event {
	return Event{Kind: KindText, Payload: text}
}

func ChoiceEvent(payload string) Event {
	return Event{Kind: KindChoice, Payload: payload}
}

// action maps the event to one of the Action constants, or "" when it carries
// data. Typed Russian words count as actions too.
func (e Event) action() string {
	input := strings.ToLower(strings.TrimSpace(e.Payload))
	switch e.Kind {
	case KindChoice:
		switch input {
		case ActionBook, ActionBack, ActionConfirm, ActionEdit, ActionCancel:
			return input
		}
	case KindText:
		return actionWords[strings.Trim(input, ".!")]
	}
	return ""
}

// Choice is one button offered with a reply.
type Choice struct {
	Label   string
	Payload string
}

// Reply is what the transport shows after an event was handled.
type Reply struct {
	Text    string
	Choices [][]Choice
	State   State
}
