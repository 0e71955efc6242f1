package conversation

import (
	"context"
	"fmt"
	"sync"

	"salonbot-backend/repository"
	"salonbot-backend/services"
	"salonbot-backend/utils"

	"go.uber.org/zap"
)

type sessionSlot struct {
	mu      sync.Mutex
	session *Session
	refs    int // guarded by Manager.mu
}

// Manager owns every chat's booking session and runs the state machine.
// Events for the same session are handled one at a time; different sessions
// proceed in parallel and only meet at the reservation commit.
type Manager struct {
	catalog      *services.Catalog
	availability *services.Availability
	store        repository.ReservationStore
	dispatcher   *services.Dispatcher
	logger       *zap.Logger

	mu    sync.Mutex
	slots map[string]*sessionSlot
}

func NewManager(catalog *services.Catalog, availability *services.Availability, store repository.ReservationStore, dispatcher *services.Dispatcher) *Manager {
	return &Manager{
		catalog:      catalog,
		availability: availability,
		store:        store,
		dispatcher:   dispatcher,
		logger:       utils.GetLogger(),
		slots:        make(map[string]*sessionSlot),
	}
}

// acquire returns the slot of sessionID, creating it if needed. Every call
// must be paired with release.
func (m *Manager) acquire(sessionID string) *sessionSlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[sessionID]
	if !ok {
		s = &sessionSlot{}
		m.slots[sessionID] = s
	}
	s.refs++
	return s
}

// release drops the slot once no caller uses it and the chat has no booking
// in progress, so idle chats do not accumulate.
func (m *Manager) release(sessionID string, s *sessionSlot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.refs--
	if s.refs > 0 {
		return
	}
	s.mu.Lock()
	idle := s.session == nil
	s.mu.Unlock()
	if idle {
		delete(m.slots, sessionID)
	}
}

// State returns the current state of a session, or false when the chat has no
// booking in progress.
func (m *Manager) State(sessionID string) (State, bool) {
	slot := m.acquire(sessionID)
	defer m.release(sessionID, slot)
	slot.mu.Lock()
	defer slot.mu.Unlock()
	if slot.session == nil {
		return "", false
	}
	return slot.session.State, true
}

// Handle advances sessionID by one event. Rejected input is answered with a
// reply; the error is reserved for infrastructure failures, in which case the
// session stays where it was.
func (m *Manager) Handle(ctx context.Context, sessionID string, ev Event) (Reply, error) {
	slot := m.acquire(sessionID)
	defer m.release(sessionID, slot)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if ev.Kind == KindCommand {
		return m.handleCommand(ctx, slot, sessionID, ev)
	}

	action := ev.action()
	if action == ActionCancel {
		return m.cancel(slot), nil
	}
	if slot.session == nil {
		if action == ActionBook {
			return m.begin(ctx, slot, sessionID)
		}
		return Reply{Text: msgNoSession, Choices: bookChoices(), State: StateStart}, nil
	}

	session := *slot.session
	step, ok := transitions[session.State]
	if !ok {
		return Reply{}, fmt.Errorf("session %s in state %s has no transition", sessionID, session.State)
	}
	reply, err := step(m, ctx, &session, ev)
	if err != nil {
		m.logger.Error("conversation step failed",
			zap.String("session_id", sessionID), zap.String("state", string(slot.session.State)), zap.Error(err))
		return Reply{}, err
	}
	m.keep(slot, &session)
	reply.State = session.State
	return reply, nil
}

// keep saves the stepped session, or drops it once it is finished.
func (m *Manager) keep(slot *sessionSlot, s *Session) {
	if s.State.Terminal() {
		slot.session = nil
		return
	}
	slot.session = s
}

func (m *Manager) handleCommand(ctx context.Context, slot *sessionSlot, sessionID string, ev Event) (Reply, error) {
	switch ev.Name {
	case CommandBook:
		return m.begin(ctx, slot, sessionID)
	case CommandCancel:
		return m.cancel(slot), nil
	case CommandStart:
		return Reply{Text: msgWelcome, Choices: bookChoices(), State: currentState(slot)}, nil
	case CommandMyBookings:
		reply, err := m.myBookings(ctx, ev.Payload)
		reply.State = currentState(slot)
		return reply, err
	default:
		return Reply{Text: msgUnknownCommand, State: currentState(slot)}, nil
	}
}

// begin starts a fresh session, replacing any booking in progress.
func (m *Manager) begin(ctx context.Context, slot *sessionSlot, sessionID string) (Reply, error) {
	session := &Session{ID: sessionID, State: StateStart}
	reply, err := transitions[StateStart](m, ctx, session, Event{})
	if err != nil {
		return Reply{}, err
	}
	m.keep(slot, session)
	reply.State = session.State
	return reply, nil
}

func (m *Manager) cancel(slot *sessionSlot) Reply {
	if slot.session == nil {
		return Reply{Text: msgNoneToCancel, Choices: bookChoices(), State: StateCancelled}
	}
	m.logger.Debug("session cancelled",
		zap.String("session_id", slot.session.ID), zap.String("state", string(slot.session.State)))
	slot.session = nil
	return Reply{Text: msgCancelled, Choices: bookChoices(), State: StateCancelled}
}

func (m *Manager) myBookings(ctx context.Context, arg string) (Reply, error) {
	if arg == "" {
		return Reply{Text: msgMyBookingsHint}, nil
	}
	phone, err := utils.NormalizePhone(arg)
	if err != nil {
		return Reply{Text: msgBadPhone + "\n" + msgMyBookingsHint}, nil
	}
	list, err := m.store.ListByPhone(ctx, phone)
	if err != nil {
		return Reply{}, fmt.Errorf("list bookings: %w", err)
	}
	if len(list) == 0 {
		return Reply{Text: msgNoBookings}, nil
	}
	return Reply{Text: bookingsText(list)}, nil
}

func currentState(slot *sessionSlot) State {
	if slot.session == nil {
		return StateStart
	}
	return slot.session.State
}
