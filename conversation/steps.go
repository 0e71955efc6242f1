package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"salonbot-backend/repository"
	"salonbot-backend/services"
	"salonbot-backend/utils"

	"go.uber.org/zap"
)

// stepFunc handles one event in a non-terminal state. It may change s.State;
// the returned error is an infrastructure failure.
type stepFunc func(m *Manager, ctx context.Context, s *Session, ev Event) (Reply, error)

var transitions = map[State]stepFunc{
	StateStart:   (*Manager).stepStart,
	StateService: (*Manager).stepService,
	StateDate:    (*Manager).stepDate,
	StateTime:    (*Manager).stepTime,
	StateName:    (*Manager).stepName,
	StatePhone:   (*Manager).stepPhone,
	StateConfirm: (*Manager).stepConfirm,
}

// START -> SERVICE
func (m *Manager) stepStart(_ context.Context, s *Session, _ Event) (Reply, error) {
	s.State = StateService
	return m.serviceReply(msgChooseService), nil
}

// SERVICE -> DATE, or SERVICE again for an unknown service.
func (m *Manager) stepService(ctx context.Context, s *Session, ev Event) (Reply, error) {
	svc, err := m.catalog.Find(ev.Payload)
	if errors.Is(err, services.ErrUnknownService) {
		return m.serviceReply(msgUnknownService), nil
	}
	if err != nil {
		return Reply{}, err
	}
	s.Service = svc.Snapshot()
	s.State = StateDate
	return m.dateReply(ctx, fmt.Sprintf("Вы выбрали: %s (%d ₽).\n%s", svc.Name, svc.Price, msgChooseDate))
}

// DATE -> TIME when the date has free times; otherwise DATE again.
func (m *Manager) stepDate(ctx context.Context, s *Session, ev Event) (Reply, error) {
	if ev.action() == ActionBack {
		return m.dateReply(ctx, msgChooseDate)
	}

	date, err := m.availability.CheckDate(ctx, ev.Payload)
	switch {
	case errors.Is(err, services.ErrInvalidDate):
		return m.dateReply(ctx, msgBadDate)
	case errors.Is(err, services.ErrDateNotOffered):
		return m.dateReply(ctx, msgDateNotOffered)
	case err != nil:
		return Reply{}, err
	}

	times, err := m.availability.OfferedTimes(ctx, date)
	if errors.Is(err, services.ErrNoSlotsAvailable) {
		return m.dateReply(ctx, msgDayFull)
	}
	if err != nil {
		return Reply{}, err
	}
	s.Date = date
	s.State = StateTime
	return timeReply(fmt.Sprintf("Дата: %s.\n%s", utils.DisplayDate(date), msgChooseTime), times), nil
}

// TIME -> NAME once the time is confirmed free; TIME again when it is not;
// DATE on "back" or when the day has filled up meanwhile.
func (m *Manager) stepTime(ctx context.Context, s *Session, ev Event) (Reply, error) {
	if ev.action() == ActionBack {
		s.Date = ""
		s.State = StateDate
		return m.dateReply(ctx, msgChooseDate)
	}

	clock, err := utils.ParseClock(ev.Payload)
	if err != nil {
		return m.retryTime(ctx, s, msgBadTime)
	}
	if !m.availability.Rules().HasSlot(clock) {
		return m.retryTime(ctx, s, msgTimeNotOffered)
	}

	if err := m.revalidate(ctx, s.Date, clock); err != nil {
		if errors.Is(err, ErrSlotNoLongerAvailable) {
			return m.retryTime(ctx, s, msgSlotTaken)
		}
		return Reply{}, err
	}
	s.Time = clock
	s.State = StateName
	return Reply{Text: fmt.Sprintf("Время: %s.\n%s", clock, msgAskName), Choices: cancelRow()}, nil
}

// NAME -> PHONE
func (m *Manager) stepName(_ context.Context, s *Session, ev Event) (Reply, error) {
	name := strings.Join(strings.Fields(ev.Payload), " ")
	switch {
	case ev.Kind != KindText:
		return Reply{Text: msgAskName, Choices: cancelRow()}, nil
	case name == "":
		return Reply{Text: msgEmptyName, Choices: cancelRow()}, nil
	case utf8.RuneCountInString(name) > maxNameRunes:
		return Reply{Text: msgLongName, Choices: cancelRow()}, nil
	}
	s.Name = name
	s.State = StatePhone
	return Reply{Text: msgAskPhone, Choices: cancelRow()}, nil
}

// PHONE -> CONFIRM
func (m *Manager) stepPhone(_ context.Context, s *Session, ev Event) (Reply, error) {
	phone, err := utils.NormalizePhone(ev.Payload)
	if err != nil {
		return Reply{Text: msgBadPhone, Choices: cancelRow()}, nil
	}
	s.Phone = phone
	s.State = StateConfirm
	return confirmReply(s, ""), nil
}

// CONFIRM -> DONE, TIME after a lost race, SERVICE on edit, CANCELLED.
func (m *Manager) stepConfirm(ctx context.Context, s *Session, ev Event) (Reply, error) {
	switch ev.action() {
	case ActionConfirm:
		return m.commit(ctx, s)
	case ActionEdit:
		s.reset()
		s.State = StateService
		return m.serviceReply(msgChooseService), nil
	case ActionCancel:
		s.State = StateCancelled
		return Reply{Text: msgCancelled, Choices: bookChoices()}, nil
	default:
		return confirmReply(s, msgConfirmHint), nil
	}
}

func (m *Manager) commit(ctx context.Context, s *Session) (Reply, error) {
	// a session may sit at CONFIRM long enough for its slot to pass
	if m.availability.HasStarted(s.Date, s.Time) {
		if s.Date < m.availability.Today() {
			s.Date, s.Time = "", ""
			s.State = StateDate
			return m.dateReply(ctx, msgDatePassed)
		}
		return m.retryTime(ctx, s, msgSlotGone)
	}

	res, err := m.store.Commit(ctx, s.candidate())
	if errors.Is(err, repository.ErrSlotConflict) {
		m.logger.Info("slot lost at commit",
			zap.String("session_id", s.ID), zap.String("date", s.Date), zap.String("time", s.Time))
		return m.retryTime(ctx, s, msgSlotTaken)
	}
	if err != nil {
		return Reply{}, fmt.Errorf("commit reservation: %w", err)
	}

	m.logger.Info("reservation created",
		zap.Uint("reservation_id", res.ID), zap.String("date", res.Date), zap.String("time", res.Time))
	m.dispatcher.ReservationCreated(services.CreatedEvent(res))

	s.State = StateDone
	return Reply{Text: bookedText(res), Choices: bookChoices()}, nil
}

// revalidate is the fresh check made right before a time is accepted.
func (m *Manager) revalidate(ctx context.Context, date, clock string) error {
	free, err := m.availability.IsSlotFree(ctx, date, clock)
	if err != nil {
		return err
	}
	if !free {
		return fmt.Errorf("%w: %s %s", ErrSlotNoLongerAvailable, date, clock)
	}
	return nil
}

// retryTime re-offers fresh times for the session's date, or falls back to
// date selection when none are left.
func (m *Manager) retryTime(ctx context.Context, s *Session, text string) (Reply, error) {
	s.Time = ""
	times, err := m.availability.OfferedTimes(ctx, s.Date)
	if errors.Is(err, services.ErrNoSlotsAvailable) {
		s.Date = ""
		s.State = StateDate
		return m.dateReply(ctx, msgDayFull)
	}
	if err != nil {
		return Reply{}, err
	}
	s.State = StateTime
	return timeReply(text, times), nil
}

func (m *Manager) serviceReply(text string) Reply {
	list := m.catalog.List()
	rows := make([][]Choice, 0, len(list)/2+2)
	for i := 0; i < len(list); i += 2 {
		row := []Choice{{Label: serviceLabel(list[i]), Payload: list[i].Key}}
		if i+1 < len(list) {
			row = append(row, Choice{Label: serviceLabel(list[i+1]), Payload: list[i+1].Key})
		}
		rows = append(rows, row)
	}
	rows = append(rows, cancelRow()...)
	return Reply{Text: text, Choices: rows}
}

func (m *Manager) dateReply(ctx context.Context, text string) (Reply, error) {
	dates, err := m.availability.OfferedDates(ctx)
	if err != nil {
		return Reply{}, err
	}
	if len(dates) == 0 {
		return Reply{Text: msgNoDates, Choices: cancelRow()}, nil
	}
	return Reply{Text: text, Choices: grid(dates, 3, dateLabel)}, nil
}

func timeReply(text string, times []string) Reply {
	rows := grid(times, 4, func(t string) string { return t })
	rows[len(rows)-1] = append([]Choice{{Label: "⬅️ Назад", Payload: ActionBack}}, rows[len(rows)-1]...)
	return Reply{Text: text, Choices: rows}
}

func confirmReply(s *Session, hint string) Reply {
	text := summary(s)
	if hint != "" {
		text = hint + "\n\n" + text
	}
	return Reply{Text: text, Choices: [][]Choice{
		{{Label: "✅ Подтвердить", Payload: ActionConfirm}},
		{{Label: "✏️ Изменить", Payload: ActionEdit}, {Label: "❌ Отменить", Payload: ActionCancel}},
	}}
}

// grid lays values out in rows of width and appends the cancel row.
func grid(values []string, width int, label func(string) string) [][]Choice {
	rows := make([][]Choice, 0, len(values)/width+2)
	for i := 0; i < len(values); i += width {
		end := i + width
		if end > len(values) {
			end = len(values)
		}
		row := make([]Choice, 0, width)
		for _, v := range values[i:end] {
			row = append(row, Choice{Label: label(v), Payload: v})
		}
		rows = append(rows, row)
	}
	return append(rows, cancelRow()...)
}

func cancelRow() [][]Choice {
	return [][]Choice{{{Label: "❌ Отмена", Payload: ActionCancel}}}
}

func bookChoices() [][]Choice {
	return [][]Choice{{{Label: "📅 Записаться", Payload: ActionBook}}}
}
