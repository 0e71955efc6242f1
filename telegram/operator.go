package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"salonbot-backend/conversation"
	"salonbot-backend/models"
	"salonbot-backend/repository"
	"salonbot-backend/services"
	"salonbot-backend/utils"

	"go.uber.org/zap"
)

const (
	commandMaster        = "master"
	commandToday         = "today"
	commandSchedule      = "schedule"
	commandUpcoming      = "upcoming"
	commandCancelBooking = "cancel_booking"

	msgOperatorsOnly   = "⛔ Команда доступна только мастеру. Зарегистрируйтесь: /master <телефон>"
	msgMasterHint      = "Введите телефон мастера после команды: /master 79123456789"
	msgMasterWrong     = "❌ Неверный номер мастера."
	msgEmptyDay        = "На этот день записей нет."
	msgNoUpcoming      = "Предстоящих записей нет."
	msgCancelHint      = "Укажите номер записи: /cancel_booking 12"
	msgBookingNotFound = "❌ Запись не найдена."
)

const msgMasterOK = "✅ Вы зарегистрированы как мастер. Сюда будут приходить уведомления о записях.\n" +
	"Команды: /today, /schedule ДД.ММ.ГГГГ, /upcoming, /cancel_booking <ID>"

// operatorCommand answers the master's commands. handled is false for
// commands that belong to the booking dialogue.
func (b *Bot) operatorCommand(ctx context.Context, chatID int64, ev conversation.Event) (string, bool) {
	switch ev.Name {
	case commandMaster:
		return b.registerOperator(ctx, chatID, ev.Payload), true
	case commandToday, commandSchedule, commandUpcoming, commandCancelBooking:
	default:
		return "", false
	}

	ok, err := b.operators.IsOperator(ctx, chatID)
	if err != nil {
		b.logger.Error("operator lookup failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return msgInternalError, true
	}
	if !ok {
		return msgOperatorsOnly, true
	}

	text, err := b.runOperatorCommand(ctx, ev)
	if err != nil {
		b.logger.Error("operator command failed", zap.String("command", ev.Name), zap.Error(err))
		return msgInternalError, true
	}
	return text, true
}

func (b *Bot) registerOperator(ctx context.Context, chatID int64, phone string) string {
	if phone == "" {
		return msgMasterHint
	}
	err := b.operators.RegisterOperator(ctx, chatID, phone)
	switch {
	case errors.Is(err, services.ErrNotOperator):
		b.logger.Warn("operator registration rejected", zap.Int64("chat_id", chatID))
		return msgMasterWrong
	case err != nil:
		b.logger.Error("operator registration failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return msgInternalError
	}
	return msgMasterOK
}

func (b *Bot) runOperatorCommand(ctx context.Context, ev conversation.Event) (string, error) {
	switch ev.Name {
	case commandToday:
		day, err := b.operators.TodaySchedule(ctx)
		if err != nil {
			return "", err
		}
		return scheduleText(day), nil

	case commandSchedule:
		day, err := b.operators.Schedule(ctx, ev.Payload)
		if errors.Is(err, utils.ErrInvalidDate) {
			return "Укажите дату: /schedule ДД.ММ.ГГГГ", nil
		}
		if err != nil {
			return "", err
		}
		return scheduleText(day), nil

	case commandUpcoming:
		list, err := b.operators.UpcomingActive(ctx)
		if err != nil {
			return "", err
		}
		return upcomingText(list), nil

	default: // commandCancelBooking
		id, err := strconv.ParseUint(strings.TrimPrefix(ev.Payload, "#"), 10, 64)
		if err != nil || id == 0 {
			return msgCancelHint, nil
		}
		res, changed, err := b.operators.CancelReservation(ctx, uint(id))
		if errors.Is(err, repository.ErrNotFound) {
			return msgBookingNotFound, nil
		}
		if err != nil {
			return "", err
		}
		if !changed {
			return fmt.Sprintf("Запись #%d уже была отменена.", res.ID), nil
		}
		return fmt.Sprintf("✅ Запись #%d (%s %s, %s) отменена.",
			res.ID, utils.DisplayDate(res.Date), res.Time, res.ClientName), nil
	}
}

func scheduleText(day services.DaySchedule) string {
	if len(day.Reservations) == 0 {
		return fmt.Sprintf("📅 %s\n%s", utils.DisplayDate(day.Date), msgEmptyDay)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📅 Расписание на %s:\n", utils.DisplayDate(day.Date))
	for _, r := range day.Reservations {
		b.WriteString("\n")
		b.WriteString(reservationLine(r, false))
	}
	return b.String()
}

func upcomingText(list []models.Reservation) string {
	if len(list) == 0 {
		return msgNoUpcoming
	}
	var b strings.Builder
	b.WriteString("📋 Предстоящие записи:\n")
	for _, r := range list {
		b.WriteString("\n")
		b.WriteString(reservationLine(r, true))
	}
	return b.String()
}

func reservationLine(r models.Reservation, withDate bool) string {
	when := r.Time
	if withDate {
		when = utils.DisplayDate(r.Date) + " " + r.Time
	}
	line := fmt.Sprintf("#%d %s %s, %s, %s", r.ID, when, r.ServiceName, r.ClientName, r.Phone)
	if !r.IsActive() {
		line = "❌ " + line + " (отменена)"
	}
	return line
}
