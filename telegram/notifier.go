package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"salonbot-backend/repository"
	"salonbot-backend/services"
	"salonbot-backend/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier messages every registered operator chat. When an operator cancels
// a booking made through the bot, the client's chat is told as well.
type Notifier struct {
	api       Sender
	operators repository.OperatorStore
}

func NewNotifier(api Sender, operators repository.OperatorStore) *Notifier {
	return &Notifier{api: api, operators: operators}
}

func (n *Notifier) ReservationCreated(ctx context.Context, e services.ReservationCreatedEvent) error {
	return n.broadcast(ctx, "🔔 "+services.DescribeCreated(e))
}

func (n *Notifier) ReservationCancelled(ctx context.Context, e services.ReservationCancelledEvent) error {
	err := n.broadcast(ctx, "🔕 "+services.DescribeCancelled(e))
	if chatID, perr := strconv.ParseInt(e.SessionID, 10, 64); perr == nil {
		text := fmt.Sprintf("❌ Ваша запись на %s в %s (%s) отменена мастером.",
			utils.DisplayDate(e.Date), e.Time, e.Service)
		if _, serr := n.api.Send(tgbotapi.NewMessage(chatID, text)); serr != nil {
			err = errors.Join(err, fmt.Errorf("notify client chat %d: %w", chatID, serr))
		}
	}
	return err
}

func (n *Notifier) broadcast(ctx context.Context, text string) error {
	ops, err := n.operators.ListOperators(ctx)
	if err != nil {
		return fmt.Errorf("list operators: %w", err)
	}
	var errs []error
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := n.api.Send(tgbotapi.NewMessage(op.ChatID, text)); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", op.ChatID, err))
		}
	}
	return errors.Join(errs...)
}
