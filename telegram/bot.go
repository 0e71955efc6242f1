package telegram

import (
	"context"
	"strconv"
	"strings"

	"salonbot-backend/conversation"
	"salonbot-backend/services"
	"salonbot-backend/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const msgInternalError = "⚠️ Что-то пошло не так. Попробуйте еще раз через минуту."

// Sender is the part of tgbotapi.BotAPI the bot talks through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot turns Telegram updates into conversation events and sends the replies.
type Bot struct {
	api       Sender
	manager   *conversation.Manager
	operators *services.OperatorService
	logger    *zap.Logger
}

func NewBot(api Sender, manager *conversation.Manager, operators *services.OperatorService) *Bot {
	return &Bot{
		api:       api,
		manager:   manager,
		operators: operators,
		logger:    utils.GetLogger(),
	}
}

// Run long-polls for updates until ctx is done.
func Run(ctx context.Context, api *tgbotapi.BotAPI, bot *Bot) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)
	bot.logger.Info("telegram bot started", zap.String("username", api.Self.UserName))

	bot.Serve(ctx, updates)
	api.StopReceivingUpdates()
	bot.logger.Info("telegram bot stopped")
}

// Serve handles updates one after another in arrival order, so a chat's
// messages reach the conversation in the order they were sent. It returns
// when ctx is done or updates is closed.
func (b *Bot) Serve(ctx context.Context, updates <-chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// incoming is an update reduced to what the bot acts on.
type incoming struct {
	chatID     int64
	event      conversation.Event
	callbackID string
}

func parseUpdate(update tgbotapi.Update) (incoming, bool) {
	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.Message == nil {
			return incoming{}, false
		}
		return incoming{
			chatID:     cb.Message.Chat.ID,
			event:      conversation.ChoiceEvent(cb.Data),
			callbackID: cb.ID,
		}, true
	case update.Message != nil:
		msg := update.Message
		if msg.IsCommand() {
			return incoming{chatID: msg.Chat.ID, event: conversation.Command(msg.Command(), msg.CommandArguments())}, true
		}
		if strings.TrimSpace(msg.Text) == "" {
			return incoming{}, false
		}
		return incoming{chatID: msg.Chat.ID, event: conversation.Text(msg.Text)}, true
	}
	return incoming{}, false
}

func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	in, ok := parseUpdate(update)
	if !ok {
		return
	}
	if in.callbackID != "" {
		if _, err := b.api.Request(tgbotapi.NewCallback(in.callbackID, "")); err != nil {
			b.logger.Warn("failed to answer callback", zap.Error(err))
		}
	}

	if in.event.Kind == conversation.KindCommand {
		if text, handled := b.operatorCommand(ctx, in.chatID, in.event); handled {
			b.send(in.chatID, text, nil)
			return
		}
	}

	reply, err := b.manager.Handle(ctx, strconv.FormatInt(in.chatID, 10), in.event)
	if err != nil {
		b.logger.Error("failed to handle update", zap.Int64("chat_id", in.chatID), zap.Error(err))
		b.send(in.chatID, msgInternalError, nil)
		return
	}
	b.send(in.chatID, reply.Text, keyboardFor(reply))
}

func (b *Bot) send(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func keyboardFor(reply conversation.Reply) *tgbotapi.InlineKeyboardMarkup {
	if len(reply.Choices) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(reply.Choices))
	for _, choices := range reply.Choices {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(choices))
		for _, c := range choices {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(c.Label, c.Payload))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}
