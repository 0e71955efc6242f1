package services

import (
	"context"
	"errors"
	"fmt"

	"salonbot-backend/utils"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// SMSSender delivers a text message and returns the provider message id.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
}

// TwilioSender sends SMS through the Twilio REST API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from: from,
	}
}

func (s *TwilioSender) SendSMS(ctx context.Context, to, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("twilio: %w", err)
	}
	if resp.Sid == nil {
		utils.GetLogger().Warn("message sent but no SID returned", zap.String("to", to))
		return "", nil
	}
	return *resp.Sid, nil
}

// SMSNotifier texts the operator's phone about reservation changes.
type SMSNotifier struct {
	sender SMSSender
	to     string
}

func NewSMSNotifier(sender SMSSender, operatorPhone string) (*SMSNotifier, error) {
	if sender == nil {
		return nil, errors.New("sms sender is nil")
	}
	to, err := utils.NormalizePhone(operatorPhone)
	if err != nil {
		return nil, fmt.Errorf("operator phone: %w", err)
	}
	return &SMSNotifier{sender: sender, to: to}, nil
}

func (n *SMSNotifier) ReservationCreated(ctx context.Context, e ReservationCreatedEvent) error {
	_, err := n.sender.SendSMS(ctx, n.to, DescribeCreated(e))
	return err
}

func (n *SMSNotifier) ReservationCancelled(ctx context.Context, e ReservationCancelledEvent) error {
	_, err := n.sender.SendSMS(ctx, n.to, DescribeCancelled(e))
	return err
}
