package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salonbot-backend/models"
	"salonbot-backend/repository"
	"salonbot-backend/utils"

	"go.uber.org/zap"
)

var ErrNotOperator = errors.New("not an operator")

// DaySchedule is one calendar day of the operator's schedule, cancelled
// entries included.
type DaySchedule struct {
	Date         string               `json:"date"`
	Reservations []models.Reservation `json:"reservations"`
}

// OperatorService backs the master's chat commands and the HTTP API.
type OperatorService struct {
	store        repository.Store
	availability *Availability
	dispatcher   *Dispatcher
	secretHash   string
	logger       *zap.Logger
}

// NewOperatorService hashes the configured secret phone once. An empty phone
// disables registration and login.
func NewOperatorService(store repository.Store, availability *Availability, dispatcher *Dispatcher, secretPhone string) (*OperatorService, error) {
	s := &OperatorService{
		store:        store,
		availability: availability,
		dispatcher:   dispatcher,
		logger:       utils.GetLogger(),
	}
	if secretPhone == "" {
		s.logger.Warn("OPERATOR_PHONE not set, operator registration disabled")
		return s, nil
	}
	phone, err := utils.NormalizePhone(secretPhone)
	if err != nil {
		return nil, fmt.Errorf("operator phone: %w", err)
	}
	s.secretHash, err = utils.HashSecret(phone)
	if err != nil {
		return nil, fmt.Errorf("hash operator phone: %w", err)
	}
	return s, nil
}

// VerifySecret reports whether phone is the operator's secret phone.
func (s *OperatorService) VerifySecret(phone string) bool {
	if s.secretHash == "" {
		return false
	}
	normalized, err := utils.NormalizePhone(phone)
	if err != nil {
		return false
	}
	return utils.CheckSecretHash(normalized, s.secretHash)
}

// RegisterOperator records chatID as an operator chat when phone matches the
// secret.
func (s *OperatorService) RegisterOperator(ctx context.Context, chatID int64, phone string) error {
	if !s.VerifySecret(phone) {
		return ErrNotOperator
	}
	op := &models.Operator{ChatID: chatID, SecretHash: s.secretHash, RegisteredAt: time.Now()}
	if err := s.store.SaveOperator(ctx, op); err != nil {
		return fmt.Errorf("save operator: %w", err)
	}
	s.logger.Info("operator registered", zap.Int64("chat_id", chatID))
	return nil
}

func (s *OperatorService) IsOperator(ctx context.Context, chatID int64) (bool, error) {
	_, err := s.store.FindOperator(ctx, chatID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Location is the salon's time zone.
func (s *OperatorService) Location() *time.Location {
	return s.availability.Location()
}

func (s *OperatorService) TodaySchedule(ctx context.Context) (DaySchedule, error) {
	return s.Schedule(ctx, s.availability.Today())
}

// Schedule accepts ISO or DD.MM.YYYY dates.
func (s *OperatorService) Schedule(ctx context.Context, date string) (DaySchedule, error) {
	t, err := utils.ParseDate(date, s.availability.Location())
	if err != nil {
		return DaySchedule{}, err
	}
	iso := utils.FormatDate(t)
	list, err := s.store.ListByDate(ctx, iso)
	if err != nil {
		return DaySchedule{}, fmt.Errorf("list %s: %w", iso, err)
	}
	return DaySchedule{Date: iso, Reservations: list}, nil
}

// UpcomingActive lists active reservations from today on.
func (s *OperatorService) UpcomingActive(ctx context.Context) ([]models.Reservation, error) {
	return s.store.ListActiveFrom(ctx, s.availability.Today())
}

func (s *OperatorService) AllActive(ctx context.Context) ([]models.Reservation, error) {
	return s.store.ListActive(ctx)
}

func (s *OperatorService) Reservation(ctx context.Context, id uint) (*models.Reservation, error) {
	return s.store.Get(ctx, id)
}

// CancelReservation cancels by id. The operator is notified only when the
// reservation actually moved from active to cancelled.
func (s *OperatorService) CancelReservation(ctx context.Context, id uint) (*models.Reservation, bool, error) {
	res, changed, err := s.store.Cancel(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if changed {
		s.logger.Info("reservation cancelled", zap.Uint("reservation_id", id))
		s.dispatcher.ReservationCancelled(CancelledEvent(res))
	}
	return res, changed, nil
}

func (s *OperatorService) ClientReservations(ctx context.Context, phone string) ([]models.Reservation, error) {
	normalized, err := utils.NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	return s.store.ListByPhone(ctx, normalized)
}

func (s *OperatorService) Customer(ctx context.Context, phone string) (*models.Customer, error) {
	normalized, err := utils.NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	return s.store.GetCustomer(ctx, normalized)
}

func (s *OperatorService) Customers(ctx context.Context) ([]models.Customer, error) {
	return s.store.ListCustomers(ctx)
}

// OperatorChats returns the chat ids notifications are addressed to.
func (s *OperatorService) OperatorChats(ctx context.Context) ([]int64, error) {
	ops, err := s.store.ListOperators(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(ops))
	for _, op := range ops {
		ids = append(ids, op.ChatID)
	}
	return ids, nil
}
