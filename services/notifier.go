package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"salonbot-backend/models"
	"salonbot-backend/utils"

	"go.uber.org/zap"
)

// ReservationCreatedEvent is sent to the operator after a successful commit.
type ReservationCreatedEvent struct {
	ID        uint   `json:"reservation_id"`
	Service   string `json:"service"`
	Price     int    `json:"price"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Name      string `json:"client_name"`
	Phone     string `json:"phone"`
	SessionID string `json:"-"`
}

type ReservationCancelledEvent struct {
	ID        uint   `json:"reservation_id"`
	Service   string `json:"service"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Name      string `json:"client_name"`
	Phone     string `json:"phone"`
	SessionID string `json:"-"`
}

func CreatedEvent(r *models.Reservation) ReservationCreatedEvent {
	return ReservationCreatedEvent{
		ID:        r.ID,
		Service:   r.ServiceName,
		Price:     r.Price,
		Date:      r.Date,
		Time:      r.Time,
		Name:      r.ClientName,
		Phone:     r.Phone,
		SessionID: r.SessionID,
	}
}

func CancelledEvent(r *models.Reservation) ReservationCancelledEvent {
	return ReservationCancelledEvent{
		ID:        r.ID,
		Service:   r.ServiceName,
		Date:      r.Date,
		Time:      r.Time,
		Name:      r.ClientName,
		Phone:     r.Phone,
		SessionID: r.SessionID,
	}
}

// Notifier tells the operator about reservation changes.
type Notifier interface {
	ReservationCreated(ctx context.Context, e ReservationCreatedEvent) error
	ReservationCancelled(ctx context.Context, e ReservationCancelledEvent) error
}

// MultiNotifier fans an event out to every notifier and joins their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) ReservationCreated(ctx context.Context, e ReservationCreatedEvent) error {
	var errs []error
	for _, n := range m {
		if err := n.ReservationCreated(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiNotifier) ReservationCancelled(ctx context.Context, e ReservationCancelledEvent) error {
	var errs []error
	for _, n := range m {
		if err := n.ReservationCancelled(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dispatcher delivers notifications in the background. A failed or slow
// delivery is logged and never reaches the caller.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	logger   *zap.Logger
	inflight sync.WaitGroup
}

func NewDispatcher(notifier Notifier, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{notifier: notifier, timeout: timeout, logger: utils.GetLogger()}
}

func (d *Dispatcher) ReservationCreated(e ReservationCreatedEvent) {
	d.deliver("reservation created", e.ID, func(ctx context.Context) error {
		return d.notifier.ReservationCreated(ctx, e)
	})
}

func (d *Dispatcher) ReservationCancelled(e ReservationCancelledEvent) {
	d.deliver("reservation cancelled", e.ID, func(ctx context.Context) error {
		return d.notifier.ReservationCancelled(ctx, e)
	})
}

func (d *Dispatcher) deliver(kind string, id uint, send func(ctx context.Context) error) {
	if d == nil || d.notifier == nil {
		return
	}
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("notification delivery failure",
					zap.String("event", kind), zap.Uint("reservation_id", id), zap.Any("panic", r))
			}
		}()

		if err := send(ctx); err != nil {
			d.logger.Error("notification delivery failure",
				zap.String("event", kind), zap.Uint("reservation_id", id), zap.Error(err))
			return
		}
		d.logger.Debug("notification delivered", zap.String("event", kind), zap.Uint("reservation_id", id))
	}()
}

// Wait blocks until every delivery started so far has finished. Used on
// shutdown.
func (d *Dispatcher) Wait() {
	if d != nil {
		d.inflight.Wait()
	}
}

// DescribeCreated renders the operator message shared by the text channels.
func DescribeCreated(e ReservationCreatedEvent) string {
	return fmt.Sprintf("Новая запись #%d\n%s, %d ₽\n%s %s\n%s, %s",
		e.ID, e.Service, e.Price, utils.DisplayDate(e.Date), e.Time, e.Name, e.Phone)
}

func DescribeCancelled(e ReservationCancelledEvent) string {
	return fmt.Sprintf("Запись #%d отменена\n%s\n%s %s\n%s, %s",
		e.ID, e.Service, utils.DisplayDate(e.Date), e.Time, e.Name, e.Phone)
}
