// services/reminder_service.go
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"salonbot-backend/models"
	"salonbot-backend/repository"
	"salonbot-backend/utils"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const reminderChannel = "sms"

type ReminderService struct {
	store    repository.Store
	sender   SMSSender
	location *time.Location
	now      func() time.Time
	cron     *cron.Cron
	logger   *zap.Logger

	// serializes runs from the scheduler and the API
	running sync.Mutex
}

func NewReminderService(store repository.Store, sender SMSSender, location *time.Location) *ReminderService {
	return &ReminderService{
		store:    store,
		sender:   sender,
		location: location,
		now:      time.Now,
		logger:   utils.GetLogger(),
	}
}

// StartScheduler runs SendDailyReminders on the given cron spec in the salon's
// zone.
func (s *ReminderService) StartScheduler(spec string) error {
	s.cron = cron.New(
		cron.WithLocation(s.location),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.SendDailyReminders(ctx); err != nil {
			s.logger.Error("daily reminders failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("reminder schedule %q: %w", spec, err)
	}
	s.cron.Start()
	s.logger.Info("reminder scheduler started", zap.String("spec", spec))
	return nil
}

func (s *ReminderService) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// SendDailyReminders texts every client with an active reservation tomorrow.
// Reservations that already have a sent reminder are skipped; each attempt is
// logged. It returns the number of messages sent.
func (s *ReminderService) SendDailyReminders(ctx context.Context) (int, error) {
	s.running.Lock()
	defer s.running.Unlock()

	tomorrow := utils.FormatDate(utils.BeginningOfDay(s.now().In(s.location)).AddDate(0, 0, 1))
	s.logger.Info("starting daily reminder processing", zap.String("date", tomorrow))

	list, err := s.store.ListByDate(ctx, tomorrow)
	if err != nil {
		return 0, fmt.Errorf("list reservations for %s: %w", tomorrow, err)
	}

	sent := 0
	for _, res := range list {
		if !res.IsActive() {
			continue
		}
		done, err := s.store.WasReminded(ctx, res.ID)
		if err != nil {
			s.logger.Error("failed to check reminder log", zap.Uint("reservation_id", res.ID), zap.Error(err))
			continue
		}
		if done {
			continue
		}
		if s.remind(ctx, res) {
			sent++
		}
	}

	s.logger.Info("daily reminder processing completed", zap.String("date", tomorrow), zap.Int("sent", sent))
	return sent, nil
}

func (s *ReminderService) remind(ctx context.Context, res models.Reservation) bool {
	message := reminderText(res)

	status := models.ReminderSent
	errorMsg := ""
	sid, err := s.sender.SendSMS(ctx, res.Phone, message)
	if err != nil {
		s.logger.Error("failed to send reminder", zap.String("phone", res.Phone), zap.Error(err))
		status = models.ReminderFailed
		errorMsg = err.Error()
	} else {
		s.logger.Info("reminder sent", zap.String("phone", res.Phone), zap.String("sid", sid))
	}

	entry := &models.ReminderLog{
		ReservationID: res.ID,
		Phone:         res.Phone,
		Message:       message,
		Status:        status,
		ErrorMessage:  errorMsg,
		Channel:       reminderChannel,
		SentAt:        s.now(),
	}
	if err := s.store.CreateReminderLog(ctx, entry); err != nil {
		s.logger.Error("failed to log reminder", zap.Uint("reservation_id", res.ID), zap.Error(err))
	}
	return status == models.ReminderSent
}

func reminderText(res models.Reservation) string {
	return fmt.Sprintf("%s, напоминаем о записи завтра, %s, в %s: %s.",
		res.ClientName, utils.DisplayDate(res.Date), res.Time, res.ServiceName)
}
