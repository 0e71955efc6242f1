package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salonbot-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore persists reservations, customers, operators and reminder logs in
// Postgres. The database must be opened with TranslateError so that unique
// index violations map to gorm.ErrDuplicatedKey.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, now: time.Now}
}

// Commit inserts the candidate as an active reservation. The per-date advisory
// lock serializes concurrent commits for the same day, so the uniqueness check
// and the insert behave as one unit; the partial unique index backs it up.
func (s *GormStore) Commit(ctx context.Context, c models.ReservationCandidate) (*models.Reservation, error) {
	if err := ValidateCandidate(c); err != nil {
		return nil, err
	}
	res := newReservation(c, s.now())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "slot:"+c.Date).Error; err != nil {
			return fmt.Errorf("lock date %s: %w", c.Date, err)
		}

		var taken int64
		if err := tx.Model(&models.Reservation{}).
			Where("date = ? AND time = ? AND status = ?", c.Date, c.Time, models.StatusActive).
			Count(&taken).Error; err != nil {
			return fmt.Errorf("check slot: %w", err)
		}
		if taken > 0 {
			return ErrSlotConflict
		}

		if err := tx.Create(&res).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrSlotConflict
			}
			return fmt.Errorf("insert reservation: %w", err)
		}

		if err := upsertCustomer(tx, res, s.now()); err != nil {
			return fmt.Errorf("update customer stats: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// upsertCustomer bumps the client's visit count and spend by exactly one
// reservation, creating the row on the first visit.
func upsertCustomer(tx *gorm.DB, res models.Reservation, now time.Time) error {
	customer := models.Customer{
		Phone:       res.Phone,
		Name:        res.ClientName,
		TotalVisits: 1,
		TotalSpent:  res.Price,
		LastVisit:   res.Date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "phone"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"name":         gorm.Expr("excluded.name"),
			"total_visits": gorm.Expr("customers.total_visits + 1"),
			"total_spent":  gorm.Expr("customers.total_spent + excluded.total_spent"),
			"last_visit":   gorm.Expr("excluded.last_visit"),
			"updated_at":   gorm.Expr("excluded.updated_at"),
		}),
	}).Create(&customer).Error
}

func (s *GormStore) Cancel(ctx context.Context, id uint) (*models.Reservation, bool, error) {
	var res models.Reservation
	changed := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&res, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if res.Status == models.StatusCancelled {
			return nil
		}

		now := s.now()
		if err := tx.Model(&models.Reservation{}).Where("id = ?", res.ID).
			Updates(map[string]interface{}{
				"status":       models.StatusCancelled,
				"cancelled_at": now,
			}).Error; err != nil {
			return err
		}
		res.Status = models.StatusCancelled
		res.CancelledAt = &now
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &res, changed, nil
}

func (s *GormStore) Get(ctx context.Context, id uint) (*models.Reservation, error) {
	var res models.Reservation
	if err := s.db.WithContext(ctx).First(&res, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (s *GormStore) ListByPhone(ctx context.Context, phone string) ([]models.Reservation, error) {
	var list []models.Reservation
	err := s.db.WithContext(ctx).
		Where("phone = ?", phone).
		Order("date DESC, time DESC, id DESC").
		Find(&list).Error
	return list, err
}

func (s *GormStore) ListByDate(ctx context.Context, date string) ([]models.Reservation, error) {
	var list []models.Reservation
	err := s.db.WithContext(ctx).
		Where("date = ?", date).
		Order("time ASC, id ASC").
		Find(&list).Error
	return list, err
}

func (s *GormStore) ListActive(ctx context.Context) ([]models.Reservation, error) {
	var list []models.Reservation
	err := s.db.WithContext(ctx).
		Where("status = ?", models.StatusActive).
		Order("date ASC, time ASC").
		Find(&list).Error
	return list, err
}

func (s *GormStore) ListActiveFrom(ctx context.Context, date string) ([]models.Reservation, error) {
	var list []models.Reservation
	err := s.db.WithContext(ctx).
		Where("status = ? AND date >= ?", models.StatusActive, date).
		Order("date ASC, time ASC").
		Find(&list).Error
	return list, err
}

func (s *GormStore) CountActiveByDates(ctx context.Context, dates []string) (map[string]int, error) {
	counts := make(map[string]int, len(dates))
	if len(dates) == 0 {
		return counts, nil
	}
	var rows []struct {
		Date  string
		Total int
	}
	err := s.db.WithContext(ctx).Model(&models.Reservation{}).
		Select("date, COUNT(*) AS total").
		Where("status = ? AND date IN ?", models.StatusActive, dates).
		Group("date").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.Date] = r.Total
	}
	return counts, nil
}

func (s *GormStore) BusyTimes(ctx context.Context, date string) ([]string, error) {
	var times []string
	err := s.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("date = ? AND status = ?", date, models.StatusActive).
		Order("time ASC").
		Pluck("time", &times).Error
	return times, err
}

func (s *GormStore) GetCustomer(ctx context.Context, phone string) (*models.Customer, error) {
	var customer models.Customer
	if err := s.db.WithContext(ctx).Where("phone = ?", phone).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

func (s *GormStore) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	err := s.db.WithContext(ctx).Order("total_visits DESC, phone ASC").Find(&customers).Error
	return customers, err
}

func (s *GormStore) SaveOperator(ctx context.Context, op *models.Operator) error {
	if op.RegisteredAt.IsZero() {
		op.RegisteredAt = s.now()
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"secret_hash", "registered_at"}),
	}).Create(op).Error
}

func (s *GormStore) FindOperator(ctx context.Context, chatID int64) (*models.Operator, error) {
	var op models.Operator
	if err := s.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&op).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &op, nil
}

func (s *GormStore) ListOperators(ctx context.Context) ([]models.Operator, error) {
	var ops []models.Operator
	err := s.db.WithContext(ctx).Order("registered_at ASC").Find(&ops).Error
	return ops, err
}

func (s *GormStore) CreateReminderLog(ctx context.Context, entry *models.ReminderLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *GormStore) WasReminded(ctx context.Context, reservationID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.ReminderLog{}).
		Where("reservation_id = ? AND status = ?", reservationID, models.ReminderSent).
		Count(&n).Error
	return n > 0, err
}
