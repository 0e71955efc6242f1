package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"salonbot-backend/models"

	"github.com/google/uuid"
)

// MemoryStore keeps everything in process memory. It is used by tests and by
// local runs without DB_URL; nothing survives a restart.
type MemoryStore struct {
	mu           sync.Mutex
	nextID       uint
	reservations map[uint]models.Reservation
	customers    map[string]models.Customer
	operators    map[int64]models.Operator
	reminders    []models.ReminderLog
	now          func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:       1,
		reservations: make(map[uint]models.Reservation),
		customers:    make(map[string]models.Customer),
		operators:    make(map[int64]models.Operator),
		now:          time.Now,
	}
}

// Commit holds the store lock across the uniqueness check, the insert and the
// customer update.
func (s *MemoryStore) Commit(_ context.Context, c models.ReservationCandidate) (*models.Reservation, error) {
	if err := ValidateCandidate(c); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.reservations {
		if r.IsActive() && r.Date == c.Date && r.Time == c.Time {
			return nil, ErrSlotConflict
		}
	}

	now := s.now()
	res := newReservation(c, now)
	res.ID = s.nextID
	s.nextID++
	s.reservations[res.ID] = res

	customer, ok := s.customers[res.Phone]
	if !ok {
		customer = models.Customer{
			ID:        uint(len(s.customers) + 1),
			Phone:     res.Phone,
			CreatedAt: now,
		}
	}
	customer.Name = res.ClientName
	customer.TotalVisits++
	customer.TotalSpent += res.Price
	customer.LastVisit = res.Date
	customer.UpdatedAt = now
	s.customers[res.Phone] = customer

	return &res, nil
}

func (s *MemoryStore) Cancel(_ context.Context, id uint) (*models.Reservation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.reservations[id]
	if !ok {
		return nil, false, ErrNotFound
	}
	if res.Status == models.StatusCancelled {
		return &res, false, nil
	}
	now := s.now()
	res.Status = models.StatusCancelled
	res.CancelledAt = &now
	s.reservations[id] = res
	return &res, true, nil
}

func (s *MemoryStore) Get(_ context.Context, id uint) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.reservations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &res, nil
}

func (s *MemoryStore) ListByPhone(_ context.Context, phone string) ([]models.Reservation, error) {
	list := s.filter(func(r models.Reservation) bool { return r.Phone == phone })
	sort.Slice(list, func(i, j int) bool {
		if list[i].Date != list[j].Date {
			return list[i].Date > list[j].Date
		}
		if list[i].Time != list[j].Time {
			return list[i].Time > list[j].Time
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

func (s *MemoryStore) ListByDate(_ context.Context, date string) ([]models.Reservation, error) {
	list := s.filter(func(r models.Reservation) bool { return r.Date == date })
	sortByDateTime(list)
	return list, nil
}

func (s *MemoryStore) ListActive(_ context.Context) ([]models.Reservation, error) {
	list := s.filter(models.Reservation.IsActive)
	sortByDateTime(list)
	return list, nil
}

func (s *MemoryStore) ListActiveFrom(_ context.Context, date string) ([]models.Reservation, error) {
	list := s.filter(func(r models.Reservation) bool { return r.IsActive() && r.Date >= date })
	sortByDateTime(list)
	return list, nil
}

func (s *MemoryStore) CountActiveByDates(_ context.Context, dates []string) (map[string]int, error) {
	wanted := make(map[string]bool, len(dates))
	for _, d := range dates {
		wanted[d] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int)
	for _, r := range s.reservations {
		if r.IsActive() && wanted[r.Date] {
			counts[r.Date]++
		}
	}
	return counts, nil
}

func (s *MemoryStore) BusyTimes(_ context.Context, date string) ([]string, error) {
	list := s.filter(func(r models.Reservation) bool { return r.IsActive() && r.Date == date })
	times := make([]string, 0, len(list))
	for _, r := range list {
		times = append(times, r.Time)
	}
	sort.Strings(times)
	return times, nil
}

func (s *MemoryStore) GetCustomer(_ context.Context, phone string) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[phone]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStore) ListCustomers(_ context.Context) ([]models.Customer, error) {
	s.mu.Lock()
	list := make([]models.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		list = append(list, c)
	}
	s.mu.Unlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].TotalVisits != list[j].TotalVisits {
			return list[i].TotalVisits > list[j].TotalVisits
		}
		return list[i].Phone < list[j].Phone
	})
	return list, nil
}

func (s *MemoryStore) SaveOperator(_ context.Context, op *models.Operator) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if op.RegisteredAt.IsZero() {
		op.RegisteredAt = s.now()
	}
	if existing, ok := s.operators[op.ChatID]; ok {
		op.ID = existing.ID
	} else {
		op.ID = uint(len(s.operators) + 1)
	}
	s.operators[op.ChatID] = *op
	return nil
}

func (s *MemoryStore) FindOperator(_ context.Context, chatID int64) (*models.Operator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.operators[chatID]
	if !ok {
		return nil, ErrNotFound
	}
	return &op, nil
}

func (s *MemoryStore) ListOperators(_ context.Context) ([]models.Operator, error) {
	s.mu.Lock()
	list := make([]models.Operator, 0, len(s.operators))
	for _, op := range s.operators {
		list = append(list, op)
	}
	s.mu.Unlock()

	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (s *MemoryStore) CreateReminderLog(_ context.Context, entry *models.ReminderLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = s.now()
	s.reminders = append(s.reminders, *entry)
	return nil
}

func (s *MemoryStore) WasReminded(_ context.Context, reservationID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.reminders {
		if l.ReservationID == reservationID && l.Status == models.ReminderSent {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) filter(keep func(models.Reservation) bool) []models.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]models.Reservation, 0)
	for _, r := range s.reservations {
		if keep(r) {
			list = append(list, r)
		}
	}
	return list
}

func sortByDateTime(list []models.Reservation) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Date != list[j].Date {
			return list[i].Date < list[j].Date
		}
		if list[i].Time != list[j].Time {
			return list[i].Time < list[j].Time
		}
		return list[i].ID < list[j].ID
	})
}
