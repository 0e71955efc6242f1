package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"salonbot-backend/repository"
)

func newTestReminders(store repository.Store, sms SMSSender) *ReminderService {
	s := NewReminderService(store, sms, msk)
	now, _ := time.ParseInLocation("2006-01-02 15:04", "2026-10-19 10:00", msk)
	s.now = func() time.Time { return now }
	return s
}

func TestSendDailyReminders(t *testing.T) {
	store := repository.NewMemoryStore()
	book(t, store, "2026-10-20", "11:00", "15:00", "16:00")
	book(t, store, "2026-10-21", "11:00")
	if _, _, err := store.Cancel(context.Background(), 3); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	sms := &fakeSMS{}
	s := newTestReminders(store, sms)

	sent, err := s.SendDailyReminders(context.Background())
	if err != nil || sent != 2 {
		t.Fatalf("first run: sent=%d err=%v", sent, err)
	}
	msgs := sms.sent["+79000000000"]
	if len(msgs) != 1 || !strings.Contains(msgs[0], "20.10.2026") || !strings.Contains(msgs[0], "11:00") {
		t.Fatalf("unexpected messages %v", sms.sent)
	}
	if _, ok := sms.sent["+79000000002"]; ok {
		t.Fatalf("cancelled reservation reminded")
	}

	sent, err = s.SendDailyReminders(context.Background())
	if err != nil || sent != 0 {
		t.Fatalf("second run must not resend: sent=%d err=%v", sent, err)
	}
}

func TestFailedReminderIsRetried(t *testing.T) {
	store := repository.NewMemoryStore()
	book(t, store, "2026-10-20", "11:00")

	sms := &fakeSMS{err: errors.New("twilio unavailable")}
	s := newTestReminders(store, sms)

	if sent, _ := s.SendDailyReminders(context.Background()); sent != 0 {
		t.Fatalf("nothing should count as sent")
	}
	if done, _ := store.WasReminded(context.Background(), 1); done {
		t.Fatalf("failed attempt recorded as sent")
	}

	sms.err = nil
	if sent, _ := s.SendDailyReminders(context.Background()); sent != 1 {
		t.Fatalf("retry should send")
	}
}

func TestStartSchedulerRejectsBadSpec(t *testing.T) {
	s := newTestReminders(repository.NewMemoryStore(), &fakeSMS{})
	if err := s.StartScheduler("not a cron"); err == nil {
		t.Fatalf("expected an error")
	}
}

func TestOverlappingRunsSendOnce(t *testing.T) {
	store := repository.NewMemoryStore()
	book(t, store, "2026-10-20", "11:00", "15:00")

	sms := &fakeSMS{}
	s := newTestReminders(store, sms)

	var wg sync.WaitGroup
	var mu sync.Mutex
	total := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sent, err := s.SendDailyReminders(context.Background())
			if err != nil {
				t.Errorf("run: %v", err)
			}
			mu.Lock()
			total += sent
			mu.Unlock()
		}()
	}
	wg.Wait()

	if total != 2 {
		t.Fatalf("sent %d reminders across runs, want 2", total)
	}
	for phone, msgs := range sms.sent {
		if len(msgs) != 1 {
			t.Fatalf("%s got %d messages", phone, len(msgs))
		}
	}
}
