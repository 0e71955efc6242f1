package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type recordingNotifier struct {
	mu        sync.Mutex
	created   []ReservationCreatedEvent
	cancelled []ReservationCancelledEvent
	err       error
}

func (n *recordingNotifier) ReservationCreated(_ context.Context, e ReservationCreatedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, e)
	return n.err
}

func (n *recordingNotifier) ReservationCancelled(_ context.Context, e ReservationCancelledEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, e)
	return n.err
}

func (n *recordingNotifier) counts() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.created), len(n.cancelled)
}

type fakeSMS struct {
	mu   sync.Mutex
	sent map[string][]string
	err  error
}

func (f *fakeSMS) SendSMS(_ context.Context, to, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if f.sent == nil {
		f.sent = make(map[string][]string)
	}
	f.sent[to] = append(f.sent[to], body)
	return "SM123", nil
}

type fakePublisher struct {
	subjects []string
	payloads [][]byte
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

var sampleCreated = ReservationCreatedEvent{
	ID: 7, Service: "💇 Стрижка", Price: 1500, Date: "2026-10-20", Time: "11:00", Name: "Анна", Phone: "+79123456789",
}

func TestMultiNotifierJoinsErrors(t *testing.T) {
	ok := &recordingNotifier{}
	bad := &recordingNotifier{err: errors.New("telegram down")}
	m := MultiNotifier{bad, ok}

	err := m.ReservationCreated(context.Background(), sampleCreated)
	if err == nil || !strings.Contains(err.Error(), "telegram down") {
		t.Fatalf("expected joined error, got %v", err)
	}
	if created, _ := ok.counts(); created != 1 {
		t.Fatalf("a failing notifier must not stop the others")
	}
}

func TestDispatcherSwallowsFailures(t *testing.T) {
	n := &recordingNotifier{err: errors.New("boom")}
	d := NewDispatcher(n, time.Second)

	d.ReservationCreated(sampleCreated)
	d.ReservationCancelled(ReservationCancelledEvent{ID: 7})
	d.Wait()

	created, cancelled := n.counts()
	if created != 1 || cancelled != 1 {
		t.Fatalf("created=%d cancelled=%d", created, cancelled)
	}

	var nilDispatcher *Dispatcher
	nilDispatcher.ReservationCreated(sampleCreated)
	nilDispatcher.Wait()
}

func TestSMSNotifier(t *testing.T) {
	sms := &fakeSMS{}
	n, err := NewSMSNotifier(sms, "8 (912) 000-11-22")
	if err != nil {
		t.Fatalf("NewSMSNotifier: %v", err)
	}
	if err := n.ReservationCreated(context.Background(), sampleCreated); err != nil {
		t.Fatalf("ReservationCreated: %v", err)
	}
	msgs := sms.sent["+79120001122"]
	if len(msgs) != 1 || !strings.Contains(msgs[0], "20.10.2026 11:00") || !strings.Contains(msgs[0], "#7") {
		t.Fatalf("unexpected messages %v", sms.sent)
	}

	if _, err := NewSMSNotifier(sms, "12345"); err == nil {
		t.Fatalf("expected invalid operator phone to fail")
	}
}

func TestNATSNotifierPublishesEnvelope(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNATSNotifierWithPublisher(pub)

	if err := n.ReservationCreated(context.Background(), sampleCreated); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := n.ReservationCancelled(context.Background(), ReservationCancelledEvent{ID: 7}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(pub.subjects) != 2 || pub.subjects[0] != SubjectReservationCreated || pub.subjects[1] != SubjectReservationCancelled {
		t.Fatalf("unexpected subjects %v", pub.subjects)
	}

	var env struct {
		ID      string                  `json:"id"`
		Subject string                  `json:"subject"`
		Data    ReservationCreatedEvent `json:"data"`
	}
	if err := json.Unmarshal(pub.payloads[0], &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.ID == "" || env.Data.ID != 7 || env.Data.Phone != "+79123456789" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}
