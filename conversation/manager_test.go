package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"salonbot-backend/config"
	"salonbot-backend/models"
	"salonbot-backend/repository"
	"salonbot-backend/services"
)

var msk = time.FixedZone("MSK", 3*60*60)

type countingNotifier struct {
	mu      sync.Mutex
	created []services.ReservationCreatedEvent
}

func (n *countingNotifier) ReservationCreated(_ context.Context, e services.ReservationCreatedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, e)
	return nil
}

func (n *countingNotifier) ReservationCancelled(context.Context, services.ReservationCancelledEvent) error {
	return nil
}

type fixture struct {
	manager    *Manager
	store      *repository.MemoryStore
	notifier   *countingNotifier
	dispatcher *services.Dispatcher

	mu  sync.Mutex
	now time.Time
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) setClock(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

func rules(capacity int) config.BookingRules {
	return config.BookingRules{
		Location:       msk,
		WindowDays:     14,
		DailyCapacity:  capacity,
		ClosedWeekdays: map[time.Weekday]bool{time.Saturday: true, time.Sunday: true},
		SlotTimes:      []string{"10:00", "11:00", "12:00", "14:00", "15:00", "16:00", "17:00", "18:00"},
	}
}

// newFixture pins the clock to Monday 2026-10-19 08:00.
func newFixture(t *testing.T, reader repository.AvailabilityReader) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	if reader == nil {
		reader = store
	}
	catalog, err := services.NewCatalog(services.DefaultServices())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	availability := services.NewAvailability(rules(8), reader)

	notifier := &countingNotifier{}
	dispatcher := services.NewDispatcher(notifier, time.Second)
	f := &fixture{
		manager:    NewManager(catalog, availability, store, dispatcher),
		store:      store,
		notifier:   notifier,
		dispatcher: dispatcher,
		now:        time.Date(2026, 10, 19, 8, 0, 0, 0, msk),
	}
	availability.SetClock(f.clock)
	return f
}

func (f *fixture) send(t *testing.T, session string, events ...Event) Reply {
	t.Helper()
	var reply Reply
	for _, ev := range events {
		var err error
		reply, err = f.manager.Handle(context.Background(), session, ev)
		if err != nil {
			t.Fatalf("Handle(%+v): %v", ev, err)
		}
	}
	return reply
}

func payloads(r Reply) []string {
	var out []string
	for _, row := range r.Choices {
		for _, c := range row {
			out = append(out, c.Payload)
		}
	}
	return out
}

func offers(r Reply, payload string) bool {
	for _, p := range payloads(r) {
		if p == payload {
			return true
		}
	}
	return false
}

func expectState(t *testing.T, r Reply, want State) {
	t.Helper()
	if r.State != want {
		t.Fatalf("state = %s, want %s (reply %q)", r.State, want, r.Text)
	}
}

// toConfirm walks a session from /book to the confirmation summary.
func (f *fixture) toConfirm(t *testing.T, session, date, clock, phone string) Reply {
	t.Helper()
	r := f.send(t, session,
		Command(CommandBook, ""),
		ChoiceEvent("haircut"),
		ChoiceEvent(date),
		ChoiceEvent(clock),
		Text("Анна"),
		Text(phone),
	)
	expectState(t, r, StateConfirm)
	return r
}

func TestBookingEndToEnd(t *testing.T) {
	f := newFixture(t, nil)

	r := f.send(t, "chat-1", Command(CommandBook, ""))
	expectState(t, r, StateService)
	if !offers(r, "haircut") || !offers(r, ActionCancel) {
		t.Fatalf("catalog not offered: %v", payloads(r))
	}

	r = f.send(t, "chat-1", ChoiceEvent("haircut"))
	expectState(t, r, StateDate)
	if !offers(r, "2026-10-19") || offers(r, "2026-10-24") {
		t.Fatalf("unexpected dates: %v", payloads(r))
	}

	r = f.send(t, "chat-1", ChoiceEvent("2026-10-20"))
	expectState(t, r, StateTime)
	if !offers(r, "11:00") || offers(r, "13:00") {
		t.Fatalf("unexpected times: %v", payloads(r))
	}

	r = f.send(t, "chat-1", ChoiceEvent("11:00"))
	expectState(t, r, StateName)
	r = f.send(t, "chat-1", Text("  Анна "))
	expectState(t, r, StatePhone)
	r = f.send(t, "chat-1", Text("89123456789"))
	expectState(t, r, StateConfirm)
	if !strings.Contains(r.Text, "+79123456789") || !strings.Contains(r.Text, "20.10.2026") {
		t.Fatalf("summary missing details: %q", r.Text)
	}

	r = f.send(t, "chat-1", ChoiceEvent(ActionConfirm))
	expectState(t, r, StateDone)
	if _, ok := f.manager.State("chat-1"); ok {
		t.Fatalf("finished session should be discarded")
	}

	list, _ := f.store.ListByPhone(context.Background(), "+79123456789")
	if len(list) != 1 {
		t.Fatalf("expected one reservation, got %d", len(list))
	}
	res := list[0]
	if res.Status != models.StatusActive || res.Date != "2026-10-20" || res.Time != "11:00" ||
		res.ClientName != "Анна" || res.ServiceName != "💇 Стрижка" || res.Price != 1500 || res.SessionID != "chat-1" {
		t.Fatalf("unexpected reservation %+v", res)
	}

	customer, err := f.store.GetCustomer(context.Background(), "+79123456789")
	if err != nil || customer.TotalVisits != 1 || customer.TotalSpent != 1500 {
		t.Fatalf("customer %+v, %v", customer, err)
	}

	f.dispatcher.Wait()
	if len(f.notifier.created) != 1 || f.notifier.created[0].ID != res.ID {
		t.Fatalf("operator not notified: %+v", f.notifier.created)
	}
}

func TestTypedInputFormats(t *testing.T) {
	f := newFixture(t, nil)

	r := f.send(t, "chat-1", Command(CommandBook, ""), Text("стрижка"))
	expectState(t, r, StateDate)
	r = f.send(t, "chat-1", Text("20.10.2026"))
	expectState(t, r, StateTime)

	r = f.send(t, "chat-1", Text("13:00"))
	expectState(t, r, StateTime)
	if r.Text != msgTimeNotOffered {
		t.Fatalf("unexpected hint %q", r.Text)
	}
	r = f.send(t, "chat-1", Text("полдень"))
	expectState(t, r, StateTime)
	if r.Text != msgBadTime {
		t.Fatalf("unexpected hint %q", r.Text)
	}
	r = f.send(t, "chat-1", Text("10:00"))
	expectState(t, r, StateName)
}

func TestRejectedInputReprompts(t *testing.T) {
	f := newFixture(t, nil)

	r := f.send(t, "chat-1", Command(CommandBook, ""), Text("педикюр"))
	expectState(t, r, StateService)
	if r.Text != msgUnknownService {
		t.Fatalf("unexpected text %q", r.Text)
	}

	r = f.send(t, "chat-1", ChoiceEvent("manicure"), Text("24.10.2026"))
	expectState(t, r, StateDate)
	if r.Text != msgDateNotOffered {
		t.Fatalf("closed day: %q", r.Text)
	}
	r = f.send(t, "chat-1", Text("на следующей неделе"))
	expectState(t, r, StateDate)
	if r.Text != msgBadDate {
		t.Fatalf("bad date: %q", r.Text)
	}

	r = f.send(t, "chat-1", ChoiceEvent("2026-10-21"), ChoiceEvent("12:00"), Text("   "))
	expectState(t, r, StateName)
	if r.Text != msgEmptyName {
		t.Fatalf("empty name: %q", r.Text)
	}
	r = f.send(t, "chat-1", Text(strings.Repeat("я", 65)))
	expectState(t, r, StateName)
	if r.Text != msgLongName {
		t.Fatalf("long name: %q", r.Text)
	}

	r = f.send(t, "chat-1", Text("Анна"), Text("12345"))
	expectState(t, r, StatePhone)
	if r.Text != msgBadPhone {
		t.Fatalf("bad phone: %q", r.Text)
	}
	r = f.send(t, "chat-1", Text("+7 (912) 345-67-89"))
	expectState(t, r, StateConfirm)

	r = f.send(t, "chat-1", Text("может быть"))
	expectState(t, r, StateConfirm)
	if !strings.HasPrefix(r.Text, msgConfirmHint) {
		t.Fatalf("unrecognized confirm input: %q", r.Text)
	}
}

func TestTimeIsRevalidatedBeforeAccepting(t *testing.T) {
	f := newFixture(t, nil)
	r := f.send(t, "chat-1", Command(CommandBook, ""), ChoiceEvent("haircut"), ChoiceEvent("2026-10-20"))
	if !offers(r, "11:00") {
		t.Fatalf("11:00 should be offered")
	}

	// somebody else takes 11:00 after it was offered
	f.toConfirm(t, "chat-2", "2026-10-20", "11:00", "89990000000")
	f.send(t, "chat-2", ChoiceEvent(ActionConfirm))

	r = f.send(t, "chat-1", ChoiceEvent("11:00"))
	expectState(t, r, StateTime)
	if r.Text != msgSlotTaken || offers(r, "11:00") || !offers(r, "12:00") {
		t.Fatalf("expected fresh times without 11:00, got %q %v", r.Text, payloads(r))
	}
}

func TestRevalidationFallsBackToDate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	taken := []string{"10:00", "11:00", "12:00", "14:00", "15:00", "16:00", "17:00"}
	for i, clock := range taken {
		_, err := f.store.Commit(ctx, models.ReservationCandidate{
			Service: models.ServiceSnapshot{Name: "SPA", Price: 3000, Duration: 60},
			Date:    "2026-10-20", Time: clock, Name: "Гость", Phone: "+7999000000" + string(rune('0'+i)),
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	r := f.send(t, "chat-1", Command(CommandBook, ""), ChoiceEvent("haircut"), ChoiceEvent("2026-10-20"))
	expectState(t, r, StateTime)
	if got := payloads(r); !offers(r, "18:00") || len(got) != 3 {
		t.Fatalf("expected only 18:00 plus back/cancel, got %v", got)
	}

	f.toConfirm(t, "chat-2", "2026-10-20", "18:00", "89990000000")
	f.send(t, "chat-2", ChoiceEvent(ActionConfirm))

	r = f.send(t, "chat-1", ChoiceEvent("18:00"))
	expectState(t, r, StateDate)
	if r.Text != msgDayFull || offers(r, "2026-10-20") {
		t.Fatalf("full day still offered: %q %v", r.Text, payloads(r))
	}
}

func TestConcurrentConfirmsOneWinner(t *testing.T) {
	f := newFixture(t, nil)
	f.toConfirm(t, "chat-a", "2026-10-22", "15:00", "89120000001")
	f.toConfirm(t, "chat-b", "2026-10-22", "15:00", "89120000002")

	var wg sync.WaitGroup
	replies := make([]Reply, 2)
	errs := make([]error, 2)
	for i, id := range []string{"chat-a", "chat-b"} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			replies[i], errs[i] = f.manager.Handle(context.Background(), id, ChoiceEvent(ActionConfirm))
		}(i, id)
	}
	wg.Wait()

	done, retried := 0, 0
	for i, r := range replies {
		if errs[i] != nil {
			t.Fatalf("confirm: %v", errs[i])
		}
		switch r.State {
		case StateDone:
			done++
		case StateTime:
			retried++
			if offers(r, "15:00") {
				t.Fatalf("loser re-offered the lost slot: %v", payloads(r))
			}
			if r.Text != msgSlotTaken {
				t.Fatalf("loser got %q", r.Text)
			}
		default:
			t.Fatalf("unexpected state %s", r.State)
		}
	}
	if done != 1 || retried != 1 {
		t.Fatalf("done=%d retried=%d", done, retried)
	}

	active, _ := f.store.ListActive(context.Background())
	if len(active) != 1 {
		t.Fatalf("expected one active reservation, got %d", len(active))
	}
}

func TestGlobalCancel(t *testing.T) {
	f := newFixture(t, nil)

	r := f.send(t, "chat-1", Command(CommandBook, ""), ChoiceEvent("spa"), ChoiceEvent("2026-10-20"),
		ChoiceEvent("10:00"), Text("Анна"))
	expectState(t, r, StatePhone)

	r = f.send(t, "chat-1", Command(CommandCancel, ""))
	expectState(t, r, StateCancelled)
	if _, ok := f.manager.State("chat-1"); ok {
		t.Fatalf("cancelled session should be discarded")
	}

	f.toConfirm(t, "chat-1", "2026-10-20", "10:00", "89123456789")
	r = f.send(t, "chat-1", Text("Отмена"))
	expectState(t, r, StateCancelled)

	active, _ := f.store.ListActive(context.Background())
	if len(active) != 0 {
		t.Fatalf("cancel must not commit anything")
	}

	r = f.send(t, "chat-1", ChoiceEvent(ActionCancel))
	if r.Text != msgNoneToCancel {
		t.Fatalf("cancel without a session: %q", r.Text)
	}
}

func TestEditAndBack(t *testing.T) {
	f := newFixture(t, nil)

	f.toConfirm(t, "chat-1", "2026-10-20", "10:00", "89123456789")
	r := f.send(t, "chat-1", ChoiceEvent(ActionEdit))
	expectState(t, r, StateService)

	r = f.send(t, "chat-1", ChoiceEvent("massage"), ChoiceEvent("2026-10-21"))
	expectState(t, r, StateTime)
	r = f.send(t, "chat-1", ChoiceEvent(ActionBack))
	expectState(t, r, StateDate)
	r = f.send(t, "chat-1", Text("назад"))
	expectState(t, r, StateDate)

	r = f.send(t, "chat-1", ChoiceEvent("2026-10-22"), ChoiceEvent("14:00"), Text("Мария"), Text("79120000000"),
		ChoiceEvent(ActionConfirm))
	expectState(t, r, StateDone)

	list, _ := f.store.ListByPhone(context.Background(), "+79120000000")
	if len(list) != 1 || list[0].ServiceKey != "massage" || list[0].ClientName != "Мария" {
		t.Fatalf("edited booking not stored: %+v", list)
	}
}

func TestCommandsOutsideBooking(t *testing.T) {
	f := newFixture(t, nil)

	r := f.send(t, "chat-1", Command(CommandStart, ""))
	if r.Text != msgWelcome || !offers(r, ActionBook) {
		t.Fatalf("unexpected welcome %q", r.Text)
	}
	r = f.send(t, "chat-1", Text("привет"))
	expectState(t, r, StateStart)
	if r.Text != msgNoSession {
		t.Fatalf("unexpected hint %q", r.Text)
	}
	r = f.send(t, "chat-1", ChoiceEvent(ActionBook))
	expectState(t, r, StateService)

	r = f.send(t, "chat-1", Command("weather", ""))
	expectState(t, r, StateService)
	if r.Text != msgUnknownCommand {
		t.Fatalf("unknown command: %q", r.Text)
	}
}

func TestMyBookings(t *testing.T) {
	f := newFixture(t, nil)
	f.toConfirm(t, "chat-1", "2026-10-20", "10:00", "89123456789")
	f.send(t, "chat-1", ChoiceEvent(ActionConfirm))

	r := f.send(t, "chat-2", Command(CommandMyBookings, "+7 912 345 67 89"))
	if !strings.Contains(r.Text, "ID: 1") || !strings.Contains(r.Text, "20.10.2026") {
		t.Fatalf("unexpected listing %q", r.Text)
	}
	if r = f.send(t, "chat-2", Command(CommandMyBookings, "")); r.Text != msgMyBookingsHint {
		t.Fatalf("missing phone: %q", r.Text)
	}
	if r = f.send(t, "chat-2", Command(CommandMyBookings, "89990000000")); r.Text != msgNoBookings {
		t.Fatalf("unknown phone: %q", r.Text)
	}

	// the command works in the middle of a booking without disturbing it
	f.send(t, "chat-2", Command(CommandBook, ""), ChoiceEvent("spa"))
	r = f.send(t, "chat-2", Command(CommandMyBookings, "89123456789"))
	expectState(t, r, StateDate)
}

type brokenReader struct{}

func (brokenReader) CountActiveByDates(context.Context, []string) (map[string]int, error) {
	return nil, errors.New("connection refused")
}

func (brokenReader) BusyTimes(context.Context, string) ([]string, error) {
	return nil, errors.New("connection refused")
}

func TestInfrastructureFailureKeepsState(t *testing.T) {
	f := newFixture(t, brokenReader{})

	f.send(t, "chat-1", Command(CommandBook, ""))
	if _, err := f.manager.Handle(context.Background(), "chat-1", ChoiceEvent("haircut")); err == nil {
		t.Fatalf("expected an error")
	}
	if state, ok := f.manager.State("chat-1"); !ok || state != StateService {
		t.Fatalf("state = %s, %v", state, ok)
	}
}

func TestConfirmAfterSlotStarted(t *testing.T) {
	f := newFixture(t, nil)
	f.toConfirm(t, "chat-1", "2026-10-19", "15:00", "89123456789")

	f.setClock(time.Date(2026, 10, 19, 15, 30, 0, 0, msk))
	r := f.send(t, "chat-1", ChoiceEvent(ActionConfirm))
	expectState(t, r, StateTime)
	if r.Text != msgSlotGone || offers(r, "15:00") || !offers(r, "16:00") {
		t.Fatalf("expected later times only, got %q %v", r.Text, payloads(r))
	}

	active, _ := f.store.ListActive(context.Background())
	if len(active) != 0 {
		t.Fatalf("started slot was committed: %+v", active)
	}
}

func TestConfirmAfterDatePassed(t *testing.T) {
	f := newFixture(t, nil)
	f.toConfirm(t, "chat-1", "2026-10-20", "10:00", "89123456789")

	f.setClock(time.Date(2026, 10, 22, 9, 0, 0, 0, msk))
	r := f.send(t, "chat-1", ChoiceEvent(ActionConfirm))
	expectState(t, r, StateDate)
	if r.Text != msgDatePassed || offers(r, "2026-10-20") || !offers(r, "2026-10-22") {
		t.Fatalf("expected fresh dates, got %q %v", r.Text, payloads(r))
	}

	active, _ := f.store.ListActive(context.Background())
	if len(active) != 0 {
		t.Fatalf("past reservation was committed: %+v", active)
	}
}

// sessions reports how many chats currently have a slot.
func (m *Manager) sessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}

func TestIdleChatsAreForgotten(t *testing.T) {
	f := newFixture(t, nil)

	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("visitor-%d", i)
		f.send(t, id, Command(CommandStart, ""), Text("привет"))
		f.manager.State(id)
	}
	if n := f.manager.sessions(); n != 0 {
		t.Fatalf("idle chats kept: %d", n)
	}

	f.send(t, "chat-1", Command(CommandBook, ""), ChoiceEvent("haircut"))
	if n := f.manager.sessions(); n != 1 {
		t.Fatalf("active booking not kept: %d", n)
	}
	if state, ok := f.manager.State("chat-1"); !ok || state != StateDate {
		t.Fatalf("state = %s, %v", state, ok)
	}

	f.send(t, "chat-1", Command(CommandCancel, ""))
	if n := f.manager.sessions(); n != 0 {
		t.Fatalf("cancelled booking kept: %d", n)
	}
}
