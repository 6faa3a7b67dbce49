package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"tablebook/internal/availability"
	"tablebook/internal/booking/validator"
	"tablebook/internal/hallmap"
	"tablebook/internal/reservation"
	"tablebook/internal/wizard"
	"tablebook/pkg/logger"
	"tablebook/pkg/model"
	"tablebook/pkg/sealer"
)

const testKey = "lfQVRuulcL2iOhOJ2r8BYTweoSKwVAJnIF9U+AL+M60="

type mockFetcher struct {
	mu               sync.Mutex
	availabilityFunc func(ctx context.Context, date string, guests int) (*model.Availability, error)
}

func (m *mockFetcher) Availability(ctx context.Context, date string, guests int) (*model.Availability, error) {
	m.mu.Lock()
	fn := m.availabilityFunc
	m.mu.Unlock()
	return fn(ctx, date, guests)
}

func (m *mockFetcher) set(fn func(ctx context.Context, date string, guests int) (*model.Availability, error)) {
	m.mu.Lock()
	m.availabilityFunc = fn
	m.mu.Unlock()
}

func evening(occupied ...int) *model.Availability {
	return &model.Availability{
		TimeSlots: []model.TimeSlot{
			{Time: "18:00:00", IsAvailable: true},
			{Time: "19:00:00", IsAvailable: true, OccupiedTableIDs: occupied},
			{Time: "20:00:00", IsAvailable: false},
		},
		MinAdvanceHours: 2,
	}
}

func hall() []model.Table {
	return []model.Table{
		{ID: 101, TableNumber: "101", Zone: model.ZoneHall1, Seats: 2, X: 100, Y: 100, IsActive: true},
		{ID: 102, TableNumber: "102", Zone: model.ZoneHall1, Seats: 4, X: 300, Y: 100, IsActive: true},
		{ID: 201, TableNumber: "201", Zone: model.ZoneHall2, Seats: 6, X: 300, Y: 300, IsActive: true},
	}
}

func newTestStore(t *testing.T, fetcher availability.Fetcher) *Store {
	t.Helper()
	s, err := sealer.New(testKey, "session")
	if err != nil {
		t.Fatal(err)
	}
	log := logger.Discard()
	return NewStore(Config{
		TTL:                 time.Hour,
		Canvas:              hallmap.Canvas{Width: 800, Height: 600},
		AvailabilityTimeout: time.Second,
		Today:               func() string { return "2025-06-01" },
	}, s, fetcher, validator.NewDraftValidator(log), log)
}

func waitSettled(t *testing.T, s *Session) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.Resolver().Snapshot().Loading {
		if time.Now().After(deadline) {
			t.Fatal("availability query did not settle")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("availability query did not settle")
	}
}

func TestSession_BookingFlow(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.set(func(ctx context.Context, date string, guests int) (*model.Availability, error) {
		return evening(102), nil
	})
	st := newTestStore(t, fetcher)
	s := st.Create()
	waitSettled(t, s)

	var view View
	err := s.Do(func(s *Session) error {
		view = s.View()
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if view.Step != wizard.StepDateGuests {
		t.Errorf("step = %s", view.Step)
	}
	if len(view.Slots) != 2 {
		t.Errorf("slots = %d, want only the 2 available ones", len(view.Slots))
	}
	if view.MinAdvanceHours != 2 {
		t.Errorf("min advance hours = %d", view.MinAdvanceHours)
	}

	var done <-chan struct{}
	_ = s.Do(func(s *Session) error {
		done, err = s.SetDateGuests("2025-06-02", 4)
		return err
	})
	if err != nil || done == nil {
		t.Fatalf("SetDateGuests() = %v, %v", done, err)
	}
	wait(t, done)

	err = s.Do(func(s *Session) error {
		if err := s.Wizard().Next(); err != nil {
			return err
		}
		if err := s.SelectTime("19:00"); err != nil {
			return err
		}
		return s.Wizard().Next()
	})
	if err != nil {
		t.Fatalf("advance to table step: %v", err)
	}

	err = s.Do(func(s *Session) error {
		return s.ClickTable(hall(), 102)
	})
	if !errors.Is(err, wizard.ErrTableOccupied) {
		t.Errorf("click on occupied table error = %v", err)
	}

	err = s.Do(func(s *Session) error {
		return s.ClickTable(hall(), 201)
	})
	if !errors.Is(err, hallmap.ErrTableNotInZone) {
		t.Errorf("click outside zone error = %v", err)
	}

	_ = s.Do(func(s *Session) error {
		if err := s.ClickTable(hall(), 101); err != nil {
			t.Fatalf("ClickTable() error = %v", err)
		}
		view = s.View()
		return nil
	})
	if view.Draft.TableID == nil || *view.Draft.TableID != 101 {
		t.Errorf("selected table = %v", view.Draft.TableID)
	}
	if len(view.Occupied) != 1 || view.Occupied[0] != 102 {
		t.Errorf("occupied = %v", view.Occupied)
	}
}

func TestSession_TimeReleasedByNewerAvailability(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.set(func(ctx context.Context, date string, guests int) (*model.Availability, error) {
		return evening(), nil
	})
	st := newTestStore(t, fetcher)
	s := st.Create()
	waitSettled(t, s)

	_ = s.Do(func(s *Session) error {
		_ = s.Wizard().Next()
		return s.SelectTime("19:00")
	})

	fetcher.set(func(ctx context.Context, date string, guests int) (*model.Availability, error) {
		return &model.Availability{TimeSlots: []model.TimeSlot{{Time: "19:00:00", IsAvailable: false}}}, nil
	})
	var done <-chan struct{}
	_ = s.Do(func(s *Session) error {
		done, _ = s.SetDateGuests("2025-06-03", 2)
		return nil
	})
	wait(t, done)

	var view View
	_ = s.Do(func(s *Session) error {
		view = s.View()
		return nil
	})
	if view.Draft.Time != "" {
		t.Errorf("time = %q, want cleared", view.Draft.Time)
	}
	if len(view.Notices) != 1 || view.Notices[0] != NoticeTimeReleased {
		t.Errorf("notices = %v", view.Notices)
	}
}

func TestSession_SelectTimeWhileLoading(t *testing.T) {
	release := make(chan struct{})
	fetcher := &mockFetcher{}
	fetcher.set(func(ctx context.Context, date string, guests int) (*model.Availability, error) {
		<-release
		return evening(), nil
	})
	st := newTestStore(t, fetcher)
	s := st.Create()
	defer close(release)

	err := s.Do(func(s *Session) error {
		_ = s.Wizard().Next()
		return s.SelectTime("19:00")
	})
	if !errors.Is(err, availability.ErrLoading) {
		t.Errorf("SelectTime() error = %v, want ErrLoading", err)
	}
}

func TestSession_AvailabilityFailureNotice(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.set(func(ctx context.Context, date string, guests int) (*model.Availability, error) {
		return nil, errors.New("backend down")
	})
	st := newTestStore(t, fetcher)
	s := st.Create()
	waitSettled(t, s)

	var view View
	_ = s.Do(func(s *Session) error {
		view = s.View()
		return nil
	})
	if len(view.Notices) != 1 || view.Notices[0] != NoticeAvailabilityUnavailable {
		t.Errorf("notices = %v", view.Notices)
	}
	if view.Loading {
		t.Errorf("loading should be cleared after a failure")
	}
}

func TestSession_TablesUnavailable(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.set(func(ctx context.Context, date string, guests int) (*model.Availability, error) {
		return evening(), nil
	})
	s := newTestStore(t, fetcher).Create()

	var view View
	err := s.Do(func(s *Session) error {
		err := s.ClickTable(nil, 101)
		view = s.View()
		return err
	})
	if !errors.Is(err, ErrTablesUnavailable) {
		t.Errorf("error = %v", err)
	}
	if len(view.Notices) == 0 || view.Notices[0] != NoticeTablesUnavailable {
		t.Errorf("notices = %v", view.Notices)
	}
}

func TestSession_CompleteAndRestart(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.set(func(ctx context.Context, date string, guests int) (*model.Availability, error) {
		return evening(), nil
	})
	s := newTestStore(t, fetcher).Create()
	waitSettled(t, s)

	var view View
	_ = s.Do(func(s *Session) error {
		s.SetError("Table already booked")
		s.Complete(&reservation.Outcome{BookingID: 9, Status: reservation.StatusSuccess})
		view = s.View()
		return nil
	})
	if view.Step != wizard.StepDone || view.Outcome == nil || view.Error != "" {
		t.Errorf("unexpected view after completion: %+v", view)
	}

	_ = s.Do(func(s *Session) error {
		s.Restart()
		view = s.View()
		return nil
	})
	if view.Step != wizard.StepDateGuests || view.Outcome != nil {
		t.Errorf("unexpected view after restart: %+v", view)
	}
	if view.Draft.Guests != validator.DefaultGuests {
		t.Errorf("guests = %d", view.Draft.Guests)
	}
}

func TestStore_Cookie(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.set(func(ctx context.Context, date string, guests int) (*model.Availability, error) {
		return evening(), nil
	})
	st := newTestStore(t, fetcher)
	s := st.Create()

	rec := httptest.NewRecorder()
	if err := st.SetCookie(rec, s); err != nil {
		t.Fatalf("SetCookie() error = %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName || !cookies[0].HttpOnly {
		t.Fatalf("unexpected cookies %+v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.AddCookie(cookies[0])
	got, err := st.FromRequest(req)
	if err != nil {
		t.Fatalf("FromRequest() error = %v", err)
	}
	if got != s {
		t.Errorf("FromRequest() returned a different session")
	}

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{"missing", nil},
		{"raw id", &http.Cookie{Name: CookieName, Value: s.ID}},
		{"tampered", &http.Cookie{Name: CookieName, Value: cookies[0].Value[:len(cookies[0].Value)-4] + "AAAA"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			if _, err := st.FromRequest(req); !errors.Is(err, ErrNotFound) {
				t.Errorf("FromRequest() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_Sweep(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.set(func(ctx context.Context, date string, guests int) (*model.Availability, error) {
		return evening(), nil
	})
	st := newTestStore(t, fetcher)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }

	idle := st.Create()
	active := st.Create()
	waitSettled(t, idle)
	waitSettled(t, active)

	now = now.Add(50 * time.Minute)
	if _, err := st.Get(active.ID); err != nil {
		t.Fatal(err)
	}
	now = now.Add(20 * time.Minute)

	if removed := st.Sweep(); removed != 1 {
		t.Errorf("Sweep() removed %d, want 1", removed)
	}
	if _, err := st.Get(idle.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("idle session still present")
	}
	if _, err := st.Get(active.ID); err != nil {
		t.Errorf("active session removed")
	}

	// A closed resolver settles immediately and never loads again.
	select {
	case <-idle.Resolver().Query("2025-06-02", 2):
	case <-time.After(time.Second):
		t.Fatal("closed resolver started a query")
	}
	if idle.Resolver().Snapshot().Loading {
		t.Errorf("closed resolver reports loading")
	}
}

func TestSession_DateChangeOnDetails(t *testing.T) {
	toDetails := func(t *testing.T, fetcher *mockFetcher) *Session {
		t.Helper()
		fetcher.set(func(ctx context.Context, date string, guests int) (*model.Availability, error) {
			return evening(102), nil
		})
		s := newTestStore(t, fetcher).Create()
		waitSettled(t, s)

		err := s.Do(func(s *Session) error {
			if err := s.Wizard().Next(); err != nil {
				return err
			}
			if err := s.SelectTime("19:00"); err != nil {
				return err
			}
			if err := s.Wizard().Next(); err != nil {
				return err
			}
			if err := s.ClickTable(hall(), 101); err != nil {
				return err
			}
			if err := s.Wizard().Next(); err != nil {
				return err
			}
			_, err := s.Wizard().SetContact("Иван", "+7 (999) 888-77-44", "")
			return err
		})
		if err != nil {
			t.Fatalf("walk to details: %v", err)
		}
		return s
	}

	t.Run("in flight", func(t *testing.T) {
		fetcher := &mockFetcher{}
		s := toDetails(t, fetcher)

		release := make(chan struct{})
		defer close(release)
		fetcher.set(func(ctx context.Context, date string, guests int) (*model.Availability, error) {
			<-release
			return evening(), nil
		})

		var (
			view      View
			submitErr error
		)
		_ = s.Do(func(s *Session) error {
			_, err := s.SetDateGuests("2025-06-05", 4)
			if err != nil {
				t.Fatalf("SetDateGuests() error = %v", err)
			}
			submitErr = s.Wizard().Validate()
			view = s.View()
			return nil
		})
		if !errors.Is(submitErr, availability.ErrLoading) {
			t.Errorf("Validate() error = %v, want ErrLoading", submitErr)
		}
		if !view.Loading || view.CanSubmit {
			t.Errorf("loading = %v, can submit = %v", view.Loading, view.CanSubmit)
		}
		if len(view.Occupied) != 0 {
			t.Errorf("occupied = %v, want the old date's set dropped", view.Occupied)
		}
	})

	t.Run("failed", func(t *testing.T) {
		fetcher := &mockFetcher{}
		s := toDetails(t, fetcher)

		fetcher.set(func(ctx context.Context, date string, guests int) (*model.Availability, error) {
			return nil, errors.New("backend down")
		})
		var done <-chan struct{}
		_ = s.Do(func(s *Session) error {
			done, _ = s.SetDateGuests("2025-06-05", 4)
			return nil
		})
		wait(t, done)

		var view View
		_ = s.Do(func(s *Session) error {
			view = s.View()
			return nil
		})
		if view.Draft.Date != "2025-06-05" || view.Draft.Time != "" {
			t.Errorf("draft = %+v, want new date without a time", view.Draft)
		}
		if view.Step != wizard.StepTime {
			t.Errorf("step = %s, want time", view.Step)
		}
		if view.CanSubmit || len(view.Slots) != 0 || len(view.Occupied) != 0 {
			t.Errorf("stale availability kept: %+v", view)
		}
		if len(view.Notices) != 1 || view.Notices[0] != NoticeAvailabilityUnavailable {
			t.Errorf("notices = %v", view.Notices)
		}
	})
}
