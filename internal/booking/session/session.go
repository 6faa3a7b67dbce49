package session

import (
	"errors"
	"slices"
	"sync"
	"time"

	"tablebook/internal/availability"
	"tablebook/internal/hallmap"
	"tablebook/internal/reservation"
	"tablebook/internal/wizard"
	"tablebook/pkg/model"
)

// Notices shown to the guest.
const (
	NoticeTablesUnavailable       = "Не удалось загрузить схему зала"
	NoticeAvailabilityUnavailable = "Не удалось загрузить доступное время"
	NoticeTimeReleased            = "Выбранное время больше недоступно, выберите другое"
)

var ErrTablesUnavailable = errors.New("tables could not be loaded")

// View is the JSON state returned by every session route.
type View struct {
	ID              string               `json:"-"`
	Step            wizard.Step          `json:"step"`
	Draft           model.BookingDraft   `json:"draft"`
	Slots           []model.TimeSlot     `json:"slots"`
	Loading         bool                 `json:"loading"`
	MinAdvanceHours int                  `json:"min_advance_hours,omitempty"`
	Occupied        []int                `json:"occupied_table_ids"`
	CanSubmit       bool                 `json:"can_submit"`
	Zone            model.Zone           `json:"zone"`
	Mode            hallmap.Mode         `json:"mode"`
	Error           string               `json:"error,omitempty"`
	Notices         []string             `json:"notices,omitempty"`
	Outcome         *reservation.Outcome `json:"outcome,omitempty"`
}

// Session is one guest's booking in progress. Every method takes the
// session lock; the resolver has its own lock and is always taken second.
type Session struct {
	ID string

	mu       sync.Mutex
	wizard   *wizard.Wizard
	renderer *hallmap.Renderer
	resolver *availability.Resolver
	synced   uint64
	snap     availability.Snapshot
	touched  time.Time

	outcome   *reservation.Outcome
	errMsg    string
	notices   []string
	selectErr error
}

func newSession(id string, w *wizard.Wizard, canvas hallmap.Canvas, resolver *availability.Resolver, now time.Time) *Session {
	s := &Session{
		ID:       id,
		wizard:   w,
		resolver: resolver,
		touched:  now,
	}
	s.renderer = hallmap.NewRenderer(canvas, func(tableID int) {
		s.selectErr = s.wizard.SelectTable(tableID)
	})
	return s
}

// Do runs fn under the session lock after folding in the latest settled
// availability result.
func (s *Session) Do(fn func(s *Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sync()
	return fn(s)
}

func (s *Session) Wizard() *wizard.Wizard {
	return s.wizard
}

func (s *Session) Renderer() *hallmap.Renderer {
	return s.renderer
}

func (s *Session) Resolver() *availability.Resolver {
	return s.resolver
}

// sync applies the resolver's result once per settled query.
func (s *Session) sync() {
	snap := s.resolver.Snapshot()
	s.snap = snap
	if snap.Seq == s.synced {
		return
	}
	s.synced = snap.Seq

	if snap.Err != nil {
		s.addNotice(NoticeAvailabilityUnavailable)
		s.wizard.ApplyAvailability(nil)
		return
	}
	s.dropNotice(NoticeAvailabilityUnavailable)
	if s.wizard.ApplyAvailability(snap.Availability) {
		s.addNotice(NoticeTimeReleased)
	}
}

// QueryAvailability refetches slots for the wizard's date and party size.
func (s *Session) QueryAvailability() <-chan struct{} {
	draft := s.wizard.Draft()
	s.dropNotice(NoticeTimeReleased)
	s.wizard.AwaitAvailability()
	done := s.resolver.Query(draft.Date, draft.Guests)
	s.snap.Loading = true
	return done
}

// SetDateGuests updates the first step and requeries when the inputs
// changed. The returned channel is closed when that query settles; it is
// nil when nothing was queried.
func (s *Session) SetDateGuests(date string, guests int) (<-chan struct{}, error) {
	changed, err := s.wizard.SetDateGuests(date, guests)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, nil
	}
	return s.QueryAvailability(), nil
}

// SelectTime picks a slot from the current availability.
func (s *Session) SelectTime(selected string) error {
	slot, err := s.resolver.Slot(selected)
	if err != nil {
		return err
	}
	s.dropNotice(NoticeTimeReleased)
	return s.wizard.SelectTime(slot)
}

// ClickTable forwards a hall map click. tables is nil when the table list
// failed to load, in which case selection is refused.
func (s *Session) ClickTable(tables []model.Table, tableID int) error {
	if tables == nil {
		s.addNotice(NoticeTablesUnavailable)
		return ErrTablesUnavailable
	}
	s.dropNotice(NoticeTablesUnavailable)

	s.selectErr = nil
	ran, err := s.renderer.Click(tables, s.wizard.Occupied(), tableID)
	if err != nil {
		return err
	}
	if !ran {
		return wizard.ErrTableOccupied
	}
	return s.selectErr
}

func (s *Session) SetError(msg string) {
	s.errMsg = msg
}

func (s *Session) ClearError() {
	s.errMsg = ""
}

// TablesFailed records the persistent notice for a failed table load.
func (s *Session) TablesFailed() {
	s.addNotice(NoticeTablesUnavailable)
}

func (s *Session) TablesLoaded() {
	s.dropNotice(NoticeTablesUnavailable)
}

// Complete stores the submission outcome and resets the wizard.
func (s *Session) Complete(outcome *reservation.Outcome) {
	s.outcome = outcome
	s.errMsg = ""
	s.wizard.Finish()
}

// Restart begins a new booking on the same session.
func (s *Session) Restart() <-chan struct{} {
	s.outcome = nil
	s.errMsg = ""
	s.notices = nil
	s.wizard.Restart()
	return s.QueryAvailability()
}

// View snapshots the session for a response. Slots come from the result
// last folded into the wizard so the two always agree.
func (s *Session) View() View {
	snap := s.snap
	v := View{
		ID:        s.ID,
		Step:      s.wizard.Step(),
		Draft:     s.wizard.Draft(),
		Loading:   snap.Loading,
		Occupied:  s.wizard.Occupied(),
		CanSubmit: s.wizard.CanSubmit(),
		Zone:      s.renderer.Zone(),
		Mode:      s.renderer.Mode(),
		Error:     s.errMsg,
		Notices:   slices.Clone(s.notices),
		Outcome:   s.outcome,
	}
	if snap.Availability != nil && !snap.Loading {
		v.Slots = snap.Availability.AvailableSlots()
		v.MinAdvanceHours = snap.Availability.MinAdvanceHours
	}
	if v.Slots == nil {
		v.Slots = []model.TimeSlot{}
	}
	if v.Occupied == nil {
		v.Occupied = []int{}
	}
	return v
}

func (s *Session) addNotice(notice string) {
	if !slices.Contains(s.notices, notice) {
		s.notices = append(s.notices, notice)
	}
}

func (s *Session) dropNotice(notice string) {
	s.notices = slices.DeleteFunc(s.notices, func(n string) bool { return n == notice })
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.touched = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.touched)
}
