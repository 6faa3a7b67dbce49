// Package wizard holds the booking draft and moves it through the steps
// date-guests, time, table and details. Forward moves check the data the
// next step depends on; backward moves are always allowed and keep what
// was entered.
package wizard

import (
	"errors"
	"slices"
	"time"

	"tablebook/internal/availability"
	"tablebook/internal/booking/validator"
	"tablebook/pkg/model"
	"tablebook/pkg/sanitizer"
)

type Step string

const (
	StepDateGuests Step = "date-guests"
	StepTime       Step = "time"
	StepTable      Step = "table"
	StepDetails    Step = "details"
	StepDone       Step = "done"
)

const dateLayout = "2006-01-02"

var (
	ErrDateRequired    = errors.New("date and guests must be set")
	ErrInvalidDate     = errors.New("date must be in YYYY-MM-DD format")
	ErrDateInPast      = errors.New("date is in the past")
	ErrInvalidGuests   = errors.New("party size is not offered")
	ErrTimeRequired    = errors.New("choose a time first")
	ErrTableRequired   = errors.New("choose a table first")
	ErrTableOccupied   = errors.New("table is occupied at the selected time")
	ErrSlotUnavailable = errors.New("time slot is not available")
	ErrWrongStep       = errors.New("action is not available on this step")
	ErrNoPreviousStep  = errors.New("already on the first step")
	ErrFinished        = errors.New("booking already submitted")
)

type stage struct {
	step Step
	// enter checks the preconditions of moving into step.
	enter func(w *Wizard) error
}

var stages = []stage{
	{step: StepDateGuests, enter: func(*Wizard) error { return nil }},
	{step: StepTime, enter: (*Wizard).enterTime},
	{step: StepTable, enter: (*Wizard).enterTable},
	{step: StepDetails, enter: (*Wizard).enterDetails},
}

func indexOf(step Step) int {
	for i, s := range stages {
		if s.step == step {
			return i
		}
	}
	return -1
}

// Wizard is not safe for concurrent use; the owning session serialises
// access.
type Wizard struct {
	step         Step
	draft        model.BookingDraft
	occupied     []int
	availability *model.Availability
	// awaiting is set while the slots for the current date and party size
	// have not arrived yet.
	awaiting bool
	validator *validator.DraftValidator
	today     func() string
}

// New starts a wizard on the first step with today's date and the default
// party size. today returns the current date in the restaurant's timezone.
func New(v *validator.DraftValidator, today func() string) *Wizard {
	if today == nil {
		today = func() string { return time.Now().Format(dateLayout) }
	}
	return &Wizard{
		step:      StepDateGuests,
		validator: v,
		today:     today,
		draft: model.BookingDraft{
			Date:   today(),
			Guests: validator.DefaultGuests,
		},
	}
}

func (w *Wizard) Step() Step {
	return w.step
}

// Draft returns a copy of the draft.
func (w *Wizard) Draft() model.BookingDraft {
	d := w.draft
	if w.draft.TableID != nil {
		id := *w.draft.TableID
		d.TableID = &id
	}
	return d
}

// Occupied is the occupancy set of the selected time slot.
func (w *Wizard) Occupied() []int {
	return slices.Clone(w.occupied)
}

// SetDateGuests updates the query inputs. It reports whether they changed,
// in which case the old slots are dropped and availability must be queried
// again.
func (w *Wizard) SetDateGuests(date string, guests int) (bool, error) {
	if w.step == StepDone {
		return false, ErrFinished
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return false, ErrInvalidDate
	}
	if date < w.today() {
		return false, ErrDateInPast
	}
	if !validator.ValidGuests(guests) {
		return false, ErrInvalidGuests
	}

	changed := date != w.draft.Date || guests != w.draft.Guests
	w.draft.Date = date
	w.draft.Guests = guests
	if changed {
		w.AwaitAvailability()
	}
	return changed, nil
}

// AwaitAvailability drops the slots and occupancy of the previous query
// inputs. The selected time is kept until the new result shows whether it
// is still offered; until then tables cannot be picked and the draft cannot
// be submitted.
func (w *Wizard) AwaitAvailability() {
	w.awaiting = true
	w.availability = nil
	w.occupied = nil
}

// Awaiting reports whether a query for the current inputs is outstanding.
func (w *Wizard) Awaiting() bool {
	return w.awaiting
}

// ApplyAvailability takes the latest availability result. A nil result
// means the query failed: no slots are known, so the selected time is
// cleared. A selected time that is no longer available is cleared too.
// Either way a guest past the time step is sent back to it. It reports
// whether the time was cleared.
func (w *Wizard) ApplyAvailability(avail *model.Availability) bool {
	w.awaiting = false
	w.availability = avail
	if w.draft.Time == "" {
		w.occupied = nil
		return false
	}

	slot, ok := avail.FindSlot(w.draft.Time)
	if !ok || !slot.IsAvailable {
		w.releaseTime()
		return true
	}

	w.captureOccupancy(slot)
	if w.draft.TableID == nil && indexOf(w.step) > indexOf(StepTable) {
		w.step = StepTable
	}
	return false
}

func (w *Wizard) releaseTime() {
	w.draft.Time = ""
	w.occupied = nil
	if indexOf(w.step) > indexOf(StepTime) {
		w.step = StepTime
	}
}

// SelectTime records an available slot and captures its occupied tables.
func (w *Wizard) SelectTime(slot model.TimeSlot) error {
	if w.step != StepTime && w.step != StepTable {
		return ErrWrongStep
	}
	if !slot.IsAvailable {
		return ErrSlotUnavailable
	}
	w.draft.Time = slot.Label()
	w.captureOccupancy(slot)
	return nil
}

func (w *Wizard) captureOccupancy(slot model.TimeSlot) {
	w.occupied = slices.Clone(slot.OccupiedTableIDs)
	if w.draft.TableID != nil && slices.Contains(w.occupied, *w.draft.TableID) {
		w.draft.TableID = nil
	}
}

// SelectTable records the guest's table. Occupied tables are refused.
func (w *Wizard) SelectTable(tableID int) error {
	if w.step != StepTable {
		return ErrWrongStep
	}
	if w.awaiting {
		return availability.ErrLoading
	}
	if w.draft.Time == "" {
		return ErrTimeRequired
	}
	if slices.Contains(w.occupied, tableID) {
		return ErrTableOccupied
	}
	w.draft.TableID = &tableID
	return nil
}

// SetContact stores the contact fields. The phone is run through the input
// mask and the masked value is returned.
func (w *Wizard) SetContact(name, phone, comment string) (string, error) {
	if w.step == StepDone {
		return "", ErrFinished
	}
	w.draft.Name = name
	w.draft.Phone = sanitizer.MaskPhone(phone)
	w.draft.Comment = comment
	return w.draft.Phone, nil
}

// Next moves forward one step if the next step's preconditions hold.
// Submission is not a step move; see Validate.
func (w *Wizard) Next() error {
	i := indexOf(w.step)
	if i < 0 {
		return ErrFinished
	}
	if i == len(stages)-1 {
		return ErrWrongStep
	}
	next := stages[i+1]
	if err := next.enter(w); err != nil {
		return err
	}
	w.step = next.step
	return nil
}

// Back moves to the previous step without clearing any data.
func (w *Wizard) Back() error {
	i := indexOf(w.step)
	if i < 0 {
		return ErrFinished
	}
	if i == 0 {
		return ErrNoPreviousStep
	}
	w.step = stages[i-1].step
	return nil
}

func (w *Wizard) enterTime() error {
	if w.draft.Date == "" || w.draft.Guests < 1 {
		return ErrDateRequired
	}
	return nil
}

func (w *Wizard) enterTable() error {
	if w.draft.Time == "" {
		return ErrTimeRequired
	}
	if w.awaiting {
		return availability.ErrLoading
	}
	if slot, ok := w.availability.FindSlot(w.draft.Time); ok {
		w.captureOccupancy(slot)
	}
	return nil
}

func (w *Wizard) enterDetails() error {
	if w.draft.TableID == nil {
		return ErrTableRequired
	}
	if w.awaiting {
		return availability.ErrLoading
	}
	return nil
}

// Validate runs the final checks before submission.
func (w *Wizard) Validate() error {
	if w.step == StepDone {
		return ErrFinished
	}
	if w.step != StepDetails {
		return ErrWrongStep
	}
	if w.awaiting {
		return availability.ErrLoading
	}
	draft := w.Draft()
	return w.validator.Validate(&draft)
}

// CanSubmit drives the enabled state of the submit button.
func (w *Wizard) CanSubmit() bool {
	return w.Validate() == nil
}

// Finish discards the draft after a successful submission.
func (w *Wizard) Finish() {
	w.step = StepDone
	w.draft = model.BookingDraft{}
	w.occupied = nil
	w.awaiting = false
}

// Restart begins a new booking after Finish.
func (w *Wizard) Restart() {
	w.step = StepDateGuests
	w.occupied = nil
	w.availability = nil
	w.awaiting = false
	w.draft = model.BookingDraft{
		Date:   w.today(),
		Guests: validator.DefaultGuests,
	}
}
