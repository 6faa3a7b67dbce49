package wizard

import (
	"errors"
	"testing"

	"tablebook/internal/availability"
	"tablebook/internal/booking/validator"
	"tablebook/pkg/logger"
	"tablebook/pkg/model"
)

func fixedToday() string { return "2025-05-30" }

func newWizard() *Wizard {
	return New(validator.NewDraftValidator(logger.Discard()), fixedToday)
}

func scenarioAvailability() *model.Availability {
	return &model.Availability{
		TimeSlots: []model.TimeSlot{
			{Time: "18:00:00", IsAvailable: true, OccupiedTableIDs: []int{}},
			{Time: "19:00:00", IsAvailable: true, OccupiedTableIDs: []int{203}},
			{Time: "20:00:00", IsAvailable: false},
		},
	}
}

// toTableStep walks the wizard to the table step at 19:00.
func toTableStep(t *testing.T, w *Wizard) {
	t.Helper()
	if _, err := w.SetDateGuests("2025-06-01", 4); err != nil {
		t.Fatalf("SetDateGuests() error = %v", err)
	}
	if err := w.Next(); err != nil {
		t.Fatalf("Next() to time error = %v", err)
	}
	avail := scenarioAvailability()
	w.ApplyAvailability(avail)
	slot, _ := avail.FindSlot("19:00")
	if err := w.SelectTime(slot); err != nil {
		t.Fatalf("SelectTime() error = %v", err)
	}
	if err := w.Next(); err != nil {
		t.Fatalf("Next() to table error = %v", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	w := newWizard()

	if w.Step() != StepDateGuests {
		t.Errorf("step = %s", w.Step())
	}
	d := w.Draft()
	if d.Guests != 2 {
		t.Errorf("guests = %d, want 2", d.Guests)
	}
	if d.Date != "2025-05-30" {
		t.Errorf("date = %s, want today", d.Date)
	}
}

func TestSetDateGuests(t *testing.T) {
	tests := []struct {
		name        string
		date        string
		guests      int
		wantChanged bool
		wantErr     error
	}{
		{"new date", "2025-06-01", 2, true, nil},
		{"same values", "2025-05-30", 2, false, nil},
		{"new guests", "2025-05-30", 4, true, nil},
		{"bad format", "01/06/2025", 2, false, ErrInvalidDate},
		{"past date", "2025-05-01", 2, false, ErrDateInPast},
		{"party size not offered", "2025-06-01", 7, false, ErrInvalidGuests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWizard()
			changed, err := w.SetDateGuests(tt.date, tt.guests)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SetDateGuests() error = %v, want %v", err, tt.wantErr)
			}
			if changed != tt.wantChanged {
				t.Errorf("changed = %v, want %v", changed, tt.wantChanged)
			}
		})
	}
}

func TestScenarioA(t *testing.T) {
	w := newWizard()
	toTableStep(t, w)

	if w.Step() != StepTable {
		t.Fatalf("step = %s, want table", w.Step())
	}
	if occ := w.Occupied(); len(occ) != 1 || occ[0] != 203 {
		t.Errorf("occupied = %v, want [203]", occ)
	}
	if err := w.SelectTable(203); !errors.Is(err, ErrTableOccupied) {
		t.Errorf("SelectTable(203) error = %v, want ErrTableOccupied", err)
	}
	if err := w.SelectTable(201); err != nil {
		t.Fatalf("SelectTable(201) error = %v", err)
	}
	if err := w.Next(); err != nil {
		t.Fatalf("Next() to details error = %v", err)
	}
	if w.Step() != StepDetails {
		t.Errorf("step = %s, want details", w.Step())
	}
	if d := w.Draft(); d.Time != "19:00" || *d.TableID != 201 {
		t.Errorf("draft = %+v", d)
	}
}

func TestNext_Preconditions(t *testing.T) {
	t.Run("table requires a time", func(t *testing.T) {
		w := newWizard()
		_ = w.Next()
		if err := w.Next(); !errors.Is(err, ErrTimeRequired) {
			t.Errorf("Next() error = %v, want ErrTimeRequired", err)
		}
		if w.Step() != StepTime {
			t.Errorf("step changed to %s", w.Step())
		}
	})

	t.Run("details requires a table", func(t *testing.T) {
		w := newWizard()
		toTableStep(t, w)
		if err := w.Next(); !errors.Is(err, ErrTableRequired) {
			t.Errorf("Next() error = %v, want ErrTableRequired", err)
		}
		if w.Step() != StepTable {
			t.Errorf("step changed to %s", w.Step())
		}
	})

	t.Run("no step after details", func(t *testing.T) {
		w := newWizard()
		toTableStep(t, w)
		_ = w.SelectTable(201)
		_ = w.Next()
		if err := w.Next(); !errors.Is(err, ErrWrongStep) {
			t.Errorf("Next() error = %v, want ErrWrongStep", err)
		}
	})
}

func TestBack_KeepsData(t *testing.T) {
	w := newWizard()
	toTableStep(t, w)
	_ = w.SelectTable(201)
	_ = w.Next()

	for _, want := range []Step{StepTable, StepTime, StepDateGuests} {
		if err := w.Back(); err != nil {
			t.Fatalf("Back() error = %v", err)
		}
		if w.Step() != want {
			t.Fatalf("step = %s, want %s", w.Step(), want)
		}
	}
	if err := w.Back(); !errors.Is(err, ErrNoPreviousStep) {
		t.Errorf("Back() on first step error = %v", err)
	}

	d := w.Draft()
	if d.Date != "2025-06-01" || d.Guests != 4 || d.Time != "19:00" || d.TableID == nil {
		t.Errorf("draft lost data going back: %+v", d)
	}
}

func TestApplyAvailability(t *testing.T) {
	t.Run("clears time that became unavailable", func(t *testing.T) {
		w := newWizard()
		toTableStep(t, w)
		_ = w.SelectTable(201)
		_ = w.Next()

		cleared := w.ApplyAvailability(&model.Availability{
			TimeSlots: []model.TimeSlot{{Time: "19:00:00", IsAvailable: false}},
		})
		if !cleared {
			t.Fatalf("expected time to be cleared")
		}
		if w.Draft().Time != "" {
			t.Errorf("time should be empty")
		}
		if w.Step() != StepTime {
			t.Errorf("step = %s, want time", w.Step())
		}
		if len(w.Occupied()) != 0 {
			t.Errorf("occupancy should be dropped")
		}
	})

	t.Run("keeps available time and refreshes occupancy", func(t *testing.T) {
		w := newWizard()
		toTableStep(t, w)
		_ = w.SelectTable(201)

		cleared := w.ApplyAvailability(&model.Availability{
			TimeSlots: []model.TimeSlot{{Time: "19:00:00", IsAvailable: true, OccupiedTableIDs: []int{201}}},
		})
		if cleared {
			t.Fatalf("time should be kept")
		}
		if w.Draft().TableID != nil {
			t.Errorf("a table that became occupied must be deselected")
		}
	})

	t.Run("failed query clears time and occupancy", func(t *testing.T) {
		w := newWizard()
		toTableStep(t, w)
		_ = w.SelectTable(201)
		_ = w.Next()

		if !w.ApplyAvailability(nil) {
			t.Errorf("a failed query should clear the time")
		}
		if w.Draft().Time != "" {
			t.Errorf("time = %q, want cleared", w.Draft().Time)
		}
		if len(w.Occupied()) != 0 {
			t.Errorf("occupied = %v, want empty", w.Occupied())
		}
		if w.Step() != StepTime {
			t.Errorf("step = %s, want time", w.Step())
		}
		if err := w.Next(); !errors.Is(err, ErrTimeRequired) {
			t.Errorf("Next() error = %v, want ErrTimeRequired", err)
		}
	})

	t.Run("table taken on the details step goes back to table", func(t *testing.T) {
		w := newWizard()
		toTableStep(t, w)
		_ = w.SelectTable(201)
		_ = w.Next()

		w.ApplyAvailability(&model.Availability{
			TimeSlots: []model.TimeSlot{{Time: "19:00:00", IsAvailable: true, OccupiedTableIDs: []int{201}}},
		})
		if w.Step() != StepTable || w.Draft().TableID != nil {
			t.Errorf("step = %s, table = %v", w.Step(), w.Draft().TableID)
		}
	})
}

func TestDateChangeOnDetails(t *testing.T) {
	toDetails := func(t *testing.T) *Wizard {
		t.Helper()
		w := newWizard()
		toTableStep(t, w)
		if err := w.SelectTable(201); err != nil {
			t.Fatal(err)
		}
		if err := w.Next(); err != nil {
			t.Fatal(err)
		}
		if _, err := w.SetContact("Иван", "+7 (999) 888-77-44", ""); err != nil {
			t.Fatal(err)
		}
		if !w.CanSubmit() {
			t.Fatalf("draft should be submittable before the change: %v", w.Validate())
		}
		changed, err := w.SetDateGuests("2025-06-05", 4)
		if err != nil || !changed {
			t.Fatalf("SetDateGuests() = %v, %v", changed, err)
		}
		return w
	}

	t.Run("pending query blocks submission", func(t *testing.T) {
		w := toDetails(t)

		if !w.Awaiting() {
			t.Fatal("wizard should await the new slots")
		}
		if err := w.Validate(); !errors.Is(err, availability.ErrLoading) {
			t.Errorf("Validate() error = %v, want ErrLoading", err)
		}
		if w.CanSubmit() {
			t.Error("submit must be disabled while slots load")
		}
		if len(w.Occupied()) != 0 {
			t.Errorf("occupancy of the old date kept: %v", w.Occupied())
		}
	})

	t.Run("table selection waits for the new slots", func(t *testing.T) {
		w := toDetails(t)
		_ = w.Back()

		if err := w.SelectTable(202); !errors.Is(err, availability.ErrLoading) {
			t.Errorf("SelectTable() error = %v, want ErrLoading", err)
		}
	})

	t.Run("time still offered keeps the draft", func(t *testing.T) {
		w := toDetails(t)

		if w.ApplyAvailability(scenarioAvailability()) {
			t.Fatal("19:00 is still offered and should be kept")
		}
		if w.Step() != StepDetails || !w.CanSubmit() {
			t.Errorf("step = %s, validate = %v", w.Step(), w.Validate())
		}
		if occ := w.Occupied(); len(occ) != 1 || occ[0] != 203 {
			t.Errorf("occupied = %v, want the new slot's [203]", occ)
		}
	})

	t.Run("failed query sends the guest back to time", func(t *testing.T) {
		w := toDetails(t)

		w.ApplyAvailability(nil)
		if w.Awaiting() {
			t.Error("a settled query must clear the pending flag")
		}
		d := w.Draft()
		if d.Date != "2025-06-05" || d.Time != "" {
			t.Errorf("draft = %+v", d)
		}
		if w.Step() != StepTime || w.CanSubmit() {
			t.Errorf("step = %s, can submit = %v", w.Step(), w.CanSubmit())
		}
	})
}

func TestSelectTime_Unavailable(t *testing.T) {
	w := newWizard()
	_ = w.Next()

	if err := w.SelectTime(model.TimeSlot{Time: "20:00:00"}); !errors.Is(err, ErrSlotUnavailable) {
		t.Errorf("SelectTime() error = %v, want ErrSlotUnavailable", err)
	}
}

func TestScenarioB(t *testing.T) {
	w := newWizard()
	toTableStep(t, w)
	_ = w.SelectTable(201)
	_ = w.Next()

	masked, err := w.SetContact("Иван", "+7 (999) 888-77-44", "")
	if err != nil {
		t.Fatalf("SetContact() error = %v", err)
	}
	if len(masked) != 18 {
		t.Errorf("masked length = %d, want 18", len(masked))
	}
	if !w.CanSubmit() {
		t.Errorf("complete draft should be submittable, got %v", w.Validate())
	}

	if _, err := w.SetContact("Иван", "+7 999", ""); err != nil {
		t.Fatalf("SetContact() error = %v", err)
	}
	if w.CanSubmit() {
		t.Errorf("short phone should disable submit")
	}
	var verrs validator.ValidationErrors
	if !errors.As(w.Validate(), &verrs) || verrs[0].Field != "phone" {
		t.Errorf("expected phone validation error, got %v", w.Validate())
	}
}

func TestFinishAndRestart(t *testing.T) {
	w := newWizard()
	toTableStep(t, w)
	w.Finish()

	if w.Step() != StepDone {
		t.Errorf("step = %s", w.Step())
	}
	if err := w.Next(); !errors.Is(err, ErrFinished) {
		t.Errorf("Next() after finish error = %v", err)
	}
	if _, err := w.SetDateGuests("2025-06-01", 2); !errors.Is(err, ErrFinished) {
		t.Errorf("SetDateGuests() after finish error = %v", err)
	}

	w.Restart()
	if w.Step() != StepDateGuests || w.Draft().Guests != 2 {
		t.Errorf("restart did not reset the wizard")
	}
}
