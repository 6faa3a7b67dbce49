package model

import "strings"

// TimeSlot is one bookable time for a date and party size.
type TimeSlot struct {
	Time             string `json:"time"`
	IsAvailable      bool   `json:"is_available"`
	OccupiedTableIDs []int  `json:"occupied_table_ids"`
}

// Label is the slot time cut to HH:MM.
func (s TimeSlot) Label() string {
	if len(s.Time) > 5 {
		return s.Time[:5]
	}
	return s.Time
}

// Matches reports whether a selected time refers to this slot. The backend
// sends "19:00:00" while selections are kept as "19:00".
func (s TimeSlot) Matches(selected string) bool {
	if selected == "" {
		return false
	}
	return strings.HasPrefix(s.Time, selected) || strings.HasPrefix(selected, s.Time)
}

// Availability is the response of GET /bookings/availability/{date}.
type Availability struct {
	Date            string     `json:"date,omitempty"`
	TimeSlots       []TimeSlot `json:"time_slots"`
	MinAdvanceHours int        `json:"min_advance_hours,omitempty"`
}

// FindSlot returns the slot matching the selected time.
func (a *Availability) FindSlot(selected string) (TimeSlot, bool) {
	if a == nil {
		return TimeSlot{}, false
	}
	for _, slot := range a.TimeSlots {
		if slot.Matches(selected) {
			return slot, true
		}
	}
	return TimeSlot{}, false
}

// AvailableSlots keeps only the slots a guest may pick.
func (a *Availability) AvailableSlots() []TimeSlot {
	if a == nil {
		return nil
	}
	out := make([]TimeSlot, 0, len(a.TimeSlots))
	for _, slot := range a.TimeSlots {
		if slot.IsAvailable {
			out = append(out, slot)
		}
	}
	return out
}
