package model

import "time"

type PaymentStatus string

const (
	PaymentSuccess   PaymentStatus = "success"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentSuccess, PaymentFailed, PaymentCancelled:
		return true
	}
	return false
}

// BookingDraft is the reservation being assembled by the wizard.
type BookingDraft struct {
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	Time    string `json:"time" validate:"required"`
	Guests  int    `json:"guests" validate:"required,min=1,max=20"`
	TableID *int   `json:"table_id" validate:"required"`
	Name    string `json:"name" validate:"required,max=100"`
	Phone   string `json:"phone" validate:"required,masked_phone"`
	Comment string `json:"comment,omitempty" validate:"max=500"`
}

// BookingRequest is the payload of POST /bookings.
type BookingRequest struct {
	UserName   string `json:"user_name"`
	UserPhone  string `json:"user_phone"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	GuestCount int    `json:"guest_count"`
	TableID    int    `json:"table_id"`
	Comment    string `json:"comment,omitempty"`
}

// BookingResponse is what the backend returns for a created booking.
type BookingResponse struct {
	BookingID  int    `json:"booking_id"`
	PaymentURL string `json:"payment_url,omitempty"`
	Status     string `json:"status,omitempty"`
}

// PaymentWebhook is the payload of POST /bookings/{id}/webhook.
type PaymentWebhook struct {
	BookingID     int           `json:"booking_id"`
	PaymentStatus PaymentStatus `json:"payment_status"`
}

// BookingSubmitted is published once the backend has accepted a booking.
type BookingSubmitted struct {
	BookingID   int       `json:"booking_id"`
	TableID     int       `json:"table_id"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	GuestCount  int       `json:"guest_count"`
	PhoneE164   string    `json:"phone_e164"`
	SubmittedAt time.Time `json:"submitted_at"`
}
