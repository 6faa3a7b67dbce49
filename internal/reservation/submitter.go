// Package reservation turns a completed draft into a backend booking and
// decides where the guest goes next.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"tablebook/internal/booking/validator"
	"tablebook/pkg/kafka"
	"tablebook/pkg/logger"
	"tablebook/pkg/model"
	"tablebook/pkg/sanitizer"
)

var (
	ErrIncompleteDraft = errors.New("draft is incomplete")
	ErrInvalidPayment  = errors.New("payment status must be success or failed")
	ErrInvalidBooking  = errors.New("booking id must be positive")
)

type Status string

const (
	StatusRedirect Status = "redirect"
	StatusSuccess  Status = "success"
)

// Outcome tells the caller what to show after a booking was accepted.
type Outcome struct {
	BookingID   int    `json:"booking_id"`
	Status      Status `json:"status"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

// Bookings is the part of the backend client used for submission.
type Bookings interface {
	Create(ctx context.Context, req model.BookingRequest) (*model.BookingResponse, error)
	Webhook(ctx context.Context, bookingID int, status model.PaymentStatus) error
}

type Config struct {
	PaymentPagePath string
	DepositAmount   int
	Source          string
}

type Submitter struct {
	bookings  Bookings
	validator *validator.DraftValidator
	publisher kafka.Publisher
	cfg       Config
	log       *logger.Logger
	now       func() time.Time
}

func NewSubmitter(bookings Bookings, v *validator.DraftValidator, publisher kafka.Publisher, cfg Config, log *logger.Logger) *Submitter {
	if publisher == nil {
		publisher = kafka.NopPublisher{}
	}
	return &Submitter{
		bookings:  bookings,
		validator: v,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// BuildRequest packages a draft into the backend's booking payload.
func BuildRequest(draft model.BookingDraft) (model.BookingRequest, error) {
	if draft.TableID == nil {
		return model.BookingRequest{}, fmt.Errorf("%w: table_id", ErrIncompleteDraft)
	}
	return model.BookingRequest{
		UserName:   sanitizer.NormalizeName(draft.Name),
		UserPhone:  draft.Phone,
		Date:       draft.Date,
		Time:       draft.Time,
		GuestCount: draft.Guests,
		TableID:    *draft.TableID,
		Comment:    sanitizer.NormalizeComment(draft.Comment),
	}, nil
}

// Submit validates and posts the draft. Backend failures are returned as
// they come from the client so the caller can show the normalised message;
// the draft is never modified here.
func (s *Submitter) Submit(ctx context.Context, draft model.BookingDraft) (*Outcome, error) {
	if err := s.validator.Validate(&draft); err != nil {
		return nil, err
	}
	req, err := BuildRequest(draft)
	if err != nil {
		return nil, err
	}

	resp, err := s.bookings.Create(ctx, req)
	if err != nil {
		s.log.Warn("Booking submission rejected",
			"date", req.Date,
			"time", req.Time,
			"table_id", req.TableID,
			"error", err,
		)
		return nil, err
	}

	outcome := s.outcomeFor(resp)
	s.log.Info("Booking submitted",
		"booking_id", resp.BookingID,
		"table_id", req.TableID,
		"date", req.Date,
		"time", req.Time,
		"status", outcome.Status,
	)

	s.publish(ctx, req, resp.BookingID)
	return outcome, nil
}

func (s *Submitter) outcomeFor(resp *model.BookingResponse) *Outcome {
	if resp.PaymentURL == "" {
		return &Outcome{BookingID: resp.BookingID, Status: StatusSuccess}
	}
	return &Outcome{
		BookingID:   resp.BookingID,
		Status:      StatusRedirect,
		RedirectURL: PaymentPageURL(s.cfg.PaymentPagePath, resp.BookingID, s.cfg.DepositAmount),
	}
}

// PaymentPageURL points at the simulated payment page.
func PaymentPageURL(path string, bookingID, amount int) string {
	q := url.Values{}
	q.Set("booking_id", strconv.Itoa(bookingID))
	q.Set("amount", strconv.Itoa(amount))
	return path + "?" + q.Encode()
}

func (s *Submitter) publish(ctx context.Context, req model.BookingRequest, bookingID int) {
	phone := sanitizer.NormalizePhone(req.UserPhone)
	if phone == "" {
		phone = strconv.Itoa(req.TableID)
	}

	msg, err := kafka.NewMessage().
		WithKey(phone).
		WithEventType(kafka.EventBookingSubmitted).
		WithSource(s.cfg.Source).
		WithValue(model.BookingSubmitted{
			BookingID:   bookingID,
			TableID:     req.TableID,
			Date:        req.Date,
			Time:        req.Time,
			GuestCount:  req.GuestCount,
			PhoneE164:   phone,
			SubmittedAt: s.now().UTC(),
		}).
		Build()
	if err == nil {
		err = s.publisher.Publish(ctx, msg)
	}
	if err != nil {
		s.log.Error("Failed to publish booking event",
			"booking_id", bookingID,
			"error", err,
		)
	}
}

// SimulatePayment reports a payment result through the backend webhook.
func (s *Submitter) SimulatePayment(ctx context.Context, bookingID int, status model.PaymentStatus) error {
	if bookingID <= 0 {
		return ErrInvalidBooking
	}
	if status != model.PaymentSuccess && status != model.PaymentFailed {
		return ErrInvalidPayment
	}
	if err := s.bookings.Webhook(ctx, bookingID, status); err != nil {
		s.log.Warn("Payment webhook failed",
			"booking_id", bookingID,
			"payment_status", status,
			"error", err,
		)
		return err
	}
	s.log.Info("Payment simulated", "booking_id", bookingID, "payment_status", status)
	return nil
}
