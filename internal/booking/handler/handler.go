package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"tablebook/internal/availability"
	"tablebook/internal/booking/session"
	"tablebook/internal/booking/validator"
	"tablebook/internal/hallmap"
	"tablebook/internal/reservation"
	"tablebook/internal/wizard"
	"tablebook/pkg/client"
	apperrors "tablebook/pkg/errors"
	httputil "tablebook/pkg/http"
	"tablebook/pkg/logger"
	"tablebook/pkg/middleware"
	"tablebook/pkg/model"
	"tablebook/pkg/sanitizer"
)

// TableSource lists the restaurant's tables.
type TableSource interface {
	List(ctx context.Context) ([]model.Table, error)
}

type Submitter interface {
	Submit(ctx context.Context, draft model.BookingDraft) (*reservation.Outcome, error)
	SimulatePayment(ctx context.Context, bookingID int, status model.PaymentStatus) error
}

type Deps struct {
	Store        *session.Store
	Tables       TableSource
	Availability availability.Fetcher
	Submitter    Submitter
	RateLimiter  middleware.RateLimiter
	RateWindow   time.Duration
	Idempotency  middleware.IdempotencyStore
	Log          *logger.Logger
}

type BookingHandler struct {
	store        *session.Store
	tables       TableSource
	availability availability.Fetcher
	submitter    Submitter
	limiter      middleware.RateLimiter
	rateWindow   time.Duration
	idempotency  middleware.IdempotencyStore
	log          *logger.Logger
}

func NewBookingHandler(d Deps) *BookingHandler {
	return &BookingHandler{
		store:        d.Store,
		tables:       d.Tables,
		availability: d.Availability,
		submitter:    d.Submitter,
		limiter:      d.RateLimiter,
		rateWindow:   d.RateWindow,
		idempotency:  d.Idempotency,
		log:          d.Log,
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/session", h.StartSession)
	router.GET("/api/v1/session", h.GetSession)
	router.PUT("/api/v1/session/date-guests", h.SetDateGuests)
	router.PUT("/api/v1/session/time", h.SetTime)
	router.PUT("/api/v1/session/table", h.SelectTable)
	router.PUT("/api/v1/session/contact", h.SetContact)
	router.POST("/api/v1/session/next", h.Next)
	router.POST("/api/v1/session/back", h.Back)
	router.POST("/api/v1/session/restart", h.Restart)
	router.Handler(http.MethodPost, "/api/v1/session/submit", middleware.Chain(
		http.HandlerFunc(h.Submit),
		middleware.Idempotency(h.idempotency, h.sessionScope),
		middleware.PhoneRateLimit(h.limiter, h.draftPhone, h.rateWindow, h.log),
	))

	router.GET("/api/v1/hallmap", h.Scene)
	router.GET("/api/v1/hallmap.svg", h.SVG)
	router.PUT("/api/v1/hallmap/zone", h.SetZone)
	router.PUT("/api/v1/hallmap/mode", h.SetMode)
	router.POST("/api/v1/hallmap/zoom", h.Zoom)
	router.POST("/api/v1/hallmap/pan/begin", h.BeginPan)
	router.POST("/api/v1/hallmap/pan/move", h.MovePan)
	router.POST("/api/v1/hallmap/pan/end", h.EndPan)

	router.GET("/api/v1/availability/:date", h.Availability)
	router.POST("/api/v1/payments/:id/simulate", h.SimulatePayment)
}

// sessionResponse carries the session view, plus the error when a session
// action was refused, so clients always see the kept draft.
type sessionResponse struct {
	Session session.View             `json:"session"`
	Error   *apperrors.ErrorResponse `json:"error,omitempty"`
}

// session resolves the caller's session or writes 404.
func (h *BookingHandler) session(w http.ResponseWriter, r *http.Request, handler string) (*session.Session, bool) {
	s, err := h.store.FromRequest(r)
	if err != nil {
		h.writeError(w, handler, apperrors.NotFound("Session"))
		return nil, false
	}
	return s, true
}

// sessionScope keys idempotent submits by session so two guests cannot
// collide on the same Idempotency-Key.
func (h *BookingHandler) sessionScope(r *http.Request) string {
	s, err := h.store.FromRequest(r)
	if err != nil {
		return ""
	}
	return s.ID
}

// draftPhone is the rate limit key of a submit: the session's phone in E.164.
func (h *BookingHandler) draftPhone(r *http.Request) string {
	s, err := h.store.FromRequest(r)
	if err != nil {
		return ""
	}
	var phone string
	_ = s.Do(func(s *session.Session) error {
		phone = s.Wizard().Draft().Phone
		return nil
	})
	return sanitizer.NormalizePhone(phone)
}

func (h *BookingHandler) writeView(w http.ResponseWriter, handler string, status int, view session.View, err error) {
	if err == nil {
		if writeErr := httputil.WriteJSON(w, status, sessionResponse{Session: view}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	appErr := toAppError(err)
	if appErr.StatusCode() >= http.StatusInternalServerError {
		h.log.Error("Session action failed", "handler", handler, "error", err)
	}
	resp := sessionResponse{
		Session: view,
		Error: &apperrors.ErrorResponse{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		},
	}
	if writeErr := httputil.WriteJSON(w, appErr.StatusCode(), resp); writeErr != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", writeErr)
	}
}

func (h *BookingHandler) writeJSON(w http.ResponseWriter, handler string, status int, data any) {
	if err := httputil.WriteJSON(w, status, data); err != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	appErr := toAppError(err)
	if appErr.StatusCode() >= http.StatusInternalServerError {
		h.log.Error("Request failed", "handler", handler, "error", err)
	}
	if writeErr := httputil.WriteError(w, appErr); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

// toAppError maps domain errors onto HTTP errors. Backend errors keep their
// normalised message.
func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return apperrors.Validation("Проверьте введённые данные", map[string]any{
			"fields": validationErrs.Fields(),
			"errors": []validator.ValidationError(validationErrs),
		})
	}

	if apiErr, ok := client.AsAPIError(err); ok {
		switch {
		case apiErr.Status == http.StatusConflict:
			return apperrors.Conflict(apiErr.Message)
		case apiErr.Status == http.StatusNotFound:
			return apperrors.New(apperrors.CodeNotFound, apiErr.Message, http.StatusNotFound)
		case apiErr.Status >= 400 && apiErr.Status < 500:
			return apperrors.Validation(apiErr.Message, nil)
		default:
			return apperrors.BadGateway(apiErr.Message, err)
		}
	}

	switch {
	case errors.Is(err, wizard.ErrInvalidDate),
		errors.Is(err, wizard.ErrDateInPast),
		errors.Is(err, wizard.ErrInvalidGuests):
		return apperrors.Validation(err.Error(), nil)
	case errors.Is(err, wizard.ErrDateRequired),
		errors.Is(err, wizard.ErrTimeRequired),
		errors.Is(err, wizard.ErrTableRequired),
		errors.Is(err, wizard.ErrWrongStep),
		errors.Is(err, wizard.ErrNoPreviousStep),
		errors.Is(err, availability.ErrLoading),
		errors.Is(err, availability.ErrNoAvailability):
		return apperrors.PreconditionFailed(err.Error())
	case errors.Is(err, wizard.ErrTableOccupied),
		errors.Is(err, wizard.ErrSlotUnavailable),
		errors.Is(err, availability.ErrSlotUnavailable),
		errors.Is(err, wizard.ErrFinished):
		return apperrors.Conflict(err.Error())
	case errors.Is(err, availability.ErrSlotNotFound):
		return apperrors.NotFound("Time slot")
	case errors.Is(err, hallmap.ErrTableNotInZone):
		return apperrors.NotFound("Table")
	case errors.Is(err, hallmap.ErrUnknownZone),
		errors.Is(err, hallmap.ErrUnknownMode),
		errors.Is(err, reservation.ErrInvalidPayment),
		errors.Is(err, reservation.ErrInvalidBooking):
		return apperrors.InvalidInput(err.Error())
	case errors.Is(err, session.ErrTablesUnavailable):
		return apperrors.Unavailable("Tables")
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("Backend did not answer in time")
	}
	return apperrors.Internal("An unexpected error occurred", err)
}
