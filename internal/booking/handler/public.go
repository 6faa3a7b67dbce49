package handler

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"tablebook/internal/booking/validator"
	apperrors "tablebook/pkg/errors"
	httputil "tablebook/pkg/http"
	"tablebook/pkg/model"
)

// Availability passes a slot query straight to the backend. It holds no
// session state.
func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	date := ps.ByName("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		h.writeError(w, "Availability", apperrors.InvalidInput("date must be in YYYY-MM-DD format"))
		return
	}
	guests, err := httputil.QueryInt(r, "guest_count", validator.DefaultGuests)
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}
	if guests < 1 {
		h.writeError(w, "Availability", apperrors.InvalidInput("guest_count must be positive"))
		return
	}

	avail, err := h.availability.Availability(r.Context(), date, guests)
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}
	h.writeJSON(w, "Availability", http.StatusOK, avail)
}

type simulatePaymentRequest struct {
	PaymentStatus model.PaymentStatus `json:"payment_status"`
}

type simulatePaymentResponse struct {
	BookingID     int                 `json:"booking_id"`
	PaymentStatus model.PaymentStatus `json:"payment_status"`
}

func (h *BookingHandler) SimulatePayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ParamInt(ps.ByName("id"), "booking id")
	if err != nil {
		h.writeError(w, "SimulatePayment", err)
		return
	}
	var req simulatePaymentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "SimulatePayment", err)
		return
	}

	if err := h.submitter.SimulatePayment(r.Context(), id, req.PaymentStatus); err != nil {
		h.writeError(w, "SimulatePayment", err)
		return
	}
	h.writeJSON(w, "SimulatePayment", http.StatusOK, simulatePaymentResponse{
		BookingID:     id,
		PaymentStatus: req.PaymentStatus,
	})
}
