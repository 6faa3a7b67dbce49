package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"tablebook/internal/booking/session"
	"tablebook/pkg/client"
	httputil "tablebook/pkg/http"
	"tablebook/pkg/model"
)

type dateGuestsRequest struct {
	Date   string `json:"date"`
	Guests int    `json:"guests"`
}

type timeRequest struct {
	Time string `json:"time"`
}

type tableRequest struct {
	TableID int `json:"table_id"`
}

type contactRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Comment string `json:"comment"`
}

func (h *BookingHandler) StartSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s := h.store.Create()
	if err := h.store.SetCookie(w, s); err != nil {
		h.writeError(w, "StartSession", err)
		return
	}

	var view session.View
	_ = s.Do(func(s *session.Session) error {
		view = s.View()
		return nil
	})
	h.writeView(w, "StartSession", http.StatusCreated, view, nil)
}

func (h *BookingHandler) GetSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.act(w, r, "GetSession", func(s *session.Session) error { return nil })
}

// act runs fn on the caller's session and answers with the resulting view.
func (h *BookingHandler) act(w http.ResponseWriter, r *http.Request, handler string, fn func(s *session.Session) error) {
	s, ok := h.session(w, r, handler)
	if !ok {
		return
	}
	var view session.View
	err := s.Do(func(s *session.Session) error {
		err := fn(s)
		view = s.View()
		return err
	})
	h.writeView(w, handler, http.StatusOK, view, err)
}

// SetDateGuests updates date and party size. With ?wait=true the response is
// held until the triggered availability query settles.
func (h *BookingHandler) SetDateGuests(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req dateGuestsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "SetDateGuests", err)
		return
	}
	s, ok := h.session(w, r, "SetDateGuests")
	if !ok {
		return
	}

	var done <-chan struct{}
	err := s.Do(func(s *session.Session) error {
		var err error
		done, err = s.SetDateGuests(req.Date, req.Guests)
		return err
	})
	if err == nil && done != nil && r.URL.Query().Get("wait") == "true" {
		select {
		case <-done:
		case <-r.Context().Done():
		}
	}

	var view session.View
	_ = s.Do(func(s *session.Session) error {
		view = s.View()
		return nil
	})
	h.writeView(w, "SetDateGuests", http.StatusOK, view, err)
}

func (h *BookingHandler) SetTime(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req timeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "SetTime", err)
		return
	}
	h.act(w, r, "SetTime", func(s *session.Session) error {
		return s.SelectTime(req.Time)
	})
}

// SelectTable is a hall map click. The table list is loaded before the
// session is locked.
func (h *BookingHandler) SelectTable(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req tableRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "SelectTable", err)
		return
	}
	tables := h.loadTables(r)
	h.act(w, r, "SelectTable", func(s *session.Session) error {
		return s.ClickTable(tables, req.TableID)
	})
}

func (h *BookingHandler) SetContact(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req contactRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "SetContact", err)
		return
	}
	h.act(w, r, "SetContact", func(s *session.Session) error {
		_, err := s.Wizard().SetContact(req.Name, req.Phone, req.Comment)
		return err
	})
}

func (h *BookingHandler) Next(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.act(w, r, "Next", func(s *session.Session) error {
		return s.Wizard().Next()
	})
}

func (h *BookingHandler) Back(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.act(w, r, "Back", func(s *session.Session) error {
		return s.Wizard().Back()
	})
}

func (h *BookingHandler) Restart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.act(w, r, "Restart", func(s *session.Session) error {
		s.Restart()
		return nil
	})
}

type submitResponse struct {
	Status      string       `json:"status"`
	BookingID   int          `json:"booking_id"`
	RedirectURL string       `json:"redirect_url,omitempty"`
	Session     session.View `json:"session"`
}

// Submit posts the draft. The backend call runs outside the session lock;
// on failure the normalised message is stored on the session and the draft
// is kept for correction.
func (h *BookingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r, "Submit")
	if !ok {
		return
	}

	var (
		draft model.BookingDraft
		view  session.View
	)
	err := s.Do(func(s *session.Session) error {
		if err := s.Wizard().Validate(); err != nil {
			view = s.View()
			return err
		}
		s.ClearError()
		draft = s.Wizard().Draft()
		return nil
	})
	if err != nil {
		h.writeView(w, "Submit", http.StatusOK, view, err)
		return
	}

	outcome, err := h.submitter.Submit(r.Context(), draft)

	_ = s.Do(func(s *session.Session) error {
		if err != nil {
			s.SetError(client.Normalize(err))
		} else {
			s.Complete(outcome)
		}
		view = s.View()
		return nil
	})
	if err != nil {
		h.writeView(w, "Submit", http.StatusOK, view, err)
		return
	}

	h.writeJSON(w, "Submit", http.StatusOK, submitResponse{
		Status:      string(outcome.Status),
		BookingID:   outcome.BookingID,
		RedirectURL: outcome.RedirectURL,
		Session:     view,
	})
}

// loadTables returns nil when the list could not be loaded.
func (h *BookingHandler) loadTables(r *http.Request) []model.Table {
	tables, err := h.tables.List(r.Context())
	if err != nil {
		h.log.Warn("Table list unavailable", "error", err)
		return nil
	}
	if tables == nil {
		tables = []model.Table{}
	}
	return tables
}
