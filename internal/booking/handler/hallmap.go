package handler

import (
	"bytes"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"tablebook/internal/booking/session"
	"tablebook/internal/hallmap"
	"tablebook/internal/hallmap/viewport"
	httputil "tablebook/pkg/http"
	"tablebook/pkg/model"
)

type zoneRequest struct {
	Zone model.Zone `json:"zone"`
}

type modeRequest struct {
	Mode hallmap.Mode `json:"mode"`
}

type zoomRequest struct {
	Delta float64 `json:"delta"`
}

type panRequest struct {
	X      float64         `json:"x"`
	Y      float64         `json:"y"`
	Target viewport.Target `json:"target,omitempty"`
}

// mapState is the answer of the hall map toggles.
type mapState struct {
	Zone     model.Zone     `json:"zone"`
	Mode     hallmap.Mode   `json:"mode"`
	Viewport viewport.State `json:"viewport"`
	Changed  bool           `json:"changed"`
}

func stateOf(s *session.Session, changed bool) mapState {
	return mapState{
		Zone:     s.Renderer().Zone(),
		Mode:     s.Renderer().Mode(),
		Viewport: s.Renderer().Viewport().State(),
		Changed:  changed,
	}
}

// Scene returns the hall map of the active zone in the active mode. A failed
// table load leaves a persistent notice on the session and answers 503.
func (h *BookingHandler) Scene(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	scene, ok := h.buildScene(w, r, "Scene", false)
	if !ok {
		return
	}
	h.writeJSON(w, "Scene", http.StatusOK, scene)
}

func (h *BookingHandler) SVG(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	scene, ok := h.buildScene(w, r, "SVG", true)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := hallmap.RenderSVG(&buf, scene); err != nil {
		h.writeError(w, "SVG", err)
		return
	}
	if err := httputil.WriteSVG(w, buf.Bytes()); err != nil {
		h.log.Error("failed to write SVG response", "handler", "SVG", "operation", "WriteSVG", "error", err)
	}
}

func (h *BookingHandler) buildScene(w http.ResponseWriter, r *http.Request, handler string, forceMap bool) (hallmap.Scene, bool) {
	s, ok := h.session(w, r, handler)
	if !ok {
		return hallmap.Scene{}, false
	}
	tables := h.loadTables(r)

	var (
		scene hallmap.Scene
		view  session.View
	)
	err := s.Do(func(s *session.Session) error {
		if tables == nil {
			s.TablesFailed()
			view = s.View()
			return session.ErrTablesUnavailable
		}
		s.TablesLoaded()

		draft := s.Wizard().Draft()
		occupied := s.Wizard().Occupied()
		if forceMap {
			scene = s.Renderer().MapScene(tables, draft.TableID, occupied)
		} else {
			scene = s.Renderer().Scene(tables, draft.TableID, occupied)
		}
		return nil
	})
	if err != nil {
		h.writeView(w, handler, http.StatusOK, view, err)
		return hallmap.Scene{}, false
	}
	return scene, true
}

func (h *BookingHandler) SetZone(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req zoneRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "SetZone", err)
		return
	}
	h.mapAction(w, r, "SetZone", func(s *session.Session) (bool, error) {
		return true, s.Renderer().SetZone(req.Zone)
	})
}

func (h *BookingHandler) SetMode(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req modeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "SetMode", err)
		return
	}
	h.mapAction(w, r, "SetMode", func(s *session.Session) (bool, error) {
		return true, s.Renderer().SetMode(req.Mode)
	})
}

func (h *BookingHandler) Zoom(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req zoomRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Zoom", err)
		return
	}
	h.mapAction(w, r, "Zoom", func(s *session.Session) (bool, error) {
		before := s.Renderer().Viewport().Scale()
		return s.Renderer().Viewport().Zoom(req.Delta) != before, nil
	})
}

func (h *BookingHandler) BeginPan(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req panRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "BeginPan", err)
		return
	}
	if req.Target == "" {
		req.Target = viewport.TargetCanvas
	}
	h.mapAction(w, r, "BeginPan", func(s *session.Session) (bool, error) {
		return s.Renderer().Viewport().BeginPan(model.Position{X: req.X, Y: req.Y}, req.Target), nil
	})
}

func (h *BookingHandler) MovePan(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req panRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "MovePan", err)
		return
	}
	h.mapAction(w, r, "MovePan", func(s *session.Session) (bool, error) {
		return s.Renderer().Viewport().ContinuePan(model.Position{X: req.X, Y: req.Y}), nil
	})
}

func (h *BookingHandler) EndPan(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.mapAction(w, r, "EndPan", func(s *session.Session) (bool, error) {
		was := s.Renderer().Viewport().Panning()
		s.Renderer().Viewport().EndPan()
		return was, nil
	})
}

func (h *BookingHandler) mapAction(w http.ResponseWriter, r *http.Request, handler string, fn func(s *session.Session) (bool, error)) {
	s, ok := h.session(w, r, handler)
	if !ok {
		return
	}
	var state mapState
	err := s.Do(func(s *session.Session) error {
		changed, err := fn(s)
		state = stateOf(s, changed && err == nil)
		return err
	})
	if err != nil {
		h.writeError(w, handler, err)
		return
	}
	h.writeJSON(w, handler, http.StatusOK, state)
}
