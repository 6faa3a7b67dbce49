package handler

import (
	"bytes"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"tablebook/internal/editor/service"
	"tablebook/internal/hallmap"
	apperrors "tablebook/pkg/errors"
	httputil "tablebook/pkg/http"
	"tablebook/pkg/logger"
	"tablebook/pkg/middleware"
	"tablebook/pkg/model"
)

const prefix = "/api/v1/editor"

type LayoutHandler struct {
	service service.LayoutService
	auth    func(http.Handler) http.Handler
	log     *logger.Logger
}

func NewLayoutHandler(svc service.LayoutService, jwtSecret []byte, log *logger.Logger) *LayoutHandler {
	return &LayoutHandler{
		service: svc,
		auth:    middleware.JWTAuth(jwtSecret, middleware.RoleAdmin, log),
		log:     log,
	}
}

func (h *LayoutHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET(prefix+"/tables", h.protected(h.List))
	router.POST(prefix+"/tables", h.protected(h.Create))
	router.POST(prefix+"/tables/:id/rotate", h.protected(h.Rotate))
	router.DELETE(prefix+"/tables/:id", h.protected(h.Delete))
	router.GET(prefix+"/tables/:id/history", h.protected(h.History))
	router.GET(prefix+"/layout.svg", h.protected(h.LayoutSVG))

	router.POST(prefix+"/drag/begin", h.protected(h.BeginDrag))
	router.POST(prefix+"/drag/move", h.protected(h.MoveDrag))
	router.POST(prefix+"/drag/end", h.protected(h.EndDrag))
	router.POST(prefix+"/drag/cancel", h.protected(h.CancelDrag))
}

// protected runs fn behind admin JWT authentication.
func (h *LayoutHandler) protected(fn httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		h.auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fn(w, r, ps)
		})).ServeHTTP(w, r)
	}
}

func actorOf(r *http.Request) service.Actor {
	p, _ := middleware.PrincipalFrom(r.Context())
	return service.Actor{Subject: p.Subject, Token: p.Token}
}

func zoneOf(r *http.Request) model.Zone {
	zone := model.Zone(r.URL.Query().Get("zone"))
	if zone == "" {
		return model.Zones[0]
	}
	return zone
}

func (h *LayoutHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tables, err := h.service.List(r.Context(), actorOf(r), zoneOf(r))
	if err != nil {
		h.writeError(w, "List", err)
		return
	}
	if err := httputil.WriteSuccess(w, tables); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *LayoutHandler) LayoutSVG(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	scene, err := h.service.Layout(r.Context(), actorOf(r), zoneOf(r))
	if err != nil {
		h.writeError(w, "LayoutSVG", err)
		return
	}
	var buf bytes.Buffer
	if err := hallmap.RenderSVG(&buf, scene); err != nil {
		h.writeError(w, "LayoutSVG", apperrors.Internal("Failed to render layout", err))
		return
	}
	if err := httputil.WriteSVG(w, buf.Bytes()); err != nil {
		h.log.Error("failed to write SVG response", "handler", "LayoutSVG", "operation", "WriteSVG", "error", err)
	}
}

func (h *LayoutHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req service.CreateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	table, err := h.service.Create(r.Context(), actorOf(r), req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}
	if err := httputil.WriteCreated(w, table); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *LayoutHandler) Rotate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ParamInt(ps.ByName("id"), "table id")
	if err != nil {
		h.writeError(w, "Rotate", err)
		return
	}

	table, err := h.service.Rotate(r.Context(), actorOf(r), id)
	if err != nil {
		h.writeError(w, "Rotate", err)
		return
	}
	if err := httputil.WriteSuccess(w, table); err != nil {
		h.log.Error("failed to write success response", "handler", "Rotate", "operation", "WriteSuccess", "error", err)
	}
}

func (h *LayoutHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ParamInt(ps.ByName("id"), "table id")
	if err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := h.service.Delete(r.Context(), actorOf(r), id); err != nil {
		h.writeError(w, "Delete", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *LayoutHandler) History(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ParamInt(ps.ByName("id"), "table id")
	if err != nil {
		h.writeError(w, "History", err)
		return
	}
	limit, err := httputil.QueryInt(r, "limit", 0)
	if err != nil {
		h.writeError(w, "History", err)
		return
	}

	events, err := h.service.History(r.Context(), id, limit)
	if err != nil {
		h.writeError(w, "History", err)
		return
	}
	if err := httputil.WriteSuccess(w, events); err != nil {
		h.log.Error("failed to write success response", "handler", "History", "operation", "WriteSuccess", "error", err)
	}
}

type beginDragRequest struct {
	TableID int     `json:"table_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

type moveDragRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (h *LayoutHandler) BeginDrag(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req beginDragRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "BeginDrag", err)
		return
	}

	state, err := h.service.BeginDrag(r.Context(), actorOf(r), req.TableID, model.Position{X: req.X, Y: req.Y})
	if err != nil {
		h.writeError(w, "BeginDrag", err)
		return
	}
	if err := httputil.WriteSuccess(w, state); err != nil {
		h.log.Error("failed to write success response", "handler", "BeginDrag", "operation", "WriteSuccess", "error", err)
	}
}

func (h *LayoutHandler) MoveDrag(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req moveDragRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "MoveDrag", err)
		return
	}

	pos, err := h.service.MoveDrag(actorOf(r), model.Position{X: req.X, Y: req.Y})
	if err != nil {
		h.writeError(w, "MoveDrag", err)
		return
	}
	if err := httputil.WriteSuccess(w, pos); err != nil {
		h.log.Error("failed to write success response", "handler", "MoveDrag", "operation", "WriteSuccess", "error", err)
	}
}

// EndDrag answers with the drag result even when the write failed, so the
// editor can show the rolled back position next to the error.
func (h *LayoutHandler) EndDrag(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	result, err := h.service.EndDrag(r.Context(), actorOf(r))
	if err != nil {
		appErr := apperrors.AsAppError(err)
		if result != nil {
			appErr = appErr.WithDetail("table", result.Table)
		}
		h.writeError(w, "EndDrag", appErr)
		return
	}
	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "EndDrag", "operation", "WriteSuccess", "error", err)
	}
}

func (h *LayoutHandler) CancelDrag(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.service.CancelDrag(actorOf(r))
	httputil.WriteNoContent(w)
}

func (h *LayoutHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
