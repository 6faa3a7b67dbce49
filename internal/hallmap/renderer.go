package hallmap

import (
	"errors"

	"tablebook/internal/hallmap/viewport"
	"tablebook/pkg/model"
)

var (
	ErrUnknownZone    = errors.New("unknown zone")
	ErrUnknownMode    = errors.New("unknown view mode")
	ErrTableNotInZone = errors.New("table is not in the active zone")
)

// SelectFunc receives the id of a table the guest clicked.
type SelectFunc func(tableID int)

// Renderer keeps the local toggles of the hall map: active zone tab, view
// mode and the viewport of the spatial map. It is not safe for concurrent
// use; callers serialise access per session.
type Renderer struct {
	canvas   Canvas
	zone     model.Zone
	mode     Mode
	viewport *viewport.Controller
	onSelect SelectFunc
}

func NewRenderer(canvas Canvas, onSelect SelectFunc) *Renderer {
	return &Renderer{
		canvas:   canvas,
		zone:     model.Zones[0],
		mode:     ModeMap,
		viewport: viewport.New(),
		onSelect: onSelect,
	}
}

func (r *Renderer) Zone() model.Zone {
	return r.zone
}

func (r *Renderer) Mode() Mode {
	return r.mode
}

func (r *Renderer) Viewport() *viewport.Controller {
	return r.viewport
}

// SetZone switches the active zone tab and resets zoom and pan.
func (r *Renderer) SetZone(zone model.Zone) error {
	if !zone.Valid() {
		return ErrUnknownZone
	}
	r.zone = zone
	r.viewport.Reset()
	return nil
}

func (r *Renderer) SetMode(mode Mode) error {
	if !mode.Valid() {
		return ErrUnknownMode
	}
	r.mode = mode
	r.viewport.EndPan()
	return nil
}

// Scene builds the current view of the active zone.
func (r *Renderer) Scene(tables []model.Table, selected *int, occupied []int) Scene {
	return BuildScene(Input{
		Tables:   tables,
		Zone:     r.zone,
		Mode:     r.mode,
		Selected: selected,
		Occupied: occupied,
		Canvas:   r.canvas,
		Viewport: r.viewport,
	})
}

// MapScene builds the spatial view whatever the current mode is. It backs
// the SVG rendering.
func (r *Renderer) MapScene(tables []model.Table, selected *int, occupied []int) Scene {
	return BuildScene(Input{
		Tables:   tables,
		Zone:     r.zone,
		Mode:     ModeMap,
		Selected: selected,
		Occupied: occupied,
		Canvas:   r.canvas,
		Viewport: r.viewport,
	})
}

// Click handles a click on a table of the active zone. Occupied tables
// ignore the click. It reports whether the selection callback ran.
func (r *Renderer) Click(tables []model.Table, occupied []int, tableID int) (bool, error) {
	t, ok := model.FindTable(tables, tableID)
	if !ok || t.Zone != r.zone || !t.IsActive {
		return false, ErrTableNotInZone
	}
	if StateOf(tableID, nil, occupied) == StateOccupied {
		return false, nil
	}
	if r.onSelect != nil {
		r.onSelect(tableID)
	}
	return true, nil
}
