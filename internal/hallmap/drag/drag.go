// Package drag moves tables on the editor canvas. Positions are applied
// locally while the pointer moves and persisted once on release.
package drag

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"tablebook/pkg/model"
)

// Margin keeps table centers away from the canvas border.
const Margin = 20

var (
	ErrTableNotFound = errors.New("table not found in layout")
	ErrDragActive    = errors.New("another table is being dragged")
	ErrNoDrag        = errors.New("no drag in progress")
	ErrPendingWrite  = errors.New("table has an unsaved move")
)

// Persister stores a table's final position.
type Persister interface {
	Update(ctx context.Context, table model.Table) (*model.Table, error)
}

type Canvas struct {
	Width  float64
	Height float64
}

// State exists only between pointer-down and pointer-up on a table.
type State struct {
	TableID       int            `json:"table_id"`
	StartPointer  model.Position `json:"start_pointer"`
	StartTablePos model.Position `json:"start_table_pos"`
}

// Result describes how a drag ended.
type Result struct {
	Table      model.Table `json:"table"`
	Moved      bool        `json:"moved"`
	RolledBack bool        `json:"rolled_back"`
}

type Controller struct {
	mu        sync.Mutex
	canvas    Canvas
	grid      float64
	persister Persister

	layout  map[int]model.Table
	pending map[int]bool
	drag    *State
}

// New creates a controller. A grid of 0 disables snapping.
func New(canvas Canvas, grid float64, persister Persister) *Controller {
	return &Controller{
		canvas:    canvas,
		grid:      grid,
		persister: persister,
		layout:    make(map[int]model.Table),
		pending:   make(map[int]bool),
	}
}

// Load replaces the local layout. The dragged table and tables with a write
// in flight keep their speculative position.
func (c *Controller) Load(tables []model.Table) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make(map[int]model.Table, len(tables))
	for _, t := range tables {
		if c.pending[t.ID] || (c.drag != nil && c.drag.TableID == t.ID) {
			if local, ok := c.layout[t.ID]; ok {
				next[t.ID] = local
				continue
			}
		}
		next[t.ID] = t
	}
	c.layout = next
}

// Table returns the locally rendered state of a table.
func (c *Controller) Table(id int) (model.Table, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.layout[id]
	return t, ok
}

// Tables returns the local layout in no particular order.
func (c *Controller) Tables() []model.Table {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.Table, 0, len(c.layout))
	for _, t := range c.layout {
		out = append(out, t)
	}
	return out
}

// Pending reports whether a table has an unconfirmed write.
func (c *Controller) Pending(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[id]
}

// Idle reports whether nothing is being dragged and no write is in flight.
func (c *Controller) Idle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drag == nil && len(c.pending) == 0
}

func (c *Controller) Active() *State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.drag == nil {
		return nil
	}
	s := *c.drag
	return &s
}

func (c *Controller) BeginDrag(tableID int, pointer model.Position) (*State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.drag != nil {
		return nil, ErrDragActive
	}
	t, ok := c.layout[tableID]
	if !ok {
		return nil, ErrTableNotFound
	}
	if c.pending[tableID] {
		return nil, ErrPendingWrite
	}

	c.drag = &State{
		TableID:       tableID,
		StartPointer:  pointer,
		StartTablePos: t.Position(),
	}
	s := *c.drag
	return &s, nil
}

// ContinueDrag applies the pointer delta to the dragged table and returns
// its new local position. It does nothing when no drag is active.
func (c *Controller) ContinueDrag(pointer model.Position) (model.Position, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.drag == nil {
		return model.Position{}, false
	}

	candidate := model.Position{
		X: c.drag.StartTablePos.X + (pointer.X - c.drag.StartPointer.X),
		Y: c.drag.StartTablePos.Y + (pointer.Y - c.drag.StartPointer.Y),
	}
	pos := model.Position{
		X: Clamp(Snap(candidate.X, c.grid), c.canvas.Width),
		Y: Clamp(Snap(candidate.Y, c.grid), c.canvas.Height),
	}

	t := c.layout[c.drag.TableID]
	t.X, t.Y = pos.X, pos.Y
	c.layout[c.drag.TableID] = t
	return pos, true
}

// EndDrag persists the dragged table and clears the drag state. The table
// carries a pending-write marker until the backend answers; when the write
// fails it goes back to where the drag started.
func (c *Controller) EndDrag(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	if c.drag == nil {
		c.mu.Unlock()
		return nil, ErrNoDrag
	}
	drag := *c.drag
	c.drag = nil

	t := c.layout[drag.TableID]
	if t.Position() == drag.StartTablePos {
		c.mu.Unlock()
		return &Result{Table: t}, nil
	}
	c.pending[t.ID] = true
	c.mu.Unlock()

	saved, err := c.persister.Update(ctx, t)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, t.ID)

	if err != nil {
		t.X, t.Y = drag.StartTablePos.X, drag.StartTablePos.Y
		c.layout[t.ID] = t
		return &Result{Table: t, RolledBack: true}, fmt.Errorf("persist table %d: %w", t.ID, err)
	}

	if saved != nil {
		t = *saved
	}
	c.layout[t.ID] = t
	return &Result{Table: t, Moved: true}, nil
}

// Cancel drops an active drag and restores the start position.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.drag == nil {
		return
	}
	t := c.layout[c.drag.TableID]
	t.X, t.Y = c.drag.StartTablePos.X, c.drag.StartTablePos.Y
	c.layout[t.ID] = t
	c.drag = nil
}

// Clamp keeps v within [Margin, dimension-Margin].
func Clamp(v, dimension float64) float64 {
	return math.Max(Margin, math.Min(v, dimension-Margin))
}

// Snap rounds v to the nearest multiple of grid. A grid of 0 leaves v as is.
func Snap(v, grid float64) float64 {
	if grid <= 0 {
		return v
	}
	return math.Round(v/grid) * grid
}
