// Package viewport holds the zoom and pan state of the spatial hall map.
package viewport

import (
	"fmt"
	"math"

	"tablebook/pkg/model"
)

const (
	MinScale     = 0.5
	MaxScale     = 2.5
	DefaultScale = 1.0
	ZoomStep     = 0.1
)

// Target is what the pointer went down on.
type Target string

const (
	TargetCanvas Target = "canvas"
	TargetTable  Target = "table"
)

// State is the serialisable part of the viewport.
type State struct {
	Scale   float64        `json:"scale"`
	Pan     model.Position `json:"pan"`
	Panning bool           `json:"panning"`
}

type Controller struct {
	scale   float64
	pan     model.Position
	origin  model.Position
	panning bool
}

func New() *Controller {
	return &Controller{scale: DefaultScale}
}

// Zoom adds delta to the scale and clamps the result to [MinScale, MaxScale].
func (c *Controller) Zoom(delta float64) float64 {
	c.scale = clampScale(c.scale + delta)
	return c.scale
}

// BeginPan starts a pan unless the pointer went down on a table, which
// belongs to table selection or drag. It reports whether panning started.
func (c *Controller) BeginPan(pointer model.Position, target Target) bool {
	if target == TargetTable {
		return false
	}
	c.panning = true
	c.origin = model.Position{X: pointer.X - c.pan.X, Y: pointer.Y - c.pan.Y}
	return true
}

// ContinuePan moves the map while a pan is active.
func (c *Controller) ContinuePan(pointer model.Position) bool {
	if !c.panning {
		return false
	}
	c.pan = model.Position{X: pointer.X - c.origin.X, Y: pointer.Y - c.origin.Y}
	return true
}

func (c *Controller) EndPan() {
	c.panning = false
}

// Reset is called when the active zone changes.
func (c *Controller) Reset() {
	c.scale = DefaultScale
	c.pan = model.Position{}
	c.origin = model.Position{}
	c.panning = false
}

func (c *Controller) Scale() float64 {
	return c.scale
}

func (c *Controller) Pan() model.Position {
	return c.pan
}

func (c *Controller) Panning() bool {
	return c.panning
}

func (c *Controller) State() State {
	return State{Scale: c.scale, Pan: c.pan, Panning: c.panning}
}

// Transform is the transform applied to the map content, around its center.
func (c *Controller) Transform() string {
	return fmt.Sprintf("translate(%s, %s) scale(%s)", formatNum(c.pan.X), formatNum(c.pan.Y), formatNum(c.scale))
}

// SVGTransform expresses Transform for an SVG group whose origin is the
// top-left corner of a width x height canvas.
func (c *Controller) SVGTransform(width, height float64) string {
	cx, cy := width/2, height/2
	return fmt.Sprintf("translate(%s, %s) translate(%s, %s) scale(%s) translate(%s, %s)",
		formatNum(c.pan.X), formatNum(c.pan.Y),
		formatNum(cx), formatNum(cy),
		formatNum(c.scale),
		formatNum(-cx), formatNum(-cy),
	)
}

func clampScale(s float64) float64 {
	// Round away float drift from repeated 0.1 steps.
	s = math.Round(s*1000) / 1000
	return math.Min(math.Max(MinScale, s), MaxScale)
}

func formatNum(f float64) string {
	if f == math.Trunc(f) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%.2f", f)
}
