package viewport

import (
	"testing"

	"tablebook/pkg/model"
)

func TestZoom_Clamps(t *testing.T) {
	c := New()

	for i := 0; i < 50; i++ {
		c.Zoom(1)
	}
	if c.Scale() != MaxScale {
		t.Errorf("scale after zooming in = %v, want %v", c.Scale(), MaxScale)
	}

	for i := 0; i < 50; i++ {
		c.Zoom(-1)
	}
	if c.Scale() != MinScale {
		t.Errorf("scale after zooming out = %v, want %v", c.Scale(), MinScale)
	}
}

func TestZoom_Steps(t *testing.T) {
	c := New()
	for i := 0; i < 3; i++ {
		c.Zoom(ZoomStep)
	}
	if c.Scale() != 1.3 {
		t.Errorf("scale = %v, want 1.3", c.Scale())
	}
	for i := 0; i < 20; i++ {
		c.Zoom(-ZoomStep)
		if c.Scale() < MinScale || c.Scale() > MaxScale {
			t.Fatalf("scale out of range: %v", c.Scale())
		}
	}
}

func TestPan(t *testing.T) {
	c := New()

	if c.ContinuePan(model.Position{X: 50, Y: 50}) {
		t.Fatalf("ContinuePan should do nothing before BeginPan")
	}

	if !c.BeginPan(model.Position{X: 100, Y: 100}, TargetCanvas) {
		t.Fatalf("BeginPan on canvas should start panning")
	}
	c.ContinuePan(model.Position{X: 130, Y: 90})
	if got := c.Pan(); got.X != 30 || got.Y != -10 {
		t.Errorf("pan = %+v, want {30 -10}", got)
	}
	c.EndPan()

	// A second pan continues from the current offset.
	c.BeginPan(model.Position{X: 0, Y: 0}, TargetCanvas)
	c.ContinuePan(model.Position{X: 10, Y: 10})
	if got := c.Pan(); got.X != 40 || got.Y != 0 {
		t.Errorf("pan = %+v, want {40 0}", got)
	}
	c.EndPan()

	if c.ContinuePan(model.Position{X: 500, Y: 500}) {
		t.Errorf("ContinuePan after EndPan should be ignored")
	}
}

func TestBeginPan_IgnoresTables(t *testing.T) {
	c := New()
	if c.BeginPan(model.Position{X: 10, Y: 10}, TargetTable) {
		t.Fatalf("pan must not start on a table")
	}
	if c.Panning() {
		t.Errorf("panning flag should stay false")
	}
}

func TestReset(t *testing.T) {
	c := New()
	c.Zoom(0.5)
	c.BeginPan(model.Position{}, TargetCanvas)
	c.ContinuePan(model.Position{X: 40, Y: 40})

	c.Reset()

	if c.Scale() != DefaultScale {
		t.Errorf("scale = %v after reset", c.Scale())
	}
	if c.Pan() != (model.Position{}) {
		t.Errorf("pan = %+v after reset", c.Pan())
	}
	if c.Panning() {
		t.Errorf("panning should be cleared by reset")
	}
}

func TestTransform(t *testing.T) {
	c := New()
	c.Zoom(0.5)
	c.BeginPan(model.Position{}, TargetCanvas)
	c.ContinuePan(model.Position{X: 12, Y: -8})

	if got := c.Transform(); got != "translate(12, -8) scale(1.50)" {
		t.Errorf("Transform() = %q", got)
	}
}
