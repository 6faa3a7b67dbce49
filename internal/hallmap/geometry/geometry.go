// Package geometry computes table footprints and chair placement from the
// seat count. All functions are pure.
package geometry

import "math"

const (
	ChairSize = 28
	ChairGap  = 6
)

type Side string

const (
	SideTop    Side = "top"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
	SideRight  Side = "right"
)

type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Chair is placed relative to the table center, before the table rotation
// is applied.
type Chair struct {
	Side     Side    `json:"side"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
}

// SideCounts is how many chairs go on each side of a table.
type SideCounts struct {
	Top    int
	Bottom int
	Left   int
	Right  int
}

func (c SideCounts) Total() int {
	return c.Top + c.Bottom + c.Left + c.Right
}

// DimensionsForSeats maps a seat count to the table footprint.
func DimensionsForSeats(seats int) Dimensions {
	switch {
	case seats <= 2:
		return Dimensions{Width: 80, Height: 80}
	case seats <= 4:
		return Dimensions{Width: 120, Height: 80}
	case seats <= 6:
		return Dimensions{Width: 160, Height: 90}
	default:
		return Dimensions{Width: 200, Height: 100}
	}
}

// Distribute splits seats over the four sides. Above four seats the left
// and right sides get one chair each and the rest is split floor on top,
// ceil on the bottom.
func Distribute(seats int) SideCounts {
	switch {
	case seats <= 0:
		return SideCounts{}
	case seats <= 2:
		return SideCounts{Top: 1, Bottom: 1}
	case seats <= 4:
		return SideCounts{Top: 2, Bottom: 2}
	}
	rest := float64(seats - 2)
	return SideCounts{
		Top:    int(math.Floor(rest / 2)),
		Bottom: int(math.Ceil(rest / 2)),
		Left:   1,
		Right:  1,
	}
}

// ChairPositions lays out the chairs of a table of the given footprint.
// Chairs on a side are spaced at length/(count+1).
func ChairPositions(seats int, dims Dimensions) []Chair {
	counts := Distribute(seats)
	chairs := make([]Chair, 0, counts.Total())

	chairs = appendSide(chairs, SideTop, counts.Top, dims)
	chairs = appendSide(chairs, SideBottom, counts.Bottom, dims)
	chairs = appendSide(chairs, SideLeft, counts.Left, dims)
	chairs = appendSide(chairs, SideRight, counts.Right, dims)
	return chairs
}

func appendSide(chairs []Chair, side Side, count int, dims Dimensions) []Chair {
	if count <= 0 {
		return chairs
	}

	length := dims.Width
	if side == SideLeft || side == SideRight {
		length = dims.Height
	}
	step := length / float64(count+1)
	offset := ChairSize/2.0 + ChairGap

	for i := 1; i <= count; i++ {
		along := float64(i) * step
		var c Chair
		switch side {
		case SideTop:
			c = Chair{Side: side, X: -dims.Width/2 + along, Y: -dims.Height/2 - offset, Rotation: 0}
		case SideBottom:
			c = Chair{Side: side, X: -dims.Width/2 + along, Y: dims.Height/2 + offset, Rotation: 180}
		case SideLeft:
			c = Chair{Side: side, X: -dims.Width/2 - offset, Y: -dims.Height/2 + along, Rotation: -90}
		case SideRight:
			c = Chair{Side: side, X: dims.Width/2 + offset, Y: -dims.Height/2 + along, Rotation: 90}
		}
		chairs = append(chairs, c)
	}
	return chairs
}
