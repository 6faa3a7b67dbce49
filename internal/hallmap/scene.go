// Package hallmap renders the tables of one dining zone, either as a spatial
// map or as a flat list of cards, with occupancy and selection applied.
package hallmap

import (
	"fmt"
	"slices"
	"strconv"

	"tablebook/internal/hallmap/geometry"
	"tablebook/internal/hallmap/viewport"
	"tablebook/pkg/locale"
	"tablebook/pkg/model"
)

// HitPadding extends the clickable area of a table beyond its footprint.
const HitPadding = 30

type Mode string

const (
	ModeMap  Mode = "map"
	ModeList Mode = "list"
)

func (m Mode) Valid() bool {
	return m == ModeMap || m == ModeList
}

// TableState is the visual state of a table. Occupied wins over selected.
type TableState string

const (
	StateDefault  TableState = "default"
	StateSelected TableState = "selected"
	StateOccupied TableState = "occupied"
)

type Canvas struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type ChairView struct {
	geometry.Chair
	Transform string `json:"transform"`
}

// TableView is a table placed on the map.
type TableView struct {
	ID             int                 `json:"id"`
	Number         string              `json:"number"`
	Seats          int                 `json:"seats"`
	Caption        string              `json:"caption"`
	X              float64             `json:"x"`
	Y              float64             `json:"y"`
	Rotation       float64             `json:"rotation"`
	Size           geometry.Dimensions `json:"size"`
	HitBox         geometry.Dimensions `json:"hit_box"`
	Chairs         []ChairView         `json:"chairs"`
	State          TableState          `json:"state"`
	Clickable      bool                `json:"clickable"`
	Transform      string              `json:"transform"`
	LabelTransform string              `json:"label_transform"`
}

// Card is a table in list mode.
type Card struct {
	ID       int        `json:"id"`
	Number   string     `json:"number"`
	Seats    int        `json:"seats"`
	Caption  string     `json:"caption"`
	State    TableState `json:"state"`
	Disabled bool       `json:"disabled"`
}

type ZoneTab struct {
	Zone   model.Zone `json:"zone"`
	Label  string     `json:"label"`
	Active bool       `json:"active"`
}

type LegendItem struct {
	State TableState `json:"state"`
	Label string     `json:"label"`
}

// Scene is everything needed to draw the hall map for one zone.
type Scene struct {
	Zone      model.Zone     `json:"zone"`
	ZoneLabel string         `json:"zone_label"`
	Zones     []ZoneTab      `json:"zones"`
	Mode      Mode           `json:"mode"`
	Canvas    Canvas         `json:"canvas"`
	Viewport  viewport.State `json:"viewport"`
	Transform string         `json:"transform,omitempty"`
	Tables    []TableView    `json:"tables,omitempty"`
	Cards     []Card         `json:"cards,omitempty"`
	Legend    []LegendItem   `json:"legend"`
	Entrance  string         `json:"entrance"`
	Selected  *int           `json:"selected_table_id"`
}

// Input is what a scene is built from.
type Input struct {
	Tables   []model.Table
	Zone     model.Zone
	Mode     Mode
	Selected *int
	Occupied []int
	Canvas   Canvas
	Viewport *viewport.Controller

	// IncludeInactive is set by the layout editor, which also places tables
	// that are hidden from guests.
	IncludeInactive bool
}

// StateOf resolves the visual state of one table.
func StateOf(tableID int, selected *int, occupied []int) TableState {
	if slices.Contains(occupied, tableID) {
		return StateOccupied
	}
	if selected != nil && *selected == tableID {
		return StateSelected
	}
	return StateDefault
}

// BuildScene lays out the active tables of the requested zone.
func BuildScene(in Input) Scene {
	mode := in.Mode
	if !mode.Valid() {
		mode = ModeMap
	}
	vp := in.Viewport
	if vp == nil {
		vp = viewport.New()
	}

	scene := Scene{
		Zone:      in.Zone,
		ZoneLabel: locale.ZoneLabel(in.Zone),
		Zones:     zoneTabs(in.Zone),
		Mode:      mode,
		Canvas:    in.Canvas,
		Viewport:  vp.State(),
		Legend: []LegendItem{
			{State: StateSelected, Label: locale.LegendSelected},
			{State: StateDefault, Label: locale.LegendFree},
			{State: StateOccupied, Label: locale.LegendOccupied},
		},
		Entrance: locale.EntranceLabel,
		Selected: in.Selected,
	}

	tables := model.FilterZone(in.Tables, in.Zone)
	if !in.IncludeInactive {
		tables = activeOnly(tables)
	}
	if mode == ModeList {
		scene.Cards = make([]Card, 0, len(tables))
		for _, t := range tables {
			scene.Cards = append(scene.Cards, cardFor(t, in.Selected, in.Occupied))
		}
		return scene
	}

	scene.Transform = vp.SVGTransform(in.Canvas.Width, in.Canvas.Height)
	scene.Tables = make([]TableView, 0, len(tables))
	for _, t := range tables {
		scene.Tables = append(scene.Tables, tableViewFor(t, in.Selected, in.Occupied))
	}
	return scene
}

func tableViewFor(t model.Table, selected *int, occupied []int) TableView {
	dims := geometry.DimensionsForSeats(t.Seats)
	chairs := geometry.ChairPositions(t.Seats, dims)
	views := make([]ChairView, len(chairs))
	for i, c := range chairs {
		views[i] = ChairView{
			Chair:     c,
			Transform: fmt.Sprintf("translate(%s, %s) rotate(%s)", num(c.X), num(c.Y), num(c.Rotation)),
		}
	}

	state := StateOf(t.ID, selected, occupied)
	return TableView{
		ID:       t.ID,
		Number:   t.TableNumber,
		Seats:    t.Seats,
		Caption:  locale.SeatsLabel(t.Seats),
		X:        t.X,
		Y:        t.Y,
		Rotation: t.Rotation,
		Size:     dims,
		HitBox: geometry.Dimensions{
			Width:  dims.Width + 2*HitPadding,
			Height: dims.Height + 2*HitPadding,
		},
		Chairs:         views,
		State:          state,
		Clickable:      state != StateOccupied,
		Transform:      fmt.Sprintf("translate(%s, %s) rotate(%s)", num(t.X), num(t.Y), num(t.Rotation)),
		LabelTransform: fmt.Sprintf("rotate(%s)", num(-t.Rotation)),
	}
}

func cardFor(t model.Table, selected *int, occupied []int) Card {
	state := StateOf(t.ID, selected, occupied)
	return Card{
		ID:       t.ID,
		Number:   t.TableNumber,
		Seats:    t.Seats,
		Caption:  locale.GuestsLabel(t.Seats),
		State:    state,
		Disabled: state == StateOccupied,
	}
}

func activeOnly(tables []model.Table) []model.Table {
	out := tables[:0]
	for _, t := range tables {
		if t.IsActive {
			out = append(out, t)
		}
	}
	return out
}

func zoneTabs(active model.Zone) []ZoneTab {
	tabs := make([]ZoneTab, len(model.Zones))
	for i, z := range model.Zones {
		tabs[i] = ZoneTab{Zone: z, Label: locale.ZoneLabel(z), Active: z == active}
	}
	return tabs
}

func num(f float64) string {
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
