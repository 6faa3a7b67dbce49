package model

import "sort"

// Zone is a partition of the dining room.
type Zone string

const (
	ZoneHall1 Zone = "HALL_1"
	ZoneHall2 Zone = "HALL_2"
	ZoneHall3 Zone = "HALL_3"
)

// Zones lists every dining area in display order.
var Zones = []Zone{ZoneHall1, ZoneHall2, ZoneHall3}

func (z Zone) Valid() bool {
	for _, zone := range Zones {
		if z == zone {
			return true
		}
	}
	return false
}

// Index is the 1-based position of the zone, used for table numbering.
func (z Zone) Index() int {
	for i, zone := range Zones {
		if z == zone {
			return i + 1
		}
	}
	return 0
}

// Table mirrors the backend table resource. X and Y are the center point on
// the logical canvas; Rotation is in degrees.
type Table struct {
	ID          int     `json:"id" bson:"id"`
	TableNumber string  `json:"table_number" bson:"table_number" validate:"required,max=10"`
	Zone        Zone    `json:"zone" bson:"zone" validate:"required,zone"`
	Seats       int     `json:"seats" bson:"seats" validate:"required,min=1,max=20"`
	X           float64 `json:"x" bson:"x" validate:"gte=0"`
	Y           float64 `json:"y" bson:"y" validate:"gte=0"`
	Rotation    float64 `json:"rotation" bson:"rotation" validate:"rotation_step"`
	IsActive    bool    `json:"is_active" bson:"is_active"`
}

// Position is a point on the canvas or on the screen.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (t Table) Position() Position {
	return Position{X: t.X, Y: t.Y}
}

// TableCreate is the payload accepted by POST /tables.
type TableCreate struct {
	TableNumber string  `json:"table_number" validate:"required,max=10"`
	Zone        Zone    `json:"zone" validate:"required,zone"`
	Seats       int     `json:"seats" validate:"required,min=1,max=20"`
	X           float64 `json:"x" validate:"gte=0"`
	Y           float64 `json:"y" validate:"gte=0"`
	Rotation    float64 `json:"rotation" validate:"rotation_step"`
	IsActive    bool    `json:"is_active"`
}

// FilterZone returns the tables of one zone ordered by table number.
func FilterZone(tables []Table, zone Zone) []Table {
	out := make([]Table, 0, len(tables))
	for _, t := range tables {
		if t.Zone == zone {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i].TableNumber) != len(out[j].TableNumber) {
			return len(out[i].TableNumber) < len(out[j].TableNumber)
		}
		return out[i].TableNumber < out[j].TableNumber
	})
	return out
}

// FindTable looks up a table by id.
func FindTable(tables []Table, id int) (Table, bool) {
	for _, t := range tables {
		if t.ID == id {
			return t, true
		}
	}
	return Table{}, false
}
