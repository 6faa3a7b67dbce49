package model

import "time"

type LayoutAction string

const (
	LayoutCreated LayoutAction = "created"
	LayoutMoved   LayoutAction = "moved"
	LayoutRotated LayoutAction = "rotated"
	LayoutDeleted LayoutAction = "deleted"
)

// LayoutEvent records one change made in the table editor. It is stored in
// the audit trail and published on the layout topic.
type LayoutEvent struct {
	ID      string       `json:"id,omitempty" bson:"_id,omitempty"`
	TableID int          `json:"table_id" bson:"table_id"`
	Zone    Zone         `json:"zone" bson:"zone"`
	Action  LayoutAction `json:"action" bson:"action"`
	Before  *Table       `json:"before,omitempty" bson:"before,omitempty"`
	After   *Table       `json:"after,omitempty" bson:"after,omitempty"`
	Actor   string       `json:"actor" bson:"actor"`
	At      time.Time    `json:"at" bson:"at"`
}
