// Package journal records the lifecycle history of scouting records as
// an append-only event stream.
package journal

import (
	"context"
	"time"
)

const (
	EventStarted       = "STARTED"
	EventCancelled     = "CANCELLED"
	EventFinished      = "FINISHED"
	EventSeedFulfilled = "SEED_FULFILLED"
	EventClaimed       = "CLAIMED"
	EventConfigChanged = "CONFIG_CHANGED"
	EventPaused        = "PAUSED"
)

type Event struct {
	ID       string         `json:"event_id"`
	RecordID uint64         `json:"record_id"`
	Type     string         `json:"type"`
	Actor    string         `json:"actor"`
	At       time.Time      `json:"at"`
	Payload  map[string]any `json:"payload"`
}

type Journal interface {
	Append(ctx context.Context, e Event) error
	ListByRecord(ctx context.Context, recordID uint64) ([]Event, error)
}
