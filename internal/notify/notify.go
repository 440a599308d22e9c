// Package notify delivers best-effort room change notifications.
//
// Events only identify what changed. Consumers must re-fetch the room and
// must tolerate dropped, delayed and duplicated events.
package notify

import (
	"context"
	"sync"

	"wordwarrior/internal/models"
)

// Kind distinguishes room creation from later updates
type Kind string

const (
	RoomCreated Kind = "room_created"
	RoomUpdated Kind = "room_updated"
)

// Event announces that a room changed
type Event struct {
	Kind      Kind              `json:"kind"`
	RoomID    string            `json:"room_id"`
	Mode      models.Mode       `json:"mode"`
	Player1ID string            `json:"player1_id"`
	Player2ID string            `json:"player2_id"`
	Status    models.RoomStatus `json:"status"`
	Version   int64             `json:"version"`
}

// EventFor builds an event describing room's current state
func EventFor(kind Kind, room *models.BattleRoom) Event {
	return Event{
		Kind:      kind,
		RoomID:    room.ID,
		Mode:      room.Mode,
		Player1ID: room.Player1ID,
		Player2ID: room.Player2ID,
		Status:    room.Status,
		Version:   room.Version,
	}
}

// Filter selects the events a subscriber receives. Empty fields match anything.
type Filter struct {
	Kind      Kind
	Player1ID string
	RoomID    string
}

// ForPlayer1 matches rooms created with playerID as the waiting player
func ForPlayer1(playerID string) Filter {
	return Filter{Kind: RoomCreated, Player1ID: playerID}
}

// ForRoom matches updates to one room
func ForRoom(roomID string) Filter {
	return Filter{Kind: RoomUpdated, RoomID: roomID}
}

// Match reports whether e passes the filter
func (f Filter) Match(e Event) bool {
	if f.Kind != "" && f.Kind != e.Kind {
		return false
	}
	if f.Player1ID != "" && f.Player1ID != e.Player1ID {
		return false
	}
	if f.RoomID != "" && f.RoomID != e.RoomID {
		return false
	}
	return true
}

// Broker publishes and subscribes to room events
type Broker interface {
	Publish(ctx context.Context, e Event) error
	Subscribe(ctx context.Context, f Filter) (*Subscription, error)
}

// Subscription is a live filtered event stream.
// C is closed when the subscription ends.
type Subscription struct {
	C <-chan Event

	once   sync.Once
	cancel func()
}

// Close ends the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
}
