package notify

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestFilterMatch(t *testing.T) {
	created := Event{Kind: RoomCreated, RoomID: "r1", Player1ID: "alice", Player2ID: "bob"}
	updated := Event{Kind: RoomUpdated, RoomID: "r1", Player1ID: "alice", Player2ID: "bob"}

	tests := []struct {
		name   string
		filter Filter
		event  Event
		want   bool
	}{
		{"created for waiting player", ForPlayer1("alice"), created, true},
		{"created for joiner", ForPlayer1("bob"), created, false},
		{"update is not a creation", ForPlayer1("alice"), updated, false},
		{"room update", ForRoom("r1"), updated, true},
		{"other room", ForRoom("r2"), updated, false},
		{"empty filter", Filter{}, created, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(tt.event); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func receive(t *testing.T, sub *Subscription) (Event, bool) {
	t.Helper()
	select {
	case e, ok := <-sub.C:
		return e, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}, false
}

func TestHubDelivers(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	ctx := context.Background()

	roomSub, err := hub.Subscribe(ctx, ForRoom("r1"))
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer roomSub.Close()

	hub.Publish(ctx, Event{Kind: RoomUpdated, RoomID: "r2", Version: 1})
	hub.Publish(ctx, Event{Kind: RoomUpdated, RoomID: "r1", Version: 2})

	e, ok := receive(t, roomSub)
	if !ok || e.RoomID != "r1" || e.Version != 2 {
		t.Errorf("received %+v, want r1 version 2", e)
	}
}

func TestHubDropsForSlowSubscribers(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	ctx := context.Background()

	sub, _ := hub.Subscribe(ctx, Filter{})
	for i := 0; i < subscriberBuffer*3; i++ {
		if err := hub.Publish(ctx, Event{Kind: RoomUpdated, RoomID: "r1", Version: int64(i)}); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	if got := len(sub.C); got != subscriberBuffer {
		t.Errorf("buffered %d events, want %d", got, subscriberBuffer)
	}
}

func TestSubscriptionEndsWithContext(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	sub, _ := hub.Subscribe(ctx, Filter{})
	cancel()

	if _, ok := receive(t, sub); ok {
		t.Errorf("channel still open after context cancel")
	}
	if n := hub.Subscribers(); n != 0 {
		t.Errorf("Subscribers() = %d, want 0", n)
	}
	sub.Close()

	hub.Close()
	if _, err := hub.Subscribe(context.Background(), Filter{}); err != ErrClosed {
		t.Errorf("Subscribe() after Close error = %v, want ErrClosed", err)
	}
}

func TestRedisBroker(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()

	client, err := NewRedisClient(ctx, addr, "", 0)
	if err != nil {
		t.Fatalf("NewRedisClient() error = %v", err)
	}
	defer client.Close()

	broker, err := NewRedisBroker(ctx, client, DefaultChannel+":test")
	if err != nil {
		t.Fatalf("NewRedisBroker() error = %v", err)
	}
	defer broker.Close()

	sub, _ := broker.Subscribe(ctx, ForPlayer1("alice"))
	if err := broker.Publish(ctx, Event{Kind: RoomCreated, RoomID: "r1", Player1ID: "alice"}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	e, ok := receive(t, sub)
	if !ok || e.RoomID != "r1" {
		t.Errorf("received %+v, want r1", e)
	}
}
