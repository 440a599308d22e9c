package service

import (
	"context"
	"log"

	"wordwarrior/internal/notify"
)

// publish announces a committed change. Delivery is best effort; failures are only logged.
func publish(ctx context.Context, broker notify.Broker, e notify.Event) {
	if broker == nil {
		return
	}
	if err := broker.Publish(ctx, e); err != nil {
		log.Printf("Error publishing %s for room %s: %v", e.Kind, e.RoomID, err)
	}
}
