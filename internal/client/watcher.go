package client

import (
	"context"
	"log"
	"time"

	"wordwarrior/internal/notify"
)

// RoomWatcher follows a live room until it finishes. Every notification,
// reconnect and poll tick re-fetches the whole room; events are never
// applied as diffs.
type RoomWatcher struct {
	backend      Backend
	roomID       string
	pollInterval time.Duration
	backoff      time.Duration
	stallAfter   time.Duration
}

// NewRoomWatcher creates a watcher for roomID. A round that has not moved for
// longer than answerWindow plus grace is expired, which forfeits an opponent
// that went away.
func NewRoomWatcher(backend Backend, roomID string, cfg Config) *RoomWatcher {
	return &RoomWatcher{
		backend:      backend,
		roomID:       roomID,
		pollInterval: cfg.PollInterval,
		backoff:      cfg.ResubscribeBackoff,
		stallAfter:   cfg.AnswerWindow + cfg.Grace,
	}
}

// Watch calls onChange with every new version of the room and returns the
// finished room. It returns early only when ctx ends.
func (w *RoomWatcher) Watch(ctx context.Context, onChange func(*RoomView)) (*RoomView, error) {
	var (
		events  <-chan notify.Event
		last    *RoomView
		movedAt = time.Now()
	)

	subCtx, cancelSub := context.WithCancel(ctx)
	defer cancelSub()

	resubscribe := time.NewTimer(0)
	defer resubscribe.Stop()
	poll := time.NewTicker(w.pollInterval)
	defer poll.Stop()

	// refresh fetches the room and reports whether it has finished
	refresh := func() bool {
		view, err := w.backend.Room(ctx, w.roomID)
		if err != nil {
			// Desync is transient; the next event or poll retries
			log.Printf("Error fetching room %s: %v", w.roomID, err)
			return false
		}
		if last == nil || view.Room.Version > last.Room.Version {
			if last == nil || view.Room.CurrentQuestionIndex != last.Room.CurrentQuestionIndex {
				movedAt = time.Now()
			}
			last = view
			onChange(view)
		}
		return !last.Room.IsActive()
	}

	for {
		select {
		case <-ctx.Done():
			return last, ctx.Err()

		case <-resubscribe.C:
			ch, err := w.backend.Subscribe(subCtx, w.roomID)
			if err != nil {
				log.Printf("Error subscribing to room %s, retrying in %s: %v", w.roomID, w.backoff, err)
				resubscribe.Reset(w.backoff)
			} else {
				events = ch
			}
			// Anything may have changed while unsubscribed
			if refresh() {
				return last, nil
			}

		case _, ok := <-events:
			if !ok {
				events = nil
				resubscribe.Reset(w.backoff)
				continue
			}
			if refresh() {
				return last, nil
			}

		case <-poll.C:
			if refresh() {
				return last, nil
			}
			if last != nil && time.Since(movedAt) > w.stallAfter {
				w.expire(ctx, last.Room.CurrentQuestionIndex)
				movedAt = time.Now()
			}
		}
	}
}

func (w *RoomWatcher) expire(ctx context.Context, index int) {
	res, err := w.backend.ExpireRound(ctx, w.roomID, index)
	if err != nil {
		log.Printf("Error expiring round %d of room %s: %v", index, w.roomID, err)
		return
	}
	if res.Accepted {
		log.Printf("Round %d of room %s expired without an answer", index, w.roomID)
	}
}
