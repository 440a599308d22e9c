package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wordwarrior/internal/models"
	"wordwarrior/internal/notify"
	"wordwarrior/internal/progression"
)

// fakeBackend scripts the server side of searches and watched rooms
type fakeBackend struct {
	mu sync.Mutex

	joinResult    JoinResult
	cancelResult  JoinResult
	cancelFailing int    // Cancel calls that fail before cancelResult is served
	match         *Match // what PollMatch returns once matchAfter polls have passed
	matchAfter    int

	rooms        []*RoomView // served in order by Room, the last one repeats
	subscribeErr error
	streams      []chan notify.Event

	joins, polls, cancels, abandons, subscribes, expiries, fetches int
	reported []progression.BattleResult
}

func (f *fakeBackend) Join(ctx context.Context, mode models.Mode) (*JoinResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joins++
	res := f.joinResult
	return &res, nil
}

func (f *fakeBackend) Cancel(ctx context.Context, mode models.Mode) (*JoinResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
	if f.cancels <= f.cancelFailing {
		return nil, &APIError{Status: 502, Message: "bad gateway"}
	}
	res := f.cancelResult
	return &res, nil
}

func (f *fakeBackend) PollMatch(ctx context.Context, mode models.Mode) (*Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.match == nil || f.polls <= f.matchAfter {
		return nil, nil
	}
	return f.match, nil
}

func (f *fakeBackend) setMatch(m *Match) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.match = m
	f.matchAfter = 0
	f.polls = 0
}

func (f *fakeBackend) Room(ctx context.Context, roomID string) (*RoomView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.rooms) == 0 {
		return nil, errors.New("room not found")
	}
	f.fetches++
	view := f.rooms[0]
	if len(f.rooms) > 1 {
		f.rooms = f.rooms[1:]
	}
	return view, nil
}

func (f *fakeBackend) setRooms(views ...*RoomView) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms = views
}

func (f *fakeBackend) SubmitAnswer(ctx context.Context, roomID string, index int, correct bool, remaining time.Duration) (*SubmitResult, error) {
	return &SubmitResult{Accepted: true}, nil
}

func (f *fakeBackend) ExpireRound(ctx context.Context, roomID string, index int) (*SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expiries++
	return &SubmitResult{Accepted: true}, nil
}

func (f *fakeBackend) Abandon(ctx context.Context, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abandons++
	return nil
}

func (f *fakeBackend) Subscribe(ctx context.Context, roomID string) (<-chan notify.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribes++
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	ch := make(chan notify.Event, 4)
	f.streams = append(f.streams, ch)
	return ch, nil
}

// stream returns the newest subscription
func (f *fakeBackend) stream() chan notify.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.streams) == 0 {
		return nil
	}
	return f.streams[len(f.streams)-1]
}

func (f *fakeBackend) ReportOutcome(ctx context.Context, outcome progression.BattleResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reported = append(f.reported, outcome)
	return nil
}

func (f *fakeBackend) count(n *int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *n
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}
