package client

import (
	"context"
	"log"
	"time"

	"wordwarrior/internal/models"
)

const (
	// teardownTimeout bounds cleanup calls made after the caller's context ended
	teardownTimeout = 5 * time.Second

	cancelAttempts   = 2
	cancelRetryDelay = 250 * time.Millisecond
)

// Searcher finds a live opponent. Push notifications and fixed-interval
// polling both only trigger a re-check of the server.
type Searcher struct {
	backend      Backend
	pollInterval time.Duration
	timeout      time.Duration
}

// NewSearcher creates a searcher that gives up on live pairing after searchTimeout
func NewSearcher(backend Backend, pollInterval, searchTimeout time.Duration) *Searcher {
	return &Searcher{
		backend:      backend,
		pollInterval: pollInterval,
		timeout:      searchTimeout,
	}
}

// TimeoutFor returns how long to wait for a live opponent in mode.
// Practice always goes straight to the local bot.
func (s *Searcher) TimeoutFor(mode models.Mode) time.Duration {
	if mode == models.ModePractice {
		return 0
	}
	return s.timeout
}

// Search joins the queue and waits for a match. It returns ErrNoOpponent when
// the search timed out and the queue entry was withdrawn. When ctx ends the
// entry is withdrawn too, and a room that was created in the meantime is
// abandoned so the other player is not left waiting.
func (s *Searcher) Search(ctx context.Context, mode models.Mode) (*Match, error) {
	timeout := s.TimeoutFor(mode)
	if timeout <= 0 {
		return nil, ErrNoOpponent
	}

	joined, err := s.backend.Join(ctx, mode)
	if err != nil {
		return nil, err
	}
	if joined.Status == StatusMatched {
		return &Match{RoomID: joined.RoomID, Role: joined.Role}, nil
	}

	subCtx, cancelSub := context.WithCancel(ctx)
	defer cancelSub()
	created, err := s.backend.Subscribe(subCtx, "")
	if err != nil {
		log.Printf("Room notifications unavailable, polling only: %v", err)
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	poll := time.NewTicker(s.pollInterval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			s.withdraw(mode, true)
			return nil, ctx.Err()

		case _, ok := <-created:
			if !ok {
				created = nil
				continue
			}
			if match := s.check(ctx, mode); match != nil {
				return match, nil
			}

		case <-poll.C:
			if match := s.check(ctx, mode); match != nil {
				return match, nil
			}

		case <-deadline.C:
			if match := s.withdraw(mode, false); match != nil {
				return match, nil
			}
			// Pairing may have landed between the last poll and the cancel
			if match := s.check(ctx, mode); match != nil {
				return match, nil
			}
			return nil, ErrNoOpponent
		}
	}
}

// check asks the server for an active room. Failures are transient; the
// next poll tries again.
func (s *Searcher) check(ctx context.Context, mode models.Mode) *Match {
	match, err := s.backend.PollMatch(ctx, mode)
	if err != nil {
		log.Printf("Error polling for match: %v", err)
		return nil
	}
	return match
}

// withdraw cancels the queue entry and reports a match that beat the cancel.
// With abandon set such a room is resigned instead.
func (s *Searcher) withdraw(mode models.Mode, abandon bool) *Match {
	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()

	res, err := s.cancel(ctx, mode)
	if err != nil {
		log.Printf("Error cancelling %s queue entry, it may be paired until purged: %v", mode, err)
		return nil
	}
	if res.Status != StatusMatched {
		return nil
	}

	match := &Match{RoomID: res.RoomID, Role: res.Role}
	if abandon {
		if err := s.backend.Abandon(ctx, match.RoomID); err != nil {
			log.Printf("Error abandoning room %s: %v", match.RoomID, err)
		}
		return nil
	}
	return match
}

func (s *Searcher) cancel(ctx context.Context, mode models.Mode) (*JoinResult, error) {
	var err error
	for attempt := 1; attempt <= cancelAttempts; attempt++ {
		var res *JoinResult
		if res, err = s.backend.Cancel(ctx, mode); err == nil {
			return res, nil
		}
		if attempt == cancelAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(cancelRetryDelay):
		}
	}
	return nil, err
}
