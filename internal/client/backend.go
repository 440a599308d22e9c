// Package client is the player-side runtime: it searches for a match with
// push plus polling, follows a live room and falls back to a local bot.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"wordwarrior/internal/models"
	"wordwarrior/internal/notify"
	"wordwarrior/internal/progression"
)

var (
	// ErrMatchmaking is the retryable queue failure reported by the server
	ErrMatchmaking = errors.New("matchmaking error")

	// ErrNoOpponent means no live opponent was found in time
	ErrNoOpponent = errors.New("no opponent found")
)

// Join statuses as reported by the server
const (
	StatusMatched   = "matched"
	StatusWaiting   = "waiting"
	StatusCancelled = "cancelled"
)

// JoinResult is the reply to a queue join or cancel
type JoinResult struct {
	Status string      `json:"status"`
	RoomID string      `json:"room_id,omitempty"`
	Role   models.Role `json:"role,omitempty"`
}

// Match locates the player's room
type Match struct {
	RoomID string      `json:"room_id"`
	Role   models.Role `json:"role"`
}

// RoomView is a room as seen by this player
type RoomView struct {
	Room        *models.BattleRoom `json:"room"`
	Role        models.Role        `json:"role"`
	Player1Name string             `json:"player1_name"`
	Player2Name string             `json:"player2_name"`
}

// SubmitResult reports whether the server applied an event
type SubmitResult struct {
	Accepted bool               `json:"accepted"`
	Room     *models.BattleRoom `json:"room,omitempty"`
}

// Backend is the server as seen by one authenticated player
type Backend interface {
	Join(ctx context.Context, mode models.Mode) (*JoinResult, error)
	Cancel(ctx context.Context, mode models.Mode) (*JoinResult, error)
	// PollMatch returns nil while the player is still waiting
	PollMatch(ctx context.Context, mode models.Mode) (*Match, error)
	Room(ctx context.Context, roomID string) (*RoomView, error)
	SubmitAnswer(ctx context.Context, roomID string, index int, correct bool, remaining time.Duration) (*SubmitResult, error)
	ExpireRound(ctx context.Context, roomID string, index int) (*SubmitResult, error)
	Abandon(ctx context.Context, roomID string) error
	// Subscribe streams room updates for roomID, or rooms created for this
	// player while waiting when roomID is empty. The channel closes when the
	// stream breaks.
	Subscribe(ctx context.Context, roomID string) (<-chan notify.Event, error)
	ReportOutcome(ctx context.Context, outcome progression.BattleResult) error
}

// APIError is a non-success reply from the server
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Unwrap lets callers match queue failures with errors.Is(err, ErrMatchmaking)
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusServiceUnavailable {
		return ErrMatchmaking
	}
	return nil
}

// Config holds the client timing knobs
type Config struct {
	PollInterval       time.Duration
	SearchTimeout      time.Duration
	AnswerWindow       time.Duration
	Grace              time.Duration
	ResubscribeBackoff time.Duration
	QuestionsPerBattle int
	Bot                BotConfig
}

// DefaultConfig returns the standard client timings
func DefaultConfig() Config {
	return Config{
		PollInterval:       2 * time.Second,
		SearchTimeout:      20 * time.Second,
		AnswerWindow:       15 * time.Second,
		Grace:              5 * time.Second,
		ResubscribeBackoff: 2 * time.Second,
		QuestionsPerBattle: 10,
		Bot:                DefaultBotConfig(),
	}
}
