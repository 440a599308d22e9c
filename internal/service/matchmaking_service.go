package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"wordwarrior/internal/database"
	"wordwarrior/internal/models"
	"wordwarrior/internal/notify"
	"wordwarrior/internal/questions"
	"wordwarrior/internal/repository"
)

// Join statuses
const (
	StatusMatched   = "matched"
	StatusWaiting   = "waiting"
	StatusCancelled = "cancelled"
)

// maxStaleOpponents bounds how many leftover entries one join clears before waiting
const maxStaleOpponents = 5

// JoinResult is the outcome of joining a queue
type JoinResult struct {
	Status string      `json:"status"`
	RoomID string      `json:"room_id,omitempty"`
	Role   models.Role `json:"role,omitempty"`
}

// MatchInfo locates a player's active room
type MatchInfo struct {
	RoomID string      `json:"room_id"`
	Role   models.Role `json:"role"`
}

// MatchmakingService pairs waiting players into battle rooms
type MatchmakingService struct {
	db                 *database.DB
	broker             notify.Broker
	questions          questions.Provider
	questionsPerBattle int
	now                func() time.Time
}

// NewMatchmakingService creates a new matchmaking service
func NewMatchmakingService(db *database.DB, broker notify.Broker, provider questions.Provider, questionsPerBattle int) *MatchmakingService {
	return &MatchmakingService{
		db:                 db,
		broker:             broker,
		questions:          provider,
		questionsPerBattle: questionsPerBattle,
		now:                func() time.Time { return time.Now().UTC() },
	}
}

// Join pairs the player with the oldest waiting player in mode, or queues them.
//
// Pairing runs as one transaction under the per-mode queue lock: take the oldest
// other entry, delete it, and create the room. A player who already has an
// active room in the mode gets that room back instead of a second one.
func (s *MatchmakingService) Join(ctx context.Context, playerID string, mode models.Mode) (*JoinResult, error) {
	if !mode.Valid() {
		return nil, ErrInvalidMode
	}

	qs, err := s.questions.Questions(ctx, mode, s.questionsPerBattle)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load questions: %v", ErrMatchmakingUnavailable, err)
	}

	var result *JoinResult
	var created *models.BattleRoom

	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		result, created = nil, nil
		queue := repository.NewQueueRepository(tx)
		rooms := repository.NewRoomRepository(tx)

		if err := queue.LockMode(ctx, mode); err != nil {
			return err
		}

		existing, err := rooms.ActiveForPlayer(ctx, playerID, mode)
		if err != nil {
			return err
		}
		if existing != nil {
			if _, err := queue.DeleteForPlayer(ctx, playerID, mode); err != nil {
				return err
			}
			result = matchedResult(existing, playerID)
			return nil
		}

		opponent, err := s.popOpponent(ctx, queue, rooms, playerID, mode)
		if err != nil {
			return err
		}

		now := s.now()
		if opponent == nil {
			entry := &models.QueueEntry{ID: uuid.NewString(), PlayerID: playerID, Mode: mode, JoinedAt: now}
			if _, err := queue.Insert(ctx, entry); err != nil {
				return err
			}
			result = &JoinResult{Status: StatusWaiting}
			return nil
		}

		if _, err := queue.DeleteForPlayer(ctx, playerID, mode); err != nil {
			return err
		}
		room := models.NewBattleRoom(uuid.NewString(), mode, opponent.PlayerID, playerID, qs, now)
		if err := rooms.Create(ctx, room); err != nil {
			return err
		}
		created = room
		result = matchedResult(room, playerID)
		return nil
	})
	if err != nil {
		log.Printf("Error joining %s queue for player %s: %v", mode, playerID, err)
		return nil, fmt.Errorf("%w: %v", ErrMatchmakingUnavailable, err)
	}

	if created != nil {
		log.Printf("Paired %s with %s in %s room %s", created.Player1ID, created.Player2ID, mode, created.ID)
		publish(ctx, s.broker, notify.EventFor(notify.RoomCreated, created))
	}
	return result, nil
}

// popOpponent removes and returns the oldest waiting entry that can still be paired.
// Entries of players who meanwhile got an active room are discarded.
func (s *MatchmakingService) popOpponent(ctx context.Context, queue *repository.QueueRepository, rooms *repository.RoomRepository, playerID string, mode models.Mode) (*models.QueueEntry, error) {
	for i := 0; i < maxStaleOpponents; i++ {
		entry, err := queue.OldestWaiting(ctx, mode, playerID)
		if err != nil || entry == nil {
			return nil, err
		}

		deleted, err := queue.Delete(ctx, entry.ID)
		if err != nil {
			return nil, err
		}
		if deleted != 1 {
			return nil, database.ErrConflict
		}

		busy, err := rooms.ActiveForPlayer(ctx, entry.PlayerID, mode)
		if err != nil {
			return nil, err
		}
		if busy == nil {
			return entry, nil
		}
		log.Printf("Discarding queue entry of %s: already in room %s", entry.PlayerID, busy.ID)
	}
	return nil, nil
}

// Cancel removes the player's waiting entry. If a pairing already consumed it,
// the room is returned so the caller can join it.
func (s *MatchmakingService) Cancel(ctx context.Context, playerID string, mode models.Mode) (*MatchInfo, error) {
	if !mode.Valid() {
		return nil, ErrInvalidMode
	}

	var match *MatchInfo
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		match = nil
		if _, err := repository.NewQueueRepository(tx).DeleteForPlayer(ctx, playerID, mode); err != nil {
			return err
		}
		room, err := repository.NewRoomRepository(tx).ActiveForPlayer(ctx, playerID, mode)
		if err != nil {
			return err
		}
		if room != nil {
			match = matchInfo(room, playerID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMatchmakingUnavailable, err)
	}
	return match, nil
}

// PollMatch returns the player's active room in mode, or nil
func (s *MatchmakingService) PollMatch(ctx context.Context, playerID string, mode models.Mode) (*MatchInfo, error) {
	if !mode.Valid() {
		return nil, ErrInvalidMode
	}

	room, err := repository.NewRoomRepository(s.db).ActiveForPlayer(ctx, playerID, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to poll match: %w", err)
	}
	if room == nil {
		return nil, nil
	}
	return matchInfo(room, playerID), nil
}

// PurgeStale deletes queue entries older than maxAge left by clients that never cancelled
func (s *MatchmakingService) PurgeStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	return repository.NewQueueRepository(s.db).DeleteOlderThan(ctx, s.now().Add(-maxAge))
}

func matchInfo(room *models.BattleRoom, playerID string) *MatchInfo {
	role, _ := room.RoleOf(playerID)
	return &MatchInfo{RoomID: room.ID, Role: role}
}

func matchedResult(room *models.BattleRoom, playerID string) *JoinResult {
	m := matchInfo(room, playerID)
	return &JoinResult{Status: StatusMatched, RoomID: m.RoomID, Role: m.Role}
}
