package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"wordwarrior/internal/battle"
	"wordwarrior/internal/database"
	"wordwarrior/internal/models"
	"wordwarrior/internal/notify"
	"wordwarrior/internal/repository"
)

// maxExpiriesPerSweep bounds the rooms one ExpireOverdueRounds call touches
const maxExpiriesPerSweep = 100

// SubmitResult reports whether an event changed the room.
// Stale and duplicate events are not errors; they come back with Accepted false.
type SubmitResult struct {
	Accepted bool               `json:"accepted"`
	Room     *models.BattleRoom `json:"room,omitempty"`
}

// RoomView is a room as shown to one participant
type RoomView struct {
	Room        *models.BattleRoom `json:"room"`
	Role        models.Role        `json:"role"`
	Player1Name string             `json:"player1_name"`
	Player2Name string             `json:"player2_name"`
}

// BattleService applies battle room transitions against the store
type BattleService struct {
	db           *database.DB
	broker       notify.Broker
	progression  *ProgressionService
	answerWindow time.Duration
	grace        time.Duration
	now          func() time.Time
}

// NewBattleService creates a new battle service
func NewBattleService(db *database.DB, broker notify.Broker, progression *ProgressionService, answerWindow, grace time.Duration) *BattleService {
	return &BattleService{
		db:           db,
		broker:       broker,
		progression:  progression,
		answerWindow: answerWindow,
		grace:        grace,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *BattleService) rules(mode models.Mode) battle.Rules {
	return battle.RulesFor(mode, s.answerWindow, s.grace)
}

// SubmitAnswer records one player's answer for the current round
func (s *BattleService) SubmitAnswer(ctx context.Context, roomID string, sub battle.Submission) (*SubmitResult, error) {
	return s.transition(ctx, roomID, func(room *models.BattleRoom, round []models.BattleAnswer) (battle.Resolution, error) {
		return battle.Submit(room, round, sub, s.rules(room.Mode), s.now())
	})
}

// ExpireRound forfeits round index for players who have not answered once its deadline passed.
// A non-empty playerID must be a participant; the scheduler passes "".
func (s *BattleService) ExpireRound(ctx context.Context, roomID, playerID string, index int) (*SubmitResult, error) {
	return s.transition(ctx, roomID, func(room *models.BattleRoom, round []models.BattleAnswer) (battle.Resolution, error) {
		if _, ok := room.RoleOf(playerID); playerID != "" && !ok {
			return battle.Resolution{}, battle.ErrNotParticipant
		}
		return battle.Expire(room, round, index, s.rules(room.Mode), s.now())
	})
}

// Abandon resigns playerID from the room
func (s *BattleService) Abandon(ctx context.Context, roomID, playerID string) (*SubmitResult, error) {
	return s.transition(ctx, roomID, func(room *models.BattleRoom, _ []models.BattleAnswer) (battle.Resolution, error) {
		return battle.Abandon(room, playerID, s.now())
	})
}

// transition loads the room and its current round, resolves one event and
// persists the result with a version-guarded update. A finished room's
// progression is applied in the same transaction.
func (s *BattleService) transition(ctx context.Context, roomID string, resolve func(*models.BattleRoom, []models.BattleAnswer) (battle.Resolution, error)) (*SubmitResult, error) {
	var res battle.Resolution

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		rooms := repository.NewRoomRepository(tx)
		answers := repository.NewAnswerRepository(tx)

		room, err := rooms.GetForUpdate(ctx, roomID)
		if err != nil {
			return err
		}
		round, err := answers.ForRound(ctx, roomID, room.CurrentQuestionIndex)
		if err != nil {
			return err
		}

		res, err = resolve(room, round)
		if err != nil {
			return err
		}

		for _, a := range res.Answers {
			inserted, err := answers.Insert(ctx, a)
			if err != nil {
				return err
			}
			if !inserted {
				return battle.ErrDuplicateAnswer
			}
		}

		if err := rooms.Update(ctx, res.Room); err != nil {
			return err
		}
		if res.Finished {
			return s.progression.applyBattle(ctx, tx, res.Room)
		}
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrRoomNotFound
	case ignorable(err):
		return &SubmitResult{Accepted: false}, nil
	default:
		return nil, fmt.Errorf("failed to update room %s: %w", roomID, err)
	}

	if res.Finished {
		log.Printf("Room %s finished: outcome=%s reason=%s", roomID, res.Room.Outcome, res.Room.EndReason)
	}
	publish(ctx, s.broker, notify.EventFor(notify.RoomUpdated, res.Room))
	return &SubmitResult{Accepted: true, Room: res.Room}, nil
}

// ignorable errors are expected when two clients race on the same round
func ignorable(err error) bool {
	return errors.Is(err, battle.ErrStaleSubmission) ||
		errors.Is(err, battle.ErrDuplicateAnswer) ||
		errors.Is(err, battle.ErrRoomFinished) ||
		errors.Is(err, battle.ErrRoundNotExpired)
}

// GetRoom returns a room by id
func (s *BattleService) GetRoom(ctx context.Context, roomID string) (*models.BattleRoom, error) {
	room, err := repository.NewRoomRepository(s.db).Get(ctx, roomID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	return room, err
}

// GetRoomView returns a room with display names, for participants only
func (s *BattleService) GetRoomView(ctx context.Context, roomID, playerID string) (*RoomView, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	role, ok := room.RoleOf(playerID)
	if !ok {
		return nil, battle.ErrNotParticipant
	}

	players := repository.NewPlayerRepository(s.db)
	view := &RoomView{Room: room, Role: role}
	if view.Player1Name, err = players.DisplayName(ctx, room.Player1ID); err != nil {
		return nil, err
	}
	if view.Player2Name, err = players.DisplayName(ctx, room.Player2ID); err != nil {
		return nil, err
	}
	return view, nil
}

// ExpireOverdueRounds forfeits every round whose deadline has passed.
// It backs up clients that vanished without abandoning.
func (s *BattleService) ExpireOverdueRounds(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-(s.answerWindow + s.grace))
	overdue, err := repository.NewRoomRepository(s.db).ActiveStartedBefore(ctx, cutoff, maxExpiriesPerSweep)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, o := range overdue {
		result, err := s.ExpireRound(ctx, o.RoomID, "", o.QuestionIndex)
		if err != nil {
			log.Printf("Error expiring round %d of room %s: %v", o.QuestionIndex, o.RoomID, err)
			continue
		}
		if result.Accepted {
			expired++
		}
	}
	return expired, nil
}

// History returns a player's finished battles, newest first
func (s *BattleService) History(ctx context.Context, playerID string, limit int) ([]models.BattleHistoryEntry, error) {
	rooms, err := repository.NewRoomRepository(s.db).FinishedForPlayer(ctx, playerID, limit)
	if err != nil {
		return nil, err
	}

	history := make([]models.BattleHistoryEntry, 0, len(rooms))
	for _, room := range rooms {
		opponent := room.OpponentOf(playerID)
		result := string(battle.ResultFor(room, playerID))
		if room.Resigned(playerID) {
			result = "resigned"
		}
		history = append(history, models.BattleHistoryEntry{
			RoomID:     room.ID,
			Mode:       room.Mode,
			OpponentID: opponent,
			MyHP:       room.HPOf(playerID),
			OpponentHP: room.HPOf(opponent),
			Result:     result,
			EndReason:  room.EndReason,
			FinishedAt: room.UpdatedAt,
		})
	}
	return history, nil
}
