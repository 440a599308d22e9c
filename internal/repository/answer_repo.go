package repository

import (
	"context"
	"fmt"

	"wordwarrior/internal/database"
	"wordwarrior/internal/models"
)

// AnswerRepository handles accepted battle answers
type AnswerRepository struct {
	db database.DBTX
}

// NewAnswerRepository creates a new answer repository
func NewAnswerRepository(db database.DBTX) *AnswerRepository {
	return &AnswerRepository{db: db}
}

// Insert records an answer. It reports false if the player already has an
// answer for that round; the primary key keeps exactly one per player per round.
func (r *AnswerRepository) Insert(ctx context.Context, a models.BattleAnswer) (bool, error) {
	query := r.db.GetDialect().InsertIgnore(`
		INSERT INTO battle_answers (room_id, question_index, player_id, is_correct, time_remaining_ms, damage, critical, forfeit, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	result, err := r.db.ExecContext(ctx, query,
		a.RoomID, a.QuestionIndex, a.PlayerID, a.IsCorrect, a.TimeRemainingMs, a.Damage, a.Critical, a.Forfeit, a.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to record answer: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// ForRound lists the answers accepted for one round
func (r *AnswerRepository) ForRound(ctx context.Context, roomID string, index int) ([]models.BattleAnswer, error) {
	return r.list(ctx, `
		SELECT room_id, question_index, player_id, is_correct, time_remaining_ms, damage, critical, forfeit, created_at
		FROM battle_answers
		WHERE room_id = ? AND question_index = ?
		ORDER BY created_at ASC
	`, roomID, index)
}

// ForRoom lists every answer in a room in round order
func (r *AnswerRepository) ForRoom(ctx context.Context, roomID string) ([]models.BattleAnswer, error) {
	return r.list(ctx, `
		SELECT room_id, question_index, player_id, is_correct, time_remaining_ms, damage, critical, forfeit, created_at
		FROM battle_answers
		WHERE room_id = ?
		ORDER BY question_index ASC, created_at ASC
	`, roomID)
}

func (r *AnswerRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.BattleAnswer, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	defer rows.Close()

	var answers []models.BattleAnswer
	for rows.Next() {
		var a models.BattleAnswer
		err := rows.Scan(&a.RoomID, &a.QuestionIndex, &a.PlayerID, &a.IsCorrect, &a.TimeRemainingMs, &a.Damage, &a.Critical, &a.Forfeit, &a.CreatedAt)
		if err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
