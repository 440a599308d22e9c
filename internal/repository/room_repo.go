package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"wordwarrior/internal/database"
	"wordwarrior/internal/models"
)

const roomColumns = `
	id, mode, player1_id, player2_id, player1_hp, player2_hp,
	current_question_index, questions, status, winner_id, outcome,
	end_reason, resigned_by, version, round_started_at, created_at, updated_at
`

// RoomRepository handles battle room database operations
type RoomRepository struct {
	db database.DBTX
}

// NewRoomRepository creates a new room repository
func NewRoomRepository(db database.DBTX) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create inserts a new room
func (r *RoomRepository) Create(ctx context.Context, room *models.BattleRoom) error {
	questions, err := json.Marshal(room.Questions)
	if err != nil {
		return fmt.Errorf("failed to encode questions: %w", err)
	}

	query := `INSERT INTO battle_rooms (` + roomColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		room.ID, room.Mode, room.Player1ID, room.Player2ID, room.Player1HP, room.Player2HP,
		room.CurrentQuestionIndex, string(questions), room.Status, nullString(room.WinnerID), room.Outcome,
		room.EndReason, nullString(room.ResignedBy), room.Version, room.RoundStartedAt, room.CreatedAt, room.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

// Get retrieves a room by ID
func (r *RoomRepository) Get(ctx context.Context, id string) (*models.BattleRoom, error) {
	query := `SELECT ` + roomColumns + ` FROM battle_rooms WHERE id = ?`
	return scanRoom(r.db.QueryRowContext(ctx, query, id))
}

// GetForUpdate retrieves a room and locks its row until the transaction ends
func (r *RoomRepository) GetForUpdate(ctx context.Context, id string) (*models.BattleRoom, error) {
	query := `SELECT ` + roomColumns + ` FROM battle_rooms WHERE id = ?` + r.db.GetDialect().ForUpdate()
	return scanRoom(r.db.QueryRowContext(ctx, query, id))
}

// ActiveForPlayer returns the newest active room in mode the player takes part in, or nil
func (r *RoomRepository) ActiveForPlayer(ctx context.Context, playerID string, mode models.Mode) (*models.BattleRoom, error) {
	query := `SELECT ` + roomColumns + `
		FROM battle_rooms
		WHERE status = ? AND mode = ? AND (player1_id = ? OR player2_id = ?)
		ORDER BY created_at DESC
		LIMIT 1
	`
	room, err := scanRoom(r.db.QueryRowContext(ctx, query, models.RoomActive, mode, playerID, playerID))
	if err == ErrNotFound {
		return nil, nil
	}
	return room, err
}

// Update writes the room's mutable fields if its version is still room.Version.
// On success room.Version is incremented; a lost race returns database.ErrConflict.
func (r *RoomRepository) Update(ctx context.Context, room *models.BattleRoom) error {
	query := `
		UPDATE battle_rooms
		SET player1_hp = ?, player2_hp = ?, current_question_index = ?, status = ?,
		    winner_id = ?, outcome = ?, end_reason = ?, resigned_by = ?,
		    round_started_at = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ? AND current_question_index <= ?
	`
	result, err := r.db.ExecContext(ctx, query,
		room.Player1HP, room.Player2HP, room.CurrentQuestionIndex, room.Status,
		nullString(room.WinnerID), room.Outcome, room.EndReason, nullString(room.ResignedBy),
		room.RoundStartedAt, room.UpdatedAt,
		room.ID, room.Version, room.CurrentQuestionIndex,
	)
	if err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows != 1 {
		return database.ErrConflict
	}
	room.Version++
	return nil
}

// OverdueRound identifies an active room whose current round outlived its deadline
type OverdueRound struct {
	RoomID        string
	QuestionIndex int
}

// ActiveStartedBefore lists active rooms whose current round started before cutoff
func (r *RoomRepository) ActiveStartedBefore(ctx context.Context, cutoff time.Time, limit int) ([]OverdueRound, error) {
	query := `
		SELECT id, current_question_index
		FROM battle_rooms
		WHERE status = ? AND round_started_at < ?
		ORDER BY round_started_at ASC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, models.RoomActive, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue rooms: %w", err)
	}
	defer rows.Close()

	var overdue []OverdueRound
	for rows.Next() {
		var o OverdueRound
		if err := rows.Scan(&o.RoomID, &o.QuestionIndex); err != nil {
			return nil, err
		}
		overdue = append(overdue, o)
	}
	return overdue, rows.Err()
}

// FinishedForPlayer lists a player's finished rooms, newest first
func (r *RoomRepository) FinishedForPlayer(ctx context.Context, playerID string, limit int) ([]*models.BattleRoom, error) {
	query := `SELECT ` + roomColumns + `
		FROM battle_rooms
		WHERE status = ? AND (player1_id = ? OR player2_id = ?)
		ORDER BY updated_at DESC
		LIMIT ?
	`
	return r.list(ctx, query, models.RoomFinished, playerID, playerID, limit)
}

// All lists every room, oldest first
func (r *RoomRepository) All(ctx context.Context) ([]*models.BattleRoom, error) {
	return r.list(ctx, `SELECT `+roomColumns+` FROM battle_rooms ORDER BY created_at ASC`)
}

// Import inserts a room unless one with the same id exists
func (r *RoomRepository) Import(ctx context.Context, room *models.BattleRoom) (bool, error) {
	questions, err := json.Marshal(room.Questions)
	if err != nil {
		return false, fmt.Errorf("failed to encode questions: %w", err)
	}

	query := r.db.GetDialect().InsertIgnore(`INSERT INTO battle_rooms (` + roomColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	result, err := r.db.ExecContext(ctx, query,
		room.ID, room.Mode, room.Player1ID, room.Player2ID, room.Player1HP, room.Player2HP,
		room.CurrentQuestionIndex, string(questions), room.Status, nullString(room.WinnerID), room.Outcome,
		room.EndReason, nullString(room.ResignedBy), room.Version, room.RoundStartedAt, room.CreatedAt, room.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to import room: %w", err)
	}
	rows, err := result.RowsAffected()
	return rows == 1, err
}

func (r *RoomRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.BattleRoom, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*models.BattleRoom
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func scanRoom(row interface{ Scan(...interface{}) error }) (*models.BattleRoom, error) {
	room := &models.BattleRoom{}
	var questions string
	var winnerID, resignedBy sql.NullString

	err := row.Scan(
		&room.ID,
		&room.Mode,
		&room.Player1ID,
		&room.Player2ID,
		&room.Player1HP,
		&room.Player2HP,
		&room.CurrentQuestionIndex,
		&questions,
		&room.Status,
		&winnerID,
		&room.Outcome,
		&room.EndReason,
		&resignedBy,
		&room.Version,
		&room.RoundStartedAt,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}

	if err := json.Unmarshal([]byte(questions), &room.Questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions for room %s: %w", room.ID, err)
	}
	room.WinnerID = stringPtr(winnerID)
	room.ResignedBy = stringPtr(resignedBy)
	return room, nil
}
