package repository

import (
	"context"
	"fmt"
	"time"

	"wordwarrior/internal/database"
	"wordwarrior/internal/models"
)

// QueueRepository handles matchmaking queue database operations
type QueueRepository struct {
	db database.DBTX
}

// NewQueueRepository creates a new queue repository
func NewQueueRepository(db database.DBTX) *QueueRepository {
	return &QueueRepository{db: db}
}

// LockMode takes the per-mode pairing lock for the rest of the transaction.
// On SQLite the immediate transaction already holds the write lock.
func (r *QueueRepository) LockMode(ctx context.Context, mode models.Mode) error {
	dialect := r.db.GetDialect()
	if _, err := r.db.ExecContext(ctx, dialect.InsertIgnore("INSERT INTO queue_locks (mode) VALUES (?)"), mode); err != nil {
		return fmt.Errorf("failed to ensure queue lock: %w", err)
	}

	var locked string
	query := "SELECT mode FROM queue_locks WHERE mode = ?" + dialect.ForUpdate()
	if err := r.db.QueryRowContext(ctx, query, mode).Scan(&locked); err != nil {
		return fmt.Errorf("failed to lock queue: %w", err)
	}
	return nil
}

// OldestWaiting returns the longest-waiting entry in mode not owned by excludePlayerID.
// It returns nil when nobody else is waiting.
func (r *QueueRepository) OldestWaiting(ctx context.Context, mode models.Mode, excludePlayerID string) (*models.QueueEntry, error) {
	query := `
		SELECT id, player_id, mode, joined_at
		FROM queue_entries
		WHERE mode = ? AND player_id <> ?
		ORDER BY joined_at ASC, id ASC
		LIMIT 1
	`
	entry, err := scanQueueEntry(r.db.QueryRowContext(ctx, query, mode, excludePlayerID))
	if err == ErrNotFound {
		return nil, nil
	}
	return entry, err
}

// Insert adds a waiting entry. It reports false when the player already waits in that mode.
func (r *QueueRepository) Insert(ctx context.Context, entry *models.QueueEntry) (bool, error) {
	query := r.db.GetDialect().InsertIgnore("INSERT INTO queue_entries (id, player_id, mode, joined_at) VALUES (?, ?, ?, ?)")
	result, err := r.db.ExecContext(ctx, query, entry.ID, entry.PlayerID, entry.Mode, entry.JoinedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert queue entry: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// Delete removes an entry by id and returns the number of rows removed
func (r *QueueRepository) Delete(ctx context.Context, id string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM queue_entries WHERE id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete queue entry: %w", err)
	}
	return result.RowsAffected()
}

// DeleteForPlayer removes a player's waiting entry in mode
func (r *QueueRepository) DeleteForPlayer(ctx context.Context, playerID string, mode models.Mode) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM queue_entries WHERE player_id = ? AND mode = ?", playerID, mode)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel queue entry: %w", err)
	}
	return result.RowsAffected()
}

// DeleteOlderThan purges entries that joined before cutoff
func (r *QueueRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM queue_entries WHERE joined_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge queue entries: %w", err)
	}
	return result.RowsAffected()
}

func scanQueueEntry(row interface{ Scan(...interface{}) error }) (*models.QueueEntry, error) {
	entry := &models.QueueEntry{}
	err := row.Scan(&entry.ID, &entry.PlayerID, &entry.Mode, &entry.JoinedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return entry, nil
}
