package repository

import (
	"context"
	"fmt"
	"time"

	"wordwarrior/internal/database"
	"wordwarrior/internal/models"
)

// PlayerRepository handles the display-name lookup table
type PlayerRepository struct {
	db database.DBTX
}

// NewPlayerRepository creates a new player repository
func NewPlayerRepository(db database.DBTX) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Upsert records a player's display name
func (r *PlayerRepository) Upsert(ctx context.Context, id, displayName string) error {
	insert := r.db.GetDialect().InsertIgnore("INSERT INTO players (id, display_name, created_at) VALUES (?, ?, ?)")
	if _, err := r.db.ExecContext(ctx, insert, id, displayName, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to insert player: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, "UPDATE players SET display_name = ? WHERE id = ?", displayName, id); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}
	return nil
}

// Get retrieves a player by ID
func (r *PlayerRepository) Get(ctx context.Context, id string) (*models.Player, error) {
	p := &models.Player{}
	err := r.db.QueryRowContext(ctx, "SELECT id, display_name, created_at FROM players WHERE id = ?", id).
		Scan(&p.ID, &p.DisplayName, &p.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// DisplayName returns the player's name, falling back to the id for unknown players
func (r *PlayerRepository) DisplayName(ctx context.Context, id string) (string, error) {
	p, err := r.Get(ctx, id)
	if err == ErrNotFound {
		return id, nil
	}
	if err != nil {
		return "", err
	}
	return p.DisplayName, nil
}
