package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wordwarrior/internal/battle"
	"wordwarrior/internal/database"
	"wordwarrior/internal/models"
	"wordwarrior/internal/progression"
	"wordwarrior/internal/repository"
	"wordwarrior/internal/validation"
)

// ProgressionService persists progression engine results
type ProgressionService struct {
	db  *database.DB
	now func() time.Time
}

// NewProgressionService creates a new progression service
func NewProgressionService(db *database.DB) *ProgressionService {
	return &ProgressionService{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// RegisterPlayer records the display name shown to opponents and on the leaderboard
func (s *ProgressionService) RegisterPlayer(ctx context.Context, playerID, displayName string) error {
	if displayName == "" {
		return nil
	}
	if err := validation.ValidateDisplayName(displayName); err != nil {
		return err
	}
	return repository.NewPlayerRepository(s.db).Upsert(ctx, playerID, strings.TrimSpace(displayName))
}

// GetStats returns a player's stats, or starting stats for a player never seen
func (s *ProgressionService) GetStats(ctx context.Context, playerID string) (*models.PlayerStats, error) {
	return loadStats(ctx, repository.NewStatsRepository(s.db), playerID, false)
}

// ApplyActivityOutcome applies one outcome to the player's stats and stores the result
func (s *ProgressionService) ApplyActivityOutcome(ctx context.Context, playerID string, outcome progression.Outcome) (*models.PlayerStats, error) {
	var updated *models.PlayerStats
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		stats := repository.NewStatsRepository(tx)
		current, err := loadStats(ctx, stats, playerID, true)
		if err != nil {
			return err
		}

		next := progression.Apply(*current, outcome)
		next.UpdatedAt = s.now()
		if err := stats.Save(ctx, &next); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply outcome: %w", err)
	}
	return updated, nil
}

// Leaderboard returns the top players with their combat power
func (s *ProgressionService) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	entries, err := repository.NewStatsRepository(s.db).Leaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].CombatPower = progression.CombatPower(entries[i].Stats)
	}
	return entries, nil
}

// applyBattle records a finished ranked room for both players inside tx.
// Both players' ranks are read before either is updated.
func (s *ProgressionService) applyBattle(ctx context.Context, tx database.DBTX, room *models.BattleRoom) error {
	stats := repository.NewStatsRepository(tx)

	p1, err := loadStats(ctx, stats, room.Player1ID, true)
	if err != nil {
		return err
	}
	p2, err := loadStats(ctx, stats, room.Player2ID, true)
	if err != nil {
		return err
	}

	now := s.now()
	updates := []struct {
		self     *models.PlayerStats
		opponent *models.PlayerStats
	}{{p1, p2}, {p2, p1}}

	for _, u := range updates {
		next := progression.Apply(*u.self, progression.BattleResult{
			Opponent: progression.RankOf(*u.opponent),
			Result:   battle.ResultFor(room, u.self.PlayerID),
			Ranked:   true,
		})
		next.UpdatedAt = now
		if err := stats.Save(ctx, &next); err != nil {
			return err
		}
	}
	return nil
}

func loadStats(ctx context.Context, stats *repository.StatsRepository, playerID string, forUpdate bool) (*models.PlayerStats, error) {
	get := stats.Get
	if forUpdate {
		get = stats.GetForUpdate
	}

	current, err := get(ctx, playerID)
	if errors.Is(err, repository.ErrNotFound) {
		fresh := progression.NewStats(playerID)
		return &fresh, nil
	}
	return current, err
}
