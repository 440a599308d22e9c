package repository

import (
	"context"
	"fmt"

	"wordwarrior/internal/database"
	"wordwarrior/internal/models"
)

const statsColumns = `
	player_id, level, exp, atk, def, crit, hp, max_hp,
	rank_tier, rank_points, win_streak, mastered_words_count, updated_at
`

// StatsRepository persists player progression
type StatsRepository struct {
	db database.DBTX
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db database.DBTX) *StatsRepository {
	return &StatsRepository{db: db}
}

// Get retrieves a player's stats
func (r *StatsRepository) Get(ctx context.Context, playerID string) (*models.PlayerStats, error) {
	query := `SELECT ` + statsColumns + ` FROM player_stats WHERE player_id = ?`
	return scanStats(r.db.QueryRowContext(ctx, query, playerID))
}

// GetForUpdate retrieves a player's stats and locks the row until the transaction ends
func (r *StatsRepository) GetForUpdate(ctx context.Context, playerID string) (*models.PlayerStats, error) {
	query := `SELECT ` + statsColumns + ` FROM player_stats WHERE player_id = ?` + r.db.GetDialect().ForUpdate()
	return scanStats(r.db.QueryRowContext(ctx, query, playerID))
}

// Save writes stats, inserting the row the first time a player is seen
func (r *StatsRepository) Save(ctx context.Context, s *models.PlayerStats) error {
	update := `
		UPDATE player_stats
		SET level = ?, exp = ?, atk = ?, def = ?, crit = ?, hp = ?, max_hp = ?,
		    rank_tier = ?, rank_points = ?, win_streak = ?, mastered_words_count = ?, updated_at = ?
		WHERE player_id = ?
	`
	result, err := r.db.ExecContext(ctx, update,
		s.Level, s.Exp, s.Atk, s.Def, s.Crit, s.HP, s.MaxHP,
		s.RankTier, s.RankPoints, s.WinStreak, s.MasteredWordsCount, s.UpdatedAt,
		s.PlayerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update stats: %w", err)
	}
	if rows, err := result.RowsAffected(); err != nil || rows == 1 {
		return err
	}

	// MySQL reports zero affected rows for an unchanged row, so the insert must tolerate an existing one
	insert := r.db.GetDialect().InsertIgnore(`INSERT INTO player_stats (` + statsColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = r.db.ExecContext(ctx, insert,
		s.PlayerID, s.Level, s.Exp, s.Atk, s.Def, s.Crit, s.HP, s.MaxHP,
		s.RankTier, s.RankPoints, s.WinStreak, s.MasteredWordsCount, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert stats: %w", err)
	}
	return nil
}

// Leaderboard returns the top players ordered by tier, points and level
func (r *StatsRepository) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	query := `
		SELECT ` + prefixed("s", statsColumns) + `, COALESCE(p.display_name, s.player_id)
		FROM player_stats s
		LEFT JOIN players p ON p.id = s.player_id
		ORDER BY CASE s.rank_tier
			WHEN 'KING' THEN 4
			WHEN 'DIAMOND' THEN 3
			WHEN 'GOLD' THEN 2
			WHEN 'SILVER' THEN 1
			ELSE 0
		END DESC, s.rank_points DESC, s.level DESC, s.exp DESC, s.player_id ASC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		s := &e.Stats
		err := rows.Scan(
			&s.PlayerID, &s.Level, &s.Exp, &s.Atk, &s.Def, &s.Crit, &s.HP, &s.MaxHP,
			&s.RankTier, &s.RankPoints, &s.WinStreak, &s.MasteredWordsCount, &s.UpdatedAt,
			&e.DisplayName,
		)
		if err != nil {
			return nil, err
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// All lists every player's stats
func (r *StatsRepository) All(ctx context.Context) ([]models.PlayerStats, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+statsColumns+` FROM player_stats ORDER BY player_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list stats: %w", err)
	}
	defer rows.Close()

	var all []models.PlayerStats
	for rows.Next() {
		s, err := scanStats(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, *s)
	}
	return all, rows.Err()
}

func scanStats(row interface{ Scan(...interface{}) error }) (*models.PlayerStats, error) {
	s := &models.PlayerStats{}
	err := row.Scan(
		&s.PlayerID, &s.Level, &s.Exp, &s.Atk, &s.Def, &s.Crit, &s.HP, &s.MaxHP,
		&s.RankTier, &s.RankPoints, &s.WinStreak, &s.MasteredWordsCount, &s.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}
