// Package progression converts activity outcomes into new player stats.
// Every function is pure: it takes a stats snapshot by value and returns the updated copy.
package progression

import "wordwarrior/internal/models"

// Per-level growth applied by ApplyExpGain
const (
	ExpPerLevel = 100
	HPPerLevel  = 10
	AtkPerLevel = 2
	DefPerLevel = 1
)

// Starting stats for a new account
const (
	StartLevel = 1
	StartAtk   = 10
	StartDef   = 5
	StartCrit  = 0.05
	StartHP    = 100
)

// NewStats returns the stats of a freshly created player
func NewStats(playerID string) models.PlayerStats {
	return models.PlayerStats{
		PlayerID: playerID,
		Level:    StartLevel,
		Atk:      StartAtk,
		Def:      StartDef,
		Crit:     StartCrit,
		HP:       StartHP,
		MaxHP:    StartHP,
		RankTier: models.TierBronze,
	}
}

// ApplyExpGain adds exp and rolls any overflow into level-ups.
// Each level-up grows MaxHP, Atk and Def and restores HP.
// Non-positive gains leave the stats untouched.
func ApplyExpGain(stats models.PlayerStats, exp int) models.PlayerStats {
	if exp <= 0 {
		return stats
	}

	stats.Exp += exp
	for stats.Exp >= stats.Level*ExpPerLevel {
		stats.Exp -= stats.Level * ExpPerLevel
		stats.Level++
		stats.MaxHP += HPPerLevel
		stats.HP = stats.MaxHP
		stats.Atk += AtkPerLevel
		stats.Def += DefPerLevel
	}
	return stats
}

// CombatPower is the display scalar used on leaderboards. It is never stored.
func CombatPower(stats models.PlayerStats) float64 {
	return float64(stats.Level)*10 +
		float64(stats.Atk)*2 +
		float64(stats.Def)*1.5 +
		float64(stats.HP)*0.1
}
