package models

import "time"

// RankTier is a competitive bracket. Tiers are ordered BRONZE < ... < KING.
type RankTier string

const (
	TierBronze  RankTier = "BRONZE"
	TierSilver  RankTier = "SILVER"
	TierGold    RankTier = "GOLD"
	TierDiamond RankTier = "DIAMOND"
	TierKing    RankTier = "KING"
)

// RankTiers lists tiers from lowest to highest
var RankTiers = []RankTier{TierBronze, TierSilver, TierGold, TierDiamond, TierKing}

// Ordinal returns the tier's position in RankTiers, or -1 if unknown
func (t RankTier) Ordinal() int {
	for i, tier := range RankTiers {
		if tier == t {
			return i
		}
	}
	return -1
}

// PlayerStats is a player's persistent progression snapshot
type PlayerStats struct {
	PlayerID           string    `json:"player_id"`
	Level              int       `json:"level"`
	Exp                int       `json:"exp"`
	Atk                int       `json:"atk"`
	Def                int       `json:"def"`
	Crit               float64   `json:"crit"`
	HP                 int       `json:"hp"`
	MaxHP              int       `json:"max_hp"`
	RankTier           RankTier  `json:"rank_tier"`
	RankPoints         int       `json:"rank_points"`
	WinStreak          int       `json:"win_streak"`
	MasteredWordsCount int       `json:"mastered_words_count"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// LeaderboardEntry pairs stats with display data
type LeaderboardEntry struct {
	Rank        int         `json:"rank"`
	DisplayName string      `json:"display_name"`
	CombatPower float64     `json:"combat_power"`
	Stats       PlayerStats `json:"stats"`
}
