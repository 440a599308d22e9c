package progression

import "wordwarrior/internal/models"

// Result is the side of a finished battle a player ended on
type Result string

const (
	Win  Result = "win"
	Loss Result = "loss"
	Draw Result = "draw"
)

// Battle experience
const (
	WinBaseExp      = 30
	WinStreakExp    = 5
	MaxStreakBonus  = 10
	LossExp         = 10
	DrawExp         = 15
	UpsetBonusPoint = 1
)

// tierThresholds is the number of points needed to leave each tier upward.
// KING has no upper bound.
var tierThresholds = map[models.RankTier]int{
	models.TierBronze:  3,
	models.TierSilver:  4,
	models.TierGold:    5,
	models.TierDiamond: 6,
}

// Rank is a tier and the points held within it
type Rank struct {
	Tier   models.RankTier `json:"tier"`
	Points int             `json:"points"`
}

// RankOf extracts the rank from a stats snapshot
func RankOf(stats models.PlayerStats) Rank {
	return Rank{Tier: stats.RankTier, Points: stats.RankPoints}
}

// IsUpset reports whether beating opponent counts as an upset for mine
func IsUpset(mine, opponent Rank) bool {
	if mine.Tier.Ordinal() != opponent.Tier.Ordinal() {
		return opponent.Tier.Ordinal() > mine.Tier.Ordinal()
	}
	return opponent.Points > mine.Points
}

// losesPointsOnDefeat reports whether a tier is exposed to rank point loss
func losesPointsOnDefeat(tier models.RankTier) bool {
	return tier == models.TierDiamond || tier == models.TierKing
}

// normalizeRank walks the threshold table until points fit the tier's bracket,
// carrying remainders across boundaries in both directions.
func normalizeRank(r Rank) Rank {
	if r.Tier.Ordinal() < 0 {
		r.Tier = models.TierBronze
	}

	for {
		threshold, bounded := tierThresholds[r.Tier]
		if !bounded || r.Points < threshold {
			break
		}
		r.Points -= threshold
		r.Tier = models.RankTiers[r.Tier.Ordinal()+1]
	}

	for r.Points < 0 && r.Tier != models.TierBronze {
		r.Tier = models.RankTiers[r.Tier.Ordinal()-1]
		r.Points += tierThresholds[r.Tier]
	}
	if r.Points < 0 {
		r.Points = 0
	}
	return r
}

// BattleExp returns the experience granted for a result at the given win streak
func BattleExp(result Result, streak int) int {
	switch result {
	case Win:
		return WinBaseExp + WinStreakExp*min(streak, MaxStreakBonus)
	case Loss:
		return LossExp
	case Draw:
		return DrawExp
	}
	return 0
}

// ApplyBattleResult updates rank, streak, experience and health after a ranked battle.
//
// A win adds a rank point (plus a bonus for an upset), extends the streak and restores health.
// A loss decays the streak by 30% and only costs a rank point at DIAMOND and KING.
// A draw grants experience and nothing else.
func ApplyBattleResult(stats models.PlayerStats, opponent Rank, result Result, wasUpset bool) models.PlayerStats {
	rank := RankOf(stats)

	switch result {
	case Win:
		if wasUpset || IsUpset(rank, opponent) {
			rank.Points += UpsetBonusPoint
		}
		rank.Points++
		stats.WinStreak++
	case Loss:
		stats.WinStreak = stats.WinStreak * 7 / 10
		if losesPointsOnDefeat(rank.Tier) {
			rank.Points--
		}
	case Draw:
		return ApplyExpGain(stats, DrawExp)
	default:
		return stats
	}

	rank = normalizeRank(rank)
	stats.RankTier = rank.Tier
	stats.RankPoints = rank.Points

	stats = ApplyExpGain(stats, BattleExp(result, stats.WinStreak))
	if result == Win {
		stats.HP = stats.MaxHP
	}
	return stats
}
