package progression

import "wordwarrior/internal/models"

// Practice activity constants
const (
	VocabExpPerWord   = 10
	VocabAtkMilestone = 10
	WritingPassScore  = 60
	WritingHPDivisor  = 10
	WritingExpDivisor = 2
	ReadingBaseExp    = 20
)

// Difficulty scales reading experience
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Multiplier returns the experience multiplier. Unknown difficulties count as easy.
func (d Difficulty) Multiplier() float64 {
	switch d {
	case Medium:
		return 1.5
	case Hard:
		return 2.0
	}
	return 1.0
}

// Outcome is one of BattleResult, VocabMastery, WritingScore or ReadingAnswer
type Outcome interface {
	isOutcome()
}

// BattleResult is the end of a battle from one player's side.
// Unranked results (matches against the local bot) grant experience only.
type BattleResult struct {
	Opponent Rank
	Result   Result
	WasUpset bool
	Ranked   bool
}

// VocabMastery reports newly mastered words
type VocabMastery struct {
	Words int
}

// WritingScore reports a graded writing exercise (0-100)
type WritingScore struct {
	Score int
}

// ReadingAnswer reports one reading comprehension answer
type ReadingAnswer struct {
	Correct    bool
	Difficulty Difficulty
}

func (BattleResult) isOutcome()  {}
func (VocabMastery) isOutcome()  {}
func (WritingScore) isOutcome()  {}
func (ReadingAnswer) isOutcome() {}

// Apply dispatches an outcome to its progression rule
func Apply(stats models.PlayerStats, outcome Outcome) models.PlayerStats {
	switch o := outcome.(type) {
	case BattleResult:
		if !o.Ranked {
			return ApplyExpGain(stats, BattleExp(o.Result, stats.WinStreak))
		}
		return ApplyBattleResult(stats, o.Opponent, o.Result, o.WasUpset)
	case VocabMastery:
		return ApplyVocabMastery(stats, o.Words)
	case WritingScore:
		return ApplyWritingScore(stats, o.Score)
	case ReadingAnswer:
		return ApplyReadingWin(stats, o.Correct, o.Difficulty)
	}
	return stats
}

// ApplyVocabMastery grants experience per word and an attack point
// for every milestone of mastered words crossed.
func ApplyVocabMastery(stats models.PlayerStats, words int) models.PlayerStats {
	if words <= 0 {
		return stats
	}

	before := stats.MasteredWordsCount / VocabAtkMilestone
	stats.MasteredWordsCount += words
	stats.Atk += stats.MasteredWordsCount/VocabAtkMilestone - before

	return ApplyExpGain(stats, words*VocabExpPerWord)
}

// ApplyWritingScore rewards passing writing scores with experience and healing
func ApplyWritingScore(stats models.PlayerStats, score int) models.PlayerStats {
	if score < WritingPassScore {
		return stats
	}
	score = min(score, 100)

	stats.HP = min(stats.HP+score/WritingHPDivisor, stats.MaxHP)
	return ApplyExpGain(stats, score/WritingExpDivisor)
}

// ApplyReadingWin grants experience for a correct answer scaled by difficulty
func ApplyReadingWin(stats models.PlayerStats, correct bool, difficulty Difficulty) models.PlayerStats {
	if !correct {
		return stats
	}
	return ApplyExpGain(stats, int(ReadingBaseExp*difficulty.Multiplier()))
}
