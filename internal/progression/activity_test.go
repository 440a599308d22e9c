package progression

import (
	"testing"

	"wordwarrior/internal/models"
)

func TestApplyVocabMastery(t *testing.T) {
	stats := NewStats("p1")
	stats.MasteredWordsCount = 8

	got := ApplyVocabMastery(stats, 5)

	if got.MasteredWordsCount != 13 {
		t.Errorf("MasteredWordsCount = %d, want 13", got.MasteredWordsCount)
	}
	if got.Atk != StartAtk+1 {
		t.Errorf("Atk = %d, want %d", got.Atk, StartAtk+1)
	}
	if got.Exp != 5*VocabExpPerWord {
		t.Errorf("Exp = %d, want %d", got.Exp, 5*VocabExpPerWord)
	}

	if same := ApplyVocabMastery(stats, 0); same != stats {
		t.Errorf("zero words changed stats")
	}
}

func TestApplyWritingScore(t *testing.T) {
	tests := []struct {
		name   string
		hp     int
		score  int
		wantHP int
		wantXP int
	}{
		{"below pass", 50, 59, 50, 0},
		{"pass heals and grants exp", 50, 80, 58, 40},
		{"heal capped at max", 98, 100, 100, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := NewStats("p1")
			stats.HP = tt.hp

			got := ApplyWritingScore(stats, tt.score)

			if got.HP != tt.wantHP || got.Exp != tt.wantXP {
				t.Errorf("hp/exp = %d/%d, want %d/%d", got.HP, got.Exp, tt.wantHP, tt.wantXP)
			}
		})
	}
}

func TestApplyReadingWin(t *testing.T) {
	tests := []struct {
		name       string
		correct    bool
		difficulty Difficulty
		want       int
	}{
		{"incorrect", false, Hard, 0},
		{"easy", true, Easy, 20},
		{"medium", true, Medium, 30},
		{"hard", true, Hard, 40},
		{"unknown counts as easy", true, Difficulty("legendary"), 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyReadingWin(NewStats("p1"), tt.correct, tt.difficulty)
			if got.Exp != tt.want {
				t.Errorf("Exp = %d, want %d", got.Exp, tt.want)
			}
		})
	}
}

func TestApply(t *testing.T) {
	t.Run("unranked battle grants exp only", func(t *testing.T) {
		stats := NewStats("p1")
		stats.HP = 30

		got := Apply(stats, BattleResult{Result: Win, Ranked: false})

		if got.RankPoints != 0 || got.WinStreak != 0 {
			t.Errorf("unranked win changed rank: %+v", got)
		}
		if got.Exp != WinBaseExp || got.HP != 30 {
			t.Errorf("exp/hp = %d/%d, want %d/30", got.Exp, got.HP, WinBaseExp)
		}
	})

	t.Run("ranked battle dispatches", func(t *testing.T) {
		got := Apply(NewStats("p1"), BattleResult{Opponent: Rank{Tier: models.TierBronze}, Result: Win, Ranked: true})
		if got.RankPoints != 1 || got.WinStreak != 1 {
			t.Errorf("rank points/streak = %d/%d, want 1/1", got.RankPoints, got.WinStreak)
		}
	})

	t.Run("practice outcomes dispatch", func(t *testing.T) {
		outcomes := []Outcome{
			VocabMastery{Words: 1},
			WritingScore{Score: 60},
			ReadingAnswer{Correct: true, Difficulty: Easy},
		}
		for _, o := range outcomes {
			if got := Apply(NewStats("p1"), o); got.Exp == 0 {
				t.Errorf("Apply(%T) granted no exp", o)
			}
		}
	})
}
