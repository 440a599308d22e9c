package battle

import (
	"time"

	"wordwarrior/internal/models"
)

// Rules holds the damage model for one mode
type Rules struct {
	AnswerWindow time.Duration
	Grace        time.Duration

	BaseDamage    int     // dealt by every correct answer
	SpeedBonus    int     // scaled by the share of the answer window left
	CritBonus     int     // added when the answer lands early enough
	CritThreshold float64 // share of the window that must remain for a critical
	CounterDamage int     // taken by the submitter of an incorrect answer
}

// RulesFor returns the rules of a mode
func RulesFor(mode models.Mode, answerWindow, grace time.Duration) Rules {
	rules := Rules{
		AnswerWindow:  answerWindow,
		Grace:         grace,
		BaseDamage:    10,
		SpeedBonus:    10,
		CritBonus:     5,
		CritThreshold: 0.75,
	}

	switch mode {
	case models.ModeBlitz:
		rules.BaseDamage = 12
		rules.SpeedBonus = 12
		rules.CounterDamage = 5
	case models.ModeTactics:
		rules.SpeedBonus = 0
		rules.CritBonus = 0
	}
	return rules
}

// Damage returns the damage an answer deals to the opponent
func (r Rules) Damage(correct bool, remaining time.Duration) (int, bool) {
	if !correct {
		return 0, false
	}

	share := 0.0
	if r.AnswerWindow > 0 {
		remaining = max(0, min(remaining, r.AnswerWindow))
		share = float64(remaining) / float64(r.AnswerWindow)
	}

	damage := r.BaseDamage + int(float64(r.SpeedBonus)*share)
	critical := r.CritBonus > 0 && share >= r.CritThreshold
	if critical {
		damage += r.CritBonus
	}
	return damage, critical
}

// Counter returns the damage an answer deals back to its submitter
func (r Rules) Counter(correct bool) int {
	if correct {
		return 0
	}
	return r.CounterDamage
}

// RoundDeadline is when the current round may be force-expired
func (r Rules) RoundDeadline(room *models.BattleRoom) time.Time {
	return room.RoundStartedAt.Add(r.AnswerWindow + r.Grace)
}
