// Package battle resolves battle room transitions.
// It is the single authoritative resolution function shared by the server and the local bot.
package battle

import (
	"errors"
	"time"

	"wordwarrior/internal/models"
	"wordwarrior/internal/progression"
)

var (
	ErrRoomFinished    = errors.New("room is finished")
	ErrNotParticipant  = errors.New("player is not in this room")
	ErrStaleSubmission = errors.New("submission is for a round that is not current")
	ErrDuplicateAnswer = errors.New("player already answered this round")
	ErrRoundNotExpired = errors.New("round has not timed out yet")
	ErrInvalidState    = errors.New("invalid room state")
)

// EventKind is an input to the room state machine
type EventKind string

const (
	EventAnswer       EventKind = "answer"
	EventRoundTimeout EventKind = "round_timeout"
	EventAbandon      EventKind = "abandon"
)

// transitions lists the events each status accepts. Finished rooms accept none.
var transitions = map[models.RoomStatus]map[EventKind]bool{
	models.RoomActive: {
		EventAnswer:       true,
		EventRoundTimeout: true,
		EventAbandon:      true,
	},
	models.RoomFinished: {},
}

func checkTransition(status models.RoomStatus, event EventKind) error {
	accepted, known := transitions[status]
	if !known {
		return ErrInvalidState
	}
	if !accepted[event] {
		return ErrRoomFinished
	}
	return nil
}

// Submission is one player's answer to one round
type Submission struct {
	PlayerID      string
	QuestionIndex int
	IsCorrect     bool
	TimeRemaining time.Duration
}

// Resolution is the result of applying one event
type Resolution struct {
	Room     *models.BattleRoom
	Answers  []models.BattleAnswer // rows to record for this event
	Advanced bool
	Finished bool
}

// Submit applies an answer to the room. The input room is not modified.
// roundAnswers are the answers already accepted for the current round.
func Submit(room *models.BattleRoom, roundAnswers []models.BattleAnswer, sub Submission, rules Rules, now time.Time) (Resolution, error) {
	if err := checkTransition(room.Status, EventAnswer); err != nil {
		return Resolution{}, err
	}
	if _, ok := room.RoleOf(sub.PlayerID); !ok {
		return Resolution{}, ErrNotParticipant
	}
	if sub.QuestionIndex != room.CurrentQuestionIndex {
		return Resolution{}, ErrStaleSubmission
	}
	if hasAnswered(roundAnswers, room.CurrentQuestionIndex, sub.PlayerID) {
		return Resolution{}, ErrDuplicateAnswer
	}

	next := room.Clone()
	answer := resolveAnswer(next, sub.PlayerID, sub.IsCorrect, sub.TimeRemaining, false, rules, now)

	res := Resolution{Room: next, Answers: []models.BattleAnswer{answer}}
	settle(&res, append(currentRound(roundAnswers, room.CurrentQuestionIndex), answer), now)
	return res, nil
}

// Expire forfeits the current round for every player who has not answered.
// index must match the room's current round so repeated expiries are harmless.
func Expire(room *models.BattleRoom, roundAnswers []models.BattleAnswer, index int, rules Rules, now time.Time) (Resolution, error) {
	if err := checkTransition(room.Status, EventRoundTimeout); err != nil {
		return Resolution{}, err
	}
	if index != room.CurrentQuestionIndex {
		return Resolution{}, ErrStaleSubmission
	}
	if now.Before(rules.RoundDeadline(room)) {
		return Resolution{}, ErrRoundNotExpired
	}

	next := room.Clone()
	answered := currentRound(roundAnswers, room.CurrentQuestionIndex)
	res := Resolution{Room: next}

	// All silent players forfeit before settling; a shared knockout is a draw.
	for _, playerID := range []string{room.Player1ID, room.Player2ID} {
		if hasAnswered(answered, room.CurrentQuestionIndex, playerID) {
			continue
		}
		answer := resolveAnswer(next, playerID, false, 0, true, rules, now)
		res.Answers = append(res.Answers, answer)
		answered = append(answered, answer)
	}

	settle(&res, answered, now)
	return res, nil
}

// Abandon finalizes the room in favor of the other participant.
// The resigning side keeps whatever health it had.
func Abandon(room *models.BattleRoom, playerID string, now time.Time) (Resolution, error) {
	if err := checkTransition(room.Status, EventAbandon); err != nil {
		return Resolution{}, err
	}
	if _, ok := room.RoleOf(playerID); !ok {
		return Resolution{}, ErrNotParticipant
	}

	next := room.Clone()
	resigned := playerID
	next.ResignedBy = &resigned
	finalize(next, models.EndResigned, now)
	return Resolution{Room: next, Finished: true}, nil
}

func resolveAnswer(room *models.BattleRoom, playerID string, correct bool, remaining time.Duration, forfeit bool, rules Rules, now time.Time) models.BattleAnswer {
	damage, critical := rules.Damage(correct, remaining)
	counter := rules.Counter(correct)

	if playerID == room.Player1ID {
		room.Player2HP = max(0, room.Player2HP-damage)
		room.Player1HP = max(0, room.Player1HP-counter)
	} else {
		room.Player1HP = max(0, room.Player1HP-damage)
		room.Player2HP = max(0, room.Player2HP-counter)
	}

	if remaining < 0 {
		remaining = 0
	}
	return models.BattleAnswer{
		RoomID:          room.ID,
		QuestionIndex:   room.CurrentQuestionIndex,
		PlayerID:        playerID,
		IsCorrect:       correct,
		TimeRemainingMs: int(remaining.Milliseconds()),
		Damage:          damage,
		Critical:        critical,
		Forfeit:         forfeit,
		CreatedAt:       now,
	}
}

// settle advances the round once both players answered and finalizes on
// zero health or when the question list runs out.
func settle(res *Resolution, answered []models.BattleAnswer, now time.Time) {
	room := res.Room
	room.UpdatedAt = now

	if room.Player1HP == 0 || room.Player2HP == 0 {
		finalize(room, models.EndDefeat, now)
		res.Finished = true
		return
	}

	index := room.CurrentQuestionIndex
	if !hasAnswered(answered, index, room.Player1ID) || !hasAnswered(answered, index, room.Player2ID) {
		return
	}

	room.CurrentQuestionIndex++
	room.RoundStartedAt = now
	res.Advanced = true

	if room.CurrentQuestionIndex >= len(room.Questions) {
		room.CurrentQuestionIndex = len(room.Questions)
		finalize(room, models.EndExhausted, now)
		res.Finished = true
	}
}

func finalize(room *models.BattleRoom, reason models.EndReason, now time.Time) {
	room.Status = models.RoomFinished
	room.EndReason = reason
	room.UpdatedAt = now

	switch {
	case reason == models.EndResigned && room.ResignedBy != nil:
		if *room.ResignedBy == room.Player1ID {
			room.Outcome = models.OutcomePlayer2
		} else {
			room.Outcome = models.OutcomePlayer1
		}
	case room.Player1HP > room.Player2HP:
		room.Outcome = models.OutcomePlayer1
	case room.Player2HP > room.Player1HP:
		room.Outcome = models.OutcomePlayer2
	default:
		room.Outcome = models.OutcomeDraw
	}

	room.WinnerID = nil
	switch room.Outcome {
	case models.OutcomePlayer1:
		winner := room.Player1ID
		room.WinnerID = &winner
	case models.OutcomePlayer2:
		winner := room.Player2ID
		room.WinnerID = &winner
	}
}

func hasAnswered(answers []models.BattleAnswer, index int, playerID string) bool {
	for _, a := range answers {
		if a.QuestionIndex == index && a.PlayerID == playerID {
			return true
		}
	}
	return false
}

func currentRound(answers []models.BattleAnswer, index int) []models.BattleAnswer {
	round := make([]models.BattleAnswer, 0, 2)
	for _, a := range answers {
		if a.QuestionIndex == index {
			round = append(round, a)
		}
	}
	return round
}

// ResultFor returns how a finished room ended for playerID
func ResultFor(room *models.BattleRoom, playerID string) progression.Result {
	switch {
	case room.Outcome == models.OutcomeDraw:
		return progression.Draw
	case room.WinnerID != nil && *room.WinnerID == playerID:
		return progression.Win
	}
	return progression.Loss
}
