package battle

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"wordwarrior/internal/models"
	"wordwarrior/internal/progression"
)

const (
	testWindow = 15 * time.Second
	testGrace  = 5 * time.Second
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newRoom(mode models.Mode, questions int) *models.BattleRoom {
	qs := make([]models.Question, questions)
	for i := range qs {
		qs[i] = models.Question{Prompt: fmt.Sprintf("word %d", i), Options: []string{"a", "b"}, CorrectAnswer: "a"}
	}
	return models.NewBattleRoom("room-1", mode, "alice", "bob", qs, t0)
}

func classic() Rules {
	return RulesFor(models.ModeClassic, testWindow, testGrace)
}

func TestRulesDamage(t *testing.T) {
	tests := []struct {
		name         string
		mode         models.Mode
		correct      bool
		remaining    time.Duration
		wantDamage   int
		wantCritical bool
		wantCounter  int
	}{
		{"classic instant answer", models.ModeClassic, true, testWindow, 25, true, 0},
		{"classic half window", models.ModeClassic, true, testWindow / 2, 15, false, 0},
		{"classic out of time", models.ModeClassic, true, 0, 10, false, 0},
		{"classic remaining clamped", models.ModeClassic, true, time.Hour, 25, true, 0},
		{"classic incorrect", models.ModeClassic, false, testWindow, 0, false, 0},
		{"tactics ignores speed", models.ModeTactics, true, testWindow, 10, false, 0},
		{"blitz incorrect counters", models.ModeBlitz, false, testWindow, 0, false, 5},
		{"blitz instant answer", models.ModeBlitz, true, testWindow, 29, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := RulesFor(tt.mode, testWindow, testGrace)
			damage, critical := rules.Damage(tt.correct, tt.remaining)
			if damage != tt.wantDamage || critical != tt.wantCritical {
				t.Errorf("Damage() = %d/%v, want %d/%v", damage, critical, tt.wantDamage, tt.wantCritical)
			}
			if counter := rules.Counter(tt.correct); counter != tt.wantCounter {
				t.Errorf("Counter() = %d, want %d", counter, tt.wantCounter)
			}
		})
	}
}

func TestSubmitRound(t *testing.T) {
	room := newRoom(models.ModeClassic, 3)

	first, err := Submit(room, nil, Submission{PlayerID: "alice", IsCorrect: true, TimeRemaining: testWindow}, classic(), t0.Add(time.Second))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if first.Room.Player2HP != 75 || first.Room.Player1HP != 100 {
		t.Errorf("hp = %d/%d, want 100/75", first.Room.Player1HP, first.Room.Player2HP)
	}
	if first.Advanced || first.Room.CurrentQuestionIndex != 0 {
		t.Errorf("round advanced after a single answer")
	}
	if room.Player2HP != 100 {
		t.Errorf("input room was mutated")
	}

	second, err := Submit(first.Room, first.Answers, Submission{PlayerID: "bob", IsCorrect: false}, classic(), t0.Add(2*time.Second))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !second.Advanced || second.Room.CurrentQuestionIndex != 1 {
		t.Errorf("index = %d, want 1 after both answered", second.Room.CurrentQuestionIndex)
	}
	if !second.Room.RoundStartedAt.Equal(t0.Add(2 * time.Second)) {
		t.Errorf("RoundStartedAt = %v, want reset to the advancing answer", second.Room.RoundStartedAt)
	}
}

func TestSubmitRejects(t *testing.T) {
	active := newRoom(models.ModeClassic, 3)
	active.CurrentQuestionIndex = 1

	finished := newRoom(models.ModeClassic, 3)
	finished.Status = models.RoomFinished

	answered := []models.BattleAnswer{{RoomID: "room-1", QuestionIndex: 1, PlayerID: "alice"}}

	tests := []struct {
		name    string
		room    *models.BattleRoom
		answers []models.BattleAnswer
		sub     Submission
		wantErr error
	}{
		{"finished room", finished, nil, Submission{PlayerID: "alice"}, ErrRoomFinished},
		{"stranger", active, nil, Submission{PlayerID: "mallory", QuestionIndex: 1}, ErrNotParticipant},
		{"already advanced", active, nil, Submission{PlayerID: "alice", QuestionIndex: 0}, ErrStaleSubmission},
		{"future round", active, nil, Submission{PlayerID: "alice", QuestionIndex: 2}, ErrStaleSubmission},
		{"duplicate", active, answered, Submission{PlayerID: "alice", QuestionIndex: 1, IsCorrect: true}, ErrDuplicateAnswer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Submit(tt.room, tt.answers, tt.sub, classic(), t0)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Submit() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubmitDefeat(t *testing.T) {
	room := newRoom(models.ModeClassic, 5)
	room.Player2HP = 20

	res, err := Submit(room, nil, Submission{PlayerID: "alice", IsCorrect: true, TimeRemaining: testWindow}, classic(), t0)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	got := res.Room
	if !res.Finished || got.Status != models.RoomFinished {
		t.Fatalf("room not finished: %+v", got)
	}
	if got.Player2HP != 0 {
		t.Errorf("Player2HP = %d, want floored at 0", got.Player2HP)
	}
	if got.WinnerID == nil || *got.WinnerID != "alice" || got.EndReason != models.EndDefeat {
		t.Errorf("winner/reason = %v/%s, want alice/defeat", got.WinnerID, got.EndReason)
	}
	if got.Resigned("bob") {
		t.Errorf("defeat recorded as resignation")
	}
}

func TestSubmitExhaustedDraw(t *testing.T) {
	room := newRoom(models.ModeClassic, 1)
	sub := Submission{IsCorrect: true, TimeRemaining: testWindow / 2}

	sub.PlayerID = "alice"
	first, err := Submit(room, nil, sub, classic(), t0)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	sub.PlayerID = "bob"
	res, err := Submit(first.Room, first.Answers, sub, classic(), t0)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	got := res.Room
	if got.Status != models.RoomFinished || got.EndReason != models.EndExhausted {
		t.Fatalf("status/reason = %s/%s, want finished/exhausted", got.Status, got.EndReason)
	}
	if got.Outcome != models.OutcomeDraw || got.WinnerID != nil {
		t.Errorf("outcome = %s winner = %v, want draw without winner", got.Outcome, got.WinnerID)
	}
	if got.CurrentQuestionIndex != 1 {
		t.Errorf("index = %d, want len(questions)", got.CurrentQuestionIndex)
	}
	if r := ResultFor(got, "alice"); r != progression.Draw {
		t.Errorf("ResultFor() = %s, want draw", r)
	}
}

func TestAbandon(t *testing.T) {
	room := newRoom(models.ModeClassic, 5)
	room.Player1HP = 60

	res, err := Abandon(room, "alice", t0)
	if err != nil {
		t.Fatalf("Abandon() error = %v", err)
	}

	got := res.Room
	if got.Status != models.RoomFinished || got.WinnerID == nil || *got.WinnerID != "bob" {
		t.Fatalf("room = %+v, want finished with bob winning", got)
	}
	if got.Player1HP != 60 {
		t.Errorf("resigning side HP = %d, want 60", got.Player1HP)
	}
	if !got.Resigned("alice") || got.EndReason != models.EndResigned {
		t.Errorf("resignation not recorded: reason=%s resigned_by=%v", got.EndReason, got.ResignedBy)
	}
	if ResultFor(got, "alice") != progression.Loss || ResultFor(got, "bob") != progression.Win {
		t.Errorf("unexpected results after abandon")
	}

	if _, err := Abandon(got, "bob", t0); !errors.Is(err, ErrRoomFinished) {
		t.Errorf("second Abandon() error = %v, want ErrRoomFinished", err)
	}
	if _, err := Abandon(room, "mallory", t0); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("stranger Abandon() error = %v, want ErrNotParticipant", err)
	}
}

func TestExpire(t *testing.T) {
	room := newRoom(models.ModeBlitz, 3)
	rules := RulesFor(models.ModeBlitz, testWindow, testGrace)

	first, err := Submit(room, nil, Submission{PlayerID: "alice", IsCorrect: true, TimeRemaining: testWindow}, rules, t0.Add(time.Second))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if _, err := Expire(first.Room, first.Answers, 0, rules, t0.Add(testWindow)); !errors.Is(err, ErrRoundNotExpired) {
		t.Errorf("early Expire() error = %v, want ErrRoundNotExpired", err)
	}
	if _, err := Expire(first.Room, first.Answers, 1, rules, t0.Add(time.Minute)); !errors.Is(err, ErrStaleSubmission) {
		t.Errorf("wrong index Expire() error = %v, want ErrStaleSubmission", err)
	}

	res, err := Expire(first.Room, first.Answers, 0, rules, t0.Add(testWindow+testGrace))
	if err != nil {
		t.Fatalf("Expire() error = %v", err)
	}
	if len(res.Answers) != 1 || res.Answers[0].PlayerID != "bob" || !res.Answers[0].Forfeit {
		t.Fatalf("forfeits = %+v, want one for bob", res.Answers)
	}
	if !res.Advanced || res.Room.CurrentQuestionIndex != 1 {
		t.Errorf("round not advanced by expiry")
	}
	// blitz forfeits cost counter damage
	if want := 100 - 29 - 5; res.Room.Player2HP != want {
		t.Errorf("Player2HP = %d, want %d", res.Room.Player2HP, want)
	}
}

func TestExpireBothSilent(t *testing.T) {
	room := newRoom(models.ModeClassic, 1)

	res, err := Expire(room, nil, 0, classic(), t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("Expire() error = %v", err)
	}
	if len(res.Answers) != 2 {
		t.Errorf("forfeits = %d, want 2", len(res.Answers))
	}
	if !res.Finished || res.Room.Outcome != models.OutcomeDraw {
		t.Errorf("outcome = %s, want draw after the last round expired", res.Room.Outcome)
	}
}

func TestExpireBothSilentKnockout(t *testing.T) {
	room := newRoom(models.ModeBlitz, 5)
	room.Player1HP, room.Player2HP = 5, 5

	res, err := Expire(room, nil, 0, RulesFor(models.ModeBlitz, testWindow, testGrace), t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("Expire() error = %v", err)
	}
	if len(res.Answers) != 2 {
		t.Fatalf("forfeits = %d, want 2", len(res.Answers))
	}
	if res.Room.Player1HP != 0 || res.Room.Player2HP != 0 {
		t.Errorf("hp = %d/%d, want 0/0", res.Room.Player1HP, res.Room.Player2HP)
	}
	if !res.Finished || res.Room.Outcome != models.OutcomeDraw || res.Room.WinnerID != nil {
		t.Errorf("outcome = %s winner = %v, want draw with no winner", res.Room.Outcome, res.Room.WinnerID)
	}
	if res.Room.EndReason != models.EndDefeat {
		t.Errorf("end reason = %s, want %s", res.Room.EndReason, models.EndDefeat)
	}
	for _, id := range []string{"alice", "bob"} {
		if got := ResultFor(res.Room, id); got != progression.Draw {
			t.Errorf("ResultFor(%s) = %v, want draw", id, got)
		}
	}
}

func TestExpireOneSilentKnockout(t *testing.T) {
	room := newRoom(models.ModeBlitz, 5)
	room.Player1HP, room.Player2HP = 5, 5
	answered := []models.BattleAnswer{{RoomID: room.ID, QuestionIndex: 0, PlayerID: "alice", IsCorrect: true}}

	res, err := Expire(room, answered, 0, RulesFor(models.ModeBlitz, testWindow, testGrace), t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("Expire() error = %v", err)
	}
	if len(res.Answers) != 1 || res.Answers[0].PlayerID != "bob" {
		t.Fatalf("forfeits = %+v, want one for bob", res.Answers)
	}
	if res.Room.Outcome != models.OutcomePlayer1 || res.Room.WinnerID == nil || *res.Room.WinnerID != "alice" {
		t.Errorf("outcome = %s, want alice to win", res.Room.Outcome)
	}
}

func TestRandomMatchInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	modes := []models.Mode{models.ModeClassic, models.ModeBlitz, models.ModeTactics}

	for game := 0; game < 200; game++ {
		mode := modes[game%len(modes)]
		rules := RulesFor(mode, testWindow, testGrace)
		room := newRoom(mode, 10)
		var answers []models.BattleAnswer
		now := t0

		for step := 0; step < 100 && room.IsActive(); step++ {
			now = now.Add(time.Second)
			prevIndex := room.CurrentQuestionIndex

			var res Resolution
			var err error
			switch rng.Intn(10) {
			case 0:
				res, err = Expire(room, answers, room.CurrentQuestionIndex, rules, now.Add(time.Minute))
			case 1:
				// replay of a possibly stale round
				res, err = Submit(room, answers, Submission{PlayerID: "alice", QuestionIndex: max(0, prevIndex-1), IsCorrect: true}, rules, now)
			default:
				player := []string{"alice", "bob"}[rng.Intn(2)]
				res, err = Submit(room, answers, Submission{
					PlayerID:      player,
					QuestionIndex: room.CurrentQuestionIndex,
					IsCorrect:     rng.Intn(2) == 0,
					TimeRemaining: time.Duration(rng.Int63n(int64(testWindow))),
				}, rules, now)
			}
			if err != nil {
				continue
			}

			next := res.Room
			if next.Player1HP < 0 || next.Player1HP > 100 || next.Player2HP < 0 || next.Player2HP > 100 {
				t.Fatalf("game %d: hp out of bounds %d/%d", game, next.Player1HP, next.Player2HP)
			}
			if next.CurrentQuestionIndex < prevIndex || next.CurrentQuestionIndex > len(next.Questions) {
				t.Fatalf("game %d: index moved %d -> %d", game, prevIndex, next.CurrentQuestionIndex)
			}
			if (next.Status == models.RoomFinished) != (next.Outcome != models.OutcomeNone) {
				t.Fatalf("game %d: status %s with outcome %q", game, next.Status, next.Outcome)
			}
			if next.WinnerID != nil && next.Status != models.RoomFinished {
				t.Fatalf("game %d: winner set on active room", game)
			}

			if res.Advanced {
				answers = nil
			} else {
				answers = append(answers, res.Answers...)
			}
			room = next
		}
	}
}
