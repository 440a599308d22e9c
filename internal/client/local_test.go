package client

import (
	"context"
	"testing"
	"time"

	"wordwarrior/internal/models"
	"wordwarrior/internal/progression"
	"wordwarrior/internal/questions"
)

func localConfig(accuracy float64) Config {
	cfg := DefaultConfig()
	cfg.AnswerWindow = 200 * time.Millisecond
	cfg.Grace = 50 * time.Millisecond
	cfg.QuestionsPerBattle = 5
	cfg.Bot = BotConfig{Accuracy: accuracy, MinDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	return cfg
}

func newLocal(t *testing.T, mode models.Mode, cfg Config) *LocalBattle {
	t.Helper()
	bank, err := questions.DefaultWordBank()
	if err != nil {
		t.Fatalf("DefaultWordBank() error = %v", err)
	}
	lb, err := NewLocalBattle(context.Background(), bank, "alice", mode, cfg, 42)
	if err != nil {
		t.Fatalf("NewLocalBattle() error = %v", err)
	}
	return lb
}

// drain waits for the battle to end and checks health bounds and index order on the way
func drain(t *testing.T, lb *LocalBattle) *models.BattleRoom {
	t.Helper()
	lastIndex := 0
	timeout := time.After(5 * time.Second)
	for {
		select {
		case room, ok := <-lb.Updates():
			if !ok {
				return lb.Room()
			}
			if room.Player1HP < 0 || room.Player1HP > models.MaxRoomHP || room.Player2HP < 0 || room.Player2HP > models.MaxRoomHP {
				t.Fatalf("hp out of range: %d/%d", room.Player1HP, room.Player2HP)
			}
			if room.CurrentQuestionIndex < lastIndex {
				t.Fatalf("question index went back from %d to %d", lastIndex, room.CurrentQuestionIndex)
			}
			lastIndex = room.CurrentQuestionIndex
		case <-timeout:
			t.Fatal("local battle did not finish")
		}
	}
}

func TestLocalBattlePlayerAnswers(t *testing.T) {
	lb := newLocal(t, models.ModeClassic, localConfig(0))
	if room := lb.Room(); room.Player2ID != BotID || !room.IsActive() || len(room.Questions) != 5 {
		t.Fatalf("room = %+v, want active room against the bot with 5 questions", room)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go lb.Run(ctx)

	// Answer every round instantly and correctly while the bot always misses
	go func() {
		for i := 0; i < 5; i++ {
			for room := lb.Room(); room.IsActive() && room.CurrentQuestionIndex < i; room = lb.Room() {
				time.Sleep(time.Millisecond)
			}
			lb.Answer(i, true, 200*time.Millisecond)
		}
	}()

	room := drain(t, lb)
	if room.WinnerID == nil || *room.WinnerID != "alice" || room.Player1HP != models.MaxRoomHP {
		t.Errorf("room = %+v, want alice winning untouched", room)
	}

	result, ok := lb.Result()
	if !ok || result.Result != progression.Win || result.Ranked {
		t.Errorf("Result() = %+v, %v, want unranked win", result, ok)
	}
	if accepted, err := lb.Answer(0, true, 0); accepted || err != nil {
		t.Errorf("Answer() after finish = %v, %v, want ignored", accepted, err)
	}
}

func TestLocalBattleSilentPlayerForfeits(t *testing.T) {
	lb := newLocal(t, models.ModeClassic, localConfig(1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go lb.Run(ctx)

	room := drain(t, lb)
	if room.WinnerID == nil || *room.WinnerID != BotID {
		t.Errorf("room = %+v, want the bot winning", room)
	}
	if result, _ := lb.Result(); result.Result != progression.Loss {
		t.Errorf("result = %s, want loss", result.Result)
	}
}

func TestLocalBattleAbandon(t *testing.T) {
	lb := newLocal(t, models.ModeTactics, localConfig(0))

	if err := lb.Abandon(); err != nil {
		t.Fatalf("Abandon() error = %v", err)
	}
	room := lb.Room()
	if room.EndReason != models.EndResigned || !room.Resigned("alice") || room.Player1HP != models.MaxRoomHP {
		t.Errorf("room = %+v, want alice resigned at full health", room)
	}
	if err := lb.Abandon(); err != nil {
		t.Errorf("second Abandon() error = %v, want nil", err)
	}
}
