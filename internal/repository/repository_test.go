package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"wordwarrior/internal/database"
	"wordwarrior/internal/models"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(context.Background()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestQueueRepository(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewQueueRepository(db)

	if err := repo.LockMode(ctx, models.ModeClassic); err != nil {
		t.Fatalf("LockMode() error = %v", err)
	}

	entries := []*models.QueueEntry{
		{ID: "e2", PlayerID: "bob", Mode: models.ModeClassic, JoinedAt: base.Add(2 * time.Second)},
		{ID: "e1", PlayerID: "alice", Mode: models.ModeClassic, JoinedAt: base.Add(time.Second)},
		{ID: "e3", PlayerID: "carol", Mode: models.ModeBlitz, JoinedAt: base},
	}
	for _, e := range entries {
		if ok, err := repo.Insert(ctx, e); err != nil || !ok {
			t.Fatalf("Insert(%s) = %v, %v", e.ID, ok, err)
		}
	}

	t.Run("one entry per player and mode", func(t *testing.T) {
		dup := &models.QueueEntry{ID: "e4", PlayerID: "alice", Mode: models.ModeClassic, JoinedAt: base}
		ok, err := repo.Insert(ctx, dup)
		if err != nil || ok {
			t.Errorf("Insert(duplicate) = %v, %v, want false, nil", ok, err)
		}
	})

	t.Run("oldest waiting skips the caller", func(t *testing.T) {
		oldest, err := repo.OldestWaiting(ctx, models.ModeClassic, "dave")
		if err != nil || oldest == nil || oldest.PlayerID != "alice" {
			t.Fatalf("OldestWaiting() = %+v, %v, want alice", oldest, err)
		}
		oldest, err = repo.OldestWaiting(ctx, models.ModeClassic, "alice")
		if err != nil || oldest == nil || oldest.PlayerID != "bob" {
			t.Fatalf("OldestWaiting(excluding alice) = %+v, %v, want bob", oldest, err)
		}
		none, err := repo.OldestWaiting(ctx, models.ModePractice, "alice")
		if err != nil || none != nil {
			t.Errorf("OldestWaiting(empty mode) = %+v, %v", none, err)
		}
	})

	t.Run("delete by id reports rows", func(t *testing.T) {
		if n, err := repo.Delete(ctx, "e1"); err != nil || n != 1 {
			t.Errorf("Delete() = %d, %v, want 1", n, err)
		}
		if n, err := repo.Delete(ctx, "e1"); err != nil || n != 0 {
			t.Errorf("second Delete() = %d, %v, want 0", n, err)
		}
	})

	t.Run("purge old entries", func(t *testing.T) {
		n, err := repo.DeleteOlderThan(ctx, base.Add(time.Second))
		if err != nil || n != 1 {
			t.Errorf("DeleteOlderThan() = %d, %v, want 1 (carol)", n, err)
		}
		if got, err := repo.OldestWaiting(ctx, models.ModeClassic, ""); err != nil || got == nil || got.PlayerID != "bob" {
			t.Errorf("OldestWaiting(classic) = %+v, %v, want bob", got, err)
		}
		if got, err := repo.OldestWaiting(ctx, models.ModeBlitz, ""); err != nil || got != nil {
			t.Errorf("OldestWaiting(blitz) = %+v, %v, want none", got, err)
		}
	})
}

func TestRoomRepository(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRoomRepository(db)

	questions := []models.Question{{Prompt: "What does \"brave\" mean?", Options: []string{"ready to face danger", "calm"}, CorrectAnswer: "ready to face danger"}}
	room := models.NewBattleRoom("r1", models.ModeClassic, "alice", "bob", questions, base)
	if err := repo.Create(ctx, room); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Player1HP != 100 || got.Status != models.RoomActive || len(got.Questions) != 1 || got.Questions[0].CorrectAnswer != "ready to face danger" {
		t.Errorf("Get() = %+v", got)
	}
	if got.WinnerID != nil {
		t.Errorf("WinnerID = %v, want nil", *got.WinnerID)
	}

	active, err := repo.ActiveForPlayer(ctx, "bob", models.ModeClassic)
	if err != nil || active == nil || active.ID != "r1" {
		t.Fatalf("ActiveForPlayer() = %+v, %v", active, err)
	}

	t.Run("conditional update", func(t *testing.T) {
		stale := got.Clone()

		got.Player2HP = 80
		if err := repo.Update(ctx, got); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if got.Version != 2 {
			t.Errorf("Version = %d, want 2", got.Version)
		}

		stale.Player1HP = 10
		if err := repo.Update(ctx, stale); !errors.Is(err, database.ErrConflict) {
			t.Errorf("stale Update() error = %v, want ErrConflict", err)
		}

		fresh, _ := repo.Get(ctx, "r1")
		if fresh.Player1HP != 100 || fresh.Player2HP != 80 {
			t.Errorf("hp = %d/%d, want 100/80", fresh.Player1HP, fresh.Player2HP)
		}
	})

	t.Run("overdue rounds", func(t *testing.T) {
		overdue, err := repo.ActiveStartedBefore(ctx, base.Add(time.Minute), 10)
		if err != nil || len(overdue) != 1 || overdue[0].RoomID != "r1" {
			t.Errorf("ActiveStartedBefore() = %+v, %v", overdue, err)
		}
		overdue, _ = repo.ActiveStartedBefore(ctx, base.Add(-time.Minute), 10)
		if len(overdue) != 0 {
			t.Errorf("ActiveStartedBefore(past) = %+v, want none", overdue)
		}
	})

	t.Run("finish and history", func(t *testing.T) {
		room, _ := repo.Get(ctx, "r1")
		winner, resigned := "bob", "alice"
		room.Status = models.RoomFinished
		room.WinnerID = &winner
		room.ResignedBy = &resigned
		room.Outcome = models.OutcomePlayer2
		room.EndReason = models.EndResigned
		if err := repo.Update(ctx, room); err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		history, err := repo.FinishedForPlayer(ctx, "alice", 5)
		if err != nil || len(history) != 1 {
			t.Fatalf("FinishedForPlayer() = %d rooms, %v", len(history), err)
		}
		if !history[0].Resigned("alice") {
			t.Errorf("resignation lost on round trip: %+v", history[0])
		}
		if active, _ := repo.ActiveForPlayer(ctx, "alice", models.ModeClassic); active != nil {
			t.Errorf("finished room still reported active")
		}
	})

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestAnswerRepository(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	room := models.NewBattleRoom("r1", models.ModeClassic, "alice", "bob", nil, base)
	if err := NewRoomRepository(db).Create(ctx, room); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	repo := NewAnswerRepository(db)
	answer := models.BattleAnswer{RoomID: "r1", QuestionIndex: 0, PlayerID: "alice", IsCorrect: true, TimeRemainingMs: 9000, Damage: 16, CreatedAt: base}

	if ok, err := repo.Insert(ctx, answer); err != nil || !ok {
		t.Fatalf("Insert() = %v, %v", ok, err)
	}
	answer.IsCorrect = false
	if ok, err := repo.Insert(ctx, answer); err != nil || ok {
		t.Errorf("duplicate Insert() = %v, %v, want false, nil", ok, err)
	}

	round, err := repo.ForRound(ctx, "r1", 0)
	if err != nil || len(round) != 1 || !round[0].IsCorrect || round[0].Damage != 16 {
		t.Errorf("ForRound() = %+v, %v", round, err)
	}
	if empty, _ := repo.ForRound(ctx, "r1", 1); len(empty) != 0 {
		t.Errorf("ForRound(1) = %+v, want none", empty)
	}
}

func TestStatsRepository(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewStatsRepository(db)
	players := NewPlayerRepository(db)

	if _, err := repo.Get(ctx, "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}

	stats := []models.PlayerStats{
		{PlayerID: "alice", Level: 3, MaxHP: 120, HP: 120, Atk: 14, Def: 7, RankTier: models.TierSilver, RankPoints: 1, UpdatedAt: base},
		{PlayerID: "bob", Level: 9, MaxHP: 180, HP: 180, Atk: 26, Def: 13, RankTier: models.TierBronze, RankPoints: 2, UpdatedAt: base},
		{PlayerID: "carol", Level: 2, MaxHP: 110, HP: 110, Atk: 12, Def: 6, RankTier: models.TierSilver, RankPoints: 3, UpdatedAt: base},
	}
	for i := range stats {
		if err := repo.Save(ctx, &stats[i]); err != nil {
			t.Fatalf("Save(%s) error = %v", stats[i].PlayerID, err)
		}
	}
	if err := players.Upsert(ctx, "carol", "Carol"); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	stats[0].Exp = 50
	if err := repo.Save(ctx, &stats[0]); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}
	got, err := repo.Get(ctx, "alice")
	if err != nil || got.Exp != 50 || got.RankTier != models.TierSilver {
		t.Errorf("Get() = %+v, %v", got, err)
	}

	board, err := repo.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("Leaderboard() error = %v", err)
	}
	order := []string{"carol", "alice", "bob"}
	if len(board) != len(order) {
		t.Fatalf("Leaderboard() returned %d entries, want %d", len(board), len(order))
	}
	for i, id := range order {
		if board[i].Stats.PlayerID != id || board[i].Rank != i+1 {
			t.Errorf("board[%d] = %s (rank %d), want %s", i, board[i].Stats.PlayerID, board[i].Rank, id)
		}
	}
	if board[0].DisplayName != "Carol" || board[1].DisplayName != "alice" {
		t.Errorf("display names = %q, %q", board[0].DisplayName, board[1].DisplayName)
	}
}
