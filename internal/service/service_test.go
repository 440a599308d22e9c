package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"wordwarrior/internal/database"
	"wordwarrior/internal/models"
	"wordwarrior/internal/notify"
)

const (
	testWindow    = 15 * time.Second
	testGrace     = 5 * time.Second
	testQuestions = 3
)

type staticQuestions struct{}

func (staticQuestions) Questions(ctx context.Context, mode models.Mode, count int) ([]models.Question, error) {
	qs := make([]models.Question, count)
	for i := range qs {
		qs[i] = models.Question{
			Prompt:        fmt.Sprintf("What does word %d mean?", i),
			Options:       []string{"right", "wrong"},
			CorrectAnswer: "right",
		}
	}
	return qs, nil
}

type testEnv struct {
	db          *database.DB
	hub         *notify.Hub
	matchmaking *MatchmakingService
	battles     *BattleService
	progression *ProgressionService
}

func queueDepth(t *testing.T, db *database.DB, mode models.Mode) int {
	t.Helper()
	var n int
	if err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM queue_entries WHERE mode = ?", mode).Scan(&n); err != nil {
		t.Fatalf("Failed to count queue entries: %v", err)
	}
	return n
}

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

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	hub := notify.NewHub()
	t.Cleanup(hub.Close)

	progression := NewProgressionService(db)
	return &testEnv{
		db:          db,
		hub:         hub,
		matchmaking: NewMatchmakingService(db, hub, staticQuestions{}, testQuestions),
		battles:     NewBattleService(db, hub, progression, testWindow, testGrace),
		progression: progression,
	}
}

// pair puts alice in the queue and lets bob join, returning the new room id
func (env *testEnv) pair(t *testing.T, mode models.Mode) string {
	t.Helper()
	ctx := context.Background()

	if res, err := env.matchmaking.Join(ctx, "alice", mode); err != nil || res.Status != StatusWaiting {
		t.Fatalf("Join(alice) = %+v, %v, want waiting", res, err)
	}
	res, err := env.matchmaking.Join(ctx, "bob", mode)
	if err != nil || res.Status != StatusMatched {
		t.Fatalf("Join(bob) = %+v, %v, want matched", res, err)
	}
	return res.RoomID
}
