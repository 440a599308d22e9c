package client

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"wordwarrior/internal/battle"
	"wordwarrior/internal/models"
	"wordwarrior/internal/progression"
	"wordwarrior/internal/questions"
)

// BotID is the simulated opponent's player id
const BotID = "bot"

// BotConfig shapes the simulated opponent
type BotConfig struct {
	Accuracy float64 // chance that an answer is correct
	MinDelay time.Duration
	MaxDelay time.Duration
}

// DefaultBotConfig returns a bot that answers within 2 to 8 seconds, 60% correct
func DefaultBotConfig() BotConfig {
	return BotConfig{Accuracy: 0.6, MinDelay: 2 * time.Second, MaxDelay: 8 * time.Second}
}

// LocalBattle is an in-memory room against a simulated opponent. Every
// transition goes through the battle package exactly as a server room does.
type LocalBattle struct {
	mu       sync.Mutex
	room     *models.BattleRoom
	answers  []models.BattleAnswer
	rules    battle.Rules
	playerID string
	bot      BotConfig
	rng      *rand.Rand
	delays   map[int]time.Duration

	changed chan struct{}
	updates chan *models.BattleRoom
}

// NewLocalBattle builds a room for playerID against the bot with a fresh
// question set from provider
func NewLocalBattle(ctx context.Context, provider questions.Provider, playerID string, mode models.Mode, cfg Config, seed int64) (*LocalBattle, error) {
	qs, err := provider.Questions(ctx, mode, cfg.QuestionsPerBattle)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	bot := cfg.Bot
	if bot.MaxDelay < bot.MinDelay {
		bot.MaxDelay = bot.MinDelay
	}

	room := models.NewBattleRoom("local-"+uuid.NewString(), mode, playerID, BotID, qs, time.Now().UTC())
	return &LocalBattle{
		room:     room,
		rules:    battle.RulesFor(mode, cfg.AnswerWindow, cfg.Grace),
		playerID: playerID,
		bot:      bot,
		rng:      rand.New(rand.NewSource(seed)),
		delays:   make(map[int]time.Duration),
		changed:  make(chan struct{}, 1),
		updates:  make(chan *models.BattleRoom, 32),
	}, nil
}

// Room returns a snapshot of the room
func (b *LocalBattle) Room() *models.BattleRoom {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.room.Clone()
}

// Updates delivers a snapshot after every transition and closes when the battle ends
func (b *LocalBattle) Updates() <-chan *models.BattleRoom {
	return b.updates
}

// Run drives the bot and the round timer until the battle ends or ctx is done
func (b *LocalBattle) Run(ctx context.Context) {
	for {
		b.mu.Lock()
		if !b.room.IsActive() {
			b.mu.Unlock()
			return
		}
		index := b.room.CurrentQuestionIndex
		botDone := answered(b.answers, index, BotID)
		wake := b.rules.RoundDeadline(b.room)
		if !botDone {
			wake = b.room.RoundStartedAt.Add(b.delayFor(index))
		}
		b.mu.Unlock()

		timer := time.NewTimer(time.Until(wake))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-b.changed:
			timer.Stop()
			continue
		case <-timer.C:
		}

		if botDone {
			b.transition(func(room *models.BattleRoom, round []models.BattleAnswer) (battle.Resolution, error) {
				return battle.Expire(room, round, index, b.rules, time.Now().UTC())
			})
			continue
		}

		b.mu.Lock()
		correct := b.rng.Float64() < b.bot.Accuracy
		b.mu.Unlock()
		b.transition(func(room *models.BattleRoom, round []models.BattleAnswer) (battle.Resolution, error) {
			return battle.Submit(room, round, battle.Submission{
				PlayerID:      BotID,
				QuestionIndex: index,
				IsCorrect:     correct,
				TimeRemaining: b.rules.AnswerWindow - b.delayFor(index),
			}, b.rules, time.Now().UTC())
		})
	}
}

// Answer submits the player's answer. Late and repeated answers are ignored
// and reported as not accepted.
func (b *LocalBattle) Answer(index int, correct bool, remaining time.Duration) (bool, error) {
	return b.transition(func(room *models.BattleRoom, round []models.BattleAnswer) (battle.Resolution, error) {
		return battle.Submit(room, round, battle.Submission{
			PlayerID:      b.playerID,
			QuestionIndex: index,
			IsCorrect:     correct,
			TimeRemaining: remaining,
		}, b.rules, time.Now().UTC())
	})
}

// Abandon resigns the player
func (b *LocalBattle) Abandon() error {
	_, err := b.transition(func(room *models.BattleRoom, _ []models.BattleAnswer) (battle.Resolution, error) {
		return battle.Abandon(room, b.playerID, time.Now().UTC())
	})
	return err
}

// Result returns the unranked outcome once the battle has finished
func (b *LocalBattle) Result() (progression.BattleResult, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.room.IsActive() {
		return progression.BattleResult{}, false
	}
	return progression.BattleResult{Result: battle.ResultFor(b.room, b.playerID), Ranked: false}, true
}

func (b *LocalBattle) transition(resolve func(*models.BattleRoom, []models.BattleAnswer) (battle.Resolution, error)) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	res, err := resolve(b.room, b.answers)
	switch {
	case errors.Is(err, battle.ErrStaleSubmission),
		errors.Is(err, battle.ErrDuplicateAnswer),
		errors.Is(err, battle.ErrRoomFinished),
		errors.Is(err, battle.ErrRoundNotExpired):
		return false, nil
	case err != nil:
		return false, err
	}

	res.Room.Version++
	b.room = res.Room
	b.answers = append(b.answers, res.Answers...)

	select {
	case b.changed <- struct{}{}:
	default:
	}
	select {
	case b.updates <- b.room.Clone():
	default:
	}
	if res.Finished {
		close(b.updates)
	}
	return true, nil
}

// delayFor picks the bot's answer delay for a round once. Callers hold mu.
func (b *LocalBattle) delayFor(index int) time.Duration {
	if d, ok := b.delays[index]; ok {
		return d
	}
	d := b.bot.MinDelay
	if spread := b.bot.MaxDelay - b.bot.MinDelay; spread > 0 {
		d += time.Duration(b.rng.Int63n(int64(spread)))
	}
	if b.rules.AnswerWindow > 0 && d > b.rules.AnswerWindow {
		d = b.rules.AnswerWindow
	}
	b.delays[index] = d
	return d
}

func answered(answers []models.BattleAnswer, index int, playerID string) bool {
	for _, a := range answers {
		if a.QuestionIndex == index && a.PlayerID == playerID {
			return true
		}
	}
	return false
}
