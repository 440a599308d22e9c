package client

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"wordwarrior/internal/battle"
	"wordwarrior/internal/models"
	"wordwarrior/internal/progression"
	"wordwarrior/internal/questions"
)

// Answerer picks an option for a question. It must return once ctx ends.
type Answerer interface {
	Choose(ctx context.Context, q models.Question) (string, error)
}

// Summary describes a finished battle from the player's side
type Summary struct {
	RoomID     string
	Mode       models.Mode
	Local      bool
	Opponent   string
	Result     progression.Result
	Resigned   bool
	MyHP       int
	OpponentHP int
	EndReason  models.EndReason
}

// Game plays one battle: live when an opponent turns up, against the local bot otherwise
type Game struct {
	backend  Backend
	provider questions.Provider
	answerer Answerer
	playerID string
	cfg      Config

	// OnRoom, when set, sees every room snapshot
	OnRoom func(*models.BattleRoom)
}

// NewGame creates a game for playerID, the identity behind backend's token
func NewGame(backend Backend, provider questions.Provider, answerer Answerer, playerID string, cfg Config) *Game {
	return &Game{
		backend:  backend,
		provider: provider,
		answerer: answerer,
		playerID: playerID,
		cfg:      cfg,
	}
}

type pendingAnswer struct {
	index     int
	correct   bool
	remaining time.Duration
	err       error
}

// Play searches for an opponent in mode and plays the battle to the end.
// Ending ctx abandons the battle.
func (g *Game) Play(ctx context.Context, mode models.Mode) (*Summary, error) {
	match, err := NewSearcher(g.backend, g.cfg.PollInterval, g.cfg.SearchTimeout).Search(ctx, mode)
	switch {
	case errors.Is(err, ErrNoOpponent):
		return g.playLocal(ctx, mode)
	case err != nil:
		return nil, err
	}
	return g.playOnline(ctx, match)
}

func (g *Game) playOnline(ctx context.Context, match *Match) (*Summary, error) {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	views := make(chan *RoomView, 1)
	type watchResult struct {
		view *RoomView
		err  error
	}
	done := make(chan watchResult, 1)
	go func() {
		final, err := NewRoomWatcher(g.backend, match.RoomID, g.cfg).Watch(ctx, func(v *RoomView) {
			// Keep only the newest snapshot
			select {
			case <-views:
			default:
			}
			views <- v
		})
		done <- watchResult{final, err}
	}()

	answers := make(chan pendingAnswer, 1)
	asked := -1
	var cancelAsk context.CancelFunc = func() {}
	defer func() { cancelAsk() }()

	for {
		select {
		case <-ctx.Done():
			g.abandonOnline(match.RoomID)
			return nil, ctx.Err()

		case r := <-done:
			if r.err != nil {
				g.abandonOnline(match.RoomID)
				return nil, r.err
			}
			return summarize(r.view.Room, g.myID(r.view.Room, match.Role), false), nil

		case v := <-views:
			room := v.Room
			if g.OnRoom != nil {
				g.OnRoom(room)
			}
			if room.IsActive() && room.CurrentQuestionIndex > asked {
				cancelAsk()
				asked = room.CurrentQuestionIndex
				cancelAsk = g.ask(ctx, asked, room.Questions[asked], answers)
			}

		case a := <-answers:
			if a.err != nil {
				// Unanswered rounds are forfeited when they expire
				continue
			}
			if _, err := g.backend.SubmitAnswer(ctx, match.RoomID, a.index, a.correct, a.remaining); err != nil {
				log.Printf("Error submitting answer %d: %v", a.index, err)
			}
		}
	}
}

func (g *Game) playLocal(ctx context.Context, mode models.Mode) (*Summary, error) {
	lb, err := NewLocalBattle(ctx, g.provider, g.playerID, mode, g.cfg, time.Now().UnixNano())
	if err != nil {
		return nil, err
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	go lb.Run(ctx)

	answers := make(chan pendingAnswer, 1)
	room := lb.Room()
	if g.OnRoom != nil {
		g.OnRoom(room)
	}
	asked := 0
	cancelAsk := g.ask(ctx, 0, room.Questions[0], answers)
	defer func() { cancelAsk() }()

	updates := lb.Updates()
	for {
		select {
		case <-ctx.Done():
			if err := lb.Abandon(); err != nil {
				log.Printf("Error abandoning local battle: %v", err)
			}
			return nil, ctx.Err()

		case _, ok := <-updates:
			room = lb.Room()
			if g.OnRoom != nil {
				g.OnRoom(room)
			}
			if !ok || !room.IsActive() {
				return g.finishLocal(ctx, lb, room), nil
			}
			if room.CurrentQuestionIndex > asked {
				cancelAsk()
				asked = room.CurrentQuestionIndex
				cancelAsk = g.ask(ctx, asked, room.Questions[asked], answers)
			}

		case a := <-answers:
			if a.err != nil {
				continue
			}
			if _, err := lb.Answer(a.index, a.correct, a.remaining); err != nil {
				log.Printf("Error answering local question %d: %v", a.index, err)
			}
		}
	}
}

// finishLocal reports the practice result; bot battles never touch rank
func (g *Game) finishLocal(ctx context.Context, lb *LocalBattle, room *models.BattleRoom) *Summary {
	if result, ok := lb.Result(); ok {
		if err := g.backend.ReportOutcome(ctx, result); err != nil {
			log.Printf("Error reporting practice result: %v", err)
		}
	}
	return summarize(room, g.playerID, true)
}

// ask runs the answerer for one question with the answer window as its deadline
func (g *Game) ask(ctx context.Context, index int, q models.Question, out chan<- pendingAnswer) context.CancelFunc {
	askCtx, cancel := context.WithTimeout(ctx, g.cfg.AnswerWindow)
	started := time.Now()
	go func() {
		choice, err := g.answerer.Choose(askCtx, q)
		a := pendingAnswer{
			index:     index,
			correct:   choice == q.CorrectAnswer,
			remaining: g.cfg.AnswerWindow - time.Since(started),
			err:       err,
		}
		select {
		case out <- a:
		case <-ctx.Done():
		}
	}()
	return cancel
}

func (g *Game) abandonOnline(roomID string) {
	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()
	if err := g.backend.Abandon(ctx, roomID); err != nil {
		log.Printf("Error abandoning room %s: %v", roomID, err)
	}
}

func (g *Game) myID(room *models.BattleRoom, role models.Role) string {
	if role == models.RolePlayer2 {
		return room.Player2ID
	}
	return room.Player1ID
}

func summarize(room *models.BattleRoom, playerID string, local bool) *Summary {
	opponent := room.OpponentOf(playerID)
	return &Summary{
		RoomID:     room.ID,
		Mode:       room.Mode,
		Local:      local,
		Opponent:   opponent,
		Result:     battle.ResultFor(room, playerID),
		Resigned:   room.Resigned(playerID),
		MyHP:       room.HPOf(playerID),
		OpponentHP: room.HPOf(opponent),
		EndReason:  room.EndReason,
	}
}

// AutoAnswerer answers after a random delay, correctly with probability Accuracy
type AutoAnswerer struct {
	Accuracy float64
	MinDelay time.Duration
	MaxDelay time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewAutoAnswerer creates an answerer with its own random source
func NewAutoAnswerer(accuracy float64, minDelay, maxDelay time.Duration, seed int64) *AutoAnswerer {
	return &AutoAnswerer{
		Accuracy: accuracy,
		MinDelay: minDelay,
		MaxDelay: maxDelay,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

func (a *AutoAnswerer) Choose(ctx context.Context, q models.Question) (string, error) {
	a.mu.Lock()
	delay := a.MinDelay
	if spread := a.MaxDelay - a.MinDelay; spread > 0 {
		delay += time.Duration(a.rng.Int63n(int64(spread)))
	}
	correct := a.rng.Float64() < a.Accuracy
	a.mu.Unlock()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(delay):
	}

	if correct {
		return q.CorrectAnswer, nil
	}
	for _, option := range q.Options {
		if option != q.CorrectAnswer {
			return option, nil
		}
	}
	return "", nil
}
