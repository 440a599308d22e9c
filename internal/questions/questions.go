// Package questions supplies the question sets battles are played with.
package questions

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"wordwarrior/internal/models"
)

// OptionsPerQuestion is the number of choices shown for each prompt
const OptionsPerQuestion = 4

// ErrNotEnoughWords is returned when the bank cannot fill a question set
var ErrNotEnoughWords = errors.New("not enough words for the requested question set")

// Provider returns a fixed-size question set for a mode
type Provider interface {
	Questions(ctx context.Context, mode models.Mode, count int) ([]models.Question, error)
}

// Entry is one word in the bank
type Entry struct {
	Word       string `json:"word"`
	Meaning    string `json:"meaning"`
	Difficulty string `json:"difficulty"`
}

//go:embed wordbank.json
var defaultBank []byte

// WordBank builds meaning questions from a static list of words
type WordBank struct {
	entries []Entry
}

// NewWordBank creates a provider over entries
func NewWordBank(entries []Entry) *WordBank {
	return &WordBank{entries: entries}
}

// DefaultWordBank loads the built-in word list
func DefaultWordBank() (*WordBank, error) {
	var entries []Entry
	if err := json.Unmarshal(defaultBank, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse word bank: %w", err)
	}
	return NewWordBank(entries), nil
}

// Questions samples count distinct words and builds a shuffled multiple-choice
// question for each. Blitz skips hard words.
func (b *WordBank) Questions(ctx context.Context, mode models.Mode, count int) ([]models.Question, error) {
	pool := lo.Filter(b.entries, func(e Entry, _ int) bool {
		return mode != models.ModeBlitz || e.Difficulty != "hard"
	})
	if count <= 0 || len(pool) < count || len(b.entries) < OptionsPerQuestion {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrNotEnoughWords, count, len(pool))
	}

	picked := lo.Samples(pool, count)
	return lo.Map(picked, func(e Entry, _ int) models.Question {
		return b.question(e)
	}), nil
}

func (b *WordBank) question(e Entry) models.Question {
	distractors := lo.Uniq(lo.FilterMap(b.entries, func(other Entry, _ int) (string, bool) {
		return other.Meaning, other.Meaning != e.Meaning
	}))

	options := append(lo.Samples(distractors, OptionsPerQuestion-1), e.Meaning)
	return models.Question{
		Prompt:        fmt.Sprintf("What does %q mean?", e.Word),
		Options:       lo.Samples(options, len(options)),
		CorrectAnswer: e.Meaning,
	}
}
