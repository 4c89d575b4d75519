package study

import (
	"cmp"
	"encoding"
	"fmt"
	"math/rand"
	"slices"
	"time"

	"github.com/vytor/studyflash/internal/models"
)

// Mode selects which cards of a library make up a session deck.
type Mode int

const (
	Review    Mode = iota + 1 // Cards that are due, hardest first.
	Learning                  // Cards that were never reviewed.
	Difficult                 // Cards with poor mastery or high difficulty, hardest first.
)

const (
	difficultMastery    = 0.6
	difficultDifficulty = 0.6
)

var (
	modeNames  = [...]string{Review: "review", Learning: "learning", Difficult: "difficult"}
	modeByName = map[string]Mode{
		"review":    Review,
		"learning":  Learning,
		"difficult": Difficult,
	}
)

var (
	_ fmt.Stringer             = Mode(0)
	_ encoding.TextMarshaler   = Mode(0)
	_ encoding.TextUnmarshaler = (*Mode)(nil)
)

// IsValid reports whether m is one of the defined modes.
func (m Mode) IsValid() bool {
	return m >= Review && m <= Difficult
}

func (m Mode) String() string {
	if m.IsValid() {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses a mode name. The empty string selects Review.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return Review, nil
	}
	m, ok := modeByName[s]
	if !ok {
		return 0, fmt.Errorf("%w: unknown study mode %q", ErrInvalidInput, s)
	}
	return m, nil
}

func (m Mode) MarshalText() ([]byte, error) {
	if !m.IsValid() {
		return nil, fmt.Errorf("%w: unknown study mode %d", ErrInvalidInput, int(m))
	}
	return []byte(modeNames[m]), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	v, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// DeckOptions controls SelectDeck.
type DeckOptions struct {
	Mode    Mode
	Limit   int        // zero or negative → no limit
	Shuffle bool       // shuffle after filtering and limiting
	Rand    *rand.Rand // nil → a generator seeded from the clock
	Now     time.Time  // zero → time.Now(); used by Review to find due cards
}

// SelectDeck picks the cards for a session from library. The input slice is
// never modified. The result may be empty; New rejects empty decks.
func SelectDeck(library []models.Flashcard, opts DeckOptions) ([]models.Flashcard, error) {
	mode := opts.Mode
	if mode == 0 {
		mode = Review
	}
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: unknown study mode %d", ErrInvalidInput, int(mode))
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	var deck []models.Flashcard
	switch mode {
	case Review:
		for _, c := range library {
			if c.IsDue(now) {
				deck = append(deck, c)
			}
		}
		slices.SortStableFunc(deck, hardestFirst)
	case Learning:
		for _, c := range library {
			if c.IsNew() {
				deck = append(deck, c)
			}
		}
	case Difficult:
		for _, c := range library {
			if isDifficult(c) {
				deck = append(deck, c)
			}
		}
		slices.SortStableFunc(deck, hardestFirst)
	}

	if opts.Limit > 0 && len(deck) > opts.Limit {
		deck = deck[:opts.Limit]
	}

	if opts.Shuffle {
		rng := opts.Rand
		if rng == nil {
			rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	}
	return deck, nil
}

func isDifficult(c models.Flashcard) bool {
	if c.DifficultyScore >= difficultDifficulty {
		return true
	}
	return !c.IsNew() && c.MasteryRatio() < difficultMastery
}

// hardestFirst orders by difficulty descending, then by mastery ascending.
func hardestFirst(a, b models.Flashcard) int {
	if c := cmp.Compare(b.DifficultyScore, a.DifficultyScore); c != 0 {
		return c
	}
	return cmp.Compare(a.MasteryRatio(), b.MasteryRatio())
}
