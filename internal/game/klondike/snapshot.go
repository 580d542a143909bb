package klondike

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// Snapshot is the plain-data form of a Game used for persistence. Piles are
// listed bottom first.
type Snapshot struct {
	DrawCount   int                    `json:"drawCount"`
	Timed       bool                   `json:"timed,omitempty"`
	Elapsed     int                    `json:"elapsed"`
	Moves       int                    `json:"moves"`
	Stock       []Card                 `json:"stock"`
	Waste       []Card                 `json:"waste"`
	Foundations [NumFoundations][]Card `json:"foundations"`
	Tableau     [NumTableau][]Card     `json:"tableau"`
}

// Snapshot copies the game state.
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		DrawCount: g.drawCount,
		Timed:     g.timed,
		Elapsed:   g.elapsed,
		Moves:     g.moves,
		Stock:     clonePile(g.stock),
		Waste:     clonePile(g.waste),
	}
	for i := range g.foundations {
		s.Foundations[i] = clonePile(g.foundations[i])
	}
	for i := range g.tableau {
		s.Tableau[i] = clonePile(g.tableau[i])
	}
	return s
}

// Restore rebuilds a game from a snapshot after checking card conservation
// and pile legality.
func Restore(s Snapshot, opts ...Option) (*Game, error) {
	if s.DrawCount != 1 && s.DrawCount != 3 {
		return nil, fmt.Errorf("draw count %d", s.DrawCount)
	}
	if s.Elapsed < 0 || s.Moves < 0 {
		return nil, errors.New("negative counters")
	}
	if err := checkDeck(s); err != nil {
		return nil, err
	}
	for _, c := range s.Stock {
		if c.FaceUp {
			return nil, fmt.Errorf("stock card %s is face up", c)
		}
	}
	for _, c := range s.Waste {
		if !c.FaceUp {
			return nil, fmt.Errorf("waste card %s is face down", c)
		}
	}
	for i, f := range s.Foundations {
		for j, c := range f {
			if !c.FaceUp || !CanPlaceOnFoundation(c, f[:j]) {
				return nil, fmt.Errorf("foundation-%d: %s out of sequence", i, c)
			}
		}
	}
	for i, col := range s.Tableau {
		if err := checkColumn(col); err != nil {
			return nil, fmt.Errorf("tableau-%d: %w", i, err)
		}
	}

	g := &Game{}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		WithSeed(rand.Uint64())(g)
	}
	g.drawCount = s.DrawCount
	g.timed = s.Timed
	g.elapsed = s.Elapsed
	g.moves = s.Moves
	g.stock = clonePile(s.Stock)
	g.waste = clonePile(s.Waste)
	for i := range s.Foundations {
		g.foundations[i] = clonePile(s.Foundations[i])
	}
	for i := range s.Tableau {
		g.tableau[i] = clonePile(s.Tableau[i])
	}
	return g, nil
}

func checkDeck(s Snapshot) error {
	seen := make(map[Card]bool, DeckSize)
	n := 0
	add := func(pile []Card) error {
		for _, c := range pile {
			if !c.valid() {
				return fmt.Errorf("invalid card %+v", c)
			}
			key := Card{Suit: c.Suit, Rank: c.Rank}
			if seen[key] {
				return fmt.Errorf("duplicate card %s", c)
			}
			seen[key] = true
			n++
		}
		return nil
	}
	piles := [][]Card{s.Stock, s.Waste}
	piles = append(piles, s.Foundations[:]...)
	piles = append(piles, s.Tableau[:]...)
	for _, p := range piles {
		if err := add(p); err != nil {
			return err
		}
	}
	if n != DeckSize {
		return fmt.Errorf("expected %d cards, got %d", DeckSize, n)
	}
	return nil
}

// checkColumn requires face-down cards under a face-up alternating run, with
// the top card face up.
func checkColumn(col []Card) error {
	if len(col) == 0 {
		return nil
	}
	if !col[len(col)-1].FaceUp {
		return errors.New("top card is face down")
	}
	first := len(col) - 1
	for first > 0 && col[first-1].FaceUp {
		first--
	}
	for j := 0; j < first; j++ {
		if col[j].FaceUp {
			return fmt.Errorf("face-up %s below face-down cards", col[j])
		}
	}
	for j := first + 1; j < len(col); j++ {
		if !CanPlaceOnTableau(col[j], col[first:j]) {
			return fmt.Errorf("%s cannot sit on %s", col[j], col[j-1])
		}
	}
	return nil
}
