// Package klondike implements the Klondike solitaire rule engine.
package klondike

import (
	"fmt"
	"math/rand/v2"

	"arcade/internal/game"
)

const (
	DeckSize       = 52
	NumFoundations = 4
	NumTableau     = 7
)

// shufflePasses matches the classic desktop deal; one pass is already uniform.
const shufflePasses = 3

// DrawResult is returned by DrawFromStock.
type DrawResult struct {
	Drawn    []string `json:"drawn,omitempty"` // card ids, in draw order
	Recycled bool     `json:"recycled,omitempty"`
	Waste    int      `json:"waste"`
	Stock    int      `json:"stock"`
}

// MoveResult is returned by MoveCard. A rejected move carries a Reason and
// leaves the game untouched.
type MoveResult struct {
	OK      bool   `json:"ok"`
	Reason  string `json:"reason,omitempty"`
	Moved   int    `json:"moved,omitempty"`
	Flipped bool   `json:"flipped,omitempty"`
	Won     bool   `json:"won,omitempty"`
}

func reject(format string, args ...any) MoveResult {
	return MoveResult{Reason: fmt.Sprintf(format, args...)}
}

// Suggestion names a move: card from one zone to another.
type Suggestion struct {
	Card string `json:"card"`
	From Zone   `json:"from"`
	To   Zone   `json:"to"`
}

// Game is one solitaire deal. It is not safe for concurrent use.
type Game struct {
	stock       []Card
	waste       []Card
	foundations [NumFoundations][]Card
	tableau     [NumTableau][]Card

	drawCount int
	timed     bool
	elapsed   int
	moves     int

	rng *rand.Rand
}

// Option configures a Game.
type Option func(*Game)

// WithSeed makes the shuffle deterministic.
func WithSeed(seed uint64) Option {
	return func(g *Game) { g.rng = rand.New(rand.NewPCG(seed, seed^0xda3e39cb94b95bdb)) }
}

// WithRand sets the random source used for shuffling.
func WithRand(r *rand.Rand) Option {
	return func(g *Game) { g.rng = r }
}

// Timed turns on the elapsed-time counter.
func Timed() Option {
	return func(g *Game) { g.timed = true }
}

// New shuffles and deals a game that draws drawCount cards at a time.
func New(drawCount int, opts ...Option) (*Game, error) {
	g := &Game{}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		WithSeed(rand.Uint64())(g)
	}
	if err := g.NewGame(drawCount); err != nil {
		return nil, err
	}
	return g, nil
}

// NewGame discards all state, shuffles a fresh deck and deals it.
func (g *Game) NewGame(drawCount int) error {
	if drawCount != 1 && drawCount != 3 {
		return game.Configf("draw count must be 1 or 3, got %d", drawCount)
	}
	deck := NewDeck()
	for pass := 0; pass < shufflePasses; pass++ {
		for i := len(deck) - 1; i > 0; i-- {
			j := g.rng.IntN(i + 1)
			deck[i], deck[j] = deck[j], deck[i]
		}
	}

	g.drawCount = drawCount
	g.elapsed = 0
	g.moves = 0
	g.stock = deck
	g.waste = nil
	g.foundations = [NumFoundations][]Card{}
	g.tableau = [NumTableau][]Card{}

	// Column i receives one card on every round from i onwards, so it ends up
	// with i+1 cards and only the last one face up.
	for i := 0; i < NumTableau; i++ {
		for j := i; j < NumTableau; j++ {
			c := g.popStock()
			c.FaceUp = i == j
			g.tableau[j] = append(g.tableau[j], c)
		}
	}
	return nil
}

func (g *Game) popStock() Card {
	c := g.stock[len(g.stock)-1]
	g.stock = g.stock[:len(g.stock)-1]
	return c
}

func (g *Game) DrawCount() int { return g.drawCount }
func (g *Game) Timed() bool    { return g.timed }
func (g *Game) Elapsed() int   { return g.elapsed }
func (g *Game) Moves() int     { return g.moves }

// Stock returns a copy of the stock, bottom first.
func (g *Game) Stock() []Card { return clonePile(g.stock) }

// Waste returns a copy of the waste, bottom first.
func (g *Game) Waste() []Card { return clonePile(g.waste) }

// Foundation returns a copy of foundation i, bottom first.
func (g *Game) Foundation(i int) []Card { return clonePile(g.foundations[i]) }

// Tableau returns a copy of tableau column i, bottom first.
func (g *Game) Tableau(i int) []Card { return clonePile(g.tableau[i]) }

// CardCount counts the cards in every zone. It is always DeckSize.
func (g *Game) CardCount() int {
	n := len(g.stock) + len(g.waste)
	for _, f := range g.foundations {
		n += len(f)
	}
	for _, t := range g.tableau {
		n += len(t)
	}
	return n
}

// DrawFromStock turns up to drawCount cards from the stock onto the waste.
// An empty stock is refilled from the waste, face down, in reverse order.
func (g *Game) DrawFromStock() DrawResult {
	var res DrawResult
	switch {
	case len(g.stock) > 0:
		for i := 0; i < g.drawCount && len(g.stock) > 0; i++ {
			c := g.popStock()
			c.FaceUp = true
			g.waste = append(g.waste, c)
			res.Drawn = append(res.Drawn, c.ID())
		}
		g.moves++
	case len(g.waste) > 0:
		for len(g.waste) > 0 {
			c := g.waste[len(g.waste)-1]
			g.waste = g.waste[:len(g.waste)-1]
			c.FaceUp = false
			g.stock = append(g.stock, c)
		}
		res.Recycled = true
		g.moves++
	}
	res.Waste, res.Stock = len(g.waste), len(g.stock)
	return res
}

func (g *Game) pile(z Zone) *[]Card {
	switch z.Kind {
	case Stock:
		return &g.stock
	case Waste:
		return &g.waste
	case Foundation:
		return &g.foundations[z.Index]
	case Tableau:
		return &g.tableau[z.Index]
	}
	return nil
}

// MoveCard moves the card named cardID from one zone to another. From the
// waste or a foundation only the top card moves; from a tableau column the
// card and every card above it move together.
func (g *Game) MoveCard(cardID string, from, to Zone) MoveResult {
	card, err := ParseCard(cardID)
	if err != nil {
		return reject("%v", err)
	}
	if !from.valid() || !to.valid() {
		return reject("invalid zone")
	}
	if from == to {
		return reject("source and destination are the same pile")
	}
	if from.Kind == Stock {
		return reject("cards cannot be played from the stock")
	}
	if to.Kind == Stock || to.Kind == Waste {
		return reject("cards cannot be placed on the %s", to.Kind)
	}

	src := g.pile(from)
	idx := indexOf(*src, card)
	if idx < 0 {
		return reject("%s is not in %s", card, from)
	}
	if from.Kind != Tableau && idx != len(*src)-1 {
		return reject("only the top card of %s can move", from)
	}
	if !(*src)[idx].FaceUp {
		return reject("%s is face down", card)
	}
	run := (*src)[idx:]

	dst := g.pile(to)
	switch to.Kind {
	case Foundation:
		if len(run) != 1 {
			return reject("only one card at a time can go to a foundation")
		}
		if !CanPlaceOnFoundation(run[0], *dst) {
			return reject("%s cannot go on %s", card, to)
		}
	case Tableau:
		if !CanPlaceOnTableau(run[0], *dst) {
			return reject("%s cannot go on %s", card, to)
		}
	}

	moved := clonePile(run)
	*src = (*src)[:idx]
	*dst = append(*dst, moved...)
	res := MoveResult{OK: true, Moved: len(moved)}
	if from.Kind == Tableau && len(*src) > 0 && !(*src)[len(*src)-1].FaceUp {
		(*src)[len(*src)-1].FaceUp = true
		res.Flipped = true
	}
	g.moves++
	res.Won = g.CheckWin()
	return res
}

// CanPlaceOnFoundation reports whether card may go on top of pile: an Ace on
// an empty pile, otherwise the next rank of the same suit.
func CanPlaceOnFoundation(card Card, pile []Card) bool {
	if len(pile) == 0 {
		return card.Rank == Ace
	}
	top := pile[len(pile)-1]
	return top.Suit == card.Suit && card.Rank == top.Rank+1
}

// CanPlaceOnTableau reports whether card may go on top of pile: a King on an
// empty column, otherwise one rank lower in the opposite color.
func CanPlaceOnTableau(card Card, pile []Card) bool {
	if len(pile) == 0 {
		return card.Rank == King
	}
	top := pile[len(pile)-1]
	return top.FaceUp && top.Color() != card.Color() && card.Rank == top.Rank-1
}

// CheckWin reports whether every card is on the foundations.
func (g *Game) CheckWin() bool {
	n := 0
	for _, f := range g.foundations {
		n += len(f)
	}
	return n == DeckSize
}

// Hint suggests a foundation move for the waste top card, then for each
// tableau top card. It never changes the game.
func (g *Game) Hint() (Suggestion, bool) {
	if n := len(g.waste); n > 0 {
		if s, ok := g.foundationFor(g.waste[n-1], WasteZone); ok {
			return s, true
		}
	}
	for i, col := range g.tableau {
		if n := len(col); n > 0 && col[n-1].FaceUp {
			if s, ok := g.foundationFor(col[n-1], TableauZone(i)); ok {
				return s, true
			}
		}
	}
	return Suggestion{}, false
}

func (g *Game) foundationFor(c Card, from Zone) (Suggestion, bool) {
	for i, f := range g.foundations {
		if CanPlaceOnFoundation(c, f) {
			return Suggestion{Card: c.ID(), From: from, To: FoundationZone(i)}, true
		}
	}
	return Suggestion{}, false
}

// LegalMoves lists every card move MoveCard would accept.
func (g *Game) LegalMoves() []Suggestion {
	type source struct {
		zone Zone
		idx  int
	}
	var sources []source
	if n := len(g.waste); n > 0 {
		sources = append(sources, source{WasteZone, n - 1})
	}
	for i, f := range g.foundations {
		if n := len(f); n > 0 {
			sources = append(sources, source{FoundationZone(i), n - 1})
		}
	}
	for i, col := range g.tableau {
		for j, c := range col {
			if c.FaceUp {
				sources = append(sources, source{TableauZone(i), j})
			}
		}
	}

	var moves []Suggestion
	for _, src := range sources {
		pile := *g.pile(src.zone)
		card := pile[src.idx]
		single := src.idx == len(pile)-1
		for i, f := range g.foundations {
			to := FoundationZone(i)
			if single && to != src.zone && CanPlaceOnFoundation(card, f) {
				moves = append(moves, Suggestion{Card: card.ID(), From: src.zone, To: to})
			}
		}
		for i, col := range g.tableau {
			to := TableauZone(i)
			if to != src.zone && CanPlaceOnTableau(card, col) {
				moves = append(moves, Suggestion{Card: card.ID(), From: src.zone, To: to})
			}
		}
	}
	return moves
}

// Tick advances the timer of a timed game until it is won.
func (g *Game) Tick() bool {
	if !g.timed || g.CheckWin() {
		return false
	}
	g.elapsed++
	return true
}

func indexOf(pile []Card, c Card) int {
	for i := range pile {
		if pile[i].Same(c) {
			return i
		}
	}
	return -1
}

func clonePile(p []Card) []Card {
	if p == nil {
		return nil
	}
	return append([]Card(nil), p...)
}
