// Package minefield implements the Minesweeper rule engine: lazy mine
// placement on the first reveal, flood fill, flags and win/loss detection.
package minefield

import (
	"fmt"
	"math/rand/v2"

	"arcade/internal/game"
)

// Mine marks a mined cell in the count grid.
const Mine = -1

// MaxElapsed is the largest value the timer displays.
const MaxElapsed = 999

// Outcome is the state of a game.
type Outcome int

const (
	Pending Outcome = iota
	Won
	Lost
)

func (o Outcome) String() string {
	switch o {
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return "pending"
	}
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Outcome) UnmarshalText(b []byte) error {
	switch string(b) {
	case "pending", "":
		*o = Pending
	case "won":
		*o = Won
	case "lost":
		*o = Lost
	default:
		return fmt.Errorf("unknown outcome %q", b)
	}
	return nil
}

// Point is a cell coordinate.
type Point struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// CellUpdate describes a cell that became visible.
type CellUpdate struct {
	Row   int  `json:"row"`
	Col   int  `json:"col"`
	Count int  `json:"count"`
	Mine  bool `json:"mine,omitempty"`
}

// RevealResult is returned by Reveal. Changed is empty when the reveal was a
// no-op. Mines is only set when the reveal lost the game.
type RevealResult struct {
	Outcome Outcome      `json:"outcome"`
	Changed []CellUpdate `json:"changed"`
	Mines   []Point      `json:"mines,omitempty"`
}

// FlagResult is returned by ToggleFlag.
type FlagResult struct {
	Flagged bool `json:"flagged"`
	Changed bool `json:"changed"`
}

// Game is one Minesweeper board. It is not safe for concurrent use; the
// owner serialises calls.
type Game struct {
	rows, cols, mines int

	counts   [][]int
	revealed [][]bool
	flagged  [][]bool

	firstMoveTaken bool
	outcome        Outcome
	opened         int // revealed non-mine cells
	flags          int
	elapsed        int

	rng *rand.Rand
}

// Option configures a Game.
type Option func(*Game)

// WithSeed makes mine placement deterministic.
func WithSeed(seed uint64) Option {
	return func(g *Game) { g.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithRand sets the random source used for mine placement.
func WithRand(r *rand.Rand) Option {
	return func(g *Game) { g.rng = r }
}

// New creates a game with an empty (mine-free) board.
func New(rows, cols, mines int, opts ...Option) (*Game, error) {
	g := &Game{}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		WithSeed(rand.Uint64())(g)
	}
	if err := g.NewGame(rows, cols, mines); err != nil {
		return nil, err
	}
	return g, nil
}

// NewGame discards all state and starts over with the given dimensions.
func (g *Game) NewGame(rows, cols, mines int) error {
	if err := validate(rows, cols, mines); err != nil {
		return err
	}
	g.rows, g.cols, g.mines = rows, cols, mines
	g.counts = newGrid[int](rows, cols)
	g.revealed = newGrid[bool](rows, cols)
	g.flagged = newGrid[bool](rows, cols)
	g.firstMoveTaken = false
	g.outcome = Pending
	g.opened = 0
	g.flags = 0
	g.elapsed = 0
	return nil
}

func validate(rows, cols, mines int) error {
	if rows <= 0 || cols <= 0 {
		return game.Configf("board must be at least 1x1, got %dx%d", rows, cols)
	}
	if mines < 0 {
		return game.Configf("mine count %d is negative", mines)
	}
	if mines >= rows*cols {
		return game.Configf("mine count %d must be less than %d cells", mines, rows*cols)
	}
	return nil
}

func (g *Game) Rows() int { return g.rows }
func (g *Game) Cols() int { return g.cols }
func (g *Game) Mines() int { return g.mines }
func (g *Game) Outcome() Outcome { return g.outcome }
func (g *Game) Elapsed() int { return g.elapsed }
func (g *Game) FirstMoveTaken() bool { return g.firstMoveTaken }
func (g *Game) FlagCount() int { return g.flags }
func (g *Game) OpenedCount() int { return g.opened }
func (g *Game) Revealed(r, c int) bool { return g.inBounds(r, c) && g.revealed[r][c] }
func (g *Game) Flagged(r, c int) bool { return g.inBounds(r, c) && g.flagged[r][c] }
func (g *Game) IsMine(r, c int) bool { return g.inBounds(r, c) && g.counts[r][c] == Mine }
func (g *Game) Terminal() bool { return g.outcome != Pending }
func (g *Game) inBounds(r, c int) bool { return r >= 0 && r < g.rows && c >= 0 && c < g.cols }

// Count returns the adjacency count of a cell, or Mine. Before the first
// reveal every cell reports 0.
func (g *Game) Count(r, c int) int {
	if !g.inBounds(r, c) {
		return 0
	}
	return g.counts[r][c]
}

func (g *Game) checkBounds(r, c int) error {
	if !g.inBounds(r, c) {
		return &game.BoundsError{Row: r, Col: c, Rows: g.rows, Cols: g.cols}
	}
	return nil
}

// Reveal uncovers (r,c). The first reveal of a game places the mines, never
// on (r,c). Revealing a zero cell opens its whole zero-connected region.
func (g *Game) Reveal(r, c int) (RevealResult, error) {
	if err := g.checkBounds(r, c); err != nil {
		return RevealResult{}, err
	}
	res := RevealResult{Outcome: g.outcome}
	if g.outcome != Pending || g.revealed[r][c] || g.flagged[r][c] {
		return res, nil
	}
	if !g.firstMoveTaken {
		g.placeMines(Point{Row: r, Col: c})
		g.firstMoveTaken = true
	}

	if g.counts[r][c] == Mine {
		g.revealed[r][c] = true
		g.outcome = Lost
		res.Outcome = Lost
		res.Changed = []CellUpdate{{Row: r, Col: c, Count: Mine, Mine: true}}
		res.Mines = g.MinePoints()
		return res, nil
	}

	res.Changed = g.flood(r, c)
	if g.opened == g.rows*g.cols-g.mines {
		g.outcome = Won
	}
	res.Outcome = g.outcome
	return res, nil
}

// flood reveals (r,c) and, through zero cells, every reachable unrevealed
// and unflagged neighbour.
func (g *Game) flood(r, c int) []CellUpdate {
	var changed []CellUpdate
	open := func(p Point) {
		g.revealed[p.Row][p.Col] = true
		g.opened++
		changed = append(changed, CellUpdate{Row: p.Row, Col: p.Col, Count: g.counts[p.Row][p.Col]})
	}

	start := Point{Row: r, Col: c}
	open(start)
	stack := []Point{start}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if g.counts[p.Row][p.Col] != 0 {
			continue
		}
		for _, n := range g.neighbors(p) {
			if g.revealed[n.Row][n.Col] || g.flagged[n.Row][n.Col] {
				continue
			}
			open(n)
			stack = append(stack, n)
		}
	}
	return changed
}

// ToggleFlag flips the flag on an unrevealed cell of a running game.
func (g *Game) ToggleFlag(r, c int) (FlagResult, error) {
	if err := g.checkBounds(r, c); err != nil {
		return FlagResult{}, err
	}
	if g.outcome != Pending || g.revealed[r][c] {
		return FlagResult{Flagged: g.flagged[r][c]}, nil
	}
	g.flagged[r][c] = !g.flagged[r][c]
	if g.flagged[r][c] {
		g.flags++
	} else {
		g.flags--
	}
	return FlagResult{Flagged: g.flagged[r][c], Changed: true}, nil
}

// RemainingMineEstimate is the classic mine counter: mines minus flags. It
// goes negative when the player over-flags.
func (g *Game) RemainingMineEstimate() int {
	return g.mines - g.flags
}

// Hint returns the first safe cell that is neither revealed nor flagged. It
// reports false before the first move and after the game ended.
func (g *Game) Hint() (Point, bool) {
	if !g.firstMoveTaken || g.outcome != Pending {
		return Point{}, false
	}
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			if !g.revealed[r][c] && !g.flagged[r][c] && g.counts[r][c] != Mine {
				return Point{Row: r, Col: c}, true
			}
		}
	}
	return Point{}, false
}

// Tick advances the timer by one second. The timer runs from the first
// reveal until the game ends and stops at MaxElapsed.
func (g *Game) Tick() bool {
	if !g.firstMoveTaken || g.outcome != Pending || g.elapsed >= MaxElapsed {
		return false
	}
	g.elapsed++
	return true
}

// MinePoints lists every mine in row-major order.
func (g *Game) MinePoints() []Point {
	if !g.firstMoveTaken {
		return nil
	}
	pts := make([]Point, 0, g.mines)
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			if g.counts[r][c] == Mine {
				pts = append(pts, Point{Row: r, Col: c})
			}
		}
	}
	return pts
}
