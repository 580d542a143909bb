// Package sudoku implements a 9x9 Sudoku engine: backtracking generation,
// placement checks, hints and completion detection.
package sudoku

import (
	"fmt"
	"math/rand/v2"

	"arcade/internal/game"
)

const (
	Size  = 9
	Box   = 3
	Cells = Size * Size
)

// Grid holds digits 1-9, or 0 for an empty cell.
type Grid [Size][Size]int

// Point is a cell coordinate.
type Point struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// PlaceResult is returned by Place and Clear. A rejected placement carries
// a Reason and leaves the board untouched.
type PlaceResult struct {
	OK       bool   `json:"ok"`
	Reason   string `json:"reason,omitempty"`
	Conflict bool   `json:"conflict,omitempty"`
	Solved   bool   `json:"solved,omitempty"`
}

// Game is one puzzle. It is not safe for concurrent use.
type Game struct {
	board    Grid
	solution Grid
	given    [Size][Size]bool
	moves    int
	hints    int
	elapsed  int
	rng      *rand.Rand
}

// Option configures a Game.
type Option func(*Game)

// WithSeed makes generation deterministic.
func WithSeed(seed uint64) Option {
	return func(g *Game) { g.rng = rand.New(rand.NewPCG(seed, seed^0x2545f4914f6cdd1d)) }
}

// New generates a solved grid and removes `removals` cells from it.
func New(removals int, opts ...Option) (*Game, error) {
	g := &Game{}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		WithSeed(rand.Uint64())(g)
	}
	if err := g.NewGame(removals); err != nil {
		return nil, err
	}
	return g, nil
}

// NewGame discards the current puzzle and generates another.
func (g *Game) NewGame(removals int) error {
	if removals < 0 || removals >= Cells {
		return game.Configf("removals must be in [0,%d), got %d", Cells, removals)
	}
	var solution Grid
	g.fill(&solution)

	g.solution = solution
	g.board = solution
	g.moves, g.hints, g.elapsed = 0, 0, 0

	cells := g.rng.Perm(Cells)
	for _, i := range cells[:removals] {
		g.board[i/Size][i%Size] = 0
	}
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			g.given[r][c] = g.board[r][c] != 0
		}
	}
	return nil
}

// fill completes grid by backtracking, trying digits in random order.
func (g *Game) fill(grid *Grid) bool {
	for i := 0; i < Cells; i++ {
		r, c := i/Size, i%Size
		if grid[r][c] != 0 {
			continue
		}
		digits := [Size]int{1, 2, 3, 4, 5, 6, 7, 8, 9}
		g.rng.Shuffle(len(digits), func(a, b int) { digits[a], digits[b] = digits[b], digits[a] })
		for _, d := range digits {
			if fits(grid, r, c, d) {
				grid[r][c] = d
				if g.fill(grid) {
					return true
				}
				grid[r][c] = 0
			}
		}
		return false
	}
	return true
}

// fits reports whether d can go at (r,c) without repeating in its row,
// column or box. The cell itself is ignored.
func fits(grid *Grid, r, c, d int) bool {
	for i := 0; i < Size; i++ {
		if i != c && grid[r][i] == d {
			return false
		}
		if i != r && grid[i][c] == d {
			return false
		}
	}
	br, bc := r/Box*Box, c/Box*Box
	for i := br; i < br+Box; i++ {
		for j := bc; j < bc+Box; j++ {
			if (i != r || j != c) && grid[i][j] == d {
				return false
			}
		}
	}
	return true
}

func (g *Game) Board() Grid { return g.board }
func (g *Game) Solution() Grid { return g.solution }
func (g *Game) Given(r, c int) bool { return inBounds(r, c) && g.given[r][c] }
func (g *Game) Moves() int { return g.moves }
func (g *Game) HintsUsed() int { return g.hints }
func (g *Game) Elapsed() int { return g.elapsed }

func inBounds(r, c int) bool { return r >= 0 && r < Size && c >= 0 && c < Size }

func checkBounds(r, c int) error {
	if !inBounds(r, c) {
		return &game.BoundsError{Row: r, Col: c, Rows: Size, Cols: Size}
	}
	return nil
}

// Place writes digit v at (r,c). Conflicting digits are accepted and
// reported; givens cannot be overwritten.
func (g *Game) Place(r, c, v int) (PlaceResult, error) {
	if err := checkBounds(r, c); err != nil {
		return PlaceResult{}, err
	}
	switch {
	case g.Solved():
		return PlaceResult{Reason: "puzzle is already solved"}, nil
	case v < 1 || v > Size:
		return PlaceResult{Reason: fmt.Sprintf("digit %d out of range", v)}, nil
	case g.given[r][c]:
		return PlaceResult{Reason: fmt.Sprintf("cell (%d,%d) is a given", r, c)}, nil
	}
	g.board[r][c] = v
	g.moves++
	return PlaceResult{OK: true, Conflict: !fits(&g.board, r, c, v), Solved: g.Solved()}, nil
}

// Clear empties a non-given cell.
func (g *Game) Clear(r, c int) (PlaceResult, error) {
	if err := checkBounds(r, c); err != nil {
		return PlaceResult{}, err
	}
	switch {
	case g.Solved():
		return PlaceResult{Reason: "puzzle is already solved"}, nil
	case g.given[r][c]:
		return PlaceResult{Reason: fmt.Sprintf("cell (%d,%d) is a given", r, c)}, nil
	case g.board[r][c] == 0:
		return PlaceResult{Reason: fmt.Sprintf("cell (%d,%d) is already empty", r, c)}, nil
	}
	g.board[r][c] = 0
	g.moves++
	return PlaceResult{OK: true}, nil
}

// Hint fills the first empty cell with its solution digit.
func (g *Game) Hint() (Point, int, bool) {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if g.board[r][c] == 0 {
				g.board[r][c] = g.solution[r][c]
				g.hints++
				return Point{Row: r, Col: c}, g.solution[r][c], true
			}
		}
	}
	return Point{}, 0, false
}

// Conflicts lists filled cells whose digit repeats in their row, column or
// box.
func (g *Game) Conflicts() []Point {
	var out []Point
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if v := g.board[r][c]; v != 0 && !fits(&g.board, r, c, v) {
				out = append(out, Point{Row: r, Col: c})
			}
		}
	}
	return out
}

// Solved reports whether the board is full and free of conflicts.
func (g *Game) Solved() bool {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if v := g.board[r][c]; v == 0 || !fits(&g.board, r, c, v) {
				return false
			}
		}
	}
	return true
}

// Tick advances the elapsed-time counter while the puzzle is unsolved.
func (g *Game) Tick() bool {
	if g.Solved() {
		return false
	}
	g.elapsed++
	return true
}
