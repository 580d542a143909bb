package minefield

import (
	"errors"
	"fmt"
)

// Snapshot is the plain-data form of a Game used for persistence.
type Snapshot struct {
	Rows           int      `json:"rows"`
	Cols           int      `json:"cols"`
	Mines          int      `json:"mines"`
	Counts         [][]int  `json:"counts"`
	Revealed       [][]bool `json:"revealed"`
	Flagged        [][]bool `json:"flagged"`
	FirstMoveTaken bool     `json:"firstMoveTaken"`
	Outcome        Outcome  `json:"outcome"`
	Elapsed        int      `json:"elapsed"`
}

// Snapshot copies the game state.
func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		Rows:           g.rows,
		Cols:           g.cols,
		Mines:          g.mines,
		Counts:         cloneGrid(g.counts),
		Revealed:       cloneGrid(g.revealed),
		Flagged:        cloneGrid(g.flagged),
		FirstMoveTaken: g.firstMoveTaken,
		Outcome:        g.outcome,
		Elapsed:        g.elapsed,
	}
}

// Restore rebuilds a game from a snapshot, rejecting snapshots that break
// the board invariants.
func Restore(s Snapshot, opts ...Option) (*Game, error) {
	g, err := New(s.Rows, s.Cols, s.Mines, opts...)
	if err != nil {
		return nil, err
	}
	if err := checkShape(s.Rows, s.Cols, len(s.Counts), func(r int) int { return len(s.Counts[r]) }); err != nil {
		return nil, fmt.Errorf("counts: %w", err)
	}
	if err := checkShape(s.Rows, s.Cols, len(s.Revealed), func(r int) int { return len(s.Revealed[r]) }); err != nil {
		return nil, fmt.Errorf("revealed: %w", err)
	}
	if err := checkShape(s.Rows, s.Cols, len(s.Flagged), func(r int) int { return len(s.Flagged[r]) }); err != nil {
		return nil, fmt.Errorf("flagged: %w", err)
	}
	if s.Elapsed < 0 || s.Elapsed > MaxElapsed {
		return nil, fmt.Errorf("elapsed %d out of range", s.Elapsed)
	}

	g.counts = cloneGrid(s.Counts)
	g.revealed = cloneGrid(s.Revealed)
	g.flagged = cloneGrid(s.Flagged)
	g.firstMoveTaken = s.FirstMoveTaken
	g.outcome = s.Outcome
	g.elapsed = s.Elapsed

	mines, revealedMines := 0, 0
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			if g.revealed[r][c] && g.flagged[r][c] {
				return nil, fmt.Errorf("cell (%d,%d) is both revealed and flagged", r, c)
			}
			if g.flagged[r][c] {
				g.flags++
			}
			if g.counts[r][c] == Mine {
				mines++
				if g.revealed[r][c] {
					revealedMines++
				}
				continue
			}
			if g.revealed[r][c] {
				g.opened++
			}
			if want := g.adjacentMines(Point{Row: r, Col: c}); g.counts[r][c] != want {
				return nil, fmt.Errorf("cell (%d,%d) count %d, want %d", r, c, g.counts[r][c], want)
			}
		}
	}

	if !g.firstMoveTaken {
		if mines != 0 || g.opened != 0 {
			return nil, errors.New("mines placed or cells revealed before the first move")
		}
		if g.outcome != Pending || g.elapsed != 0 {
			return nil, errors.New("game ended or timed before the first move")
		}
		return g, nil
	}
	if mines != g.mines {
		return nil, fmt.Errorf("board holds %d mines, want %d", mines, g.mines)
	}
	switch g.outcome {
	case Lost:
		if revealedMines != 1 {
			return nil, fmt.Errorf("lost game shows %d revealed mines, want 1", revealedMines)
		}
	case Won:
		if revealedMines != 0 || g.opened != g.rows*g.cols-g.mines {
			return nil, errors.New("won game has unrevealed safe cells")
		}
	default:
		if revealedMines != 0 || g.opened == g.rows*g.cols-g.mines {
			return nil, errors.New("pending game is already decided")
		}
	}
	return g, nil
}

func checkShape(rows, cols, n int, width func(int) int) error {
	if n != rows {
		return fmt.Errorf("%d rows, want %d", n, rows)
	}
	for r := 0; r < rows; r++ {
		if width(r) != cols {
			return fmt.Errorf("row %d has %d cells, want %d", r, width(r), cols)
		}
	}
	return nil
}

func cloneGrid[T any](grid [][]T) [][]T {
	out := make([][]T, len(grid))
	for r := range grid {
		out[r] = append([]T(nil), grid[r]...)
	}
	return out
}
