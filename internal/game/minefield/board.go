package minefield

func newGrid[T any](rows, cols int) [][]T {
	grid := make([][]T, rows)
	for r := range grid {
		grid[r] = make([]T, cols)
	}
	return grid
}

// neighbors returns the in-bounds 8-neighbours of p.
func (g *Game) neighbors(p Point) []Point {
	out := make([]Point, 0, 8)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			r, c := p.Row+dr, p.Col+dc
			if g.inBounds(r, c) {
				out = append(out, Point{Row: r, Col: c})
			}
		}
	}
	return out
}

// placeMines scatters g.mines mines uniformly over every cell except avoid
// and fills in the adjacency counts.
func (g *Game) placeMines(avoid Point) {
	skip := avoid.Row*g.cols + avoid.Col
	cells := make([]int, 0, g.rows*g.cols-1)
	for i := 0; i < g.rows*g.cols; i++ {
		if i != skip {
			cells = append(cells, i)
		}
	}
	// Partial Fisher-Yates: the first g.mines entries become mines.
	for i := 0; i < g.mines; i++ {
		j := i + g.rng.IntN(len(cells)-i)
		cells[i], cells[j] = cells[j], cells[i]
		g.setMine(Point{Row: cells[i] / g.cols, Col: cells[i] % g.cols})
	}
}

func (g *Game) setMine(p Point) {
	g.counts[p.Row][p.Col] = Mine
	for _, n := range g.neighbors(p) {
		if g.counts[n.Row][n.Col] != Mine {
			g.counts[n.Row][n.Col]++
		}
	}
}

// adjacentMines counts the mines around p.
func (g *Game) adjacentMines(p Point) int {
	n := 0
	for _, q := range g.neighbors(p) {
		if g.counts[q.Row][q.Col] == Mine {
			n++
		}
	}
	return n
}
