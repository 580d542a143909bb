package klondike

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"arcade/internal/game"
)

func up(id string) Card {
	c, err := ParseCard(id)
	if err != nil {
		panic(err)
	}
	c.FaceUp = true
	return c
}

func down(id string) Card {
	c := up(id)
	c.FaceUp = false
	return c
}

// build restores a game with the given piles; every other card goes to the
// stock face down.
func build(t *testing.T, waste []Card, foundations [NumFoundations][]Card, tableau [NumTableau][]Card) *Game {
	t.Helper()
	used := map[Card]bool{}
	mark := func(p []Card) {
		for _, c := range p {
			used[Card{Suit: c.Suit, Rank: c.Rank}] = true
		}
	}
	mark(waste)
	for _, f := range foundations {
		mark(f)
	}
	for _, col := range tableau {
		mark(col)
	}
	var stock []Card
	for _, c := range NewDeck() {
		if !used[c] {
			stock = append(stock, c)
		}
	}
	g, err := Restore(Snapshot{DrawCount: 1, Stock: stock, Waste: waste, Foundations: foundations, Tableau: tableau})
	require.NoError(t, err)
	return g
}

func requireConserved(t *testing.T, g *Game) {
	t.Helper()
	require.Equal(t, DeckSize, g.CardCount())
	_, err := Restore(g.Snapshot())
	require.NoError(t, err)
}

func TestRestoredGamesDealFreshBoards(t *testing.T) {
	g, err := New(1, WithSeed(5))
	require.NoError(t, err)
	snap := g.Snapshot()

	a, err := Restore(snap)
	require.NoError(t, err)
	b, err := Restore(snap)
	require.NoError(t, err)
	require.NoError(t, a.NewGame(1))
	require.NoError(t, b.NewGame(1))
	require.NotEqual(t, a.Snapshot(), b.Snapshot())
}

func TestNewGameDeal(t *testing.T) {
	g, err := New(3, WithSeed(1))
	require.NoError(t, err)
	for i := 0; i < NumTableau; i++ {
		col := g.Tableau(i)
		require.Len(t, col, i+1)
		for j, c := range col {
			require.Equal(t, j == i, c.FaceUp, "column %d card %d", i, j)
		}
	}
	require.Len(t, g.Stock(), 24)
	for _, c := range g.Stock() {
		require.False(t, c.FaceUp)
	}
	require.Empty(t, g.Waste())
	requireConserved(t, g)
}

func TestNewGameRejectsDrawCount(t *testing.T) {
	for _, n := range []int{0, 2, 4, -1} {
		_, err := New(n)
		var cfgErr *game.ConfigError
		require.True(t, errors.As(err, &cfgErr), "draw count %d", n)
	}
}

func TestSameSeedSameDeal(t *testing.T) {
	a, _ := New(1, WithSeed(77))
	b, _ := New(1, WithSeed(77))
	require.Equal(t, a.Snapshot(), b.Snapshot())
}

func TestDrawThreeEmptiesStock(t *testing.T) {
	g, _ := New(3, WithSeed(2))
	start := g.Stock()

	res := g.DrawFromStock()
	require.Equal(t, 3, res.Waste)
	require.Equal(t, 21, res.Stock)
	require.Len(t, res.Drawn, 3)
	// The last drawn card is on top of the waste.
	waste := g.Waste()
	require.Equal(t, res.Drawn[2], waste[len(waste)-1].ID())

	for i := 1; i < 8; i++ {
		res = g.DrawFromStock()
	}
	require.Equal(t, 0, res.Stock)
	require.Equal(t, 24, res.Waste)
	for _, c := range g.Waste() {
		require.True(t, c.FaceUp)
	}

	res = g.DrawFromStock()
	require.True(t, res.Recycled)
	require.Equal(t, 0, res.Waste)
	require.Equal(t, 24, res.Stock)
	require.Equal(t, start, g.Stock(), "recycling restores the original stock order")
	requireConserved(t, g)
}

func TestDrawOneTakesSingleCard(t *testing.T) {
	g, _ := New(1, WithSeed(3))
	top := g.Stock()[23]
	res := g.DrawFromStock()
	require.Equal(t, []string{top.ID()}, res.Drawn)
	require.Equal(t, 23, res.Stock)
}

func TestDrawFromEmptyStockAndWaste(t *testing.T) {
	g := nearlyWon(t)
	res := g.DrawFromStock()
	require.Empty(t, res.Drawn)
	require.False(t, res.Recycled)
	require.Equal(t, 0, g.Moves())
}

// nearlyWon puts Ace..Queen of every suit on the foundations and the four
// Kings on the first four tableau columns.
func nearlyWon(t *testing.T) *Game {
	t.Helper()
	var foundations [NumFoundations][]Card
	var tableau [NumTableau][]Card
	for s := Spades; s <= Clubs; s++ {
		for r := Ace; r < King; r++ {
			foundations[s] = append(foundations[s], Card{Suit: s, Rank: r, FaceUp: true})
		}
		tableau[s] = []Card{{Suit: s, Rank: King, FaceUp: true}}
	}
	return build(t, nil, foundations, tableau)
}

func TestWin(t *testing.T) {
	g := nearlyWon(t)
	require.False(t, g.CheckWin())
	for s := Spades; s <= Clubs; s++ {
		c := Card{Suit: s, Rank: King}
		res := g.MoveCard(c.ID(), TableauZone(int(s)), FoundationZone(int(s)))
		require.True(t, res.OK, res.Reason)
		require.Equal(t, s == Clubs, res.Won)
	}
	require.True(t, g.CheckWin())
	requireConserved(t, g)
}

func TestKingOntoNonEmptyTableauRejected(t *testing.T) {
	for s := Spades; s <= Clubs; s++ {
		king := Card{Suit: s, Rank: King, FaceUp: true}
		for _, top := range NewDeck() {
			top.FaceUp = true
			require.False(t, CanPlaceOnTableau(king, []Card{top}), "%s on %s", king, top)
		}
	}

	g := nearlyWon(t)
	before := g.Snapshot()
	res := g.MoveCard("KS", TableauZone(0), TableauZone(1))
	require.False(t, res.OK)
	require.NotEmpty(t, res.Reason)
	require.Equal(t, before, g.Snapshot())
}

func TestPlacementPredicates(t *testing.T) {
	require.True(t, CanPlaceOnFoundation(up("AH"), nil))
	require.False(t, CanPlaceOnFoundation(up("2H"), nil))
	require.True(t, CanPlaceOnFoundation(up("2H"), []Card{up("AH")}))
	require.False(t, CanPlaceOnFoundation(up("2D"), []Card{up("AH")}))
	require.False(t, CanPlaceOnFoundation(up("3H"), []Card{up("AH")}))

	require.True(t, CanPlaceOnTableau(up("KD"), nil))
	require.False(t, CanPlaceOnTableau(up("QD"), nil))
	require.True(t, CanPlaceOnTableau(up("QD"), []Card{up("KS")}))
	require.False(t, CanPlaceOnTableau(up("QH"), []Card{up("KD")}))
	require.False(t, CanPlaceOnTableau(up("JD"), []Card{up("KS")}))
}

func runBoard(t *testing.T) *Game {
	var foundations [NumFoundations][]Card
	foundations[0] = []Card{up("AS")}
	var tableau [NumTableau][]Card
	tableau[0] = []Card{down("5H"), up("KS"), up("QH"), up("JC")}
	tableau[1] = []Card{up("KC")}
	tableau[3] = []Card{up("4H")}
	return build(t, []Card{up("3S"), up("2S")}, foundations, tableau)
}

func TestMoveRunBetweenColumns(t *testing.T) {
	g := runBoard(t)

	res := g.MoveCard("QH", TableauZone(0), TableauZone(1))
	require.True(t, res.OK, res.Reason)
	require.Equal(t, 2, res.Moved)
	require.False(t, res.Flipped)
	require.Equal(t, []Card{up("KC"), up("QH"), up("JC")}, g.Tableau(1))
	require.Equal(t, []Card{down("5H"), up("KS")}, g.Tableau(0))

	res = g.MoveCard("KS", TableauZone(0), TableauZone(2))
	require.True(t, res.OK, res.Reason)
	require.True(t, res.Flipped)
	require.Equal(t, []Card{up("5H")}, g.Tableau(0))
	requireConserved(t, g)
}

func TestMoveRejections(t *testing.T) {
	cases := []struct {
		name     string
		card     string
		from, to Zone
	}{
		{"run to foundation", "QH", TableauZone(0), FoundationZone(1)},
		{"face down card", "5H", TableauZone(0), TableauZone(2)},
		{"buried waste card", "3S", WasteZone, FoundationZone(0)},
		{"card not in pile", "KC", TableauZone(0), TableauZone(2)},
		{"from stock", "9D", StockZone, TableauZone(2)},
		{"onto waste", "JC", TableauZone(0), WasteZone},
		{"same pile", "JC", TableauZone(0), TableauZone(0)},
		{"wrong color", "QH", TableauZone(0), TableauZone(3)},
		{"bad card id", "ZZ", TableauZone(0), TableauZone(2)},
		{"bad zone", "JC", TableauZone(0), TableauZone(9)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := runBoard(t)
			before := g.Snapshot()
			res := g.MoveCard(tc.card, tc.from, tc.to)
			require.False(t, res.OK)
			require.NotEmpty(t, res.Reason)
			require.Equal(t, before, g.Snapshot())
		})
	}
}

func TestWasteAndFoundationMoves(t *testing.T) {
	g := runBoard(t)
	require.True(t, g.MoveCard("2S", WasteZone, FoundationZone(0)).OK)
	require.True(t, g.MoveCard("3S", WasteZone, FoundationZone(0)).OK)
	require.Empty(t, g.Waste())

	// A foundation top can come back down onto the tableau.
	res := g.MoveCard("3S", FoundationZone(0), TableauZone(3))
	require.True(t, res.OK, res.Reason)
	require.Equal(t, []Card{up("4H"), up("3S")}, g.Tableau(3))
	require.Len(t, g.Foundation(0), 2)
	requireConserved(t, g)
}

func TestHint(t *testing.T) {
	g := runBoard(t)
	before := g.Snapshot()
	s, ok := g.Hint()
	require.True(t, ok)
	require.Equal(t, Suggestion{Card: "2S", From: WasteZone, To: FoundationZone(0)}, s)
	require.Equal(t, before, g.Snapshot())

	var tableau [NumTableau][]Card
	tableau[4] = []Card{down("9C"), up("AD")}
	g = build(t, []Card{up("7H")}, [NumFoundations][]Card{}, tableau)
	s, ok = g.Hint()
	require.True(t, ok)
	require.Equal(t, Suggestion{Card: "AD", From: TableauZone(4), To: FoundationZone(0)}, s)

	g = build(t, []Card{up("7H")}, [NumFoundations][]Card{}, [NumTableau][]Card{})
	_, ok = g.Hint()
	require.False(t, ok)
}

func TestLegalMovesAreAccepted(t *testing.T) {
	g := runBoard(t)
	moves := g.LegalMoves()
	require.NotEmpty(t, moves)
	for _, m := range moves {
		snap := g.Snapshot()
		res := g.MoveCard(m.Card, m.From, m.To)
		require.True(t, res.OK, "%+v: %s", m, res.Reason)
		g, _ = Restore(snap)
	}
}

// TestRandomPlay walks random games and checks that every move agrees with
// the placement predicates and that no card is ever lost.
func TestRandomPlay(t *testing.T) {
	zones := []Zone{WasteZone}
	for i := 0; i < NumFoundations; i++ {
		zones = append(zones, FoundationZone(i))
	}
	for i := 0; i < NumTableau; i++ {
		zones = append(zones, TableauZone(i))
	}

	for seed := uint64(1); seed <= 10; seed++ {
		g, _ := New(3, WithSeed(seed))
		rng := rand.New(rand.NewPCG(seed, 0))
		for step := 0; step < 300 && !g.CheckWin(); step++ {
			from := zones[rng.IntN(len(zones))]
			to := zones[1+rng.IntN(len(zones)-1)]
			pile := g.pile(from)
			if len(*pile) == 0 || rng.IntN(4) == 0 {
				g.DrawFromStock()
				requireConserved(t, g)
				continue
			}
			idx := len(*pile) - 1
			if from.Kind == Tableau {
				idx = rng.IntN(len(*pile))
			}
			card := (*pile)[idx]
			run := len(*pile) - idx
			dst := clonePile(*g.pile(to))

			legal := card.FaceUp && from != to
			switch to.Kind {
			case Foundation:
				legal = legal && run == 1 && CanPlaceOnFoundation(card, dst)
			case Tableau:
				legal = legal && CanPlaceOnTableau(card, dst)
			}

			before := g.Snapshot()
			res := g.MoveCard(card.ID(), from, to)
			require.Equal(t, legal, res.OK, "seed %d step %d: %s %s->%s (%s)", seed, step, card, from, to, res.Reason)
			if !res.OK {
				require.Equal(t, before, g.Snapshot())
			}
			requireConserved(t, g)
		}
	}
}

func TestTimedTick(t *testing.T) {
	g, _ := New(3, WithSeed(4))
	require.False(t, g.Tick())

	g, _ = New(3, WithSeed(4), Timed())
	require.True(t, g.Tick())
	require.Equal(t, 1, g.Elapsed())
}

func TestRestoreRejectsBrokenSnapshots(t *testing.T) {
	g, _ := New(1, WithSeed(5))

	s := g.Snapshot()
	s.Stock = s.Stock[1:]
	_, err := Restore(s)
	require.ErrorContains(t, err, "expected 52 cards")

	s = g.Snapshot()
	s.Stock[0] = s.Tableau[6][6]
	s.Stock[0].FaceUp = false
	_, err = Restore(s)
	require.ErrorContains(t, err, "duplicate")

	s = g.Snapshot()
	s.Stock[0].FaceUp = true
	_, err = Restore(s)
	require.Error(t, err)

	s = g.Snapshot()
	s.Tableau[3][3].FaceUp = false
	_, err = Restore(s)
	require.ErrorContains(t, err, "top card is face down")

	s = g.Snapshot()
	s.DrawCount = 2
	_, err = Restore(s)
	require.Error(t, err)
}

func TestParseIDs(t *testing.T) {
	for _, c := range NewDeck() {
		got, err := ParseCard(c.ID())
		require.NoError(t, err)
		require.Equal(t, c, got)
	}
	for _, bad := range []string{"", "A", "1S", "11H", "QX", "KS "} {
		_, err := ParseCard(bad)
		require.Error(t, err, bad)
	}

	for _, name := range []string{"stock", "waste", "foundation-3", "tableau-0", "tableau-6"} {
		z, err := ParseZone(name)
		require.NoError(t, err)
		require.Equal(t, name, z.String())
	}
	for _, bad := range []string{"pile", "foundation-4", "tableau-7", "tableau-x", "tableau"} {
		_, err := ParseZone(bad)
		require.Error(t, err, bad)
	}
}
