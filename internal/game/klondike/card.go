package klondike

import (
	"fmt"
	"strconv"
)

// Suit represents a card suit.
type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

var suitSymbols = [...]string{"♠", "♥", "♦", "♣"}
var suitLetters = [...]byte{'S', 'H', 'D', 'C'}

func (s Suit) String() string {
	if s < Spades || s > Clubs {
		return "?"
	}
	return suitSymbols[s]
}

// Color is derived from the suit.
type Color int

const (
	Black Color = iota
	Red
)

func (c Color) String() string {
	if c == Red {
		return "red"
	}
	return "black"
}

func (s Suit) Color() Color {
	if s == Hearts || s == Diamonds {
		return Red
	}
	return Black
}

// Rank represents a card rank, 1 (Ace) to 13 (King).
type Rank int

const (
	Ace   Rank = 1
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	}
	return strconv.Itoa(int(r))
}

// Card represents a playing card.
type Card struct {
	Suit   Suit `json:"suit"`
	Rank   Rank `json:"rank"`
	FaceUp bool `json:"faceUp"`
}

// ID names the card by rank and suit letter, e.g. "AS", "10H", "KC".
func (c Card) ID() string {
	return c.Rank.String() + string(suitLetters[c.Suit])
}

func (c Card) Color() Color { return c.Suit.Color() }

func (c Card) String() string { return c.Rank.String() + c.Suit.String() }

// Same reports whether c and o are the same card, ignoring orientation.
func (c Card) Same(o Card) bool { return c.Suit == o.Suit && c.Rank == o.Rank }

func (c Card) valid() bool {
	return c.Suit >= Spades && c.Suit <= Clubs && c.Rank >= Ace && c.Rank <= King
}

// ParseCard parses a card ID as produced by Card.ID. The result is face down.
func ParseCard(id string) (Card, error) {
	if len(id) < 2 {
		return Card{}, fmt.Errorf("invalid card id %q", id)
	}
	rankPart, suitPart := id[:len(id)-1], id[len(id)-1]
	var c Card
	switch rankPart {
	case "A":
		c.Rank = Ace
	case "J":
		c.Rank = Jack
	case "Q":
		c.Rank = Queen
	case "K":
		c.Rank = King
	default:
		n, err := strconv.Atoi(rankPart)
		if err != nil || n < 2 || n > 10 {
			return Card{}, fmt.Errorf("invalid card rank in %q", id)
		}
		c.Rank = Rank(n)
	}
	for s, l := range suitLetters {
		if l == suitPart {
			c.Suit = Suit(s)
			return c, nil
		}
	}
	return Card{}, fmt.Errorf("invalid card suit in %q", id)
}

// NewDeck returns the 52 cards in suit-major order, face down.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for s := Spades; s <= Clubs; s++ {
		for r := Ace; r <= King; r++ {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}
