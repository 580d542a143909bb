package klondike

import (
	"fmt"
	"strconv"
	"strings"
)

// ZoneKind identifies a group of piles.
type ZoneKind int

const (
	Stock ZoneKind = iota
	Waste
	Foundation
	Tableau
)

func (k ZoneKind) String() string {
	switch k {
	case Stock:
		return "stock"
	case Waste:
		return "waste"
	case Foundation:
		return "foundation"
	case Tableau:
		return "tableau"
	}
	return "unknown"
}

// Zone names one pile: the stock, the waste, foundation N or tableau N.
type Zone struct {
	Kind  ZoneKind
	Index int
}

func FoundationZone(i int) Zone { return Zone{Kind: Foundation, Index: i} }
func TableauZone(i int) Zone    { return Zone{Kind: Tableau, Index: i} }

var (
	StockZone = Zone{Kind: Stock}
	WasteZone = Zone{Kind: Waste}
)

func (z Zone) String() string {
	switch z.Kind {
	case Foundation, Tableau:
		return z.Kind.String() + "-" + strconv.Itoa(z.Index)
	}
	return z.Kind.String()
}

// ParseZone parses "stock", "waste", "foundation-N" or "tableau-N".
func ParseZone(s string) (Zone, error) {
	switch s {
	case "stock":
		return StockZone, nil
	case "waste":
		return WasteZone, nil
	}
	name, idx, ok := strings.Cut(s, "-")
	if !ok {
		return Zone{}, fmt.Errorf("unknown zone %q", s)
	}
	n, err := strconv.Atoi(idx)
	if err != nil {
		return Zone{}, fmt.Errorf("invalid zone index in %q", s)
	}
	var z Zone
	switch name {
	case "foundation":
		z = FoundationZone(n)
	case "tableau":
		z = TableauZone(n)
	default:
		return Zone{}, fmt.Errorf("unknown zone %q", s)
	}
	if !z.valid() {
		return Zone{}, fmt.Errorf("zone %q out of range", s)
	}
	return z, nil
}

func (z Zone) valid() bool {
	switch z.Kind {
	case Stock, Waste:
		return z.Index == 0
	case Foundation:
		return z.Index >= 0 && z.Index < NumFoundations
	case Tableau:
		return z.Index >= 0 && z.Index < NumTableau
	}
	return false
}

func (z Zone) MarshalText() ([]byte, error) { return []byte(z.String()), nil }

func (z *Zone) UnmarshalText(b []byte) error {
	parsed, err := ParseZone(string(b))
	if err != nil {
		return err
	}
	*z = parsed
	return nil
}
