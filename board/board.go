// Package board describes the talking board: which symbols can be spelled,
// where each one sits on the artwork, and how artwork offsets map onto
// normalized (0-100) board positions.
package board

import (
	"strings"

	"planchette/vmath"
)

// Intrinsic size of the board artwork in design units. Offsets in the
// coordinate table are measured from the artwork's center in these units.
const (
	DesignWidth  = 1200
	DesignHeight = 800
)

// Symbol is one spellable unit: a letter, a digit, the space, or one of the
// multi-letter tokens.
type Symbol string

const (
	Space   Symbol = " "
	Yes     Symbol = "YES"
	No      Symbol = "NO"
	Goodbye Symbol = "GOODBYE"
)

// AnchorKind selects which point of the planchette must sit on a symbol.
type AnchorKind int

const (
	// Primary aligns the planchette's viewing window with the symbol
	Primary AnchorKind = iota
	// Tip aligns the planchette's pointed tip with the symbol
	Tip
)

func (k AnchorKind) String() string {
	switch k {
	case Primary:
		return "primary"
	case Tip:
		return "tip"
	default:
		return "unknown"
	}
}

// Anchor is a symbol's fixed place on the board.
type Anchor struct {
	Offset vmath.Vec2
	Kind   AnchorKind
}

// Letters run along two arcs (A-M outer, N-Z inner), digits along a row
// beneath them, the tokens sit at the corners and the bottom edge.
var table = map[Symbol]Anchor{
	"A": {vmath.V(-565, 120), Primary},
	"B": {vmath.V(-502, 23), Primary},
	"C": {vmath.V(-423, -61), Primary},
	"D": {vmath.V(-330, -129), Primary},
	"E": {vmath.V(-226, -179), Primary},
	"F": {vmath.V(-115, -210), Primary},
	"G": {vmath.V(0, -220), Primary},
	"H": {vmath.V(115, -210), Primary},
	"I": {vmath.V(226, -179), Primary},
	"J": {vmath.V(330, -129), Primary},
	"K": {vmath.V(423, -61), Primary},
	"L": {vmath.V(502, 23), Primary},
	"M": {vmath.V(565, 120), Primary},

	"N": {vmath.V(-458, 174), Primary},
	"O": {vmath.V(-403, 101), Primary},
	"P": {vmath.V(-337, 38), Primary},
	"Q": {vmath.V(-262, -12), Primary},
	"R": {vmath.V(-179, -50), Primary},
	"S": {vmath.V(-91, -72), Primary},
	"T": {vmath.V(0, -80), Primary},
	"U": {vmath.V(91, -72), Primary},
	"V": {vmath.V(179, -50), Primary},
	"W": {vmath.V(262, -12), Primary},
	"X": {vmath.V(337, 38), Primary},
	"Y": {vmath.V(403, 101), Primary},
	"Z": {vmath.V(458, 174), Primary},

	"1": {vmath.V(-315, 250), Primary},
	"2": {vmath.V(-245, 250), Primary},
	"3": {vmath.V(-175, 250), Primary},
	"4": {vmath.V(-105, 250), Primary},
	"5": {vmath.V(-35, 250), Primary},
	"6": {vmath.V(35, 250), Primary},
	"7": {vmath.V(105, 250), Primary},
	"8": {vmath.V(175, 250), Primary},
	"9": {vmath.V(245, 250), Primary},
	"0": {vmath.V(315, 250), Primary},

	Space: {vmath.V(0, 120), Primary},

	Yes:     {vmath.V(-470, -320), Tip},
	No:      {vmath.V(470, -320), Tip},
	Goodbye: {vmath.V(0, 345), Tip},
}

// order is the board reading order, used by Symbols.
var order = []Symbol{
	Yes, No,
	"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M",
	"N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z",
	"1", "2", "3", "4", "5", "6", "7", "8", "9", "0",
	Space, Goodbye,
}

// Lookup resolves a symbol to its anchor. Input is uppercased; anything not
// on the board, including the empty string, resolves to the space anchor.
func Lookup(s string) Anchor {
	if trimmed := strings.TrimSpace(s); trimmed != "" {
		s = trimmed
	}
	if a, ok := table[Symbol(strings.ToUpper(s))]; ok {
		return a
	}
	return table[Space]
}

// Known reports whether s names a symbol on the board
func Known(s string) bool {
	_, ok := table[Symbol(strings.ToUpper(s))]
	return ok
}

// Symbols returns every symbol on the board in reading order
func Symbols() []Symbol {
	out := make([]Symbol, len(order))
	copy(out, order)
	return out
}

// Project converts a design-space offset into a normalized board position
// where (50,50) is the center.
func Project(offset vmath.Vec2, width, height float64) vmath.Vec2 {
	return vmath.Vec2{
		X: 50 + offset.X/width*100,
		Y: 50 + offset.Y/height*100,
	}
}

// Target is the normalized position of symbol s on a board of the given size
func Target(s Symbol, width, height float64) vmath.Vec2 {
	return Project(Lookup(string(s)).Offset, width, height)
}
