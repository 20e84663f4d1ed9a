package engine

import (
	"fmt"

	"planchette/board"
)

// Queue holds the symbols of the answer being spelled and how far the
// planchette has got. len(revealed) == cursor <= len(symbols).
type Queue struct {
	symbols  []board.Symbol
	cursor   int
	revealed []board.Symbol
}

// Install replaces the queue contents and rewinds it
func (q *Queue) Install(symbols []board.Symbol) {
	q.symbols = append([]board.Symbol(nil), symbols...)
	q.cursor = 0
	q.revealed = nil
}

// Clear empties the queue
func (q *Queue) Clear() {
	q.symbols = nil
	q.cursor = 0
	q.revealed = nil
}

func (q *Queue) Len() int    { return len(q.symbols) }
func (q *Queue) Cursor() int { return q.cursor }

// Done reports whether every symbol has been revealed
func (q *Queue) Done() bool {
	return q.cursor >= len(q.symbols)
}

// Current returns the symbol under the cursor
func (q *Queue) Current() (board.Symbol, bool) {
	if q.cursor < 0 || q.cursor >= len(q.symbols) {
		return "", false
	}
	return q.symbols[q.cursor], true
}

// Reveal appends the current symbol to the revealed list and advances
func (q *Queue) Reveal() (board.Symbol, error) {
	sym, ok := q.Current()
	if !ok {
		return "", fmt.Errorf("%w: cursor %d of %d", ErrMalformedQueue, q.cursor, len(q.symbols))
	}
	if len(q.revealed) != q.cursor {
		return "", fmt.Errorf("%w: %d revealed at cursor %d", ErrMalformedQueue, len(q.revealed), q.cursor)
	}
	q.revealed = append(q.revealed, sym)
	q.cursor++
	return sym, nil
}

// Revealed returns a copy of the revealed symbols
func (q *Queue) Revealed() []board.Symbol {
	return append([]board.Symbol(nil), q.revealed...)
}

// Text joins the revealed symbols
func (q *Queue) Text() string {
	return board.Join(q.revealed)
}
