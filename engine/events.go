package engine

import (
	"planchette/board"
	"planchette/vmath"
)

// Pointer is where the planchette is and which way it faces. Rotation is in
// degrees, 0 facing up the board.
type Pointer struct {
	Position vmath.Vec2
	Rotation float64
}

// Snapshot is a consistent read of the scheduler state
type Snapshot struct {
	Pointer   Pointer
	Revealed  string
	Animating bool
	Turn      Turn
	Phase     Phase
	Cursor    int
	Total     int
	// Current, From and Target describe the hop in progress
	Current board.Symbol
	From    vmath.Vec2
	Target  vmath.Vec2
	Err     error
}

type EventKind int

const (
	// EventFrame - the pointer moved
	EventFrame EventKind = iota
	// EventReveal - a symbol was added to the revealed text
	EventReveal
	// EventFinalized - the whole answer has been spelled; Text holds it
	EventFinalized
	// EventCancelled - an in-flight answer was dropped
	EventCancelled
	// EventFault - the animation was torn down after a failure; Err holds it
	EventFault
)

func (k EventKind) String() string {
	switch k {
	case EventFrame:
		return "frame"
	case EventReveal:
		return "reveal"
	case EventFinalized:
		return "finalized"
	case EventCancelled:
		return "cancelled"
	case EventFault:
		return "fault"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers after the scheduler state changed
type Event struct {
	Kind     EventKind
	Snapshot Snapshot
	Symbol   board.Symbol
	Text     string
	Err      error
}
