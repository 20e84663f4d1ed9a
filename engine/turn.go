package engine

// Turn says who may act next
type Turn int

const (
	// AwaitingInput - the sitter may ask a question
	AwaitingInput Turn = iota
	// Processing - a question is out, waiting for its answer
	Processing
	// Animating - the planchette is spelling the answer
	Animating
)

func (t Turn) String() string {
	switch t {
	case AwaitingInput:
		return "awaiting-input"
	case Processing:
		return "processing"
	case Animating:
		return "animating"
	default:
		return "unknown"
	}
}

// Phase is the scheduler's per-symbol state
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseMoving
	PhasePaused
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseMoving:
		return "moving"
	case PhasePaused:
		return "paused"
	default:
		return "unknown"
	}
}
