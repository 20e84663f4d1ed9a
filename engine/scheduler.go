// Package engine runs the planchette: it drains a queue of symbols through
// a move/pause cycle, writes the pointer each frame and tracks whose turn
// it is.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"planchette/board"
	"planchette/motion"
	"planchette/vmath"
)

// Scheduler owns the pointer, the answer queue and the turn. All methods
// are safe for concurrent use; subscribers are called without the lock
// held.
type Scheduler struct {
	mu sync.Mutex

	clock     Clock
	frames    FrameSource
	resolve   func(board.Symbol) board.Anchor
	width     float64
	height    float64
	timing    motion.Timing
	tipOffset vmath.Vec2
	logger    *log.Logger

	pointer  Pointer
	queue    Queue
	revealed string
	turn     Turn
	phase    Phase
	hop      hop
	lastErr  error
	closed   bool

	// release ends the live frame registration; gen invalidates ticks
	// from registrations that have already been released
	release func()
	gen     uint64

	listeners map[int]func(Event)
	nextID    int
}

// hop is the symbol currently being visited
type hop struct {
	symbol   board.Symbol
	from     vmath.Vec2
	to       vmath.Vec2
	kind     board.AnchorKind
	rotation float64
	start    time.Time
	duration time.Duration
	paused   time.Time
}

type Option func(*Scheduler)

func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithFrames(f FrameSource) Option {
	return func(s *Scheduler) { s.frames = f }
}

// WithBoard sets the design size of the board artwork
func WithBoard(width, height float64) Option {
	return func(s *Scheduler) {
		if width > 0 && height > 0 {
			s.width, s.height = width, height
		}
	}
}

func WithTiming(t motion.Timing) Option {
	return func(s *Scheduler) { s.timing = t }
}

func WithTipOffset(v vmath.Vec2) Option {
	return func(s *Scheduler) { s.tipOffset = v }
}

// WithResolver replaces the coordinate table lookup
func WithResolver(fn func(board.Symbol) board.Anchor) Option {
	return func(s *Scheduler) { s.resolve = fn }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// New creates an idle scheduler with the planchette at the board center
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:     SystemClock{},
		frames:    TickerFrames{Interval: DefaultFrameInterval},
		resolve:   func(sym board.Symbol) board.Anchor { return board.Lookup(string(sym)) },
		width:     board.DesignWidth,
		height:    board.DesignHeight,
		timing:    motion.DefaultTiming(),
		tipOffset: motion.DefaultTipOffset,
		logger:    log.Default().WithPrefix("planchette"),
		pointer:   Pointer{Position: vmath.V(50, 50)},
		listeners: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn for every event and returns its unsubscribe func
func (s *Scheduler) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// BeginQuestion moves the turn from awaiting-input to processing
func (s *Scheduler) BeginQuestion() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.turn != AwaitingInput {
		return fmt.Errorf("%w: turn is %s", ErrNotAwaitingInput, s.turn)
	}
	s.turn = Processing
	s.lastErr = nil
	return nil
}

// Enqueue replaces whatever is being spelled with symbols and starts
// spelling from the pointer's current position.
func (s *Scheduler) Enqueue(symbols []board.Symbol) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Warn("Enqueue on closed scheduler", "symbols", len(symbols))
		return
	}

	var events []Event
	if s.phase != PhaseIdle {
		s.logger.Debug("Replacing in-flight answer", "cursor", s.queue.Cursor(), "total", s.queue.Len())
		s.stopLocked()
		events = append(events, Event{Kind: EventCancelled, Snapshot: s.snapshotLocked()})
	}

	s.queue.Install(symbols)
	s.revealed = ""
	s.lastErr = nil
	s.turn = Animating
	s.logger.Debug("Enqueue", "symbols", len(symbols))

	if s.queue.Done() {
		s.turn = AwaitingInput
		events = append(events, Event{Kind: EventFinalized, Snapshot: s.snapshotLocked()})
	} else {
		events = append(events, s.guard(func() []Event {
			if err := s.beginMoveLocked(s.clock.Now()); err != nil {
				return []Event{s.faultLocked(err)}
			}
			s.acquireLocked()
			return nil
		})...)
	}

	s.unlockAndDispatch(events)
}

// Cancel drops the answer in progress and hands the turn back to the
// sitter. The pointer stays where it is.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	wasActive := s.phase != PhaseIdle
	s.stopLocked()
	s.revealed = ""
	s.turn = AwaitingInput

	var events []Event
	if wasActive {
		s.logger.Debug("Cancelled")
		events = append(events, Event{Kind: EventCancelled, Snapshot: s.snapshotLocked()})
	}
	s.unlockAndDispatch(events)
}

// Fail cancels like Cancel and records err, e.g. a failed answer request
func (s *Scheduler) Fail(err error) {
	s.mu.Lock()
	s.stopLocked()
	s.turn = AwaitingInput
	s.lastErr = err
	s.logger.Error("Answer failed", "err", err)
	s.unlockAndDispatch([]Event{{Kind: EventFault, Err: err, Snapshot: s.snapshotLocked()}})
}

// Close cancels any animation and refuses further answers
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.stopLocked()
	s.closed = true
	s.turn = AwaitingInput
	s.mu.Unlock()
}

// Tick advances the animation to now. Frame sources call it through the
// registration made on Enqueue; it can also be driven directly.
func (s *Scheduler) Tick(now time.Time) {
	s.mu.Lock()
	s.unlockAndDispatch(s.stepLocked(now))
}

// tick is the frame source callback for registration gen
func (s *Scheduler) tick(gen uint64, now time.Time) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.unlockAndDispatch(s.stepLocked(now))
}

func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// RevealedText is the part of the answer spelled so far, or the whole
// answer once it has been finalized
func (s *Scheduler) RevealedText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revealed
}

func (s *Scheduler) IsAnimating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase != PhaseIdle
}

func (s *Scheduler) Turn() Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

func (s *Scheduler) stepLocked(now time.Time) []Event {
	return s.guard(func() []Event {
		switch s.phase {
		case PhaseMoving:
			s.moveLocked(now)
			return []Event{{Kind: EventFrame, Snapshot: s.snapshotLocked()}}

		case PhasePaused:
			if now.Sub(s.hop.paused) < s.timing.Pause {
				return nil
			}
			sym, err := s.queue.Reveal()
			if err != nil {
				return []Event{s.faultLocked(err)}
			}
			s.revealed = s.queue.Text()
			events := []Event{{Kind: EventReveal, Symbol: sym, Text: s.revealed, Snapshot: s.snapshotLocked()}}

			if s.queue.Done() {
				text := s.revealed
				s.stopLocked()
				s.turn = AwaitingInput
				s.logger.Debug("Answer spelled", "text", text)
				return append(events, Event{Kind: EventFinalized, Text: text, Snapshot: s.snapshotLocked()})
			}
			if err := s.beginMoveLocked(now); err != nil {
				return append(events, s.faultLocked(err))
			}
			return events
		}
		return nil
	})
}

// guard runs fn and turns a panic into a fault
func (s *Scheduler) guard(fn func() []Event) (events []Event) {
	defer func() {
		if r := recover(); r != nil {
			events = append(events, s.faultLocked(fmt.Errorf("%w: %v", ErrTickFault, r)))
		}
	}()
	return fn()
}

func (s *Scheduler) beginMoveLocked(now time.Time) error {
	sym, ok := s.queue.Current()
	if !ok {
		return fmt.Errorf("%w: nothing at cursor %d", ErrMalformedQueue, s.queue.Cursor())
	}
	anchor := s.resolve(sym)
	h := hop{
		symbol:   sym,
		from:     s.pointer.Position,
		to:       board.Project(anchor.Offset, s.width, s.height),
		kind:     anchor.Kind,
		rotation: s.pointer.Rotation,
		start:    now,
	}
	h.duration = motion.MoveDuration(h.from, h.to, s.timing)
	s.hop = h
	s.phase = PhaseMoving
	return nil
}

func (s *Scheduler) moveLocked(now time.Time) {
	h := &s.hop

	raw := 1.0
	if h.duration > 0 {
		raw = float64(now.Sub(h.start)) / float64(h.duration)
		raw = max(0, min(raw, 1))
	}

	pos := motion.CurvePosition(h.from, h.to, motion.EaseOutCubic(raw))
	angle := h.rotation
	if !motion.Degenerate(h.from, h.to) {
		angle = motion.CurveTangentAngle(h.from, h.to, motion.EaseInOutCubic(raw))
	}
	if h.kind == board.Tip {
		pos = motion.TipCorrect(pos, angle, s.tipOffset)
	}
	s.pointer = Pointer{Position: pos, Rotation: angle}

	if raw >= 1 {
		s.phase = PhasePaused
		h.paused = now
	}
}

func (s *Scheduler) acquireLocked() {
	s.gen++
	gen := s.gen
	s.release = s.frames.Acquire(func(now time.Time) { s.tick(gen, now) })
}

// stopLocked releases the frame registration and empties the queue
func (s *Scheduler) stopLocked() {
	if s.release != nil {
		s.release()
		s.release = nil
	}
	s.gen++
	s.phase = PhaseIdle
	s.hop = hop{}
	s.queue.Clear()
}

func (s *Scheduler) faultLocked(err error) Event {
	s.logger.Error("Animation fault", "err", err, "cursor", s.queue.Cursor(), "total", s.queue.Len())
	s.stopLocked()
	s.turn = AwaitingInput
	s.lastErr = err
	return Event{Kind: EventFault, Err: err, Snapshot: s.snapshotLocked()}
}

func (s *Scheduler) snapshotLocked() Snapshot {
	return Snapshot{
		Pointer:   s.pointer,
		Revealed:  s.revealed,
		Animating: s.phase != PhaseIdle,
		Turn:      s.turn,
		Phase:     s.phase,
		Cursor:    s.queue.Cursor(),
		Total:     s.queue.Len(),
		Current:   s.hop.symbol,
		From:      s.hop.from,
		Target:    s.hop.to,
		Err:       s.lastErr,
	}
}

// unlockAndDispatch releases the lock, then delivers events
func (s *Scheduler) unlockAndDispatch(events []Event) {
	if len(events) == 0 || len(s.listeners) == 0 {
		s.mu.Unlock()
		return
	}
	listeners := make([]func(Event), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, ev := range events {
		for _, fn := range listeners {
			s.notify(fn, ev)
		}
	}
}

func (s *Scheduler) notify(fn func(Event), ev Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Subscriber panicked", "event", ev.Kind, "panic", r)
		}
	}()
	fn(ev)
}
