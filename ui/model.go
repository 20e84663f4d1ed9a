// Package ui is the terminal séance: a Bubble Tea model that takes the
// sitter's question, asks the oracle and renders the planchette spelling
// the answer.
package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"planchette/board"
	"planchette/engine"
	"planchette/history"
	"planchette/oracle"
)

const (
	maxQuestion   = 80
	historyWindow = 20
)

// Options configures a séance
type Options struct {
	SessionID     string
	Responder     oracle.Responder
	Store         *history.Store
	Renderer      *lipgloss.Renderer
	FPS           int
	FrameInterval time.Duration
	BoardWidth    float64
	BoardHeight   float64
	AnswerTimeout time.Duration
	Clock         engine.Clock
	Logger        *log.Logger
}

// answers carry the number of the question they reply to so that a
// dropped question's late answer is ignored
type answerMsg struct {
	seq  int
	text string
}

type answerErrMsg struct {
	seq int
	err error
}

type savedMsg struct{ err error }

// Model is one séance. It is a value like any Bubble Tea model but shares
// its scheduler with every copy.
type Model struct {
	session  string
	sched    *engine.Scheduler
	frames   *teaFrames
	inbox    *inbox
	oracle   oracle.Responder
	store    *history.Store
	timeout  time.Duration
	interval time.Duration
	styles   styles
	logger   *log.Logger

	boardW, boardH float64
	width, height  int
	input          []rune
	ticking        bool
	asked          int
	glow           glow
	lastReveal     board.Symbol
	notice         string
}

// inbox collects scheduler events raised while Update runs
type inbox struct {
	mu     sync.Mutex
	events []engine.Event
}

func (b *inbox) push(ev engine.Event) {
	if ev.Kind == engine.EventFrame {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
}

func (b *inbox) drain() []engine.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.events
	b.events = nil
	return out
}

// New creates a séance with the planchette resting at the board center
func New(opts Options) Model {
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}
	if opts.Responder == nil {
		opts.Responder = oracle.Spirit{}
	}
	if opts.Renderer == nil {
		opts.Renderer = lipgloss.DefaultRenderer()
	}
	if opts.FPS <= 0 {
		opts.FPS = 60
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = time.Second / time.Duration(opts.FPS)
	}
	if opts.BoardWidth <= 0 || opts.BoardHeight <= 0 {
		opts.BoardWidth, opts.BoardHeight = board.DesignWidth, board.DesignHeight
	}
	if opts.AnswerTimeout <= 0 {
		opts.AnswerTimeout = 30 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = engine.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	logger := opts.Logger.With("session", opts.SessionID)

	frames := &teaFrames{}
	sched := engine.New(
		engine.WithFrames(frames),
		engine.WithClock(opts.Clock),
		engine.WithBoard(opts.BoardWidth, opts.BoardHeight),
		engine.WithLogger(logger.WithPrefix("planchette")),
	)
	box := &inbox{}
	sched.Subscribe(box.push)

	return Model{
		session:  opts.SessionID,
		sched:    sched,
		frames:   frames,
		inbox:    box,
		oracle:   opts.Responder,
		store:    opts.Store,
		timeout:  opts.AnswerTimeout,
		interval: opts.FrameInterval,
		styles:   newStyles(opts.Renderer),
		logger:   logger,
		boardW:   opts.BoardWidth,
		boardH:   opts.BoardHeight,
		glow:     newGlow(opts.FPS),
	}
}

// Scheduler exposes the séance's planchette
func (m Model) Scheduler() *engine.Scheduler {
	return m.sched
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.sched.Close()
			return m, tea.Quit
		case tea.KeyEsc:
			switch {
			case m.sched.IsAnimating():
				m.sched.Cancel()
				m.notice = "the spirit falls silent"
			case m.sched.Turn() == engine.Processing:
				m.asked++
				m.sched.Cancel()
				m.notice = "the question fades"
			default:
				m.sched.Close()
				return m, tea.Quit
			}
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyBackspace:
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
		case tea.KeySpace:
			m.typeRunes([]rune{' '})
		case tea.KeyRunes:
			m.typeRunes(msg.Runes)
		}

	case answerMsg:
		if msg.seq != m.asked {
			m.logger.Debug("Dropping late answer", "answer", msg.text)
			return m, nil
		}
		m.sched.Enqueue(board.Spell(msg.text))
		return m.sync()

	case answerErrMsg:
		if msg.seq != m.asked {
			return m, nil
		}
		m.sched.Fail(msg.err)
		m.notice = "the spirit could not be reached"
		return m.sync()

	case savedMsg:
		if msg.err != nil {
			m.logger.Warn("Could not save message", "error", msg.err)
		}

	case frameMsg:
		m.ticking = false
		m.frames.fire(time.Time(msg))
		m.glow.step()
		return m.sync()
	}
	return m, nil
}

func (m *Model) typeRunes(rs []rune) {
	for _, r := range rs {
		if len(m.input) >= maxQuestion {
			return
		}
		m.input = append(m.input, r)
	}
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	question := strings.TrimSpace(string(m.input))
	if question == "" {
		return m, nil
	}
	if err := m.sched.BeginQuestion(); err != nil {
		if errors.Is(err, engine.ErrNotAwaitingInput) {
			m.notice = "wait for the planchette to come to rest"
		}
		return m, nil
	}
	m.input = nil
	m.notice = ""
	m.asked++
	return m, m.ask(m.asked, question)
}

// ask records the question and fetches the answer
func (m Model) ask(seq int, question string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		var past []history.Message
		if m.store != nil {
			var err error
			if past, err = m.store.Recent(ctx, m.session, historyWindow); err != nil {
				m.logger.Warn("Could not load history", "error", err)
			}
			if _, err := m.store.Append(ctx, history.Message{
				SessionID: m.session,
				Role:      history.RoleUser,
				Content:   question,
			}); err != nil {
				m.logger.Warn("Could not save question", "error", err)
			}
		}

		answer, err := m.oracle.Answer(ctx, question, past)
		if err != nil {
			return answerErrMsg{seq: seq, err: err}
		}
		m.logger.Debug("Answer received", "question", question, "answer", answer)
		return answerMsg{seq: seq, text: answer}
	}
}

func (m Model) save(text string) tea.Cmd {
	store, session := m.store, m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, err := store.Append(ctx, history.Message{
			SessionID: session,
			Role:      history.RoleAssistant,
			Content:   text,
		})
		return savedMsg{err: err}
	}
}

// sync reacts to scheduler events and keeps the frame loop running while
// anything is still moving
func (m Model) sync() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	for _, ev := range m.inbox.drain() {
		switch ev.Kind {
		case engine.EventReveal:
			m.lastReveal = ev.Symbol
			m.glow.kick()
		case engine.EventFinalized:
			if ev.Text != "" && m.store != nil {
				cmds = append(cmds, m.save(ev.Text))
			}
		case engine.EventFault:
			m.logger.Warn("Séance interrupted", "error", ev.Err)
		}
	}
	if !m.ticking && (m.frames.active() || !m.glow.settled()) {
		m.ticking = true
		cmds = append(cmds, animate(m.interval))
	}
	return m, tea.Batch(cmds...)
}
