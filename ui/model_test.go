package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"planchette/engine"
	"planchette/history"
	"planchette/oracle"
)

var epoch = time.Date(2025, 10, 31, 23, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T, store *history.Store) Model {
	t.Helper()
	return New(Options{
		SessionID: "test-session",
		Store:     store,
		Renderer:  lipgloss.NewRenderer(io.Discard),
		Clock:     engine.NewManualClock(epoch),
		Logger:    log.New(io.Discard),
	})
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		if r == ' ' {
			m, _ = update(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
			continue
		}
		m, _ = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

// spell runs frames 50ms apart until the planchette rests, returning the
// command produced by the last frame
func spell(t *testing.T, m Model) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	at := epoch
	for i := 0; i < 2000 && m.Scheduler().IsAnimating(); i++ {
		at = at.Add(50 * time.Millisecond)
		m, cmd = update(m, frameMsg(at))
	}
	if m.Scheduler().IsAnimating() {
		t.Fatalf("planchette never came to rest")
	}
	return m, cmd
}

func TestTyping(t *testing.T) {
	m := newTestModel(t, nil)
	m = typeText(m, "is it")
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyBackspace})
	if got := string(m.input); got != "is i" {
		t.Errorf("expected %q, got %q", "is i", got)
	}
	m = typeText(m, strings.Repeat("x", 200))
	if len(m.input) != maxQuestion {
		t.Errorf("expected input capped at %d, got %d", maxQuestion, len(m.input))
	}
}

func TestEmptyQuestionIgnored(t *testing.T) {
	m := newTestModel(t, nil)
	m = typeText(m, "   ")
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || m.Scheduler().Turn() != engine.AwaitingInput {
		t.Errorf("expected blank question to be ignored")
	}
}

func TestAskAndSpell(t *testing.T) {
	m := newTestModel(t, nil)
	m = typeText(m, "is anyone there")
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected a command asking the oracle")
	}
	if m.Scheduler().Turn() != engine.Processing || len(m.input) != 0 {
		t.Errorf("expected processing with cleared input")
	}

	// a second question is refused while the first is out
	m = typeText(m, "hello")
	m, again := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if again != nil || m.notice == "" {
		t.Errorf("expected second question refused with a notice")
	}
	m.input = nil

	msg := cmd()
	answer, ok := msg.(answerMsg)
	if !ok {
		t.Fatalf("expected answerMsg, got %T", msg)
	}
	m, cmd = update(m, answer)
	if cmd == nil || m.Scheduler().Turn() != engine.Animating {
		t.Fatalf("expected animation to start with a frame tick")
	}

	m, _ = spell(t, m)
	got := m.Scheduler().RevealedText()
	if got != "YES" && got != "NO" {
		t.Errorf("expected YES or NO, got %q", got)
	}
	if m.Scheduler().Turn() != engine.AwaitingInput {
		t.Errorf("expected awaiting input after spelling, got %s", m.Scheduler().Turn())
	}
	if m.lastReveal == "" || !strings.Contains(m.View(), "» "+got) {
		t.Errorf("expected revealed line with %q", got)
	}
}

func TestEscCancelsThenQuits(t *testing.T) {
	m := newTestModel(t, nil)
	m, _ = update(m, answerMsg{text: "goodbye"})
	m, _ = update(m, frameMsg(epoch.Add(100*time.Millisecond)))
	if !m.Scheduler().IsAnimating() {
		t.Fatalf("expected animation in progress")
	}

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEsc})
	if cmd != nil {
		t.Errorf("expected esc during animation not to quit")
	}
	if m.Scheduler().IsAnimating() || m.Scheduler().Turn() != engine.AwaitingInput {
		t.Errorf("expected cancelled animation")
	}

	_, cmd = update(m, tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("expected tea.QuitMsg")
	}
}

func TestAnswerErrorReturnsTurn(t *testing.T) {
	m := newTestModel(t, nil)
	m = typeText(m, "anyone")
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(m, answerErrMsg{seq: m.asked, err: errors.New("connection refused")})

	snap := m.Scheduler().Snapshot()
	if snap.Turn != engine.AwaitingInput || snap.Err == nil {
		t.Errorf("expected awaiting input with the error recorded, got %+v", snap)
	}
	if m.notice == "" {
		t.Errorf("expected a notice for the sitter")
	}
}

func TestEscWithdrawsPendingQuestion(t *testing.T) {
	m := newTestModel(t, nil)
	m = typeText(m, "is anyone there")
	m, ask := update(m, tea.KeyMsg{Type: tea.KeyEnter})

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEsc})
	if cmd != nil {
		t.Fatalf("expected esc while waiting for an answer not to quit")
	}
	if m.Scheduler().Turn() != engine.AwaitingInput {
		t.Errorf("expected awaiting input, got %s", m.Scheduler().Turn())
	}

	// the withdrawn question's answer arrives late and is ignored
	m, _ = update(m, ask())
	if m.Scheduler().IsAnimating() || m.Scheduler().Turn() != engine.AwaitingInput {
		t.Errorf("expected the late answer to be dropped")
	}

	m = typeText(m, "hello")
	if _, cmd = update(m, tea.KeyMsg{Type: tea.KeyEnter}); cmd == nil {
		t.Errorf("expected a new question to be accepted")
	}
}

func TestAnswerSurvivesOverloadedOracle(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"YES"}]}`))
	}))
	defer srv.Close()

	m := New(Options{
		SessionID: "test-session",
		Responder: oracle.NewAnthropic("k", "").WithBaseURL(srv.URL).WithRetry(oracle.DefaultAttempts, time.Millisecond),
		Renderer:  lipgloss.NewRenderer(io.Discard),
		Clock:     engine.NewManualClock(epoch),
		Logger:    log.New(io.Discard),
	})
	m = typeText(m, "are you near")
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})

	msg := cmd()
	if _, ok := msg.(answerMsg); !ok {
		t.Fatalf("expected answerMsg, got %T (%d calls)", msg, calls.Load())
	}
	m, _ = update(m, msg)
	m, _ = spell(t, m)
	if got := m.Scheduler().RevealedText(); got != "YES" {
		t.Errorf("expected YES, got %q", got)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
}

func TestFrameIntervalOption(t *testing.T) {
	if m := New(Options{FPS: 30}); m.interval != time.Second/30 {
		t.Errorf("expected interval from FPS, got %v", m.interval)
	}
	if m := New(Options{FPS: 30, FrameInterval: 20 * time.Millisecond}); m.interval != 20*time.Millisecond {
		t.Errorf("expected explicit interval, got %v", m.interval)
	}
}

func TestFinalAnswerSaved(t *testing.T) {
	store, err := history.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	m := newTestModel(t, store)
	m = typeText(m, "who is there")
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(m, cmd())
	m, cmd = spell(t, m)

	var saved bool
	for _, msg := range run(cmd) {
		if s, ok := msg.(savedMsg); ok {
			if s.err != nil {
				t.Fatalf("save failed: %v", s.err)
			}
			saved = true
		}
	}
	if !saved {
		t.Fatalf("expected the finished answer to be saved")
	}

	msgs, err := store.Recent(context.Background(), "test-session", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[0].Role != history.RoleUser || msgs[1].Role != history.RoleAssistant {
		t.Fatalf("expected question and answer stored, got %+v", msgs)
	}
	if msgs[1].Content != m.Scheduler().RevealedText() {
		t.Errorf("expected stored answer %q, got %q", m.Scheduler().RevealedText(), msgs[1].Content)
	}
}

// run executes cmd, expanding batches
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, run(c)...)
	}
	return out
}

func TestViewFitsWindow(t *testing.T) {
	m := newTestModel(t, nil)
	for _, size := range []tea.WindowSizeMsg{{Width: 0, Height: 0}, {Width: 10, Height: 3}, {Width: 120, Height: 40}} {
		m, _ = update(m, size)
		view := m.View()
		if !strings.Contains(view, "? _") {
			t.Errorf("%dx%d: expected an input line", size.Width, size.Height)
		}
		cols, rows := m.boardSize()
		if got := strings.Count(view, "\n"); got != rows+3 {
			t.Errorf("%dx%d: expected %d lines, got %d", size.Width, size.Height, rows+3, got)
		}
		if cols < 20 || rows < 5 {
			t.Errorf("expected a minimum board, got %dx%d", cols, rows)
		}
	}
}

func TestArrow(t *testing.T) {
	tests := map[float64]string{
		0: "↑", 22: "↑", 23: "↗", 90: "→", 180: "↓", 270: "←", -90: "←", 359: "↑", 405: "↗",
	}
	for deg, want := range tests {
		if got := arrow(deg); got != want {
			t.Errorf("arrow(%v): expected %s, got %s", deg, want, got)
		}
	}
}

func TestGlowSettles(t *testing.T) {
	g := newGlow(60)
	if !g.settled() {
		t.Fatalf("expected a fresh glow to be dark")
	}
	g.kick()
	if g.level() != 1 || g.settled() {
		t.Fatalf("expected a kicked glow to be lit")
	}
	prev := g.level()
	for i := 0; i < 600 && !g.settled(); i++ {
		g.step()
		if g.level() > prev+1e-9 {
			t.Errorf("expected glow to fade, rose to %v", g.level())
		}
		prev = g.level()
	}
	if !g.settled() {
		t.Errorf("expected glow to settle")
	}
}

func TestTeaFrames(t *testing.T) {
	var f teaFrames
	calls := 0
	release := f.Acquire(func(time.Time) { calls++ })
	f.fire(epoch)
	if !f.active() || calls != 1 {
		t.Errorf("expected live registration to fire")
	}

	releaseNext := f.Acquire(func(time.Time) { calls += 10 })
	release()
	if !f.active() {
		t.Errorf("expected stale release to leave the new registration alone")
	}
	f.fire(epoch)
	if calls != 11 {
		t.Errorf("expected the new callback to fire, calls=%d", calls)
	}
	releaseNext()
	f.fire(epoch)
	if f.active() || calls != 11 {
		t.Errorf("expected no callback after release")
	}
}
