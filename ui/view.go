package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"planchette/board"
	"planchette/engine"
	"planchette/vmath"
)

const (
	defaultCols = 80
	defaultRows = 24
	// rows below the board: revealed text, status, input, notice
	chromeRows = 4
)

type styles struct {
	board    lipgloss.Style
	label    lipgloss.Style
	token    lipgloss.Style
	pointer  lipgloss.Style
	target   lipgloss.Style
	revealed lipgloss.Style
	glow     []lipgloss.Style
	status   lipgloss.Style
	notice   lipgloss.Style
	input    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	wood := r.NewStyle().Background(lipgloss.Color("#3b2416"))
	return styles{
		board:    wood,
		label:    wood.Foreground(lipgloss.Color("#e8d5b0")),
		token:    wood.Foreground(lipgloss.Color("#f0c060")).Bold(true),
		pointer:  r.NewStyle().Background(lipgloss.Color("#f5f0e6")).Foreground(lipgloss.Color("#000000")).Bold(true),
		target:   wood.Foreground(lipgloss.Color("#8a6a4a")),
		revealed: r.NewStyle().Foreground(lipgloss.Color("#e8d5b0")).Bold(true),
		glow: []lipgloss.Style{
			r.NewStyle().Foreground(lipgloss.Color("#e8d5b0")).Bold(true),
			r.NewStyle().Foreground(lipgloss.Color("#f5c97a")).Bold(true),
			r.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true),
		},
		status: r.NewStyle().Foreground(lipgloss.Color("8")),
		notice: r.NewStyle().Foreground(lipgloss.Color("#c0504d")),
		input:  r.NewStyle().Foreground(lipgloss.Color("10")),
	}
}

var arrows = [8]string{"↑", "↗", "→", "↘", "↓", "↙", "←", "↖"}

// arrow picks the glyph closest to a heading in degrees, 0 facing up
func arrow(rotation float64) string {
	deg := math.Mod(rotation, 360)
	if deg < 0 {
		deg += 360
	}
	return arrows[int(math.Round(deg/45))%8]
}

type cellKind int

const (
	cellEmpty cellKind = iota
	cellLabel
	cellToken
	cellTarget
)

type cell struct {
	text string
	kind cellKind
}

// grid is the board sampled onto terminal cells
type grid struct {
	cols, rows int
	cells      []cell
}

func newGrid(cols, rows int) grid {
	g := grid{cols: cols, rows: rows, cells: make([]cell, cols*rows)}
	for i := range g.cells {
		g.cells[i] = cell{text: " "}
	}
	return g
}

// at maps a normalized board position to a cell
func (g grid) at(p vmath.Vec2) (col, row int) {
	col = int(math.Round(p.X / 100 * float64(g.cols-1)))
	row = int(math.Round(p.Y / 100 * float64(g.rows-1)))
	return max(0, min(col, g.cols-1)), max(0, min(row, g.rows-1))
}

func (g grid) set(col, row int, c cell) {
	if col < 0 || row < 0 || col >= g.cols || row >= g.rows {
		return
	}
	g.cells[row*g.cols+col] = c
}

func (g grid) get(col, row int) cell {
	return g.cells[row*g.cols+col]
}

// boardSize fits the board into the terminal, keeping its aspect ratio
// with cells about twice as tall as they are wide
func (m Model) boardSize() (cols, rows int) {
	w, h := m.width, m.height
	if w <= 0 {
		w = defaultCols
	}
	if h <= 0 {
		h = defaultRows
	}
	cols = max(w, 20)
	rows = max(h-chromeRows, 5)
	if fit := int(float64(cols) * m.boardH / m.boardW / 2); fit < rows {
		rows = max(fit, 5)
	}
	return cols, rows
}

func (m Model) View() string {
	snap := m.sched.Snapshot()
	cols, rows := m.boardSize()
	g := newGrid(cols, rows)

	for _, sym := range board.Symbols() {
		if sym == board.Space {
			continue
		}
		col, row := g.at(board.Target(sym, m.boardW, m.boardH))
		kind := cellLabel
		if board.Lookup(string(sym)).Kind == board.Tip {
			kind = cellToken
		}
		text := string(sym)
		start := col - len(text)/2
		for i, r := range text {
			g.set(start+i, row, cell{text: string(r), kind: kind})
		}
	}

	if snap.Phase == engine.PhaseMoving {
		col, row := g.at(snap.Target)
		if g.get(col, row).kind == cellEmpty {
			g.set(col, row, cell{text: "◌", kind: cellTarget})
		}
	}

	pcol, prow := g.at(snap.Pointer.Position)

	var b strings.Builder
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.cols; col++ {
			c := g.get(col, row)
			if col == pcol && row == prow {
				text := arrow(snap.Pointer.Rotation)
				if c.kind == cellLabel || c.kind == cellToken {
					text = c.text
				}
				b.WriteString(m.styles.pointer.Render(text))
				continue
			}
			switch c.kind {
			case cellLabel:
				b.WriteString(m.styles.label.Render(c.text))
			case cellToken:
				b.WriteString(m.styles.token.Render(c.text))
			case cellTarget:
				b.WriteString(m.styles.target.Render(c.text))
			default:
				b.WriteString(m.styles.board.Render(c.text))
			}
		}
		b.WriteRune('\n')
	}

	b.WriteString(m.revealedLine(snap))
	b.WriteRune('\n')
	b.WriteString(m.styles.status.Render(statusLine(snap)))
	b.WriteRune('\n')
	b.WriteString(m.styles.input.Render("? " + string(m.input) + "_"))
	b.WriteRune('\n')
	if m.notice != "" {
		b.WriteString(m.styles.notice.Render(m.notice))
	}
	return b.String()
}

func (m Model) revealedLine(snap engine.Snapshot) string {
	text := snap.Revealed
	last := string(m.lastReveal)
	if !strings.HasSuffix(text, last) {
		last = ""
	}
	head := text[:len(text)-len(last)]
	lvl := int(math.Round(m.glow.level() * float64(len(m.styles.glow)-1)))
	return "» " + m.styles.revealed.Render(head) + m.styles.glow[lvl].Render(last)
}

func statusLine(snap engine.Snapshot) string {
	switch snap.Turn {
	case engine.Processing:
		return "the spirit is listening...  esc to withdraw"
	case engine.Animating:
		return fmt.Sprintf("the planchette moves (%d/%d)  esc to silence", snap.Cursor, snap.Total)
	default:
		if snap.Err != nil {
			return "ask again  esc to leave"
		}
		return "ask a question  esc to leave"
	}
}
