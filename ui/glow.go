package ui

import (
	"math"

	"github.com/charmbracelet/harmonica"
)

const (
	glowFrequency = 5.0
	glowDamping   = 1.0
	glowEpsilon   = 0.01
)

// glow fades the most recently revealed symbol from bright back to normal
type glow struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
}

func newGlow(fps int) glow {
	return glow{spring: harmonica.NewSpring(harmonica.FPS(fps), glowFrequency, glowDamping)}
}

// kick lights the glow fully
func (g *glow) kick() {
	g.pos, g.vel = 1, 0
}

func (g *glow) step() {
	if g.settled() {
		return
	}
	g.pos, g.vel = g.spring.Update(g.pos, g.vel, 0)
	if math.Abs(g.pos) < glowEpsilon && math.Abs(g.vel) < glowEpsilon {
		g.pos, g.vel = 0, 0
	}
}

func (g glow) settled() bool {
	return g.pos == 0 && g.vel == 0
}

func (g glow) level() float64 {
	return max(0, min(g.pos, 1))
}
