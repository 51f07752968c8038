package game

import (
	"math/rand/v2"

	log "github.com/sirupsen/logrus"
)

// FixedInput holds the cursor at one point.
type FixedInput Point

func (f FixedInput) Cursor() Point {
	return Point(f)
}

// WanderInput drifts the cursor to a new random point every few ticks, the
// way an idle bot would steer.
type WanderInput struct {
	Width  int
	Height int
	Every  int

	rng     *rand.Rand
	current Point
	calls   int
}

func NewWanderInput(width, height, every int, seed uint64) *WanderInput {
	if every <= 0 {
		every = 70
	}
	return &WanderInput{
		Width:  width,
		Height: height,
		Every:  every,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (w *WanderInput) Cursor() Point {
	if w.calls%w.Every == 0 {
		w.current = Point{X: w.rng.IntN(w.Width), Y: w.rng.IntN(w.Height)}
	}
	w.calls++
	return w.current
}

// LogRenderer stands in for a screen: it logs a summary of every n-th frame.
type LogRenderer struct {
	Every  uint64
	frames uint64
}

func (r *LogRenderer) Render(frame Frame) {
	r.frames++
	if r.Every > 1 && r.frames%r.Every != 1 {
		return
	}

	leaders := make([]string, len(frame.Leaderboard))
	for i, p := range frame.Leaderboard {
		leaders[i] = p.Name
	}

	log.WithFields(log.Fields{
		"time":    frame.TimeLabel,
		"score":   frame.Score,
		"x":       frame.Self.X,
		"y":       frame.Self.Y,
		"players": len(frame.Players),
		"orbs":    len(frame.Orbs),
		"leaders": leaders,
	}).Info("Frame")
}
