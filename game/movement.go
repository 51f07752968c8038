package game

import "math"

// Rules are the movement constraints the client predicts against. The
// authority may still override any position the client proposes.
type Rules struct {
	Width         int
	Height        int
	Radius        int
	BaseSpeed     int
	GrowthDivisor float64
	Center        Point
}

func DefaultRules() Rules {
	return Rules{
		Width:         WorldWidth,
		Height:        WorldHeight,
		Radius:        PlayerRadius,
		BaseSpeed:     BaseSpeed,
		GrowthDivisor: GrowthDivisor,
		Center:        Point{X: WorldWidth / 2, Y: WorldHeight / 2},
	}
}

// Speed slows a player down as its score grows, never below 1.
func (r Rules) Speed(score float64) int {
	speed := float64(r.BaseSpeed) - math.Floor(score/r.GrowthDivisor)
	if !(speed >= 1) {
		return 1
	}
	return int(speed)
}

// PlanMove steps the player one tick toward the cursor. Each axis moves
// independently and only when the cursor is at least a radius away from the
// viewport center. Both axes are clamped every tick, so an avatar that grew
// past a wall is pulled back inside even while the cursor rests.
func (r Rules) PlanMove(self PlayerState, cursor Point) (int, int) {
	speed := r.Speed(self.Score)
	extent := float64(r.Radius) + self.Score

	x := clamp(self.X+r.step(cursor.X-r.Center.X, speed), extent, r.Width)
	y := clamp(self.Y+r.step(cursor.Y-r.Center.Y, speed), extent, r.Height)

	return x, y
}

func (r Rules) step(offset, speed int) int {
	switch {
	case offset >= r.Radius:
		return speed
	case offset <= -r.Radius:
		return -speed
	}
	return 0
}

// clamp keeps pos-extent >= 0 and pos+extent <= bound. When the avatar is
// wider than the world it is pinned to the middle.
func clamp(pos int, extent float64, bound int) int {
	lo := math.Ceil(extent)
	hi := math.Floor(float64(bound) - extent)
	if lo > hi {
		return bound / 2
	}

	p := float64(pos)
	if p < lo {
		return int(lo)
	}
	if p > hi {
		return int(hi)
	}
	return pos
}
