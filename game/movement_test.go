package game

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpeed(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		score float64
		want  int
	}{
		{0, 4},
		{49.9, 4},
		{50, 3},
		{100, 2},
		{149, 2},
		{150, 1},
		{1000, 1},
		{1e300, 1},
		{math.Inf(1), 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, rules.Speed(tt.score), "score %v", tt.score)
	}
}

func TestSpeedNeverBelowOne(t *testing.T) {
	rules := DefaultRules()
	rng := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 10000; i++ {
		score := rng.Float64() * 10000
		assert.GreaterOrEqual(t, rules.Speed(score), 1)
	}
	assert.Equal(t, 1, rules.Speed(math.NaN()))
}

func TestPlanMoveFarRight(t *testing.T) {
	rules := DefaultRules()
	self := PlayerState{ID: 7, X: 600, Y: 415}

	x, y := rules.PlanMove(self, Point{X: 1200, Y: 415})

	assert.Equal(t, 604, x)
	assert.Equal(t, 415, y)
	assert.Equal(t, "move 604 415", MoveIntent{X: x, Y: y}.String())
}

func TestPlanMoveDirections(t *testing.T) {
	rules := DefaultRules()
	self := PlayerState{X: 600, Y: 415, Score: 60}

	tests := []struct {
		name   string
		cursor Point
		wantX  int
		wantY  int
	}{
		{"up-left", Point{0, 0}, 597, 412},
		{"down-right", Point{1200, 830}, 603, 418},
		{"left only", Point{100, 415}, 597, 415},
		{"down only", Point{600, 800}, 600, 418},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := rules.PlanMove(self, tt.cursor)
			assert.Equal(t, tt.wantX, x)
			assert.Equal(t, tt.wantY, y)
		})
	}
}

func TestPlanMoveDeadZone(t *testing.T) {
	rules := DefaultRules()
	self := PlayerState{X: 300, Y: 200, Score: 3}

	for dx := -PlayerRadius + 1; dx < PlayerRadius; dx++ {
		for dy := -PlayerRadius + 1; dy < PlayerRadius; dy++ {
			x, y := rules.PlanMove(self, Point{X: 600 + dx, Y: 415 + dy})
			require.Equal(t, 300, x)
			require.Equal(t, 200, y)
		}
	}

	// Each axis is judged on its own.
	x, y := rules.PlanMove(self, Point{X: 600 + PlayerRadius, Y: 415 + PlayerRadius - 1})
	assert.Equal(t, 304, x)
	assert.Equal(t, 200, y)
}

func TestPlanMoveStaysInBounds(t *testing.T) {
	rules := DefaultRules()
	rng := rand.New(rand.NewPCG(3, 4))

	for i := 0; i < 20000; i++ {
		score := rng.Float64() * 300
		extent := float64(PlayerRadius) + score
		self := PlayerState{
			X:     int(math.Ceil(extent)) + rng.IntN(WorldWidth-2*int(math.Ceil(extent))+1),
			Y:     int(math.Ceil(extent)) + rng.IntN(WorldHeight-2*int(math.Ceil(extent))+1),
			Score: score,
		}
		cursor := Point{X: rng.IntN(WorldWidth), Y: rng.IntN(WorldHeight)}

		x, y := rules.PlanMove(self, cursor)

		require.GreaterOrEqual(t, float64(x)-extent, 0.0, "x=%d score=%v", x, score)
		require.LessOrEqual(t, float64(x)+extent, float64(WorldWidth), "x=%d score=%v", x, score)
		require.GreaterOrEqual(t, float64(y)-extent, 0.0, "y=%d score=%v", y, score)
		require.LessOrEqual(t, float64(y)+extent, float64(WorldHeight), "y=%d score=%v", y, score)
	}
}

func TestPlanMoveAtWall(t *testing.T) {
	rules := DefaultRules()

	x, _ := rules.PlanMove(PlayerState{X: 1188, Y: 415}, Point{X: 1200, Y: 415})
	assert.Equal(t, 1190, x)

	x, _ = rules.PlanMove(PlayerState{X: 1190, Y: 415}, Point{X: 1200, Y: 415})
	assert.Equal(t, 1190, x)

	_, y := rules.PlanMove(PlayerState{X: 600, Y: 12, Score: 0.5}, Point{X: 600, Y: 0})
	assert.Equal(t, 11, y)
}

func TestPlanMoveClampsRestingAxis(t *testing.T) {
	rules := DefaultRules()
	center := Point{X: WorldWidth / 2, Y: WorldHeight / 2}

	// Grew against the right wall while the cursor sat in the dead zone.
	x, y := rules.PlanMove(PlayerState{X: 1195, Y: 415, Score: 10}, center)
	assert.Equal(t, 1180, x)
	assert.Equal(t, 415, y)

	// Only x moves; y is still pulled off the top wall.
	x, y = rules.PlanMove(PlayerState{X: 600, Y: 5, Score: 10}, Point{X: 0, Y: center.Y})
	assert.Equal(t, 596, x)
	assert.Equal(t, 20, y)
}

func TestClampOversizedAvatar(t *testing.T) {
	assert.Equal(t, 415, clamp(10, 500, 830))
}
