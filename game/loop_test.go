package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type exchangeFunc func(ctx context.Context, req Request) (WorldSnapshot, error)

func (f exchangeFunc) Exchange(ctx context.Context, req Request) (WorldSnapshot, error) {
	return f(ctx, req)
}

type frameCollector struct {
	mu      sync.Mutex
	frames  []Frame
	onFrame func(n int)
}

func (c *frameCollector) Render(frame Frame) {
	c.mu.Lock()
	c.frames = append(c.frames, frame)
	n := len(c.frames)
	c.mu.Unlock()

	if c.onFrame != nil {
		c.onFrame(n)
	}
}

type tickCollector struct {
	ticks []uint64
	self  []int
}

func (c *tickCollector) Record(_ context.Context, entry ReplayEntry) {
	c.ticks = append(c.ticks, entry.Tick)
	c.self = append(c.self, entry.SelfID)
}

func startFrame() WorldSnapshot {
	return WorldSnapshot{
		Orbs:    []Orb{},
		Players: map[int]PlayerState{7: {ID: 7, Name: "alice", X: 600, Y: 415}},
	}
}

// echoAuthority applies every move verbatim.
func echoAuthority(requests *[]Request) exchangeFunc {
	world := startFrame()
	return func(_ context.Context, req Request) (WorldSnapshot, error) {
		*requests = append(*requests, req)
		if move, ok := req.(MoveIntent); ok {
			p := world.Players[7]
			p.X, p.Y = move.X, move.Y
			world.Players = map[int]PlayerState{7: p}
		}
		return world, nil
	}
}

func TestLoopTickSendsMoveIntent(t *testing.T) {
	var requests []Request
	loop := NewLoop(echoAuthority(&requests), 7, LoopOptions{})

	intent, next, err := loop.Tick(context.Background(), Point{X: 1200, Y: 415}, startFrame())
	require.NoError(t, err)

	assert.Equal(t, "move 604 415", intent.String())
	require.Len(t, requests, 1)
	assert.Equal(t, MoveIntent{X: 604, Y: 415}, requests[0])
	assert.Equal(t, 604, next.Players[7].X)
}

func TestLoopTickSelfMissing(t *testing.T) {
	called := false
	loop := NewLoop(exchangeFunc(func(context.Context, Request) (WorldSnapshot, error) {
		called = true
		return WorldSnapshot{}, nil
	}), 8, LoopOptions{})

	_, _, err := loop.Tick(context.Background(), Point{}, startFrame())
	assert.ErrorIs(t, err, ErrSelfMissing)
	assert.False(t, called)
}

func TestLoopTickPropagatesTransportError(t *testing.T) {
	boom := errors.New("connection reset")
	loop := NewLoop(exchangeFunc(func(context.Context, Request) (WorldSnapshot, error) {
		return WorldSnapshot{}, boom
	}), 7, LoopOptions{DecodeRetries: 3})

	_, _, err := loop.Tick(context.Background(), Point{}, startFrame())
	assert.ErrorIs(t, err, boom)
}

func TestLoopRetriesDecodeErrors(t *testing.T) {
	calls := 0
	session := exchangeFunc(func(context.Context, Request) (WorldSnapshot, error) {
		calls++
		if calls == 1 {
			return WorldSnapshot{}, &DecodeError{Err: errors.New("bad bytes")}
		}
		return startFrame(), nil
	})

	loop := NewLoop(session, 7, LoopOptions{DecodeRetries: 1})
	_, _, err := loop.Tick(context.Background(), Point{}, startFrame())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestLoopGivesUpAfterDecodeRetries(t *testing.T) {
	calls := 0
	session := exchangeFunc(func(context.Context, Request) (WorldSnapshot, error) {
		calls++
		return WorldSnapshot{}, &DecodeError{Err: errors.New("bad bytes")}
	})

	loop := NewLoop(session, 7, LoopOptions{DecodeRetries: 2})
	_, _, err := loop.Tick(context.Background(), Point{}, startFrame())

	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, 3, calls)
}

func TestLoopRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var requests []Request
	renderer := &frameCollector{onFrame: func(n int) {
		if n == 5 {
			cancel()
		}
	}}
	recorder := &tickCollector{}

	loop := NewLoop(echoAuthority(&requests), 7, LoopOptions{
		Input:        FixedInput{X: 1200, Y: 415},
		Renderer:     renderer,
		Recorder:     recorder,
		TickInterval: time.Millisecond,
	})

	err := loop.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	require.GreaterOrEqual(t, len(requests), 5)
	assert.Equal(t, GetSnapshot{}, requests[0])
	assert.Equal(t, MoveIntent{X: 604, Y: 415}, requests[1])
	assert.Equal(t, MoveIntent{X: 608, Y: 415}, requests[2])

	first := renderer.frames[0]
	require.Len(t, first.Players, 1)
	assert.Equal(t, 600, first.Self.X)
	assert.Equal(t, 415, first.Self.Y)
	assert.Equal(t, 0, first.Score)

	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, recorder.ticks[:5])
	assert.Equal(t, []int{7, 7, 7, 7, 7}, recorder.self[:5])
	assert.Equal(t, uint64(len(renderer.frames)), loop.Ticks())
}

func TestLoopRunStopsOnExchangeFailure(t *testing.T) {
	boom := errors.New("authority went away")
	calls := 0
	session := exchangeFunc(func(context.Context, Request) (WorldSnapshot, error) {
		calls++
		if calls == 3 {
			return WorldSnapshot{}, boom
		}
		return startFrame(), nil
	})

	renderer := &frameCollector{}
	loop := NewLoop(session, 7, LoopOptions{Renderer: renderer, TickInterval: time.Millisecond})

	err := loop.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
	assert.Len(t, renderer.frames, 2)
}

func TestLoopRunStopsWhenSelfDisappears(t *testing.T) {
	calls := 0
	session := exchangeFunc(func(context.Context, Request) (WorldSnapshot, error) {
		calls++
		if calls == 2 {
			return WorldSnapshot{Players: map[int]PlayerState{}}, nil
		}
		return startFrame(), nil
	})

	renderer := &frameCollector{}
	loop := NewLoop(session, 7, LoopOptions{Renderer: renderer, TickInterval: time.Millisecond})

	err := loop.Run(context.Background())
	assert.ErrorIs(t, err, ErrSelfMissing)
	assert.Len(t, renderer.frames, 1)
}

func TestWanderInputStaysInWorld(t *testing.T) {
	input := NewWanderInput(WorldWidth, WorldHeight, 3, 42)

	first := input.Cursor()
	assert.Equal(t, first, input.Cursor())
	assert.Equal(t, first, input.Cursor())

	for i := 0; i < 1000; i++ {
		p := input.Cursor()
		assert.True(t, p.X >= 0 && p.X < WorldWidth)
		assert.True(t, p.Y >= 0 && p.Y < WorldHeight)
	}
}
