package game

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
)

type Exchanger interface {
	Exchange(ctx context.Context, req Request) (WorldSnapshot, error)
}

type Input interface {
	Cursor() Point
}

type Renderer interface {
	Render(frame Frame)
}

type Recorder interface {
	Record(ctx context.Context, entry ReplayEntry)
}

type LoopOptions struct {
	Rules         Rules
	Input         Input
	Renderer      Renderer
	Recorder      Recorder
	TickInterval  time.Duration
	DecodeRetries int
}

// Loop is the client tick: cursor in, intent out, snapshot back, frame
// rendered. Each tick waits for the previous reply.
type Loop struct {
	session Exchanger
	selfID  int

	rules         Rules
	input         Input
	renderer      Renderer
	recorder      Recorder
	tickInterval  time.Duration
	decodeRetries int

	tick uint64
}

func NewLoop(session Exchanger, selfID int, opts LoopOptions) *Loop {
	if opts.Rules == (Rules{}) {
		opts.Rules = DefaultRules()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second / 70
	}
	if opts.Input == nil {
		opts.Input = FixedInput(opts.Rules.Center)
	}
	if opts.DecodeRetries < 0 {
		opts.DecodeRetries = 0
	}

	return &Loop{
		session:       session,
		selfID:        selfID,
		rules:         opts.Rules,
		input:         opts.Input,
		renderer:      opts.Renderer,
		recorder:      opts.Recorder,
		tickInterval:  opts.TickInterval,
		decodeRetries: opts.DecodeRetries,
	}
}

func (l *Loop) Ticks() uint64 {
	return l.tick
}

// Tick plans the local move for one frame and exchanges it for the next one.
func (l *Loop) Tick(ctx context.Context, cursor Point, frame WorldSnapshot) (MoveIntent, WorldSnapshot, error) {
	self, err := frame.Self(l.selfID)
	if err != nil {
		return MoveIntent{}, WorldSnapshot{}, err
	}

	x, y := l.rules.PlanMove(self, cursor)
	intent := MoveIntent{X: x, Y: y}

	next, err := l.exchange(ctx, intent)
	if err != nil {
		return intent, WorldSnapshot{}, err
	}

	return intent, next, nil
}

// Run seeds the first frame with a get request and then ticks until the
// context ends or an exchange fails.
func (l *Loop) Run(ctx context.Context) error {
	frame, err := l.exchange(ctx, GetSnapshot{})
	if err != nil {
		return err
	}
	if err := l.present(ctx, frame); err != nil {
		return err
	}

	ticker := time.NewTicker(l.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_, next, err := l.Tick(ctx, l.input.Cursor(), frame)
			if err != nil {
				return err
			}
			frame = next

			if err := l.present(ctx, frame); err != nil {
				return err
			}
		}
	}
}

func (l *Loop) present(ctx context.Context, snap WorldSnapshot) error {
	frame, err := BuildFrame(snap, l.selfID)
	if err != nil {
		return err
	}

	l.tick++
	if l.recorder != nil {
		l.recorder.Record(ctx, ReplayEntry{Tick: l.tick, SelfID: l.selfID, Snapshot: snap})
	}
	if l.renderer != nil {
		l.renderer.Render(frame)
	}

	return nil
}

func (l *Loop) exchange(ctx context.Context, req Request) (WorldSnapshot, error) {
	var decodeErr *DecodeError
	for attempt := 0; ; attempt++ {
		snap, err := l.session.Exchange(ctx, req)
		if err == nil {
			return snap, nil
		}
		if !errors.As(err, &decodeErr) || attempt >= l.decodeRetries {
			return WorldSnapshot{}, err
		}

		log.WithError(err).WithField("request", req.String()).Warn("Failed to decode snapshot, retrying")
	}
}
