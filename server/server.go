package server

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"rso-client/game"
	"rso-client/session"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	NumOrbs       = 150
	maxNameFrame  = 64
	maxRequest    = 1024
	scorePerOrb   = 1
	handshakeWait = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Authority is a loopback stand-in for the real game server. It speaks the
// same wire contract and keeps a small world so a client can play offline.
type Authority struct {
	mu      sync.Mutex
	nextID  int
	players map[int]game.PlayerState
	orbs    []game.Orb
	rng     *rand.Rand
	started time.Time
	now     func() time.Time
}

func NewAuthority(numOrbs int, seed uint64) *Authority {
	a := &Authority{
		players: make(map[int]game.PlayerState),
		rng:     rand.New(rand.NewPCG(seed, seed+1)),
		now:     time.Now,
	}
	a.started = a.now()

	a.orbs = make([]game.Orb, numOrbs)
	for i := range a.orbs {
		a.orbs[i] = a.randomOrb()
	}

	return a
}

func (a *Authority) randomOrb() game.Orb {
	return game.Orb{
		X:     a.rng.IntN(game.WorldWidth),
		Y:     a.rng.IntN(game.WorldHeight),
		Color: game.Palette[a.rng.IntN(len(game.Palette))],
	}
}

func (a *Authority) Join(name string) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.nextID
	a.nextID++
	a.players[id] = game.PlayerState{
		ID:    id,
		Name:  name,
		X:     game.WorldWidth / 2,
		Y:     game.WorldHeight / 2,
		Color: game.Palette[id%len(game.Palette)],
	}

	log.WithField("id", id).Info("Player ", name, " joined")
	return id
}

func (a *Authority) Leave(id int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.players, id)
	log.WithField("id", id).Info("Player left")
}

// Handle applies one request from player id and returns the full world.
func (a *Authority) Handle(id int, req game.Request) game.WorldSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	if move, ok := req.(game.MoveIntent); ok {
		a.move(id, move)
	}

	return a.snapshotLocked()
}

func (a *Authority) move(id int, move game.MoveIntent) {
	player, ok := a.players[id]
	if !ok {
		return
	}

	player.X = min(max(move.X, 0), game.WorldWidth)
	player.Y = min(max(move.Y, 0), game.WorldHeight)

	for i, orb := range a.orbs {
		if orb.Circle().Overlap(player.Circle()) {
			player.Score += scorePerOrb
			a.orbs[i] = a.randomOrb()
		}
	}

	a.players[id] = player
}

func (a *Authority) Snapshot() game.WorldSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *Authority) snapshotLocked() game.WorldSnapshot {
	players := make(map[int]game.PlayerState, len(a.players))
	for id, p := range a.players {
		players[id] = p
	}

	return game.WorldSnapshot{
		Orbs:    append([]game.Orb(nil), a.orbs...),
		Players: players,
		Elapsed: game.Elapsed{Seconds: int(a.now().Sub(a.started).Seconds())},
	}
}

// ServeTCP accepts length-framed connections until ctx ends or the listener
// fails.
func (a *Authority) ServeTCP(ctx context.Context, lis net.Listener) error {
	stop := context.AfterFunc(ctx, func() { lis.Close() })
	defer stop()

	for {
		conn, err := lis.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		go a.serve(session.NewFrameConn(conn))
	}
}

func (a *Authority) WebSocketHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.WithError(err).Error("Failed to upgrade connection to websocket")
			return
		}

		a.serve(session.NewWebSocketConn(conn))
	})
}

func (a *Authority) serve(conn session.Conn) {
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(handshakeWait))
	name, err := conn.ReadFrame(maxNameFrame)
	if err != nil {
		log.WithError(err).Warn("Failed to read player name")
		return
	}
	if err := game.ValidateName(string(name)); err != nil {
		log.WithError(err).Warn("Rejected player name")
		return
	}

	id := a.Join(string(name))
	defer a.Leave(id)

	if err := conn.WriteFrame([]byte(strconv.Itoa(id))); err != nil {
		log.WithError(err).Warn("Failed to send player id")
		return
	}
	_ = conn.SetDeadline(time.Time{})

	for {
		payload, err := conn.ReadFrame(maxRequest)
		if err != nil {
			return
		}

		req, err := game.DecodeRequest(payload)
		if err != nil {
			log.WithError(err).Error("Error unmarshalling request")
			return
		}

		reply, err := game.EncodeSnapshot(a.Handle(id, req))
		if err != nil {
			log.WithError(err).Error("Error marshalling snapshot")
			return
		}

		if err := conn.WriteFrame(reply); err != nil {
			return
		}
	}
}
