package game

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	MsgGet  = "get"
	MsgMove = "move"
)

// MaxReplySize is the largest snapshot the authority may send in one reply.
const MaxReplySize = 8192

type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Request is a client intent. The set of implementations is closed.
type Request interface {
	fmt.Stringer
	messageType() string
}

type GetSnapshot struct{}

func (GetSnapshot) messageType() string { return MsgGet }
func (GetSnapshot) String() string      { return MsgGet }

type MoveIntent struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (MoveIntent) messageType() string { return MsgMove }

func (m MoveIntent) String() string {
	return fmt.Sprintf("%s %d %d", MsgMove, m.X, m.Y)
}

func EncodeRequest(req Request) ([]byte, error) {
	if req == nil {
		return nil, errors.New("trying to encode nil request")
	}

	msg := Message{Type: req.messageType()}
	if move, ok := req.(MoveIntent); ok {
		data, err := json.Marshal(move)
		if err != nil {
			return nil, err
		}
		msg.Data = data
	}

	return json.Marshal(msg)
}

func DecodeRequest(data []byte) (Request, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}

	switch msg.Type {
	case MsgGet:
		return GetSnapshot{}, nil
	case MsgMove:
		var move MoveIntent
		if len(msg.Data) == 0 {
			return nil, errors.New("move request without coordinates")
		}
		if err := json.Unmarshal(msg.Data, &move); err != nil {
			return nil, err
		}
		return move, nil
	}

	return nil, fmt.Errorf("unknown request type %q", msg.Type)
}

// DecodeError reports a reply that could not be turned into a WorldSnapshot.
type DecodeError struct {
	Size int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode snapshot (%d bytes): %v", e.Size, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func EncodeSnapshot(snap WorldSnapshot) ([]byte, error) {
	if snap.Orbs == nil {
		snap.Orbs = []Orb{}
	}
	if snap.Players == nil {
		snap.Players = map[int]PlayerState{}
	}
	return json.Marshal(snap)
}

func DecodeSnapshot(data []byte) (WorldSnapshot, error) {
	if len(data) == 0 {
		return WorldSnapshot{}, &DecodeError{Err: errors.New("empty reply")}
	}

	var snap WorldSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return WorldSnapshot{}, &DecodeError{Size: len(data), Err: err}
	}
	if snap.Players == nil {
		return WorldSnapshot{}, &DecodeError{Size: len(data), Err: errors.New("snapshot has no players")}
	}
	if snap.Orbs == nil {
		snap.Orbs = []Orb{}
	}

	return snap, nil
}
