package game

import (
	"encoding/json"
	"errors"
	"math"
	"unicode/utf8"
)

const (
	WorldWidth  = 1200
	WorldHeight = 830

	PlayerRadius = 10
	OrbRadius    = 5

	BaseSpeed     = 4
	GrowthDivisor = 50

	MaxNameLength = 19
)

var (
	ErrInvalidName = errors.New("player name must be between 1 and 19 characters")
	ErrSelfMissing = errors.New("snapshot does not contain the local player")
)

type Color [3]uint8

var Palette = []Color{
	{255, 0, 0}, {255, 128, 0}, {255, 255, 0}, {128, 255, 0}, {0, 255, 0},
	{0, 255, 128}, {0, 255, 255}, {0, 128, 255}, {0, 0, 255}, {0, 0, 255},
	{128, 0, 255}, {255, 0, 255}, {255, 0, 128}, {128, 128, 128}, {0, 0, 0},
}

type Point struct {
	X int
	Y int
}

type PlayerState struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	X     int     `json:"x"`
	Y     int     `json:"y"`
	Score float64 `json:"score"`
	Color Color   `json:"color"`
}

type (
	playerWire PlayerState
	orbWire    Orb
)

// UnmarshalJSON accepts fractional coordinates and rounds them to the
// nearest pixel.
func (p *PlayerState) UnmarshalJSON(data []byte) error {
	wire := struct {
		*playerWire
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}{playerWire: (*playerWire)(p)}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	p.X, p.Y = pixel(wire.X), pixel(wire.Y)
	return nil
}

func (p PlayerState) Circle() Circle {
	return Circle{X: float32(p.X), Y: float32(p.Y), Radius: float32(AvatarRadius(p.Score))}
}

type Orb struct {
	X     int   `json:"x"`
	Y     int   `json:"y"`
	Color Color `json:"color"`
}

func (o *Orb) UnmarshalJSON(data []byte) error {
	wire := struct {
		*orbWire
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}{orbWire: (*orbWire)(o)}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	o.X, o.Y = pixel(wire.X), pixel(wire.Y)
	return nil
}

func pixel(v float64) int {
	return int(math.Round(v))
}

func (o Orb) Circle() Circle {
	return Circle{X: float32(o.X), Y: float32(o.Y), Radius: OrbRadius}
}

// Elapsed is the round clock. The authority sends either whole seconds or a
// label it has already formatted.
type Elapsed struct {
	Seconds int
	Label   string
}

func (e Elapsed) MarshalJSON() ([]byte, error) {
	if e.Label != "" {
		return json.Marshal(e.Label)
	}
	return json.Marshal(e.Seconds)
}

func (e *Elapsed) UnmarshalJSON(data []byte) error {
	*e = Elapsed{}
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &e.Label)
	}
	return json.Unmarshal(data, &e.Seconds)
}

// WorldSnapshot is a full replacement of the world, never a delta.
type WorldSnapshot struct {
	Orbs    []Orb               `json:"orbs"`
	Players map[int]PlayerState `json:"players"`
	Elapsed Elapsed             `json:"elapsed"`
}

func (s WorldSnapshot) Self(id int) (PlayerState, error) {
	p, ok := s.Players[id]
	if !ok {
		return PlayerState{}, ErrSelfMissing
	}
	return p, nil
}

type Circle struct {
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Radius float32 `json:"radius"`
}

func (l Circle) Overlap(other Circle) bool {
	sqrDist := (l.X-other.X)*(l.X-other.X) + (l.Y-other.Y)*(l.Y-other.Y)
	sqrRadSum := (l.Radius + other.Radius) * (l.Radius + other.Radius)
	return sqrDist < sqrRadSum
}

func ValidateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n == 0 || n > MaxNameLength {
		return ErrInvalidName
	}
	return nil
}
