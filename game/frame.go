package game

import (
	"math"
	"sort"
	"strconv"
)

const LeaderboardSize = 3

// Frame is everything the presentation layer needs for one tick.
type Frame struct {
	Self        PlayerState
	Players     []PlayerState
	Leaderboard []PlayerState
	Orbs        []Orb
	TimeLabel   string
	Score       int
}

func BuildFrame(snap WorldSnapshot, selfID int) (Frame, error) {
	self, err := snap.Self(selfID)
	if err != nil {
		return Frame{}, err
	}

	players := make([]PlayerState, 0, len(snap.Players))
	for _, p := range snap.Players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score < players[j].Score
		}
		return players[i].ID < players[j].ID
	})

	n := min(len(players), LeaderboardSize)
	leaders := make([]PlayerState, 0, n)
	for i := len(players) - 1; i >= len(players)-n; i-- {
		leaders = append(leaders, players[i])
	}

	return Frame{
		Self:        self,
		Players:     players,
		Leaderboard: leaders,
		Orbs:        snap.Orbs,
		TimeLabel:   FormatElapsed(snap.Elapsed),
		Score:       int(math.Round(self.Score)),
	}, nil
}

func FormatElapsed(e Elapsed) string {
	if e.Label != "" {
		return e.Label
	}

	if e.Seconds < 60 {
		return strconv.Itoa(e.Seconds) + "s"
	}

	seconds := e.Seconds % 60
	label := strconv.Itoa(e.Seconds/60) + ":"
	if seconds < 10 {
		label += "0"
	}
	return label + strconv.Itoa(seconds)
}

func AvatarRadius(score float64) int {
	return PlayerRadius + int(math.Round(score))
}
