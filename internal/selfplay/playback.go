package selfplay

import (
	"fmt"
	"sort"

	"popit/internal/game"
)

// Game is one instance of a recorded batch, its samples in turn order.
type Game struct {
	RunID    string
	Instance int
	Samples  []Sample
}

// GroupGames splits samples read from a CSV into games, keeping the order
// in which each game first appears.
func GroupGames(samples []Sample) []Game {
	type key struct {
		run      string
		instance int
	}
	index := map[key]int{}
	var games []Game
	for _, s := range samples {
		k := key{s.RunID, s.Instance}
		i, ok := index[k]
		if !ok {
			i = len(games)
			index[k] = i
			games = append(games, Game{RunID: s.RunID, Instance: s.Instance})
		}
		games[i].Samples = append(games[i].Samples, s)
	}
	for _, g := range games {
		sort.SliceStable(g.Samples, func(a, b int) bool { return g.Samples[a].Turn < g.Samples[b].Turn })
	}
	return games
}

// Playback is a cursor over recorded games. Stepping past either end of a
// game wraps into the neighbouring one.
type Playback struct {
	games   []Game
	gi, si  int
	playing bool
}

func NewPlayback(samples []Sample) (*Playback, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples to replay")
	}
	return &Playback{games: GroupGames(samples)}, nil
}

func (p *Playback) Games() int { return len(p.games) }

func (p *Playback) Playing() bool { return p.playing }

func (p *Playback) Toggle() { p.playing = !p.playing }

func (p *Playback) Pause() { p.playing = false }

func (p *Playback) Next() {
	p.si++
	if p.si >= len(p.games[p.gi].Samples) {
		p.gi = (p.gi + 1) % len(p.games)
		p.si = 0
	}
}

func (p *Playback) Prev() {
	p.si--
	if p.si < 0 {
		p.gi = (p.gi - 1 + len(p.games)) % len(p.games)
		p.si = len(p.games[p.gi].Samples) - 1
	}
}

// Current returns the sample under the cursor.
func (p *Playback) Current() Sample { return p.games[p.gi].Samples[p.si] }

// Status describes the cursor position and whether playback is running.
func (p *Playback) Status() string {
	s := p.Current()
	mover := "A"
	if s.Player == game.ChannelB {
		mover = "B"
	}
	state := "paused"
	if p.playing {
		state = "playing"
	}
	return fmt.Sprintf("game %d/%d  turn %d  %s to move, outcome %+d  [%s]",
		p.gi+1, len(p.games), s.Turn, mover, s.Outcome, state)
}
