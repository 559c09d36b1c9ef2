package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"popit/internal/game"
	"popit/internal/rules"
	"popit/internal/selfplay"
	"popit/internal/ui"
)

// Replay steps through recorded games. Space toggles playback, the arrow
// keys step.
type Replay struct {
	*ui.Screen
	pb          *selfplay.Playback
	delay       time.Duration
	lastAdvance time.Time
}

func NewReplay(path string, delay time.Duration) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	samples, err := selfplay.ReadSamples(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	pb, err := selfplay.NewPlayback(samples)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	r := &Replay{Screen: ui.NewScreen(), pb: pb, delay: delay, lastAdvance: time.Now()}
	r.show()
	return r, nil
}

func (r *Replay) Update() error {
	changed := false
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		r.pb.Toggle()
		changed = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyRight) {
		r.pb.Pause()
		r.pb.Next()
		changed = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyLeft) {
		r.pb.Pause()
		r.pb.Prev()
		changed = true
	}
	if r.pb.Playing() && time.Since(r.lastAdvance) >= r.delay {
		r.lastAdvance = time.Now()
		r.pb.Next()
		changed = true
	}
	if changed {
		r.show()
	}
	return r.Screen.Update()
}

// show draws the sample under the cursor and refreshes the status line.
func (r *Replay) show() {
	s := r.pb.Current()
	r.SetStatus(r.pb.Status())
	b, err := rules.Decode(s.Features)
	if err != nil {
		log.Error().Err(err).Msg("decode sample")
		return
	}
	st := &game.State{Boards: []game.Board{b}}
	r.Render(st, selfplay.Overlay{Policy: [][]float32{s.Policy}, Value: []float32{s.Value}})
}

func main() {
	in := flag.String("in", "dataset.csv", "self-play CSV file")
	delay := flag.Duration("delay", 300*time.Millisecond, "playback step interval")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	replay, err := NewReplay(*in, *delay)
	if err != nil {
		log.Fatal().Err(err).Msg("load replay")
	}
	log.Info().Msgf("loaded %d games from %s", replay.pb.Games(), *in)

	ebiten.SetWindowSize(ui.WindowWidth, ui.WindowHeight)
	ebiten.SetWindowTitle("Pop it! replay")
	if err := ebiten.RunGame(replay); err != nil {
		log.Fatal().Err(err).Msg("run replay")
	}
}
