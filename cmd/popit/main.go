package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"popit/internal/nn"
	"popit/internal/rules"
	"popit/internal/selfplay"
	"popit/internal/ui"
)

func main() {
	interactive := flag.Bool("interactive", false, "play A against the network")
	weights := flag.String("weights", os.Getenv("POPIT_WEIGHTS"), "network weights")
	delay := flag.Duration("delay", 300*time.Millisecond, "pause between self-play frames")
	temperature := flag.Float64("t", 1, "self-play sampling temperature")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	net := nn.New(rules.InputChannels, nn.WithSeed(*seed))
	if *weights != "" {
		var err error
		if net, err = nn.LoadFile(*weights, rules.InputChannels); err != nil {
			log.Fatal().Err(err).Msg("load weights")
		}
	} else {
		log.Warn().Msg("no weights given, using a freshly initialized network")
	}

	var options []ui.Option
	if *interactive {
		options = append(options, ui.WithInteractive())
	}
	screen := ui.NewScreen(options...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		var err error
		if *interactive {
			_, err = selfplay.PlayHuman(ctx, net, screen, screen)
		} else {
			err = watch(ctx, net, screen, *delay, *temperature, *seed)
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("game loop")
			screen.SetStatus(err.Error())
		}
	}()

	ebiten.SetTPS(30)
	ebiten.SetWindowSize(ui.WindowWidth, ui.WindowHeight)
	ebiten.SetWindowTitle("Pop it!")
	if err := ebiten.RunGame(screen); err != nil {
		log.Fatal().Err(err).Msg("run game")
	}
}

// watch shows self-play batches of four, one per panel, until ctx ends.
func watch(ctx context.Context, net *nn.Network, screen *ui.Screen, delay time.Duration, temperature float64, seed uint64) error {
	cfg := selfplay.DefaultConfig()
	cfg.BatchSize = 4
	cfg.Temperature = temperature
	cfg.FrameDelay = delay
	runner := selfplay.NewRunner(net, cfg, selfplay.WithRenderer(screen))
	rng := rand.New(rand.NewSource(seed))

	for n := 1; ; n++ {
		res, err := runner.Play(ctx, rng)
		if err != nil {
			return err
		}
		screen.SetStatus(fmt.Sprintf("batch %d: %d turns, rewards %v", n, res.Turns, res.Rewards))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}
