package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"popit/internal/game"
	"popit/internal/ml"
	"popit/internal/nn"
	"popit/internal/rules"
	"popit/internal/selfplay"
)

func main() {
	def := selfplay.DefaultConfig()
	games := flag.Int("n", def.Games, "batches to play")
	workers := flag.Int("workers", max(1, runtime.NumCPU()/4), "parallel environments")
	batch := flag.Int("batch", def.BatchSize, "games per batch")
	maxTurns := flag.Int("max-turns", def.MaxTurns, "turns before a batch is abandoned")
	temperature := flag.Float64("t", def.Temperature, "sampling temperature, 0 is greedy")
	topK := flag.Int("k", def.TopK, "candidate moves kept before sampling, 0 keeps all")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "base random seed")
	perInstance := flag.Bool("per-instance", false, "reward each game as soon as it ends")
	backend := flag.String("backend", "go", "evaluator: go or onnx")
	weights := flag.String("weights", os.Getenv("POPIT_WEIGHTS"), "network weights for the go backend")
	saveInit := flag.String("save-init", "", "write freshly initialized weights here and exit")
	outFile := flag.String("out", "dataset.csv", "CSV file")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if *saveInit != "" {
		net := nn.New(rules.InputChannels, nn.WithSeed(*seed))
		if err := net.SaveFile(*saveInit); err != nil {
			log.Fatal().Err(err).Msg("save weights")
		}
		log.Info().Msgf("wrote %d parameters to %s", net.NumParams(), *saveInit)
		return
	}

	cfg := selfplay.Config{
		Games:       *games,
		Workers:     *workers,
		BatchSize:   *batch,
		MaxTurns:    *maxTurns,
		Temperature: *temperature,
		TopK:        *topK,
		Seed:        *seed,
		RewardMode:  game.RewardBatchSynchronized,
	}
	if *perInstance {
		cfg.RewardMode = game.RewardPerInstance
	}

	eval, closeEval := openEvaluator(*backend, *weights, *seed, cfg.BatchSize)
	defer closeEval()

	w, err := selfplay.OpenWriter(*outFile)
	if err != nil {
		log.Fatal().Err(err).Msg("open output")
	}
	defer w.Close()
	log.Info().Msgf("%s holds %d samples, appending", *outFile, w.Rows())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	metrics := selfplay.NewCollector()
	metrics.Start()
	err = selfplay.RunParallel(ctx, cfg, eval, w.Write, selfplay.WithCollector(metrics))
	m := metrics.Complete()
	log.Info().
		Int("batches", m.Batches).
		Int("steps", m.Steps).
		Int("evaluations", m.Evaluations).
		Int("samples", m.Samples).
		Int("abandoned", m.Abandoned).
		Int("wins_a", m.WinsA).
		Int("wins_b", m.WinsB).
		Dur("elapsed", m.Duration).
		Msg("self-play finished")
	if err != nil {
		log.Fatal().Err(err).Msg("self-play")
	}
}

func openEvaluator(backend, weights string, seed uint64, batch int) (selfplay.Evaluator, func()) {
	switch backend {
	case "onnx":
		e, err := ml.NewORTEvaluator(ml.WithMaxBatch(batch), ml.WithInputChannels(rules.InputChannels))
		if err != nil {
			log.Fatal().Err(err).Msg("onnx evaluator")
		}
		return e, func() {
			_ = e.Close()
			ml.Shutdown()
		}
	case "go":
		if weights == "" {
			log.Warn().Msg("no weights given, playing with a freshly initialized network")
			return nn.New(rules.InputChannels, nn.WithSeed(seed)), func() {}
		}
		net, err := nn.LoadFile(weights, rules.InputChannels)
		if err != nil {
			log.Fatal().Err(err).Msg("load weights")
		}
		log.Info().Msgf("loaded %d parameters from %s", net.NumParams(), weights)
		return net, func() {}
	default:
		log.Fatal().Msgf("unknown backend %q", backend)
		return nil, nil
	}
}
