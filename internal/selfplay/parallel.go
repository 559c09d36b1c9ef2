package selfplay

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

// Sink receives finished batches. Calls are serialized.
type Sink func(Result) error

// RunParallel plays cfg.Games batches on cfg.Workers independent
// environments sharing one evaluator. The first error cancels the rest.
func RunParallel(ctx context.Context, cfg Config, eval Evaluator, sink Sink, options ...Option) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	jobs := make(chan int, cfg.Workers*2)
	var sinkMu sync.Mutex

	log.Info().Msgf("starting %d workers for %d batches of %d games", cfg.Workers, cfg.Games, cfg.BatchSize)

	for w := 0; w < cfg.Workers; w++ {
		w := w
		g.Go(func() error {
			runner := NewRunner(eval, cfg, options...)
			rng := rand.New(rand.NewSource(cfg.Seed + uint64(w)))
			for id := range jobs {
				res, err := runner.Play(ctx, rng)
				if err != nil {
					return fmt.Errorf("batch %d: %w", id, err)
				}
				sinkMu.Lock()
				err = sink(res)
				sinkMu.Unlock()
				if err != nil {
					return fmt.Errorf("batch %d: sink: %w", id, err)
				}
				log.Info().Msgf("worker %d finished batch %d (%s) after %d turns with %d samples", w, id, res.RunID, res.Turns, len(res.Samples))
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)
		for id := 0; id < cfg.Games; id++ {
			select {
			case jobs <- id:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	return g.Wait()
}
