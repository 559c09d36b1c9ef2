// Package selfplay drives batched Pop it! games with an evaluator choosing
// the moves, and records the positions as training samples.
package selfplay

import (
	"errors"
	"fmt"
	"time"

	"popit/internal/game"
)

type Config struct {
	Games       int             // batches to play in total
	Workers     int             // independent environments run in parallel
	BatchSize   int             // instances per environment
	MaxTurns    int             // turns after which a batch is abandoned
	Temperature float64         // 0 plays the most probable move
	TopK        int             // candidate moves kept before sampling, 0 keeps all
	Seed        uint64          // base seed; worker i uses Seed+i
	RewardMode  game.RewardMode // reward gating handed to every Env
	FrameDelay  time.Duration   // pause after each rendered frame
}

func DefaultConfig() Config {
	return Config{
		Games:       8,
		Workers:     2,
		BatchSize:   128,
		MaxTurns:    300,
		Temperature: 1,
		TopK:        8,
		Seed:        1,
		RewardMode:  game.RewardBatchSynchronized,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Games < 1 {
		errs = append(errs, fmt.Errorf("games must be positive, got %d", c.Games))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("batch size must be positive, got %d", c.BatchSize))
	}
	if c.MaxTurns < 1 {
		errs = append(errs, fmt.Errorf("max turns must be positive, got %d", c.MaxTurns))
	}
	if c.Temperature < 0 {
		errs = append(errs, fmt.Errorf("temperature must not be negative, got %g", c.Temperature))
	}
	if c.TopK < 0 || c.TopK > game.Actions {
		errs = append(errs, fmt.Errorf("top-k must be in [0, %d], got %d", game.Actions, c.TopK))
	}
	return errors.Join(errs...)
}
