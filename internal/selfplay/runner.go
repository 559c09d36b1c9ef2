package selfplay

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"popit/internal/game"
	"popit/internal/nn"
	"popit/internal/rules"
)

// Evaluator maps encoded positions and their illegal-move masks to a
// policy and a value per instance. *nn.Network and *ml.ORTEvaluator both
// satisfy it.
type Evaluator interface {
	Evaluate(x *nn.Tensor, mask [][]bool) (nn.Output, error)
}

// Sample is one position seen by the evaluator, labelled with the final
// outcome from the point of view of the player who moved.
type Sample struct {
	RunID    string
	Instance int
	Turn     int
	Player   int // game.ChannelA or game.ChannelB
	Features []float32
	Policy   []float32
	Value    float32
	Outcome  int // +1 win, -1 loss for Player
}

// Result of one batch. Rewards[i] is 0 for instances whose reward never
// surfaced before MaxTurns; their samples are dropped.
type Result struct {
	RunID   string
	Turns   int
	Rewards []int
	Samples []Sample
}

type Option func(r *Runner)

func WithRenderer(renderer Renderer) Option {
	return func(r *Runner) {
		r.renderer = renderer
	}
}

func WithCollector(metrics Collector) Option {
	return func(r *Runner) {
		if metrics != nil {
			r.metrics = metrics
		}
	}
}

// Runner plays batches on its own Env. It is not safe for concurrent use;
// the evaluator may be shared between runners.
type Runner struct {
	cfg      Config
	env      *game.Env
	eval     Evaluator
	renderer Renderer
	metrics  Collector
}

func NewRunner(eval Evaluator, cfg Config, options ...Option) *Runner {
	r := &Runner{
		cfg:     cfg,
		env:     game.NewEnv(rules.Pop{}, game.WithRewardMode(cfg.RewardMode), game.WithLogger(log.Logger)),
		eval:    eval,
		metrics: NewDummyCollector(),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Play runs one batch from Reset until every instance has received its
// reward or MaxTurns is reached. Finished instances are no longer
// evaluated; they are fed passing moves so their boards stay terminal.
func (r *Runner) Play(ctx context.Context, rng *rand.Rand) (Result, error) {
	n := r.cfg.BatchSize
	res := Result{RunID: uuid.NewString(), Rewards: make([]int, n)}
	r.metrics.AddBatch()

	s, done, _ := r.env.Reset(n)
	pending := make([][]Sample, n)
	settled := 0

	for r.env.Turn() < r.cfg.MaxTurns && settled < n {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		var active []int
		actions := make([]int, n)
		for i := range actions {
			if done[i] {
				actions[i] = idleAction(&s.Boards[i])
				continue
			}
			active = append(active, i)
		}

		var (
			out  nn.Output
			mask [][]bool
		)
		if len(active) > 0 {
			x := rules.Encode(s, active...)
			mask = make([][]bool, len(active))
			for k, i := range active {
				mask[k] = rules.IllegalRow(&s.Boards[i])
			}
			var err error
			out, err = r.eval.Evaluate(x, mask)
			if err != nil {
				return res, fmt.Errorf("evaluate turn %d: %w", r.env.Turn(), err)
			}
			for k, i := range active {
				a := SelectAction(out.Policy[k], r.cfg.Temperature, r.cfg.TopK, rng)
				if a < 0 {
					return res, fmt.Errorf("instance %d: empty policy at turn %d", i, r.env.Turn())
				}
				actions[i] = a
				pending[i] = append(pending[i], Sample{
					RunID:    res.RunID,
					Instance: i,
					Turn:     r.env.Turn(),
					Player:   rules.SideToMove(&s.Boards[i]),
					Features: append([]float32(nil), x.Row(k)...),
					Policy:   out.Policy[k],
					Value:    out.Value[k],
				})
			}
		}
		if err := r.render(ctx, s, active, mask, out); err != nil {
			return res, err
		}
		r.metrics.AddStep(len(active))

		_, stepDone, reward, err := r.env.Step(s, actions)
		if err != nil {
			return res, fmt.Errorf("step turn %d: %w", r.env.Turn(), err)
		}
		done = stepDone
		for i := range done {
			if v, ok := reward.At(i); ok && res.Rewards[i] == 0 {
				res.Rewards[i] = v
				settled++
			}
		}
	}
	res.Turns = r.env.Turn()
	if r.renderer != nil {
		r.renderer.Render(s.Clone(), Overlay{})
	}

	abandoned := 0
	for i, z := range res.Rewards {
		if z == 0 {
			abandoned++
			continue
		}
		r.metrics.AddOutcome(z)
		for _, sm := range pending[i] {
			sm.Outcome = z
			if sm.Player == game.ChannelB {
				sm.Outcome = -z
			}
			res.Samples = append(res.Samples, sm)
		}
	}
	r.metrics.AddSamples(len(res.Samples))
	if abandoned > 0 {
		r.metrics.AddAbandoned(abandoned)
		log.Debug().Str("run", res.RunID).Int("abandoned", abandoned).Int("turns", res.Turns).Msg("batch cut off before every reward surfaced")
	}
	return res, nil
}

func (r *Runner) render(ctx context.Context, s *game.State, active []int, mask [][]bool, out nn.Output) error {
	if r.renderer == nil {
		return nil
	}
	ov := Overlay{
		Policy: make([][]float32, s.Len()),
		Q:      make([][]float32, s.Len()),
		Value:  make([]float32, s.Len()),
	}
	for k, i := range active {
		ov.Policy[i] = out.Policy[k]
		ov.Q[i] = valueRow(out.Value[k], mask[k])
		ov.Value[i] = out.Value[k]
	}
	r.renderer.Render(s.Clone(), ov)

	if r.cfg.FrameDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(r.cfg.FrameDelay):
		return nil
	}
}

// idleAction keeps a finished board finished: the loser, when to move,
// plays onto the winner's cell and passes; the winner may play anywhere.
func idleAction(b *game.Board) int {
	if a, ok := rules.PassAction(b); ok {
		return a
	}
	return 0
}
