package game

import (
	"github.com/rs/zerolog"

	"popit/internal/shape"
)

// warmupTurns is the number of turns during which termination is never
// reported: both players start with an empty board.
const warmupTurns = 2

type Option func(e *Env)

// WithRewardMode selects how terminal rewards are gated.
func WithRewardMode(mode RewardMode) Option {
	return func(e *Env) {
		e.mode = mode
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Env) {
		e.log = logger
	}
}

// Env advances a batch of independent games in lockstep. It holds the
// batch-wide turn counter; the boards themselves live in the State handed
// out by Reset. An Env is not safe for concurrent use: run one Env per
// goroutine for parallel self-play.
type Env struct {
	rules     Transition
	mode      RewardMode
	log       zerolog.Logger
	batchSize int
	turn      int
}

func NewEnv(rules Transition, options ...Option) *Env {
	if rules == nil {
		panic("game: nil transition")
	}
	e := &Env{
		rules: rules,
		mode:  RewardBatchSynchronized,
		log:   zerolog.Nop(),
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Reset allocates a zero-filled batch, rewinds the turn counter and
// returns all-false done flags with an absent reward.
func (e *Env) Reset(batchSize int) (*State, []bool, Reward) {
	if batchSize < 1 {
		panic("game: batch size must be at least 1")
	}
	e.batchSize = batchSize
	e.turn = 0
	e.log.Debug().Int("batch", batchSize).Str("reward_mode", e.mode.String()).Msg("env reset")
	return NewState(batchSize), make([]bool, batchSize), Reward{}
}

// Step applies one action per instance through the transition function,
// advances the turn counter and reports termination. The state is mutated
// in place and returned. Terminal instances are stepped like any other;
// callers decide when to stop using them.
func (e *Env) Step(s *State, actions []int) (*State, []bool, Reward, error) {
	if s == nil {
		return nil, nil, Reward{}, &ShapeMismatchError{What: "state", Want: []int{e.batchSize, Channels, Rows, Cols}}
	}
	if err := shape.Check("state", []int{e.batchSize, Channels, Rows, Cols}, s.Shape()); err != nil {
		return s, nil, Reward{}, err
	}
	if err := shape.Check("actions", []int{e.batchSize}, []int{len(actions)}); err != nil {
		return s, nil, Reward{}, err
	}
	for i, a := range actions {
		if a < 0 || a >= Actions {
			return s, nil, Reward{}, &ActionRangeError{Instance: i, Action: a}
		}
	}

	e.rules.Apply(s, actions)
	e.turn++

	done := make([]bool, e.batchSize)
	totalA := make([]int, e.batchSize)
	all := true
	for i := range done {
		a, b := s.Totals(i)
		totalA[i] = a
		done[i] = e.turn > warmupTurns && (a == 0 || b == 0)
		all = all && done[i]
	}

	reward := e.reward(done, totalA, all)
	if all {
		e.log.Debug().Int("turn", e.turn).Int("batch", e.batchSize).Msg("batch finished")
	}
	return s, done, reward, nil
}

func (e *Env) reward(done []bool, totalA []int, all bool) Reward {
	switch e.mode {
	case RewardPerInstance:
		var r Reward
		for i, d := range done {
			if !d {
				continue
			}
			if r.values == nil {
				r.values = make([]int, len(done))
				r.valid = make([]bool, len(done))
			}
			r.values[i] = outcome(totalA[i])
			r.valid[i] = true
		}
		return r
	default:
		if !all {
			return Reward{}
		}
		r := Reward{values: make([]int, len(done)), valid: make([]bool, len(done))}
		for i := range done {
			r.values[i] = outcome(totalA[i])
			r.valid[i] = true
		}
		return r
	}
}

// Turn returns the number of Step calls since the last Reset.
func (e *Env) Turn() int { return e.turn }

// BatchSize returns the batch size fixed by the last Reset.
func (e *Env) BatchSize() int { return e.batchSize }

// Mode returns the reward gating in use.
func (e *Env) Mode() RewardMode { return e.mode }
