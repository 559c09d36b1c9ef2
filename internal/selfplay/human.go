package selfplay

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"popit/internal/game"
	"popit/internal/nn"
	"popit/internal/rules"
)

// ActionSource supplies the human's moves, typically mouse clicks.
type ActionSource interface {
	WaitAction(ctx context.Context) (int, error)
}

// Status is an optional Renderer extension for one-line messages.
type Status interface {
	SetStatus(msg string)
}

// PlayHuman plays a single game in which the human is player A and the
// evaluator plays B greedily. Illegal clicks are ignored. It returns the
// reward from A's point of view.
func PlayHuman(ctx context.Context, eval Evaluator, human ActionSource, renderer Renderer) (int, error) {
	env := game.NewEnv(rules.Pop{}, game.WithLogger(log.Logger))
	s, _, reward := env.Reset(1)
	status := func(msg string) {
		if st, ok := renderer.(Status); ok {
			st.SetStatus(msg)
		}
	}
	show := func(ov Overlay) {
		if renderer != nil {
			renderer.Render(s.Clone(), ov)
		}
	}
	show(Overlay{})

	for !reward.Present() {
		b := &s.Boards[0]
		illegal := rules.IllegalRow(b)

		var (
			action int
			ov     Overlay
		)
		if rules.SideToMove(b) == game.ChannelA {
			status("your move")
			a, err := waitLegal(ctx, human, illegal)
			if err != nil {
				return 0, err
			}
			action = a
		} else {
			status("thinking")
			out, err := eval.Evaluate(rules.Encode(s), [][]bool{illegal})
			if err != nil {
				return 0, fmt.Errorf("evaluate turn %d: %w", env.Turn(), err)
			}
			action = SelectAction(out.Policy[0], 0, 0, nil)
			if action < 0 {
				return 0, fmt.Errorf("empty policy at turn %d", env.Turn())
			}
			ov = Overlay{
				Policy: out.Policy,
				Q:      [][]float32{valueRow(out.Value[0], illegal)},
				Value:  out.Value,
			}
		}

		var err error
		_, _, reward, err = env.Step(s, []int{action})
		if err != nil {
			return 0, fmt.Errorf("step turn %d: %w", env.Turn(), err)
		}
		show(ov)
	}

	z, _ := reward.At(0)
	if z > 0 {
		status("you win")
	} else {
		status("you lose")
	}
	log.Info().Msgf("game over after %d turns, reward %d", env.Turn(), z)
	return z, nil
}

func waitLegal(ctx context.Context, human ActionSource, illegal []bool) (int, error) {
	for {
		a, err := human.WaitAction(ctx)
		if err != nil {
			return 0, err
		}
		if a >= 0 && a < nn.Actions && !illegal[a] {
			return a, nil
		}
	}
}
