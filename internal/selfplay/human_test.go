package selfplay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"popit/internal/game"
)

type clicks struct {
	actions []int
	asked   int
}

func (c *clicks) WaitAction(ctx context.Context) (int, error) {
	if c.asked == len(c.actions) {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	c.asked++
	return c.actions[c.asked-1], nil
}

type statusRecorder struct {
	recorder
	messages []string
}

func (s *statusRecorder) SetStatus(msg string) { s.messages = append(s.messages, msg) }

func TestPlayHumanIgnoresIllegalClicks(t *testing.T) {
	// Human A plays 0, the network answers 1, the click on B's cell is
	// ignored and the second click on 0 pops and wipes B out.
	human := &clicks{actions: []int{0, 1, 0}}
	screen := &statusRecorder{}

	z, err := PlayHuman(context.Background(), firstLegal{}, human, screen)
	require.NoError(t, err)
	require.Equal(t, 1, z)
	require.Equal(t, 3, human.asked)
	require.Len(t, screen.frames, 4, "initial frame plus one per turn")
	require.Equal(t, "you win", screen.messages[len(screen.messages)-1])

	last := screen.states[len(screen.states)-1]
	a, b := last.Totals(0)
	require.Positive(t, a)
	require.Zero(t, b)
	require.NotNil(t, screen.frames[2].Policy, "network turns carry its policy")
	require.Equal(t, game.Actions, len(screen.frames[2].Policy[0]))
	require.Len(t, screen.frames[2].Q, 1)
	require.Len(t, screen.frames[2].Q[0], game.Actions)
}

func TestPlayHumanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := PlayHuman(ctx, firstLegal{}, &clicks{}, nil)
	require.ErrorIs(t, err, context.Canceled)
}
