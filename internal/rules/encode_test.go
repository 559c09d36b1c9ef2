package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"popit/internal/game"
)

func TestEncodeFromMoverPerspective(t *testing.T) {
	s := game.NewState(2)
	s.Boards[0][game.ChannelA][0][0] = 1
	s.Boards[0][game.ChannelB][2][2] = 2
	s.Boards[0][channelPops][2][2] = 1

	s.Boards[1] = s.Boards[0]
	for r := 0; r < game.Rows; r++ {
		for c := 0; c < game.Cols; c++ {
			s.Boards[1][channelSide][r][c] = 1
		}
	}

	x := Encode(s)
	require.Equal(t, []int{2, InputChannels, game.Rows, game.Cols}, x.Shape())

	// A to move on instance 0.
	require.Equal(t, float32(0.5), x.At(0, 0, 0, 0))
	require.Equal(t, float32(0.5), x.At(0, 1, 2, 2))
	require.Equal(t, float32(0), x.At(0, 4, 3, 3))
	// B to move on instance 1: planes swap.
	require.Equal(t, float32(0.5), x.At(1, 0, 2, 2))
	require.Equal(t, float32(0.5), x.At(1, 1, 0, 0))
	require.Equal(t, float32(1), x.At(1, 4, 3, 3))

	require.Equal(t, float32(0.5), x.At(0, 2, 0, 0))
	require.Equal(t, float32(1), x.At(0, 2, 2, 2))
	require.Equal(t, float32(0.5), x.At(0, 3, 2, 2))
	require.Equal(t, float32(0), x.At(0, 3, 0, 0))
}

func TestEncodeSubset(t *testing.T) {
	s := game.NewState(3)
	s.Boards[2][game.ChannelA][0][4] = 2

	x := Encode(s, 2)
	require.Equal(t, 1, x.N)
	require.Equal(t, float32(2)/3, x.At(0, 0, 0, 4))
}

func TestDecodeInvertsEncode(t *testing.T) {
	s := game.NewState(1)
	Pop{}.Apply(s, []int{game.CellIndex(0, 0)})
	Pop{}.Apply(s, []int{game.CellIndex(3, 3)})
	Pop{}.Apply(s, []int{game.CellIndex(0, 0)}) // pops the corner
	Pop{}.Apply(s, []int{game.CellIndex(3, 3)})

	b, err := Decode(Encode(s).Row(0))
	require.NoError(t, err)
	require.Equal(t, s.Boards[0], b)

	_, err = Decode(make([]float32, 3))
	require.Error(t, err)
}
