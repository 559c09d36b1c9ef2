package rules

import (
	"fmt"
	"math"

	"popit/internal/game"
	"popit/internal/nn"
)

// InputChannels is the number of planes Encode produces:
// [mine, theirs, critical mass, pops, side to move].
const InputChannels = 5

// Encode builds the network input for the given instances of s from the
// point of view of each board's side to move. With no indices it encodes
// the whole batch.
func Encode(s *game.State, indices ...int) *nn.Tensor {
	if len(indices) == 0 {
		indices = make([]int, s.Len())
		for i := range indices {
			indices[i] = i
		}
	}

	t := nn.NewTensor(len(indices), InputChannels, game.Rows, game.Cols)
	for n, i := range indices {
		b := &s.Boards[i]
		me := SideToMove(b)
		opp := 1 - me
		side := float32(0)
		if me == game.ChannelB {
			side = 1
		}
		for r := 0; r < game.Rows; r++ {
			for c := 0; c < game.Cols; c++ {
				crit := float32(Critical(r, c))
				t.Set(n, 0, r, c, float32(b[me][r][c])/crit)
				t.Set(n, 1, r, c, float32(b[opp][r][c])/crit)
				t.Set(n, 2, r, c, crit/4)
				pops := float32(b[channelPops][r][c])
				t.Set(n, 3, r, c, pops/(1+pops))
				t.Set(n, 4, r, c, side)
			}
		}
	}
	return t
}

// Decode rebuilds the board behind one encoded row, as stored with
// self-play samples.
func Decode(features []float32) (game.Board, error) {
	var b game.Board
	if want := InputChannels * game.Cells; len(features) != want {
		return b, fmt.Errorf("decode: got %d features, want %d", len(features), want)
	}
	plane := func(ch, r, c int) float64 {
		return float64(features[ch*game.Cells+game.CellIndex(r, c)])
	}

	me := game.ChannelA
	if plane(4, 0, 0) > 0.5 {
		me = game.ChannelB
	}
	for r := 0; r < game.Rows; r++ {
		for c := 0; c < game.Cols; c++ {
			crit := float64(Critical(r, c))
			b[me][r][c] = int(math.Round(plane(0, r, c) * crit))
			b[1-me][r][c] = int(math.Round(plane(1, r, c) * crit))
			if v := plane(3, r, c); v > 0 && v < 1 {
				b[channelPops][r][c] = int(math.Round(v / (1 - v)))
			}
			b[channelSide][r][c] = me
		}
	}
	return b, nil
}
