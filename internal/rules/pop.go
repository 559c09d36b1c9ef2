// Package rules is the reference transition function for Pop it!: a
// chain-reaction game in which cells that reach their critical mass pop
// into their neighbours and convert them.
//
// Board channels as used here:
//
//	0, 1  pieces of player A and B
//	2     side to move, written to every cell (0 = A, 1 = B)
//	3     number of times each cell has popped
package rules

import "popit/internal/game"

const (
	channelSide = game.ChannelAux0
	channelPops = game.ChannelAux1

	// maxPops bounds a single cascade so Apply stays total even on states
	// that would otherwise pop forever.
	maxPops = 4 * game.Cells * game.Cells
)

type cell struct{ r, c int }

// orthogonal neighbour offsets
var dirs = []cell{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Critical returns the critical mass of a cell: its number of orthogonal
// neighbours (2 in a corner, 3 on an edge, 4 inside).
func Critical(r, c int) int {
	n := 0
	for _, d := range dirs {
		if inBounds(r+d.r, c+d.c) {
			n++
		}
	}
	return n
}

func inBounds(r, c int) bool { return r >= 0 && r < game.Rows && c >= 0 && c < game.Cols }

// SideToMove returns the channel index (ChannelA or ChannelB) of the
// player to move on b.
func SideToMove(b *game.Board) int {
	if b[channelSide][0][0] > 0 {
		return game.ChannelB
	}
	return game.ChannelA
}

// Pop implements game.Transition.
type Pop struct{}

// Apply plays one action on every board of the batch. A move on a cell
// held by the opponent is illegal and only passes the turn.
func (Pop) Apply(s *game.State, actions []int) {
	for i := range s.Boards {
		play(&s.Boards[i], actions[i])
	}
}

func play(b *game.Board, action int) {
	me := SideToMove(b)
	opp := 1 - me
	r, c := game.CellCoord(action)

	if b[opp][r][c] == 0 {
		b[me][r][c]++
		if b[me][r][c] >= Critical(r, c) {
			cascade(b, me, cell{r, c})
		}
	}

	next := 1 - me
	for y := 0; y < game.Rows; y++ {
		for x := 0; x < game.Cols; x++ {
			b[channelSide][y][x] = next
		}
	}
}

// cascade pops cells in FIFO order until nothing is at critical mass, the
// opponent is wiped out, or maxPops is reached.
func cascade(b *game.Board, me int, start cell) {
	opp := 1 - me
	oppLeft := total(b, opp)
	queue := []cell{start}

	for pops := 0; len(queue) > 0 && pops < maxPops; {
		p := queue[0]
		queue = queue[1:]
		crit := Critical(p.r, p.c)
		if b[me][p.r][p.c] < crit {
			continue
		}
		b[me][p.r][p.c] -= crit
		b[channelPops][p.r][p.c]++
		pops++

		for _, d := range dirs {
			q := cell{p.r + d.r, p.c + d.c}
			if !inBounds(q.r, q.c) {
				continue
			}
			if n := b[opp][q.r][q.c]; n > 0 {
				oppLeft -= n
				b[me][q.r][q.c] += n
				b[opp][q.r][q.c] = 0
			}
			b[me][q.r][q.c]++
			if b[me][q.r][q.c] >= Critical(q.r, q.c) {
				queue = append(queue, q)
			}
		}
		if oppLeft == 0 {
			return
		}
	}
}

func total(b *game.Board, ch int) int {
	n := 0
	for r := 0; r < game.Rows; r++ {
		for c := 0; c < game.Cols; c++ {
			n += b[ch][r][c]
		}
	}
	return n
}
