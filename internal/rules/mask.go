package rules

import "popit/internal/game"

// IllegalMask marks, for every instance, the cells the side to move may
// not play: those holding opponent pieces.
func IllegalMask(s *game.State) [][]bool {
	mask := make([][]bool, s.Len())
	for i := range s.Boards {
		mask[i] = IllegalRow(&s.Boards[i])
	}
	return mask
}

// IllegalRow is IllegalMask for a single board.
func IllegalRow(b *game.Board) []bool {
	row := make([]bool, game.Actions)
	opp := 1 - SideToMove(b)
	for r := 0; r < game.Rows; r++ {
		for c := 0; c < game.Cols; c++ {
			row[game.CellIndex(r, c)] = b[opp][r][c] > 0
		}
	}
	return row
}

// LegalActions lists the playable cells of b in index order.
func LegalActions(b *game.Board) []int {
	var out []int
	for a, bad := range IllegalRow(b) {
		if !bad {
			out = append(out, a)
		}
	}
	return out
}

// PassAction returns a cell held by the opponent of the side to move:
// playing it passes the turn without touching any piece. ok is false when
// the opponent holds nothing.
func PassAction(b *game.Board) (action int, ok bool) {
	for a, bad := range IllegalRow(b) {
		if bad {
			return a, true
		}
	}
	return 0, false
}
