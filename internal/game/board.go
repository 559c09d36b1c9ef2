package game

// Board geometry. These are fixed for the whole module.
const (
	Rows     = 6
	Cols     = 6
	Cells    = Rows * Cols
	Channels = 4 // [A pieces, B pieces, aux, aux]
	Actions  = Cells
)

// Channel indices inside a board.
const (
	ChannelA = iota
	ChannelB
	ChannelAux0
	ChannelAux1
)

// Board is a single 4×6×6 grid of non-negative counts.
type Board [Channels][Rows][Cols]int

// State is a batch of independent boards. It is owned by whoever called
// Env.Reset and is mutated in place by Env.Step.
type State struct {
	Boards []Board
}

// NewState allocates a zero-filled batch of n boards.
func NewState(n int) *State {
	return &State{Boards: make([]Board, n)}
}

// Len returns the number of instances in the batch.
func (s *State) Len() int { return len(s.Boards) }

// Totals returns the board-wide piece counts of player A and player B for
// instance i.
func (s *State) Totals(i int) (a, b int) {
	bd := &s.Boards[i]
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			a += bd[ChannelA][r][c]
			b += bd[ChannelB][r][c]
		}
	}
	return a, b
}

// Clone returns a deep copy of the batch.
func (s *State) Clone() *State {
	boards := make([]Board, len(s.Boards))
	copy(boards, s.Boards) // Board is an array, so this copies every cell
	return &State{Boards: boards}
}

// Shape returns the dimensions of the batch as [n, channels, rows, cols].
func (s *State) Shape() []int {
	return []int{len(s.Boards), Channels, Rows, Cols}
}

// CellIndex flattens (row, col) into the action index used by Step.
func CellIndex(r, c int) int { return r*Cols + c }

// CellCoord is the inverse of CellIndex.
func CellCoord(action int) (r, c int) { return action / Cols, action % Cols }
