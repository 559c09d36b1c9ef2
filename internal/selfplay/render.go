package selfplay

import "popit/internal/game"

// Overlay carries optional per-cell scalars shown next to the board. Any
// slice may be nil; rows of finished instances are nil.
type Overlay struct {
	Policy [][]float32 // per instance, per action
	Q      [][]float32 // per instance, per action
	Value  []float32   // per instance
	Visits [][]float32 // per instance, per action
}

// valueRow spreads a position value over the legal cells of one row. A
// single network evaluation has no per-action estimate, so every legal
// action gets the value of the position it is taken from.
func valueRow(v float32, illegal []bool) []float32 {
	q := make([]float32, game.Actions)
	for a, bad := range illegal {
		if !bad {
			q[a] = v
		}
	}
	return q
}

// Renderer displays board states. The game and network packages never
// depend on it; it is injected into a Runner only when something should
// be shown.
type Renderer interface {
	Render(s *game.State, ov Overlay)
}
