package game

// Transition applies one action per instance to the whole batch in place.
// Implementations must be deterministic and total over any non-negative
// state and any action in [0, Actions); they alone decide what is legal.
type Transition interface {
	Apply(s *State, actions []int)
}

// TransitionFunc adapts a plain function to Transition.
type TransitionFunc func(s *State, actions []int)

func (f TransitionFunc) Apply(s *State, actions []int) { f(s, actions) }
