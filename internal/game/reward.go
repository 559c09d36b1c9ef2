package game

// RewardMode selects when terminal rewards become visible.
type RewardMode int

const (
	// RewardBatchSynchronized surfaces rewards only on the call where every
	// instance of the batch is done. Instances that finish early wait for
	// the rest.
	RewardBatchSynchronized RewardMode = iota
	// RewardPerInstance surfaces a reward for instance i whenever done[i].
	RewardPerInstance
)

func (m RewardMode) String() string {
	switch m {
	case RewardBatchSynchronized:
		return "batch"
	case RewardPerInstance:
		return "per-instance"
	}
	return "unknown"
}

// Reward is the optional terminal reward vector returned by Reset and
// Step. The zero value is absent.
type Reward struct {
	values []int
	valid  []bool
}

// Present reports whether a reward is defined for every instance.
func (r Reward) Present() bool {
	if len(r.valid) == 0 {
		return false
	}
	for _, ok := range r.valid {
		if !ok {
			return false
		}
	}
	return true
}

// Values returns the full reward vector and true, or nil and false when
// the reward is not defined for the whole batch.
func (r Reward) Values() ([]int, bool) {
	if !r.Present() {
		return nil, false
	}
	out := make([]int, len(r.values))
	copy(out, r.values)
	return out, true
}

// At returns the reward of instance i and whether it is defined.
func (r Reward) At(i int) (int, bool) {
	if i < 0 || i >= len(r.valid) || !r.valid[i] {
		return 0, false
	}
	return r.values[i], true
}

// outcome is +1 when player A still has pieces, -1 otherwise.
func outcome(a int) int {
	if a > 0 {
		return 1
	}
	return -1
}
