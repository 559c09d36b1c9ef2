package selfplay

import (
	"math"
	"sort"

	"golang.org/x/exp/rand"
)

// SelectAction picks an action from a policy row. Only the topK most
// probable actions are candidates (all of them when topK is 0); the
// candidates are sharpened with the temperature and sampled. Temperature 0
// is greedy. Zero-probability actions are never chosen. It returns -1 when
// the row has no positive entry.
func SelectAction(policy []float32, temperature float64, topK int, r *rand.Rand) int {
	type scored struct {
		action int
		p      float64
	}
	arr := make([]scored, 0, len(policy))
	for a, p := range policy {
		if p > 0 {
			arr = append(arr, scored{a, float64(p)})
		}
	}
	if len(arr) == 0 {
		return -1
	}

	// Highest prior first; ties keep index order so greedy play is stable.
	sort.SliceStable(arr, func(i, j int) bool { return arr[i].p > arr[j].p })

	if temperature == 0 {
		return arr[0].action
	}
	if topK > 0 && topK < len(arr) {
		arr = arr[:topK]
	}

	weights := make([]float64, len(arr))
	var sum float64
	for i, s := range arr {
		// p^(1/T) relative to the best candidate, so small temperatures do
		// not underflow to zero.
		weights[i] = math.Exp(math.Log(s.p/arr[0].p) / temperature)
		sum += weights[i]
	}

	u := r.Float64() * sum
	for i, w := range weights {
		u -= w
		if u < 0 {
			return arr[i].action
		}
	}
	return arr[len(arr)-1].action
}
