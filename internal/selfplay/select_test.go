package selfplay

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestSelectActionGreedy(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	policy := []float32{0.1, 0.5, 0.4}
	for i := 0; i < 10; i++ {
		require.Equal(t, 1, SelectAction(policy, 0, 0, r))
	}
}

func TestSelectActionGreedyTieKeepsIndexOrder(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	require.Equal(t, 2, SelectAction([]float32{0, 0, 0.5, 0.5}, 0, 0, r))
}

func TestSelectActionNeverPicksZero(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	policy := make([]float32, 36)
	policy[3] = 0.25
	policy[17] = 0.75
	for i := 0; i < 500; i++ {
		a := SelectAction(policy, 1, 0, r)
		require.Contains(t, []int{3, 17}, a)
	}
}

func TestSelectActionTopK(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	policy := []float32{0.05, 0.4, 0.05, 0.3, 0.2}
	seen := map[int]int{}
	for i := 0; i < 1000; i++ {
		seen[SelectAction(policy, 1, 2, r)]++
	}
	require.Len(t, seen, 2)
	require.Positive(t, seen[1])
	require.Positive(t, seen[3])
}

func TestSelectActionLowTemperatureSharpens(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	policy := []float32{0.45, 0.55}
	best := 0
	for i := 0; i < 1000; i++ {
		if SelectAction(policy, 0.05, 0, r) == 1 {
			best++
		}
	}
	require.Greater(t, best, 950)
}

func TestSelectActionEmpty(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	require.Equal(t, -1, SelectAction(make([]float32, 36), 1, 0, r))
	require.Equal(t, -1, SelectAction(nil, 0, 0, r))
}
