package nn

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

const testChannels = 5

func randomInput(n int, scale float32, seed uint64) *Tensor {
	r := rand.New(rand.NewSource(seed))
	x := NewTensor(n, testChannels, Height, Width)
	for i := range x.Data {
		x.Data[i] = (r.Float32()*2 - 1) * scale
	}
	return x
}

func fullMask(n int, illegal func(i, a int) bool) [][]bool {
	mask := make([][]bool, n)
	for i := range mask {
		mask[i] = make([]bool, Actions)
		for a := range mask[i] {
			mask[i][a] = illegal(i, a)
		}
	}
	return mask
}

func TestScenarioSingleLegalAction(t *testing.T) {
	net := New(testChannels)
	x := NewTensor(1, testChannels, Height, Width)
	mask := fullMask(1, func(_, a int) bool { return a != 0 })

	out, err := net.Evaluate(x, mask)
	require.NoError(t, err)
	require.Equal(t, float32(1), out.Policy[0][0])
	for a := 1; a < Actions; a++ {
		require.Equal(t, float32(0), out.Policy[0][a])
	}
}

func TestPolicyIsDistribution(t *testing.T) {
	net := New(testChannels, WithSeed(7))
	x := randomInput(4, 3, 11)
	mask := fullMask(4, func(i, a int) bool { return (a+i)%3 == 0 })

	out, err := net.Evaluate(x, mask)
	require.NoError(t, err)
	require.Len(t, out.Policy, 4)
	require.Len(t, out.Value, 4)

	for i, row := range out.Policy {
		require.Len(t, row, Actions)
		var sum float64
		for a, p := range row {
			require.GreaterOrEqual(t, p, float32(0))
			if mask[i][a] {
				require.Equal(t, float32(0), p, "masked action %d of instance %d", a, i)
			}
			sum += float64(p)
		}
		require.InDelta(t, 1.0, sum, 1e-5)
	}
}

func TestInvalidMask(t *testing.T) {
	net := New(testChannels)
	x := NewTensor(3, testChannels, Height, Width)
	mask := fullMask(3, func(i, _ int) bool { return i == 2 })

	_, err := net.Evaluate(x, mask)
	var invalid *InvalidMaskError
	require.True(t, errors.As(err, &invalid))
	require.Equal(t, 2, invalid.Instance)

	trunk, err := net.Forward(x)
	require.NoError(t, err)
	_, err = net.Policy(trunk, mask)
	require.True(t, errors.As(err, &invalid))
}

func TestShapeMismatch(t *testing.T) {
	net := New(testChannels)

	t.Run("wrong channel count", func(t *testing.T) {
		x := NewTensor(2, testChannels+1, Height, Width)
		_, err := net.Evaluate(x, fullMask(2, func(int, int) bool { return false }))
		var mismatch *ShapeMismatchError
		require.True(t, errors.As(err, &mismatch))
		require.Equal(t, "input", mismatch.What)
	})

	t.Run("mask rows differ from batch", func(t *testing.T) {
		x := NewTensor(2, testChannels, Height, Width)
		_, err := net.Evaluate(x, fullMask(1, func(int, int) bool { return false }))
		var mismatch *ShapeMismatchError
		require.True(t, errors.As(err, &mismatch))
		require.Equal(t, "mask", mismatch.What)
	})

	t.Run("short mask row", func(t *testing.T) {
		x := NewTensor(1, testChannels, Height, Width)
		_, err := net.Evaluate(x, [][]bool{make([]bool, Actions-1)})
		var mismatch *ShapeMismatchError
		require.True(t, errors.As(err, &mismatch))
	})

	t.Run("truncated data", func(t *testing.T) {
		x := NewTensor(1, testChannels, Height, Width)
		x.Data = x.Data[:10]
		_, err := net.Forward(x)
		var mismatch *ShapeMismatchError
		require.True(t, errors.As(err, &mismatch))
	})

	t.Run("truncated trunk", func(t *testing.T) {
		trunk, err := net.Forward(NewTensor(1, testChannels, Height, Width))
		require.NoError(t, err)
		// Spare capacity behind the slice must not be read.
		trunk.Data = trunk.Data[:10]

		_, err = net.Policy(trunk, fullMask(1, func(int, int) bool { return false }))
		var mismatch *ShapeMismatchError
		require.ErrorAs(t, err, &mismatch)
		require.Equal(t, "trunk data", mismatch.What)

		_, err = net.Value(trunk)
		require.ErrorAs(t, err, &mismatch)
	})

	t.Run("trunk without spare capacity", func(t *testing.T) {
		trunk := &Tensor{N: 1, C: Features, H: Height, W: Width, Data: make([]float32, 10)}
		_, err := net.Value(trunk)
		var mismatch *ShapeMismatchError
		require.ErrorAs(t, err, &mismatch)
	})
}

func TestEmptyBatch(t *testing.T) {
	net := New(testChannels)
	out, err := net.Evaluate(NewTensor(0, testChannels, Height, Width), [][]bool{})
	require.NoError(t, err)
	require.Empty(t, out.Policy)
	require.Empty(t, out.Value)
}

func TestValueBoundedOnExtremeInputs(t *testing.T) {
	net := New(testChannels, WithSeed(3))
	for _, scale := range []float32{0, 1, 1e3, 1e20, 1e38} {
		x := randomInput(2, scale, 5)
		trunk, err := net.Forward(x)
		require.NoError(t, err)
		values, err := net.Value(trunk)
		require.NoError(t, err)
		for _, v := range values {
			require.GreaterOrEqual(t, v, float32(-1), "scale %g", scale)
			require.LessOrEqual(t, v, float32(1), "scale %g", scale)
		}
	}

	t.Run("non-finite input", func(t *testing.T) {
		x := NewTensor(1, testChannels, Height, Width)
		x.Data[0] = float32(math.NaN())
		x.Data[1] = float32(math.Inf(1))
		trunk, err := net.Forward(x)
		require.NoError(t, err)
		values, err := net.Value(trunk)
		require.NoError(t, err)
		require.GreaterOrEqual(t, values[0], float32(-1))
		require.LessOrEqual(t, values[0], float32(1))
	})
}

func FuzzValueBounded(f *testing.F) {
	net := New(testChannels, WithSeed(9))
	f.Add(float32(1), uint64(1))
	f.Add(float32(-250), uint64(2))
	f.Add(float32(3e30), uint64(3))

	f.Fuzz(func(t *testing.T, scale float32, seed uint64) {
		trunk, err := net.Forward(randomInput(1, scale, seed))
		if err != nil {
			t.Fatal(err)
		}
		values, err := net.Value(trunk)
		if err != nil {
			t.Fatal(err)
		}
		if v := values[0]; v < -1 || v > 1 || v != v {
			t.Fatalf("value %v out of [-1, 1] for scale %v seed %d", v, scale, seed)
		}
	})
}

func TestIndependentTowerByDefault(t *testing.T) {
	net := New(testChannels)
	require.False(t, net.SharedTower())
	for i := 1; i < TowerDepth; i++ {
		require.NotSame(t, net.tower[0], net.tower[i])
		require.NotEqual(t, net.tower[0].conv1.weight, net.tower[i].conv1.weight,
			"block %d should have its own parameters", i)
	}
}

func TestSharedTower(t *testing.T) {
	shared := New(testChannels, WithSharedTower())
	independent := New(testChannels)

	require.True(t, shared.SharedTower())
	for i := 1; i < TowerDepth; i++ {
		require.Same(t, shared.tower[0], shared.tower[i])
	}
	blockParams := 0
	for _, p := range independent.tower[0].params() {
		blockParams += len(p)
	}
	require.Equal(t, independent.NumParams()-(TowerDepth-1)*blockParams, shared.NumParams())

	// A shared tower still applies the block TowerDepth times.
	x := randomInput(1, 1, 4)
	got, err := shared.Forward(x)
	require.NoError(t, err)

	h := shared.stemBN.apply(shared.stemConv.forward(x))
	relu(h.Data)
	for i := 0; i < TowerDepth; i++ {
		h = shared.tower[0].forward(h)
	}
	require.Equal(t, h.Data, got.Data)
}

func TestDeterministicInitialization(t *testing.T) {
	a := New(testChannels, WithSeed(42))
	b := New(testChannels, WithSeed(42))
	x := randomInput(2, 1, 8)
	mask := fullMask(2, func(int, int) bool { return false })

	outA, err := a.Evaluate(x, mask)
	require.NoError(t, err)
	outB, err := b.Evaluate(x, mask)
	require.NoError(t, err)
	require.Equal(t, outA, outB)
}

func TestConcurrentEvaluate(t *testing.T) {
	net := New(testChannels, WithSeed(5))
	x := randomInput(2, 1, 6)
	mask := fullMask(2, func(_, a int) bool { return a%2 == 1 })
	want, err := net.Evaluate(x, mask)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]Output, 4)
	errs := make([]error, len(results))
	for g := range results {
		g := g
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[g], errs[g] = net.Evaluate(x.Clone(), mask)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
	for _, got := range results {
		require.Equal(t, want, got)
	}
}

func TestEvaluateDoesNotMutateInput(t *testing.T) {
	net := New(testChannels)
	x := randomInput(1, 2, 1)
	before := x.Clone()
	_, err := net.Evaluate(x, fullMask(1, func(int, int) bool { return false }))
	require.NoError(t, err)
	require.Equal(t, before.Data, x.Data)
}
