package ml

import (
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"popit/internal/nn"
)

func TestDecodeMasksAndNormalizes(t *testing.T) {
	logits := make([]float32, 2*nn.Actions)
	for i := range logits {
		logits[i] = float32(i % 7)
	}
	mask := [][]bool{make([]bool, nn.Actions), make([]bool, nn.Actions)}
	for a := 1; a < nn.Actions; a++ {
		mask[1][a] = true
	}

	out := decode(logits, []float32{0.25, -3}, mask, false)
	require.Len(t, out.Policy, 2)

	var sum float64
	for _, p := range out.Policy[0] {
		require.Positive(t, p)
		sum += float64(p)
	}
	require.InDelta(t, 1, sum, 1e-5)
	require.InDelta(t, 1, out.Policy[1][0], 1e-6)
	require.Zero(t, out.Policy[1][1])

	require.InDelta(t, 0.25, out.Value[0], 1e-6)
	require.Equal(t, float32(-1), out.Value[1], "values are clamped")
}

func TestDecodeValueTanh(t *testing.T) {
	mask := [][]bool{make([]bool, nn.Actions), make([]bool, nn.Actions)}
	out := decode(make([]float32, 2*nn.Actions), []float32{0.5, float32(math.NaN())}, mask, true)
	require.InDelta(t, math.Tanh(0.5), out.Value[0], 1e-6)
	require.Zero(t, out.Value[1])
}

func TestClampValue(t *testing.T) {
	require.Equal(t, float32(1), clampValue(float32(math.Inf(1))))
	require.Equal(t, float32(-1), clampValue(-2))
	require.Equal(t, float32(0.5), clampValue(0.5))
	require.Zero(t, clampValue(float32(math.NaN())))
}

func TestEvaluateRejectsTruncatedInput(t *testing.T) {
	e := &ORTEvaluator{channels: 5, maxBatch: 128}
	x := nn.NewTensor(2, 5, nn.Height, nn.Width)
	x.Data = x.Data[:10]
	mask := [][]bool{make([]bool, nn.Actions), make([]bool, nn.Actions)}

	_, err := e.Evaluate(x, mask)
	var mismatch *nn.ShapeMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, "input data", mismatch.What)

	_, err = e.Evaluate(nn.NewTensor(2, 4, nn.Height, nn.Width), mask)
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, "input", mismatch.What)
}

func TestMissingModel(t *testing.T) {
	_, err := NewORTEvaluator(WithModelPath(t.TempDir() + "/absent.onnx"))
	require.ErrorContains(t, err, "no model found")
}

// Needs a real model and the ONNX Runtime shared library.
func TestORTEvaluator(t *testing.T) {
	if os.Getenv(envModelPath) == "" || os.Getenv(envLibPath) == "" {
		t.Skipf("set %s and %s to run", envModelPath, envLibPath)
	}
	e, err := NewORTEvaluator(WithMaxBatch(4))
	require.NoError(t, err)
	defer e.Close()

	// Six instances exercise chunking across two runs.
	x := nn.NewTensor(6, e.channels, nn.Height, nn.Width)
	mask := make([][]bool, 6)
	for i := range mask {
		mask[i] = make([]bool, nn.Actions)
		mask[i][0] = true
	}

	out, err := e.Evaluate(x, mask)
	require.NoError(t, err)
	require.Len(t, out.Policy, 6)
	for i, row := range out.Policy {
		require.Zero(t, row[0])
		require.GreaterOrEqual(t, out.Value[i], float32(-1))
		require.LessOrEqual(t, out.Value[i], float32(1))
	}

	bad := [][]bool{make([]bool, nn.Actions)}
	for a := range bad[0] {
		bad[0][a] = true
	}
	_, err = e.Evaluate(nn.NewTensor(1, e.channels, nn.Height, nn.Width), bad)
	var maskErr *nn.InvalidMaskError
	require.ErrorAs(t, err, &maskErr)
}
