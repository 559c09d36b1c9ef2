package nn

import "popit/internal/shape"

// Tensor is a dense float32 NCHW tensor stored as one flat slice, indexed
// ((n*C+c)*H+y)*W+x.
type Tensor struct {
	N, C, H, W int
	Data       []float32
}

// NewTensor allocates a zero tensor of the given shape.
func NewTensor(n, c, h, w int) *Tensor {
	return &Tensor{N: n, C: c, H: h, W: w, Data: make([]float32, n*c*h*w)}
}

func (t *Tensor) Shape() []int { return []int{t.N, t.C, t.H, t.W} }

// Check fails with a ShapeMismatchError when the header differs from want
// or Data does not hold exactly N*C*H*W values.
func (t *Tensor) Check(what string, want []int) error {
	if err := shape.Check(what, want, t.Shape()); err != nil {
		return err
	}
	if size := t.N * t.C * t.H * t.W; len(t.Data) != size {
		return &ShapeMismatchError{What: what + " data", Want: []int{size}, Got: []int{len(t.Data)}}
	}
	return nil
}

func (t *Tensor) index(n, c, y, x int) int { return ((n*t.C+c)*t.H+y)*t.W + x }

func (t *Tensor) At(n, c, y, x int) float32 { return t.Data[t.index(n, c, y, x)] }

func (t *Tensor) Set(n, c, y, x int, v float32) { t.Data[t.index(n, c, y, x)] = v }

// Row returns the flattened C*H*W values of instance n. The slice aliases
// the tensor.
func (t *Tensor) Row(n int) []float32 {
	size := t.C * t.H * t.W
	return t.Data[n*size : (n+1)*size]
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	out := &Tensor{N: t.N, C: t.C, H: t.H, W: t.W, Data: make([]float32, len(t.Data))}
	copy(out.Data, t.Data)
	return out
}
