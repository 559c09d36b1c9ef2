package nn

import (
	"math"

	"golang.org/x/exp/rand"
)

const bnEpsilon = 1e-5

// conv2d is a k×k convolution with stride 1 and same padding.
type conv2d struct {
	in, out, k int
	weight     []float32 // [out][in][k][k]
	bias       []float32 // [out]
}

func newConv2d(in, out, k int, r *rand.Rand) *conv2d {
	c := &conv2d{
		in:     in,
		out:    out,
		k:      k,
		weight: make([]float32, out*in*k*k),
		bias:   make([]float32, out),
	}
	bound := float32(1 / math.Sqrt(float64(in*k*k)))
	uniform(c.weight, bound, r)
	uniform(c.bias, bound, r)
	return c
}

func (c *conv2d) forward(x *Tensor) *Tensor {
	y := NewTensor(x.N, c.out, x.H, x.W)
	pad := c.k / 2
	plane := x.H * x.W
	for n := 0; n < x.N; n++ {
		for o := 0; o < c.out; o++ {
			dst := y.Data[(n*c.out+o)*plane : (n*c.out+o+1)*plane]
			for i := range dst {
				dst[i] = c.bias[o]
			}
			for i := 0; i < c.in; i++ {
				src := x.Data[(n*x.C+i)*plane : (n*x.C+i+1)*plane]
				kern := c.weight[(o*c.in+i)*c.k*c.k : (o*c.in+i+1)*c.k*c.k]
				for ky := 0; ky < c.k; ky++ {
					for kx := 0; kx < c.k; kx++ {
						w := kern[ky*c.k+kx]
						if w == 0 {
							continue
						}
						for oy := 0; oy < x.H; oy++ {
							iy := oy + ky - pad
							if iy < 0 || iy >= x.H {
								continue
							}
							for ox := 0; ox < x.W; ox++ {
								ix := ox + kx - pad
								if ix < 0 || ix >= x.W {
									continue
								}
								dst[oy*x.W+ox] += w * src[iy*x.W+ix]
							}
						}
					}
				}
			}
		}
	}
	return y
}

func (c *conv2d) params() [][]float32 { return [][]float32{c.weight, c.bias} }

// batchNorm is per-channel normalization with frozen running statistics.
type batchNorm struct {
	gamma, beta, mean, variance []float32
}

func newBatchNorm(channels int) *batchNorm {
	bn := &batchNorm{
		gamma:    make([]float32, channels),
		beta:     make([]float32, channels),
		mean:     make([]float32, channels),
		variance: make([]float32, channels),
	}
	for i := 0; i < channels; i++ {
		bn.gamma[i] = 1
		bn.variance[i] = 1
	}
	return bn
}

// apply normalizes x in place.
func (bn *batchNorm) apply(x *Tensor) *Tensor {
	plane := x.H * x.W
	for c := 0; c < x.C; c++ {
		scale := bn.gamma[c] / float32(math.Sqrt(float64(bn.variance[c])+bnEpsilon))
		shift := bn.beta[c] - bn.mean[c]*scale
		for n := 0; n < x.N; n++ {
			p := x.Data[(n*x.C+c)*plane : (n*x.C+c+1)*plane]
			for i := range p {
				p[i] = p[i]*scale + shift
			}
		}
	}
	return x
}

func (bn *batchNorm) params() [][]float32 {
	return [][]float32{bn.gamma, bn.beta, bn.mean, bn.variance}
}

// linear is a fully connected layer over rows of length in.
type linear struct {
	in, out int
	weight  []float32 // [out][in]
	bias    []float32
}

func newLinear(in, out int, r *rand.Rand) *linear {
	l := &linear{in: in, out: out, weight: make([]float32, out*in), bias: make([]float32, out)}
	bound := float32(1 / math.Sqrt(float64(in)))
	uniform(l.weight, bound, r)
	uniform(l.bias, bound, r)
	return l
}

// forward maps each of the n rows of x (length in) to a row of length out.
func (l *linear) forward(x []float32, n int) []float32 {
	y := make([]float32, n*l.out)
	for b := 0; b < n; b++ {
		row := x[b*l.in : (b+1)*l.in]
		for o := 0; o < l.out; o++ {
			s := l.bias[o]
			w := l.weight[o*l.in : (o+1)*l.in]
			for i, v := range row {
				s += v * w[i]
			}
			y[b*l.out+o] = s
		}
	}
	return y
}

func (l *linear) params() [][]float32 { return [][]float32{l.weight, l.bias} }

func relu(xs []float32) {
	for i, v := range xs {
		if v < 0 {
			xs[i] = 0
		}
	}
}

// softplus computes log(1+e^x) in place without overflowing for large x.
func softplus(xs []float32) {
	for i, v := range xs {
		switch {
		case v > 20:
			// log1p(e^x) == x to float32 precision
		case v < -20:
			xs[i] = float32(math.Exp(float64(v)))
		default:
			xs[i] = float32(math.Log1p(math.Exp(float64(v))))
		}
	}
}

// Bound squashes v into [-1, 1]. NaN maps to 0.
func Bound(v float32) float32 {
	t := float32(math.Tanh(float64(v)))
	if t != t {
		return 0
	}
	return t
}

func uniform(dst []float32, bound float32, r *rand.Rand) {
	for i := range dst {
		dst[i] = (r.Float32()*2 - 1) * bound
	}
}
