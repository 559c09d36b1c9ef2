// Package nn implements the dual-head residual evaluation network as a
// plain float32 forward pass. Parameters are never written during
// evaluation, so one Network can serve concurrent Evaluate calls.
package nn

import "golang.org/x/exp/rand"

const (
	Height     = 6
	Width      = 6
	Actions    = Height * Width
	Features   = 64
	TowerDepth = 5

	policyChannels = 2
	valueChannels  = 1
	valueHidden    = Features
)

// Output holds one forward pass: a categorical distribution over the 36
// actions and a value in [-1, 1] per instance.
type Output struct {
	Policy [][]float32
	Value  []float32
}

type Option func(n *Network)

// WithSeed makes parameter initialization reproducible.
func WithSeed(seed uint64) Option {
	return func(n *Network) {
		n.seed = seed
	}
}

// WithSharedTower applies a single residual block at every tower position
// instead of TowerDepth independent ones.
func WithSharedTower() Option {
	return func(n *Network) {
		n.shared = true
	}
}

type residualBlock struct {
	conv1 *conv2d
	bn1   *batchNorm
	conv2 *conv2d
	bn2   *batchNorm
}

func newResidualBlock(r *rand.Rand) *residualBlock {
	return &residualBlock{
		conv1: newConv2d(Features, Features, 3, r),
		bn1:   newBatchNorm(Features),
		conv2: newConv2d(Features, Features, 3, r),
		bn2:   newBatchNorm(Features),
	}
}

func (b *residualBlock) forward(x *Tensor) *Tensor {
	h := b.bn1.apply(b.conv1.forward(x))
	softplus(h.Data)
	h = b.bn2.apply(b.conv2.forward(h))
	for i, v := range x.Data {
		h.Data[i] += v
	}
	relu(h.Data)
	return h
}

func (b *residualBlock) params() [][]float32 {
	return concat(b.conv1.params(), b.bn1.params(), b.conv2.params(), b.bn2.params())
}

type Network struct {
	inChannels int
	seed       uint64
	shared     bool

	stemConv *conv2d
	stemBN   *batchNorm
	tower    []*residualBlock

	policyConv *conv2d
	policyBN   *batchNorm
	policyFC   *linear

	valueConv *conv2d
	valueBN   *batchNorm
	valueFC1  *linear
	valueFC2  *linear
}

// New builds a network for inputs with inChannels planes of 6×6 and
// randomly initialized parameters.
func New(inChannels int, options ...Option) *Network {
	if inChannels < 1 {
		panic("nn: input channels must be at least 1")
	}
	n := &Network{inChannels: inChannels, seed: 1}
	for _, option := range options {
		option(n)
	}
	r := rand.New(rand.NewSource(n.seed))

	n.stemConv = newConv2d(inChannels, Features, 3, r)
	n.stemBN = newBatchNorm(Features)

	n.tower = make([]*residualBlock, TowerDepth)
	for i := range n.tower {
		if n.shared && i > 0 {
			n.tower[i] = n.tower[0]
			continue
		}
		n.tower[i] = newResidualBlock(r)
	}

	n.policyConv = newConv2d(Features, policyChannels, 1, r)
	n.policyBN = newBatchNorm(policyChannels)
	n.policyFC = newLinear(policyChannels*Height*Width, Actions, r)

	n.valueConv = newConv2d(Features, valueChannels, 1, r)
	n.valueBN = newBatchNorm(valueChannels)
	n.valueFC1 = newLinear(valueChannels*Height*Width, valueHidden, r)
	n.valueFC2 = newLinear(valueHidden, 1, r)
	return n
}

// InChannels returns the number of input planes the network expects.
func (n *Network) InChannels() int { return n.inChannels }

// SharedTower reports whether every tower position uses the same block.
func (n *Network) SharedTower() bool { return n.shared }

// Forward runs the stem and the residual tower and returns the trunk
// features (N×64×6×6) consumed by both heads.
func (n *Network) Forward(x *Tensor) (*Tensor, error) {
	if err := x.Check("input", []int{x.N, n.inChannels, Height, Width}); err != nil {
		return nil, err
	}

	h := n.stemBN.apply(n.stemConv.forward(x))
	relu(h.Data)
	for _, block := range n.tower {
		h = block.forward(h)
	}
	return h, nil
}

// Policy evaluates the policy head. mask[i][a] set means action a is
// illegal for instance i and receives probability 0.
func (n *Network) Policy(trunk *Tensor, mask [][]bool) ([][]float32, error) {
	if err := n.checkTrunk(trunk); err != nil {
		return nil, err
	}
	if err := checkMaskShape(mask, trunk.N); err != nil {
		return nil, err
	}
	if err := checkMask(mask); err != nil {
		return nil, err
	}

	h := n.policyBN.apply(n.policyConv.forward(trunk))
	softplus(h.Data)
	logits := n.policyFC.forward(h.Data, trunk.N)

	policy := make([][]float32, trunk.N)
	for i := range policy {
		row := logits[i*Actions : (i+1)*Actions]
		MaskedSoftmax(row, mask[i])
		policy[i] = row
	}
	return policy, nil
}

// Value evaluates the value head; every result lies in [-1, 1].
func (n *Network) Value(trunk *Tensor) ([]float32, error) {
	if err := n.checkTrunk(trunk); err != nil {
		return nil, err
	}

	h := n.valueBN.apply(n.valueConv.forward(trunk))
	softplus(h.Data)
	hidden := n.valueFC1.forward(h.Data, trunk.N)
	softplus(hidden)
	out := n.valueFC2.forward(hidden, trunk.N)

	value := make([]float32, trunk.N)
	for i := range value {
		value[i] = Bound(out[i])
	}
	return value, nil
}

// Evaluate runs the trunk and both heads. The mask is validated before any
// computation so a bad mask costs nothing.
func (n *Network) Evaluate(x *Tensor, mask [][]bool) (Output, error) {
	if err := ValidateMask(mask, x.N); err != nil {
		return Output{}, err
	}
	trunk, err := n.Forward(x)
	if err != nil {
		return Output{}, err
	}
	policy, err := n.Policy(trunk, mask)
	if err != nil {
		return Output{}, err
	}
	value, err := n.Value(trunk)
	if err != nil {
		return Output{}, err
	}
	return Output{Policy: policy, Value: value}, nil
}

func (n *Network) checkTrunk(trunk *Tensor) error {
	return trunk.Check("trunk", []int{trunk.N, Features, Height, Width})
}

func checkMaskShape(mask [][]bool, batch int) error {
	if len(mask) != batch {
		return &ShapeMismatchError{What: "mask", Want: []int{batch, Actions}, Got: []int{len(mask), Actions}}
	}
	for i, row := range mask {
		if len(row) != Actions {
			return &ShapeMismatchError{What: "mask", Want: []int{batch, Actions}, Got: []int{i, len(row)}}
		}
	}
	return nil
}

// blocks returns the distinct residual blocks in tower order.
func (n *Network) blocks() []*residualBlock {
	if n.shared {
		return n.tower[:1]
	}
	return n.tower
}

// params lists every parameter slice in serialization order.
func (n *Network) params() [][]float32 {
	ps := concat(n.stemConv.params(), n.stemBN.params())
	for _, b := range n.blocks() {
		ps = append(ps, b.params()...)
	}
	return concat(ps,
		n.policyConv.params(), n.policyBN.params(), n.policyFC.params(),
		n.valueConv.params(), n.valueBN.params(), n.valueFC1.params(), n.valueFC2.params(),
	)
}

// NumParams returns the number of distinct learned scalars.
func (n *Network) NumParams() int {
	total := 0
	for _, p := range n.params() {
		total += len(p)
	}
	return total
}

func concat(groups ...[][]float32) [][]float32 {
	var out [][]float32
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
