// Package ml evaluates Pop it! positions with an exported ONNX model
// through ONNX Runtime. The model must take an (N, C, 6, 6) float input
// and produce policy logits (N, 36) and a value (N, 1).
package ml

import (
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	ort "github.com/yalue/onnxruntime_go"

	"popit/internal/nn"
)

const (
	envModelPath = "POPIT_ONNX_PATH"
	envUseCUDA   = "POPIT_ONNX_CUDA"
	envLibPath   = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

	defaultModel    = "popit.onnx"
	defaultMaxBatch = 128
)

type Option func(e *ORTEvaluator)

// WithModelPath overrides POPIT_ONNX_PATH.
func WithModelPath(path string) Option {
	return func(e *ORTEvaluator) {
		e.modelPath = path
	}
}

// WithCUDA requests the CUDA execution provider. Failure to attach it
// falls back to CPU.
func WithCUDA(on bool) Option {
	return func(e *ORTEvaluator) {
		e.useCUDA = on
	}
}

// WithMaxBatch sets the fixed batch dimension the session is bound with.
// Larger evaluations are split into chunks.
func WithMaxBatch(n int) Option {
	return func(e *ORTEvaluator) {
		if n > 0 {
			e.maxBatch = n
		}
	}
}

func WithInputChannels(c int) Option {
	return func(e *ORTEvaluator) {
		if c > 0 {
			e.channels = c
		}
	}
}

// WithNames sets the graph's input and output names.
func WithNames(input, policy, value string) Option {
	return func(e *ORTEvaluator) {
		e.inputName, e.policyName, e.valueName = input, policy, value
	}
}

// WithValueTanh squashes the value output with tanh, for graphs that
// export the value head before its activation.
func WithValueTanh() Option {
	return func(e *ORTEvaluator) {
		e.valueTanh = true
	}
}

// ORTEvaluator runs a bound AdvancedSession. Evaluate is safe for
// concurrent use; runs are serialized because the I/O tensors are shared.
type ORTEvaluator struct {
	modelPath  string
	useCUDA    bool
	maxBatch   int
	channels   int
	inputName  string
	policyName string
	valueName  string
	valueTanh  bool

	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	policy  *ort.Tensor[float32]
	value   *ort.Tensor[float32]
}

var (
	envOnce sync.Once
	envErr  error
)

func ensureEnvironment() error {
	envOnce.Do(func() {
		if ort.IsInitialized() {
			return
		}
		if p := os.Getenv(envLibPath); p != "" {
			ort.SetSharedLibraryPath(p)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			envErr = fmt.Errorf("ort.InitializeEnvironment: %w", err)
		}
	})
	return envErr
}

// NewORTEvaluator loads the model named by WithModelPath, POPIT_ONNX_PATH
// or popit.onnx in the working directory, in that order.
func NewORTEvaluator(options ...Option) (*ORTEvaluator, error) {
	e := &ORTEvaluator{
		modelPath:  os.Getenv(envModelPath),
		useCUDA:    os.Getenv(envUseCUDA) == "1",
		maxBatch:   defaultMaxBatch,
		channels:   5,
		inputName:  "x",
		policyName: "policy",
		valueName:  "value",
	}
	for _, option := range options {
		option(e)
	}
	if e.modelPath == "" {
		e.modelPath = defaultModel
	}
	if _, err := os.Stat(e.modelPath); err != nil {
		return nil, fmt.Errorf("no model found: set %s or place %s: %w", envModelPath, defaultModel, err)
	}
	if err := ensureEnvironment(); err != nil {
		return nil, err
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("ort.NewSessionOptions: %w", err)
	}
	defer opts.Destroy()
	if e.useCUDA {
		e.useCUDA = attachCUDA(opts)
	}

	b := int64(e.maxBatch)
	e.input, err = ort.NewEmptyTensor[float32](ort.NewShape(b, int64(e.channels), nn.Height, nn.Width))
	if err != nil {
		return nil, fmt.Errorf("input tensor: %w", err)
	}
	e.policy, err = ort.NewEmptyTensor[float32](ort.NewShape(b, nn.Actions))
	if err != nil {
		e.destroyTensors()
		return nil, fmt.Errorf("policy tensor: %w", err)
	}
	e.value, err = ort.NewEmptyTensor[float32](ort.NewShape(b, 1))
	if err != nil {
		e.destroyTensors()
		return nil, fmt.Errorf("value tensor: %w", err)
	}

	e.session, err = ort.NewAdvancedSession(e.modelPath,
		[]string{e.inputName}, []string{e.policyName, e.valueName},
		[]ort.Value{e.input}, []ort.Value{e.policy, e.value}, opts)
	if err != nil {
		e.destroyTensors()
		return nil, fmt.Errorf("ort.NewAdvancedSession: %w", err)
	}

	log.Info().Str("model", e.modelPath).Bool("cuda", e.useCUDA).Int("max_batch", e.maxBatch).Msg("onnx evaluator ready")
	return e, nil
}

func attachCUDA(opts *ort.SessionOptions) bool {
	cuOpts, err := ort.NewCUDAProviderOptions()
	if err != nil {
		log.Warn().Err(err).Msg("cuda provider unavailable, using cpu")
		return false
	}
	defer cuOpts.Destroy()
	if err := opts.AppendExecutionProviderCUDA(cuOpts); err != nil {
		log.Warn().Err(err).Msg("cuda provider rejected, using cpu")
		return false
	}
	return true
}

// Evaluate has the same contract as nn.Network.Evaluate.
func (e *ORTEvaluator) Evaluate(x *nn.Tensor, mask [][]bool) (nn.Output, error) {
	if err := nn.ValidateMask(mask, x.N); err != nil {
		return nn.Output{}, err
	}
	if err := x.Check("input", []int{x.N, e.channels, nn.Height, nn.Width}); err != nil {
		return nn.Output{}, err
	}

	out := nn.Output{Policy: make([][]float32, 0, x.N), Value: make([]float32, 0, x.N)}
	plane := e.channels * nn.Height * nn.Width
	for start := 0; start < x.N; start += e.maxBatch {
		end := min(start+e.maxBatch, x.N)
		logits, values, err := e.run(x.Data[start*plane : end*plane])
		if err != nil {
			return nn.Output{}, err
		}
		chunk := decode(logits, values, mask[start:end], e.valueTanh)
		out.Policy = append(out.Policy, chunk.Policy...)
		out.Value = append(out.Value, chunk.Value...)
	}
	return out, nil
}

// run copies one chunk into the bound input, zero-pads the rest and
// returns copies of the used output rows.
func (e *ORTEvaluator) run(data []float32) (logits, values []float32, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, nil, fmt.Errorf("onnx evaluator is closed")
	}

	in := e.input.GetData()
	n := copy(in, data)
	clear(in[n:])

	if err := e.session.Run(); err != nil {
		return nil, nil, fmt.Errorf("ort run: %w", err)
	}
	rows := len(data) / (e.channels * nn.Height * nn.Width)
	logits = append([]float32(nil), e.policy.GetData()[:rows*nn.Actions]...)
	values = append([]float32(nil), e.value.GetData()[:rows]...)
	return logits, values, nil
}

// decode applies the mask and softmax to raw logits and sanitizes values.
func decode(logits, values []float32, mask [][]bool, valueTanh bool) nn.Output {
	out := nn.Output{Policy: make([][]float32, len(mask)), Value: make([]float32, len(mask))}
	for i := range mask {
		row := logits[i*nn.Actions : (i+1)*nn.Actions]
		nn.MaskedSoftmax(row, mask[i])
		out.Policy[i] = row

		v := values[i]
		if valueTanh {
			v = nn.Bound(v)
		}
		out.Value[i] = clampValue(v)
	}
	return out
}

func clampValue(v float32) float32 {
	switch {
	case math.IsNaN(float64(v)):
		return 0
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}

func (e *ORTEvaluator) destroyTensors() {
	for _, t := range []*ort.Tensor[float32]{e.input, e.policy, e.value} {
		if t != nil {
			_ = t.Destroy()
		}
	}
	e.input, e.policy, e.value = nil, nil, nil
}

// Close releases the session. The ONNX Runtime environment stays up for
// other evaluators; call Shutdown before exit to release it.
func (e *ORTEvaluator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	e.destroyTensors()
	return err
}

// Shutdown tears down the process-wide ONNX Runtime environment.
func Shutdown() {
	if ort.IsInitialized() {
		_ = ort.DestroyEnvironment()
	}
}
