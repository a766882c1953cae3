// Package baseline provides a small self-contained MLP activity classifier
// over flattened sensor windows. It exists as a sanity baseline for the
// datasets package: no external deep-learning framework, deterministic under
// a fixed seed, fast enough to run in tests.
package baseline

import (
	"errors"
	"math"
	"math/rand"
	"time"
)

// Config holds configurable hyperparameters for the MLP model and training.
type Config struct {
	// HiddenSizes is the list of hidden layer sizes. Example: []int{64, 32}
	// If empty, a single hidden layer of size 64 will be used.
	HiddenSizes []int

	// InputDim is the dimensionality of the flattened window
	// (channels * timesteps). Required; NewModel rejects zero.
	InputDim int

	// NumClasses is the number of activity classes (default 6).
	NumClasses int

	// LearningRate used by the SGD updates (default 0.01).
	LearningRate float64

	// Epochs to train for (default 10).
	Epochs int

	// BatchSize for mini-batch updates (default 8).
	BatchSize int

	// Seed controls RNG for weight init and shuffling. If zero, a
	// time-based seed is used.
	Seed int64
}

// Dataset is the minimal interface this package requires from a windowed
// dataset. It matches datasets.WindowDataset without importing it, so the
// classifier stays decoupled from the loaders.
type Dataset interface {
	Len() int
	// Batch returns inputs and labels for the provided positions.
	// Inputs: flattened windows. Labels: at least one element, where
	// element 0 is the zero-based activity class.
	Batch(indices []int) ([][]float64, [][]float64, error)
}

// Model is a small MLP trained with mini-batch SGD against one-hot activity
// targets under a mean-squared-error loss. Prediction is the argmax over the
// output scores.
type Model struct {
	// Config used for training / initialization.
	Config Config

	// layerSizes includes input size, hidden sizes, then output size.
	layerSizes []int

	// weights[l] is a matrix of shape [out][in] for layer l -> l+1
	weights [][][]float64

	// biases[l] is a vector of length out for layer l -> l+1
	biases [][]float64

	// rng used for weight initialization and shuffling
	rng *rand.Rand
}

// NewModel creates a Model with the provided configuration, initialized with
// small random weights and ready to train.
func NewModel(cfg Config) (*Model, error) {
	if cfg.InputDim <= 0 {
		return nil, errors.New("InputDim must be set to channels*timesteps")
	}
	if len(cfg.HiddenSizes) == 0 {
		cfg.HiddenSizes = []int{64}
	}
	if cfg.NumClasses == 0 {
		cfg.NumClasses = 6
	}
	if cfg.LearningRate == 0 {
		cfg.LearningRate = 0.01
	}
	if cfg.Epochs == 0 {
		cfg.Epochs = 10
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 8
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	m := &Model{
		Config: cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}

	// build layer sizes
	sizes := make([]int, 0, 2+len(cfg.HiddenSizes))
	sizes = append(sizes, cfg.InputDim)
	sizes = append(sizes, cfg.HiddenSizes...)
	sizes = append(sizes, cfg.NumClasses)
	m.layerSizes = sizes

	// allocate weights and biases
	L := len(sizes) - 1
	m.weights = make([][][]float64, L)
	m.biases = make([][]float64, L)
	for l := 0; l < L; l++ {
		in := sizes[l]
		out := sizes[l+1]
		mat := make([][]float64, out)
		for j := 0; j < out; j++ {
			row := make([]float64, in)
			// Xavier/Glorot uniform initialization heuristic
			limit := math.Sqrt(6.0 / float64(in+out))
			for i := 0; i < in; i++ {
				row[i] = (m.rng.Float64()*2.0 - 1.0) * limit * 0.5
			}
			mat[j] = row
		}
		m.weights[l] = mat
		m.biases[l] = make([]float64, out)
	}

	return m, nil
}

// activationReLU applies ReLU in-place over the slice.
func activationReLU(x []float64) {
	for i := range x {
		if x[i] < 0 {
			x[i] = 0
		}
	}
}

// activationReLUDeriv returns the elementwise derivative of ReLU applied to
// preact: 1 where preact>0, else 0.
func activationReLUDeriv(preact []float64) []float64 {
	d := make([]float64, len(preact))
	for i := range preact {
		if preact[i] > 0 {
			d[i] = 1.0
		}
	}
	return d
}

// forwardSingle performs a forward pass for a single input vector, returning:
// - preActivations: list of pre-activation vectors per layer (len = L)
// - activations: list of activation vectors per layer (len = L+1, activations[0] = input)
func (m *Model) forwardSingle(input []float64) (preActs [][]float64, acts [][]float64, err error) {
	if len(input) != m.layerSizes[0] {
		return nil, nil, errors.New("input has incorrect dimension")
	}
	L := len(m.weights)
	acts = make([][]float64, L+1)
	acts[0] = make([]float64, len(input))
	copy(acts[0], input)

	preActs = make([][]float64, L)
	for l := 0; l < L; l++ {
		inVec := acts[l]
		outDim := len(m.biases[l])
		inDim := len(inVec)
		pre := make([]float64, outDim)
		W := m.weights[l]
		b := m.biases[l]
		for j := 0; j < outDim; j++ {
			sum := 0.0
			row := W[j]
			for i := 0; i < inDim; i++ {
				sum += row[i] * inVec[i]
			}
			pre[j] = sum + b[j]
		}
		preActs[l] = pre

		// Activation: ReLU for hidden, linear for last layer
		act := make([]float64, outDim)
		copy(act, pre)
		if l < L-1 {
			activationReLU(act)
		}
		acts[l+1] = act
	}
	return preActs, acts, nil
}

// Scores returns the raw per-class output scores for a batch of inputs.
func (m *Model) Scores(inputs [][]float64) ([][]float64, error) {
	out := make([][]float64, len(inputs))
	for i, in := range inputs {
		_, acts, err := m.forwardSingle(in)
		if err != nil {
			return nil, err
		}
		last := acts[len(acts)-1]
		scores := make([]float64, len(last))
		copy(scores, last)
		out[i] = scores
	}
	return out, nil
}

// PredictClasses returns the argmax class for each input.
func (m *Model) PredictClasses(inputs [][]float64) ([]int, error) {
	scores, err := m.Scores(inputs)
	if err != nil {
		return nil, err
	}
	classes := make([]int, len(scores))
	for i, s := range scores {
		best := 0
		for j := 1; j < len(s); j++ {
			if s[j] > s[best] {
				best = j
			}
		}
		classes[i] = best
	}
	return classes, nil
}

// TrainWithDataset trains the model with mini-batch SGD. Labels are taken
// from element 0 of each label vector and one-hot encoded against
// Config.NumClasses; out-of-range classes are rejected.
func (m *Model) TrainWithDataset(ds Dataset) error {
	if ds == nil {
		return errors.New("dataset is nil")
	}
	n := ds.Len()
	if n == 0 {
		return errors.New("dataset has no examples")
	}

	epochs := m.Config.Epochs
	batchSize := m.Config.BatchSize
	lr := m.Config.LearningRate
	numClasses := m.Config.NumClasses

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	for ep := 0; ep < epochs; ep++ {
		m.rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		for bstart := 0; bstart < n; bstart += batchSize {
			bend := bstart + batchSize
			if bend > n {
				bend = n
			}
			batchIdx := indices[bstart:bend]

			inputs, labels, err := ds.Batch(batchIdx)
			if err != nil {
				return err
			}
			batchN := len(inputs)
			if batchN == 0 {
				continue
			}

			// Initialize gradient accumulators (same shape as weights / biases)
			L := len(m.weights)
			gradW := make([][][]float64, L)
			gradB := make([][]float64, L)
			for l := 0; l < L; l++ {
				outDim := len(m.biases[l])
				inDim := len(m.weights[l][0])
				gradW[l] = make([][]float64, outDim)
				for j := 0; j < outDim; j++ {
					gradW[l][j] = make([]float64, inDim)
				}
				gradB[l] = make([]float64, outDim)
			}

			// Accumulate gradients for each example in the batch
			for ex := 0; ex < batchN; ex++ {
				in := inputs[ex]
				if len(labels[ex]) == 0 {
					return errors.New("label vector is empty")
				}
				class := int(labels[ex][0])
				if class < 0 || class >= numClasses {
					return errors.New("activity class out of range")
				}

				preacts, acts, err := m.forwardSingle(in)
				if err != nil {
					return err
				}

				// dLoss/dOutput = 2*(pred - onehot)
				outAct := acts[len(acts)-1]
				delta := make([]float64, len(outAct))
				for j := range outAct {
					target := 0.0
					if j == class {
						target = 1.0
					}
					delta[j] = 2.0 * (outAct[j] - target)
				}

				// Backprop, accumulating into gradW/gradB
				for l := len(m.weights) - 1; l >= 0; l-- {
					inAct := acts[l]
					outDim := len(delta)
					inDim := len(inAct)

					for j := 0; j < outDim; j++ {
						gradB[l][j] += delta[j]
						for i := 0; i < inDim; i++ {
							gradW[l][j][i] += delta[j] * inAct[i]
						}
					}

					// propagate delta to previous layer if needed
					if l > 0 {
						prevLen := len(m.weights[l][0])
						newDelta := make([]float64, prevLen)
						for i := 0; i < prevLen; i++ {
							sum := 0.0
							for j := 0; j < outDim; j++ {
								sum += m.weights[l][j][i] * delta[j]
							}
							newDelta[i] = sum
						}
						deriv := activationReLUDeriv(preacts[l-1])
						for i := 0; i < prevLen; i++ {
							newDelta[i] *= deriv[i]
						}
						delta = newDelta
					}
				}
			}

			// Apply averaged gradients (SGD) over the minibatch
			bInv := 1.0 / float64(batchN)
			for l := 0; l < L; l++ {
				outDim := len(m.biases[l])
				inDim := len(m.weights[l][0])
				for j := 0; j < outDim; j++ {
					m.biases[l][j] -= lr * gradB[l][j] * bInv
					for i := 0; i < inDim; i++ {
						m.weights[l][j][i] -= lr * gradW[l][j][i] * bInv
					}
				}
			}
		}
	}

	return nil
}

// Accuracy evaluates the model over a dataset and returns the fraction of
// correctly classified windows.
func (m *Model) Accuracy(ds Dataset) (float64, error) {
	n := ds.Len()
	if n == 0 {
		return 0, errors.New("dataset has no examples")
	}
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	inputs, labels, err := ds.Batch(indices)
	if err != nil {
		return 0, err
	}
	classes, err := m.PredictClasses(inputs)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i, c := range classes {
		if len(labels[i]) > 0 && int(labels[i][0]) == c {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}
