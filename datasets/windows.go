package datasets

import (
	"fmt"
	"math/rand"

	"github.com/gomlx/gomlx/pkg/core/shapes"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
)

// WindowBatch holds a stack of fixed-length multi-channel windows in one
// contiguous buffer, indexed (sample, channel, timestep) row-major. Channel
// order is always x, y, z.
type WindowBatch struct {
	Data      []float64
	Samples   int
	Channels  int
	Timesteps int
}

// NewWindowBatch allocates a zeroed batch of the given size with the fixed
// three-channel layout.
func NewWindowBatch(samples, timesteps int) *WindowBatch {
	return &WindowBatch{
		Data:      make([]float64, samples*NumChannels*timesteps),
		Samples:   samples,
		Channels:  NumChannels,
		Timesteps: timesteps,
	}
}

// channel returns the mutable timestep slice for one (sample, channel) pair.
func (b *WindowBatch) channel(sample, channel int) []float64 {
	off := (sample*b.Channels + channel) * b.Timesteps
	return b.Data[off : off+b.Timesteps]
}

// Window returns per-channel views into sample i. The views alias the batch
// buffer; callers must treat them as read-only.
func (b *WindowBatch) Window(i int) [][]float64 {
	if i < 0 || i >= b.Samples {
		return nil
	}
	out := make([][]float64, b.Channels)
	for c := range out {
		out[c] = b.channel(i, c)
	}
	return out
}

// Flat returns sample i as one contiguous (channels*timesteps) view, the
// layout model trainers consume.
func (b *WindowBatch) Flat(i int) []float64 {
	off := i * b.Channels * b.Timesteps
	return b.Data[off : off+b.Channels*b.Timesteps]
}

// Select returns a new batch containing only the samples whose mask entry is
// true, preserving relative order. The mask must cover every sample.
func (b *WindowBatch) Select(mask []bool) *WindowBatch {
	kept := 0
	for _, keep := range mask {
		if keep {
			kept++
		}
	}
	out := NewWindowBatch(kept, b.Timesteps)
	stride := b.Channels * b.Timesteps
	j := 0
	for i, keep := range mask {
		if !keep {
			continue
		}
		copy(out.Data[j*stride:(j+1)*stride], b.Data[i*stride:(i+1)*stride])
		j++
	}
	return out
}

// ToGomlxTensor converts the batch to a rank-3 gomlx tensor of shape
// (samples, channels, timesteps).
func (b *WindowBatch) ToGomlxTensor() (*tensors.Tensor, error) {
	if b.Samples == 0 || b.Timesteps == 0 {
		// FromAnyValue cannot infer inner dimensions from empty nested
		// slices, so build the zero-size tensor from its shape directly.
		return tensors.FromShape(shapes.Make(dtypes.Float64, b.Samples, b.Channels, b.Timesteps)), nil
	}
	data := make([][][]float64, b.Samples)
	for i := 0; i < b.Samples; i++ {
		data[i] = b.Window(i)
	}
	return tensors.FromAnyValue(data), nil
}

// WindowDataset adapts a loaded (WindowBatch, Targets) pair to the Dataset
// interface so the windows can feed model training directly. Examples are
// flattened (channels*timesteps) vectors; labels are the (activity,
// person_id) pair widened to float64.
type WindowDataset struct {
	// BatchSize used by Yield.
	BatchSize int

	batch   *WindowBatch
	targets Targets

	// order maps dataset position to sample index; Shuffle permutes it.
	order []int
	pos   int
	rand  *rand.Rand
}

// NewWindowDataset wraps an aligned batch and target set. It fails if the
// two disagree on row count.
func NewWindowDataset(batch *WindowBatch, targets Targets) (*WindowDataset, error) {
	if batch.Samples != len(targets) {
		return nil, fmt.Errorf("windows and targets misaligned: %d vs %d rows", batch.Samples, len(targets))
	}
	order := make([]int, batch.Samples)
	for i := range order {
		order[i] = i
	}
	return &WindowDataset{
		BatchSize: 32,
		batch:     batch,
		targets:   targets,
		order:     order,
		rand:      rand.New(rand.NewSource(1)),
	}, nil
}

// Len returns the number of windows.
func (d *WindowDataset) Len() int { return d.batch.Samples }

// Example returns window i (in the current order) as a flattened input
// vector plus its label pair.
func (d *WindowDataset) Example(i int) (inputs []float64, labels []float64, err error) {
	if i < 0 || i >= len(d.order) {
		return nil, nil, fmt.Errorf("index %d out of range [0, %d)", i, len(d.order))
	}
	idx := d.order[i]
	flat := d.batch.Flat(idx)
	inputs = make([]float64, len(flat))
	copy(inputs, flat)
	labels = []float64{float64(d.targets[idx][0]), float64(d.targets[idx][1])}
	return inputs, labels, nil
}

// Batch returns the examples at the given positions.
func (d *WindowDataset) Batch(indices []int) (inputs [][]float64, labels [][]float64, err error) {
	inputs = make([][]float64, len(indices))
	labels = make([][]float64, len(indices))
	for i, idx := range indices {
		in, lab, err := d.Example(idx)
		if err != nil {
			return nil, nil, err
		}
		inputs[i] = in
		labels[i] = lab
	}
	return inputs, labels, nil
}

// Shuffle permutes the iteration order.
func (d *WindowDataset) Shuffle(seed int64) {
	d.rand.Seed(seed)
	d.rand.Shuffle(len(d.order), func(i, j int) {
		d.order[i], d.order[j] = d.order[j], d.order[i]
	})
}

// Name returns the dataset name.
func (d *WindowDataset) Name() string { return "WindowDataset" }

// Yield returns the next batch as gomlx tensors, advancing an internal
// cursor. It reports io-style exhaustion by returning an error once the
// epoch is consumed; call Restart to begin a new epoch.
func (d *WindowDataset) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	if d.pos >= d.Len() {
		return nil, nil, nil, fmt.Errorf("epoch exhausted after %d examples", d.Len())
	}
	end := d.pos + d.BatchSize
	if end > d.Len() {
		end = d.Len()
	}
	indices := make([]int, end-d.pos)
	for i := range indices {
		indices[i] = d.pos + i
	}
	d.pos = end

	in, lab, err := d.Batch(indices)
	if err != nil {
		return nil, nil, nil, err
	}
	inT := tensors.FromAnyValue(in)
	labT := tensors.FromAnyValue(lab)
	return nil, []*tensors.Tensor{inT}, []*tensors.Tensor{labT}, nil
}

// Restart resets the epoch cursor.
func (d *WindowDataset) Restart() error {
	d.pos = 0
	return nil
}
