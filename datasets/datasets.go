package datasets

import "github.com/gomlx/gomlx/pkg/core/tensors"

// This package loads the UCI HAR smartphone dataset from its flat-text
// release layout and presents the pre-windowed inertial signals as examples
// suitable for model training.
//
// The UCIHAR type owns the on-disk layout: it reads the per-split meta
// tables once at construction and re-reads signal data on every Load call,
// so a Load is a pure function of its options plus the immutable files.
//
// Notes on gomlx tensors:
//   - Window batches are kept as contiguous float64 buffers along with shape
//     metadata; ToGomlxTensor converts them when a training loop needs
//     tensors. Keeping the buffers plain makes the loaders usable without a
//     gomlx backend installed.
//
// Layout and intended usage:
//
// UCIHAR.Load
//   - Selects a split (train/test) and a signal variant (body_acc or
//     total_acc), filters windows by subject id, and returns a WindowBatch
//     of shape (samples, 3, timesteps) with aligned (activity, person_id)
//     targets.
//
// WindowDataset wraps a loaded batch and implements this interface in order
// to interact with GoMLX training loops and batching utilities.
type Dataset interface {
	Len() int
	Example(i int) (inputs []float64, labels []float64, err error)
	Batch(indices []int) (inputs [][]float64, labels [][]float64, err error)
	Shuffle(seed int64)

	// To implement gomlx's train.Dataset interface
	Yield() (any, []*tensors.Tensor, []*tensors.Tensor, error)
}
