package datasets

import (
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// UCIHAR loads the "Human Activity Recognition Using Smartphones" dataset
// from its released on-disk layout: per-split activity and subject label
// files plus pre-windowed 3-axis inertial signal files under
// "Inertial Signals". No windowing is computed here; the atomic unit is the
// dataset's own pre-segmented window.
//
// Expected layout under the root path:
//
//	<root>/train/y_train.txt
//	<root>/train/subject_train.txt
//	<root>/train/Inertial Signals/{body_acc,total_acc}_{x,y,z}_train.txt
//	<root>/test/...  (same shape, _test suffix)

// NumChannels is the number of signal axes per window (x, y, z).
const NumChannels = 3

// Activities maps the zero-based activity label (as returned by Load) to its
// name. The raw files store these codes one-based.
var Activities = []string{
	"WALKING",
	"WALKING_UPSTAIRS",
	"WALKING_DOWNSTAIRS",
	"SITTING",
	"STANDING",
	"LAYING",
}

// Persons is the full enumerated subject-id set of the dataset release.
var Persons = func() []int {
	ids := make([]int, 30)
	for i := range ids {
		ids[i] = i + 1
	}
	return ids
}()

// TrainPersons and TestPersons are the documented subject partitions of the
// release. They are informational; Load derives nothing from them.
var (
	TrainPersons = []int{1, 3, 5, 6, 7, 8, 11, 14, 15, 16, 17, 19, 21, 22, 23, 25, 26, 27, 28, 29, 30}
	TestPersons  = []int{2, 4, 9, 10, 12, 13, 18, 20, 24}
)

// Meta is the per-split label table: one entry per recording window, in
// recording order. Activity holds the raw one-based codes exactly as stored
// on disk; no range validation is performed.
type Meta struct {
	Activity []int
	PersonID []int
}

// Len returns the number of windows described by the table.
func (m *Meta) Len() int { return len(m.Activity) }

// Targets is the per-window label pair returned by Load: column 0 is the
// zero-based activity label, column 1 the subject id.
type Targets [][2]int

// LoadOptions selects what Load reads.
type LoadOptions struct {
	// Train selects the train split; false selects test.
	Train bool

	// Persons restricts the result to windows recorded by these subject
	// ids. nil means all known subjects; an empty slice retains nothing
	// (valid, yields zero rows). Ids absent from the split contribute
	// nothing, silently.
	Persons []int

	// IncludeGravity selects the gravity-inclusive "total_acc" signal
	// files instead of the gravity-removed "body_acc" ones.
	IncludeGravity bool
}

// UCIHAR is a handle on one on-disk copy of the dataset. The meta tables for
// both splits are read once at construction; signal data is read on every
// Load call. All operations are read-only.
type UCIHAR struct {
	// Root is the directory containing the train/ and test/ subdirectories.
	Root string

	trainMeta *Meta
	testMeta  *Meta
}

// NewUCIHAR opens the dataset rooted at root and loads both meta tables.
func NewUCIHAR(root string) (*UCIHAR, error) {
	u := &UCIHAR{Root: root}
	if err := u.LoadMeta(); err != nil {
		return nil, err
	}
	return u, nil
}

// LoadMeta (re)reads the train and test meta tables from disk. It is called
// by NewUCIHAR and is idempotent: calling it again recomputes the tables
// with no other effect.
func (u *UCIHAR) LoadMeta() error {
	trainMeta, err := loadSplitMeta(u.Root, "train")
	if err != nil {
		return err
	}
	testMeta, err := loadSplitMeta(u.Root, "test")
	if err != nil {
		return err
	}
	u.trainMeta = trainMeta
	u.testMeta = testMeta
	return nil
}

// Meta returns the meta table for the requested split. The returned table is
// shared; callers must not mutate it.
func (u *UCIHAR) Meta(train bool) *Meta {
	if train {
		return u.trainMeta
	}
	return u.testMeta
}

// Load reads the pre-windowed signal data for the selected split and
// variant, filters it by subject, and returns the retained windows with their
// aligned targets. Row i of the batch and row i of the targets always refer
// to the same physical window. Activity labels are remapped from the raw
// one-based codes to [0, 5] regardless of the person filter.
func (u *UCIHAR) Load(opts LoadOptions) (*WindowBatch, Targets, error) {
	batch, err := loadSignals(u.Root, opts.Train, opts.IncludeGravity)
	if err != nil {
		return nil, nil, err
	}
	meta := u.Meta(opts.Train)
	if meta == nil {
		return nil, nil, fmt.Errorf("meta tables not loaded; call LoadMeta first")
	}
	if meta.Len() != batch.Samples {
		return nil, nil, fmt.Errorf("meta/signal row mismatch: %d label rows vs %d windows", meta.Len(), batch.Samples)
	}

	persons := opts.Persons
	if persons == nil {
		persons = Persons
	}
	wanted := make(map[int]bool, len(persons))
	for _, id := range persons {
		wanted[id] = true
	}

	mask := make([]bool, batch.Samples)
	for i := range mask {
		mask[i] = wanted[meta.PersonID[i]]
	}

	selected := batch.Select(mask)
	targets := make(Targets, 0, selected.Samples)
	for i, keep := range mask {
		if !keep {
			continue
		}
		// raw codes are one-based; shift to [0, 5]
		targets = append(targets, [2]int{meta.Activity[i] - 1, meta.PersonID[i]})
	}
	return selected, targets, nil
}

// loadSplitMeta joins the single-column activity and subject files of one
// split into a Meta table. Out-of-domain codes pass through unchanged; the
// only validation is that the two columns have equal length.
func loadSplitMeta(root, split string) (*Meta, error) {
	labelPath := filepath.Join(root, split, "y_"+split+".txt")
	subjectPath := filepath.Join(root, split, "subject_"+split+".txt")

	activity, err := readIntColumn(labelPath)
	if err != nil {
		return nil, fmt.Errorf("load %s meta: %w", split, err)
	}
	personID, err := readIntColumn(subjectPath)
	if err != nil {
		return nil, fmt.Errorf("load %s meta: %w", split, err)
	}
	if len(activity) != len(personID) {
		return nil, fmt.Errorf("load %s meta: %d activity rows vs %d subject rows", split, len(activity), len(personID))
	}
	return &Meta{Activity: activity, PersonID: personID}, nil
}

// signalPaths returns the three per-axis file paths for a split+variant in
// fixed x, y, z order.
func signalPaths(root string, train, includeGravity bool) [NumChannels]string {
	split := "test"
	if train {
		split = "train"
	}
	prefix := "body_acc"
	if includeGravity {
		prefix = "total_acc"
	}
	var paths [NumChannels]string
	for i, axis := range [NumChannels]string{"x", "y", "z"} {
		name := fmt.Sprintf("%s_%s_%s.txt", prefix, axis, split)
		paths[i] = filepath.Join(root, split, "Inertial Signals", name)
	}
	return paths
}

// loadSignals reads the three per-axis signal files and stacks them into a
// WindowBatch of shape (samples, 3, timesteps). The files are independent
// and read in parallel; the stack order is always x, y, z regardless of
// which read finishes first. The three files must agree on both row and
// column counts; disagreement indicates a corrupt copy of the dataset.
func loadSignals(root string, train, includeGravity bool) (*WindowBatch, error) {
	paths := signalPaths(root, train, includeGravity)

	var mats [NumChannels][][]float64
	var g errgroup.Group
	for i := range paths {
		g.Go(func() error {
			rows, err := ReadMatrix(paths[i])
			if err != nil {
				return fmt.Errorf("load signal: %w", err)
			}
			mats[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	samples := len(mats[0])
	timesteps := 0
	if samples > 0 {
		timesteps = len(mats[0][0])
	}
	for i := 1; i < NumChannels; i++ {
		rows := len(mats[i])
		cols := 0
		if rows > 0 {
			cols = len(mats[i][0])
		}
		if rows != samples || cols != timesteps {
			return nil, fmt.Errorf("signal shape mismatch: %s is %dx%d, %s is %dx%d",
				paths[0], samples, timesteps, paths[i], rows, cols)
		}
	}

	batch := NewWindowBatch(samples, timesteps)
	for s := 0; s < samples; s++ {
		for c := 0; c < NumChannels; c++ {
			copy(batch.channel(s, c), mats[c][s])
		}
	}
	return batch, nil
}
