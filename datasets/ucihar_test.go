package datasets

import (
	"os"
	"path/filepath"
	"testing"
)

// writeFile writes content at path, creating parent directories.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// writeSplit lays out one split of a synthetic dataset: label and subject
// columns plus the six per-axis signal files (body and total variants).
func writeSplit(t *testing.T, root, split, labels, subjects string, body, total [3]string) {
	t.Helper()
	dir := filepath.Join(root, split)
	writeFile(t, filepath.Join(dir, "y_"+split+".txt"), labels)
	writeFile(t, filepath.Join(dir, "subject_"+split+".txt"), subjects)
	sig := filepath.Join(dir, "Inertial Signals")
	axes := []string{"x", "y", "z"}
	for i, axis := range axes {
		writeFile(t, filepath.Join(sig, "body_acc_"+axis+"_"+split+".txt"), body[i])
		writeFile(t, filepath.Join(sig, "total_acc_"+axis+"_"+split+".txt"), total[i])
	}
}

// writeSyntheticDataset builds a minimal two-window train split plus a
// one-window test split with distinct values per axis and variant.
func writeSyntheticDataset(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	writeSplit(t, root, "train",
		"1\n2\n",
		"3\n3\n",
		[3]string{
			"0.1 0.2\n1.1 1.2\n",
			"0.3 0.4\n1.3 1.4\n",
			"0.5 0.6\n1.5 1.6\n",
		},
		[3]string{
			"9.1 9.2\n8.1 8.2\n",
			"9.3 9.4\n8.3 8.4\n",
			"9.5 9.6\n8.5 8.6\n",
		})

	writeSplit(t, root, "test",
		"3\n",
		"4\n",
		[3]string{"0.7 0.8\n", "0.9 1.0\n", "1.1 1.2\n"},
		[3]string{"7.7 7.8\n", "7.9 8.0\n", "8.1 8.2\n"})

	return root
}

// TestUCIHAR_LoadEndToEnd verifies the documented end-to-end behavior on a
// synthetic two-window dataset: window shape (2, 3, 2), stacked in x,y,z
// order, with targets remapped to zero-based activity codes.
func TestUCIHAR_LoadEndToEnd(t *testing.T) {
	root := writeSyntheticDataset(t)

	ds, err := NewUCIHAR(root)
	if err != nil {
		t.Fatalf("NewUCIHAR failed: %v", err)
	}

	batch, targets, err := ds.Load(LoadOptions{Train: true, Persons: []int{3}})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if batch.Samples != 2 || batch.Channels != 3 || batch.Timesteps != 2 {
		t.Fatalf("unexpected batch shape: (%d, %d, %d)", batch.Samples, batch.Channels, batch.Timesteps)
	}
	if len(targets) != batch.Samples {
		t.Fatalf("windows/targets row mismatch: %d vs %d", batch.Samples, len(targets))
	}
	want := Targets{{0, 3}, {1, 3}}
	for i := range want {
		if targets[i] != want[i] {
			t.Fatalf("targets[%d] = %v, want %v", i, targets[i], want[i])
		}
	}

	// Channel order must be x, y, z regardless of read completion order.
	w0 := batch.Window(0)
	if w0[0][0] != 0.1 || w0[1][0] != 0.3 || w0[2][0] != 0.5 {
		t.Fatalf("channel order wrong: first timesteps = %v, %v, %v", w0[0][0], w0[1][0], w0[2][0])
	}
	w1 := batch.Window(1)
	if w1[0][1] != 1.2 || w1[2][1] != 1.6 {
		t.Fatalf("unexpected second window values: %v", w1)
	}
}

// TestUCIHAR_PersonFiltering covers the retention-mask edge cases: nil
// retains all, empty retains nothing, unknown ids contribute nothing.
func TestUCIHAR_PersonFiltering(t *testing.T) {
	root := writeSyntheticDataset(t)
	ds, err := NewUCIHAR(root)
	if err != nil {
		t.Fatalf("NewUCIHAR failed: %v", err)
	}

	batch, targets, err := ds.Load(LoadOptions{Train: true})
	if err != nil {
		t.Fatalf("Load with nil persons failed: %v", err)
	}
	if batch.Samples != 2 || len(targets) != 2 {
		t.Fatalf("nil persons should retain all windows, got %d", batch.Samples)
	}

	batch, targets, err = ds.Load(LoadOptions{Train: true, Persons: []int{}})
	if err != nil {
		t.Fatalf("Load with empty persons failed: %v", err)
	}
	if batch.Samples != 0 || len(targets) != 0 {
		t.Fatalf("empty persons should retain nothing, got %d windows", batch.Samples)
	}

	// id 7 never recorded anything in this split; id 3 did
	batch, targets, err = ds.Load(LoadOptions{Train: true, Persons: []int{3, 7}})
	if err != nil {
		t.Fatalf("Load with unknown id failed: %v", err)
	}
	if batch.Samples != 2 || len(targets) != 2 {
		t.Fatalf("unknown ids should contribute nothing silently, got %d windows", batch.Samples)
	}
}

// TestUCIHAR_VariantSelection verifies include_gravity switches between the
// body_acc and total_acc file sets.
func TestUCIHAR_VariantSelection(t *testing.T) {
	root := writeSyntheticDataset(t)
	ds, err := NewUCIHAR(root)
	if err != nil {
		t.Fatalf("NewUCIHAR failed: %v", err)
	}

	body, _, err := ds.Load(LoadOptions{Train: true})
	if err != nil {
		t.Fatalf("body variant load failed: %v", err)
	}
	total, _, err := ds.Load(LoadOptions{Train: true, IncludeGravity: true})
	if err != nil {
		t.Fatalf("total variant load failed: %v", err)
	}
	if body.Window(0)[0][0] != 0.1 {
		t.Fatalf("body variant read wrong file: got %v", body.Window(0)[0][0])
	}
	if total.Window(0)[0][0] != 9.1 {
		t.Fatalf("total variant read wrong file: got %v", total.Window(0)[0][0])
	}
}

// TestUCIHAR_TestSplit loads the test split and checks the meta join.
func TestUCIHAR_TestSplit(t *testing.T) {
	root := writeSyntheticDataset(t)
	ds, err := NewUCIHAR(root)
	if err != nil {
		t.Fatalf("NewUCIHAR failed: %v", err)
	}

	batch, targets, err := ds.Load(LoadOptions{Train: false})
	if err != nil {
		t.Fatalf("test split load failed: %v", err)
	}
	if batch.Samples != 1 || len(targets) != 1 {
		t.Fatalf("expected 1 test window, got %d", batch.Samples)
	}
	if targets[0] != [2]int{2, 4} {
		t.Fatalf("test targets = %v, want [2 4]", targets[0])
	}
}

// TestUCIHAR_AxisShapeMismatch ensures a corrupt copy (per-axis files with
// different dimensions) is rejected rather than silently mis-stacked.
func TestUCIHAR_AxisShapeMismatch(t *testing.T) {
	root := writeSyntheticDataset(t)
	// give the z axis an extra window
	writeFile(t, filepath.Join(root, "train", "Inertial Signals", "body_acc_z_train.txt"),
		"0.5 0.6\n1.5 1.6\n2.5 2.6\n")

	ds, err := NewUCIHAR(root)
	if err != nil {
		t.Fatalf("NewUCIHAR failed: %v", err)
	}
	if _, _, err := ds.Load(LoadOptions{Train: true}); err == nil {
		t.Fatalf("expected error for mismatched axis shapes, got nil")
	}
}

// TestUCIHAR_MetaRowMismatch ensures label tables that disagree with the
// signal row count are rejected.
func TestUCIHAR_MetaRowMismatch(t *testing.T) {
	root := writeSyntheticDataset(t)
	writeFile(t, filepath.Join(root, "train", "y_train.txt"), "1\n2\n3\n")
	writeFile(t, filepath.Join(root, "train", "subject_train.txt"), "3\n3\n3\n")

	ds, err := NewUCIHAR(root)
	if err != nil {
		t.Fatalf("NewUCIHAR failed: %v", err)
	}
	if _, _, err := ds.Load(LoadOptions{Train: true}); err == nil {
		t.Fatalf("expected error for meta/signal row mismatch, got nil")
	}
}

// TestUCIHAR_MissingFile ensures a missing signal file fails the Load call.
func TestUCIHAR_MissingFile(t *testing.T) {
	root := writeSyntheticDataset(t)
	if err := os.Remove(filepath.Join(root, "train", "Inertial Signals", "body_acc_y_train.txt")); err != nil {
		t.Fatalf("failed to remove fixture file: %v", err)
	}

	ds, err := NewUCIHAR(root)
	if err != nil {
		t.Fatalf("NewUCIHAR failed: %v", err)
	}
	if _, _, err := ds.Load(LoadOptions{Train: true}); err == nil {
		t.Fatalf("expected error for missing signal file, got nil")
	}

	// construction itself fails when the meta files are gone
	if _, err := NewUCIHAR(t.TempDir()); err == nil {
		t.Fatalf("expected error for missing meta files, got nil")
	}
}

// TestUCIHAR_LoadMetaIdempotent verifies LoadMeta can be re-invoked with no
// observable change.
func TestUCIHAR_LoadMetaIdempotent(t *testing.T) {
	root := writeSyntheticDataset(t)
	ds, err := NewUCIHAR(root)
	if err != nil {
		t.Fatalf("NewUCIHAR failed: %v", err)
	}
	before := ds.Meta(true)
	if err := ds.LoadMeta(); err != nil {
		t.Fatalf("second LoadMeta failed: %v", err)
	}
	after := ds.Meta(true)
	if before.Len() != after.Len() {
		t.Fatalf("meta length changed after reload: %d vs %d", before.Len(), after.Len())
	}
	for i := range after.Activity {
		if before.Activity[i] != after.Activity[i] || before.PersonID[i] != after.PersonID[i] {
			t.Fatalf("meta row %d changed after reload", i)
		}
	}
}

// TestUCIHAR_OutOfDomainCodesPassThrough verifies meta loading performs no
// range validation: a bogus activity code survives up to the -1 remap.
func TestUCIHAR_OutOfDomainCodesPassThrough(t *testing.T) {
	root := writeSyntheticDataset(t)
	writeFile(t, filepath.Join(root, "train", "y_train.txt"), "1\n99\n")

	ds, err := NewUCIHAR(root)
	if err != nil {
		t.Fatalf("NewUCIHAR failed: %v", err)
	}
	_, targets, err := ds.Load(LoadOptions{Train: true})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if targets[1][0] != 98 {
		t.Fatalf("out-of-domain code should pass through remap unchanged, got %d", targets[1][0])
	}
}

// TestReadMatrix covers the shared matrix reader: ragged rows and parse
// failures are rejected, comma separators are tolerated.
func TestReadMatrix(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.txt")
	writeFile(t, good, "  1.0 2.0\n3.0 4.0\n\n")
	rows, err := ReadMatrix(good)
	if err != nil {
		t.Fatalf("ReadMatrix failed on valid input: %v", err)
	}
	if len(rows) != 2 || rows[1][1] != 4.0 {
		t.Fatalf("unexpected matrix content: %v", rows)
	}

	ragged := filepath.Join(dir, "ragged.txt")
	writeFile(t, ragged, "1.0 2.0\n3.0\n")
	if _, err := ReadMatrix(ragged); err == nil {
		t.Fatalf("expected error for ragged rows, got nil")
	}

	junk := filepath.Join(dir, "junk.txt")
	writeFile(t, junk, "1.0 two\n")
	if _, err := ReadMatrix(junk); err == nil {
		t.Fatalf("expected parse error, got nil")
	}

	commas := filepath.Join(dir, "commas.txt")
	writeFile(t, commas, "5,6\n")
	rows, err = ReadMatrix(commas)
	if err != nil {
		t.Fatalf("ReadMatrix failed on comma input: %v", err)
	}
	if rows[0][0] != 5 || rows[0][1] != 6 {
		t.Fatalf("unexpected comma-delimited content: %v", rows)
	}
}
