// Command harstats inspects a local copy of the UCI HAR dataset: split
// summaries, per-sample signal plots, a gravity-contribution evaluation
// between the body_acc and total_acc variants, and a quick baseline
// classifier run.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Noofbiz/sensorutils/baseline"
	"github.com/Noofbiz/sensorutils/datasets"
	"github.com/Noofbiz/sensorutils/metrics"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gopkg.in/yaml.v3"
)

// Config is the optional YAML configuration file. Flags override whatever
// the file sets.
type Config struct {
	Dataset struct {
		Root           string `yaml:"root"`
		IncludeGravity bool   `yaml:"include_gravity"`
		Persons        []int  `yaml:"persons"`
	} `yaml:"dataset"`
	Train struct {
		HiddenSizes  []int   `yaml:"hidden_sizes"`
		Epochs       int     `yaml:"epochs"`
		BatchSize    int     `yaml:"batch_size"`
		LearningRate float64 `yaml:"learning_rate"`
		Seed         int64   `yaml:"seed"`
	} `yaml:"train"`
}

// loadConfig reads and parses the YAML config file.
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// parsePersons parses a comma-separated subject id list ("1,3,5").
func parsePersons(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("bad person id %q: %w", p, err)
		}
		out = append(out, id)
	}
	return out, nil
}

func main() {
	mode := flag.String("mode", "summary", "one of: summary, plot, gravity-eval, train")
	configPath := flag.String("config", "", "optional YAML config file")
	root := flag.String("root", "", "dataset root (directory containing train/ and test/)")
	useTest := flag.Bool("test", false, "operate on the test split instead of train")
	gravity := flag.Bool("gravity", false, "use the gravity-inclusive total_acc variant")
	personsFlag := flag.String("persons", "", "comma-separated subject ids to retain (default: all)")
	sample := flag.Int("sample", 0, "sample index for -mode plot")
	out := flag.String("out", "output", "output directory for plots / CSVs")
	flag.Parse()

	cfg := &Config{}
	if *configPath != "" {
		var err error
		cfg, err = loadConfig(*configPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	if *root == "" {
		*root = cfg.Dataset.Root
	}
	if *root == "" {
		log.Fatalf("no dataset root given; pass -root or set dataset.root in the config")
	}
	persons, err := parsePersons(*personsFlag)
	if err != nil {
		log.Fatalf("persons: %v", err)
	}
	if persons == nil {
		persons = cfg.Dataset.Persons
	}
	includeGravity := *gravity || cfg.Dataset.IncludeGravity

	ds, err := datasets.NewUCIHAR(*root)
	if err != nil {
		log.Fatalf("open dataset: %v", err)
	}

	opts := datasets.LoadOptions{
		Train:          !*useTest,
		Persons:        persons,
		IncludeGravity: includeGravity,
	}

	switch *mode {
	case "summary":
		runSummary(ds, opts)
	case "plot":
		if err := runPlot(ds, opts, *sample, *out); err != nil {
			log.Fatalf("plot: %v", err)
		}
	case "gravity-eval":
		if err := runGravityEval(ds, opts, *out); err != nil {
			log.Fatalf("gravity-eval: %v", err)
		}
	case "train":
		if err := runTrain(ds, persons, includeGravity, cfg); err != nil {
			log.Fatalf("train: %v", err)
		}
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}

// runSummary prints split shape, per-activity counts and the retained
// subject set.
func runSummary(ds *datasets.UCIHAR, opts datasets.LoadOptions) {
	batch, targets, err := ds.Load(opts)
	if err != nil {
		log.Fatalf("load: %v", err)
	}

	split := "test"
	if opts.Train {
		split = "train"
	}
	variant := "body_acc"
	if opts.IncludeGravity {
		variant = "total_acc"
	}
	fmt.Printf("split=%s variant=%s windows=%d channels=%d timesteps=%d\n",
		split, variant, batch.Samples, batch.Channels, batch.Timesteps)

	counts := make(map[int]int)
	subjects := make(map[int]bool)
	for _, t := range targets {
		counts[t[0]]++
		subjects[t[1]] = true
	}
	for class, name := range datasets.Activities {
		fmt.Printf("  %-20s %6d\n", name, counts[class])
	}
	ids := make([]int, 0, len(subjects))
	for id := range subjects {
		ids = append(ids, id)
	}
	fmt.Printf("subjects retained: %d %v\n", len(ids), ids)
}

// runPlot draws the three channels of one window as line traces.
func runPlot(ds *datasets.UCIHAR, opts datasets.LoadOptions, sample int, outDir string) error {
	batch, targets, err := ds.Load(opts)
	if err != nil {
		return err
	}
	if sample < 0 || sample >= batch.Samples {
		return fmt.Errorf("sample %d out of range [0, %d)", sample, batch.Samples)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("window %d: %s (subject %d)",
		sample, datasets.Activities[targets[sample][0]], targets[sample][1])
	p.X.Label.Text = "timestep"
	p.Y.Label.Text = "acceleration"

	colors := []color.RGBA{
		{R: 200, G: 30, B: 30, A: 255},
		{R: 20, G: 150, B: 20, A: 255},
		{R: 20, G: 80, B: 200, A: 255},
	}
	names := []string{"x", "y", "z"}
	window := batch.Window(sample)
	for c, series := range window {
		xys := make(plotter.XYs, len(series))
		for t, v := range series {
			xys[t] = plotter.XY{X: float64(t), Y: v}
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		line.Color = colors[c]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(names[c], line)
	}
	p.Add(plotter.NewGrid())

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	outPath := filepath.Join(outDir, fmt.Sprintf("window_%04d.png", sample))
	if err := p.Save(8*vg.Inch, 4*vg.Inch, outPath); err != nil {
		return err
	}
	log.Printf("plot written to %s", outPath)
	return nil
}

// runGravityEval scores the gravity-inclusive variant against the
// gravity-removed one per channel. Treating total_acc as truth and body_acc
// as the reconstruction measures how much of the signal the gravity
// component carries.
func runGravityEval(ds *datasets.UCIHAR, opts datasets.LoadOptions, outDir string) error {
	body := opts
	body.IncludeGravity = false
	total := opts
	total.IncludeGravity = true

	bodyBatch, _, err := ds.Load(body)
	if err != nil {
		return err
	}
	totalBatch, _, err := ds.Load(total)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	outPath := filepath.Join(outDir, "gravity_eval.csv")
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write([]string{"channel", "mae", "rmse", "snr_db"}); err != nil {
		return err
	}

	names := []string{"x", "y", "z"}
	for c := 0; c < bodyBatch.Channels; c++ {
		truth, pred, err := channelArrays(totalBatch, bodyBatch, c)
		if err != nil {
			return err
		}
		mae, err := metrics.MAE(truth, pred, metrics.AxisNone)
		if err != nil {
			return err
		}
		rmse, err := metrics.RMSE(truth, pred, metrics.AxisNone)
		if err != nil {
			return err
		}
		snr, err := metrics.SNR(truth, pred, metrics.AxisNone)
		if err != nil {
			return err
		}
		row := []string{
			names[c],
			strconv.FormatFloat(mae.Float(), 'g', -1, 64),
			strconv.FormatFloat(rmse.Float(), 'g', -1, 64),
			strconv.FormatFloat(snr.Float(), 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
		log.Printf("channel %s: mae=%.6f rmse=%.6f snr=%.2f dB",
			names[c], mae.Float(), rmse.Float(), snr.Float())
	}
	log.Printf("evaluation written to %s", outPath)
	return nil
}

// channelArrays extracts channel c of two batches as (samples, timesteps)
// metric arrays.
func channelArrays(truth, pred *datasets.WindowBatch, c int) (*metrics.Array, *metrics.Array, error) {
	if truth.Samples != pred.Samples || truth.Timesteps != pred.Timesteps {
		return nil, nil, fmt.Errorf("variant batches misaligned: %dx%d vs %dx%d",
			truth.Samples, truth.Timesteps, pred.Samples, pred.Timesteps)
	}
	extract := func(b *datasets.WindowBatch) []float64 {
		out := make([]float64, 0, b.Samples*b.Timesteps)
		for s := 0; s < b.Samples; s++ {
			out = append(out, b.Window(s)[c]...)
		}
		return out
	}
	ta, err := metrics.New(extract(truth), truth.Samples, truth.Timesteps)
	if err != nil {
		return nil, nil, err
	}
	pa, err := metrics.New(extract(pred), pred.Samples, pred.Timesteps)
	if err != nil {
		return nil, nil, err
	}
	return ta, pa, nil
}

// runTrain fits the baseline classifier on the train split and reports
// accuracy on both splits.
func runTrain(ds *datasets.UCIHAR, persons []int, includeGravity bool, cfg *Config) error {
	trainBatch, trainTargets, err := ds.Load(datasets.LoadOptions{Train: true, Persons: persons, IncludeGravity: includeGravity})
	if err != nil {
		return err
	}
	testBatch, testTargets, err := ds.Load(datasets.LoadOptions{Train: false, Persons: persons, IncludeGravity: includeGravity})
	if err != nil {
		return err
	}
	trainDS, err := datasets.NewWindowDataset(trainBatch, trainTargets)
	if err != nil {
		return err
	}
	testDS, err := datasets.NewWindowDataset(testBatch, testTargets)
	if err != nil {
		return err
	}

	model, err := baseline.NewModel(baseline.Config{
		InputDim:     trainBatch.Channels * trainBatch.Timesteps,
		NumClasses:   len(datasets.Activities),
		HiddenSizes:  cfg.Train.HiddenSizes,
		Epochs:       cfg.Train.Epochs,
		BatchSize:    cfg.Train.BatchSize,
		LearningRate: cfg.Train.LearningRate,
		Seed:         cfg.Train.Seed,
	})
	if err != nil {
		return err
	}

	log.Printf("training baseline on %d windows...", trainDS.Len())
	if err := model.TrainWithDataset(trainDS); err != nil {
		return err
	}
	trainAcc, err := model.Accuracy(trainDS)
	if err != nil {
		return err
	}
	testAcc, err := model.Accuracy(testDS)
	if err != nil {
		return err
	}
	log.Printf("accuracy: train=%.4f test=%.4f", trainAcc, testAcc)
	return nil
}
