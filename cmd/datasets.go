package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pandemic-sim/pandemic-analysis/analysis/experiment"
	"github.com/pandemic-sim/pandemic-analysis/analysis/featurize"
	"github.com/pandemic-sim/pandemic-analysis/analysis/table"
)

// --- pandemic-analysis featurize ---

var (
	featurizeFile string
	featurizeOut  string
)

var featurizeCmd = &cobra.Command{
	Use:   "featurize",
	Short: "Add derived columns (use times, n_Cured, Trade_count, PlayerTurns) to an experiment CSV",
	Run: func(cmd *cobra.Command, args []string) {
		t, err := table.Load(featurizeFile)
		if err != nil {
			logrus.Fatalf("Failed to load experiment: %v", err)
		}
		if err := featurize.Featurize(t); err != nil {
			logrus.Fatalf("Featurization failed: %v", err)
		}
		if err := writeTable(cmd.OutOrStdout(), t, featurizeOut); err != nil {
			logrus.Fatalf("Failed to write table: %v", err)
		}
	},
}

// --- pandemic-analysis load ---

var (
	loadFile      string
	loadK         int
	loadSims      string
	loadHeuristic string
	loadPolicy    string
	loadOut       string
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Featurize one experiment and tag every row with its agent parameters",
	Run: func(cmd *cobra.Command, args []string) {
		policy := loadPolicy
		if !cmd.Flags().Changed("policy") {
			policy = settings.SelectionPolicy
		}
		t, err := experiment.Load(loadFile, experiment.Metadata{
			Heuristic:        loadHeuristic,
			Determinizations: loadK,
			Sims:             loadSims,
			SelectionPolicy:  policy,
		})
		if err != nil {
			logrus.Fatalf("Failed to load experiment: %v", err)
		}
		if err := writeTable(cmd.OutOrStdout(), t, loadOut); err != nil {
			logrus.Fatalf("Failed to write table: %v", err)
		}
	},
}

// --- pandemic-analysis batch ---

var (
	batchBase      string
	batchSuffix    string
	batchK         []int
	batchSims      []string
	batchHeuristic string
	batchPolicy    string
	batchOut       string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Load and concatenate every K<k>_<n>_<suffix> run folder of a batch",
	Long: "Load and concatenate every K<k>_<n>_<suffix> run folder of a batch. Without --suffix, " +
		"every batch listed in the --config file is loaded and the results concatenated.",
	Run: func(cmd *cobra.Command, args []string) {
		specs, err := batchSpecs(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		t, err := experiment.LoadBatches(specs)
		if err != nil {
			logrus.Fatalf("Batch load failed: %v", err)
		}
		logrus.Infof("loaded %d batch(es), %d rows", len(specs), t.Rows())
		if err := writeTable(cmd.OutOrStdout(), t, batchOut); err != nil {
			logrus.Fatalf("Failed to write table: %v", err)
		}
	},
}

// batchSpecs builds the batch list from flags, or from the config file when no
// --suffix is given.
func batchSpecs(cmd *cobra.Command) ([]experiment.BatchSpec, error) {
	if batchSuffix == "" {
		if len(settings.Batches) == 0 {
			return nil, fmt.Errorf("no --suffix given and no batches configured")
		}
		specs := make([]experiment.BatchSpec, 0, len(settings.Batches))
		for _, b := range settings.Batches {
			specs = append(specs, b.Spec(settings))
		}
		return specs, nil
	}
	if len(batchK) == 0 || len(batchSims) == 0 {
		return nil, fmt.Errorf("--k and --sims are required with --suffix")
	}
	b := BatchConfig{
		Suffix:           batchSuffix,
		Determinizations: batchK,
		Sims:             batchSims,
		Heuristic:        batchHeuristic,
	}
	if cmd.Flags().Changed("base") {
		b.Base = batchBase
	}
	if cmd.Flags().Changed("policy") {
		b.SelectionPolicy = batchPolicy
	}
	return []experiment.BatchSpec{b.Spec(settings)}, nil
}

// writeTable writes t as CSV to path, or to stdout when path is empty.
func writeTable(stdout io.Writer, t *table.Table, path string) error {
	if path == "" {
		return t.Write(stdout)
	}
	if err := t.Save(path); err != nil {
		return err
	}
	logrus.Infof("wrote %d rows to %s", t.Rows(), path)
	return nil
}

func init() {
	featurizeCmd.Flags().StringVar(&featurizeFile, "file", "", "Experiment CSV (.csv appended if absent)")
	featurizeCmd.Flags().StringVar(&featurizeOut, "out", "", "Output CSV path (default stdout)")
	_ = featurizeCmd.MarkFlagRequired("file")

	loadCmd.Flags().StringVar(&loadFile, "file", "", "Experiment CSV (.csv appended if absent)")
	loadCmd.Flags().IntVar(&loadK, "k", 1, "Determinizations per decision")
	loadCmd.Flags().StringVar(&loadSims, "sims", "", "Simulations per step (e.g. 500 or 10k)")
	loadCmd.Flags().StringVar(&loadHeuristic, "heuristic", "", "Heuristic label")
	loadCmd.Flags().StringVar(&loadPolicy, "policy", experiment.DefaultSelectionPolicy, "Selection policy label")
	loadCmd.Flags().StringVar(&loadOut, "out", "", "Output CSV path (default stdout)")
	_ = loadCmd.MarkFlagRequired("file")

	batchCmd.Flags().StringVar(&batchBase, "base", ".", "Directory holding the run folders (default results_dir)")
	batchCmd.Flags().StringVar(&batchSuffix, "suffix", "", "Run folder suffix")
	batchCmd.Flags().IntSliceVar(&batchK, "k", nil, "Comma-separated determinization counts")
	batchCmd.Flags().StringSliceVar(&batchSims, "sims", nil, "Comma-separated simulation budgets")
	batchCmd.Flags().StringVar(&batchHeuristic, "heuristic", "", "Heuristic label (default the suffix)")
	batchCmd.Flags().StringVar(&batchPolicy, "policy", experiment.DefaultSelectionPolicy, "Selection policy label")
	batchCmd.Flags().StringVar(&batchOut, "out", "", "Output CSV path (default stdout)")

	rootCmd.AddCommand(featurizeCmd, loadCmd, batchCmd)
}
