package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	"github.com/pandemic-sim/pandemic-analysis/analysis"
	"github.com/pandemic-sim/pandemic-analysis/analysis/experiment"
	"github.com/pandemic-sim/pandemic-analysis/analysis/featurize"
	"github.com/pandemic-sim/pandemic-analysis/analysis/figures"
	"github.com/pandemic-sim/pandemic-analysis/analysis/table"
)

// --- pandemic-analysis hist ---

var (
	histColumn     string
	histExp1       string
	histExp2       string
	histBins       int
	histCumulative bool
	histOut        string
)

var histCmd = &cobra.Command{
	Use:   "hist",
	Short: "Plot a shared-bin density histogram of one column for two experiments",
	Long: "Plot a shared-bin density histogram of one column for two experiments. Each experiment " +
		"is a path stem naming <stem>.csv and <stem>.header; the header's agent name labels the legend.",
	Run: func(cmd *cobra.Command, args []string) {
		bins := histBins
		if !cmd.Flags().Changed("bins") {
			bins = settings.Bins
		}
		p, err := figures.HistComparison(histColumn, histExp1, histExp2,
			figures.HistOptions{Bins: bins, Cumulative: histCumulative})
		if err != nil {
			logrus.Fatalf("Histogram failed: %v", err)
		}
		if err := p.Save(6*vg.Inch, 4*vg.Inch, histOut); err != nil {
			logrus.Fatalf("Failed to save figure: %v", err)
		}
		logrus.Infof("wrote %s", histOut)
	},
}

// --- pandemic-analysis depth-figure ---

var (
	depthFile   string
	depthCards  []string
	depthBranch string
	depthBins   int
	depthOut    string
)

var depthFigureCmd = &cobra.Command{
	Use:   "depth-figure",
	Short: "Plot depth and branching-factor distributions with per-card trend lines",
	Run: func(cmd *cobra.Command, args []string) {
		bins := depthBins
		if !cmd.Flags().Changed("bins") {
			bins = settings.Bins
		}
		if err := runDepthFigure(depthFile, depthCards, depthBranch, bins, depthOut); err != nil {
			logrus.Fatalf("Depth figure failed: %v", err)
		}
		logrus.Infof("wrote %s", depthOut)
	},
}

func runDepthFigure(path string, cards []string, branch string, bins int, out string) error {
	if len(cards) != 2 {
		return fmt.Errorf("--cards needs exactly two event cards, got %d", len(cards))
	}
	t, err := table.Load(path)
	if err != nil {
		return err
	}
	if err := featurize.Featurize(t); err != nil {
		logrus.Warnf("%s: derived columns incomplete: %v", table.CSVPath(path), err)
	}
	panels, err := figures.DepthBranchFigure(t, figures.DepthBranchOptions{
		Bins:         bins,
		Cards:        [2]string{cards[0], cards[1]},
		BranchColumn: branch,
	})
	if err != nil {
		return err
	}
	return panels.Save(out, 15*vg.Inch, 5*vg.Inch)
}

// --- pandemic-analysis checkpoints ---

var (
	checkpointFiles     []string
	checkpointLabels    []string
	checkpointValueType string
	checkpointOut       string
	checkpointCSV       string
)

var checkpointsCmd = &cobra.Command{
	Use:   "checkpoints",
	Short: "Plot mean per-turn checkpoint values and optionally save the long-form table",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runCheckpoints(checkpointFiles, checkpointLabels, checkpointValueType, checkpointOut, checkpointCSV); err != nil {
			logrus.Fatalf("Checkpoint trend failed: %v", err)
		}
	},
}

func runCheckpoints(paths, labels []string, valueType, out, csvOut string) error {
	if len(labels) > 0 && len(labels) != len(paths) {
		return fmt.Errorf("got %d labels for %d files", len(labels), len(paths))
	}
	experiments := make([]figures.Experiment, 0, len(paths))
	for i, path := range paths {
		t, err := table.Load(path)
		if err != nil {
			return err
		}
		var label string
		if len(labels) > 0 {
			label = labels[i]
		} else {
			label = experimentLabel(path)
		}
		experiments = append(experiments, figures.Experiment{Label: label, Table: t})
	}

	long := figures.CheckpointLongForm(experiments...)
	if csvOut != "" {
		if err := long.Save(csvOut); err != nil {
			return err
		}
		logrus.Infof("wrote %d long-form rows to %s", long.Rows(), csvOut)
	}
	if out == "" {
		return nil
	}
	p, err := figures.CheckpointTrend(long, valueType)
	if err != nil {
		return err
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, out); err != nil {
		return fmt.Errorf("saving %s: %w", out, err)
	}
	logrus.Infof("wrote %s", out)
	return nil
}

// experimentLabel is the agent name from the experiment's header, or the file
// name when the header cannot be read.
func experimentLabel(path string) string {
	name, err := experiment.AgentName(path)
	if err == nil {
		return name
	}
	logrus.Debugf("%s: no agent name (%v), labelling by file name", path, err)
	return strings.TrimSuffix(filepath.Base(path), ".csv")
}

func init() {
	histCmd.Flags().StringVar(&histColumn, "column", analysis.ColDepth, "Column to compare")
	histCmd.Flags().StringVar(&histExp1, "exp1", "", "First experiment path stem (bins are taken from it)")
	histCmd.Flags().StringVar(&histExp2, "exp2", "", "Second experiment path stem")
	histCmd.Flags().IntVar(&histBins, "bins", figures.DefaultBins, "Number of histogram bins (default bins setting)")
	histCmd.Flags().BoolVar(&histCumulative, "cumulative", false, "Plot cumulative density steps")
	histCmd.Flags().StringVar(&histOut, "out", "", "Output image (.png, .jpg, .tif, .svg, .pdf, .eps)")
	_ = histCmd.MarkFlagRequired("exp1")
	_ = histCmd.MarkFlagRequired("exp2")
	_ = histCmd.MarkFlagRequired("out")

	depthFigureCmd.Flags().StringVar(&depthFile, "file", "", "Experiment CSV (.csv appended if absent)")
	depthFigureCmd.Flags().StringSliceVar(&depthCards, "cards", []string{analysis.Airlift, analysis.GovernmentGrant}, "Two event cards splitting the trend panel")
	depthFigureCmd.Flags().StringVar(&depthBranch, "branch", analysis.ColAvgBranch, "Branching-factor column")
	depthFigureCmd.Flags().IntVar(&depthBins, "bins", figures.DefaultBins, "Number of histogram bins (default bins setting)")
	depthFigureCmd.Flags().StringVar(&depthOut, "out", "", "Output image (.png, .jpg, .tif, .svg, .pdf, .eps)")
	_ = depthFigureCmd.MarkFlagRequired("file")
	_ = depthFigureCmd.MarkFlagRequired("out")

	checkpointsCmd.Flags().StringSliceVar(&checkpointFiles, "file", nil, "Experiment CSVs (repeatable)")
	checkpointsCmd.Flags().StringSliceVar(&checkpointLabels, "label", nil, "Legend labels, one per --file (default agent names)")
	checkpointsCmd.Flags().StringVar(&checkpointValueType, "value-type", figures.StateEval, "Checkpoint value type (SelectedReward or StateEval)")
	checkpointsCmd.Flags().StringVar(&checkpointOut, "out", "", "Output image for the trend plot")
	checkpointsCmd.Flags().StringVar(&checkpointCSV, "csv", "", "Output CSV for the long-form table")
	_ = checkpointsCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(histCmd, depthFigureCmd, checkpointsCmd)
}
