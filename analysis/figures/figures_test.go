package figures

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot/vg"

	"github.com/pandemic-sim/pandemic-analysis/analysis"
	"github.com/pandemic-sim/pandemic-analysis/analysis/experiment"
	"github.com/pandemic-sim/pandemic-analysis/analysis/internal/testutil"
	"github.com/pandemic-sim/pandemic-analysis/analysis/table"
)

func TestSharedHistogram_BinsFromFirstSample(t *testing.T) {
	// GIVEN a spanning [0, 10] and b partly outside that range
	a := []float64{0, 1, 2, 5, 10}
	b := []float64{-3, 4, 9.99, 10, 42}

	// WHEN binning into 5 bins
	h, err := SharedHistogram(a, b, 5)
	require.NoError(t, err)

	// THEN edges span a, the last bin is right-closed and b's outliers drop
	assert.Equal(t, []float64{0, 2, 4, 6, 8, 10}, h.Edges)
	assert.Equal(t, []float64{2, 1, 1, 0, 1}, h.A)
	assert.Equal(t, []float64{0, 0, 1, 0, 2}, h.B)
}

func TestSharedHistogram_ConstantSample_WidensRange(t *testing.T) {
	h, err := SharedHistogram([]float64{3, 3, 3}, nil, 2)
	require.NoError(t, err)

	assert.Equal(t, []float64{2.5, 3, 3.5}, h.Edges)
	assert.Equal(t, 3.0, floats.Sum(h.A))
	assert.Equal(t, []float64{0, 0}, h.B)
}

func TestSharedHistogram_Invalid(t *testing.T) {
	_, err := SharedHistogram(nil, []float64{1}, 10)
	assert.ErrorIs(t, err, analysis.ErrParse)

	_, err = SharedHistogram([]float64{1}, nil, 0)
	assert.Error(t, err)
}

func TestDensityAndCumulative(t *testing.T) {
	h := &SharedBins{Edges: []float64{0, 2, 4}}
	counts := []float64{1, 3}

	density := h.Density(counts)
	assert.InDeltaSlice(t, []float64{0.125, 0.375}, density, 1e-12)
	assert.InDelta(t, 1.0, density[0]*2+density[1]*2, 1e-12, "density integrates to one")

	assert.InDeltaSlice(t, []float64{0.25, 1}, h.Cumulative(counts), 1e-12)
	assert.Equal(t, []float64{0, 0}, h.Density([]float64{0, 0}))
}

func TestHistComparison_UsesAgentNamesAndTitle(t *testing.T) {
	// GIVEN two experiments with headers
	dir := t.TempDir()
	e1 := testutil.WriteExperiment(t, filepath.Join(dir, "SingleSampleNaiveUCT"), "Naive UCT", testutil.Games(10, 30))
	e2 := testutil.WriteExperiment(t, filepath.Join(dir, "ByGroupRandom"), "ByGroup Random", testutil.Games(10, 35))

	for _, cumulative := range []bool{false, true} {
		// WHEN plotting the Depth comparison
		p, err := HistComparison(analysis.ColDepth, e1, e2, HistOptions{Bins: 5, Cumulative: cumulative})
		require.NoError(t, err)

		// THEN the title follows the mode and the plot renders
		if cumulative {
			assert.Equal(t, "Cumulative Density histogram comparison of Depth", p.Title.Text)
		} else {
			assert.Equal(t, "Density histogram comparison of Depth", p.Title.Text)
		}
		out := filepath.Join(dir, "hist.png")
		require.NoError(t, p.Save(4*vg.Inch, 3*vg.Inch, out))
		assertNonEmpty(t, out)
	}
}

func TestHistComparison_DerivedColumn(t *testing.T) {
	dir := t.TempDir()
	games := []testutil.Game{{"Give_count": 1, "Take_count": 2}, {"Give_count": 4}}
	e1 := testutil.WriteExperiment(t, filepath.Join(dir, "a"), "A", games)
	e2 := testutil.WriteExperiment(t, filepath.Join(dir, "b"), "B", games)

	_, err := HistComparison("Trade_count", e1, e2, HistOptions{})

	assert.NoError(t, err)
}

func TestHistComparison_UnknownColumn_ReturnsParseError(t *testing.T) {
	dir := t.TempDir()
	e1 := testutil.WriteExperiment(t, filepath.Join(dir, "a"), "A", testutil.Games(2, 10))

	_, err := HistComparison("NoSuchColumn", e1, e1, HistOptions{})

	assert.ErrorIs(t, err, analysis.ErrParse)
}

func cardGames() []testutil.Game {
	return []testutil.Game{
		{"Depth": 30, "AvgBranch": 10, "firstAirliftPresence": 3, "firstGovernmentGrantPresence": 5},
		{"Depth": 40, "AvgBranch": 12, "firstAirliftPresence": 3, "firstGovernmentGrantPresence": 9},
		{"Depth": 50, "AvgBranch": 20, "firstAirliftPresence": 8},
		{"Depth": 20, "AvgBranch": 7, "firstGovernmentGrantPresence": 0},
		{"Depth": 25, "AvgBranch": 9},
	}
}

func TestSplitByCards_FourSubsets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.csv")
	testutil.WriteExperimentCSV(t, path, cardGames())
	tbl, err := table.Load(path)
	require.NoError(t, err)

	subsets, err := SplitByCards(tbl, [2]string{analysis.Airlift, analysis.GovernmentGrant})
	require.NoError(t, err)

	require.Len(t, subsets, 4)
	assert.Equal(t, "Airlift & GovernmentGrant", subsets[0].Label)
	assert.Equal(t, []int{0, 1}, subsets[0].Rows)
	assert.Equal(t, []int{2}, subsets[1].Rows)
	assert.Equal(t, []int{3}, subsets[2].Rows, "presence at turn 0 counts as appeared")
	assert.Equal(t, []int{4}, subsets[3].Rows)
}

func TestFitTrends_LinearSubset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.csv")
	testutil.WriteExperimentCSV(t, path, cardGames())
	tbl, err := table.Load(path)
	require.NoError(t, err)
	subsets, err := SplitByCards(tbl, [2]string{analysis.Airlift, analysis.GovernmentGrant})
	require.NoError(t, err)

	trends, err := FitTrends(tbl, subsets, analysis.ColDepth, analysis.ColAvgBranch)
	require.NoError(t, err)

	// (30,10) and (40,12): slope 0.2, intercept 4
	require.True(t, trends[0].Fitted)
	assert.InDelta(t, 0.2, trends[0].Beta, 1e-9)
	assert.InDelta(t, 4.0, trends[0].Alpha, 1e-9)
	assert.False(t, trends[1].Fitted, "a single point has no trend")
}

func TestDepthBranchFigure_SavesThreePanels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exp.csv")
	testutil.WriteExperimentCSV(t, path, cardGames())
	tbl, err := experiment.Load(path, experiment.Metadata{Heuristic: "Goal", Determinizations: 1, Sims: "500"})
	require.NoError(t, err)

	panels, err := DepthBranchFigure(tbl, DepthBranchOptions{Bins: 4})
	require.NoError(t, err)

	require.Len(t, panels.Plots, 3)
	assert.Equal(t, "Game depth distribution", panels.Plots[0].Title.Text)
	assert.Equal(t, "Branching factor vs depth", panels.Plots[2].Title.Text)
	out := filepath.Join(dir, "depth.png")
	require.NoError(t, panels.Save(out, 12*vg.Inch, 4*vg.Inch))
	assertNonEmpty(t, out)

	assert.Error(t, panels.Save(filepath.Join(dir, "depth.bmp"), 12*vg.Inch, 4*vg.Inch))
}

func TestPanelsSave_EveryPlotFormat(t *testing.T) {
	// GIVEN a depth figure
	dir := t.TempDir()
	path := filepath.Join(dir, "exp.csv")
	testutil.WriteExperimentCSV(t, path, cardGames())
	tbl, err := table.Load(path)
	require.NoError(t, err)
	panels, err := DepthBranchFigure(tbl, DepthBranchOptions{Bins: 4})
	require.NoError(t, err)

	// WHEN saving it in every format a single plot can be saved in
	for _, ext := range []string{".jpg", ".tiff", ".svg", ".pdf", ".eps"} {
		out := filepath.Join(dir, "depth"+ext)

		// THEN the file is written
		require.NoError(t, panels.Save(out, 12*vg.Inch, 4*vg.Inch), ext)
		assertNonEmpty(t, out)
	}
}

func TestCheckpointLongForm_RowPerGameCheckpointValueType(t *testing.T) {
	// GIVEN two annotated experiments with a few recorded checkpoints
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.csv")
	testutil.WriteExperimentCSV(t, pathA, []testutil.Game{
		{"Turn0StateEval": 0.5, "Turn5StateEval": 0.25, "Turn0SelectedReward": 0.75},
		{"Turn0StateEval": 0.7},
	})
	pathB := filepath.Join(dir, "b.csv")
	testutil.WriteExperimentCSV(t, pathB, []testutil.Game{{"Turn0StateEval": 0.1}})
	a, err := experiment.Load(pathA, experiment.Metadata{Heuristic: "Goal", Determinizations: 3, Sims: "10k"})
	require.NoError(t, err)
	b, err := experiment.Load(pathB, experiment.Metadata{Heuristic: "Naive", Determinizations: 1, Sims: "50k"})
	require.NoError(t, err)

	// WHEN reshaping
	long := CheckpointLongForm(Experiment{Label: "A", Table: a}, Experiment{Label: "B", Table: b})

	// THEN there is one row per (game, checkpoint, value type)
	perGame := len(CheckpointTurns()) * len(ValueTypes)
	assert.Equal(t, 3*perGame, long.Rows())
	assert.Equal(t, []string{ColExperiment, analysis.ColGame, ColTurn, ColValueType, ColValue,
		experiment.ColHeuristic, experiment.ColDeterminizations, experiment.ColNSims, experiment.ColSelectionPolicy},
		long.Names())

	value, _ := long.Column(ColValue)
	assert.ElementsMatch(t, []float64{0.75, 0.5, 0.25, 0.7, 0.1}, value.Values(), "-1 sentinels become missing")

	k, _ := long.Column(experiment.ColDeterminizations)
	v, _ := k.Float(long.Rows() - 1)
	assert.Equal(t, 1.0, v)
}

func TestTurnMeans_AveragesRecordedValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	testutil.WriteExperimentCSV(t, path, []testutil.Game{
		{"Turn0StateEval": 0.5, "Turn5StateEval": 0.2},
		{"Turn0StateEval": 0.7},
	})
	a, err := table.Load(path)
	require.NoError(t, err)
	long := CheckpointLongForm(Experiment{Label: "A", Table: a})

	labels, means, err := TurnMeans(long, StateEval)
	require.NoError(t, err)

	assert.Equal(t, []string{"A"}, labels)
	require.Len(t, means["A"], 2)
	assert.Equal(t, 0.0, means["A"][0].X)
	assert.InDelta(t, 0.6, means["A"][0].Y, 1e-12)
	assert.Equal(t, 5.0, means["A"][1].X)
	assert.InDelta(t, 0.2, means["A"][1].Y, 1e-12)

	p, err := CheckpointTrend(long, StateEval)
	require.NoError(t, err)
	assert.Equal(t, "Mean StateEval by turn", p.Title.Text)

	_, err = CheckpointTrend(long, SelectedReward)
	assert.ErrorIs(t, err, analysis.ErrParse, "no SelectedReward was recorded")
}

func assertNonEmpty(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
