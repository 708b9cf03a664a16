// Package testutil provides shared test fixtures for the analysis packages:
// runner-shaped CSV files, .header companions and K<k>_<n>_<suffix> folders.
package testutil

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pandemic-sim/pandemic-analysis/analysis"
)

// Game is one runner record keyed by column name. Columns not set take the
// value from DefaultGame.
type Game map[string]float64

// CheckpointTurns mirrors the turns at which the runner records rewards.
var CheckpointTurns = func() []int {
	var turns []int
	for k := 0; k <= 90; k += 5 {
		turns = append(turns, k)
	}
	return turns
}()

// RunnerHeader returns the columns in the order the experiment runner writes
// them, excluding the trailing BrokeReasons text column.
func RunnerHeader() []string {
	cols := []string{
		analysis.ColGame,
		analysis.ColGameWon,
		"OutbreakCount", "PlayerCardsLeft",
		analysis.ColDepth, "MinBranch", "MaxBranch", analysis.ColAvgBranch, "StdDevBranch",
	}
	for _, card := range []string{analysis.QuietNight, analysis.Airlift, analysis.GovernmentGrant} {
		cols = append(cols, analysis.FirstPresenceCol(card), analysis.UseCol(card))
	}
	for _, card := range analysis.EventCards {
		cols = append(cols, analysis.CountCol(card))
	}
	for _, color := range analysis.DiseaseColors {
		cols = append(cols, analysis.CuredCol(color))
	}
	cols = append(cols, analysis.ColGiveCount, analysis.ColTakeCount, "EpidemicsDrawn")
	for _, vt := range []string{"SelectedReward", "StateEval"} {
		for _, k := range CheckpointTurns {
			cols = append(cols, analysis.CheckpointCol(k, vt))
		}
	}
	return cols
}

// DefaultGame is a lost game with no event card seen and no cure.
func DefaultGame() Game {
	g := Game{}
	for _, col := range RunnerHeader() {
		g[col] = 0
	}
	g[analysis.ColDepth] = 40
	g[analysis.ColAvgBranch] = 12
	for _, card := range analysis.EventCards {
		g[analysis.FirstPresenceCol(card)] = -1
		g[analysis.UseCol(card)] = -1
	}
	for _, color := range analysis.DiseaseColors {
		g[analysis.CuredCol(color)] = -1
	}
	for _, vt := range []string{"SelectedReward", "StateEval"} {
		for _, k := range CheckpointTurns {
			g[analysis.CheckpointCol(k, vt)] = -1
		}
	}
	return g
}

// WriteExperimentCSV writes games to path the way the runner does: CRLF line
// endings, %f formatted values and an empty trailing BrokeReasons column.
func WriteExperimentCSV(t testing.TB, path string, games []Game) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	defer file.Close()

	header := RunnerHeader()
	w := csv.NewWriter(file)
	w.UseCRLF = true
	if err := w.Write(append(append([]string(nil), header...), analysis.ColBrokeReason)); err != nil {
		t.Fatal(err)
	}
	for i, g := range games {
		merged := DefaultGame()
		for k, v := range g {
			merged[k] = v
		}
		row := make([]string, 0, len(header)+1)
		for _, col := range header {
			if col == analysis.ColGame {
				row = append(row, fmt.Sprintf("%d", i+1))
				continue
			}
			row = append(row, fmt.Sprintf("%f", merged[col]))
		}
		row = append(row, "")
		if err := w.Write(row); err != nil {
			t.Fatal(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatal(err)
	}
}

// WriteHeaderFile writes a runner .header file naming agentName.
func WriteHeaderFile(t testing.TB, path, agentName string) {
	t.Helper()
	lines := []string{
		"Experiment Name: " + strings.TrimSuffix(filepath.Base(path), ".header"),
		"Experiment Description: fixture experiment",
		"",
		"Scenario Name: VanillaGameScenario",
		"Scenario Description: 3 players, 4 epidemics",
		"",
		"Agent Name: " + agentName,
		"==========================================",
		"=========== Measurements Taken ===========",
		"",
		"Measurement Name: GameWon",
		"Measurement Description: Whether the game was won",
		"",
		"Measurement Name: Depth",
		"Measurement Description: Number of steps taken",
		"",
		"Start Time: 01-02-2021 10:00:00",
		"End Time: 01-02-2021 11:30:00",
		"",
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\r\n")), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// WriteExperiment writes <stem>.csv and <stem>.header and returns stem.
func WriteExperiment(t testing.TB, stem, agentName string, games []Game) string {
	t.Helper()
	WriteExperimentCSV(t, stem+".csv", games)
	WriteHeaderFile(t, stem+".header", agentName)
	return stem
}

// WriteRunFolder creates base/<folder>/ holding <folder>_Experiment.csv and
// its .header, matching the batch naming convention. Returns the folder path.
func WriteRunFolder(t testing.TB, base, folder, agentName string, games []Game) string {
	t.Helper()
	dir := filepath.Join(base, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating %s: %v", dir, err)
	}
	WriteExperiment(t, filepath.Join(dir, folder+"_Experiment"), agentName, games)
	return dir
}

// Games returns n copies of DefaultGame with Depth set to depth0, depth0+1, ...
func Games(n int, depth0 float64) []Game {
	games := make([]Game, n)
	for i := range games {
		games[i] = Game{analysis.ColDepth: depth0 + float64(i)}
	}
	return games
}
