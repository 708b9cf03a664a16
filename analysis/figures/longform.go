package figures

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/pandemic-sim/pandemic-analysis/analysis"
	"github.com/pandemic-sim/pandemic-analysis/analysis/experiment"
	"github.com/pandemic-sim/pandemic-analysis/analysis/table"
)

// Checkpoint value types recorded by the search agents.
const (
	SelectedReward = "SelectedReward"
	StateEval      = "StateEval"
)

// ValueTypes lists the checkpoint value types in output order.
var ValueTypes = []string{SelectedReward, StateEval}

// Long-form column names.
const (
	ColExperiment = "Experiment"
	ColTurn       = "Turn"
	ColValueType  = "ValueType"
	ColValue      = "Value"
)

// notRecorded marks a checkpoint the game never reached.
const notRecorded = -1

// CheckpointTurns returns the turns at which the runner records checkpoint
// values: 0, 5, ..., 90.
func CheckpointTurns() []int {
	turns := make([]int, 0, 19)
	for k := 0; k <= 90; k += 5 {
		turns = append(turns, k)
	}
	return turns
}

// Experiment is a labelled experiment table.
type Experiment struct {
	Label string
	Table *table.Table
}

var metadataColumns = []string{
	experiment.ColHeuristic,
	experiment.ColDeterminizations,
	experiment.ColNSims,
	experiment.ColSelectionPolicy,
}

// CheckpointLongForm reshapes the Turn<k><ValueType> columns of every
// experiment into one row per (game, checkpoint, value type). Sentinel -1
// values and absent columns become missing. Metadata columns present in any
// input are carried along.
func CheckpointLongForm(experiments ...Experiment) *table.Table {
	turns := CheckpointTurns()
	perGame := len(turns) * len(ValueTypes)
	total := 0
	for _, e := range experiments {
		total += e.Table.Rows() * perGame
	}

	out := table.New(total)
	expCol := out.AddText(ColExperiment)
	gameCol := out.AddNumeric(analysis.ColGame)
	turnCol := out.AddNumeric(ColTurn)
	typeCol := out.AddText(ColValueType)
	valueCol := out.AddNumeric(ColValue)
	meta := make(map[string]*table.Column)
	for _, name := range metadataColumns {
		for _, e := range experiments {
			if c, ok := e.Table.Column(name); ok {
				if c.Kind == table.Text {
					meta[name] = out.AddText(name)
				} else {
					meta[name] = out.AddNumeric(name)
				}
				break
			}
		}
	}

	row := 0
	for _, e := range experiments {
		t := e.Table
		game, _ := t.Column(analysis.ColGame)
		for i := 0; i < t.Rows(); i++ {
			gameID := float64(i + 1)
			if game != nil {
				if v, ok := game.Float(i); ok {
					gameID = v
				}
			}
			for _, vt := range ValueTypes {
				for _, k := range turns {
					expCol.SetText(row, e.Label)
					gameCol.SetFloat(row, gameID)
					turnCol.SetFloat(row, float64(k))
					typeCol.SetText(row, vt)
					if c, ok := t.Column(analysis.CheckpointCol(k, vt)); ok {
						if v, ok := c.Float(i); ok && v != notRecorded {
							valueCol.SetFloat(row, v)
						}
					}
					copyMeta(meta, t, i, row)
					row++
				}
			}
		}
	}
	return out
}

func copyMeta(meta map[string]*table.Column, src *table.Table, i, row int) {
	for name, dst := range meta {
		c, ok := src.Column(name)
		if !ok {
			continue
		}
		if dst.Kind == table.Text {
			if s, ok := c.Text(i); ok {
				dst.SetText(row, s)
			}
		} else if v, ok := c.Float(i); ok {
			dst.SetFloat(row, v)
		}
	}
}

// TurnMeans returns, per experiment label in order of appearance, the mean
// recorded value of valueType at each checkpoint turn that has any value.
func TurnMeans(long *table.Table, valueType string) ([]string, map[string]plotter.XYs, error) {
	if err := long.Require(ColExperiment, ColTurn, ColValueType, ColValue); err != nil {
		return nil, nil, err
	}
	expCol, _ := long.Column(ColExperiment)
	turnCol, _ := long.Column(ColTurn)
	typeCol, _ := long.Column(ColValueType)
	valueCol, _ := long.Column(ColValue)

	var labels []string
	samples := make(map[string]map[float64][]float64)
	for i := 0; i < long.Rows(); i++ {
		if vt, _ := typeCol.Text(i); vt != valueType {
			continue
		}
		v, ok := valueCol.Float(i)
		if !ok {
			continue
		}
		turn, ok := turnCol.Float(i)
		if !ok {
			continue
		}
		label, _ := expCol.Text(i)
		byTurn, seen := samples[label]
		if !seen {
			byTurn = make(map[float64][]float64)
			samples[label] = byTurn
			labels = append(labels, label)
		}
		byTurn[turn] = append(byTurn[turn], v)
	}

	means := make(map[string]plotter.XYs, len(labels))
	for _, label := range labels {
		var xys plotter.XYs
		for _, k := range CheckpointTurns() {
			if vs := samples[label][float64(k)]; len(vs) > 0 {
				xys = append(xys, plotter.XY{X: float64(k), Y: stat.Mean(vs, nil)})
			}
		}
		means[label] = xys
	}
	return labels, means, nil
}

// CheckpointTrend plots the mean of valueType per checkpoint turn, one line
// per experiment of the long-form table.
func CheckpointTrend(long *table.Table, valueType string) (*plot.Plot, error) {
	labels, means, err := TurnMeans(long, valueType)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no recorded %s values", analysis.ErrParse, valueType)
	}

	p := plot.New()
	p.Title.Text = "Mean " + valueType + " by turn"
	p.X.Label.Text = ColTurn
	p.Y.Label.Text = valueType
	p.Legend.Top = true

	for i, label := range labels {
		line, points, err := plotter.NewLinePoints(means[label])
		if err != nil {
			return nil, fmt.Errorf("trend for %s: %w", label, err)
		}
		c := plotutil.Color(i)
		line.LineStyle.Color = c
		line.LineStyle.Width = vg.Points(1.5)
		points.GlyphStyle.Color = c
		points.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(line, points)
		p.Legend.Add(label, line, points)
	}
	return p, nil
}
