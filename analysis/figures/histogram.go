// Package figures renders comparison charts of featurized experiments with
// gonum/plot: shared-bin histograms, the depth and branching-factor figure and
// per-checkpoint reward trends.
package figures

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/pandemic-sim/pandemic-analysis/analysis"
	"github.com/pandemic-sim/pandemic-analysis/analysis/experiment"
	"github.com/pandemic-sim/pandemic-analysis/analysis/featurize"
	"github.com/pandemic-sim/pandemic-analysis/analysis/table"
)

// DefaultBins is the histogram bin count used when none is configured.
const DefaultBins = 20

// SharedBins holds two samples counted into the same bins. Edges has one more
// element than A and B; the last bin is closed on the right.
type SharedBins struct {
	Edges []float64
	A     []float64
	B     []float64
}

// SharedHistogram computes nbin equal-width bins over the range of a and
// counts both a and b into them. Values of b outside that range are dropped.
// A zero-width range is widened to ±0.5.
func SharedHistogram(a, b []float64, nbin int) (*SharedBins, error) {
	if nbin < 1 {
		return nil, fmt.Errorf("histogram needs at least one bin, got %d", nbin)
	}
	a, b = finite(a), finite(b)
	if len(a) == 0 {
		return nil, fmt.Errorf("%w: first sample has no values to bin", analysis.ErrParse)
	}
	lo, hi := floats.Min(a), floats.Max(a)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	edges := make([]float64, nbin+1)
	floats.Span(edges, lo, hi)
	return &SharedBins{Edges: edges, A: countInto(edges, a), B: countInto(edges, b)}, nil
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// countInto counts values within [edges[0], edges[n]] into the bins.
func countInto(edges, values []float64) []float64 {
	lo, hi := edges[0], edges[len(edges)-1]
	in := make([]float64, 0, len(values))
	for _, v := range values {
		if v >= lo && v <= hi {
			in = append(in, v)
		}
	}
	sort.Float64s(in)
	// stat.Histogram treats the last divider as exclusive.
	dividers := append([]float64(nil), edges...)
	dividers[len(dividers)-1] = math.Nextafter(hi, math.Inf(1))
	return stat.Histogram(nil, dividers, in, nil)
}

// Width returns the common bin width.
func (h *SharedBins) Width() float64 {
	return h.Edges[1] - h.Edges[0]
}

// Density scales counts so the histogram integrates to one.
func (h *SharedBins) Density(counts []float64) []float64 {
	total := floats.Sum(counts)
	out := make([]float64, len(counts))
	if total == 0 {
		return out
	}
	for i, c := range counts {
		out[i] = c / (total * (h.Edges[i+1] - h.Edges[i]))
	}
	return out
}

// Cumulative returns the running fraction of the sample at each bin's right edge.
func (h *SharedBins) Cumulative(counts []float64) []float64 {
	total := floats.Sum(counts)
	out := make([]float64, len(counts))
	if total == 0 {
		return out
	}
	floats.CumSum(out, counts)
	floats.Scale(1/total, out)
	return out
}

// HistOptions configures HistComparison.
type HistOptions struct {
	Bins       int  // 0 = DefaultBins
	Cumulative bool // step plot of the cumulative density
}

// HistComparison compares column between two experiments given by path stem
// (<stem>.csv and <stem>.header). Bins come from the first experiment and are
// reused for the second; agent names from the headers label the legend.
func HistComparison(column, exp1, exp2 string, opts HistOptions) (*plot.Plot, error) {
	bins := opts.Bins
	if bins == 0 {
		bins = DefaultBins
	}
	var (
		names  [2]string
		values [2][]float64
	)
	for i, stem := range []string{exp1, exp2} {
		name, err := experiment.AgentName(stem)
		if err != nil {
			return nil, err
		}
		t, err := loadFeaturized(stem)
		if err != nil {
			return nil, err
		}
		c, err := t.Numeric(column)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", table.CSVPath(stem), err)
		}
		names[i], values[i] = name, c.Values()
	}

	h, err := SharedHistogram(values[0], values[1], bins)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", column, err)
	}
	return h.Plot(column, names[0], names[1], opts.Cumulative)
}

// loadFeaturized loads a table and adds the derived columns when the table has
// the runner's columns.
func loadFeaturized(path string) (*table.Table, error) {
	t, err := table.Load(path)
	if err != nil {
		return nil, err
	}
	if err := featurize.Featurize(t); err != nil {
		logrus.Debugf("%s: derived columns incomplete: %v", table.CSVPath(path), err)
	}
	return t, nil
}

// Plot draws both samples, as translucent density histograms or as
// cumulative density steps.
func (h *SharedBins) Plot(column, labelA, labelB string, cumulative bool) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = column
	p.Y.Label.Text = "Density"

	for i, s := range []struct {
		label  string
		counts []float64
	}{{labelA, h.A}, {labelB, h.B}} {
		c := plotutil.Color(i)
		if cumulative {
			line, err := plotter.NewLine(h.stepXYs(h.Cumulative(s.counts)))
			if err != nil {
				return nil, fmt.Errorf("cumulative line for %s: %w", s.label, err)
			}
			line.StepStyle = plotter.PostStep
			line.LineStyle.Color = c
			line.LineStyle.Width = vg.Points(1.5)
			p.Add(line)
			p.Legend.Add(s.label, line)
			continue
		}
		hist := &plotter.Histogram{
			Bins:      h.histBins(h.Density(s.counts)),
			Width:     h.Width(),
			FillColor: translucent(c),
			LineStyle: plotter.DefaultLineStyle,
		}
		p.Add(hist)
		p.Legend.Add(s.label, hist)
	}

	if cumulative {
		p.Title.Text = "Cumulative Density histogram comparison of " + column
		p.Legend.Top = false
	} else {
		p.Title.Text = "Density histogram comparison of " + column
		p.Legend.Top = true
	}
	return p, nil
}

func (h *SharedBins) histBins(weights []float64) []plotter.HistogramBin {
	bins := make([]plotter.HistogramBin, len(weights))
	for i, w := range weights {
		bins[i] = plotter.HistogramBin{Min: h.Edges[i], Max: h.Edges[i+1], Weight: w}
	}
	return bins
}

// stepXYs places each cumulative value at its bin's left edge, closing the
// last step at the right edge.
func (h *SharedBins) stepXYs(values []float64) plotter.XYs {
	xys := make(plotter.XYs, 0, len(values)+1)
	for i, v := range values {
		xys = append(xys, plotter.XY{X: h.Edges[i], Y: v})
	}
	xys = append(xys, plotter.XY{X: h.Edges[len(h.Edges)-1], Y: values[len(values)-1]})
	return xys
}

func translucent(c color.Color) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 128}
}
