package figures

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgeps"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/pandemic-sim/pandemic-analysis/analysis"
	"github.com/pandemic-sim/pandemic-analysis/analysis/table"
)

// DepthBranchOptions configures DepthBranchFigure.
type DepthBranchOptions struct {
	Bins         int       // 0 = DefaultBins
	Cards        [2]string // event cards splitting the trend panel; zero = Airlift, GovernmentGrant
	BranchColumn string    // "" = AvgBranch
}

func (o DepthBranchOptions) withDefaults() DepthBranchOptions {
	if o.Bins == 0 {
		o.Bins = DefaultBins
	}
	if o.Cards == [2]string{} {
		o.Cards = [2]string{analysis.Airlift, analysis.GovernmentGrant}
	}
	if o.BranchColumn == "" {
		o.BranchColumn = analysis.ColAvgBranch
	}
	return o
}

// Subset is a labelled selection of table rows.
type Subset struct {
	Label string
	Rows  []int
}

// SplitByCards partitions the rows of t into four subsets by whether each of
// the two cards ever appeared (first<Card>Presence non-missing and >= 0).
// Order: both, first only, second only, neither.
func SplitByCards(t *table.Table, cards [2]string) ([]Subset, error) {
	var presence [2]*table.Column
	for j, card := range cards {
		c, err := t.Numeric(analysis.FirstPresenceCol(card))
		if err != nil {
			return nil, err
		}
		presence[j] = c
	}
	subsets := []Subset{
		{Label: cards[0] + " & " + cards[1]},
		{Label: cards[0] + " only"},
		{Label: cards[1] + " only"},
		{Label: "neither"},
	}
	for i := 0; i < t.Rows(); i++ {
		a, b := appeared(presence[0], i), appeared(presence[1], i)
		switch {
		case a && b:
			subsets[0].Rows = append(subsets[0].Rows, i)
		case a:
			subsets[1].Rows = append(subsets[1].Rows, i)
		case b:
			subsets[2].Rows = append(subsets[2].Rows, i)
		default:
			subsets[3].Rows = append(subsets[3].Rows, i)
		}
	}
	return subsets, nil
}

func appeared(c *table.Column, i int) bool {
	v, ok := c.Float(i)
	return ok && v >= 0
}

// Trend is a least-squares line y = Alpha + Beta*x over one subset.
type Trend struct {
	Subset
	X, Y        []float64
	Alpha, Beta float64
	Fitted      bool // false when fewer than two distinct x values
}

// FitTrends regresses column y on column x for each subset, skipping rows
// where either cell is missing.
func FitTrends(t *table.Table, subsets []Subset, x, y string) ([]Trend, error) {
	xc, err := t.Numeric(x)
	if err != nil {
		return nil, err
	}
	yc, err := t.Numeric(y)
	if err != nil {
		return nil, err
	}
	trends := make([]Trend, 0, len(subsets))
	for _, s := range subsets {
		tr := Trend{Subset: s}
		for _, i := range s.Rows {
			xv, xok := xc.Float(i)
			yv, yok := yc.Float(i)
			if xok && yok {
				tr.X = append(tr.X, xv)
				tr.Y = append(tr.Y, yv)
			}
		}
		if len(tr.X) >= 2 && floats.Min(tr.X) != floats.Max(tr.X) {
			tr.Alpha, tr.Beta = stat.LinearRegression(tr.X, tr.Y, nil, false)
			tr.Fitted = true
		}
		trends = append(trends, tr)
	}
	return trends, nil
}

// Panels is a row of plots rendered side by side.
type Panels struct {
	Plots []*plot.Plot
}

// DepthBranchFigure builds three panels: the game-depth distribution, the
// branching-factor distribution and branching factor against depth with one
// trend line per card-presence subset.
func DepthBranchFigure(t *table.Table, opts DepthBranchOptions) (*Panels, error) {
	opts = opts.withDefaults()

	depthHist, err := distribution(t, analysis.ColDepth, opts.Bins)
	if err != nil {
		return nil, err
	}
	depthHist.Title.Text = "Game depth distribution"

	branchHist, err := distribution(t, opts.BranchColumn, opts.Bins)
	if err != nil {
		return nil, err
	}
	branchHist.Title.Text = "Branching factor distribution"

	subsets, err := SplitByCards(t, opts.Cards)
	if err != nil {
		return nil, err
	}
	trends, err := FitTrends(t, subsets, analysis.ColDepth, opts.BranchColumn)
	if err != nil {
		return nil, err
	}
	trendPlot, err := trendPanel(trends, opts.BranchColumn)
	if err != nil {
		return nil, err
	}

	return &Panels{Plots: []*plot.Plot{depthHist, branchHist, trendPlot}}, nil
}

func distribution(t *table.Table, column string, bins int) (*plot.Plot, error) {
	c, err := t.Numeric(column)
	if err != nil {
		return nil, err
	}
	values := finite(c.Values())
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: column %q has no values", analysis.ErrParse, column)
	}
	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return nil, fmt.Errorf("histogram of %s: %w", column, err)
	}
	h.Normalize(1)
	h.FillColor = translucent(plotutil.Color(0))

	p := plot.New()
	p.X.Label.Text = column
	p.Y.Label.Text = "Density"
	p.Add(h)
	return p, nil
}

func trendPanel(trends []Trend, branchColumn string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Branching factor vs depth"
	p.X.Label.Text = analysis.ColDepth
	p.Y.Label.Text = branchColumn
	p.Legend.Top = true

	for i, tr := range trends {
		if len(tr.X) == 0 {
			continue
		}
		c := plotutil.Color(i)
		pts := make(plotter.XYs, len(tr.X))
		for j := range tr.X {
			pts[j] = plotter.XY{X: tr.X[j], Y: tr.Y[j]}
		}
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("scatter for %s: %w", tr.Label, err)
		}
		scatter.GlyphStyle.Color = translucent(c)
		scatter.GlyphStyle.Radius = vg.Points(1.5)
		p.Add(scatter)

		label := fmt.Sprintf("%s (n=%d)", tr.Label, len(tr.X))
		if !tr.Fitted {
			p.Legend.Add(label, scatter)
			continue
		}
		lo, hi := floats.Min(tr.X), floats.Max(tr.X)
		line, err := plotter.NewLine(plotter.XYs{
			{X: lo, Y: tr.Alpha + tr.Beta*lo},
			{X: hi, Y: tr.Alpha + tr.Beta*hi},
		})
		if err != nil {
			return nil, fmt.Errorf("trend line for %s: %w", tr.Label, err)
		}
		line.LineStyle.Color = c
		line.LineStyle.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add(label, line)
	}
	return p, nil
}

// Save renders the panels side by side into an image whose format is chosen
// by the extension of path: .png, .jpg/.jpeg, .tif/.tiff, .svg, .pdf or .eps.
func (p *Panels) Save(path string, width, height vg.Length) error {
	c, err := newCanvas(path, width, height)
	if err != nil {
		return err
	}
	tiles := draw.Tiles{
		Rows:      1,
		Cols:      len(p.Plots),
		PadX:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := plot.Align([][]*plot.Plot{p.Plots}, tiles, draw.New(c))
	for j, pl := range p.Plots {
		pl.Draw(canvases[0][j])
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := c.WriteTo(file); err != nil {
		_ = file.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return file.Close()
}

func newCanvas(path string, width, height vg.Length) (vg.CanvasWriterTo, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return vgimg.PngCanvas{Canvas: vgimg.New(width, height)}, nil
	case ".jpg", ".jpeg":
		return vgimg.JpegCanvas{Canvas: vgimg.New(width, height)}, nil
	case ".tif", ".tiff":
		return vgimg.TiffCanvas{Canvas: vgimg.New(width, height)}, nil
	case ".svg":
		return vgsvg.New(width, height), nil
	case ".pdf":
		return vgpdf.New(width, height), nil
	case ".eps":
		return vgeps.New(width, height), nil
	default:
		return nil, fmt.Errorf("unsupported figure format %q (want .png, .jpg, .tif, .svg, .pdf or .eps)", ext)
	}
}
