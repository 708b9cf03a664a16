// Package compare summarizes two experiment tables side by side.
package compare

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pandemic-sim/pandemic-analysis/analysis/featurize"
	"github.com/pandemic-sim/pandemic-analysis/analysis/table"
)

// Summary holds min, mean and max over the non-missing cells of one column.
// All three are NaN when the column is absent, text or has no values.
type Summary struct {
	Min  float64
	Mean float64
	Max  float64
}

// Row compares one column across the two tables.
type Row struct {
	Column string
	A      Summary
	B      Summary
}

// Comparison is the column-by-column comparison of two tables.
type Comparison struct {
	Rows []Row
}

// Headers are the block titles used by Write.
var Headers = []string{"df1 Min", "df1 Avg", "df1 Max", "df2 Min", "df2 Avg", "df2 Max"}

// Compare summarizes every numeric column of a and b. Columns appear in a's
// order followed by b's extras. Neither table is modified.
func Compare(a, b *table.Table) *Comparison {
	var names []string
	seen := make(map[string]bool)
	for _, t := range []*table.Table{a, b} {
		for _, c := range t.Columns() {
			if c.Kind != table.Numeric || seen[c.Name] {
				continue
			}
			seen[c.Name] = true
			names = append(names, c.Name)
		}
	}

	cmp := &Comparison{Rows: make([]Row, 0, len(names))}
	for _, name := range names {
		cmp.Rows = append(cmp.Rows, Row{Column: name, A: Summarize(a, name), B: Summarize(b, name)})
	}
	return cmp
}

// ComparePaths loads both tables (".csv" appended if absent), turns their
// sentinel values into missing cells and compares them.
func ComparePaths(a, b string) (*Comparison, error) {
	ta, err := loadNormalized(a)
	if err != nil {
		return nil, err
	}
	tb, err := loadNormalized(b)
	if err != nil {
		return nil, err
	}
	return Compare(ta, tb), nil
}

// loadNormalized loads a table, featurizes it when it has the runner's columns
// and drops unrecorded checkpoints, so no -1 sentinel reaches a summary.
func loadNormalized(path string) (*table.Table, error) {
	t, err := table.Load(path)
	if err != nil {
		return nil, err
	}
	if err := featurize.Featurize(t); err != nil {
		logrus.Debugf("%s: derived columns incomplete: %v", table.CSVPath(path), err)
	}
	featurize.Checkpoints(t)
	return t, nil
}

// Summarize computes the summary of column name in t.
func Summarize(t *table.Table, name string) Summary {
	nan := Summary{Min: math.NaN(), Mean: math.NaN(), Max: math.NaN()}
	c, ok := t.Column(name)
	if !ok || c.Kind != table.Numeric {
		return nan
	}
	values := c.Values()
	if len(values) == 0 {
		return nan
	}
	return Summary{
		Min:  floats.Min(values),
		Mean: stat.Mean(values, nil),
		Max:  floats.Max(values),
	}
}

// Row returns the comparison row for column name.
func (c *Comparison) Row(name string) (Row, bool) {
	for _, r := range c.Rows {
		if r.Column == name {
			return r, true
		}
	}
	return Row{}, false
}

// Write renders the comparison as two three-column blocks side by side.
func (c *Comparison) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "\t")
	for _, h := range Headers {
		fmt.Fprintf(tw, "%s\t", h)
	}
	fmt.Fprintln(tw)
	for _, r := range c.Rows {
		fmt.Fprintf(tw, "%s\t", r.Column)
		for _, v := range []float64{r.A.Min, r.A.Mean, r.A.Max, r.B.Min, r.B.Mean, r.B.Max} {
			fmt.Fprintf(tw, "%s\t", formatStat(v))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.4g", v)
}
