// Package table holds the in-memory tabular dataset the analysis stages pass
// around: named columns over a fixed number of rows, each cell either a value
// or explicitly missing.
package table

import (
	"fmt"
	"math"
	"strconv"

	"github.com/pandemic-sim/pandemic-analysis/analysis"
)

// Kind distinguishes numeric columns from free-text columns.
type Kind int

const (
	Numeric Kind = iota
	Text
)

func (k Kind) String() string {
	if k == Text {
		return "text"
	}
	return "numeric"
}

// Column is one named column. Numeric columns store values in nums, text
// columns in strs; valid[i] == false marks row i as missing in either kind.
type Column struct {
	Name string
	Kind Kind

	nums  []float64
	strs  []string
	valid []bool
}

func newColumn(name string, kind Kind, rows int) *Column {
	c := &Column{Name: name, Kind: kind, valid: make([]bool, rows)}
	if kind == Text {
		c.strs = make([]string, rows)
	} else {
		c.nums = make([]float64, rows)
	}
	return c
}

// Len returns the number of rows in the column.
func (c *Column) Len() int { return len(c.valid) }

// Valid reports whether row i holds a value.
func (c *Column) Valid(i int) bool { return c.valid[i] }

// Float returns the numeric value at row i. ok is false for missing cells and
// for text columns.
func (c *Column) Float(i int) (v float64, ok bool) {
	if c.Kind != Numeric || !c.valid[i] {
		return 0, false
	}
	return c.nums[i], true
}

// Text returns the cell at row i rendered as text; numeric cells are formatted.
func (c *Column) Text(i int) (string, bool) {
	if !c.valid[i] {
		return "", false
	}
	if c.Kind == Text {
		return c.strs[i], true
	}
	return formatFloat(c.nums[i]), true
}

// SetFloat stores v at row i. NaN is stored as missing.
func (c *Column) SetFloat(i int, v float64) {
	if c.Kind != Numeric {
		panic(fmt.Sprintf("table: SetFloat on text column %q", c.Name))
	}
	if math.IsNaN(v) {
		c.SetMissing(i)
		return
	}
	c.nums[i] = v
	c.valid[i] = true
}

// SetText stores s at row i of a text column.
func (c *Column) SetText(i int, s string) {
	if c.Kind != Text {
		panic(fmt.Sprintf("table: SetText on numeric column %q", c.Name))
	}
	c.strs[i] = s
	c.valid[i] = true
}

// SetMissing marks row i as missing.
func (c *Column) SetMissing(i int) {
	c.valid[i] = false
	if c.Kind == Text {
		c.strs[i] = ""
	} else {
		c.nums[i] = 0
	}
}

// Values returns the non-missing numeric values in row order.
func (c *Column) Values() []float64 {
	if c.Kind != Numeric {
		return nil
	}
	out := make([]float64, 0, len(c.nums))
	for i, v := range c.nums {
		if c.valid[i] {
			out = append(out, v)
		}
	}
	return out
}

// Missing returns the number of missing cells.
func (c *Column) Missing() int {
	n := 0
	for _, ok := range c.valid {
		if !ok {
			n++
		}
	}
	return n
}

func (c *Column) clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, valid: append([]bool(nil), c.valid...)}
	if c.Kind == Text {
		out.strs = append([]string(nil), c.strs...)
	} else {
		out.nums = append([]float64(nil), c.nums...)
	}
	return out
}

// asText converts a numeric column to text, keeping missing cells missing.
func (c *Column) asText() *Column {
	if c.Kind == Text {
		return c
	}
	out := newColumn(c.Name, Text, c.Len())
	for i := range c.valid {
		if s, ok := c.Text(i); ok {
			out.SetText(i, s)
		}
	}
	return out
}

// Table is an ordered set of equally long columns.
type Table struct {
	rows  int
	cols  []*Column
	index map[string]int
}

// New returns an empty table with the given number of rows.
func New(rows int) *Table {
	return &Table{rows: rows, index: make(map[string]int)}
}

// Rows returns the number of rows.
func (t *Table) Rows() int { return t.rows }

// Columns returns the columns in order. The slice must not be modified.
func (t *Table) Columns() []*Column { return t.cols }

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Has reports whether the table has a column called name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Numeric returns the named column, failing with analysis.ErrParse when it is
// absent or not numeric.
func (t *Table) Numeric(name string) (*Column, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w: missing column %q", analysis.ErrParse, name)
	}
	if c.Kind != Numeric {
		return nil, fmt.Errorf("%w: column %q is not numeric", analysis.ErrParse, name)
	}
	return c, nil
}

// Require fails with analysis.ErrParse naming the first absent column.
func (t *Table) Require(names ...string) error {
	for _, name := range names {
		if !t.Has(name) {
			return fmt.Errorf("%w: missing column %q", analysis.ErrParse, name)
		}
	}
	return nil
}

// AddNumeric adds an all-missing numeric column. An existing column of the
// same name is replaced in place, keeping its position.
func (t *Table) AddNumeric(name string) *Column {
	return t.put(newColumn(name, Numeric, t.rows))
}

// AddText adds an all-missing text column, replacing any existing one.
func (t *Table) AddText(name string) *Column {
	return t.put(newColumn(name, Text, t.rows))
}

func (t *Table) put(c *Column) *Column {
	if c.Len() != t.rows {
		panic(fmt.Sprintf("table: column %q has %d rows, table has %d", c.Name, c.Len(), t.rows))
	}
	if i, ok := t.index[c.Name]; ok {
		t.cols[i] = c
		return c
	}
	t.index[c.Name] = len(t.cols)
	t.cols = append(t.cols, c)
	return c
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := New(t.rows)
	for _, c := range t.cols {
		out.put(c.clone())
	}
	return out
}

// Concat stacks tables row-wise. Columns keep the order in which they first
// appear; rows from a table lacking a column are missing there. A column that
// is text in any input is text in the result.
func Concat(tables ...*Table) *Table {
	total := 0
	kinds := make(map[string]Kind)
	var order []string
	for _, t := range tables {
		total += t.rows
		for _, c := range t.cols {
			k, seen := kinds[c.Name]
			if !seen {
				order = append(order, c.Name)
				kinds[c.Name] = c.Kind
				continue
			}
			if k != c.Kind {
				kinds[c.Name] = Text
			}
		}
	}

	out := New(total)
	for _, name := range order {
		if kinds[name] == Text {
			out.AddText(name)
		} else {
			out.AddNumeric(name)
		}
	}

	offset := 0
	for _, t := range tables {
		for _, src := range t.cols {
			dst, _ := out.Column(src.Name)
			if dst.Kind == Text {
				src = src.asText()
			}
			for i := 0; i < t.rows; i++ {
				if !src.valid[i] {
					continue
				}
				if dst.Kind == Text {
					dst.SetText(offset+i, src.strs[i])
				} else {
					dst.SetFloat(offset+i, src.nums[i])
				}
			}
		}
		offset += t.rows
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
