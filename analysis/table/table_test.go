package table

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pandemic-sim/pandemic-analysis/analysis"
)

const runnerCSV = "Game,GameWon,Depth,AirliftUse,BrokeReasons\r\n" +
	"1,1.000000,40.000000,7.000000,\r\n" +
	"2,0.000000,55.000000,-1.000000,OutbreakLimit;\r\n" +
	"3,0.000000,,-1.000000,\r\n"

func TestRead_RunnerOutput_InfersKindsAndMissing(t *testing.T) {
	// GIVEN the runner's CRLF output with an empty Depth cell and a text column
	tbl, err := Read(strings.NewReader(runnerCSV))

	// THEN columns keep header order with numeric/text kinds inferred
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Rows())
	assert.Equal(t, []string{"Game", "GameWon", "Depth", "AirliftUse", "BrokeReasons"}, tbl.Names())

	depth, err := tbl.Numeric("Depth")
	require.NoError(t, err)
	v, ok := depth.Float(1)
	assert.True(t, ok)
	assert.Equal(t, 55.0, v)
	_, ok = depth.Float(2)
	assert.False(t, ok, "empty cell must load as missing")
	assert.Equal(t, []float64{40, 55}, depth.Values())

	reasons, ok := tbl.Column("BrokeReasons")
	require.True(t, ok)
	assert.Equal(t, Text, reasons.Kind)
	s, ok := reasons.Text(1)
	assert.True(t, ok)
	assert.Equal(t, "OutbreakLimit;", s)
	assert.Equal(t, 2, reasons.Missing())
}

func TestRead_MalformedContent_ReturnsParseError(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"ragged row":     "a,b\n1,2\n3\n",
		"bare quote":     "a,b\n1,\"2\n",
		"duplicate name": "a,a\n1,2\n",
		"empty name":     "a,\n1,2\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Read(strings.NewReader(content))
			if !errors.Is(err, analysis.ErrParse) {
				t.Errorf("err = %v, want ErrParse", err)
			}
		})
	}
}

func TestLoad_AppendsCSVExtension(t *testing.T) {
	// GIVEN results/exp.csv on disk
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "exp.csv"), []byte(runnerCSV), 0644))

	// WHEN loading by stem and by full name
	byStem, err := Load(filepath.Join(dir, "exp"))
	require.NoError(t, err)
	byName, err := Load(filepath.Join(dir, "exp.csv"))
	require.NoError(t, err)

	// THEN both resolve to the same file
	assert.Equal(t, byName.Rows(), byStem.Rows())
	assert.Equal(t, byName.Names(), byStem.Names())
}

func TestLoad_MissingFile_ReturnsNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, analysis.ErrNotFound)
}

func TestWrite_RoundTripsValuesAndMissing(t *testing.T) {
	// GIVEN a loaded table
	tbl, err := Read(strings.NewReader(runnerCSV))
	require.NoError(t, err)

	// WHEN writing and reading it back
	var buf bytes.Buffer
	require.NoError(t, tbl.Write(&buf))
	back, err := Read(&buf)
	require.NoError(t, err)

	// THEN cells and missing markers survive
	assert.Equal(t, tbl.Names(), back.Names())
	for _, c := range tbl.Columns() {
		bc, _ := back.Column(c.Name)
		for i := 0; i < tbl.Rows(); i++ {
			want, wantOK := c.Text(i)
			got, gotOK := bc.Text(i)
			assert.Equal(t, wantOK, gotOK, "%s row %d validity", c.Name, i)
			assert.Equal(t, want, got, "%s row %d", c.Name, i)
		}
	}
}

func TestAddNumeric_ReplacesExistingColumnInPlace(t *testing.T) {
	tbl, err := Read(strings.NewReader(runnerCSV))
	require.NoError(t, err)

	c := tbl.AddNumeric("Depth")
	assert.Equal(t, tbl.Names()[2], "Depth", "replacement keeps position")
	assert.Equal(t, 3, c.Missing(), "replacement starts all missing")
	assert.Len(t, tbl.Names(), 5)
}

func TestSetFloat_NaNStoresMissing(t *testing.T) {
	tbl := New(1)
	c := tbl.AddNumeric("x")
	c.SetFloat(0, 3)
	c.SetFloat(0, nan())
	assert.False(t, c.Valid(0))
}

func TestConcat_UnionsColumnsWithMissing(t *testing.T) {
	// GIVEN two tables sharing column a, each with one private column
	left := New(2)
	la := left.AddNumeric("a")
	la.SetFloat(0, 1)
	la.SetFloat(1, 2)
	left.AddNumeric("onlyLeft").SetFloat(0, 9)

	right := New(1)
	right.AddNumeric("a").SetFloat(0, 3)
	right.AddText("onlyRight").SetText(0, "x")

	// WHEN concatenating
	out := Concat(left, right)

	// THEN rows stack and absent columns are missing
	assert.Equal(t, 3, out.Rows())
	assert.Equal(t, []string{"a", "onlyLeft", "onlyRight"}, out.Names())
	a, _ := out.Column("a")
	assert.Equal(t, []float64{1, 2, 3}, a.Values())
	onlyLeft, _ := out.Column("onlyLeft")
	assert.Equal(t, 2, onlyLeft.Missing())
	onlyRight, _ := out.Column("onlyRight")
	assert.Equal(t, Text, onlyRight.Kind)
	assert.False(t, onlyRight.Valid(0))
	s, _ := onlyRight.Text(2)
	assert.Equal(t, "x", s)
}

func TestConcat_MixedKinds_PromotesToText(t *testing.T) {
	num := New(1)
	num.AddNumeric("label").SetFloat(0, 5)
	txt := New(1)
	txt.AddText("label").SetText(0, "UCT")

	out := Concat(num, txt)

	c, _ := out.Column("label")
	require.Equal(t, Text, c.Kind)
	s0, _ := c.Text(0)
	s1, _ := c.Text(1)
	assert.Equal(t, "5", s0)
	assert.Equal(t, "UCT", s1)
}

func TestRequire_NamesMissingColumn(t *testing.T) {
	tbl := New(0)
	tbl.AddNumeric("Depth")

	err := tbl.Require("Depth", "GameWon")

	require.ErrorIs(t, err, analysis.ErrParse)
	assert.Contains(t, err.Error(), "GameWon")
}

func TestClone_IsIndependent(t *testing.T) {
	tbl := New(1)
	tbl.AddNumeric("x").SetFloat(0, 1)

	cp := tbl.Clone()
	c, _ := cp.Column("x")
	c.SetFloat(0, 2)

	orig, _ := tbl.Column("x")
	v, _ := orig.Float(0)
	assert.Equal(t, 1.0, v)
}

func nan() float64 { return math.NaN() }
