// Package experiment loads featurized experiment tables, tags them with the
// parameters of the agent that produced them and aggregates batches of runs
// laid out in K<k>_<n>_<suffix> folders.
package experiment

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pandemic-sim/pandemic-analysis/analysis"
	"github.com/pandemic-sim/pandemic-analysis/analysis/featurize"
	"github.com/pandemic-sim/pandemic-analysis/analysis/table"
)

// Metadata column names attached to every row of a loaded experiment.
const (
	ColHeuristic        = "Heuristic"
	ColDeterminizations = "Determinizations"
	ColNSims            = "nSims"
	ColSelectionPolicy  = "Selection Policy"
)

// DefaultSelectionPolicy labels experiments whose selection policy is not given.
const DefaultSelectionPolicy = "UCT"

// Metadata describes the agent configuration behind one experiment.
type Metadata struct {
	Heuristic        string // heuristic label, e.g. "SmartWeightedCompound"
	Determinizations int    // K, determinizations per decision
	Sims             string // simulations per step, e.g. "10k" or "500"
	SelectionPolicy  string // "" = DefaultSelectionPolicy
}

// ParseSimBudget normalizes a simulation-budget label: "10k" → 10000,
// "500" → 500, "" → 0.
func ParseSimBudget(label string) (int64, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return 0, nil
	}
	multiplier := int64(1)
	digits := label
	if strings.HasSuffix(label, "k") {
		multiplier = 1000
		digits = strings.TrimSuffix(label, "k")
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: invalid simulation budget %q", analysis.ErrParse, label)
	}
	return n * multiplier, nil
}

// Load reads the experiment table at path, featurizes it and attaches meta to
// every row.
func Load(path string, meta Metadata) (*table.Table, error) {
	t, err := table.Load(path)
	if err != nil {
		return nil, err
	}
	if err := featurize.Featurize(t); err != nil {
		return nil, fmt.Errorf("featurizing %s: %w", table.CSVPath(path), err)
	}
	if err := Annotate(t, meta); err != nil {
		return nil, fmt.Errorf("annotating %s: %w", table.CSVPath(path), err)
	}
	return t, nil
}

// Annotate attaches the metadata columns to every row of t.
func Annotate(t *table.Table, meta Metadata) error {
	sims, err := ParseSimBudget(meta.Sims)
	if err != nil {
		return err
	}
	policy := meta.SelectionPolicy
	if policy == "" {
		policy = DefaultSelectionPolicy
	}

	heuristic := t.AddText(ColHeuristic)
	k := t.AddNumeric(ColDeterminizations)
	n := t.AddNumeric(ColNSims)
	selection := t.AddText(ColSelectionPolicy)
	for i := 0; i < t.Rows(); i++ {
		heuristic.SetText(i, meta.Heuristic)
		k.SetFloat(i, float64(meta.Determinizations))
		n.SetFloat(i, float64(sims))
		selection.SetText(i, policy)
	}
	return nil
}
