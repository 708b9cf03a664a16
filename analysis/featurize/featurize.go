// Package featurize derives per-game analytic columns from the raw runner
// records: event-card use latency, cure counts, trade counts and an estimate
// of player turns.
//
// Every derivation is an explicit predicate-and-transform pass over the rows
// of a table.Table. Derived columns are recomputed from scratch on each call,
// and the only source-column rewrites (sentinel -1 to missing, won-game cure
// attribution) are fixed points, so Featurize is idempotent.
package featurize

import (
	"math"
	"regexp"

	"github.com/pandemic-sim/pandemic-analysis/analysis"
	"github.com/pandemic-sim/pandemic-analysis/analysis/table"
)

// Derived column names.
const (
	ColNCured      = "n_Cured"
	ColTradeCount  = "Trade_count"
	ColPlayerTurns = "PlayerTurns"
)

// turnDivisor is the number of Depth steps per end-of-turn card draw in a
// 3-player game: three player actions plus the draw itself.
const turnDivisor = 4

// Featurize adds every derived column to t in place. Event usage and cures run
// first since they normalize the source columns other derivations may read.
func Featurize(t *table.Table) error {
	for _, step := range []func(*table.Table) error{EventUsage, Cure, Trade, PlayerTurns} {
		if err := step(t); err != nil {
			return err
		}
	}
	return nil
}

// EventUsage adds <Card>UseTime = <Card>Use - first<Card>Presence for each
// event card, missing where the card was never used. The -1 sentinels of
// <Card>Use and first<Card>Presence are then normalized to missing.
func EventUsage(t *table.Table) error {
	for _, card := range analysis.EventCards {
		use, err := t.Numeric(analysis.UseCol(card))
		if err != nil {
			return err
		}
		presence, err := t.Numeric(analysis.FirstPresenceCol(card))
		if err != nil {
			return err
		}

		useTime := t.AddNumeric(analysis.UseTimeCol(card))
		for i := 0; i < t.Rows(); i++ {
			u, uok := use.Float(i)
			p, pok := presence.Float(i)
			if uok && u >= 0 && pok && p >= 0 {
				useTime.SetFloat(i, u-p)
			}
			if uok && u < 0 {
				use.SetMissing(i)
			}
			if pok && p < 0 {
				presence.SetMissing(i)
			}
		}
	}
	return nil
}

// Cure adds n_Cured, the number of diseases cured in each game.
//
// Measurements are taken before each action, so a won game never records its
// final cure. In won games every cure field that is still negative or missing
// is attributed to the last step (Depth); in other games negative cure fields
// become missing. n_Cured counts the non-negative cure fields afterwards, so it
// is 4 for every won game regardless of how many cures were recorded.
func Cure(t *table.Table) error {
	won, err := t.Numeric(analysis.ColGameWon)
	if err != nil {
		return err
	}
	depth, err := t.Numeric(analysis.ColDepth)
	if err != nil {
		return err
	}
	cured := make([]*table.Column, len(analysis.DiseaseColors))
	for j, color := range analysis.DiseaseColors {
		if cured[j], err = t.Numeric(analysis.CuredCol(color)); err != nil {
			return err
		}
	}

	nCured := t.AddNumeric(ColNCured)
	for i := 0; i < t.Rows(); i++ {
		w, _ := won.Float(i)
		gameWon := w > 0
		d, dok := depth.Float(i)

		n := 0
		for _, c := range cured {
			v, ok := c.Float(i)
			switch {
			case ok && v >= 0:
			case gameWon && dok:
				c.SetFloat(i, d)
			default:
				c.SetMissing(i)
			}
			if v, ok := c.Float(i); ok && v >= 0 {
				n++
			}
		}
		nCured.SetFloat(i, float64(n))
	}
	return nil
}

// notRecorded marks a checkpoint the game never reached.
const notRecorded = -1

var checkpointColumn = regexp.MustCompile(`^Turn[0-9]+(SelectedReward|StateEval)$`)

// Checkpoints normalizes the -1 "not recorded" sentinel of every
// Turn<k>SelectedReward and Turn<k>StateEval column to missing. Only the exact
// sentinel is rewritten; other negative rewards are real values.
func Checkpoints(t *table.Table) {
	for _, c := range t.Columns() {
		if c.Kind != table.Numeric || !checkpointColumn.MatchString(c.Name) {
			continue
		}
		for i := 0; i < c.Len(); i++ {
			if v, ok := c.Float(i); ok && v == notRecorded {
				c.SetMissing(i)
			}
		}
	}
}

// Trade adds Trade_count = Give_count + Take_count.
func Trade(t *table.Table) error {
	return derive(t, ColTradeCount, []string{analysis.ColGiveCount, analysis.ColTakeCount},
		func(v []float64) float64 { return v[0] + v[1] })
}

// PlayerTurns adds an estimate of the number of end-of-player-turn card draws.
//
// This is a heuristic for 3-player games, not an exact count: every player
// action and every draw advances Depth by one, while event-card plays advance
// Depth without being turns. The result is
// round((Depth - Airlift_count - GovernmentGrant_count - QuietNight_count)/4 + 0.25),
// rounding half to even.
func PlayerTurns(t *table.Table) error {
	cols := []string{analysis.ColDepth}
	for _, card := range analysis.EventCards {
		cols = append(cols, analysis.CountCol(card))
	}
	return derive(t, ColPlayerTurns, cols, func(v []float64) float64 {
		steps := v[0]
		for _, played := range v[1:] {
			steps -= played
		}
		return math.RoundToEven(steps/turnDivisor + 0.25)
	})
}

// derive fills column name with fn over the source columns, missing wherever
// any source cell is missing.
func derive(t *table.Table, name string, sources []string, fn func([]float64) float64) error {
	src := make([]*table.Column, len(sources))
	for j, s := range sources {
		c, err := t.Numeric(s)
		if err != nil {
			return err
		}
		src[j] = c
	}

	out := t.AddNumeric(name)
	vals := make([]float64, len(src))
rows:
	for i := 0; i < t.Rows(); i++ {
		for j, c := range src {
			v, ok := c.Float(i)
			if !ok {
				continue rows
			}
			vals[j] = v
		}
		out.SetFloat(i, fn(vals))
	}
	return nil
}
