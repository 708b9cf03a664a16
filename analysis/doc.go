// Package analysis post-processes the per-game CSV logs written by the Pandemic
// agent experiment runner.
//
// # Reading Guide
//
// The pipeline runs leaf-first through the sub-packages:
//   - analysis/table: in-memory tables with explicit missing cells, CSV load/write, concat
//   - analysis/featurize: derived per-game columns (event-use latency, cures, trades, turns)
//   - analysis/experiment: experiment metadata, .header files and K<k>_<n>_<suffix> batch folders
//   - analysis/compare: side-by-side min/mean/max summaries of two experiments
//   - analysis/figures: histogram, depth/branching and checkpoint trend charts
//
// This package only holds what every stage shares: the error kinds and the
// column names the runner writes.
package analysis
