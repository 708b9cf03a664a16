package experiment

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pandemic-sim/pandemic-analysis/analysis"
	"github.com/pandemic-sim/pandemic-analysis/analysis/table"
)

// BatchSpec selects a grid of experiment folders under BaseDir, one per
// (K, N) pair, each named K<k>_<n>_<Suffix>.
type BatchSpec struct {
	BaseDir          string
	Suffix           string
	Determinizations []int    // K values
	Sims             []string // simulation-budget labels, e.g. "500", "10k"
	Heuristic        string   // "" = Suffix
	SelectionPolicy  string   // "" = DefaultSelectionPolicy
}

// Run is one located experiment folder.
type Run struct {
	Dir        string
	DataPath   string
	HeaderPath string
	Metadata   Metadata
}

// FolderName returns the batch folder name for one (K, N) pair.
func FolderName(k int, sims, suffix string) string {
	return "K" + strconv.Itoa(k) + "_" + sims + "_" + suffix
}

// Locate resolves every folder of the batch, K-major. It fails with
// analysis.ErrStructure on the first folder that is missing or does not hold
// exactly one matching data file and one header file.
func (s BatchSpec) Locate() ([]Run, error) {
	heuristic := s.Heuristic
	if heuristic == "" {
		heuristic = s.Suffix
	}
	var runs []Run
	for _, k := range s.Determinizations {
		for _, n := range s.Sims {
			run, err := LocateRun(s.BaseDir, k, n, s.Suffix)
			if err != nil {
				return nil, err
			}
			run.Metadata = Metadata{
				Heuristic:        heuristic,
				Determinizations: k,
				Sims:             n,
				SelectionPolicy:  s.SelectionPolicy,
			}
			runs = append(runs, run)
		}
	}
	return runs, nil
}

// LocateRun validates the folder K<k>_<n>_<suffix> under base. The folder must
// hold exactly two entries: a data file named K<k>_<n>_<suffix>*.csv and one
// .header file.
func LocateRun(base string, k int, sims, suffix string) (Run, error) {
	name := FolderName(k, sims, suffix)
	dir := filepath.Join(base, name)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Run{}, fmt.Errorf("%w: folder %s: %w", analysis.ErrStructure, dir, analysis.ErrNotFound)
		}
		return Run{}, fmt.Errorf("reading folder %s: %w", dir, err)
	}
	if len(entries) != 2 {
		return Run{}, fmt.Errorf("%w: folder %s holds %d entries, want one .csv and one .header",
			analysis.ErrStructure, dir, len(entries))
	}

	dataPattern := regexp.MustCompile("^" + regexp.QuoteMeta(name) + `.*\.csv$`)
	run := Run{Dir: dir}
	for _, e := range entries {
		switch {
		case e.IsDir():
			return Run{}, fmt.Errorf("%w: folder %s holds subdirectory %s", analysis.ErrStructure, dir, e.Name())
		case strings.HasSuffix(e.Name(), ".header"):
			run.HeaderPath = filepath.Join(dir, e.Name())
		case strings.HasSuffix(e.Name(), ".csv"):
			if !dataPattern.MatchString(e.Name()) {
				return Run{}, fmt.Errorf("%w: data file %s in %s does not match %s*.csv",
					analysis.ErrStructure, e.Name(), dir, name)
			}
			run.DataPath = filepath.Join(dir, e.Name())
		}
	}
	if run.DataPath == "" || run.HeaderPath == "" {
		return Run{}, fmt.Errorf("%w: folder %s needs one .csv and one .header", analysis.ErrStructure, dir)
	}
	return run, nil
}

// LoadBatch loads, featurizes and annotates every run of the batch and
// concatenates them. Any bad folder or file aborts the whole batch.
func LoadBatch(spec BatchSpec) (*table.Table, error) {
	runs, err := spec.Locate()
	if err != nil {
		return nil, err
	}
	tables := make([]*table.Table, 0, len(runs))
	for _, run := range runs {
		t, err := Load(run.DataPath, run.Metadata)
		if err != nil {
			return nil, err
		}
		agent := ""
		if h, err := ReadHeader(run.HeaderPath); err == nil {
			agent = h.AgentName
		} else {
			logrus.Warnf("batch run %s: %v", run.Dir, err)
		}
		logrus.Debugf("batch run %s: %s (%d rows, agent %q)", run.Dir, filepath.Base(run.DataPath), t.Rows(), agent)
		tables = append(tables, t)
	}
	return table.Concat(tables...), nil
}

// LoadBatches loads several batches and concatenates them.
func LoadBatches(specs []BatchSpec) (*table.Table, error) {
	tables := make([]*table.Table, 0, len(specs))
	for _, spec := range specs {
		t, err := LoadBatch(spec)
		if err != nil {
			return nil, fmt.Errorf("batch %q: %w", spec.Suffix, err)
		}
		tables = append(tables, t)
	}
	return table.Concat(tables...), nil
}
