package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/pandemic-sim/pandemic-analysis/analysis/experiment"
	"github.com/pandemic-sim/pandemic-analysis/analysis/figures"
)

// EnvConfig holds the PANDEMIC_* environment variables.
type EnvConfig struct {
	ResultsDir      string `env:"PANDEMIC_RESULTS_DIR" envDefault:"."`
	LogLevel        string `env:"PANDEMIC_LOG_LEVEL" envDefault:"warn"`
	SelectionPolicy string `env:"PANDEMIC_SELECTION_POLICY" envDefault:"UCT"`
	HistBins        int    `env:"PANDEMIC_HIST_BINS" envDefault:"20"`
}

// loadEnvConfig parses the environment (after any .env file has been loaded).
func loadEnvConfig() (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// AnalysisConfig represents the analysis YAML file.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type AnalysisConfig struct {
	Version         string        `yaml:"version"`
	ResultsDir      string        `yaml:"results_dir"`
	SelectionPolicy string        `yaml:"selection_policy"`
	Bins            int           `yaml:"bins"`
	Batches         []BatchConfig `yaml:"batches"`
}

// BatchConfig is one batch of K<k>_<n>_<suffix> run folders.
type BatchConfig struct {
	Base             string   `yaml:"base"` // "" = results_dir
	Suffix           string   `yaml:"suffix"`
	Determinizations []int    `yaml:"determinizations"`
	Sims             []string `yaml:"sims"`
	Heuristic        string   `yaml:"heuristic"`        // "" = suffix
	SelectionPolicy  string   `yaml:"selection_policy"` // "" = top-level selection_policy
}

// loadAnalysisConfig parses an analysis YAML file with strict field checking,
// so a misspelled key is an error rather than a silently ignored setting.
func loadAnalysisConfig(path string) (AnalysisConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AnalysisConfig{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg AnalysisConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return AnalysisConfig{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	for i, b := range cfg.Batches {
		if b.Suffix == "" {
			return AnalysisConfig{}, fmt.Errorf("config %s: batch %d has no suffix", path, i)
		}
		if len(b.Determinizations) == 0 || len(b.Sims) == 0 {
			return AnalysisConfig{}, fmt.Errorf("config %s: batch %q needs determinizations and sims", path, b.Suffix)
		}
	}
	return cfg, nil
}

// Settings are the resolved defaults every subcommand falls back on.
type Settings struct {
	ResultsDir      string
	LogLevel        string
	SelectionPolicy string
	Bins            int
	Batches         []BatchConfig
}

// resolveSettings layers the config file over the environment. Zero values in
// the file leave the environment's value in place.
func resolveSettings(envCfg EnvConfig, fileCfg *AnalysisConfig) Settings {
	s := Settings{
		ResultsDir:      envCfg.ResultsDir,
		LogLevel:        envCfg.LogLevel,
		SelectionPolicy: envCfg.SelectionPolicy,
		Bins:            envCfg.HistBins,
	}
	if fileCfg != nil {
		if fileCfg.ResultsDir != "" {
			s.ResultsDir = fileCfg.ResultsDir
		}
		if fileCfg.SelectionPolicy != "" {
			s.SelectionPolicy = fileCfg.SelectionPolicy
		}
		if fileCfg.Bins > 0 {
			s.Bins = fileCfg.Bins
		}
		s.Batches = fileCfg.Batches
	}
	if s.SelectionPolicy == "" {
		s.SelectionPolicy = experiment.DefaultSelectionPolicy
	}
	if s.Bins <= 0 {
		s.Bins = figures.DefaultBins
	}
	return s
}

// Spec converts the configured batch into a loader spec, filling the base
// directory and selection policy from s.
func (b BatchConfig) Spec(s Settings) experiment.BatchSpec {
	base := b.Base
	if base == "" {
		base = s.ResultsDir
	}
	policy := b.SelectionPolicy
	if policy == "" {
		policy = s.SelectionPolicy
	}
	return experiment.BatchSpec{
		BaseDir:          base,
		Suffix:           b.Suffix,
		Determinizations: b.Determinizations,
		Sims:             b.Sims,
		Heuristic:        b.Heuristic,
		SelectionPolicy:  policy,
	}
}
