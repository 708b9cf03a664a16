package experiment

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/pandemic-sim/pandemic-analysis/analysis"
)

// Header is the content of the .header file the runner writes next to each
// experiment CSV.
type Header struct {
	ExperimentName        string
	ExperimentDescription string
	ScenarioName          string
	ScenarioDescription   string
	AgentName             string
	StartTime             string // "%d-%m-%Y %H:%M:%S" as written by the runner
	EndTime               string // empty if the run did not finish
	Measurements          []Measurement
}

// Measurement names one measurement the runner recorded.
type Measurement struct {
	Name        string
	Description string
}

// HeaderPath maps an experiment data path (with or without .csv) to its header.
func HeaderPath(path string) string {
	return strings.TrimSuffix(path, ".csv") + ".header"
}

// ReadHeader parses the header file at path.
func ReadHeader(path string) (*Header, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: header %s", analysis.ErrNotFound, path)
		}
		return nil, fmt.Errorf("opening header %s: %w", path, err)
	}
	defer file.Close() //nolint:errcheck // read-only file

	h, err := ParseHeader(file)
	if err != nil {
		return nil, fmt.Errorf("header %s: %w", path, err)
	}
	return h, nil
}

// ParseHeader reads "Key: value" lines. Unknown keys and separator lines are
// ignored; a missing "Agent Name" is an analysis.ErrParse, and when it repeats
// the first one wins.
func ParseHeader(r io.Reader) (*Header, error) {
	h := &Header{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "Experiment Name":
			h.ExperimentName = value
		case "Experiment Description":
			h.ExperimentDescription = value
		case "Scenario Name":
			h.ScenarioName = value
		case "Scenario Description":
			h.ScenarioDescription = value
		case "Agent Name":
			if h.AgentName == "" {
				h.AgentName = value
			}
		case "Start Time":
			h.StartTime = value
		case "End Time":
			h.EndTime = value
		case "Measurement Name":
			h.Measurements = append(h.Measurements, Measurement{Name: value})
		case "Measurement Description":
			if n := len(h.Measurements); n > 0 {
				h.Measurements[n-1].Description = value
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading header: %w", analysis.ErrParse, err)
	}
	if h.AgentName == "" {
		return nil, fmt.Errorf("%w: no \"Agent Name:\" line", analysis.ErrParse)
	}
	return h, nil
}

// AgentName returns the agent display name recorded for the experiment at
// path (with or without .csv).
func AgentName(path string) (string, error) {
	h, err := ReadHeader(HeaderPath(path))
	if err != nil {
		return "", err
	}
	return h.AgentName, nil
}
