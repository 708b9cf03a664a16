package analysis

import "errors"

// Error kinds returned by every stage of the pipeline. Callers match them with
// errors.Is; the wrapping error names the offending path, column or folder.
var (
	// ErrNotFound reports a missing input file or experiment folder.
	ErrNotFound = errors.New("not found")
	// ErrParse reports malformed delimited content or a missing expected column.
	ErrParse = errors.New("parse error")
	// ErrStructure reports a batch folder that does not hold exactly one data
	// file and one header file, or whose data file name does not match.
	ErrStructure = errors.New("unexpected experiment folder structure")
)
