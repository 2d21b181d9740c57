package models

// Status is the outcome of a single scan
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusError   Status = "error"
)

// Result is the structured outcome handed to reporters
type Result struct {
	Status          Status          `json:"status"`
	Command         string          `json:"command,omitempty"`
	YarnVersion     string          `json:"yarn_version,omitempty"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`
	IgnoredIDs      []int           `json:"ignored_ids"`
	FoundIDs        []int           `json:"found_ids,omitempty"`
	Warnings        []string        `json:"warnings,omitempty"`
	Errors          []string        `json:"errors,omitempty"`
	Fixes           []FixOutcome    `json:"auto_fix,omitempty"`
	Failure         *Failure        `json:"failure,omitempty"`

	// LockfilePreview is the patched yarn.lock text produced by auto-fix.
	// It is never written back to the repository.
	LockfilePreview string `json:"-"`
}

// Failed returns true if vulnerabilities remain after filtering
func (r *Result) Failed() bool {
	return r.Status == StatusFailure
}

// Failure describes a fatal tool or parse error
type Failure struct {
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	Command    string `json:"command,omitempty"`
	Stderr     string `json:"stderr,omitempty"`
	ExitStatus int    `json:"exit_status"`
}

// FixOutcome records one auto-fix attempt for a dependency path
type FixOutcome struct {
	ID          int    `json:"id"`
	Package     string `json:"package"`
	Path        string `json:"path"`
	Applied     bool   `json:"applied"`
	FromVersion string `json:"from_version,omitempty"`
	ToVersion   string `json:"to_version,omitempty"`
	Reason      string `json:"reason,omitempty"`
}
