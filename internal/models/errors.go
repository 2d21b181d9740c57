package models

import (
	"errors"
	"strings"
)

var (
	// ErrToolInvocation means yarn failed to run or produced unparseable output
	ErrToolInvocation = errors.New("tool invocation error")

	// ErrParseStructure means expected delimiters or advisory IDs were missing
	ErrParseStructure = errors.New("parse structure error")

	// ErrConfiguration means the requested scan scope is invalid
	ErrConfiguration = errors.New("configuration error")

	// ErrAutoFixSkipped means a lockfile patch attempt was abandoned
	ErrAutoFixSkipped = errors.New("auto-fix skipped")
)

// ScanError is a fatal error for one scan, carrying the captured process output
type ScanError struct {
	Kind       error
	Command    string
	Stderr     string
	ExitStatus int
	Err        error
}

func (e *ScanError) Error() string {
	var parts []string
	if e.Err == nil || !errors.Is(e.Err, e.Kind) {
		parts = append(parts, e.Kind.Error())
	}
	if e.Command != "" {
		parts = append(parts, e.Command)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap exposes both the kind and the underlying cause to errors.Is
func (e *ScanError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Failure converts the error into the reporter payload
func (e *ScanError) Failure() *Failure {
	kind := "tool_invocation"
	if errors.Is(e.Kind, ErrParseStructure) {
		kind = "parse_structure"
	} else if errors.Is(e.Kind, ErrConfiguration) {
		kind = "configuration"
	}
	return &Failure{
		Kind:       kind,
		Message:    e.Error(),
		Command:    e.Command,
		Stderr:     e.Stderr,
		ExitStatus: e.ExitStatus,
	}
}
