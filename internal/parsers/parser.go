package parsers

import (
	"errors"

	"github.com/ethanolivertroy/yarn-audit-check/internal/models"
)

var (
	// ErrNoTable is returned when legacy output has no box-drawn table
	ErrNoTable = errors.New("no audit table in output")

	// ErrMalformedJSON is returned when modern output is not valid JSON
	ErrMalformedJSON = errors.New("malformed audit JSON")
)

// Parser is the interface for audit output parsers
type Parser interface {
	// Parse converts raw command output into format-specific findings
	Parse(output []byte) ([]models.RawFinding, error)
}

// ForFormat returns the parser for the given audit output format
func ForFormat(format models.Format) Parser {
	switch format {
	case models.FormatAdvisory:
		return &AdvisoryParser{}
	default:
		return &TableParser{}
	}
}
