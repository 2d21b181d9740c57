package parsers

import (
	"strings"

	"github.com/ethanolivertroy/yarn-audit-check/internal/models"
)

// pathKey is the table column that is tracked but never stored
const pathKey = "Path"

// TableParser parses the box-drawn table printed by `yarn audit` (yarn v1)
type TableParser struct{}

// Parse extracts one RawFinding per table block
func (p *TableParser) Parse(output []byte) ([]models.RawFinding, error) {
	return ParseTable(string(output))
}

func isTableStart(line string) bool {
	return strings.HasPrefix(line, "┌─") && strings.HasSuffix(line, "─┐")
}

func isTableEnd(line string) bool {
	return strings.HasPrefix(line, "└─") && strings.HasSuffix(line, "─┘")
}

// TableLines returns the lines between the first table start and the last
// table end, inclusive. ok is false if either delimiter is missing.
func TableLines(output string) (lines []string, ok bool) {
	all := strings.Split(strings.ReplaceAll(output, "\r\n", "\n"), "\n")

	start, end := -1, -1
	for i, line := range all {
		if isTableStart(line) {
			start = i
			break
		}
	}
	for i := len(all) - 1; i >= 0; i-- {
		if isTableEnd(all[i]) {
			end = i
			break
		}
	}

	if start < 0 || end < start {
		return nil, false
	}
	return all[start : end+1], true
}

// tableState is the cursor threaded through the line scan
type tableState struct {
	current map[string]string
	key     string
	seen    map[string]bool
	found   []models.RawFinding
}

// ParseTable parses yarn v1 audit output. Duplicate blocks are dropped.
func ParseTable(output string) ([]models.RawFinding, error) {
	lines, ok := TableLines(output)
	if !ok {
		return nil, ErrNoTable
	}

	st := tableState{seen: make(map[string]bool)}
	for _, line := range lines {
		st = st.step(line)
	}
	return st.found, nil
}

func (st tableState) step(line string) tableState {
	switch {
	case isTableStart(line):
		st.current = make(map[string]string)
		st.key = ""

	case isTableEnd(line):
		if st.current == nil {
			return st
		}
		raw := models.RawFinding{Format: models.FormatTable, Fields: st.current}
		if key := raw.Key(); !st.seen[key] {
			st.seen[key] = true
			st.found = append(st.found, raw)
		}
		st.current = nil
		st.key = ""

	case strings.HasPrefix(line, "│ "):
		if st.current == nil {
			return st
		}
		cols := strings.Split(line, "│")
		if len(cols) < 3 {
			return st
		}
		key := strings.TrimSpace(cols[1])
		val := strings.TrimSpace(cols[2])

		switch {
		case key == pathKey:
			st.key = key
		case key != "":
			st.current[key] = val
			st.key = key
		case st.key != "" && st.key != pathKey:
			// continuation of a wrapped value
			st.current[st.key] += " " + val
		}
	}
	return st
}
