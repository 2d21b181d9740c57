package findings

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ethanolivertroy/yarn-audit-check/internal/models"
)

// ExceptionSet holds advisory IDs that must not fail a scan.
// IDs are always compared as integers.
type ExceptionSet struct {
	ids map[int]struct{}
}

// NewExceptionSet parses configured IDs. Non-numeric IDs are a configuration error.
func NewExceptionSet(ids []string) (ExceptionSet, error) {
	set := ExceptionSet{ids: make(map[int]struct{}, len(ids))}
	for _, raw := range ids {
		id, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return ExceptionSet{}, fmt.Errorf("%w: exception id %q is not an integer", models.ErrConfiguration, raw)
		}
		set.ids[id] = struct{}{}
	}
	return set, nil
}

// IsExcepted returns true if id is in the set
func (s ExceptionSet) IsExcepted(id int) bool {
	_, ok := s.ids[id]
	return ok
}

// IDs returns the configured IDs in ascending order
func (s ExceptionSet) IDs() []int {
	out := make([]int, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Len returns the number of configured IDs
func (s ExceptionSet) Len() int {
	return len(s.ids)
}

// Filter drops excepted vulnerabilities. ignored lists the distinct IDs that
// were dropped, ascending.
func (s ExceptionSet) Filter(vulns []models.Vulnerability) (kept []models.Vulnerability, ignored []int) {
	kept = make([]models.Vulnerability, 0, len(vulns))
	dropped := make(map[int]bool)

	for _, v := range vulns {
		if s.IsExcepted(v.ID) {
			if !dropped[v.ID] {
				dropped[v.ID] = true
				ignored = append(ignored, v.ID)
			}
			continue
		}
		kept = append(kept, v)
	}

	sort.Ints(ignored)
	return kept, ignored
}
