package findings

import (
	"sort"
	"strings"

	"github.com/ethanolivertroy/yarn-audit-check/internal/models"
)

// PathSeparator joins reconciled dependency paths
const PathSeparator = ", "

// Reconcile merges records sharing an ID into one record per advisory.
// Scalar fields come from the first record seen; dependency paths are
// unioned, sorted and joined into DependencyOf. Output is sorted by ID.
func Reconcile(vulns []models.Vulnerability) []models.Vulnerability {
	unique := make(map[int]*models.Vulnerability, len(vulns))
	var order []int

	for _, v := range vulns {
		existing, ok := unique[v.ID]
		if !ok {
			merged := v
			merged.DependencyPaths = append([]string(nil), v.DependencyPaths...)
			unique[v.ID] = &merged
			order = append(order, v.ID)
			continue
		}
		existing.DependencyPaths = append(existing.DependencyPaths, v.DependencyPaths...)
	}

	sort.Ints(order)

	result := make([]models.Vulnerability, 0, len(order))
	for _, id := range order {
		v := unique[id]
		v.DependencyPaths = sortedUnique(v.DependencyPaths)
		if len(v.DependencyPaths) == 0 {
			v.DependencyPaths = []string{v.Package}
		}
		v.DependencyOf = strings.Join(v.DependencyPaths, PathSeparator)
		result = append(result, *v)
	}

	return result
}

func sortedUnique(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
