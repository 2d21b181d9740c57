package parsers

import (
	"encoding/json"
	"fmt"

	"github.com/ethanolivertroy/yarn-audit-check/internal/models"
)

// Manifest holds the dependency groups declared in package.json
type Manifest struct {
	Name                 string            `json:"name"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
}

// ParseManifest extracts dependency groups from package.json content
func ParseManifest(content []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(content, &m); err != nil {
		return nil, fmt.Errorf("failed to parse package.json: %w", err)
	}
	return &m, nil
}

// Group returns the dependency group that declares name and its version range
func (m *Manifest) Group(name string) (group, versionRange string, ok bool) {
	if m == nil {
		return "", "", false
	}

	groups := map[string]map[string]string{
		models.GroupDependencies:         m.Dependencies,
		models.GroupDevDependencies:      m.DevDependencies,
		models.GroupOptionalDependencies: m.OptionalDependencies,
	}
	for _, g := range models.DependencyGroups {
		if rng, found := groups[g][name]; found {
			return g, rng, true
		}
	}
	return "", "", false
}
