package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/ethanolivertroy/yarn-audit-check/internal/cache"
	"github.com/ethanolivertroy/yarn-audit-check/internal/models"
)

// DefaultRegistryURL is the registry yarn v1 resolves packages from
const DefaultRegistryURL = "https://registry.yarnpkg.com"

// RegistryClient handles requests to an npm-compatible package registry
type RegistryClient struct {
	httpClient *http.Client
	baseURL    string
	cache      *cache.Cache
}

// NewRegistryClient creates a registry client. An empty baseURL selects
// the public yarn registry; a nil cache disables caching.
func NewRegistryClient(baseURL string, c *cache.Cache) *RegistryClient {
	if baseURL == "" {
		baseURL = DefaultRegistryURL
	}
	return &RegistryClient{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		cache:      c,
	}
}

// packument is the package document served at /<name>
type packument struct {
	Name     string `json:"name"`
	Versions map[string]struct {
		Version string      `json:"version"`
		Dist    models.Dist `json:"dist"`
	} `json:"versions"`
}

// packageURL escapes scoped names: "@scope/pkg" becomes "@scope%2Fpkg"
func (c *RegistryClient) packageURL(name string) string {
	return c.baseURL + "/" + url.PathEscape(name)
}

func (c *RegistryClient) fetch(ctx context.Context, name string) (*packument, error) {
	u := c.packageURL(name)

	data, cached := c.cache.Get(u)
	if !cached {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", name, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("registry returned status %d for %s", resp.StatusCode, name)
		}

		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
	}

	var doc packument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse registry document for %s: %w", name, err)
	}

	if !cached {
		// Cache write failure is non-fatal
		_ = c.cache.Set(u, data)
	}

	return &doc, nil
}

// ListVersions returns every published version of name, lowest first
func (c *RegistryClient) ListVersions(ctx context.Context, name string) ([]string, error) {
	doc, err := c.fetch(ctx, name)
	if err != nil {
		return nil, err
	}

	versions := make([]string, 0, len(doc.Versions))
	for v := range doc.Versions {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool {
		return semver.Compare("v"+versions[i], "v"+versions[j]) < 0
	})
	return versions, nil
}

// Metadata returns the dist metadata of one published version
func (c *RegistryClient) Metadata(ctx context.Context, name, version string) (models.Dist, error) {
	doc, err := c.fetch(ctx, name)
	if err != nil {
		return models.Dist{}, err
	}

	v, ok := doc.Versions[version]
	if !ok {
		return models.Dist{}, fmt.Errorf("%s@%s is not published", name, version)
	}
	return v.Dist, nil
}
