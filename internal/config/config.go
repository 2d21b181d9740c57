// Package config loads scanner settings from a repository config file
// and the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"sigs.k8s.io/yaml"

	"github.com/ethanolivertroy/yarn-audit-check/internal/models"
)

// FileNames are the config files looked up in the repository, in order
var FileNames = []string{".yarn-audit.toml", ".yarn-audit.yaml", ".yarn-audit.yml"}

// Environment variables that override file settings
const (
	EnvRegistryURL  = "YARN_AUDIT_REGISTRY_URL"
	EnvExceptionIDs = "YARN_AUDIT_EXCEPTION_IDS"
	EnvAutoFix      = "YARN_AUDIT_AUTO_FIX"
	EnvCacheTTL     = "YARN_AUDIT_CACHE_TTL"
)

// IDList accepts advisory IDs written either as strings or as integers
type IDList []string

// UnmarshalTOML implements toml.Unmarshaler
func (l *IDList) UnmarshalTOML(v any) error {
	items, ok := v.([]any)
	if !ok {
		return fmt.Errorf("exception_ids must be an array, got %T", v)
	}
	return l.set(items)
}

// UnmarshalJSON implements json.Unmarshaler; YAML is decoded through JSON
func (l *IDList) UnmarshalJSON(data []byte) error {
	var items []any
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("exception_ids must be an array: %w", err)
	}
	return l.set(items)
}

func (l *IDList) set(items []any) error {
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case int64:
			out = append(out, strconv.FormatInt(v, 10))
		case float64:
			out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
		default:
			return fmt.Errorf("exception id %v has unsupported type %T", item, item)
		}
	}
	*l = out
	return nil
}

// File is the on-disk configuration document
type File struct {
	ExcludeGroups []string `toml:"exclude_groups" json:"exclude_groups"`
	ScanDepth     []string `toml:"scan_depth" json:"scan_depth"`
	ExceptionIDs  IDList   `toml:"exception_ids" json:"exception_ids"`
	AutoFix       *bool    `toml:"auto_fix" json:"auto_fix"`
	RegistryURL   string   `toml:"registry_url" json:"registry_url"`
	CacheTTL      string   `toml:"cache_ttl" json:"cache_ttl"`
}

// Find returns the first config file present in dir, or "" if none is
func Find(dir string) string {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Load reads a config file on top of models.DefaultConfig. Unknown keys
// are reported as warnings rather than errors.
func Load(path string) (*models.Config, []string, error) {
	cfg := models.DefaultConfig()
	if path == "" {
		return cfg, nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var (
		file     File
		warnings []string
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if strictErr := yaml.UnmarshalStrict(data, &file); strictErr != nil {
			if err := yaml.Unmarshal(data, &file); err != nil {
				return nil, nil, fmt.Errorf("%w: %s: %v", models.ErrConfiguration, path, err)
			}
			warnings = append(warnings, fmt.Sprintf("%s: %v", path, strictErr))
		}
	default:
		md, err := toml.Decode(string(data), &file)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %v", models.ErrConfiguration, path, err)
		}
		for _, key := range md.Undecoded() {
			warnings = append(warnings, fmt.Sprintf("%s: unknown key %q", path, key.String()))
		}
	}

	if err := file.apply(cfg); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", models.ErrConfiguration, path, err)
	}
	return cfg, warnings, nil
}

func (f File) apply(cfg *models.Config) error {
	if f.ExcludeGroups != nil {
		cfg.ExcludeGroups = f.ExcludeGroups
	}
	if f.ScanDepth != nil {
		cfg.ScanDepth = f.ScanDepth
	}
	if f.ExceptionIDs != nil {
		cfg.ExceptionIDs = []string(f.ExceptionIDs)
	}
	if f.AutoFix != nil {
		cfg.AutoFix = *f.AutoFix
	}
	if f.RegistryURL != "" {
		cfg.RegistryURL = f.RegistryURL
	}
	if f.CacheTTL != "" {
		ttl, err := time.ParseDuration(f.CacheTTL)
		if err != nil {
			return fmt.Errorf("cache_ttl: %w", err)
		}
		cfg.CacheTTL = ttl
	}
	return nil
}

// Environment returns the process environment layered over the
// repository's .env file. Process variables win.
func Environment(dir string) (map[string]string, error) {
	env, err := godotenv.Read(filepath.Join(dir, ".env"))
	if errors.Is(err, fs.ErrNotExist) {
		env = make(map[string]string)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env, nil
}

// ApplyEnv overrides cfg with YARN_AUDIT_* variables from env
func ApplyEnv(cfg *models.Config, env map[string]string) error {
	if v := env[EnvRegistryURL]; v != "" {
		cfg.RegistryURL = v
	}
	if v := env[EnvExceptionIDs]; v != "" {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				cfg.ExceptionIDs = append(cfg.ExceptionIDs, id)
			}
		}
	}
	if v := env[EnvAutoFix]; v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", models.ErrConfiguration, EnvAutoFix, err)
		}
		cfg.AutoFix = b
	}
	if v := env[EnvCacheTTL]; v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", models.ErrConfiguration, EnvCacheTTL, err)
		}
		cfg.CacheTTL = ttl
	}
	return nil
}

// Validate checks values a file or flag may have set
func Validate(cfg *models.Config) error {
	for _, g := range cfg.ExcludeGroups {
		if !isGroup(g) {
			return fmt.Errorf("%w: unknown dependency group %q (want one of %s)",
				models.ErrConfiguration, g, strings.Join(models.DependencyGroups, ", "))
		}
	}
	for _, id := range cfg.ExceptionIDs {
		if _, err := strconv.Atoi(strings.TrimSpace(id)); err != nil {
			return fmt.Errorf("%w: exception id %q is not an integer", models.ErrConfiguration, id)
		}
	}
	switch cfg.OutputFormat {
	case "terminal", "json", "sarif":
	default:
		return fmt.Errorf("%w: unknown output format %q", models.ErrConfiguration, cfg.OutputFormat)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", models.ErrConfiguration)
	}
	return nil
}

func isGroup(name string) bool {
	for _, g := range models.DependencyGroups {
		if g == name {
			return true
		}
	}
	return false
}
