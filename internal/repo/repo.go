// Package repo gives read access to the well-known files of a source
// repository under scan.
package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	ignore "github.com/sabhiram/go-gitignore"
)

// Handle names a well-known repository file
type Handle string

const (
	Gemfile         Handle = "gemfile"
	GemfileLock     Handle = "gemfile_lock"
	RubyVersion     Handle = "ruby_version"
	PackageJSON     Handle = "package_json"
	PackageLockJSON Handle = "package_lock_json"
	YarnLock        Handle = "yarn_lock"
	Npmrc           Handle = "npmrc"
	DepLock         Handle = "dep_lock"
	GoMod           Handle = "go_mod"
	GoSum           Handle = "go_sum"
	RequirementsTxt Handle = "requirements_txt"
	SetupCfg        Handle = "setup_cfg"
	Cargo           Handle = "cargo"
	CargoLock       Handle = "cargo_lock"
	AndroidApp      Handle = "android_app"
	IOSApp          Handle = "ios_app"
	PomXML          Handle = "pom_xml"
	BuildGradle     Handle = "build_gradle"

	// YarnLockfiles matches every yarn.lock below the root, nested
	// workspaces and sub-projects included
	YarnLockfiles Handle = "yarn_lockfiles"
)

// File describes where a handle lives. Wildcard files match any file
// below the root named Name, or ending with Name when it is an extension
// such as ".apk".
type File struct {
	Name     string
	Wildcard bool
}

// Files is the static handle table
var Files = map[Handle]File{
	Gemfile:         {Name: "Gemfile"},
	GemfileLock:     {Name: "Gemfile.lock"},
	RubyVersion:     {Name: ".ruby-version"},
	PackageJSON:     {Name: "package.json"},
	PackageLockJSON: {Name: "package-lock.json"},
	YarnLock:        {Name: "yarn.lock"},
	Npmrc:           {Name: ".npmrc"},
	DepLock:         {Name: "Gopkg.lock"},
	GoMod:           {Name: "go.mod"},
	GoSum:           {Name: "go.sum"},
	RequirementsTxt: {Name: "requirements.txt"},
	SetupCfg:        {Name: "setup.cfg"},
	Cargo:           {Name: "Cargo.toml"},
	CargoLock:       {Name: "Cargo.lock"},
	AndroidApp:      {Name: ".apk", Wildcard: true},
	IOSApp:          {Name: ".ipa", Wildcard: true},
	PomXML:          {Name: "pom.xml"},
	BuildGradle:     {Name: "build.gradle"},
	YarnLockfiles:   {Name: "yarn.lock", Wildcard: true},
}

var (
	// ErrUnknownHandle is returned for a handle missing from Files
	ErrUnknownHandle = errors.New("unknown repository file handle")

	// ErrNotPresent is returned by Read when the file does not exist
	ErrNotPresent = errors.New("file not present in repository")
)

// directories never searched by Glob
var defaultIgnores = []string{
	"node_modules/",
	".git/",
	"vendor/",
}

// Repo is a source repository rooted at a directory. File contents are
// read at most once and cached.
type Repo struct {
	root string

	mu       sync.Mutex
	contents map[Handle]string
}

// New creates a Repo rooted at path
func New(path string) *Repo {
	return &Repo{root: path, contents: make(map[Handle]string)}
}

// Path returns the repository root
func (r *Repo) Path() string {
	return r.root
}

func (f File) matches(name string) bool {
	if strings.HasPrefix(f.Name, ".") {
		return strings.HasSuffix(name, f.Name)
	}
	return name == f.Name
}

func lookup(h Handle) (File, error) {
	f, ok := Files[h]
	if !ok {
		return File{}, fmt.Errorf("%w: %s", ErrUnknownHandle, h)
	}
	return f, nil
}

// Exists reports whether the file for h is present. For wildcard handles
// it reports whether Glob finds at least one match.
func (r *Repo) Exists(h Handle) bool {
	f, err := lookup(h)
	if err != nil {
		return false
	}
	if f.Wildcard {
		matches, err := r.Glob(h)
		return err == nil && len(matches) > 0
	}
	info, err := os.Stat(filepath.Join(r.root, f.Name))
	return err == nil && !info.IsDir()
}

// Read returns the contents of the file for h
func (r *Repo) Read(h Handle) (string, error) {
	f, err := lookup(h)
	if err != nil {
		return "", err
	}
	if f.Wildcard {
		return "", fmt.Errorf("cannot read wildcard handle %s", h)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if text, ok := r.contents[h]; ok {
		return text, nil
	}

	data, err := os.ReadFile(filepath.Join(r.root, f.Name))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotPresent, f.Name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", f.Name, err)
	}

	r.contents[h] = string(data)
	return r.contents[h], nil
}

// Glob returns the paths, relative to the root, of every file matching
// a wildcard handle. Paths excluded by the repository's .gitignore are
// skipped.
func (r *Repo) Glob(h Handle) ([]string, error) {
	f, err := lookup(h)
	if err != nil {
		return nil, err
	}
	if !f.Wildcard {
		if r.Exists(h) {
			return []string{f.Name}, nil
		}
		return nil, nil
	}

	patterns := defaultIgnores
	if data, err := os.ReadFile(filepath.Join(r.root, ".gitignore")); err == nil {
		patterns = append(append([]string{}, defaultIgnores...), strings.Split(string(data), "\n")...)
	}
	matcher := ignore.CompileIgnoreLines(patterns...)

	var matches []string
	err = filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(r.root, path)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if matcher.MatchesPath(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		if f.matches(d.Name()) && !matcher.MatchesPath(rel) {
			matches = append(matches, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", r.root, err)
	}

	sort.Strings(matches)
	return matches, nil
}
