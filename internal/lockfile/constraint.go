package lockfile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

var (
	// ErrUnsupportedConstraint is returned for any operator other than >=
	ErrUnsupportedConstraint = errors.New("unsupported version constraint")

	// ErrNoSatisfyingVersion is returned when no published version matches
	ErrNoSatisfyingVersion = errors.New("no version satisfies constraint")
)

// Operator is a version range operator as written in "Patched in" values
type Operator int

const (
	OpGTE Operator = iota
	OpGT
	OpLTE
	OpLT
	OpEQ
	OpCaret
	OpTilde
)

var operatorTokens = []struct {
	token string
	op    Operator
}{
	// longest tokens first
	{">=", OpGTE},
	{"<=", OpLTE},
	{">", OpGT},
	{"<", OpLT},
	{"^", OpCaret},
	{"~", OpTilde},
	{"=", OpEQ},
}

func (o Operator) String() string {
	for _, t := range operatorTokens {
		if t.op == o {
			return t.token
		}
	}
	return "?"
}

// Constraint is a single-operator version range such as ">=3.1.4"
type Constraint struct {
	Op      Operator
	Version string
}

func (c Constraint) String() string {
	return c.Op.String() + c.Version
}

// ParseConstraint parses a single-operator range. Compound ranges
// (">=1.0.0 <2.0.0", "<1 || >=2") are rejected.
func ParseConstraint(expr string) (Constraint, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Constraint{}, fmt.Errorf("%w: empty range", ErrUnsupportedConstraint)
	}
	if strings.Contains(expr, "||") || strings.ContainsAny(expr, " \t") {
		return Constraint{}, fmt.Errorf("%w: compound range %q", ErrUnsupportedConstraint, expr)
	}

	c := Constraint{Op: OpEQ, Version: expr}
	for _, t := range operatorTokens {
		if strings.HasPrefix(expr, t.token) {
			c = Constraint{Op: t.op, Version: strings.TrimPrefix(expr, t.token)}
			break
		}
	}

	if !semver.IsValid(toSemver(c.Version)) {
		return Constraint{}, fmt.Errorf("invalid version %q in range %q", c.Version, expr)
	}
	return c, nil
}

// Satisfies reports whether version is inside the range. Only >= is
// implemented; every other operator returns ErrUnsupportedConstraint.
func (c Constraint) Satisfies(version string) (bool, error) {
	switch c.Op {
	case OpGTE:
		v := toSemver(version)
		if !semver.IsValid(v) {
			return false, nil
		}
		return semver.Compare(v, toSemver(c.Version)) >= 0, nil
	default:
		return false, fmt.Errorf("%w: operator %s in %q", ErrUnsupportedConstraint, c.Op, c.String())
	}
}

// SelectVersion returns the lowest stable version satisfying c
func SelectVersion(c Constraint, versions []string) (string, error) {
	best := ""
	for _, v := range versions {
		if semver.Prerelease(toSemver(v)) != "" {
			continue
		}
		ok, err := c.Satisfies(v)
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		if best == "" || semver.Compare(toSemver(v), toSemver(best)) < 0 {
			best = v
		}
	}

	if best == "" {
		return "", fmt.Errorf("%w %s", ErrNoSatisfyingVersion, c)
	}
	return best, nil
}

// RangeAllows reports whether version lies inside a lockfile dependency
// range such as "^3.1.2". Exact, >=, caret and tilde ranges are
// understood; anything else returns ErrUnsupportedConstraint.
func RangeAllows(rng, version string) (bool, error) {
	c, err := ParseConstraint(rng)
	if err != nil {
		return false, err
	}

	v := toSemver(version)
	if !semver.IsValid(v) {
		return false, nil
	}
	cmp := semver.Compare(v, toSemver(c.Version))

	switch c.Op {
	case OpEQ:
		return cmp == 0, nil
	case OpGTE:
		return cmp >= 0, nil
	case OpCaret, OpTilde:
		return cmp >= 0 && semver.Compare(v, upperBound(c)) < 0, nil
	default:
		return false, fmt.Errorf("%w: operator %s in %q", ErrUnsupportedConstraint, c.Op, c.String())
	}
}

// upperBound returns the exclusive upper bound of a caret or tilde range
func upperBound(c Constraint) string {
	given := strings.Count(strings.TrimPrefix(c.Version, "v"), ".") + 1

	core, _, _ := strings.Cut(strings.TrimPrefix(semver.Canonical(toSemver(c.Version)), "v"), "-")
	parts := strings.Split(core, ".")
	major, _ := strconv.Atoi(parts[0])
	minor, _ := strconv.Atoi(parts[1])
	patch, _ := strconv.Atoi(parts[2])

	switch {
	case c.Op == OpTilde && given == 1:
		return fmt.Sprintf("v%d.0.0", major+1)
	case c.Op == OpTilde:
		return fmt.Sprintf("v%d.%d.0", major, minor+1)
	case major > 0 || given == 1:
		return fmt.Sprintf("v%d.0.0", major+1)
	case minor > 0 || given == 2:
		return fmt.Sprintf("v0.%d.0", minor+1)
	default:
		return fmt.Sprintf("v0.0.%d", patch+1)
	}
}

// toSemver adds the "v" prefix golang.org/x/mod/semver expects
func toSemver(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
