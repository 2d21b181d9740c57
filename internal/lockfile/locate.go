package lockfile

import (
	"regexp"
	"strings"
)

// Block is a contiguous region of yarn.lock text, from a "name@..."
// declaration line up to (not including) the first blank line
type Block struct {
	Start int
	End   int
	Text  string
}

// Header returns the declaration line of the block
func (b Block) Header() string {
	header, _, _ := strings.Cut(b.Text, "\n")
	return header
}

// Line returns the 1-based line number of the block header within text
func (b Block) Line(text string) int {
	return strings.Count(text[:b.Start], "\n") + 1
}

// Field returns the value of a top-level field such as version or resolved,
// with surrounding quotes removed
func (b Block) Field(name string) (string, bool) {
	for _, line := range strings.Split(b.Text, "\n")[1:] {
		key, value, found := strings.Cut(strings.TrimSpace(line), " ")
		if found && key == name {
			return strings.Trim(value, `"`), true
		}
	}
	return "", false
}

// Entry is a dependency line inside a block, e.g. `semver-regex "^3.1.2"`
type Entry struct {
	Name  string
	Range string
	Line  string
}

// SplitPath splits "root>intermediate>affected" into the affected package
// and its direct parent. ok is false for a direct dependency.
func SplitPath(path string) (parent, affected string, ok bool) {
	parts := strings.Split(path, ">")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 2 {
		return "", strings.TrimSpace(path), false
	}
	return parts[len(parts)-2], parts[len(parts)-1], true
}

func blockPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?ms)^("?` + regexp.QuoteMeta(name) + `@.*?)(?:\n\n|\n?\z)`)
}

// FindBlocks returns every block declared for name, in file order
func FindBlocks(text, name string) []Block {
	matches := blockPattern(name).FindAllStringSubmatchIndex(text, -1)

	blocks := make([]Block, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, Block{Start: m[2], End: m[3], Text: text[m[2]:m[3]]})
	}
	return blocks
}

// FindBlock returns the first block declared for name
func FindBlock(text, name string) (Block, bool) {
	blocks := FindBlocks(text, name)
	if len(blocks) == 0 {
		return Block{}, false
	}
	return blocks[0], true
}

// FindEntry locates the dependency line for name inside a block
func FindEntry(b Block, name string) (Entry, bool) {
	lines := strings.Split(b.Text, "\n")
	for _, line := range lines[1:] {
		trimmed := strings.TrimSpace(line)
		key, rng, found := strings.Cut(trimmed, " ")
		if !found || strings.Trim(key, `"`) != name {
			continue
		}
		return Entry{Name: name, Range: strings.Trim(strings.TrimSpace(rng), `"`), Line: line}, true
	}
	return Entry{}, false
}

// FindDeclaration returns the block whose header declares name@rng
func FindDeclaration(text, name, rng string) (Block, bool) {
	want := name + "@" + rng
	for _, b := range FindBlocks(text, name) {
		header := strings.TrimSuffix(b.Header(), ":")
		for _, decl := range strings.Split(header, ",") {
			if strings.Trim(strings.TrimSpace(decl), `"`) == want {
				return b, true
			}
		}
	}
	return Block{}, false
}
