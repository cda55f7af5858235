// Package ignore reads gitignore-style exclude files for directory uploads
// and directory sync.
package ignore

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DefaultFiles are the exclude files read from an upload root, in order.
var DefaultFiles = []string{".frameboxignore", ".gitignore"}

// Matcher decides whether a path below a root is excluded.
// A nil Matcher excludes nothing.
type Matcher struct {
	patterns []pattern
}

type pattern struct {
	glob     string
	anchored bool // matched against path prefixes from the root
	anyDepth bool // matched against path segments starting at any depth
	dirOnly  bool
}

// Load reads the exclude files in root. Missing files are skipped; no files
// at all yields an empty Matcher. With no names given, DefaultFiles are read.
func Load(root string, names ...string) (*Matcher, error) {
	if len(names) == 0 {
		names = DefaultFiles
	}

	var lines []string
	for _, name := range names {
		fileLines, err := readLines(filepath.Join(root, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		lines = append(lines, fileLines...)
	}
	return Parse(lines), nil
}

// Parse builds a Matcher from gitignore-style lines.
func Parse(lines []string) *Matcher {
	m := &Matcher{}
	seen := make(map[pattern]bool)
	for _, line := range lines {
		p, ok := parseLine(line)
		if !ok || seen[p] {
			continue
		}
		seen[p] = true
		m.patterns = append(m.patterns, p)
	}
	return m
}

// Len returns the number of patterns.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.patterns)
}

// Match reports whether rel, a slash-separated path relative to the root,
// is excluded. A path is also excluded when one of its parent directories is.
func (m *Matcher) Match(rel string, isDir bool) bool {
	if m == nil || rel == "" || rel == "." {
		return false
	}
	parts := strings.Split(strings.Trim(rel, "/"), "/")
	last := len(parts) - 1

	for _, p := range m.patterns {
		for i := range parts {
			// dirOnly patterns match the final element only when it is a directory.
			if p.dirOnly && i == last && !isDir {
				continue
			}
			if p.matches(parts, i) {
				return true
			}
		}
	}
	return false
}

// matches reports whether p matches a path ending at parts[i].
func (p pattern) matches(parts []string, i int) bool {
	switch {
	case p.anchored:
		return globMatch(p.glob, strings.Join(parts[:i+1], "/"))
	case p.anyDepth:
		for j := 0; j <= i; j++ {
			if globMatch(p.glob, strings.Join(parts[j:i+1], "/")) {
				return true
			}
		}
		return false
	default:
		return globMatch(p.glob, parts[i])
	}
}

func globMatch(glob, name string) bool {
	ok, _ := path.Match(glob, name)
	return ok
}

func readLines(name string) ([]string, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// parseLine parses a single line of an exclude file.
// Comments, blank lines and negations yield false.
func parseLine(line string) (pattern, bool) {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
		return pattern{}, false
	}

	var p pattern
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	if rest := strings.TrimPrefix(line, "**/"); rest != line {
		for strings.HasPrefix(rest, "**/") {
			rest = strings.TrimPrefix(rest, "**/")
		}
		line = rest
		p.anyDepth = true
	} else {
		// Any slash left after dropping a trailing one anchors to the root.
		p.anchored = strings.Contains(line, "/")
		line = strings.TrimLeft(line, "/")
	}
	// A trailing /** excludes everything inside, which parent matching covers.
	if trimmed := strings.TrimSuffix(line, "/**"); trimmed != line {
		p.dirOnly = true
		line = trimmed
	}
	// A single segment matches at any depth either way.
	if p.anyDepth && !strings.Contains(line, "/") {
		p.anyDepth = false
	}
	if line == "" {
		return pattern{}, false
	}
	if _, err := path.Match(line, ""); err != nil {
		return pattern{}, false
	}
	p.glob = line
	return p, true
}
