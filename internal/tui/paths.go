package tui

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// splitPaths splits pasted or typed text into paths. It understands the
// forms terminals produce when files are dragged in: quoted paths,
// backslash-escaped spaces and file:// URIs.
func splitPaths(text string) ([]string, error) {
	var (
		paths []string
		cur   strings.Builder
		quote rune
		have  bool
	)
	flush := func() {
		if have {
			paths = append(paths, cur.String())
		}
		cur.Reset()
		have = false
	}

	runes := []rune(strings.TrimSpace(text))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			have = true
		case r == '\\' && i+1 < len(runes) && runes[i+1] != '\\' && isEscapable(runes[i+1]):
			i++
			cur.WriteRune(runes[i])
			have = true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			cur.WriteRune(r)
			have = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in %q", text)
	}
	flush()

	for i, p := range paths {
		if strings.HasPrefix(p, "file://") {
			u, err := url.Parse(p)
			if err != nil {
				return nil, fmt.Errorf("invalid file URI %q: %w", p, err)
			}
			paths[i] = u.Path
		}
	}
	return paths, nil
}

func isEscapable(r rune) bool {
	return strings.ContainsRune(" \t'\"()[]&;$!#*?", r)
}

// expandPaths resolves ~ and glob patterns. A pattern matching nothing is an
// error.
func expandPaths(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		if p == "~" || strings.HasPrefix(p, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to resolve home directory: %w", err)
			}
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}

		if !strings.ContainsAny(p, "*?[") {
			out = append(out, p)
			continue
		}
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", p)
		}
		out = append(out, matches...)
	}
	return out, nil
}
