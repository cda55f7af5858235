package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   pattern
		wantOK bool
	}{
		{"empty line", "", pattern{}, false},
		{"whitespace only", "   ", pattern{}, false},
		{"comment", "# this is a comment", pattern{}, false},
		{"negation skipped", "!important.txt", pattern{}, false},
		{"bad glob skipped", "[z-a", pattern{}, false},
		{"simple file glob", "*.log", pattern{glob: "*.log"}, true},
		{"simple name", "node_modules", pattern{glob: "node_modules"}, true},
		{"directory with slash", "node_modules/", pattern{glob: "node_modules", dirOnly: true}, true},
		{"nested path", "vendor/cache", pattern{glob: "vendor/cache", anchored: true}, true},
		{"rooted path", "/dist", pattern{glob: "dist", anchored: true}, true},
		{"double star prefix", "**/build", pattern{glob: "build"}, true},
		{"double star suffix", "build/**", pattern{glob: "build", anchored: true, dirOnly: true}, true},
		{"double star prefix with nested path", "**/build/out", pattern{glob: "build/out", anyDepth: true}, true},
		{"repeated double star prefix", "**/**/cache/tmp/", pattern{glob: "cache/tmp", anyDepth: true, dirOnly: true}, true},
		{"rooted double star suffix", "/dist/**", pattern{glob: "dist", anchored: true, dirOnly: true}, true},
		{"trailing spaces", "*.pyc  ", pattern{glob: "*.pyc"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("parseLine(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("parseLine(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestMatcher_Match(t *testing.T) {
	m := Parse([]string{
		"*.map",
		"node_modules/",
		"/drafts",
		"assets/raw",
		"secret.txt",
	})

	tests := []struct {
		rel   string
		isDir bool
		want  bool
	}{
		{"index.html", false, false},
		{"app.js.map", false, true},
		{"js/app.js.map", false, true},
		{"node_modules", true, true},
		{"node_modules/lib/index.js", false, true},
		{"node_modules", false, false},
		{"drafts/post.html", false, true},
		{"blog/drafts/post.html", false, false},
		{"assets/raw/photo.png", false, true},
		{"public/assets/raw/photo.png", false, false},
		{"nested/secret.txt", false, true},
		{".", true, false},
	}
	for _, tt := range tests {
		if got := m.Match(tt.rel, tt.isDir); got != tt.want {
			t.Errorf("Match(%q, %v) = %v, want %v", tt.rel, tt.isDir, got, tt.want)
		}
	}
}

func TestMatcher_MatchDoubleStar(t *testing.T) {
	tests := []struct {
		pattern string
		rel     string
		isDir   bool
		want    bool
	}{
		{"**/build/out", "build/out", true, true},
		{"**/build/out", "a/build/out", true, true},
		{"**/build/out", "a/b/build/out/app.js", false, true},
		{"**/build/out", "a/build/other/out", true, false},
		{"build/**", "build/app.js", false, true},
		{"build/**", "build/js/app.js", false, true},
		{"build/**", "src/build/app.js", false, false},
		{"build/**", "build", false, false},
		{"**/logs", "deep/nested/logs", true, true},
	}
	for _, tt := range tests {
		m := Parse([]string{tt.pattern})
		if got := m.Match(tt.rel, tt.isDir); got != tt.want {
			t.Errorf("%q: Match(%q, %v) = %v, want %v", tt.pattern, tt.rel, tt.isDir, got, tt.want)
		}
	}
}

func TestMatcher_Nil(t *testing.T) {
	var m *Matcher
	if m.Match("anything", false) {
		t.Error("nil matcher excluded a path")
	}
	if m.Len() != 0 {
		t.Errorf("nil matcher Len() = %d, want 0", m.Len())
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	gitignore := `# Build outputs
dist/
build/

# Dependencies
node_modules/
*.pyc
`
	if err := os.WriteFile(filepath.Join(tmpDir, ".gitignore"), []byte(gitignore), 0644); err != nil {
		t.Fatal(err)
	}
	frameboxignore := "node_modules/\n*.psd\n"
	if err := os.WriteFile(filepath.Join(tmpDir, ".frameboxignore"), []byte(frameboxignore), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// node_modules/ appears in both files but is kept once.
	if m.Len() != 5 {
		t.Errorf("Len() = %d, want 5", m.Len())
	}
	for _, rel := range []string{"dist/app.js", "mockup.psd", "lib/x.pyc"} {
		if !m.Match(rel, false) {
			t.Errorf("Match(%q) = false, want true", rel)
		}
	}
}

func TestLoad_NoFiles(t *testing.T) {
	m, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}

func TestLoad_NamedFiles(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, ".customignore"), []byte("*.bak\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, ".gitignore"), []byte("*.log\n"), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(tmpDir, ".customignore")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !m.Match("old.bak", false) {
		t.Error("Match(old.bak) = false, want true")
	}
	if m.Match("server.log", false) {
		t.Error("Match(server.log) = true, want false")
	}
}
