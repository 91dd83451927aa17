package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/LLAYUAN/SimulateExe-SelfDebug/pkg/ast"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func paths(files []FileInfo) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func TestScanCollectsOnlyAnalyzableFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.py", "def f():\n    pass\n")
	writeFile(t, root, "app/Main.java", "class Main {}\n")
	writeFile(t, root, "README.md", "# readme\n")
	writeFile(t, root, "script.sh", "echo hi\n")

	files, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %v, want main.py and app/Main.java", paths(files))
	}
	for _, f := range files {
		switch f.Path {
		case "main.py":
			if f.Language != ast.LanguagePython {
				t.Errorf("main.py language = %s", f.Language)
			}
		case "app/Main.java":
			if f.Language != ast.LanguageJava {
				t.Errorf("Main.java language = %s", f.Language)
			}
		default:
			t.Errorf("unexpected file %q", f.Path)
		}
	}
}

func TestScanSkipsDefaultExcludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ok.py", "x = 1\n")
	writeFile(t, root, "__pycache__/ok.py", "x = 1\n")
	writeFile(t, root, "venv/lib/site.py", "x = 1\n")
	writeFile(t, root, ".hidden/secret.py", "x = 1\n")

	files, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(files) != 1 || files[0].Path != "ok.py" {
		t.Errorf("files = %v, want only ok.py", paths(files))
	}
}

func TestScanHonorsIgnoreFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".simexeignore", "generated/\n*_gen.py\n!keep_gen.py\n")
	writeFile(t, root, "main.py", "x = 1\n")
	writeFile(t, root, "util_gen.py", "x = 1\n")
	writeFile(t, root, "keep_gen.py", "x = 1\n")
	writeFile(t, root, "generated/out.py", "x = 1\n")

	files, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	got := map[string]bool{}
	for _, f := range files {
		got[f.Path] = true
	}
	if !got["main.py"] || !got["keep_gen.py"] {
		t.Errorf("missing expected files, got %v", paths(files))
	}
	if got["util_gen.py"] || got["generated/out.py"] {
		t.Errorf("ignored files leaked, got %v", paths(files))
	}
}

func TestScanMaxFileBytes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "small.py", "x = 1\n")
	writeFile(t, root, "big.py", string(make([]byte, 128)))

	opts := DefaultOptions()
	opts.MaxFileBytes = 64
	files, err := New(opts).Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(files) != 1 || files[0].Path != "small.py" {
		t.Errorf("files = %v, want only small.py", paths(files))
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		ext  string
		lang ast.Language
		ok   bool
	}{
		{".py", ast.LanguagePython, true},
		{".PY", ast.LanguagePython, true},
		{".java", ast.LanguageJava, true},
		{".go", "", false},
		{".md", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		lang, ok := DetectLanguage(tt.ext)
		if lang != tt.lang || ok != tt.ok {
			t.Errorf("DetectLanguage(%q) = %v, %v, want %v, %v", tt.ext, lang, ok, tt.lang, tt.ok)
		}
	}
}

func TestIgnorePatternMatch(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"*.py", "main.py", true},
		{"*.py", "src/main.py", true},
		{"/main.py", "main.py", true},
		{"/main.py", "src/main.py", false},
		{"build/", "build/out.py", true},
		{"build/", "src/build/out.py", true},
		{"src/**/gen.py", "src/a/b/gen.py", true},
		{"src/**/gen.py", "other/gen.py", false},
		{"test?.py", "test1.py", true},
		{"test?.py", "test10.py", false},
	}
	for _, tt := range tests {
		p := ParseIgnorePattern(tt.pattern)
		if got := p.Match(tt.path); got != tt.want {
			t.Errorf("pattern %q match %q = %v, want %v", tt.pattern, tt.path, got, tt.want)
		}
	}
}
