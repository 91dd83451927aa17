// Package scanner walks a directory tree and collects the source files the
// analysis pipeline can parse. It honors .simexeignore files with
// gitignore-style patterns and skips the usual build and VCS directories.
package scanner

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/LLAYUAN/SimulateExe-SelfDebug/pkg/ast"
)

// FileInfo is one discovered source file.
type FileInfo struct {
	Path     string // relative to the scan root, slash-separated
	FullPath string
	Language ast.Language
	Size     int64
}

// Options configures the scan.
type Options struct {
	SkipHidden      bool
	MaxFileBytes    int64 // files larger than this are skipped; 0 means no limit
	DefaultExcludes []string
	IgnoreFileName  string
}

// DefaultOptions returns scanner options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		SkipHidden:     true,
		IgnoreFileName: ".simexeignore",
		DefaultExcludes: []string{
			".git",
			"__pycache__",
			".venv",
			"venv",
			"dist",
			"build",
			".idea",
			".vscode",
			".tox",
			"target",
			"node_modules",
		},
	}
}

// Scanner walks a tree and returns the analyzable files in it.
type Scanner struct {
	opts Options
}

// New creates a Scanner with the given options.
func New(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// Scan walks root and returns every Python and Java source file that is not
// excluded. Results come back in walk order, which is deterministic.
func (s *Scanner) Scan(root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}

	patterns, err := s.loadIgnorePatterns(absRoot)
	if err != nil {
		return nil, fmt.Errorf("loading ignore patterns: %w", err)
	}

	var files []FileInfo
	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		relPath, err := filepath.Rel(absRoot, path)
		if err != nil || relPath == "." {
			return nil
		}
		relPathSlash := filepath.ToSlash(relPath)

		if s.opts.SkipHidden && strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			if s.isDefaultExcluded(info.Name()) {
				return filepath.SkipDir
			}
			nested, err := s.loadIgnorePatterns(path)
			if err == nil && len(nested) > 0 {
				patterns = append(patterns, nested...)
			}
			return nil
		}

		if s.matchesIgnorePatterns(relPathSlash, patterns) {
			return nil
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return nil
		}

		lang, ok := DetectLanguage(filepath.Ext(path))
		if !ok {
			return nil
		}
		if s.opts.MaxFileBytes > 0 && info.Size() > s.opts.MaxFileBytes {
			return nil
		}

		files = append(files, FileInfo{
			Path:     relPathSlash,
			FullPath: path,
			Language: lang,
			Size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}
	return files, nil
}

func (s *Scanner) isDefaultExcluded(name string) bool {
	for _, exclude := range s.opts.DefaultExcludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	return false
}

func (s *Scanner) loadIgnorePatterns(dir string) ([]IgnorePattern, error) {
	file, err := os.Open(filepath.Join(dir, s.opts.IgnoreFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var patterns []IgnorePattern
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, ParseIgnorePattern(line))
	}
	return patterns, sc.Err()
}

// matchesIgnorePatterns applies patterns in order; a later negation pattern
// can re-include a path an earlier pattern excluded.
func (s *Scanner) matchesIgnorePatterns(relPath string, patterns []IgnorePattern) bool {
	ignored := false
	for _, p := range patterns {
		if p.Match(relPath) {
			ignored = !p.IsNegation()
		}
	}
	return ignored
}

// Scan walks root with default options.
func Scan(root string) ([]FileInfo, error) {
	return New(DefaultOptions()).Scan(root)
}
