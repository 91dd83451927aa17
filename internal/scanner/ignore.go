package scanner

import (
	"path"
	"strings"
)

// IgnorePattern is a single gitignore-style pattern from a .simexeignore file.
type IgnorePattern struct {
	pattern  string
	negation bool
	dirOnly  bool
	anchored bool
	segments []string
}

// ParseIgnorePattern parses one pattern line.
func ParseIgnorePattern(pattern string) IgnorePattern {
	p := IgnorePattern{pattern: pattern}

	if strings.HasPrefix(pattern, "!") {
		p.negation = true
		pattern = pattern[1:]
	}
	if strings.HasSuffix(pattern, "/") {
		p.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}
	if strings.HasPrefix(pattern, "/") {
		p.anchored = true
		pattern = pattern[1:]
	}
	p.segments = strings.Split(pattern, "/")
	return p
}

// IsNegation reports whether a match re-includes the path.
func (p IgnorePattern) IsNegation() bool {
	return p.negation
}

// Match reports whether the slash-separated relative path matches.
// Directory patterns match the directory and everything below it.
func (p IgnorePattern) Match(relPath string) bool {
	pathSegs := strings.Split(relPath, "/")

	if p.anchored {
		return p.matchAt(pathSegs)
	}
	for start := 0; start < len(pathSegs); start++ {
		if p.matchAt(pathSegs[start:]) {
			return true
		}
	}
	return false
}

func (p IgnorePattern) matchAt(pathSegs []string) bool {
	return matchSegments(p.segments, pathSegs, p.dirOnly)
}

// matchSegments matches pattern segments against path segments. A ** segment
// spans any number of directories. When prefix is true, a full pattern match
// against a leading portion of the path is enough.
func matchSegments(patternSegs, pathSegs []string, prefix bool) bool {
	if len(patternSegs) == 0 {
		return prefix || len(pathSegs) == 0
	}
	if patternSegs[0] == "**" {
		if len(patternSegs) == 1 {
			return true
		}
		for i := 0; i <= len(pathSegs); i++ {
			if matchSegments(patternSegs[1:], pathSegs[i:], prefix) {
				return true
			}
		}
		return false
	}
	if len(pathSegs) == 0 {
		return false
	}
	if ok, err := path.Match(patternSegs[0], pathSegs[0]); err != nil || !ok {
		return false
	}
	return matchSegments(patternSegs[1:], pathSegs[1:], prefix)
}
