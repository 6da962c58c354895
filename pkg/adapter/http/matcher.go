package http

import (
	"path"
	"strings"
)

// matcher reports whether a request path is covered by any of a fixed set
// of patterns. A "*" segment matches one segment; a trailing "*" matches
// any remainder, including none.
type matcher struct {
	patterns [][]string
}

func newMatcher(patterns []string) *matcher {
	m := &matcher{patterns: make([][]string, 0, len(patterns))}
	for _, p := range patterns {
		m.patterns = append(m.patterns, segments(p))
	}
	return m
}

func segments(p string) []string {
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// Matches reports whether reqPath is covered.
func (m *matcher) Matches(reqPath string) bool {
	if m == nil || len(m.patterns) == 0 {
		return false
	}
	req := segments(reqPath)
	for _, p := range m.patterns {
		if matchSegments(req, p) {
			return true
		}
	}
	return false
}

func matchSegments(req, pattern []string) bool {
	if n := len(pattern); n > 0 && pattern[n-1] == "*" {
		pattern = pattern[:n-1]
		if len(req) < len(pattern) {
			return false
		}
		req = req[:len(pattern)]
	}
	if len(req) != len(pattern) {
		return false
	}
	for i := range pattern {
		if pattern[i] != "*" && pattern[i] != req[i] {
			return false
		}
	}
	return true
}
