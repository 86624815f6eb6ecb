// Package reply extracts newly written content from a plain-text email body
// by cutting it at the first line that starts quoted history or trailing
// boilerplate.
//
// Markers are an ordered table of independent rules evaluated line by line.
// The earliest line matching any rule wins; nothing after it is considered.
package reply

import (
	"strings"
	"unicode"
)

// Boundary is the position where quoted content starts.
type Boundary struct {
	// Line is the index of the first discarded line.
	Line int
	// Offset is the byte offset in the body where discarded content starts.
	Offset int
	// Rule names the marker that matched.
	Rule string
}

// Extractor cuts reply bodies. It holds no mutable state and is safe for
// concurrent use.
type Extractor struct {
	rules []rule
}

// New compiles cfg into an Extractor.
func New(cfg Config) *Extractor {
	return &Extractor{rules: buildRules(cfg)}
}

// Extract returns the part of body written by the sender. Without a marker
// the body is returned unchanged.
func (e *Extractor) Extract(body string) string {
	b, ok := e.Match(body)
	if !ok {
		return body
	}
	return strings.TrimRightFunc(body[:b.Offset], unicode.IsSpace)
}

// Match finds the earliest marker in body.
func (e *Extractor) Match(body string) (Boundary, bool) {
	if body == "" {
		return Boundary{}, false
	}

	s := newScan(body, e.rules)
	for i := range s.lines {
		if col, name, ok := s.match(i); ok {
			return Boundary{Line: i, Offset: s.starts[i] + col, Rule: name}, true
		}
	}
	return Boundary{}, false
}

type markState uint8

const (
	markUnknown markState = iota
	markYes
	markNo
)

// scan is the per-call view of a body. Rules that look ahead ask isMarker
// about later lines; answers are memoized.
type scan struct {
	lines  []string
	starts []int
	rules  []rule
	marks  []markState
}

func newScan(body string, rules []rule) *scan {
	lines := strings.Split(body, "\n")
	starts := make([]int, len(lines))
	offset := 0
	for i, l := range lines {
		starts[i] = offset
		offset += len(l) + 1
	}
	return &scan{
		lines:  lines,
		starts: starts,
		rules:  rules,
		marks:  make([]markState, len(lines)),
	}
}

// match evaluates every rule on line i and keeps the one cutting earliest
// in the line. Ties go to the rule listed first.
func (s *scan) match(i int) (int, string, bool) {
	best, name, found := 0, "", false
	for _, r := range s.rules {
		col, ok := r.match(s, i)
		if !ok {
			continue
		}
		if !found || col < best {
			best, name, found = col, r.name, true
		}
	}
	return best, name, found
}

func (s *scan) isMarker(i int) bool {
	if i >= len(s.lines) {
		return false
	}
	if s.marks[i] == markUnknown {
		s.marks[i] = markNo
		if _, _, ok := s.match(i); ok {
			s.marks[i] = markYes
		}
	}
	return s.marks[i] == markYes
}

func (s *scan) blank(i int) bool {
	return strings.TrimSpace(s.lines[i]) == ""
}

func (s *scan) skipBlank(i int) int {
	for i < len(s.lines) && s.blank(i) {
		i++
	}
	return i
}
