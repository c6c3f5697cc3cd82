package internal

import (
	"strings"
)

// Pattern - line predicate.
type Pattern interface {
	Match(string) bool
	Desc() string // for logs
}

// PlainPattern is a substring query. For insensitive patterns s is
// already lower-cased.
type PlainPattern struct {
	s           string
	insensitive bool
}

func NewPlainPattern(query string, caseSensitive bool) *PlainPattern {
	if caseSensitive {
		return &PlainPattern{s: query}
	}
	return &PlainPattern{s: strings.ToLower(query), insensitive: true}
}

func (p *PlainPattern) Match(s string) bool {
	if p.insensitive {
		return strings.Contains(strings.ToLower(s), p.s)
	}
	return strings.Contains(s, p.s)
}

func (p *PlainPattern) Desc() string {
	if p.insensitive {
		return "i:" + p.s
	}
	return p.s
}

// LineMatch is one matching line and its 0-based index.
type LineMatch struct {
	Line  string
	Index int
}

// FindMatches returns every line of contents containing query, in line
// order. An empty query matches every line.
func FindMatches(contents, query string, caseSensitive bool) []LineMatch {
	return matchLines(contents, NewPlainPattern(query, caseSensitive))
}

func matchLines(contents string, p Pattern) []LineMatch {
	var out []LineMatch
	i := 0
	forEachLine(contents, func(line string) {
		if p.Match(line) {
			out = append(out, LineMatch{Line: line, Index: i})
		}
		i++
	})
	return out
}

// forEachLine splits on '\n' and strips one trailing '\r'. A final line
// without terminator counts; a trailing newline does not add an empty line.
func forEachLine(s string, fn func(string)) {
	for len(s) > 0 {
		line, rest, found := strings.Cut(s, "\n")
		fn(strings.TrimSuffix(line, "\r"))
		if !found {
			return
		}
		s = rest
	}
}
