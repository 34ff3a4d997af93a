package scan

import (
	"bytes"
	"regexp"
	"sort"
)

// Pattern is one named regular expression of a scan catalogue.
type Pattern struct {
	ID     string
	Regexp *regexp.Regexp
}

// MustPattern compiles expr into a Pattern.
func MustPattern(id, expr string) Pattern {
	return Pattern{ID: id, Regexp: regexp.MustCompile(expr)}
}

// Match is a single located occurrence of a pattern.
type Match struct {
	RuleID string
	// Line is 1-based.
	Line int
	// Offset is the byte offset of the match start.
	Offset int
	Text   string
}

// Find returns every occurrence of every pattern in content, ordered by
// offset and then by catalogue order.
func Find(content []byte, patterns []Pattern) []Match {
	var idx *lineIndex
	var out []Match
	for _, p := range patterns {
		locs := p.Regexp.FindAllIndex(content, -1)
		if len(locs) == 0 {
			continue
		}
		if idx == nil {
			idx = newLineIndex(content)
		}
		for _, loc := range locs {
			out = append(out, Match{
				RuleID: p.ID,
				Line:   idx.line(loc[0]),
				Offset: loc[0],
				Text:   string(content[loc[0]:loc[1]]),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Offset < out[j].Offset
	})
	return out
}

// Count returns the number of non-overlapping matches of re in content.
func Count(content []byte, re *regexp.Regexp) int {
	return len(re.FindAllIndex(content, -1))
}

// CountLines counts newline-terminated lines plus a trailing unterminated
// line. An empty file has zero lines.
func CountLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := bytes.Count(content, []byte{'\n'})
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}

// IsBinary reports whether content contains a NUL byte.
func IsBinary(content []byte) bool {
	return bytes.IndexByte(content, 0) != -1
}

type lineIndex struct {
	starts []int
}

func newLineIndex(content []byte) *lineIndex {
	starts := []int{0}
	for i, b := range content {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{starts: starts}
}

func (l *lineIndex) line(offset int) int {
	return sort.Search(len(l.starts), func(i int) bool { return l.starts[i] > offset })
}
