package notes

import (
	"regexp"
	"strings"
)

// Matcher tests normalized admin paths against a set of glob patterns.
// The zero value matches nothing.
type Matcher struct {
	re *regexp.Regexp
}

// SplitPatterns returns the non-empty patterns of a newline separated list.
// Patterns are trimmed, and trailing slashes are removed unless the pattern is a single character.
func SplitPatterns(text string) []string {
	var patterns []string
	for _, line := range strings.Split(text, "\n") {
		p := strings.TrimSpace(line)
		if len(p) != 1 {
			p = strings.TrimRight(p, `/\`)
		}
		if strings.TrimSpace(p) == "" {
			continue
		}
		patterns = append(patterns, p)
	}
	return patterns
}

// CompilePatterns builds a single anchored expression from newline separated glob patterns.
// Everything is matched literally except "*", which matches any run of characters.
// Spaces separate alternatives just like newlines do.
func CompilePatterns(text string) *Matcher {
	var alts []string
	for _, p := range SplitPatterns(text) {
		for _, part := range strings.Split(p, " ") {
			if part == "" {
				continue
			}
			alts = append(alts, strings.ReplaceAll(regexp.QuoteMeta(part), `\*`, ".*"))
		}
	}
	if len(alts) == 0 {
		return &Matcher{}
	}
	return &Matcher{re: regexp.MustCompile("^(" + strings.Join(alts, "|") + ")$")}
}

// Match reports whether the path exactly matches at least one pattern.
func (m *Matcher) Match(path string) bool {
	return m != nil && m.re != nil && m.re.MatchString(path)
}

// MatchPath is a one-shot CompilePatterns + Match.
func MatchPath(patterns, path string) bool {
	return CompilePatterns(patterns).Match(path)
}
