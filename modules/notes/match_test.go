package notes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchPath(t *testing.T) {
	tests := []struct {
		name     string
		patterns string
		path     string
		expected bool
	}{
		{name: "exact", patterns: "post-new.php?post_type=page", path: "post-new.php?post_type=page", expected: true},
		{name: "exact mismatch", patterns: "post-new.php?post_type=page", path: "post-new.php?post_type=post", expected: false},
		{name: "wildcard with query", patterns: "edit.php*", path: "edit.php?post=5", expected: true},
		{name: "wildcard empty suffix", patterns: "edit.php*", path: "edit.php", expected: true},
		{name: "wildcard anchored", patterns: "edit.php*", path: "post.php?edit.php", expected: false},
		{name: "leading wildcard", patterns: "*post_type=page", path: "edit.php?post_type=page", expected: true},
		{name: "anchored at start", patterns: "edit.php", path: "xedit.php", expected: false},
		{name: "anchored at end", patterns: "edit.php", path: "edit.php?post=1", expected: false},
		{name: "second line", patterns: "index.php\nedit.php*", path: "edit.php?post=5", expected: true},
		{name: "crlf lines", patterns: "index.php\r\nedit.php\r\n", path: "edit.php", expected: true},
		{name: "space separates alternatives", patterns: "index.php edit.php", path: "edit.php", expected: true},
		{name: "trailing slash stripped", patterns: "options-general.php/", path: "options-general.php", expected: true},
		{name: "single slash kept", patterns: "/", path: "/", expected: true},
		{name: "regex chars are literal", patterns: "a.c", path: "abc", expected: false},
		{name: "regex chars match themselves", patterns: "a.c(1)+[x]", path: "a.c(1)+[x]", expected: true},
		{name: "case sensitive", patterns: "Edit.php", path: "edit.php", expected: false},
		{name: "empty patterns", patterns: "", path: "/", expected: false},
		{name: "whitespace only", patterns: "  \n\t\n", path: "", expected: false},
		{name: "only slashes", patterns: "//", path: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MatchPath(tt.patterns, tt.path))
		})
	}
}

func TestSplitPatterns(t *testing.T) {
	assert.Equal(t, []string{"index.php", "edit.php*", "/"}, SplitPatterns(" index.php \n\n  edit.php*/\r\n/\n   "))
	assert.Nil(t, SplitPatterns(""))
}

func TestMatcherZeroValue(t *testing.T) {
	var m *Matcher
	assert.False(t, m.Match("/"))
	assert.False(t, (&Matcher{}).Match(""))
}
