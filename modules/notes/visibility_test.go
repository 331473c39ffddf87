package notes

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	r := NewResolver()
	editPatterns := URLRules{URLs: "edit.php*"}

	tests := []struct {
		name     string
		cfg      *VisibilityConfig
		path     string
		expected bool
	}{
		{name: "no config", cfg: nil, path: "anything.php", expected: true},
		{name: "hide ignores matching patterns", cfg: &VisibilityConfig{IncludeExclude: HideEverywhere, URL: editPatterns}, path: "edit.php", expected: false},
		{name: "hide without patterns", cfg: &VisibilityConfig{IncludeExclude: HideEverywhere}, path: "/", expected: false},
		{name: "show ignores non-matching patterns", cfg: &VisibilityConfig{IncludeExclude: ShowEverywhere, URL: editPatterns}, path: "index.php", expected: true},
		{name: "selected match", cfg: &VisibilityConfig{IncludeExclude: ShowOnSelected, URL: editPatterns}, path: "edit.php?post=5", expected: true},
		{name: "selected miss", cfg: &VisibilityConfig{IncludeExclude: ShowOnSelected, URL: editPatterns}, path: "options-general.php", expected: false},
		{name: "notselected match", cfg: &VisibilityConfig{IncludeExclude: HideOnSelected, URL: editPatterns}, path: "edit.php?post=5", expected: false},
		{name: "notselected miss", cfg: &VisibilityConfig{IncludeExclude: HideOnSelected, URL: editPatterns}, path: "options-general.php", expected: true},
		{name: "selected without patterns", cfg: &VisibilityConfig{IncludeExclude: ShowOnSelected}, path: "edit.php", expected: false},
		{name: "notselected without patterns", cfg: &VisibilityConfig{IncludeExclude: HideOnSelected, URL: URLRules{URLs: " \n "}}, path: "edit.php", expected: true},
		{name: "unset mode with patterns", cfg: &VisibilityConfig{URL: editPatterns}, path: "options-general.php", expected: true},
		{name: "unknown mode", cfg: &VisibilityConfig{IncludeExclude: "sometimes", URL: editPatterns}, path: "options-general.php", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Resolving repeatedly must not change the outcome
			for i := 0; i < 3; i++ {
				assert.Equal(t, tt.expected, r.Resolve("text-1", tt.cfg, tt.path))
			}
		})
	}
}

func TestResolveForcedModesIgnorePaths(t *testing.T) {
	r := NewResolver()
	for _, path := range []string{"/", "edit.php", "edit.php?post=5", "options-general.php", ""} {
		for _, urls := range []string{"", "edit.php*", "*", "/"} {
			assert.False(t, r.Resolve("w", &VisibilityConfig{IncludeExclude: HideEverywhere, URL: URLRules{URLs: urls}}, path))
			assert.True(t, r.Resolve("w", &VisibilityConfig{IncludeExclude: ShowEverywhere, URL: URLRules{URLs: urls}}, path))
		}
	}
}

func TestResolveFilters(t *testing.T) {
	var seen []string
	r := NewResolver(
		func(visible bool, widgetID string, cfg VisibilityConfig) bool {
			seen = append(seen, widgetID)
			return !visible
		},
		func(visible bool, widgetID string, cfg VisibilityConfig) bool {
			if cfg.Style == "red" {
				return true
			}
			return visible
		},
	)

	cfg := &VisibilityConfig{IncludeExclude: ShowOnSelected, URL: URLRules{URLs: "edit.php"}}
	assert.False(t, r.Resolve("a", cfg, "edit.php"))
	assert.True(t, r.Resolve("b", cfg, "index.php"))

	cfg.Style = "red"
	assert.True(t, r.Resolve("c", cfg, "edit.php"))

	// Filters never see forced or unconfigured widgets
	assert.True(t, r.Resolve("d", nil, "edit.php"))
	assert.False(t, r.Resolve("e", &VisibilityConfig{IncludeExclude: HideEverywhere}, "edit.php"))
	assert.Equal(t, []string{"a", "b", "c"}, seen)
}

func TestVisibilityConfigJSON(t *testing.T) {
	var cfg VisibilityConfig
	err := json.Unmarshal([]byte(`{"style":"red","include-logo":"1","logo-url":"/x.png","incexc":"selected","url":{"urls":"edit.php*\nindex.php"}}`), &cfg)
	require.NoError(t, err)
	assert.Equal(t, Style("red"), cfg.Style)
	assert.True(t, bool(cfg.IncludeLogo))
	assert.Equal(t, "/x.png", cfg.LogoURL)
	assert.Equal(t, ShowOnSelected, cfg.IncludeExclude)
	assert.Equal(t, []string{"edit.php*", "index.php"}, cfg.Patterns())

	js, err := json.Marshal(&VisibilityConfig{IncludeExclude: HideOnSelected, URL: URLRules{URLs: "a"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"incexc":"notselected","url":{"urls":"a"}}`, string(js))
}

func TestCheckbox(t *testing.T) {
	for input, expected := range map[string]bool{
		`true`: true, `false`: false, `1`: true, `0`: false, `"1"`: true, `"on"`: true,
		`""`: false, `"0"`: false, `"false"`: false, `null`: false, `[]`: false,
	} {
		var c Checkbox
		require.NoError(t, json.Unmarshal([]byte(input), &c), input)
		assert.Equal(t, expected, bool(c), input)
	}
}

func TestStyleClass(t *testing.T) {
	var cfg *VisibilityConfig
	assert.Equal(t, "updated", cfg.StyleClass())
	assert.Equal(t, "updated", (&VisibilityConfig{}).StyleClass())
	assert.Equal(t, "blue", (&VisibilityConfig{Style: "blue"}).StyleClass())
}

func TestParseStyle(t *testing.T) {
	for input, expected := range map[string]Style{"": "", "red": "red", "blue": "blue"} {
		s, ok := ParseStyle(input)
		assert.True(t, ok, input)
		assert.Equal(t, expected, s)
	}
	for _, input := range []string{"purple", "updated", "Red", "red "} {
		_, ok := ParseStyle(input)
		assert.False(t, ok, input)
	}
}
