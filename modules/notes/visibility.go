package notes

import (
	"encoding/json"
	"strings"
)

// IncludeExclude selects where a notice is shown.
type IncludeExclude string

const (
	ShowEverywhere      IncludeExclude = "show"
	HideEverywhere      IncludeExclude = "hide"
	ShowOnSelected      IncludeExclude = "selected"
	HideOnSelected      IncludeExclude = "notselected"
	IncludeExcludeUnset IncludeExclude = ""
)

// IncludeExcludeModes lists the modes offered by the settings form, in display order.
var IncludeExcludeModes = []struct {
	Mode  IncludeExclude
	Label string
}{
	{ShowEverywhere, "Show everywhere"},
	{HideEverywhere, "Hide everywhere"},
	{ShowOnSelected, "Show on selected URLs"},
	{HideOnSelected, "Hide on selected URLs"},
}

// Style is the color scheme of a rendered notice.
type Style string

// DefaultStyle is used when a notice has no style configured.
const DefaultStyle Style = "updated"

var Styles = []struct {
	Style Style
	Label string
}{
	{"green", "Green"},
	{"red", "Red"},
	{"orange", "Orange"},
	{"yellow", "Yellow"},
	{"blue", "Blue"},
}

// ParseStyle returns the named notice style. The empty string is the default style.
func ParseStyle(s string) (Style, bool) {
	if s == "" {
		return "", true
	}
	for _, st := range Styles {
		if string(st.Style) == s {
			return st.Style, true
		}
	}
	return "", false
}

// VisibilityConfig holds the per-widget display and visibility settings.
// The JSON layout is the persisted record format.
type VisibilityConfig struct {
	Style          Style          `json:"style,omitempty"`
	IncludeLogo    Checkbox       `json:"include-logo,omitempty"`
	LogoURL        string         `json:"logo-url,omitempty"`
	IncludeExclude IncludeExclude `json:"incexc"`
	URL            URLRules       `json:"url"`
}

// URLRules holds the raw newline separated pattern text as entered by the admin.
type URLRules struct {
	URLs string `json:"urls"`
}

// Patterns returns the configured URL patterns in order.
func (v *VisibilityConfig) Patterns() []string { return SplitPatterns(v.URL.URLs) }

// StyleClass returns the css class of the notice, falling back to DefaultStyle.
func (v *VisibilityConfig) StyleClass() string {
	if v == nil || v.Style == "" {
		return string(DefaultStyle)
	}
	return string(v.Style)
}

// Checkbox decodes the loosely typed values html forms and older records use for booleans.
type Checkbox bool

func (c *Checkbox) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case bool:
		*c = Checkbox(val)
	case float64:
		*c = val != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "", "0", "false", "off", "no":
			*c = false
		default:
			*c = true
		}
	default:
		*c = false
	}
	return nil
}

// VisibilityFilter may override a visibility decision after it has been computed.
// Filters receive the previous result and return the (possibly changed) result.
type VisibilityFilter func(visible bool, widgetID string, cfg VisibilityConfig) bool

// Resolver decides whether a notice is visible on a given path.
// It holds no mutable state, so one instance can serve every request.
type Resolver struct {
	filters []VisibilityFilter
}

func NewResolver(filters ...VisibilityFilter) *Resolver {
	return &Resolver{filters: filters}
}

// Resolve returns true when the widget should render on the normalized path.
// A nil config means the widget was never configured, which is always visible.
// Unrecognized modes are visible too: bad data fails open.
func (r *Resolver) Resolve(widgetID string, cfg *VisibilityConfig, path string) bool {
	if cfg == nil {
		return true
	}
	switch cfg.IncludeExclude {
	case HideEverywhere:
		return false
	case ShowEverywhere:
		return true
	}

	matched := strings.TrimSpace(cfg.URL.URLs) != "" && MatchPath(cfg.URL.URLs, path)

	var visible bool
	switch cfg.IncludeExclude {
	case ShowOnSelected:
		visible = matched
	case HideOnSelected:
		visible = !matched
	default:
		visible = true
	}

	for _, filter := range r.filters {
		visible = filter(visible, widgetID, *cfg)
	}
	return visible
}
