package notes

import (
	"embed"
	"strings"

	"github.com/TheLab-ms/dashnotes/internal/templates"
	"github.com/TheLab-ms/dashnotes/modules/widgets"
)

//go:embed templates/*.html
var templateFS embed.FS

var renderer = templates.MustParseFS(templateFS, "templates/*.html")

type option struct {
	Value    string
	Label    string
	Selected bool
}

type dashboardData struct {
	Path    string
	Notices []*Notice
	CanEdit bool
}

func renderDashboard(path string, notices []*Notice, canEdit bool) templates.Component {
	return renderer.Execute("dashboard", &dashboardData{Path: path, Notices: notices, CanEdit: canEdit})
}

type widgetFormData struct {
	Instance  *widgets.Instance
	Config    *VisibilityConfig
	Types     []option // only set when there's a choice to make
	Styles    []option
	Modes     []option
	Nonce     string
	AdminPath string
}

type widgetSettingsData struct {
	Forms []*widgetFormData
	New   *widgetFormData
}

func renderWidgetSettings(basePath string, types []*widgets.Type, insts []*widgets.Instance, opts Options, nonce string) templates.Component {
	adminPath := strings.TrimRight(basePath, "/")
	form := func(inst *widgets.Instance, cfg *VisibilityConfig) *widgetFormData {
		if cfg == nil {
			cfg = &VisibilityConfig{}
		}
		f := &widgetFormData{Instance: inst, Config: cfg, Nonce: nonce, AdminPath: adminPath}
		f.Styles = append(f.Styles, option{Value: "", Label: "Default", Selected: cfg.Style == ""})
		for _, s := range Styles {
			f.Styles = append(f.Styles, option{Value: string(s.Style), Label: s.Label, Selected: s.Style == cfg.Style})
		}
		for _, m := range IncludeExcludeModes {
			f.Modes = append(f.Modes, option{Value: string(m.Mode), Label: m.Label, Selected: m.Mode == cfg.IncludeExclude})
		}
		return f
	}

	data := &widgetSettingsData{}
	for _, inst := range insts {
		data.Forms = append(data.Forms, form(inst, opts.Lookup(inst.ID)))
	}

	data.New = form(&widgets.Instance{Type: widgets.TextType.ID}, nil)
	if len(types) > 1 {
		for _, t := range types {
			data.New.Types = append(data.New.Types, option{Value: t.ID, Label: t.Name, Selected: t.ID == data.New.Instance.Type})
		}
	}
	return renderer.Execute("widget_settings", data)
}

type roleRow struct {
	ID      string
	Name    string
	Enabled bool
}

type roleSettingsData struct {
	Roles []roleRow
	Nonce string
}

func renderRoleSettings(roles []Role, v RoleVisibility, nonce string) templates.Component {
	data := &roleSettingsData{Nonce: nonce}
	for _, role := range roles {
		data.Roles = append(data.Roles, roleRow{ID: role.ID, Name: role.Name, Enabled: v[role.ID]})
	}
	return renderer.Execute("role_settings", data)
}
