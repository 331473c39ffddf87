// Package notes shows admin-authored notices to logged in users.
// Whether a notice renders depends on the viewer's roles and on the
// URL patterns configured for the notice.
package notes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/TheLab-ms/dashnotes/engine"
	"github.com/TheLab-ms/dashnotes/internal/templates"
	"github.com/TheLab-ms/dashnotes/modules/auth"
	"github.com/TheLab-ms/dashnotes/modules/bootstrap"
	"github.com/TheLab-ms/dashnotes/modules/widgets"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/time/rate"
)

// SidebarID is the widget container holding notices.
const SidebarID = "dashboard-notes"

// DefaultLogoURL is shown when a notice includes a logo but doesn't set its own.
const DefaultLogoURL = "/static/logo.svg"

const nonceTTL = 12 * time.Hour

// Config customizes the notes module.
type Config struct {
	// AdminBasePath is stripped from request paths before matching. Defaults to "/admin/".
	AdminBasePath string

	// ExtraRoles are role ids known in addition to DefaultRoles.
	ExtraRoles []string

	// PruneInterval controls how often configs of deleted widgets are cleaned up.
	// Zero disables pruning.
	PruneInterval time.Duration

	// DarkMode renders every page with the dark admin theme.
	DarkMode bool

	Filters     []VisibilityFilter
	RoleFilters []RoleFilter
}

type Module struct {
	store         SettingsStore
	widgets       *widgets.Registry
	resolver      *Resolver
	roles         []Role
	basePath      string
	pruneInterval time.Duration
	nonces        *engine.ValueSigner[string]
	limiter       *rate.Limiter
	view          func(title string, content templates.Component) templates.Component
}

func New(store SettingsStore, registry *widgets.Registry, conf Config) *Module {
	basePath := "/" + strings.Trim(conf.AdminBasePath, "/") + "/"
	if basePath == "//" {
		basePath = "/admin/"
	}
	registry.RegisterSidebar(widgets.Sidebar{
		ID:          SidebarID,
		Name:        "Dashboard Notes (admin only)",
		Description: "Dashboard notes/instructions. For admin purposes only.",
	})
	view := bootstrap.View
	if conf.DarkMode {
		view = bootstrap.DarkmodeView
	}
	return &Module{
		view:          view,
		store:         store,
		widgets:       registry,
		resolver:      NewResolver(conf.Filters...),
		roles:         KnownRoles(conf.ExtraRoles, conf.RoleFilters...),
		basePath:      basePath,
		pruneInterval: conf.PruneInterval,
		nonces:        engine.NewValueSigner[string](),
		limiter:       rate.NewLimiter(rate.Every(time.Second), 20),
	}
}

// Roles returns the known roles in display order.
func (m *Module) Roles() []Role { return m.roles }

// BasePath returns the admin path prefix the dashboard is served under, with leading and trailing slashes.
func (m *Module) BasePath() string { return m.basePath }

func (m *Module) AttachRoutes(router *engine.Router) {
	router.Handle("GET", strings.TrimSuffix(m.basePath, "/")+"/*path", router.WithAuth(m.renderDashboard))
	router.Handle("GET", "/api/notices", router.WithAuth(m.listNotices))

	router.Handle("GET", "/settings/widgets", router.WithAuth(auth.WithCapability(auth.CapEditThemeOptions, m.renderWidgetSettings)))
	router.Handle("POST", "/settings/widgets", router.WithAuth(auth.WithCapability(auth.CapEditThemeOptions, engine.WithRateLimiting(m.limiter, m.saveWidget))))

	router.Handle("GET", "/settings/roles", router.WithAuth(auth.WithCapability(auth.CapManageOptions, m.renderRoleSettings)))
	router.Handle("POST", "/settings/roles", router.WithAuth(auth.WithCapability(auth.CapManageOptions, engine.WithRateLimiting(m.limiter, m.saveRoles))))
}

func (m *Module) AttachWorkers(mgr *engine.ProcMgr) {
	if m.pruneInterval > 0 {
		mgr.Add(engine.Poll(m.pruneInterval, m.pruneOrphans))
	}
}

// Notice is a widget that passed the role and visibility checks.
type Notice struct {
	WidgetID  string `json:"id"`
	Class     string `json:"class"`
	Classname string `json:"classname,omitempty"`
	LogoURL   string `json:"logoUrl,omitempty"`
	HTML      string `json:"html"`
}

// VisibleNotices returns the notices the user should see on the normalized path, in sidebar order.
func (m *Module) VisibleNotices(ctx context.Context, user *auth.UserMetadata, path string) ([]*Notice, error) {
	snap, err := LoadSnapshot(ctx, m.store, m.roles)
	if err != nil {
		return nil, err
	}
	if user == nil || !snap.Roles.Allows(user.Roles) {
		return nil, nil
	}

	insts, err := m.widgets.List(ctx, SidebarID)
	if err != nil {
		return nil, err
	}

	var notices []*Notice
	for _, inst := range insts {
		content := m.widgets.Render(ctx, inst)
		if content == nil {
			continue
		}
		cfg := snap.Options.Lookup(inst.ID)
		if !m.resolver.Resolve(inst.ID, cfg, path) {
			continue
		}

		var buf strings.Builder
		if err := content.Render(ctx, &buf); err != nil {
			return nil, fmt.Errorf("rendering widget %s: %w", inst.ID, err)
		}
		n := newNotice(inst.ID, cfg, buf.String())
		if t, ok := m.widgets.Type(inst.Type); ok {
			n.Classname = t.Classname
		}
		notices = append(notices, n)
	}
	return notices, nil
}

func newNotice(id string, cfg *VisibilityConfig, html string) *Notice {
	n := &Notice{WidgetID: id, HTML: html}
	classes := []string{"updated"}
	if style := cfg.StyleClass(); style != string(DefaultStyle) {
		classes = append(classes, style)
	}
	if cfg != nil && cfg.IncludeLogo {
		classes = append(classes, "include-logo")
		n.LogoURL = cfg.LogoURL
		if n.LogoURL == "" {
			n.LogoURL = DefaultLogoURL
		}
	}
	n.Class = strings.Join(append(classes, "widget-id-"+id, "dashboard-note"), " ")
	return n
}

func (m *Module) renderDashboard(r *http.Request, ps httprouter.Params) engine.Response {
	path := RequestPath(r, m.basePath)
	user := auth.GetUserMeta(r.Context())

	notices, err := m.VisibleNotices(r.Context(), user, path)
	if err != nil {
		return engine.Errorf("finding visible notices: %s", err)
	}
	return engine.Component(m.view("Dashboard", renderDashboard(path, notices, user.Can(auth.CapEditThemeOptions))))
}

func (m *Module) listNotices(r *http.Request, ps httprouter.Params) engine.Response {
	path := NormalizePath(r.URL.Query().Get("path"), m.basePath)

	notices, err := m.VisibleNotices(r.Context(), auth.GetUserMeta(r.Context()), path)
	if err != nil {
		return engine.Errorf("finding visible notices: %s", err)
	}
	if notices == nil {
		notices = []*Notice{}
	}
	return engine.JSON(map[string]any{"path": path, "notices": notices})
}

func (m *Module) renderWidgetSettings(r *http.Request, ps httprouter.Params) engine.Response {
	insts, err := m.widgets.List(r.Context(), SidebarID)
	if err != nil {
		return engine.Errorf("listing widgets: %s", err)
	}
	snap, err := LoadSnapshot(r.Context(), m.store, m.roles)
	if err != nil {
		return engine.Errorf("loading options: %s", err)
	}

	nonce := m.nonce(r, "widgets")
	return engine.Component(m.view("Dashboard Notes", renderWidgetSettings(m.basePath, m.widgets.Types(), insts, snap.Options, nonce)))
}

func (m *Module) saveWidget(r *http.Request, ps httprouter.Params) engine.Response {
	if !m.checkNonce(r, "widgets") {
		return engine.ClientErrorf(http.StatusForbidden, "The link you followed has expired - please try again")
	}
	ctx := r.Context()
	id := r.FormValue("widget-id")

	if r.FormValue("delete_widget") != "" {
		if id == "" {
			return engine.ClientErrorf(http.StatusBadRequest, "No widget selected")
		}
		if _, err := m.widgets.Remove(ctx, id); err != nil {
			return engine.Errorf("removing widget: %s", err)
		}
		_, err := DeleteVisibility(ctx, m.store, id)
		if errors.Is(err, ErrUnreadableRecord) {
			return engine.ClientErrorf(http.StatusConflict, "Stored note settings are unreadable and were left untouched")
		}
		if err != nil {
			return engine.Errorf("removing widget visibility: %s", err)
		}
		return engine.Redirect("/settings/widgets", http.StatusSeeOther)
	}

	title, body := r.FormValue("title"), r.FormValue("body")
	if id == "" {
		typeID := r.FormValue("type")
		if typeID == "" {
			typeID = widgets.TextType.ID
		}
		inst, err := m.widgets.Add(ctx, SidebarID, typeID, title, body)
		if err != nil {
			return engine.ClientErrorf(http.StatusBadRequest, "Unable to add widget: %s", err)
		}
		id = inst.ID
	} else {
		err := m.widgets.Update(ctx, id, title, body)
		if errors.Is(err, widgets.ErrNotFound) {
			return engine.ClientErrorf(http.StatusNotFound, "Widget not found")
		}
		if err != nil {
			return engine.Errorf("updating widget: %s", err)
		}
	}

	err := SaveVisibility(ctx, m.store, id, visibilityFromForm(r))
	if errors.Is(err, ErrUnreadableRecord) {
		return engine.ClientErrorf(http.StatusConflict, "Stored note settings are unreadable and were left untouched")
	}
	if err != nil {
		return engine.Errorf("saving widget visibility: %s", err)
	}
	return engine.Redirect("/settings/widgets", http.StatusSeeOther)
}

func visibilityFromForm(r *http.Request) VisibilityConfig {
	cfg := VisibilityConfig{
		IncludeLogo:    r.FormValue("include-logo") != "",
		LogoURL:        strings.TrimSpace(r.FormValue("logo-url")),
		IncludeExclude: IncludeExclude(r.FormValue("incexc")),
		URL:            URLRules{URLs: strings.ReplaceAll(r.FormValue("urls"), "\r\n", "\n")},
	}
	if s, ok := ParseStyle(r.FormValue("style")); ok {
		cfg.Style = s
	}
	return cfg
}

func (m *Module) renderRoleSettings(r *http.Request, ps httprouter.Params) engine.Response {
	snap, err := LoadSnapshot(r.Context(), m.store, m.roles)
	if err != nil {
		return engine.Errorf("loading options: %s", err)
	}
	return engine.Component(m.view("Dashboard Notes", renderRoleSettings(m.roles, snap.Roles, m.nonce(r, "roles"))))
}

func (m *Module) saveRoles(r *http.Request, ps httprouter.Params) engine.Response {
	if !m.checkNonce(r, "roles") {
		return engine.ClientErrorf(http.StatusForbidden, "The link you followed has expired - please try again")
	}
	if err := r.ParseForm(); err != nil {
		return engine.ClientErrorf(http.StatusBadRequest, "Invalid form: %s", err)
	}

	v := SanitizeRoleVisibility(m.roles, r.PostForm["roles"])
	if err := SaveRoleVisibility(r.Context(), m.store, v); err != nil {
		return engine.Errorf("saving role visibility: %s", err)
	}
	return engine.Redirect("/settings/roles", http.StatusSeeOther)
}

// nonce binds a form submission to the current user and action.
func (m *Module) nonce(r *http.Request, action string) string {
	return m.nonces.Sign(nonceSubject(r, action), nonceTTL)
}

func (m *Module) checkNonce(r *http.Request, action string) bool {
	val, ok := m.nonces.Verify(r.FormValue("_nonce"))
	return ok && val == nonceSubject(r, action)
}

func nonceSubject(r *http.Request, action string) string {
	var id int64
	if user := auth.GetUserMeta(r.Context()); user != nil {
		id = user.ID
	}
	return action + ":" + strconv.FormatInt(id, 10)
}

// pruneOrphans removes visibility configs whose widget no longer exists.
func (m *Module) pruneOrphans(ctx context.Context) bool {
	opts, err := loadOptions(ctx, m.store)
	if err != nil {
		slog.Error("unable to load notes options for pruning", "error", err)
		return false
	}

	var orphans []string
	for id := range opts {
		ok, err := m.widgets.IsRegistered(ctx, id)
		if err != nil {
			slog.Error("unable to check widget registration", "error", err, "widget", id)
			return false
		}
		if !ok {
			orphans = append(orphans, id)
		}
	}
	if len(orphans) == 0 {
		return false
	}

	n, err := DeleteVisibility(ctx, m.store, orphans...)
	if err != nil {
		slog.Error("unable to prune orphaned visibility configs", "error", err)
		return false
	}
	slog.Info("pruned orphaned visibility configs", "count", n)
	return false
}
