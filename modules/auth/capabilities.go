package auth

import (
	"net/http"
	"slices"

	"github.com/TheLab-ms/dashnotes/engine"
	"github.com/julienschmidt/httprouter"
)

const (
	// CapEditThemeOptions is required to manage notice widgets and their settings.
	CapEditThemeOptions = "edit_theme_options"

	// CapManageOptions is required to change which roles see notices.
	CapManageOptions = "manage_options"
)

var capabilities = map[string][]string{
	CapEditThemeOptions: {"administrator"},
	CapManageOptions:    {"administrator"},
}

// Can reports whether the user holds a capability through any of their roles.
func (u *UserMetadata) Can(capability string) bool {
	if u == nil {
		return false
	}
	for _, role := range capabilities[capability] {
		if slices.Contains(u.Roles, role) {
			return true
		}
	}
	return false
}

// WithCapability rejects requests from users that don't hold the capability.
// It must be wrapped by WithAuth.
func WithCapability(capability string, next engine.Handler) engine.Handler {
	return func(r *http.Request, ps httprouter.Params) engine.Response {
		if !GetUserMeta(r.Context()).Can(capability) {
			return engine.ClientErrorf(http.StatusForbidden, "You do not have permission to access this page")
		}
		return next(r, ps)
	}
}
