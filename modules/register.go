// Package modules provides shared module registration for dashnotes.
package modules

import (
	"database/sql"
	"net/url"

	"github.com/TheLab-ms/dashnotes/engine"
	"github.com/TheLab-ms/dashnotes/engine/settings"
	"github.com/TheLab-ms/dashnotes/modules/auth"
	"github.com/TheLab-ms/dashnotes/modules/notes"
	"github.com/TheLab-ms/dashnotes/modules/widgets"
)

// Options configures module registration.
type Options struct {
	Database   *sql.DB
	Self       *url.URL
	AuthIssuer *engine.TokenIssuer
	Notes      notes.Config
}

// Set holds the constructed modules.
// Commands that don't serve http (import, token) use them directly.
type Set struct {
	Settings *settings.Store
	Auth     *auth.Module
	Widgets  *widgets.Registry
	Notes    *notes.Module
}

// New constructs every module, migrating the database as it goes.
func New(opts Options) *Set {
	store := settings.New(opts.Database)
	registry := widgets.New(opts.Database)
	set := &Set{
		Settings: store,
		Auth:     auth.New(opts.Database, opts.Self, opts.AuthIssuer),
		Widgets:  registry,
		Notes:    notes.New(store, registry, opts.Notes),
	}
	set.Auth.HomePath = set.Notes.BasePath()
	return set
}

// Register adds all modules to the app and sets the auth module as the router's authenticator.
func (s *Set) Register(a *engine.App) {
	a.Add(s.Auth)
	a.Router.Authenticator = s.Auth // Must set before adding modules that use WithAuth
	a.Add(s.Notes)
}
