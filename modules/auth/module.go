package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/TheLab-ms/dashnotes/engine"
	"github.com/TheLab-ms/dashnotes/engine/db"
	"github.com/julienschmidt/httprouter"
)

const migration = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT UNIQUE NOT NULL,
	roles TEXT NOT NULL DEFAULT '[]',
	created INTEGER NOT NULL DEFAULT (unixepoch())
) STRICT;
`

const sessionTTL = time.Hour * 24 * 30

type Module struct {
	// HomePath is where logins land when no callback is given.
	HomePath string

	db     *sql.DB
	tokens *engine.TokenIssuer
	secure bool
}

// New creates the auth module. Cookies are marked secure when self uses https.
func New(d *sql.DB, self *url.URL, tokens *engine.TokenIssuer) *Module {
	db.MustMigrate(d, migration)
	return &Module{HomePath: "/admin/", db: d, tokens: tokens, secure: self != nil && self.Scheme == "https"}
}

func (m *Module) AttachRoutes(router *engine.Router) {
	router.Handle("GET", "/login", m.handleLogin)

	router.Handle("GET", "/logout", func(r *http.Request, ps httprouter.Params) engine.Response {
		cook := &http.Cookie{Name: "token", Path: "/", MaxAge: -1}
		return engine.WithCookie(cook, engine.Redirect("/", http.StatusTemporaryRedirect))
	})

	router.Handle("GET", "/whoami", m.WithAuth(func(r *http.Request, ps httprouter.Params) engine.Response {
		return engine.JSON(GetUserMeta(r.Context()))
	}))
}

// handleLogin exchanges a token minted by the CLI for a session cookie.
func (m *Module) handleLogin(r *http.Request, ps httprouter.Params) engine.Response {
	tok := r.URL.Query().Get("t")
	if tok == "" {
		return engine.ClientErrorf(http.StatusUnauthorized, "Ask an administrator for a login link")
	}
	if _, err := m.tokens.Verify(tok); err != nil {
		return engine.ClientErrorf(http.StatusUnauthorized, "This login link is invalid or has expired")
	}

	callback := r.URL.Query().Get("callback_uri")
	if callback == "" || !strings.HasPrefix(callback, "/") || strings.HasPrefix(callback, "//") {
		callback = m.HomePath
	}

	cook := &http.Cookie{
		Name:     "token",
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   m.secure,
	}
	return engine.WithCookie(cook, engine.Redirect(callback, http.StatusFound))
}

// WithAuth authenticates incoming requests using the session cookie or a bearer token.
// Browsers without a session are redirected to the login page, API clients get a 401.
func (m *Module) WithAuth(next engine.Handler) engine.Handler {
	return func(r *http.Request, ps httprouter.Params) engine.Response {
		tok, bearer := requestToken(r)

		meta, err := m.authenticate(r.Context(), tok)
		if err != nil {
			slog.Debug("rejecting unauthenticated request", "error", err, "url", r.URL.Path)
			if bearer || strings.Contains(r.Header.Get("Accept"), "application/json") {
				return engine.ClientErrorf(http.StatusUnauthorized, "Authentication required")
			}
			q := url.Values{}
			q.Add("callback_uri", r.URL.String())
			return engine.Redirect("/login?"+q.Encode(), http.StatusFound)
		}

		r = r.WithContext(withUserMeta(r.Context(), meta))
		return next(r, ps)
	}
}

func requestToken(r *http.Request) (tok string, bearer bool) {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer "), true
	}
	if cook, err := r.Cookie("token"); err == nil {
		return cook.Value, false
	}
	return "", false
}

func (m *Module) authenticate(ctx context.Context, tok string) (*UserMetadata, error) {
	if tok == "" {
		return nil, errors.New("no token")
	}
	claims, err := m.tokens.Verify(tok)
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}
	return m.GetUser(ctx, id)
}

// GetUser loads a user by id.
// Roles that can't be decoded are dropped, which hides notices from that user.
func (m *Module) GetUser(ctx context.Context, id int64) (*UserMetadata, error) {
	meta := &UserMetadata{ID: id}
	var roles string
	err := m.db.QueryRowContext(ctx, "SELECT email, roles FROM users WHERE id = ?", id).Scan(&meta.Email, &roles)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(roles), &meta.Roles); err != nil {
		slog.Warn("ignoring malformed user roles", "user", id, "error", err)
		meta.Roles = nil
	}
	return meta, nil
}

// UpsertUser creates a user or replaces the roles of an existing one.
func (m *Module) UpsertUser(ctx context.Context, email string, roles []string) (int64, error) {
	if roles == nil {
		roles = []string{}
	}
	js, err := json.Marshal(roles)
	if err != nil {
		return 0, err
	}

	var id int64
	err = m.db.QueryRowContext(ctx, `
		INSERT INTO users (email, roles) VALUES (?, ?)
		ON CONFLICT (email) DO UPDATE SET roles = excluded.roles
		RETURNING id`, email, string(js)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting user: %w", err)
	}
	return id, nil
}

// IssueToken signs a session token for the user with the given email.
func (m *Module) IssueToken(ctx context.Context, email string) (string, error) {
	var id int64
	err := m.db.QueryRowContext(ctx, "SELECT id FROM users WHERE email = ?", email).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("user %q not found", email)
	}
	if err != nil {
		return "", err
	}
	return m.tokens.SignSession(strconv.FormatInt(id, 10), sessionTTL)
}
