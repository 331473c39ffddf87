package main

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/TheLab-ms/dashnotes/engine/db"
	"github.com/TheLab-ms/dashnotes/modules/notes"
	"github.com/gavv/httpexpect/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSeed = `
[[users]]
email = "admin@example.com"
roles = ["administrator"]

[[users]]
email = "sub@example.com"
roles = ["subscriber"]

[roles]
subscriber = false

[[notes]]
title = "Writing pages"
body = "<p>Follow the style guide.</p>"
style = "blue"
include_logo = true
incexc = "selected"
urls = ["post-new.php?post_type=page", "edit.php?post_type=page*"]

[[notes]]
title = "Everywhere"
body = "Hello"
`

func newTestConfig(t *testing.T) Config {
	return Config{
		HttpAddr:      ":0",
		Dir:           t.TempDir(),
		AdminBasePath: "/admin/",
		ExtraRoles:    []string{"shop_manager"},
	}
}

func decodeSeed(t *testing.T, text string) *Seed {
	path := filepath.Join(t.TempDir(), "seed.toml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))

	seed, err := loadSeed(path)
	require.NoError(t, err)
	return seed
}

func TestImportSeed(t *testing.T) {
	ctx := context.Background()
	conf := newTestConfig(t)
	database := db.OpenTest(t)
	mods := newModules(conf, &url.URL{Scheme: "http"}, database)

	require.NoError(t, importSeed(ctx, mods, decodeSeed(t, testSeed)))

	insts, err := mods.Widgets.List(ctx, notes.SidebarID)
	require.NoError(t, err)
	require.Len(t, insts, 2)
	assert.Equal(t, "Writing pages", insts[0].Title)
	assert.Equal(t, "Everywhere", insts[1].Title)

	snap, err := notes.LoadSnapshot(ctx, mods.Settings, mods.Notes.Roles())
	require.NoError(t, err)
	assert.Equal(t, &notes.VisibilityConfig{
		Style:          "blue",
		IncludeLogo:    true,
		IncludeExclude: notes.ShowOnSelected,
		URL:            notes.URLRules{URLs: "post-new.php?post_type=page\nedit.php?post_type=page*"},
	}, snap.Options.Lookup(insts[0].ID))
	assert.Equal(t, &notes.VisibilityConfig{}, snap.Options.Lookup(insts[1].ID))

	assert.False(t, snap.Roles["subscriber"])
	assert.True(t, snap.Roles["editor"])
	assert.True(t, snap.Roles["shop_manager"])

	// Users are upserted by email
	require.NoError(t, importSeed(ctx, mods, &Seed{Users: []SeedUser{{Email: "sub@example.com", Roles: []string{"editor"}}}}))
	_, err = mods.Auth.IssueToken(ctx, "sub@example.com")
	assert.NoError(t, err)
}

func TestImportSeedRejectsUnknownStyle(t *testing.T) {
	ctx := context.Background()
	mods := newModules(newTestConfig(t), &url.URL{Scheme: "http"}, db.OpenTest(t))

	err := importSeed(ctx, mods, &Seed{Notes: []SeedNote{
		{Title: "Fine", Style: "red"},
		{Title: "Typo", Style: "purple"},
	}})
	assert.ErrorContains(t, err, `unknown style "purple"`)

	insts, err := mods.Widgets.List(ctx, notes.SidebarID)
	require.NoError(t, err)
	assert.Empty(t, insts)
}

func TestSeedRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[notez]]\ntitle = \"typo\"\n"), 0644))

	_, err := loadSeed(path)
	assert.ErrorContains(t, err, "unknown keys")

	_, err = loadSeed(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestAppIntegration(t *testing.T) {
	ctx := context.Background()
	conf := newTestConfig(t)
	database := db.OpenTest(t)

	svr := httptest.NewUnstartedServer(nil)
	self, err := url.Parse("http://" + svr.Listener.Addr().String())
	require.NoError(t, err)

	mods := newModules(conf, self, database)
	app := newApp(conf, mods, database)
	svr.Config.Handler = app.Router
	svr.Start()
	t.Cleanup(svr.Close)

	require.NoError(t, importSeed(ctx, mods, decodeSeed(t, testSeed)))

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	e := httpexpect.WithConfig(httpexpect.Config{
		BaseURL:  svr.URL,
		Reporter: httpexpect.NewAssertReporter(t),
		Client: &http.Client{
			Jar:           jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error { return http.ErrUseLastResponse },
		},
	})

	e.GET("/healthz").Expect().Status(http.StatusOK)
	e.GET("/static/admin.css").Expect().Status(http.StatusOK)
	e.GET("/").Expect().Status(http.StatusFound).Header("Location").IsEqual("/admin/")
	e.GET("/admin/").Expect().Status(http.StatusFound).Header("Location").HasPrefix("/login")

	link, err := loginLink(ctx, mods, self, "admin@example.com")
	require.NoError(t, err)
	u, err := url.Parse(link)
	require.NoError(t, err)

	e.GET("/login").WithQuery("t", u.Query().Get("t")).WithQuery("callback_uri", "/admin/post-new.php?post_type=page").
		Expect().Status(http.StatusFound).Header("Location").IsEqual("/admin/post-new.php?post_type=page")

	e.GET("/admin/post-new.php").WithQuery("post_type", "page").
		Expect().Status(http.StatusOK).Body().
		Contains("Follow the style guide.").
		Contains("Hello").
		Contains(`src="/static/logo.svg"`)

	e.GET("/admin/index.php").
		Expect().Status(http.StatusOK).Body().
		NotContains("Follow the style guide.").
		Contains("Hello")

	// Subscribers are disabled by the seed
	link, err = loginLink(ctx, mods, self, "sub@example.com")
	require.NoError(t, err)
	u, err = url.Parse(link)
	require.NoError(t, err)
	e.GET("/api/notices").WithQuery("path", "index.php").WithHeader("Authorization", "Bearer "+u.Query().Get("t")).
		Expect().Status(http.StatusOK).JSON().Object().Value("notices").Array().IsEmpty()
}
