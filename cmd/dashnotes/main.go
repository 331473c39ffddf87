// Dashnotes serves admin-authored notices to logged in users.
// It stores everything in a single sqlite database under the configured directory.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/TheLab-ms/dashnotes/engine"
	"github.com/TheLab-ms/dashnotes/engine/db"
	"github.com/TheLab-ms/dashnotes/modules"
	"github.com/TheLab-ms/dashnotes/modules/notes"
	"github.com/TheLab-ms/dashnotes/static"
	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
)

type Config struct {
	HttpAddr string `envDefault:":8080"`

	// SelfURL is the externally visible base URL. Session cookies are only marked secure for https.
	SelfURL string `envDefault:"http://localhost:8080"`

	// Dir holds the database and signing keys.
	Dir string `envDefault:"."`

	AdminBasePath string        `envDefault:"/admin/"`
	ExtraRoles    []string      `envSeparator:","`
	PruneInterval time.Duration `envDefault:"1h"`
	DarkMode      bool
}

func (c *Config) path(name string) string { return filepath.Join(c.Dir, name) }

var conf Config

var rootCmd = &cobra.Command{
	Use:          "dashnotes <command>",
	Short:        "Dashboard notes server",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
		conf, err = env.ParseAsWithOptions[Config](env.Options{Prefix: "DASHNOTES_", UseFieldNameByDefault: true})
		if err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the http server and background workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		self, err := url.Parse(conf.SelfURL)
		if err != nil {
			return fmt.Errorf("parsing self url: %w", err)
		}
		database, err := db.Open(conf.path("dashnotes.sqlite3"))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		app := newApp(conf, newModules(conf, self, database), database)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		slog.Info("starting dashnotes", "addr", conf.HttpAddr, "self", self.String())
		return app.Run(ctx)
	},
}

var healthURL string

var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Probe a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return engine.CheckHealthProbe(cmd.Context(), healthURL)
	},
}

func init() {
	healthcheckCmd.Flags().StringVar(&healthURL, "url", "http://localhost:8080/healthz", "health probe url")
	rootCmd.AddCommand(serveCmd, healthcheckCmd, tokenCmd, importCmd)
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newModules(conf Config, self *url.URL, database *sql.DB) *modules.Set {
	return modules.New(modules.Options{
		Database:   database,
		Self:       self,
		AuthIssuer: engine.NewTokenIssuer(conf.path("auth.pem")),
		Notes: notes.Config{
			AdminBasePath: conf.AdminBasePath,
			ExtraRoles:    conf.ExtraRoles,
			PruneInterval: conf.PruneInterval,
			DarkMode:      conf.DarkMode,
		},
	})
}

func newApp(conf Config, mods *modules.Set, database *sql.DB) *engine.App {
	router := engine.NewRouter(nil)
	router.HandleFunc("GET", "/", http.RedirectHandler(mods.Notes.BasePath(), http.StatusFound).ServeHTTP)
	router.HandleFunc("GET", "/healthz", engine.ServeHealthProbe(database))
	router.HandleFunc("GET", "/static/*filepath", http.StripPrefix("/static/", http.FileServer(http.FS(static.FS()))).ServeHTTP)

	a := engine.NewApp(conf.HttpAddr, router)
	mods.Register(a)
	return a
}
