package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/TheLab-ms/dashnotes/engine/db"
	"github.com/TheLab-ms/dashnotes/modules"
	"github.com/TheLab-ms/dashnotes/modules/notes"
	"github.com/TheLab-ms/dashnotes/modules/widgets"
	"github.com/spf13/cobra"
)

// Seed is the layout of an import file.
//
//	[[users]]
//	email = "admin@example.com"
//	roles = ["administrator"]
//
//	[roles]
//	subscriber = false
//
//	[[notes]]
//	title = "Writing pages"
//	body = "<p>Follow the style guide.</p>"
//	incexc = "selected"
//	urls = ["post-new.php?post_type=page", "edit.php?post_type=page*"]
type Seed struct {
	Users []SeedUser      `toml:"users"`
	Roles map[string]bool `toml:"roles"`
	Notes []SeedNote      `toml:"notes"`
}

type SeedUser struct {
	Email string   `toml:"email"`
	Roles []string `toml:"roles"`
}

type SeedNote struct {
	Title       string   `toml:"title"`
	Body        string   `toml:"body"`
	Style       string   `toml:"style"`
	IncludeLogo bool     `toml:"include_logo"`
	LogoURL     string   `toml:"logo_url"`
	IncExc      string   `toml:"incexc"`
	URLs        []string `toml:"urls"`
}

func (n *SeedNote) visibility() (notes.VisibilityConfig, error) {
	style, ok := notes.ParseStyle(n.Style)
	if !ok {
		return notes.VisibilityConfig{}, fmt.Errorf("note %q has unknown style %q", n.Title, n.Style)
	}
	return notes.VisibilityConfig{
		Style:          style,
		IncludeLogo:    notes.Checkbox(n.IncludeLogo),
		LogoURL:        n.LogoURL,
		IncludeExclude: notes.IncludeExclude(n.IncExc),
		URL:            notes.URLRules{URLs: strings.Join(n.URLs, "\n")},
	}, nil
}

var importCmd = &cobra.Command{
	Use:   "import FILE.toml",
	Short: "Load users, notes, and role visibility from a toml file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, err := loadSeed(args[0])
		if err != nil {
			return err
		}

		self, err := url.Parse(conf.SelfURL)
		if err != nil {
			return fmt.Errorf("parsing self url: %w", err)
		}
		database, err := db.Open(conf.path("dashnotes.sqlite3"))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		return importSeed(cmd.Context(), newModules(conf, self, database), seed)
	},
}

func loadSeed(path string) (*Seed, error) {
	seed := &Seed{}
	md, err := toml.DecodeFile(path, seed)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in %s: %v", path, undecoded)
	}
	return seed, nil
}

// importSeed applies a seed. Users are upserted by email, notes are always appended,
// and the role record is replaced when the seed sets any role.
func importSeed(ctx context.Context, mods *modules.Set, seed *Seed) error {
	for _, u := range seed.Users {
		if _, err := mods.Auth.UpsertUser(ctx, u.Email, u.Roles); err != nil {
			return err
		}
	}

	// Validate every note before adding any
	vis := make([]notes.VisibilityConfig, len(seed.Notes))
	for i, n := range seed.Notes {
		var err error
		if vis[i], err = n.visibility(); err != nil {
			return err
		}
	}

	for i, n := range seed.Notes {
		inst, err := mods.Widgets.Add(ctx, notes.SidebarID, widgets.TextType.ID, n.Title, n.Body)
		if err != nil {
			return fmt.Errorf("adding note %q: %w", n.Title, err)
		}
		if err := notes.SaveVisibility(ctx, mods.Settings, inst.ID, vis[i]); err != nil {
			return err
		}
	}

	if len(seed.Roles) > 0 {
		v := notes.RoleVisibility(seed.Roles).WithDefaults(mods.Notes.Roles())
		if err := notes.SaveRoleVisibility(ctx, mods.Settings, v); err != nil {
			return err
		}
	}

	slog.Info("imported seed", "users", len(seed.Users), "notes", len(seed.Notes), "roles", len(seed.Roles))
	return nil
}
