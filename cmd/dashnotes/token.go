package main

import (
	"context"
	"fmt"
	"net/url"

	"github.com/TheLab-ms/dashnotes/engine/db"
	"github.com/TheLab-ms/dashnotes/modules"
	"github.com/spf13/cobra"
)

var tokenEmail string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a login link for an existing user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenEmail == "" {
			return fmt.Errorf("--email is required")
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

		link, err := loginLink(cmd.Context(), newModules(conf, self, database), self, tokenEmail)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), link)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "email of the user to log in as")
}

func loginLink(ctx context.Context, mods *modules.Set, self *url.URL, email string) (string, error) {
	tok, err := mods.Auth.IssueToken(ctx, email)
	if err != nil {
		return "", fmt.Errorf("issuing token: %w", err)
	}
	link := self.JoinPath("/login")
	link.RawQuery = url.Values{"t": {tok}}.Encode()
	return link.String(), nil
}
