package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wikictl/wikictl/internal/api"
	"github.com/wikictl/wikictl/internal/config"
	"github.com/wikictl/wikictl/internal/ui"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage API credentials",
}

var (
	authSetBaseURL string
	authSetToken   string
)

var authSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save the API base URL and bearer token",
	Long: `Save the API base URL and bearer token to the config file.

The base URL may omit the trailing /api segment; it is added automatically
when talking to the server. When --token is omitted and the terminal is
interactive, the token is prompted for without echo.`,
	Run: func(cmd *cobra.Command, args []string) {
		token := authSetToken
		if token == "" && term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprint(os.Stderr, "Token: ")
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				ui.Fatalf("failed to read token: %v", err)
			}
			token = strings.TrimSpace(string(raw))
		}
		if authSetBaseURL == "" && token == "" {
			ui.Fatalf("nothing to save: provide --base-url and/or --token")
		}
		if err := config.Save(authSetBaseURL, token); err != nil {
			ui.Fatalf("%v", err)
		}
		fmt.Printf("Saved config to %s\n", config.File())
	},
}

var authInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the authenticated user and workspace",
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		resp, err := client.PostJSON(cmd.Context(), "/auth.info", map[string]any{})
		if err != nil {
			fail(err)
		}
		api.PrintJSON(os.Stdout, resp)
	},
}

func init() {
	authSetCmd.Flags().StringVar(&authSetBaseURL, "base-url", "", "API base URL, e.g. https://wiki.example.com")
	authSetCmd.Flags().StringVar(&authSetToken, "token", "", "bearer token (JWT)")
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authInfoCmd)
	rootCmd.AddCommand(authCmd)
}
