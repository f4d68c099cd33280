package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wikictl/wikictl/internal/api"
)

var (
	usersListLimit   int
	usersListWorkers int
	usersListJSON    bool
	usersListFilter  string
	usersListQuery   string

	usersUpdateName   string
	usersUpdateEmail  string
	usersUpdateAvatar string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage workspace users",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		params := map[string]any{}
		if usersListFilter != "" {
			params["filter"] = usersListFilter
		}
		if usersListQuery != "" {
			params["query"] = usersListQuery
		}
		users, err := client.FetchAll(cmd.Context(), "/users.list", params, usersListLimit, usersListWorkers)
		if err != nil {
			fail(err)
		}
		printListing(users, []string{"id", "email", "name", "isAdmin", "isSuspended"}, usersListJSON)
	},
}

var usersInfoCmd = &cobra.Command{
	Use:   "info <id-or-email>",
	Short: "Show one user as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		id, err := client.ResolveUserID(cmd.Context(), args[0])
		if err != nil {
			fail(err)
		}
		resp, err := client.PostJSON(cmd.Context(), "/users.info", map[string]any{"id": id})
		if err != nil {
			fail(err)
		}
		api.PrintJSON(os.Stdout, resp)
	},
}

var usersUpdateCmd = &cobra.Command{
	Use:   "update <id-or-email>",
	Short: "Update a user's profile fields",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		id, err := client.ResolveUserID(cmd.Context(), args[0])
		if err != nil {
			fail(err)
		}
		payload := map[string]any{"id": id}
		if usersUpdateName != "" {
			payload["name"] = usersUpdateName
		}
		if usersUpdateEmail != "" {
			payload["email"] = usersUpdateEmail
		}
		if usersUpdateAvatar != "" {
			payload["avatarUrl"] = usersUpdateAvatar
		}
		if len(payload) == 1 {
			fail(fmt.Errorf("nothing to update: pass --name, --email or --avatar-url"))
		}
		if _, err := client.PostJSON(cmd.Context(), "/users.update", payload); err != nil {
			fail(err)
		}
		fmt.Printf("updated %s\n", args[0])
	},
}

// userActionCmd builds the promote/demote style commands, which differ
// only in endpoint and verb.
func userActionCmd(use, short, path, verb string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id-or-email>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			client := newClient()
			id, err := client.ResolveUserID(cmd.Context(), args[0])
			if err != nil {
				fail(err)
			}
			if _, err := client.PostJSON(cmd.Context(), path, map[string]any{"id": id}); err != nil {
				fail(err)
			}
			fmt.Printf("%s %s\n", verb, args[0])
		},
	}
}

func init() {
	usersListCmd.Flags().IntVar(&usersListLimit, "limit", api.MaxPageSize, "page size for listing")
	usersListCmd.Flags().IntVar(&usersListWorkers, "workers", 4, "parallel page fetchers")
	usersListCmd.Flags().BoolVar(&usersListJSON, "json", false, "print JSON instead of a table")
	usersListCmd.Flags().StringVar(&usersListFilter, "filter", "", "server-side filter: all, admins, suspended, invited, viewers")
	usersListCmd.Flags().StringVar(&usersListQuery, "query", "", "substring match on name or email")

	usersUpdateCmd.Flags().StringVar(&usersUpdateName, "name", "", "new display name")
	usersUpdateCmd.Flags().StringVar(&usersUpdateEmail, "email", "", "new email address")
	usersUpdateCmd.Flags().StringVar(&usersUpdateAvatar, "avatar-url", "", "new avatar URL")

	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersInfoCmd)
	usersCmd.AddCommand(usersUpdateCmd)
	usersCmd.AddCommand(userActionCmd("promote", "Grant admin rights", "/users.promote", "promoted"))
	usersCmd.AddCommand(userActionCmd("demote", "Revoke admin rights", "/users.demote", "demoted"))
	usersCmd.AddCommand(userActionCmd("suspend", "Suspend a user", "/users.suspend", "suspended"))
	usersCmd.AddCommand(userActionCmd("activate", "Reactivate a suspended user", "/users.activate", "activated"))
	usersCmd.AddCommand(userActionCmd("delete", "Delete a user", "/users.delete", "deleted"))
	rootCmd.AddCommand(usersCmd)
}
