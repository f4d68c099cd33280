package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wikictl/wikictl/internal/api"
)

var (
	groupsListLimit   int
	groupsListWorkers int
	groupsListJSON    bool

	groupsMembersQuery string
	groupsMembersLimit int
	groupsMembersJSON  bool
	groupsUpdateName   string
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Manage groups and their membership",
}

var groupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List groups",
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		groups, err := client.FetchAll(cmd.Context(), "/groups.list", nil, groupsListLimit, groupsListWorkers)
		if err != nil {
			fail(err)
		}
		printListing(groups, []string{"id", "name", "memberCount"}, groupsListJSON)
	},
}

var groupsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a group",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		if _, err := client.PostJSON(cmd.Context(), "/groups.create", map[string]any{"name": args[0]}); err != nil {
			fail(err)
		}
		fmt.Printf("created group %q\n", args[0])
	},
}

var groupsUpdateCmd = &cobra.Command{
	Use:   "update <id-or-name>",
	Short: "Rename a group",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		id, err := client.ResolveGroupID(cmd.Context(), args[0])
		if err != nil {
			fail(err)
		}
		if groupsUpdateName == "" {
			fail(fmt.Errorf("nothing to update: pass --name"))
		}
		payload := map[string]any{"id": id, "name": groupsUpdateName}
		if _, err := client.PostJSON(cmd.Context(), "/groups.update", payload); err != nil {
			fail(err)
		}
		fmt.Printf("renamed %s to %q\n", args[0], groupsUpdateName)
	},
}

var groupsDeleteCmd = &cobra.Command{
	Use:   "delete <id-or-name>",
	Short: "Delete a group",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		id, err := client.ResolveGroupID(cmd.Context(), args[0])
		if err != nil {
			fail(err)
		}
		if _, err := client.PostJSON(cmd.Context(), "/groups.delete", map[string]any{"id": id}); err != nil {
			fail(err)
		}
		fmt.Printf("deleted group %s\n", args[0])
	},
}

var groupsMembersCmd = &cobra.Command{
	Use:   "members <id-or-name>",
	Short: "List the users in a group",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		id, err := client.ResolveGroupID(cmd.Context(), args[0])
		if err != nil {
			fail(err)
		}
		params := map[string]any{"id": id, "limit": groupsMembersLimit}
		if groupsMembersQuery != "" {
			params["query"] = groupsMembersQuery
		}
		users, err := client.FetchMemberships(cmd.Context(), "/groups.memberships", params, "users")
		if err != nil {
			fail(err)
		}
		printListing(users, []string{"id", "email", "name"}, groupsMembersJSON)
	},
}

// groupUserCmd builds add-user and remove-user, which share everything
// but the endpoint and verb.
func groupUserCmd(use, short, path, verb string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <group> <user>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			client := newClient()
			groupID, err := client.ResolveGroupID(cmd.Context(), args[0])
			if err != nil {
				fail(err)
			}
			userID, err := client.ResolveUserID(cmd.Context(), args[1])
			if err != nil {
				fail(err)
			}
			payload := map[string]any{"id": groupID, "userId": userID}
			if _, err := client.PostJSON(cmd.Context(), path, payload); err != nil {
				fail(err)
			}
			fmt.Printf("%s %s %s group %s\n", verb, args[1], verbPreposition(verb), args[0])
		},
	}
}

func verbPreposition(verb string) string {
	if verb == "removed" {
		return "from"
	}
	return "to"
}

func init() {
	groupsListCmd.Flags().IntVar(&groupsListLimit, "limit", api.MaxPageSize, "page size for listing")
	groupsListCmd.Flags().IntVar(&groupsListWorkers, "workers", 4, "parallel page fetchers")
	groupsListCmd.Flags().BoolVar(&groupsListJSON, "json", false, "print JSON instead of a table")

	groupsUpdateCmd.Flags().StringVar(&groupsUpdateName, "name", "", "new group name")

	groupsMembersCmd.Flags().StringVar(&groupsMembersQuery, "query", "", "substring match on member name")
	groupsMembersCmd.Flags().IntVar(&groupsMembersLimit, "limit", api.MaxPageSize, "page size for listing")
	groupsMembersCmd.Flags().BoolVar(&groupsMembersJSON, "json", false, "print JSON instead of a table")

	groupsCmd.AddCommand(groupsListCmd)
	groupsCmd.AddCommand(groupsCreateCmd)
	groupsCmd.AddCommand(groupsUpdateCmd)
	groupsCmd.AddCommand(groupsDeleteCmd)
	groupsCmd.AddCommand(groupsMembersCmd)
	groupsCmd.AddCommand(groupUserCmd("add-user", "Add a user to a group", "/groups.add_user", "added"))
	groupsCmd.AddCommand(groupUserCmd("remove-user", "Remove a user from a group", "/groups.remove_user", "removed"))
	rootCmd.AddCommand(groupsCmd)
}
