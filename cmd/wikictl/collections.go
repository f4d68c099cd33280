package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wikictl/wikictl/internal/api"
	"github.com/wikictl/wikictl/internal/doctree"
	"github.com/wikictl/wikictl/internal/mirror"
	"github.com/wikictl/wikictl/internal/ui"
)

var collectionsCmd = &cobra.Command{
	Use:     "collections",
	Aliases: []string{"cols"},
	Short:   "List, export, and administer collections",
}

var (
	colsListLimit   int
	colsListWorkers int
	colsListJSON    bool
)

var collectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all collections",
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		cols, err := client.FetchAll(cmd.Context(), "/collections.list", nil, colsListLimit, colsListWorkers)
		if err != nil {
			fail(err)
		}
		printListing(cols, []string{"id", "name", "index", "permission", "createdAt", "updatedAt"}, colsListJSON)
	},
}

var (
	colsExportID      string
	colsExportOut     string
	colsExportFormat  string
	colsExportTree    bool
	colsExportRefresh bool
	colsExportWorkers int
)

var collectionsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every document of a collection to a directory",
	Long: `Export every document of a collection to a directory.

Documents are exported concurrently; one failed document is reported and
skipped rather than aborting the batch. With --tree the output mirrors the
document hierarchy as nested directories named by parent titles.`,
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		svc := newMirror()

		outDir, err := filepath.Abs(colsExportOut)
		if err != nil {
			fail(err)
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			fail(err)
		}

		docs, err := svc.Documents(cmd.Context(), client, colsExportID, mirror.Options{
			UseCache:     !colsExportRefresh,
			RefreshCache: colsExportRefresh,
			Workers:      colsExportWorkers,
		})
		if err != nil {
			fail(err)
		}
		if len(docs) == 0 {
			fmt.Println("No documents found in the collection.")
			return
		}

		byID := doctree.ByID(docs)
		ext := exportExtension(colsExportFormat)

		buildPath := func(doc api.Record) string {
			name := doc.Title()
			if name == "" {
				name = doc.ID()
			}
			if !colsExportTree {
				return filepath.Join(outDir, safeName(name)+"."+ext)
			}
			parts := []string{safeName(name) + "." + ext}
			seen := map[string]bool{}
			cur := doc
			for {
				pid := cur.ParentDocumentID()
				if pid == "" || seen[pid] {
					break
				}
				seen[pid] = true
				parent, ok := byID[pid]
				if !ok {
					break
				}
				segment := parent.Title()
				if segment == "" {
					segment = parent.ID()
				}
				parts = append([]string{safeName(segment)}, parts...)
				cur = parent
			}
			return filepath.Join(append([]string{outDir}, parts...)...)
		}

		pathByID := make(map[string]string, len(docs))
		ids := make([]string, 0, len(docs))
		for _, doc := range docs {
			if doc.ID() == "" {
				continue
			}
			ids = append(ids, doc.ID())
			pathByID[doc.ID()] = buildPath(doc)
		}

		written, errs := runBatch("Exporting", ids, colsExportWorkers, func(id string) error {
			text, err := client.ExportDocument(cmd.Context(), id)
			if err != nil {
				return err
			}
			path := pathByID[id]
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			return os.WriteFile(path, []byte(text), 0o644)
		})

		fmt.Printf("Exported %d/%d documents to %s\n", written, len(ids), outDir)
		printBatchErrors(errs)
	},
}

var (
	colsMembersQuery      string
	colsMembersPermission string
)

var collectionsMembersCmd = &cobra.Command{
	Use:   "members <collection-id>",
	Short: "List users with access to a collection",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		params := map[string]any{"id": args[0]}
		if colsMembersQuery != "" {
			params["query"] = colsMembersQuery
		}
		if colsMembersPermission != "" {
			params["permission"] = colsMembersPermission
		}
		users, err := client.FetchMemberships(cmd.Context(), "/collections.memberships", params, "users")
		if err != nil {
			fail(err)
		}
		ui.Table(os.Stdout, []string{"id", "email", "name"}, recordRows(users, []string{"id", "email", "name"}))
	},
}

var collectionsAddUserCmd = &cobra.Command{
	Use:   "add-user <collection-id> <user>",
	Short: "Grant a user access to a collection",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		uid, err := client.ResolveUserID(cmd.Context(), args[1])
		if err != nil {
			fail(err)
		}
		if _, err := client.PostJSON(cmd.Context(), "/collections.add_user", map[string]any{"id": args[0], "userId": uid}); err != nil {
			fail(err)
		}
		fmt.Printf("added %s to %s\n", args[1], args[0])
	},
}

var collectionsRemoveUserCmd = &cobra.Command{
	Use:   "remove-user <collection-id> <user>",
	Short: "Revoke a user's access to a collection",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		uid, err := client.ResolveUserID(cmd.Context(), args[1])
		if err != nil {
			fail(err)
		}
		if _, err := client.PostJSON(cmd.Context(), "/collections.remove_user", map[string]any{"id": args[0], "userId": uid}); err != nil {
			fail(err)
		}
		fmt.Printf("removed %s from %s\n", args[1], args[0])
	},
}

var collectionsAddGroupCmd = &cobra.Command{
	Use:   "add-group <collection-id> <group>",
	Short: "Grant a group access to a collection",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		gid, err := client.ResolveGroupID(cmd.Context(), args[1])
		if err != nil {
			fail(err)
		}
		if _, err := client.PostJSON(cmd.Context(), "/collections.add_group", map[string]any{"id": args[0], "groupId": gid}); err != nil {
			fail(err)
		}
		fmt.Printf("added group %s to %s\n", args[1], args[0])
	},
}

var collectionsRemoveGroupCmd = &cobra.Command{
	Use:   "remove-group <collection-id> <group>",
	Short: "Revoke a group's access to a collection",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		gid, err := client.ResolveGroupID(cmd.Context(), args[1])
		if err != nil {
			fail(err)
		}
		if _, err := client.PostJSON(cmd.Context(), "/collections.remove_group", map[string]any{"id": args[0], "groupId": gid}); err != nil {
			fail(err)
		}
		fmt.Printf("removed group %s from %s\n", args[1], args[0])
	},
}

var (
	colsGroupMembersQuery      string
	colsGroupMembersPermission string
)

var collectionsGroupMembersCmd = &cobra.Command{
	Use:   "group-members <collection-id>",
	Short: "List groups with access to a collection",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		params := map[string]any{"id": args[0]}
		if colsGroupMembersQuery != "" {
			params["query"] = colsGroupMembersQuery
		}
		if colsGroupMembersPermission != "" {
			params["permission"] = colsGroupMembersPermission
		}
		groups, err := client.FetchMemberships(cmd.Context(), "/collections.group_memberships", params, "groups")
		if err != nil {
			fail(err)
		}
		ui.Table(os.Stdout, []string{"id", "name", "memberCount"}, recordRows(groups, []string{"id", "name", "memberCount"}))
	},
}

func exportExtension(format string) string {
	if format == "markdown" {
		return "md"
	}
	return format
}

func init() {
	collectionsListCmd.Flags().IntVar(&colsListLimit, "limit", api.MaxPageSize, "page size for listing")
	collectionsListCmd.Flags().IntVar(&colsListWorkers, "workers", 4, "parallel page fetchers")
	collectionsListCmd.Flags().BoolVar(&colsListJSON, "json", false, "print JSON instead of a table")

	collectionsExportCmd.Flags().StringVar(&colsExportID, "id", "", "collection id (required)")
	collectionsExportCmd.Flags().StringVar(&colsExportOut, "out", ".", "output directory")
	collectionsExportCmd.Flags().StringVar(&colsExportFormat, "format", "md", "export format: md, markdown, html, json")
	collectionsExportCmd.Flags().BoolVar(&colsExportTree, "tree", false, "mirror the document hierarchy as directories")
	collectionsExportCmd.Flags().BoolVar(&colsExportRefresh, "refresh-cache", false, "ignore the mirror and refetch the document list")
	collectionsExportCmd.Flags().IntVar(&colsExportWorkers, "workers", 4, "parallel exports")
	collectionsExportCmd.MarkFlagRequired("id")

	collectionsMembersCmd.Flags().StringVar(&colsMembersQuery, "query", "", "filter members by name")
	collectionsMembersCmd.Flags().StringVar(&colsMembersPermission, "permission", "", "filter by permission level")
	collectionsGroupMembersCmd.Flags().StringVar(&colsGroupMembersQuery, "query", "", "filter groups by name")
	collectionsGroupMembersCmd.Flags().StringVar(&colsGroupMembersPermission, "permission", "", "filter by permission level")

	collectionsCmd.AddCommand(collectionsListCmd)
	collectionsCmd.AddCommand(collectionsExportCmd)
	collectionsCmd.AddCommand(collectionsMembersCmd)
	collectionsCmd.AddCommand(collectionsAddUserCmd)
	collectionsCmd.AddCommand(collectionsRemoveUserCmd)
	collectionsCmd.AddCommand(collectionsAddGroupCmd)
	collectionsCmd.AddCommand(collectionsRemoveGroupCmd)
	collectionsCmd.AddCommand(collectionsGroupMembersCmd)
	rootCmd.AddCommand(collectionsCmd)
}
