package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wikictl/wikictl/internal/api"
	"github.com/wikictl/wikictl/internal/mirror"
)

var (
	diagWorkers      int
	diagCollectionID string
)

var diagCmd = &cobra.Command{
	Use:   "diag",
	Short: "Raw API dumps for troubleshooting",
	Long: `Fetch straight from the server, bypassing the local mirror, and print
the raw records as JSON. Useful when the mirror looks stale or a listing
command renders something unexpected.`,
}

var diagCollectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "Dump all collections from the server",
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		svc := newMirror()
		cols, err := svc.Collections(cmd.Context(), client, mirror.Options{
			UseCache: false,
			Workers:  diagWorkers,
		})
		if err != nil {
			fail(err)
		}
		api.PrintJSON(os.Stdout, map[string]any{"total": len(cols), "data": cols})
	},
}

var diagDocumentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Dump every document of one collection from the server",
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		svc := newMirror()
		docs, err := svc.Documents(cmd.Context(), client, diagCollectionID, mirror.Options{
			UseCache: false,
			Workers:  diagWorkers,
		})
		if err != nil {
			fail(err)
		}
		fmt.Fprintf(os.Stderr, "fetched %d documents\n", len(docs))
		api.PrintJSON(os.Stdout, map[string]any{"total": len(docs), "data": docs})
	},
}

func init() {
	diagCollectionsCmd.Flags().IntVar(&diagWorkers, "workers", 4, "parallel page fetchers")
	diagDocumentsCmd.Flags().IntVar(&diagWorkers, "workers", 4, "parallel page fetchers")
	diagDocumentsCmd.Flags().StringVar(&diagCollectionID, "collection-id", "", "collection to dump (required)")
	diagDocumentsCmd.MarkFlagRequired("collection-id")
	diagCmd.AddCommand(diagCollectionsCmd)
	diagCmd.AddCommand(diagDocumentsCmd)
	rootCmd.AddCommand(diagCmd)
}
