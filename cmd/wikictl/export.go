package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wikictl/wikictl/internal/api"
	"github.com/wikictl/wikictl/internal/doctree"
	"github.com/wikictl/wikictl/internal/interactive"
	"github.com/wikictl/wikictl/internal/mirror"
	"github.com/wikictl/wikictl/internal/ui"
)

var (
	exportOutDir  string
	exportWorkers int
	exportFormat  string
	exportUseIDs  bool
	exportRefresh bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Interactively browse and export documents and collections",
	Long: `Browse collections and documents like a file manager, toggle what to
export, and write everything to the output directory.

Only the parts of the tree actually opened are fetched from the API,
which keeps startup fast for large workspaces. Exported files are laid
out under collection/parent-title directories (or raw ids with
--use-ids).`,
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		svc := newMirror()

		outDir, err := filepath.Abs(exportOutDir)
		if err != nil {
			fail(err)
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			fail(err)
		}

		browser := &interactive.Browser{
			Client:       client,
			Service:      svc,
			Workers:      exportWorkers,
			RefreshCache: exportRefresh,
		}
		docIDs, colIDs, err := browser.BrowseForExport(cmd.Context())
		if err != nil {
			fail(err)
		}

		collections, err := svc.Collections(cmd.Context(), client, mirror.Options{
			UseCache:     true,
			RefreshCache: exportRefresh,
			Workers:      exportWorkers,
		})
		if err != nil {
			fail(err)
		}
		colsByID := map[string]api.Record{}
		for _, coll := range collections {
			colsByID[coll.ID()] = coll
		}

		// Selected collections contribute their full document list.
		allIDs := map[string]bool{}
		for _, id := range docIDs {
			allIDs[id] = true
		}
		for _, cid := range colIDs {
			docs, err := svc.Documents(cmd.Context(), client, cid, mirror.Options{
				UseCache:     true,
				RefreshCache: exportRefresh,
				Workers:      exportWorkers,
			})
			if err != nil {
				fail(err)
			}
			for _, d := range docs {
				if d.ID() != "" {
					allIDs[d.ID()] = true
				}
			}
		}
		if len(allIDs) == 0 {
			fmt.Println("Nothing selected for export.")
			return
		}

		ext := exportExtension(exportFormat)

		// documents.info lookups are memoized: ancestor chains share
		// most of their path segments.
		infoCache := map[string]api.Record{}
		getInfo := func(id string) api.Record {
			if info, ok := infoCache[id]; ok {
				return info
			}
			info := api.Record{}
			resp, err := client.PostJSON(cmd.Context(), "/documents.info", map[string]any{"id": id})
			if err == nil {
				if obj, ok := api.AsObject(resp); ok {
					if data, ok := api.AsObject(obj["data"]); ok {
						info = api.Record(data)
					}
				}
			}
			infoCache[id] = info
			return info
		}

		buildPath := func(docID string) string {
			info := getInfo(docID)
			name := docID
			if !exportUseIDs {
				title := info.Title()
				if title == "" {
					title = docID
				}
				name = safeName(title)
			}
			parts := []string{name + "." + ext}
			seen := map[string]bool{docID: true}
			cur := info
			for {
				pid := cur.ParentDocumentID()
				if pid == "" || seen[pid] {
					break
				}
				seen[pid] = true
				parent := getInfo(pid)
				if parent.ID() == "" {
					break
				}
				segment := pid
				if !exportUseIDs {
					segment = safeName(doctree.DisplayTitle(parent))
				}
				parts = append([]string{segment}, parts...)
				cur = parent
			}
			collSegment := info.CollectionID()
			if !exportUseIDs {
				if coll, ok := colsByID[info.CollectionID()]; ok {
					collSegment = safeName(coll.Name())
				} else {
					collSegment = safeName(collSegment)
				}
			}
			parts = append([]string{collSegment}, parts...)
			return filepath.Join(append([]string{outDir}, parts...)...)
		}

		ids := make([]string, 0, len(allIDs))
		for id := range allIDs {
			ids = append(ids, id)
		}

		written := 0
		var errs []batchError
		progress := ui.NewProgress("Exporting", len(ids))
		for _, id := range ids {
			text, err := client.ExportDocument(cmd.Context(), id)
			if err == nil {
				path := buildPath(id)
				if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr == nil {
					err = os.WriteFile(path, []byte(text), 0o644)
				} else {
					err = mkErr
				}
			}
			if err != nil {
				errs = append(errs, batchError{item: id, msg: err.Error()})
			} else {
				written++
			}
			progress.Increment()
		}
		progress.Done()

		fmt.Printf("Exported %d/%d documents to %s\n", written, len(ids), outDir)
		printBatchErrors(errs)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOutDir, "out-dir", "", "output directory (required)")
	exportCmd.Flags().IntVar(&exportWorkers, "workers", 4, "parallel page fetchers")
	exportCmd.Flags().StringVar(&exportFormat, "format", "md", "export format: md, markdown, html, json")
	exportCmd.Flags().BoolVar(&exportUseIDs, "use-ids", false, "name files and directories by id instead of title")
	exportCmd.Flags().BoolVar(&exportRefresh, "refresh-cache", false, "ignore the mirror and refetch")
	exportCmd.MarkFlagRequired("out-dir")
	rootCmd.AddCommand(exportCmd)
}
