package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wikictl/wikictl/internal/api"
	"github.com/wikictl/wikictl/internal/doctree"
	"github.com/wikictl/wikictl/internal/interactive"
	"github.com/wikictl/wikictl/internal/mirror"
	"github.com/wikictl/wikictl/internal/ui"
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "List, export, and import documents",
}

var (
	docsListCollection string
	docsListLimit      int
	docsListWorkers    int
	docsListJSON       bool
)

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents, optionally within one collection",
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		params := map[string]any{}
		if docsListCollection != "" {
			params["collectionId"] = docsListCollection
		}
		docs, err := client.FetchAll(cmd.Context(), "/documents.list", params, docsListLimit, docsListWorkers)
		if err != nil {
			fail(err)
		}
		printListing(docs, []string{"id", "title", "collectionId", "parentDocumentId", "urlId", "updatedAt"}, docsListJSON)
	},
}

var (
	docsTreeCollection string
	docsTreeRoot       string
	docsTreeMaxDepth   int
	docsTreeShowIDs    bool
	docsTreeJSON       bool
	docsTreeWorkers    int
	docsTreeRefresh    bool
)

var docsTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Render a collection's document hierarchy",
	Long: `Render a collection's document hierarchy as an ASCII tree.

The document list comes from the local mirror when present; use
--refresh-cache to refetch it. Documents whose parent is not part of the
collection (partially fetched subtrees) are rendered as roots.`,
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		svc := newMirror()

		docs, err := svc.Documents(cmd.Context(), client, docsTreeCollection, mirror.Options{
			UseCache:     true,
			RefreshCache: docsTreeRefresh,
			Workers:      docsTreeWorkers,
		})
		if err != nil {
			fail(err)
		}
		if len(docs) == 0 {
			fmt.Println("No documents in collection.")
			return
		}

		children := doctree.ChildrenByParent(docs)
		var roots []api.Record
		if docsTreeRoot != "" {
			root, ok := doctree.ByID(docs)[docsTreeRoot]
			if !ok {
				ui.Fatalf("root id not found in this collection: %s", docsTreeRoot)
			}
			roots = []api.Record{root}
		} else {
			roots = doctree.Roots(docs)
		}

		if docsTreeJSON {
			api.PrintJSON(os.Stdout, doctree.Nodes(roots, children, docsTreeMaxDepth))
			return
		}
		doctree.Render(os.Stdout, roots, children, doctree.RenderOptions{
			MaxDepth: docsTreeMaxDepth,
			ShowIDs:  docsTreeShowIDs,
		})
	},
}

var (
	docsExportID  string
	docsExportOut string
)

var docsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a single document to a file",
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		text, err := client.ExportDocument(cmd.Context(), docsExportID)
		if err != nil {
			fail(err)
		}
		if err := os.WriteFile(docsExportOut, []byte(text), 0o644); err != nil {
			fail(err)
		}
		fmt.Printf("Wrote %s\n", docsExportOut)
	},
}

var (
	docsBatchOutDir      string
	docsBatchIDs         []string
	docsBatchFromFile    string
	docsBatchInteractive bool
	docsBatchCollection  string
	docsBatchUseTitles   bool
	docsBatchFormat      string
	docsBatchWorkers     int
	docsBatchRefresh     bool
)

var docsExportBatchCmd = &cobra.Command{
	Use:   "export-batch",
	Short: "Export many documents by id",
	Long: `Export many documents into a directory.

Document ids come from --id flags, an id-per-line file (--from-file, with
# comments), or an interactive picker over one collection
(--interactive --collection-id). Failed documents are skipped and
reported at the end.`,
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()

		outDir, err := filepath.Abs(docsBatchOutDir)
		if err != nil {
			fail(err)
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			fail(err)
		}

		ids := append([]string{}, docsBatchIDs...)
		if docsBatchInteractive {
			if docsBatchCollection == "" {
				ui.Fatalf("interactive export requires --collection-id")
			}
			docs, err := newMirror().Documents(cmd.Context(), client, docsBatchCollection, mirror.Options{
				UseCache:     true,
				RefreshCache: docsBatchRefresh,
				Workers:      docsBatchWorkers,
			})
			if err != nil {
				fail(err)
			}
			picked, err := interactive.SelectDocuments(docs, true)
			if err != nil {
				fail(err)
			}
			ids = append(ids, picked...)
		}
		if docsBatchFromFile != "" {
			fromFile, err := readIDFile(docsBatchFromFile)
			if err != nil {
				fail(err)
			}
			ids = append(ids, fromFile...)
		}

		ids = dedupe(ids)
		if len(ids) == 0 {
			ui.Fatalf("no document ids provided or selected; use --interactive with --collection-id, or --id/--from-file")
		}

		ext := exportExtension(docsBatchFormat)
		nameFor := func(id string) string {
			if !docsBatchUseTitles {
				return id + "." + ext
			}
			resp, err := client.PostJSON(cmd.Context(), "/documents.info", map[string]any{"id": id})
			if err == nil {
				if obj, ok := api.AsObject(resp); ok {
					if data, ok := api.AsObject(obj["data"]); ok {
						if title := api.Record(data).Title(); title != "" {
							return safeName(title) + "." + ext
						}
					}
				}
			}
			return id + "." + ext
		}

		written, errs := runBatch("Exporting", ids, docsBatchWorkers, func(id string) error {
			text, err := client.ExportDocument(cmd.Context(), id)
			if err != nil {
				return err
			}
			return os.WriteFile(filepath.Join(outDir, nameFor(id)), []byte(text), 0o644)
		})

		fmt.Printf("Exported %d/%d documents to %s\n", written, len(ids), outDir)
		printBatchErrors(errs)
	},
}

var (
	docsImportFile       string
	docsImportCollection string
	docsImportParent     string
)

var docsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Upload a single file as a document",
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		content, err := os.ReadFile(docsImportFile)
		if err != nil {
			ui.Fatalf("file not found: %s", docsImportFile)
		}
		fields := map[string]string{"collectionId": docsImportCollection}
		if docsImportParent != "" {
			fields["parentDocumentId"] = docsImportParent
		}
		resp, err := client.PostMultipart(cmd.Context(), "/documents.import", fields, api.FilePart{
			FieldName:   "file",
			FileName:    filepath.Base(docsImportFile),
			ContentType: "text/markdown",
			Content:     content,
		})
		if err != nil {
			fail(err)
		}
		api.PrintJSON(os.Stdout, resp)
	},
}

var (
	docsImportDirDir         string
	docsImportDirCollection  string
	docsImportDirParent      string
	docsImportDirInteractive bool
	docsImportDirWorkers     int
	docsImportDirRefresh     bool
)

var docsImportDirCmd = &cobra.Command{
	Use:   "import-dir",
	Short: "Upload every Markdown file under a directory",
	Long: `Upload every Markdown file found under a directory (recursively) into
one collection, all under the same parent. Use --interactive to pick the
parent from the collection's documents. Directory structure is not
preserved; the top-level 'import' command keeps it.`,
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()

		srcDir, err := filepath.Abs(docsImportDirDir)
		if err != nil {
			fail(err)
		}
		info, err := os.Stat(srcDir)
		if err != nil || !info.IsDir() {
			ui.Fatalf("directory not found: %s", srcDir)
		}

		parentID := docsImportDirParent
		if docsImportDirInteractive {
			docs, err := newMirror().Documents(cmd.Context(), client, docsImportDirCollection, mirror.Options{
				UseCache:     true,
				RefreshCache: docsImportDirRefresh,
				Workers:      docsImportDirWorkers,
			})
			if err != nil {
				fail(err)
			}
			picked, err := interactive.PickParent(docs, true)
			if err != nil {
				fail(err)
			}
			if picked != nil {
				parentID = *picked
			} else {
				parentID = ""
			}
		}

		files := markdownFiles(srcDir)
		if len(files) == 0 {
			ui.Fatalf("no Markdown files found in the directory")
		}

		imported, errs := runBatch("Importing", files, docsImportDirWorkers, func(path string) error {
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			fields := map[string]string{"collectionId": docsImportDirCollection}
			if parentID != "" {
				fields["parentDocumentId"] = parentID
			}
			resp, err := client.PostMultipart(cmd.Context(), "/documents.import", fields, api.FilePart{
				FieldName:   "file",
				FileName:    filepath.Base(path),
				ContentType: "text/markdown",
				Content:     content,
			})
			if err != nil {
				return err
			}
			if obj, ok := api.AsObject(resp); ok && obj["ok"] == false {
				return fmt.Errorf("server rejected the import: %v", obj["error"])
			}
			return nil
		})

		target := parentID
		if target == "" {
			target = "ROOT"
		}
		fmt.Printf("Imported %d/%d files into collection %s (parent=%s)\n", imported, len(files), docsImportDirCollection, target)
		printBatchErrors(errs)
	},
}

func readIDFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, line := range strings.Split(string(data), "\n") {
		s := strings.TrimSpace(line)
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		ids = append(ids, s)
	}
	return ids, nil
}

func dedupe(ids []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func markdownFiles(root string) []string {
	var files []string
	filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if isMarkdown(path) {
			files = append(files, path)
		}
		return nil
	})
	return files
}

func init() {
	docsListCmd.Flags().StringVar(&docsListCollection, "collection-id", "", "restrict to one collection")
	docsListCmd.Flags().IntVar(&docsListLimit, "limit", api.MaxPageSize, "page size for listing")
	docsListCmd.Flags().IntVar(&docsListWorkers, "workers", 4, "parallel page fetchers")
	docsListCmd.Flags().BoolVar(&docsListJSON, "json", false, "print JSON instead of a table")

	docsTreeCmd.Flags().StringVar(&docsTreeCollection, "collection-id", "", "collection id (required)")
	docsTreeCmd.Flags().StringVar(&docsTreeRoot, "root-id", "", "render only the subtree under this document")
	docsTreeCmd.Flags().IntVar(&docsTreeMaxDepth, "max-depth", 0, "limit tree depth (0 = unlimited)")
	docsTreeCmd.Flags().BoolVar(&docsTreeShowIDs, "show-ids", false, "append document ids to every line")
	docsTreeCmd.Flags().BoolVar(&docsTreeJSON, "json", false, "print the tree as nested JSON")
	docsTreeCmd.Flags().IntVar(&docsTreeWorkers, "workers", 4, "parallel page fetchers")
	docsTreeCmd.Flags().BoolVar(&docsTreeRefresh, "refresh-cache", false, "ignore the mirror and refetch")
	docsTreeCmd.MarkFlagRequired("collection-id")

	docsExportCmd.Flags().StringVar(&docsExportID, "id", "", "document id (required)")
	docsExportCmd.Flags().StringVar(&docsExportOut, "out", "", "output file (required)")
	docsExportCmd.MarkFlagRequired("id")
	docsExportCmd.MarkFlagRequired("out")

	docsExportBatchCmd.Flags().StringVar(&docsBatchOutDir, "out-dir", ".", "output directory")
	docsExportBatchCmd.Flags().StringArrayVar(&docsBatchIDs, "id", nil, "document id (repeatable)")
	docsExportBatchCmd.Flags().StringVar(&docsBatchFromFile, "from-file", "", "file with one document id per line")
	docsExportBatchCmd.Flags().BoolVar(&docsBatchInteractive, "interactive", false, "pick documents interactively")
	docsExportBatchCmd.Flags().StringVar(&docsBatchCollection, "collection-id", "", "collection for --interactive")
	docsExportBatchCmd.Flags().BoolVar(&docsBatchUseTitles, "use-titles", false, "name files by document title instead of id")
	docsExportBatchCmd.Flags().StringVar(&docsBatchFormat, "format", "md", "export format: md, markdown, html, json")
	docsExportBatchCmd.Flags().IntVar(&docsBatchWorkers, "workers", 4, "parallel exports")
	docsExportBatchCmd.Flags().BoolVar(&docsBatchRefresh, "refresh-cache", false, "ignore the mirror and refetch")

	docsImportCmd.Flags().StringVar(&docsImportFile, "file", "", "file to upload (required)")
	docsImportCmd.Flags().StringVar(&docsImportCollection, "collection-id", "", "destination collection (required)")
	docsImportCmd.Flags().StringVar(&docsImportParent, "parent-id", "", "parent document id")
	docsImportCmd.MarkFlagRequired("file")
	docsImportCmd.MarkFlagRequired("collection-id")

	docsImportDirCmd.Flags().StringVar(&docsImportDirDir, "dir", "", "directory with Markdown files (required)")
	docsImportDirCmd.Flags().StringVar(&docsImportDirCollection, "collection-id", "", "destination collection (required)")
	docsImportDirCmd.Flags().StringVar(&docsImportDirParent, "parent-id", "", "parent document id")
	docsImportDirCmd.Flags().BoolVar(&docsImportDirInteractive, "interactive", false, "pick the parent interactively")
	docsImportDirCmd.Flags().IntVar(&docsImportDirWorkers, "workers", 4, "parallel uploads")
	docsImportDirCmd.Flags().BoolVar(&docsImportDirRefresh, "refresh-cache", false, "ignore the mirror and refetch")
	docsImportDirCmd.MarkFlagRequired("dir")
	docsImportDirCmd.MarkFlagRequired("collection-id")

	documentsCmd.AddCommand(docsListCmd)
	documentsCmd.AddCommand(docsTreeCmd)
	documentsCmd.AddCommand(docsExportCmd)
	documentsCmd.AddCommand(docsExportBatchCmd)
	documentsCmd.AddCommand(docsImportCmd)
	documentsCmd.AddCommand(docsImportDirCmd)
	rootCmd.AddCommand(documentsCmd)
}
