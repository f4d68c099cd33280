package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wikictl/wikictl/internal/api"
	"github.com/wikictl/wikictl/internal/interactive"
	"github.com/wikictl/wikictl/internal/ui"
)

var (
	importSrcDir  string
	importWorkers int
	importRefresh bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Interactively import a directory of markdown files",
	Long: `Pick a destination collection and folder by browsing the document
tree, then mirror the source directory into it. Subdirectories become
container documents so the imported tree keeps its shape.`,
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		svc := newMirror()

		srcDir, err := filepath.Abs(importSrcDir)
		if err != nil {
			fail(err)
		}
		info, err := os.Stat(srcDir)
		if err != nil || !info.IsDir() {
			ui.Fatalf("not a directory: %s", srcDir)
		}

		total := countMarkdown(srcDir)
		if total == 0 {
			fmt.Println("No markdown files found.")
			return
		}

		browser := &interactive.Browser{
			Client:       client,
			Service:      svc,
			Workers:      importWorkers,
			RefreshCache: importRefresh,
		}
		collID, parentID, label, err := browser.PickDestination(cmd.Context())
		if err != nil {
			fail(err)
		}

		ok, err := interactive.Confirm(fmt.Sprintf("Import %d documents into %q?", total, label), true)
		if err != nil {
			fail(err)
		}
		if !ok {
			ui.Canceled()
		}

		progress := ui.NewProgress("Importing", total)
		imported, errs := importTree(cmd.Context(), client, srcDir, collID, parentID, progress)
		progress.Done()

		fmt.Printf("Imported %d/%d documents into %q\n", imported, total, label)
		printBatchErrors(errs)
	},
}

// importTree walks dir depth-first. Each subdirectory containing at
// least one markdown file (at any depth) becomes a container document,
// each markdown file a child document.
func importTree(ctx context.Context, client *api.Client, dir, collID string, parentID *string, progress *ui.Progress) (int, []batchError) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, []batchError{{item: dir, msg: err.Error()}}
	}
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})

	imported := 0
	var errs []batchError
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if countMarkdown(path) == 0 {
				continue
			}
			folderID, err := createDocument(ctx, client, collID, parentID, entry.Name(), "")
			if err != nil {
				errs = append(errs, batchError{item: path, msg: err.Error()})
				continue
			}
			n, sub := importTree(ctx, client, path, collID, &folderID, progress)
			imported += n
			errs = append(errs, sub...)
			continue
		}
		if !isMarkdown(entry.Name()) {
			continue
		}
		text, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, batchError{item: path, msg: err.Error()})
			progress.Increment()
			continue
		}
		title := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if _, err := createDocument(ctx, client, collID, parentID, title, string(text)); err != nil {
			errs = append(errs, batchError{item: path, msg: err.Error()})
		} else {
			imported++
		}
		progress.Increment()
	}
	return imported, errs
}

func createDocument(ctx context.Context, client *api.Client, collID string, parentID *string, title, text string) (string, error) {
	payload := map[string]any{
		"title":        title,
		"text":         text,
		"collectionId": collID,
		"publish":      true,
	}
	if parentID != nil {
		payload["parentDocumentId"] = *parentID
	}
	resp, err := client.PostJSON(ctx, "/documents.create", payload)
	if err != nil {
		return "", err
	}
	if obj, ok := api.AsObject(resp); ok {
		if data, ok := api.AsObject(obj["data"]); ok {
			if id := api.Record(data).ID(); id != "" {
				return id, nil
			}
		}
	}
	return "", fmt.Errorf("create %q: no document id in response", title)
}

func isMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

func countMarkdown(dir string) int {
	n := 0
	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && isMarkdown(d.Name()) {
			n++
		}
		return nil
	})
	return n
}

func init() {
	importCmd.Flags().StringVar(&importSrcDir, "src-dir", "", "source directory (required)")
	importCmd.Flags().IntVar(&importWorkers, "workers", 4, "parallel page fetchers")
	importCmd.Flags().BoolVar(&importRefresh, "refresh-cache", false, "ignore the mirror and refetch")
	importCmd.MarkFlagRequired("src-dir")
	rootCmd.AddCommand(importCmd)
}
