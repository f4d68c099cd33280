package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/wikictl/wikictl/internal/api"
	"github.com/wikictl/wikictl/internal/config"
	"github.com/wikictl/wikictl/internal/interactive"
	"github.com/wikictl/wikictl/internal/mirror"
	"github.com/wikictl/wikictl/internal/ui"
)

func newLogger() *log.Logger {
	return config.DebugLogger(flagDebug)
}

// newClient builds the API client from saved credentials, exiting with a
// single diagnostic when auth has not been set up.
func newClient() *api.Client {
	cfg, err := config.Load()
	if err != nil {
		ui.Fatalf("%v", err)
	}
	base, token, err := cfg.Credentials()
	if err != nil {
		ui.Fatalf("%v", err)
	}
	return api.New(base, token, newLogger())
}

func newMirror() *mirror.Service {
	logger := newLogger()
	return mirror.NewService(mirror.NewFileStore(config.CacheFile(), logger), logger)
}

// fail terminates the command on any error, distinguishing user
// cancellation of an interactive prompt from real failures.
func fail(err error) {
	if errors.Is(err, interactive.ErrCanceled) {
		ui.Canceled()
	}
	ui.Fatalf("%v", err)
}

var (
	unsafeNameChars = regexp.MustCompile(`[\\/:*?"<>|]`)
	collapseSpaces  = regexp.MustCompile(`\s+`)
)

// safeName turns a document title into a filesystem-safe file name.
func safeName(name string) string {
	const maxLen = 120
	name = strings.TrimSpace(name)
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = collapseSpaces.ReplaceAllString(name, " ")
	if len(name) > maxLen {
		name = strings.TrimRight(name[:maxLen], " ")
	}
	if name == "" {
		return "untitled"
	}
	return name
}

type batchError struct {
	item string
	msg  string
}

// runBatch runs fn over items with bounded concurrency, counting
// successes and collecting per-item errors so one failed item never
// aborts the rest of the batch.
func runBatch(label string, items []string, workers int, fn func(item string) error) (int, []batchError) {
	if workers < 1 {
		workers = 1
	}
	progress := ui.NewProgress(label, len(items))
	defer progress.Done()

	var (
		mu   sync.Mutex
		ok   int
		errs []batchError
		wg   sync.WaitGroup
	)
	sem := make(chan struct{}, workers)
	for _, item := range items {
		wg.Add(1)
		go func(item string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			err := fn(item)
			mu.Lock()
			if err != nil {
				errs = append(errs, batchError{item: item, msg: err.Error()})
			} else {
				ok++
			}
			mu.Unlock()
			progress.Increment()
		}(item)
	}
	wg.Wait()
	return ok, errs
}

// printBatchErrors lists up to ten per-item failures.
func printBatchErrors(errs []batchError) {
	if len(errs) == 0 {
		return
	}
	fmt.Printf("Errors (%d):\n", len(errs))
	for i, e := range errs {
		if i == 10 {
			fmt.Printf("  ... and %d more\n", len(errs)-10)
			break
		}
		fmt.Printf("  %s: %s\n", e.item, e.msg)
	}
}

// recordRows projects records onto table cells for the given fields.
func recordRows(records []api.Record, fields []string) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = r.Field(f)
		}
		rows = append(rows, row)
	}
	return rows
}

// rowObjects projects records onto field-limited maps for --json output.
func rowObjects(records []api.Record, fields []string) []map[string]string {
	rows := make([]map[string]string, 0, len(records))
	for _, r := range records {
		row := make(map[string]string, len(fields))
		for _, f := range fields {
			row[f] = r.Field(f)
		}
		rows = append(rows, row)
	}
	return rows
}

func printListing(records []api.Record, fields []string, asJSON bool) {
	if asJSON {
		api.PrintJSON(os.Stdout, map[string]any{
			"total": len(records),
			"data":  rowObjects(records, fields),
		})
		return
	}
	ui.Table(os.Stdout, fields, recordRows(records, fields))
}
