// wikictl is a command-line client for an Outline-compatible document
// wiki: list and export collections and documents, import Markdown trees,
// and run user/group administration, with a local mirror cache so
// interactive browsing stays fast.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagDebug bool

var rootCmd = &cobra.Command{
	Use:     "wikictl",
	Short:   "CLI for an Outline-compatible document wiki",
	Version: "0.4.1",
	Long: `wikictl talks to the wiki's REST API with a bearer token saved by
'wikictl auth set'. Paginated listings are fetched with a bounded worker
pool and mirrored to a local cache file; --refresh-cache forces a live
fetch and --workers controls fetch concurrency.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "write a debug trace to the log file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}
