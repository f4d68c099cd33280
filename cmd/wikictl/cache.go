package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/wikictl/wikictl/internal/config"
	"github.com/wikictl/wikictl/internal/mirror"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the local document mirror",
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show where the mirror lives and what it holds",
	Run: func(cmd *cobra.Command, args []string) {
		path := config.CacheFile()
		fmt.Printf("Cache file: %s\n", path)

		st, err := os.Stat(path)
		if err != nil {
			fmt.Println("Cache is empty (no file).")
			return
		}
		fmt.Printf("Size: %d bytes\n", st.Size())

		store := mirror.NewFileStore(path, newLogger())
		entries := store.Load()
		keys := make([]string, 0, len(entries))
		for key := range entries {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		fmt.Printf("Entries: %d\n", len(keys))
		for _, key := range keys {
			fmt.Printf("  %s (%d records)\n", key, len(entries[key]))
		}
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the mirror file",
	Run: func(cmd *cobra.Command, args []string) {
		path := config.CacheFile()
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				fmt.Println("Cache is already empty.")
				return
			}
			fail(err)
		}
		fmt.Printf("Removed %s\n", path)
	},
}

func init() {
	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
