package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nikolaykusch/TODOtoNOTION/internal/buffer"
	"github.com/nikolaykusch/TODOtoNOTION/internal/marker"
	"github.com/nikolaykusch/TODOtoNOTION/internal/ui"
	"github.com/nikolaykusch/TODOtoNOTION/internal/workspace"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show local markers and how they compare to the store",
	Long: `Scan the workspace for markers and report, per file, how many are
stamped, how many are still unidentified, and how the stamped ones
compare to their store records.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, root := mustConfig()
		logger := log.New(os.Stderr, "[sync] ", log.LstdFlags)

		fmt.Printf("%s Workspace %s (store: %s)\n", ui.RenderAccent("▸"), root, cfg.Mode)

		files, err := workspace.Scan(root, cfg.Extensions)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderErr("Error:"), err)
			os.Exit(1)
		}

		var all []marker.Record
		for _, path := range files {
			src := buffer.NewFileSource(path)
			lines, err := src.ReadLines()
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %s: %v\n", ui.RenderWarn("Warning:"), path, err)
				continue
			}
			all = append(all, marker.Extract(path, lines)...)
		}

		var stamped, unstamped int
		byFile := make(map[string][]marker.Record)
		for _, rec := range all {
			if rec.Assigned() {
				stamped++
			} else {
				unstamped++
			}
			byFile[rec.File] = append(byFile[rec.File], rec)
		}

		fmt.Printf("%s %d markers in %d files (%d stamped, %d pending)\n",
			ui.RenderAccent("▸"), len(all), len(byFile), stamped, unstamped)

		// Compare against the store when one is reachable; status stays
		// useful offline.
		store, closeStore, err := openStore(cfg, logger)
		if err == nil {
			defer closeStore()
			remoteRecords, err := store.ListRecords(context.Background())
			if err != nil {
				fmt.Printf("%s store unreachable, showing local view only\n", ui.RenderWarn("!"))
			} else {
				remoteByID := make(map[string]string, len(remoteRecords))
				for _, r := range remoteRecords {
					remoteByID[r.ID] = r.Text
				}
				var missing, drifted int
				for _, rec := range all {
					if !rec.Assigned() {
						continue
					}
					text, ok := remoteByID[rec.ID]
					if !ok {
						missing++
					} else if text != rec.Text {
						drifted++
					}
				}
				fmt.Printf("%s %d records in store, %d markers unsynced, %d drifted\n",
					ui.RenderAccent("▸"), len(remoteRecords), missing, drifted)
			}
		}

		paths := make([]string, 0, len(byFile))
		for path := range byFile {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		for _, path := range paths {
			fmt.Printf("\n%s\n", ui.RenderAccent(path))
			for _, rec := range byFile[path] {
				mark := ui.RenderPass("●")
				if !rec.Assigned() {
					mark = ui.RenderWarn("○")
				}
				fmt.Printf("  %s %4d  %s: %s\n", mark, rec.Line+1, rec.Kind, rec.Text)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
