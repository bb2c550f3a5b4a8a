package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/nikolaykusch/TODOtoNOTION/internal/buffer"
	"github.com/nikolaykusch/TODOtoNOTION/internal/cache"
	"github.com/nikolaykusch/TODOtoNOTION/internal/engine"
	"github.com/nikolaykusch/TODOtoNOTION/internal/ui"
	"github.com/nikolaykusch/TODOtoNOTION/internal/workspace"
)

var pullCmd = &cobra.Command{
	Use:   "pull [file...]",
	Short: "Apply remote edits and archivals to local files",
	Long: `Run a pull pass: rewrite marker lines whose record text changed
remotely, and delete marker lines whose records were archived.

Pull never creates marker lines; a record with no matching marker is
left alone.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, root := mustConfig()
		logger := log.New(os.Stderr, "[sync] ", log.LstdFlags)

		store, closeStore, err := openStore(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderErr("Error:"), err)
			os.Exit(1)
		}
		defer closeStore()

		files := args
		if len(files) == 0 {
			files, err = workspace.Scan(root, cfg.Extensions)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderErr("Error:"), err)
				os.Exit(1)
			}
		}

		eng := engine.New(store, cache.New(), logger)
		ctx := context.Background()

		var edited, deleted, failed int
		for _, path := range files {
			result, err := eng.Pull(ctx, buffer.NewFileSource(path))
			if err != nil {
				if engine.IsUnavailable(err) {
					fmt.Fprintf(os.Stderr, "%s store unavailable, stopping\n", ui.RenderWarn("Warning:"))
					os.Exit(1)
				}
				fmt.Fprintf(os.Stderr, "%s %s: %v\n", ui.RenderWarn("Warning:"), path, err)
				continue
			}
			edited += len(result.Updated)
			deleted += len(result.Deleted)
			failed += len(result.Failed)
		}

		fmt.Printf("%s %d lines edited, %d lines deleted\n", ui.RenderPass("✓"), edited, deleted)
		if failed > 0 {
			fmt.Printf("%s %d operations failed\n", ui.RenderWarn("!"), failed)
		}
	},
}

func init() {
	rootCmd.AddCommand(pullCmd)
}
