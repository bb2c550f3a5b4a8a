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

var pushCmd = &cobra.Command{
	Use:   "push [file...]",
	Short: "Push local markers to the store",
	Long: `Run a push pass: stamp unidentified markers with fresh identifiers,
create store records for them, update records whose marker text changed,
and archive records whose markers were deleted.

Without arguments every tracked file in the workspace is pushed.`,
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

		var created, updated, archived, stamped, failed int
		for _, path := range files {
			result, err := eng.Push(ctx, buffer.NewFileSource(path))
			if err != nil {
				if engine.IsUnavailable(err) {
					fmt.Fprintf(os.Stderr, "%s store unavailable, stopping\n", ui.RenderWarn("Warning:"))
					os.Exit(1)
				}
				fmt.Fprintf(os.Stderr, "%s %s: %v\n", ui.RenderWarn("Warning:"), path, err)
				continue
			}
			stamped += result.Stamped
			created += len(result.Created)
			updated += len(result.Updated)
			archived += len(result.Archived)
			failed += len(result.Failed)
		}

		fmt.Printf("%s %d stamped, %d created, %d updated, %d archived\n",
			ui.RenderPass("✓"), stamped, created, updated, archived)
		if failed > 0 {
			fmt.Printf("%s %d operations failed; they will retry on the next pass\n",
				ui.RenderWarn("!"), failed)
		}
	},
}

func init() {
	rootCmd.AddCommand(pushCmd)
}
