package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/nikolaykusch/TODOtoNOTION/internal/config"
	"github.com/nikolaykusch/TODOtoNOTION/internal/remote"
	"github.com/nikolaykusch/TODOtoNOTION/internal/ui"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var workspaceDir string

var rootCmd = &cobra.Command{
	Use:   "t2n",
	Short: "Sync inline TODO markers with a structured task store",
	Long: `t2n keeps TODO/FIXME-style source markers and a structured store in sync.

Markers carry an embedded [id:...] identifier linking a source line to a
store record. Pushing stamps unidentified markers, creates and updates
records, and archives records whose markers were deleted. Pulling applies
remote text edits and archivals back to the source files.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspaceDir, "dir", "C", ".", "workspace root directory")
}

// mustConfig resolves the workspace root (walking up from --dir to the
// nearest .t2n directory), then loads and validates the configuration,
// exiting with a readable error when it is incomplete. It returns the
// configuration and the resolved root.
func mustConfig() (*config.Config, string) {
	root := config.FindRoot(workspaceDir)
	cfg, err := config.Load(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderErr("Error:"), err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderErr("Error:"), err)
		fmt.Fprintf(os.Stderr, "%s\n", ui.RenderDim("Run 't2n init' and fill in .t2n/config.yaml, or set NOTION_TOKEN and NOTION_DATABASE_ID."))
		os.Exit(1)
	}
	return cfg, root
}

// openStore builds the remote store the configuration selects. The
// returned closer is a no-op for stores without resources to release.
func openStore(cfg *config.Config, logger *log.Logger) (remote.Store, func(), error) {
	switch cfg.Mode {
	case config.ModeSQLite:
		store, err := remote.OpenSQLiteStore(cfg.StorePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, func() { _ = store.Close() }, nil

	case config.ModeNotion:
		store := remote.NewNotionStore(cfg.NotionToken, cfg.NotionDatabaseID, logger)
		return store, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store mode %q", cfg.Mode)
	}
}
