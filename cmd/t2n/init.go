package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nikolaykusch/TODOtoNOTION/internal/config"
	"github.com/nikolaykusch/TODOtoNOTION/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the .t2n configuration directory",
	Long: `Create .t2n/config.yaml with a commented default configuration.

An existing config file is left untouched.`,
	Run: func(cmd *cobra.Command, args []string) {
		path, err := config.Init(workspaceDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderErr("Error:"), err)
			os.Exit(1)
		}
		fmt.Printf("%s Configuration at %s\n", ui.RenderPass("✓"), path)
		fmt.Printf("%s\n", ui.RenderDim("Set NOTION_TOKEN and NOTION_DATABASE_ID, or switch store.mode to sqlite."))
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
