package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nikolaykusch/TODOtoNOTION/internal/cache"
	"github.com/nikolaykusch/TODOtoNOTION/internal/daemon"
	"github.com/nikolaykusch/TODOtoNOTION/internal/dashboard"
	"github.com/nikolaykusch/TODOtoNOTION/internal/engine"
	"github.com/nikolaykusch/TODOtoNOTION/internal/ui"
)

var watchDashboard bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the workspace and sync on save",
	Long: `Run the sync daemon: an initial push pass over the workspace, then a
push pass on every file save and a periodic pull pass applying remote
edits. Saves performed by the daemon itself are suppressed and do not
retrigger a pass.

With --dashboard a WebSocket server broadcasts pass results on
/ws for real-time monitoring.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, root := mustConfig()

		logger := log.New(os.Stderr, "[sync] ", log.LstdFlags)
		daemonCfg := daemon.DefaultConfig()
		daemonCfg.PullInterval = cfg.PullInterval
		if cfg.LogFile != "" {
			daemonCfg.Logger = daemon.NewFileLogger(cfg.LogFile)
			logger = daemonCfg.Logger
		}

		store, closeStore, err := openStore(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderErr("Error:"), err)
			os.Exit(1)
		}
		defer closeStore()

		eng := engine.New(store, cache.New(), logger)

		d, err := daemon.NewWithConfig(eng, root, cfg.Extensions, daemonCfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderErr("Error:"), err)
			os.Exit(1)
		}

		if watchDashboard {
			server := dashboard.NewServer(&dashboard.Config{
				Port:   cfg.DashboardPort,
				Logger: logger,
			})
			if err := server.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderErr("Error:"), err)
				os.Exit(1)
			}
			defer func() { _ = server.Stop() }()

			d.SetNotifier(dashboard.NewHandler(server, logger))
			fmt.Printf("%s Dashboard at http://%s\n", ui.RenderAccent("▸"), server.GetAddr())
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("%s Watching %s (Ctrl-C to stop)\n", ui.RenderAccent("▸"), root)
		if err := d.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderErr("Error:"), err)
			os.Exit(1)
		}
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchDashboard, "dashboard", false, "serve the WebSocket activity dashboard")
	rootCmd.AddCommand(watchCmd)
}
