package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jgarman/placeholder-disk/internal/config"
)

var (
	// cfgFile allows specifying a custom config file
	cfgFile string
	// verbose enables debug logging
	verbose bool

	logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "placeholder-disk",
		ReportTimestamp: true,
	})

	rootCmd = &cobra.Command{
		Use:   "placeholder-disk",
		Short: "Build the Stickies placeholder floppy and boot it with Speed Disk",
		Long: `placeholder-disk writes a 1440K HFS floppy holding a placeholder
"Stickies file" and a "Welcome!" note, then starts Basilisk II booted from
Speed Disk with the system disk catalog attached, so the placeholder can be
copied into each Preferences folder and defragmented into one extent.

Set DEBUG_SYSTEM_FILTER to only attach catalog disks whose name contains it.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "JSON config file (defaults are used when unset or missing)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadConfig reads .env and the config file.
func loadConfig() (*config.Config, error) {
	config.LoadDotEnv()
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func main() {
	// Interrupts cancel the context so the emulator is stopped and the
	// staging directory is removed on the way out.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Error("failed", "err", err)
		os.Exit(1)
	}
}
