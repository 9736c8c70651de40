package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jgarman/placeholder-disk/internal/catalog"
)

var catalogFilter string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the companion disks a run would attach",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		filter, active := catalogFilter, catalogFilter != ""
		if !cmd.Flags().Changed("filter") {
			filter, active = catalog.FilterFromEnv(os.LookupEnv)
		}
		disks := cfg.Catalog
		if active {
			disks = catalog.Filter(cfg.Catalog, filter)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "boot  %s\n", cfg.BootImagePath())
		for _, d := range disks {
			path := d.Path(cfg.ImagesDir)
			status := "ok"
			if _, err := os.Stat(path); err != nil {
				status = "missing"
			}
			fmt.Fprintf(out, "disk  %-16s %s (%s)\n", d.Name, path, status)
		}
		if active && len(disks) == 0 {
			logger.Warn("system filter matched no catalog disks", "filter", filter)
		}
		return nil
	},
}

func init() {
	catalogCmd.Flags().StringVar(&catalogFilter, "filter", "", "substring filter (defaults to $"+catalog.EnvSystemFilter+")")
}
