package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jgarman/placeholder-disk/internal/catalog"
	"github.com/jgarman/placeholder-disk/internal/config"
	"github.com/jgarman/placeholder-disk/internal/diskmanager"
	"github.com/jgarman/placeholder-disk/internal/emulator"
	"github.com/jgarman/placeholder-disk/internal/placeholder"
	"github.com/jgarman/placeholder-disk/internal/provision"
)

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Write the placeholder image and start Basilisk II",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		p, err := newProvisioner(cfg, dryRun)
		if err != nil {
			return err
		}
		return p.Run(cmd.Context())
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "stage the image and log the session without starting the emulator")
	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}

// newProvisioner wires the pipeline from configuration.
func newProvisioner(cfg *config.Config, dry bool) (*provision.Provisioner, error) {
	filter, active := catalog.FilterFromEnv(os.LookupEnv)
	opts, err := provision.OptionsFromConfig(cfg, filter, active)
	if err != nil {
		return nil, err
	}

	stickiesSize, err := cfg.StickiesSize()
	if err != nil {
		return nil, err
	}
	content := placeholder.NewGenerator()
	content.StickiesSize = stickiesSize
	if cfg.Placeholder.Welcome != "" {
		content.Welcome = cfg.Placeholder.Welcome
	}

	writer, err := diskmanager.NewImageWriter(cfg.Staging.Writer)
	if err != nil {
		return nil, err
	}
	stager := diskmanager.NewStager(cfg.Staging.Dir, writer, logger.WithPrefix("stager"))

	launcher, err := newLauncher(cfg, dry)
	if err != nil {
		return nil, err
	}
	return provision.New(opts, content, stager, launcher, logger, os.Stdout), nil
}

func newLauncher(cfg *config.Config, dry bool) (emulator.Launcher, error) {
	if dry {
		noop := emulator.NewNoOpLauncher()
		noop.OnLaunch = func(s emulator.Session) error {
			for i, m := range s.Media {
				logger.Info("dry run media", "index", i, "path", m.Path, "boot", m.Boot)
			}
			return nil
		}
		return noop, nil
	}

	ram, err := cfg.RAMSize()
	if err != nil {
		return nil, err
	}
	return emulator.NewBasiliskLauncher(emulator.BasiliskConfig{
		Binary:     cfg.Emulator.Binary,
		ROMPath:    cfg.Emulator.ROMPath,
		RAMSize:    ram,
		Screen:     cfg.Emulator.Screen,
		ExtraPrefs: cfg.Emulator.ExtraPrefs,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}, logger.WithPrefix("basilisk")), nil
}
