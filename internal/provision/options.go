package provision

import (
	"github.com/jgarman/placeholder-disk/internal/config"
)

// OptionsFromConfig derives run options from the configuration and the
// catalog filter taken from the environment.
func OptionsFromConfig(cfg *config.Config, filter string, filterActive bool) (Options, error) {
	size, err := cfg.VolumeSize()
	if err != nil {
		return Options{}, err
	}
	return Options{
		VolumeName:    cfg.Volume.Name,
		ImageName:     cfg.Volume.ImageName,
		Size:          size,
		Alignment:     cfg.Volume.Alignment,
		DesktopDB:     cfg.Volume.DesktopDB,
		BootImagePath: cfg.BootImagePath(),
		ImagesDir:     cfg.ImagesDir,
		Catalog:       cfg.Catalog,
		ModelID:       cfg.Emulator.ModelID,
		Filter:        filter,
		FilterActive:  filterActive,
	}, nil
}
