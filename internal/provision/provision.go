// Package provision runs the placeholder disk pipeline: generate the seed
// files, render the volume, stage the image and launch the emulator.
package provision

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jgarman/placeholder-disk/internal/catalog"
	"github.com/jgarman/placeholder-disk/internal/diskmanager"
	"github.com/jgarman/placeholder-disk/internal/emulator"
	"github.com/jgarman/placeholder-disk/internal/hfs"
	"github.com/jgarman/placeholder-disk/internal/placeholder"
)

// ContentProvider supplies the seed file payloads.
type ContentProvider interface {
	Stickies() ([]byte, error)
	WelcomeText() ([]byte, error)
}

// Options are the fixed inputs of a provisioning run.
type Options struct {
	VolumeName string
	ImageName  string
	Size       int64
	Alignment  int
	DesktopDB  bool

	BootImagePath string
	ImagesDir     string
	Catalog       []catalog.DiskImage
	ModelID       int

	// Filter narrows Catalog when FilterActive is set.
	Filter       string
	FilterActive bool

	// Now stamps the volume; zero means time.Now.
	Now time.Time
}

// Provisioner wires the pipeline stages together.
type Provisioner struct {
	opts     Options
	content  ContentProvider
	stager   *diskmanager.Stager
	launcher emulator.Launcher
	logger   *log.Logger
	out      io.Writer
}

// New creates a provisioner. Status lines are written to out.
func New(opts Options, content ContentProvider, stager *diskmanager.Stager, launcher emulator.Launcher, logger *log.Logger, out io.Writer) *Provisioner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if out == nil {
		out = io.Discard
	}
	return &Provisioner{
		opts:     opts,
		content:  content,
		stager:   stager,
		launcher: launcher,
		logger:   logger,
		out:      out,
	}
}

// BuildVolume assembles the two seed files into a volume.
func (p *Provisioner) BuildVolume() (*hfs.Volume, error) {
	stickies, err := p.content.Stickies()
	if err != nil {
		return nil, fmt.Errorf("generate stickies placeholder: %w", err)
	}
	welcome, err := p.content.WelcomeText()
	if err != nil {
		return nil, fmt.Errorf("generate welcome text: %w", err)
	}

	v := hfs.NewVolume(p.opts.VolumeName)
	v.Set(placeholder.StickiesFileName, &hfs.File{
		Data:    stickies,
		Type:    placeholder.StickiesType,
		Creator: placeholder.StickiesCreator,
	})
	v.Set(placeholder.WelcomeFileName, &hfs.File{
		Data:    welcome,
		Type:    placeholder.WelcomeType,
		Creator: placeholder.WelcomeCreator,
	})
	return v, nil
}

// BuildImage renders the placeholder volume.
func (p *Provisioner) BuildImage() ([]byte, error) {
	v, err := p.BuildVolume()
	if err != nil {
		return nil, err
	}
	image, err := v.Render(hfs.RenderOptions{
		Size:      p.opts.Size,
		Align:     p.opts.Alignment,
		DesktopDB: p.opts.DesktopDB,
		Now:       p.opts.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("render %q: %w", p.opts.VolumeName, err)
	}
	p.logger.Debug("rendered volume", "name", p.opts.VolumeName, "bytes", len(image))
	return image, nil
}

// CompanionDisks applies the catalog filter. An empty result is logged
// as a warning and is not an error.
func (p *Provisioner) CompanionDisks() []catalog.DiskImage {
	if !p.opts.FilterActive {
		return catalog.Filter(p.opts.Catalog, "")
	}
	disks := catalog.Filter(p.opts.Catalog, p.opts.Filter)
	if len(disks) == 0 {
		p.logger.Warn("system filter matched no catalog disks", "filter", p.opts.Filter, "env", catalog.EnvSystemFilter)
	} else {
		p.logger.Info("filtered catalog disks", "filter", p.opts.Filter, "matched", len(disks), "catalog", len(p.opts.Catalog))
	}
	return disks
}

// Run builds and stages the image, then launches the emulator while the
// staged file still exists. The staging directory is removed on return.
func (p *Provisioner) Run(ctx context.Context) error {
	image, err := p.BuildImage()
	if err != nil {
		return err
	}

	return p.stager.WithStagedImage(image, p.opts.ImageName, func(path string) error {
		fmt.Fprintf(p.out, "Wrote Stickies to disk image %s\n", path)

		disks := p.CompanionDisks()
		session, err := emulator.NewSession(
			p.opts.BootImagePath,
			catalog.Paths(disks, p.opts.ImagesDir),
			path,
			p.opts.ModelID,
		)
		if err != nil {
			return err
		}

		fmt.Fprintf(p.out, "Starting Basilisk II with %d disk images, copy '%s' to the Preferences folder\n",
			len(disks), placeholder.StickiesFileName)
		p.logger.Info("launching emulator", "launcher", p.launcher.Name(), "boot", session.BootMedia().Path, "model", session.ModelID)

		if err := p.launcher.Launch(ctx, session); err != nil {
			return fmt.Errorf("launch emulator: %w", err)
		}
		return nil
	})
}
