package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/c2h5oh/datasize"
	"github.com/spf13/cobra"

	"github.com/jgarman/placeholder-disk/internal/hfs"
	"github.com/jgarman/placeholder-disk/internal/placeholder"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <image>",
	Short: "List a placeholder image and check the Stickies placeholder is contiguous",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		image, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		vol, err := hfs.Read(image)
		switch {
		case errors.Is(err, hfs.ErrCorrupt):
			// Not one of ours; the placeholder scan still applies.
			logger.Debug("not a flat HFS volume", "err", err)
		case err != nil:
			return err
		default:
			fmt.Fprintf(out, "volume %q, %d x %s allocation blocks, %d free\n",
				vol.Name, vol.AllocBlocks, datasize.ByteSize(vol.AllocBlockSize).HR(), vol.FreeBlocks)
			for _, e := range vol.Entries {
				fmt.Fprintf(out, "  %-14s %s/%s %8s  blocks %d+%d\n",
					e.Name, e.File.Type, e.File.Creator,
					datasize.ByteSize(len(e.File.Data)).HR(), e.DataExtent.Start, e.DataExtent.Count)
			}
		}

		loc, err := placeholder.Locate(image)
		if errors.Is(err, placeholder.ErrNotFound) {
			fmt.Fprintln(out, "placeholder: not found")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "placeholder: %d blocks at offset %d, contiguous=%t\n", loc.Blocks, loc.Offset, loc.Contiguous)
		return nil
	},
}
