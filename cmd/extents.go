package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-extfs/pkg/app/chunks"
)

var (
	extentsPartitionStart int64
	extentsSectorSize     uint32
	extentsKeepGoing      bool
)

var extentsCmd = &cobra.Command{
	Use:   "extents <image> <path>...",
	Short: "Print the sector ranges backing files",
	Long: `Print the chunk list of each file: the absolute disk sector ranges that
hold its data, in file order, with physically adjacent runs merged. Files
with holes or preallocated ranges have no chunk list and fail.

The partition start defaults to the sector where the volume was found and can
be overridden for images that will be written at another offset.

Examples:
  extfs extents disk.img /boot/vmlinuz /boot/initrd.img
  extfs extents --partition-start 2048 -o blocklist rootfs.img /boot/vmlinuz
  extfs extents --sector-size 4096 -o json disk.img /boot/vmlinuz`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel, err := newContext(cmd)
		if err != nil {
			return err
		}
		defer cancel()
		if cmd.Flags().Changed("sector-size") {
			ctx.Config.SectorSize = extentsSectorSize
		}

		request := &chunks.Request{
			Target:    imageTarget(args[0]),
			Paths:     args[1:],
			KeepGoing: extentsKeepGoing,
		}
		if extentsPartitionStart >= 0 {
			start := uint64(extentsPartitionStart)
			request.PartitionStart = &start
		}

		response, err := chunks.Handle(ctx, request)
		if err != nil {
			return err
		}
		return chunks.FormatOutput(cmd.OutOrStdout(), response, ctx.OutputFormat)
	},
}

func init() {
	rootCmd.AddCommand(extentsCmd)
	extentsCmd.Flags().Int64Var(&extentsPartitionStart, "partition-start", -1, "partition start sector added to every range (default: where the volume was found)")
	extentsCmd.Flags().Uint32Var(&extentsSectorSize, "sector-size", 512, "sector size in bytes, a power of two no larger than the block size")
	extentsCmd.Flags().BoolVarP(&extentsKeepGoing, "keep-going", "k", false, "report per-file failures instead of stopping")
}
