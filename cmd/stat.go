package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-extfs/pkg/app/inspect"
)

var statNoFollow bool

var statCmd = &cobra.Command{
	Use:   "stat <image> <path>",
	Short: "Describe one path",
	Long: `Show the inode metadata of a path. Symlinks are followed unless
--no-follow is given, in which case the link and its target are shown.

Examples:
  extfs stat disk.img /boot/vmlinuz
  extfs stat --no-follow disk.img /boot/vmlinuz`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel, err := newContext(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		response, err := inspect.HandleStat(ctx, &inspect.StatRequest{
			Target:   imageTarget(args[0]),
			Path:     args[1],
			NoFollow: statNoFollow,
		})
		if err != nil {
			return err
		}
		return inspect.FormatOutput(cmd.OutOrStdout(), response, ctx.OutputFormat)
	},
}

func init() {
	rootCmd.AddCommand(statCmd)
	statCmd.Flags().BoolVar(&statNoFollow, "no-follow", false, "describe a final symlink instead of its target")
}
