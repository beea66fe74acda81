package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-extfs/pkg/app/inspect"
)

var infoCmd = &cobra.Command{
	Use:   "info <image>",
	Short: "Show volume metadata",
	Long: `Show the superblock metadata of the ext volume in an image and the
partition it was found in.

Examples:
  extfs info disk.img
  extfs info --partition 1 -o json disk.img`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel, err := newContext(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		response, err := inspect.HandleInfo(ctx, &inspect.InfoRequest{Target: imageTarget(args[0])})
		if err != nil {
			return err
		}
		return inspect.FormatOutput(cmd.OutOrStdout(), response, ctx.OutputFormat)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
