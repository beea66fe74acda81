package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-extfs/pkg/app/inspect"
)

var listAll bool

var listCmd = &cobra.Command{
	Use:     "list <image> [path]",
	Aliases: []string{"ls"},
	Short:   "List a directory",
	Long: `List the entries of a directory in on-disk order. The path defaults to
the root directory; symlinks along the path are followed.

Examples:
  extfs ls disk.img /boot
  extfs list --all -o yaml disk.img /etc`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel, err := newContext(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		dir := "/"
		if len(args) == 2 {
			dir = args[1]
		}
		response, err := inspect.HandleList(ctx, &inspect.ListRequest{
			Target: imageTarget(args[0]),
			Path:   dir,
			All:    listAll,
		})
		if err != nil {
			return err
		}
		return inspect.FormatOutput(cmd.OutOrStdout(), response, ctx.OutputFormat)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "include the . and .. entries")
}
