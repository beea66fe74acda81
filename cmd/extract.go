package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-extfs/pkg/app"
	"github.com/deploymenttheory/go-extfs/pkg/app/inspect"
)

var extractDest string

var extractCmd = &cobra.Command{
	Use:     "extract <image> <path>",
	Aliases: []string{"cat"},
	Short:   "Copy a file out of the volume",
	Long: `Copy the content of a regular file to standard output or to --out.
Holes and preallocated ranges read as zeros.

Examples:
  extfs cat disk.img /etc/hostname
  extfs extract disk.img /boot/vmlinuz --out vmlinuz`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(cmd, args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVarP(&extractDest, "out", "O", "", "destination file (default stdout)")
}

func runExtract(cmd *cobra.Command, imagePath, filePath string) error {
	ctx, cancel, err := newContext(cmd)
	if err != nil {
		return err
	}
	defer cancel()

	request := &inspect.ExtractRequest{Target: imageTarget(imagePath), Path: filePath}
	if extractDest == "" {
		_, err := inspect.HandleExtract(ctx, request, cmd.OutOrStdout())
		return err
	}

	out, err := os.OpenFile(extractDest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return app.NewError(app.ErrCodeInvalidInput, fmt.Sprintf("cannot create %s", extractDest), err)
	}

	response, err := inspect.HandleExtract(ctx, request, out)
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(extractDest)
		return err
	}

	if ctx.Quiet {
		return nil
	}
	return inspect.FormatOutput(cmd.OutOrStdout(), response, ctx.OutputFormat)
}
