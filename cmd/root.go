package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-extfs/internal/disk"
	"github.com/deploymenttheory/go-extfs/pkg/app"
)

var (
	// Global output flags
	verbose      bool
	quiet        bool
	outputFormat string

	// Global volume selection flags
	partitionIndex int
	rawOffset      int64

	// Deadline for the whole command
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "extfs",
	Short: "Read-only ext2/3/4 explorer and chunk-list extractor",
	Long: `extfs is a read-only command-line tool for ext2, ext3 and ext4 volumes
in raw disk images, partitioned disks or bare filesystem images.

It resolves paths, reads files and lists the absolute disk sectors backing a
file, the chunk list a bootloader needs to load a kernel without a filesystem
driver of its own.

Commands:
  info        Show volume metadata and where the volume was found
  list        List a directory
  stat        Describe one path
  extract     Copy a file out of the volume
  extents     Print the sector ranges backing files
  discover    Find files by name, extension, size, date or content
  config      Show the effective configuration`,
	Version:       "0.1.0-dev",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, json, yaml)")
	rootCmd.PersistentFlags().IntVarP(&partitionIndex, "partition", "p", -1, "partition table index holding the volume (-1 to auto-detect)")
	rootCmd.PersistentFlags().Int64Var(&rawOffset, "offset", -1, "volume start in 512-byte sectors, bypassing partition detection")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "abort the command after this long (0 for no limit)")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
	rootCmd.MarkFlagsMutuallyExclusive("partition", "offset")
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verbose
}

// GetQuiet returns the quiet flag value
func GetQuiet() bool {
	return quiet
}

// GetOutputFormat returns the output format
func GetOutputFormat() string {
	return outputFormat
}

// newContext builds the application context from the global flags and the
// loaded configuration. The returned cancel releases the --timeout deadline.
func newContext(cmd *cobra.Command) (*app.Context, context.CancelFunc, error) {
	ctx := app.NewContext()
	if c := cmd.Context(); c != nil {
		ctx.Context = c
	}
	ctx.OutputFormat = GetOutputFormat()
	ctx.SetVerbosity(GetVerbose(), GetQuiet())

	config, err := disk.LoadImageConfig()
	if err != nil {
		return nil, nil, app.NewError(app.ErrCodeInvalidInput, "invalid configuration", err)
	}
	if cmd.Flags().Changed("offset") {
		config.Partition = disk.PartitionRaw
		config.PartitionOffset = rawOffset
	}
	ctx.Config = config
	ctx.Timeout = timeout

	ctx, cancel := ctx.WithDeadline()
	return ctx, cancel, nil
}

// imageTarget names the image argument and the --partition selection
func imageTarget(imagePath string) app.ImageTarget {
	return app.ImageTarget{ImagePath: imagePath, Partition: partitionIndex}
}

// exitCode maps error codes to process exit statuses
func exitCode(err error) int {
	common := app.TranslateError(err)
	switch common.Code {
	case app.ErrCodeInvalidInput, app.ErrCodeImageAccess:
		return 2
	case app.ErrCodeNotFound, app.ErrCodeNotAFile, app.ErrCodeNotADirectory:
		return 3
	case app.ErrCodeBadFilesystem, app.ErrCodeUnsupportedFeature, app.ErrCodeInvalidExtentTree, app.ErrCodeHoleInChunkList:
		return 4
	case app.ErrCodeTimeout:
		return 5
	default:
		return 1
	}
}
