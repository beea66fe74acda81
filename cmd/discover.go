package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-extfs/pkg/app/discover"
)

var (
	// Search root
	discoverPath string

	// File matching criteria
	namePattern   string
	nameRegex     string
	extensions    []string
	caseSensitive bool
	fileType      string

	// Size criteria
	minSize string
	maxSize string

	// Date criteria
	modifiedAfter  string
	modifiedBefore string

	// Content search
	contentSearch string
	maxResults    int
)

var discoverCmd = &cobra.Command{
	Use:   "discover <image>",
	Short: "Find files by name, extension, size, date or content",
	Long: `Walk a volume and report the entries matching every given criterion.
Symlinks are reported but not followed.

Examples:
  # Find kernel images under /boot
  extfs discover disk.img --path /boot --name "vmlinuz*"

  # Find configuration files
  extfs discover disk.img --ext conf,cfg --type file

  # Find large files
  extfs discover disk.img --min-size 100MB

  # Search file contents for specific text
  extfs discover disk.img --content "secret" --ext txt,log`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDiscover(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().StringVar(&discoverPath, "path", "/", "directory to search from")

	// File matching
	discoverCmd.Flags().StringVarP(&namePattern, "name", "n", "", "filename pattern (wildcards: *, ?)")
	discoverCmd.Flags().StringVar(&nameRegex, "regex", "", "filename regex pattern")
	discoverCmd.Flags().StringSliceVar(&extensions, "ext", nil, "file extensions (conf,txt,log)")
	discoverCmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "case-sensitive matching")
	discoverCmd.Flags().StringVar(&fileType, "type", "", "entry type (file, dir, symlink)")

	// Size filtering
	discoverCmd.Flags().StringVar(&minSize, "min-size", "", "minimum file size (10MB, 1GB)")
	discoverCmd.Flags().StringVar(&maxSize, "max-size", "", "maximum file size (100MB, 2GB)")

	// Date filtering
	discoverCmd.Flags().StringVar(&modifiedAfter, "after", "", "modified after (YYYY-MM-DD)")
	discoverCmd.Flags().StringVar(&modifiedBefore, "before", "", "modified before (YYYY-MM-DD)")

	// Content search
	discoverCmd.Flags().StringVarP(&contentSearch, "content", "c", "", "search text within files")
	discoverCmd.Flags().IntVar(&maxResults, "limit", 1000, "maximum results")

	discoverCmd.MarkFlagsMutuallyExclusive("name", "regex")
}

func runDiscover(cmd *cobra.Command, imagePath string) error {
	ctx, cancel, err := newContext(cmd)
	if err != nil {
		return err
	}
	defer cancel()

	request := &discover.Request{
		Target:         imageTarget(imagePath),
		Path:           discoverPath,
		NamePattern:    namePattern,
		NameRegex:      nameRegex,
		Extensions:     extensions,
		CaseSensitive:  caseSensitive,
		FileType:       fileType,
		MinSize:        minSize,
		MaxSize:        maxSize,
		ModifiedAfter:  modifiedAfter,
		ModifiedBefore: modifiedBefore,
		ContentSearch:  contentSearch,
		MaxResults:     maxResults,
	}

	response, err := discover.Handle(ctx, request)
	if err != nil {
		return err
	}
	ctx.Log(discover.FormatSummary(response))

	return discover.FormatOutput(cmd.OutOrStdout(), response, ctx.OutputFormat)
}
