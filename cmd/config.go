package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the image settings after merging defaults, extfs-config.yaml
(searched in ., ./config, $HOME/.extfs and /etc/extfs) and EXTFS_*
environment variables.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel, err := newContext(cmd)
		if err != nil {
			return err
		}
		defer cancel()
		config := ctx.Config
		w := cmd.OutOrStdout()

		switch ctx.OutputFormat {
		case "json":
			encoder := json.NewEncoder(w)
			encoder.SetIndent("", "  ")
			return encoder.Encode(config)
		case "yaml":
			encoder := yaml.NewEncoder(w)
			defer encoder.Close()
			encoder.SetIndent(2)
			return encoder.Encode(config)
		case "table":
			source := viper.ConfigFileUsed()
			if source == "" {
				source = "(defaults and environment)"
			}
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "config file\t%s\n", source)
			fmt.Fprintf(tw, "partition\t%d\n", config.Partition)
			fmt.Fprintf(tw, "partition_offset\t%d\n", config.PartitionOffset)
			fmt.Fprintf(tw, "sector_size\t%d\n", config.SectorSize)
			fmt.Fprintf(tw, "cache_enabled\t%t\n", config.CacheEnabled)
			fmt.Fprintf(tw, "cache_size\t%d MiB\n", config.CacheSize)
			fmt.Fprintf(tw, "lock_image\t%t\n", config.LockImage)
			fmt.Fprintf(tw, "max_symlink_depth\t%d\n", config.MaxSymlinkDepth)
			fmt.Fprintf(tw, "workers\t%d\n", config.Workers)
			return tw.Flush()
		default:
			return fmt.Errorf("unsupported output format: %s", ctx.OutputFormat)
		}
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
