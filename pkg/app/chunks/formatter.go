package chunks

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/deploymenttheory/go-extfs/internal/types"
)

// FormatOutput formats chunk lists according to output format
func FormatOutput(w io.Writer, response *Response, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(response)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		encoder.SetIndent(2)
		return encoder.Encode(response)
	case "table":
		return formatTable(w, response)
	case "blocklist":
		return formatBlocklist(w, response)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// formatTable prints one row per sector range
func formatTable(w io.Writer, response *Response) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "PATH\tSTART\tEND\tSECTORS\n")
	fmt.Fprintf(tw, "----\t-----\t---\t-------\n")

	for _, f := range response.Files {
		if f.Error != "" {
			fmt.Fprintf(tw, "%s\t-\t-\terror: %s\n", f.Path, f.Error)
			continue
		}
		if len(f.Ranges) == 0 {
			fmt.Fprintf(tw, "%s\t-\t-\t0\n", f.Path)
			continue
		}
		for i, r := range f.Ranges {
			name := f.Path
			if i > 0 {
				name = ""
			}
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", name, r.StartSector, r.EndSector, r.Count())
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nPartition start sector %d, %d-byte sectors", response.PartitionStart, response.SectorSize)
	if response.Failed > 0 {
		fmt.Fprintf(w, ", %d failed", response.Failed)
	}
	fmt.Fprintln(w)
	return nil
}

// formatBlocklist prints each file as start+count pairs, the notation
// bootloaders use for block lists
func formatBlocklist(w io.Writer, response *Response) error {
	for _, f := range response.Files {
		if f.Error != "" {
			continue
		}
		fmt.Fprintf(w, "%s %s\n", f.Path, Blocklist(f.Ranges))
	}
	return nil
}

// Blocklist renders ranges as "start+count,start+count"
func Blocklist(ranges []types.SectorRange) string {
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		parts[i] = fmt.Sprintf("%d+%d", r.StartSector, r.Count())
	}
	return strings.Join(parts, ",")
}
