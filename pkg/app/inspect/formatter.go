package inspect

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"
)

// FormatOutput renders any inspect response in the requested format
func FormatOutput(w io.Writer, response any, format string) error {
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
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func formatTable(w io.Writer, response any) error {
	switch r := response.(type) {
	case *InfoResponse:
		return formatInfo(w, r)
	case *ListResponse:
		return formatList(w, r)
	case *StatResponse:
		return formatStat(w, r)
	case *ExtractResponse:
		_, err := fmt.Fprintf(w, "Extracted %s (%d bytes)\n", r.Path, r.Bytes)
		return err
	default:
		return fmt.Errorf("no table layout for %T", response)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

func formatInfo(w io.Writer, r *InfoResponse) error {
	v := r.Volume
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Image:\t%s\n", r.Image)
	location := v.Partition.Method
	if v.Partition.Index >= 0 {
		location = fmt.Sprintf("%s partition %d (%s)", strings.ToUpper(v.Partition.Scheme), v.Partition.Index, v.Partition.Type)
	}
	fmt.Fprintf(tw, "Location:\t%s, start sector %d\n", location, v.Partition.StartSector)
	fmt.Fprintf(tw, "Filesystem:\t%s\n", v.Type)
	fmt.Fprintf(tw, "Label:\t%s\n", v.Label)
	fmt.Fprintf(tw, "UUID:\t%s\n", v.UUID)
	fmt.Fprintf(tw, "Block size:\t%d\n", v.BlockSize)
	fmt.Fprintf(tw, "Blocks:\t%d (%d free)\n", v.BlockCount, v.FreeBlocks)
	fmt.Fprintf(tw, "Free inodes:\t%d\n", v.FreeInodes)
	fmt.Fprintf(tw, "Groups:\t%d\n", v.GroupCount)
	fmt.Fprintf(tw, "Features:\t%s\n", strings.Join(v.Features, " "))
	if len(v.SuperblockBackups) > 0 {
		backups := make([]string, len(v.SuperblockBackups))
		for i, g := range v.SuperblockBackups {
			backups[i] = fmt.Sprint(g)
		}
		fmt.Fprintf(tw, "Superblock backups:\tgroups %s\n", strings.Join(backups, ", "))
	}
	fmt.Fprintf(tw, "Last write:\t%s\n", formatTime(v.LastWrite))
	return tw.Flush()
}

func formatList(w io.Writer, r *ListResponse) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "MODE\tINODE\tSIZE\tMODIFIED\tNAME\n")
	for _, e := range r.Entries {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", e.Permissions, e.Inode, e.Size, formatTime(e.Modified), e.Name)
	}
	return tw.Flush()
}

func formatStat(w io.Writer, r *StatResponse) error {
	e := r.Entry
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Path:\t%s\n", r.Path)
	fmt.Fprintf(tw, "Type:\t%s\n", e.Type)
	fmt.Fprintf(tw, "Inode:\t%d\n", e.Inode)
	fmt.Fprintf(tw, "Size:\t%d\n", e.Size)
	fmt.Fprintf(tw, "Mode:\t%s\n", e.Permissions)
	fmt.Fprintf(tw, "Modified:\t%s\n", formatTime(e.Modified))
	if e.LinkTarget != "" {
		fmt.Fprintf(tw, "Target:\t%s\n", e.LinkTarget)
	}
	return tw.Flush()
}
