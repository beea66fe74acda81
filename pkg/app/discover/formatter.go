package discover

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// FormatOutput formats discovery results according to output format
func FormatOutput(w io.Writer, response *Response, format string) error {
	switch format {
	case "json":
		return formatJSON(w, response)
	case "yaml":
		return formatYAML(w, response)
	case "table":
		return formatTable(w, response)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// formatTable formats results as a table in walk order
func formatTable(w io.Writer, response *Response) error {
	if len(response.Files) == 0 {
		fmt.Fprintln(w, "No files found matching the search criteria.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	// Header
	fmt.Fprintf(tw, "PATH\tTYPE\tSIZE\tCLASS\tMODIFIED\tMODE\n")
	fmt.Fprintf(tw, "----\t----\t----\t-----\t--------\t----\n")

	// Data rows
	for _, file := range response.Files {
		modTime := "-"
		if !file.Modified.IsZero() {
			modTime = file.Modified.UTC().Format("2006-01-02 15:04")
		}
		class := "-"
		if file.Type == "file" {
			class = string(file.GetSizeClass())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			file.Path, file.Type, file.FormatSize(), class, modTime, file.Permissions)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	// Summary
	fmt.Fprintf(w, "\n")
	if response.VolumeInfo.Type != "" {
		fmt.Fprintf(w, "Volume: %s (%s, %s)\n", response.VolumeInfo.Label, response.VolumeInfo.Type, response.VolumeInfo.UUID)
	}
	fmt.Fprintf(w, "Found %d files", response.TotalFound)
	if response.Truncated {
		fmt.Fprintf(w, " (showing first %d)", len(response.Files))
	}
	fmt.Fprintf(w, " among %d entries in %v\n", response.Scanned, response.SearchTime)

	return nil
}

// formatJSON formats results as JSON
func formatJSON(w io.Writer, response *Response) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// formatYAML formats results as YAML
func formatYAML(w io.Writer, response *Response) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(response)
}

// FormatSummary provides a brief summary for verbose output
func FormatSummary(response *Response) string {
	if response.TotalFound == 0 {
		return "No files found"
	}

	summary := fmt.Sprintf("Found %d file", response.TotalFound)
	if response.TotalFound != 1 {
		summary += "s"
	}

	if response.Truncated {
		summary += fmt.Sprintf(" (showing %d)", len(response.Files))
	}

	var totalSize int64
	for _, file := range response.Files {
		totalSize += file.Size
	}

	summary += fmt.Sprintf(" totaling %s", formatBytes(totalSize))
	summary += fmt.Sprintf(" in %v", response.SearchTime)

	return summary
}

// formatBytes formats byte count as human readable
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
