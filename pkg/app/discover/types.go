package discover

import (
	"time"

	"github.com/deploymenttheory/go-extfs/pkg/app"
)

// Request represents a file discovery request
type Request struct {
	Target app.ImageTarget

	// Path is the directory the search starts from, "/" when empty
	Path string

	// Search criteria
	NamePattern    string
	NameRegex      string
	Extensions     []string
	CaseSensitive  bool
	FileType       string
	MinSize        string
	MaxSize        string
	ModifiedAfter  string
	ModifiedBefore string
	ContentSearch  string
	MaxResults     int
}

// Response represents discovery results
type Response struct {
	Files       []FileResult  `json:"files" yaml:"files"`
	TotalFound  int           `json:"total_found" yaml:"total_found"`
	Scanned     int           `json:"scanned" yaml:"scanned"`
	SearchTime  time.Duration `json:"search_time" yaml:"search_time"`
	VolumeInfo  VolumeInfo    `json:"volume_info" yaml:"volume_info"`
	Truncated   bool          `json:"truncated" yaml:"truncated"`
	SearchQuery SearchQuery   `json:"search_query" yaml:"search_query"`
}

// FileResult represents a discovered file
type FileResult struct {
	Path        string    `json:"path" yaml:"path"`
	Name        string    `json:"name" yaml:"name"`
	Size        int64     `json:"size" yaml:"size"`
	Modified    time.Time `json:"modified" yaml:"modified"`
	Type        string    `json:"type" yaml:"type"`
	Inode       uint32    `json:"inode" yaml:"inode"`
	Permissions string    `json:"permissions" yaml:"permissions"`
	Extension   string    `json:"extension,omitempty" yaml:"extension,omitempty"`
}

// VolumeInfo represents information about the searched volume
type VolumeInfo struct {
	Type  string `json:"type" yaml:"type"`
	Label string `json:"label" yaml:"label"`
	UUID  string `json:"uuid" yaml:"uuid"`
}

// SearchQuery represents the executed search parameters
type SearchQuery struct {
	Path           string   `json:"path" yaml:"path"`
	NamePattern    string   `json:"name_pattern,omitempty" yaml:"name_pattern,omitempty"`
	NameRegex      string   `json:"name_regex,omitempty" yaml:"name_regex,omitempty"`
	Extensions     []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	CaseSensitive  bool     `json:"case_sensitive" yaml:"case_sensitive"`
	FileType       string   `json:"file_type,omitempty" yaml:"file_type,omitempty"`
	MinSize        string   `json:"min_size,omitempty" yaml:"min_size,omitempty"`
	MaxSize        string   `json:"max_size,omitempty" yaml:"max_size,omitempty"`
	ModifiedAfter  string   `json:"modified_after,omitempty" yaml:"modified_after,omitempty"`
	ModifiedBefore string   `json:"modified_before,omitempty" yaml:"modified_before,omitempty"`
	ContentSearch  string   `json:"content_search,omitempty" yaml:"content_search,omitempty"`
	MaxResults     int      `json:"max_results" yaml:"max_results"`
}

// SizeClass represents file size categories for display
type SizeClass string

const (
	SizeClassTiny   SizeClass = "tiny"   // < 1KB
	SizeClassSmall  SizeClass = "small"  // < 1MB
	SizeClassMedium SizeClass = "medium" // < 100MB
	SizeClassLarge  SizeClass = "large"  // < 1GB
	SizeClassHuge   SizeClass = "huge"   // >= 1GB
)

// GetSizeClass returns the size class for display purposes
func (f *FileResult) GetSizeClass() SizeClass {
	switch {
	case f.Size < 1024:
		return SizeClassTiny
	case f.Size < 1024*1024:
		return SizeClassSmall
	case f.Size < 100*1024*1024:
		return SizeClassMedium
	case f.Size < 1024*1024*1024:
		return SizeClassLarge
	default:
		return SizeClassHuge
	}
}

// FormatSize returns a human-readable size string
func (f *FileResult) FormatSize() string {
	return formatBytes(f.Size)
}
