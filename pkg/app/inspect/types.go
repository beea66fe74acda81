package inspect

import (
	"io/fs"
	"time"

	"github.com/deploymenttheory/go-extfs/internal/types"
	"github.com/deploymenttheory/go-extfs/pkg/app"
	"github.com/deploymenttheory/go-extfs/pkg/services"
)

// InfoRequest asks for volume metadata
type InfoRequest struct {
	Target app.ImageTarget
}

// InfoResponse carries volume metadata
type InfoResponse struct {
	Image  string              `json:"image" yaml:"image"`
	Volume services.VolumeInfo `json:"volume" yaml:"volume"`
}

// ListRequest asks for the entries of one directory
type ListRequest struct {
	Target app.ImageTarget
	Path   string
	// All keeps the . and .. entries
	All bool
}

// ListResponse carries a directory listing in on-disk order
type ListResponse struct {
	Path    string  `json:"path" yaml:"path"`
	Entries []Entry `json:"entries" yaml:"entries"`
}

// StatRequest asks for the metadata of one path
type StatRequest struct {
	Target app.ImageTarget
	Path   string
	// NoFollow describes a final symlink itself rather than its target
	NoFollow bool
}

// StatResponse carries the metadata of one path
type StatResponse struct {
	Path  string `json:"path" yaml:"path"`
	Entry Entry  `json:"entry" yaml:"entry"`
}

// ExtractRequest asks for the content of one file
type ExtractRequest struct {
	Target app.ImageTarget
	Path   string
}

// ExtractResponse reports a completed extraction
type ExtractResponse struct {
	Path  string `json:"path" yaml:"path"`
	Bytes int64  `json:"bytes" yaml:"bytes"`
}

// Entry is the display form of a directory entry
type Entry struct {
	Name        string    `json:"name" yaml:"name"`
	Type        string    `json:"type" yaml:"type"`
	Inode       uint32    `json:"inode" yaml:"inode"`
	Size        uint64    `json:"size" yaml:"size"`
	Permissions string    `json:"permissions" yaml:"permissions"`
	Modified    time.Time `json:"modified" yaml:"modified"`
	LinkTarget  string    `json:"link_target,omitempty" yaml:"link_target,omitempty"`
}

// newEntry converts driver metadata for display
func newEntry(info types.FileInfo) Entry {
	e := Entry{
		Name:        info.Name,
		Type:        info.Type.String(),
		Inode:       info.Inode,
		Size:        info.Size,
		Permissions: fileMode(info).String(),
	}
	if info.MtimeSet {
		e.Modified = info.Mtime
	}
	return e
}

// fileMode maps the inode mode onto an fs.FileMode
func fileMode(info types.FileInfo) fs.FileMode {
	mode := fs.FileMode(info.Mode & 0o777)
	switch info.Type {
	case types.FileTypeDirectory:
		mode |= fs.ModeDir
	case types.FileTypeSymlink:
		mode |= fs.ModeSymlink
	}
	return mode
}

func validatePath(p string) error {
	if p == "" {
		return app.NewError(app.ErrCodeInvalidInput, "path is required", nil)
	}
	return nil
}

// Validate validates an info request
func (r *InfoRequest) Validate() error {
	if err := r.Target.Validate(); err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "invalid image target", err)
	}
	return nil
}

// Validate validates a list request
func (r *ListRequest) Validate() error {
	if err := r.Target.Validate(); err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "invalid image target", err)
	}
	return validatePath(r.Path)
}

// Validate validates a stat request
func (r *StatRequest) Validate() error {
	if err := r.Target.Validate(); err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "invalid image target", err)
	}
	return validatePath(r.Path)
}

// Validate validates an extract request
func (r *ExtractRequest) Validate() error {
	if err := r.Target.Validate(); err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "invalid image target", err)
	}
	return validatePath(r.Path)
}
