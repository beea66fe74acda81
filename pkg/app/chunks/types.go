package chunks

import (
	"time"

	"github.com/deploymenttheory/go-extfs/internal/types"
	"github.com/deploymenttheory/go-extfs/pkg/app"
)

// Request represents a chunk-list extraction request
type Request struct {
	Target app.ImageTarget

	// Paths are the files to extract chunk lists for
	Paths []string

	// PartitionStart overrides the located partition start sector when not nil
	PartitionStart *uint64

	// KeepGoing records per-file failures instead of aborting
	KeepGoing bool
}

// Response represents the chunk lists of every requested file
type Response struct {
	Files          []FileChunks  `json:"files" yaml:"files"`
	PartitionStart uint64        `json:"partition_start" yaml:"partition_start"`
	SectorSize     uint32        `json:"sector_size" yaml:"sector_size"`
	Failed         int           `json:"failed" yaml:"failed"`
	ElapsedTime    time.Duration `json:"elapsed_time" yaml:"elapsed_time"`
}

// FileChunks is the chunk list of one file
type FileChunks struct {
	Path    string              `json:"path" yaml:"path"`
	Size    uint64              `json:"size" yaml:"size"`
	Ranges  []types.SectorRange `json:"ranges" yaml:"ranges"`
	Sectors uint64              `json:"sectors" yaml:"sectors"`
	Error   string              `json:"error,omitempty" yaml:"error,omitempty"`
}

// Validate validates a chunk-list request
func (r *Request) Validate() error {
	if err := r.Target.Validate(); err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "invalid image target", err)
	}
	if len(r.Paths) == 0 {
		return app.NewError(app.ErrCodeInvalidInput, "at least one file path is required", nil)
	}
	for _, p := range r.Paths {
		if p == "" {
			return app.NewError(app.ErrCodeInvalidInput, "empty file path", nil)
		}
	}
	return nil
}
