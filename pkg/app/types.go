package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/deploymenttheory/go-extfs/internal/disk"
	"github.com/deploymenttheory/go-extfs/internal/types"
)

// ImageTarget represents the image and volume selection shared by commands
type ImageTarget struct {
	ImagePath string
	// Partition is an index into the partition table, -1 to auto-detect
	Partition int
}

// Validate ensures the image target is valid
func (it *ImageTarget) Validate() error {
	if it.ImagePath == "" {
		return errors.New("image path is required")
	}
	if it.Partition < -1 {
		return fmt.Errorf("invalid partition index %d", it.Partition)
	}
	return nil
}

// String returns a string representation of the image target
func (it *ImageTarget) String() string {
	if it.Partition >= 0 {
		return fmt.Sprintf("%s (partition %d)", it.ImagePath, it.Partition)
	}
	return it.ImagePath
}

// ProgressUpdate represents progress information
type ProgressUpdate struct {
	Message     string
	Completed   int64
	Total       int64
	StartedAt   time.Time
	ElapsedTime time.Duration
}

// Percent calculates completion percentage
func (p *ProgressUpdate) Percent() int {
	if p.Total == 0 {
		return 0
	}
	return int((p.Completed * 100) / p.Total)
}

// Rate calculates items per second
func (p *ProgressUpdate) Rate() float64 {
	if p.ElapsedTime == 0 {
		return 0
	}
	return float64(p.Completed) / p.ElapsedTime.Seconds()
}

// ETA estimates time to completion
func (p *ProgressUpdate) ETA() time.Duration {
	if p.Completed == 0 || p.Total == 0 {
		return 0
	}
	rate := p.Rate()
	if rate == 0 {
		return 0
	}
	remaining := p.Total - p.Completed
	return time.Duration(float64(remaining) / rate * float64(time.Second))
}

// CommonError represents application-level errors
type CommonError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CommonError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CommonError) Unwrap() error {
	return e.Cause
}

// Common error codes
const (
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeImageAccess        = "IMAGE_ACCESS"
	ErrCodeIO                 = "IO_ERROR"
	ErrCodeBadFilesystem      = "BAD_FILESYSTEM"
	ErrCodeUnsupportedFeature = "UNSUPPORTED_FEATURE"
	ErrCodeInvalidExtentTree  = "INVALID_EXTENT_TREE"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeNotAFile           = "NOT_A_FILE"
	ErrCodeNotADirectory      = "NOT_A_DIRECTORY"
	ErrCodeHoleInChunkList    = "HOLE_IN_CHUNK_LIST"
	ErrCodeSymlinkLoop        = "SYMLINK_LOOP"
	ErrCodeEncrypted          = "ENCRYPTED"
	ErrCodePermission         = "PERMISSION_DENIED"
	ErrCodeTimeout            = "TIMEOUT"
	ErrCodeNotImplemented     = "NOT_IMPLEMENTED"
	ErrCodeInternal           = "INTERNAL"
)

// NewError creates a new CommonError
func NewError(code, message string, cause error) *CommonError {
	return &CommonError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// errorKinds is checked in order; ErrEncrypted precedes ErrUnsupportedFeature
// and ErrNotImplemented, which it wraps
var errorKinds = []struct {
	kind    error
	code    string
	message string
}{
	{types.ErrIO, ErrCodeIO, "i/o error"},
	{types.ErrBadFilesystem, ErrCodeBadFilesystem, "bad filesystem"},
	{types.ErrEncrypted, ErrCodeEncrypted, "encrypted"},
	{types.ErrUnsupportedFeature, ErrCodeUnsupportedFeature, "unsupported filesystem feature"},
	{types.ErrInvalidExtentTree, ErrCodeInvalidExtentTree, "invalid extent tree"},
	{types.ErrNotFound, ErrCodeNotFound, "file not found"},
	{types.ErrNotAFile, ErrCodeNotAFile, "not a regular file"},
	{types.ErrNotADirectory, ErrCodeNotADirectory, "not a directory"},
	{types.ErrHoleInChunkList, ErrCodeHoleInChunkList, "file has holes"},
	{types.ErrSymlinkLoop, ErrCodeSymlinkLoop, "too many levels of symbolic links"},
	{types.ErrNotASymlink, ErrCodeInvalidInput, "not a symbolic link"},
	{types.ErrNotImplemented, ErrCodeNotImplemented, "not implemented"},
	{context.DeadlineExceeded, ErrCodeTimeout, "timed out"},
	{os.ErrPermission, ErrCodePermission, "permission denied"},
	{disk.ErrPartitionNotFound, ErrCodeInvalidInput, "partition not found"},
	{os.ErrNotExist, ErrCodeImageAccess, "image not found"},
}

// TranslateError maps a driver error onto the outward error codes. Errors
// that are already CommonErrors pass through; nil stays nil.
func TranslateError(err error) *CommonError {
	if err == nil {
		return nil
	}

	var common *CommonError
	if errors.As(err, &common) {
		return common
	}

	for _, k := range errorKinds {
		if errors.Is(err, k.kind) {
			return NewError(k.code, k.message, err)
		}
	}
	return NewError(ErrCodeInternal, "operation failed", err)
}
