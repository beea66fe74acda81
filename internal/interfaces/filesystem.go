// File: internal/interfaces/filesystem.go
package interfaces

import (
	"io"

	"github.com/deploymenttheory/go-extfs/internal/types"
)

// FilesystemDriver is the plugin contract every read-only filesystem driver
// (ext2/3/4 today; iso9660, NTFS, SquashFS alongside it) implements
type FilesystemDriver interface {
	// Name returns the driver name used for registration and output
	Name() string

	// Probe cheaply checks whether disk carries this filesystem
	Probe(disk DiskReader) bool

	// Mount reads and validates the filesystem metadata, all or nothing
	Mount(disk DiskReader) (Volume, error)
}

// Volume is a mounted filesystem
type Volume interface {
	// Type returns the filesystem type name
	Type() string

	// Label returns the volume label
	Label() string

	// UUID returns the volume UUID in text form
	UUID() string

	// Open resolves path to a regular file
	Open(path string) (File, error)

	// List calls visit for each entry of the directory at path until visit returns true
	List(path string, visit ListFunc) error

	// Stat resolves path, following symlinks, and describes the target
	Stat(path string) (types.FileInfo, error)

	// Close releases the volume
	Close() error
}

// ListFunc receives one directory entry and returns true to stop the listing
type ListFunc func(info types.FileInfo) bool

// File is an open regular file
type File interface {
	io.ReaderAt

	// Size returns the file size in bytes
	Size() uint64

	// ExtentList returns the absolute disk sector ranges backing the file
	ExtentList(partitionStartSector uint64) ([]types.SectorRange, error)
}
