// Package types implements the on-disk data structures of the ext2, ext3 and
// ext4 filesystems, as laid out by the Linux ext2/3/4 disk format.
// Every multi-byte field is stored little-endian.
package types

import (
	"fmt"
	"time"
)

// General-Purpose Types
// Basic types shared by the parsers, the block resolver and the outer layers.

// SectorRange is an inclusive run of absolute disk sectors backing a piece of
// a file. Ranges produced for a file are ordered by logical file offset and
// physically adjacent ranges are always merged.
type SectorRange struct {
	// First sector of the run.
	StartSector uint64 `json:"start_sector" yaml:"start_sector"`
	// Last sector of the run, included.
	EndSector uint64 `json:"end_sector" yaml:"end_sector"`
}

// Count returns the number of sectors in the range.
func (r SectorRange) Count() uint64 {
	return r.EndSector - r.StartSector + 1
}

// String renders the range as start-end.
func (r SectorRange) String() string {
	return fmt.Sprintf("%d-%d", r.StartSector, r.EndSector)
}

// TotalSectors sums the sectors covered by a list of ranges.
func TotalSectors(ranges []SectorRange) uint64 {
	var total uint64
	for _, r := range ranges {
		total += r.Count()
	}
	return total
}

// FileType classifies a directory entry for path resolution.
type FileType uint8

const (
	// FileTypeUnknown is reported when neither the directory entry nor the
	// inode mode identifies the entry as a regular file, directory or symlink.
	FileTypeUnknown FileType = iota

	// FileTypeRegular marks a regular file.
	FileTypeRegular

	// FileTypeDirectory marks a directory.
	FileTypeDirectory

	// FileTypeSymlink marks a symbolic link.
	FileTypeSymlink
)

// String returns the short name of the file type.
func (t FileType) String() string {
	switch t {
	case FileTypeRegular:
		return "file"
	case FileTypeDirectory:
		return "dir"
	case FileTypeSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// MarshalText lets JSON and YAML output carry the short name.
func (t FileType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// FileInfo describes one entry of a mounted volume.
type FileInfo struct {
	// Name of the entry within its directory.
	Name string `json:"name" yaml:"name"`
	// Inode number backing the entry.
	Inode uint32 `json:"inode" yaml:"inode"`
	// Type of the entry.
	Type FileType `json:"type" yaml:"type"`
	// Mode is the raw inode mode (type and permission bits).
	Mode uint16 `json:"mode" yaml:"mode"`
	// Size in bytes. Directories report zero.
	Size uint64 `json:"size" yaml:"size"`
	// Mtime is the last modification time, valid when MtimeSet is true.
	Mtime time.Time `json:"mtime" yaml:"mtime"`
	// MtimeSet is false when the inode could not be read.
	MtimeSet bool `json:"-" yaml:"-"`
}

// IsDir reports whether the entry is a directory.
func (fi FileInfo) IsDir() bool {
	return fi.Type == FileTypeDirectory
}
