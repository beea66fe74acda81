package directory

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-extfs/internal/interfaces"
	"github.com/deploymenttheory/go-extfs/internal/types"
)

// directoryEntryReader implements the DirectoryEntryReader interface
type directoryEntryReader struct {
	entry *types.DirEntry
}

// NewDirectoryEntryReader decodes the record at offset within a directory
// block. The record must be well formed and lie inside the block.
func NewDirectoryEntryReader(block []byte, offset int, endian binary.ByteOrder) (interfaces.DirectoryEntryReader, error) {
	if offset < 0 || offset+types.DirEntryHeaderSize > len(block) {
		return nil, fmt.Errorf("%w: directory record header at %d crosses block end", types.ErrBadFilesystem, offset)
	}

	data := block[offset:]
	entry := &types.DirEntry{
		Inode:    endian.Uint32(data[types.DirEntryInode:]),
		RecLen:   endian.Uint16(data[types.DirEntryRecLen:]),
		NameLen:  data[types.DirEntryNameLen],
		FileType: data[types.DirEntryFileType],
	}

	if entry.RecLen == 0 {
		return nil, fmt.Errorf("%w: zero-length directory record at %d", types.ErrBadFilesystem, offset)
	}
	if int(entry.RecLen) < types.DirEntryHeaderSize+int(entry.NameLen) {
		return nil, fmt.Errorf("%w: directory record at %d too short for name of %d bytes",
			types.ErrBadFilesystem, offset, entry.NameLen)
	}
	if offset+int(entry.RecLen) > len(block) {
		return nil, fmt.Errorf("%w: directory record at %d crosses block end", types.ErrBadFilesystem, offset)
	}

	entry.Name = string(data[types.DirEntryName : types.DirEntryName+int(entry.NameLen)])
	return &directoryEntryReader{entry: entry}, nil
}

// Inode returns the inode number, zero for a deleted record
func (dr *directoryEntryReader) Inode() uint32 {
	return dr.entry.Inode
}

// RecordLength returns the distance to the next record
func (dr *directoryEntryReader) RecordLength() uint16 {
	return dr.entry.RecLen
}

// Name returns the entry name
func (dr *directoryEntryReader) Name() string {
	return dr.entry.Name
}

// FileType returns the raw file type byte
func (dr *directoryEntryReader) FileType() uint8 {
	return dr.entry.FileType
}

// Type classifies the entry from its file type byte. FileTypeUnknown means
// the caller has to look at the inode mode.
func (dr *directoryEntryReader) Type() types.FileType {
	switch dr.entry.FileType {
	case types.DirentRegular:
		return types.FileTypeRegular
	case types.DirentDir:
		return types.FileTypeDirectory
	case types.DirentSymlink:
		return types.FileTypeSymlink
	default:
		return types.FileTypeUnknown
	}
}

// IsDeleted checks if the record is a tombstone or padding
func (dr *directoryEntryReader) IsDeleted() bool {
	return dr.entry.Inode == 0 || dr.entry.NameLen == 0
}

// Entry returns the decoded structure
func (dr *directoryEntryReader) Entry() *types.DirEntry {
	return dr.entry
}
