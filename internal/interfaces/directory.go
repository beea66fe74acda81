package interfaces

import "github.com/deploymenttheory/go-extfs/internal/types"

// DirectoryEntryReader provides methods for reading one linear directory record
type DirectoryEntryReader interface {
	// Inode returns the inode number, zero for a deleted record
	Inode() uint32

	// RecordLength returns the distance to the next record
	RecordLength() uint16

	// Name returns the entry name
	Name() string

	// FileType returns the raw file type byte
	FileType() uint8

	// Type classifies the entry from its file type byte
	Type() types.FileType

	// IsDeleted checks if the record is a tombstone
	IsDeleted() bool

	// Entry returns the decoded structure
	Entry() *types.DirEntry
}
