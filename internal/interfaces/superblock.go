package interfaces

import (
	"time"

	"github.com/deploymenttheory/go-extfs/internal/types"
)

// SuperblockReader provides methods for reading the ext superblock
type SuperblockReader interface {
	// Magic returns s_magic
	Magic() uint16

	// RevisionLevel returns the format revision
	RevisionLevel() uint32

	// LogBlockSize returns the raw s_log_block_size
	LogBlockSize() uint32

	// BlockSize returns the block size in bytes
	BlockSize() uint32

	// InodeSize returns the on-disk inode record size, 128 for revision 0
	InodeSize() uint16

	// DescriptorSize returns the raw s_desc_size
	DescriptorSize() uint16

	// InodesCount returns the total number of inodes
	InodesCount() uint32

	// BlocksCount returns the total number of blocks, including the high half when 64bit is set
	BlocksCount() uint64

	// FreeBlocksCount returns the number of free blocks
	FreeBlocksCount() uint64

	// FreeInodesCount returns the number of free inodes
	FreeInodesCount() uint32

	// FirstDataBlock returns the block holding the superblock in group 0
	FirstDataBlock() uint32

	// BlocksPerGroup returns the number of blocks in each group
	BlocksPerGroup() uint32

	// InodesPerGroup returns the number of inodes in each group
	InodesPerGroup() uint32

	// FirstMetaBg returns the first descriptor block handled by meta_bg
	FirstMetaBg() uint32

	// FeatureCompat returns the compatible feature mask
	FeatureCompat() uint32

	// FeatureIncompat returns the incompatible feature mask
	FeatureIncompat() uint32

	// FeatureRoCompat returns the read-only compatible feature mask
	FeatureRoCompat() uint32

	// HasIncompat checks for an incompatible feature bit
	HasIncompat(mask uint32) bool

	// HasRoCompat checks for a read-only compatible feature bit
	HasRoCompat(mask uint32) bool

	// UUID returns the raw volume UUID bytes
	UUID() [16]byte

	// VolumeName returns the volume label without trailing NULs
	VolumeName() string

	// LastMounted returns the directory where the volume was last mounted
	LastMounted() string

	// WriteTime returns the time of the last superblock write
	WriteTime() time.Time

	// MountTime returns the time of the last mount
	MountTime() time.Time

	// Superblock returns the decoded structure
	Superblock() *types.Superblock
}
