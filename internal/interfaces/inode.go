package interfaces

import (
	"time"

	"github.com/deploymenttheory/go-extfs/internal/types"
)

// InodeReader provides methods for reading an ext inode
type InodeReader interface {
	// Mode returns the raw i_mode
	Mode() uint16

	// Type classifies the inode from its mode bits
	Type() types.FileType

	// IsDir checks if the inode is a directory
	IsDir() bool

	// IsRegular checks if the inode is a regular file
	IsRegular() bool

	// IsSymlink checks if the inode is a symbolic link
	IsSymlink() bool

	// Size returns the file size in bytes (size_lo | size_high << 32, size_lo
	// alone for directories)
	Size() uint64

	// Flags returns i_flags
	Flags() uint32

	// IsEncrypted checks the encryption flag
	IsEncrypted() bool

	// LinksCount returns the hard link count
	LinksCount() uint16

	// ModificationTime returns the mtime
	ModificationTime() time.Time

	// Layout returns how the 60-byte block area must be interpreted
	Layout() types.InodeLayout

	// ExtentRoot returns the block area as an extent tree root node
	ExtentRoot() []byte

	// BlockPointers returns the 12 direct and 3 indirect pointers
	BlockPointers() [types.BlockPointerCount]uint32

	// InlineSymlink returns the target of a symlink stored in the inode
	InlineSymlink() (string, bool)

	// Inode returns the decoded structure
	Inode() *types.Inode
}
