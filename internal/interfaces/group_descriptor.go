package interfaces

// GroupDescriptorReader provides methods for reading a block group descriptor
type GroupDescriptorReader interface {
	// BlockBitmap returns the block of the block allocation bitmap
	BlockBitmap() uint64

	// InodeBitmap returns the block of the inode allocation bitmap
	InodeBitmap() uint64

	// InodeTable returns the first block of the inode table
	InodeTable() uint64

	// FreeBlocksCount returns the number of free blocks in the group
	FreeBlocksCount() uint32

	// FreeInodesCount returns the number of free inodes in the group
	FreeInodesCount() uint32

	// UsedDirsCount returns the number of directories in the group
	UsedDirsCount() uint32

	// Flags returns the group flags
	Flags() uint16

	// Is64Bit reports whether the high halves were decoded
	Is64Bit() bool
}
