package types

// Block Group Descriptor
// One descriptor per block group. Without the 64bit feature a descriptor is
// 32 bytes; with it, s_desc_size bytes and the high halves of the block
// numbers live in the second 32 bytes.

const (
	// GroupDescSize is the legacy 32-byte descriptor size.
	GroupDescSize = 32

	// GroupDescSize64 is the minimum descriptor size carrying high halves.
	GroupDescSize64 = 64

	// LogGroupDescSize is log2(GroupDescSize).
	LogGroupDescSize = 5

	// LogGroupDescSize64 is log2(GroupDescSize64).
	LogGroupDescSize64 = 6

	// DescSizeMask selects the s_desc_size values that are valid 64-bit
	// descriptor sizes (32..4096, power of two).
	DescSizeMask uint16 = 0x1FE0
)

// Group descriptor field offsets.
const (
	GdBlockBitmapLo     = 0x00
	GdInodeBitmapLo     = 0x04
	GdInodeTableLo      = 0x08
	GdFreeBlocksCountLo = 0x0C
	GdFreeInodesCountLo = 0x0E
	GdUsedDirsCountLo   = 0x10
	GdFlags             = 0x12
	GdItableUnusedLo    = 0x1C
	GdChecksum          = 0x1E
	GdBlockBitmapHi     = 0x20
	GdInodeBitmapHi     = 0x24
	GdInodeTableHi      = 0x28
	GdFreeBlocksCountHi = 0x2C
	GdFreeInodesCountHi = 0x2E
	GdUsedDirsCountHi   = 0x30
	GdItableUnusedHi    = 0x32
)

// Block group flags.
const (
	BgInodeUninit uint16 = 0x0001
	BgBlockUninit uint16 = 0x0002
	BgInodeZeroed uint16 = 0x0004
)

// GroupDescriptor is the decoded form of a block group descriptor. Hi fields
// are zero for 32-byte descriptors.
type GroupDescriptor struct {
	BlockBitmapLo     uint32
	InodeBitmapLo     uint32
	InodeTableLo      uint32
	FreeBlocksCountLo uint16
	FreeInodesCountLo uint16
	UsedDirsCountLo   uint16
	Flags             uint16
	ItableUnusedLo    uint16
	Checksum          uint16
	BlockBitmapHi     uint32
	InodeBitmapHi     uint32
	InodeTableHi      uint32
	FreeBlocksCountHi uint16
	FreeInodesCountHi uint16
	UsedDirsCountHi   uint16
	ItableUnusedHi    uint16
}
