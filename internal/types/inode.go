package types

// Inode
// Inodes are fixed-size records in each group's inode table. Only the first
// 128 bytes are interpreted by this driver.

const (
	// InodeBaseSize is the number of inode bytes this driver decodes.
	InodeBaseSize = 128

	// InodeBlockAreaSize is the size of i_block, the 60-byte union holding
	// block pointers, an extent tree root or an inline symlink target.
	InodeBlockAreaSize = 60

	// DirectBlocks is the number of direct block pointers in i_block.
	DirectBlocks = 12

	// IndirectBlockIndex is the i_block slot of the single indirect pointer.
	IndirectBlockIndex = 12

	// DoubleIndirectBlockIndex is the i_block slot of the double indirect pointer.
	DoubleIndirectBlockIndex = 13

	// TripleIndirectBlockIndex is the i_block slot of the triple indirect pointer.
	TripleIndirectBlockIndex = 14

	// BlockPointerCount is the number of 32-bit pointers in i_block.
	BlockPointerCount = 15

	// InlineSymlinkMax is the exclusive upper bound on the length of a
	// symlink target stored directly in i_block.
	InlineSymlinkMax = 60
)

// Inode field offsets.
const (
	InodeMode       = 0x00
	InodeUID        = 0x02
	InodeSizeLo     = 0x04
	InodeAtime      = 0x08
	InodeCtime      = 0x0C
	InodeMtime      = 0x10
	InodeDtime      = 0x14
	InodeGID        = 0x18
	InodeLinksCount = 0x1A
	InodeBlocksLo   = 0x1C
	InodeFlags      = 0x20
	InodeBlock      = 0x28
	InodeGeneration = 0x64
	InodeFileACLLo  = 0x68
	InodeSizeHigh   = 0x6C
)

// Inode mode file type bits (i_mode & S_IFMT).
const (
	ModeTypeMask  uint16 = 0xF000
	ModeFIFO      uint16 = 0x1000
	ModeCharDev   uint16 = 0x2000
	ModeDirectory uint16 = 0x4000
	ModeBlockDev  uint16 = 0x6000
	ModeRegular   uint16 = 0x8000
	ModeSymlink   uint16 = 0xA000
	ModeSocket    uint16 = 0xC000
	ModePermMask  uint16 = 0x0FFF
)

// Inode flags (i_flags).
const (
	// InodeFlagEncrypt marks an inode whose contents and names are encrypted.
	InodeFlagEncrypt uint32 = 0x00000800

	// InodeFlagIndex marks a hashed-index directory.
	InodeFlagIndex uint32 = 0x00001000

	// InodeFlagExtents marks an inode mapped by an extent tree.
	InodeFlagExtents uint32 = 0x00080000

	// InodeFlagInlineData marks an inode whose data lives in the inode.
	InodeFlagInlineData uint32 = 0x10000000
)

// InodeLayout selects the interpretation of the i_block union.
type InodeLayout uint8

const (
	// LayoutBlockMap is the legacy direct/indirect block pointer array.
	LayoutBlockMap InodeLayout = iota

	// LayoutExtents is an extent tree root.
	LayoutExtents

	// LayoutInlineSymlink is symlink target text.
	LayoutInlineSymlink
)

// String returns the layout name.
func (l InodeLayout) String() string {
	switch l {
	case LayoutExtents:
		return "extents"
	case LayoutInlineSymlink:
		return "inline-symlink"
	default:
		return "block-map"
	}
}

// Inode is the decoded form of the first 128 bytes of an inode record.
type Inode struct {
	Mode       uint16
	UID        uint16
	SizeLo     uint32
	Atime      uint32
	Ctime      uint32
	Mtime      uint32
	Dtime      uint32
	GID        uint16
	LinksCount uint16
	// BlocksLo counts 512-byte sectors, not filesystem blocks.
	BlocksLo   uint32
	Flags      uint32
	Block      [InodeBlockAreaSize]byte
	Generation uint32
	FileACLLo  uint32
	SizeHigh   uint32
}
