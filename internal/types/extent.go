package types

// Extent Tree
// An extent tree node is a 12-byte header followed by 12-byte entries. The
// root lives in i_block (room for 4 entries); deeper nodes fill a block.

const (
	// ExtentMagic identifies an extent node header (eh_magic).
	ExtentMagic uint16 = 0xF30A

	// ExtentHeaderSize is the size of an extent node header.
	ExtentHeaderSize = 12

	// ExtentEntrySize is the size of both index and leaf entries.
	ExtentEntrySize = 12

	// ExtentMaxDepth is the deepest tree the kernel creates.
	ExtentMaxDepth = 5

	// ExtentInitMaxLen is the longest initialized extent. A stored length
	// above it marks an uninitialized extent of length (len - ExtentInitMaxLen).
	ExtentInitMaxLen = 32768
)

// ExtentHeader starts every extent tree node.
type ExtentHeader struct {
	Magic      uint16
	Entries    uint16
	Max        uint16
	Depth      uint16
	Generation uint32
}

// ExtentIndex is an entry of an internal node. It covers logical blocks from
// Block up to the next index's Block.
type ExtentIndex struct {
	Block  uint32
	LeafLo uint32
	LeafHi uint16
	Unused uint16
}

// Leaf returns the 48-bit physical block of the child node.
func (ei ExtentIndex) Leaf() uint64 {
	return uint64(ei.LeafHi)<<32 | uint64(ei.LeafLo)
}

// ExtentLeaf is an entry of a leaf node mapping Len logical blocks starting
// at Block onto contiguous physical blocks.
type ExtentLeaf struct {
	Block   uint32
	Len     uint16
	StartHi uint16
	StartLo uint32
}

// Start returns the 48-bit physical block of the first mapped block.
func (el ExtentLeaf) Start() uint64 {
	return uint64(el.StartHi)<<32 | uint64(el.StartLo)
}

// Length returns the number of mapped blocks, uninitialized or not.
func (el ExtentLeaf) Length() uint32 {
	if el.Len > ExtentInitMaxLen {
		return uint32(el.Len) - ExtentInitMaxLen
	}
	return uint32(el.Len)
}

// Uninitialized reports whether the extent is allocated but unwritten.
func (el ExtentLeaf) Uninitialized() bool {
	return el.Len > ExtentInitMaxLen
}
