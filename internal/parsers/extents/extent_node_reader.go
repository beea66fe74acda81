package extents

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/deploymenttheory/go-extfs/internal/interfaces"
	"github.com/deploymenttheory/go-extfs/internal/types"
)

// extentNodeReader implements the ExtentNodeReader interface
type extentNodeReader struct {
	header  types.ExtentHeader
	indexes []types.ExtentIndex
	leaves  []types.ExtentLeaf
}

// NewExtentNodeReader decodes an extent tree node. data is either the 60-byte
// i_block root or a whole filesystem block.
func NewExtentNodeReader(data []byte, endian binary.ByteOrder) (interfaces.ExtentNodeReader, error) {
	if len(data) < types.ExtentHeaderSize {
		return nil, fmt.Errorf("%w: node too small: %d bytes", types.ErrInvalidExtentTree, len(data))
	}

	header := parseExtentHeader(data, endian)
	if header.Magic != types.ExtentMagic {
		return nil, fmt.Errorf("%w: invalid magic 0x%04X", types.ErrInvalidExtentTree, header.Magic)
	}
	if header.Entries > header.Max {
		return nil, fmt.Errorf("%w: %d entries exceed maximum %d", types.ErrInvalidExtentTree, header.Entries, header.Max)
	}
	if types.ExtentHeaderSize+int(header.Entries)*types.ExtentEntrySize > len(data) {
		return nil, fmt.Errorf("%w: %d entries do not fit in %d bytes", types.ErrInvalidExtentTree, header.Entries, len(data))
	}
	if header.Depth > types.ExtentMaxDepth {
		return nil, fmt.Errorf("%w: depth %d exceeds %d", types.ErrInvalidExtentTree, header.Depth, types.ExtentMaxDepth)
	}

	nr := &extentNodeReader{header: header}
	body := data[types.ExtentHeaderSize:]
	if header.Depth == 0 {
		nr.leaves = parseExtentLeaves(body, int(header.Entries), endian)
	} else {
		nr.indexes = parseExtentIndexes(body, int(header.Entries), endian)
	}
	return nr, nil
}

// parseExtentHeader parses the 12-byte node header
func parseExtentHeader(data []byte, endian binary.ByteOrder) types.ExtentHeader {
	return types.ExtentHeader{
		Magic:      endian.Uint16(data[0:2]),
		Entries:    endian.Uint16(data[2:4]),
		Max:        endian.Uint16(data[4:6]),
		Depth:      endian.Uint16(data[6:8]),
		Generation: endian.Uint32(data[8:12]),
	}
}

func parseExtentIndexes(data []byte, count int, endian binary.ByteOrder) []types.ExtentIndex {
	indexes := make([]types.ExtentIndex, count)
	for i := range indexes {
		e := data[i*types.ExtentEntrySize:]
		indexes[i] = types.ExtentIndex{
			Block:  endian.Uint32(e[0:4]),
			LeafLo: endian.Uint32(e[4:8]),
			LeafHi: endian.Uint16(e[8:10]),
			Unused: endian.Uint16(e[10:12]),
		}
	}
	return indexes
}

func parseExtentLeaves(data []byte, count int, endian binary.ByteOrder) []types.ExtentLeaf {
	leaves := make([]types.ExtentLeaf, count)
	for i := range leaves {
		e := data[i*types.ExtentEntrySize:]
		leaves[i] = types.ExtentLeaf{
			Block:   endian.Uint32(e[0:4]),
			Len:     endian.Uint16(e[4:6]),
			StartHi: endian.Uint16(e[6:8]),
			StartLo: endian.Uint32(e[8:12]),
		}
	}
	return leaves
}

// Header returns the node header
func (nr *extentNodeReader) Header() types.ExtentHeader {
	return nr.header
}

// Depth returns the number of index levels below this node
func (nr *extentNodeReader) Depth() uint16 {
	return nr.header.Depth
}

// IsLeaf checks if entries are leaf extents
func (nr *extentNodeReader) IsLeaf() bool {
	return nr.header.Depth == 0
}

// EntryCount returns the number of valid entries
func (nr *extentNodeReader) EntryCount() int {
	return int(nr.header.Entries)
}

// Indexes returns the entries of an internal node
func (nr *extentNodeReader) Indexes() []types.ExtentIndex {
	return nr.indexes
}

// Leaves returns the entries of a leaf node
func (nr *extentNodeReader) Leaves() []types.ExtentLeaf {
	return nr.leaves
}

// FindIndex returns the position of the last index whose Block is <= logical.
// Entries are sorted by Block; false means logical precedes the first entry.
func (nr *extentNodeReader) FindIndex(logical uint32) (int, bool) {
	i := sort.Search(len(nr.indexes), func(i int) bool {
		return nr.indexes[i].Block > logical
	})
	if i == 0 {
		return 0, false
	}
	return i - 1, true
}

// FindLeaf returns the position of the last leaf whose Block is <= logical
func (nr *extentNodeReader) FindLeaf(logical uint32) (int, bool) {
	i := sort.Search(len(nr.leaves), func(i int) bool {
		return nr.leaves[i].Block > logical
	})
	if i == 0 {
		return 0, false
	}
	return i - 1, true
}
