package services

import (
	"fmt"
	"math"

	"github.com/deploymenttheory/go-extfs/internal/interfaces"
	"github.com/deploymenttheory/go-extfs/internal/parsers/extents"
	"github.com/deploymenttheory/go-extfs/internal/types"
)

// BlockMapping is the physical location of a logical file block
type BlockMapping struct {
	// Physical block number, zero for a hole
	Physical uint64
	// Run is the number of logical blocks starting here known to share the
	// same mapping kind: physically contiguous blocks, or hole blocks. It is
	// always at least 1.
	Run uint64
	// Uninitialized marks blocks that are allocated but read as zeros
	Uninitialized bool
}

// IsHole reports whether the block has no physical storage
func (m BlockMapping) IsHole() bool {
	return m.Physical == 0
}

// ZeroFilled reports whether the block reads as zeros
func (m BlockMapping) ZeroFilled() bool {
	return m.Physical == 0 || m.Uninitialized
}

// ResolveBlock maps logical block of inode to a physical block, dispatching
// on the inode's block area layout
func (v *Volume) ResolveBlock(inode *Inode, logical uint64) (BlockMapping, error) {
	switch inode.Layout() {
	case types.LayoutExtents:
		return v.resolveExtent(inode, logical)
	case types.LayoutBlockMap:
		return v.resolveIndirect(inode, logical)
	default:
		return BlockMapping{}, fmt.Errorf("%w: inode %d has no block mapping (%s)",
			types.ErrBadFilesystem, inode.Number, inode.Layout())
	}
}

// resolveExtent descends the extent tree from the root held in the inode.
// Each child node buffer lives only for one loop iteration.
func (v *Volume) resolveExtent(inode *Inode, logical uint64) (BlockMapping, error) {
	node, err := extents.NewExtentNodeReader(inode.ExtentRoot(), v.endian)
	if err != nil {
		return BlockMapping{}, fmt.Errorf("inode %d extent root: %w", inode.Number, err)
	}

	// Extent trees address 32-bit logical blocks, and an empty root maps nothing
	if logical > math.MaxUint32 || (node.IsLeaf() && node.EntryCount() == 0) {
		return BlockMapping{Run: 1}, nil
	}
	target := uint32(logical)

	for !node.IsLeaf() {
		i, ok := node.FindIndex(target)
		if !ok {
			return BlockMapping{}, fmt.Errorf("%w: inode %d: no index covers block %d at depth %d",
				types.ErrInvalidExtentTree, inode.Number, target, node.Depth())
		}

		child, err := v.readExtentNode(node.Indexes()[i].Leaf())
		if err != nil {
			return BlockMapping{}, fmt.Errorf("inode %d: %w", inode.Number, err)
		}
		if child.Depth() != node.Depth()-1 {
			return BlockMapping{}, fmt.Errorf("%w: inode %d: child depth %d under depth %d",
				types.ErrInvalidExtentTree, inode.Number, child.Depth(), node.Depth())
		}
		node = child
	}

	i, ok := node.FindLeaf(target)
	if !ok {
		return BlockMapping{}, fmt.Errorf("%w: inode %d: no extent covers block %d",
			types.ErrInvalidExtentTree, inode.Number, target)
	}

	leaves := node.Leaves()
	leaf := leaves[i]
	offset := target - leaf.Block
	if offset >= leaf.Length() {
		// Sparse gap up to the next extent of this leaf
		run := uint64(1)
		if i+1 < len(leaves) {
			run = uint64(leaves[i+1].Block) - uint64(target)
		}
		return BlockMapping{Run: run}, nil
	}

	return BlockMapping{
		Physical:      leaf.Start() + uint64(offset),
		Run:           uint64(leaf.Length() - offset),
		Uninitialized: leaf.Uninitialized(),
	}, nil
}

func (v *Volume) readExtentNode(block uint64) (interfaces.ExtentNodeReader, error) {
	data, err := v.blocks.ReadBlock(block)
	if err != nil {
		return nil, fmt.Errorf("failed to read extent node %d: %w", block, err)
	}
	return extents.NewExtentNodeReader(data, v.endian)
}

// resolveIndirect walks the direct, single, double and triple indirect tiers.
// A zero pointer at any level makes the whole subtree a hole.
func (v *Volume) resolveIndirect(inode *Inode, logical uint64) (BlockMapping, error) {
	ptrs := inode.BlockPointers()
	perBlock := uint64(v.geometry.BlockSize / 4)
	block := logical

	if block < types.DirectBlocks {
		return BlockMapping{Physical: uint64(ptrs[block]), Run: 1}, nil
	}
	block -= types.DirectBlocks

	levels := 0
	capacity := perBlock
	for slot := types.IndirectBlockIndex; slot <= types.TripleIndirectBlockIndex; slot++ {
		levels++
		if block < capacity {
			phys, err := v.walkIndirect(ptrs[slot], block, levels)
			if err != nil {
				return BlockMapping{}, fmt.Errorf("inode %d block %d: %w", inode.Number, logical, err)
			}
			return BlockMapping{Physical: phys, Run: 1}, nil
		}
		block -= capacity
		capacity *= perBlock
	}

	return BlockMapping{}, fmt.Errorf("%w: inode %d block %d needs quadruple indirect blocks",
		types.ErrUnsupportedFeature, inode.Number, logical)
}

// walkIndirect follows levels of pointer blocks from root to the data block
// holding index
func (v *Volume) walkIndirect(root uint32, index uint64, levels int) (uint64, error) {
	shift := v.geometry.Log2BlockSize - 2
	mask := uint64(v.geometry.BlockSize/4) - 1

	block := uint64(root)
	for level := levels - 1; level >= 0; level-- {
		if block == 0 {
			return 0, nil
		}
		data, err := v.blocks.ReadBlock(block)
		if err != nil {
			return 0, fmt.Errorf("failed to read indirect block %d: %w", block, err)
		}
		slot := (index >> (shift * uint32(level))) & mask
		block = uint64(v.endian.Uint32(data[slot*4:]))
	}
	return block, nil
}
