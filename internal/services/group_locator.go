package services

import (
	"fmt"

	"github.com/deploymenttheory/go-extfs/internal/interfaces"
	"github.com/deploymenttheory/go-extfs/internal/parsers/groupdesc"
	"github.com/deploymenttheory/go-extfs/internal/types"
)

// HasSuperblock reports whether group carries a superblock and descriptor
// table copy. Without sparse_super every group does; with it only groups 0,
// 1 and powers of 3, 5 and 7.
func (g Geometry) HasSuperblock(group uint64) bool {
	if !g.SparseSuper || group <= 1 {
		return true
	}
	if group&1 == 0 {
		return false
	}
	return isPowerOf(group, 3) || isPowerOf(group, 5) || isPowerOf(group, 7)
}

func isPowerOf(n, base uint64) bool {
	for n%base == 0 {
		n /= base
	}
	return n == 1
}

// WideDescriptors reports whether descriptors carry the 64-bit high halves
func (g Geometry) WideDescriptors() bool {
	return g.LogDescSize >= types.LogGroupDescSize64
}

// DescriptorOffset returns the absolute byte offset of the descriptor of
// group. Descriptors normally follow the block holding the primary
// superblock. Under meta_bg, descriptor blocks from first_meta_bg on live at
// the start of their own meta group, after that group's superblock copy.
func (g Geometry) DescriptorOffset(group uint32) uint64 {
	full := uint64(group) << g.LogDescSize
	block := full >> g.Log2BlockSize
	offset := full & uint64(g.BlockSize-1)

	if g.MetaBg && block >= uint64(g.FirstMetaBg) {
		firstGroup := block << (g.Log2BlockSize - g.LogDescSize)
		block = firstGroup * uint64(g.BlocksPerGroup)
		if g.HasSuperblock(firstGroup) {
			block++
		}
	} else {
		block++
	}

	return (uint64(g.FirstDataBlock)+block)*uint64(g.BlockSize) + offset
}

// GroupDescriptor reads the descriptor of group. Descriptors are not kept
// beyond the block cache.
func (v *Volume) GroupDescriptor(group uint32) (interfaces.GroupDescriptorReader, error) {
	if group >= v.geometry.GroupCount {
		return nil, fmt.Errorf("%w: block group %d out of range (%d groups)", types.ErrBadFilesystem, group, v.geometry.GroupCount)
	}

	size := uint32(types.GroupDescSize)
	wide := v.geometry.WideDescriptors()
	if wide {
		size = types.GroupDescSize64
	}

	offset := v.geometry.DescriptorOffset(group)
	bs := uint64(v.geometry.BlockSize)
	data, err := v.blocks.ReadBytes(offset/bs, uint32(offset%bs), size)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor of group %d: %w", group, err)
	}

	return groupdesc.NewGroupDescriptorReader(data, wide, v.endian)
}
