package groupdesc

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-extfs/internal/interfaces"
	"github.com/deploymenttheory/go-extfs/internal/types"
)

// groupDescriptorReader implements the GroupDescriptorReader interface
type groupDescriptorReader struct {
	descriptor *types.GroupDescriptor
	is64Bit    bool
	endian     binary.ByteOrder
}

// NewGroupDescriptorReader decodes a block group descriptor. The high halves
// are decoded only when data holds a full 64-byte descriptor and wide is set
// (the filesystem's descriptor size is at least 64).
func NewGroupDescriptorReader(data []byte, wide bool, endian binary.ByteOrder) (interfaces.GroupDescriptorReader, error) {
	if len(data) < types.GroupDescSize {
		return nil, fmt.Errorf("%w: data too small for group descriptor: %d bytes", types.ErrBadFilesystem, len(data))
	}
	if wide && len(data) < types.GroupDescSize64 {
		return nil, fmt.Errorf("%w: data too small for 64-bit group descriptor: %d bytes", types.ErrBadFilesystem, len(data))
	}

	return &groupDescriptorReader{
		descriptor: parseGroupDescriptor(data, wide, endian),
		is64Bit:    wide,
		endian:     endian,
	}, nil
}

// parseGroupDescriptor parses raw bytes into a GroupDescriptor structure
func parseGroupDescriptor(data []byte, wide bool, endian binary.ByteOrder) *types.GroupDescriptor {
	gd := &types.GroupDescriptor{}
	gd.BlockBitmapLo = endian.Uint32(data[types.GdBlockBitmapLo:])
	gd.InodeBitmapLo = endian.Uint32(data[types.GdInodeBitmapLo:])
	gd.InodeTableLo = endian.Uint32(data[types.GdInodeTableLo:])
	gd.FreeBlocksCountLo = endian.Uint16(data[types.GdFreeBlocksCountLo:])
	gd.FreeInodesCountLo = endian.Uint16(data[types.GdFreeInodesCountLo:])
	gd.UsedDirsCountLo = endian.Uint16(data[types.GdUsedDirsCountLo:])
	gd.Flags = endian.Uint16(data[types.GdFlags:])
	gd.ItableUnusedLo = endian.Uint16(data[types.GdItableUnusedLo:])
	gd.Checksum = endian.Uint16(data[types.GdChecksum:])

	if !wide {
		return gd
	}

	gd.BlockBitmapHi = endian.Uint32(data[types.GdBlockBitmapHi:])
	gd.InodeBitmapHi = endian.Uint32(data[types.GdInodeBitmapHi:])
	gd.InodeTableHi = endian.Uint32(data[types.GdInodeTableHi:])
	gd.FreeBlocksCountHi = endian.Uint16(data[types.GdFreeBlocksCountHi:])
	gd.FreeInodesCountHi = endian.Uint16(data[types.GdFreeInodesCountHi:])
	gd.UsedDirsCountHi = endian.Uint16(data[types.GdUsedDirsCountHi:])
	gd.ItableUnusedHi = endian.Uint16(data[types.GdItableUnusedHi:])
	return gd
}

// BlockBitmap returns the block of the block allocation bitmap
func (gr *groupDescriptorReader) BlockBitmap() uint64 {
	return uint64(gr.descriptor.BlockBitmapHi)<<32 | uint64(gr.descriptor.BlockBitmapLo)
}

// InodeBitmap returns the block of the inode allocation bitmap
func (gr *groupDescriptorReader) InodeBitmap() uint64 {
	return uint64(gr.descriptor.InodeBitmapHi)<<32 | uint64(gr.descriptor.InodeBitmapLo)
}

// InodeTable returns the first block of the inode table
func (gr *groupDescriptorReader) InodeTable() uint64 {
	return uint64(gr.descriptor.InodeTableHi)<<32 | uint64(gr.descriptor.InodeTableLo)
}

// FreeBlocksCount returns the number of free blocks in the group
func (gr *groupDescriptorReader) FreeBlocksCount() uint32 {
	return uint32(gr.descriptor.FreeBlocksCountHi)<<16 | uint32(gr.descriptor.FreeBlocksCountLo)
}

// FreeInodesCount returns the number of free inodes in the group
func (gr *groupDescriptorReader) FreeInodesCount() uint32 {
	return uint32(gr.descriptor.FreeInodesCountHi)<<16 | uint32(gr.descriptor.FreeInodesCountLo)
}

// UsedDirsCount returns the number of directories in the group
func (gr *groupDescriptorReader) UsedDirsCount() uint32 {
	return uint32(gr.descriptor.UsedDirsCountHi)<<16 | uint32(gr.descriptor.UsedDirsCountLo)
}

// Flags returns the group flags
func (gr *groupDescriptorReader) Flags() uint16 {
	return gr.descriptor.Flags
}

// Is64Bit reports whether the high halves were decoded
func (gr *groupDescriptorReader) Is64Bit() bool {
	return gr.is64Bit
}
