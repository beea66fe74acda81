package inodes

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/deploymenttheory/go-extfs/internal/interfaces"
	"github.com/deploymenttheory/go-extfs/internal/types"
)

// inodeReader implements the InodeReader interface
type inodeReader struct {
	inode  *types.Inode
	endian binary.ByteOrder
}

// NewInodeReader decodes the first 128 bytes of an inode record
func NewInodeReader(data []byte, endian binary.ByteOrder) (interfaces.InodeReader, error) {
	if len(data) < types.InodeBaseSize {
		return nil, fmt.Errorf("%w: data too small for inode: %d bytes", types.ErrBadFilesystem, len(data))
	}

	return &inodeReader{
		inode:  parseInode(data, endian),
		endian: endian,
	}, nil
}

// parseInode parses raw bytes into an Inode structure
func parseInode(data []byte, endian binary.ByteOrder) *types.Inode {
	in := &types.Inode{}
	in.Mode = endian.Uint16(data[types.InodeMode:])
	in.UID = endian.Uint16(data[types.InodeUID:])
	in.SizeLo = endian.Uint32(data[types.InodeSizeLo:])
	in.Atime = endian.Uint32(data[types.InodeAtime:])
	in.Ctime = endian.Uint32(data[types.InodeCtime:])
	in.Mtime = endian.Uint32(data[types.InodeMtime:])
	in.Dtime = endian.Uint32(data[types.InodeDtime:])
	in.GID = endian.Uint16(data[types.InodeGID:])
	in.LinksCount = endian.Uint16(data[types.InodeLinksCount:])
	in.BlocksLo = endian.Uint32(data[types.InodeBlocksLo:])
	in.Flags = endian.Uint32(data[types.InodeFlags:])
	copy(in.Block[:], data[types.InodeBlock:types.InodeBlock+types.InodeBlockAreaSize])
	in.Generation = endian.Uint32(data[types.InodeGeneration:])
	in.FileACLLo = endian.Uint32(data[types.InodeFileACLLo:])
	in.SizeHigh = endian.Uint32(data[types.InodeSizeHigh:])
	return in
}

// Mode returns the raw i_mode
func (ir *inodeReader) Mode() uint16 {
	return ir.inode.Mode
}

// Type classifies the inode from its mode bits
func (ir *inodeReader) Type() types.FileType {
	switch ir.inode.Mode & types.ModeTypeMask {
	case types.ModeDirectory:
		return types.FileTypeDirectory
	case types.ModeRegular:
		return types.FileTypeRegular
	case types.ModeSymlink:
		return types.FileTypeSymlink
	default:
		return types.FileTypeUnknown
	}
}

// IsDir checks if the inode is a directory
func (ir *inodeReader) IsDir() bool {
	return ir.inode.Mode&types.ModeTypeMask == types.ModeDirectory
}

// IsRegular checks if the inode is a regular file
func (ir *inodeReader) IsRegular() bool {
	return ir.inode.Mode&types.ModeTypeMask == types.ModeRegular
}

// IsSymlink checks if the inode is a symbolic link
func (ir *inodeReader) IsSymlink() bool {
	return ir.inode.Mode&types.ModeTypeMask == types.ModeSymlink
}

// Size returns the file size in bytes. Directories use only the low 32 bits;
// ext2 keeps i_dir_acl in the high word.
func (ir *inodeReader) Size() uint64 {
	if ir.IsDir() {
		return uint64(ir.inode.SizeLo)
	}
	return uint64(ir.inode.SizeHigh)<<32 | uint64(ir.inode.SizeLo)
}

// Flags returns i_flags
func (ir *inodeReader) Flags() uint32 {
	return ir.inode.Flags
}

// IsEncrypted checks the encryption flag
func (ir *inodeReader) IsEncrypted() bool {
	return ir.inode.Flags&types.InodeFlagEncrypt != 0
}

// LinksCount returns the hard link count
func (ir *inodeReader) LinksCount() uint16 {
	return ir.inode.LinksCount
}

// ModificationTime returns the mtime
func (ir *inodeReader) ModificationTime() time.Time {
	return time.Unix(int64(ir.inode.Mtime), 0).UTC()
}

// Layout returns how the block area must be interpreted. A symlink whose
// target is shorter than the block area keeps the text inline and never
// carries the extents flag.
func (ir *inodeReader) Layout() types.InodeLayout {
	if ir.IsSymlink() && ir.Size() < types.InlineSymlinkMax && ir.inode.Flags&types.InodeFlagExtents == 0 {
		return types.LayoutInlineSymlink
	}
	if ir.inode.Flags&types.InodeFlagExtents != 0 {
		return types.LayoutExtents
	}
	return types.LayoutBlockMap
}

// ExtentRoot returns the block area as an extent tree root node
func (ir *inodeReader) ExtentRoot() []byte {
	root := make([]byte, types.InodeBlockAreaSize)
	copy(root, ir.inode.Block[:])
	return root
}

// BlockPointers returns the 12 direct and 3 indirect pointers
func (ir *inodeReader) BlockPointers() [types.BlockPointerCount]uint32 {
	var ptrs [types.BlockPointerCount]uint32
	for i := range ptrs {
		ptrs[i] = ir.endian.Uint32(ir.inode.Block[i*4:])
	}
	return ptrs
}

// InlineSymlink returns the target of a symlink stored in the inode
func (ir *inodeReader) InlineSymlink() (string, bool) {
	if ir.Layout() != types.LayoutInlineSymlink {
		return "", false
	}
	return string(ir.inode.Block[:ir.Size()]), true
}

// Inode returns the decoded structure
func (ir *inodeReader) Inode() *types.Inode {
	return ir.inode
}
