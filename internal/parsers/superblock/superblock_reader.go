package superblock

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/deploymenttheory/go-extfs/internal/interfaces"
	"github.com/deploymenttheory/go-extfs/internal/types"
)

// superblockReader implements the SuperblockReader interface
type superblockReader struct {
	superblock *types.Superblock
	data       []byte
	endian     binary.ByteOrder
}

// NewSuperblockReader creates a new SuperblockReader from the 1024 bytes
// found at types.SuperblockOffset
func NewSuperblockReader(data []byte, endian binary.ByteOrder) (interfaces.SuperblockReader, error) {
	if len(data) < types.SuperblockSize {
		return nil, fmt.Errorf("%w: data too small for superblock: %d bytes", types.ErrBadFilesystem, len(data))
	}

	sb, err := parseSuperblock(data, endian)
	if err != nil {
		return nil, fmt.Errorf("failed to parse superblock: %w", err)
	}

	if sb.Magic != types.SuperblockMagic {
		return nil, fmt.Errorf("%w: invalid superblock magic: got 0x%04X, want 0x%04X",
			types.ErrBadFilesystem, sb.Magic, types.SuperblockMagic)
	}

	return &superblockReader{
		superblock: sb,
		data:       data,
		endian:     endian,
	}, nil
}

// parseSuperblock parses raw bytes into a Superblock structure
func parseSuperblock(data []byte, endian binary.ByteOrder) (*types.Superblock, error) {
	if len(data) < types.SuperblockSize {
		return nil, fmt.Errorf("insufficient data for superblock")
	}

	sb := &types.Superblock{}
	sb.InodesCount = endian.Uint32(data[types.SbInodesCount:])
	sb.BlocksCountLo = endian.Uint32(data[types.SbBlocksCountLo:])
	sb.RBlocksCountLo = endian.Uint32(data[types.SbRBlocksCountLo:])
	sb.FreeBlocksCountLo = endian.Uint32(data[types.SbFreeBlocksCountLo:])
	sb.FreeInodesCount = endian.Uint32(data[types.SbFreeInodesCount:])
	sb.FirstDataBlock = endian.Uint32(data[types.SbFirstDataBlock:])
	sb.LogBlockSize = endian.Uint32(data[types.SbLogBlockSize:])
	sb.LogClusterSize = endian.Uint32(data[types.SbLogClusterSize:])
	sb.BlocksPerGroup = endian.Uint32(data[types.SbBlocksPerGroup:])
	sb.ClustersPerGroup = endian.Uint32(data[types.SbClustersPerGroup:])
	sb.InodesPerGroup = endian.Uint32(data[types.SbInodesPerGroup:])
	sb.Mtime = endian.Uint32(data[types.SbMtime:])
	sb.Wtime = endian.Uint32(data[types.SbWtime:])
	sb.MntCount = endian.Uint16(data[types.SbMntCount:])
	sb.MaxMntCount = endian.Uint16(data[types.SbMaxMntCount:])
	sb.Magic = endian.Uint16(data[types.SbMagic:])
	sb.State = endian.Uint16(data[types.SbState:])
	sb.Errors = endian.Uint16(data[types.SbErrors:])
	sb.MinorRevLevel = endian.Uint16(data[types.SbMinorRevLevel:])
	sb.LastCheck = endian.Uint32(data[types.SbLastCheck:])
	sb.CheckInterval = endian.Uint32(data[types.SbCheckInterval:])
	sb.CreatorOS = endian.Uint32(data[types.SbCreatorOS:])
	sb.RevLevel = endian.Uint32(data[types.SbRevLevel:])
	sb.DefResUID = endian.Uint16(data[types.SbDefResUID:])
	sb.DefResGID = endian.Uint16(data[types.SbDefResGID:])

	// Revision 0 leaves everything past s_def_resgid undefined
	if sb.RevLevel == types.RevisionGoodOld {
		sb.FirstIno = types.GoodOldFirstInode
		sb.InodeSize = types.GoodOldInodeSize
		return sb, nil
	}

	sb.FirstIno = endian.Uint32(data[types.SbFirstIno:])
	sb.InodeSize = endian.Uint16(data[types.SbInodeSize:])
	sb.BlockGroupNr = endian.Uint16(data[types.SbBlockGroupNr:])
	sb.FeatureCompat = endian.Uint32(data[types.SbFeatureCompat:])
	sb.FeatureIncompat = endian.Uint32(data[types.SbFeatureIncompat:])
	sb.FeatureRoCompat = endian.Uint32(data[types.SbFeatureRoCompat:])
	copy(sb.UUID[:], data[types.SbUUID:types.SbUUID+16])
	copy(sb.VolumeName[:], data[types.SbVolumeName:types.SbVolumeName+16])
	copy(sb.LastMounted[:], data[types.SbLastMounted:types.SbLastMounted+64])
	sb.ReservedGdtBlocks = endian.Uint16(data[types.SbReservedGdtBlocks:])
	copy(sb.JournalUUID[:], data[types.SbJournalUUID:types.SbJournalUUID+16])
	sb.JournalInum = endian.Uint32(data[types.SbJournalInum:])
	sb.DescSize = endian.Uint16(data[types.SbDescSize:])
	sb.DefaultMountOpts = endian.Uint32(data[types.SbDefaultMountOpts:])
	sb.FirstMetaBg = endian.Uint32(data[types.SbFirstMetaBg:])
	sb.MkfsTime = endian.Uint32(data[types.SbMkfsTime:])
	sb.BlocksCountHi = endian.Uint32(data[types.SbBlocksCountHi:])
	sb.RBlocksCountHi = endian.Uint32(data[types.SbRBlocksCountHi:])
	sb.FreeBlocksCountHi = endian.Uint32(data[types.SbFreeBlocksCountHi:])

	return sb, nil
}

// Magic returns s_magic
func (sr *superblockReader) Magic() uint16 {
	return sr.superblock.Magic
}

// RevisionLevel returns the format revision
func (sr *superblockReader) RevisionLevel() uint32 {
	return sr.superblock.RevLevel
}

// LogBlockSize returns the raw s_log_block_size
func (sr *superblockReader) LogBlockSize() uint32 {
	return sr.superblock.LogBlockSize
}

// BlockSize returns the block size in bytes, zero if s_log_block_size is out of range
func (sr *superblockReader) BlockSize() uint32 {
	if sr.superblock.LogBlockSize > types.MaxLogBlockSize {
		return 0
	}
	return types.MinBlockSize << sr.superblock.LogBlockSize
}

// InodeSize returns the on-disk inode record size
func (sr *superblockReader) InodeSize() uint16 {
	if sr.superblock.RevLevel == types.RevisionGoodOld {
		return types.GoodOldInodeSize
	}
	return sr.superblock.InodeSize
}

// DescriptorSize returns the raw s_desc_size
func (sr *superblockReader) DescriptorSize() uint16 {
	return sr.superblock.DescSize
}

// InodesCount returns the total number of inodes
func (sr *superblockReader) InodesCount() uint32 {
	return sr.superblock.InodesCount
}

// BlocksCount returns the total number of blocks
func (sr *superblockReader) BlocksCount() uint64 {
	count := uint64(sr.superblock.BlocksCountLo)
	if sr.HasIncompat(types.FeatureIncompat64Bit) {
		count |= uint64(sr.superblock.BlocksCountHi) << 32
	}
	return count
}

// FreeBlocksCount returns the number of free blocks
func (sr *superblockReader) FreeBlocksCount() uint64 {
	count := uint64(sr.superblock.FreeBlocksCountLo)
	if sr.HasIncompat(types.FeatureIncompat64Bit) {
		count |= uint64(sr.superblock.FreeBlocksCountHi) << 32
	}
	return count
}

// FreeInodesCount returns the number of free inodes
func (sr *superblockReader) FreeInodesCount() uint32 {
	return sr.superblock.FreeInodesCount
}

// FirstDataBlock returns s_first_data_block
func (sr *superblockReader) FirstDataBlock() uint32 {
	return sr.superblock.FirstDataBlock
}

// BlocksPerGroup returns the number of blocks in each group
func (sr *superblockReader) BlocksPerGroup() uint32 {
	return sr.superblock.BlocksPerGroup
}

// InodesPerGroup returns the number of inodes in each group
func (sr *superblockReader) InodesPerGroup() uint32 {
	return sr.superblock.InodesPerGroup
}

// FirstMetaBg returns s_first_meta_bg
func (sr *superblockReader) FirstMetaBg() uint32 {
	return sr.superblock.FirstMetaBg
}

// FeatureCompat returns the compatible feature mask
func (sr *superblockReader) FeatureCompat() uint32 {
	return sr.superblock.FeatureCompat
}

// FeatureIncompat returns the incompatible feature mask
func (sr *superblockReader) FeatureIncompat() uint32 {
	return sr.superblock.FeatureIncompat
}

// FeatureRoCompat returns the read-only compatible feature mask
func (sr *superblockReader) FeatureRoCompat() uint32 {
	return sr.superblock.FeatureRoCompat
}

// HasIncompat checks for an incompatible feature bit
func (sr *superblockReader) HasIncompat(mask uint32) bool {
	return sr.superblock.FeatureIncompat&mask != 0
}

// HasRoCompat checks for a read-only compatible feature bit
func (sr *superblockReader) HasRoCompat(mask uint32) bool {
	return sr.superblock.FeatureRoCompat&mask != 0
}

// UUID returns the raw volume UUID bytes
func (sr *superblockReader) UUID() [16]byte {
	return sr.superblock.UUID
}

// VolumeName returns the volume label without trailing NULs
func (sr *superblockReader) VolumeName() string {
	return cString(sr.superblock.VolumeName[:])
}

// LastMounted returns the directory where the volume was last mounted
func (sr *superblockReader) LastMounted() string {
	return cString(sr.superblock.LastMounted[:])
}

// WriteTime returns the time of the last superblock write
func (sr *superblockReader) WriteTime() time.Time {
	return time.Unix(int64(sr.superblock.Wtime), 0).UTC()
}

// MountTime returns the time of the last mount
func (sr *superblockReader) MountTime() time.Time {
	return time.Unix(int64(sr.superblock.Mtime), 0).UTC()
}

// Superblock returns the decoded structure
func (sr *superblockReader) Superblock() *types.Superblock {
	return sr.superblock
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
