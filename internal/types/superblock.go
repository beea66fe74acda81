package types

import "fmt"

// Superblock (ext2/3/4)
// The superblock lives 1024 bytes into the volume regardless of block size.

const (
	// SuperblockOffset is the byte offset of the primary superblock.
	SuperblockOffset = 1024

	// SuperblockSize is the number of bytes occupied by the superblock.
	SuperblockSize = 1024

	// SuperblockMagic identifies an ext2/3/4 filesystem (s_magic).
	SuperblockMagic uint16 = 0xEF53

	// MinBlockSize is the block size encoded by a log_block_size of zero.
	MinBlockSize = 1024

	// MaxLogBlockSize bounds s_log_block_size. Larger values would put the
	// block size above 1 MiB and overflow 32-bit block arithmetic.
	MaxLogBlockSize = 10

	// RevisionGoodOld is the original format revision: fixed 128-byte inodes
	// and no feature fields.
	RevisionGoodOld uint32 = 0

	// RevisionDynamic allows variable inode sizes and feature flags.
	RevisionDynamic uint32 = 1

	// GoodOldInodeSize is the inode size used by revision 0 filesystems.
	GoodOldInodeSize uint16 = 128

	// GoodOldFirstInode is the first non-reserved inode in revision 0.
	GoodOldFirstInode uint32 = 11

	// RootInode is the inode number of the root directory.
	RootInode uint32 = 2
)

// Superblock field offsets.
const (
	SbInodesCount       = 0x00
	SbBlocksCountLo     = 0x04
	SbRBlocksCountLo    = 0x08
	SbFreeBlocksCountLo = 0x0C
	SbFreeInodesCount   = 0x10
	SbFirstDataBlock    = 0x14
	SbLogBlockSize      = 0x18
	SbLogClusterSize    = 0x1C
	SbBlocksPerGroup    = 0x20
	SbClustersPerGroup  = 0x24
	SbInodesPerGroup    = 0x28
	SbMtime             = 0x2C
	SbWtime             = 0x30
	SbMntCount          = 0x34
	SbMaxMntCount       = 0x36
	SbMagic             = 0x38
	SbState             = 0x3A
	SbErrors            = 0x3C
	SbMinorRevLevel     = 0x3E
	SbLastCheck         = 0x40
	SbCheckInterval     = 0x44
	SbCreatorOS         = 0x48
	SbRevLevel          = 0x4C
	SbDefResUID         = 0x50
	SbDefResGID         = 0x52
	SbFirstIno          = 0x54
	SbInodeSize         = 0x58
	SbBlockGroupNr      = 0x5A
	SbFeatureCompat     = 0x5C
	SbFeatureIncompat   = 0x60
	SbFeatureRoCompat   = 0x64
	SbUUID              = 0x68
	SbVolumeName        = 0x78
	SbLastMounted       = 0x88
	SbReservedGdtBlocks = 0xCE
	SbJournalUUID       = 0xD0
	SbJournalInum       = 0xE0
	SbDescSize          = 0xFE
	SbDefaultMountOpts  = 0x100
	SbFirstMetaBg       = 0x104
	SbMkfsTime          = 0x108
	SbBlocksCountHi     = 0x150
	SbRBlocksCountHi    = 0x154
	SbFreeBlocksCountHi = 0x158
)

// Superblock holds the fields of the ext superblock needed by a read-only
// driver. The layout is described by the Sb* offsets above.
type Superblock struct {
	InodesCount       uint32
	BlocksCountLo     uint32
	RBlocksCountLo    uint32
	FreeBlocksCountLo uint32
	FreeInodesCount   uint32
	// FirstDataBlock is 1 for 1 KiB block filesystems, 0 otherwise.
	FirstDataBlock uint32
	// LogBlockSize encodes the block size as 1024 << LogBlockSize.
	LogBlockSize     uint32
	LogClusterSize   uint32
	BlocksPerGroup   uint32
	ClustersPerGroup uint32
	InodesPerGroup   uint32
	Mtime            uint32
	Wtime            uint32
	MntCount         uint16
	MaxMntCount      uint16
	Magic            uint16
	State            uint16
	Errors           uint16
	MinorRevLevel    uint16
	LastCheck        uint32
	CheckInterval    uint32
	CreatorOS        uint32
	RevLevel         uint32
	DefResUID        uint16
	DefResGID        uint16
	FirstIno         uint32
	// InodeSize is only meaningful for RevLevel >= RevisionDynamic.
	InodeSize         uint16
	BlockGroupNr      uint16
	FeatureCompat     uint32
	FeatureIncompat   uint32
	FeatureRoCompat   uint32
	UUID              [16]byte
	VolumeName        [16]byte
	LastMounted       [64]byte
	ReservedGdtBlocks uint16
	JournalUUID       [16]byte
	JournalInum       uint32
	// DescSize is the group descriptor size when the 64bit feature is set.
	DescSize          uint16
	DefaultMountOpts  uint32
	FirstMetaBg       uint32
	MkfsTime          uint32
	BlocksCountHi     uint32
	RBlocksCountHi    uint32
	FreeBlocksCountHi uint32
}

// Compatible features. A driver that does not understand them may still
// read and write the filesystem.
const (
	FeatureCompatDirPrealloc  uint32 = 0x0001
	FeatureCompatImagicInodes uint32 = 0x0002
	FeatureCompatHasJournal   uint32 = 0x0004
	FeatureCompatExtAttr      uint32 = 0x0008
	FeatureCompatResizeInode  uint32 = 0x0010
	FeatureCompatDirIndex     uint32 = 0x0020
	FeatureCompatSparseSuper2 uint32 = 0x0200
)

// Read-only compatible features. A read-only driver may ignore all of them.
const (
	FeatureRoCompatSparseSuper  uint32 = 0x0001
	FeatureRoCompatLargeFile    uint32 = 0x0002
	FeatureRoCompatBtreeDir     uint32 = 0x0004
	FeatureRoCompatHugeFile     uint32 = 0x0008
	FeatureRoCompatGdtCsum      uint32 = 0x0010
	FeatureRoCompatDirNlink     uint32 = 0x0020
	FeatureRoCompatExtraIsize   uint32 = 0x0040
	FeatureRoCompatQuota        uint32 = 0x0100
	FeatureRoCompatBigalloc     uint32 = 0x0200
	FeatureRoCompatMetadataCsum uint32 = 0x0400
)

// Incompatible features. A driver must not read a filesystem carrying an
// incompatible feature it does not understand.
const (
	FeatureIncompatCompression uint32 = 0x0001
	FeatureIncompatFiletype    uint32 = 0x0002
	FeatureIncompatRecover     uint32 = 0x0004
	FeatureIncompatJournalDev  uint32 = 0x0008
	FeatureIncompatMetaBg      uint32 = 0x0010
	FeatureIncompatExtents     uint32 = 0x0040
	FeatureIncompat64Bit       uint32 = 0x0080
	FeatureIncompatMMP         uint32 = 0x0100
	FeatureIncompatFlexBg      uint32 = 0x0200
	FeatureIncompatEAInode     uint32 = 0x0400
	FeatureIncompatDirData     uint32 = 0x1000
	FeatureIncompatCsumSeed    uint32 = 0x2000
	FeatureIncompatLargeDir    uint32 = 0x4000
	FeatureIncompatInlineData  uint32 = 0x8000
	FeatureIncompatEncrypt     uint32 = 0x10000
)

// SupportedIncompat is the set of incompatible features this driver reads.
const SupportedIncompat = FeatureIncompatFiletype |
	FeatureIncompatExtents |
	FeatureIncompatFlexBg |
	FeatureIncompatMetaBg |
	FeatureIncompat64Bit |
	FeatureIncompatEncrypt

// IgnoredIncompat lists incompatible features that only matter to writers or
// to checksum verification:
//   - recover: the journal needs replay before a read-write mount. A
//     read-only reader never replays it.
//   - mmp: multi-mount protection guards concurrent read-write mounts.
//   - csum_seed: checksum seed stored in the superblock, used only when
//     verifying metadata checksums, which this driver does not do. Remove
//     it from this list if checksum verification is ever added.
const IgnoredIncompat = FeatureIncompatRecover |
	FeatureIncompatMMP |
	FeatureIncompatCsumSeed

// FeatureName pairs a feature bit with its mke2fs name.
type FeatureName struct {
	Mask uint32
	Name string
}

// CompatFeatureNames names the compatible feature bits.
var CompatFeatureNames = []FeatureName{
	{FeatureCompatDirPrealloc, "dir_prealloc"},
	{FeatureCompatImagicInodes, "imagic_inodes"},
	{FeatureCompatHasJournal, "has_journal"},
	{FeatureCompatExtAttr, "ext_attr"},
	{FeatureCompatResizeInode, "resize_inode"},
	{FeatureCompatDirIndex, "dir_index"},
	{FeatureCompatSparseSuper2, "sparse_super2"},
}

// IncompatFeatureNames names the incompatible feature bits.
var IncompatFeatureNames = []FeatureName{
	{FeatureIncompatCompression, "compression"},
	{FeatureIncompatFiletype, "filetype"},
	{FeatureIncompatRecover, "needs_recovery"},
	{FeatureIncompatJournalDev, "journal_dev"},
	{FeatureIncompatMetaBg, "meta_bg"},
	{FeatureIncompatExtents, "extent"},
	{FeatureIncompat64Bit, "64bit"},
	{FeatureIncompatMMP, "mmp"},
	{FeatureIncompatFlexBg, "flex_bg"},
	{FeatureIncompatEAInode, "ea_inode"},
	{FeatureIncompatDirData, "dirdata"},
	{FeatureIncompatCsumSeed, "metadata_csum_seed"},
	{FeatureIncompatLargeDir, "large_dir"},
	{FeatureIncompatInlineData, "inline_data"},
	{FeatureIncompatEncrypt, "encrypt"},
}

// RoCompatFeatureNames names the read-only compatible feature bits.
var RoCompatFeatureNames = []FeatureName{
	{FeatureRoCompatSparseSuper, "sparse_super"},
	{FeatureRoCompatLargeFile, "large_file"},
	{FeatureRoCompatBtreeDir, "btree_dir"},
	{FeatureRoCompatHugeFile, "huge_file"},
	{FeatureRoCompatGdtCsum, "uninit_bg"},
	{FeatureRoCompatDirNlink, "dir_nlink"},
	{FeatureRoCompatExtraIsize, "extra_isize"},
	{FeatureRoCompatQuota, "quota"},
	{FeatureRoCompatBigalloc, "bigalloc"},
	{FeatureRoCompatMetadataCsum, "metadata_csum"},
}

// FeatureNames returns the names of the bits set in mask. Unnamed bits are
// rendered as FEATURE_0x....
func FeatureNames(mask uint32, table []FeatureName) []string {
	var names []string
	var known uint32
	for _, f := range table {
		known |= f.Mask
		if mask&f.Mask != 0 {
			names = append(names, f.Name)
		}
	}
	for bit := uint32(1); bit != 0; bit <<= 1 {
		if mask&bit != 0 && known&bit == 0 {
			names = append(names, fmt.Sprintf("FEATURE_0x%08x", bit))
		}
	}
	return names
}
