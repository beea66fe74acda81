package services

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-extfs/internal/interfaces"
	"github.com/deploymenttheory/go-extfs/internal/parsers/superblock"
	"github.com/deploymenttheory/go-extfs/internal/types"
)

// DefaultMaxSymlinkDepth bounds nested symlink expansion during path resolution
const DefaultMaxSymlinkDepth = 8

// MountOptions tune a mounted volume
type MountOptions struct {
	// CacheBytes is the metadata block cache budget, zero disables the cache
	CacheBytes int
	// MaxSymlinkDepth bounds symlink expansion, zero means DefaultMaxSymlinkDepth
	MaxSymlinkDepth int
	// Logger receives mount diagnostics, nil means the logrus standard logger
	Logger logrus.FieldLogger
}

// DefaultMountOptions returns the options used by Mount callers that have no configuration
func DefaultMountOptions() MountOptions {
	return MountOptions{
		CacheBytes:      DefaultCacheBytes,
		MaxSymlinkDepth: DefaultMaxSymlinkDepth,
		Logger:          logrus.StandardLogger(),
	}
}

// Geometry holds the layout parameters derived from the superblock at mount
type Geometry struct {
	BlockSize      uint32
	Log2BlockSize  uint32
	LogDescSize    uint32
	InodeSize      uint32
	InodesPerGroup uint32
	InodesPerBlock uint32
	InodesCount    uint32
	BlocksPerGroup uint32
	BlocksCount    uint64
	FirstDataBlock uint32
	FirstMetaBg    uint32
	GroupCount     uint32
	MetaBg         bool
	SparseSuper    bool
}

// Volume is a mounted, read-only ext2/3/4 filesystem. It is immutable after
// Mount apart from the block cache, so it may be shared between goroutines.
type Volume struct {
	sb       interfaces.SuperblockReader
	geometry Geometry
	blocks   *BlockReader
	root     *Inode
	opts     MountOptions
	log      logrus.FieldLogger
	endian   binary.ByteOrder
}

// Mount reads and validates the superblock of disk and caches the root
// directory inode. No partially initialised volume is ever returned.
func Mount(disk io.ReaderAt, opts MountOptions) (*Volume, error) {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.MaxSymlinkDepth <= 0 {
		opts.MaxSymlinkDepth = DefaultMaxSymlinkDepth
	}
	endian := binary.LittleEndian

	data := make([]byte, types.SuperblockSize)
	n, err := disk.ReadAt(data, types.SuperblockOffset)
	if n < len(data) {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("%w: reading superblock: %w", types.ErrIO, err)
	}

	sb, err := superblock.NewSuperblockReader(data, endian)
	if err != nil {
		return nil, err
	}

	geometry, err := deriveGeometry(sb)
	if err != nil {
		return nil, err
	}

	log := opts.Logger.WithField("fs", "ext")
	if err := checkFeatures(sb, log); err != nil {
		return nil, err
	}

	v := &Volume{
		sb:       sb,
		geometry: geometry,
		blocks:   NewBlockReader(disk, geometry.BlockSize, opts.CacheBytes),
		opts:     opts,
		log:      log,
		endian:   endian,
	}

	root, err := v.ReadInode(types.RootInode)
	if err != nil {
		return nil, fmt.Errorf("failed to read root directory: %w", err)
	}
	if !root.IsDir() {
		return nil, fmt.Errorf("%w: root inode is not a directory", types.ErrBadFilesystem)
	}
	v.root = root

	log.WithFields(logrus.Fields{
		"block_size":   geometry.BlockSize,
		"blocks":       geometry.BlocksCount,
		"groups":       geometry.GroupCount,
		"inode_size":   geometry.InodeSize,
		"desc_size":    1 << geometry.LogDescSize,
		"meta_bg":      geometry.MetaBg,
		"sparse_super": geometry.SparseSuper,
	}).Debug("mounted ext filesystem")

	return v, nil
}

// deriveGeometry validates the size parameters of the superblock
func deriveGeometry(sb interfaces.SuperblockReader) (Geometry, error) {
	if sb.LogBlockSize() > types.MaxLogBlockSize {
		return Geometry{}, fmt.Errorf("%w: block size log %d out of range", types.ErrBadFilesystem, sb.LogBlockSize())
	}
	if sb.InodesPerGroup() == 0 {
		return Geometry{}, fmt.Errorf("%w: zero inodes per group", types.ErrBadFilesystem)
	}
	if sb.BlocksPerGroup() == 0 {
		return Geometry{}, fmt.Errorf("%w: zero blocks per group", types.ErrBadFilesystem)
	}

	blockSize := sb.BlockSize()
	inodeSize := uint32(sb.InodeSize())
	if inodeSize == 0 || blockSize/inodeSize == 0 {
		return Geometry{}, fmt.Errorf("%w: inode size %d invalid for block size %d", types.ErrBadFilesystem, inodeSize, blockSize)
	}
	if inodeSize < types.InodeBaseSize {
		return Geometry{}, fmt.Errorf("%w: inode size %d smaller than %d", types.ErrBadFilesystem, inodeSize, types.InodeBaseSize)
	}

	g := Geometry{
		BlockSize:      blockSize,
		Log2BlockSize:  uint32(bits.TrailingZeros32(blockSize)),
		LogDescSize:    types.LogGroupDescSize,
		InodeSize:      inodeSize,
		InodesPerGroup: sb.InodesPerGroup(),
		InodesPerBlock: blockSize / inodeSize,
		InodesCount:    sb.InodesCount(),
		BlocksPerGroup: sb.BlocksPerGroup(),
		BlocksCount:    sb.BlocksCount(),
		FirstDataBlock: sb.FirstDataBlock(),
		FirstMetaBg:    sb.FirstMetaBg(),
		MetaBg:         sb.HasIncompat(types.FeatureIncompatMetaBg),
		SparseSuper:    sb.HasRoCompat(types.FeatureRoCompatSparseSuper),
	}

	// Wide descriptors only when the size is a power of two the 64-bit layout allows
	descSize := sb.DescriptorSize()
	if sb.HasIncompat(types.FeatureIncompat64Bit) && descSize&(descSize-1) == 0 && descSize&types.DescSizeMask != 0 {
		g.LogDescSize = uint32(bits.TrailingZeros16(descSize))
	}
	if g.LogDescSize > g.Log2BlockSize {
		return Geometry{}, fmt.Errorf("%w: descriptor size %d exceeds block size %d", types.ErrBadFilesystem, 1<<g.LogDescSize, blockSize)
	}

	if g.BlocksCount <= uint64(g.FirstDataBlock) {
		return Geometry{}, fmt.Errorf("%w: block count %d below first data block %d", types.ErrBadFilesystem, g.BlocksCount, g.FirstDataBlock)
	}
	groups := (g.BlocksCount - uint64(g.FirstDataBlock) + uint64(g.BlocksPerGroup) - 1) / uint64(g.BlocksPerGroup)
	if groups > uint64(^uint32(0)) {
		return Geometry{}, fmt.Errorf("%w: %d block groups", types.ErrBadFilesystem, groups)
	}
	g.GroupCount = uint32(groups)

	return g, nil
}

// checkFeatures applies the incompatible feature policy. Revision 0 has no
// feature fields. Read-only compatible features never block a read-only mount.
func checkFeatures(sb interfaces.SuperblockReader, log logrus.FieldLogger) error {
	if sb.RevisionLevel() == types.RevisionGoodOld {
		return nil
	}

	incompat := sb.FeatureIncompat()
	if unsupported := incompat &^ (types.SupportedIncompat | types.IgnoredIncompat); unsupported != 0 {
		names := types.FeatureNames(unsupported, types.IncompatFeatureNames)
		return fmt.Errorf("%w: incompatible features %s", types.ErrUnsupportedFeature, strings.Join(names, ","))
	}

	for _, name := range types.FeatureNames(incompat&types.IgnoredIncompat, types.IncompatFeatureNames) {
		log.WithField("feature", name).Warn("ignoring incompatible feature on read-only mount")
	}
	return nil
}

// Geometry returns the layout parameters
func (v *Volume) Geometry() Geometry {
	return v.geometry
}

// Superblock returns the superblock reader
func (v *Volume) Superblock() interfaces.SuperblockReader {
	return v.sb
}

// Blocks returns the block reader backing the volume
func (v *Volume) Blocks() *BlockReader {
	return v.blocks
}

// Root returns the cached root directory inode
func (v *Volume) Root() *Inode {
	return v.root
}

// Label returns the volume name
func (v *Volume) Label() string {
	return v.sb.VolumeName()
}

// UUID returns the volume UUID in canonical text form
func (v *Volume) UUID() string {
	raw := v.sb.UUID()
	id, err := uuid.FromBytes(raw[:])
	if err != nil {
		return ""
	}
	return id.String()
}

// LastWriteTime returns the time the superblock was last written
func (v *Volume) LastWriteTime() time.Time {
	return v.sb.WriteTime()
}

// BlockSize returns the block size in bytes
func (v *Volume) BlockSize() uint32 {
	return v.geometry.BlockSize
}

// BlockCount returns the total number of blocks
func (v *Volume) BlockCount() uint64 {
	return v.geometry.BlocksCount
}

// GroupCount returns the number of block groups
func (v *Volume) GroupCount() uint32 {
	return v.geometry.GroupCount
}

// FreeBlocks returns the free block count recorded in the superblock
func (v *Volume) FreeBlocks() uint64 {
	return v.sb.FreeBlocksCount()
}

// FreeInodes returns the free inode count recorded in the superblock
func (v *Volume) FreeInodes() uint32 {
	return v.sb.FreeInodesCount()
}

// Features returns the names of every feature bit set in the superblock
func (v *Volume) Features() []string {
	var names []string
	names = append(names, types.FeatureNames(v.sb.FeatureCompat(), types.CompatFeatureNames)...)
	names = append(names, types.FeatureNames(v.sb.FeatureIncompat(), types.IncompatFeatureNames)...)
	names = append(names, types.FeatureNames(v.sb.FeatureRoCompat(), types.RoCompatFeatureNames)...)
	return names
}

// SuperblockBackups lists the groups other than 0 that hold a superblock copy
func (v *Volume) SuperblockBackups() []uint32 {
	var groups []uint32
	for g := uint32(1); g < v.geometry.GroupCount; g++ {
		if v.geometry.HasSuperblock(uint64(g)) {
			groups = append(groups, g)
		}
	}
	return groups
}

// Close drops the block cache. The disk itself belongs to the caller.
func (v *Volume) Close() error {
	v.blocks.ClearCache()
	return nil
}
