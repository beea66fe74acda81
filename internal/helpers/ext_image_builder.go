// Package helpers builds small ext2/3/4 images in memory for tests.
package helpers

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-extfs/internal/types"
)

// Defaults of images produced by ImageBuilder.
const (
	BuilderInodeSize      = 256
	BuilderInodesPerGroup = 128
	BuilderMtime          = 1700000000
	firstFreeInode        = types.GoodOldFirstInode
)

type dirRecord struct {
	name     string
	inode    uint32
	fileType uint8
}

type dirState struct {
	ino        uint32
	block      uint32
	extraFlags uint32
	dirACL     uint32
	records    []dirRecord
}

// ImageBuilder lays out a single block group ext image: superblock, one
// descriptor block, a 128-entry inode table, then data blocks handed out in
// order. Directories hold one block each and are mapped according to the
// features in effect at Build; files are mapped when added.
type ImageBuilder struct {
	blockSize      uint32
	totalBlocks    uint32
	firstDataBlock uint32
	inodeTable     uint32
	nextBlock      uint32
	nextInode      uint32
	revision       uint32
	compat         uint32
	incompat       uint32
	roCompat       uint32
	label          string
	uuid           [16]byte
	image          []byte
	inodes         map[uint32][]byte
	dirs           map[uint32]*dirState
	endian         binary.ByteOrder
}

// NewImageBuilder creates a builder with an empty root directory. Extents
// and dirent file types are enabled; use SetFeatures before adding entries
// to build a legacy layout.
func NewImageBuilder(blockSize, totalBlocks uint32) *ImageBuilder {
	b := &ImageBuilder{
		blockSize:   blockSize,
		totalBlocks: totalBlocks,
		nextInode:   firstFreeInode,
		revision:    types.RevisionDynamic,
		incompat:    types.FeatureIncompatFiletype | types.FeatureIncompatExtents,
		roCompat:    types.FeatureRoCompatSparseSuper | types.FeatureRoCompatLargeFile,
		label:       "testvol",
		uuid:        [16]byte{0xde, 0xad, 0xbe, 0xef, 0, 1, 0x42, 3, 0x84, 5, 6, 7, 8, 9, 10, 11},
		image:       make([]byte, uint64(blockSize)*uint64(totalBlocks)),
		inodes:      make(map[uint32][]byte),
		dirs:        make(map[uint32]*dirState),
		endian:      binary.LittleEndian,
	}
	if blockSize == types.MinBlockSize {
		b.firstDataBlock = 1
	}
	b.inodeTable = b.firstDataBlock + 2
	b.nextBlock = b.inodeTable + BuilderInodesPerGroup*BuilderInodeSize/blockSize

	b.makeDir(types.RootInode, types.RootInode)
	return b
}

// SetFeatures replaces the feature masks
func (b *ImageBuilder) SetFeatures(compat, incompat, roCompat uint32) *ImageBuilder {
	b.compat, b.incompat, b.roCompat = compat, incompat, roCompat
	return b
}

// SetRevision sets the superblock revision
func (b *ImageBuilder) SetRevision(rev uint32) *ImageBuilder {
	b.revision = rev
	return b
}

// SetLabel sets the volume name
func (b *ImageBuilder) SetLabel(label string) *ImageBuilder {
	b.label = label
	return b
}

// BlockSize returns the image block size
func (b *ImageBuilder) BlockSize() uint32 {
	return b.blockSize
}

// InodeTable returns the first block of the inode table
func (b *ImageBuilder) InodeTable() uint32 {
	return b.inodeTable
}

// AllocBlocks reserves n consecutive blocks and returns the first
func (b *ImageBuilder) AllocBlocks(n uint32) uint32 {
	first := b.nextBlock
	if first+n > b.totalBlocks {
		panic(fmt.Sprintf("image full: need %d blocks at %d of %d", n, first, b.totalBlocks))
	}
	b.nextBlock += n
	return first
}

// Block returns the bytes of block for in-place edits
func (b *ImageBuilder) Block(block uint32) []byte {
	off := uint64(block) * uint64(b.blockSize)
	return b.image[off : off+uint64(b.blockSize)]
}

// WriteBlocks copies data into consecutive blocks starting at block
func (b *ImageBuilder) WriteBlocks(block uint32, data []byte) {
	off := uint64(block) * uint64(b.blockSize)
	copy(b.image[off:], data)
}

// PutPointer stores a 32-bit block pointer in slot of an indirect block
func (b *ImageBuilder) PutPointer(block uint32, slot int, ptr uint32) {
	b.endian.PutUint32(b.Block(block)[slot*4:], ptr)
}

// AllocInode reserves the next free inode number
func (b *ImageBuilder) AllocInode() uint32 {
	ino := b.nextInode
	if ino > BuilderInodesPerGroup {
		panic("inode table full")
	}
	b.nextInode++
	return ino
}

// SetInode records inode ino; it is written to the inode table by Build
func (b *ImageBuilder) SetInode(ino uint32, mode uint16, flags uint32, size uint64, area []byte) {
	rec := make([]byte, types.InodeBaseSize)
	b.endian.PutUint16(rec[types.InodeMode:], mode)
	b.endian.PutUint32(rec[types.InodeSizeLo:], uint32(size))
	b.endian.PutUint32(rec[types.InodeSizeHigh:], uint32(size>>32))
	b.endian.PutUint32(rec[types.InodeMtime:], BuilderMtime)
	b.endian.PutUint16(rec[types.InodeLinksCount:], 1)
	b.endian.PutUint32(rec[types.InodeFlags:], flags)
	copy(rec[types.InodeBlock:types.InodeBlock+types.InodeBlockAreaSize], area)
	b.inodes[ino] = rec
}

// inodeSize is the on-disk record size for the current revision
func (b *ImageBuilder) inodeSize() uint32 {
	if b.revision == types.RevisionGoodOld {
		return uint32(types.GoodOldInodeSize)
	}
	return BuilderInodeSize
}

// ExtentRoot builds an i_block area holding a leaf root
func (b *ImageBuilder) ExtentRoot(leaves []types.ExtentLeaf) []byte {
	area := make([]byte, types.InodeBlockAreaSize)
	b.putExtentLeaves(area, 4, leaves)
	return area
}

// ExtentIndexRoot builds an i_block area holding an index root at depth
func (b *ImageBuilder) ExtentIndexRoot(depth uint16, indexes []types.ExtentIndex) []byte {
	area := make([]byte, types.InodeBlockAreaSize)
	b.putExtentIndexes(area, 4, depth, indexes)
	return area
}

// WriteExtentLeaf writes a leaf node filling block
func (b *ImageBuilder) WriteExtentLeaf(block uint32, leaves []types.ExtentLeaf) {
	node := b.Block(block)
	clear(node)
	b.putExtentLeaves(node, b.nodeCapacity(), leaves)
}

// WriteExtentIndex writes an index node at depth filling block
func (b *ImageBuilder) WriteExtentIndex(block uint32, depth uint16, indexes []types.ExtentIndex) {
	node := b.Block(block)
	clear(node)
	b.putExtentIndexes(node, b.nodeCapacity(), depth, indexes)
}

func (b *ImageBuilder) nodeCapacity() uint16 {
	return uint16((b.blockSize - types.ExtentHeaderSize) / types.ExtentEntrySize)
}

func (b *ImageBuilder) putExtentHeader(node []byte, entries int, max uint16, depth uint16) {
	b.endian.PutUint16(node[0:2], types.ExtentMagic)
	b.endian.PutUint16(node[2:4], uint16(entries))
	b.endian.PutUint16(node[4:6], max)
	b.endian.PutUint16(node[6:8], depth)
}

func (b *ImageBuilder) putExtentLeaves(node []byte, max uint16, leaves []types.ExtentLeaf) {
	b.putExtentHeader(node, len(leaves), max, 0)
	for i, l := range leaves {
		e := node[types.ExtentHeaderSize+i*types.ExtentEntrySize:]
		b.endian.PutUint32(e[0:4], l.Block)
		b.endian.PutUint16(e[4:6], l.Len)
		b.endian.PutUint16(e[6:8], l.StartHi)
		b.endian.PutUint32(e[8:12], l.StartLo)
	}
}

func (b *ImageBuilder) putExtentIndexes(node []byte, max uint16, depth uint16, indexes []types.ExtentIndex) {
	b.putExtentHeader(node, len(indexes), max, depth)
	for i, ix := range indexes {
		e := node[types.ExtentHeaderSize+i*types.ExtentEntrySize:]
		b.endian.PutUint32(e[0:4], ix.Block)
		b.endian.PutUint32(e[4:8], ix.LeafLo)
		b.endian.PutUint16(e[8:10], ix.LeafHi)
	}
}

// BlockMapRoot builds an i_block area of direct and indirect pointers
func (b *ImageBuilder) BlockMapRoot(ptrs [types.BlockPointerCount]uint32) []byte {
	area := make([]byte, types.InodeBlockAreaSize)
	for i, p := range ptrs {
		b.endian.PutUint32(area[i*4:], p)
	}
	return area
}

func (b *ImageBuilder) usesExtents() bool {
	return b.incompat&types.FeatureIncompatExtents != 0
}

// dataRoot maps count blocks starting at first from logical block 0
func (b *ImageBuilder) dataRoot(first, count uint32) ([]byte, uint32) {
	if count == 0 {
		if b.usesExtents() {
			return b.ExtentRoot(nil), types.InodeFlagExtents
		}
		return make([]byte, types.InodeBlockAreaSize), 0
	}

	if b.usesExtents() {
		var leaves []types.ExtentLeaf
		for logical := uint32(0); logical < count; {
			n := count - logical
			if n > types.ExtentInitMaxLen {
				n = types.ExtentInitMaxLen
			}
			leaves = append(leaves, types.ExtentLeaf{Block: logical, Len: uint16(n), StartLo: first + logical})
			logical += n
		}
		if len(leaves) > 4 {
			panic("file needs more than 4 root extents")
		}
		return b.ExtentRoot(leaves), types.InodeFlagExtents
	}

	var ptrs [types.BlockPointerCount]uint32
	perBlock := b.blockSize / 4
	if count > types.DirectBlocks+perBlock {
		panic("block map file needs double indirect blocks")
	}
	for i := uint32(0); i < count && i < types.DirectBlocks; i++ {
		ptrs[i] = first + i
	}
	if count > types.DirectBlocks {
		ind := b.AllocBlocks(1)
		ptrs[types.IndirectBlockIndex] = ind
		for i := uint32(types.DirectBlocks); i < count; i++ {
			b.PutPointer(ind, int(i-types.DirectBlocks), first+i)
		}
	}
	return b.BlockMapRoot(ptrs), 0
}

func (b *ImageBuilder) makeDir(ino, parent uint32) {
	b.dirs[ino] = &dirState{
		ino:   ino,
		block: b.AllocBlocks(1),
		records: []dirRecord{
			{name: ".", inode: ino, fileType: types.DirentDir},
			{name: "..", inode: parent, fileType: types.DirentDir},
		},
	}
}

// Link adds a directory record for ino to directory parent
func (b *ImageBuilder) Link(parent uint32, name string, ino uint32, fileType uint8) {
	dir, ok := b.dirs[parent]
	if !ok {
		panic(fmt.Sprintf("inode %d is not a directory", parent))
	}
	dir.records = append(dir.records, dirRecord{name: name, inode: ino, fileType: fileType})
}

// SetDirFlags adds inode flags, such as the encryption flag, to directory ino
func (b *ImageBuilder) SetDirFlags(ino uint32, flags uint32) {
	b.dirs[ino].extraFlags |= flags
}

// SetDirACL stores acl in the i_size_high slot of directory ino, where ext2
// keeps i_dir_acl
func (b *ImageBuilder) SetDirACL(ino uint32, acl uint32) {
	b.dirs[ino].dirACL = acl
}

// DirBlock returns the data block of directory ino
func (b *ImageBuilder) DirBlock(ino uint32) uint32 {
	return b.dirs[ino].block
}

// Mkdir creates a directory under parent
func (b *ImageBuilder) Mkdir(parent uint32, name string) uint32 {
	ino := b.AllocInode()
	b.makeDir(ino, parent)
	b.Link(parent, name, ino, types.DirentDir)
	return ino
}

// AddFile creates a regular file under parent with content in contiguous blocks
func (b *ImageBuilder) AddFile(parent uint32, name string, content []byte) uint32 {
	count := uint32((uint64(len(content)) + uint64(b.blockSize) - 1) / uint64(b.blockSize))
	first := uint32(0)
	if count > 0 {
		first = b.AllocBlocks(count)
		b.WriteBlocks(first, content)
	}
	area, flags := b.dataRoot(first, count)
	return b.AddInode(parent, name, types.ModeRegular|0644, flags, uint64(len(content)), area)
}

// AddSymlink creates a symlink under parent. Targets shorter than 60 bytes
// are stored inline.
func (b *ImageBuilder) AddSymlink(parent uint32, name, target string) uint32 {
	if len(target) < types.InlineSymlinkMax {
		return b.AddInode(parent, name, types.ModeSymlink|0777, 0, uint64(len(target)), []byte(target))
	}
	block := b.AllocBlocks(1)
	copy(b.Block(block), target)
	area, flags := b.dataRoot(block, 1)
	return b.AddInode(parent, name, types.ModeSymlink|0777, flags, uint64(len(target)), area)
}

// AddInode allocates an inode with the given block area and links it under parent
func (b *ImageBuilder) AddInode(parent uint32, name string, mode uint16, flags uint32, size uint64, area []byte) uint32 {
	ino := b.AllocInode()
	b.SetInode(ino, mode, flags, size, area)
	b.Link(parent, name, ino, direntType(mode))
	return ino
}

func direntType(mode uint16) uint8 {
	switch mode & types.ModeTypeMask {
	case types.ModeRegular:
		return types.DirentRegular
	case types.ModeDirectory:
		return types.DirentDir
	case types.ModeSymlink:
		return types.DirentSymlink
	default:
		return types.DirentUnknown
	}
}

// Build serialises directories, the descriptor and the superblock and
// returns the image. The builder may be modified and built again.
func (b *ImageBuilder) Build() []byte {
	for _, dir := range b.dirs {
		b.writeDir(dir)
	}

	table := b.image[uint64(b.inodeTable)*uint64(b.blockSize):]
	clear(table[:BuilderInodesPerGroup*BuilderInodeSize])
	for ino, rec := range b.inodes {
		copy(table[uint64(ino-1)*uint64(b.inodeSize()):], rec)
	}

	b.writeGroupDescriptor()
	b.writeSuperblock()
	return b.image
}

func (b *ImageBuilder) writeDir(dir *dirState) {
	area, flags := b.dataRoot(dir.block, 1)
	size := uint64(dir.dirACL)<<32 | uint64(b.blockSize)
	b.SetInode(dir.ino, types.ModeDirectory|0755, flags|dir.extraFlags, size, area)

	block := b.Block(dir.block)
	clear(block)

	withType := b.incompat&types.FeatureIncompatFiletype != 0
	offset := 0
	for i, rec := range dir.records {
		recLen := (types.DirEntryHeaderSize + len(rec.name) + 3) &^ 3
		if i == len(dir.records)-1 {
			recLen = len(block) - offset
		}
		if offset+recLen > len(block) || recLen < types.DirEntryHeaderSize+len(rec.name) {
			panic("directory block overflow")
		}

		b.endian.PutUint32(block[offset+types.DirEntryInode:], rec.inode)
		b.endian.PutUint16(block[offset+types.DirEntryRecLen:], uint16(recLen))
		block[offset+types.DirEntryNameLen] = uint8(len(rec.name))
		if withType {
			block[offset+types.DirEntryFileType] = rec.fileType
		}
		copy(block[offset+types.DirEntryName:], rec.name)
		offset += recLen
	}
}

func (b *ImageBuilder) writeGroupDescriptor() {
	gd := b.Block(b.firstDataBlock + 1)
	clear(gd)
	b.endian.PutUint32(gd[types.GdBlockBitmapLo:], b.firstDataBlock+1)
	b.endian.PutUint32(gd[types.GdInodeBitmapLo:], b.firstDataBlock+1)
	b.endian.PutUint32(gd[types.GdInodeTableLo:], b.inodeTable)
	b.endian.PutUint16(gd[types.GdFreeBlocksCountLo:], uint16(b.totalBlocks-b.nextBlock))
	b.endian.PutUint16(gd[types.GdFreeInodesCountLo:], uint16(BuilderInodesPerGroup-b.nextInode+1))
	b.endian.PutUint16(gd[types.GdUsedDirsCountLo:], uint16(len(b.dirs)))
}

func (b *ImageBuilder) writeSuperblock() {
	sb := b.image[types.SuperblockOffset : types.SuperblockOffset+types.SuperblockSize]
	clear(sb)

	blocksPerGroup := 8 * b.blockSize
	if span := b.totalBlocks - b.firstDataBlock; span > blocksPerGroup {
		blocksPerGroup = span
	}
	logBlockSize := uint32(0)
	for types.MinBlockSize<<logBlockSize < b.blockSize {
		logBlockSize++
	}

	b.endian.PutUint32(sb[types.SbInodesCount:], BuilderInodesPerGroup)
	b.endian.PutUint32(sb[types.SbBlocksCountLo:], b.totalBlocks)
	b.endian.PutUint32(sb[types.SbFreeBlocksCountLo:], b.totalBlocks-b.nextBlock)
	b.endian.PutUint32(sb[types.SbFreeInodesCount:], BuilderInodesPerGroup-b.nextInode+1)
	b.endian.PutUint32(sb[types.SbFirstDataBlock:], b.firstDataBlock)
	b.endian.PutUint32(sb[types.SbLogBlockSize:], logBlockSize)
	b.endian.PutUint32(sb[types.SbLogClusterSize:], logBlockSize)
	b.endian.PutUint32(sb[types.SbBlocksPerGroup:], blocksPerGroup)
	b.endian.PutUint32(sb[types.SbClustersPerGroup:], blocksPerGroup)
	b.endian.PutUint32(sb[types.SbInodesPerGroup:], BuilderInodesPerGroup)
	b.endian.PutUint32(sb[types.SbWtime:], BuilderMtime)
	b.endian.PutUint16(sb[types.SbMagic:], types.SuperblockMagic)
	b.endian.PutUint16(sb[types.SbState:], 1)
	b.endian.PutUint32(sb[types.SbRevLevel:], b.revision)

	if b.revision == types.RevisionGoodOld {
		return
	}

	b.endian.PutUint32(sb[types.SbFirstIno:], firstFreeInode)
	b.endian.PutUint16(sb[types.SbInodeSize:], uint16(b.inodeSize()))
	b.endian.PutUint32(sb[types.SbFeatureCompat:], b.compat)
	b.endian.PutUint32(sb[types.SbFeatureIncompat:], b.incompat)
	b.endian.PutUint32(sb[types.SbFeatureRoCompat:], b.roCompat)
	copy(sb[types.SbUUID:types.SbUUID+16], b.uuid[:])
	copy(sb[types.SbVolumeName:types.SbVolumeName+16], b.label)
	if b.incompat&types.FeatureIncompat64Bit != 0 {
		b.endian.PutUint16(sb[types.SbDescSize:], types.GroupDescSize64)
	}
}
