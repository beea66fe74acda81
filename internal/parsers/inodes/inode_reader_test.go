package inodes

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-extfs/internal/types"
)

// createTestInodeData creates a 256-byte inode record
func createTestInodeData(mode uint16, flags uint32, size uint64, block []byte, endian binary.ByteOrder) []byte {
	data := make([]byte, 256)
	endian.PutUint16(data[types.InodeMode:], mode)
	endian.PutUint32(data[types.InodeSizeLo:], uint32(size))
	endian.PutUint32(data[types.InodeSizeHigh:], uint32(size>>32))
	endian.PutUint32(data[types.InodeMtime:], 1650000000)
	endian.PutUint16(data[types.InodeLinksCount:], 1)
	endian.PutUint32(data[types.InodeFlags:], flags)
	copy(data[types.InodeBlock:types.InodeBlock+types.InodeBlockAreaSize], block)
	return data
}

func TestInodeReader(t *testing.T) {
	endian := binary.LittleEndian

	pointers := make([]byte, types.InodeBlockAreaSize)
	for i := 0; i < types.BlockPointerCount; i++ {
		endian.PutUint32(pointers[i*4:], uint32(1000+i))
	}

	tests := []struct {
		name       string
		mode       uint16
		flags      uint32
		size       uint64
		block      []byte
		wantType   types.FileType
		wantLayout types.InodeLayout
	}{
		{
			name:       "Regular file with extents",
			mode:       types.ModeRegular | 0644,
			flags:      types.InodeFlagExtents,
			size:       5 << 32,
			wantType:   types.FileTypeRegular,
			wantLayout: types.LayoutExtents,
		},
		{
			name:       "Directory with block map",
			mode:       types.ModeDirectory | 0755,
			size:       4096,
			block:      pointers,
			wantType:   types.FileTypeDirectory,
			wantLayout: types.LayoutBlockMap,
		},
		{
			name:       "Short symlink is inline",
			mode:       types.ModeSymlink | 0777,
			size:       11,
			block:      []byte("/etc/passwd"),
			wantType:   types.FileTypeSymlink,
			wantLayout: types.LayoutInlineSymlink,
		},
		{
			name:       "Long symlink uses block map",
			mode:       types.ModeSymlink | 0777,
			size:       types.InlineSymlinkMax,
			block:      pointers,
			wantType:   types.FileTypeSymlink,
			wantLayout: types.LayoutBlockMap,
		},
		{
			name:       "Short symlink with extents flag",
			mode:       types.ModeSymlink | 0777,
			flags:      types.InodeFlagExtents,
			size:       11,
			wantType:   types.FileTypeSymlink,
			wantLayout: types.LayoutExtents,
		},
		{
			name:       "Character device",
			mode:       types.ModeCharDev | 0600,
			wantType:   types.FileTypeUnknown,
			wantLayout: types.LayoutBlockMap,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := createTestInodeData(tt.mode, tt.flags, tt.size, tt.block, endian)

			ir, err := NewInodeReader(data, endian)
			require.NoError(t, err)

			assert.Equal(t, tt.mode, ir.Mode())
			assert.Equal(t, tt.wantType, ir.Type())
			assert.Equal(t, tt.wantLayout, ir.Layout())
			assert.Equal(t, tt.size, ir.Size())
			assert.Equal(t, uint16(1), ir.LinksCount())
			assert.Equal(t, time.Unix(1650000000, 0).UTC(), ir.ModificationTime())
			assert.Len(t, ir.ExtentRoot(), types.InodeBlockAreaSize)
		})
	}
}

func TestInodeReader_DirectorySizeIgnoresHighWord(t *testing.T) {
	endian := binary.LittleEndian
	size := uint64(9)<<32 | 4096

	dir, err := NewInodeReader(createTestInodeData(types.ModeDirectory|0755, 0, size, nil, endian), endian)
	require.NoError(t, err)
	assert.Equal(t, uint64(4096), dir.Size())

	file, err := NewInodeReader(createTestInodeData(types.ModeRegular|0644, 0, size, nil, endian), endian)
	require.NoError(t, err)
	assert.Equal(t, size, file.Size())
}

func TestInodeReader_BlockPointers(t *testing.T) {
	endian := binary.LittleEndian
	block := make([]byte, types.InodeBlockAreaSize)
	for i := 0; i < types.BlockPointerCount; i++ {
		endian.PutUint32(block[i*4:], uint32(500+i))
	}

	ir, err := NewInodeReader(createTestInodeData(types.ModeRegular, 0, 8192, block, endian), endian)
	require.NoError(t, err)

	ptrs := ir.BlockPointers()
	assert.Equal(t, uint32(500), ptrs[0])
	assert.Equal(t, uint32(511), ptrs[types.DirectBlocks-1])
	assert.Equal(t, uint32(512), ptrs[types.IndirectBlockIndex])
	assert.Equal(t, uint32(514), ptrs[types.TripleIndirectBlockIndex])
}

func TestInodeReader_InlineSymlink(t *testing.T) {
	endian := binary.LittleEndian

	ir, err := NewInodeReader(createTestInodeData(types.ModeSymlink|0777, 0, 7, []byte("../boot"), endian), endian)
	require.NoError(t, err)
	target, ok := ir.InlineSymlink()
	assert.True(t, ok)
	assert.Equal(t, "../boot", target)

	ir, err = NewInodeReader(createTestInodeData(types.ModeRegular|0644, 0, 7, []byte("../boot"), endian), endian)
	require.NoError(t, err)
	_, ok = ir.InlineSymlink()
	assert.False(t, ok)
}

func TestInodeReader_Encrypted(t *testing.T) {
	endian := binary.LittleEndian
	ir, err := NewInodeReader(createTestInodeData(types.ModeDirectory, types.InodeFlagEncrypt|types.InodeFlagExtents, 4096, nil, endian), endian)
	require.NoError(t, err)
	assert.True(t, ir.IsEncrypted())
	assert.True(t, ir.IsDir())
}

func TestInodeReader_TooSmall(t *testing.T) {
	_, err := NewInodeReader(make([]byte, 64), binary.LittleEndian)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrBadFilesystem)
}
