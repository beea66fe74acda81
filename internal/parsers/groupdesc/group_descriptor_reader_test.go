package groupdesc

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/deploymenttheory/go-extfs/internal/types"
)

// createTestGroupDescriptorData creates a 64-byte descriptor with both halves populated
func createTestGroupDescriptorData(endian binary.ByteOrder) []byte {
	data := make([]byte, types.GroupDescSize64)

	endian.PutUint32(data[types.GdBlockBitmapLo:], 100)
	endian.PutUint32(data[types.GdInodeBitmapLo:], 101)
	endian.PutUint32(data[types.GdInodeTableLo:], 102)
	endian.PutUint16(data[types.GdFreeBlocksCountLo:], 500)
	endian.PutUint16(data[types.GdFreeInodesCountLo:], 600)
	endian.PutUint16(data[types.GdUsedDirsCountLo:], 7)
	endian.PutUint16(data[types.GdFlags:], types.BgInodeZeroed)

	endian.PutUint32(data[types.GdBlockBitmapHi:], 1)
	endian.PutUint32(data[types.GdInodeBitmapHi:], 1)
	endian.PutUint32(data[types.GdInodeTableHi:], 2)
	endian.PutUint16(data[types.GdFreeBlocksCountHi:], 1)
	endian.PutUint16(data[types.GdFreeInodesCountHi:], 0)
	endian.PutUint16(data[types.GdUsedDirsCountHi:], 0)

	return data
}

func TestGroupDescriptorReader(t *testing.T) {
	endian := binary.LittleEndian
	data := createTestGroupDescriptorData(endian)

	testCases := []struct {
		name            string
		data            []byte
		wide            bool
		wantInodeTable  uint64
		wantBlockBitmap uint64
		wantFreeBlocks  uint32
	}{
		{
			name:            "32-byte descriptor ignores high halves",
			data:            data[:types.GroupDescSize],
			wide:            false,
			wantInodeTable:  102,
			wantBlockBitmap: 100,
			wantFreeBlocks:  500,
		},
		{
			name:            "64-byte descriptor combines high halves",
			data:            data,
			wide:            true,
			wantInodeTable:  2<<32 | 102,
			wantBlockBitmap: 1<<32 | 100,
			wantFreeBlocks:  1<<16 | 500,
		},
		{
			name:            "64-byte buffer read narrow",
			data:            data,
			wide:            false,
			wantInodeTable:  102,
			wantBlockBitmap: 100,
			wantFreeBlocks:  500,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reader, err := NewGroupDescriptorReader(tc.data, tc.wide, endian)
			if err != nil {
				t.Fatalf("NewGroupDescriptorReader() failed: %v", err)
			}

			if got := reader.InodeTable(); got != tc.wantInodeTable {
				t.Errorf("InodeTable() = %d, want %d", got, tc.wantInodeTable)
			}
			if got := reader.BlockBitmap(); got != tc.wantBlockBitmap {
				t.Errorf("BlockBitmap() = %d, want %d", got, tc.wantBlockBitmap)
			}
			if got := reader.FreeBlocksCount(); got != tc.wantFreeBlocks {
				t.Errorf("FreeBlocksCount() = %d, want %d", got, tc.wantFreeBlocks)
			}
			if got := reader.UsedDirsCount(); got != 7 {
				t.Errorf("UsedDirsCount() = %d, want 7", got)
			}
			if got := reader.Flags(); got != types.BgInodeZeroed {
				t.Errorf("Flags() = 0x%X, want 0x%X", got, types.BgInodeZeroed)
			}
			if got := reader.Is64Bit(); got != tc.wide {
				t.Errorf("Is64Bit() = %v, want %v", got, tc.wide)
			}
		})
	}
}

func TestGroupDescriptorReader_ErrorCases(t *testing.T) {
	endian := binary.LittleEndian

	tests := []struct {
		name string
		data []byte
		wide bool
	}{
		{name: "Data too small", data: make([]byte, 16), wide: false},
		{name: "Wide descriptor truncated", data: make([]byte, types.GroupDescSize), wide: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGroupDescriptorReader(tt.data, tt.wide, endian)
			if err == nil {
				t.Fatal("NewGroupDescriptorReader() should have failed")
			}
			if !errors.Is(err, types.ErrBadFilesystem) {
				t.Errorf("error = %v, want ErrBadFilesystem", err)
			}
		})
	}
}
