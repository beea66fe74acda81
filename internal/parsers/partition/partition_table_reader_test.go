package partition

import (
	"bytes"
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-extfs/internal/types"
)

var linuxFilesystemGUID = [16]byte{
	0xAF, 0x3D, 0xC6, 0x0F, 0x83, 0x84, 0x72, 0x47,
	0x8E, 0x79, 0x3D, 0x69, 0xD8, 0x47, 0x7D, 0xE4,
}

func putMBREntry(disk []byte, slot int, partType uint8, bootable bool, start, size uint32) {
	entry := disk[types.MBRPartitionTableOffset+slot*types.MBRPartitionEntrySize:]
	if bootable {
		entry[0] = 0x80
	}
	entry[4] = partType
	binary.LittleEndian.PutUint32(entry[8:12], start)
	binary.LittleEndian.PutUint32(entry[12:16], size)
	disk[types.MBRSignatureOffset] = 0x55
	disk[types.MBRSignatureOffset+1] = 0xAA
}

func createTestGPTDisk(label string) []byte {
	disk := make([]byte, 64*types.LegacySectorSize)
	putMBREntry(disk, 0, types.MBRTypeGPTProtective, false, 1, 63)

	header := disk[types.LegacySectorSize:]
	copy(header[0:8], types.GPTSignature)
	binary.LittleEndian.PutUint64(header[72:80], 2)
	binary.LittleEndian.PutUint32(header[80:84], 4)
	binary.LittleEndian.PutUint32(header[84:88], 128)

	entry := disk[2*types.LegacySectorSize+128:]
	copy(entry[0:16], linuxFilesystemGUID[:])
	binary.LittleEndian.PutUint64(entry[32:40], 2048)
	binary.LittleEndian.PutUint64(entry[40:48], 4095)
	for i, u := range utf16.Encode([]rune(label)) {
		binary.LittleEndian.PutUint16(entry[56+i*2:], u)
	}
	return disk
}

func TestPartitionTableReader_None(t *testing.T) {
	pr, err := NewPartitionTableReader(bytes.NewReader(make([]byte, 4096)))
	require.NoError(t, err)
	assert.Equal(t, types.SchemeNone, pr.Scheme())
	assert.Empty(t, pr.Partitions())
}

func TestPartitionTableReader_MBR(t *testing.T) {
	disk := make([]byte, 4096)
	putMBREntry(disk, 0, 0x0C, true, 63, 1000)
	putMBREntry(disk, 2, MBRTypeLinux, false, 2048, 8192)

	pr, err := NewPartitionTableReader(bytes.NewReader(disk))
	require.NoError(t, err)
	assert.Equal(t, types.SchemeMBR, pr.Scheme())
	require.Len(t, pr.Partitions(), 2)

	p, ok := pr.Partition(1)
	require.True(t, ok)
	assert.Equal(t, 1, p.Index)
	assert.Equal(t, uint64(2048), p.StartLBA)
	assert.Equal(t, int64(2048*512), p.StartOffset())
	assert.Equal(t, "Linux", TypeName(p))
	assert.True(t, MayHoldExt(p))

	first, _ := pr.Partition(0)
	assert.True(t, first.Bootable)
	assert.False(t, MayHoldExt(first))

	_, ok = pr.Partition(2)
	assert.False(t, ok)
}

func TestPartitionTableReader_GPT(t *testing.T) {
	pr, err := NewPartitionTableReader(bytes.NewReader(createTestGPTDisk("rootfs")))
	require.NoError(t, err)
	assert.Equal(t, types.SchemeGPT, pr.Scheme())
	require.Len(t, pr.Partitions(), 1)

	p := pr.Partitions()[0]
	assert.Equal(t, uint64(2048), p.StartLBA)
	assert.Equal(t, uint64(2048), p.SizeLBA)
	assert.Equal(t, "rootfs", p.Label)
	assert.Equal(t, GPTTypeLinuxFilesystem, FormatGUID(p.TypeGUID))
	assert.Equal(t, "Linux Filesystem", TypeName(p))
	assert.True(t, MayHoldExt(p))
}

func TestPartitionTableReader_BadGPT(t *testing.T) {
	disk := createTestGPTDisk("x")
	copy(disk[types.LegacySectorSize:], "NOT GPT!")

	_, err := NewPartitionTableReader(bytes.NewReader(disk))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrBadFilesystem)
}

func TestPartitionTableReader_ShortRead(t *testing.T) {
	_, err := NewPartitionTableReader(bytes.NewReader(make([]byte, 100)))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrIO)
}
