package helpers

import (
	"encoding/binary"
	"unicode/utf16"

	"github.com/deploymenttheory/go-extfs/internal/types"
)

// linuxFilesystemGUID is 0FC63DAF-8483-4772-8E79-3D69D8477DE4 in disk order
var linuxFilesystemGUID = [16]byte{
	0xAF, 0x3D, 0xC6, 0x0F, 0x83, 0x84, 0x72, 0x47,
	0x8E, 0x79, 0x3D, 0x69, 0xD8, 0x47, 0x7D, 0xE4,
}

func putMBREntry(disk []byte, slot int, partType uint8, start, size uint32) {
	entry := disk[types.MBRPartitionTableOffset+slot*types.MBRPartitionEntrySize:]
	entry[4] = partType
	binary.LittleEndian.PutUint32(entry[8:12], start)
	binary.LittleEndian.PutUint32(entry[12:16], size)
	disk[types.MBRSignatureOffset] = 0x55
	disk[types.MBRSignatureOffset+1] = 0xAA
}

// WrapMBR places volume at startLBA of a disk with an MBR holding one
// partition of partType
func WrapMBR(volume []byte, startLBA uint32, partType uint8) []byte {
	disk := make([]byte, int(startLBA)*types.LegacySectorSize+len(volume))
	copy(disk[int(startLBA)*types.LegacySectorSize:], volume)
	putMBREntry(disk, 0, partType, startLBA, uint32(len(volume)/types.LegacySectorSize))
	return disk
}

// WrapGPT places volume at startLBA of a GPT disk as a Linux filesystem
// partition named label. startLBA must leave room for the header and the
// entry array at LBA 1 and 2.
func WrapGPT(volume []byte, startLBA uint64, label string) []byte {
	disk := make([]byte, int(startLBA)*types.LegacySectorSize+len(volume))
	copy(disk[int(startLBA)*types.LegacySectorSize:], volume)
	putMBREntry(disk, 0, types.MBRTypeGPTProtective, 1, uint32(len(disk)/types.LegacySectorSize-1))

	header := disk[types.GPTHeaderLBA*types.LegacySectorSize:]
	copy(header[0:8], types.GPTSignature)
	binary.LittleEndian.PutUint64(header[72:80], 2)
	binary.LittleEndian.PutUint32(header[80:84], 4)
	binary.LittleEndian.PutUint32(header[84:88], types.GPTMinEntrySize)

	entry := disk[2*types.LegacySectorSize:]
	copy(entry[0:16], linuxFilesystemGUID[:])
	binary.LittleEndian.PutUint64(entry[32:40], startLBA)
	binary.LittleEndian.PutUint64(entry[40:48], startLBA+uint64(len(volume)/types.LegacySectorSize)-1)
	for i, u := range utf16.Encode([]rune(label)) {
		binary.LittleEndian.PutUint16(entry[56+i*2:], u)
	}
	return disk
}
