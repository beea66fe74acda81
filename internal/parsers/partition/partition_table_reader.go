package partition

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"unicode/utf16"

	"github.com/google/uuid"

	"github.com/deploymenttheory/go-extfs/internal/interfaces"
	"github.com/deploymenttheory/go-extfs/internal/types"
)

// Well-known partition types that may carry an ext filesystem.
const (
	MBRTypeLinux uint8 = 0x83

	// GPTTypeLinuxFilesystem is the Linux filesystem data type GUID.
	GPTTypeLinuxFilesystem = "0FC63DAF-8483-4772-8E79-3D69D8477DE4"

	// GPTTypeBasicData is the Microsoft basic data GUID, which older
	// partitioners also used for Linux filesystems.
	GPTTypeBasicData = "EBD0A0A2-B9E5-4433-87C0-68B6B72699C7"
)

// partitionTableReader implements the PartitionTableReader interface
type partitionTableReader struct {
	scheme     types.PartitionScheme
	partitions []types.Partition
}

// NewPartitionTableReader reads the partition table at the start of r. An
// image without an MBR boot signature is reported as SchemeNone with no
// partitions, the usual case for a bare filesystem image.
func NewPartitionTableReader(r io.ReaderAt) (interfaces.PartitionTableReader, error) {
	mbr := make([]byte, types.LegacySectorSize)
	if _, err := r.ReadAt(mbr, 0); err != nil {
		return nil, fmt.Errorf("%w: reading MBR: %w", types.ErrIO, err)
	}

	pr := &partitionTableReader{scheme: types.SchemeNone}
	if mbr[types.MBRSignatureOffset] != 0x55 || mbr[types.MBRSignatureOffset+1] != 0xAA {
		return pr, nil
	}

	entries := parseMBR(mbr)
	for _, p := range entries {
		if p.Type == types.MBRTypeGPTProtective {
			gpt, err := parseGPT(r)
			if err != nil {
				return nil, err
			}
			pr.scheme = types.SchemeGPT
			pr.partitions = gpt
			return pr, nil
		}
	}

	pr.scheme = types.SchemeMBR
	pr.partitions = entries
	return pr, nil
}

// parseMBR collects the used primary entries
func parseMBR(sector []byte) []types.Partition {
	var partitions []types.Partition
	for i := 0; i < types.MBRPartitionCount; i++ {
		off := types.MBRPartitionTableOffset + i*types.MBRPartitionEntrySize
		entry := sector[off : off+types.MBRPartitionEntrySize]

		partType := entry[4]
		if partType == 0 {
			continue
		}
		lbaStart := binary.LittleEndian.Uint32(entry[8:12])
		lbaSize := binary.LittleEndian.Uint32(entry[12:16])
		if lbaStart == 0 || lbaSize == 0 {
			continue
		}

		partitions = append(partitions, types.Partition{
			Index:    len(partitions),
			Type:     partType,
			StartLBA: uint64(lbaStart),
			SizeLBA:  uint64(lbaSize),
			Bootable: entry[0] == 0x80,
		})
	}
	return partitions
}

// parseGPT reads the primary GPT header and its entry array
func parseGPT(r io.ReaderAt) ([]types.Partition, error) {
	header := make([]byte, types.LegacySectorSize)
	if _, err := r.ReadAt(header, types.GPTHeaderLBA*types.LegacySectorSize); err != nil {
		return nil, fmt.Errorf("%w: reading GPT header: %w", types.ErrIO, err)
	}
	if string(header[0:8]) != types.GPTSignature {
		return nil, fmt.Errorf("%w: invalid GPT signature", types.ErrBadFilesystem)
	}

	entryLBA := binary.LittleEndian.Uint64(header[72:80])
	entryCount := binary.LittleEndian.Uint32(header[80:84])
	entrySize := binary.LittleEndian.Uint32(header[84:88])
	if entrySize < types.GPTMinEntrySize || entrySize > types.LegacySectorSize*8 {
		return nil, fmt.Errorf("%w: invalid GPT entry size: %d", types.ErrBadFilesystem, entrySize)
	}
	if entryCount > types.GPTMaxEntries {
		entryCount = types.GPTMaxEntries
	}

	table := make([]byte, int(entryCount)*int(entrySize))
	if _, err := r.ReadAt(table, int64(entryLBA)*types.LegacySectorSize); err != nil {
		return nil, fmt.Errorf("%w: reading GPT entries: %w", types.ErrIO, err)
	}

	var partitions []types.Partition
	for i := 0; i < int(entryCount); i++ {
		entry := table[i*int(entrySize) : (i+1)*int(entrySize)]

		var typeGUID [16]byte
		copy(typeGUID[:], entry[0:16])
		if typeGUID == ([16]byte{}) {
			continue
		}

		startLBA := binary.LittleEndian.Uint64(entry[32:40])
		endLBA := binary.LittleEndian.Uint64(entry[40:48])
		if endLBA < startLBA {
			continue
		}

		partitions = append(partitions, types.Partition{
			Index:    len(partitions),
			TypeGUID: typeGUID,
			StartLBA: startLBA,
			SizeLBA:  endLBA - startLBA + 1,
			Label:    decodeUTF16LE(entry[56:128]),
		})
	}
	return partitions, nil
}

func decodeUTF16LE(data []byte) string {
	u16s := make([]uint16, len(data)/2)
	for i := range u16s {
		u16s[i] = binary.LittleEndian.Uint16(data[i*2:])
	}
	for i, v := range u16s {
		if v == 0 {
			u16s = u16s[:i]
			break
		}
	}
	return string(utf16.Decode(u16s))
}

// Scheme returns the partition table kind
func (pr *partitionTableReader) Scheme() types.PartitionScheme {
	return pr.scheme
}

// Partitions returns every used entry in table order
func (pr *partitionTableReader) Partitions() []types.Partition {
	return pr.partitions
}

// Partition returns the used entry at index
func (pr *partitionTableReader) Partition(index int) (types.Partition, bool) {
	if index < 0 || index >= len(pr.partitions) {
		return types.Partition{}, false
	}
	return pr.partitions[index], true
}

// FormatGUID renders a GPT GUID, stored mixed-endian on disk, in canonical
// upper-case text form.
func FormatGUID(guid [16]byte) string {
	var be [16]byte
	binary.BigEndian.PutUint32(be[0:4], binary.LittleEndian.Uint32(guid[0:4]))
	binary.BigEndian.PutUint16(be[4:6], binary.LittleEndian.Uint16(guid[4:6]))
	binary.BigEndian.PutUint16(be[6:8], binary.LittleEndian.Uint16(guid[6:8]))
	copy(be[8:], guid[8:])
	return strings.ToUpper(uuid.UUID(be).String())
}

// TypeName returns a human-readable partition type
func TypeName(p types.Partition) string {
	if p.Type != 0 {
		switch p.Type {
		case 0x07:
			return "NTFS/exFAT"
		case 0x0B, 0x0C:
			return "FAT32"
		case types.MBRTypeExtended, types.MBRTypeExtendedLBA:
			return "Extended"
		case 0x82:
			return "Linux swap"
		case MBRTypeLinux:
			return "Linux"
		case 0x8E:
			return "Linux LVM"
		case 0xEF:
			return "EFI System"
		default:
			return fmt.Sprintf("0x%02X", p.Type)
		}
	}

	guid := FormatGUID(p.TypeGUID)
	switch guid {
	case "C12A7328-F81F-11D2-BA4B-00A0C93EC93B":
		return "EFI System"
	case GPTTypeBasicData:
		return "Basic Data"
	case GPTTypeLinuxFilesystem:
		return "Linux Filesystem"
	case "0657FD6D-A4AB-43C4-84E5-0933C84B4F4F":
		return "Linux Swap"
	case "E6D6D379-F507-44C2-A23C-238F2A3DF928":
		return "Linux LVM"
	default:
		return guid
	}
}

// MayHoldExt reports whether the partition type is one an ext filesystem is
// normally created in.
func MayHoldExt(p types.Partition) bool {
	if p.Type != 0 {
		return p.Type == MBRTypeLinux
	}
	guid := FormatGUID(p.TypeGUID)
	return guid == GPTTypeLinuxFilesystem || guid == GPTTypeBasicData
}
