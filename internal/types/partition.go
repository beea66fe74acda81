package types

// Partition Tables
// MBR and GPT layouts used to locate an ext volume inside a whole-disk image.

const (
	// LegacySectorSize is the LBA unit used by MBR and GPT.
	LegacySectorSize = 512

	// MBRPartitionTableOffset is the offset of the four primary entries.
	MBRPartitionTableOffset = 446

	// MBRPartitionEntrySize is the size of one primary entry.
	MBRPartitionEntrySize = 16

	// MBRPartitionCount is the number of primary entries.
	MBRPartitionCount = 4

	// MBRSignatureOffset is the offset of the 0x55 0xAA boot signature.
	MBRSignatureOffset = 510

	// MBRTypeGPTProtective marks the protective entry of a GPT disk.
	MBRTypeGPTProtective uint8 = 0xEE

	// MBRTypeExtended and MBRTypeExtendedLBA mark extended partitions.
	MBRTypeExtended    uint8 = 0x05
	MBRTypeExtendedLBA uint8 = 0x0F

	// GPTHeaderLBA is the LBA of the primary GPT header.
	GPTHeaderLBA = 1

	// GPTSignature starts a GPT header.
	GPTSignature = "EFI PART"

	// GPTMinEntrySize is the smallest valid partition entry size.
	GPTMinEntrySize = 128

	// GPTMaxEntries caps how many entries are scanned.
	GPTMaxEntries = 256
)

// PartitionScheme names the partition table kind of an image.
type PartitionScheme string

const (
	SchemeNone PartitionScheme = "none"
	SchemeMBR  PartitionScheme = "mbr"
	SchemeGPT  PartitionScheme = "gpt"
)

// Partition is one used partition table entry.
type Partition struct {
	// Index is the zero-based position among used entries.
	Index int `json:"index" yaml:"index"`
	// Type is the MBR type byte, zero for GPT entries.
	Type uint8 `json:"type,omitempty" yaml:"type,omitempty"`
	// TypeGUID is the GPT partition type GUID in mixed-endian disk order.
	TypeGUID [16]byte `json:"-" yaml:"-"`
	// StartLBA and SizeLBA are in 512-byte units.
	StartLBA uint64 `json:"start_lba" yaml:"start_lba"`
	SizeLBA  uint64 `json:"size_lba" yaml:"size_lba"`
	Bootable bool   `json:"bootable,omitempty" yaml:"bootable,omitempty"`
	Label    string `json:"label,omitempty" yaml:"label,omitempty"`
}

// StartOffset returns the byte offset of the partition.
func (p Partition) StartOffset() int64 {
	return int64(p.StartLBA) * LegacySectorSize
}

// SizeBytes returns the partition size in bytes.
func (p Partition) SizeBytes() int64 {
	return int64(p.SizeLBA) * LegacySectorSize
}
