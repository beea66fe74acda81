package types

// Directory Entries
// A linear directory is a sequence of variable-length records. rec_len
// chains the records and absorbs slack at the end of each block.

const (
	// DirEntryHeaderSize is the fixed part of a directory record.
	DirEntryHeaderSize = 8

	// DirEntryMaxNameLen is the longest name a record can carry.
	DirEntryMaxNameLen = 255
)

// Directory entry field offsets.
const (
	DirEntryInode    = 0x0
	DirEntryRecLen   = 0x4
	DirEntryNameLen  = 0x6
	DirEntryFileType = 0x7
	DirEntryName     = 0x8
)

// Directory entry file types (only valid with the filetype feature).
const (
	DirentUnknown  uint8 = 0
	DirentRegular  uint8 = 1
	DirentDir      uint8 = 2
	DirentCharDev  uint8 = 3
	DirentBlockDev uint8 = 4
	DirentFIFO     uint8 = 5
	DirentSocket   uint8 = 6
	DirentSymlink  uint8 = 7
)

// DirEntry is a decoded directory record.
type DirEntry struct {
	Inode    uint32
	RecLen   uint16
	NameLen  uint8
	FileType uint8
	Name     string
}
