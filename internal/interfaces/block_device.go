// File: internal/interfaces/block_device.go
package interfaces

import "io"

// DiskReader is the storage collaborator consumed by every filesystem driver.
// Reads are by absolute byte offset within the volume; the driver never writes.
type DiskReader interface {
	io.ReaderAt
}

// BlockDeviceReader provides block-granular reads on top of a DiskReader
type BlockDeviceReader interface {
	// ReadBlock reads a single filesystem block
	ReadBlock(block uint64) ([]byte, error)

	// ReadBlocks reads count consecutive blocks starting at block
	ReadBlocks(block uint64, count uint64) ([]byte, error)

	// ReadBytes reads length bytes at offset within block
	ReadBytes(block uint64, offset uint32, length uint32) ([]byte, error)

	// ReadAt reads at an absolute byte offset, bypassing the block cache
	ReadAt(p []byte, off int64) (int, error)

	// BlockSize returns the size of a single block in bytes
	BlockSize() uint32
}

// BlockCache provides caching statistics and control for block reads
type BlockCache interface {
	// ClearCache drops every cached block
	ClearCache()

	// IsCached checks if a block is in cache
	IsCached(block uint64) bool

	// CacheStats returns cache statistics
	CacheStats() CacheStats
}

// CacheStats summarises the state of a block cache
type CacheStats struct {
	CachedBlocks int   `json:"cached_blocks" yaml:"cached_blocks"`
	CacheBytes   int   `json:"cache_bytes" yaml:"cache_bytes"`
	MaxBytes     int   `json:"max_bytes" yaml:"max_bytes"`
	Hits         int64 `json:"hits" yaml:"hits"`
	Misses       int64 `json:"misses" yaml:"misses"`
}
