package services

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/deploymenttheory/go-extfs/internal/interfaces"
	"github.com/deploymenttheory/go-extfs/internal/types"
)

// DefaultCacheBytes is the block cache budget used when none is configured
const DefaultCacheBytes = 64 * 1024 * 1024

// BlockReader reads filesystem blocks from a disk and keeps recently read
// metadata blocks in memory
type BlockReader struct {
	disk             io.ReaderAt
	blockSize        uint32
	mu               sync.RWMutex
	blockCache       map[uint64][]byte
	maxCacheSize     int
	currentCacheSize int
	hits             atomic.Int64
	misses           atomic.Int64
}

var (
	_ interfaces.BlockDeviceReader = (*BlockReader)(nil)
	_ interfaces.BlockCache        = (*BlockReader)(nil)
)

// NewBlockReader creates a block reader. A maxCacheBytes of zero disables caching.
func NewBlockReader(disk io.ReaderAt, blockSize uint32, maxCacheBytes int) *BlockReader {
	return &BlockReader{
		disk:         disk,
		blockSize:    blockSize,
		blockCache:   make(map[uint64][]byte),
		maxCacheSize: maxCacheBytes,
	}
}

// ReadBlock reads a single block
func (br *BlockReader) ReadBlock(block uint64) ([]byte, error) {
	br.mu.RLock()
	if cached, exists := br.blockCache[block]; exists {
		br.mu.RUnlock()
		br.hits.Add(1)
		return append([]byte{}, cached...), nil // Return copy
	}
	br.mu.RUnlock()
	br.misses.Add(1)

	data := make([]byte, br.blockSize)
	if _, err := br.ReadAt(data, int64(block)*int64(br.blockSize)); err != nil {
		return nil, fmt.Errorf("failed to read block %d: %w", block, err)
	}

	if br.maxCacheSize > 0 {
		br.mu.Lock()
		br.cacheBlock(block, data)
		br.mu.Unlock()
	}

	return append([]byte{}, data...), nil
}

// ReadBlocks reads count consecutive blocks
func (br *BlockReader) ReadBlocks(block uint64, count uint64) ([]byte, error) {
	if count == 0 {
		return []byte{}, nil
	}

	result := make([]byte, 0, count*uint64(br.blockSize))
	for i := uint64(0); i < count; i++ {
		data, err := br.ReadBlock(block + i)
		if err != nil {
			return nil, err
		}
		result = append(result, data...)
	}
	return result, nil
}

// ReadBytes reads length bytes at offset within block
func (br *BlockReader) ReadBytes(block uint64, offset uint32, length uint32) ([]byte, error) {
	if uint64(offset)+uint64(length) > uint64(br.blockSize) {
		return nil, fmt.Errorf("%w: %d bytes at offset %d cross the end of block %d",
			types.ErrBadFilesystem, length, offset, block)
	}

	data, err := br.ReadBlock(block)
	if err != nil {
		return nil, err
	}
	return data[offset : offset+length], nil
}

// ReadAt reads len(p) bytes at an absolute offset. A short read is an I/O error.
func (br *BlockReader) ReadAt(p []byte, off int64) (int, error) {
	n, err := br.disk.ReadAt(p, off)
	if n == len(p) {
		return n, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return n, fmt.Errorf("%w: reading %d bytes at offset %d: %w", types.ErrIO, len(p), off, err)
}

// BlockSize returns the size of a single block in bytes
func (br *BlockReader) BlockSize() uint32 {
	return br.blockSize
}

// cacheBlock adds a block to the cache, respecting size limits
// Must be called with mu locked
func (br *BlockReader) cacheBlock(block uint64, data []byte) {
	if _, exists := br.blockCache[block]; exists {
		return
	}

	// If adding this block exceeds cache size, clear cache
	if br.currentCacheSize+len(data) > br.maxCacheSize {
		br.blockCache = make(map[uint64][]byte)
		br.currentCacheSize = 0
	}

	br.blockCache[block] = append([]byte{}, data...)
	br.currentCacheSize += len(data)
}

// ClearCache removes all cached blocks
func (br *BlockReader) ClearCache() {
	br.mu.Lock()
	defer br.mu.Unlock()

	br.blockCache = make(map[uint64][]byte)
	br.currentCacheSize = 0
}

// IsCached checks if a block is in cache
func (br *BlockReader) IsCached(block uint64) bool {
	br.mu.RLock()
	defer br.mu.RUnlock()

	_, exists := br.blockCache[block]
	return exists
}

// CacheStats returns cache statistics
func (br *BlockReader) CacheStats() interfaces.CacheStats {
	br.mu.RLock()
	defer br.mu.RUnlock()

	return interfaces.CacheStats{
		CachedBlocks: len(br.blockCache),
		CacheBytes:   br.currentCacheSize,
		MaxBytes:     br.maxCacheSize,
		Hits:         br.hits.Load(),
		Misses:       br.misses.Load(),
	}
}
