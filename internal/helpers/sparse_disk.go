package helpers

import (
	"io"
	"sync"
)

const sparseChunkSize = 4096

// SparseDisk is an in-memory disk of a fixed size where only written chunks
// take memory. Unwritten bytes read as zero.
type SparseDisk struct {
	mu     sync.RWMutex
	size   int64
	chunks map[int64][]byte
}

// NewSparseDisk creates an empty disk of size bytes
func NewSparseDisk(size int64) *SparseDisk {
	return &SparseDisk{size: size, chunks: make(map[int64][]byte)}
}

// Size returns the disk size in bytes
func (d *SparseDisk) Size() int64 {
	return d.size
}

// WriteAt stores p at off
func (d *SparseDisk) WriteAt(p []byte, off int64) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if off+int64(len(p)) > d.size {
		return 0, io.ErrShortWrite
	}
	for n := 0; n < len(p); {
		index := (off + int64(n)) / sparseChunkSize
		inChunk := (off + int64(n)) % sparseChunkSize
		chunk, ok := d.chunks[index]
		if !ok {
			chunk = make([]byte, sparseChunkSize)
			d.chunks[index] = chunk
		}
		n += copy(chunk[inChunk:], p[n:])
	}
	return len(p), nil
}

// ReadAt reads len(p) bytes at off
func (d *SparseDisk) ReadAt(p []byte, off int64) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if off >= d.size {
		return 0, io.EOF
	}
	want := len(p)
	if off+int64(want) > d.size {
		want = int(d.size - off)
	}

	for n := 0; n < want; {
		index := (off + int64(n)) / sparseChunkSize
		inChunk := (off + int64(n)) % sparseChunkSize
		span := int(sparseChunkSize - inChunk)
		if span > want-n {
			span = want - n
		}
		if chunk, ok := d.chunks[index]; ok {
			copy(p[n:n+span], chunk[inChunk:])
		} else {
			clear(p[n : n+span])
		}
		n += span
	}

	if want < len(p) {
		return want, io.EOF
	}
	return want, nil
}
