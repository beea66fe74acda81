package services

import (
	"errors"
	"fmt"
	"io"
)

// File is an open file of a mounted volume. Its run cache is guarded, so
// concurrent ReadAt calls are safe.
type File struct {
	volume *Volume
	inode  *Inode
	runs   *RunCache
}

// OpenInode wraps an already resolved inode
func (v *Volume) OpenInode(inode *Inode) *File {
	return &File{
		volume: v,
		inode:  inode,
		runs:   NewRunCache(DefaultRunCacheEntries),
	}
}

// Inode returns the file's inode
func (f *File) Inode() *Inode {
	return f.inode
}

// Size returns the file size in bytes
func (f *File) Size() uint64 {
	return f.inode.Size()
}

// blockCount returns the number of blocks covering the file size
func (f *File) blockCount() uint64 {
	bs := uint64(f.volume.geometry.BlockSize)
	return (f.Size() + bs - 1) / bs
}

// mapping resolves logical through the run cache
func (f *File) mapping(logical uint64) (BlockMapping, error) {
	if m, ok := f.runs.Lookup(logical); ok {
		return m, nil
	}
	m, err := f.volume.ResolveBlock(f.inode, logical)
	if err != nil {
		return BlockMapping{}, err
	}
	if m.Run == 0 {
		m.Run = 1
	}
	f.runs.Insert(logical, m)
	return m, nil
}

// ReadAt reads file content at off. Holes and uninitialized extents read as
// zeros. Reads past the end of the file return io.EOF.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("negative offset")
	}
	size := f.Size()
	if uint64(off) >= size {
		return 0, io.EOF
	}

	want := uint64(len(p))
	if remaining := size - uint64(off); want > remaining {
		want = remaining
	}

	bs := uint64(f.volume.geometry.BlockSize)
	pos := uint64(off)
	var n uint64
	for n < want {
		logical := pos / bs
		inBlock := pos % bs

		m, err := f.mapping(logical)
		if err != nil {
			return int(n), fmt.Errorf("failed to map block %d of inode %d: %w", logical, f.inode.Number, err)
		}

		span := m.Run*bs - inBlock
		if span > want-n {
			span = want - n
		}
		chunk := p[n : n+span]

		if m.ZeroFilled() {
			clear(chunk)
		} else if _, err := f.volume.blocks.ReadAt(chunk, int64(m.Physical*bs+inBlock)); err != nil {
			return int(n), err
		}

		n += span
		pos += span
	}

	if n < uint64(len(p)) {
		return int(n), io.EOF
	}
	return int(n), nil
}

// ReadAll reads the whole file
func (f *File) ReadAll() ([]byte, error) {
	buf := make([]byte, f.Size())
	if _, err := f.ReadAt(buf, 0); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf, nil
}

// IsSparse reports whether any block of the file is a hole or uninitialized
func (f *File) IsSparse() (bool, error) {
	blocks := f.blockCount()
	for logical := uint64(0); logical < blocks; {
		m, err := f.mapping(logical)
		if err != nil {
			return false, err
		}
		if m.ZeroFilled() {
			return true, nil
		}
		logical += m.Run
	}
	return false, nil
}

// NewSectionReader returns an io.Reader over the whole file
func (f *File) NewSectionReader() *io.SectionReader {
	return io.NewSectionReader(f, 0, int64(f.Size()))
}

var _ io.ReaderAt = (*File)(nil)
