package services

import (
	"fmt"
	"math/bits"

	"github.com/deploymenttheory/go-extfs/internal/types"
)

// DefaultSectorSize is the disk sector size assumed by ExtentList
const DefaultSectorSize = 512

// ExtentList returns the absolute 512-byte disk sectors backing the file, in
// logical order, with physically adjacent runs merged and every range offset
// by partitionStartSector. A hole anywhere in the file is an error.
func (f *File) ExtentList(partitionStartSector uint64) ([]types.SectorRange, error) {
	return f.ExtentListSectors(partitionStartSector, DefaultSectorSize)
}

// ExtentListSectors is ExtentList for an arbitrary sector size, which must
// be a power of two no larger than the block size
func (f *File) ExtentListSectors(partitionStartSector uint64, sectorSize uint32) ([]types.SectorRange, error) {
	g := f.volume.geometry
	if sectorSize == 0 || sectorSize&(sectorSize-1) != 0 || sectorSize > g.BlockSize {
		return nil, fmt.Errorf("invalid sector size %d for block size %d", sectorSize, g.BlockSize)
	}
	shift := g.Log2BlockSize - uint32(bits.TrailingZeros32(sectorSize))

	ranges := []types.SectorRange{}
	blocks := f.blockCount()
	for logical := uint64(0); logical < blocks; {
		m, err := f.mapping(logical)
		if err != nil {
			return nil, fmt.Errorf("failed to map block %d of inode %d: %w", logical, f.inode.Number, err)
		}
		if m.ZeroFilled() {
			return nil, fmt.Errorf("%w: inode %d block %d", types.ErrHoleInChunkList, f.inode.Number, logical)
		}

		run := m.Run
		if run > blocks-logical {
			run = blocks - logical
		}
		ranges = appendSectorRun(ranges, m.Physical<<shift, run<<shift)
		logical += run
	}

	// The last block may extend past the end of the file
	if len(ranges) > 0 {
		size := f.Size()
		wanted := (size + uint64(sectorSize) - 1) / uint64(sectorSize)
		excess := blocks<<shift - wanted
		ranges[len(ranges)-1].EndSector -= excess
	}

	for i := range ranges {
		ranges[i].StartSector += partitionStartSector
		ranges[i].EndSector += partitionStartSector
	}
	return ranges, nil
}

// appendSectorRun adds count sectors at start, merging with the previous
// range when the two are physically adjacent
func appendSectorRun(ranges []types.SectorRange, start, count uint64) []types.SectorRange {
	if n := len(ranges); n > 0 && ranges[n-1].EndSector+1 == start {
		ranges[n-1].EndSector += count
		return ranges
	}
	return append(ranges, types.SectorRange{StartSector: start, EndSector: start + count - 1})
}
