package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-extfs/internal/helpers"
	"github.com/deploymenttheory/go-extfs/internal/types"
)

// mountInode mounts the builder's image and reads inode ino
func mountInode(t *testing.T, b *helpers.ImageBuilder, ino uint32) (*Volume, *Inode) {
	t.Helper()
	v := mountBuilder(t, b)
	inode, err := v.ReadInode(ino)
	require.NoError(t, err)
	return v, inode
}

func TestResolveBlock_ExtentLeafRoot(t *testing.T) {
	b := helpers.NewImageBuilder(1024, 128)
	ino := b.AddInode(types.RootInode, "sparse", types.ModeRegular|0644, types.InodeFlagExtents, 16*1024,
		b.ExtentRoot([]types.ExtentLeaf{
			{Block: 0, Len: 4, StartLo: 100},
			{Block: 10, Len: 2, StartLo: 200},
			{Block: 12, Len: types.ExtentInitMaxLen + 3, StartLo: 300},
		}))
	v, inode := mountInode(t, b, ino)

	tests := []struct {
		name    string
		logical uint64
		want    BlockMapping
	}{
		{name: "Extent start", logical: 0, want: BlockMapping{Physical: 100, Run: 4}},
		{name: "Extent end", logical: 3, want: BlockMapping{Physical: 103, Run: 1}},
		{name: "Gap before next extent", logical: 4, want: BlockMapping{Run: 6}},
		{name: "Gap end", logical: 9, want: BlockMapping{Physical: 0, Run: 1}},
		{name: "Second extent", logical: 10, want: BlockMapping{Physical: 200, Run: 2}},
		{name: "Uninitialized extent", logical: 12, want: BlockMapping{Physical: 300, Run: 3, Uninitialized: true}},
		{name: "Inside uninitialized extent", logical: 14, want: BlockMapping{Physical: 302, Run: 1, Uninitialized: true}},
		{name: "Past last extent", logical: 15, want: BlockMapping{Run: 1}},
		{name: "Beyond 32-bit logical range", logical: 1 << 32, want: BlockMapping{Run: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.ResolveBlock(inode, tt.logical)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveBlock_EmptyExtentRoot(t *testing.T) {
	b := helpers.NewImageBuilder(1024, 128)
	ino := b.AddInode(types.RootInode, "empty", types.ModeRegular|0644, types.InodeFlagExtents, 8192, b.ExtentRoot(nil))
	v, inode := mountInode(t, b, ino)

	got, err := v.ResolveBlock(inode, 5)
	require.NoError(t, err)
	assert.True(t, got.IsHole())
	assert.True(t, got.ZeroFilled())
}

func TestResolveBlock_ExtentIndexTree(t *testing.T) {
	b := helpers.NewImageBuilder(1024, 256)

	leafA := b.AllocBlocks(1)
	leafB := b.AllocBlocks(1)
	b.WriteExtentLeaf(leafA, []types.ExtentLeaf{{Block: 0, Len: 50, StartLo: 1000}})
	b.WriteExtentLeaf(leafB, []types.ExtentLeaf{{Block: 100, Len: 10, StartLo: 2000, StartHi: 1}})

	index := b.AllocBlocks(1)
	b.WriteExtentIndex(index, 1, []types.ExtentIndex{{Block: 0, LeafLo: leafA}, {Block: 100, LeafLo: leafB}})

	depth1 := b.AddInode(types.RootInode, "depth1", types.ModeRegular|0644, types.InodeFlagExtents, 110*1024,
		b.ExtentIndexRoot(1, []types.ExtentIndex{{Block: 0, LeafLo: leafA}, {Block: 100, LeafLo: leafB}}))
	depth2 := b.AddInode(types.RootInode, "depth2", types.ModeRegular|0644, types.InodeFlagExtents, 110*1024,
		b.ExtentIndexRoot(2, []types.ExtentIndex{{Block: 0, LeafLo: index}}))

	v := mountBuilder(t, b)

	for _, ino := range []uint32{depth1, depth2} {
		inode, err := v.ReadInode(ino)
		require.NoError(t, err)

		tests := []struct {
			logical uint64
			want    BlockMapping
		}{
			{logical: 0, want: BlockMapping{Physical: 1000, Run: 50}},
			{logical: 49, want: BlockMapping{Physical: 1049, Run: 1}},
			{logical: 50, want: BlockMapping{Run: 1}},
			{logical: 99, want: BlockMapping{Run: 1}},
			{logical: 105, want: BlockMapping{Physical: 1<<32 | 2005, Run: 5}},
			{logical: 110, want: BlockMapping{Run: 1}},
		}
		for _, tt := range tests {
			got, err := v.ResolveBlock(inode, tt.logical)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "inode %d block %d", ino, tt.logical)
		}
	}
}

func TestResolveBlock_InvalidExtentTree(t *testing.T) {
	b := helpers.NewImageBuilder(1024, 256)

	leaf := b.AllocBlocks(1)
	b.WriteExtentLeaf(leaf, []types.ExtentLeaf{{Block: 0, Len: 1, StartLo: 500}})
	zeroed := b.AllocBlocks(1)

	tests := []struct {
		name    string
		area    []byte
		logical uint64
		wantErr error
	}{
		{
			name:    "No extent covers the block",
			area:    b.ExtentRoot([]types.ExtentLeaf{{Block: 5, Len: 1, StartLo: 100}}),
			logical: 0,
			wantErr: types.ErrInvalidExtentTree,
		},
		{
			name:    "No index covers the block",
			area:    b.ExtentIndexRoot(1, []types.ExtentIndex{{Block: 10, LeafLo: leaf}}),
			logical: 0,
			wantErr: types.ErrInvalidExtentTree,
		},
		{
			name:    "Child without extent magic",
			area:    b.ExtentIndexRoot(1, []types.ExtentIndex{{Block: 0, LeafLo: zeroed}}),
			logical: 0,
			wantErr: types.ErrInvalidExtentTree,
		},
		{
			name:    "Child depth mismatch",
			area:    b.ExtentIndexRoot(2, []types.ExtentIndex{{Block: 0, LeafLo: leaf}}),
			logical: 0,
			wantErr: types.ErrInvalidExtentTree,
		},
		{
			name:    "Child outside the disk",
			area:    b.ExtentIndexRoot(1, []types.ExtentIndex{{Block: 0, LeafLo: 1 << 20}}),
			logical: 0,
			wantErr: types.ErrIO,
		},
		{
			name:    "Corrupt root magic",
			area:    make([]byte, types.InodeBlockAreaSize),
			logical: 0,
			wantErr: types.ErrInvalidExtentTree,
		},
	}

	inos := make([]uint32, len(tests))
	for i, tt := range tests {
		inos[i] = b.AddInode(types.RootInode, tt.name, types.ModeRegular|0644, types.InodeFlagExtents, 1024, tt.area)
	}
	v := mountBuilder(t, b)

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inode, err := v.ReadInode(inos[i])
			require.NoError(t, err)

			_, err = v.ResolveBlock(inode, tt.logical)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestResolveBlock_IndirectTiers(t *testing.T) {
	// 1 KiB blocks hold 256 pointers: direct 0-11, single 12-267,
	// double 268-65803, triple 65804-16843019
	b := helpers.NewImageBuilder(1024, 256)

	var ptrs [types.BlockPointerCount]uint32
	for i := range types.DirectBlocks {
		ptrs[i] = 1000 + uint32(i)
	}

	single := b.AllocBlocks(1)
	for slot := range 256 {
		b.PutPointer(single, slot, 2000+uint32(slot))
	}
	ptrs[types.IndirectBlockIndex] = single

	double, d0, d255 := b.AllocBlocks(1), b.AllocBlocks(1), b.AllocBlocks(1)
	b.PutPointer(double, 0, d0)
	b.PutPointer(double, 255, d255)
	b.PutPointer(d0, 0, 3000)
	b.PutPointer(d0, 1, 3001)
	b.PutPointer(d255, 255, 4000)
	ptrs[types.DoubleIndirectBlockIndex] = double

	triple, t0, t00 := b.AllocBlocks(1), b.AllocBlocks(1), b.AllocBlocks(1)
	b.PutPointer(triple, 0, t0)
	b.PutPointer(t0, 0, t00)
	b.PutPointer(t00, 0, 5000)
	ptrs[types.TripleIndirectBlockIndex] = triple

	ino := b.AddInode(types.RootInode, "legacy", types.ModeRegular|0644, 0, 1<<34, b.BlockMapRoot(ptrs))
	v, inode := mountInode(t, b, ino)
	assert.Equal(t, types.LayoutBlockMap, inode.Layout())

	tests := []struct {
		name    string
		logical uint64
		want    uint64
	}{
		{name: "First direct", logical: 0, want: 1000},
		{name: "Last direct", logical: 11, want: 1011},
		{name: "First single indirect", logical: 12, want: 2000},
		{name: "Last single indirect", logical: 267, want: 2255},
		{name: "First double indirect", logical: 268, want: 3000},
		{name: "Second double indirect", logical: 269, want: 3001},
		{name: "Hole under double indirect", logical: 270, want: 0},
		{name: "Hole in double indirect root", logical: 268 + 256, want: 0},
		{name: "Last double indirect", logical: 65803, want: 4000},
		{name: "First triple indirect", logical: 65804, want: 5000},
		{name: "Hole under triple indirect", logical: 65805, want: 0},
		{name: "Hole in triple indirect root", logical: 65804 + 65536, want: 0},
		{name: "Last triple indirect", logical: 16843019, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.ResolveBlock(inode, tt.logical)
			require.NoError(t, err)
			assert.Equal(t, BlockMapping{Physical: tt.want, Run: 1}, got)
		})
	}

	_, err := v.ResolveBlock(inode, 16843020)
	assert.ErrorIs(t, err, types.ErrUnsupportedFeature)
}

func TestResolveBlock_IndirectReadError(t *testing.T) {
	b := helpers.NewImageBuilder(1024, 128)

	var ptrs [types.BlockPointerCount]uint32
	ptrs[types.IndirectBlockIndex] = 1 << 20
	ino := b.AddInode(types.RootInode, "broken", types.ModeRegular|0644, 0, 64*1024, b.BlockMapRoot(ptrs))
	v, inode := mountInode(t, b, ino)

	_, err := v.ResolveBlock(inode, 12)
	assert.ErrorIs(t, err, types.ErrIO)

	got, err := v.ResolveBlock(inode, 3)
	require.NoError(t, err)
	assert.True(t, got.IsHole())
}

func TestResolveBlock_InlineSymlink(t *testing.T) {
	b := helpers.NewImageBuilder(1024, 128)
	ino := b.AddSymlink(types.RootInode, "link", "target")
	v, inode := mountInode(t, b, ino)

	_, err := v.ResolveBlock(inode, 0)
	assert.ErrorIs(t, err, types.ErrBadFilesystem)
}
