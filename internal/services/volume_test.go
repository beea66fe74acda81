package services

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-extfs/internal/helpers"
	"github.com/deploymenttheory/go-extfs/internal/types"
)

// mountBuilder builds the image and mounts it with default options
func mountBuilder(t *testing.T, b *helpers.ImageBuilder) *Volume {
	t.Helper()
	v, err := Mount(bytes.NewReader(b.Build()), DefaultMountOptions())
	require.NoError(t, err)
	return v
}

// putSuperblockField overwrites a 32-bit superblock field of a built image
func putSuperblockField(image []byte, field int, value uint32) {
	binary.LittleEndian.PutUint32(image[types.SuperblockOffset+field:], value)
}

func TestMount_Metadata(t *testing.T) {
	v := mountBuilder(t, helpers.NewImageBuilder(4096, 256))

	assert.Equal(t, "testvol", v.Label())
	assert.Equal(t, "deadbeef-0001-4203-8405-060708090a0b", v.UUID())
	assert.Equal(t, uint32(4096), v.BlockSize())
	assert.Equal(t, uint64(256), v.BlockCount())
	assert.Equal(t, uint32(1), v.GroupCount())
	assert.Equal(t, time.Unix(helpers.BuilderMtime, 0).UTC(), v.LastWriteTime())
	assert.Equal(t, uint32(types.RootInode), v.Root().Number)
	assert.True(t, v.Root().IsDir())
	assert.ElementsMatch(t, []string{"filetype", "extent", "sparse_super", "large_file"}, v.Features())
	assert.Empty(t, v.SuperblockBackups())

	g := v.Geometry()
	assert.Equal(t, uint32(12), g.Log2BlockSize)
	assert.Equal(t, uint32(5), g.LogDescSize)
	assert.Equal(t, uint32(helpers.BuilderInodeSize), g.InodeSize)
	assert.Equal(t, uint32(16), g.InodesPerBlock)
	assert.True(t, g.SparseSuper)
	assert.False(t, g.MetaBg)

	require.NoError(t, v.Close())
}

func TestMount_OneKiBBlocks(t *testing.T) {
	v := mountBuilder(t, helpers.NewImageBuilder(1024, 256))

	g := v.Geometry()
	assert.Equal(t, uint32(1), g.FirstDataBlock)
	assert.Equal(t, uint32(10), g.Log2BlockSize)
	assert.Equal(t, uint32(8192), g.BlocksPerGroup)
	assert.Equal(t, uint32(1), v.GroupCount())
}

func TestMount_FeaturePolicy(t *testing.T) {
	base := types.FeatureIncompatFiletype | types.FeatureIncompatExtents

	tests := []struct {
		name     string
		incompat uint32
		wantErr  error
	}{
		{name: "Default features", incompat: base},
		{name: "Flex block groups", incompat: base | types.FeatureIncompatFlexBg},
		{name: "Meta block groups", incompat: base | types.FeatureIncompatMetaBg},
		{name: "64-bit", incompat: base | types.FeatureIncompat64Bit},
		{name: "Encryption", incompat: base | types.FeatureIncompatEncrypt},
		{name: "Needs recovery", incompat: base | types.FeatureIncompatRecover},
		{name: "Multi-mount protection", incompat: base | types.FeatureIncompatMMP},
		{name: "Checksum seed", incompat: base | types.FeatureIncompatCsumSeed},
		{name: "Compression", incompat: base | types.FeatureIncompatCompression, wantErr: types.ErrUnsupportedFeature},
		{name: "Inline data", incompat: base | types.FeatureIncompatInlineData, wantErr: types.ErrUnsupportedFeature},
		{name: "Journal device", incompat: base | types.FeatureIncompatJournalDev, wantErr: types.ErrUnsupportedFeature},
		{name: "Unknown bit", incompat: base | 0x40000, wantErr: types.ErrUnsupportedFeature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := helpers.NewImageBuilder(4096, 64)
			b.SetFeatures(0, tt.incompat, types.FeatureRoCompatSparseSuper)

			logger, _ := test.NewNullLogger()
			opts := DefaultMountOptions()
			opts.Logger = logger

			v, err := Mount(bytes.NewReader(b.Build()), opts)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, v)
				return
			}
			require.NoError(t, err)
			assert.True(t, v.Root().IsDir())
		})
	}
}

func TestMount_ReadOnlyCompatFeaturesIgnored(t *testing.T) {
	b := helpers.NewImageBuilder(4096, 64)
	b.SetFeatures(types.FeatureCompatHasJournal|types.FeatureCompatDirIndex,
		types.FeatureIncompatFiletype|types.FeatureIncompatExtents,
		types.FeatureRoCompatSparseSuper|types.FeatureRoCompatMetadataCsum|types.FeatureRoCompatBigalloc|0x8000)

	v := mountBuilder(t, b)
	assert.Contains(t, v.Features(), "metadata_csum")
	assert.Contains(t, v.Features(), "FEATURE_0x00008000")
}

func TestMount_IgnoredFeatureLogged(t *testing.T) {
	b := helpers.NewImageBuilder(4096, 64)
	b.SetFeatures(0, types.FeatureIncompatFiletype|types.FeatureIncompatExtents|types.FeatureIncompatRecover, 0)

	logger, hook := test.NewNullLogger()
	opts := DefaultMountOptions()
	opts.Logger = logger

	_, err := Mount(bytes.NewReader(b.Build()), opts)
	require.NoError(t, err)

	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "needs_recovery", entry.Data["feature"])
	assert.Equal(t, "ext", entry.Data["fs"])
}

func TestMount_GoodOldRevision(t *testing.T) {
	b := helpers.NewImageBuilder(1024, 256)
	b.SetRevision(types.RevisionGoodOld).SetFeatures(0, 0, 0)
	b.AddFile(types.RootInode, "hello.txt", []byte("rev 0\n"))

	v := mountBuilder(t, b)
	assert.Equal(t, uint32(types.GoodOldInodeSize), v.Geometry().InodeSize)
	assert.Empty(t, v.Features())

	f, err := v.Open("/hello.txt")
	require.NoError(t, err)
	data, err := f.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "rev 0\n", string(data))
}

func TestMount_Errors(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(image []byte) []byte
		wantErr error
	}{
		{
			name: "Bad magic",
			corrupt: func(image []byte) []byte {
				binary.LittleEndian.PutUint16(image[types.SuperblockOffset+types.SbMagic:], 0x1234)
				return image
			},
			wantErr: types.ErrBadFilesystem,
		},
		{
			name: "Block size out of range",
			corrupt: func(image []byte) []byte {
				putSuperblockField(image, types.SbLogBlockSize, types.MaxLogBlockSize+1)
				return image
			},
			wantErr: types.ErrBadFilesystem,
		},
		{
			name: "Zero inodes per group",
			corrupt: func(image []byte) []byte {
				putSuperblockField(image, types.SbInodesPerGroup, 0)
				return image
			},
			wantErr: types.ErrBadFilesystem,
		},
		{
			name: "Zero blocks per group",
			corrupt: func(image []byte) []byte {
				putSuperblockField(image, types.SbBlocksPerGroup, 0)
				return image
			},
			wantErr: types.ErrBadFilesystem,
		},
		{
			name: "Inode larger than block",
			corrupt: func(image []byte) []byte {
				binary.LittleEndian.PutUint16(image[types.SuperblockOffset+types.SbInodeSize:], 8192)
				return image
			},
			wantErr: types.ErrBadFilesystem,
		},
		{
			name: "Inode smaller than base record",
			corrupt: func(image []byte) []byte {
				binary.LittleEndian.PutUint16(image[types.SuperblockOffset+types.SbInodeSize:], 64)
				return image
			},
			wantErr: types.ErrBadFilesystem,
		},
		{
			name: "Block count below first data block",
			corrupt: func(image []byte) []byte {
				putSuperblockField(image, types.SbBlocksCountLo, 0)
				return image
			},
			wantErr: types.ErrBadFilesystem,
		},
		{
			name: "Root is not a directory",
			corrupt: func(image []byte) []byte {
				// Inode 2 is the second record of the table in block 2
				off := 2*4096 + helpers.BuilderInodeSize + types.InodeMode
				binary.LittleEndian.PutUint16(image[off:], types.ModeRegular|0644)
				return image
			},
			wantErr: types.ErrBadFilesystem,
		},
		{
			name: "Truncated superblock",
			corrupt: func(image []byte) []byte {
				return image[:1500]
			},
			wantErr: types.ErrIO,
		},
		{
			name: "Truncated inode table",
			corrupt: func(image []byte) []byte {
				return image[:2*4096]
			},
			wantErr: types.ErrIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			image := tt.corrupt(helpers.NewImageBuilder(4096, 64).Build())
			v, err := Mount(bytes.NewReader(image), DefaultMountOptions())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, v)
		})
	}
}
