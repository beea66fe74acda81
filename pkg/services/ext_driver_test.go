package services

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-extfs/internal/helpers"
	"github.com/deploymenttheory/go-extfs/internal/interfaces"
	core "github.com/deploymenttheory/go-extfs/internal/services"
	"github.com/deploymenttheory/go-extfs/internal/types"
)

func TestExtDriver_Probe(t *testing.T) {
	volume := helpers.NewImageBuilder(1024, 128).Build()
	d := NewExtDriver(core.DefaultMountOptions())

	tests := []struct {
		name string
		disk interfaces.DiskReader
		want bool
	}{
		{"ext volume", bytes.NewReader(volume), true},
		{"zeroed disk", bytes.NewReader(make([]byte, 4096)), false},
		{"too short", bytes.NewReader(make([]byte, 1024)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Probe(tt.disk))
		})
	}
}

func TestExtDriver_Type(t *testing.T) {
	tests := []struct {
		name     string
		compat   uint32
		incompat uint32
		want     string
	}{
		{"extents", 0, types.FeatureIncompatFiletype | types.FeatureIncompatExtents, "ext4"},
		{"flex_bg only", 0, types.FeatureIncompatFiletype | types.FeatureIncompatFlexBg, "ext4"},
		{"journal", types.FeatureCompatHasJournal, types.FeatureIncompatFiletype, "ext3"},
		{"plain", 0, types.FeatureIncompatFiletype, "ext2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := helpers.NewImageBuilder(1024, 128)
			b.SetFeatures(tt.compat, tt.incompat, types.FeatureRoCompatSparseSuper)

			vol, err := NewExtDriver(core.DefaultMountOptions()).Mount(bytes.NewReader(b.Build()))
			require.NoError(t, err)
			assert.Equal(t, tt.want, vol.Type())
			assert.Equal(t, "testvol", vol.Label())
			assert.Equal(t, "deadbeef-0001-4203-8405-060708090a0b", vol.UUID())
		})
	}
}

func TestExtVolume_Operations(t *testing.T) {
	content := bytes.Repeat([]byte("ext"), 2000)
	b := helpers.NewImageBuilder(1024, 256)
	dir := b.Mkdir(types.RootInode, "docs")
	b.AddFile(dir, "readme", content)
	b.AddSymlink(types.RootInode, "latest", "docs/readme")

	vol, err := NewExtDriver(core.DefaultMountOptions()).Mount(bytes.NewReader(b.Build()))
	require.NoError(t, err)
	defer vol.Close()

	f, err := vol.Open("/latest")
	require.NoError(t, err)
	assert.Equal(t, uint64(len(content)), f.Size())

	got, err := io.ReadAll(io.NewSectionReader(f, 0, int64(f.Size())))
	require.NoError(t, err)
	assert.Equal(t, content, got)

	ranges, err := f.ExtentList(2048)
	require.NoError(t, err)
	require.NotEmpty(t, ranges)
	assert.Equal(t, uint64(12), types.TotalSectors(ranges))

	var names []string
	require.NoError(t, vol.List("/docs", func(info types.FileInfo) bool {
		names = append(names, info.Name)
		return false
	}))
	assert.Equal(t, []string{".", "..", "readme"}, names)

	_, err = vol.Open("/docs")
	assert.ErrorIs(t, err, types.ErrNotAFile)

	links, ok := vol.(LinkReader)
	require.True(t, ok)
	target, err := links.Readlink("/latest")
	require.NoError(t, err)
	assert.Equal(t, "docs/readme", target)

	walker, ok := vol.(Walker)
	require.True(t, ok)
	var visited []string
	require.NoError(t, walker.Walk("/", func(p string, info types.FileInfo) error {
		visited = append(visited, p)
		return nil
	}))
	assert.Contains(t, visited, "/docs/readme")
}
