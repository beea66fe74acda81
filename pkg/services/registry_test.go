package services

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-extfs/internal/helpers"
	"github.com/deploymenttheory/go-extfs/internal/interfaces"
	core "github.com/deploymenttheory/go-extfs/internal/services"
	"github.com/deploymenttheory/go-extfs/internal/types"
)

// stubDriver accepts every disk when accept is set and never mounts
type stubDriver struct {
	name   string
	accept bool
	probes *[]string
}

func (d stubDriver) Name() string { return d.name }

func (d stubDriver) Probe(interfaces.DiskReader) bool {
	if d.probes != nil {
		*d.probes = append(*d.probes, d.name)
	}
	return d.accept
}

func (d stubDriver) Mount(interfaces.DiskReader) (interfaces.Volume, error) {
	return nil, errors.New("stub")
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubDriver{name: "iso9660"}))
	require.NoError(t, r.Register(stubDriver{name: "squashfs"}))

	err := r.Register(stubDriver{name: "iso9660"})
	assert.ErrorIs(t, err, ErrDriverExists)
	assert.Equal(t, []string{"iso9660", "squashfs"}, r.Names())

	d, err := r.Driver("squashfs")
	require.NoError(t, err)
	assert.Equal(t, "squashfs", d.Name())

	_, err = r.Driver("ntfs")
	assert.ErrorIs(t, err, ErrDriverNotFound)
}

func TestRegistry_DetectOrder(t *testing.T) {
	var probes []string
	r := NewRegistry()
	require.NoError(t, r.Register(stubDriver{name: "first", probes: &probes}))
	require.NoError(t, r.Register(stubDriver{name: "second", accept: true, probes: &probes}))
	require.NoError(t, r.Register(stubDriver{name: "third", accept: true, probes: &probes}))

	d, err := r.Detect(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Equal(t, "second", d.Name())
	assert.Equal(t, []string{"first", "second"}, probes)
}

func TestRegistry_DetectNone(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubDriver{name: "never"}))

	_, err := r.Detect(bytes.NewReader(make([]byte, 4096)))
	assert.ErrorIs(t, err, types.ErrBadFilesystem)
	assert.ErrorIs(t, err, ErrNoDriver)

	_, err = r.Mount(bytes.NewReader(make([]byte, 4096)))
	assert.ErrorIs(t, err, ErrNoDriver)
}

func TestDefaultRegistry_MountsExt(t *testing.T) {
	b := helpers.NewImageBuilder(4096, 64)
	b.AddFile(types.RootInode, "hello.txt", []byte("hello"))

	r := NewDefaultRegistry(core.DefaultMountOptions())
	assert.Equal(t, []string{ExtDriverName}, r.Names())

	vol, err := r.Mount(bytes.NewReader(b.Build()))
	require.NoError(t, err)
	defer vol.Close()

	info, err := vol.Stat("/hello.txt")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), info.Size)
}
