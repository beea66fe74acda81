package services

import (
	"encoding/binary"

	"github.com/deploymenttheory/go-extfs/internal/interfaces"
	core "github.com/deploymenttheory/go-extfs/internal/services"
	"github.com/deploymenttheory/go-extfs/internal/types"
)

// ExtDriverName is the registry name of the ext2/3/4 driver
const ExtDriverName = "ext"

// ExtDriver mounts ext2, ext3 and ext4 volumes
type ExtDriver struct {
	opts core.MountOptions
}

// NewExtDriver creates an ext driver that mounts with opts
func NewExtDriver(opts core.MountOptions) *ExtDriver {
	return &ExtDriver{opts: opts}
}

// Name implements interfaces.FilesystemDriver
func (d *ExtDriver) Name() string {
	return ExtDriverName
}

// Probe checks the superblock magic only
func (d *ExtDriver) Probe(disk interfaces.DiskReader) bool {
	var magic [2]byte
	if _, err := disk.ReadAt(magic[:], types.SuperblockOffset+types.SbMagic); err != nil {
		return false
	}
	return binary.LittleEndian.Uint16(magic[:]) == types.SuperblockMagic
}

// Mount implements interfaces.FilesystemDriver
func (d *ExtDriver) Mount(disk interfaces.DiskReader) (interfaces.Volume, error) {
	v, err := core.Mount(disk, d.opts)
	if err != nil {
		return nil, err
	}
	return &ExtVolume{Volume: v}, nil
}

// ExtVolume adapts a mounted ext volume to interfaces.Volume. The embedded
// Volume stays reachable for callers that need ext specifics.
type ExtVolume struct {
	*core.Volume
}

// Type names the ext generation from the feature set
func (v *ExtVolume) Type() string {
	sb := v.Superblock()
	switch {
	case sb.HasIncompat(types.FeatureIncompatExtents | types.FeatureIncompat64Bit | types.FeatureIncompatFlexBg):
		return "ext4"
	case sb.FeatureCompat()&types.FeatureCompatHasJournal != 0:
		return "ext3"
	default:
		return "ext2"
	}
}

// Open implements interfaces.Volume
func (v *ExtVolume) Open(path string) (interfaces.File, error) {
	f, err := v.Volume.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// List implements interfaces.Volume
func (v *ExtVolume) List(path string, visit interfaces.ListFunc) error {
	return v.Volume.List(path, visit)
}

// Walk implements Walker
func (v *ExtVolume) Walk(start string, fn func(path string, info types.FileInfo) error) error {
	return v.Volume.Walk(start, fn)
}
