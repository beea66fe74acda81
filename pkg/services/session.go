package services

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-extfs/internal/disk"
	"github.com/deploymenttheory/go-extfs/internal/interfaces"
	"github.com/deploymenttheory/go-extfs/internal/parsers/partition"
	core "github.com/deploymenttheory/go-extfs/internal/services"
	"github.com/deploymenttheory/go-extfs/internal/types"
)

// sectorLister is implemented by files that can express their chunk list in
// sectors other than 512 bytes
type sectorLister interface {
	ExtentListSectors(partitionStartSector uint64, sectorSize uint32) ([]types.SectorRange, error)
}

// Session owns an opened disk image and the volume mounted from it
type Session struct {
	image  *disk.Image
	volume interfaces.Volume
	driver string
	config *disk.ImageConfig
	mu     sync.Mutex
	closed bool
}

// MountOptionsFromConfig converts image configuration into volume mount options
func MountOptionsFromConfig(config *disk.ImageConfig, log logrus.FieldLogger) core.MountOptions {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return core.MountOptions{
		CacheBytes:      config.CacheBytes(),
		MaxSymlinkDepth: config.MaxSymlinkDepth,
		Logger:          log,
	}
}

// OpenSession opens the image at path, detects its filesystem and mounts it
func OpenSession(path string, config *disk.ImageConfig, log logrus.FieldLogger) (*Session, error) {
	if config == nil {
		config = disk.DefaultImageConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return OpenSessionWith(NewDefaultRegistry(MountOptionsFromConfig(config, log)), path, config)
}

// OpenSessionWith is OpenSession with a caller supplied driver set
func OpenSessionWith(drivers DriverSet, path string, config *disk.ImageConfig) (*Session, error) {
	img, err := disk.OpenImage(path, config)
	if err != nil {
		return nil, err
	}

	driver, err := drivers.Detect(img)
	if err != nil {
		img.Close()
		return nil, err
	}

	volume, err := driver.Mount(img)
	if err != nil {
		img.Close()
		return nil, fmt.Errorf("failed to mount %s volume: %w", driver.Name(), err)
	}

	return &Session{
		image:  img,
		volume: volume,
		driver: driver.Name(),
		config: config,
	}, nil
}

// Volume returns the mounted volume
func (s *Session) Volume() interfaces.Volume {
	return s.volume
}

// Image returns the underlying disk image
func (s *Session) Image() *disk.Image {
	return s.image
}

// Driver returns the name of the driver that mounted the volume
func (s *Session) Driver() string {
	return s.driver
}

// PartitionStartSector returns the volume start in configured sectors
func (s *Session) PartitionStartSector() uint64 {
	return s.image.PartitionStartSector(s.config.SectorSize)
}

// ExtentList opens path and returns its absolute sector ranges in the
// configured sector size
func (s *Session) ExtentList(path string) ([]types.SectorRange, error) {
	return s.ExtentListFrom(path, s.PartitionStartSector())
}

// ExtentListFrom is ExtentList with an explicit partition start sector
func (s *Session) ExtentListFrom(path string, partitionStartSector uint64) ([]types.SectorRange, error) {
	f, err := s.volume.Open(path)
	if err != nil {
		return nil, err
	}
	return s.FileExtentListFrom(f, partitionStartSector)
}

// FileExtentList returns the sector ranges of an already opened file
func (s *Session) FileExtentList(f interfaces.File) ([]types.SectorRange, error) {
	return s.FileExtentListFrom(f, s.PartitionStartSector())
}

// FileExtentListFrom is FileExtentList with an explicit partition start sector
func (s *Session) FileExtentListFrom(f interfaces.File, start uint64) ([]types.SectorRange, error) {
	if s.config.SectorSize != types.LegacySectorSize {
		if sl, ok := f.(sectorLister); ok {
			return sl.ExtentListSectors(start, s.config.SectorSize)
		}
		return nil, fmt.Errorf("%w: %d-byte sectors", types.ErrUnsupportedFeature, s.config.SectorSize)
	}
	return f.ExtentList(start)
}

// SectorSize returns the sector size chunk lists are expressed in
func (s *Session) SectorSize() uint32 {
	return s.config.SectorSize
}

// Workers returns the configured parallelism for multi-file operations
func (s *Session) Workers() int {
	return s.config.Workers
}

// Info summarizes the volume and where it was found
func (s *Session) Info() VolumeInfo {
	info := VolumeInfo{
		Driver: s.driver,
		Type:   s.volume.Type(),
		Label:  s.volume.Label(),
		UUID:   s.volume.UUID(),
		Partition: PartitionInfo{
			Method:      s.image.Method(),
			Index:       -1,
			Offset:      s.image.Offset(),
			StartSector: s.PartitionStartSector(),
		},
	}
	if s.image.Scheme() != types.SchemeNone {
		info.Partition.Scheme = string(s.image.Scheme())
	}
	if p, ok := s.image.Partition(); ok {
		info.Partition.Index = p.Index
		info.Partition.Type = partition.TypeName(p)
		info.Partition.Name = p.Label
	}
	if d, ok := s.volume.(VolumeDetails); ok {
		info.BlockSize = d.BlockSize()
		info.BlockCount = d.BlockCount()
		info.FreeBlocks = d.FreeBlocks()
		info.FreeInodes = d.FreeInodes()
		info.GroupCount = d.GroupCount()
		info.Features = d.Features()
		info.SuperblockBackups = d.SuperblockBackups()
		info.LastWrite = d.LastWriteTime()
	}
	return info
}

// Close unmounts the volume and releases the image. It is safe to call twice.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	volErr := s.volume.Close()
	imgErr := s.image.Close()
	if volErr != nil {
		return volErr
	}
	return imgErr
}
