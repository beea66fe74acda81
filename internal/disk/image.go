package disk

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/deploymenttheory/go-extfs/internal/parsers/partition"
	"github.com/deploymenttheory/go-extfs/internal/types"
)

// Special values of ImageConfig.Partition
const (
	// PartitionAuto probes for a bare ext volume, then for the first
	// partition holding one
	PartitionAuto = -1

	// PartitionRaw uses PartitionOffset as the volume start
	PartitionRaw = -2
)

// ErrPartitionNotFound is returned when the configured partition index is
// not in the partition table
var ErrPartitionNotFound = errors.New("partition not found")

// Detection methods reported by Image.Method
const (
	MethodRaw        = "raw"
	MethodPartition  = "partition"
	MethodConfigured = "configured"
	MethodOffset     = "offset"
)

// Image provides access to an ext volume inside a disk image, a partition
// image or a block device
type Image struct {
	file      *os.File
	size      int64
	offset    int64
	scheme    types.PartitionScheme
	table     []types.Partition
	partition *types.Partition
	unlock    func() error
	stats     *ImageStatistics
}

// ImageStatistics tracks image access statistics
type ImageStatistics struct {
	detectionTime time.Duration
	method        string
	reads         atomic.Int64
	bytesRead     atomic.Int64
}

// ImageConfig holds configuration for opening images
type ImageConfig struct {
	Partition       int    `mapstructure:"partition" json:"partition" yaml:"partition"`
	PartitionOffset int64  `mapstructure:"partition_offset" json:"partition_offset" yaml:"partition_offset"`
	SectorSize      uint32 `mapstructure:"sector_size" json:"sector_size" yaml:"sector_size"`
	CacheEnabled    bool   `mapstructure:"cache_enabled" json:"cache_enabled" yaml:"cache_enabled"`
	CacheSize       int    `mapstructure:"cache_size" json:"cache_size" yaml:"cache_size"`
	LockImage       bool   `mapstructure:"lock_image" json:"lock_image" yaml:"lock_image"`
	MaxSymlinkDepth int    `mapstructure:"max_symlink_depth" json:"max_symlink_depth" yaml:"max_symlink_depth"`
	Workers         int    `mapstructure:"workers" json:"workers" yaml:"workers"`
}

// DefaultImageConfig returns the configuration used when no file or
// environment overrides exist
func DefaultImageConfig() *ImageConfig {
	return &ImageConfig{
		Partition:       PartitionAuto,
		SectorSize:      types.LegacySectorSize,
		CacheEnabled:    true,
		CacheSize:       64,
		LockImage:       true,
		MaxSymlinkDepth: 8,
		Workers:         4,
	}
}

// LoadImageConfig loads image configuration using Viper
func LoadImageConfig() (*ImageConfig, error) {
	viper.SetConfigName("extfs-config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("$HOME/.extfs")
	viper.AddConfigPath("/etc/extfs")

	defaults := DefaultImageConfig()
	viper.SetDefault("partition", defaults.Partition)
	viper.SetDefault("partition_offset", defaults.PartitionOffset)
	viper.SetDefault("sector_size", defaults.SectorSize)
	viper.SetDefault("cache_enabled", defaults.CacheEnabled)
	viper.SetDefault("cache_size", defaults.CacheSize)
	viper.SetDefault("lock_image", defaults.LockImage)
	viper.SetDefault("max_symlink_depth", defaults.MaxSymlinkDepth)
	viper.SetDefault("workers", defaults.Workers)

	viper.SetEnvPrefix("EXTFS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config ImageConfig
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks value ranges
func (c *ImageConfig) Validate() error {
	if c.Partition < PartitionRaw {
		return fmt.Errorf("invalid partition %d", c.Partition)
	}
	if c.PartitionOffset < 0 {
		return fmt.Errorf("invalid partition offset %d", c.PartitionOffset)
	}
	if c.SectorSize == 0 || c.SectorSize&(c.SectorSize-1) != 0 {
		return fmt.Errorf("sector size %d is not a power of two", c.SectorSize)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("invalid cache size %d", c.CacheSize)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}

// CacheBytes returns the block cache budget in bytes, zero when disabled
func (c *ImageConfig) CacheBytes() int {
	if !c.CacheEnabled {
		return 0
	}
	return c.CacheSize << 20
}

// OpenImage opens path and locates the ext volume within it
func OpenImage(path string, config *ImageConfig) (*Image, error) {
	if config == nil {
		config = DefaultImageConfig()
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	// Lock after opening so a missing image is never created by the lock
	var unlock func() error
	if config.LockImage {
		l := flock.New(path)
		locked, err := l.TryRLock()
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("error acquiring lock on image %q: %w", path, err)
		}
		if !locked {
			file.Close()
			return nil, fmt.Errorf("image %q is locked by another process", path)
		}
		unlock = l.Unlock
	}

	size, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		file.Close()
		releaseLock(unlock)
		return nil, fmt.Errorf("failed to size image: %w", err)
	}

	img := &Image{
		file:   file,
		size:   size,
		scheme: types.SchemeNone,
		unlock: unlock,
		stats:  &ImageStatistics{},
	}

	start := time.Now()
	err = img.locate(config)
	img.stats.detectionTime = time.Since(start)
	if err != nil {
		img.Close()
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"image":  path,
		"offset": img.offset,
		"method": img.stats.method,
		"scheme": img.scheme,
	}).Debug("located ext volume")

	return img, nil
}

func releaseLock(unlock func() error) {
	if unlock != nil {
		unlock()
	}
}

// locate picks the volume start according to config
func (img *Image) locate(config *ImageConfig) error {
	if config.Partition == PartitionRaw {
		img.offset = config.PartitionOffset * types.LegacySectorSize
		img.stats.method = MethodOffset
		return img.checkOffset()
	}

	if config.Partition == PartitionAuto && probeSuperblock(img.file, 0) {
		img.stats.method = MethodRaw
		return nil
	}

	table, err := partition.NewPartitionTableReader(img.file)
	if err != nil {
		return fmt.Errorf("failed to read partition table: %w", err)
	}
	img.scheme = table.Scheme()
	img.table = table.Partitions()

	if config.Partition >= 0 {
		p, ok := table.Partition(config.Partition)
		if !ok {
			return fmt.Errorf("%w: index %d (%d partitions, scheme %s)", ErrPartitionNotFound, config.Partition, len(img.table), img.scheme)
		}
		img.usePartition(p, MethodConfigured)
		return img.checkOffset()
	}

	for _, p := range img.table {
		if partition.MayHoldExt(p) && probeSuperblock(img.file, p.StartOffset()) {
			img.usePartition(p, MethodPartition)
			return nil
		}
	}
	// Partition types are often wrong; fall back to probing every entry
	for _, p := range img.table {
		if probeSuperblock(img.file, p.StartOffset()) {
			img.usePartition(p, MethodPartition)
			return nil
		}
	}

	return fmt.Errorf("%w: no ext filesystem found (partition scheme %s)", types.ErrBadFilesystem, img.scheme)
}

func (img *Image) usePartition(p types.Partition, method string) {
	img.partition = &p
	img.offset = p.StartOffset()
	img.stats.method = method
}

func (img *Image) checkOffset() error {
	if img.offset >= img.size {
		return fmt.Errorf("volume offset %d beyond image size %d", img.offset, img.size)
	}
	return nil
}

// probeSuperblock reports whether an ext superblock magic sits at offset
func probeSuperblock(r io.ReaderAt, offset int64) bool {
	magic := make([]byte, 2)
	if _, err := r.ReadAt(magic, offset+types.SuperblockOffset+types.SbMagic); err != nil {
		return false
	}
	return uint16(magic[0])|uint16(magic[1])<<8 == types.SuperblockMagic
}

// ReadAt implements io.ReaderAt relative to the start of the volume
func (img *Image) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}
	n, err := img.file.ReadAt(p, img.offset+off)
	img.stats.reads.Add(1)
	img.stats.bytesRead.Add(int64(n))
	return n, err
}

// Size returns the number of bytes from the volume start to the end of the image
func (img *Image) Size() int64 {
	return img.size - img.offset
}

// Offset returns the byte offset of the volume within the image
func (img *Image) Offset() int64 {
	return img.offset
}

// PartitionStartSector returns the volume offset in sectors of sectorSize bytes
func (img *Image) PartitionStartSector(sectorSize uint32) uint64 {
	if sectorSize == 0 {
		sectorSize = types.LegacySectorSize
	}
	return uint64(img.offset) / uint64(sectorSize)
}

// Scheme returns the partition table kind, SchemeNone for bare volumes
func (img *Image) Scheme() types.PartitionScheme {
	return img.scheme
}

// Partitions returns the partition table entries read while locating the volume
func (img *Image) Partitions() []types.Partition {
	return img.table
}

// Partition returns the partition holding the volume, if any
func (img *Image) Partition() (types.Partition, bool) {
	if img.partition == nil {
		return types.Partition{}, false
	}
	return *img.partition, true
}

// Method returns how the volume was located
func (img *Image) Method() string {
	return img.stats.method
}

// DetectionTime returns how long locating the volume took
func (img *Image) DetectionTime() time.Duration {
	return img.stats.detectionTime
}

// BytesRead returns the number of bytes read through ReadAt
func (img *Image) BytesRead() int64 {
	return img.stats.bytesRead.Load()
}

// Reads returns the number of ReadAt calls
func (img *Image) Reads() int64 {
	return img.stats.reads.Load()
}

// Close closes the image file and releases its lock
func (img *Image) Close() error {
	var err error
	if img.file != nil {
		err = img.file.Close()
		img.file = nil
	}
	if img.unlock != nil {
		if uerr := img.unlock(); err == nil {
			err = uerr
		}
		img.unlock = nil
	}
	return err
}
