package services

import (
	"errors"
	"time"

	"github.com/deploymenttheory/go-extfs/internal/interfaces"
	"github.com/deploymenttheory/go-extfs/internal/types"
)

// Common service errors
var (
	ErrDriverExists   = errors.New("filesystem driver already registered")
	ErrDriverNotFound = errors.New("filesystem driver not registered")
	ErrNoDriver       = errors.New("no registered driver recognizes the volume")
)

// VolumeInfo summarizes a mounted volume for display
type VolumeInfo struct {
	Driver            string        `json:"driver" yaml:"driver"`
	Type              string        `json:"type" yaml:"type"`
	Label             string        `json:"label" yaml:"label"`
	UUID              string        `json:"uuid" yaml:"uuid"`
	BlockSize         uint32        `json:"block_size" yaml:"block_size"`
	BlockCount        uint64        `json:"block_count" yaml:"block_count"`
	FreeBlocks        uint64        `json:"free_blocks" yaml:"free_blocks"`
	FreeInodes        uint32        `json:"free_inodes" yaml:"free_inodes"`
	GroupCount        uint32        `json:"group_count" yaml:"group_count"`
	Features          []string      `json:"features" yaml:"features"`
	SuperblockBackups []uint32      `json:"superblock_backups" yaml:"superblock_backups"`
	LastWrite         time.Time     `json:"last_write" yaml:"last_write"`
	Partition         PartitionInfo `json:"partition" yaml:"partition"`
}

// PartitionInfo describes where the volume was found inside the image
type PartitionInfo struct {
	Method      string `json:"method" yaml:"method"`
	Scheme      string `json:"scheme,omitempty" yaml:"scheme,omitempty"`
	Index       int    `json:"index" yaml:"index"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Offset      int64  `json:"offset" yaml:"offset"`
	StartSector uint64 `json:"start_sector" yaml:"start_sector"`
}

// VolumeDetails is implemented by volumes that can report on-disk geometry
// beyond the generic Volume contract
type VolumeDetails interface {
	BlockSize() uint32
	BlockCount() uint64
	FreeBlocks() uint64
	FreeInodes() uint32
	GroupCount() uint32
	Features() []string
	SuperblockBackups() []uint32
	LastWriteTime() time.Time
}

// LinkReader is implemented by volumes that can stat without following the
// final symlink and read link targets
type LinkReader interface {
	Lstat(path string) (types.FileInfo, error)
	Readlink(path string) (string, error)
}

// Walker is implemented by volumes that can walk a directory tree
type Walker interface {
	Walk(start string, fn func(path string, info types.FileInfo) error) error
}

// DriverSet is the read side of a driver registry
type DriverSet interface {
	Driver(name string) (interfaces.FilesystemDriver, error)
	Detect(disk interfaces.DiskReader) (interfaces.FilesystemDriver, error)
	Names() []string
}
