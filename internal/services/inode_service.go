package services

import (
	"fmt"

	"github.com/deploymenttheory/go-extfs/internal/interfaces"
	"github.com/deploymenttheory/go-extfs/internal/parsers/inodes"
	"github.com/deploymenttheory/go-extfs/internal/types"
)

// Inode is a decoded inode together with its number
type Inode struct {
	interfaces.InodeReader
	Number uint32
}

// ReadInode locates inode number ino through its group's inode table and
// decodes it
func (v *Volume) ReadInode(ino uint32) (*Inode, error) {
	if ino == 0 || (v.geometry.InodesCount != 0 && ino > v.geometry.InodesCount) {
		return nil, fmt.Errorf("%w: inode %d out of range", types.ErrBadFilesystem, ino)
	}

	g := v.geometry
	index := ino - 1
	group := index / g.InodesPerGroup
	slot := index % g.InodesPerGroup

	gd, err := v.GroupDescriptor(group)
	if err != nil {
		return nil, fmt.Errorf("failed to locate inode %d: %w", ino, err)
	}

	block := gd.InodeTable() + uint64(slot/g.InodesPerBlock)
	offset := (slot % g.InodesPerBlock) * g.InodeSize

	data, err := v.blocks.ReadBytes(block, offset, types.InodeBaseSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read inode %d: %w", ino, err)
	}

	reader, err := inodes.NewInodeReader(data, v.endian)
	if err != nil {
		return nil, fmt.Errorf("failed to parse inode %d: %w", ino, err)
	}

	return &Inode{InodeReader: reader, Number: ino}, nil
}
