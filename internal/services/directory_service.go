package services

import (
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/deploymenttheory/go-extfs/internal/parsers/directory"
	"github.com/deploymenttheory/go-extfs/internal/types"
)

// DirEntry is one live record of a directory
type DirEntry struct {
	Name  string
	Inode uint32
	Type  types.FileType
}

// IterateDirectory calls visit for each live entry of dir, in on-disk order,
// until visit returns true. Entries without a file type in the record are
// classified from the child inode's mode.
func (v *Volume) IterateDirectory(dir *Inode, visit func(entry DirEntry) bool) error {
	if !dir.IsDir() {
		return fmt.Errorf("%w: inode %d", types.ErrNotADirectory, dir.Number)
	}
	if dir.IsEncrypted() {
		return fmt.Errorf("%w: directory inode %d", types.ErrEncrypted, dir.Number)
	}

	bs := uint64(v.geometry.BlockSize)
	blockCount := (dir.Size() + bs - 1) / bs

	for logical := uint64(0); logical < blockCount; logical++ {
		m, err := v.ResolveBlock(dir, logical)
		if err != nil {
			return fmt.Errorf("directory inode %d: %w", dir.Number, err)
		}
		if m.ZeroFilled() {
			continue
		}

		data, err := v.blocks.ReadBlock(m.Physical)
		if err != nil {
			return fmt.Errorf("directory inode %d: %w", dir.Number, err)
		}

		for offset := 0; offset < len(data); {
			rec, err := directory.NewDirectoryEntryReader(data, offset, v.endian)
			if err != nil {
				return fmt.Errorf("directory inode %d block %d: %w", dir.Number, logical, err)
			}
			offset += int(rec.RecordLength())

			if rec.IsDeleted() {
				continue
			}

			entry := DirEntry{Name: rec.Name(), Inode: rec.Inode(), Type: rec.Type()}
			if rec.FileType() == types.DirentUnknown {
				child, err := v.ReadInode(entry.Inode)
				if err != nil {
					return fmt.Errorf("failed to classify %q: %w", entry.Name, err)
				}
				entry.Type = child.Type()
			}

			if visit(entry) {
				return nil
			}
		}
	}
	return nil
}

// findEntry looks name up in dir, matching bytes exactly
func (v *Volume) findEntry(dir *Inode, name string) (DirEntry, error) {
	var found DirEntry
	var ok bool
	err := v.IterateDirectory(dir, func(entry DirEntry) bool {
		if entry.Name == name {
			found, ok = entry, true
		}
		return ok
	})
	if err != nil {
		return DirEntry{}, err
	}
	if !ok {
		return DirEntry{}, fmt.Errorf("%w: %s", types.ErrNotFound, name)
	}
	return found, nil
}

// List calls visit with the metadata of every entry of the directory at p
// until visit returns true. Sizes are reported for non-directories only; an
// entry whose inode cannot be read is still reported, without mtime.
func (v *Volume) List(p string, visit func(info types.FileInfo) bool) error {
	dir, err := v.resolve(p, true)
	if err != nil {
		return err
	}
	if !dir.IsDir() {
		return fmt.Errorf("%w: %s", types.ErrNotADirectory, p)
	}

	return v.IterateDirectory(dir, func(entry DirEntry) bool {
		return visit(v.describeEntry(entry))
	})
}

func (v *Volume) describeEntry(entry DirEntry) types.FileInfo {
	info := types.FileInfo{Name: entry.Name, Inode: entry.Inode, Type: entry.Type}

	child, err := v.ReadInode(entry.Inode)
	if err != nil {
		v.log.WithError(err).WithField("name", entry.Name).Debug("listing entry without inode metadata")
		return info
	}
	info.Mode = child.Mode()
	info.Mtime = child.ModificationTime()
	info.MtimeSet = true
	if entry.Type != types.FileTypeDirectory {
		info.Size = child.Size()
	}
	return info
}

// WalkFunc is called for each entry visited by Walk. Returning fs.SkipDir
// from a directory skips its contents; any other error stops the walk.
type WalkFunc func(p string, info types.FileInfo) error

// Walk visits the tree below start depth first, without following symlinks
// and without the . and .. entries
func (v *Volume) Walk(start string, fn WalkFunc) error {
	dir, err := v.resolve(start, true)
	if err != nil {
		return err
	}
	if !dir.IsDir() {
		return fmt.Errorf("%w: %s", types.ErrNotADirectory, start)
	}

	err = v.walkDir(path.Join("/", start), dir, fn)
	if errors.Is(err, fs.SkipAll) {
		return nil
	}
	return err
}

func (v *Volume) walkDir(dirPath string, dir *Inode, fn WalkFunc) error {
	var entries []DirEntry
	err := v.IterateDirectory(dir, func(entry DirEntry) bool {
		if entry.Name != "." && entry.Name != ".." {
			entries = append(entries, entry)
		}
		return false
	})
	if err != nil {
		return err
	}

	for _, entry := range entries {
		childPath := path.Join(dirPath, entry.Name)
		info := v.describeEntry(entry)

		if err := fn(childPath, info); err != nil {
			if errors.Is(err, fs.SkipDir) && info.IsDir() {
				continue
			}
			return err
		}
		if !info.IsDir() {
			continue
		}

		child, err := v.ReadInode(entry.Inode)
		if err != nil {
			return err
		}
		if err := v.walkDir(childPath, child, fn); err != nil {
			if errors.Is(err, types.ErrEncrypted) && child.IsEncrypted() {
				v.log.WithField("path", childPath).Debug("skipping encrypted directory")
				continue
			}
			return err
		}
	}
	return nil
}
