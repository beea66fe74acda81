package services

import (
	"fmt"
	"path"
	"strings"

	"github.com/deploymenttheory/go-extfs/internal/types"
)

// maxSymlinkTarget bounds the length of a symlink target read from data blocks
const maxSymlinkTarget = 4096

// splitPath returns the non-empty components of p
func splitPath(p string) []string {
	var parts []string
	for _, part := range strings.Split(p, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

// resolve walks p from the root directory one component at a time. Symlinks
// in intermediate components are always followed; the final component is
// followed only when followFinal is set. Absolute targets restart at the
// root, relative targets continue from the directory holding the link.
func (v *Volume) resolve(p string, followFinal bool) (*Inode, error) {
	rest := splitPath(p)
	cur := v.root
	links := 0

	for len(rest) > 0 {
		name := rest[0]
		rest = rest[1:]

		if !cur.IsDir() {
			return nil, fmt.Errorf("%w: %s", types.ErrNotADirectory, p)
		}
		dir := cur

		entry, err := v.findEntry(dir, name)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		child, err := v.ReadInode(entry.Inode)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}

		if child.IsSymlink() && (len(rest) > 0 || followFinal) {
			links++
			if links > v.opts.MaxSymlinkDepth {
				return nil, fmt.Errorf("%w: %s", types.ErrSymlinkLoop, p)
			}
			target, err := v.readlinkInode(child)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
			}
			if strings.HasPrefix(target, "/") {
				cur = v.root
			} else {
				cur = dir
			}
			rest = append(splitPath(target), rest...)
			continue
		}

		cur = child
	}

	return cur, nil
}

// readlinkInode returns the target of a symlink inode. Targets shorter than
// the inode block area live inline, longer ones in data blocks.
func (v *Volume) readlinkInode(inode *Inode) (string, error) {
	if !inode.IsSymlink() {
		return "", fmt.Errorf("%w: inode %d", types.ErrNotASymlink, inode.Number)
	}
	if inode.IsEncrypted() {
		return "", fmt.Errorf("%w: symlink inode %d", types.ErrEncrypted, inode.Number)
	}
	if target, ok := inode.InlineSymlink(); ok {
		return target, nil
	}

	size := inode.Size()
	if size > maxSymlinkTarget {
		return "", fmt.Errorf("%w: symlink inode %d target of %d bytes", types.ErrBadFilesystem, inode.Number, size)
	}
	buf := make([]byte, size)
	if _, err := v.OpenInode(inode).ReadAt(buf, 0); err != nil {
		return "", fmt.Errorf("failed to read symlink inode %d: %w", inode.Number, err)
	}
	return string(buf), nil
}

// Lookup resolves p, following every symlink, and returns its inode
func (v *Volume) Lookup(p string) (*Inode, error) {
	return v.resolve(p, true)
}

// Open resolves p to a regular file
func (v *Volume) Open(p string) (*File, error) {
	inode, err := v.resolve(p, true)
	if err != nil {
		return nil, err
	}
	if !inode.IsRegular() {
		return nil, fmt.Errorf("%w: %s", types.ErrNotAFile, p)
	}
	if inode.IsEncrypted() {
		return nil, fmt.Errorf("%w: %s", types.ErrEncrypted, p)
	}
	return v.OpenInode(inode), nil
}

// Readlink returns the target of the symlink at p without following it
func (v *Volume) Readlink(p string) (string, error) {
	inode, err := v.resolve(p, false)
	if err != nil {
		return "", err
	}
	if !inode.IsSymlink() {
		return "", fmt.Errorf("%w: %s", types.ErrNotASymlink, p)
	}
	return v.readlinkInode(inode)
}

// Stat describes the entry at p, following symlinks
func (v *Volume) Stat(p string) (types.FileInfo, error) {
	return v.stat(p, true)
}

// Lstat describes the entry at p without following a final symlink
func (v *Volume) Lstat(p string) (types.FileInfo, error) {
	return v.stat(p, false)
}

func (v *Volume) stat(p string, follow bool) (types.FileInfo, error) {
	inode, err := v.resolve(p, follow)
	if err != nil {
		return types.FileInfo{}, err
	}

	info := types.FileInfo{
		Name:     path.Base(path.Join("/", p)),
		Inode:    inode.Number,
		Type:     inode.Type(),
		Mode:     inode.Mode(),
		Mtime:    inode.ModificationTime(),
		MtimeSet: true,
	}
	if !inode.IsDir() {
		info.Size = inode.Size()
	}
	return info, nil
}
