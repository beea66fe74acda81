package types

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the ext driver matches one of these
// with errors.Is; callers translate them at the outer boundary. ErrEncrypted
// also matches ErrUnsupportedFeature and ErrNotImplemented.
var (
	// ErrIO wraps a failure of the underlying disk reader.
	ErrIO = errors.New("i/o error")

	// ErrBadFilesystem reports a corrupt or foreign filesystem.
	ErrBadFilesystem = errors.New("bad filesystem")

	// ErrUnsupportedFeature reports a layout this driver cannot read.
	ErrUnsupportedFeature = errors.New("unsupported feature")

	// ErrInvalidExtentTree reports a corrupt extent tree node.
	ErrInvalidExtentTree = errors.New("invalid extent tree")

	// ErrNotFound reports a missing path component.
	ErrNotFound = errors.New("file not found")

	// ErrNotAFile reports that a path names something other than a regular file.
	ErrNotAFile = errors.New("not a regular file")

	// ErrNotADirectory reports that a path component is not a directory.
	ErrNotADirectory = errors.New("not a directory")

	// ErrHoleInChunkList reports a sparse region where dense sector
	// coverage is required.
	ErrHoleInChunkList = errors.New("hole in chunk list")

	// ErrNotImplemented reports a recognised but unimplemented format feature.
	ErrNotImplemented = errors.New("not implemented")

	// ErrEncrypted reports access to an encrypted file, directory or symlink.
	ErrEncrypted = fmt.Errorf("%w: encrypted inode (%w)", ErrUnsupportedFeature, ErrNotImplemented)

	// ErrSymlinkLoop reports too many nested symlinks during path resolution.
	ErrSymlinkLoop = errors.New("too deep nesting of symlinks")

	// ErrNotASymlink reports a readlink on something other than a symlink.
	ErrNotASymlink = errors.New("not a symbolic link")
)
