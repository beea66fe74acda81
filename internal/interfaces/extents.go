package interfaces

import "github.com/deploymenttheory/go-extfs/internal/types"

// ExtentNodeReader provides methods for reading one node of an extent tree
type ExtentNodeReader interface {
	// Header returns the node header
	Header() types.ExtentHeader

	// Depth returns the number of index levels below this node, 0 for a leaf
	Depth() uint16

	// IsLeaf checks if entries are leaf extents
	IsLeaf() bool

	// EntryCount returns the number of valid entries
	EntryCount() int

	// Indexes returns the entries of an internal node
	Indexes() []types.ExtentIndex

	// Leaves returns the entries of a leaf node
	Leaves() []types.ExtentLeaf

	// FindIndex returns the position of the last index whose Block is <= logical
	FindIndex(logical uint32) (int, bool)

	// FindLeaf returns the position of the last leaf whose Block is <= logical
	FindLeaf(logical uint32) (int, bool)
}
