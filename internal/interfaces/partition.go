package interfaces

import "github.com/deploymenttheory/go-extfs/internal/types"

// PartitionTableReader provides methods for reading an MBR or GPT partition table
type PartitionTableReader interface {
	// Scheme returns the partition table kind
	Scheme() types.PartitionScheme

	// Partitions returns every used entry in table order
	Partitions() []types.Partition

	// Partition returns the used entry at index
	Partition(index int) (types.Partition, bool)
}
