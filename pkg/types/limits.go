package types

// Defensive limits. A forensic reader must assume every length field in the
// file is hostile; these bound the damage a crafted value can do.
const (
	// DefaultMaxLongValueSize caps reassembled long value data (64 MiB).
	// Windows Search stores document summaries and property blobs well
	// below this.
	DefaultMaxLongValueSize = 64 << 20

	// MaxBTreeDepth bounds branch descent. ESE trees in practice are at
	// most a handful of levels deep; anything beyond this is a cycle or
	// corruption.
	MaxBTreeDepth = 64

	// MaxColumnsPerTable bounds catalog aggregation per table. The Windows
	// Search property store carries several hundred columns; a crafted
	// catalog should not be able to balloon memory.
	MaxColumnsPerTable = 16384
)
