package logger

// Standard field keys for structured logging. Use these consistently so
// log lines from the dispatch layer, the drivers, and the CLI can be
// aggregated and queried together.
const (
	// Dispatch operations
	KeyOp     = "op"     // dispatch operation: read, write, set_eoa, ...
	KeyDriver = "driver" // storage driver name: fs, memory, mmap, ...
	KeyClass  = "class"  // allocation class: superblock, raw, btree, ...
	KeyAddr   = "addr"   // relative address of the operation
	KeySize   = "size"   // transfer size in bytes

	// Address space
	KeyBaseAddr = "base_addr" // container base address in the host file
	KeyEOA      = "eoa"       // end of allocated address
	KeyEOF      = "eof"       // end of physical store

	// Storage backends
	KeyPath   = "path"   // backing file or directory path
	KeyBucket = "bucket" // S3 bucket
	KeyKey    = "key"    // S3 object key
	KeyMember = "member" // family driver member index
	KeyPage   = "page"   // kv driver page index

	// Operation metadata
	KeyDurationMs = "duration_ms" // operation duration in milliseconds
	KeyError      = "error"       // error message
)
