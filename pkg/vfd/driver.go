package vfd

import (
	"context"

	"github.com/marmos91/strata/pkg/vfd/transfer"
)

// Driver is the capability set a storage backend exposes to the
// dispatch layer.
//
// All addresses at this boundary are absolute: they include the
// container's base address. The dispatch layer is the only component
// that translates between the two address spaces, so drivers never need
// to know whether a user prefix exists.
//
// EOA Semantics:
// The end of allocation is the first address not yet allocated for a
// class. Drivers may keep one EOA per class or a single shared value;
// the only requirement is that EOA and SetEOA round-trip consistently
// per class. Read and write requests beyond the EOA are rejected by the
// dispatch layer before they reach the driver.
//
// Reads Past Physical End:
// A read whose range extends past the physical end of the store must
// succeed and zero-fill the bytes that have no backing, as long as the
// dispatch layer's EOA check admitted it. The signature locator depends
// on this: it extends the EOA speculatively and probes regions that may
// not exist yet.
//
// Transfer options are passed through unmodified; most drivers ignore
// them.
type Driver interface {
	// Name returns the driver's registered name ("fs", "memory", ...).
	Name() string

	// ReadAt reads len(p) bytes at absolute address addr into p.
	ReadAt(ctx context.Context, class AllocClass, addr Addr, p []byte, opts *transfer.Options) error

	// WriteAt writes len(p) bytes from p at absolute address addr,
	// growing the physical store as needed.
	WriteAt(ctx context.Context, class AllocClass, addr Addr, p []byte, opts *transfer.Options) error

	// EOA returns the absolute end of allocation for class. The second
	// result is false when the driver has no defined EOA.
	EOA(class AllocClass) (Addr, bool)

	// SetEOA sets the absolute end of allocation for class.
	SetEOA(class AllocClass, addr Addr) error
}

// Sizer is the optional physical-size capability. Drivers that can
// report the end of the underlying store implement it; for those that
// cannot, the dispatch layer falls back to the handle's address cap.
type Sizer interface {
	// EOF returns the absolute address one past the last physical byte.
	// The second result is false when the size cannot be determined.
	EOF() (Addr, bool)
}

// Closer is implemented by drivers holding resources that must be
// released (file descriptors, mappings, database handles).
type Closer interface {
	Close() error
}
