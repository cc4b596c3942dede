package vfd

import (
	"context"
	"time"

	"github.com/marmos91/strata/pkg/vfd/transfer"
)

// File is the dispatch handle for one open container. It pairs a Driver
// with the two numbers that define the container's position inside the
// underlying store: the base address (byte offset of the container
// inside a possibly larger host file) and the maximum relative address
// any operation may use.
//
// File is created by the caller that opens the container and borrowed
// by each dispatch call; it allocates nothing and owns nothing beyond
// the driver reference handed to it. Closing the driver, if it needs
// closing, is the caller's job.
type File struct {
	driver   Driver
	baseAddr Addr
	maxAddr  Addr
	metrics  Metrics
}

// FileConfig configures a dispatch handle.
type FileConfig struct {
	// BaseAddr is added to every relative address before it reaches the
	// driver. It models an opaque user prefix in front of the container.
	BaseAddr Addr

	// MaxAddr is the largest relative address any operation may use.
	// Zero means "as large as the address type allows given BaseAddr".
	MaxAddr Addr

	// Metrics enables operation instrumentation when non-nil.
	Metrics Metrics
}

// NewFile builds a dispatch handle over driver. It fails when
// BaseAddr + MaxAddr would overflow the address type, so every later
// translation is overflow-safe by construction.
func NewFile(driver Driver, cfg FileConfig) (*File, error) {
	if driver == nil {
		return nil, ErrBackendUnavailable
	}

	maxAddr := cfg.MaxAddr
	if maxAddr == 0 {
		maxAddr = AddrMax - cfg.BaseAddr
	}
	if cfg.BaseAddr > AddrMax-maxAddr {
		return nil, &DispatchError{
			Op:     "open",
			Driver: driver.Name(),
			Addr:   cfg.BaseAddr,
			Err:    ErrAddrOverflow,
		}
	}

	return &File{
		driver:   driver,
		baseAddr: cfg.BaseAddr,
		maxAddr:  maxAddr,
		metrics:  cfg.Metrics,
	}, nil
}

// Driver returns the driver behind the handle.
func (f *File) Driver() Driver { return f.driver }

// BaseAddr returns the fixed offset added to every relative address.
func (f *File) BaseAddr() Addr { return f.baseAddr }

// MaxAddr returns the largest relative address operations may use.
func (f *File) MaxAddr() Addr { return f.maxAddr }

// Read reads len(p) bytes at relative address addr into p.
//
// A zero-size read succeeds without touching the driver, except under
// collective transfer options: there the call is still forwarded so the
// collective call sequence stays in lockstep across participants, and
// the bounds check still applies.
//
// The read is admitted only when the absolute range fits below the
// driver's EOA for class; violations fail with ErrAddrOverflow and
// cause no driver I/O.
func (f *File) Read(ctx context.Context, class AllocClass, addr Addr, p []byte, opts *transfer.Options) (err error) {
	start := time.Now()
	defer func() { f.observeOp("read", start, len(p), err) }()

	if opts == nil {
		opts = transfer.Default()
	} else if !opts.Valid() {
		return f.dispatchErr("read", class, addr, len(p), ErrInvalidTransfer, nil)
	}

	// Zero-size no-op, unless the transfer is collective: eliding the
	// call would desynchronize participants issuing I/O in lockstep.
	if len(p) == 0 && !opts.Collective {
		return nil
	}

	abs, end, cerr := f.resolve(class, addr, len(p))
	if cerr != nil {
		return cerr
	}
	eoa, ok := f.driver.EOA(class)
	if !ok {
		return f.dispatchErr("read", class, addr, len(p), ErrBackendUnavailable, nil)
	}
	if end > eoa {
		return f.dispatchErr("read", class, addr, len(p), ErrAddrOverflow, nil)
	}

	if derr := f.driver.ReadAt(ctx, class, abs, p, opts); derr != nil {
		return f.dispatchErr("read", class, addr, len(p), ErrReadFailed, derr)
	}
	return nil
}

// Write writes len(p) bytes from p at relative address addr. Zero-size
// and bounds semantics mirror Read.
func (f *File) Write(ctx context.Context, class AllocClass, addr Addr, p []byte, opts *transfer.Options) (err error) {
	start := time.Now()
	defer func() { f.observeOp("write", start, len(p), err) }()

	if opts == nil {
		opts = transfer.Default()
	} else if !opts.Valid() {
		return f.dispatchErr("write", class, addr, len(p), ErrInvalidTransfer, nil)
	}

	if len(p) == 0 && !opts.Collective {
		return nil
	}

	abs, end, cerr := f.resolve(class, addr, len(p))
	if cerr != nil {
		return cerr
	}
	eoa, ok := f.driver.EOA(class)
	if !ok {
		return f.dispatchErr("write", class, addr, len(p), ErrBackendUnavailable, nil)
	}
	if end > eoa {
		return f.dispatchErr("write", class, addr, len(p), ErrAddrOverflow, nil)
	}

	if derr := f.driver.WriteAt(ctx, class, abs, p, opts); derr != nil {
		return f.dispatchErr("write", class, addr, len(p), ErrWriteFailed, derr)
	}
	return nil
}

// SetEOA sets the end of allocation for class to the relative address
// addr. On driver failure the EOA for the class is left untouched.
func (f *File) SetEOA(class AllocClass, addr Addr) error {
	if addr > f.maxAddr {
		return f.dispatchErr("set_eoa", class, addr, 0, ErrAddrOverflow, nil)
	}
	if err := f.driver.SetEOA(class, addr+f.baseAddr); err != nil {
		return f.dispatchErr("set_eoa", class, addr, 0, ErrInit, err)
	}
	return nil
}

// EOA returns the end of allocation for class as a relative address.
func (f *File) EOA(class AllocClass) (Addr, error) {
	eoa, ok := f.driver.EOA(class)
	if !ok {
		return 0, f.dispatchErr("get_eoa", class, 0, 0, ErrBackendUnavailable, nil)
	}
	if eoa < f.baseAddr {
		return 0, f.dispatchErr("get_eoa", class, 0, 0, ErrAddrOverflow, nil)
	}
	return eoa - f.baseAddr, nil
}

// EOF returns the end of the physical store as a relative address. When
// the driver cannot report a physical size, the handle's address cap
// stands in for it.
func (f *File) EOF() (Addr, error) {
	if sizer, ok := f.driver.(Sizer); ok {
		eof, defined := sizer.EOF()
		if !defined {
			return 0, f.dispatchErr("get_eof", ClassDefault, 0, 0, ErrBackendUnavailable, nil)
		}
		if eof < f.baseAddr {
			return 0, f.dispatchErr("get_eof", ClassDefault, 0, 0, ErrAddrOverflow, nil)
		}
		return eof - f.baseAddr, nil
	}
	return f.maxAddr, nil
}

// resolve translates the relative range [addr, addr+size) into absolute
// addresses, failing when either bound would overflow the address type.
func (f *File) resolve(class AllocClass, addr Addr, size int) (abs, end Addr, err error) {
	abs = addr + f.baseAddr
	if abs < addr {
		return 0, 0, f.dispatchErr("resolve", class, addr, size, ErrAddrOverflow, nil)
	}
	end = abs + Addr(size)
	if end < abs {
		return 0, 0, f.dispatchErr("resolve", class, addr, size, ErrAddrOverflow, nil)
	}
	return abs, end, nil
}
