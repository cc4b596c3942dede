package vfd

import (
	"errors"
	"fmt"
)

// Standard dispatch errors. Callers should check for these with
// errors.Is; the dispatch layer always wraps them in a *DispatchError
// carrying the operation, class, address, and size involved.
var (
	// ErrBackendUnavailable indicates a required driver query (EOA or
	// EOF) reported no defined value.
	ErrBackendUnavailable = errors.New("driver query returned no value")

	// ErrAddrOverflow indicates a computed absolute address plus size
	// exceeds the driver's end of allocation, or an address computation
	// would overflow the address type.
	ErrAddrOverflow = errors.New("address overflow")

	// ErrReadFailed indicates the driver's read itself failed. The
	// dispatch layer does not interpret the cause.
	ErrReadFailed = errors.New("driver read failed")

	// ErrWriteFailed indicates the driver's write itself failed.
	ErrWriteFailed = errors.New("driver write failed")

	// ErrInit indicates a driver SetEOA call failed, including during
	// signature-search rollback.
	ErrInit = errors.New("driver initialization failed")

	// ErrInvalidTransfer indicates the transfer options passed to a
	// dispatch call were not constructed by the transfer package.
	ErrInvalidTransfer = errors.New("invalid transfer options")

	// ErrNotSupported is returned by drivers that do not implement an
	// operation (for example writes on a read-only driver).
	ErrNotSupported = errors.New("operation not supported")
)

// DispatchError wraps a sentinel dispatch error with the operation
// context needed to diagnose it. errors.Is and errors.As match through
// it to the underlying sentinel and to any driver error below that.
type DispatchError struct {
	// Op is the dispatch operation: "read", "write", "set_eoa",
	// "get_eoa", or "get_eof".
	Op string

	// Driver is the name of the driver behind the handle.
	Driver string

	// Class is the allocation class the operation targeted.
	Class AllocClass

	// Addr is the relative address the caller supplied.
	Addr Addr

	// Size is the transfer size in bytes, if the operation had one.
	Size int

	// Err is the wrapped error: one of the sentinels above, possibly
	// itself wrapping the driver's error.
	Err error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("vfd %s: %s (driver=%s, class=%s, addr=%d, size=%d)",
		e.Op, e.Err, e.Driver, e.Class, e.Addr, e.Size)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// dispatchErr builds a *DispatchError for op against f, wrapping
// sentinel (and cause, when the failure came from the driver).
func (f *File) dispatchErr(op string, class AllocClass, addr Addr, size int, sentinel, cause error) error {
	err := sentinel
	if cause != nil {
		err = fmt.Errorf("%w: %w", sentinel, cause)
	}
	return &DispatchError{
		Op:     op,
		Driver: f.driver.Name(),
		Class:  class,
		Addr:   addr,
		Size:   size,
		Err:    err,
	}
}
