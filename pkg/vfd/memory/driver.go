// Package memory provides an in-memory storage driver, useful for
// scratch containers and tests.
package memory

import (
	"context"
	"sync"

	"github.com/marmos91/strata/pkg/vfd"
	"github.com/marmos91/strata/pkg/vfd/transfer"
)

// DriverName is the name the driver registers under.
const DriverName = "memory"

// Driver is a vfd.Driver over a growable byte slice. Reads past the
// current extent zero-fill; writes grow the buffer. Safe for concurrent
// use.
type Driver struct {
	mu  sync.RWMutex
	buf []byte
	eoa vfd.Addr
}

// New creates an empty in-memory driver.
func New() *Driver {
	return &Driver{}
}

// NewFrom creates a driver whose initial contents are data. The slice
// is copied.
func NewFrom(data []byte) *Driver {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Driver{buf: buf}
}

// Register makes the driver available under DriverName.
func Register() error {
	return vfd.RegisterDriver(DriverName, func(map[string]any) (vfd.Driver, error) {
		return New(), nil
	})
}

func (d *Driver) Name() string { return DriverName }

func (d *Driver) ReadAt(ctx context.Context, class vfd.AllocClass, addr vfd.Addr, p []byte, opts *transfer.Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	n := 0
	if addr < vfd.Addr(len(d.buf)) {
		n = copy(p, d.buf[addr:])
	}
	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	return nil
}

func (d *Driver) WriteAt(ctx context.Context, class vfd.AllocClass, addr vfd.Addr, p []byte, opts *transfer.Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	end := addr + vfd.Addr(len(p))
	if end > vfd.Addr(len(d.buf)) {
		grown := make([]byte, end)
		copy(grown, d.buf)
		d.buf = grown
	}
	copy(d.buf[addr:end], p)
	return nil
}

func (d *Driver) EOA(class vfd.AllocClass) (vfd.Addr, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.eoa, true
}

func (d *Driver) SetEOA(class vfd.AllocClass, addr vfd.Addr) error {
	d.mu.Lock()
	d.eoa = addr
	d.mu.Unlock()
	return nil
}

// EOF reports the current extent of the buffer.
func (d *Driver) EOF() (vfd.Addr, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return vfd.Addr(len(d.buf)), true
}
