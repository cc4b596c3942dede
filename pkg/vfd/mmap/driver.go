// Package mmap provides a read-only storage driver over a memory-mapped
// file. It is the fastest way to probe and read existing containers;
// writes are not supported.
package mmap

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/strata/pkg/vfd"
	"github.com/marmos91/strata/pkg/vfd/transfer"
)

// DriverName is the name the driver registers under.
const DriverName = "mmap"

// Config holds configuration for the memory-mapped driver.
type Config struct {
	// Path is the file to map.
	Path string `mapstructure:"path"`
}

// Driver is a read-only vfd.Driver over mapped file contents. On
// platforms without mmap support the file is read into memory instead;
// either way the driver behaves identically.
type Driver struct {
	mu      sync.Mutex
	data    []byte
	path    string
	eoa     vfd.Addr
	cleanup func() error
}

// New maps the file at cfg.Path.
func New(cfg Config) (*Driver, error) {
	if cfg.Path == "" {
		return nil, errors.New("mmap driver: path is required")
	}
	data, cleanup, err := mapFile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("mmap driver: map %s: %w", cfg.Path, err)
	}
	return &Driver{data: data, path: cfg.Path, cleanup: cleanup}, nil
}

// Register makes the driver available under DriverName.
func Register() error {
	return vfd.RegisterDriver(DriverName, func(raw map[string]any) (vfd.Driver, error) {
		var cfg Config
		if err := mapstructure.Decode(raw, &cfg); err != nil {
			return nil, fmt.Errorf("mmap driver config: %w", err)
		}
		return New(cfg)
	})
}

func (d *Driver) Name() string { return DriverName }

// Path returns the mapped file path.
func (d *Driver) Path() string { return d.path }

func (d *Driver) ReadAt(ctx context.Context, class vfd.AllocClass, addr vfd.Addr, p []byte, opts *transfer.Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n := 0
	if addr < vfd.Addr(len(d.data)) {
		n = copy(p, d.data[addr:])
	}
	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	return nil
}

func (d *Driver) WriteAt(ctx context.Context, class vfd.AllocClass, addr vfd.Addr, p []byte, opts *transfer.Options) error {
	return vfd.ErrNotSupported
}

func (d *Driver) EOA(class vfd.AllocClass) (vfd.Addr, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eoa, true
}

func (d *Driver) SetEOA(class vfd.AllocClass, addr vfd.Addr) error {
	d.mu.Lock()
	d.eoa = addr
	d.mu.Unlock()
	return nil
}

// EOF reports the mapped length.
func (d *Driver) EOF() (vfd.Addr, bool) {
	return vfd.Addr(len(d.data)), true
}

// Close unmaps the file.
func (d *Driver) Close() error {
	if d.cleanup == nil {
		return nil
	}
	err := d.cleanup()
	d.cleanup = nil
	d.data = nil
	return err
}
