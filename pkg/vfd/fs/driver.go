// Package fs provides the plain-file storage driver: one container,
// one ordinary file, positioned reads and writes.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/strata/pkg/vfd"
	"github.com/marmos91/strata/pkg/vfd/transfer"
)

// DriverName is the name the driver registers under.
const DriverName = "fs"

// Config holds configuration for the plain-file driver.
type Config struct {
	// Path is the backing file.
	Path string `mapstructure:"path"`

	// Create creates the file if it does not exist.
	Create bool `mapstructure:"create"`

	// ReadOnly opens the file for reading only; writes fail with
	// vfd.ErrNotSupported.
	ReadOnly bool `mapstructure:"read_only"`

	// FileMode is the permission mode for a created file.
	// Default: 0644
	FileMode os.FileMode `mapstructure:"file_mode"`
}

// Driver is a vfd.Driver over a single ordinary file.
//
// The EOA is a single value shared by every allocation class, which is
// all a flat file needs. Reads past the physical end of the file
// zero-fill, so speculative probes below the EOA always succeed.
type Driver struct {
	mu       sync.Mutex
	f        *os.File
	path     string
	readOnly bool
	eoa      vfd.Addr
	eof      vfd.Addr
}

// New opens the plain-file driver over cfg.Path.
func New(cfg Config) (*Driver, error) {
	if cfg.Path == "" {
		return nil, errors.New("fs driver: path is required")
	}
	if cfg.FileMode == 0 {
		cfg.FileMode = 0644
	}

	flags := os.O_RDWR
	if cfg.ReadOnly {
		flags = os.O_RDONLY
	} else if cfg.Create {
		flags |= os.O_CREATE
	}

	f, err := os.OpenFile(cfg.Path, flags, cfg.FileMode)
	if err != nil {
		return nil, fmt.Errorf("fs driver: open %s: %w", cfg.Path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("fs driver: stat %s: %w", cfg.Path, err)
	}

	return &Driver{
		f:        f,
		path:     cfg.Path,
		readOnly: cfg.ReadOnly,
		eof:      vfd.Addr(info.Size()),
	}, nil
}

// Register makes the driver available under DriverName.
func Register() error {
	return vfd.RegisterDriver(DriverName, func(raw map[string]any) (vfd.Driver, error) {
		var cfg Config
		if err := mapstructure.Decode(raw, &cfg); err != nil {
			return nil, fmt.Errorf("fs driver config: %w", err)
		}
		return New(cfg)
	})
}

func (d *Driver) Name() string { return DriverName }

// Path returns the backing file path.
func (d *Driver) Path() string { return d.path }

// ReadAt reads len(p) bytes at addr. Bytes past the physical end of the
// file read as zero.
func (d *Driver) ReadAt(ctx context.Context, class vfd.AllocClass, addr vfd.Addr, p []byte, opts *transfer.Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}

	n, err := d.f.ReadAt(p, int64(addr))
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("fs driver: read %s at %d: %w", d.path, addr, err)
	}
	// Short read at end of file: the tail has no backing yet.
	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	return nil
}

// WriteAt writes len(p) bytes at addr, growing the file as needed.
func (d *Driver) WriteAt(ctx context.Context, class vfd.AllocClass, addr vfd.Addr, p []byte, opts *transfer.Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.readOnly {
		return vfd.ErrNotSupported
	}
	if len(p) == 0 {
		return nil
	}

	if _, err := d.f.WriteAt(p, int64(addr)); err != nil {
		return fmt.Errorf("fs driver: write %s at %d: %w", d.path, addr, err)
	}

	d.mu.Lock()
	if end := addr + vfd.Addr(len(p)); end > d.eof {
		d.eof = end
	}
	d.mu.Unlock()
	return nil
}

// EOA returns the shared end of allocation. It starts at zero for a
// freshly opened driver and is always defined.
func (d *Driver) EOA(class vfd.AllocClass) (vfd.Addr, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eoa, true
}

// SetEOA sets the shared end of allocation.
func (d *Driver) SetEOA(class vfd.AllocClass, addr vfd.Addr) error {
	d.mu.Lock()
	d.eoa = addr
	d.mu.Unlock()
	return nil
}

// EOF reports one past the last physical byte, or the EOA when
// allocation has outrun the physical file.
func (d *Driver) EOF() (vfd.Addr, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.eoa > d.eof {
		return d.eoa, true
	}
	return d.eof, true
}

// Close releases the backing file.
func (d *Driver) Close() error {
	return d.f.Close()
}

// Sync flushes file contents to stable storage.
func (d *Driver) Sync() error {
	if d.readOnly {
		return nil
	}
	return d.f.Sync()
}
