// Package kv provides a storage driver over a BadgerDB key-value store.
// The address space is split into fixed-size pages stored as values;
// pages never written read as zero. EOA values are persisted alongside
// the pages, so a reopened store resumes where it left off.
package kv

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/strata/internal/bytesize"
	"github.com/marmos91/strata/pkg/vfd"
	"github.com/marmos91/strata/pkg/vfd/transfer"
)

// DriverName is the name the driver registers under.
const DriverName = "kv"

// DefaultPageSize is used when the configuration does not set one.
const DefaultPageSize = 4 * bytesize.KiB

// Config holds configuration for the BadgerDB driver.
type Config struct {
	// Path is the Badger database directory. Ignored when InMemory is
	// set.
	Path string `mapstructure:"path"`

	// InMemory keeps the whole store in memory. Useful for tests.
	InMemory bool `mapstructure:"in_memory"`

	// PageSize is the fixed page granularity. Must not change across
	// reopens of the same store.
	PageSize bytesize.ByteSize `mapstructure:"page_size"`
}

// Key layout: "p" + big-endian page index for pages, "e" + class byte
// for per-class EOA values, "f" for the physical extent.
var (
	pagePrefix = []byte("p")
	eoaPrefix  = []byte("e")
	eofKey     = []byte("f")
)

// Driver is a vfd.Driver over BadgerDB. Unlike the flat-file drivers it
// keeps one EOA per allocation class, all persisted. Safe for
// concurrent use; each WriteAt is one Badger transaction.
type Driver struct {
	mu       sync.Mutex
	db       *badger.DB
	pageSize vfd.Addr
	eoa      [vfd.NumAllocClasses]vfd.Addr
	eof      vfd.Addr
}

// New opens the BadgerDB driver.
func New(cfg Config) (*Driver, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("kv driver: path is required")
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = DefaultPageSize
	}

	opts := badger.DefaultOptions(cfg.Path).WithLogger(nil)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("kv driver: open badger: %w", err)
	}

	d := &Driver{db: db, pageSize: vfd.Addr(cfg.PageSize)}
	if err := d.loadMeta(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

// Register makes the driver available under DriverName.
func Register() error {
	return vfd.RegisterDriver(DriverName, func(raw map[string]any) (vfd.Driver, error) {
		var cfg Config
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			DecodeHook: mapstructure.TextUnmarshallerHookFunc(),
			Result:     &cfg,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(raw); err != nil {
			return nil, fmt.Errorf("kv driver config: %w", err)
		}
		return New(cfg)
	})
}

func (d *Driver) Name() string { return DriverName }

func pageKey(idx uint64) []byte {
	key := make([]byte, 1+8)
	key[0] = pagePrefix[0]
	binary.BigEndian.PutUint64(key[1:], idx)
	return key
}

func eoaKey(class vfd.AllocClass) []byte {
	return []byte{eoaPrefix[0], byte(class)}
}

// loadMeta restores persisted EOA and extent values on open.
func (d *Driver) loadMeta() error {
	return d.db.View(func(txn *badger.Txn) error {
		for class := 0; class < vfd.NumAllocClasses; class++ {
			item, err := txn.Get(eoaKey(vfd.AllocClass(class)))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("kv driver: load eoa: %w", err)
			}
			if err := item.Value(func(val []byte) error {
				d.eoa[class] = vfd.Addr(binary.BigEndian.Uint64(val))
				return nil
			}); err != nil {
				return err
			}
		}

		item, err := txn.Get(eofKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("kv driver: load extent: %w", err)
		}
		return item.Value(func(val []byte) error {
			d.eof = vfd.Addr(binary.BigEndian.Uint64(val))
			return nil
		})
	})
}

func (d *Driver) ReadAt(ctx context.Context, class vfd.AllocClass, addr vfd.Addr, p []byte, opts *transfer.Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}

	return d.db.View(func(txn *badger.Txn) error {
		cur := addr
		rest := p
		for len(rest) > 0 {
			idx := uint64(cur / d.pageSize)
			off := cur % d.pageSize
			chunk := d.pageSize - off
			if vfd.Addr(len(rest)) < chunk {
				chunk = vfd.Addr(len(rest))
			}
			dst := rest[:chunk]

			item, err := txn.Get(pageKey(idx))
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
				for i := range dst {
					dst[i] = 0
				}
			case err != nil:
				return fmt.Errorf("kv driver: read page %d: %w", idx, err)
			default:
				if verr := item.Value(func(val []byte) error {
					n := 0
					if off < vfd.Addr(len(val)) {
						n = copy(dst, val[off:])
					}
					for i := n; i < len(dst); i++ {
						dst[i] = 0
					}
					return nil
				}); verr != nil {
					return verr
				}
			}

			cur += chunk
			rest = rest[chunk:]
		}
		return nil
	})
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

	err := d.db.Update(func(txn *badger.Txn) error {
		cur := addr
		rest := p
		for len(rest) > 0 {
			idx := uint64(cur / d.pageSize)
			off := cur % d.pageSize
			chunk := d.pageSize - off
			if vfd.Addr(len(rest)) < chunk {
				chunk = vfd.Addr(len(rest))
			}

			page := make([]byte, d.pageSize)
			item, err := txn.Get(pageKey(idx))
			if err == nil {
				if verr := item.Value(func(val []byte) error {
					copy(page, val)
					return nil
				}); verr != nil {
					return verr
				}
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("kv driver: load page %d: %w", idx, err)
			}

			copy(page[off:], rest[:chunk])
			if err := txn.Set(pageKey(idx), page); err != nil {
				return fmt.Errorf("kv driver: store page %d: %w", idx, err)
			}

			cur += chunk
			rest = rest[chunk:]
		}

		if end := addr + vfd.Addr(len(p)); end > d.eof {
			var val [8]byte
			binary.BigEndian.PutUint64(val[:], uint64(end))
			if err := txn.Set(eofKey, val[:]); err != nil {
				return fmt.Errorf("kv driver: store extent: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if end := addr + vfd.Addr(len(p)); end > d.eof {
		d.eof = end
	}
	return nil
}

func (d *Driver) EOA(class vfd.AllocClass) (vfd.Addr, bool) {
	if !class.Valid() {
		return 0, false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eoa[class], true
}

// SetEOA persists the class EOA. The in-memory value changes only after
// the transaction commits, so a failed call leaves the EOA untouched.
func (d *Driver) SetEOA(class vfd.AllocClass, addr vfd.Addr) error {
	if !class.Valid() {
		return fmt.Errorf("kv driver: %w: class %d", vfd.ErrNotSupported, class)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.db.Update(func(txn *badger.Txn) error {
		var val [8]byte
		binary.BigEndian.PutUint64(val[:], uint64(addr))
		return txn.Set(eoaKey(class), val[:])
	})
	if err != nil {
		return fmt.Errorf("kv driver: store eoa: %w", err)
	}
	d.eoa[class] = addr
	return nil
}

// EOF reports one past the highest byte ever written.
func (d *Driver) EOF() (vfd.Addr, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eof, true
}

// Close releases the database.
func (d *Driver) Close() error {
	return d.db.Close()
}
