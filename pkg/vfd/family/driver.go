// Package family provides a multi-file storage driver: the container's
// address space is striped across a set of fixed-size member files.
// This keeps each member below filesystem size limits and lets a
// container be moved around as a set of evenly sized pieces.
package family

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/strata/internal/bytesize"
	"github.com/marmos91/strata/pkg/vfd"
	"github.com/marmos91/strata/pkg/vfd/transfer"
)

// DriverName is the name the driver registers under.
const DriverName = "family"

// DefaultMemberSize is used when the configuration does not set one.
const DefaultMemberSize = 100 * bytesize.MiB

// Config holds configuration for the family driver.
type Config struct {
	// Pattern is the member path template. It must contain exactly one
	// integer format verb, e.g. "container-%06d.strm".
	Pattern string `mapstructure:"pattern"`

	// MemberSize is the fixed size of each member file. Every member
	// except the last is exactly this large.
	MemberSize bytesize.ByteSize `mapstructure:"member_size"`

	// Create creates member files as writes need them.
	Create bool `mapstructure:"create"`

	// FileMode is the permission mode for created members.
	// Default: 0644
	FileMode os.FileMode `mapstructure:"file_mode"`
}

// Driver is a vfd.Driver over a set of fixed-size member files.
//
// Absolute address a lives in member a/MemberSize at offset
// a%MemberSize. Reads spanning members are stitched together; reads
// past the last member zero-fill. A single EOA is shared across
// allocation classes.
type Driver struct {
	mu         sync.Mutex
	pattern    string
	memberSize vfd.Addr
	create     bool
	fileMode   os.FileMode
	members    []*os.File
	eoa        vfd.Addr
	eof        vfd.Addr
}

// New opens the family driver, picking up any member files that already
// exist.
func New(cfg Config) (*Driver, error) {
	if cfg.Pattern == "" {
		return nil, errors.New("family driver: pattern is required")
	}
	if !strings.Contains(cfg.Pattern, "%") {
		return nil, fmt.Errorf("family driver: pattern %q has no member index verb", cfg.Pattern)
	}
	if cfg.MemberSize == 0 {
		cfg.MemberSize = DefaultMemberSize
	}
	if cfg.FileMode == 0 {
		cfg.FileMode = 0644
	}

	d := &Driver{
		pattern:    cfg.Pattern,
		memberSize: vfd.Addr(cfg.MemberSize),
		create:     cfg.Create,
		fileMode:   cfg.FileMode,
	}

	// Existing members are contiguous from index zero; the first gap
	// ends the set.
	for i := 0; ; i++ {
		f, err := os.OpenFile(d.memberPath(i), os.O_RDWR, cfg.FileMode)
		if err != nil {
			if os.IsNotExist(err) {
				break
			}
			d.closeMembers()
			return nil, fmt.Errorf("family driver: open member %d: %w", i, err)
		}
		d.members = append(d.members, f)
	}

	if n := len(d.members); n > 0 {
		info, err := d.members[n-1].Stat()
		if err != nil {
			d.closeMembers()
			return nil, fmt.Errorf("family driver: stat member %d: %w", n-1, err)
		}
		d.eof = vfd.Addr(n-1)*d.memberSize + vfd.Addr(info.Size())
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
			return nil, fmt.Errorf("family driver config: %w", err)
		}
		return New(cfg)
	})
}

func (d *Driver) Name() string { return DriverName }

// MemberSize returns the fixed member file size.
func (d *Driver) MemberSize() vfd.Addr { return d.memberSize }

func (d *Driver) memberPath(i int) string {
	return fmt.Sprintf(d.pattern, i)
}

func (d *Driver) closeMembers() {
	for _, f := range d.members {
		_ = f.Close()
	}
	d.members = nil
}

func (d *Driver) ReadAt(ctx context.Context, class vfd.AllocClass, addr vfd.Addr, p []byte, opts *transfer.Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cur := addr
	rest := p
	for len(rest) > 0 {
		idx := int(cur / d.memberSize)
		off := cur % d.memberSize
		chunk := d.memberSize - off
		if vfd.Addr(len(rest)) < chunk {
			chunk = vfd.Addr(len(rest))
		}

		if idx < len(d.members) {
			n, err := d.members[idx].ReadAt(rest[:chunk], int64(off))
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("family driver: read member %d at %d: %w", idx, off, err)
			}
			for i := n; i < int(chunk); i++ {
				rest[i] = 0
			}
		} else {
			for i := range rest[:chunk] {
				rest[i] = 0
			}
		}

		cur += chunk
		rest = rest[chunk:]
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
	if err := d.ensureMembers(int((end - 1) / d.memberSize)); err != nil {
		return err
	}

	// Members below the ones a write lands in must be full size, or the
	// address arithmetic on later reads would shift.
	cur := addr
	rest := p
	for len(rest) > 0 {
		idx := int(cur / d.memberSize)
		off := cur % d.memberSize
		chunk := d.memberSize - off
		if vfd.Addr(len(rest)) < chunk {
			chunk = vfd.Addr(len(rest))
		}

		if _, err := d.members[idx].WriteAt(rest[:chunk], int64(off)); err != nil {
			return fmt.Errorf("family driver: write member %d at %d: %w", idx, off, err)
		}

		cur += chunk
		rest = rest[chunk:]
	}

	if end > d.eof {
		d.eof = end
	}
	return nil
}

// ensureMembers opens or creates member files up to and including idx.
// Members before the last are padded to the full member size.
func (d *Driver) ensureMembers(idx int) error {
	for i := len(d.members); i <= idx; i++ {
		flags := os.O_RDWR
		if d.create {
			flags |= os.O_CREATE
		}
		f, err := os.OpenFile(d.memberPath(i), flags, d.fileMode)
		if err != nil {
			return fmt.Errorf("family driver: open member %d: %w", i, err)
		}
		d.members = append(d.members, f)
	}
	for i := 0; i < idx; i++ {
		if err := d.members[i].Truncate(int64(d.memberSize)); err != nil {
			return fmt.Errorf("family driver: pad member %d: %w", i, err)
		}
	}
	return nil
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

// EOF reports one past the last physical byte across all members, or
// the EOA when allocation has outrun the members.
func (d *Driver) EOF() (vfd.Addr, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.eoa > d.eof {
		return d.eoa, true
	}
	return d.eof, true
}

// Close releases all member files.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var firstErr error
	for _, f := range d.members {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	d.members = nil
	return firstErr
}
