package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/marmos91/strata/pkg/vfd"
	"github.com/marmos91/strata/pkg/vfd/transfer"
	"github.com/marmos91/strata/pkg/vfd/vfdtest"
)

func newTestDriver(t *testing.T) vfd.Driver {
	t.Helper()
	d, err := New(Config{
		Path:   filepath.Join(t.TempDir(), "container.st"),
		Create: true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestDriver_Conformance(t *testing.T) {
	vfdtest.Run(t, newTestDriver)
}

func TestDriver_RequiresPath(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New accepted an empty path")
	}
}

func TestDriver_MissingFileWithoutCreate(t *testing.T) {
	_, err := New(Config{Path: filepath.Join(t.TempDir(), "absent.st")})
	if err == nil {
		t.Error("New opened a missing file without Create")
	}
}

func TestDriver_ReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "container.st")
	if err := os.WriteFile(path, []byte("existing contents"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	d, err := New(Config{Path: path, ReadOnly: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	got := make([]byte, 8)
	if err := d.ReadAt(context.Background(), vfd.ClassRawData, 0, got, transfer.Default()); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(got) != "existing" {
		t.Errorf("read %q, want %q", got, "existing")
	}

	err = d.WriteAt(context.Background(), vfd.ClassRawData, 0, []byte{1}, transfer.Default())
	if !errors.Is(err, vfd.ErrNotSupported) {
		t.Errorf("WriteAt: got %v, want ErrNotSupported", err)
	}
}

func TestDriver_EOFSeesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "container.st")
	if err := os.WriteFile(path, make([]byte, 2048), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	d, err := New(Config{Path: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	eof, ok := d.EOF()
	if !ok || eof != 2048 {
		t.Errorf("EOF = (%d, %t), want (2048, true)", eof, ok)
	}
}

func TestDriver_EOFFollowsEOA(t *testing.T) {
	d := newTestDriver(t)

	// Allocation can outrun the physical file; EOF reports the larger.
	if err := d.SetEOA(vfd.ClassDefault, 4096); err != nil {
		t.Fatalf("SetEOA: %v", err)
	}
	eof, ok := d.(vfd.Sizer).EOF()
	if !ok || eof != 4096 {
		t.Errorf("EOF = (%d, %t), want (4096, true)", eof, ok)
	}
}
