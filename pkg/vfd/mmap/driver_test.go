package mmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/marmos91/strata/pkg/vfd"
	"github.com/marmos91/strata/pkg/vfd/vfdtest"
)

func TestDriver_Conformance(t *testing.T) {
	vfdtest.RunReadOnly(t, func(t *testing.T, contents []byte) vfd.Driver {
		path := filepath.Join(t.TempDir(), "container.st")
		if err := os.WriteFile(path, contents, 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		d, err := New(Config{Path: path})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		t.Cleanup(func() { _ = d.Close() })
		return d
	})
}

func TestDriver_RequiresPath(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New accepted an empty path")
	}
}

func TestDriver_MissingFile(t *testing.T) {
	if _, err := New(Config{Path: filepath.Join(t.TempDir(), "absent.st")}); err == nil {
		t.Error("New mapped a missing file")
	}
}

func TestDriver_CloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "container.st")
	if err := os.WriteFile(path, []byte("contents"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	d, err := New(Config{Path: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
