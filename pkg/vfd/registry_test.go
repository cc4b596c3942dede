package vfd

import (
	"context"
	"strings"
	"testing"

	"github.com/marmos91/strata/pkg/vfd/transfer"
)

type nopDriver struct{ name string }

func (d *nopDriver) Name() string { return d.name }
func (d *nopDriver) ReadAt(context.Context, AllocClass, Addr, []byte, *transfer.Options) error {
	return nil
}
func (d *nopDriver) WriteAt(context.Context, AllocClass, Addr, []byte, *transfer.Options) error {
	return nil
}
func (d *nopDriver) EOA(AllocClass) (Addr, bool) { return 0, true }
func (d *nopDriver) SetEOA(AllocClass, Addr) error {
	return nil
}

func TestRegisterAndOpen(t *testing.T) {
	name := "test-register-open"
	err := RegisterDriver(name, func(cfg map[string]any) (Driver, error) {
		return &nopDriver{name: name}, nil
	})
	if err != nil {
		t.Fatalf("RegisterDriver: %v", err)
	}

	d, err := OpenDriver(name, nil)
	if err != nil {
		t.Fatalf("OpenDriver: %v", err)
	}
	if d.Name() != name {
		t.Errorf("opened driver %q, want %q", d.Name(), name)
	}
}

func TestRegisterIdempotent(t *testing.T) {
	name := "test-register-twice"
	factory := func(cfg map[string]any) (Driver, error) {
		return &nopDriver{name: name}, nil
	}
	if err := RegisterDriver(name, factory); err != nil {
		t.Fatalf("first RegisterDriver: %v", err)
	}
	if err := RegisterDriver(name, factory); err != nil {
		t.Errorf("second RegisterDriver: %v", err)
	}
}

func TestRegisterRejectsEmpty(t *testing.T) {
	if err := RegisterDriver("", func(map[string]any) (Driver, error) { return nil, nil }); err == nil {
		t.Error("RegisterDriver accepted an empty name")
	}
	if err := RegisterDriver("test-nil-factory", nil); err == nil {
		t.Error("RegisterDriver accepted a nil factory")
	}
}

func TestOpenUnknown(t *testing.T) {
	_, err := OpenDriver("test-no-such-driver", nil)
	if err == nil {
		t.Fatal("OpenDriver succeeded for an unregistered name")
	}
	if !strings.Contains(err.Error(), "test-no-such-driver") {
		t.Errorf("error %q does not name the driver", err)
	}
}

func TestRegisteredDriversSorted(t *testing.T) {
	for _, name := range []string{"test-sort-b", "test-sort-a"} {
		n := name
		if err := RegisterDriver(n, func(map[string]any) (Driver, error) {
			return &nopDriver{name: n}, nil
		}); err != nil {
			t.Fatalf("RegisterDriver(%s): %v", n, err)
		}
	}

	names := RegisteredDrivers()
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("RegisteredDrivers not sorted: %v", names)
		}
	}
}
