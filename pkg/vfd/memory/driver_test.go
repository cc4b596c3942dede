package memory

import (
	"context"
	"testing"

	"github.com/marmos91/strata/pkg/vfd"
	"github.com/marmos91/strata/pkg/vfd/transfer"
	"github.com/marmos91/strata/pkg/vfd/vfdtest"
)

func TestDriver_Conformance(t *testing.T) {
	vfdtest.Run(t, func(t *testing.T) vfd.Driver {
		return New()
	})
}

func TestDriver_NewFromCopies(t *testing.T) {
	seed := []byte("seed contents")
	d := NewFrom(seed)

	// Mutating the caller's slice must not leak into the driver.
	seed[0] = 'X'

	got := make([]byte, 4)
	if err := d.ReadAt(context.Background(), vfd.ClassRawData, 0, got, transfer.Default()); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(got) != "seed" {
		t.Errorf("read %q, want %q", got, "seed")
	}
}

func TestDriver_ContextCancellation(t *testing.T) {
	d := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := d.ReadAt(ctx, vfd.ClassRawData, 0, make([]byte, 4), transfer.Default()); err == nil {
		t.Error("ReadAt ignored a canceled context")
	}
	if err := d.WriteAt(ctx, vfd.ClassRawData, 0, []byte{1}, transfer.Default()); err == nil {
		t.Error("WriteAt ignored a canceled context")
	}
}
