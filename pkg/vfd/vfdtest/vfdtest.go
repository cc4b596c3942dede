// Package vfdtest provides a conformance suite that every storage
// driver must pass. Driver packages call Run (or RunReadOnly for
// drivers without write support) from their own tests, so all backends
// are held to the same contract: zero-filled reads past the physical
// extent, EOA round-trips, and a working signature search through the
// dispatch layer.
package vfdtest

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/marmos91/strata/pkg/vfd"
	"github.com/marmos91/strata/pkg/vfd/sig"
	"github.com/marmos91/strata/pkg/vfd/transfer"
)

// Factory returns a fresh, empty driver. It is called once per subtest;
// cleanup belongs in t.Cleanup.
type Factory func(t *testing.T) vfd.Driver

// SeededFactory returns a fresh driver whose backing store starts with
// contents. Used for read-only drivers that cannot be written through
// the Driver interface.
type SeededFactory func(t *testing.T, contents []byte) vfd.Driver

// Run exercises the shared driver contract against a writable driver.
func Run(t *testing.T, newDriver Factory) {
	t.Run("RoundTrip", func(t *testing.T) {
		d := newDriver(t)
		ctx := context.Background()
		opts := transfer.Default()

		payload := []byte("strata driver conformance payload")
		if err := d.WriteAt(ctx, vfd.ClassRawData, 4096, payload, opts); err != nil {
			t.Fatalf("WriteAt: %v", err)
		}
		got := make([]byte, len(payload))
		if err := d.ReadAt(ctx, vfd.ClassRawData, 4096, got, opts); err != nil {
			t.Fatalf("ReadAt: %v", err)
		}
		if !bytes.Equal(got, payload) {
			t.Errorf("read back %q, want %q", got, payload)
		}
	})

	t.Run("ZeroFillPastExtent", func(t *testing.T) {
		d := newDriver(t)
		ctx := context.Background()
		opts := transfer.Default()

		if err := d.WriteAt(ctx, vfd.ClassRawData, 0, bytes.Repeat([]byte{0xab}, 16), opts); err != nil {
			t.Fatalf("WriteAt: %v", err)
		}
		got := make([]byte, 32)
		for i := range got {
			got[i] = 0xee // must be overwritten, not left over
		}
		if err := d.ReadAt(ctx, vfd.ClassRawData, 8, got, opts); err != nil {
			t.Fatalf("ReadAt: %v", err)
		}
		for i := 0; i < 8; i++ {
			if got[i] != 0xab {
				t.Fatalf("byte %d = %#x, want 0xab", i, got[i])
			}
		}
		for i := 8; i < len(got); i++ {
			if got[i] != 0 {
				t.Fatalf("byte %d past extent = %#x, want zero fill", i, got[i])
			}
		}
	})

	t.Run("EOARoundTrip", func(t *testing.T) {
		d := newDriver(t)

		eoa, ok := d.EOA(vfd.ClassSuperblock)
		if !ok {
			t.Fatal("EOA undefined on a fresh driver")
		}
		if eoa != 0 {
			t.Errorf("fresh EOA = %d, want 0", eoa)
		}

		if err := d.SetEOA(vfd.ClassSuperblock, 8192); err != nil {
			t.Fatalf("SetEOA: %v", err)
		}
		eoa, ok = d.EOA(vfd.ClassSuperblock)
		if !ok || eoa != 8192 {
			t.Errorf("EOA = (%d, %t), want (8192, true)", eoa, ok)
		}
	})

	t.Run("EOFTracksWrites", func(t *testing.T) {
		d := newDriver(t)
		sizer, ok := d.(vfd.Sizer)
		if !ok {
			t.Skip("driver does not report a physical size")
		}
		ctx := context.Background()

		if err := d.WriteAt(ctx, vfd.ClassRawData, 1000, []byte{1, 2, 3, 4}, transfer.Default()); err != nil {
			t.Fatalf("WriteAt: %v", err)
		}
		eof, defined := sizer.EOF()
		if !defined {
			t.Fatal("EOF undefined after a write")
		}
		if eof < 1004 {
			t.Errorf("EOF = %d, want at least 1004", eof)
		}
	})

	t.Run("SignatureSearch", func(t *testing.T) {
		d := newDriver(t)
		ctx := context.Background()
		opts := transfer.Default()

		// Lay the signature down at 1024 behind a junk prefix, then find
		// it through the dispatch layer.
		if err := d.WriteAt(ctx, vfd.ClassSuperblock, 0, bytes.Repeat([]byte{0x55}, 1024), opts); err != nil {
			t.Fatalf("WriteAt prefix: %v", err)
		}
		if err := d.WriteAt(ctx, vfd.ClassSuperblock, 1024, sig.Magic[:], opts); err != nil {
			t.Fatalf("WriteAt signature: %v", err)
		}

		f, err := vfd.NewFile(d, vfd.FileConfig{})
		if err != nil {
			t.Fatalf("NewFile: %v", err)
		}
		addr, found, err := sig.Locate(ctx, f, opts)
		if err != nil {
			t.Fatalf("Locate: %v", err)
		}
		if !found || addr != 1024 {
			t.Errorf("Locate = (%d, %t), want (1024, true)", addr, found)
		}
	})
}

// RunReadOnly exercises the shared contract against a read-only driver.
func RunReadOnly(t *testing.T, newDriver SeededFactory) {
	t.Run("ReadSeeded", func(t *testing.T) {
		contents := []byte("read-only driver conformance contents")
		d := newDriver(t, contents)
		ctx := context.Background()

		got := make([]byte, len(contents))
		if err := d.ReadAt(ctx, vfd.ClassRawData, 0, got, transfer.Default()); err != nil {
			t.Fatalf("ReadAt: %v", err)
		}
		if !bytes.Equal(got, contents) {
			t.Errorf("read %q, want %q", got, contents)
		}
	})

	t.Run("ZeroFillPastExtent", func(t *testing.T) {
		d := newDriver(t, []byte{0xab, 0xab})
		ctx := context.Background()

		got := make([]byte, 8)
		for i := range got {
			got[i] = 0xee
		}
		if err := d.ReadAt(ctx, vfd.ClassRawData, 0, got, transfer.Default()); err != nil {
			t.Fatalf("ReadAt: %v", err)
		}
		if got[0] != 0xab || got[1] != 0xab {
			t.Errorf("seeded bytes = %#x %#x, want 0xab 0xab", got[0], got[1])
		}
		for i := 2; i < len(got); i++ {
			if got[i] != 0 {
				t.Fatalf("byte %d past extent = %#x, want zero fill", i, got[i])
			}
		}
	})

	t.Run("WriteRejected", func(t *testing.T) {
		d := newDriver(t, nil)
		err := d.WriteAt(context.Background(), vfd.ClassRawData, 0, []byte{1}, transfer.Default())
		if !errors.Is(err, vfd.ErrNotSupported) {
			t.Errorf("WriteAt on read-only driver: got %v, want ErrNotSupported", err)
		}
	})

	t.Run("EOARoundTrip", func(t *testing.T) {
		// Even read-only drivers track an EOA locally: the signature
		// search extends and restores it.
		d := newDriver(t, nil)
		if _, ok := d.EOA(vfd.ClassSuperblock); !ok {
			t.Fatal("EOA undefined on a fresh driver")
		}
		if err := d.SetEOA(vfd.ClassSuperblock, 520); err != nil {
			t.Fatalf("SetEOA: %v", err)
		}
		if eoa, ok := d.EOA(vfd.ClassSuperblock); !ok || eoa != 520 {
			t.Errorf("EOA = (%d, %t), want (520, true)", eoa, ok)
		}
	})

	t.Run("SignatureSearch", func(t *testing.T) {
		contents := bytes.Repeat([]byte{0x55}, 512+sig.Len)
		copy(contents[512:], sig.Magic[:])
		d := newDriver(t, contents)

		f, err := vfd.NewFile(d, vfd.FileConfig{})
		if err != nil {
			t.Fatalf("NewFile: %v", err)
		}
		addr, found, err := sig.Locate(context.Background(), f, transfer.Default())
		if err != nil {
			t.Fatalf("Locate: %v", err)
		}
		if !found || addr != 512 {
			t.Errorf("Locate = (%d, %t), want (512, true)", addr, found)
		}
	})
}
