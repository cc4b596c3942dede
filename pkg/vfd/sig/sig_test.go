package sig_test

import (
	"context"
	"errors"
	"testing"

	"github.com/marmos91/strata/pkg/vfd"
	"github.com/marmos91/strata/pkg/vfd/memory"
	"github.com/marmos91/strata/pkg/vfd/sig"
	"github.com/marmos91/strata/pkg/vfd/transfer"
)

// probeRecorder wraps the memory driver and records every read offset,
// so tests can assert on the exact probe sequence. It can also inject a
// read failure at one offset.
type probeRecorder struct {
	*memory.Driver
	reads   []vfd.Addr
	failAt  vfd.Addr
	failErr error
}

func (r *probeRecorder) ReadAt(ctx context.Context, class vfd.AllocClass, addr vfd.Addr, p []byte, opts *transfer.Options) error {
	r.reads = append(r.reads, addr)
	if r.failErr != nil && addr == r.failAt {
		return r.failErr
	}
	return r.Driver.ReadAt(ctx, class, addr, p, opts)
}

// storeWithMagic builds a backing buffer of size bytes with the
// container signature at offset.
func storeWithMagic(size int, offset int) []byte {
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0xff
	}
	copy(buf[offset:], sig.Magic[:])
	return buf
}

func locate(t *testing.T, d vfd.Driver) (vfd.Addr, bool, error) {
	t.Helper()
	f, err := vfd.NewFile(d, vfd.FileConfig{})
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	return sig.Locate(context.Background(), f, transfer.Default())
}

func TestLocateProbeSequence(t *testing.T) {
	// EOF 2048 gives candidates 0, 512, 1024, 2048; the signature at
	// 1024 stops the search after the third probe.
	rec := &probeRecorder{Driver: memory.NewFrom(storeWithMagic(2048, 1024))}

	addr, found, err := locate(t, rec)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if !found || addr != 1024 {
		t.Fatalf("Locate = (%d, %t), want (1024, true)", addr, found)
	}

	want := []vfd.Addr{0, 512, 1024}
	if len(rec.reads) != len(want) {
		t.Fatalf("probed %v, want %v", rec.reads, want)
	}
	for i := range want {
		if rec.reads[i] != want[i] {
			t.Fatalf("probed %v, want %v", rec.reads, want)
		}
	}

	// A match keeps the allocation mark just past the signature.
	eoa, _ := rec.EOA(vfd.ClassSuperblock)
	if eoa != 1024+sig.Len {
		t.Errorf("EOA after match = %d, want %d", eoa, 1024+sig.Len)
	}
}

func TestLocateAtZero(t *testing.T) {
	rec := &probeRecorder{Driver: memory.NewFrom(storeWithMagic(4096, 0))}

	addr, found, err := locate(t, rec)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if !found || addr != 0 {
		t.Fatalf("Locate = (%d, %t), want (0, true)", addr, found)
	}
	if len(rec.reads) != 1 || rec.reads[0] != 0 {
		t.Errorf("probed %v, want a single probe at 0", rec.reads)
	}
}

func TestLocateNoMatchRestoresEOA(t *testing.T) {
	d := memory.NewFrom(make([]byte, 4096))
	if err := d.SetEOA(vfd.ClassSuperblock, 123); err != nil {
		t.Fatalf("SetEOA: %v", err)
	}

	addr, found, err := locate(t, d)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if found {
		t.Fatalf("found signature at %d in a zeroed store", addr)
	}
	if eoa, _ := d.EOA(vfd.ClassSuperblock); eoa != 123 {
		t.Errorf("EOA after failed search = %d, want restored 123", eoa)
	}
}

func TestLocateEmptyStore(t *testing.T) {
	// An empty store still gets the one offset-zero probe: the search
	// floor is independent of EOF.
	rec := &probeRecorder{Driver: memory.New()}

	addr, found, err := locate(t, rec)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if found {
		t.Fatalf("found signature at %d in an empty store", addr)
	}
	if len(rec.reads) != 1 || rec.reads[0] != 0 {
		t.Errorf("probed %v, want exactly [0]", rec.reads)
	}
	if eoa, _ := rec.EOA(vfd.ClassSuperblock); eoa != 0 {
		t.Errorf("EOA after search = %d, want restored 0", eoa)
	}
}

func TestLocateDeterministic(t *testing.T) {
	d := memory.NewFrom(storeWithMagic(1<<16, 8192))

	first, found, err := locate(t, d)
	if err != nil || !found {
		t.Fatalf("first Locate = (%d, %t, %v)", first, found, err)
	}
	second, found, err := locate(t, d)
	if err != nil || !found {
		t.Fatalf("second Locate = (%d, %t, %v)", second, found, err)
	}
	if first != second {
		t.Errorf("Locate not deterministic: %d then %d", first, second)
	}
	if first != 8192 {
		t.Errorf("Locate = %d, want 8192", first)
	}
}

func TestLocateReadErrorRollsBack(t *testing.T) {
	readErr := errors.New("backing store gone")
	rec := &probeRecorder{
		Driver:  memory.NewFrom(storeWithMagic(2048, 1024)),
		failAt:  512,
		failErr: readErr,
	}
	if err := rec.SetEOA(vfd.ClassSuperblock, 64); err != nil {
		t.Fatalf("SetEOA: %v", err)
	}

	_, found, err := locate(t, rec)
	if found {
		t.Fatal("Locate reported found despite a failing probe")
	}
	if !errors.Is(err, vfd.ErrReadFailed) || !errors.Is(err, readErr) {
		t.Fatalf("Locate error = %v, want wrapped read failure", err)
	}
	if eoa, _ := rec.EOA(vfd.ClassSuperblock); eoa != 64 {
		t.Errorf("EOA after error = %d, want restored 64", eoa)
	}
}
