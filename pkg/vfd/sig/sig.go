// Package sig locates the strata container signature inside an open
// store.
//
// A container does not have to start at offset zero: it may sit behind
// an opaque user prefix of unknown length. The locator finds it anyway
// with a bounded number of small reads, probing offset 0 and then every
// power of two from 512 up to just below the store's size class. The
// lowest matching offset wins.
package sig

import (
	"bytes"
	"context"

	"github.com/marmos91/strata/internal/logger"
	"github.com/marmos91/strata/pkg/vfd"
	"github.com/marmos91/strata/pkg/vfd/transfer"
)

// Len is the length of the container signature in bytes.
const Len = 8

// Magic is the container signature. The leading non-ASCII byte guards
// against text-mode corruption, the CR/LF and LF pair against line
// ending translation, and 0x1a stops casual type-ing on systems that
// treat it as end-of-file.
var Magic = [Len]byte{0x89, 'S', 'T', 'R', '\r', '\n', 0x1a, '\n'}

// Locate finds the byte offset of the container signature, probing
// candidate offsets in ascending order: 0, then 512, 1024, 2048, ... up
// to the smallest power of two exceeding the store's EOF.
//
// Each probe temporarily extends the superblock EOA so the read is in
// bounds even though nothing has claimed that region yet. On a match
// the extended EOA (match offset + Len) is kept and the offset returned
// with found true. On no match or on error the EOA observed at the
// start of the search is restored before returning; a restoration
// failure surfaces as the returned error.
//
// A missing signature is a normal outcome, not an error: Locate returns
// (0, false, nil) and leaves the store as it found it.
func Locate(ctx context.Context, f *vfd.File, opts *transfer.Options) (addr vfd.Addr, found bool, err error) {
	eof, err := f.EOF()
	if err != nil {
		return 0, false, err
	}
	savedEOA, err := f.EOA(vfd.ClassSuperblock)
	if err != nil {
		return 0, false, err
	}

	// Restore the saved EOA on every exit path that did not commit a
	// match. Rollback failure is an initialization error in its own
	// right and must not be lost, but an earlier error takes priority.
	defer func() {
		if found && err == nil {
			return
		}
		if rerr := f.SetEOA(vfd.ClassSuperblock, savedEOA); rerr != nil && err == nil {
			err = rerr
		}
	}()

	// Smallest n such that 2^n exceeds EOF, clamped so the search
	// always covers the 512-byte floor.
	maxpow := 0
	for a := eof; a > 0; a >>= 1 {
		maxpow++
	}
	if maxpow < 9 {
		maxpow = 9
	}

	var buf [Len]byte
	for n := 8; n < maxpow; n++ {
		// The first candidate is the start of the store, not 256: the
		// sequence is 0, 512, 1024, ... by definition of the format.
		cand := vfd.Addr(0)
		if n != 8 {
			cand = vfd.Addr(1) << n
		}

		if err = f.SetEOA(vfd.ClassSuperblock, cand+Len); err != nil {
			return 0, false, err
		}
		if err = f.Read(ctx, vfd.ClassSuperblock, cand, buf[:], opts); err != nil {
			return 0, false, err
		}
		if bytes.Equal(buf[:], Magic[:]) {
			logger.Debug("container signature found", logger.KeyAddr, uint64(cand))
			return cand, true, nil
		}
	}

	logger.Debug("no container signature found", logger.KeyEOF, uint64(eof))
	return 0, false, nil
}
