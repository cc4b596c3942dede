// Package drivers wires the built-in storage drivers into the vfd
// driver registry. Registration is an explicit call rather than a blank
// import so startup code states exactly which drivers it ships.
package drivers

import (
	"sync"

	"github.com/marmos91/strata/pkg/vfd/family"
	"github.com/marmos91/strata/pkg/vfd/fs"
	"github.com/marmos91/strata/pkg/vfd/kv"
	"github.com/marmos91/strata/pkg/vfd/memory"
	"github.com/marmos91/strata/pkg/vfd/mmap"
	"github.com/marmos91/strata/pkg/vfd/s3"
)

var (
	once    sync.Once
	onceErr error
)

// RegisterBuiltin registers every built-in driver with the vfd
// registry. Idempotent: later calls return the first call's result.
func RegisterBuiltin() error {
	once.Do(func() {
		for _, register := range []func() error{
			fs.Register,
			memory.Register,
			mmap.Register,
			family.Register,
			kv.Register,
			s3.Register,
		} {
			if err := register(); err != nil {
				onceErr = err
				return
			}
		}
	})
	return onceErr
}
