package vfd

import "fmt"

// Addr is a byte address in a strata container. It is wide enough to
// address containers larger than memory.
//
// There is no "undefined address" magic value. Driver queries that may
// have no answer (EOA, EOF) return an extra bool instead, so a
// legitimate address can never collide with a sentinel.
type Addr uint64

// AddrMax is the largest representable address.
const AddrMax = Addr(^uint64(0))

// AllocClass partitions the container's logical address space into
// independently bounded regions. The dispatch layer is class-agnostic:
// it threads the tag through to the driver, which may keep one EOA per
// class or a single shared one.
type AllocClass uint8

const (
	// ClassDefault is used when the caller has no more specific class.
	ClassDefault AllocClass = iota

	// ClassSuperblock covers the container's root metadata region,
	// including the signature probed by the sig package.
	ClassSuperblock

	// ClassBTree covers index node storage.
	ClassBTree

	// ClassRawData covers bulk object data.
	ClassRawData

	// ClassGlobalHeap covers the shared heap region.
	ClassGlobalHeap

	// ClassLocalHeap covers per-object heap regions.
	ClassLocalHeap

	// ClassObjectHeader covers object header storage.
	ClassObjectHeader

	numAllocClasses
)

// NumAllocClasses is the number of defined allocation classes. Drivers
// that keep per-class state can size arrays or maps with it.
const NumAllocClasses = int(numAllocClasses)

func (c AllocClass) String() string {
	switch c {
	case ClassDefault:
		return "default"
	case ClassSuperblock:
		return "superblock"
	case ClassBTree:
		return "btree"
	case ClassRawData:
		return "raw"
	case ClassGlobalHeap:
		return "gheap"
	case ClassLocalHeap:
		return "lheap"
	case ClassObjectHeader:
		return "ohdr"
	default:
		return fmt.Sprintf("class(%d)", uint8(c))
	}
}

// Valid reports whether c is one of the defined allocation classes.
func (c AllocClass) Valid() bool {
	return c < numAllocClasses
}
