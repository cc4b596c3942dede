// Package vfd implements the virtual file driver layer of the strata
// container format: the boundary between a container's logical address
// space and the physical storage backend that holds its bytes.
//
// The layer has two halves:
//
//   - Driver is the capability set a storage backend must implement
//     (read, write, EOA bookkeeping, and optionally a physical size
//     query). Driver implementations live in subpackages (fs, memory,
//     mmap, family, kv, s3) and are registered by name so they can be
//     selected from configuration.
//
//   - File is the dispatch handle. It validates arguments, translates
//     between container-relative addresses (what callers use) and
//     backend-absolute addresses (what drivers use), enforces
//     end-of-allocation bounds, and forwards to the driver. The base
//     address models an opaque user prefix in front of the container
//     that the driver knows nothing about.
//
// Address Translation:
// Every address a caller passes to File is relative (excludes the base
// address); every address File passes to a Driver is absolute (includes
// it). This translation happens in exactly one place, the File methods.
// Callers never see absolute addresses and drivers never see relative
// ones.
//
// Thread Safety:
// File holds no mutable state and performs no locking. A single File may
// be used from multiple goroutines only with external synchronization,
// because SetEOA mutates driver-visible state that Read and Write bounds
// checks depend on. Drivers define their own concurrency contracts.
//
// There is no retry and no cancellation handling inside the dispatch
// layer itself; contexts are passed through to drivers, which decide
// whether their I/O honors them.
package vfd
