//go:build !unix

package mmap

import "os"

// mapFile reads the whole file into memory on platforms without mmap.
// The driver behaves the same either way, just without page sharing.
func mapFile(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return data, func() error { return nil }, nil
}
