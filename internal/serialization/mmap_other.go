//go:build !unix

package serialization

import (
	"errors"
	"os"
)

var errNoMmap = errors.New("mmap not supported on this platform")

// mmapFile always fails so Open falls back to reading the file.
func mmapFile(_ *os.File, _ int64) ([]byte, error) {
	return nil, errNoMmap
}

func munmapFile(_ []byte) error {
	return nil
}
