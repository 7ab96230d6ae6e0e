package serialization

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/goccy/go-json"

	"github.com/born-ml/jk/internal/tensor"
)

// Write encodes tensors as F64 SafeTensors to w.
// Tensors are written in alphabetical order by name; strided views are
// written in row-major order.
func Write(w io.Writer, tensors map[string]*tensor.Dense, metadata map[string]string) error {
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		if name == metadataKey {
			return fmt.Errorf("%w: reserved tensor name %q", ErrInvalidHeader, name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]any, len(names)+1)
	if len(metadata) > 0 {
		header[metadataKey] = metadata
	}

	var offset int64
	for _, name := range names {
		t := tensors[name]
		size := int64(t.NumElements() * tensor.Float64Size)
		header[name] = TensorInfo{
			DType:       F64,
			Shape:       append([]int(nil), t.Shape()...),
			DataOffsets: [2]int64{offset, offset + size},
		}
		offset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := bw.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	var buf [8]byte
	for _, name := range names {
		for _, v := range tensors[name].Values() {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			if _, err := bw.Write(buf[:]); err != nil {
				return fmt.Errorf("failed to write tensor %s: %w", name, err)
			}
		}
	}
	return bw.Flush()
}

// WriteFile writes tensors to a SafeTensors file at path.
func WriteFile(path string, tensors map[string]*tensor.Dense, metadata map[string]string) error {
	//nolint:gosec // G304: File path comes from user input, which is expected for result saving
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := Write(f, tensors, metadata); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
