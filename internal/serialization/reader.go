package serialization

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/born-ml/jk/internal/tensor"
)

// File is an opened SafeTensors file. The whole file is held in memory,
// memory-mapped where the platform allows it.
//
// Important: Always call Close() when done to unmap the file (use defer).
type File struct {
	data    []byte
	mmapped bool
	header  Header
	start   int64 // Offset of the data section
}

// Open reads a SafeTensors file from disk.
func Open(path string) (*File, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for tensor loading
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = f.Close() // The mapping outlives the descriptor.
	}()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	size := stat.Size()
	if size < 8 {
		return nil, fmt.Errorf("%w: file is %d bytes", ErrInvalidHeader, size)
	}

	// Prefer mmap; fall back to a plain read where it is unavailable.
	if data, err := mmapFile(f, size); err == nil {
		sf, parseErr := parse(data, true)
		if parseErr != nil {
			_ = munmapFile(data)
			return nil, parseErr
		}
		return sf, nil
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return parse(data, false)
}

// Parse decodes a SafeTensors file held in memory. data is retained.
func Parse(data []byte) (*File, error) {
	return parse(data, false)
}

func parse(data []byte, mmapped bool) (*File, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: need 8 bytes for header size, got %d", ErrInvalidHeader, len(data))
	}
	headerSize := binary.LittleEndian.Uint64(data[:8])
	if headerSize > MaxHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}
	start := 8 + int64(headerSize) //nolint:gosec // G115: bounded by MaxHeaderSize
	if start > int64(len(data)) {
		return nil, fmt.Errorf("%w: header size %d exceeds file size %d", ErrInvalidHeader, headerSize, len(data))
	}

	header, err := parseHeader(data[8:start], int64(len(data))-start)
	if err != nil {
		return nil, err
	}
	return &File{data: data, mmapped: mmapped, header: header, start: start}, nil
}

// Header returns the decoded header.
func (f *File) Header() Header {
	return f.header
}

// Metadata returns the __metadata__ map (nil if absent).
func (f *File) Metadata() map[string]string {
	return f.header.Metadata
}

// Names returns the tensor names in sorted order.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.header.Tensors))
	for name := range f.header.Tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Info returns the header entry for name.
func (f *File) Info(name string) (TensorInfo, error) {
	info, ok := f.header.Tensors[name]
	if !ok {
		return TensorInfo{}, fmt.Errorf("%w: %q", ErrTensorNotFound, name)
	}
	return info, nil
}

// Raw returns the bytes of name. The slice aliases the file and is only
// valid until Close.
func (f *File) Raw(name string) ([]byte, error) {
	if f.data == nil {
		return nil, ErrClosed
	}
	info, err := f.Info(name)
	if err != nil {
		return nil, err
	}
	return f.data[f.start+info.DataOffsets[0] : f.start+info.DataOffsets[1]], nil
}

// Tensor decodes name into a new contiguous tensor. F32 data is widened to
// float64. The result does not reference the file.
func (f *File) Tensor(name string) (*tensor.Dense, error) {
	raw, err := f.Raw(name)
	if err != nil {
		return nil, err
	}
	info := f.header.Tensors[name]

	values := make([]float64, tensor.Shape(info.Shape).NumElements())
	switch info.DType {
	case F64:
		for i := range values {
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
		}
	case F32:
		for i := range values {
			values[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:])))
		}
	default:
		return nil, fmt.Errorf("%w: tensor %q has dtype %s, want F64 or F32", ErrUnsupportedDType, name, info.DType)
	}
	return tensor.Wrap(values, tensor.Shape(info.Shape))
}

// Close releases the file contents.
func (f *File) Close() error {
	if f.data == nil {
		return nil
	}
	var err error
	if f.mmapped {
		err = munmapFile(f.data)
	}
	f.data = nil
	f.mmapped = false
	return err
}
