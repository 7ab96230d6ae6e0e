// Package serialization reads and writes tensors in the SafeTensors format.
//
// Layout:
//
//	[8 bytes: header_size (uint64 LE)]
//	[header_size bytes: JSON header]
//	[tensor data: raw little-endian bytes]
package serialization

import (
	"fmt"
	"math"
	"sort"

	"github.com/goccy/go-json"

	"github.com/born-ml/jk/internal/tensor"
)

// Validation limits for resource protection.
const (
	MaxHeaderSize  = 100 * 1024 * 1024 // 100MB - maximum header size
	MaxTensorCount = 100_000           // Maximum number of tensors in a file
)

const metadataKey = "__metadata__"

// DType is a SafeTensors element type tag.
type DType string

// SafeTensors dtypes understood by the header parser. Only F64 and F32 can
// be decoded into a tensor.Dense.
const (
	F64  DType = "F64"
	F32  DType = "F32"
	F16  DType = "F16"
	BF16 DType = "BF16"
	I64  DType = "I64"
	I32  DType = "I32"
	U8   DType = "U8"
	Bool DType = "BOOL"
)

// Size returns the byte size of one element.
func (d DType) Size() (int, error) {
	switch d {
	case F64, I64:
		return 8, nil
	case F32, I32:
		return 4, nil
	case F16, BF16:
		return 2, nil
	case U8, Bool:
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedDType, string(d))
	}
}

// TensorInfo describes one tensor in the header.
type TensorInfo struct {
	DType       DType    `json:"dtype"`
	Shape       []int    `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"` // [start, end) relative to the data section
}

// Header is the decoded JSON header.
type Header struct {
	Metadata map[string]string
	Tensors  map[string]TensorInfo
}

// parseHeader decodes the JSON header and validates every tensor against a
// data section of dataSize bytes.
func parseHeader(raw []byte, dataSize int64) (Header, error) {
	var rawMap map[string]json.RawMessage
	if err := json.Unmarshal(raw, &rawMap); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}

	h := Header{Tensors: make(map[string]TensorInfo, len(rawMap))}
	for key, value := range rawMap {
		if key == metadataKey {
			if err := json.Unmarshal(value, &h.Metadata); err != nil {
				return Header{}, fmt.Errorf("%w: metadata: %v", ErrInvalidHeader, err)
			}
			continue
		}
		var info TensorInfo
		if err := json.Unmarshal(value, &info); err != nil {
			return Header{}, fmt.Errorf("%w: tensor %q: %v", ErrInvalidHeader, key, err)
		}
		h.Tensors[key] = info
	}

	if err := validateTensors(h.Tensors, dataSize); err != nil {
		return Header{}, err
	}
	return h, nil
}

type span struct {
	name       string
	start, end int64
}

// validateTensors checks dtype, shape and byte size of each tensor, then
// looks for out-of-bounds and overlapping regions.
func validateTensors(tensors map[string]TensorInfo, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return &ValidationError{
			Err:     ErrInvalidHeader,
			Details: fmt.Sprintf("got %d tensors, max %d", len(tensors), MaxTensorCount),
		}
	}

	spans := make([]span, 0, len(tensors))
	for name, info := range tensors {
		size, err := info.DType.Size()
		if err != nil {
			return &ValidationError{Err: ErrUnsupportedDType, Tensor: name, Details: string(info.DType)}
		}
		shape := tensor.Shape(info.Shape)
		if err := shape.Validate(); err != nil {
			return &ValidationError{Err: ErrInvalidHeader, Tensor: name, Details: err.Error()}
		}
		start, end := info.DataOffsets[0], info.DataOffsets[1]
		if start < 0 || end < start {
			return &ValidationError{
				Err:     ErrInvalidHeader,
				Tensor:  name,
				Details: fmt.Sprintf("data_offsets [%d, %d]", start, end),
			}
		}
		count := shape.NumElements()
		if int64(count) > math.MaxInt64/int64(size) {
			return &ValidationError{
				Err:     ErrInvalidHeader,
				Tensor:  name,
				Details: fmt.Sprintf("shape %v byte size overflows", shape),
			}
		}
		if want := int64(count) * int64(size); end-start != want {
			return &ValidationError{
				Err:     ErrInvalidHeader,
				Tensor:  name,
				Details: fmt.Sprintf("shape %v needs %d bytes, data_offsets span %d", shape, want, end-start),
			}
		}
		if end > dataSize {
			return &ValidationError{
				Err:     ErrOutOfBounds,
				Tensor:  name,
				Details: fmt.Sprintf("end %d > data size %d", end, dataSize),
			}
		}
		spans = append(spans, span{name: name, start: start, end: end})
	}

	sort.Slice(spans, func(i, j int) bool {
		return spans[i].start < spans[j].start
	})
	for i := 1; i < len(spans); i++ {
		prev, cur := spans[i-1], spans[i]
		if prev.end > cur.start {
			return &ValidationError{
				Err:     ErrOffsetOverlap,
				Tensor:  prev.name,
				Tensor2: cur.name,
				Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap", prev.start, prev.end, cur.start, cur.end),
			}
		}
	}
	return nil
}
