package api

import (
	"fmt"

	"github.com/born-ml/jk/internal/jk"
	"github.com/born-ml/jk/internal/tensor"
)

// TensorDTO is the wire form of a tensor. Strides and Offset are in
// elements; when Strides is omitted Data is read as row-major.
type TensorDTO struct {
	Shape   []int     `json:"shape"`
	Strides []int     `json:"strides,omitempty"`
	Offset  int       `json:"offset,omitempty"`
	Data    []float64 `json:"data"`
}

// Dense converts the DTO into a tensor sharing Data.
func (t *TensorDTO) Dense() (*tensor.Dense, error) {
	if t.Strides == nil && t.Offset == 0 {
		return tensor.Wrap(t.Data, tensor.Shape(t.Shape))
	}
	return tensor.FromStrided(t.Data, tensor.Shape(t.Shape), t.Strides, t.Offset)
}

// FromDense converts a tensor into its row-major DTO.
func FromDense(d *tensor.Dense) TensorDTO {
	return TensorDTO{
		Shape: append([]int(nil), d.Shape()...),
		Data:  append([]float64(nil), d.Values()...),
	}
}

// ContractRequest is the body of POST /v1/contract/:op.
type ContractRequest struct {
	G *TensorDTO `json:"g"`
	D *TensorDTO `json:"D"`
}

// ContractResponse carries one result matrix.
type ContractResponse struct {
	ID     string    `json:"id"`
	Op     jk.Op     `json:"op"`
	Shape  []int     `json:"shape"`
	Data   []float64 `json:"data"`
	Micros int64     `json:"elapsed_us"`
}

// ErrorBody is the error envelope returned with every non-2xx status.
type ErrorBody struct {
	Error ResponseError `json:"error"`
}

// ResponseError describes a failed request.
type ResponseError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Param   string `json:"param,omitempty"`
}

// operands converts both request tensors, naming the one that failed.
func (r *ContractRequest) operands() (g, d *tensor.Dense, param string, err error) {
	if r.G == nil {
		return nil, nil, "g", fmt.Errorf("missing tensor g")
	}
	if r.D == nil {
		return nil, nil, "D", fmt.Errorf("missing matrix D")
	}
	g, err = r.G.Dense()
	if err != nil {
		return nil, nil, "g", fmt.Errorf("g: %w", err)
	}
	d, err = r.D.Dense()
	if err != nil {
		return nil, nil, "D", fmt.Errorf("D: %w", err)
	}
	return g, d, "", nil
}
