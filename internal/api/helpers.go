package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/born-ml/jk/internal/jk"
)

// Error types reported in ResponseError.Type.
const (
	errTypeInvalidRequest    = "invalid_request_error"
	errTypeShape             = "shape_error"
	errTypeDimensionMismatch = "dimension_mismatch"
	errTypeNotFound          = "not_found_error"
	errTypeServer            = "server_error"
)

func writeError(c *echo.Context, status int, errType, msg, param string) error {
	return c.JSON(status, ErrorBody{
		Error: ResponseError{
			Type:    errType,
			Message: msg,
			Param:   param,
		},
	})
}

func writeBadRequest(c *echo.Context, msg, param string) error {
	return writeError(c, http.StatusBadRequest, errTypeInvalidRequest, msg, param)
}

// writeKernelError maps kernel validation errors onto 400 responses.
func writeKernelError(c *echo.Context, err error) error {
	var shapeErr *jk.ShapeError
	if errors.As(err, &shapeErr) {
		return writeError(c, http.StatusBadRequest, errTypeShape, err.Error(), shapeErr.Operand)
	}
	var dimErr *jk.DimensionMismatchError
	if errors.As(err, &dimErr) {
		return writeError(c, http.StatusBadRequest, errTypeDimensionMismatch, err.Error(), dimErr.Operand)
	}
	if errors.Is(err, jk.ErrNilTensor) {
		return writeBadRequest(c, err.Error(), "")
	}
	return writeError(c, http.StatusInternalServerError, errTypeServer, err.Error(), "")
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
