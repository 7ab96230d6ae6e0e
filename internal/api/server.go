// Package api exposes the jk kernels over HTTP.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/born-ml/jk/internal/jk"
	"github.com/born-ml/jk/internal/logger"
	"github.com/born-ml/jk/internal/parallel"
)

// Config controls request limits and kernel execution.
type Config struct {
	// MaxBasis rejects tensors with more than MaxBasis basis functions.
	// Zero means no limit.
	MaxBasis int
	// Parallel is passed to every contraction.
	Parallel parallel.Config
}

// Server handles contraction requests.
type Server struct {
	cfg Config
	log logger.Logger
}

// NewServer creates a Server. A nil log discards output.
func NewServer(cfg Config, log logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	return &Server{cfg: cfg, log: log}
}

// Register mounts the routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/v1/ops", s.handleListOps)
	e.POST("/v1/contract/:op", s.handleContract)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListOps(c *echo.Context) error {
	ops := make([]map[string]string, 0, len(jk.Ops()))
	for _, op := range jk.Ops() {
		contraction, err := op.Contraction()
		if err != nil {
			return writeError(c, http.StatusInternalServerError, errTypeServer, err.Error(), "")
		}
		ops = append(ops, map[string]string{"op": string(op), "contraction": contraction.String()})
	}
	return c.JSON(http.StatusOK, map[string]any{"ops": ops})
}

func (s *Server) handleContract(c *echo.Context) error {
	op, err := jk.ParseOp(c.Param("op"))
	if err != nil {
		return writeError(c, http.StatusNotFound, errTypeNotFound, err.Error(), "op")
	}

	req, err := decodeJSON[ContractRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, fmt.Sprintf("decode body: %v", err), "")
	}
	g, d, param, err := req.operands()
	if err != nil {
		return writeBadRequest(c, err.Error(), param)
	}
	if s.cfg.MaxBasis > 0 && g.Rank() > 0 && g.Dim(0) > s.cfg.MaxBasis {
		return writeBadRequest(c, fmt.Sprintf("g has %d basis functions, limit is %d", g.Dim(0), s.cfg.MaxBasis), "g")
	}

	start := time.Now()
	out, err := jk.Compute(op, g, d, jk.WithParallel(s.cfg.Parallel))
	if err != nil {
		s.log.Warn("contraction rejected", "op", op, "error", err)
		return writeKernelError(c, err)
	}
	elapsed := time.Since(start)

	resp := ContractResponse{
		ID:     "jk_" + uuid.NewString(),
		Op:     op,
		Shape:  append([]int(nil), out.Shape()...),
		Data:   out.Values(),
		Micros: elapsed.Microseconds(),
	}
	s.log.Info("contraction done", "id", resp.ID, "op", op, "n", out.Dim(0), "elapsed", elapsed)
	return c.JSON(http.StatusOK, resp)
}
