package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/born-ml/jk/internal/jk"
	"github.com/born-ml/jk/internal/logger"
	"github.com/born-ml/jk/internal/parallel"
	"github.com/born-ml/jk/internal/serialization"
	"github.com/born-ml/jk/internal/tensor"
)

// computeRequest collects everything one contraction run needs.
type computeRequest struct {
	Input    string
	GName    string
	DName    string
	Op       jk.Op
	Parallel parallel.Config
}

// resultDoc is the JSON form of a result matrix.
type resultDoc struct {
	Op    jk.Op     `json:"op"`
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

func computeCmd() *cli.Command {
	var (
		input  string
		gName  string
		dName  string
		opName string
		output string
		format string
	)

	return &cli.Command{
		Name:  "compute",
		Usage: "Contract g and D read from a SafeTensors file",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:        "input",
				Aliases:     []string{"i"},
				Usage:       "SafeTensors file holding g and D (F64 or F32)",
				Required:    true,
				Destination: &input,
			},
			&cli.StringFlag{
				Name:        "g-name",
				Usage:       "name of the four-index tensor",
				Value:       "g",
				Destination: &gName,
			},
			&cli.StringFlag{
				Name:        "d-name",
				Usage:       "name of the density matrix",
				Value:       "D",
				Destination: &dName,
			},
			&cli.StringFlag{
				Name:        "op",
				Usage:       "operation (j, k, jk)",
				Value:       string(jk.OpJ),
				Destination: &opName,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "output file (default: stdout)",
				Destination: &output,
			},
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (json, safetensors)",
				Value:       "json",
				Destination: &format,
			},
		}, parallelFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyParallelConfig(cmd, appConfig)

			op, err := jk.ParseOp(opName)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if format != "json" && format != "safetensors" {
				return cli.Exit(fmt.Sprintf("error: unknown format %q", format), 1)
			}
			if format == "safetensors" && output == "" {
				return cli.Exit("error: --output is required for safetensors output", 1)
			}

			start := time.Now()
			res, err := runCompute(computeRequest{
				Input:    input,
				GName:    gName,
				DName:    dName,
				Op:       op,
				Parallel: parallelConfig(workers, minChunkSize),
			})
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			log.Info("contraction done", "op", op, "n", res.Dim(0), "workers", workers, "elapsed", time.Since(start))

			if format == "safetensors" {
				meta := map[string]string{"op": string(op), "input": input}
				if err := serialization.WriteFile(output, map[string]*tensor.Dense{string(op): res}, meta); err != nil {
					return cli.Exit(fmt.Sprintf("error: write %s: %v", output, err), 1)
				}
				log.Info("wrote result", "path", output)
				return nil
			}

			if output == "" {
				err = writeJSON(os.Stdout, op, res)
			} else {
				err = writeJSONFile(output, op, res)
			}
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			return nil
		},
	}
}

// runCompute loads g and D and applies the requested contraction.
func runCompute(req computeRequest) (*tensor.Dense, error) {
	f, err := serialization.Open(req.Input)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", req.Input, err)
	}
	defer func() { _ = f.Close() }()

	g, err := f.Tensor(req.GName)
	if err != nil {
		return nil, err
	}
	d, err := f.Tensor(req.DName)
	if err != nil {
		return nil, err
	}
	return jk.Compute(req.Op, g, d, jk.WithParallel(req.Parallel))
}

// writeJSONFile writes the JSON result document to path and reports any
// error from Close.
func writeJSONFile(path string, op jk.Op, res *tensor.Dense) error {
	//nolint:gosec // G304: output path comes from the user
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := writeJSON(f, op, res); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, op jk.Op, res *tensor.Dense) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resultDoc{
		Op:    op,
		Shape: append([]int(nil), res.Shape()...),
		Data:  res.Values(),
	})
}
