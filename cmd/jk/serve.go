package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/born-ml/jk/internal/api"
	"github.com/born-ml/jk/internal/logger"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		maxBasis    int
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the contraction HTTP API",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.IntFlag{
				Name:        "max-basis",
				Usage:       "reject tensors with more basis functions (0 = no limit)",
				Value:       64,
				Destination: &maxBasis,
			},
		}, parallelFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, appConfig, &addr, &maxBasis)

			server := api.NewServer(api.Config{
				MaxBasis: maxBasis,
				Parallel: parallelConfig(workers, minChunkSize),
			}, log.WithGroup("api"))
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr, "max_basis", maxBasis, "workers", workers)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
