// Package main provides the jk CLI: Coulomb/exchange contractions from
// SafeTensors inputs and an HTTP server exposing the same kernels.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/born-ml/jk/internal/logger"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "jk",
		Usage: "Coulomb (J) and exchange (K) matrix contractions",
		Flags: globalFlags(),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg, err := LoadConfig(configFile)
			if err != nil {
				return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			appConfig = cfg
			applyGlobalConfig(cmd, cfg)
			log := logger.NewFromFormat(os.Stderr, logFormat, logLevel)
			return logger.WithContext(ctx, log), nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			computeCmd(),
			serveCmd(),
			versionCmd(),
		},
	}
}
