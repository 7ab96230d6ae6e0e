package main

import "github.com/urfave/cli/v3"

var (
	configFile   string
	logLevel     string
	logFormat    string
	workers      int
	minChunkSize int

	// appConfig is loaded once in the root Before hook.
	appConfig Config
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default: user config dir)",
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (text, json)",
			Value:       "text",
			Destination: &logFormat,
		},
	}
}

func parallelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "workers",
			Usage:       "goroutines used for the (i,j) cells (<= 1 runs sequentially)",
			Value:       1,
			Destination: &workers,
		},
		&cli.IntFlag{
			Name:        "min-chunk",
			Usage:       "minimum cells per goroutine",
			Value:       64,
			Destination: &minChunkSize,
		},
	}
}
