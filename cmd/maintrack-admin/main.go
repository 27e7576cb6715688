package main

import (
	"fmt"
	"os"

	"maintrack/internal/cli"
	"maintrack/internal/log"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)

	if err := cli.NewAdminCmd(cfg, logger).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
