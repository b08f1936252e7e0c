package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jaivikTh/nest-microsrv-kit/internal/cli"
)

func main() {
	if err := cli.App().Run(os.Args); err != nil {
		slog.Error("microshop failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
