package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/TWRT/eisenhower-matrix/internal/cli"
	"github.com/TWRT/eisenhower-matrix/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	slog.SetDefault(cli.NewLogger(os.Stderr, cfg.LogLevel))

	os.Exit(cli.Execute(context.Background(), cli.DefaultBuilder(cfg), os.Args[1:], os.Stdout, os.Stderr))
}
