package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/etkecc/baibot/common/environment"
	"github.com/etkecc/baibot/common/version"
	"github.com/etkecc/baibot/internal/baibot/bootstrap"
)

func main() {
	fmt.Printf("baibot\n")
	fmt.Printf("Version: %s\n", version.Version)
	fmt.Printf("Commit: %s\n", version.GitCommit)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Println()

	path := environment.StringOr("BAIBOT_CONFIG_PATH", "config.yml")
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	cfg, err := bootstrap.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	bootstrap.SetupLogging(cfg.Logging)

	app, err := bootstrap.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize baibot: %v\n", err)
		os.Exit(1)
	}
	defer app.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error running baibot: %v\n", err)
		os.Exit(1)
	}
}
