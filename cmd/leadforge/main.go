package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/juanroddotdev/LeadForge/internal/config"
	"github.com/juanroddotdev/LeadForge/internal/server"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	port := flag.Int("port", 0, "Override the listen port")
	flag.Parse()

	// Provider credentials commonly live in a local .env during development;
	// a missing file is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	ctx := context.Background()
	app, err := server.Build(ctx, &cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build application failed: %v\n", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		os.Exit(1)
	}
}
