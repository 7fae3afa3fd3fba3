package main

import (
	"log"
	"os"

	"epias-report/internal/cli"
	"epias-report/internal/config"
	"epias-report/internal/observability/metrics"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}
	metrics.Init()

	if err := cli.NewRootCmd(cfg, logger).Execute(); err != nil {
		logger.Printf("error: %v", err)
		os.Exit(1)
	}
}
