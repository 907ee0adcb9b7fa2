package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/snykops/orgreap/cmd/orgreap/internal/config"
	"github.com/snykops/orgreap/snykapi"
)

func regionsCmd() *cli.Command {
	return &cli.Command{
		Name:   "regions",
		Usage:  "List the known regions and their API endpoints",
		Action: runRegions,
	}
}

func runRegions(ctx context.Context, cmd *cli.Command) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	cfg, err := config.Find(cwd)
	if err != nil {
		return err
	}

	endpoints := snykapi.RegionEndpoints(cfg.Regions)
	for _, region := range snykapi.KnownRegions(cfg.Regions) {
		fmt.Fprintf(os.Stdout, "%-12s %s\n", region, endpoints[region])
	}
	return nil
}
